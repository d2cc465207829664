package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/gemchat-org/gemchat-backend/internal/apperr"
)

func Healthz(c *gin.Context) {
  c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// abortWithError translates a service error into the HTTP response. Anything
// unclassified becomes a generic 500 body; the detail stays in the server
// logs only.
func abortWithError(c *gin.Context, err error) {
  status := apperr.StatusCode(err)
  if status == http.StatusInternalServerError {
    c.JSON(status, gin.H{"error": "something went wrong, please try again"})
    return
  }
  c.JSON(status, gin.H{"error": err.Error()})
}
