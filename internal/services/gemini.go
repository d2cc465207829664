package services

import (
  "bytes"
  "context"
  "encoding/json"
  "fmt"
  "io"
  "net/http"
  "os"

  "github.com/gemchat-org/gemchat-backend/internal/apperr"
  "github.com/gemchat-org/gemchat-backend/internal/logger"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// Fixed generation parameters for every call.
const (
  geminiTemperature     = 0.7
  geminiMaxOutputTokens = 2048
)

type GeminiService interface {
  Complete(ctx context.Context, prompt string) (string, error)
}

type geminiService struct {
  log               *logger.Logger
  client            *http.Client
  baseURL           string
  apiKey            string
  model             string
}

type geminiPart struct {
  Text        string        `json:"text"`
}

type geminiContent struct {
  Parts       []geminiPart  `json:"parts"`
}

type geminiGenerationConfig struct {
  Temperature     float64     `json:"temperature"`
  MaxOutputTokens int         `json:"maxOutputTokens"`
}

type geminiRequest struct {
  Contents          []geminiContent         `json:"contents"`
  GenerationConfig  geminiGenerationConfig  `json:"generationConfig"`
}

type geminiResponse struct {
  Candidates []struct {
    Content geminiContent `json:"content"`
  } `json:"candidates"`
}

func NewGeminiService(log *logger.Logger) (GeminiService, error) {
  serviceLog := log.With("service", "GeminiService")
  baseURL := os.Getenv("GEMINI_API_URL")
  if baseURL == "" {
    baseURL = defaultGeminiBaseURL
  }
  model := os.Getenv("GEMINI_MODEL")
  if model == "" {
    return nil, fmt.Errorf("missing GEMINI_MODEL environment variable")
  }
  apiKey := os.Getenv("GEMINI_API_KEY")
  if apiKey == "" {
    serviceLog.Warn("GEMINI_API_KEY not set; calls might fail or be unauthorized")
  }
  return &geminiService{
    log:      serviceLog,
    client:   &http.Client{},
    baseURL:  baseURL,
    apiKey:   apiKey,
    model:    model,
  }, nil
}

// Complete sends a single-turn prompt, no history window, and returns the
// first candidate's text.
func (gs *geminiService) Complete(ctx context.Context, prompt string) (string, error) {
  payload := geminiRequest{
    Contents: []geminiContent{
      {Parts: []geminiPart{{Text: prompt}}},
    },
    GenerationConfig: geminiGenerationConfig{
      Temperature:     geminiTemperature,
      MaxOutputTokens: geminiMaxOutputTokens,
    },
  }
  body, err := json.Marshal(payload)
  if err != nil {
    gs.log.Warn("failed to marshal gemini request", "error", err)
    return "", fmt.Errorf("%w: failed to marshal request: %v", apperr.ErrUpstream, err)
  }

  reqURL := fmt.Sprintf("%s/v1beta/models/%s:generateContent", gs.baseURL, gs.model)
  req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
  if err != nil {
    gs.log.Warn("failed to build new request", "error", err)
    return "", fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
  }
  req.Header.Set("Content-Type", "application/json")
  if gs.apiKey != "" {
    req.Header.Set("x-goog-api-key", gs.apiKey)
  }

  resp, err := gs.client.Do(req)
  if err != nil {
    gs.log.Warn("failed to call gemini", "error", err)
    return "", fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
  }
  defer resp.Body.Close()

  if resp.StatusCode < 200 || resp.StatusCode > 299 {
    bodyBytes, _ := io.ReadAll(resp.Body)
    gs.log.Warn("gemini responded with non-2xx", "statusCode", resp.StatusCode, "body", string(bodyBytes))
    return "", fmt.Errorf("%w: gemini HTTP %d", apperr.ErrUpstream, resp.StatusCode)
  }

  var out geminiResponse
  if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
    gs.log.Warn("failed to decode gemini response body", "error", err)
    return "", fmt.Errorf("%w: failed to decode response: %v", apperr.ErrUpstream, err)
  }
  if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
    gs.log.Warn("gemini response missing candidates")
    return "", fmt.Errorf("%w: response missing completion text", apperr.ErrUpstream)
  }
  reply := out.Candidates[0].Content.Parts[0].Text
  gs.log.Info("Gemini call success", "model", gs.model)
  return reply, nil
}
