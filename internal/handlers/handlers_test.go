package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gemchat-org/gemchat-backend/internal/apperr"
	"github.com/gemchat-org/gemchat-backend/internal/handlers"
	"github.com/gemchat-org/gemchat-backend/internal/logger"
	"github.com/gemchat-org/gemchat-backend/internal/middleware"
	"github.com/gemchat-org/gemchat-backend/internal/repos"
	"github.com/gemchat-org/gemchat-backend/internal/server"
	"github.com/gemchat-org/gemchat-backend/internal/services"
	"github.com/gemchat-org/gemchat-backend/internal/types"
)

// stubGemini stands in for the external model.
type stubGemini struct {
	reply string
	err   error
	calls int
}

func (s *stubGemini) Complete(ctx context.Context, prompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func newTestRouter(t *testing.T, gemini services.GeminiService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&types.User{}, &types.Chat{}, &types.ChatMessage{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	log := logger.NewNop()
	userRepo := repos.NewUserRepo(db, log)
	chatRepo := repos.NewChatRepo(db, log)
	chatMessageRepo := repos.NewChatMessageRepo(db, log)

	authService := services.NewAuthService(db, log, userRepo, nil, "test-secret", time.Hour)
	chatService := services.NewChatService(db, log, chatRepo, chatMessageRepo, gemini)

	return server.NewRouter(server.RouterConfig{
		AuthHandler:    handlers.NewAuthHandler(authService),
		ChatHandler:    handlers.NewChatHandler(chatService),
		AuthMiddleware: middleware.NewAuthMiddleware(log, authService),
	})
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req, err := http.NewRequest(method, path, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func registerAlice(t *testing.T, router *gin.Engine) string {
	t.Helper()
	rr := doJSON(t, router, "POST", "/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "a@x.com",
		"password": "secret1",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("register returned no token")
	}
	return resp.Token
}

func createChat(t *testing.T, router *gin.Engine, token, name string) string {
	t.Helper()
	rr := doJSON(t, router, "POST", "/chat/new", token, map[string]string{"chatName": name})
	if rr.Code != http.StatusCreated {
		t.Fatalf("chat/new returned %d: %s", rr.Code, rr.Body.String())
	}
	var chat struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &chat); err != nil {
		t.Fatalf("failed to decode chat response: %v", err)
	}
	if chat.ID == "" {
		t.Fatal("chat/new returned no id")
	}
	return chat.ID
}

func TestRegisterLoginExchangeFlow(t *testing.T) {
	router := newTestRouter(t, &stubGemini{reply: "hi there"})

	token := registerAlice(t, router)

	// Login with the same credentials must succeed.
	rr := doJSON(t, router, "POST", "/auth/login", "", map[string]string{
		"email":    "a@x.com",
		"password": "secret1",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rr.Code, rr.Body.String())
	}

	chatID := createChat(t, router, token, "Test")

	rr = doJSON(t, router, "POST", "/chat/gemini", token, map[string]string{
		"chatId":  chatID,
		"message": "hello",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("exchange returned %d: %s", rr.Code, rr.Body.String())
	}
	var exchange struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &exchange); err != nil {
		t.Fatalf("failed to decode exchange response: %v", err)
	}
	if exchange.Message != "hi there" {
		t.Errorf("Expected reply 'hi there', got '%s'", exchange.Message)
	}

	rr = doJSON(t, router, "GET", "/chat/history?chatId="+chatID, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("history returned %d: %s", rr.Code, rr.Body.String())
	}
	var msgs []struct {
		Text  string `json:"text"`
		IsBot bool   `json:"isBot"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("failed to decode history response: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Expected exactly 2 messages, got %d", len(msgs))
	}
	if msgs[0].Text != "hello" || msgs[0].IsBot {
		t.Errorf("Expected first message to be the user turn 'hello', got %+v", msgs[0])
	}
	if msgs[1].Text != "hi there" || !msgs[1].IsBot {
		t.Errorf("Expected second message to be the bot turn 'hi there', got %+v", msgs[1])
	}
}

func TestRegisterValidation(t *testing.T) {
	router := newTestRouter(t, &stubGemini{reply: "ok"})

	// Short password
	rr := doJSON(t, router, "POST", "/auth/register", "", map[string]string{
		"username": "bob",
		"email":    "b@x.com",
		"password": "short",
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for short password, got %d", rr.Code)
	}

	// Missing fields
	rr = doJSON(t, router, "POST", "/auth/register", "", map[string]string{
		"username": "bob",
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing fields, got %d", rr.Code)
	}

	registerAlice(t, router)

	// Duplicate email
	rr = doJSON(t, router, "POST", "/auth/register", "", map[string]string{
		"username": "alice2",
		"email":    "a@x.com",
		"password": "secret1",
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for duplicate email, got %d", rr.Code)
	}

	// Duplicate username
	rr = doJSON(t, router, "POST", "/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "a2@x.com",
		"password": "secret1",
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for duplicate username, got %d", rr.Code)
	}
}

// TestLoginDoesNotRevealWhichFieldWasWrong checks the anti-enumeration
// contract: unknown email and wrong password produce identical responses.
func TestLoginDoesNotRevealWhichFieldWasWrong(t *testing.T) {
	router := newTestRouter(t, &stubGemini{reply: "ok"})
	registerAlice(t, router)

	wrongPassword := doJSON(t, router, "POST", "/auth/login", "", map[string]string{
		"email":    "a@x.com",
		"password": "wrongpass",
	})
	unknownEmail := doJSON(t, router, "POST", "/auth/login", "", map[string]string{
		"email":    "nobody@x.com",
		"password": "secret1",
	})

	if wrongPassword.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong password, got %d", wrongPassword.Code)
	}
	if unknownEmail.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for unknown email, got %d", unknownEmail.Code)
	}
	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Errorf("Expected identical bodies, got %q vs %q",
			wrongPassword.Body.String(), unknownEmail.Body.String())
	}
}

func TestProfile(t *testing.T) {
	router := newTestRouter(t, &stubGemini{reply: "ok"})
	token := registerAlice(t, router)

	rr := doJSON(t, router, "GET", "/auth/profile", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("profile returned %d: %s", rr.Code, rr.Body.String())
	}
	var profile map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &profile); err != nil {
		t.Fatalf("failed to decode profile: %v", err)
	}
	if profile["username"] != "alice" || profile["email"] != "a@x.com" {
		t.Errorf("Unexpected profile: %+v", profile)
	}
	if _, ok := profile["password"]; ok {
		t.Error("Profile response must not contain the password hash")
	}

	// Without a token the endpoint is closed.
	rr = doJSON(t, router, "GET", "/auth/profile", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rr.Code)
	}
}

func TestChatEndpointsRequireAuth(t *testing.T) {
	router := newTestRouter(t, &stubGemini{reply: "ok"})

	for _, tc := range []struct {
		method, path string
	}{
		{"POST", "/chat/new"},
		{"GET", "/chat/history"},
		{"DELETE", "/chat/delete?chatId=x"},
		{"POST", "/chat/gemini"},
	} {
		rr := doJSON(t, router, tc.method, tc.path, "", nil)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401 without token, got %d", tc.method, tc.path, rr.Code)
		}
	}
}

func TestDeleteChatOwnershipAndCascade(t *testing.T) {
	router := newTestRouter(t, &stubGemini{reply: "hi there"})
	aliceToken := registerAlice(t, router)

	rr := doJSON(t, router, "POST", "/auth/register", "", map[string]string{
		"username": "bob",
		"email":    "b@x.com",
		"password": "secret2",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register bob returned %d: %s", rr.Code, rr.Body.String())
	}
	var bobResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &bobResp); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}

	chatID := createChat(t, router, aliceToken, "Test")
	rr = doJSON(t, router, "POST", "/chat/gemini", aliceToken, map[string]string{
		"chatId":  chatID,
		"message": "hello",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("exchange returned %d: %s", rr.Code, rr.Body.String())
	}

	// Bob cannot delete Alice's chat even though it exists.
	rr = doJSON(t, router, "DELETE", "/chat/delete?chatId="+chatID, bobResp.Token, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for non-owner delete, got %d", rr.Code)
	}

	rr = doJSON(t, router, "DELETE", "/chat/delete?chatId="+chatID, aliceToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("owner delete returned %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, router, "GET", "/chat/history?chatId="+chatID, aliceToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("history returned %d: %s", rr.Code, rr.Body.String())
	}
	var msgs []json.RawMessage
	if err := json.Unmarshal(rr.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("failed to decode history: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("Expected 0 messages after chat deletion, got %d", len(msgs))
	}
}

func TestChatListMostRecentFirst(t *testing.T) {
	router := newTestRouter(t, &stubGemini{reply: "hi there"})
	token := registerAlice(t, router)

	firstID := createChat(t, router, token, "first")
	_ = createChat(t, router, token, "second")

	// An exchange bumps the first chat's updated timestamp past the second's.
	rr := doJSON(t, router, "POST", "/chat/gemini", token, map[string]string{
		"chatId":  firstID,
		"message": "hello",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("exchange returned %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, router, "GET", "/chat/history", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("history returned %d: %s", rr.Code, rr.Body.String())
	}
	var chats []struct {
		ID       string `json:"id"`
		ChatName string `json:"chatName"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &chats); err != nil {
		t.Fatalf("failed to decode chats: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("Expected 2 chats, got %d", len(chats))
	}
	if chats[0].ID != firstID {
		t.Errorf("Expected most recently active chat first, got '%s'", chats[0].ChatName)
	}
}

// TestUpstreamFailureLeavesUserTurn pins down the known gap: when the model
// call fails the user's turn stays persisted with no paired bot reply, and a
// client retry appends a second user turn.
func TestUpstreamFailureLeavesUserTurn(t *testing.T) {
	stub := &stubGemini{err: fmt.Errorf("%w: model unavailable", apperr.ErrUpstream)}
	router := newTestRouter(t, stub)
	token := registerAlice(t, router)
	chatID := createChat(t, router, token, "Test")

	rr := doJSON(t, router, "POST", "/chat/gemini", token, map[string]string{
		"chatId":  chatID,
		"message": "hello",
	})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502 for upstream failure, got %d", rr.Code)
	}

	// Retry of the same logical turn.
	doJSON(t, router, "POST", "/chat/gemini", token, map[string]string{
		"chatId":  chatID,
		"message": "hello",
	})

	rr = doJSON(t, router, "GET", "/chat/history?chatId="+chatID, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("history returned %d: %s", rr.Code, rr.Body.String())
	}
	var msgs []struct {
		Text  string `json:"text"`
		IsBot bool   `json:"isBot"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("failed to decode history: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 dangling user turns after failed retry, got %d", len(msgs))
	}
	for i, m := range msgs {
		if m.IsBot {
			t.Errorf("Message %d should be a user turn, got bot", i)
		}
	}
	if stub.calls != 2 {
		t.Errorf("Expected 2 upstream calls, got %d", stub.calls)
	}
}

func TestGeminiMissingFieldsRejected(t *testing.T) {
	router := newTestRouter(t, &stubGemini{reply: "hi"})
	token := registerAlice(t, router)

	rr := doJSON(t, router, "POST", "/chat/gemini", token, map[string]string{"chatId": ""})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing fields, got %d", rr.Code)
	}
}
