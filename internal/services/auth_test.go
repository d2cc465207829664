package services

import (
  "context"
  "errors"
  "testing"
  "time"

  "github.com/google/uuid"
  "github.com/stretchr/testify/require"

  "github.com/gemchat-org/gemchat-backend/internal/apperr"
  "github.com/gemchat-org/gemchat-backend/internal/logger"
  "github.com/gemchat-org/gemchat-backend/internal/requestdata"
  "github.com/gemchat-org/gemchat-backend/internal/types"
)

func newTokenOnlyAuthService(t *testing.T, ttl time.Duration, secret string) *authService {
  t.Helper()
  svc := NewAuthService(nil, logger.NewNop(), nil, nil, secret, ttl)
  return svc.(*authService)
}

// TestTokenRoundtrip verifies that a token issued for a user decodes back to
// the same identity.
func TestTokenRoundtrip(t *testing.T) {
  as := newTokenOnlyAuthService(t, time.Hour, "test-secret")
  user := &types.User{ID: uuid.New(), Email: "a@x.com"}

  token, err := as.generateAccessToken(user)
  require.NoError(t, err)
  require.NotEmpty(t, token)

  ctx, err := as.SetContextFromToken(context.Background(), token)
  require.NoError(t, err)

  rd := requestdata.GetRequestData(ctx)
  require.NotNil(t, rd)
  require.Equal(t, user.ID, rd.UserID)
  require.Equal(t, "a@x.com", rd.Email)
  require.Equal(t, token, rd.TokenString)
}

func TestExpiredTokenRejected(t *testing.T) {
  as := newTokenOnlyAuthService(t, -time.Minute, "test-secret")
  user := &types.User{ID: uuid.New(), Email: "a@x.com"}

  token, err := as.generateAccessToken(user)
  require.NoError(t, err)

  _, err = as.SetContextFromToken(context.Background(), token)
  require.Error(t, err)
  require.True(t, errors.Is(err, apperr.ErrUnauthenticated))
}

func TestForeignKeyTokenRejected(t *testing.T) {
  issuer := newTokenOnlyAuthService(t, time.Hour, "secret-one")
  verifier := newTokenOnlyAuthService(t, time.Hour, "secret-two")
  user := &types.User{ID: uuid.New(), Email: "a@x.com"}

  token, err := issuer.generateAccessToken(user)
  require.NoError(t, err)

  _, err = verifier.SetContextFromToken(context.Background(), token)
  require.Error(t, err)
  require.True(t, errors.Is(err, apperr.ErrUnauthenticated))
}

func TestMalformedTokenRejected(t *testing.T) {
  as := newTokenOnlyAuthService(t, time.Hour, "test-secret")

  for _, tok := range []string{"", "garbage", "a.b.c"} {
    _, err := as.SetContextFromToken(context.Background(), tok)
    require.Error(t, err, "token %q should be rejected", tok)
    require.True(t, errors.Is(err, apperr.ErrUnauthenticated))
  }
}

func TestGetAccessTTL(t *testing.T) {
  as := newTokenOnlyAuthService(t, 7*24*time.Hour, "test-secret")
  require.Equal(t, 7*24*time.Hour, as.GetAccessTTL())
}
