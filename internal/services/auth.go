package services

import (
  "context"
  "errors"
  "fmt"
  "time"

  "gorm.io/gorm"
  "golang.org/x/crypto/bcrypt"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"

  "github.com/gemchat-org/gemchat-backend/internal/apperr"
  "github.com/gemchat-org/gemchat-backend/internal/logger"
  "github.com/gemchat-org/gemchat-backend/internal/normalization"
  "github.com/gemchat-org/gemchat-backend/internal/repos"
  "github.com/gemchat-org/gemchat-backend/internal/requestdata"
  "github.com/gemchat-org/gemchat-backend/internal/types"
  "github.com/gemchat-org/gemchat-backend/internal/utils"
)

// Both unknown-email and wrong-password land on this exact message so the
// response never reveals which of the two it was.
const invalidCredentialsMsg = "invalid email or password"

type JWTClaims struct {
  jwt.RegisteredClaims
  Email       string      `json:"email,omitempty"`
}

type AuthService interface {
  RegisterUser(ctx context.Context, user *types.User) (string, error)
  Login(ctx context.Context, email, password string) (string, *types.User, error)
  GetProfile(ctx context.Context) (*types.User, error)

  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)

  GetAccessTTL() time.Duration
}

type authService struct {
  db                *gorm.DB
  log               *logger.Logger
  userRepo          repos.UserRepo
  emailService      EmailService
  jwtSecretKey      string
  accessTTL         time.Duration
}

func NewAuthService(
  db                *gorm.DB,
  log               *logger.Logger,
  userRepo          repos.UserRepo,
  emailService      EmailService,
  jwtSecretKey      string,
  accessTTL         time.Duration,
) AuthService {
  serviceLog := log.With("service", "AuthService")
  return &authService{
    db:             db,
    log:            serviceLog,
    userRepo:       userRepo,
    emailService:   emailService,
    jwtSecretKey:   jwtSecretKey,
    accessTTL:      accessTTL,
  }
}

func (as *authService) RegisterUser(ctx context.Context, user *types.User) (string, error) {
  as.log.Info("Starting Register User now...")

  //1) Normalize User Fields
  utils.NormalizeUserFields(ctx, user)

  //2) Checks on user fields
  if vErr := utils.InputValidation(ctx, "registration", as.userRepo, as.log, user, "", ""); vErr != nil {
    return "", vErr
  }

  //3) Hash Password
  if hErr := utils.HashPassword(ctx, as.log, user); hErr != nil {
    return "", hErr
  }

  //4) Create Final User
  user.ID = uuid.New()
  createdUsers, cErr := as.userRepo.Create(ctx, nil, []*types.User{user})
  if cErr != nil {
    as.log.Warn("Failure from AuthService -> UserRepo to create final user", "error", cErr)
    return "", fmt.Errorf("Failure to create user: %w", cErr)
  }
  if len(createdUsers) == 0 {
    as.log.Warn("Failure to actually create user from AuthService")
    return "", fmt.Errorf("Failure to create user in DB")
  }

  //5) Issue Access Token
  token, tErr := as.generateAccessToken(user)
  if tErr != nil {
    as.log.Warn("Generate Access Token Error, Cannot proceed. Returning error.", "error", tErr)
    return "", fmt.Errorf("Generate Access Token Error: %w", tErr)
  }

  //6) Welcome Email (best effort, never blocks registration)
  if as.emailService != nil {
    if eErr := as.emailService.SendWelcomeEmail(ctx, user.Email, user.Username); eErr != nil {
      as.log.Warn("Failed to send welcome email", "error", eErr, "email", user.Email)
    }
  }
  return token, nil
}

func (as *authService) Login(ctx context.Context, userEmail, userPassword string) (string, *types.User, error) {
  //1) Normalize Input
  email := normalization.ParseEmail(userEmail)

  //2) Input Validations
  if vErr := utils.InputValidation(ctx, "login", as.userRepo, as.log, nil, email, userPassword); vErr != nil {
    return "", nil, vErr
  }

  //3) Find User By Email
  users, uSErr := as.userRepo.GetByEmails(ctx, nil, []string{email})
  if uSErr != nil {
    as.log.Warn("Failure to retrieve user by email, Cannot proceed. Returning error.", "error", uSErr)
    return "", nil, fmt.Errorf("error retrieving user by email: %w", uSErr)
  }
  if len(users) == 0 {
    as.log.Warn("Invalid email, no users returned")
    return "", nil, fmt.Errorf("%w: %s", apperr.ErrUnauthenticated, invalidCredentialsMsg)
  }
  user := users[0]

  //4) Check Password
  if hErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(userPassword)); hErr != nil {
    as.log.Warn("Invalid password, user password and hash dont match, Cannot proceed. Returning error.")
    return "", nil, fmt.Errorf("%w: %s", apperr.ErrUnauthenticated, invalidCredentialsMsg)
  }

  //5) Issue Access Token
  token, tErr := as.generateAccessToken(user)
  if tErr != nil {
    as.log.Warn("Generate Access Token Error, Cannot proceed. Returning error.", "error", tErr)
    return "", nil, fmt.Errorf("Generate Access Token Error: %w", tErr)
  }
  return token, user, nil
}

func (as *authService) GetProfile(ctx context.Context) (*types.User, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    as.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("%w: no authenticated user in context", apperr.ErrUnauthenticated)
  }
  users, err := as.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
  if err != nil {
    as.log.Warn("Failed to load user for profile, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("Failed to load user for profile: %w", err)
  }
  if len(users) == 0 {
    as.log.Warn("No user found for the authenticated user id", "userID", rd.UserID)
    return nil, fmt.Errorf("%w: user not found", apperr.ErrNotFound)
  }
  return users[0], nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
  claims := JWTClaims{
    RegisteredClaims: jwt.RegisteredClaims{
      Subject: user.ID.String(),
      ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
      IssuedAt: jwt.NewNumericDate(time.Now()),
    },
    Email: user.Email,
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  return token.SignedString([]byte(as.jwtSecretKey))
}

// SetContextFromToken verifies the token and, on success, populates the
// request context with the embedded identity. Internally the failure modes
// stay distinguishable through wrapping; the HTTP boundary only ever sees
// ErrUnauthenticated.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  if tokenString == "" {
    return ctx, fmt.Errorf("%w: no token provided", apperr.ErrUnauthenticated)
  }
  parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
    return []byte(as.jwtSecretKey), nil
  }, jwt.WithValidMethods([]string{"HS256"}))
  if err != nil {
    switch {
    case errors.Is(err, jwt.ErrTokenMalformed):
      return ctx, fmt.Errorf("%w: malformed token", apperr.ErrUnauthenticated)
    case errors.Is(err, jwt.ErrTokenExpired):
      return ctx, fmt.Errorf("%w: token expired", apperr.ErrUnauthenticated)
    case errors.Is(err, jwt.ErrTokenSignatureInvalid):
      return ctx, fmt.Errorf("%w: invalid token signature", apperr.ErrUnauthenticated)
    default:
      return ctx, fmt.Errorf("%w: failed to parse token", apperr.ErrUnauthenticated)
    }
  }
  claims, ok := parsedToken.Claims.(*JWTClaims)
  if !ok || !parsedToken.Valid {
    return ctx, fmt.Errorf("%w: invalid or expired JWT token", apperr.ErrUnauthenticated)
  }
  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    return ctx, fmt.Errorf("%w: invalid user ID in token", apperr.ErrUnauthenticated)
  }
  rd := &requestdata.RequestData{
    TokenString: tokenString,
    UserID: userID,
    Email: claims.Email,
  }
  ctx = requestdata.WithRequestData(ctx, rd)
  return ctx, nil
}

func (as *authService) GetAccessTTL() time.Duration {
  return as.accessTTL
}
