package utils

import (
  "context"
  "fmt"

  "golang.org/x/crypto/bcrypt"

  "github.com/gemchat-org/gemchat-backend/internal/apperr"
  "github.com/gemchat-org/gemchat-backend/internal/logger"
  "github.com/gemchat-org/gemchat-backend/internal/normalization"
  "github.com/gemchat-org/gemchat-backend/internal/repos"
  "github.com/gemchat-org/gemchat-backend/internal/types"
)

const minPasswordLength = 6

func InputValidation(ctx context.Context, ffor string, userRepo repos.UserRepo, log *logger.Logger, user *types.User, email, password string) error {
  validatedFor := normalization.ParseInputString(ffor)
  switch validatedFor {
  case "registration":
    if err := handleRegisterInputValidation(ctx, userRepo, log, user); err != nil {
      return err
    }
  case "login":
    if err := handleLoginInputValidation(ctx, log, email, password); err != nil {
      return err
    }
  default:
    log.Warn("for string is invalid, needs to be either 'registration' or 'login'. Returning error", "for", validatedFor)
    return fmt.Errorf("for string is invalid, needs to be either 'registration' or 'login': '%s'", validatedFor)
  }
  return nil
}

func handleRegisterInputValidation(ctx context.Context, userRepo repos.UserRepo, log *logger.Logger, user *types.User) error {
  //1) Check if user is empty
  if user == nil {
    log.Warn("User is nil, cannot proceed further. Returning error", "user", user)
    return fmt.Errorf("%w: no user given", apperr.ErrInvalidInput)
  }

  //2) Check Username
  if user.Username == "" {
    log.Warn("Username is empty, cannot proceed further. Returning error")
    return fmt.Errorf("%w: a username is required to register", apperr.ErrInvalidInput)
  }

  //3) Check Email
  if user.Email == "" {
    log.Warn("Email is empty, cannot proceed further. Returning error")
    return fmt.Errorf("%w: an email is required to register", apperr.ErrInvalidInput)
  }

  //4) Check Password
  if user.Password == "" {
    log.Warn("Password is empty, cannot proceed further. Returning error")
    return fmt.Errorf("%w: a password is required to register", apperr.ErrInvalidInput)
  }
  if len(user.Password) < minPasswordLength {
    log.Warn("Password is too short, cannot proceed further. Returning error", "minLength", minPasswordLength)
    return fmt.Errorf("%w: password must be at least %d characters", apperr.ErrInvalidInput, minPasswordLength)
  }

  //5) Check Email uniqueness
  emailExists, err := userRepo.EmailExists(ctx, nil, user.Email)
  if err != nil {
    log.Warn("Failed to check if user email exists, error from UserRepo. Returning an error.", "error", err)
    return fmt.Errorf("Failed checking user email '%s' existence: %w", user.Email, err)
  }
  if emailExists {
    log.Warn("Email is already in use, cannot continue. Returning an error.", "email", user.Email)
    return fmt.Errorf("%w: email is already in use", apperr.ErrConflict)
  }

  //6) Check Username uniqueness
  usernameExists, err := userRepo.UsernameExists(ctx, nil, user.Username)
  if err != nil {
    log.Warn("Failed to check if username exists, error from UserRepo. Returning an error.", "error", err)
    return fmt.Errorf("Failed checking username '%s' existence: %w", user.Username, err)
  }
  if usernameExists {
    log.Warn("Username is already in use, cannot continue. Returning an error.", "username", user.Username)
    return fmt.Errorf("%w: username is already in use", apperr.ErrConflict)
  }
  return nil
}

func handleLoginInputValidation(ctx context.Context, log *logger.Logger, email, password string) error {
  //1) Check Email
  if email == "" {
    log.Warn("Email is an empty string, Cannot proceed.")
    return fmt.Errorf("%w: an email is required to log in", apperr.ErrInvalidInput)
  }

  //2) Check Password
  if password == "" {
    log.Warn("Password is an empty string, Cannot proceed.")
    return fmt.Errorf("%w: a password is required to log in", apperr.ErrInvalidInput)
  }
  return nil
}

func HashPassword(ctx context.Context, log *logger.Logger, user *types.User) error {
  hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
  if err != nil {
    log.Warn("Failure to hash password for user. Returning error", "error", err)
    return fmt.Errorf("Failed to hash password for user.")
  }
  user.Password = string(hashedPassword)
  return nil
}

func NormalizeUserFields(ctx context.Context, user *types.User) {
  user.Username = normalization.ParseInputString(user.Username)
  user.Email = normalization.ParseEmail(user.Email)
}
