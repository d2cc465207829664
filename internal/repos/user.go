package repos

import (
    "context"

    "github.com/google/uuid"
    "gorm.io/gorm"

    "github.com/gemchat-org/gemchat-backend/internal/logger"
    "github.com/gemchat-org/gemchat-backend/internal/types"
)

type UserRepo interface {
    // CREATE
    Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)

    // READ
    GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error)
    GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error)
    EmailExists(ctx context.Context, tx *gorm.DB, userEmail string) (bool, error)
    UsernameExists(ctx context.Context, tx *gorm.DB, username string) (bool, error)
}

type userRepo struct {
    db  *gorm.DB
    log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
    // Add a repo field for consistent logs
    repoLog := baseLog.With("repo", "UserRepo")
    return &userRepo{db: db, log: repoLog}
}

// ----------------------------------------------------------------
// CREATE
// ----------------------------------------------------------------

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
    ur.log.Info("Starting Create Users now...")

    transaction := tx
    if transaction == nil {
        transaction = ur.db
        ur.log.Debug("Transaction is nil, using ur.db instead")
    }

    if len(users) == 0 {
        ur.log.Debug("Users array is empty, returning empty slice", "count", 0)
        return []*types.User{}, nil
    }

    for _, u := range users {
        if u.ID == uuid.Nil {
            u.ID = uuid.New()
        }
    }

    ur.log.Info("Creating users now in DB...")
    if err := transaction.WithContext(ctx).Create(&users).Error; err != nil {
        ur.log.Error("Failed to create users", "error", err)
        return nil, err
    }
    ur.log.Info("Successfully created users", "count", len(users))
    return users, nil
}

// ----------------------------------------------------------------
// READ
// ----------------------------------------------------------------

func (ur *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
    ur.log.Info("Starting GetByIDs for Users now...")

    transaction := tx
    if transaction == nil {
        transaction = ur.db
        ur.log.Debug("Transaction is nil, using ur.db")
    }

    var results []*types.User
    if len(userIDs) == 0 {
        ur.log.Debug("No userIDs provided, returning empty slice")
        return results, nil
    }

    ur.log.Info("Fetching users by userIDs now...")
    if err := transaction.WithContext(ctx).
        Where("id IN ?", userIDs).
        Find(&results).Error; err != nil {
        ur.log.Error("Failed to fetch users by IDs", "error", err)
        return nil, err
    }
    ur.log.Info("Successfully fetched users by IDs", "count", len(results))
    return results, nil
}

func (ur *userRepo) GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error) {
    ur.log.Info("Starting GetByEmails for Users now...")

    transaction := tx
    if transaction == nil {
        transaction = ur.db
        ur.log.Debug("Transaction is nil, using ur.db")
    }

    var results []*types.User
    if len(userEmails) == 0 {
        ur.log.Debug("No userEmails provided, returning empty slice")
        return results, nil
    }

    ur.log.Info("Fetching users by Emails now...")
    if err := transaction.WithContext(ctx).
        Where("email IN ?", userEmails).
        Find(&results).Error; err != nil {
        ur.log.Error("Failed to fetch users by emails", "error", err)
        return nil, err
    }
    ur.log.Info("Successfully fetched users by emails", "count", len(results))
    return results, nil
}

func (ur *userRepo) EmailExists(ctx context.Context, tx *gorm.DB, userEmail string) (bool, error) {
    ur.log.Info("Starting EmailExists now...", "email", userEmail)

    transaction := tx
    if transaction == nil {
        transaction = ur.db
        ur.log.Debug("Transaction is nil, using ur.db")
    }

    var count int64
    if err := transaction.WithContext(ctx).
        Model(&types.User{}).
        Where("email = ?", userEmail).
        Count(&count).Error; err != nil {
        ur.log.Error("Failed to count users by email", "error", err)
        return false, err
    }
    exists := count > 0
    ur.log.Info("EmailExists check complete", "email", userEmail, "exists", exists)
    return exists, nil
}

func (ur *userRepo) UsernameExists(ctx context.Context, tx *gorm.DB, username string) (bool, error) {
    ur.log.Info("Starting UsernameExists now...", "username", username)

    transaction := tx
    if transaction == nil {
        transaction = ur.db
        ur.log.Debug("Transaction is nil, using ur.db")
    }

    var count int64
    if err := transaction.WithContext(ctx).
        Model(&types.User{}).
        Where("username = ?", username).
        Count(&count).Error; err != nil {
        ur.log.Error("Failed to count users by username", "error", err)
        return false, err
    }
    exists := count > 0
    ur.log.Info("UsernameExists check complete", "username", username, "exists", exists)
    return exists, nil
}
