package repository

import (
	"context"
	"errors"

	"thoughtforum/internal/models"
	"thoughtforum/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users and follows.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	// Register creates user and the refresh token returned by session in one
	// transaction. A session error leaves neither row behind.
	Register(ctx context.Context, user *models.User, session func(userID uint) (*models.RefreshToken, error)) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Exists(ctx context.Context, id uint) (bool, error)
	UpdateProfile(ctx context.Context, id uint, name, gender, bio string) (*models.User, error)
	Refs(ctx context.Context, ids []uint) ([]models.UserRef, error)
	Followers(ctx context.Context, userID uint) ([]*models.User, error)
	Following(ctx context.Context, userID uint) ([]*models.User, error)
	TopByFollowers(ctx context.Context, limit int) ([]*models.User, error)
	ToggleFollow(ctx context.Context, followerID, followeeID uint) (bool, error)
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("users")}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User already exists")
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	return r.hydrate(ctx, []*models.User{user})
}

func (r *userRepository) Register(ctx context.Context, user *models.User, session func(userID uint) (*models.RefreshToken, error)) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		token, err := session(user.ID)
		if err != nil {
			return err
		}
		return tx.Create(token).Error
	})
	if err != nil {
		var appErr *models.AppError
		switch {
		case errors.As(err, &appErr):
			return appErr
		case isUniqueConstraintError(err):
			return models.NewConflictError("User already exists")
		}
		r.log.LogError(ctx, err, "register")
		return models.NewInternalError(err)
	}
	return r.hydrate(ctx, []*models.User{user})
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	if err := r.hydrate(ctx, []*models.User{&user}); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no user has the address.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uint, name, gender, bio string) (*models.User, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"name": name, "gender": gender, "bio": bio})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update_profile")
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("User", id)
	}
	return r.GetByID(ctx, id)
}

// Refs returns {_id, name} for the given ids, in the order given.
func (r *userRepository) Refs(ctx context.Context, ids []uint) ([]models.UserRef, error) {
	out := make([]models.UserRef, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []models.User
	if err := r.db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	byID := make(map[uint]models.UserRef, len(users))
	for i := range users {
		byID[users[i].ID] = users[i].Ref()
	}
	for _, id := range ids {
		if ref, ok := byID[id]; ok {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (r *userRepository) Followers(ctx context.Context, userID uint) ([]*models.User, error) {
	return r.related(ctx, userID, "follows.follower_id = users.id", "follows.followee_id = ?")
}

func (r *userRepository) Following(ctx context.Context, userID uint) ([]*models.User, error) {
	return r.related(ctx, userID, "follows.followee_id = users.id", "follows.follower_id = ?")
}

func (r *userRepository) related(ctx context.Context, userID uint, join, where string) ([]*models.User, error) {
	ok, err := r.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewNotFoundError("User", userID)
	}

	var users []*models.User
	err = r.db.WithContext(ctx).
		Select("users.*").
		Joins("JOIN follows ON "+join).
		Where(where, userID).
		Order("follows.created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.hydrate(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

// TopByFollowers returns the users with the most followers.
func (r *userRepository) TopByFollowers(ctx context.Context, limit int) ([]*models.User, error) {
	if limit <= 0 {
		limit = 5
	}
	var users []*models.User
	err := r.db.WithContext(ctx).
		Order("(SELECT COUNT(*) FROM follows WHERE follows.followee_id = users.id) DESC").
		Order("users.id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.hydrate(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

// ToggleFollow follows followee when not yet followed and unfollows otherwise.
// It reports whether followerID follows followeeID afterwards.
func (r *userRepository) ToggleFollow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	ok, err := r.Exists(ctx, followeeID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, models.NewNotFoundError("User", followeeID)
	}

	followed, err := toggleRow(ctx, r.db,
		&models.Follow{FollowerID: followerID, FolloweeID: followeeID},
		"follower_id = ? AND followee_id = ?", followerID, followeeID)
	if err != nil {
		r.log.LogError(ctx, err, "toggle_follow")
		return false, models.NewInternalError(err)
	}
	return followed, nil
}

// hydrate fills the derived reference lists with one query per relation.
func (r *userRepository) hydrate(ctx context.Context, users []*models.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	ids = uniqueIDs(ids)

	questions, err := groupIDs(ctx, r.db, "questions", "user_id", "id", ids)
	if err != nil {
		return models.NewInternalError(err)
	}
	following, err := groupIDs(ctx, r.db, "follows", "follower_id", "followee_id", ids)
	if err != nil {
		return models.NewInternalError(err)
	}
	followers, err := groupIDs(ctx, r.db, "follows", "followee_id", "follower_id", ids)
	if err != nil {
		return models.NewInternalError(err)
	}
	likedQuestions, err := groupIDs(ctx, r.db, "question_likes", "user_id", "question_id", ids)
	if err != nil {
		return models.NewInternalError(err)
	}
	likedAnswers, err := groupIDs(ctx, r.db, "answer_likes", "user_id", "answer_id", ids)
	if err != nil {
		return models.NewInternalError(err)
	}

	for _, u := range users {
		u.Questions = questions[u.ID]
		u.Following = following[u.ID]
		u.Followers = followers[u.ID]
		u.LikedQuestions = likedQuestions[u.ID]
		u.LikedAnswers = likedAnswers[u.ID]
	}
	return nil
}
