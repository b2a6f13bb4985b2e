package repository

import (
	"context"
	"errors"
	"time"

	"thoughtforum/internal/models"
	"thoughtforum/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RefreshTokenRepository stores the single live refresh token of each user.
// Every mutation is one statement so concurrent callers cannot both win.
type RefreshTokenRepository interface {
	// Replace stores token as the user's refresh token, overwriting any previous one.
	Replace(ctx context.Context, userID uint, token string, expiresAt time.Time) error
	// Rotate swaps oldToken for newToken. It returns false when oldToken is not
	// the user's current token.
	Rotate(ctx context.Context, userID uint, oldToken, newToken string, expiresAt time.Time) (bool, error)
	// Delete removes the record only if token is the user's current token.
	Delete(ctx context.Context, userID uint, token string) (bool, error)
	GetByUserID(ctx context.Context, userID uint) (*models.RefreshToken, error)
}

type refreshTokenRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewRefreshTokenRepository returns a GORM-backed RefreshTokenRepository.
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db, log: observability.NewRepoLogger("refresh_tokens")}
}

func (r *refreshTokenRepository) Replace(ctx context.Context, userID uint, token string, expiresAt time.Time) error {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "Replace", "refresh_tokens")
	defer span.End()

	row := &models.RefreshToken{UserID: userID, Token: token, ExpiresAt: expiresAt}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "expires_at", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		r.log.LogError(ctx, err, "replace")
		return models.NewInternalError(err)
	}
	return nil
}

func (r *refreshTokenRepository) Rotate(ctx context.Context, userID uint, oldToken, newToken string, expiresAt time.Time) (bool, error) {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "Rotate", "refresh_tokens")
	defer span.End()

	res := r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("user_id = ? AND token = ?", userID, oldToken).
		Updates(map[string]any{
			"token":      newToken,
			"expires_at": expiresAt,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "rotate")
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *refreshTokenRepository) Delete(ctx context.Context, userID uint, token string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&models.RefreshToken{})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *refreshTokenRepository) GetByUserID(ctx context.Context, userID uint) (*models.RefreshToken, error) {
	var row models.RefreshToken
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("RefreshToken", userID)
		}
		return nil, models.NewInternalError(err)
	}
	return &row, nil
}
