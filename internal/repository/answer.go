package repository

import (
	"context"
	"errors"

	"thoughtforum/internal/cache"
	"thoughtforum/internal/models"
	"thoughtforum/internal/observability"

	"gorm.io/gorm"
)

// AnswerRepository defines persistence operations for answers and their likes.
type AnswerRepository interface {
	Create(ctx context.Context, answer *models.Answer) error
	GetByID(ctx context.Context, id uint) (*models.Answer, error)
	ListByQuestion(ctx context.Context, questionID uint) ([]*models.Answer, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, answer *models.Answer) error
	Delete(ctx context.Context, id uint) error
	ToggleLike(ctx context.Context, userID, answerID uint) (bool, error)
	Likers(ctx context.Context, answerID uint) ([]uint, error)
}

type answerRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewAnswerRepository returns a new AnswerRepository implementation.
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db, log: observability.NewRepoLogger("answers")}
}

func (r *answerRepository) Create(ctx context.Context, answer *models.Answer) error {
	if err := r.db.WithContext(ctx).Create(answer).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	cache.InvalidateQuestionLists(ctx)
	return r.hydrate(ctx, []*models.Answer{answer})
}

func (r *answerRepository) GetByID(ctx context.Context, id uint) (*models.Answer, error) {
	var answer models.Answer
	if err := r.db.WithContext(ctx).First(&answer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Answer", id)
		}
		return nil, models.NewInternalError(err)
	}
	if err := r.hydrate(ctx, []*models.Answer{&answer}); err != nil {
		return nil, err
	}
	return &answer, nil
}

// ListByQuestion returns the answers of a question, oldest first.
func (r *answerRepository) ListByQuestion(ctx context.Context, questionID uint) ([]*models.Answer, error) {
	answers := []*models.Answer{}
	err := r.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&answers).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.hydrate(ctx, answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *answerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Answer{}).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *answerRepository) Update(ctx context.Context, answer *models.Answer) error {
	res := r.db.WithContext(ctx).
		Model(answer).
		Select("text", "updated_at").
		Updates(answer)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Answer", answer.ID)
	}
	return r.hydrate(ctx, []*models.Answer{answer})
}

// Delete removes the answer and its likes.
func (r *answerRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("answer_id = ?", id).Delete(&models.AnswerLike{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Answer{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Answer", id)
		}
		r.log.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	cache.InvalidateQuestionLists(ctx)
	return nil
}

func (r *answerRepository) ToggleLike(ctx context.Context, userID, answerID uint) (bool, error) {
	liked, err := toggleRow(ctx, r.db,
		&models.AnswerLike{UserID: userID, AnswerID: answerID},
		"user_id = ? AND answer_id = ?", userID, answerID)
	if err != nil {
		r.log.LogError(ctx, err, "toggle_like")
		return false, models.NewInternalError(err)
	}
	return liked, nil
}

func (r *answerRepository) Likers(ctx context.Context, answerID uint) ([]uint, error) {
	likes, err := groupIDs(ctx, r.db, "answer_likes", "answer_id", "user_id", []uint{answerID})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return likes[answerID], nil
}

func (r *answerRepository) hydrate(ctx context.Context, answers []*models.Answer) error {
	if len(answers) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(answers))
	userIDs := make([]uint, 0, len(answers))
	for _, a := range answers {
		ids = append(ids, a.ID)
		userIDs = append(userIDs, a.UserID)
	}

	var users []models.User
	if err := r.db.WithContext(ctx).Select("id", "name").Where("id IN ?", uniqueIDs(userIDs)).Find(&users).Error; err != nil {
		return models.NewInternalError(err)
	}
	authors := make(map[uint]models.UserRef, len(users))
	for i := range users {
		authors[users[i].ID] = users[i].Ref()
	}

	likes, err := groupIDs(ctx, r.db, "answer_likes", "answer_id", "user_id", ids)
	if err != nil {
		return models.NewInternalError(err)
	}

	for _, a := range answers {
		a.User = authors[a.UserID]
		a.Likes = likes[a.ID]
	}
	return nil
}
