package repository

import (
	"context"
	"errors"

	"thoughtforum/internal/cache"
	"thoughtforum/internal/models"
	"thoughtforum/internal/observability"

	"gorm.io/gorm"
)

const answerCountOrder = "(SELECT COUNT(*) FROM answers WHERE answers.question_id = questions.id) DESC"

// QuestionRepository defines persistence operations for questions and their likes.
type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	List(ctx context.Context) ([]*models.Question, error)
	ListByCategory(ctx context.Context, categoryID uint, limit int) ([]*models.Question, error)
	ListByAnswerCount(ctx context.Context, limit int) ([]*models.Question, error)
	ListFollowedBy(ctx context.Context, userID uint) ([]*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id uint) error
	ToggleLike(ctx context.Context, userID, questionID uint) (bool, error)
	Likers(ctx context.Context, questionID uint) ([]uint, error)
}

type questionRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewQuestionRepository returns a new QuestionRepository implementation.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db, log: observability.NewRepoLogger("questions")}
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	if err := r.db.WithContext(ctx).Create(question).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.invalidate(ctx, question.CategoryID)
	return r.hydrate(ctx, []*models.Question{question})
}

func (r *questionRepository) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Question", id)
		}
		return nil, models.NewInternalError(err)
	}
	if err := r.hydrate(ctx, []*models.Question{&question}); err != nil {
		return nil, err
	}
	return &question, nil
}

// List returns every question, newest first.
func (r *questionRepository) List(ctx context.Context) ([]*models.Question, error) {
	return r.find(ctx, "List", r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC"))
}

// ListByCategory returns the newest questions of a category. limit <= 0 means all.
func (r *questionRepository) ListByCategory(ctx context.Context, categoryID uint, limit int) ([]*models.Question, error) {
	q := r.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.find(ctx, "ListByCategory", q)
}

// ListByAnswerCount orders questions by how many answers they have. The top
// three are served from cache.
func (r *questionRepository) ListByAnswerCount(ctx context.Context, limit int) ([]*models.Question, error) {
	fetch := func() ([]*models.Question, error) {
		q := r.db.WithContext(ctx).Order(answerCountOrder).Order("created_at DESC")
		if limit > 0 {
			q = q.Limit(limit)
		}
		return r.find(ctx, "ListByAnswerCount", q)
	}

	if limit != cache.HotQuestionsLimit {
		return fetch()
	}

	var questions []*models.Question
	err := cache.Aside(ctx, cache.HotQuestionsKey, &questions, cache.HotQuestionsTTL, func() error {
		var err error
		questions, err = fetch()
		return err
	})
	return questions, err
}

// ListFollowedBy returns questions authored by the users userID follows, newest first.
func (r *questionRepository) ListFollowedBy(ctx context.Context, userID uint) ([]*models.Question, error) {
	q := r.db.WithContext(ctx).
		Where("user_id IN (?)", r.db.Table("follows").Select("followee_id").Where("follower_id = ?", userID)).
		Order("created_at DESC").
		Order("id DESC")
	return r.find(ctx, "ListFollowedBy", q)
}

func (r *questionRepository) Update(ctx context.Context, question *models.Question) error {
	var previous models.Question
	if err := r.db.WithContext(ctx).Select("category_id").First(&previous, question.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Question", question.ID)
		}
		return models.NewInternalError(err)
	}

	err := r.db.WithContext(ctx).
		Model(question).
		Select("title", "body", "category_id", "updated_at").
		Updates(question).Error
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	r.invalidate(ctx, previous.CategoryID, question.CategoryID)
	return r.hydrate(ctx, []*models.Question{question})
}

// Delete removes the question together with its answers and all likes on both.
func (r *questionRepository) Delete(ctx context.Context, id uint) error {
	var question models.Question
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&question, id).Error; err != nil {
			return err
		}
		answerIDs := tx.Model(&models.Answer{}).Select("id").Where("question_id = ?", id)
		if err := tx.Where("answer_id IN (?)", answerIDs).Delete(&models.AnswerLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&models.QuestionLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Question{}, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Question", id)
		}
		r.log.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	r.invalidate(ctx, question.CategoryID)
	return nil
}

func (r *questionRepository) ToggleLike(ctx context.Context, userID, questionID uint) (bool, error) {
	liked, err := toggleRow(ctx, r.db,
		&models.QuestionLike{UserID: userID, QuestionID: questionID},
		"user_id = ? AND question_id = ?", userID, questionID)
	if err != nil {
		r.log.LogError(ctx, err, "toggle_like")
		return false, models.NewInternalError(err)
	}
	cache.InvalidateQuestionLists(ctx)
	return liked, nil
}

// Likers returns the ids of users who liked the question.
func (r *questionRepository) Likers(ctx context.Context, questionID uint) ([]uint, error) {
	likes, err := groupIDs(ctx, r.db, "question_likes", "question_id", "user_id", []uint{questionID})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return likes[questionID], nil
}

func (r *questionRepository) find(ctx context.Context, op string, q *gorm.DB) ([]*models.Question, error) {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, op, "questions")
	defer span.End()

	questions := []*models.Question{}
	if err := q.WithContext(ctx).Find(&questions).Error; err != nil {
		r.log.LogError(ctx, err, op)
		return nil, models.NewInternalError(err)
	}
	if err := r.hydrate(ctx, questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepository) invalidate(ctx context.Context, categoryIDs ...uint) {
	cache.InvalidateQuestionLists(ctx)
	cache.InvalidateCategories(ctx, categoryIDs...)
}

// hydrate attaches author, category, answer ids and like ids to each question.
func (r *questionRepository) hydrate(ctx context.Context, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(questions))
	userIDs := make([]uint, 0, len(questions))
	categoryIDs := make([]uint, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
		userIDs = append(userIDs, q.UserID)
		categoryIDs = append(categoryIDs, q.CategoryID)
	}

	var users []models.User
	if err := r.db.WithContext(ctx).Select("id", "name").Where("id IN ?", uniqueIDs(userIDs)).Find(&users).Error; err != nil {
		return models.NewInternalError(err)
	}
	authors := make(map[uint]models.UserRef, len(users))
	for i := range users {
		authors[users[i].ID] = users[i].Ref()
	}

	var categories []models.Category
	if err := r.db.WithContext(ctx).Select("id", "title").Where("id IN ?", uniqueIDs(categoryIDs)).Find(&categories).Error; err != nil {
		return models.NewInternalError(err)
	}
	cats := make(map[uint]models.CategoryRef, len(categories))
	for _, c := range categories {
		cats[c.ID] = models.CategoryRef{ID: c.ID, Title: c.Title}
	}

	answers, err := groupIDs(ctx, r.db, "answers", "question_id", "id", ids)
	if err != nil {
		return models.NewInternalError(err)
	}
	likes, err := groupIDs(ctx, r.db, "question_likes", "question_id", "user_id", ids)
	if err != nil {
		return models.NewInternalError(err)
	}

	for _, q := range questions {
		q.User = authors[q.UserID]
		q.Category = cats[q.CategoryID]
		q.Answers = answers[q.ID]
		q.Likes = likes[q.ID]
	}
	return nil
}
