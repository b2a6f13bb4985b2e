package service

import (
	"context"
	"strings"

	"thoughtforum/internal/cache"
	"thoughtforum/internal/models"
	"thoughtforum/internal/notifications"
	"thoughtforum/internal/repository"
	"thoughtforum/internal/validation"
)

const relatedQuestionsLimit = 3

type QuestionService struct {
	questions  repository.QuestionRepository
	categories repository.CategoryRepository
	users      repository.UserRepository
	notifier   Notifier
}

type CreateQuestionInput struct {
	UserID     uint   `json:"-"`
	Title      string `json:"title" validate:"notblank,max=300"`
	Body       string `json:"body" validate:"notblank"`
	CategoryID uint   `json:"category" validate:"required"`
}

type UpdateQuestionInput struct {
	UserID     uint   `json:"-"`
	QuestionID uint   `json:"-"`
	Title      string `json:"title" validate:"notblank,max=300"`
	Body       string `json:"body" validate:"notblank"`
	CategoryID uint   `json:"category" validate:"required"`
}

func NewQuestionService(
	questions repository.QuestionRepository,
	categories repository.CategoryRepository,
	users repository.UserRepository,
	notifier Notifier,
) *QuestionService {
	return &QuestionService{
		questions:  questions,
		categories: categories,
		users:      users,
		notifier:   notifierOrNoop(notifier),
	}
}

func (s *QuestionService) List(ctx context.Context) ([]*models.Question, error) {
	return s.questions.List(ctx)
}

// Hot returns the three questions with the most answers.
func (s *QuestionService) Hot(ctx context.Context) ([]*models.Question, error) {
	return s.questions.ListByAnswerCount(ctx, cache.HotQuestionsLimit)
}

// Top returns every question ordered by answer count.
func (s *QuestionService) Top(ctx context.Context) ([]*models.Question, error) {
	return s.questions.ListByAnswerCount(ctx, 0)
}

// Following returns questions written by the users userID follows.
func (s *QuestionService) Following(ctx context.Context, userID uint) ([]*models.Question, error) {
	return s.questions.ListFollowedBy(ctx, userID)
}

func (s *QuestionService) Related(ctx context.Context, categoryID uint) ([]*models.Question, error) {
	return s.questions.ListByCategory(ctx, categoryID, relatedQuestionsLimit)
}

func (s *QuestionService) ByCategory(ctx context.Context, categoryID uint) ([]*models.Question, error) {
	if err := s.requireCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.questions.ListByCategory(ctx, categoryID, 0)
}

func (s *QuestionService) Get(ctx context.Context, id uint) (*models.Question, error) {
	return s.questions.GetByID(ctx, id)
}

// Likers returns {_id, name} of every user who liked the question.
func (s *QuestionService) Likers(ctx context.Context, id uint) ([]models.UserRef, error) {
	if _, err := s.questions.GetByID(ctx, id); err != nil {
		return nil, err
	}
	ids, err := s.questions.Likers(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.users.Refs(ctx, ids)
}

// Create stores a question and announces it to every connected client.
func (s *QuestionService) Create(ctx context.Context, in CreateQuestionInput) (*models.Question, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := s.requireCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	question := &models.Question{
		Title:      in.Title,
		Body:       in.Body,
		UserID:     in.UserID,
		CategoryID: in.CategoryID,
	}
	if err := s.questions.Create(ctx, question); err != nil {
		return nil, err
	}

	s.notifier.Broadcast(ctx, notifications.EventQuestionCreated, question, "")
	return question, nil
}

func (s *QuestionService) Update(ctx context.Context, in UpdateQuestionInput) (*models.Question, error) {
	question, err := s.questions.GetByID(ctx, in.QuestionID)
	if err != nil {
		return nil, err
	}
	if question.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own questions")
	}

	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.CategoryID != question.CategoryID {
		if err := s.requireCategory(ctx, in.CategoryID); err != nil {
			return nil, err
		}
	}

	question.Title = in.Title
	question.Body = in.Body
	question.CategoryID = in.CategoryID
	if err := s.questions.Update(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

// Delete removes the question with its answers and likes.
func (s *QuestionService) Delete(ctx context.Context, userID, questionID uint) error {
	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return err
	}
	if question.UserID != userID {
		return models.NewForbiddenError("You can only delete your own questions")
	}
	return s.questions.Delete(ctx, questionID)
}

// ToggleLike likes or unlikes the question. A new like notifies the owner.
func (s *QuestionService) ToggleLike(ctx context.Context, userID, questionID uint) (*models.Question, error) {
	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}

	liked, err := s.questions.ToggleLike(ctx, userID, questionID)
	if err != nil {
		return nil, err
	}

	if liked && question.UserID != userID {
		if liker, ok := lookupRef(ctx, s.users, userID); ok {
			s.notifier.Route(ctx, question.UserID, notifications.EventLike, notifications.LikePayload{
				Name:       liker.Name,
				UserID:     liker.ID,
				QuestionID: questionID,
			})
		}
	}

	return s.questions.GetByID(ctx, questionID)
}

func (s *QuestionService) requireCategory(ctx context.Context, categoryID uint) error {
	ok, err := s.categories.Exists(ctx, categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("Category", categoryID)
	}
	return nil
}

// lookupRef resolves the actor's display name for a notification. A failed
// lookup only skips the notification.
func lookupRef(ctx context.Context, users repository.UserRepository, userID uint) (models.UserRef, bool) {
	refs, err := users.Refs(ctx, []uint{userID})
	if err != nil || len(refs) == 0 {
		return models.UserRef{}, false
	}
	return refs[0], true
}
