package service

import (
	"context"
	"strings"

	"thoughtforum/internal/models"
	"thoughtforum/internal/notifications"
	"thoughtforum/internal/repository"
)

type AnswerService struct {
	answers   repository.AnswerRepository
	questions repository.QuestionRepository
	users     repository.UserRepository
	notifier  Notifier
}

type CreateAnswerInput struct {
	UserID     uint   `json:"-"`
	Text       string `json:"text"`
	QuestionID uint   `json:"question"`
}

type UpdateAnswerInput struct {
	UserID   uint   `json:"-"`
	AnswerID uint   `json:"-"`
	Text     string `json:"text"`
}

func NewAnswerService(
	answers repository.AnswerRepository,
	questions repository.QuestionRepository,
	users repository.UserRepository,
	notifier Notifier,
) *AnswerService {
	return &AnswerService{
		answers:   answers,
		questions: questions,
		users:     users,
		notifier:  notifierOrNoop(notifier),
	}
}

func (s *AnswerService) Count(ctx context.Context) (int64, error) {
	return s.answers.Count(ctx)
}

// ListByQuestion returns the answers of a question, oldest first.
func (s *AnswerService) ListByQuestion(ctx context.Context, questionID uint) ([]*models.Answer, error) {
	if _, err := s.questions.GetByID(ctx, questionID); err != nil {
		return nil, err
	}
	return s.answers.ListByQuestion(ctx, questionID)
}

func (s *AnswerService) Likers(ctx context.Context, answerID uint) ([]models.UserRef, error) {
	if _, err := s.answers.GetByID(ctx, answerID); err != nil {
		return nil, err
	}
	ids, err := s.answers.Likers(ctx, answerID)
	if err != nil {
		return nil, err
	}
	return s.users.Refs(ctx, ids)
}

// Create stores an answer, tells the question owner and announces it to every
// connected client.
func (s *AnswerService) Create(ctx context.Context, in CreateAnswerInput) (*models.Answer, error) {
	in.Text = strings.TrimSpace(in.Text)
	if in.Text == "" || in.QuestionID == 0 {
		return nil, models.NewUnprocessableError("Answer text and question are required")
	}

	question, err := s.questions.GetByID(ctx, in.QuestionID)
	if err != nil {
		return nil, err
	}

	answer := &models.Answer{
		Text:       in.Text,
		QuestionID: in.QuestionID,
		UserID:     in.UserID,
	}
	if err := s.answers.Create(ctx, answer); err != nil {
		return nil, err
	}

	if question.UserID != in.UserID {
		s.notifier.Route(ctx, question.UserID, notifications.EventAnswer, notifications.AnswerPayload{
			Name:       answer.User.Name,
			UserID:     in.UserID,
			QuestionID: question.ID,
			AnswerID:   answer.ID,
		})
	}
	s.notifier.Broadcast(ctx, notifications.EventAnswerCreated, answer, "")

	return answer, nil
}

func (s *AnswerService) Update(ctx context.Context, in UpdateAnswerInput) (*models.Answer, error) {
	answer, err := s.answers.GetByID(ctx, in.AnswerID)
	if err != nil {
		return nil, err
	}
	if answer.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own answers")
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("text is required")
	}

	answer.Text = text
	if err := s.answers.Update(ctx, answer); err != nil {
		return nil, err
	}
	return answer, nil
}

func (s *AnswerService) Delete(ctx context.Context, userID, answerID uint) error {
	answer, err := s.answers.GetByID(ctx, answerID)
	if err != nil {
		return err
	}
	if answer.UserID != userID {
		return models.NewForbiddenError("You can only delete your own answers")
	}
	return s.answers.Delete(ctx, answerID)
}

// ToggleLike likes or unlikes the answer. A new like notifies the answer owner
// and nobody else.
func (s *AnswerService) ToggleLike(ctx context.Context, userID, answerID uint) (*models.Answer, error) {
	answer, err := s.answers.GetByID(ctx, answerID)
	if err != nil {
		return nil, err
	}

	liked, err := s.answers.ToggleLike(ctx, userID, answerID)
	if err != nil {
		return nil, err
	}

	if liked && answer.UserID != userID {
		if liker, ok := lookupRef(ctx, s.users, userID); ok {
			s.notifier.Route(ctx, answer.UserID, notifications.EventLike, notifications.LikePayload{
				Name:       liker.Name,
				UserID:     liker.ID,
				QuestionID: answer.QuestionID,
				AnswerID:   answerID,
			})
		}
	}

	return s.answers.GetByID(ctx, answerID)
}
