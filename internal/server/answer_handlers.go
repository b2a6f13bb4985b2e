package server

import (
	"thoughtforum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetAnswersCount handles GET /api/answers
// @Summary Total number of answers
// @Tags answers
// @Produce json
// @Success 200 {object} object{answersCount=int}
// @Router /answers [get]
func (s *Server) GetAnswersCount(c *fiber.Ctx) error {
	count, err := s.answerService.Count(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"answersCount": count})
}

// GetAnswers handles GET /api/answers/:questionId
// @Summary Answers of a question
// @Description Oldest first, each with its author
// @Tags answers
// @Produce json
// @Param questionId path int true "Question ID"
// @Success 200 {array} models.Answer
// @Failure 404 {object} models.ErrorResponse
// @Router /answers/{questionId} [get]
func (s *Server) GetAnswers(c *fiber.Ctx) error {
	id, err := parseID(c, "questionId")
	if err != nil {
		return err
	}
	answers, err := s.answerService.ListByQuestion(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(answers)
}

// GetAnswerLikes handles GET /api/answers/likes/:answerId
// @Summary Users who liked an answer
// @Tags answers
// @Produce json
// @Param answerId path int true "Answer ID"
// @Success 200 {array} models.UserRef
// @Failure 404 {object} models.ErrorResponse
// @Router /answers/likes/{answerId} [get]
func (s *Server) GetAnswerLikes(c *fiber.Ctx) error {
	id, err := parseID(c, "answerId")
	if err != nil {
		return err
	}
	likers, err := s.answerService.Likers(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(likers)
}

// CreateAnswer handles POST /api/answers
// @Summary Answer a question
// @Tags answers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateAnswerInput true "Answer"
// @Success 201 {object} models.Answer
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /answers [post]
func (s *Server) CreateAnswer(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var in service.CreateAnswerInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	in.UserID = userID

	answer, err := s.answerService.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(answer)
}

// UpdateAnswer handles PUT /api/answers/:answerId
// @Summary Edit an answer
// @Tags answers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param answerId path int true "Answer ID"
// @Param request body service.UpdateAnswerInput true "Answer"
// @Success 200 {object} models.Answer
// @Failure 403 {object} models.ErrorResponse
// @Router /answers/{answerId} [put]
func (s *Server) UpdateAnswer(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "answerId")
	if err != nil {
		return err
	}

	var in service.UpdateAnswerInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	in.UserID = userID
	in.AnswerID = id

	answer, err := s.answerService.Update(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.JSON(answer)
}

// DeleteAnswer handles DELETE /api/answers/:answerId
// @Summary Delete an answer
// @Tags answers
// @Produce json
// @Security BearerAuth
// @Param answerId path int true "Answer ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Router /answers/{answerId} [delete]
func (s *Server) DeleteAnswer(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "answerId")
	if err != nil {
		return err
	}

	if err := s.answerService.Delete(c.UserContext(), userID, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Answer deleted"})
}

// LikeAnswer handles POST /api/answers/:answerId
// @Summary Toggle a like on an answer
// @Tags answers
// @Produce json
// @Security BearerAuth
// @Param answerId path int true "Answer ID"
// @Success 200 {object} models.Answer
// @Failure 404 {object} models.ErrorResponse
// @Router /answers/{answerId} [post]
func (s *Server) LikeAnswer(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "answerId")
	if err != nil {
		return err
	}

	answer, err := s.answerService.ToggleLike(c.UserContext(), userID, id)
	if err != nil {
		return err
	}
	return c.JSON(answer)
}
