package server

import (
	"thoughtforum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetQuestions handles GET /api/questions
// @Summary List questions
// @Description All questions, newest first
// @Tags questions
// @Produce json
// @Success 200 {array} models.Question
// @Router /questions [get]
func (s *Server) GetQuestions(c *fiber.Ctx) error {
	questions, err := s.questionService.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(questions)
}

// GetHotQuestions handles GET /api/questions/hot-questions
// @Summary Hot questions
// @Description The three questions with the most answers
// @Tags questions
// @Produce json
// @Success 200 {array} models.Question
// @Router /questions/hot-questions [get]
func (s *Server) GetHotQuestions(c *fiber.Ctx) error {
	questions, err := s.questionService.Hot(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(questions)
}

// GetTopQuestions handles GET /api/questions/top-questions
// @Summary Top questions
// @Description All questions ordered by answer count
// @Tags questions
// @Produce json
// @Success 200 {array} models.Question
// @Router /questions/top-questions [get]
func (s *Server) GetTopQuestions(c *fiber.Ctx) error {
	questions, err := s.questionService.Top(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(questions)
}

// GetFollowingQuestions handles GET /api/questions/following-questions
// @Summary Questions from followed users
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Question
// @Failure 401 {object} models.ErrorResponse
// @Router /questions/following-questions [get]
func (s *Server) GetFollowingQuestions(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	questions, err := s.questionService.Following(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(questions)
}

// GetQuestionLikes handles GET /api/questions/likes/:questionId
// @Summary Users who liked a question
// @Tags questions
// @Produce json
// @Param questionId path int true "Question ID"
// @Success 200 {array} models.UserRef
// @Failure 404 {object} models.ErrorResponse
// @Router /questions/likes/{questionId} [get]
func (s *Server) GetQuestionLikes(c *fiber.Ctx) error {
	id, err := parseID(c, "questionId")
	if err != nil {
		return err
	}
	likers, err := s.questionService.Likers(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(likers)
}

// GetRelatedQuestions handles GET /api/questions/related-questions/:categoryId
// @Summary Related questions
// @Description The three newest questions in a category
// @Tags questions
// @Produce json
// @Param categoryId path int true "Category ID"
// @Success 200 {array} models.Question
// @Router /questions/related-questions/{categoryId} [get]
func (s *Server) GetRelatedQuestions(c *fiber.Ctx) error {
	id, err := parseID(c, "categoryId")
	if err != nil {
		return err
	}
	questions, err := s.questionService.Related(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(questions)
}

// GetCategoryQuestions handles GET /api/questions/category/:categoryId
// @Summary Questions in a category
// @Tags questions
// @Produce json
// @Param categoryId path int true "Category ID"
// @Success 200 {array} models.Question
// @Failure 404 {object} models.ErrorResponse
// @Router /questions/category/{categoryId} [get]
func (s *Server) GetCategoryQuestions(c *fiber.Ctx) error {
	id, err := parseID(c, "categoryId")
	if err != nil {
		return err
	}
	questions, err := s.questionService.ByCategory(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(questions)
}

// GetQuestion handles GET /api/questions/:questionId
// @Summary Get a question
// @Tags questions
// @Produce json
// @Param questionId path int true "Question ID"
// @Success 200 {object} models.Question
// @Failure 404 {object} models.ErrorResponse
// @Router /questions/{questionId} [get]
func (s *Server) GetQuestion(c *fiber.Ctx) error {
	id, err := parseID(c, "questionId")
	if err != nil {
		return err
	}
	question, err := s.questionService.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(question)
}

// CreateQuestion handles POST /api/questions
// @Summary Ask a question
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateQuestionInput true "Question"
// @Success 201 {object} models.Question
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /questions [post]
func (s *Server) CreateQuestion(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var in service.CreateQuestionInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	in.UserID = userID

	question, err := s.questionService.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(question)
}

// UpdateQuestion handles PUT /api/questions/:questionId
// @Summary Edit a question
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param questionId path int true "Question ID"
// @Param request body service.UpdateQuestionInput true "Question"
// @Success 200 {object} models.Question
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /questions/{questionId} [put]
func (s *Server) UpdateQuestion(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "questionId")
	if err != nil {
		return err
	}

	var in service.UpdateQuestionInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	in.UserID = userID
	in.QuestionID = id

	question, err := s.questionService.Update(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.JSON(question)
}

// DeleteQuestion handles DELETE /api/questions/:questionId
// @Summary Delete a question
// @Description Deletes the question together with its answers and likes
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param questionId path int true "Question ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /questions/{questionId} [delete]
func (s *Server) DeleteQuestion(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "questionId")
	if err != nil {
		return err
	}

	if err := s.questionService.Delete(c.UserContext(), userID, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Question deleted"})
}

// LikeQuestion handles POST /api/questions/like/:questionId
// @Summary Toggle a like on a question
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param questionId path int true "Question ID"
// @Success 200 {object} models.Question
// @Failure 404 {object} models.ErrorResponse
// @Router /questions/like/{questionId} [post]
func (s *Server) LikeQuestion(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "questionId")
	if err != nil {
		return err
	}

	question, err := s.questionService.ToggleLike(c.UserContext(), userID, id)
	if err != nil {
		return err
	}
	return c.JSON(question)
}
