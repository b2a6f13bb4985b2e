package server

import (
	"thoughtforum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetCategories handles GET /api/categories
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {array} models.Category
// @Router /categories [get]
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.categoryService.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(categories)
}

// GetCategory handles GET /api/categories/:categoryId
// @Summary Get a category
// @Tags categories
// @Produce json
// @Param categoryId path int true "Category ID"
// @Success 200 {object} models.Category
// @Failure 404 {object} models.ErrorResponse
// @Router /categories/{categoryId} [get]
func (s *Server) GetCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "categoryId")
	if err != nil {
		return err
	}
	category, err := s.categoryService.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(category)
}

// CreateCategory handles POST /api/categories
// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateCategoryInput true "Category"
// @Success 201 {object} models.Category
// @Failure 409 {object} models.ErrorResponse
// @Router /categories [post]
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var in service.CreateCategoryInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	category, err := s.categoryService.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}
