package server

import (
	"thoughtforum/internal/middleware"
	"thoughtforum/internal/service"

	"github.com/gofiber/fiber/v2"
)

type tokenRequest struct {
	Token string `json:"token"`
}

// Signup handles POST /api/auth
// @Summary User signup
// @Description Register a new account and receive an access and refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.SignupInput true "Signup request"
// @Success 201 {object} service.AuthResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var in service.SignupInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	res, err := s.authService.Signup(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate and replace the caller's refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Login credentials"
// @Success 200 {object} service.AuthResult
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var in service.LoginInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	res, err := s.authService.Login(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// Refresh handles POST /api/auth/refresh
// @Summary Rotate tokens
// @Description Exchange the current refresh token for a new token pair. Each refresh token works once.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body tokenRequest true "Refresh token"
// @Success 201 {object} service.AuthResult
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/refresh [post]
func (s *Server) Refresh(c *fiber.Ctx) error {
	var req tokenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	res, err := s.authService.Refresh(c.UserContext(), req.Token)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Description Delete the caller's refresh token and revoke the access token used for this request
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body tokenRequest true "Refresh token"
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req tokenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	claims, _ := middleware.TokenClaims(c)
	if err := s.authService.Logout(c.UserContext(), userID, req.Token, claims); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}
