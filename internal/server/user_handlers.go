package server

import (
	"thoughtforum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users
// @Summary Get current user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /users [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := s.userService.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users
// @Summary Update current user profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UpdateProfileInput true "Profile"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /users [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var in service.UpdateProfileInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	in.UserID = userID

	user, err := s.userService.UpdateProfile(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// GetMyFollowers handles GET /api/users/followers
// @Summary Current user's followers
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Router /users/followers [get]
func (s *Server) GetMyFollowers(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	users, err := s.userService.Followers(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(users)
}

// GetTopMembers handles GET /api/users/top-members
// @Summary Most followed users
// @Tags users
// @Produce json
// @Success 200 {array} models.User
// @Router /users/top-members [get]
func (s *Server) GetTopMembers(c *fiber.Ctx) error {
	users, err := s.userService.TopMembers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(users)
}

// GetUserProfile handles GET /api/users/:userId
// @Summary Get a user profile
// @Tags users
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{userId} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "userId")
	if err != nil {
		return err
	}
	user, err := s.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// GetFollowers handles GET /api/users/followers/:userId
// @Summary A user's followers
// @Tags users
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {array} models.User
// @Router /users/followers/{userId} [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	id, err := parseID(c, "userId")
	if err != nil {
		return err
	}
	users, err := s.userService.Followers(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(users)
}

// GetFollowing handles GET /api/users/following/:userId
// @Summary Users a user follows
// @Tags users
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {array} models.User
// @Router /users/following/{userId} [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	id, err := parseID(c, "userId")
	if err != nil {
		return err
	}
	users, err := s.userService.Following(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(users)
}

// ToggleFollow handles POST /api/users/:userId
// @Summary Follow or unfollow a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 201 {object} object{message=string,following=bool}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{userId} [post]
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	targetID, err := parseID(c, "userId")
	if err != nil {
		return err
	}

	following, err := s.userService.ToggleFollow(c.UserContext(), userID, targetID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "success",
		"following": following,
	})
}
