package service

import (
	"context"
	"strings"

	"thoughtforum/internal/models"
	"thoughtforum/internal/notifications"
	"thoughtforum/internal/repository"
	"thoughtforum/internal/validation"
)

const topMembersLimit = 5

type UserService struct {
	users    repository.UserRepository
	notifier Notifier
}

type UpdateProfileInput struct {
	UserID uint   `json:"-"`
	Name   string `json:"name" validate:"notblank,max=100"`
	Gender string `json:"gender" validate:"notblank,max=32"`
	Bio    string `json:"bio" validate:"notblank,max=500"`
}

func NewUserService(users repository.UserRepository, notifier Notifier) *UserService {
	return &UserService{users: users, notifier: notifierOrNoop(notifier)}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Gender = strings.TrimSpace(in.Gender)
	in.Bio = strings.TrimSpace(in.Bio)
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return s.users.UpdateProfile(ctx, in.UserID, in.Name, in.Gender, in.Bio)
}

func (s *UserService) Followers(ctx context.Context, userID uint) ([]*models.User, error) {
	return s.users.Followers(ctx, userID)
}

func (s *UserService) Following(ctx context.Context, userID uint) ([]*models.User, error) {
	return s.users.Following(ctx, userID)
}

// TopMembers returns the five users with the most followers.
func (s *UserService) TopMembers(ctx context.Context) ([]*models.User, error) {
	return s.users.TopByFollowers(ctx, topMembersLimit)
}

// ToggleFollow follows or unfollows followeeID and reports whether the caller
// follows them afterwards. A new follow notifies the followee.
func (s *UserService) ToggleFollow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	if followerID == followeeID {
		return false, models.NewValidationError("You cannot follow yourself")
	}

	followed, err := s.users.ToggleFollow(ctx, followerID, followeeID)
	if err != nil {
		return false, err
	}

	if followed {
		if follower, ok := lookupRef(ctx, s.users, followerID); ok {
			s.notifier.Route(ctx, followeeID, notifications.EventFollow, notifications.FollowPayload{
				Name:   follower.Name,
				UserID: follower.ID,
			})
		}
	}
	return followed, nil
}
