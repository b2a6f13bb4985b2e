// Package models contains data structures for the forum's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultBio is assigned to users who sign up without one.
const DefaultBio = "Hey, I'm on ThoughtForum"

// User represents a forum member.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"_id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Gender    string    `gorm:"size:32;not null" json:"gender"`
	Bio       string    `gorm:"size:500;not null" json:"bio"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Reference lists are derived from relation tables by the repository.
	Questions      []uint `gorm:"-" json:"questions"`
	Following      []uint `gorm:"-" json:"following"`
	Followers      []uint `gorm:"-" json:"followers"`
	LikedQuestions []uint `gorm:"-" json:"likedQuestions"`
	LikedAnswers   []uint `gorm:"-" json:"likedAnswers"`
}

// BeforeCreate fills the default bio.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.Bio == "" {
		u.Bio = DefaultBio
	}
	return nil
}

// Ref returns the public {_id, name} projection of the user.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name}
}

// UserRef is the embedded author shape used in question and answer payloads.
type UserRef struct {
	ID   uint   `json:"_id"`
	Name string `json:"name"`
}

// Follow records that Follower follows Followee.
type Follow struct {
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false" json:"follower"`
	FolloweeID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"followee"`
	CreatedAt  time.Time `json:"createdAt"`
}
