package models

import "time"

// Answer is a reply to a question.
type Answer struct {
	ID         uint      `gorm:"primaryKey" json:"_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	QuestionID uint      `gorm:"not null;index" json:"question"`
	UserID     uint      `gorm:"not null;index" json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	User  UserRef `gorm:"-" json:"user"`
	Likes []uint  `gorm:"-" json:"likes"`
}

// AnswerLike is a user's like on an answer.
type AnswerLike struct {
	UserID    uint `gorm:"primaryKey;autoIncrement:false"`
	AnswerID  uint `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time
}
