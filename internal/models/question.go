package models

import "time"

// Question is a forum post asking something within a category.
type Question struct {
	ID         uint      `gorm:"primaryKey" json:"_id"`
	Title      string    `gorm:"size:300;not null" json:"title"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	UserID     uint      `gorm:"not null;index" json:"-"`
	CategoryID uint      `gorm:"not null;index" json:"-"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	// Populated by the repository, not persisted.
	User     UserRef     `gorm:"-" json:"user"`
	Category CategoryRef `gorm:"-" json:"category"`
	Answers  []uint      `gorm:"-" json:"answers"`
	Likes    []uint      `gorm:"-" json:"likes"`
}

// QuestionLike is a user's like on a question.
type QuestionLike struct {
	UserID     uint      `gorm:"primaryKey;autoIncrement:false"`
	QuestionID uint      `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt  time.Time
}
