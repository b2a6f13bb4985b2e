package models

import "time"

// Category groups questions by topic.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"_id"`
	Title     string    `gorm:"size:100;uniqueIndex;not null" json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Questions []uint `gorm:"-" json:"questions"`
}

// CategoryRef is the embedded category shape used in question payloads.
type CategoryRef struct {
	ID    uint   `json:"_id"`
	Title string `json:"title"`
}
