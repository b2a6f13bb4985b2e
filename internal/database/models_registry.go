package database

import "thoughtforum/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.RefreshToken{},
		&models.Category{},
		&models.Question{},
		&models.Answer{},
		&models.Follow{},
		&models.QuestionLike{},
		&models.AnswerLike{},
	}
}
