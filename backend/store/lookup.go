package store

import (
	"quizmaster/backend/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// By-id readers used by the import flow. Like every read path, a missing id
// is nil, not an error.

func (s *Store) GetSession(id string) (*models.UserSession, error) {
	var row models.UserSession
	if err := s.db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr(err)
	}
	return &row, nil
}

func (s *Store) GetQuizProgress(id string) (*models.QuizProgress, error) {
	var row models.QuizProgress
	if err := s.db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr(err)
	}
	return &row, nil
}

func (s *Store) GetQuizAttempt(id string) (*models.QuizAttempt, error) {
	var row models.QuizAttempt
	if err := s.db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr(err)
	}
	return &row, nil
}
