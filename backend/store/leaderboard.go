package store

import (
	"time"

	"quizmaster/backend/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// UpsertLeaderboardEntry refreshes the derived leaderboard row for a profile.
// Called after every stats change; the existing row's id survives updates.
func (s *Store) UpsertLeaderboardEntry(profile *models.UserProfile) error {
	var achievementCount int64
	if err := s.db.Model(&models.UserAchievement{}).
		Where("user_id = ?", profile.ID).Count(&achievementCount).Error; err != nil {
		return storageErr(err)
	}

	entry := models.LeaderboardEntry{
		UserID:           profile.ID,
		Username:         profile.Username,
		DisplayName:      profile.DisplayName,
		TotalScore:       profile.TotalScore,
		AverageScore:     profile.Stats.AverageScore,
		CompletedModules: len(profile.CompletedModules),
		TotalQuizzes:     profile.Stats.TotalQuizzesTaken,
		AchievementCount: int(achievementCount),
		LastActive:       time.Now(),
	}

	var existing models.LeaderboardEntry
	err := s.db.First(&existing, "user_id = ?", profile.ID).Error
	switch {
	case err == nil:
		entry.ID = existing.ID
	case errors.Is(err, gorm.ErrRecordNotFound):
		entry.ID = uuid.NewString()
	default:
		return storageErr(err)
	}

	if err := s.db.Save(&entry).Error; err != nil {
		return storageErr(err)
	}
	s.invalidate("leaderboard")
	return nil
}

// Leaderboard returns entries ranked by total score descending. Ties break
// on username ascending so two runs over the same data always agree. Rank is
// stamped here, at read time.
func (s *Store) Leaderboard(limit int) ([]models.LeaderboardEntry, error) {
	var rows []models.LeaderboardEntry
	q := s.db.Order("total_score DESC, username ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, storageErr(err)
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}
