package store

import (
	"strings"
	"time"

	"quizmaster/backend/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// DefaultCatalog is the static achievement catalog, seeded once at startup.
func DefaultCatalog() []models.Achievement {
	return []models.Achievement{
		{
			ID: "first-steps", Name: "First Steps", Icon: "🎯",
			Description: "Complete your first quiz",
			Category:    "progress", Rarity: "common",
			Condition: models.UnlockCondition{Type: "quizzes_taken", Target: 1},
		},
		{
			ID: "quiz-enthusiast", Name: "Quiz Enthusiast", Icon: "📚",
			Description: "Complete 10 quizzes",
			Category:    "progress", Rarity: "common",
			Condition: models.UnlockCondition{Type: "quizzes_taken", Target: 10},
		},
		{
			ID: "quiz-veteran", Name: "Quiz Veteran", Icon: "🏅",
			Description: "Complete 50 quizzes",
			Category:    "progress", Rarity: "rare",
			Condition: models.UnlockCondition{Type: "quizzes_taken", Target: 50},
		},
		{
			ID: "sharp-mind", Name: "Sharp Mind", Icon: "🧠",
			Description: "Keep an average score of 80 or higher",
			Category:    "performance", Rarity: "rare",
			Condition: models.UnlockCondition{Type: "average_score", Target: 80},
		},
		{
			ID: "perfectionist", Name: "Perfectionist", Icon: "💯",
			Description: "Finish a quiz with a perfect score",
			Category:    "performance", Rarity: "rare",
			Condition: models.UnlockCondition{Type: "perfect_scores", Target: 1},
		},
		{
			ID: "flawless-five", Name: "Flawless Five", Icon: "🌟",
			Description: "Finish five quizzes with a perfect score",
			Category:    "performance", Rarity: "epic", Secret: true,
			Condition: models.UnlockCondition{Type: "perfect_scores", Target: 5},
		},
		{
			ID: "array-master", Name: "Array Master", Icon: "🗂️",
			Description: "Complete three array modules",
			Category:    "mastery", Rarity: "epic",
			Condition: models.UnlockCondition{Type: "topic_mastery", Target: 3, Topic: "arrays"},
		},
		{
			ID: "streak-3", Name: "On a Roll", Icon: "🔥",
			Description: "Practice three days in a row",
			Category:    "streak", Rarity: "common",
			Condition: models.UnlockCondition{Type: "streak_days", Target: 3},
		},
		{
			ID: "streak-7", Name: "Unstoppable", Icon: "⚡",
			Description: "Practice seven days in a row",
			Category:    "streak", Rarity: "legendary",
			Condition: models.UnlockCondition{Type: "streak_days", Target: 7},
		},
	}
}

// SeedAchievements inserts missing catalog rows. Existing rows are left
// untouched, so reseeding on every startup is safe.
func (s *Store) SeedAchievements() error {
	for _, a := range DefaultCatalog() {
		var count int64
		if err := s.db.Model(&models.Achievement{}).
			Where("id = ?", a.ID).Count(&count).Error; err != nil {
			return storageErr(err)
		}
		if count > 0 {
			continue
		}
		a.CreatedAt = time.Now()
		if err := s.db.Create(&a).Error; err != nil {
			return storageErr(err)
		}
	}
	return nil
}

func (s *Store) ListAchievements() ([]models.Achievement, error) {
	var rows []models.Achievement
	if err := s.db.Order("id").Find(&rows).Error; err != nil {
		return nil, storageErr(err)
	}
	return rows, nil
}

func (s *Store) GetUserAchievements(userID string) ([]models.UserAchievement, error) {
	var rows []models.UserAchievement
	if err := s.db.Where("user_id = ?", userID).
		Order("unlocked_at").Find(&rows).Error; err != nil {
		return nil, storageErr(err)
	}
	return rows, nil
}

// UnlockAchievement creates the unlock row for a (user, achievement) pair.
// A second unlock of the same pair fails with a duplicate-key error and
// leaves the original row alone.
func (s *Store) UnlockAchievement(userID, achievementID string) (*models.UserAchievement, error) {
	var count int64
	if err := s.db.Model(&models.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		Count(&count).Error; err != nil {
		return nil, storageErr(err)
	}
	if count > 0 {
		return nil, errors.Wrapf(ErrDuplicateKey, "achievement %s already unlocked", achievementID)
	}

	row := &models.UserAchievement{
		ID:            uuid.NewString(),
		UserID:        userID,
		AchievementID: achievementID,
		UnlockedAt:    time.Now(),
		Progress:      100,
	}
	if err := s.db.Create(row).Error; err != nil {
		return nil, storageErr(err)
	}

	// Mirror the unlock onto the profile's achievement id list.
	var profile models.UserProfile
	if err := s.db.First(&profile, "id = ?", userID).Error; err == nil {
		profile.Achievements = append(profile.Achievements, achievementID)
		if err := s.db.Save(&profile).Error; err != nil {
			return nil, storageErr(err)
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storageErr(err)
	}

	s.invalidate(userID)
	s.enqueue("create", "userAchievements", row)
	return row, nil
}

// CheckAchievements evaluates every catalog condition against the user's
// derived stats and unlocks the newly earned ones. Returns the catalog rows
// unlocked by this call.
func (s *Store) CheckAchievements(userID string) ([]models.Achievement, error) {
	catalog, err := s.ListAchievements()
	if err != nil {
		return nil, err
	}
	unlocked, err := s.GetUserAchievements(userID)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(unlocked))
	for _, ua := range unlocked {
		have[ua.AchievementID] = true
	}

	stats, err := s.ComputeUserStats(userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.GetUserProfile(userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, errors.Wrapf(ErrNotFound, "profile %s", userID)
	}

	var newly []models.Achievement
	for _, a := range catalog {
		if have[a.ID] {
			continue
		}
		earned, err := s.conditionMet(a.Condition, stats, profile)
		if err != nil {
			return nil, err
		}
		if !earned {
			continue
		}
		if _, err := s.UnlockAchievement(userID, a.ID); err != nil {
			if errors.Is(err, ErrDuplicateKey) {
				continue
			}
			return nil, err
		}
		newly = append(newly, a)
	}
	return newly, nil
}

func (s *Store) conditionMet(cond models.UnlockCondition, stats *models.UserStats, profile *models.UserProfile) (bool, error) {
	switch cond.Type {
	case "quizzes_taken":
		return stats.TotalQuizzesTaken >= cond.Target, nil
	case "average_score":
		return stats.TotalQuizzesTaken > 0 && stats.AverageScore >= float64(cond.Target), nil
	case "streak_days":
		return stats.StreakDays >= cond.Target, nil
	case "perfect_scores":
		var count int64
		if err := s.db.Model(&models.QuizProgress{}).
			Where("user_id = ? AND score = 100", profile.ID).Count(&count).Error; err != nil {
			return false, storageErr(err)
		}
		return int(count) >= cond.Target, nil
	case "topic_mastery":
		n := 0
		for _, moduleID := range profile.CompletedModules {
			if strings.HasPrefix(moduleID, cond.Topic+"-") || moduleID == cond.Topic {
				n++
			}
		}
		return n >= cond.Target, nil
	default:
		s.log.WithField("type", cond.Type).Warn("unknown achievement condition type")
		return false, nil
	}
}
