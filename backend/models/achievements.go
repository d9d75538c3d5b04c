package models

import "time"

// UnlockCondition describes when an achievement is earned.
type UnlockCondition struct {
	Type   string `json:"type"` // quizzes_taken, average_score, perfect_scores, streak_days, topic_mastery
	Target int    `json:"target"`
	Topic  string `json:"topic,omitempty"` // only for topic_mastery
}

// Achievement is a catalog row, global across users.
type Achievement struct {
	ID          string          `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Category    string          `json:"category"` // progress, performance, mastery, streak
	Condition   UnlockCondition `json:"condition" gorm:"embedded;embeddedPrefix:cond_"`
	Rarity      string          `json:"rarity"` // common, rare, epic, legendary
	Secret      bool            `json:"secret"` // hidden until unlocked
	CreatedAt   time.Time       `json:"createdAt"`
}

// UserAchievement is the unlock join row, at most one per (user, achievement).
type UserAchievement struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	UserID        string    `json:"userId" gorm:"index:idx_user_achievement,unique;not null"`
	AchievementID string    `json:"achievementId" gorm:"index:idx_user_achievement,unique;not null"`
	UnlockedAt    time.Time `json:"unlockedAt"`
	Progress      int       `json:"progress"` // percent toward the condition, 100 once unlocked
}
