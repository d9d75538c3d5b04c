package models

import "time"

// UserStats are the aggregate stats stored on a profile. They are recomputed
// from progress and attempt rows after every completed quiz.
type UserStats struct {
	TotalQuizzesTaken int        `json:"totalQuizzesTaken"`
	TotalTimeSpent    int64      `json:"totalTimeSpent"` // milliseconds
	AverageScore      float64    `json:"averageScore"`   // 0-100
	StreakDays        int        `json:"streakDays"`
	LastQuizDate      *time.Time `json:"lastQuizDate,omitempty"`
}

type UserProfile struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	Username         string    `json:"username" gorm:"uniqueIndex;not null"`
	Email            string    `json:"email" gorm:"index"`
	DisplayName      string    `json:"displayName"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
	TotalScore       int       `json:"totalScore"`
	CompletedModules []string  `json:"completedModules" gorm:"serializer:json"`
	Achievements     []string  `json:"achievements" gorm:"serializer:json"`
	Stats            UserStats `json:"stats" gorm:"embedded;embeddedPrefix:stats_"`
}

// SessionPreferences are per-device settings carried on a session.
type SessionPreferences struct {
	Theme        string `json:"theme"`
	Difficulty   string `json:"difficulty"`
	SoundEnabled bool   `json:"soundEnabled"`
}

type UserSession struct {
	ID          string             `json:"id" gorm:"primaryKey"`
	UserID      string             `json:"userId" gorm:"index;not null"`
	CreatedAt   time.Time          `json:"createdAt"`
	LastActive  time.Time          `json:"lastActive"`
	Preferences SessionPreferences `json:"preferences" gorm:"embedded;embeddedPrefix:pref_"`
}
