package models

import "time"

// LeaderboardEntry is a derived row, upserted whenever a profile's stats
// change. Rank is stamped at read time, never stored.
type LeaderboardEntry struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	UserID           string    `json:"userId" gorm:"uniqueIndex;not null"`
	Username         string    `json:"username"`
	DisplayName      string    `json:"displayName"`
	TotalScore       int       `json:"totalScore"`
	AverageScore     float64   `json:"averageScore"`
	CompletedModules int       `json:"completedModules"`
	TotalQuizzes     int       `json:"totalQuizzes"`
	AchievementCount int       `json:"achievementCount"`
	LastActive       time.Time `json:"lastActive"`
	Rank             int       `json:"rank" gorm:"-"`
}
