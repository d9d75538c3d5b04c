package models

import "time"

// QuizProgress is one completed quiz at module granularity. Rows are
// append-only: aggregates are derived from them, they are never edited.
type QuizProgress struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	UserID         string    `json:"userId" gorm:"index;not null"`
	ModuleID       string    `json:"moduleId" gorm:"index"`
	TopicID        string    `json:"topicId"`
	Score          int       `json:"score"` // 0-100
	TotalQuestions int       `json:"totalQuestions"`
	CorrectAnswers int       `json:"correctAnswers"`
	CompletedAt    time.Time `json:"completedAt"`
	TimeSpent      int64     `json:"timeSpent"` // milliseconds
}

// QuizAttempt is one answered question, finer grain than QuizProgress.
type QuizAttempt struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	UserID        string    `json:"userId" gorm:"index;not null"`
	ModuleID      string    `json:"moduleId"`
	QuestionID    string    `json:"questionId"`
	SelectedIndex int       `json:"selectedIndex"`
	CorrectIndex  int       `json:"correctIndex"`
	IsCorrect     bool      `json:"isCorrect"`
	TimeSpent     int64     `json:"timeSpent"` // milliseconds
	CreatedAt     time.Time `json:"createdAt"`
}
