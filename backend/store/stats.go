package store

import (
	"time"

	"quizmaster/backend/cache"
	"quizmaster/backend/models"
)

// ComputeUserStats derives aggregate stats from the progress log. The result
// is never trusted from storage: every call recomputes, with a short cache in
// front to absorb repeated reads inside a session.
func (s *Store) ComputeUserStats(userID string) (*models.UserStats, error) {
	key := cache.Key("stats", userID)
	if v := s.cacheGet(key); v != nil {
		return v.(*models.UserStats), nil
	}

	rows, err := s.GetProgressForUser(userID)
	if err != nil {
		return nil, err
	}

	stats := &models.UserStats{}
	if len(rows) == 0 {
		s.cacheSet(key, stats, cache.StatsTTL)
		return stats, nil
	}

	var scoreSum int
	var last time.Time
	times := make([]time.Time, 0, len(rows))
	for _, row := range rows {
		scoreSum += row.Score
		stats.TotalTimeSpent += row.TimeSpent
		times = append(times, row.CompletedAt)
		if row.CompletedAt.After(last) {
			last = row.CompletedAt
		}
	}
	stats.TotalQuizzesTaken = len(rows)
	stats.AverageScore = float64(scoreSum) / float64(len(rows))
	stats.StreakDays = streakDays(times)
	stats.LastQuizDate = &last

	s.cacheSet(key, stats, cache.StatsTTL)
	return stats, nil
}

// streakDays counts consecutive calendar days with activity, walking back
// from the most recent active day.
func streakDays(times []time.Time) int {
	if len(times) == 0 {
		return 0
	}

	days := make(map[string]bool, len(times))
	var latest time.Time
	for _, t := range times {
		days[t.Format("2006-01-02")] = true
		if t.After(latest) {
			latest = t
		}
	}

	streak := 0
	day := time.Date(latest.Year(), latest.Month(), latest.Day(), 0, 0, 0, 0, latest.Location())
	for days[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
