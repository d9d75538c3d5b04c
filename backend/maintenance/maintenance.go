// Package maintenance holds the on-demand housekeeping routines: orphan
// sweep, age-based archival and cache compaction. Routines are independent
// and collect per-item failures instead of aborting the run.
package maintenance

import (
	"fmt"
	"time"

	"quizmaster/backend/cache"
	"quizmaster/backend/flatstore"
	"quizmaster/backend/models"
	"quizmaster/backend/store"
)

const attemptArchiveKey = "attempt-archive"

// Options control retention windows and archival behavior.
type Options struct {
	SessionRetention time.Duration // default 30 days
	AttemptRetention time.Duration // default 90 days
	ArchiveEnabled   bool
}

// Report lists rows affected by one maintenance run.
type Report struct {
	OrphanSessions   int      `json:"orphanSessions"`
	OrphanProgress   int      `json:"orphanProgress"`
	OrphanAttempts   int      `json:"orphanAttempts"`
	SessionsExpired  int      `json:"sessionsExpired"`
	AttemptsArchived int      `json:"attemptsArchived"`
	CacheFreed       int      `json:"cacheFreed"`
	Errors           []string `json:"errors,omitempty"`
}

type Service struct {
	store *store.Store
	flat  *flatstore.Store
	cache *cache.Cache
	opts  Options
}

func NewService(s *store.Store, flat *flatstore.Store, c *cache.Cache, opts Options) *Service {
	if opts.SessionRetention <= 0 {
		opts.SessionRetention = 30 * 24 * time.Hour
	}
	if opts.AttemptRetention <= 0 {
		opts.AttemptRetention = 90 * 24 * time.Hour
	}
	return &Service{store: s, flat: flat, cache: c, opts: opts}
}

// SweepOrphans deletes sessions, progress and attempt rows whose user id has
// no matching profile.
func (m *Service) SweepOrphans(report *Report) {
	db := m.store.DB()

	var userIDs []string
	if err := db.Model(&models.UserProfile{}).Pluck("id", &userIDs).Error; err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("list profiles: %v", err))
		return
	}
	// An empty NOT IN clause would match nothing; a placeholder keeps the
	// sweep meaningful on an empty profile table.
	if len(userIDs) == 0 {
		userIDs = []string{""}
	}

	for _, target := range []struct {
		model interface{}
		count *int
		name  string
	}{
		{&models.UserSession{}, &report.OrphanSessions, "sessions"},
		{&models.QuizProgress{}, &report.OrphanProgress, "progress"},
		{&models.QuizAttempt{}, &report.OrphanAttempts, "attempts"},
	} {
		res := db.Where("user_id NOT IN ?", userIDs).Delete(target.model)
		if res.Error != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("sweep %s: %v", target.name, res.Error))
			continue
		}
		*target.count = int(res.RowsAffected)
	}
}

// ArchiveOldRecords deletes sessions idle past the retention window and
// archives then deletes attempts older than theirs. Archived attempts are
// appended to a flat-store list before removal.
func (m *Service) ArchiveOldRecords(report *Report) {
	db := m.store.DB()
	now := time.Now()

	res := db.Where("last_active < ?", now.Add(-m.opts.SessionRetention)).
		Delete(&models.UserSession{})
	if res.Error != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("expire sessions: %v", res.Error))
	} else {
		report.SessionsExpired = int(res.RowsAffected)
	}

	cutoff := now.Add(-m.opts.AttemptRetention)
	var old []models.QuizAttempt
	if err := db.Where("created_at < ?", cutoff).Find(&old).Error; err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("list old attempts: %v", err))
		return
	}
	if len(old) == 0 {
		return
	}

	if m.opts.ArchiveEnabled {
		var archive []models.QuizAttempt
		if _, err := m.flat.Get(attemptArchiveKey, &archive); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("load attempt archive: %v", err))
			return
		}
		archive = append(archive, old...)
		if err := m.flat.Set(attemptArchiveKey, archive); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("write attempt archive: %v", err))
			return
		}
	}

	res = db.Where("created_at < ?", cutoff).Delete(&models.QuizAttempt{})
	if res.Error != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("delete old attempts: %v", res.Error))
		return
	}
	report.AttemptsArchived = int(res.RowsAffected)
}

// CompactCache clears the read cache and reports the entries freed.
func (m *Service) CompactCache(report *Report) {
	if m.cache != nil {
		report.CacheFreed = m.cache.Clear()
	}
}

// Run executes the selected routines in a fixed order and returns one
// combined report.
func (m *Service) Run(orphans, archive, compact bool) *Report {
	report := &Report{}
	if orphans {
		m.SweepOrphans(report)
	}
	if archive {
		m.ArchiveOldRecords(report)
	}
	if compact {
		m.CompactCache(report)
	}
	return report
}
