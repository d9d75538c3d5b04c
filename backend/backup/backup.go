// Package backup implements the export/import document format. Import
// validates the whole document before any write and preserves record ids
// verbatim, which is what makes merge-by-id possible.
package backup

import (
	"fmt"
	"time"

	"quizmaster/backend/models"
	"quizmaster/backend/store"

	"github.com/pkg/errors"
)

const DocumentVersion = 1

// Document is the backup wire format.
type Document struct {
	Version   int            `json:"version"`
	Timestamp string         `json:"timestamp"` // ISO-8601
	Data      store.Snapshot `json:"data"`
}

// Strategy decides what happens when an incoming record's id already exists.
type Strategy string

const (
	// StrategyOverwrite replaces the existing record.
	StrategyOverwrite Strategy = "overwrite"
	// StrategyMerge keeps whichever record has the newer creation timestamp;
	// ties prefer the incoming record.
	StrategyMerge Strategy = "merge"
	// StrategySkip ignores the incoming record and reports a conflict.
	StrategySkip Strategy = "skip"
)

// ImportResult itemizes what an import did.
type ImportResult struct {
	Imported  map[string]int `json:"imported"`
	Conflicts []string       `json:"conflicts,omitempty"`
}

// Export produces a backup document from a full store snapshot.
func Export(s *store.Store) (*Document, error) {
	snap, err := s.ExportAll()
	if err != nil {
		return nil, err
	}
	return &Document{
		Version:   DocumentVersion,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      *snap,
	}, nil
}

// Validate checks the document shape and required per-record fields. It
// returns every problem found; a non-empty list aborts the import before any
// write.
func Validate(doc *Document) []string {
	var problems []string
	if doc.Version <= 0 {
		problems = append(problems, "missing document version")
	}
	for i, p := range doc.Data.Profiles {
		if p.ID == "" {
			problems = append(problems, fmt.Sprintf("userProfiles[%d]: missing id", i))
		}
		if p.Username == "" {
			problems = append(problems, fmt.Sprintf("userProfiles[%d]: missing username", i))
		}
		if p.CreatedAt.IsZero() {
			problems = append(problems, fmt.Sprintf("userProfiles[%d]: missing creation timestamp", i))
		}
	}
	for i, r := range doc.Data.Sessions {
		if r.ID == "" {
			problems = append(problems, fmt.Sprintf("userSessions[%d]: missing id", i))
		}
		if r.UserID == "" {
			problems = append(problems, fmt.Sprintf("userSessions[%d]: missing owning user id", i))
		}
	}
	for i, r := range doc.Data.Progress {
		if r.ID == "" {
			problems = append(problems, fmt.Sprintf("quizProgress[%d]: missing id", i))
		}
		if r.UserID == "" {
			problems = append(problems, fmt.Sprintf("quizProgress[%d]: missing owning user id", i))
		}
	}
	for i, r := range doc.Data.Attempts {
		if r.ID == "" {
			problems = append(problems, fmt.Sprintf("quizAttempts[%d]: missing id", i))
		}
		if r.UserID == "" {
			problems = append(problems, fmt.Sprintf("quizAttempts[%d]: missing owning user id", i))
		}
	}
	return problems
}

// Import applies a validated document to the store under the given strategy.
// Ids are never rewritten. With StrategyOverwrite the caller may want
// store.ClearAll first for a full restore.
func Import(s *store.Store, doc *Document, strategy Strategy) (*ImportResult, error) {
	if problems := Validate(doc); len(problems) > 0 {
		return nil, errors.Wrapf(store.ErrValidation, "invalid backup document: %v", problems)
	}
	switch strategy {
	case StrategyOverwrite, StrategyMerge, StrategySkip:
	default:
		return nil, errors.Wrapf(store.ErrValidation, "unknown import strategy %q", strategy)
	}

	result := &ImportResult{Imported: map[string]int{
		"userProfiles": 0, "userSessions": 0, "quizProgress": 0, "quizAttempts": 0,
	}}

	for _, p := range doc.Data.Profiles {
		existing, err := s.GetUserProfile(p.ID)
		if err != nil {
			return result, err
		}
		if _, err := applyRecord(s, strategy, result, "userProfiles", p.ID,
			existing != nil, existingCreatedAt(existing), p.CreatedAt, func() error {
				record := p
				return s.ImportRecord(&record)
			}); err != nil {
			return result, err
		}
	}

	for _, r := range doc.Data.Sessions {
		existing, err := s.GetSession(r.ID)
		if err != nil {
			return result, err
		}
		var createdAt time.Time
		if existing != nil {
			createdAt = existing.CreatedAt
		}
		if _, err := applyRecord(s, strategy, result, "userSessions", r.ID,
			existing != nil, createdAt, r.CreatedAt, func() error {
				record := r
				return s.ImportRecord(&record)
			}); err != nil {
			return result, err
		}
	}

	for _, r := range doc.Data.Progress {
		existing, err := s.GetQuizProgress(r.ID)
		if err != nil {
			return result, err
		}
		var createdAt time.Time
		if existing != nil {
			createdAt = existing.CompletedAt
		}
		if _, err := applyRecord(s, strategy, result, "quizProgress", r.ID,
			existing != nil, createdAt, r.CompletedAt, func() error {
				record := r
				return s.ImportRecord(&record)
			}); err != nil {
			return result, err
		}
	}

	for _, r := range doc.Data.Attempts {
		existing, err := s.GetQuizAttempt(r.ID)
		if err != nil {
			return result, err
		}
		var createdAt time.Time
		if existing != nil {
			createdAt = existing.CreatedAt
		}
		if _, err := applyRecord(s, strategy, result, "quizAttempts", r.ID,
			existing != nil, createdAt, r.CreatedAt, func() error {
				record := r
				return s.ImportRecord(&record)
			}); err != nil {
			return result, err
		}
	}

	return result, nil
}

func existingCreatedAt(p *models.UserProfile) time.Time {
	if p == nil {
		return time.Time{}
	}
	return p.CreatedAt
}

// applyRecord runs the per-record strategy decision and bumps counters.
func applyRecord(s *store.Store, strategy Strategy, result *ImportResult,
	collection, id string, exists bool, existingTime, incomingTime time.Time,
	write func() error) (bool, error) {

	if exists {
		switch strategy {
		case StrategySkip:
			result.Conflicts = append(result.Conflicts,
				fmt.Sprintf("%s: id %s already exists, skipped", collection, id))
			return false, nil
		case StrategyMerge:
			// Keep the newer record; the incoming one wins a tie.
			if existingTime.After(incomingTime) {
				result.Conflicts = append(result.Conflicts,
					fmt.Sprintf("%s: id %s kept local copy (newer)", collection, id))
				return false, nil
			}
		case StrategyOverwrite:
		}
	}

	if err := write(); err != nil {
		return false, err
	}
	result.Imported[collection]++
	return true, nil
}
