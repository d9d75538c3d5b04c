// Package migration moves legacy flat-key data into the record store. It
// runs exactly once: a flag in the flat store marks completion, and any
// failure during translation leaves the flag unset so the next startup
// retries the whole run.
package migration

import (
	"fmt"
	"time"

	"quizmaster/backend/flatstore"
	"quizmaster/backend/models"
	"quizmaster/backend/store"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Legacy flat keys written by the old localStorage-era client.
const (
	keyResults     = "dsa-quiz-results"
	keyProfile     = "dsa-quiz-profile"
	keyPreferences = "dsa-quiz-preferences"
	keyModules     = "dsa-quiz-completed-modules"

	keyComplete    = "dsa-quiz-migration-complete"
	keyCurrentUser = "dsa-quiz-current-user"
)

// topicModules maps legacy topic names to canonical module ids. Unknown
// topics fall back to "<topic>-basics".
var topicModules = map[string]string{
	"arrays":       "arrays-basics",
	"linked-lists": "linked-lists-basics",
	"linkedlists":  "linked-lists-basics",
	"stacks":       "stacks-basics",
	"queues":       "queues-basics",
	"trees":        "trees-basics",
	"graphs":       "graphs-basics",
	"sorting":      "sorting-basics",
	"searching":    "searching-basics",
	"recursion":    "recursion-basics",
}

type legacyResult struct {
	Topic          string `json:"topic"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
	CorrectAnswers int    `json:"correctAnswers"`
	Timestamp      int64  `json:"timestamp"` // unix millis
}

type legacyProfile struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	TotalScore int    `json:"totalScore"`
}

type legacyPreferences struct {
	Theme        string `json:"theme"`
	Difficulty   string `json:"difficulty"`
	SoundEnabled bool   `json:"soundEnabled"`
}

type Runner struct {
	store *store.Store
	flat  *flatstore.Store
	log   *logrus.Logger
}

func NewRunner(s *store.Store, flat *flatstore.Store, log *logrus.Logger) *Runner {
	return &Runner{store: s, flat: flat, log: log}
}

// Completed reports whether the migration has already run.
func (r *Runner) Completed() bool {
	var done bool
	ok, err := r.flat.Get(keyComplete, &done)
	return err == nil && ok && done
}

// Run performs the one-shot migration. A second call after completion is a
// no-op and performs zero writes.
func (r *Runner) Run() error {
	if r.Completed() {
		return nil
	}

	if !r.flat.Has(keyResults) && !r.flat.Has(keyProfile) &&
		!r.flat.Has(keyPreferences) && !r.flat.Has(keyModules) {
		// Nothing to migrate.
		return r.markComplete()
	}

	r.log.Info("legacy data found, starting migration")

	// Malformed JSON under a single key drops that key's contribution but
	// never aborts the run.
	var legacy legacyProfile
	if r.flat.Has(keyProfile) {
		if _, err := r.flat.Get(keyProfile, &legacy); err != nil {
			r.log.WithError(err).Warn("skipping malformed legacy profile")
			legacy = legacyProfile{}
		}
	}
	var results []legacyResult
	if r.flat.Has(keyResults) {
		if _, err := r.flat.Get(keyResults, &results); err != nil {
			r.log.WithError(err).Warn("skipping malformed legacy results")
			results = nil
		}
	}
	var prefs legacyPreferences
	havePrefs := false
	if r.flat.Has(keyPreferences) {
		if _, err := r.flat.Get(keyPreferences, &prefs); err != nil {
			r.log.WithError(err).Warn("skipping malformed legacy preferences")
		} else {
			havePrefs = true
		}
	}
	var completedModules []string
	if r.flat.Has(keyModules) {
		if _, err := r.flat.Get(keyModules, &completedModules); err != nil {
			r.log.WithError(err).Warn("skipping malformed legacy module list")
			completedModules = nil
		}
	}

	username := legacy.Username
	if username == "" {
		username = fmt.Sprintf("learner-%s", uuid.NewString()[:8])
	}

	profile, err := r.store.CreateUserProfile(store.CreateProfileInput{
		Username: username,
		Email:    legacy.Email,
	})
	if err != nil {
		return errors.Wrap(err, "migrate legacy profile")
	}

	session, err := r.store.CreateSession(profile.ID)
	if err != nil {
		return errors.Wrap(err, "migrate legacy session")
	}
	if havePrefs {
		err = r.store.UpdateSessionPreferences(session.ID, models.SessionPreferences{
			Theme:        prefs.Theme,
			Difficulty:   prefs.Difficulty,
			SoundEnabled: prefs.SoundEnabled,
		})
		if err != nil {
			return errors.Wrap(err, "migrate legacy preferences")
		}
	}

	totalScore := legacy.TotalScore
	moduleSet := map[string]bool{}
	for _, m := range completedModules {
		moduleSet[m] = true
	}

	for _, res := range results {
		moduleID := ModuleForTopic(res.Topic)
		_, err := r.store.SaveQuizProgress(store.ProgressInput{
			UserID:         profile.ID,
			ModuleID:       moduleID,
			TopicID:        res.Topic,
			Score:          res.Score,
			TotalQuestions: res.TotalQuestions,
			CorrectAnswers: res.CorrectAnswers,
			CompletedAt:    time.UnixMilli(res.Timestamp),
		})
		if err != nil {
			return errors.Wrap(err, "migrate legacy quiz result")
		}
		moduleSet[moduleID] = true
		if legacy.TotalScore == 0 {
			totalScore += res.Score
		}
	}

	stats, err := r.store.ComputeUserStats(profile.ID)
	if err != nil {
		return errors.Wrap(err, "recompute migrated stats")
	}
	modules := make([]string, 0, len(moduleSet))
	for m := range moduleSet {
		modules = append(modules, m)
	}
	err = r.store.UpdateUserProfile(profile.ID, store.ProfileUpdate{
		TotalScore:       &totalScore,
		CompletedModules: &modules,
		Stats:            stats,
	})
	if err != nil {
		return errors.Wrap(err, "store migrated aggregates")
	}

	updated, err := r.store.GetUserProfile(profile.ID)
	if err != nil {
		return errors.Wrap(err, "reload migrated profile")
	}
	if err := r.store.UpsertLeaderboardEntry(updated); err != nil {
		return errors.Wrap(err, "derive migrated leaderboard entry")
	}

	if err := r.flat.Set(keyCurrentUser, map[string]string{"id": profile.ID}); err != nil {
		return errors.Wrap(err, "persist current user")
	}

	for _, key := range []string{keyResults, keyProfile, keyPreferences, keyModules} {
		if err := r.flat.Delete(key); err != nil {
			return errors.Wrapf(err, "delete legacy key %q", key)
		}
	}

	r.log.WithFields(logrus.Fields{
		"user":    profile.ID,
		"results": len(results),
	}).Info("legacy migration finished")
	return r.markComplete()
}

func (r *Runner) markComplete() error {
	return errors.Wrap(r.flat.Set(keyComplete, true), "persist migration flag")
}

// ModuleForTopic resolves a legacy topic name to a canonical module id.
func ModuleForTopic(topic string) string {
	if m, ok := topicModules[topic]; ok {
		return m
	}
	return topic + "-basics"
}
