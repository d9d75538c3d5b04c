package migration

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"quizmaster/backend/flatstore"
	"quizmaster/backend/store"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	store  *store.Store
	flat   *flatstore.Store
	fs     afero.Fs
	runner *Runner
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, store.MigrateSchema(db))

	s := store.New(db, nil, nil, nil)
	fs := afero.NewMemMapFs()
	flat, err := flatstore.NewWithFs(fs, "data")
	require.NoError(t, err)

	log := logrus.New()
	log.SetLevel(logrus.FatalLevel)
	return testEnv{store: s, flat: flat, fs: fs, runner: NewRunner(s, flat, log)}
}

func TestNoLegacyDataCompletesImmediately(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.runner.Run())
	assert.True(t, env.runner.Completed())

	snap, err := env.store.ExportAll()
	require.NoError(t, err)
	assert.Empty(t, snap.Profiles)
	assert.Empty(t, snap.Sessions)
	assert.Empty(t, snap.Progress)
}

func TestMigratesLegacyResults(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.flat.Set("dsa-quiz-results", []map[string]interface{}{
		{"topic": "arrays", "score": 85, "totalQuestions": 10,
			"correctAnswers": 8, "timestamp": 1700000000000},
	}))
	require.NoError(t, env.flat.Set("dsa-quiz-profile", map[string]interface{}{
		"username": "ana", "email": "ana@example.com", "totalScore": 85,
	}))
	require.NoError(t, env.flat.Set("dsa-quiz-preferences", map[string]interface{}{
		"theme": "dark", "difficulty": "medium", "soundEnabled": false,
	}))

	require.NoError(t, env.runner.Run())
	assert.True(t, env.runner.Completed())

	snap, err := env.store.ExportAll()
	require.NoError(t, err)
	require.Len(t, snap.Profiles, 1)
	require.Len(t, snap.Sessions, 1)
	require.Len(t, snap.Progress, 1)

	profile := snap.Profiles[0]
	assert.Equal(t, "ana", profile.Username)
	assert.Equal(t, 85, profile.TotalScore)
	assert.Contains(t, profile.CompletedModules, "arrays-basics")
	assert.Equal(t, 1, profile.Stats.TotalQuizzesTaken)

	progress := snap.Progress[0]
	assert.Equal(t, "arrays-basics", progress.ModuleID)
	assert.Equal(t, 85, progress.Score)
	assert.Equal(t, time.UnixMilli(1700000000000).Unix(), progress.CompletedAt.Unix())

	assert.Equal(t, "dark", snap.Sessions[0].Preferences.Theme)

	// Legacy keys are gone, the current user pointer is persisted.
	assert.False(t, env.flat.Has("dsa-quiz-results"))
	assert.False(t, env.flat.Has("dsa-quiz-profile"))
	var current map[string]string
	ok, err := env.flat.Get("dsa-quiz-current-user", &current)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, profile.ID, current["id"])
}

func TestMigrationIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.flat.Set("dsa-quiz-results", []map[string]interface{}{
		{"topic": "trees", "score": 70, "totalQuestions": 10,
			"correctAnswers": 7, "timestamp": 1700000000000},
	}))

	require.NoError(t, env.runner.Run())
	first, err := env.store.ExportAll()
	require.NoError(t, err)

	// The second run performs zero writes.
	require.NoError(t, env.runner.Run())
	second, err := env.store.ExportAll()
	require.NoError(t, err)

	assert.Equal(t, len(first.Profiles), len(second.Profiles))
	assert.Equal(t, len(first.Progress), len(second.Progress))
	assert.Equal(t, first.Profiles[0].ID, second.Profiles[0].ID)
}

func TestMalformedKeySkipped(t *testing.T) {
	env := newTestEnv(t)

	// Broken profile JSON drops that key's contribution; the run continues
	// with a generated username.
	require.NoError(t, afero.WriteFile(env.fs, "data/dsa-quiz-profile.json",
		[]byte("{broken"), 0o644))
	require.NoError(t, env.flat.Set("dsa-quiz-results", []map[string]interface{}{
		{"topic": "arrays", "score": 50, "totalQuestions": 10,
			"correctAnswers": 5, "timestamp": 1700000000000},
	}))

	require.NoError(t, env.runner.Run())
	assert.True(t, env.runner.Completed())

	snap, err := env.store.ExportAll()
	require.NoError(t, err)
	require.Len(t, snap.Profiles, 1)
	assert.True(t, strings.HasPrefix(snap.Profiles[0].Username, "learner-"))
	assert.Len(t, snap.Progress, 1)
}

func TestUnknownTopicFallback(t *testing.T) {
	assert.Equal(t, "arrays-basics", ModuleForTopic("arrays"))
	assert.Equal(t, "linked-lists-basics", ModuleForTopic("linkedlists"))
	assert.Equal(t, "heaps-basics", ModuleForTopic("heaps"))
}
