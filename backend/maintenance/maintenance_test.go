package maintenance

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"quizmaster/backend/cache"
	"quizmaster/backend/flatstore"
	"quizmaster/backend/models"
	"quizmaster/backend/store"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	store *store.Store
	flat  *flatstore.Store
	cache *cache.Cache
	svc   *Service
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, store.MigrateSchema(db))

	c := cache.New(100, time.Minute)
	t.Cleanup(c.Close)

	flat, err := flatstore.NewWithFs(afero.NewMemMapFs(), "data")
	require.NoError(t, err)

	s := store.New(db, c, nil, nil)
	return &testEnv{
		store: s,
		flat:  flat,
		cache: c,
		svc:   NewService(s, flat, c, opts),
	}
}

func seedProfile(t *testing.T, env *testEnv, username string) *models.UserProfile {
	t.Helper()
	p, err := env.store.CreateUserProfile(store.CreateProfileInput{Username: username})
	require.NoError(t, err)
	return p
}

func TestSweepOrphans(t *testing.T) {
	env := newTestEnv(t, Options{})
	db := env.store.DB()

	keeper := seedProfile(t, env, "keeper")
	_, err := env.store.CreateSession(keeper.ID)
	require.NoError(t, err)

	// Rows pointing at a user that was deleted out from under them.
	require.NoError(t, db.Create(&models.UserSession{
		ID: uuid.NewString(), UserID: "ghost", LastActive: time.Now(),
	}).Error)
	require.NoError(t, db.Create(&models.QuizProgress{
		ID: uuid.NewString(), UserID: "ghost", ModuleID: "arrays-basics", CompletedAt: time.Now(),
	}).Error)
	require.NoError(t, db.Create(&models.QuizAttempt{
		ID: uuid.NewString(), UserID: "ghost", ModuleID: "arrays-basics",
	}).Error)

	report := env.svc.Run(true, false, false)
	assert.Empty(t, report.Errors)
	assert.Equal(t, 1, report.OrphanSessions)
	assert.Equal(t, 1, report.OrphanProgress)
	assert.Equal(t, 1, report.OrphanAttempts)

	// The keeper's session survives.
	sessions, err := env.store.GetActiveSession(keeper.ID)
	require.NoError(t, err)
	require.NotNil(t, sessions)
}

func TestSweepOrphansEmptyDatabase(t *testing.T) {
	env := newTestEnv(t, Options{})

	report := env.svc.Run(true, false, false)
	assert.Empty(t, report.Errors)
	assert.Zero(t, report.OrphanSessions)
	assert.Zero(t, report.OrphanProgress)
	assert.Zero(t, report.OrphanAttempts)
}

func TestArchiveOldRecords(t *testing.T) {
	env := newTestEnv(t, Options{
		SessionRetention: 30 * 24 * time.Hour,
		AttemptRetention: 90 * 24 * time.Hour,
		ArchiveEnabled:   true,
	})
	db := env.store.DB()
	p := seedProfile(t, env, "dana")

	stale := time.Now().Add(-60 * 24 * time.Hour)
	ancient := time.Now().Add(-120 * 24 * time.Hour)

	require.NoError(t, db.Create(&models.UserSession{
		ID: uuid.NewString(), UserID: p.ID, LastActive: stale,
	}).Error)
	require.NoError(t, db.Create(&models.UserSession{
		ID: uuid.NewString(), UserID: p.ID, LastActive: time.Now(),
	}).Error)
	require.NoError(t, db.Create(&models.QuizAttempt{
		ID: uuid.NewString(), UserID: p.ID, ModuleID: "arrays-basics", CreatedAt: ancient,
	}).Error)
	require.NoError(t, db.Create(&models.QuizAttempt{
		ID: uuid.NewString(), UserID: p.ID, ModuleID: "arrays-basics", CreatedAt: time.Now(),
	}).Error)

	report := env.svc.Run(false, true, false)
	assert.Empty(t, report.Errors)
	assert.Equal(t, 1, report.SessionsExpired)
	assert.Equal(t, 1, report.AttemptsArchived)

	// The archived attempt landed in the flat store before deletion.
	var archived []models.QuizAttempt
	found, err := env.flat.Get(attemptArchiveKey, &archived)
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, archived, 1)
	assert.Equal(t, p.ID, archived[0].UserID)

	var remaining int64
	require.NoError(t, db.Model(&models.QuizAttempt{}).Count(&remaining).Error)
	assert.EqualValues(t, 1, remaining)
}

func TestArchiveDisabledStillDeletes(t *testing.T) {
	env := newTestEnv(t, Options{ArchiveEnabled: false})
	db := env.store.DB()
	p := seedProfile(t, env, "erik")

	require.NoError(t, db.Create(&models.QuizAttempt{
		ID: uuid.NewString(), UserID: p.ID, CreatedAt: time.Now().Add(-120 * 24 * time.Hour),
	}).Error)

	report := env.svc.Run(false, true, false)
	assert.Empty(t, report.Errors)
	assert.Equal(t, 1, report.AttemptsArchived)

	var archived []models.QuizAttempt
	found, err := env.flat.Get(attemptArchiveKey, &archived)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCompactCache(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.cache.Set("user:u1", "a")
	env.cache.Set("stats:u1", "b")

	report := env.svc.Run(false, false, true)
	assert.Equal(t, 2, report.CacheFreed)
	assert.Nil(t, env.cache.Get("user:u1"))
}
