package backup

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"quizmaster/backend/cache"
	"quizmaster/backend/models"
	"quizmaster/backend/store"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *store.Store {
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
	return store.New(db, c, nil, nil)
}

func seedUserWithData(t *testing.T, s *store.Store, username string) *models.UserProfile {
	t.Helper()
	p, err := s.CreateUserProfile(store.CreateProfileInput{Username: username})
	require.NoError(t, err)
	_, err = s.CreateSession(p.ID)
	require.NoError(t, err)
	_, err = s.SaveQuizProgress(store.ProgressInput{
		UserID:         p.ID,
		ModuleID:       "arrays-basics",
		TopicID:        "arrays",
		Score:          80,
		TotalQuestions: 10,
		CorrectAnswers: 8,
		TimeSpent:      60000,
	})
	require.NoError(t, err)
	return p
}

func TestExportClearImportRoundtrip(t *testing.T) {
	s := newTestStore(t)
	p := seedUserWithData(t, s, "ana")

	doc, err := Export(s)
	require.NoError(t, err)
	assert.Equal(t, DocumentVersion, doc.Version)
	require.Len(t, doc.Data.Profiles, 1)
	require.Len(t, doc.Data.Sessions, 1)
	require.Len(t, doc.Data.Progress, 1)

	require.NoError(t, s.ClearAll())
	got, err := s.GetUserProfile(p.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	result, err := Import(s, doc, StrategyOverwrite)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported["userProfiles"])
	assert.Equal(t, 1, result.Imported["userSessions"])
	assert.Equal(t, 1, result.Imported["quizProgress"])
	assert.Empty(t, result.Conflicts)

	// The restored profile carries its original id.
	restored, err := s.GetUserProfile(p.ID)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, "ana", restored.Username)
}

func TestImportSkipReportsConflicts(t *testing.T) {
	s := newTestStore(t)
	p := seedUserWithData(t, s, "bob")

	doc, err := Export(s)
	require.NoError(t, err)

	// Same ids are still present, so every record conflicts under skip.
	result, err := Import(s, doc, StrategySkip)
	require.NoError(t, err)
	assert.Zero(t, result.Imported["userProfiles"])
	assert.Zero(t, result.Imported["userSessions"])
	assert.Zero(t, result.Imported["quizProgress"])
	assert.Len(t, result.Conflicts, 3)

	// Local state is untouched.
	got, err := s.GetUserProfile(p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "bob", got.Username)
}

func TestImportMergeKeepsNewerRecord(t *testing.T) {
	s := newTestStore(t)
	p := seedUserWithData(t, s, "carol")

	doc, err := Export(s)
	require.NoError(t, err)

	// Incoming copy predates the local one, so merge keeps the local copy.
	doc.Data.Profiles[0].Username = "carol-old"
	doc.Data.Profiles[0].CreatedAt = p.CreatedAt.Add(-time.Hour)

	result, err := Import(s, doc, StrategyMerge)
	require.NoError(t, err)
	assert.Zero(t, result.Imported["userProfiles"])

	got, err := s.GetUserProfile(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol", got.Username)
}

func TestImportMergeTiePrefersIncoming(t *testing.T) {
	s := newTestStore(t)
	p := seedUserWithData(t, s, "dave")

	doc, err := Export(s)
	require.NoError(t, err)
	doc.Data.Profiles[0].DisplayName = "Dave Incoming"

	result, err := Import(s, doc, StrategyMerge)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported["userProfiles"])

	got, err := s.GetUserProfile(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dave Incoming", got.DisplayName)
}

func TestImportRejectsInvalidDocument(t *testing.T) {
	s := newTestStore(t)

	doc := &Document{
		Version:   DocumentVersion,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data: store.Snapshot{
			Profiles: []models.UserProfile{
				{ID: "", Username: "eve", CreatedAt: time.Now()},
				{ID: "p2", Username: "", CreatedAt: time.Now()},
			},
		},
	}

	problems := Validate(doc)
	assert.Len(t, problems, 2)

	_, err := Import(s, doc, StrategyOverwrite)
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrValidation))

	// Nothing was written.
	snap, err := s.ExportAll()
	require.NoError(t, err)
	assert.Empty(t, snap.Profiles)
}

func TestImportRejectsUnknownStrategy(t *testing.T) {
	s := newTestStore(t)
	doc := &Document{Version: DocumentVersion}

	_, err := Import(s, doc, Strategy("upsert"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrValidation))
}
