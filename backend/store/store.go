// Package store owns the record collections: user profiles, sessions, quiz
// progress, quiz attempts, the achievement catalog, per-user unlocks and the
// precomputed leaderboard. Reads go through the cache layer; every mutation
// invalidates the affected cache keys before returning and records a pending
// operation on the sync queue.
package store

import (
	"time"

	"quizmaster/backend/cache"
	"quizmaster/backend/models"
	"quizmaster/backend/syncqueue"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Store struct {
	db    *gorm.DB
	cache *cache.Cache
	sync  *syncqueue.Queue
	log   *logrus.Logger
}

// New wires a store over an opened database. Cache and sync queue are
// optional; a nil cache degrades every read to a direct database read.
func New(db *gorm.DB, c *cache.Cache, q *syncqueue.Queue, log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.New()
	}
	return &Store{db: db, cache: c, sync: q, log: log}
}

// DB exposes the underlying handle for maintenance routines.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) cacheGet(key string) interface{} {
	if s.cache == nil {
		return nil
	}
	return s.cache.Get(key)
}

func (s *Store) cacheSet(key string, value interface{}, ttl ...time.Duration) {
	if s.cache != nil {
		s.cache.Set(key, value, ttl...)
	}
}

func (s *Store) invalidate(pattern string) {
	if s.cache != nil {
		s.cache.Invalidate(pattern)
	}
}

func (s *Store) enqueue(kind, collection string, payload interface{}) {
	if s.sync == nil {
		return
	}
	if err := s.sync.Enqueue(kind, collection, payload); err != nil {
		s.log.WithError(err).Warn("enqueue sync operation")
	}
}

// storageErr maps a database error onto the taxonomy. Unique-constraint
// violations become ErrDuplicateKey so a check-then-insert race still
// surfaces as a duplicate, not a storage failure.
func storageErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Wrap(ErrDuplicateKey, err.Error())
	}
	return errors.Wrap(ErrStorageUnavailable, err.Error())
}

// ---- user profiles ----

// CreateProfileInput is the allowed onboarding surface.
type CreateProfileInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

func (s *Store) CreateUserProfile(input CreateProfileInput) (*models.UserProfile, error) {
	if input.Username == "" {
		return nil, errors.Wrap(ErrValidation, "username is required")
	}

	var count int64
	if err := s.db.Model(&models.UserProfile{}).
		Where("username = ?", input.Username).Count(&count).Error; err != nil {
		return nil, storageErr(err)
	}
	if count > 0 {
		return nil, errors.Wrapf(ErrDuplicateKey, "username %q already exists", input.Username)
	}

	displayName := input.DisplayName
	if displayName == "" {
		displayName = input.Username
	}

	profile := &models.UserProfile{
		ID:               uuid.NewString(),
		Username:         input.Username,
		Email:            input.Email,
		DisplayName:      displayName,
		CreatedAt:        time.Now(),
		CompletedModules: []string{},
		Achievements:     []string{},
	}
	if err := s.db.Create(profile).Error; err != nil {
		return nil, storageErr(err)
	}

	s.cacheSet(cache.Key("user", profile.ID), profile)
	s.enqueue("create", "userProfiles", profile)
	return profile, nil
}

func (s *Store) GetUserProfile(id string) (*models.UserProfile, error) {
	key := cache.Key("user", id)
	if v := s.cacheGet(key); v != nil {
		return v.(*models.UserProfile), nil
	}

	var profile models.UserProfile
	if err := s.db.First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr(err)
	}
	s.cacheSet(key, &profile)
	return &profile, nil
}

func (s *Store) GetUserProfileByUsername(username string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.db.First(&profile, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr(err)
	}
	return &profile, nil
}

// ProfileUpdate is the allow-listed partial update for a profile. Unknown
// fields never reach the store; a nil field leaves the stored value alone.
type ProfileUpdate struct {
	Username         *string           `json:"username"`
	Email            *string           `json:"email"`
	DisplayName      *string           `json:"displayName"`
	TotalScore       *int              `json:"totalScore"`
	CompletedModules *[]string         `json:"completedModules"`
	Achievements     *[]string         `json:"achievements"`
	Stats            *models.UserStats `json:"stats"`
}

func (s *Store) UpdateUserProfile(id string, upd ProfileUpdate) error {
	var profile models.UserProfile
	if err := s.db.First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrapf(ErrNotFound, "profile %s", id)
		}
		return storageErr(err)
	}

	if upd.Username != nil && *upd.Username != profile.Username {
		var count int64
		if err := s.db.Model(&models.UserProfile{}).
			Where("username = ? AND id <> ?", *upd.Username, id).Count(&count).Error; err != nil {
			return storageErr(err)
		}
		if count > 0 {
			return errors.Wrapf(ErrDuplicateKey, "username %q already exists", *upd.Username)
		}
		profile.Username = *upd.Username
	}
	if upd.Email != nil {
		profile.Email = *upd.Email
	}
	if upd.DisplayName != nil {
		profile.DisplayName = *upd.DisplayName
	}
	if upd.TotalScore != nil {
		profile.TotalScore = *upd.TotalScore
	}
	if upd.CompletedModules != nil {
		profile.CompletedModules = *upd.CompletedModules
	}
	if upd.Achievements != nil {
		profile.Achievements = *upd.Achievements
	}
	if upd.Stats != nil {
		profile.Stats = *upd.Stats
	}

	if err := s.db.Save(&profile).Error; err != nil {
		return storageErr(err)
	}

	s.invalidate(id)
	s.enqueue("update", "userProfiles", &profile)
	return nil
}

// DeleteUserData removes a profile and every row it owns. Used by the
// explicit reset flow only.
func (s *Store) DeleteUserData(userID string) error {
	for _, m := range []interface{}{
		&models.UserSession{}, &models.QuizProgress{}, &models.QuizAttempt{},
		&models.UserAchievement{}, &models.LeaderboardEntry{},
	} {
		if err := s.db.Where("user_id = ?", userID).Delete(m).Error; err != nil {
			return storageErr(err)
		}
	}
	if err := s.db.Delete(&models.UserProfile{}, "id = ?", userID).Error; err != nil {
		return storageErr(err)
	}
	s.invalidate(userID)
	s.enqueue("delete", "userProfiles", map[string]string{"id": userID})
	return nil
}

// ---- sessions ----

func (s *Store) CreateSession(userID string) (*models.UserSession, error) {
	now := time.Now()
	session := &models.UserSession{
		ID:         uuid.NewString(),
		UserID:     userID,
		CreatedAt:  now,
		LastActive: now,
		Preferences: models.SessionPreferences{
			Theme:        "light",
			Difficulty:   "all",
			SoundEnabled: true,
		},
	}
	if err := s.db.Create(session).Error; err != nil {
		return nil, storageErr(err)
	}
	s.invalidate(cache.Key("session", userID))
	s.enqueue("create", "userSessions", session)
	return session, nil
}

// GetActiveSession returns the most recently active session for a user, or
// nil when none exists.
func (s *Store) GetActiveSession(userID string) (*models.UserSession, error) {
	key := cache.Key("session", userID)
	if v := s.cacheGet(key); v != nil {
		return v.(*models.UserSession), nil
	}

	var session models.UserSession
	err := s.db.Where("user_id = ?", userID).
		Order("last_active DESC").First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr(err)
	}
	s.cacheSet(key, &session)
	return &session, nil
}

func (s *Store) TouchSession(id string) error {
	res := s.db.Model(&models.UserSession{}).Where("id = ?", id).
		Update("last_active", time.Now())
	if res.Error != nil {
		return storageErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "session %s", id)
	}
	s.invalidate("session:")
	return nil
}

func (s *Store) UpdateSessionPreferences(id string, prefs models.SessionPreferences) error {
	var session models.UserSession
	if err := s.db.First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrapf(ErrNotFound, "session %s", id)
		}
		return storageErr(err)
	}
	session.Preferences = prefs
	session.LastActive = time.Now()
	if err := s.db.Save(&session).Error; err != nil {
		return storageErr(err)
	}
	s.invalidate(cache.Key("session", session.UserID))
	s.enqueue("update", "userSessions", &session)
	return nil
}

// ---- quiz progress ----

// ProgressInput is one completed quiz summary.
type ProgressInput struct {
	UserID         string    `json:"userId"`
	ModuleID       string    `json:"moduleId"`
	TopicID        string    `json:"topicId"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	CorrectAnswers int       `json:"correctAnswers"`
	CompletedAt    time.Time `json:"completedAt"`
	TimeSpent      int64     `json:"timeSpent"`
}

func (s *Store) SaveQuizProgress(input ProgressInput) (*models.QuizProgress, error) {
	if input.UserID == "" {
		return nil, errors.Wrap(ErrValidation, "userId is required")
	}
	completedAt := input.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now()
	}

	row := &models.QuizProgress{
		ID:             uuid.NewString(),
		UserID:         input.UserID,
		ModuleID:       input.ModuleID,
		TopicID:        input.TopicID,
		Score:          input.Score,
		TotalQuestions: input.TotalQuestions,
		CorrectAnswers: input.CorrectAnswers,
		CompletedAt:    completedAt,
		TimeSpent:      input.TimeSpent,
	}
	if err := s.db.Create(row).Error; err != nil {
		return nil, storageErr(err)
	}

	s.invalidate(cache.Key("progress", input.UserID))
	s.invalidate(cache.Key("stats", input.UserID))
	s.enqueue("create", "quizProgress", row)
	return row, nil
}

func (s *Store) GetProgressForUser(userID string) ([]models.QuizProgress, error) {
	key := cache.Key("progress", userID)
	if v := s.cacheGet(key); v != nil {
		return v.([]models.QuizProgress), nil
	}

	var rows []models.QuizProgress
	if err := s.db.Where("user_id = ?", userID).
		Order("completed_at DESC").Find(&rows).Error; err != nil {
		return nil, storageErr(err)
	}
	s.cacheSet(key, rows)
	return rows, nil
}

func (s *Store) GetProgressForModule(userID, moduleID string) ([]models.QuizProgress, error) {
	key := cache.Key("progress", userID, moduleID)
	if v := s.cacheGet(key); v != nil {
		return v.([]models.QuizProgress), nil
	}

	var rows []models.QuizProgress
	if err := s.db.Where("user_id = ? AND module_id = ?", userID, moduleID).
		Order("completed_at DESC").Find(&rows).Error; err != nil {
		return nil, storageErr(err)
	}
	s.cacheSet(key, rows)
	return rows, nil
}

// ---- quiz attempts ----

// AttemptInput is one answered question.
type AttemptInput struct {
	UserID        string `json:"userId"`
	ModuleID      string `json:"moduleId"`
	QuestionID    string `json:"questionId"`
	SelectedIndex int    `json:"selectedIndex"`
	CorrectIndex  int    `json:"correctIndex"`
	TimeSpent     int64  `json:"timeSpent"`
}

func (s *Store) SaveQuizAttempt(input AttemptInput) (*models.QuizAttempt, error) {
	if input.UserID == "" {
		return nil, errors.Wrap(ErrValidation, "userId is required")
	}

	row := &models.QuizAttempt{
		ID:            uuid.NewString(),
		UserID:        input.UserID,
		ModuleID:      input.ModuleID,
		QuestionID:    input.QuestionID,
		SelectedIndex: input.SelectedIndex,
		CorrectIndex:  input.CorrectIndex,
		IsCorrect:     input.SelectedIndex == input.CorrectIndex,
		TimeSpent:     input.TimeSpent,
		CreatedAt:     time.Now(),
	}
	if err := s.db.Create(row).Error; err != nil {
		return nil, storageErr(err)
	}

	s.invalidate(cache.Key("attempts", input.UserID))
	s.enqueue("create", "quizAttempts", row)
	return row, nil
}

func (s *Store) GetAttemptsForUser(userID string) ([]models.QuizAttempt, error) {
	key := cache.Key("attempts", userID)
	if v := s.cacheGet(key); v != nil {
		return v.([]models.QuizAttempt), nil
	}

	var rows []models.QuizAttempt
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, storageErr(err)
	}
	s.cacheSet(key, rows)
	return rows, nil
}

// ---- export / clear ----

// Snapshot is the full backup payload.
type Snapshot struct {
	Profiles []models.UserProfile  `json:"userProfiles"`
	Sessions []models.UserSession  `json:"userSessions"`
	Progress []models.QuizProgress `json:"quizProgress"`
	Attempts []models.QuizAttempt  `json:"quizAttempts"`
}

func (s *Store) ExportAll() (*Snapshot, error) {
	var snap Snapshot
	if err := s.db.Find(&snap.Profiles).Error; err != nil {
		return nil, storageErr(err)
	}
	if err := s.db.Find(&snap.Sessions).Error; err != nil {
		return nil, storageErr(err)
	}
	if err := s.db.Find(&snap.Progress).Error; err != nil {
		return nil, storageErr(err)
	}
	if err := s.db.Find(&snap.Attempts).Error; err != nil {
		return nil, storageErr(err)
	}
	return &snap, nil
}

// ClearAll removes every user-owned row. The achievement catalog survives.
// Destructive: only the explicit reset and import-with-overwrite flows call
// this.
func (s *Store) ClearAll() error {
	for _, m := range []interface{}{
		&models.UserProfile{}, &models.UserSession{}, &models.QuizProgress{},
		&models.QuizAttempt{}, &models.UserAchievement{}, &models.LeaderboardEntry{},
	} {
		if err := s.db.Where("1 = 1").Delete(m).Error; err != nil {
			return storageErr(err)
		}
	}
	if s.cache != nil {
		s.cache.Clear()
	}
	return nil
}

// ImportRecord writes one record with its id preserved, replacing any
// existing row with the same id. Used by the backup import flow. Cached
// reads of the replaced record would be stale, so the whole cache goes.
func (s *Store) ImportRecord(record interface{}) error {
	if err := s.db.Save(record).Error; err != nil {
		return storageErr(err)
	}
	if s.cache != nil {
		s.cache.Clear()
	}
	return nil
}
