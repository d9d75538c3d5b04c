package routes

import (
	"quizmaster/backend/config"
	"quizmaster/backend/controllers"
	"quizmaster/backend/maintenance"
	"quizmaster/backend/middleware"
	"quizmaster/backend/store"
	"quizmaster/backend/syncqueue"

	"github.com/gofiber/fiber/v2"
)

// Deps carries everything the HTTP surface needs; there is no ambient global
// state, every service is constructed in main and passed down.
type Deps struct {
	Store       *store.Store
	Sync        *syncqueue.Queue
	Maintenance *maintenance.Service
	Cfg         *config.Config
}

func SetupRoutes(app *fiber.App, d Deps) {
	// Auth routes
	authController := controllers.NewAuthController(d.Store, d.Cfg)
	app.Post("/api/auth/onboard", authController.Onboard)
	app.Post("/api/auth/login", authController.Login)

	// Counter has no auth; it is unrelated to the record store.
	counterController := controllers.NewCounterController(d.Cfg)
	app.Post("/api/visits", counterController.Visit)

	authMiddleware := middleware.AuthMiddleware(d.Cfg)

	// User routes
	userController := controllers.NewUserController(d.Store, d.Cfg)
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)
	app.Put("/api/user/profile", authMiddleware, userController.UpdateProfile)
	app.Get("/api/user/stats", authMiddleware, userController.GetStats)
	app.Delete("/api/user", authMiddleware, userController.Reset)

	// Session routes
	sessionController := controllers.NewSessionController(d.Store, d.Cfg)
	app.Put("/api/session/heartbeat", authMiddleware, sessionController.Heartbeat)
	app.Put("/api/session/preferences", authMiddleware, sessionController.UpdatePreferences)

	// Quiz routes
	quizController := controllers.NewQuizController(d.Store, d.Cfg)
	quiz := app.Group("/api/quiz", authMiddleware)
	quiz.Post("/submit", quizController.SubmitQuiz)
	quiz.Get("/progress", quizController.GetProgress)
	quiz.Get("/attempts", quizController.GetAttempts)

	// Achievements and leaderboard
	achievementController := controllers.NewAchievementController(d.Store, d.Cfg)
	app.Get("/api/achievements", authMiddleware, achievementController.ListCatalog)
	app.Get("/api/achievements/mine", authMiddleware, achievementController.ListUnlocked)
	app.Get("/api/leaderboard", authMiddleware, achievementController.Leaderboard)

	// Backup routes
	backupController := controllers.NewBackupController(d.Store, d.Cfg)
	app.Get("/api/backup/export", authMiddleware, backupController.Export)
	app.Post("/api/backup/import", authMiddleware, backupController.Import)

	// Maintenance dashboard and sync status
	adminController := controllers.NewAdminController(d.Maintenance, d.Sync, d.Cfg)
	app.Post("/api/maintenance/run", authMiddleware, adminController.RunMaintenance)
	app.Get("/api/sync/status", authMiddleware, adminController.SyncStatus)
	app.Post("/api/sync/drain", authMiddleware, adminController.ForceDrain)
}
