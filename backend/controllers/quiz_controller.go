package controllers

import (
	"quizmaster/backend/config"
	"quizmaster/backend/middleware"
	"quizmaster/backend/models"
	"quizmaster/backend/store"
	"quizmaster/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type QuizController struct {
	Store *store.Store
	Cfg   *config.Config
}

func NewQuizController(s *store.Store, cfg *config.Config) *QuizController {
	return &QuizController{Store: s, Cfg: cfg}
}

// SubmitQuizRequest is a completed quiz with its per-question answers.
type SubmitQuizRequest struct {
	ModuleID       string `json:"moduleId"`
	TopicID        string `json:"topicId"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
	CorrectAnswers int    `json:"correctAnswers"`
	TimeSpent      int64  `json:"timeSpent"`
	Answers        []struct {
		QuestionID    string `json:"questionId"`
		SelectedIndex int    `json:"selectedIndex"`
		CorrectIndex  int    `json:"correctIndex"`
		TimeSpent     int64  `json:"timeSpent"`
	} `json:"answers"`
}

// SubmitQuiz godoc
// @Summary Record a completed quiz
// @Description Appends progress and attempt rows, refreshes aggregates,
// @Description checks achievements and upserts the leaderboard entry
// @Tags quiz
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /quiz/submit [post]
func (qc *QuizController) SubmitQuiz(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var req SubmitQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if req.ModuleID == "" {
		return utils.BadRequest(c, "moduleId is required")
	}
	if req.Score < 0 || req.Score > 100 {
		return utils.BadRequest(c, "score must be between 0 and 100")
	}

	progress, err := qc.Store.SaveQuizProgress(store.ProgressInput{
		UserID:         userID,
		ModuleID:       req.ModuleID,
		TopicID:        req.TopicID,
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
		CorrectAnswers: req.CorrectAnswers,
		TimeSpent:      req.TimeSpent,
	})
	if err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}

	for _, a := range req.Answers {
		_, err := qc.Store.SaveQuizAttempt(store.AttemptInput{
			UserID:        userID,
			ModuleID:      req.ModuleID,
			QuestionID:    a.QuestionID,
			SelectedIndex: a.SelectedIndex,
			CorrectIndex:  a.CorrectIndex,
			TimeSpent:     a.TimeSpent,
		})
		if err != nil {
			return utils.ServiceUnavailable(c, "Storage unavailable")
		}
	}

	profile, err := qc.Store.GetUserProfile(userID)
	if err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}
	if profile == nil {
		return utils.NotFound(c, "User not found")
	}

	stats, err := qc.Store.ComputeUserStats(userID)
	if err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}

	totalScore := profile.TotalScore + req.Score
	modules := profile.CompletedModules
	seen := false
	for _, m := range modules {
		if m == req.ModuleID {
			seen = true
			break
		}
	}
	if !seen {
		modules = append(modules, req.ModuleID)
	}
	err = qc.Store.UpdateUserProfile(userID, store.ProfileUpdate{
		TotalScore:       &totalScore,
		CompletedModules: &modules,
		Stats:            stats,
	})
	if err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}

	newAchievements, err := qc.Store.CheckAchievements(userID)
	if err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}

	updated, err := qc.Store.GetUserProfile(userID)
	if err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}
	if err := qc.Store.UpsertLeaderboardEntry(updated); err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}

	if newAchievements == nil {
		newAchievements = []models.Achievement{}
	}
	return utils.Created(c, fiber.Map{
		"progress":        progress,
		"stats":           stats,
		"newAchievements": newAchievements,
	})
}

// GetProgress godoc
// @Summary List quiz progress
// @Description Optionally filtered by module id
// @Tags quiz
// @Produce json
// @Param module query string false "Module id filter"
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /quiz/progress [get]
func (qc *QuizController) GetProgress(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var (
		rows []models.QuizProgress
		err  error
	)
	if moduleID := c.Query("module"); moduleID != "" {
		rows, err = qc.Store.GetProgressForModule(userID, moduleID)
	} else {
		rows, err = qc.Store.GetProgressForUser(userID)
	}
	if err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}
	return utils.Success(c, fiber.StatusOK, rows)
}

// GetAttempts godoc
// @Summary List question attempts
// @Tags quiz
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /quiz/attempts [get]
func (qc *QuizController) GetAttempts(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	rows, err := qc.Store.GetAttemptsForUser(userID)
	if err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}
	return utils.Success(c, fiber.StatusOK, rows)
}
