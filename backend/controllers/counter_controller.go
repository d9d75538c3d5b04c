package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"quizmaster/backend/config"
	"quizmaster/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// CounterController is the stateless page-view counter. It keeps a small
// JSON file on a remote host: read, increment, write back. It never touches
// the record store.
type CounterController struct {
	Cfg    *config.Config
	Client *http.Client
}

func NewCounterController(cfg *config.Config) *CounterController {
	return &CounterController{
		Cfg:    cfg,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type counterFile struct {
	Count int64 `json:"count"`
}

// Visit godoc
// @Summary Increment and return the page-view counter
// @Description An absent upstream file counts as zero; upstream rate limiting
// @Description (429) or a concurrent-update conflict (409) returns the prior
// @Description count unchanged
// @Tags counter
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /visits [post]
func (cc *CounterController) Visit(c *fiber.Ctx) error {
	if cc.Cfg.CounterUpstreamURL == "" {
		return utils.NotFound(c, "Counter not configured")
	}

	prior, err := cc.read()
	if err != nil {
		return utils.Error(c, fiber.StatusBadGateway, err)
	}

	status, err := cc.write(prior + 1)
	if err != nil {
		return utils.Error(c, fiber.StatusBadGateway, err)
	}
	switch status {
	case http.StatusTooManyRequests, http.StatusConflict:
		// Someone else won the update, or we are throttled. The prior count
		// is still a truthful answer.
		return utils.Success(c, fiber.StatusOK, fiber.Map{"count": prior})
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"count": prior + 1})
}

func (cc *CounterController) read() (int64, error) {
	req, err := http.NewRequest(http.MethodGet, cc.Cfg.CounterUpstreamURL, nil)
	if err != nil {
		return 0, err
	}
	cc.authorize(req)

	resp, err := cc.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// A missing file means the counter has never been written.
	if resp.StatusCode == http.StatusNotFound {
		return 0, nil
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fiber.NewError(fiber.StatusBadGateway, "upstream read failed")
	}

	var file counterFile
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return 0, nil
	}
	return file.Count, nil
}

func (cc *CounterController) write(count int64) (int, error) {
	body, _ := json.Marshal(counterFile{Count: count})
	req, err := http.NewRequest(http.MethodPut, cc.Cfg.CounterUpstreamURL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	cc.authorize(req)

	resp, err := cc.Client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent,
		http.StatusTooManyRequests, http.StatusConflict:
		return resp.StatusCode, nil
	}
	return resp.StatusCode, fiber.NewError(fiber.StatusBadGateway, "upstream write failed")
}

func (cc *CounterController) authorize(req *http.Request) {
	if cc.Cfg.CounterToken != "" {
		req.Header.Set("Authorization", "Bearer "+cc.Cfg.CounterToken)
	}
}
