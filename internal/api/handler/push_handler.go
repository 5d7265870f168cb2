package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/storewatch/storewatch/internal/core/domain"
)

// SalesPusher is the slice of the push scheduler the control surface needs.
type SalesPusher interface {
	Push(ctx context.Context) error
	IsDue(t time.Time) bool
	NextDue(t time.Time) time.Time
	InQuietHours(t time.Time) bool
	DueMinute() int
}

// PushHandler exposes the manual push trigger and the predicate diagnostics.
type PushHandler struct {
	pusher SalesPusher
	log    zerolog.Logger
}

func NewPushHandler(pusher SalesPusher, log zerolog.Logger) *PushHandler {
	return &PushHandler{pusher: pusher, log: log}
}

type pushResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Push triggers an immediate sales push. Delivery failure is logged and
// reported only as the boolean success flag.
//
// @Summary      Push the sales summary now
// @Tags         push
// @Produce      json
// @Success      200  {object}  pushResult
// @Router       /api/push-sales [post]
func (h *PushHandler) Push(c echo.Context) error {
	err := h.pusher.Push(c.Request().Context())
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, pushResult{Success: true, Message: "sales summary pushed"})
	case errors.Is(err, domain.ErrNoSalesData):
		return c.JSON(http.StatusOK, pushResult{Success: true, Message: "no sales data to push"})
	default:
		h.log.Error().Err(err).Msg("manual sales push failed")
		return c.JSON(http.StatusOK, pushResult{Success: false, Message: "push delivery failed"})
	}
}

type pushTimeCheck struct {
	CurrentTime     string `json:"currentTime"`
	Hour            int    `json:"hour"`
	Minute          int    `json:"minute"`
	ShouldPush      bool   `json:"shouldPush"`
	IsQuietHours    bool   `json:"isQuietHours"`
	IsCorrectMinute bool   `json:"isCorrectMinute"`
	NextPushTime    string `json:"nextPushTime"`
}

type pushTimeCheckResponse struct {
	Success bool          `json:"success"`
	Data    pushTimeCheck `json:"data"`
}

// TimeCheck evaluates the push predicate for the current wall-clock time.
//
// @Summary      Push schedule diagnostics
// @Tags         push
// @Produce      json
// @Success      200  {object}  pushTimeCheckResponse
// @Router       /api/push-time-check [get]
func (h *PushHandler) TimeCheck(c echo.Context) error {
	now := time.Now()

	return c.JSON(http.StatusOK, pushTimeCheckResponse{
		Success: true,
		Data: pushTimeCheck{
			CurrentTime:     now.Format("2006-01-02 15:04:05"),
			Hour:            now.Hour(),
			Minute:          now.Minute(),
			ShouldPush:      h.pusher.IsDue(now),
			IsQuietHours:    h.pusher.InQuietHours(now),
			IsCorrectMinute: now.Minute() == h.pusher.DueMinute(),
			NextPushTime:    h.pusher.NextDue(now).Format("2006-01-02 15:04:05"),
		},
	})
}
