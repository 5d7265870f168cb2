package handler

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/storewatch/storewatch/internal/core/ports"
)

// SystemInfo carries the static configuration echoed by the system-status
// endpoint.
type SystemInfo struct {
	LoginInterval   time.Duration
	SoldOutInterval time.Duration
	SalesInterval   time.Duration
	PushMinute      int
	QuietFromHour   int
	QuietUntilHour  int
}

// SystemHandler reports process runtime metrics and monitor configuration.
type SystemHandler struct {
	store   ports.AccountStore
	sup     ports.Supervisor
	info    SystemInfo
	started time.Time
}

func NewSystemHandler(store ports.AccountStore, sup ports.Supervisor, info SystemInfo) *SystemHandler {
	return &SystemHandler{
		store:   store,
		sup:     sup,
		info:    info,
		started: time.Now(),
	}
}

type memoryStats struct {
	HeapAlloc string `json:"heapAlloc"`
	HeapSys   string `json:"heapSys"`
	StackSys  string `json:"stackSys"`
	Sys       string `json:"sys"`
}

type systemStatus struct {
	Memory          memoryStats       `json:"memory"`
	Uptime          string            `json:"uptime"`
	Goroutines      int               `json:"goroutines"`
	ActiveWorkers   int               `json:"activeWorkers"`
	TotalAccounts   int               `json:"totalAccounts"`
	EnabledAccounts int               `json:"enabledAccounts"`
	Intervals       map[string]string `json:"intervals"`
	PushSettings    map[string]string `json:"pushSettings"`
}

type systemStatusResponse struct {
	Success bool         `json:"success"`
	Data    systemStatus `json:"data"`
}

// Status reports memory usage, uptime, worker counts and timer settings.
//
// @Summary      System runtime status
// @Tags         system
// @Produce      json
// @Success      200  {object}  systemStatusResponse
// @Router       /api/system-status [get]
func (h *SystemHandler) Status(c echo.Context) error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	accounts := h.store.List()
	enabled := 0
	for _, acc := range accounts {
		if acc.Enabled {
			enabled++
		}
	}

	return c.JSON(http.StatusOK, systemStatusResponse{
		Success: true,
		Data: systemStatus{
			Memory: memoryStats{
				HeapAlloc: megabytes(m.HeapAlloc),
				HeapSys:   megabytes(m.HeapSys),
				StackSys:  megabytes(m.StackSys),
				Sys:       megabytes(m.Sys),
			},
			Uptime:          time.Since(h.started).Round(time.Second).String(),
			Goroutines:      runtime.NumGoroutine(),
			ActiveWorkers:   h.sup.ActiveWorkers(),
			TotalAccounts:   len(accounts),
			EnabledAccounts: enabled,
			Intervals: map[string]string{
				"login":        h.info.LoginInterval.String(),
				"soldOutCheck": h.info.SoldOutInterval.String(),
				"salesCheck":   h.info.SalesInterval.String(),
			},
			PushSettings: map[string]string{
				"minute":     fmt.Sprintf("%d", h.info.PushMinute),
				"quietHours": fmt.Sprintf("%02d:00-%02d:00", h.info.QuietFromHour, h.info.QuietUntilHour),
			},
		},
	})
}

func megabytes(b uint64) string {
	return fmt.Sprintf("%dMB", b/1024/1024)
}
