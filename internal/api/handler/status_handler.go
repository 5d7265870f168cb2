package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storewatch/storewatch/internal/core/domain"
	"github.com/storewatch/storewatch/internal/core/ports"
)

// StatusHandler exposes the shared status board to the dashboard.
type StatusHandler struct {
	board ports.StatusBoard
	store ports.AccountStore
}

func NewStatusHandler(board ports.StatusBoard, store ports.AccountStore) *StatusHandler {
	return &StatusHandler{board: board, store: store}
}

// ListAll returns the full status map, filtered to accounts that still exist.
// The filter is defensive only: the supervisor removes entries synchronously
// on disable and delete.
//
// @Summary      All account statuses
// @Tags         status
// @Produce      json
// @Success      200  {object}  map[int]domain.AccountStatus
// @Router       /api/accounts-status [get]
func (h *StatusHandler) ListAll(c echo.Context) error {
	valid := make(map[int]struct{})
	for _, acc := range h.store.List() {
		valid[acc.ID] = struct{}{}
	}

	out := make(map[int]domain.AccountStatus)
	for id, st := range h.board.Snapshot() {
		if _, ok := valid[id]; ok {
			out[id] = st
		}
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one account's status or 404.
//
// @Summary      One account's status
// @Tags         status
// @Produce      json
// @Param        id  path  int  true  "Account id"
// @Success      200  {object}  domain.AccountStatus
// @Failure      404  {object}  map[string]any
// @Router       /api/account-status/{id} [get]
func (h *StatusHandler) Get(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	st, ok := h.board.Get(id)
	if !ok {
		return domain.ErrStatusNotFound
	}
	return c.JSON(http.StatusOK, st)
}

type soldOutEntry struct {
	AccountID int    `json:"accountId"`
	Account   string `json:"account"`
	domain.SoldOutStatus
}

type soldOutResponse struct {
	Success bool           `json:"success"`
	Total   int            `json:"total"`
	Data    []soldOutEntry `json:"data"`
}

// ListSoldOut aggregates every current sellout detection across accounts.
//
// @Summary      All current sellout detections
// @Tags         status
// @Produce      json
// @Success      200  {object}  soldOutResponse
// @Router       /api/all-soldout [get]
func (h *StatusHandler) ListSoldOut(c echo.Context) error {
	entries := make([]soldOutEntry, 0)
	for id, st := range h.board.Snapshot() {
		if st.SoldOut.GoodsID == "" {
			continue
		}
		entries = append(entries, soldOutEntry{
			AccountID:     id,
			Account:       st.Login.Account,
			SoldOutStatus: st.SoldOut,
		})
	}
	return c.JSON(http.StatusOK, soldOutResponse{
		Success: true,
		Total:   len(entries),
		Data:    entries,
	})
}
