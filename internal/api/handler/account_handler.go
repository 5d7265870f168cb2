package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/storewatch/storewatch/internal/core/domain"
	"github.com/storewatch/storewatch/internal/core/ports"
)

// AccountHandler translates account CRUD verbs into Account Store and
// Supervisor operations. The supervisor keeps workers reconciled with every
// mutation made here.
type AccountHandler struct {
	store ports.AccountStore
	sup   ports.Supervisor
}

func NewAccountHandler(store ports.AccountStore, sup ports.Supervisor) *AccountHandler {
	return &AccountHandler{store: store, sup: sup}
}

type createAccountRequest struct {
	Account  string `json:"account" validate:"required"`
	Password string `json:"pwd"     validate:"required"`
}

type updateAccountRequest struct {
	Enabled  *bool   `json:"enabled"`
	Password *string `json:"pwd"`
}

// accountResponse is an Account with the password redacted.
type accountResponse struct {
	ID       int        `json:"id"`
	Account  string     `json:"account"`
	Enabled  bool       `json:"enabled"`
	LastUsed *time.Time `json:"lastUsed"`
}

type accountEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Account accountResponse `json:"account"`
}

func toAccountResponse(acc domain.Account) accountResponse {
	return accountResponse{
		ID:       acc.ID,
		Account:  acc.Login,
		Enabled:  acc.Enabled,
		LastUsed: acc.LastUsed,
	}
}

// List returns every account, passwords redacted.
//
// @Summary      List accounts
// @Tags         accounts
// @Produce      json
// @Success      200  {array}  accountResponse
// @Router       /api/accounts [get]
func (h *AccountHandler) List(c echo.Context) error {
	accounts := h.store.List()
	out := make([]accountResponse, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, toAccountResponse(acc))
	}
	return c.JSON(http.StatusOK, out)
}

// Create adds an account and starts its worker.
//
// @Summary      Add an account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body      createAccountRequest  true  "Upstream credentials"
// @Success      201   {object}  accountEnvelope
// @Failure      400   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Router       /api/accounts [post]
func (h *AccountHandler) Create(c echo.Context) error {
	var req createAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	acc, err := h.store.Create(req.Account, req.Password)
	if err != nil {
		return err
	}
	if acc.Enabled {
		h.sup.EnsureWorker(acc)
	}

	return c.JSON(http.StatusCreated, accountEnvelope{
		Success: true,
		Message: "account added",
		Account: toAccountResponse(acc),
	})
}

// Update mutates enabled and/or password, reconciling the worker: enabling
// starts one, disabling stops it, and a password change on a running worker
// forces a restart with fresh credentials.
//
// @Summary      Update an account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        id    path      int                   true  "Account id"
// @Param        body  body      updateAccountRequest  true  "Fields to change"
// @Success      200   {object}  accountEnvelope
// @Failure      404   {object}  map[string]any
// @Router       /api/accounts/{id} [put]
func (h *AccountHandler) Update(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}

	var req updateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	acc, err := h.store.Update(id, ports.AccountUpdate{Enabled: req.Enabled, Password: req.Password})
	if err != nil {
		return err
	}

	if req.Enabled != nil {
		if acc.Enabled {
			h.sup.EnsureWorker(acc)
		} else {
			h.sup.StopWorker(id)
		}
	}
	if req.Password != nil && acc.Enabled && h.sup.Running(id) {
		h.sup.RestartWorker(acc)
	}

	return c.JSON(http.StatusOK, accountEnvelope{
		Success: true,
		Message: "account updated",
		Account: toAccountResponse(acc),
	})
}

// Delete removes the record, terminates the worker, and drops its status.
//
// @Summary      Delete an account
// @Tags         accounts
// @Produce      json
// @Param        id  path  int  true  "Account id"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /api/accounts/{id} [delete]
func (h *AccountHandler) Delete(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}

	// Existence check first so an unknown id has no side effects.
	if _, err := h.store.Get(id); err != nil {
		return err
	}

	h.sup.StopWorker(id)
	if err := h.store.Delete(id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "account deleted",
	})
}

// TriggerLogin asks a running worker to log in immediately.
//
// @Summary      Trigger a manual login
// @Tags         accounts
// @Produce      json
// @Param        id  path  int  true  "Account id"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /api/login/{id} [post]
func (h *AccountHandler) TriggerLogin(c echo.Context) error {
	id, err := accountID(c)
	if err != nil {
		return err
	}
	if err := h.sup.TriggerLogin(id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "login triggered",
	})
}

func accountID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid account id")
	}
	return id, nil
}
