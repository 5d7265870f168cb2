package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/storewatch/storewatch/internal/core/domain"
	"github.com/storewatch/storewatch/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubStore struct {
	accounts  []domain.Account
	createErr error
	updateErr error
	deleteErr error

	created []string
	deleted []int
}

func (s *stubStore) List() []domain.Account { return s.accounts }

func (s *stubStore) Get(id int) (domain.Account, error) {
	for _, acc := range s.accounts {
		if acc.ID == id {
			return acc, nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

func (s *stubStore) Create(login, password string) (domain.Account, error) {
	if s.createErr != nil {
		return domain.Account{}, s.createErr
	}
	s.created = append(s.created, login)
	acc := domain.Account{ID: len(s.accounts) + 1, Login: login, Password: password, Enabled: true}
	s.accounts = append(s.accounts, acc)
	return acc, nil
}

func (s *stubStore) Update(id int, upd ports.AccountUpdate) (domain.Account, error) {
	if s.updateErr != nil {
		return domain.Account{}, s.updateErr
	}
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			if upd.Enabled != nil {
				s.accounts[i].Enabled = *upd.Enabled
			}
			if upd.Password != nil {
				s.accounts[i].Password = *upd.Password
			}
			return s.accounts[i], nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

func (s *stubStore) Delete(id int) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	for i, acc := range s.accounts {
		if acc.ID == id {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			return nil
		}
	}
	return domain.ErrAccountNotFound
}

func (s *stubStore) Touch(int, time.Time) {}

type stubSupervisor struct {
	running map[int]bool

	ensured    []int
	stopped    []int
	restarted  []domain.Account
	triggered  []int
	triggerErr error
}

func (s *stubSupervisor) ReconcileAll() {}

func (s *stubSupervisor) EnsureWorker(acc domain.Account) { s.ensured = append(s.ensured, acc.ID) }

func (s *stubSupervisor) StopWorker(id int) { s.stopped = append(s.stopped, id) }

func (s *stubSupervisor) RestartWorker(acc domain.Account) { s.restarted = append(s.restarted, acc) }

func (s *stubSupervisor) TriggerLogin(id int) error {
	if s.triggerErr != nil {
		return s.triggerErr
	}
	s.triggered = append(s.triggered, id)
	return nil
}

func (s *stubSupervisor) Running(id int) bool { return s.running[id] }

func (s *stubSupervisor) ActiveWorkers() int { return len(s.running) }

func (s *stubSupervisor) SweepOrphans() int { return 0 }

func (s *stubSupervisor) Shutdown() {}

func newTestContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withParamID(c echo.Context, id string) {
	c.SetParamNames("id")
	c.SetParamValues(id)
}

// ---------------------------------------------------------------------------
// List / Create
// ---------------------------------------------------------------------------

func TestAccountHandler_ListRedactsPasswords(t *testing.T) {
	store := &stubStore{accounts: []domain.Account{
		{ID: 1, Login: "shop-a", Password: "secret", Enabled: true},
	}}
	h := NewAccountHandler(store, &stubSupervisor{})

	c, rec := newTestContext(t, http.MethodGet, "/api/accounts", "")
	if err := h.List(c); err != nil {
		t.Fatal(err)
	}

	if strings.Contains(rec.Body.String(), "secret") {
		t.Error("password leaked into the listing")
	}
	var out []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0]["account"] != "shop-a" {
		t.Errorf("unexpected listing: %s", rec.Body.String())
	}
	if _, ok := out[0]["pwd"]; ok {
		t.Error("pwd field present in the listing")
	}
}

func TestAccountHandler_CreateStartsWorker(t *testing.T) {
	store := &stubStore{}
	sup := &stubSupervisor{}
	h := NewAccountHandler(store, sup)

	c, rec := newTestContext(t, http.MethodPost, "/api/accounts", `{"account":"shop-a","pwd":"pw"}`)
	if err := h.Create(c); err != nil {
		t.Fatal(err)
	}

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if len(sup.ensured) != 1 || sup.ensured[0] != 1 {
		t.Errorf("worker not started: %v", sup.ensured)
	}
}

func TestAccountHandler_CreateValidation(t *testing.T) {
	h := NewAccountHandler(&stubStore{}, &stubSupervisor{})

	for _, body := range []string{`{}`, `{"account":"shop-a"}`, `{"pwd":"pw"}`} {
		c, _ := newTestContext(t, http.MethodPost, "/api/accounts", body)
		err := h.Create(c)
		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
			t.Errorf("body %s: got %v, want 400", body, err)
		}
	}
}

func TestAccountHandler_CreateDuplicate(t *testing.T) {
	store := &stubStore{createErr: domain.ErrAccountExists}
	sup := &stubSupervisor{}
	h := NewAccountHandler(store, sup)

	c, _ := newTestContext(t, http.MethodPost, "/api/accounts", `{"account":"shop-a","pwd":"pw"}`)
	if err := h.Create(c); !errors.Is(err, domain.ErrAccountExists) {
		t.Errorf("got %v, want ErrAccountExists", err)
	}
	if len(sup.ensured) != 0 {
		t.Error("no worker may start for a rejected create")
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestAccountHandler_UpdateDisableStopsWorker(t *testing.T) {
	store := &stubStore{accounts: []domain.Account{
		{ID: 1, Login: "shop-a", Password: "pw", Enabled: true},
	}}
	sup := &stubSupervisor{running: map[int]bool{1: true}}
	h := NewAccountHandler(store, sup)

	c, rec := newTestContext(t, http.MethodPut, "/api/accounts/1", `{"enabled":false}`)
	withParamID(c, "1")
	if err := h.Update(c); err != nil {
		t.Fatal(err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if len(sup.stopped) != 1 || sup.stopped[0] != 1 {
		t.Errorf("worker not stopped: %v", sup.stopped)
	}
	if len(sup.restarted) != 0 {
		t.Error("disable must not restart")
	}
}

func TestAccountHandler_UpdatePasswordRestartsRunningWorker(t *testing.T) {
	store := &stubStore{accounts: []domain.Account{
		{ID: 1, Login: "shop-a", Password: "pw", Enabled: true},
	}}
	sup := &stubSupervisor{running: map[int]bool{1: true}}
	h := NewAccountHandler(store, sup)

	c, _ := newTestContext(t, http.MethodPut, "/api/accounts/1", `{"pwd":"rotated"}`)
	withParamID(c, "1")
	if err := h.Update(c); err != nil {
		t.Fatal(err)
	}

	if len(sup.restarted) != 1 || sup.restarted[0].Password != "rotated" {
		t.Errorf("restart with fresh credentials expected: %+v", sup.restarted)
	}
}

func TestAccountHandler_UpdatePasswordOnStoppedWorker(t *testing.T) {
	store := &stubStore{accounts: []domain.Account{
		{ID: 1, Login: "shop-a", Password: "pw", Enabled: false},
	}}
	sup := &stubSupervisor{running: map[int]bool{}}
	h := NewAccountHandler(store, sup)

	c, _ := newTestContext(t, http.MethodPut, "/api/accounts/1", `{"pwd":"rotated"}`)
	withParamID(c, "1")
	if err := h.Update(c); err != nil {
		t.Fatal(err)
	}

	if len(sup.restarted) != 0 {
		t.Error("a stopped worker must not be restarted by a password change")
	}
}

func TestAccountHandler_UpdateUnknown(t *testing.T) {
	h := NewAccountHandler(&stubStore{}, &stubSupervisor{})

	c, _ := newTestContext(t, http.MethodPut, "/api/accounts/9", `{"enabled":true}`)
	withParamID(c, "9")
	if err := h.Update(c); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("got %v, want ErrAccountNotFound", err)
	}
}

func TestAccountHandler_BadID(t *testing.T) {
	h := NewAccountHandler(&stubStore{}, &stubSupervisor{})

	c, _ := newTestContext(t, http.MethodPut, "/api/accounts/abc", `{}`)
	withParamID(c, "abc")
	err := h.Update(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Errorf("got %v, want 400", err)
	}
}

// ---------------------------------------------------------------------------
// Delete / TriggerLogin
// ---------------------------------------------------------------------------

func TestAccountHandler_DeleteStopsWorkerFirst(t *testing.T) {
	store := &stubStore{accounts: []domain.Account{
		{ID: 1, Login: "shop-a", Password: "pw", Enabled: true},
	}}
	sup := &stubSupervisor{running: map[int]bool{1: true}}
	h := NewAccountHandler(store, sup)

	c, rec := newTestContext(t, http.MethodDelete, "/api/accounts/1", "")
	withParamID(c, "1")
	if err := h.Delete(c); err != nil {
		t.Fatal(err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if len(sup.stopped) != 1 {
		t.Error("worker not stopped on delete")
	}
	if len(store.deleted) != 1 {
		t.Error("record not deleted")
	}
}

func TestAccountHandler_DeleteUnknownHasNoSideEffects(t *testing.T) {
	sup := &stubSupervisor{}
	h := NewAccountHandler(&stubStore{}, sup)

	c, _ := newTestContext(t, http.MethodDelete, "/api/accounts/9", "")
	withParamID(c, "9")
	if err := h.Delete(c); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("got %v, want ErrAccountNotFound", err)
	}
	if len(sup.stopped) != 0 {
		t.Error("unknown id must not stop anything")
	}
}

func TestAccountHandler_TriggerLogin(t *testing.T) {
	sup := &stubSupervisor{}
	h := NewAccountHandler(&stubStore{}, sup)

	c, rec := newTestContext(t, http.MethodPost, "/api/login/3", "")
	withParamID(c, "3")
	if err := h.TriggerLogin(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || len(sup.triggered) != 1 || sup.triggered[0] != 3 {
		t.Errorf("trigger not forwarded: %v", sup.triggered)
	}
}

func TestAccountHandler_TriggerLoginNotRunning(t *testing.T) {
	sup := &stubSupervisor{triggerErr: domain.ErrWorkerNotRunning}
	h := NewAccountHandler(&stubStore{}, sup)

	c, _ := newTestContext(t, http.MethodPost, "/api/login/3", "")
	withParamID(c, "3")
	if err := h.TriggerLogin(c); !errors.Is(err, domain.ErrWorkerNotRunning) {
		t.Errorf("got %v, want ErrWorkerNotRunning", err)
	}
}
