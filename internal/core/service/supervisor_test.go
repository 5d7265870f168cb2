package service

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/storewatch/storewatch/internal/core/domain"
	"github.com/storewatch/storewatch/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type memStore struct {
	mu       sync.Mutex
	accounts map[int]domain.Account
}

func newMemStore(accounts ...domain.Account) *memStore {
	s := &memStore{accounts: make(map[int]domain.Account)}
	for _, acc := range accounts {
		s.accounts[acc.ID] = acc
	}
	return s
}

func (s *memStore) List() []domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, acc)
	}
	return out
}

func (s *memStore) Get(id int) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return acc, nil
}

func (s *memStore) Create(login, password string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := len(s.accounts) + 1
	acc := domain.Account{ID: id, Login: login, Password: password, Enabled: true}
	s.accounts[id] = acc
	return acc, nil
}

func (s *memStore) Update(id int, upd ports.AccountUpdate) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if upd.Enabled != nil {
		acc.Enabled = *upd.Enabled
	}
	if upd.Password != nil {
		acc.Password = *upd.Password
	}
	s.accounts[id] = acc
	return acc, nil
}

func (s *memStore) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return domain.ErrAccountNotFound
	}
	delete(s.accounts, id)
	return nil
}

func (s *memStore) Touch(id int, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.accounts[id]; ok {
		acc.LastUsed = &t
		s.accounts[id] = acc
	}
}

func (s *memStore) set(acc domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[acc.ID] = acc
}

func slowWorkerConfig() WorkerConfig {
	// Long intervals keep timers quiet during supervisor tests.
	return WorkerConfig{
		LoginInterval:   time.Hour,
		SoldOutInterval: time.Hour,
		SalesInterval:   time.Hour,
		Tick:            time.Millisecond,
	}
}

// ---------------------------------------------------------------------------
// Reconcile and lifecycle
// ---------------------------------------------------------------------------

func TestSupervisor_ReconcileAllStartsEnabledOnly(t *testing.T) {
	store := newMemStore(
		domain.Account{ID: 1, Login: "a", Password: "p", Enabled: true},
		domain.Account{ID: 2, Login: "b", Password: "p", Enabled: false},
		domain.Account{ID: 3, Login: "c", Password: "p", Enabled: true},
	)
	board := NewStatusBoard()
	sup := NewSupervisor(store, &stubUpstream{}, board, slowWorkerConfig(), time.Second, zerolog.Nop())
	defer sup.Shutdown()

	sup.ReconcileAll()

	if got := sup.ActiveWorkers(); got != 2 {
		t.Fatalf("expected 2 workers, got %d", got)
	}
	if !sup.Running(1) || !sup.Running(3) || sup.Running(2) {
		t.Error("wrong set of running workers")
	}
	if _, ok := board.Get(2); ok {
		t.Error("disabled account must have no status entry")
	}
	if _, ok := board.Get(1); !ok {
		t.Error("enabled account must have a status entry immediately")
	}
}

func TestSupervisor_EnsureWorkerIsIdempotent(t *testing.T) {
	store := newMemStore(domain.Account{ID: 1, Login: "a", Password: "p", Enabled: true})
	sup := NewSupervisor(store, &stubUpstream{}, NewStatusBoard(), slowWorkerConfig(), time.Second, zerolog.Nop())
	defer sup.Shutdown()

	acc, _ := store.Get(1)
	sup.EnsureWorker(acc)
	sup.EnsureWorker(acc)

	if got := sup.ActiveWorkers(); got != 1 {
		t.Fatalf("expected 1 worker, got %d", got)
	}
}

func TestSupervisor_StopRemovesStatusImmediately(t *testing.T) {
	store := newMemStore(domain.Account{ID: 1, Login: "a", Password: "p", Enabled: true})
	board := NewStatusBoard()
	sup := NewSupervisor(store, &stubUpstream{}, board, slowWorkerConfig(), time.Second, zerolog.Nop())
	defer sup.Shutdown()

	acc, _ := store.Get(1)
	sup.EnsureWorker(acc)
	sup.StopWorker(1)

	if sup.Running(1) {
		t.Error("worker still registered after stop")
	}
	if _, ok := board.Get(1); ok {
		t.Error("status entry must be gone the moment StopWorker returns")
	}
}

func TestSupervisor_TriggerLoginRequiresRunningWorker(t *testing.T) {
	store := newMemStore(domain.Account{ID: 1, Login: "a", Password: "p", Enabled: true})
	client := &stubUpstream{}
	sup := NewSupervisor(store, client, NewStatusBoard(), slowWorkerConfig(), time.Second, zerolog.Nop())
	defer sup.Shutdown()

	if err := sup.TriggerLogin(1); err != domain.ErrWorkerNotRunning {
		t.Fatalf("expected ErrWorkerNotRunning, got: %v", err)
	}

	acc, _ := store.Get(1)
	sup.EnsureWorker(acc)
	waitFor(t, time.Second, func() bool {
		login, _, _, _ := client.calls()
		return login == 1
	}, "startup login")

	if err := sup.TriggerLogin(1); err != nil {
		t.Fatalf("expected trigger to succeed, got: %v", err)
	}
	waitFor(t, time.Second, func() bool {
		login, _, _, _ := client.calls()
		return login == 2
	}, "triggered login")
}

// ---------------------------------------------------------------------------
// Crash handling
// ---------------------------------------------------------------------------

func TestSupervisor_CrashRestartsOnceAfterBackoff(t *testing.T) {
	store := newMemStore(domain.Account{ID: 1, Login: "a", Password: "p", Enabled: true})
	client := &stubUpstream{}
	client.loginFn = func(login, password string) (ports.LoginResult, error) {
		client.mu.Lock()
		first := client.loginCalls == 1
		client.mu.Unlock()
		if first {
			panic("session state corrupted")
		}
		return ports.LoginResult{Success: true, Message: "success", Token: "tok"}, nil
	}

	sup := NewSupervisor(store, client, NewStatusBoard(), slowWorkerConfig(), 10*time.Millisecond, zerolog.Nop())
	defer sup.Shutdown()

	acc, _ := store.Get(1)
	sup.EnsureWorker(acc)

	// Crash tears the worker down, then a single restart brings it back.
	waitFor(t, time.Second, func() bool {
		login, _, _, _ := client.calls()
		return login >= 2 && sup.Running(1)
	}, "restart after crash")

	// No further restarts once the replacement is healthy.
	time.Sleep(50 * time.Millisecond)
	login, _, _, _ := client.calls()
	if login != 2 {
		t.Fatalf("expected exactly 2 login attempts (crash + restart), got %d", login)
	}
	if got := sup.ActiveWorkers(); got != 1 {
		t.Fatalf("expected 1 worker, got %d", got)
	}
}

func TestSupervisor_IntentionalStopIsNotRestarted(t *testing.T) {
	store := newMemStore(domain.Account{ID: 1, Login: "a", Password: "p", Enabled: true})
	client := &stubUpstream{}
	sup := NewSupervisor(store, client, NewStatusBoard(), slowWorkerConfig(), 10*time.Millisecond, zerolog.Nop())
	defer sup.Shutdown()

	acc, _ := store.Get(1)
	sup.EnsureWorker(acc)
	waitFor(t, time.Second, func() bool {
		login, _, _, _ := client.calls()
		return login == 1
	}, "startup login")

	sup.StopWorker(1)
	time.Sleep(50 * time.Millisecond)

	if sup.Running(1) {
		t.Error("stopped worker came back")
	}
	login, _, _, _ := client.calls()
	if login != 1 {
		t.Errorf("expected no further login attempts after stop, got %d", login)
	}
}

func TestSupervisor_NoRestartWhenAccountDisabledMeanwhile(t *testing.T) {
	store := newMemStore(domain.Account{ID: 1, Login: "a", Password: "p", Enabled: true})
	client := &stubUpstream{}
	client.loginFn = func(_, _ string) (ports.LoginResult, error) {
		panic("session state corrupted")
	}
	board := NewStatusBoard()
	sup := NewSupervisor(store, client, board, slowWorkerConfig(), 20*time.Millisecond, zerolog.Nop())
	defer sup.Shutdown()

	acc, _ := store.Get(1)
	sup.EnsureWorker(acc)
	waitFor(t, time.Second, func() bool { return !sup.Running(1) }, "crash teardown")

	// Disable inside the backoff window; the pending restart must observe it.
	store.set(domain.Account{ID: 1, Login: "a", Password: "p", Enabled: false})
	time.Sleep(80 * time.Millisecond)

	if sup.Running(1) {
		t.Error("restart ignored the disabled flag")
	}
	if _, ok := board.Get(1); ok {
		t.Error("declined restart left the status entry behind")
	}
}

func TestSupervisor_StopAfterCrashRemovesStatus(t *testing.T) {
	store := newMemStore(domain.Account{ID: 1, Login: "a", Password: "p", Enabled: true})
	client := &stubUpstream{}
	client.loginFn = func(_, _ string) (ports.LoginResult, error) {
		panic("session state corrupted")
	}
	board := NewStatusBoard()
	sup := NewSupervisor(store, client, board, slowWorkerConfig(), 50*time.Millisecond, zerolog.Nop())
	defer sup.Shutdown()

	acc, _ := store.Get(1)
	sup.EnsureWorker(acc)
	waitFor(t, time.Second, func() bool { return !sup.Running(1) }, "crash teardown")

	// An ordered stop inside the backoff window finds no registered worker,
	// but the status entry must still vanish at once.
	store.set(domain.Account{ID: 1, Login: "a", Password: "p", Enabled: false})
	sup.StopWorker(1)

	if _, ok := board.Get(1); ok {
		t.Fatal("status entry survived a stop issued during the restart backoff")
	}

	time.Sleep(120 * time.Millisecond)
	if sup.Running(1) {
		t.Error("restart ignored the disabled flag")
	}
	if _, ok := board.Get(1); ok {
		t.Error("status entry came back after the backoff expired")
	}
}

func TestSupervisor_NoRestartWhenAccountDeletedMeanwhile(t *testing.T) {
	store := newMemStore(domain.Account{ID: 1, Login: "a", Password: "p", Enabled: true})
	client := &stubUpstream{}
	client.loginFn = func(_, _ string) (ports.LoginResult, error) {
		panic("session state corrupted")
	}
	board := NewStatusBoard()
	sup := NewSupervisor(store, client, board, slowWorkerConfig(), 20*time.Millisecond, zerolog.Nop())
	defer sup.Shutdown()

	acc, _ := store.Get(1)
	sup.EnsureWorker(acc)
	waitFor(t, time.Second, func() bool { return !sup.Running(1) }, "crash teardown")

	if err := store.Delete(1); err != nil {
		t.Fatal(err)
	}
	time.Sleep(80 * time.Millisecond)

	if sup.Running(1) {
		t.Error("restart resurrected a deleted account")
	}
	if _, ok := board.Get(1); ok {
		t.Error("deleted account's status entry survived the declined restart")
	}
}

// ---------------------------------------------------------------------------
// Credential rotation and sweeping
// ---------------------------------------------------------------------------

func TestSupervisor_RestartWorkerPicksUpNewPassword(t *testing.T) {
	store := newMemStore(domain.Account{ID: 1, Login: "a", Password: "old", Enabled: true})
	client := &stubUpstream{}
	sup := NewSupervisor(store, client, NewStatusBoard(), slowWorkerConfig(), time.Second, zerolog.Nop())
	defer sup.Shutdown()

	acc, _ := store.Get(1)
	sup.EnsureWorker(acc)
	waitFor(t, time.Second, func() bool {
		login, _, _, _ := client.calls()
		return login >= 1
	}, "initial login")

	rotated, _ := store.Update(1, ports.AccountUpdate{Password: strPtr("new")})
	sup.RestartWorker(rotated)

	waitFor(t, time.Second, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return client.lastPassword == "new"
	}, "login with rotated password")

	if got := sup.ActiveWorkers(); got != 1 {
		t.Fatalf("expected 1 worker after restart, got %d", got)
	}
}

func TestSupervisor_SweepOrphansDropsDeletedAccounts(t *testing.T) {
	store := newMemStore(domain.Account{ID: 1, Login: "a", Password: "p", Enabled: true})
	board := NewStatusBoard()
	sup := NewSupervisor(store, &stubUpstream{}, board, slowWorkerConfig(), time.Second, zerolog.Nop())
	defer sup.Shutdown()

	acc, _ := store.Get(1)
	sup.EnsureWorker(acc)
	// A stale entry left behind by some earlier failure mode.
	board.Init(99, domain.NewAccountStatus("ghost", 900, 10))

	if removed := sup.SweepOrphans(); removed != 1 {
		t.Fatalf("expected 1 orphan removed, got %d", removed)
	}
	if _, ok := board.Get(99); ok {
		t.Error("orphan entry survived the sweep")
	}
	if _, ok := board.Get(1); !ok {
		t.Error("live entry must survive the sweep")
	}
}

func TestSupervisor_TouchRecordsLastUsed(t *testing.T) {
	store := newMemStore(domain.Account{ID: 1, Login: "a", Password: "p", Enabled: true})
	client := &stubUpstream{}
	sup := NewSupervisor(store, client, NewStatusBoard(), slowWorkerConfig(), time.Second, zerolog.Nop())
	defer sup.Shutdown()

	acc, _ := store.Get(1)
	sup.EnsureWorker(acc)

	waitFor(t, time.Second, func() bool {
		cur, _ := store.Get(1)
		return cur.LastUsed != nil
	}, "lastUsed stamp after successful login")
}

func strPtr(s string) *string { return &s }
