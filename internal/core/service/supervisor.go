package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/storewatch/storewatch/internal/api/metrics"
	"github.com/storewatch/storewatch/internal/core/domain"
	"github.com/storewatch/storewatch/internal/core/ports"
)

const defaultRestartBackoff = 5 * time.Second

// workerHandle pairs a worker with its cancellation. intentional is set under
// the supervisor lock before cancel so the exit path can tell an ordered stop
// from a crash.
type workerHandle struct {
	w           *worker
	cancel      context.CancelFunc
	intentional bool
}

// supervisorService keeps exactly one running worker per enabled account. It
// is the only writer of the workers map; status board entries are created and
// removed in lockstep with it.
type supervisorService struct {
	store          ports.AccountStore
	client         ports.UpstreamClient
	board          ports.StatusBoard
	cfg            WorkerConfig
	restartBackoff time.Duration
	log            zerolog.Logger

	mu      sync.Mutex
	workers map[int]*workerHandle
}

// NewSupervisor returns a Supervisor managing workers built from cfg.
// restartBackoff <= 0 falls back to the 5-second default.
func NewSupervisor(store ports.AccountStore, client ports.UpstreamClient, board ports.StatusBoard, cfg WorkerConfig, restartBackoff time.Duration, log zerolog.Logger) ports.Supervisor {
	if restartBackoff <= 0 {
		restartBackoff = defaultRestartBackoff
	}
	return &supervisorService{
		store:          store,
		client:         client,
		board:          board,
		cfg:            cfg,
		restartBackoff: restartBackoff,
		log:            log,
		workers:        make(map[int]*workerHandle),
	}
}

func (s *supervisorService) ReconcileAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, h := range s.workers {
		h.intentional = true
		h.cancel()
		delete(s.workers, id)
	}
	s.board.RemoveAll()

	started := 0
	for _, acc := range s.store.List() {
		if acc.Enabled {
			s.startWorkerLocked(acc)
			started++
		}
	}
	metrics.WorkersActive.Set(float64(len(s.workers)))
	s.log.Info().Int("workers", started).Msg("reconciled workers to enabled accounts")
}

func (s *supervisorService) EnsureWorker(acc domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workers[acc.ID]; ok {
		return
	}
	s.startWorkerLocked(acc)
	metrics.WorkersActive.Set(float64(len(s.workers)))
}

func (s *supervisorService) StopWorker(id int) {
	s.mu.Lock()
	h, ok := s.workers[id]
	if !ok {
		// A crashed worker awaiting its restart has no handle but still has
		// a status entry; an ordered stop must drop it all the same.
		s.board.Remove(id)
		s.mu.Unlock()
		return
	}
	h.intentional = true
	delete(s.workers, id)
	// Remove before unlocking: no status read after this point may observe
	// the stopped worker.
	s.board.Remove(id)
	metrics.WorkersActive.Set(float64(len(s.workers)))
	s.mu.Unlock()

	h.cancel()
	s.log.Info().Int("account_id", id).Msg("worker stopped")
}

func (s *supervisorService) RestartWorker(acc domain.Account) {
	s.mu.Lock()
	if h, ok := s.workers[acc.ID]; ok {
		h.intentional = true
		h.cancel()
		delete(s.workers, acc.ID)
		s.board.Remove(acc.ID)
	}
	s.startWorkerLocked(acc)
	metrics.WorkersActive.Set(float64(len(s.workers)))
	s.mu.Unlock()
	s.log.Info().Int("account_id", acc.ID).Msg("worker restarted with fresh credentials")
}

func (s *supervisorService) TriggerLogin(id int) error {
	s.mu.Lock()
	h, ok := s.workers[id]
	s.mu.Unlock()
	if !ok {
		return domain.ErrWorkerNotRunning
	}
	h.w.requestLogin()
	return nil
}

func (s *supervisorService) Running(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.workers[id]
	return ok
}

func (s *supervisorService) ActiveWorkers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workers)
}

func (s *supervisorService) SweepOrphans() int {
	keep := make(map[int]struct{})
	for _, acc := range s.store.List() {
		keep[acc.ID] = struct{}{}
	}
	removed := s.board.SweepExcept(keep)
	if removed > 0 {
		s.log.Warn().Int("removed", removed).Msg("swept orphaned status entries")
	}
	return removed
}

func (s *supervisorService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, h := range s.workers {
		h.intentional = true
		h.cancel()
		delete(s.workers, id)
	}
	s.board.RemoveAll()
	metrics.WorkersActive.Set(0)
}

// startWorkerLocked creates the status entry, registers the handle, and
// launches the supervised goroutine. Caller holds s.mu and has verified no
// worker is running for acc.ID.
func (s *supervisorService) startWorkerLocked(acc domain.Account) {
	ctx, cancel := context.WithCancel(context.Background())
	w := newWorker(acc, s.client, s.board, s.cfg, s.log, s.touch)
	h := &workerHandle{w: w, cancel: cancel}
	s.workers[acc.ID] = h
	s.board.Init(acc.ID, domain.NewAccountStatus(acc.Login, seconds(s.cfg.LoginInterval), seconds(s.cfg.SoldOutInterval)))
	s.log.Info().Int("account_id", acc.ID).Str("account", acc.Login).Msg("worker started")

	go s.supervise(ctx, h, acc)
}

// supervise runs the worker and handles its exit. A panic counts as a crash
// and schedules exactly one restart attempt after the backoff, unless the
// stop was intentional or the account has meanwhile been disabled or deleted.
func (s *supervisorService) supervise(ctx context.Context, h *workerHandle, acc domain.Account) {
	crashed := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				crashed = true
				s.log.Error().Int("account_id", acc.ID).Interface("panic", r).Msg("worker crashed")
			}
		}()
		h.w.run(ctx)
	}()

	s.mu.Lock()
	intentional := h.intentional
	if s.workers[acc.ID] == h {
		delete(s.workers, acc.ID)
		metrics.WorkersActive.Set(float64(len(s.workers)))
	}
	s.mu.Unlock()

	if !crashed || intentional {
		return
	}

	metrics.WorkerRestartsTotal.Inc()
	s.log.Warn().Int("account_id", acc.ID).Dur("backoff", s.restartBackoff).Msg("scheduling worker restart")
	time.AfterFunc(s.restartBackoff, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, running := s.workers[acc.ID]; running {
			return
		}
		cur, err := s.store.Get(acc.ID)
		if err != nil || !cur.Enabled {
			// Declining the restart ends the worker's lifecycle, so its
			// status entry goes with it.
			s.board.Remove(acc.ID)
			return
		}
		s.startWorkerLocked(cur)
		metrics.WorkersActive.Set(float64(len(s.workers)))
	})
}

func (s *supervisorService) touch(id int, t time.Time) {
	s.store.Touch(id, t)
}
