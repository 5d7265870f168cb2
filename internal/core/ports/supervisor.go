package ports

import "github.com/storewatch/storewatch/internal/core/domain"

// Supervisor reconciles the set of running workers to the set of enabled
// accounts and guarantees restart-on-crash. Stopping a worker never waits for
// in-flight upstream calls.
type Supervisor interface {
	// ReconcileAll stops every worker, clears all status, then starts one
	// worker per enabled account in the store.
	ReconcileAll()
	// EnsureWorker starts a worker for the account unless one is running.
	EnsureWorker(acc domain.Account)
	// StopWorker intentionally terminates the account's worker and removes
	// its status entry. No restart is scheduled. No-op when none is running.
	StopWorker(id int)
	// RestartWorker terminates a running worker and starts a fresh one built
	// from acc. Used for password rotation.
	RestartWorker(acc domain.Account)
	// TriggerLogin asks a running worker to log in immediately, bypassing its
	// countdown. Returns ErrWorkerNotRunning when the account has no worker.
	TriggerLogin(id int) error
	Running(id int) bool
	ActiveWorkers() int
	// SweepOrphans removes status entries whose account no longer exists in
	// the store and returns the number removed.
	SweepOrphans() int
	// Shutdown stops all workers without touching the account store.
	Shutdown()
}
