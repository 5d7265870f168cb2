package ports

import "github.com/storewatch/storewatch/internal/core/domain"

// StatusBoard is the single shared resource between workers, the control
// surface and the push scheduler. Implementations must support concurrent
// per-key writes and concurrent full reads; removal is atomic so a reader can
// never observe the status of a stopped worker.
type StatusBoard interface {
	Init(id int, st domain.AccountStatus)
	SetLogin(id int, s domain.LoginStatus)
	SetSoldOut(id int, s domain.SoldOutStatus)
	SetSales(id int, s domain.SalesStatus)
	SetCountdowns(id, login, soldOut int)
	Get(id int) (domain.AccountStatus, bool)
	Snapshot() map[int]domain.AccountStatus
	Remove(id int)
	RemoveAll()
	// SweepExcept removes every entry whose id is not in keep and returns the
	// number removed. Defensive backstop only; Remove is the primary path.
	SweepExcept(keep map[int]struct{}) int
}
