package service

import (
	"sync"

	"github.com/storewatch/storewatch/internal/core/domain"
	"github.com/storewatch/storewatch/internal/core/ports"
)

// statusBoard is the in-process implementation of ports.StatusBoard: one map
// behind a single mutex. Writes are small and infrequent relative to reads,
// so a coarse lock is enough.
type statusBoard struct {
	mu       sync.RWMutex
	statuses map[int]domain.AccountStatus
}

// NewStatusBoard returns an empty status board.
func NewStatusBoard() ports.StatusBoard {
	return &statusBoard{statuses: make(map[int]domain.AccountStatus)}
}

func (b *statusBoard) Init(id int, st domain.AccountStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses[id] = st
}

func (b *statusBoard) SetLogin(id int, s domain.LoginStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.statuses[id]
	if !ok {
		return
	}
	st.Login = s
	b.statuses[id] = st
}

func (b *statusBoard) SetSoldOut(id int, s domain.SoldOutStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.statuses[id]
	if !ok {
		return
	}
	st.SoldOut = s
	b.statuses[id] = st
}

func (b *statusBoard) SetSales(id int, s domain.SalesStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.statuses[id]
	if !ok {
		return
	}
	st.Sales = s
	b.statuses[id] = st
}

func (b *statusBoard) SetCountdowns(id, login, soldOut int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.statuses[id]
	if !ok {
		return
	}
	st.LoginCountdown = login
	st.SoldOutCountdown = soldOut
	b.statuses[id] = st
}

func (b *statusBoard) Get(id int) (domain.AccountStatus, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	st, ok := b.statuses[id]
	return st, ok
}

func (b *statusBoard) Snapshot() map[int]domain.AccountStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[int]domain.AccountStatus, len(b.statuses))
	for id, st := range b.statuses {
		out[id] = st
	}
	return out
}

func (b *statusBoard) Remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.statuses, id)
}

func (b *statusBoard) RemoveAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses = make(map[int]domain.AccountStatus)
}

func (b *statusBoard) SweepExcept(keep map[int]struct{}) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	removed := 0
	for id := range b.statuses {
		if _, ok := keep[id]; !ok {
			delete(b.statuses, id)
			removed++
		}
	}
	return removed
}
