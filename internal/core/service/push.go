package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/storewatch/storewatch/internal/api/metrics"
	"github.com/storewatch/storewatch/internal/core/domain"
	"github.com/storewatch/storewatch/internal/core/ports"
)

const pushDeliveryTimeout = 30 * time.Second

// PushConfig describes when the aggregated sales push is due: at the
// configured minute of every hour, except inside the quiet window
// [QuietFromHour, QuietUntilHour).
type PushConfig struct {
	Minute         int
	QuietFromHour  int
	QuietUntilHour int
}

// PushScheduler evaluates the push predicate once a minute and, when due,
// aggregates all successful sales figures into one summary for the notifier.
// The predicate is pure and queryable independently of the tick.
type PushScheduler struct {
	board    ports.StatusBoard
	notifier ports.Notifier
	cfg      PushConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewPushScheduler(board ports.StatusBoard, notifier ports.Notifier, cfg PushConfig, log zerolog.Logger) *PushScheduler {
	return &PushScheduler{
		board:    board,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// IsDue reports whether a push is due at t.
func (p *PushScheduler) IsDue(t time.Time) bool {
	if p.inQuietHours(t.Hour()) {
		return false
	}
	return t.Minute() == p.cfg.Minute
}

// NextDue returns the first due instant strictly after t.
func (p *PushScheduler) NextDue(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), p.cfg.Minute, 0, 0, t.Location())
	if !next.After(t) {
		next = next.Add(time.Hour)
	}
	// At most a full day of stepping: a quiet window covering all 24 hours
	// must not spin forever.
	for i := 0; i < 24 && p.inQuietHours(next.Hour()); i++ {
		next = next.Add(time.Hour)
	}
	return next
}

// InQuietHours reports whether t falls inside the configured quiet window.
func (p *PushScheduler) InQuietHours(t time.Time) bool {
	return p.inQuietHours(t.Hour())
}

// DueMinute returns the configured minute-of-hour at which pushes fire.
func (p *PushScheduler) DueMinute() int {
	return p.cfg.Minute
}

func (p *PushScheduler) inQuietHours(hour int) bool {
	return hour >= p.cfg.QuietFromHour && hour < p.cfg.QuietUntilHour
}

// Tick is wired to a one-minute cron schedule. A push with no sales data is
// skipped silently.
func (p *PushScheduler) Tick() {
	now := p.now()
	if !p.IsDue(now) {
		return
	}
	p.log.Info().Time("at", now).Msg("scheduled sales push due")

	ctx, cancel := context.WithTimeout(context.Background(), pushDeliveryTimeout)
	defer cancel()
	if err := p.Push(ctx); err != nil && !errors.Is(err, domain.ErrNoSalesData) {
		p.log.Error().Err(err).Msg("scheduled sales push failed")
	}
}

// Push aggregates and delivers the sales summary immediately, regardless of
// the schedule. Returns domain.ErrNoSalesData when no account has successful
// sales figures.
func (p *PushScheduler) Push(ctx context.Context) error {
	sum := p.BuildSummary()
	if len(sum.Rows) == 0 {
		p.log.Debug().Msg("no sales data, push skipped")
		return domain.ErrNoSalesData
	}

	if err := p.notifier.PushSummary(ctx, sum); err != nil {
		metrics.PushesTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.PushesTotal.WithLabelValues("ok").Inc()
	p.log.Info().Int("accounts", len(sum.Rows)).Int("total_orders", sum.TotalOrders).Float64("total_amount", sum.TotalAmount).Msg("sales summary pushed")
	return nil
}

// BuildSummary collects every status entry whose sales poll succeeded, in
// account-id order, with grand totals.
func (p *PushScheduler) BuildSummary() domain.SalesSummary {
	snapshot := p.board.Snapshot()

	ids := make([]int, 0, len(snapshot))
	for id, st := range snapshot {
		if st.Sales.Success {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	sum := domain.SalesSummary{GeneratedAt: p.now()}
	for _, id := range ids {
		st := snapshot[id]
		row := domain.SalesRow{
			AccountID:   id,
			Account:     st.Login.Account,
			DisplayName: st.Login.DisplayName,
			TodayOrders: st.Sales.TodayOrders,
			TodayAmount: st.Sales.TodayAmount,
		}
		if st.Sales.Timestamp != nil {
			row.UpdatedAt = *st.Sales.Timestamp
		}
		sum.Rows = append(sum.Rows, row)
		sum.TotalOrders += row.TodayOrders
		sum.TotalAmount += row.TodayAmount
	}
	return sum
}
