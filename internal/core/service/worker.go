package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/storewatch/storewatch/internal/api/metrics"
	"github.com/storewatch/storewatch/internal/core/domain"
	"github.com/storewatch/storewatch/internal/core/ports"
)

// WorkerConfig carries the per-worker timer settings. Tick is the countdown
// resolution and defaults to one second; tests shorten it.
type WorkerConfig struct {
	LoginInterval   time.Duration
	SoldOutInterval time.Duration
	SalesInterval   time.Duration
	Tick            time.Duration
}

func (c WorkerConfig) tick() time.Duration {
	if c.Tick <= 0 {
		return time.Second
	}
	return c.Tick
}

// seconds converts an interval to whole countdown ticks, never below one.
func seconds(d time.Duration) int {
	n := int(d / time.Second)
	if n < 1 {
		n = 1
	}
	return n
}

type workerCommand int

const cmdLogin workerCommand = iota

// worker owns one account's login/poll/restock loop. It is the only goroutine
// touching its session token; every outcome is published to the status board
// the instant it is known. Commands arriving from outside (manual login) are
// consumed by the same loop, so timer-driven and signal-driven work never
// interleave for one account.
type worker struct {
	acc    domain.Account
	client ports.UpstreamClient
	board  ports.StatusBoard
	cfg    WorkerConfig
	log    zerolog.Logger
	cmds   chan workerCommand
	// onLogin is invoked after every successful login, outside any lock.
	onLogin func(id int, t time.Time)
	now     func() time.Time

	token       string
	loginLeft   int
	soldOutLeft int
	salesLeft   int
}

func newWorker(acc domain.Account, client ports.UpstreamClient, board ports.StatusBoard, cfg WorkerConfig, log zerolog.Logger, onLogin func(int, time.Time)) *worker {
	return &worker{
		acc:         acc,
		client:      client,
		board:       board,
		cfg:         cfg,
		log:         log.With().Int("account_id", acc.ID).Logger(),
		cmds:        make(chan workerCommand, 1),
		onLogin:     onLogin,
		now:         time.Now,
		loginLeft:   seconds(cfg.LoginInterval),
		soldOutLeft: seconds(cfg.SoldOutInterval),
		salesLeft:   seconds(cfg.SalesInterval),
	}
}

// requestLogin queues a manual login. A command already pending covers the
// request, so the send never blocks.
func (w *worker) requestLogin() {
	select {
	case w.cmds <- cmdLogin:
	default:
	}
}

// run is the worker loop: an immediate first login, then a 1-second countdown
// tick. It returns only when ctx is cancelled.
func (w *worker) run(ctx context.Context) {
	w.doLogin(ctx)

	ticker := time.NewTicker(w.cfg.tick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-w.cmds:
			if cmd == cmdLogin {
				w.log.Info().Msg("manual login requested")
				w.doLogin(ctx)
			}
		case <-ticker.C:
			w.onTick(ctx)
		}
	}
}

func (w *worker) onTick(ctx context.Context) {
	w.loginLeft--
	w.soldOutLeft--
	w.salesLeft--
	w.board.SetCountdowns(w.acc.ID, w.loginLeft, w.soldOutLeft)

	if w.loginLeft <= 0 {
		w.loginLeft = seconds(w.cfg.LoginInterval)
		w.doLogin(ctx)
	}
	if w.soldOutLeft <= 0 {
		w.soldOutLeft = seconds(w.cfg.SoldOutInterval)
		if w.token != "" {
			w.checkSoldOut(ctx)
		}
	}
	if w.salesLeft <= 0 {
		w.salesLeft = seconds(w.cfg.SalesInterval)
		if w.token != "" {
			w.checkSales(ctx)
		}
	}
}

// doLogin performs one login attempt. On success it resets the login
// countdown, immediately runs a sellout check, and resets (without firing)
// the sales countdown. On failure the token is cleared so the check timers
// stay idle until the next successful login.
func (w *worker) doLogin(ctx context.Context) {
	res, err := w.client.Login(ctx, w.acc.Login, w.acc.Password)
	now := w.now()

	if err != nil {
		w.token = ""
		w.board.SetLogin(w.acc.ID, domain.LoginStatus{
			Timestamp: &now,
			Message:   err.Error(),
			Account:   w.acc.Login,
		})
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		w.log.Warn().Err(err).Msg("login request failed")
		return
	}

	st := domain.LoginStatus{
		Timestamp:   &now,
		Success:     res.Success && res.Token != "",
		Message:     res.Message,
		DisplayName: res.DisplayName,
		Token:       res.Token,
		Account:     w.acc.Login,
	}

	if !st.Success {
		w.token = ""
		w.board.SetLogin(w.acc.ID, st)
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		w.log.Warn().Str("msg", res.Message).Msg("login rejected by upstream")
		return
	}

	w.token = res.Token
	w.board.SetLogin(w.acc.ID, st)
	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	w.log.Info().Str("display_name", res.DisplayName).Msg("login succeeded")

	if w.onLogin != nil {
		w.onLogin(w.acc.ID, now)
	}

	w.loginLeft = seconds(w.cfg.LoginInterval)
	w.checkSoldOut(ctx)
	w.salesLeft = seconds(w.cfg.SalesInterval)
}

// checkSoldOut polls the catalog for the first sold-out listing. When one is
// found, the restock submission fires synchronously and the check result is
// published once, with the final restock outcome folded in.
func (w *worker) checkSoldOut(ctx context.Context) {
	goodsID, err := w.client.FirstSoldOut(ctx, w.token)
	now := w.now()

	if err != nil {
		w.board.SetSoldOut(w.acc.ID, domain.SoldOutStatus{
			Timestamp:      &now,
			RestockState:   domain.RestockPending,
			RestockMessage: err.Error(),
		})
		metrics.SelloutChecksTotal.WithLabelValues("error").Inc()
		w.log.Warn().Err(err).Msg("sellout check failed")
		return
	}

	if goodsID == "" {
		w.board.SetSoldOut(w.acc.ID, domain.SoldOutStatus{
			Timestamp:    &now,
			RestockState: domain.RestockPending,
		})
		metrics.SelloutChecksTotal.WithLabelValues("empty").Inc()
		return
	}

	metrics.SelloutChecksTotal.WithLabelValues("detected").Inc()
	st := domain.SoldOutStatus{
		Success: true,
		GoodsID: goodsID,
	}

	res, rerr := w.client.SubmitRestock(ctx, w.token, goodsID)
	switch {
	case rerr != nil:
		st.RestockState = domain.RestockFailed
		st.RestockMessage = rerr.Error()
		metrics.RestocksTotal.WithLabelValues("error").Inc()
		w.log.Warn().Err(rerr).Str("goods_id", goodsID).Msg("restock request failed")
	case res.Accepted:
		st.RestockState = domain.RestockSucceeded
		st.RestockMessage = res.Message
		metrics.RestocksTotal.WithLabelValues("ok").Inc()
		w.log.Info().Str("goods_id", goodsID).Msg("restock accepted")
	default:
		st.RestockState = domain.RestockFailed
		st.RestockMessage = res.Message
		metrics.RestocksTotal.WithLabelValues("rejected").Inc()
		w.log.Warn().Str("goods_id", goodsID).Str("msg", res.Message).Msg("restock rejected by upstream")
	}

	t := w.now()
	st.Timestamp = &t
	w.board.SetSoldOut(w.acc.ID, st)
}

func (w *worker) checkSales(ctx context.Context) {
	res, err := w.client.FetchSales(ctx, w.token)
	now := w.now()

	if err != nil {
		w.board.SetSales(w.acc.ID, domain.SalesStatus{Timestamp: &now})
		metrics.SalesChecksTotal.WithLabelValues("error").Inc()
		w.log.Warn().Err(err).Msg("sales check failed")
		return
	}

	w.board.SetSales(w.acc.ID, domain.SalesStatus{
		Timestamp:   &now,
		Success:     res.Success,
		TodayOrders: res.TodayOrders,
		TodayAmount: res.TodayAmount,
	})
	if res.Success {
		metrics.SalesChecksTotal.WithLabelValues("ok").Inc()
	} else {
		metrics.SalesChecksTotal.WithLabelValues("malformed").Inc()
	}
}
