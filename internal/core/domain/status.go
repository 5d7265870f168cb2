package domain

import "time"

// RestockState tracks the outcome of the automatic restock submission that
// follows a sellout detection.
type RestockState string

const (
	RestockPending   RestockState = "pending"
	RestockSucceeded RestockState = "succeeded"
	RestockFailed    RestockState = "failed"
)

// LoginStatus is the result of the most recent login attempt for an account.
// Token holds the upstream session token while the login is valid; it is
// empty after a failed attempt.
type LoginStatus struct {
	Timestamp   *time.Time `json:"timestamp"`
	Success     bool       `json:"success"`
	Message     string     `json:"msg"`
	DisplayName string     `json:"real_name"`
	Token       string     `json:"token"`
	Account     string     `json:"account"`
}

// SoldOutStatus is the result of the most recent sellout check, including the
// restock submission that fires synchronously when a candidate is found.
type SoldOutStatus struct {
	Timestamp      *time.Time   `json:"timestamp"`
	Success        bool         `json:"success"`
	GoodsID        string       `json:"goodsId"`
	RestockState   RestockState `json:"restockState"`
	RestockMessage string       `json:"restockMessage"`
}

// SalesStatus is the result of the most recent sales-figure poll.
type SalesStatus struct {
	Timestamp   *time.Time `json:"timestamp"`
	Success     bool       `json:"success"`
	TodayOrders int        `json:"todayOrders"`
	TodayAmount float64    `json:"todayAmount"`
}

// AccountStatus aggregates everything a running worker publishes about one
// account. An entry exists on the status board if and only if a worker is
// currently running for that account id.
type AccountStatus struct {
	Login            LoginStatus   `json:"loginStatus"`
	SoldOut          SoldOutStatus `json:"soldOutStatus"`
	Sales            SalesStatus   `json:"salesStatus"`
	LoginCountdown   int           `json:"loginCountdown"`
	SoldOutCountdown int           `json:"soldOutCountdown"`
}

// NewAccountStatus returns the initial status published when a worker starts,
// before its first login attempt completes.
func NewAccountStatus(login string, loginCountdown, soldOutCountdown int) AccountStatus {
	return AccountStatus{
		Login: LoginStatus{
			Message: "awaiting login",
			Account: login,
		},
		SoldOut: SoldOutStatus{
			RestockState: RestockPending,
		},
		LoginCountdown:   loginCountdown,
		SoldOutCountdown: soldOutCountdown,
	}
}
