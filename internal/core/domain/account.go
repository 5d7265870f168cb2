package domain

import (
	"errors"
	"time"
)

var ErrAccountNotFound = errors.New("account not found")
var ErrAccountExists = errors.New("account already exists")
var ErrInvalidAccount = errors.New("account and password must not be empty")
var ErrWorkerNotRunning = errors.New("no worker running for account")
var ErrStatusNotFound = errors.New("no status for account")
var ErrNoSalesData = errors.New("no sales data to push")

// Account is one set of upstream merchant-admin credentials tracked by the
// system. IDs are assigned by the store and strictly increase; Login is the
// unique business key. The JSON tags match the on-disk accounts file.
type Account struct {
	ID       int        `json:"id"`
	Login    string     `json:"account"`
	Password string     `json:"pwd"`
	Enabled  bool       `json:"enabled"`
	LastUsed *time.Time `json:"lastUsed"`
}
