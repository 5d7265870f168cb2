package ports

import "context"

// LoginResult is the normalized outcome of an upstream login call. Success
// without a token is treated as failure by callers: every subsequent call
// needs the session token.
type LoginResult struct {
	Success     bool
	Message     string
	DisplayName string
	Token       string
}

// RestockResult is the normalized outcome of a batch restock submission.
// Message preserves the upstream reply verbatim for operator visibility.
type RestockResult struct {
	Accepted bool
	Message  string
}

// SalesResult is the normalized outcome of a sales-header fetch. A payload
// whose figure list is missing or short yields Success=false with zero values.
type SalesResult struct {
	Success     bool
	TodayOrders int
	TodayAmount float64
}

// UpstreamClient is the narrow adapter over the third-party admin API. All
// calls are bounded by the configured request timeout; upstream shape drift
// stays inside the implementation.
type UpstreamClient interface {
	Login(ctx context.Context, login, password string) (LoginResult, error)
	// FirstSoldOut returns the identifier of the first sold-out listing, or
	// "" when the catalog page has none.
	FirstSoldOut(ctx context.Context, token string) (string, error)
	SubmitRestock(ctx context.Context, token, goodsID string) (RestockResult, error)
	FetchSales(ctx context.Context, token string) (SalesResult, error)
}
