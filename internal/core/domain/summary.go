package domain

import "time"

// SalesRow is one account's contribution to an aggregated sales push.
type SalesRow struct {
	AccountID   int       `json:"accountId"`
	Account     string    `json:"account"`
	DisplayName string    `json:"realName"`
	TodayOrders int       `json:"todayOrders"`
	TodayAmount float64   `json:"todayAmount"`
	UpdatedAt   time.Time `json:"updateTime"`
}

// SalesSummary aggregates every account with successful sales data, plus the
// grand totals, for delivery through the notification collaborator.
type SalesSummary struct {
	GeneratedAt time.Time  `json:"generatedAt"`
	Rows        []SalesRow `json:"rows"`
	TotalOrders int        `json:"totalOrders"`
	TotalAmount float64    `json:"totalAmount"`
}
