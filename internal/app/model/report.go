package model

import "github.com/shopspring/decimal"

// UserAnalytics aggregates the visits of every link owned by one user.
type UserAnalytics struct {
	TotalViews    int64           `json:"totalViews"`
	TotalEarnings decimal.Decimal `json:"totalEarnings"`
	Countries     []string        `json:"countries"`
	Devices       []string        `json:"devices"`
}

// SystemStats is the admin dashboard summary.
type SystemStats struct {
	Users struct {
		Total  int64 `json:"totalUsers"`
		Active int64 `json:"activeUsers"`
	} `json:"users"`
	Links struct {
		Total      int64 `json:"totalLinks"`
		TotalViews int64 `json:"totalViews"`
	} `json:"links"`
	Withdrawals struct {
		Pending decimal.Decimal `json:"pendingWithdrawals"`
		Paid    decimal.Decimal `json:"totalPaid"`
	} `json:"withdrawals"`
}
