package models

import "github.com/shopspring/decimal"

// Dashboard figures not backed by any store yet.
const (
	PlaceholderActiveTables          = 8
	PlaceholderAverageRating         = 4.6
	PlaceholderTotalReviews          = 1234
	PlaceholderCustomerFeedbackCount = 85
)

type AdminStats struct {
	OrdersToday           int64           `json:"orders_today"`
	PendingOrders         int64           `json:"pending_orders"`
	TotalRevenue          decimal.Decimal `json:"total_revenue"`
	AvgOrderValue         decimal.Decimal `json:"avg_order_value"`
	ActiveTables          int             `json:"active_tables"`
	AverageRating         float64         `json:"average_rating"`
	TotalReviews          int             `json:"total_reviews"`
	CustomerFeedbackCount int             `json:"customer_feedback_count"`
}
