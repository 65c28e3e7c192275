package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/repository"
)

const (
	DefaultRecentOrders = 5
	MaxRecentOrders     = 100
)

// OrderSummary is the dashboard view of an order.
type OrderSummary struct {
	ID              uint               `json:"id"`
	Username        string             `json:"username"`
	FullName        string             `json:"full_name"`
	Status          models.OrderStatus `json:"status"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	OrderDate       time.Time          `json:"order_date"`
	DeliveryAddress string             `json:"delivery_address"`
	PhoneNumber     string             `json:"phone_number"`
	Items           []OrderItemSummary `json:"items"`
}

type OrderItemSummary struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// StatsService computes dashboard figures straight from the store on every
// call.
type StatsService struct {
	orders repository.OrderRepository
	now    func() time.Time
}

func NewStatsService(orders repository.OrderRepository, now func() time.Time) *StatsService {
	if now == nil {
		now = time.Now
	}
	return &StatsService{orders: orders, now: now}
}

func (s *StatsService) Stats(ctx context.Context) (*models.AdminStats, error) {
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	pending := models.StatusPending
	cancelled := models.StatusCancelled

	ordersToday, err := s.orders.CountWhere(ctx, repository.OrderFilter{PlacedSince: &startOfDay})
	if err != nil {
		return nil, persistenceError("count today's orders", err)
	}
	pendingOrders, err := s.orders.CountWhere(ctx, repository.OrderFilter{Status: &pending})
	if err != nil {
		return nil, persistenceError("count pending orders", err)
	}
	revenue, err := s.orders.SumTotalAmountWhere(ctx, repository.OrderFilter{ExcludeStatus: &cancelled})
	if err != nil {
		return nil, persistenceError("sum revenue", err)
	}
	totalOrders, err := s.orders.CountWhere(ctx, repository.OrderFilter{})
	if err != nil {
		return nil, persistenceError("count orders", err)
	}

	totalRevenue := decimal.Zero
	if revenue.Valid {
		totalRevenue = revenue.Decimal
	}
	avg := decimal.Zero
	if totalOrders > 0 {
		avg = totalRevenue.Div(decimal.NewFromInt(totalOrders)).Round(2)
	}

	return &models.AdminStats{
		OrdersToday:           ordersToday,
		PendingOrders:         pendingOrders,
		TotalRevenue:          totalRevenue,
		AvgOrderValue:         avg,
		ActiveTables:          models.PlaceholderActiveTables,
		AverageRating:         models.PlaceholderAverageRating,
		TotalReviews:          models.PlaceholderTotalReviews,
		CustomerFeedbackCount: models.PlaceholderCustomerFeedbackCount,
	}, nil
}

// RecentOrders returns the newest orders as dashboard summaries.
func (s *StatsService) RecentOrders(ctx context.Context, limit int) ([]OrderSummary, error) {
	if limit <= 0 {
		limit = DefaultRecentOrders
	}
	if limit > MaxRecentOrders {
		limit = MaxRecentOrders
	}

	orders, err := s.orders.FindAllOrderedByDateDesc(ctx, limit, 0)
	if err != nil {
		return nil, persistenceError("list recent orders", err)
	}

	summaries := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		items := make([]OrderItemSummary, 0, len(o.OrderItems))
		for _, item := range o.OrderItems {
			items = append(items, OrderItemSummary{Name: item.Name, Quantity: item.Quantity, Price: item.Price})
		}
		summaries = append(summaries, OrderSummary{
			ID:              o.ID,
			Username:        o.User.Username,
			FullName:        o.User.FullName,
			Status:          o.Status,
			TotalAmount:     o.TotalAmount,
			OrderDate:       o.OrderDate,
			DeliveryAddress: o.DeliveryAddress,
			PhoneNumber:     o.PhoneNumber,
			Items:           items,
		})
	}
	return summaries, nil
}
