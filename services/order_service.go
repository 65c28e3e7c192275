package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-ordering/hub"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/repository"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// Publisher delivers a payload to the subscribers of a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

type OrderLineInput struct {
	MenuItemID uint
	Quantity   int
}

type CreateOrderInput struct {
	Items           []OrderLineInput
	DeliveryAddress string
	PhoneNumber     string
	// TotalAmount overrides the line item sum, e.g. the amount charged by the
	// payment gateway.
	TotalAmount *decimal.Decimal
}

type OrderServiceOptions struct {
	// EnforceTransitions rejects status changes that skip a step or leave a
	// terminal state.
	EnforceTransitions bool
	NotifyTimeout      time.Duration
	Now                func() time.Time
}

// OrderService owns the order lifecycle. Every mutation commits first and then
// notifies subscribers in the background; notification failures are logged
// and never reach the caller.
type OrderService struct {
	orders    repository.OrderRepository
	users     repository.UserRepository
	menu      repository.MenuRepository
	stats     *StatsService
	publisher Publisher
	opts      OrderServiceOptions

	pending sync.WaitGroup

	chainMu sync.Mutex
	chains  map[uint]chan struct{}
}

func NewOrderService(
	orders repository.OrderRepository,
	users repository.UserRepository,
	menu repository.MenuRepository,
	stats *StatsService,
	publisher Publisher,
	opts OrderServiceOptions,
) *OrderService {
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &OrderService{
		orders:    orders,
		users:     users,
		menu:      menu,
		stats:     stats,
		publisher: publisher,
		opts:      opts,
		chains:    make(map[uint]chan struct{}),
	}
}

func validateCreateInput(in CreateOrderInput) error {
	if len(in.Items) == 0 {
		return validationError("order must contain at least one item")
	}
	for _, line := range in.Items {
		if line.MenuItemID == 0 {
			return validationError("menu item id is required")
		}
		if line.Quantity <= 0 {
			return validationError("quantity for menu item %d must be positive", line.MenuItemID)
		}
	}
	if utf8.RuneCountInString(in.DeliveryAddress) > models.MaxDeliveryAddressLength {
		return validationError("delivery address exceeds %d characters", models.MaxDeliveryAddressLength)
	}
	if utf8.RuneCountInString(in.PhoneNumber) > models.MaxPhoneNumberLength {
		return validationError("phone number exceeds %d characters", models.MaxPhoneNumberLength)
	}
	if in.TotalAmount != nil && in.TotalAmount.IsNegative() {
		return validationError("total amount must not be negative")
	}
	return nil
}

// CreateOrder places a PENDING order for the requester. Prices are copied from
// the catalog; nothing is stored unless every item resolves.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput, requester models.Principal) (*models.Order, error) {
	if err := validateCreateInput(in); err != nil {
		return nil, err
	}

	owner, err := s.users.FindByID(ctx, requester.ID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, notFoundError("user account %d", requester.ID)
	}
	if err != nil {
		return nil, persistenceError("load owner", err)
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	for _, line := range in.Items {
		menuItem, err := s.menu.FindByID(ctx, line.MenuItemID)
		if errors.Is(err, repository.ErrMenuItemNotFound) {
			return nil, notFoundError("menu item %d", line.MenuItemID)
		}
		if err != nil {
			return nil, persistenceError("load menu item", err)
		}
		items = append(items, models.OrderItem{
			MenuItemID: menuItem.ID,
			Name:       menuItem.Name,
			Quantity:   line.Quantity,
			Price:      menuItem.Price,
		})
	}

	order := &models.Order{
		UserID:          owner.ID,
		OrderDate:       s.opts.Now(),
		Status:          models.StatusPending,
		DeliveryAddress: in.DeliveryAddress,
		PhoneNumber:     in.PhoneNumber,
		OrderItems:      items,
	}
	order.TotalAmount = order.ItemsTotal()
	if in.TotalAmount != nil {
		order.TotalAmount = *in.TotalAmount
	}

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, persistenceError("save order", err)
	}
	order.User = *owner

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  owner.ID,
		"items":    len(items),
		"total":    order.TotalAmount.StringFixed(2),
	}).Info("order created")

	orderID := order.ID
	s.afterCommit("order_created", orderID, func(ctx context.Context) error {
		return s.publishOrder(ctx, orderID, false)
	})
	return order, nil
}

// UpdateStatus moves an order to newStatus, parsed case-insensitively.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, newStatus string) (*models.Order, error) {
	status, err := models.ParseOrderStatus(newStatus)
	if err != nil {
		return nil, validationError("%v", err)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, notFoundError("order %d", orderID)
	}
	if err != nil {
		return nil, persistenceError("load order", err)
	}

	if s.opts.EnforceTransitions && order.Status != status && !order.Status.CanTransitionTo(status) {
		return nil, validationError("order %d cannot move from %s to %s", orderID, order.Status, status)
	}

	if err := s.orders.UpdateStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, notFoundError("order %d", orderID)
		}
		return nil, persistenceError("update order status", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": orderID,
		"from":     order.Status,
		"to":       status,
	}).Info("order status updated")
	order.Status = status

	s.afterCommit("order_status_updated", orderID, func(ctx context.Context) error {
		return s.publishOrder(ctx, orderID, true)
	})
	return order, nil
}

// ConfirmPayment records a verified payment and confirms the pending order it
// pays for. order is updated in place.
func (s *OrderService) ConfirmPayment(ctx context.Context, order *models.Order, payment *models.Payment) error {
	payment.OrderID = order.ID
	if err := s.orders.ConfirmPayment(ctx, payment); err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			return notFoundError("order %d", order.ID)
		case errors.Is(err, repository.ErrOrderNotPending):
			return validationError("order %d is no longer pending", order.ID)
		case errors.Is(err, repository.ErrPaymentAlreadyUsed):
			return conflictError("payment %s was already used", payment.GatewayPaymentID)
		}
		return persistenceError("confirm payment", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"payment_id": payment.GatewayPaymentID,
		"amount":     payment.Amount.StringFixed(2),
	}).Info("order paid")
	order.Status = models.StatusConfirmed

	orderID := order.ID
	s.afterCommit("order_paid", orderID, func(ctx context.Context) error {
		return s.publishOrder(ctx, orderID, true)
	})
	return nil
}

// GetOrder returns the order if the requester owns it or is an admin.
func (s *OrderService) GetOrder(ctx context.Context, orderID uint, requester models.Principal) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, notFoundError("order %d", orderID)
	}
	if err != nil {
		return nil, persistenceError("load order", err)
	}
	if order.UserID != requester.ID && !requester.IsAdmin() {
		return nil, fmt.Errorf("%w: order %d belongs to another user", ErrForbidden, orderID)
	}
	return order, nil
}

// ListOwnOrders returns the requester's orders, newest first.
func (s *OrderService) ListOwnOrders(ctx context.Context, requester models.Principal) ([]models.Order, error) {
	orders, err := s.orders.FindByUser(ctx, requester.ID)
	if err != nil {
		return nil, persistenceError("list own orders", err)
	}
	return orders, nil
}

func (s *OrderService) CountOwnOrders(ctx context.Context, requester models.Principal) (int64, error) {
	count, err := s.orders.CountWhere(ctx, repository.OrderFilter{UserID: &requester.ID})
	if err != nil {
		return 0, persistenceError("count own orders", err)
	}
	return count, nil
}

func (s *OrderService) ListAll(ctx context.Context, limit, offset int) ([]models.Order, error) {
	orders, err := s.orders.FindAllOrderedByDateDesc(ctx, limit, offset)
	if err != nil {
		return nil, persistenceError("list orders", err)
	}
	return orders, nil
}

// DeleteOrder removes an order with its line items and refreshes the
// dashboard figures.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID uint) error {
	if err := s.orders.Delete(ctx, orderID); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return notFoundError("order %d", orderID)
		}
		return persistenceError("delete order", err)
	}
	utils.InfoLogger.WithField("order_id", orderID).Info("order deleted")

	s.afterCommit("order_deleted", orderID, s.publishStats)
	return nil
}

// Wait blocks until every background notification has finished.
func (s *OrderService) Wait() {
	s.pending.Wait()
}

// afterCommit runs fn in the background. Notifications for one order run one
// after another in commit order; different orders do not wait on each other.
func (s *OrderService) afterCommit(event string, orderID uint, fn func(ctx context.Context) error) {
	s.pending.Add(1)
	prev, done := s.enqueue(orderID)
	go func() {
		defer s.pending.Done()
		defer s.dequeue(orderID, done)
		if prev != nil {
			<-prev
		}

		log := utils.ErrorLogger.WithFields(logrus.Fields{"event": event, "order_id": orderID})
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("notification panicked: %v", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.NotifyTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Errorf("notification failed: %v", err)
		}
	}()
}

func (s *OrderService) enqueue(orderID uint) (prev, done chan struct{}) {
	s.chainMu.Lock()
	defer s.chainMu.Unlock()
	prev = s.chains[orderID]
	done = make(chan struct{})
	s.chains[orderID] = done
	return prev, done
}

func (s *OrderService) dequeue(orderID uint, done chan struct{}) {
	s.chainMu.Lock()
	if s.chains[orderID] == done {
		delete(s.chains, orderID)
	}
	s.chainMu.Unlock()
	close(done)
}

// publishOrder re-reads the committed order so subscribers see stored state.
func (s *OrderService) publishOrder(ctx context.Context, orderID uint, notifyOwner bool) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("reload order: %w", err)
	}

	var errs []error
	if err := s.publisher.Publish(ctx, hub.TopicOrders, order); err != nil {
		errs = append(errs, fmt.Errorf("publish %s: %w", hub.TopicOrders, err))
	}
	if err := s.publishStats(ctx); err != nil {
		errs = append(errs, err)
	}
	if notifyOwner && order.UserID != 0 {
		topic := hub.OrderStatusTopic(order.UserID)
		if err := s.publisher.Publish(ctx, topic, order); err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", topic, err))
		}
	}
	return errors.Join(errs...)
}

func (s *OrderService) publishStats(ctx context.Context) error {
	stats, err := s.stats.Stats(ctx)
	if err != nil {
		return fmt.Errorf("compute stats: %w", err)
	}
	if err := s.publisher.Publish(ctx, hub.TopicAdminStats, stats); err != nil {
		return fmt.Errorf("publish %s: %w", hub.TopicAdminStats, err)
	}
	return nil
}
