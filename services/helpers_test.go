package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/restaurant-ordering/database"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/repository"
)

type publishedEvent struct {
	topic   string
	payload interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
	panics bool
}

func (p *fakePublisher) Publish(_ context.Context, topic string, payload interface{}) error {
	if p.panics {
		panic("transport exploded")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, payload: payload})
	return p.err
}

func (p *fakePublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	topics := make([]string, 0, len(p.events))
	for _, e := range p.events {
		topics = append(topics, e.topic)
	}
	return topics
}

func (p *fakePublisher) last(topic string) interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].topic == topic {
			return p.events[i].payload
		}
	}
	return nil
}

func (p *fakePublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

// failingOrderRepository reads through to a real store but fails every write.
type failingOrderRepository struct {
	repository.OrderRepository
	err error
}

func (r *failingOrderRepository) Save(context.Context, *models.Order) error { return r.err }

func (r *failingOrderRepository) UpdateStatus(context.Context, uint, models.OrderStatus) error {
	return r.err
}

func (r *failingOrderRepository) Delete(context.Context, uint) error { return r.err }

func (r *failingOrderRepository) ConfirmPayment(context.Context, *models.Payment) error { return r.err }

type testEnv struct {
	db        *gorm.DB
	orders    *repository.GormOrderRepository
	service   *OrderService
	stats     *StatsService
	publisher *fakePublisher
	alice     models.User
	bob       models.User
	admin     models.User
	risotto   models.MenuItem
	lemonade  models.MenuItem
}

type envOption func(*OrderServiceOptions)

func withEnforcedTransitions(o *OrderServiceOptions) { o.EnforceTransitions = true }

func setupEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	env := &testEnv{db: db, publisher: &fakePublisher{}}
	env.alice = models.User{Username: "alice", Email: "alice@example.com", FullName: "Alice Baker", Password: "x", Role: models.RoleCustomer}
	env.bob = models.User{Username: "bob", Email: "bob@example.com", FullName: "Bob Cook", Password: "x", Role: models.RoleCustomer}
	env.admin = models.User{Username: "admin", Email: "admin@example.com", FullName: "Admin User", Password: "x", Role: models.RoleAdmin}
	for _, u := range []*models.User{&env.alice, &env.bob, &env.admin} {
		require.NoError(t, db.Create(u).Error)
	}
	env.risotto = models.MenuItem{Name: "Saffron & Sage Risotto", Price: decimal.NewFromInt(850), Category: "Mains", Available: true}
	env.lemonade = models.MenuItem{Name: "Elderflower Lemonade", Price: decimal.NewFromInt(220), Category: "Beverages", Available: true}
	require.NoError(t, db.Create(&env.risotto).Error)
	require.NoError(t, db.Create(&env.lemonade).Error)

	options := OrderServiceOptions{NotifyTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&options)
	}

	env.orders = repository.NewOrderRepository(db)
	env.stats = NewStatsService(env.orders, nil)
	env.service = NewOrderService(
		env.orders,
		repository.NewUserRepository(db),
		repository.NewMenuRepository(db),
		env.stats,
		env.publisher,
		options,
	)
	t.Cleanup(env.service.Wait)
	return env
}

// serviceOver builds an OrderService over orders that shares the env's
// publisher and database.
func (e *testEnv) serviceOver(t *testing.T, orders repository.OrderRepository, publisher Publisher) *OrderService {
	t.Helper()
	service := NewOrderService(
		orders,
		repository.NewUserRepository(e.db),
		repository.NewMenuRepository(e.db),
		e.stats,
		publisher,
		OrderServiceOptions{NotifyTimeout: 5 * time.Second},
	)
	t.Cleanup(service.Wait)
	return service
}

func principalOf(u models.User) models.Principal {
	return models.Principal{ID: u.ID, Username: u.Username, Role: u.Role}
}

func (e *testEnv) placeOrder(t *testing.T, user models.User, total string) *models.Order {
	t.Helper()
	in := CreateOrderInput{
		Items:           []OrderLineInput{{MenuItemID: e.risotto.ID, Quantity: 1}},
		DeliveryAddress: "12 Hearth Lane",
		PhoneNumber:     "555-0100",
	}
	if total != "" {
		amount := decimal.RequireFromString(total)
		in.TotalAmount = &amount
	}
	order, err := e.service.CreateOrder(context.Background(), in, principalOf(user))
	require.NoError(t, err)
	return order
}
