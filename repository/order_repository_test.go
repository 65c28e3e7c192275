package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/restaurant-ordering/database"
	"github.com/yeremiapane/restaurant-ordering/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com", Password: "x", Role: models.RoleCustomer}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func newOrder(userID uint, date time.Time, status models.OrderStatus, total string) *models.Order {
	return &models.Order{
		UserID:      userID,
		OrderDate:   date,
		Status:      status,
		TotalAmount: decimal.RequireFromString(total),
		OrderItems: []models.OrderItem{
			{MenuItemID: 1, Name: "Risotto", Quantity: 1, Price: decimal.RequireFromString(total)},
		},
	}
}

func statusPtr(s models.OrderStatus) *models.OrderStatus { return &s }

func TestSaveAndFindByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	user := createUser(t, db, "alice")

	order := &models.Order{
		UserID:          user.ID,
		OrderDate:       time.Now(),
		Status:          models.StatusPending,
		TotalAmount:     decimal.RequireFromString("1570"),
		DeliveryAddress: "12 Hearth Lane",
		PhoneNumber:     "555-0100",
		OrderItems: []models.OrderItem{
			{MenuItemID: 1, Name: "Saffron & Sage Risotto", Quantity: 1, Price: decimal.RequireFromString("850")},
			{MenuItemID: 2, Name: "Wild Mushroom Pappardelle", Quantity: 1, Price: decimal.RequireFromString("720")},
		},
	}
	require.NoError(t, repo.Save(ctx, order))
	require.NotZero(t, order.ID)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", found.User.Username)
	assert.Equal(t, models.StatusPending, found.Status)
	require.Len(t, found.OrderItems, 2)
	assert.Equal(t, "Saffron & Sage Risotto", found.OrderItems[0].Name)
	assert.True(t, found.OrderItems[1].Price.Equal(decimal.NewFromInt(720)))
	assert.True(t, found.TotalAmount.Equal(decimal.NewFromInt(1570)))
}

func TestFindByIDUnknown(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))

	_, err := repo.FindByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestSaveRollsBackWhenItemsFail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	user := createUser(t, db, "bob")

	order := newOrder(user.ID, time.Now(), models.StatusPending, "100")
	require.NoError(t, db.Exec("DROP TABLE order_items").Error)

	err := repo.Save(ctx, order)
	require.Error(t, err)

	count, err := repo.CountWhere(ctx, OrderFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	user := createUser(t, db, "carol")
	order := newOrder(user.ID, time.Now(), models.StatusPending, "100")
	require.NoError(t, repo.Save(ctx, order))

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, models.StatusPreparing))
	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, found.Status)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, 12345, models.StatusReady), ErrOrderNotFound)
}

func TestDeleteRemovesItems(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	user := createUser(t, db, "dave")
	order := newOrder(user.ID, time.Now(), models.StatusPending, "100")
	require.NoError(t, repo.Save(ctx, order))

	require.NoError(t, repo.Delete(ctx, order.ID))

	var items int64
	db.Model(&models.OrderItem{}).Count(&items)
	assert.Zero(t, items)
	assert.ErrorIs(t, repo.Delete(ctx, order.ID), ErrOrderNotFound)
}

func TestOrderingNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(ctx, newOrder(alice.ID, base.Add(time.Duration(i)*time.Minute), models.StatusPending, "10")))
	}
	require.NoError(t, repo.Save(ctx, newOrder(bob.ID, base.Add(10*time.Minute), models.StatusPending, "10")))

	own, err := repo.FindByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, own, 3)
	assert.True(t, own[0].OrderDate.After(own[1].OrderDate))
	assert.True(t, own[1].OrderDate.After(own[2].OrderDate))

	page, err := repo.FindAllOrderedByDateDesc(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, bob.ID, page[0].UserID)

	rest, err := repo.FindAllOrderedByDateDesc(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 2)

	all, err := repo.FindAllOrderedByDateDesc(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestCountAndSumWhere(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	user := createUser(t, db, "erin")
	now := time.Now()
	yesterday := now.Add(-36 * time.Hour)

	require.NoError(t, repo.Save(ctx, newOrder(user.ID, now, models.StatusPending, "100")))
	require.NoError(t, repo.Save(ctx, newOrder(user.ID, now, models.StatusCancelled, "50")))
	require.NoError(t, repo.Save(ctx, newOrder(user.ID, yesterday, models.StatusDelivered, "25.5")))

	pending, err := repo.CountWhere(ctx, OrderFilter{Status: statusPtr(models.StatusPending)})
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)

	since := now.Add(-time.Hour)
	recent, err := repo.CountWhere(ctx, OrderFilter{PlacedSince: &since})
	require.NoError(t, err)
	assert.EqualValues(t, 2, recent)

	own, err := repo.CountWhere(ctx, OrderFilter{UserID: &user.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 3, own)

	revenue, err := repo.SumTotalAmountWhere(ctx, OrderFilter{ExcludeStatus: statusPtr(models.StatusCancelled)})
	require.NoError(t, err)
	require.True(t, revenue.Valid)
	assert.True(t, revenue.Decimal.Equal(decimal.RequireFromString("125.5")), revenue.Decimal.String())
}

func TestSumWhereEmptyIsNull(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t))

	sum, err := repo.SumTotalAmountWhere(context.Background(), OrderFilter{})
	require.NoError(t, err)
	assert.False(t, sum.Valid)
}

func TestConfirmPayment(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	user := createUser(t, db, "erin")
	first := newOrder(user.ID, time.Now(), models.StatusPending, "100")
	second := newOrder(user.ID, time.Now(), models.StatusPending, "100")
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	payment := func(orderID uint, gatewayOrder, gatewayPayment string) *models.Payment {
		return &models.Payment{
			OrderID:          orderID,
			GatewayOrderID:   gatewayOrder,
			GatewayPaymentID: gatewayPayment,
			Amount:           decimal.NewFromInt(100),
		}
	}

	require.NoError(t, repo.ConfirmPayment(ctx, payment(first.ID, "gw_order_1", "pay_1")))
	found, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, found.Status)

	assert.ErrorIs(t, repo.ConfirmPayment(ctx, payment(second.ID, "gw_order_1", "pay_1")), ErrPaymentAlreadyUsed)
	assert.ErrorIs(t, repo.ConfirmPayment(ctx, payment(second.ID, "gw_order_2", "pay_1")), ErrPaymentAlreadyUsed)
	assert.ErrorIs(t, repo.ConfirmPayment(ctx, payment(second.ID, "gw_order_1", "pay_2")), ErrPaymentAlreadyUsed)
	found, err = repo.FindByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, found.Status)

	assert.ErrorIs(t, repo.ConfirmPayment(ctx, payment(first.ID, "gw_order_3", "pay_3")), ErrOrderNotPending)
	assert.ErrorIs(t, repo.ConfirmPayment(ctx, payment(4242, "gw_order_4", "pay_4")), ErrOrderNotFound)

	var recorded int64
	require.NoError(t, db.Model(&models.Payment{}).Count(&recorded).Error)
	assert.EqualValues(t, 1, recorded)
}
