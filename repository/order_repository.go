package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeremiapane/restaurant-ordering/models"
)

// OrderFilter narrows CountWhere and SumTotalAmountWhere. Nil fields are
// ignored; set fields are combined with AND.
type OrderFilter struct {
	Status        *models.OrderStatus
	ExcludeStatus *models.OrderStatus
	PlacedSince   *time.Time
	UserID        *uint
}

func (f OrderFilter) apply(db *gorm.DB) *gorm.DB {
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.ExcludeStatus != nil {
		db = db.Where("status <> ?", *f.ExcludeStatus)
	}
	if f.PlacedSince != nil {
		db = db.Where("order_date >= ?", *f.PlacedSince)
	}
	if f.UserID != nil {
		db = db.Where("user_id = ?", *f.UserID)
	}
	return db
}

type OrderRepository interface {
	// Save inserts a new order and its line items in one transaction.
	Save(ctx context.Context, order *models.Order) error
	UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	FindByUser(ctx context.Context, userID uint) ([]models.Order, error)
	FindAllOrderedByDateDesc(ctx context.Context, limit, offset int) ([]models.Order, error)
	CountWhere(ctx context.Context, filter OrderFilter) (int64, error)
	SumTotalAmountWhere(ctx context.Context, filter OrderFilter) (decimal.NullDecimal, error)
	// ConfirmPayment records payment and confirms its pending order in one
	// transaction.
	ConfirmPayment(ctx context.Context, payment *models.Payment) error
}

type GormOrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if len(order.OrderItems) == 0 {
			return nil
		}
		for i := range order.OrderItems {
			order.OrderItems[i].OrderID = order.ID
		}
		if err := tx.Create(&order.OrderItems).Error; err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
		return nil
	})
}

func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).Where("id = ?", id).Update("status", status)
		if res.Error != nil {
			return fmt.Errorf("update order status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrOrderNotFound
		}
		return nil
	})
}

// ConfirmPayment moves payment.OrderID from PENDING to CONFIRMED and records
// the payment. A gateway order or payment id seen before yields
// ErrPaymentAlreadyUsed, an order that is no longer pending ErrOrderNotPending.
func (r *GormOrderRepository) ConfirmPayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var used int64
		err := tx.Model(&models.Payment{}).
			Where("gateway_payment_id = ? OR gateway_order_id = ?", payment.GatewayPaymentID, payment.GatewayOrderID).
			Count(&used).Error
		if err != nil {
			return fmt.Errorf("check payment: %w", err)
		}
		if used > 0 {
			return ErrPaymentAlreadyUsed
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", payment.OrderID, models.StatusPending).
			Update("status", models.StatusConfirmed)
		if res.Error != nil {
			return fmt.Errorf("confirm order: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&models.Order{}).Where("id = ?", payment.OrderID).Count(&exists).Error; err != nil {
				return fmt.Errorf("load order: %w", err)
			}
			if exists == 0 {
				return ErrOrderNotFound
			}
			return ErrOrderNotPending
		}

		if err := tx.Create(payment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrPaymentAlreadyUsed
			}
			return fmt.Errorf("record payment: %w", err)
		}
		return nil
	})
}

// Delete removes the order together with its line items.
func (r *GormOrderRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		res := tx.Delete(&models.Order{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete order: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrOrderNotFound
		}
		return nil
	})
}

func (r *GormOrderRepository) withAssociations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User").
		Preload("OrderItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		})
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.withAssociations(ctx).First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order %d: %w", id, err)
	}
	return &order, nil
}

// FindByUser returns the user's orders, newest first.
func (r *GormOrderRepository) FindByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.withAssociations(ctx).
		Where("user_id = ?", userID).
		Order("order_date DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("find orders of user %d: %w", userID, err)
	}
	return orders, nil
}

// FindAllOrderedByDateDesc pages through every order, newest first. A
// non-positive limit returns all rows.
func (r *GormOrderRepository) FindAllOrderedByDateDesc(ctx context.Context, limit, offset int) ([]models.Order, error) {
	q := r.withAssociations(ctx).Order("order_date DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (r *GormOrderRepository) CountWhere(ctx context.Context, filter OrderFilter) (int64, error) {
	var count int64
	q := filter.apply(r.db.WithContext(ctx).Model(&models.Order{}))
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

// SumTotalAmountWhere returns an invalid NullDecimal when no row matches.
func (r *GormOrderRepository) SumTotalAmountWhere(ctx context.Context, filter OrderFilter) (decimal.NullDecimal, error) {
	var sum decimal.NullDecimal
	q := filter.apply(r.db.WithContext(ctx).Model(&models.Order{}))
	if err := q.Select("SUM(total_amount)").Row().Scan(&sum); err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("sum order totals: %w", err)
	}
	return sum, nil
}
