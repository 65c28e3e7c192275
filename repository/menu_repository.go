package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/models"
)

// MenuRepository is a read-only view of the catalog.
type MenuRepository interface {
	FindByID(ctx context.Context, id uint) (*models.MenuItem, error)
	ListAvailable(ctx context.Context) ([]models.MenuItem, error)
	ListByCategory(ctx context.Context, category string) ([]models.MenuItem, error)
}

type GormMenuRepository struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) *GormMenuRepository {
	return &GormMenuRepository{db: db}
}

func (r *GormMenuRepository) FindByID(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.db.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMenuItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find menu item %d: %w", id, err)
	}
	return &item, nil
}

func (r *GormMenuRepository) ListAvailable(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := r.db.WithContext(ctx).Where("available = ?", true).Order("category, name").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	return items, nil
}

func (r *GormMenuRepository) ListByCategory(ctx context.Context, category string) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.WithContext(ctx).
		Where("available = ? AND category = ?", true, category).
		Order("name").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list menu category %q: %w", category, err)
	}
	return items, nil
}
