package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem is a catalog entry. Orders copy its name and price at placement
// time and never read it again.
type MenuItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Category    string          `gorm:"type:varchar(50);index;not null" json:"category"`
	ImageURL    string          `gorm:"type:varchar(255)" json:"image_url"`
	Available   bool            `gorm:"not null;default:true" json:"available"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
