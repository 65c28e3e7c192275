package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a gateway payment that has been used to confirm an order. A
// gateway order id or payment id can back one order only.
type Payment struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	OrderID          uint            `gorm:"not null;uniqueIndex" json:"order_id"`
	GatewayOrderID   string          `gorm:"type:varchar(100);not null;uniqueIndex" json:"gateway_order_id"`
	GatewayPaymentID string          `gorm:"type:varchar(100);not null;uniqueIndex" json:"gateway_payment_id"`
	Amount           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	VerifiedBy       uint            `json:"verified_by"`
	CreatedAt        time.Time       `json:"created_at"`
}
