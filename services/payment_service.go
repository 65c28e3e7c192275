package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// PaymentVerification is what the gateway hands the client after a
// successful charge.
type PaymentVerification struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
}

// PaymentService confirms orders once the gateway signature checks out.
type PaymentService struct {
	orders *OrderService
	secret []byte
}

func NewPaymentService(orders *OrderService, keySecret string) *PaymentService {
	return &PaymentService{orders: orders, secret: []byte(keySecret)}
}

// Sign computes hex(HMAC-SHA256(secret, gatewayOrderID|paymentID)).
func (p *PaymentService) Sign(gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (p *PaymentService) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	expected := p.Sign(gatewayOrderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

// VerifyAndConfirm moves a pending order to CONFIRMED when the payment
// signature is valid. Each gateway order and payment id confirms at most one
// order; replaying them fails with ErrConflict.
func (p *PaymentService) VerifyAndConfirm(ctx context.Context, requester models.Principal, orderID uint, v PaymentVerification) (*models.Order, error) {
	if len(p.secret) == 0 {
		return nil, validationError("payment verification is not configured")
	}
	if v.GatewayOrderID == "" || v.PaymentID == "" || v.Signature == "" {
		return nil, validationError("gateway order id, payment id and signature are required")
	}

	order, err := p.orders.GetOrder(ctx, orderID, requester)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusPending {
		return nil, validationError("order %d is %s, only pending orders can be confirmed", orderID, order.Status)
	}
	if !p.VerifySignature(v.GatewayOrderID, v.PaymentID, v.Signature) {
		utils.ErrorLogger.WithField("order_id", orderID).Warn("payment signature mismatch")
		return nil, validationError("payment signature mismatch")
	}

	payment := &models.Payment{
		GatewayOrderID:   v.GatewayOrderID,
		GatewayPaymentID: v.PaymentID,
		Amount:           order.TotalAmount,
		VerifiedBy:       requester.ID,
	}
	if err := p.orders.ConfirmPayment(ctx, order, payment); err != nil {
		return nil, err
	}
	return order, nil
}
