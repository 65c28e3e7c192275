package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

type orderItemRequest struct {
	MenuItemID uint `json:"menu_item_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required,min=1"`
}

type createOrderRequest struct {
	Items           []orderItemRequest `json:"items" binding:"required,min=1,dive"`
	DeliveryAddress string             `json:"delivery_address" binding:"max=500"`
	PhoneNumber     string             `json:"phone_number" binding:"max=20"`
	TotalAmount     *decimal.Decimal   `json:"total_amount"`
}

// CreateOrder places an order for the authenticated caller.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var body createOrderRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	input := services.CreateOrderInput{
		Items:           make([]services.OrderLineInput, 0, len(body.Items)),
		DeliveryAddress: body.DeliveryAddress,
		PhoneNumber:     body.PhoneNumber,
		TotalAmount:     body.TotalAmount,
	}
	for _, item := range body.Items {
		input.Items = append(input.Items, services.OrderLineInput{MenuItemID: item.MenuItemID, Quantity: item.Quantity})
	}

	order, err := oc.Orders.CreateOrder(c.Request.Context(), input, principal)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

func (oc *OrderController) GetMyOrders(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	orders, err := oc.Orders.ListOwnOrders(c.Request.Context(), principal)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := oc.Orders.GetOrder(c.Request.Context(), id, principal)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// UpdateOrderStatus accepts {"status": "..."} in any letter case.
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.UpdateStatus(c.Request.Context(), id, body.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}
