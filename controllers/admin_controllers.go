package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type AdminController struct {
	Stats  *services.StatsService
	Orders *services.OrderService
}

func NewAdminController(stats *services.StatsService, orders *services.OrderService) *AdminController {
	return &AdminController{Stats: stats, Orders: orders}
}

func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	stats, err := ac.Stats.Stats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", stats)
}

// GetRecentOrders reads ?limit=, defaulting to five.
func (ac *AdminController) GetRecentOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultRecentOrders)))

	orders, err := ac.Stats.RecentOrders(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Recent orders", orders)
}

// GetAllOrders pages with ?limit= and ?offset=; no limit returns everything.
func (ac *AdminController) GetAllOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	orders, err := ac.Orders.ListAll(c.Request.Context(), limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

func (ac *AdminController) DeleteOrder(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	if err := ac.Orders.DeleteOrder(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order deleted", nil)
}
