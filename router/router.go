package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeremiapane/restaurant-ordering/config"
	"github.com/yeremiapane/restaurant-ordering/controllers"
	"github.com/yeremiapane/restaurant-ordering/hub"
	"github.com/yeremiapane/restaurant-ordering/middlewares"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/repository"
	"github.com/yeremiapane/restaurant-ordering/services"
)

type Dependencies struct {
	Config   *config.Config
	Users    repository.UserRepository
	Menu     repository.MenuRepository
	Orders   *services.OrderService
	Stats    *services.StatsService
	Payments *services.PaymentService
	Hub      *hub.Hub
}

func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.MetricsMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))

	userCtrl := controllers.NewUserController(deps.Users, deps.Orders)
	menuCtrl := controllers.NewMenuController(deps.Menu)
	orderCtrl := controllers.NewOrderController(deps.Orders)
	paymentCtrl := controllers.NewPaymentController(deps.Payments)
	adminCtrl := controllers.NewAdminController(deps.Stats, deps.Orders)
	realtimeCtrl := controllers.NewRealtimeController(deps.Hub, cfg.AllowedOrigins)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// websocket clients reconnect often, keep them off the request limiter
	r.GET("/ws", middlewares.AuthMiddleware(), realtimeCtrl.Subscribe)

	api := r.Group("/")
	api.Use(middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).RateLimit())

	auth := api.Group("/auth")
	auth.Use(middlewares.NewStrictRateLimiter().RateLimit())
	{
		auth.POST("/register", userCtrl.Register)
		auth.POST("/login", userCtrl.Login)
	}

	menu := api.Group("/menu")
	{
		menu.GET("", menuCtrl.GetMenu)
		menu.GET("/category/:category", menuCtrl.GetMenuByCategory)
		menu.GET("/:id", menuCtrl.GetMenuItem)
	}

	authed := api.Group("/")
	authed.Use(middlewares.AuthMiddleware())
	{
		authed.GET("/users/me", userCtrl.GetProfile)

		authed.POST("/orders", orderCtrl.CreateOrder)
		authed.GET("/orders/my", orderCtrl.GetMyOrders)
		authed.GET("/orders/:id", orderCtrl.GetOrderByID)
		authed.PATCH("/orders/:id/status", middlewares.RequireRole(models.RoleAdmin), orderCtrl.UpdateOrderStatus)

		authed.POST("/payments/verify", paymentCtrl.VerifyPayment)
	}

	admin := api.Group("/admin")
	admin.Use(middlewares.AuthMiddleware(), middlewares.RequireRole(models.RoleAdmin))
	{
		admin.GET("/stats", adminCtrl.GetDashboardStats)
		admin.GET("/orders", adminCtrl.GetAllOrders)
		admin.GET("/orders/recent", adminCtrl.GetRecentOrders)
		admin.DELETE("/orders/:id", adminCtrl.DeleteOrder)
	}

	return r
}
