package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/config"
	"github.com/yeremiapane/restaurant-ordering/database"
	"github.com/yeremiapane/restaurant-ordering/hub"
	"github.com/yeremiapane/restaurant-ordering/repository"
	"github.com/yeremiapane/restaurant-ordering/router"
	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type app struct {
	handler http.Handler
	hub     *hub.Hub
	orders  *services.OrderService
	closers []func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}
	utils.InitLogger(cfg.LogLevel)
	utils.ConfigureJWT(cfg.JWTSecret, cfg.JWTTTL)
	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate database: %v", err)
	}
	if cfg.SeedData {
		admin := database.AdminAccount{Username: cfg.AdminUsername, Email: cfg.AdminEmail, Password: cfg.AdminPassword}
		if err := database.Seed(db, admin); err != nil {
			utils.ErrorLogger.Fatalf("Failed to seed database: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, db)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to start: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		utils.InfoLogger.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Errorf("Server shutdown: %v", err)
	}
	a.orders.Wait()
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			utils.ErrorLogger.Errorf("Close: %v", err)
		}
	}
}

// buildApp wires repositories, the notification hub and its optional sinks,
// services and the HTTP router.
func buildApp(ctx context.Context, cfg *config.Config, db *gorm.DB) (*app, error) {
	h := hub.NewHub()
	a := &app{hub: h}

	if cfg.RedisEnabled() {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		relay := hub.NewRedisRelay(client, cfg.RedisChannelPrefix, h)
		if err := relay.Start(ctx); err != nil {
			client.Close()
			return nil, err
		}
		h.AddSink(hub.NewBreakerSink(relay, 5, 30*time.Second))
		a.closers = append(a.closers, relay.Close, client.Close)
	}
	if cfg.KafkaEnabled() {
		sink := hub.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		h.AddSink(hub.NewBreakerSink(sink, 5, 30*time.Second))
		a.closers = append(a.closers, sink.Close)
		utils.InfoLogger.Printf("Streaming order events to kafka topic %s", cfg.KafkaTopic)
	}

	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)
	menuRepo := repository.NewMenuRepository(db)

	stats := services.NewStatsService(orderRepo, nil)
	orders := services.NewOrderService(orderRepo, userRepo, menuRepo, stats, h, services.OrderServiceOptions{
		EnforceTransitions: cfg.EnforceStatusTransitions,
		NotifyTimeout:      cfg.NotifyTimeout,
	})
	payments := services.NewPaymentService(orders, cfg.PaymentKeySecret)

	a.orders = orders
	a.handler = router.SetupRouter(router.Dependencies{
		Config:   cfg,
		Users:    userRepo,
		Menu:     menuRepo,
		Orders:   orders,
		Stats:    stats,
		Payments: payments,
		Hub:      h,
	})
	return a, nil
}
