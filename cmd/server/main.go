package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/swickapp/swick-server/internal/config"
	"github.com/swickapp/swick-server/internal/events"
	"github.com/swickapp/swick-server/internal/handlers"
	"github.com/swickapp/swick-server/internal/identity"
	"github.com/swickapp/swick-server/internal/logging"
	"github.com/swickapp/swick-server/internal/payments"
	"github.com/swickapp/swick-server/internal/realtime"
	"github.com/swickapp/swick-server/internal/repo"
	"github.com/swickapp/swick-server/internal/search"
	"github.com/swickapp/swick-server/internal/service"
	httpserver "github.com/swickapp/swick-server/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(os.Getenv("LOG_LEVEL"))

	db, err := config.InitDB(context.Background(), configuration)
	if err != nil {
		log.Fatalf("db init: %v", err)
	}

	audit := events.NewProducer(
		[]string{configuration.KAFKA_ADDRESS},
		configuration.KAFKA_TOPIC,
		logging.Component(logger, "audit"),
	)

	processor := payments.NewStripeProcessor(configuration.STRIPE_API_KEY)
	publisher := realtime.NewPusherClient(
		configuration.PUSHER_APP_ID,
		configuration.PUSHER_KEY,
		configuration.PUSHER_SECRET,
		configuration.PUSHER_CLUSTER,
	)
	notifier := realtime.NewNotifier(publisher, logging.Component(logger, "realtime"))

	orders := &repo.OrderRepo{DB: db}
	menu := &repo.MenuRepo{DB: db}
	accounts := &repo.AccountRepo{DB: db}
	requests := &repo.RequestRepo{DB: db}

	coordinator := payments.NewCoordinator(
		processor, orders, configuration.LiveMode(),
		logging.Component(logger, "payments"),
	)

	orderService := &service.OrderService{
		Orders:      orders,
		Menu:        menu,
		Accounts:    accounts,
		Requests:    requests,
		Coordinator: coordinator,
		Processor:   processor,
		Notifier:    notifier,
		Audit:       audit,
		Log:         logging.Component(logger, "orders"),
	}
	serverService := &service.ServerService{
		Orders:    orders,
		Accounts:  accounts,
		Requests:  requests,
		Notifier:  notifier,
		Publisher: publisher,
		Audit:     audit,
		Log:       logging.Component(logger, "servers"),
	}
	restaurantService := &service.RestaurantService{
		Accounts: accounts,
		Log:      logging.Component(logger, "restaurants"),
	}

	searchHandler := &handlers.SearchHandler{
		Index: configuration.ES_MEAL_INDEX,
		Log:   logging.Component(logger, "search"),
	}
	if configuration.ES_URL != "" {
		esClient, err := search.NewClient(configuration.ES_URL, configuration.ES_USER, configuration.ES_PASSWORD)
		if err != nil {
			log.Fatalf("elasticsearch init: %v", err)
		}
		searchHandler.ES = esClient
	} else {
		logger.Warn("ES_URL not set, menu search disabled")
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())

	deps := httpserver.Deps{
		JWTMiddleware:     identity.Middleware([]byte(configuration.JWT_SECRET)),
		CustomerHandler:   &handlers.CustomerHandler{Orders: orderService, Menu: menu, Log: logging.Component(logger, "customer")},
		ServerHandler:     &handlers.ServerHandler{Service: serverService, Log: logging.Component(logger, "server")},
		RestaurantHandler: &handlers.RestaurantHandler{Service: restaurantService, Log: logging.Component(logger, "restaurant")},
		SearchHandler:     searchHandler,
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	logger.Info("listening", "port", configuration.PORT)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := audit.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
