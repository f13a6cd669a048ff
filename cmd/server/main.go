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

	"github.com/littlelemon/restaurant-api/internal/checkout"
	"github.com/littlelemon/restaurant-api/internal/config"
	"github.com/littlelemon/restaurant-api/internal/es"
	"github.com/littlelemon/restaurant-api/internal/handlers"
	"github.com/littlelemon/restaurant-api/internal/handlers/cart"
	"github.com/littlelemon/restaurant-api/internal/handlers/order"
	"github.com/littlelemon/restaurant-api/internal/logging"
	authmw "github.com/littlelemon/restaurant-api/internal/middleware/auth"
	loggingmw "github.com/littlelemon/restaurant-api/internal/middleware/logging"
	"github.com/littlelemon/restaurant-api/internal/mykafka"
	httpserver "github.com/littlelemon/restaurant-api/internal/transport/http"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	jwtSecret := []byte(cfg.JWT_SECRET)

	var prod *mykafka.Producer
	if cfg.KAFKA_ADDRESS != "" {
		prod = mykafka.NewProducer([]string{cfg.KAFKA_ADDRESS})
	}

	var searchHandler *handlers.SearchHandler
	if cfg.ES_URL != "" {
		esClient, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init failed: %v", err)
		}
		searchHandler = handlers.NewSearchHandler(esClient, "menu_items")
	}

	l := logging.New(cfg.LOG_LEVEL)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(l))

	deps := httpserver.Deps{
		DB:            db,
		AuthMW:        &authmw.Middleware{DB: db, JWTSecret: jwtSecret},
		AuthHandler:   &handlers.AuthHandler{DB: db, JWTSecret: jwtSecret, Producer: prod},
		MenuHandler:   &handlers.MenuHandler{DB: db, Producer: prod},
		ManagerRoster: handlers.NewManagerRoster(db),
		CrewRoster:    handlers.NewDeliveryCrewRoster(db),
		CartHandler:   &cart.CartHandler{DB: db, Producer: prod},
		OrderHandler:  &order.OrderHandler{DB: db, Checkout: &checkout.Service{DB: db}, Producer: prod},
		SearchHandler: searchHandler,
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         cfg.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
