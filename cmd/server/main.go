package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"railbook/internal/booking"
	"railbook/internal/config"
	"railbook/internal/database"
	"railbook/internal/handler"
	"railbook/internal/middleware"
	"railbook/internal/queue"
	"railbook/internal/repository"
	"railbook/internal/router"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBMaxOpen, cfg.DBMaxIdle)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories share the one pooled handle.
	stations := repository.NewStationRepo(db)
	routes := repository.NewRouteRepo(db)
	trains := repository.NewTrainRepo(db)
	schedules := repository.NewScheduleRepo(db)
	reservations := repository.NewReservationRepo(db)
	payments := repository.NewPaymentRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	svc := booking.NewService(schedules, reservations, payments)

	e := echo.New()
	e.HideBanner = true

	// Redis is optional; rate limiting and response caching degrade to
	// pass-through when it is not reachable.
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	}
	var cacheMW echo.MiddlewareFunc
	if rdb != nil {
		cacheMW = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	}

	timeout := cfg.StorageTimeout

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewPublicHandler(stations, routes, schedules, svc, timeout), cacheMW)
	router.RegisterPassenger(e,
		handler.NewPassengerReservationHandler(svc, reservations, timeout, cfg.AMQPURL),
		handler.NewPassengerPaymentHandler(svc, payments, timeout, cfg.AMQPURL),
		cfg.JWTSecret)
	router.RegisterAdmin(e, router.AdminHandlers{
		Stations:     handler.NewAdminStationHandler(stations, timeout),
		Routes:       handler.NewAdminRouteHandler(routes, timeout),
		Trains:       handler.NewAdminTrainHandler(trains, routes, timeout),
		Schedules:    handler.NewAdminScheduleHandler(schedules, stations, timeout),
		Reservations: handler.NewAdminReservationHandler(svc, reservations, timeout, cfg.AMQPURL),
		Payments:     handler.NewAdminPaymentHandler(svc, timeout, cfg.AMQPURL),
		Reports:      handler.NewAdminReportHandler(reservations, schedules, timeout),
		Users:        handler.NewAdminUserHandler(users, tokens, timeout),
	}, cfg.JWTSecret)

	// The audit consumer reconnects forever in the background; the server
	// does not depend on the broker being up.
	go queue.StartAuditConsumer(cfg.AMQPURL)

	go func() {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
