package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/influyo/auth-service/internal/config"
	"github.com/influyo/auth-service/internal/database"
	"github.com/influyo/auth-service/internal/handler"
	"github.com/influyo/auth-service/internal/queue"
	"github.com/influyo/auth-service/internal/repository"
	"github.com/influyo/auth-service/internal/router"
	queue_publisher "github.com/influyo/auth-service/internal/service"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("ensure schema: %v", err)
	}
	cancel()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable: rate limiting and the token denylist are disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	resets := repository.NewResetRepo(db)
	denylist := repository.NewBlacklist(rdb)
	mailer := queue_publisher.New(cfg.AMQPURL)

	a := handler.NewAuthHandler(cfg, users, tokens, resets, denylist, mailer)

	// The mail worker drains the reset queue in the background; the HTTP
	// surface stays up even when the broker is down.
	go func() {
		if err := queue.StartPasswordResetConsumer(cfg.AMQPURL); err != nil {
			log.Printf("reset consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, a, denylist, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
