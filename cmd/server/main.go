package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tims-exe/secure-chat/internal/bus"
	"github.com/tims-exe/secure-chat/internal/config"
	"github.com/tims-exe/secure-chat/internal/handlers"
	httpx "github.com/tims-exe/secure-chat/internal/http"
	"github.com/tims-exe/secure-chat/internal/repo"
	"github.com/tims-exe/secure-chat/internal/service"
)

func main() {
	cfg := config.Load()

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	log.Println("connected to redis")

	rr := repo.NewRedisRoomRepo(rdb)
	eventBus := bus.NewRedisBus(rdb)

	roomSvc := service.NewRoomService(rr, eventBus, cfg.RoomTTL)
	admissionSvc := service.NewAdmissionService(rr)
	keySvc := service.NewKeyExchangeService(rr, eventBus)
	msgSvc := service.NewMessageService(rr, eventBus)

	gate := handlers.NewAdmissionGate(admissionSvc, cfg.CookieSecure)
	originCheck := wsOriginCheck(cfg.AllowedOrigins)
	router := httpx.NewRouter(
		handlers.NewRoomHandler(roomSvc),
		handlers.NewKeyHandler(keySvc),
		handlers.NewMessageHandler(msgSvc),
		handlers.NewWebSocketHandler(eventBus, originCheck),
		gate,
		cfg.AllowedOrigins,
	)

	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("listening on %s", cfg.APIAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-sigChan
	log.Println("shutdown signal received, shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	log.Println("server stopped")
}

// wsOriginCheck accepts websocket upgrades from the configured origins.
// Same-origin requests carry no Origin header worth rejecting.
func wsOriginCheck(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
