// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	boardapi "github.com/Ftotnem/LIVEBOARD/board/api"
	"github.com/Ftotnem/LIVEBOARD/board/auth"
	"github.com/Ftotnem/LIVEBOARD/board/hub"
	"github.com/Ftotnem/LIVEBOARD/board/leaderboard"
	"github.com/Ftotnem/LIVEBOARD/board/ratelimit"
	"github.com/Ftotnem/LIVEBOARD/board/rollover"
	"github.com/Ftotnem/LIVEBOARD/board/service"
	"github.com/Ftotnem/LIVEBOARD/board/store"
	"github.com/Ftotnem/LIVEBOARD/shared/api"
	"github.com/Ftotnem/LIVEBOARD/shared/clock"
	"github.com/Ftotnem/LIVEBOARD/shared/config"
	mongodbu "github.com/Ftotnem/LIVEBOARD/shared/mongodb"
	redisu "github.com/Ftotnem/LIVEBOARD/shared/redis"
)

func main() {
	// --- 1. Load Configuration ---
	cfg, err := config.LoadBoardServiceConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	loc, err := time.LoadLocation(cfg.RolloverTimezone)
	if err != nil {
		log.Fatalf("Failed to load rollover timezone: %v", err)
	}
	clk := clock.Real()

	// --- 2. Open Storage ---
	var st store.Store
	var ready func(ctx context.Context) error
	switch cfg.StorageBackend {
	case config.StorageMongo:
		mongoClient, err := mongodbu.NewClient(cfg.MongoDBConnStr, cfg.MongoDBDatabase)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				log.Printf("ERROR: Failed to disconnect from MongoDB: %v", err)
			}
			log.Println("Disconnected from MongoDB.")
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		st, err = store.NewMongoStore(ctx, mongoClient, cfg)
		cancel()
		if err != nil {
			log.Fatalf("Failed to initialize MongoDB store: %v", err)
		}
		ready = mongoClient.Ping
	default:
		log.Println("WARN: Using in-memory storage; data is lost on restart.")
		st = store.NewMemoryStore()
	}

	// --- 3. Seed Initial Data ---
	if cfg.SeedFile != "" {
		seed, err := store.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			log.Fatalf("Failed to load seed file: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = store.Seed(ctx, st, seed, clk.Now())
		cancel()
		if err != nil {
			log.Fatalf("Failed to seed data from %s: %v", cfg.SeedFile, err)
		}
	}

	// --- 4. Rate Limiter (Redis when configured) ---
	var limiter ratelimit.Limiter
	var memLimiter *ratelimit.MemoryLimiter
	if len(cfg.RedisAddrs) > 0 {
		redisClient, err := redisu.NewRedisClient(cfg.RedisAddrs, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("ERROR: Error closing Redis client: %v", err)
			}
			log.Println("Redis client closed.")
		}()
		limiter = ratelimit.NewRedis(redisClient, "increment", cfg.RateLimitRequests, cfg.RateLimitWindow, clk)
	} else {
		memLimiter = ratelimit.NewMemory(cfg.RateLimitRequests, cfg.RateLimitWindow, clk)
		limiter = memLimiter
	}

	// --- 5. Initialize Business Logic Services ---
	viewers := hub.New()
	tokens := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL, clk)
	boardService := service.NewLeaderboardService(leaderboard.NewEngine(st), st, viewers, clk)
	authService := service.NewAuthService(st, st, tokens, clk, boardService)
	counterService := service.NewCounterService(authService, st, st, boardService, viewers, clk)
	agentService := service.NewAgentService(st, st, boardService, clk)
	notificationService := service.NewNotificationService(st, viewers, clk, cfg.DefaultNotificationDuration)
	defer notificationService.Close()

	restoreCtx, restoreCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := notificationService.Restore(restoreCtx); err != nil {
		log.Printf("WARN: Failed to restore active notification: %v", err)
	}
	restoreCancel()

	// --- 6. Start Daily Rollover ---
	resetter := rollover.NewResetter(st, boardService, clk, cfg.RolloverCheckInterval, loc)
	if memLimiter != nil {
		resetter.AlsoEvery(memLimiter.Sweep)
	}
	go resetter.Start()
	defer resetter.Stop()

	// --- 7. Setup HTTP Server and Register Routes ---
	handlers := &boardapi.BoardAPIHandlers{
		Auth:           authService,
		Counters:       counterService,
		Agents:         agentService,
		Notifications:  notificationService,
		Board:          boardService,
		Limiter:        limiter,
		Hub:            viewers,
		Ready:          ready,
		WSSendBuffer:   cfg.WSSendBuffer,
		WSPingInterval: cfg.WSPingInterval,
	}
	baseServer := api.NewBaseServer(cfg.ListenAddr, log.Default())
	handlers.RegisterRoutes(baseServer.Router)

	// --- 8. Start HTTP Server ---
	go func() {
		if err := baseServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed to start: %v", err)
		}
	}()

	// --- 9. Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := baseServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: HTTP server graceful shutdown failed: %v", err)
	}
	log.Println("Server gracefully stopped.")
}
