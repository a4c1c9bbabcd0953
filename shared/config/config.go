// shared/config/config.go
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// CommonConfig holds configuration fields that are shared across binaries.
type CommonConfig struct {
	RedisAddrs    []string // Redis addresses; empty means no Redis (e.g., "redis:6379")
	RedisPassword string   // Redis password for authentication
}

// BoardServiceConfig holds configuration specific to the board-service.
type BoardServiceConfig struct {
	CommonConfig
	ListenAddr  string // Address for the HTTP server (e.g., ":8080")
	ServicePort int    // Numeric port extracted from ListenAddr

	StorageBackend                 string // "mongo" or "memory"
	MongoDBConnStr                 string
	MongoDBDatabase                string
	MongoDBAgentsCollection        string
	MongoDBTeamsCollection         string
	MongoDBUsersCollection         string
	MongoDBNotificationsCollection string
	SeedFile                       string // Optional YAML seed file applied at startup

	TokenSecret string        // HMAC secret for bearer tokens
	TokenTTL    time.Duration // Lifetime of issued tokens

	DefaultNotificationDuration time.Duration // Used when a pushed notification has no duration

	RateLimitRequests int           // Max one-shot mutations per caller per window
	RateLimitWindow   time.Duration // Sliding window length

	RolloverCheckInterval time.Duration // How often the daily submission reset runs
	RolloverTimezone      string        // IANA zone deciding where "today" starts

	WSSendBuffer   int           // Queued events per viewer before drops
	WSPingInterval time.Duration // Keepalive ping interval for viewers
}

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

// LoadCommonConfig loads common configuration from environment variables.
func LoadCommonConfig() (CommonConfig, error) {
	cfg := CommonConfig{}

	if redisAddrsStr := os.Getenv("REDIS_ADDRS"); redisAddrsStr != "" {
		for _, addr := range strings.Split(redisAddrsStr, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				cfg.RedisAddrs = append(cfg.RedisAddrs, addr)
			}
		}
	}
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	return cfg, nil
}

// Helper function to read a string from an environment variable with a default
func getString(envKey, defaultVal string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultVal
}

// Helper function to parse duration from environment variable
func getDuration(envKey string, defaultVal time.Duration) (time.Duration, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format for %s: %w", envKey, err)
	}
	return d, nil
}

// Helper function to parse int from environment variable
func getInt(envKey string, defaultVal int) (int, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer format for %s: %w", envKey, err)
	}
	return i, nil
}

// extractPort extracts the numeric port from a listen address (e.g., ":8080" -> 8080, "0.0.0.0:8080" -> 8080)
func extractPort(listenAddr string) (int, error) {
	_, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		if strings.HasPrefix(listenAddr, ":") {
			portStr = strings.TrimPrefix(listenAddr, ":")
		} else {
			return 0, fmt.Errorf("invalid ListenAddr format for port extraction: %w", err)
		}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number '%s': %w", portStr, err)
	}
	return port, nil
}

// LoadBoardServiceConfig loads configuration for the board-service.
func LoadBoardServiceConfig() (*BoardServiceConfig, error) {
	common, err := LoadCommonConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load common config for board-service: %w", err)
	}

	cfg := &BoardServiceConfig{
		CommonConfig:                   common,
		ListenAddr:                     getString("BOARD_LISTEN_ADDR", ":8080"),
		StorageBackend:                 getString("STORAGE_BACKEND", StorageMongo),
		MongoDBConnStr:                 getString("MONGODB_CONN_STR", "mongodb://mongodb-service:27017"),
		MongoDBDatabase:                getString("MONGODB_DATABASE", "liveboard"),
		MongoDBAgentsCollection:        getString("MONGODB_AGENTS_COLLECTION", "agents"),
		MongoDBTeamsCollection:         getString("MONGODB_TEAMS_COLLECTION", "teams"),
		MongoDBUsersCollection:         getString("MONGODB_USERS_COLLECTION", "users"),
		MongoDBNotificationsCollection: getString("MONGODB_NOTIFICATIONS_COLLECTION", "notifications"),
		SeedFile:                       os.Getenv("SEED_FILE"),
		TokenSecret:                    os.Getenv("TOKEN_SECRET"),
		RolloverTimezone:               getString("ROLLOVER_TIMEZONE", "UTC"),
	}

	if cfg.StorageBackend != StorageMongo && cfg.StorageBackend != StorageMemory {
		return nil, fmt.Errorf("STORAGE_BACKEND must be %q or %q (got %q)", StorageMongo, StorageMemory, cfg.StorageBackend)
	}
	if cfg.TokenSecret == "" {
		cfg.TokenSecret = "dev-secret-change-me"
		fmt.Println("WARNING: TOKEN_SECRET not set, using an insecure development secret")
	}

	cfg.ServicePort, err = extractPort(cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to extract port from BOARD_LISTEN_ADDR '%s': %w", cfg.ListenAddr, err)
	}

	// Durations
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.DefaultNotificationDuration, err = getDuration("DEFAULT_NOTIFICATION_DURATION", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = getDuration("RATE_LIMIT_WINDOW", time.Second); err != nil {
		return nil, err
	}
	if cfg.RolloverCheckInterval, err = getDuration("ROLLOVER_CHECK_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.WSPingInterval, err = getDuration("WS_PING_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}

	if cfg.RateLimitRequests, err = getInt("RATE_LIMIT_REQUESTS", 10); err != nil {
		return nil, err
	}
	if cfg.WSSendBuffer, err = getInt("WS_SEND_BUFFER", 64); err != nil {
		return nil, err
	}

	// Final validation
	if cfg.RateLimitRequests <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_REQUESTS must be a positive integer (got %d)", cfg.RateLimitRequests)
	}
	if cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW must be positive (got %v)", cfg.RateLimitWindow)
	}
	if cfg.DefaultNotificationDuration <= 0 || cfg.DefaultNotificationDuration > 24*time.Hour {
		return nil, fmt.Errorf("DEFAULT_NOTIFICATION_DURATION must be between 1ms and 24h (got %v)", cfg.DefaultNotificationDuration)
	}
	if cfg.WSSendBuffer <= 0 {
		return nil, fmt.Errorf("WS_SEND_BUFFER must be a positive integer (got %d)", cfg.WSSendBuffer)
	}
	if cfg.RolloverCheckInterval <= 0 || cfg.WSPingInterval <= 0 {
		return nil, fmt.Errorf("ROLLOVER_CHECK_INTERVAL and WS_PING_INTERVAL must be positive")
	}
	if _, err := time.LoadLocation(cfg.RolloverTimezone); err != nil {
		return nil, fmt.Errorf("invalid ROLLOVER_TIMEZONE %q: %w", cfg.RolloverTimezone, err)
	}

	return cfg, nil
}
