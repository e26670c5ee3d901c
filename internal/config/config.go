package config

import (
	"os"
	"strconv"

	"mines_arena/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	JWTSecret   string

	// Sharding: this instance's public identity for redirects
	MachineID string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	NotaryURL string
	NotaryKey string

	// Game limits
	MaxBet           int64
	MinBet           int64
	PlayerRateLimit  int
	PlayerRateWindow int

	// Session clocks, seconds
	MoveTimeoutSeconds int
	LockTimeoutSeconds int
	WaitTimeoutSeconds int
}

// Load reads the config from env, .env included.
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	machineID := os.Getenv("MACHINE_ID")
	if machineID == "" {
		if host, err := os.Hostname(); err == nil {
			machineID = host
		} else {
			machineID = "local"
		}
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	maxBet := int64(100000)
	if v := os.Getenv("MAX_BET"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxBet = n
		}
	}

	minBet := int64(10)
	if v := os.Getenv("MIN_BET"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			minBet = n
		}
	}

	playerRateLimit := 60
	if v := os.Getenv("PLAYER_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			playerRateLimit = n
		}
	}

	playerRateWindow := 60
	if v := os.Getenv("PLAYER_RATE_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			playerRateWindow = n
		}
	}

	return &Config{
		AppPort:            port,
		DatabaseURL:        dbURL,
		JWTSecret:          jwtSecret,
		MachineID:          machineID,
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            redisDB,
		NotaryURL:          os.Getenv("NOTARY_URL"),
		NotaryKey:          os.Getenv("NOTARY_API_KEY"),
		MaxBet:             maxBet,
		MinBet:             minBet,
		PlayerRateLimit:    playerRateLimit,
		PlayerRateWindow:   playerRateWindow,
		MoveTimeoutSeconds: intEnv("MOVE_TIMEOUT_SECONDS", 30),
		LockTimeoutSeconds: intEnv("LOCK_TIMEOUT_SECONDS", 5),
		WaitTimeoutSeconds: intEnv("WAIT_TIMEOUT_SECONDS", 50),
	}
}

func intEnv(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
