package config

import "time"

// APIConfig holds runtime configuration for the operator API.
type APIConfig struct {
	Environment         string
	Addr                string
	LogLevel            string
	DatabaseURL         string
	MigrationsDir       string
	JWTSecret           string
	AccessTokenTTL      time.Duration
	RefreshTokenTTL     time.Duration
	AllowSignup         bool
	SessionCookieName   string
	SessionCookieSecure bool
	LogDir              string
	LogChannelName      string
	LogChannelDriver    string
	LogChannelDays      int
	Timezone            string
	FirebaseCredentials string
	FirebaseProjectID   string
	FirebaseTimeout     time.Duration
	FirebaseMaxUsers    int
	RateLimitRedisAddr  string
	RateLimitRedisPass  string
	RateLimitRedisDB    int
	StreamHeartbeat     time.Duration
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:         GetString("APP_ENV", "production"),
		Addr:                GetString("API_ADDR", ":8080"),
		LogLevel:            GetString("LOG_LEVEL", "info"),
		DatabaseURL:         GetString("DATABASE_URL", "postgres://madinia:madinia@db:5432/madinia?sslmode=disable"),
		MigrationsDir:       GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		JWTSecret:           GetString("JWT_SECRET", "supersecuresecret"),
		AccessTokenTTL:      time.Duration(GetInt("ACCESS_TOKEN_TTL_MIN", 120)) * time.Minute,
		RefreshTokenTTL:     time.Duration(GetInt("REFRESH_TOKEN_TTL_HOURS", 24)) * time.Hour,
		AllowSignup:         GetBool("ALLOW_SIGNUP", false),
		SessionCookieName:   GetString("SESSION_COOKIE_NAME", "madinia_session"),
		SessionCookieSecure: GetBool("SESSION_COOKIE_SECURE", true),
		LogDir:              GetString("LOG_DIR", "storage/logs"),
		LogChannelName:      GetString("LOG_CHANNEL_NAME", "firebase"),
		LogChannelDriver:    GetString("LOG_CHANNEL_DRIVER", "daily"),
		LogChannelDays:      GetInt("LOG_CHANNEL_DAYS", 14),
		Timezone:            GetString("APP_TIMEZONE", "UTC"),
		FirebaseCredentials: GetString("FIREBASE_CREDENTIALS", ""),
		FirebaseProjectID:   GetString("FIREBASE_PROJECT", ""),
		FirebaseTimeout:     time.Duration(GetInt("FIREBASE_TIMEOUT_SECONDS", 10)) * time.Second,
		FirebaseMaxUsers:    GetInt("FIREBASE_MAX_USERS", 1000),
		RateLimitRedisAddr:  GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass:  GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:    GetInt("RATE_LIMIT_REDIS_DB", 0),
		StreamHeartbeat:     time.Duration(GetInt("STREAM_HEARTBEAT_SECONDS", 20)) * time.Second,
	}
}

// Location resolves the configured timezone, falling back to UTC.
func (c APIConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
