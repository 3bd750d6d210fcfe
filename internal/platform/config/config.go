package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	JWTSigningKey string
	TokenCookie   string
	TokenTTL      time.Duration

	SMTPAddr          string
	MailFrom          string
	FallbackRecipient string

	BoardCacheTTL time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("TASKHUB_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	tokenCookie := os.Getenv("JWT_COOKIE_NAME")
	if tokenCookie == "" {
		tokenCookie = "taskhub_token"
	}

	mailFrom := os.Getenv("MAIL_FROM")
	if mailFrom == "" {
		mailFrom = "no-reply@example.com"
	}
	fallback := os.Getenv("MAIL_FALLBACK_RECIPIENT")
	if fallback == "" {
		fallback = "tmstest@example.com"
	}

	return Server{
		Addr:              addr,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		JWTSigningKey:     jwtSigningKey,
		TokenCookie:       tokenCookie,
		TokenTTL:          durationFromEnv("JWT_TTL_HOURS", 24) * time.Hour,
		SMTPAddr:          os.Getenv("SMTP_ADDR"),
		MailFrom:          mailFrom,
		FallbackRecipient: fallback,
		BoardCacheTTL:     durationFromEnv("BOARD_CACHE_TTL_SECONDS", 30) * time.Second,
		// The write timeout sits above the router's 30s handler timeout
		// so in-flight handlers time out first and can still write a
		// response.
		HTTPReadTimeout:  durationFromEnv("HTTP_READ_TIMEOUT_SECONDS", 15) * time.Second,
		HTTPWriteTimeout: durationFromEnv("HTTP_WRITE_TIMEOUT_SECONDS", 35) * time.Second,
		HTTPIdleTimeout:  durationFromEnv("HTTP_IDLE_TIMEOUT_SECONDS", 60) * time.Second,
	}
}

func durationFromEnv(key string, fallback int) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(fallback)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return time.Duration(fallback)
	}
	return time.Duration(n)
}
