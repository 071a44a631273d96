package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type AppConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type UpstreamConfig struct {
	UsersURL   string
	CoursesURL string
	SearchURL  string
	Timeout    time.Duration
}

type JWTConfig struct {
	// Secret enables HS256 verification of the session token. Empty means
	// claims are decoded without checking the signature.
	Secret string
}

type CookieConfig struct {
	Domain string
	Secure bool
}

type Config struct {
	AppConfig      *AppConfig
	UpstreamConfig *UpstreamConfig
	JWTConfig      *JWTConfig
	CookieConfig   *CookieConfig
}

func LoadConfig(logger *zap.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// a missing .env is fine in containers where env comes from the runtime
		logger.Warn("failed to load .env file", zap.Error(err))
	}

	/** app config */
	port := getenv("APP_PORT", "3000")

	readTimeout, err := parseDuration("APP_READ_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	writeTimeout, err := parseDuration("APP_WRITE_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	idleTimeout, err := parseDuration("APP_IDLE_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}

	appConfig := &AppConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	/** upstream config */
	upstreamTimeout, err := parseDuration("UPSTREAM_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	upstreamConfig := &UpstreamConfig{
		UsersURL:   getenv("USERS_API_URL", "http://users-api:8001"),
		CoursesURL: getenv("COURSES_API_URL", "http://courses-api:8002"),
		SearchURL:  getenv("SEARCH_API_URL", "http://search-api:8003"),
		Timeout:    upstreamTimeout,
	}

	/** jwt config */
	jwtConfig := &JWTConfig{
		Secret: os.Getenv("JWT_SECRET"),
	}

	/** cookie config */
	cookieConfig := &CookieConfig{
		Domain: os.Getenv("COOKIE_DOMAIN"),
		Secure: os.Getenv("COOKIE_SECURE") == "true",
	}

	return &Config{
		AppConfig:      appConfig,
		UpstreamConfig: upstreamConfig,
		JWTConfig:      jwtConfig,
		CookieConfig:   cookieConfig,
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	return time.ParseDuration(v)
}
