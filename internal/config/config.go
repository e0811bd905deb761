package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries everything the storefront process needs at startup.
// Secrets have no defaults: a missing one is a startup failure, not a
// condition the running service can recover from.
type Config struct {
	HTTPAddr    string
	PostgresDSN string
	RedisAddr   string

	PaymentSecretKey     string
	PaymentWebhookSecret string
	PaymentBaseURL       string

	CheckoutSuccessURL string
	CheckoutCancelURL  string

	AllowedOrigins []string
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func requireenv(k string, missing *[]string) string {
	v := os.Getenv(k)
	if v == "" {
		*missing = append(*missing, k)
	}
	return v
}

func Load() (Config, error) {
	_ = godotenv.Load() // load .env if it exists

	var missing []string
	cfg := Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		PostgresDSN: requireenv("POSTGRES_DSN", &missing),
		RedisAddr:   getenv("REDIS_ADDR", ""),

		PaymentSecretKey:     requireenv("PAYMENT_SECRET_KEY", &missing),
		PaymentWebhookSecret: requireenv("PAYMENT_WEBHOOK_SECRET", &missing),
		PaymentBaseURL:       getenv("PAYMENT_BASE_URL", "https://api.payment.example.com"),

		CheckoutSuccessURL: getenv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/checkout/success"),
		CheckoutCancelURL:  getenv("CHECKOUT_CANCEL_URL", "http://localhost:3000/checkout"),

		AllowedOrigins: strings.Split(getenv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}
