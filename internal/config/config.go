// Package config loads the service configuration from the environment
// so handlers receive it injected instead of reading os.Getenv.
package config

import (
	"github.com/dealglance/lineitems-backend/internal/utils"
)

// Config is everything the server needs from the environment.
type Config struct {
	Port string

	HubSpotClientID     string
	HubSpotClientSecret string
	HubSpotRedirectURI  string

	// SessionSecret signs the widget session JWT issued at callback.
	SessionSecret string
	// WebhookSecret verifies inbound webhook signatures.
	WebhookSecret string

	// DatabaseURL selects the Postgres token store when set.
	DatabaseURL string
	// RedisAddr selects the Redis token store when set (and no
	// DatabaseURL is configured).
	RedisAddr     string
	RedisPassword string
}

// Load reads configuration with development defaults where safe.
// Credentials have no defaults.
func Load() *Config {
	return &Config{
		Port:                utils.GetEnv("PORT", "8080"),
		HubSpotClientID:     utils.GetEnv("HUBSPOT_CLIENT_ID", ""),
		HubSpotClientSecret: utils.GetEnv("HUBSPOT_CLIENT_SECRET", ""),
		HubSpotRedirectURI:  utils.GetEnv("HUBSPOT_REDIRECT_URI", "http://localhost:8080/oauth/callback"),
		SessionSecret:       utils.GetEnv("SESSION_SECRET", ""),
		WebhookSecret:       utils.GetEnv("HUBSPOT_WEBHOOK_SECRET", ""),
		DatabaseURL:         utils.GetEnv("DATABASE_URL", ""),
		RedisAddr:           utils.GetEnv("REDIS_ADDR", ""),
		RedisPassword:       utils.GetEnv("REDIS_PASSWORD", ""),
	}
}
