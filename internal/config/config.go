package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the process configuration, read from the environment. A
// .env file, when present, is loaded by the entrypoint before this runs.
type Config struct {
	Port          string `envconfig:"PORT" default:"8080"`
	MongoURI      string `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGODB_DATABASE" default:"markethub"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	HubBaseURL    string `envconfig:"HUB_BASE_URL" required:"true"`
	HubUsername   string `envconfig:"HUB_USERNAME" required:"true"`
	HubPassword   string `envconfig:"HUB_PASSWORD" required:"true"`
	HubOAuthScope string `envconfig:"HUB_OAUTH_SCOPE"`

	AgencyUsername string `envconfig:"AGENCY_USERNAME"`
	AgencyPassword string `envconfig:"AGENCY_PASSWORD"`

	ERPBaseURL string `envconfig:"ERP_BASE_URL" required:"true"`

	OrderPollInterval       time.Duration `envconfig:"ORDER_POLL_INTERVAL" default:"1m"`
	CatalogSyncInterval     time.Duration `envconfig:"CATALOG_SYNC_INTERVAL" default:"5m"`
	StockSyncInterval       time.Duration `envconfig:"STOCK_SYNC_INTERVAL" default:"10m"`
	CredentialSweepInterval time.Duration `envconfig:"CREDENTIAL_SWEEP_INTERVAL" default:"1h"`
	WebhookDedupTTL         time.Duration `envconfig:"WEBHOOK_DEDUP_TTL" default:"10m"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}
