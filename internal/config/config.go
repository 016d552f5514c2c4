// Package config loads application settings from the environment, with an
// optional .env file for development.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full application configuration.
type Config struct {
	Port        string   `env:"PORT" envDefault:"8080"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string   `env:"LOG_FORMAT" envDefault:"json"`
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	Database DatabaseConfig
	Identity IdentityConfig
	Billing  BillingConfig
	FX       FXConfig
	App      AppConfig
}

// DatabaseConfig is the PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"resellingtracker"`
	Password string `env:"DB_PASSWORD" envDefault:"resellingtracker"`
	Name     string `env:"DB_NAME" envDefault:"resellingtracker"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// IdentityConfig configures validation of identity-provider session tokens.
type IdentityConfig struct {
	JWTSecret string `env:"IDENTITY_JWT_SECRET,required"`
}

// BillingConfig configures the payment provider client and webhook endpoint.
type BillingConfig struct {
	BaseAPIURL      string `env:"BILLING_BASE_API_URL" envDefault:"https://api.billing.example.com"`
	APIKey          string `env:"BILLING_API_KEY,required"`
	WebhookSecret   string `env:"BILLING_WEBHOOK_SECRET,required"`
	MonthlyPriceID  string `env:"BILLING_MONTHLY_PRICE_ID"`
	YearlyPriceID   string `env:"BILLING_YEARLY_PRICE_ID"`
	TrialPricePence int64  `env:"BILLING_TRIAL_PRICE_PENCE" envDefault:"100"`
	TrialCurrency   string `env:"BILLING_TRIAL_CURRENCY" envDefault:"GBP"`
}

// FXConfig configures the exchange-rate provider.
type FXConfig struct {
	BaseURL string `env:"FX_BASE_URL" envDefault:"https://open.er-api.com"`
}

// AppConfig holds frontend URLs the API redirects to.
type AppConfig struct {
	BaseURL          string `env:"APP_BASE_URL" envDefault:"http://localhost:3000"`
	PlanSelectionURL string `env:"APP_PLAN_SELECTION_URL" envDefault:"http://localhost:3000/plans"`
	CheckoutSuccess  string `env:"APP_CHECKOUT_SUCCESS_URL" envDefault:"http://localhost:3000/billing/success"`
	CheckoutCancel   string `env:"APP_CHECKOUT_CANCEL_URL" envDefault:"http://localhost:3000/plans"`
	PortalReturn     string `env:"APP_PORTAL_RETURN_URL" envDefault:"http://localhost:3000/account"`
}

// Load reads configuration from the environment. A missing .env file is not
// an error; missing required variables are.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// DSN renders the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}
