package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store backend selectors.
const (
	BackendMongo    = "mongo"
	BackendCrudCrud = "crudcrud"
)

// Config holds runtime configuration for both the API server and the worker.
type Config struct {
	AppEnv  string `envconfig:"APP_ENV" default:"development"`
	AppAddr string `envconfig:"APP_ADDR" default:":8080"`

	// JWTSecret signs bearer credentials. There is deliberately no default:
	// the process must not come up with a guessable signing key.
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	StoreBackend string `envconfig:"STORE_BACKEND" default:"mongo"`

	MongoURI string `envconfig:"MONGODB_URI"`
	DBName   string `envconfig:"DB_NAME" default:"userflow"`

	CrudCrudBaseURL string `envconfig:"CRUDCRUD_BASE_URL" default:"https://crudcrud.com/api"`
	CrudCrudAPIKey  string `envconfig:"CRUDCRUD_API_KEY"`

	RedisAddr          string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	TaskQueue          string        `envconfig:"TASK_QUEUE" default:"user-profile"`
	ProfileUpdateDelay time.Duration `envconfig:"PROFILE_UPDATE_DELAY" default:"10s"`
	ActivityTimeout    time.Duration `envconfig:"ACTIVITY_TIMEOUT" default:"30s"`
	RunRetention       time.Duration `envconfig:"RUN_RETENTION" default:"24h"`
	WorkerConcurrency  int           `envconfig:"WORKER_CONCURRENCY" default:"5"`

	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `envconfig:"GOOGLE_REDIRECT_URL"`
	FrontendURL        string `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`

	ResendAPIKey string `envconfig:"RESEND_API_KEY"`
	FromEmail    string `envconfig:"FROM_EMAIL" default:"no-reply@userflow.local"`
}

// Load reads configuration from environment variables and validates that the
// pieces required by the selected store backend are present.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	switch cfg.StoreBackend {
	case BackendMongo:
		if cfg.MongoURI == "" {
			return nil, errors.New("MONGODB_URI is required when STORE_BACKEND=mongo")
		}
	case BackendCrudCrud:
		if cfg.CrudCrudAPIKey == "" {
			return nil, errors.New("CRUDCRUD_API_KEY is required when STORE_BACKEND=crudcrud")
		}
	default:
		return nil, errors.New("STORE_BACKEND must be mongo or crudcrud")
	}
	return &cfg, nil
}

// OAuthEnabled reports whether the Google login flow is configured.
func (c *Config) OAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
