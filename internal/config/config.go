package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	DatabaseURL string        `env:"DATABASE_URL,required"`
	JWTSecret   string        `env:"JWT_SECRET,required"`
	JWTExpiry   time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	Port        int           `env:"PORT" envDefault:"8080"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string        `env:"APP_ENV" envDefault:"production"`

	// InstructorSharePct is the percentage of each payment owed to the
	// instructor. The platform keeps the rest, including rounding cents.
	InstructorSharePct      string `env:"INSTRUCTOR_SHARE_PCT" envDefault:"80"`
	PayoutRequireProcessing bool   `env:"PAYOUT_REQUIRE_PROCESSING" envDefault:"true"`

	ReconcileEnabled  bool          `env:"RECONCILE_ENABLED" envDefault:"true"`
	ReconcileSchedule string        `env:"RECONCILE_SCHEDULE" envDefault:"@every 15m"`
	ReconcileTimeout  time.Duration `env:"RECONCILE_TIMEOUT" envDefault:"2m"`
	IdempotencyPurge  string        `env:"IDEMPOTENCY_PURGE_SCHEDULE" envDefault:"@hourly"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
	DBConnectAttempts  int `env:"DB_CONNECT_ATTEMPTS" envDefault:"30"`
}

// Load reads an optional .env file, then the process environment. Values
// already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config.Load: %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	pct, err := c.InstructorShare()
	if err != nil {
		return err
	}
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("INSTRUCTOR_SHARE_PCT %s must be between 0 and 100", pct)
	}
	if c.DBMaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive")
	}
	return nil
}

func (c *Config) InstructorShare() (decimal.Decimal, error) {
	pct, err := decimal.NewFromString(c.InstructorSharePct)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("INSTRUCTOR_SHARE_PCT %q: %w", c.InstructorSharePct, err)
	}
	return pct, nil
}
