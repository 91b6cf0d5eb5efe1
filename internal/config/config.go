package config // package config loads application configuration from environment variables

import (
    "errors"
    "fmt"
    "io/fs"
    "strings"
    "time"

    "github.com/caarlos0/env/v11" // env parses environment variables into tagged structs
    "github.com/joho/godotenv"    // godotenv loads a local .env file into the environment
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; fields without a default are required.
type Config struct {
    Env            string        `env:"APP_ENV" envDefault:"dev"`            // application environment (dev, test, prod)
    Port           string        `env:"APP_PORT" envDefault:"8080"`          // HTTP port to listen on
    DBUser         string        `env:"DB_USER,required,notEmpty"`           // database username
    DBPass         string        `env:"DB_PASS"`                             // database password (optional)
    DBHost         string        `env:"DB_HOST,required,notEmpty"`           // database host address
    DBPort         string        `env:"DB_PORT,required,notEmpty"`           // database port number
    DBName         string        `env:"DB_NAME,required,notEmpty"`           // database name
    SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"720h"`       // session lifetime, also the cookie Max-Age
    MigrationToken string        `env:"MIGRATION_TOKEN"`                     // shared secret for POST /migrate
    MigrateOnStart bool          `env:"MIGRATE_ON_START" envDefault:"false"` // apply migrations before serving
    LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`         // debug, info, warn, error
    LogFormat      string        `env:"LOG_FORMAT" envDefault:"json"`        // json or text
}

// IsProduction reports whether the service runs in the prod environment.
func (c Config) IsProduction() bool {
    e := strings.ToLower(c.Env)
    return e == "prod" || e == "production"
}

// AllowAnonymousMigrate decides once, at startup, whether POST /migrate may
// run without a token.  Only non-production deployments allow it.
func (c Config) AllowAnonymousMigrate() bool { return !c.IsProduction() }

// Load reads .env (when present) and the environment into a Config.
// Variables already set in the environment win over .env entries.
func Load() (Config, error) {
    if err := loadDotEnv(); err != nil {
        return Config{}, err
    }
    var cfg Config
    if err := env.Parse(&cfg); err != nil {
        return Config{}, fmt.Errorf("parse config: %w", err)
    }
    return cfg, nil
}

func loadDotEnv() error {
    if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
        return fmt.Errorf("load .env: %w", err)
    }
    return nil
}
