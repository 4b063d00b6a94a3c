package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"budget/internal/core"
)

const (
	// EnvPrefix is stripped from environment keys before they are mapped
	// onto the config tree (BUDGET_HTTP_PORT -> http.port).
	EnvPrefix = "BUDGET_"
	// PathEnv names the YAML file to load.
	PathEnv     = "BUDGET_CONFIG"
	DefaultPath = "config.yaml"
)

type Config struct {
	HTTP   HTTP     `koanf:"http"`
	DB     Database `koanf:"db"`
	AMQP   AMQP     `koanf:"amqp"`
	Sheets Sheets   `koanf:"sheets"`
	Worker Worker   `koanf:"worker"`
	Budget Budget   `koanf:"budget"`
	Cache  Cache    `koanf:"cache"`
	Log    Log      `koanf:"log"`
}

type HTTP struct {
	Port string `koanf:"port"`
	// RateLimit is the number of POST requests a client may make per minute.
	RateLimit int `koanf:"ratelimit"`
}

type Database struct {
	Backend string `koanf:"backend"`
	Path    string `koanf:"path"`
}

type AMQP struct {
	URL      string `koanf:"url"`
	Exchange string `koanf:"exchange"`
	Queue    string `koanf:"queue"`
}

// Sheets configures the Google Sheets ledger export. Export is disabled
// when SpreadsheetID is empty.
type Sheets struct {
	SpreadsheetID   string `koanf:"spreadsheetid"`
	SheetName       string `koanf:"sheetname"`
	CredentialsFile string `koanf:"credentialsfile"`
	CredentialsJSON string `koanf:"credentialsjson"`
	TokenFile       string `koanf:"tokenfile"`
}

type Worker struct {
	Prefetch int           `koanf:"prefetch"`
	Interval time.Duration `koanf:"interval"`
}

type Budget struct {
	Currency string `koanf:"currency"`
	Periods  int    `koanf:"periods"`
	// PayAnchor is a known payday (YYYY-MM-DD). Periods and the salary
	// forecast are aligned on it; empty means today.
	PayAnchor string `koanf:"payanchor"`
	Horizon   int    `koanf:"horizon"`
}

type Cache struct {
	Size int           `koanf:"size"`
	TTL  time.Duration `koanf:"ttl"`
}

type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		HTTP: HTTP{Port: "8081", RateLimit: 60},
		DB:   Database{Backend: "sqlite", Path: "./data/budget.db"},
		AMQP: AMQP{
			Exchange: "budget",
			Queue:    "ledger_export",
		},
		Sheets: Sheets{SheetName: "Ledger"},
		Worker: Worker{Prefetch: 10, Interval: 30 * time.Second},
		Budget: Budget{
			Currency: core.DefaultCurrency,
			Periods:  core.DefaultPeriodCount,
			Horizon:  core.MaterializeHorizonDays,
		},
		Cache: Cache{Size: 64, TTL: 5 * time.Minute},
		Log:   Log{Level: "info", Format: "text"},
	}
}

// Load layers struct defaults, the optional YAML file at path and the
// BUDGET_ environment. A missing file is not an error. The unprefixed
// variables used by hosting platforms (PORT, DATA_BACKEND, ...) are
// applied last.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, EnvPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyPlatformEnv()
	return &cfg, nil
}

// PathFromEnv returns the config file named by BUDGET_CONFIG or the default.
func PathFromEnv() string {
	return getEnv(PathEnv, DefaultPath)
}

func (c *Config) applyPlatformEnv() {
	c.HTTP.Port = getEnv("PORT", c.HTTP.Port)
	c.DB.Backend = getEnv("DATA_BACKEND", c.DB.Backend)
	c.DB.Path = getEnv("SQLITE_DB_PATH", c.DB.Path)
	c.AMQP.URL = getEnv("AMQP_URL", c.AMQP.URL)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Worker.Interval = getEnvDuration("SYNC_INTERVAL", c.Worker.Interval)
	c.Worker.Prefetch = getEnvInt("SYNC_BATCH_SIZE", c.Worker.Prefetch)
}

// ExportEnabled reports whether ledger rows should be exported to Sheets.
func (c *Config) ExportEnabled() bool {
	return c.Sheets.SpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.HTTP.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.HTTP.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.HTTP.RateLimit < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.HTTP.RateLimit))
	}

	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DB.Backend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DB.Backend, validBackends))
	}

	if c.DB.Backend == "sqlite" {
		if c.DB.Path == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.DB.Path)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.AMQP.URL != "" {
		if parsedURL, err := url.Parse(c.AMQP.URL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQP.URL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQP.Exchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQP.Queue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ExportEnabled() {
		if c.Sheets.SheetName == "" {
			errs = append(errs, "sheet name is required when a spreadsheet ID is set")
		}
		hasFile := c.Sheets.CredentialsFile != ""
		hasJSON := c.Sheets.CredentialsJSON != ""
		if !hasFile && !hasJSON {
			errs = append(errs, "either sheets.credentialsfile or sheets.credentialsjson must be provided for ledger export")
		}
		if hasFile {
			if _, err := os.Stat(c.Sheets.CredentialsFile); os.IsNotExist(err) {
				errs = append(errs, fmt.Sprintf("Google credentials file does not exist: %s", c.Sheets.CredentialsFile))
			}
		}
	}

	if c.Worker.Prefetch < 1 {
		errs = append(errs, fmt.Sprintf("invalid worker prefetch %d: must be at least 1", c.Worker.Prefetch))
	} else if c.Worker.Prefetch > 1000 {
		errs = append(errs, fmt.Sprintf("invalid worker prefetch %d: must be at most 1000", c.Worker.Prefetch))
	}

	if c.Worker.Interval < time.Second {
		errs = append(errs, fmt.Sprintf("invalid worker interval %v: must be at least 1 second", c.Worker.Interval))
	} else if c.Worker.Interval > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid worker interval %v: must be at most 24 hours", c.Worker.Interval))
	}

	if money.GetCurrency(c.Budget.Currency) == nil {
		errs = append(errs, fmt.Sprintf("unknown currency '%s'", c.Budget.Currency))
	}
	if c.Budget.Periods < 1 || c.Budget.Periods > 52 {
		errs = append(errs, fmt.Sprintf("invalid periods count %d: must be between 1 and 52", c.Budget.Periods))
	}
	if c.Budget.Horizon < 1 {
		errs = append(errs, fmt.Sprintf("invalid materialize horizon %d: must be at least 1 day", c.Budget.Horizon))
	}
	if c.Budget.PayAnchor != "" {
		if _, err := core.ParseDate(c.Budget.PayAnchor); err != nil {
			errs = append(errs, fmt.Sprintf("invalid pay anchor '%s': must be YYYY-MM-DD", c.Budget.PayAnchor))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

// PayAnchorDate returns the configured pay anchor, or today when unset.
func (c *Config) PayAnchorDate(now time.Time) core.Date {
	if d, err := core.ParseDate(c.Budget.PayAnchor); err == nil {
		return d
	}
	return core.DateOf(now)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
