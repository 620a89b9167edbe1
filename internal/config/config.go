// Package config loads the store's settings from environment variables.
//
// Every key has a default; a key that is set but cannot be parsed is an
// error rather than a silent fallback. Load reports all problems at once.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
)

// Supported storage engines.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// CORSConfig lists the browser origins allowed to call the admin API.
type CORSConfig struct {
	AllowedOrigins []string // CORS_ALLOWED_ORIGINS, comma separated
}

// SecurityConfig controls Strict-Transport-Security.
type SecurityConfig struct {
	EnableHSTS bool          // ENABLE_HSTS
	HSTSMaxAge time.Duration // HSTS_MAX_AGE
}

// DBConfig selects the storage engine.
type DBConfig struct {
	Driver string // DB_DRIVER: sqlite|postgres|mysql
	Path   string // DB_PATH: SQLite file
	DSN    string // DB_DSN: Postgres / MySQL connection string
	LogSQL bool   // DB_LOG_SQL: log every statement at info
}

// ReminderConfig tunes the reminder dispatcher.
type ReminderConfig struct {
	PollInterval   time.Duration // REMINDER_POLL_INTERVAL
	VacuumInterval time.Duration // REMINDER_VACUUM_INTERVAL
	BatchSize      int           // REMINDER_BATCH_SIZE
}

// OTELConfig configures trace export.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT, host:port
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0,1]
}

// Config is the complete runtime configuration.
type Config struct {
	Port              string // PORT
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool
	LogFile   string // rotated log file; empty logs to stdout only

	APIBasePath string
	AdminAPIKey string // empty disables authentication

	DB DBConfig

	RateRPS   float64 // per principal; 0 disables
	RateBurst int

	CORS     CORSConfig
	Security SecurityConfig

	Reminders    ReminderConfig
	DiscordToken string // empty logs reminders instead of sending DMs

	OTEL OTELConfig
}

// Load reads the process environment.
func Load() (Config, error) {
	return LoadFrom(os.LookupEnv)
}

// MustLoad is Load that panics on error.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadFrom reads configuration through lookup, which has the signature of
// os.LookupEnv.
func LoadFrom(lookup func(string) (string, bool)) (Config, error) {
	e := &env{lookup: lookup}

	cfg := Config{
		Port:              e.str("PORT", "8080"),
		ReadTimeout:       e.duration("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: e.duration("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      e.duration("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       e.duration("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    e.integer("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(e.str("GIN_MODE", "release")),

		LogLevel:  strings.ToLower(e.str("LOG_LEVEL", "info")),
		LogPretty: e.boolean("LOG_PRETTY", false),
		LogFile:   e.str("LOG_FILE", ""),

		APIBasePath: normalizeBasePath(e.str("API_BASE_PATH", "/api/v1")),
		AdminAPIKey: e.str("ADMIN_API_KEY", ""),

		DB: DBConfig{
			Driver: strings.ToLower(e.str("DB_DRIVER", DriverSQLite)),
			Path:   e.raw("DB_PATH", "bot.db"),
			DSN:    e.str("DB_DSN", ""),
			LogSQL: e.boolean("DB_LOG_SQL", false),
		},

		RateRPS:   e.decimal("RATE_RPS", 5),
		RateBurst: e.integer("RATE_BURST", 10),

		CORS: CORSConfig{AllowedOrigins: splitCSV(e.str("CORS_ALLOWED_ORIGINS", ""))},
		Security: SecurityConfig{
			EnableHSTS: e.boolean("ENABLE_HSTS", false),
			HSTSMaxAge: e.duration("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		Reminders: ReminderConfig{
			PollInterval:   e.duration("REMINDER_POLL_INTERVAL", 30*time.Second),
			VacuumInterval: e.duration("REMINDER_VACUUM_INTERVAL", time.Hour),
			BatchSize:      e.integer("REMINDER_BATCH_SIZE", 50),
		},
		DiscordToken: e.str("DISCORD_TOKEN", ""),

		OTEL: OTELConfig{
			Enabled:     e.boolean("OTEL_ENABLED", false),
			Endpoint:    e.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    e.boolean("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: e.str("OTEL_SERVICE_NAME", "community-bot-store"),
			SampleRatio: e.decimal("OTEL_TRACES_SAMPLER_ARG", 1),
		},
	}

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	errs := append(e.errs, cfg.validate()...)
	return cfg, errors.Combine(errs...)
}

func (c Config) validate() []error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		errs = append(errs, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"))
	}
	check(c.Port != "", "PORT must not be empty")
	check(c.ReadTimeout > 0 && c.ReadHeaderTimeout > 0 && c.WriteTimeout > 0 && c.IdleTimeout > 0,
		"timeouts must be positive durations")
	check(c.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")
	check(c.RateRPS >= 0, "RATE_RPS must be >= 0")
	check(c.RateBurst >= 1, "RATE_BURST must be >= 1")
	check(c.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")
	check(c.OTEL.SampleRatio >= 0 && c.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")

	if err := c.DB.validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Reminders.validate(); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func (d DBConfig) validate() error {
	switch d.Driver {
	case DriverSQLite:
		if strings.TrimSpace(d.Path) == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case DriverPostgres, DriverMySQL:
		if d.DSN == "" {
			return errors.Errorf("DB_DSN is required for %s", d.Driver)
		}
	default:
		return errors.New("DB_DRIVER must be one of: sqlite, postgres, mysql")
	}
	return nil
}

func (r ReminderConfig) validate() error {
	if r.PollInterval <= 0 || r.VacuumInterval <= 0 {
		return errors.New("reminder intervals must be positive durations")
	}
	if r.BatchSize < 1 {
		return errors.New("REMINDER_BATCH_SIZE must be >= 1")
	}
	return nil
}

// env reads typed values and collects parse errors.
type env struct {
	lookup func(string) (string, bool)
	errs   []error
}

// raw returns the untrimmed value of k, or def when k is unset or empty.
func (e *env) raw(k, def string) string {
	if v, ok := e.lookup(k); ok && v != "" {
		return v
	}
	return def
}

func (e *env) str(k, def string) string {
	if v := strings.TrimSpace(e.raw(k, "")); v != "" {
		return v
	}
	return def
}

func (e *env) bad(k, v, kind string) {
	e.errs = append(e.errs, errors.WithDetails(errors.Errorf("%s: %q is not a valid %s", k, v, kind), "key", k))
}

func (e *env) integer(k string, def int) int {
	v := e.str(k, "")
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.bad(k, v, "integer")
		return def
	}
	return i
}

func (e *env) decimal(k string, def float64) float64 {
	v := e.str(k, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.bad(k, v, "number")
		return def
	}
	return f
}

func (e *env) boolean(k string, def bool) bool {
	v := e.str(k, "")
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	e.bad(k, v, "boolean")
	return def
}

func (e *env) duration(k string, def time.Duration) time.Duration {
	v := e.str(k, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.bad(k, v, "duration")
		return def
	}
	return d
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeBasePath returns p with a leading slash and no trailing slash;
// empty becomes "/".
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
