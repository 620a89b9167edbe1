package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

// Keys asserted at their defaults must not leak in from the environment.
func TestMain(m *testing.M) {
	for _, k := range []string{
		"PORT", "GIN_MODE", "API_BASE_PATH", "ADMIN_API_KEY", "LOG_FILE",
		"DB_DRIVER", "DB_PATH", "DB_DSN", "DISCORD_TOKEN", "OTEL_ENABLED", "OTEL_SERVICE_NAME",
		"REMINDER_POLL_INTERVAL", "REMINDER_VACUUM_INTERVAL", "REMINDER_BATCH_SIZE",
	} {
		os.Unsetenv(k)
	}
	os.Exit(m.Run())
}

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "8080" || cfg.APIBasePath != "/api/v1" || cfg.GinMode != "release" {
		t.Fatalf("server defaults unexpected: %+v", cfg)
	}
	if cfg.DB.Driver != "sqlite" || cfg.DB.Path != "bot.db" || cfg.DB.DSN != "" {
		t.Fatalf("db defaults unexpected: %+v", cfg.DB)
	}
	if cfg.Reminders.PollInterval != 30*time.Second || cfg.Reminders.VacuumInterval != time.Hour || cfg.Reminders.BatchSize != 50 {
		t.Fatalf("reminder defaults unexpected: %+v", cfg.Reminders)
	}
	if cfg.AdminAPIKey != "" || cfg.DiscordToken != "" || cfg.LogFile != "" {
		t.Fatalf("secrets must default to empty")
	}
	if cfg.OTEL.ServiceName != "community-bot-store" || cfg.OTEL.Enabled {
		t.Fatalf("otel defaults unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_OverridesAndNormalization(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("GIN_MODE", "weird")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("LOG_FILE", " /var/log/bot.log ")
	t.Setenv("API_BASE_PATH", "admin/")
	t.Setenv("ADMIN_API_KEY", " k ")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_DSN", "postgres://bot@db/bot")
	t.Setenv("DB_LOG_SQL", "on")
	t.Setenv("RATE_RPS", "2.5")
	t.Setenv("RATE_BURST", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")
	t.Setenv("REMINDER_POLL_INTERVAL", "5s")
	t.Setenv("REMINDER_VACUUM_INTERVAL", "10m")
	t.Setenv("REMINDER_BATCH_SIZE", "7")
	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "8088" || cfg.ReadTimeout != 2*time.Second || cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty || cfg.LogFile != "/var/log/bot.log" {
		t.Fatalf("logging fields unexpected: %q %v %q", cfg.LogLevel, cfg.LogPretty, cfg.LogFile)
	}
	if cfg.APIBasePath != "/admin" || cfg.AdminAPIKey != "k" {
		t.Fatalf("api fields unexpected: %q %q", cfg.APIBasePath, cfg.AdminAPIKey)
	}
	if cfg.DB != (DBConfig{Driver: "postgres", Path: "bot.db", DSN: "postgres://bot@db/bot", LogSQL: true}) {
		t.Fatalf("db unexpected: %+v", cfg.DB)
	}
	if cfg.RateRPS != 2.5 || cfg.RateBurst != 3 {
		t.Fatalf("rate fields unexpected: %v %d", cfg.RateRPS, cfg.RateBurst)
	}
	if want := []string{"https://a.com", "http://b"}; !reflect.DeepEqual(cfg.CORS.AllowedOrigins, want) {
		t.Fatalf("CORS = %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}
	if cfg.Reminders != (ReminderConfig{PollInterval: 5 * time.Second, VacuumInterval: 10 * time.Minute, BatchSize: 7}) {
		t.Fatalf("reminders unexpected: %+v", cfg.Reminders)
	}
	if cfg.DiscordToken != "tok" || !cfg.OTEL.Enabled || cfg.OTEL.SampleRatio != 0.25 {
		t.Fatalf("discord/otel unexpected: %+v", cfg)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"log level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"timeout", map[string]string{"WRITE_TIMEOUT": "-1s"}, "timeouts"},
		{"header bytes", map[string]string{"MAX_HEADER_BYTES": "0"}, "MAX_HEADER_BYTES"},
		{"driver", map[string]string{"DB_DRIVER": "oracle"}, "DB_DRIVER"},
		{"dsn", map[string]string{"DB_DRIVER": "mysql"}, "DB_DSN"},
		{"db path", map[string]string{"DB_PATH": "   "}, "DB_PATH"},
		{"rps", map[string]string{"RATE_RPS": "-1"}, "RATE_RPS"},
		{"burst", map[string]string{"RATE_BURST": "0"}, "RATE_BURST"},
		{"hsts", map[string]string{"HSTS_MAX_AGE": "-1h"}, "HSTS_MAX_AGE"},
		{"poll", map[string]string{"REMINDER_POLL_INTERVAL": "0s"}, "reminder intervals"},
		{"batch", map[string]string{"REMINDER_BATCH_SIZE": "0"}, "REMINDER_BATCH_SIZE"},
		{"sampler", map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}, "OTEL_TRACES_SAMPLER_ARG"},
		{"unparsable int", map[string]string{"RATE_BURST": "ten"}, `RATE_BURST: "ten" is not a valid integer`},
		{"unparsable float", map[string]string{"RATE_RPS": "x"}, `RATE_RPS: "x" is not a valid number`},
		{"unparsable bool", map[string]string{"LOG_PRETTY": "maybe"}, "LOG_PRETTY"},
		{"unparsable duration", map[string]string{"IDLE_TIMEOUT": "soon"}, "IDLE_TIMEOUT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadFrom_ReportsEveryProblem(t *testing.T) {
	vars := map[string]string{
		"LOG_LEVEL":    "loud",
		"RATE_BURST":   "0",
		"READ_TIMEOUT": "fast",
		"DB_DRIVER":    "mysql",
	}
	_, err := LoadFrom(func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"LOG_LEVEL", "RATE_BURST", "READ_TIMEOUT", "DB_DSN"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestEnvReader(t *testing.T) {
	vars := map[string]string{"EMPTY": "", "PAD": "  v  ", "D": "150ms", "B": " On ", "F": "nope"}
	e := &env{lookup: func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}}

	if e.str("EMPTY", "d") != "d" || e.str("PAD", "") != "v" || e.raw("PAD", "") != "  v  " {
		t.Fatalf("string lookups unexpected")
	}
	if e.duration("D", time.Second) != 150*time.Millisecond || e.duration("MISSING", time.Second) != time.Second {
		t.Fatalf("dur unexpected")
	}
	if !e.boolean("B", false) {
		t.Fatalf("bool(On) = false")
	}
	if len(e.errs) != 0 {
		t.Fatalf("unexpected errors: %v", e.errs)
	}
	if e.decimal("F", 1.5) != 1.5 || len(e.errs) != 1 {
		t.Fatalf("float should keep default and record an error, errs=%v", e.errs)
	}
}

func TestHelpers(t *testing.T) {
	if splitCSV("") != nil || splitCSV(" , ") != nil {
		t.Fatalf("splitCSV of blanks should return nil")
	}
	for in, want := range map[string]string{"": "/", "v1": "/v1", "/v1/": "/v1", " / ": "/", "/a/b/": "/a/b"} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q; want %q", in, got, want)
		}
	}
}
