package main

import (
	"io"
	"io/fs"

	"emperror.dev/errors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-community-store/internal/config"
	"github.com/tbourn/go-community-store/internal/repo"
	"github.com/tbourn/go-community-store/internal/sysutil"
)

// env bundles what every command needs.
type env struct {
	cfg config.Config
	db  *gorm.DB
	log io.Closer
}

func (e *env) Close() error {
	var errs []error
	if sqlDB, err := e.db.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	errs = append(errs, e.log.Close())
	return errors.Combine(errs...)
}

// bootstrap loads .env files and the configuration, installs the logger and
// opens the store.
func bootstrap(dotenv ...string) (*env, error) {
	if err := godotenv.Load(dotenv...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.WrapIf(err, "load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.WrapIf(err, "load config")
	}
	closer := sysutil.SetupLogger(sysutil.LogOptions{
		Level:      cfg.LogLevel,
		Pretty:     cfg.LogPretty,
		File:       cfg.LogFile,
		MaxSizeMB:  50,
		MaxBackups: 5,
		MaxAgeDays: 28,
	})

	level := logger.Warn
	if cfg.DB.LogSQL {
		level = logger.Info
	}
	db, err := repo.OpenDB(repo.Options{
		Driver:   cfg.DB.Driver,
		Path:     cfg.DB.Path,
		DSN:      cfg.DB.DSN,
		Tracing:  cfg.OTEL.Enabled,
		Metrics:  true,
		LogLevel: level,
	})
	if err != nil {
		_ = closer.Close()
		return nil, errors.WrapIfWithDetails(err, "open store", "driver", cfg.DB.Driver)
	}
	log.Debug().Str("driver", cfg.DB.Driver).Msg("bootstrap complete")
	return &env{cfg: cfg, db: db, log: closer}, nil
}
