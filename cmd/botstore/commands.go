package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"emperror.dev/errors"
	"github.com/gin-gonic/gin"
	"github.com/jedib0t/go-pretty/table"
	"github.com/mitchellh/cli"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-community-store/internal/discord"
	httpapi "github.com/tbourn/go-community-store/internal/http"
	"github.com/tbourn/go-community-store/internal/observability"
	"github.com/tbourn/go-community-store/internal/reminders"
	"github.com/tbourn/go-community-store/internal/repo"
	"github.com/tbourn/go-community-store/internal/services"
	"github.com/tbourn/go-community-store/internal/sysutil"
)

const shutdownTimeout = 10 * time.Second

// envFlag registers the -env flag shared by all commands.
func envFlag(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	path := fs.String("env", "", "load variables from this .env file instead of ./.env")
	return fs, path
}

func open(path string) (*env, error) {
	if path == "" {
		return bootstrap()
	}
	return bootstrap(path)
}

// ----- serve -----

// ServeCommand runs the admin API and the reminder dispatcher until SIGINT or
// SIGTERM.
type ServeCommand struct {
	Ui cli.Ui
}

func (c *ServeCommand) Synopsis() string {
	return "run the admin API and deliver due reminders"
}

func (c *ServeCommand) Help() string {
	return `Usage: botstore serve [-env FILE] [-no-reminders]

  Migrates the schema, serves the admin API on $PORT and polls for due
  reminders. Reminders are sent as Discord DMs when DISCORD_TOKEN is set and
  logged otherwise.`
}

func (c *ServeCommand) Run(args []string) int {
	fs, envPath := envFlag("serve")
	noReminders := fs.Bool("no-reminders", false, "do not start the reminder dispatcher")
	if err := fs.Parse(args); err != nil {
		return cli.RunResultHelp
	}
	e, err := open(*envPath)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := c.serve(ctx, e, !*noReminders); err != nil {
		log.Error().Err(err).Msg("serve failed")
		c.Ui.Error(err.Error())
		return 1
	}
	return 0
}

func (c *ServeCommand) serve(ctx context.Context, e *env, withReminders bool) error {
	cfg := e.cfg

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, sysutil.FirstNonEmpty(version, "dev"),
		attribute.String("db.system", cfg.DB.Driver))
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	if err := repo.InitSchema(ctx, e.db); err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, e.db, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errc := make(chan error, 2)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("base_path", cfg.APIBasePath).Msg("admin API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	if withReminders {
		notifier, err := newNotifier(cfg.DiscordToken)
		if err != nil {
			return err
		}
		d := reminders.New(services.NewReminderService(e.db), notifier)
		d.PollInterval = cfg.Reminders.PollInterval
		d.VacuumInterval = cfg.Reminders.VacuumInterval
		d.BatchSize = cfg.Reminders.BatchSize
		go func() {
			if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errc <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case runErr = <-errc:
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	return runErr
}

func newNotifier(token string) (reminders.Notifier, error) {
	if token == "" {
		log.Warn().Msg("DISCORD_TOKEN not set; reminders are logged, not sent")
		return reminders.LogNotifier{}, nil
	}
	sess, err := discord.NewSession(token)
	if err != nil {
		return nil, err
	}
	return &discord.DMNotifier{Session: sess}, nil
}

// ----- migrate -----

// MigrateCommand creates missing tables and indexes and syncs ID sequences.
type MigrateCommand struct {
	Ui cli.Ui
}

func (c *MigrateCommand) Synopsis() string { return "create or update the store schema" }

func (c *MigrateCommand) Help() string {
	return "Usage: botstore migrate [-env FILE]\n\n  " + c.Synopsis() + "."
}

func (c *MigrateCommand) Run(args []string) int {
	fs, envPath := envFlag("migrate")
	if err := fs.Parse(args); err != nil {
		return cli.RunResultHelp
	}
	e, err := open(*envPath)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	defer e.Close()

	if err := repo.InitSchema(context.Background(), e.db); err != nil {
		c.Ui.Error(fmt.Sprintf("migrate: %v", err))
		return 1
	}
	c.Ui.Output(fmt.Sprintf("schema up to date (%s)", e.db.Dialector.Name()))
	return 0
}

// ----- vacuum -----

// VacuumCommand removes dangling user reminders and unsubscribed jobs.
type VacuumCommand struct {
	Ui cli.Ui
}

func (c *VacuumCommand) Synopsis() string { return "remove orphaned reminder rows" }

func (c *VacuumCommand) Help() string {
	return "Usage: botstore vacuum [-env FILE]\n\n  Deletes user reminders whose job is gone and jobs nobody is subscribed to."
}

func (c *VacuumCommand) Run(args []string) int {
	fs, envPath := envFlag("vacuum")
	if err := fs.Parse(args); err != nil {
		return cli.RunResultHelp
	}
	e, err := open(*envPath)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	defer e.Close()

	res, err := services.NewReminderService(e.db).Vacuum(context.Background())
	if err != nil {
		c.Ui.Error(fmt.Sprintf("vacuum: %v", err))
		return 1
	}
	c.Ui.Output(fmt.Sprintf("removed %d dangling reminders and %d empty jobs", res.DanglingReminders, res.EmptyJobs))
	return 0
}

// ----- stats -----

// StatsCommand prints the row count of every table.
type StatsCommand struct {
	Ui cli.Ui
}

func (c *StatsCommand) Synopsis() string { return "show row counts per table" }

func (c *StatsCommand) Help() string {
	return "Usage: botstore stats [-env FILE]\n\n  " + c.Synopsis() + "."
}

func (c *StatsCommand) Run(args []string) int {
	fs, envPath := envFlag("stats")
	if err := fs.Parse(args); err != nil {
		return cli.RunResultHelp
	}
	e, err := open(*envPath)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	defer e.Close()

	counts, err := repo.TableCounts(context.Background(), e.db)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("stats: %v", err))
		return 1
	}
	c.Ui.Output(renderCounts(counts))
	return 0
}

func renderCounts(counts []repo.TableCount) string {
	tb := table.NewWriter()
	tb.AppendHeader(table.Row{"table", "rows"})
	var total int64
	for _, tc := range counts {
		tb.AppendRow(table.Row{tc.Table, tc.Rows})
		total += tc.Rows
	}
	tb.AppendFooter(table.Row{"total", total})
	return strings.TrimRight(tb.Render(), "\n")
}
