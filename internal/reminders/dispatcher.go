// Package reminders delivers due reminders. A Dispatcher polls the store for
// jobs whose time has come, notifies every subscribed member through a
// Notifier, and removes the job once all subscribers were handled. It also
// vacuums orphaned reminder rows on a slower schedule.
package reminders

import (
	"context"
	"time"

	"emperror.dev/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-community-store/internal/domain"
	"github.com/tbourn/go-community-store/internal/services"
)

// Store is the subset of services.ReminderService the dispatcher needs.
type Store interface {
	Due(ctx context.Context, limit int) ([]domain.RemindmeJob, error)
	Job(ctx context.Context, jobID string) (*domain.RemindmeJob, error)
	UsersForJob(ctx context.Context, jobID string) ([]string, error)
	Complete(ctx context.Context, jobID string) (int64, error)
	Vacuum(ctx context.Context) (services.VacuumResult, error)
}

// Notifier delivers a reminder to one member.
type Notifier interface {
	Notify(ctx context.Context, userID string, job domain.RemindmeJob) error
}

// ErrUnknownRecipient is returned by a Notifier when the member cannot be
// reached at all, for example because they left the server.
const ErrUnknownRecipient = errors.Sentinel("unknown recipient")

var delivered = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reminders_delivered_total",
		Help: "Reminder notifications by result.",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(delivered)
}

// Result summarizes one delivered job.
type Result struct {
	JobID    string
	Messaged int
	Skipped  int
}

// Dispatcher polls for due reminders and delivers them.
type Dispatcher struct {
	Store    Store
	Notifier Notifier

	// PollInterval is how often due jobs are checked. Defaults to 30s.
	PollInterval time.Duration
	// VacuumInterval is how often orphaned rows are removed. Zero disables it.
	VacuumInterval time.Duration
	// BatchSize caps the number of jobs handled per poll. Defaults to 50.
	BatchSize int
}

// New constructs a Dispatcher with default intervals.
func New(store Store, n Notifier) *Dispatcher {
	return &Dispatcher{
		Store:          store,
		Notifier:       n,
		PollInterval:   30 * time.Second,
		VacuumInterval: time.Hour,
		BatchSize:      50,
	}
}

// Run polls until ctx is cancelled. Errors of a single poll are logged and
// do not stop the loop.
func (d *Dispatcher) Run(ctx context.Context) error {
	poll := d.PollInterval
	if poll <= 0 {
		poll = 30 * time.Second
	}
	t := time.NewTicker(poll)
	defer t.Stop()

	var vacuum <-chan time.Time
	if d.VacuumInterval > 0 {
		vt := time.NewTicker(d.VacuumInterval)
		defer vt.Stop()
		vacuum = vt.C
	}

	log.Info().Dur("poll_interval", poll).Dur("vacuum_interval", d.VacuumInterval).Msg("reminder dispatcher started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("reminder dispatcher stopped")
			return ctx.Err()
		case <-t.C:
			if _, err := d.RunOnce(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("reminder poll failed")
			}
		case <-vacuum:
			if _, err := d.Vacuum(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("reminder vacuum failed")
			}
		}
	}
}

// RunOnce delivers every job that is due now and returns one Result per job.
func (d *Dispatcher) RunOnce(ctx context.Context) ([]Result, error) {
	batch := d.BatchSize
	if batch <= 0 {
		batch = 50
	}
	jobs, err := d.Store.Due(ctx, batch)
	if err != nil {
		return nil, errors.WrapIf(err, "load due reminders")
	}

	out := make([]Result, 0, len(jobs))
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, err := d.deliver(ctx, job)
		if err != nil {
			if errors.Is(err, services.ErrJobNotFound) {
				log.Warn().Str("job_id", job.JobID).Msg("reminder no longer exists, skipping")
				continue
			}
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

func (d *Dispatcher) deliver(ctx context.Context, job domain.RemindmeJob) (Result, error) {
	res := Result{JobID: job.JobID}
	logger := log.With().Str("job_id", job.JobID).Logger()
	logger.Info().Msg("sending reminder")

	// Another worker or a member may have removed the job since it was listed.
	if _, err := d.Store.Job(ctx, job.JobID); err != nil {
		return res, err
	}
	users, err := d.Store.UsersForJob(ctx, job.JobID)
	if err != nil {
		return res, errors.WrapIfWithDetails(err, "load reminder subscribers", "job_id", job.JobID)
	}

	for _, userID := range users {
		if err := d.Notifier.Notify(ctx, userID, job); err != nil {
			res.Skipped++
			delivered.WithLabelValues("skipped").Inc()
			ev := logger.Warn()
			if !errors.Is(err, ErrUnknownRecipient) {
				ev = logger.Error()
			}
			ev.Err(err).Str("user_id", userID).Msg("reminder not delivered")
			continue
		}
		res.Messaged++
		delivered.WithLabelValues("messaged").Inc()
	}

	if _, err := d.Store.Complete(ctx, job.JobID); err != nil && !errors.Is(err, services.ErrJobNotFound) {
		return res, errors.WrapIfWithDetails(err, "complete reminder", "job_id", job.JobID)
	}
	logger.Info().Int("messaged", res.Messaged).Int("skipped", res.Skipped).Msg("reminder delivered")
	return res, nil
}

// Vacuum removes orphaned reminder rows.
func (d *Dispatcher) Vacuum(ctx context.Context) (services.VacuumResult, error) {
	log.Info().Msg("starting reminder vacuum")
	res, err := d.Store.Vacuum(ctx)
	if err != nil {
		return res, errors.WrapIf(err, "vacuum reminders")
	}
	log.Info().
		Int64("dangling_reminders", res.DanglingReminders).
		Int64("empty_jobs", res.EmptyJobs).
		Msg("reminder vacuum finished")
	return res, nil
}

// LogNotifier writes reminders to the log instead of delivering them.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(_ context.Context, userID string, job domain.RemindmeJob) error {
	log.Info().Str("job_id", job.JobID).Str("user_id", userID).Str("message", job.Message).Msg("reminder")
	return nil
}
