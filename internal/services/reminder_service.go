package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-community-store/internal/domain"
	"github.com/tbourn/go-community-store/internal/repo"
)

// MaxReminderLength is the longest reminder message accepted, in characters.
const MaxReminderLength = 1750

// ReminderService schedules reminders and manages who is subscribed to them.
// A job is created together with its first subscriber; further members can
// subscribe to the same job.
type ReminderService struct {
	DB  *gorm.DB
	Now func() time.Time

	// NewID returns the identifier of a new job; defaults to a random UUID.
	NewID func() string
}

// NewReminderService constructs a ReminderService.
func NewReminderService(db *gorm.DB) *ReminderService {
	return &ReminderService{DB: db, Now: time.Now, NewID: uuid.NewString}
}

// VacuumResult reports what Vacuum removed.
type VacuumResult struct {
	DanglingReminders int64 `json:"dangling_reminders"`
	EmptyJobs         int64 `json:"empty_jobs"`
}

func (s *ReminderService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Schedule creates a reminder due at at for userID and subscribes the user
// to it. The job and the subscription are stored atomically.
func (s *ReminderService) Schedule(ctx context.Context, userID string, at time.Time, message string) (*domain.RemindmeJob, error) {
	tr := otel.Tracer("services/ReminderService")
	ctx, span := tr.Start(ctx, "Schedule", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("reminder.at", at.UTC().Format(time.RFC3339)),
	))
	defer span.End()

	userID, message = strings.TrimSpace(userID), strings.TrimSpace(message)
	if userID == "" {
		return nil, ErrEmptyID
	}
	if message == "" {
		return nil, ErrEmptyReminder
	}
	if utf8.RuneCountInString(message) > MaxReminderLength {
		return nil, ErrReminderTooLong
	}
	if !at.After(s.now()) {
		return nil, ErrReminderInPast
	}

	newID := s.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	job := &domain.RemindmeJob{
		JobID:     newID(),
		Timestamp: domain.NewTimestamp(at),
		Message:   message,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateJob(ctx, tx, job); err != nil {
			return err
		}
		return repo.CreateUserReminder(ctx, tx, &domain.RemindmeUserReminder{JobID: job.JobID, UserID: userID})
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("reminder.id", job.JobID))
	log.Debug().Str("job_id", job.JobID).Str("user_id", userID).Msg("reminder scheduled")
	return job, nil
}

// SetBotMessage records the message the bot posted to announce a job.
func (s *ReminderService) SetBotMessage(ctx context.Context, jobID, messageID string) error {
	if err := repo.SetJobBotMessage(ctx, s.DB, jobID, messageID); err != nil {
		if isNotFound(err) {
			return ErrJobNotFound
		}
		return err
	}
	return nil
}

// Subscribe adds userID to an existing job.
func (s *ReminderService) Subscribe(ctx context.Context, jobID, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrEmptyID
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := repo.HasUserReminder(ctx, tx, jobID, userID)
		if err != nil {
			return err
		}
		if ok {
			return ErrAlreadySubscribed
		}
		return repo.CreateUserReminder(ctx, tx, &domain.RemindmeUserReminder{JobID: jobID, UserID: userID})
	})
	switch {
	case isMissingReference(err):
		return ErrJobNotFound
	case isDuplicate(err):
		// a concurrent Subscribe for the same member won the insert
		return ErrAlreadySubscribed
	}
	return err
}

// Unsubscribe removes userID from a job. When the last subscriber leaves the
// job is deleted as well; the returned bool reports that.
func (s *ReminderService) Unsubscribe(ctx context.Context, jobID, userID string) (bool, error) {
	jobRemoved := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.DeleteUserReminder(ctx, tx, jobID, userID); err != nil {
			if isNotFound(err) {
				return ErrNotSubscribed
			}
			return err
		}
		users, err := repo.ListUsersForJob(ctx, tx, jobID)
		if err != nil || len(users) > 0 {
			return err
		}
		if err := repo.DeleteJob(ctx, tx, jobID); err != nil && !isNotFound(err) {
			return err
		}
		jobRemoved = true
		return nil
	})
	return jobRemoved, err
}

// Job returns one job.
func (s *ReminderService) Job(ctx context.Context, jobID string) (*domain.RemindmeJob, error) {
	j, err := repo.GetJob(ctx, s.DB, jobID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return j, nil
}

// Jobs returns the jobs with the given IDs, or every job.
func (s *ReminderService) Jobs(ctx context.Context, jobIDs ...string) ([]domain.RemindmeJob, error) {
	return repo.ListJobs(ctx, s.DB, jobIDs...)
}

// Due returns up to limit jobs whose time has come.
func (s *ReminderService) Due(ctx context.Context, limit int) ([]domain.RemindmeJob, error) {
	return repo.ListDueJobs(ctx, s.DB, domain.NewTimestamp(s.now()), limit)
}

// RemindersForUsers returns the subscriptions of the given users, or every
// subscription.
func (s *ReminderService) RemindersForUsers(ctx context.Context, userIDs ...string) ([]domain.RemindmeUserReminder, error) {
	return repo.ListUserReminders(ctx, s.DB, userIDs...)
}

// JobsForUser returns the jobs userID is subscribed to.
func (s *ReminderService) JobsForUser(ctx context.Context, userID string) ([]domain.RemindmeJob, error) {
	return repo.ListJobsForUser(ctx, s.DB, userID)
}

// UsersForJob returns the members subscribed to a job.
func (s *ReminderService) UsersForJob(ctx context.Context, jobID string) ([]string, error) {
	return repo.ListUsersForJob(ctx, s.DB, jobID)
}

// Complete removes a delivered job and its subscriptions and returns how many
// subscriptions were removed.
func (s *ReminderService) Complete(ctx context.Context, jobID string) (int64, error) {
	return s.DeleteJob(ctx, jobID)
}

// DeleteJob removes a job and its subscriptions in one transaction.
func (s *ReminderService) DeleteJob(ctx context.Context, jobID string) (int64, error) {
	tr := otel.Tracer("services/ReminderService")
	ctx, span := tr.Start(ctx, "DeleteJob", trace.WithAttributes(attribute.String("reminder.id", jobID)))
	defer span.End()

	n, err := repo.DeleteJobWithReminders(ctx, s.DB, jobID)
	if err != nil {
		if isNotFound(err) {
			return 0, ErrJobNotFound
		}
		return 0, err
	}
	return n, nil
}

// Vacuum removes subscriptions that point at missing jobs and jobs nobody is
// subscribed to.
func (s *ReminderService) Vacuum(ctx context.Context) (VacuumResult, error) {
	tr := otel.Tracer("services/ReminderService")
	ctx, span := tr.Start(ctx, "Vacuum")
	defer span.End()

	var res VacuumResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if res.DanglingReminders, err = repo.DeleteDanglingUserReminders(ctx, tx); err != nil {
			return err
		}
		res.EmptyJobs, err = repo.DeleteUnsubscribedJobs(ctx, tx)
		return err
	})
	if err != nil {
		return VacuumResult{}, err
	}
	span.SetAttributes(
		attribute.Int64("vacuum.dangling_reminders", res.DanglingReminders),
		attribute.Int64("vacuum.empty_jobs", res.EmptyJobs),
	)
	return res, nil
}
