// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for reminders:
// RemindmeJobs (one row per scheduled reminder) and RemindmeUserReminders
// (one row per subscribed user, many per job).
//
// RemindmeUserReminders.JobID references RemindmeJobs.JobID with ON DELETE
// RESTRICT. Creating a subscription for an unknown job, or deleting a job that
// still has subscribers, fails with ErrMissingReference. Use
// DeleteJobWithReminders to remove both in one transaction.
package repo

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-community-store/internal/domain"
)

// CreateJob inserts a reminder job. A duplicate JobID fails with ErrDuplicate.
func CreateJob(ctx context.Context, db *gorm.DB, job *domain.RemindmeJob) error {
	return Classify(db.WithContext(ctx).Create(job).Error)
}

// GetJob returns the job with the given ID.
func GetJob(ctx context.Context, db *gorm.DB, jobID string) (*domain.RemindmeJob, error) {
	var j domain.RemindmeJob
	if err := db.WithContext(ctx).Where(map[string]any{"JobID": jobID}).First(&j).Error; err != nil {
		return nil, Classify(err)
	}
	return &j, nil
}

// ListJobs returns the jobs with the given IDs, or every job when no ID is
// given, ordered by due time.
func ListJobs(ctx context.Context, db *gorm.DB, jobIDs ...string) ([]domain.RemindmeJob, error) {
	out := []domain.RemindmeJob{}
	q := db.WithContext(ctx).Clauses(chronological("JobID"))
	if len(jobIDs) > 0 {
		q = q.Where(map[string]any{"JobID": jobIDs})
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, Classify(err)
	}
	return out, nil
}

// ListDueJobs returns up to limit jobs due at or before now, oldest first.
// A limit <= 0 means no limit.
//
// Rows may hold either TimestampLayout or RFC 3339 text, which do not sort
// together, so dueness is decided on parsed times. The query only narrows the
// candidates to rows dated no later than the day after now; a UTC offset
// shifts the written date by at most one day.
func ListDueJobs(ctx context.Context, db *gorm.DB, now domain.Timestamp, limit int) ([]domain.RemindmeJob, error) {
	horizon := now.UTC().AddDate(0, 0, 2).Format(time.DateOnly)

	candidates := []domain.RemindmeJob{}
	err := db.WithContext(ctx).
		Where(clause.Lt{Column: clause.Column{Name: "Timestamp"}, Value: horizon}).
		Find(&candidates).Error
	if err != nil {
		return nil, Classify(err)
	}

	out := candidates[:0]
	for _, j := range candidates {
		if !j.Timestamp.IsZero() && !j.Timestamp.After(now.Time) {
			out = append(out, j)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		ta, tb := out[a].Timestamp.Time, out[b].Timestamp.Time
		if !ta.Equal(tb) {
			return ta.Before(tb)
		}
		return out[a].JobID < out[b].JobID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SetJobBotMessage records the message the bot posted for a job.
func SetJobBotMessage(ctx context.Context, db *gorm.DB, jobID, messageID string) error {
	return updateColumn(ctx, db, &domain.RemindmeJob{}, map[string]any{"JobID": jobID}, "BotMsgID", messageID)
}

// DeleteJob removes a job row. It fails with ErrMissingReference while
// subscriptions still reference the job, and with ErrNotFound if absent.
func DeleteJob(ctx context.Context, db *gorm.DB, jobID string) error {
	return deleteWhere(ctx, db, &domain.RemindmeJob{}, map[string]any{"JobID": jobID})
}

// DeleteJobWithReminders removes a job and all of its subscriptions in one
// transaction and returns the number of subscriptions removed.
func DeleteJobWithReminders(ctx context.Context, db *gorm.DB, jobID string) (int64, error) {
	var removed int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := deleteAll(ctx, tx, &domain.RemindmeUserReminder{}, map[string]any{"JobID": jobID})
		if err != nil {
			return err
		}
		removed = n
		return deleteWhere(ctx, tx, &domain.RemindmeJob{}, map[string]any{"JobID": jobID})
	})
	if err != nil {
		return 0, Classify(err)
	}
	return removed, nil
}

// CreateUserReminder assigns r a generated ID and inserts it. The job must
// exist.
func CreateUserReminder(ctx context.Context, db *gorm.DB, r *domain.RemindmeUserReminder) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := NextID(ctx, tx, domain.SeqRemindmeUserReminder)
		if err != nil {
			return err
		}
		r.ID = id
		return tx.Omit(clause.Associations).Create(r).Error
	})
	return Classify(err)
}

// HasUserReminder reports whether userID is subscribed to jobID.
func HasUserReminder(ctx context.Context, db *gorm.DB, jobID, userID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.RemindmeUserReminder{}).
		Where(map[string]any{"JobID": jobID, "UserID": userID}).
		Count(&n).Error
	if err != nil {
		return false, Classify(err)
	}
	return n > 0, nil
}

// ListUserReminders returns the subscriptions of the given users, or every
// subscription when no user is given, ordered by ID.
func ListUserReminders(ctx context.Context, db *gorm.DB, userIDs ...string) ([]domain.RemindmeUserReminder, error) {
	out := []domain.RemindmeUserReminder{}
	q := db.WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: "ID"}})
	if len(userIDs) > 0 {
		q = q.Where(map[string]any{"UserID": userIDs})
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, Classify(err)
	}
	return out, nil
}

// ListUsersForJob returns the IDs of the users subscribed to a job.
func ListUsersForJob(ctx context.Context, db *gorm.DB, jobID string) ([]string, error) {
	out := []string{}
	err := db.WithContext(ctx).Model(&domain.RemindmeUserReminder{}).
		Where(map[string]any{"JobID": jobID}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "ID"}}).
		Pluck("UserID", &out).Error
	if err != nil {
		return nil, Classify(err)
	}
	return out, nil
}

// ListJobsForUser returns the jobs a user is subscribed to, ordered by due time.
func ListJobsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.RemindmeJob, error) {
	subscribed := db.WithContext(ctx).Model(&domain.RemindmeUserReminder{}).
		Select("JobID").
		Where(map[string]any{"UserID": userID})

	out := []domain.RemindmeJob{}
	err := db.WithContext(ctx).
		Where("? IN (?)", clause.Column{Name: "JobID"}, subscribed).
		Clauses(chronological("JobID")).
		Find(&out).Error
	if err != nil {
		return nil, Classify(err)
	}
	return out, nil
}

// DeleteUserReminder removes the subscription of userID to jobID.
// Returns ErrNotFound if there is none.
func DeleteUserReminder(ctx context.Context, db *gorm.DB, jobID, userID string) error {
	return deleteWhere(ctx, db, &domain.RemindmeUserReminder{}, map[string]any{"JobID": jobID, "UserID": userID})
}

// DeleteUserReminders removes the subscriptions with the given IDs and
// returns how many were removed.
func DeleteUserReminders(ctx context.Context, db *gorm.DB, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return deleteAll(ctx, db, &domain.RemindmeUserReminder{}, map[string]any{"ID": ids})
}

// DeleteDanglingUserReminders removes subscriptions whose job no longer
// exists. Such rows only appear in databases written without foreign key
// enforcement.
func DeleteDanglingUserReminders(ctx context.Context, db *gorm.DB) (int64, error) {
	jobs := db.WithContext(ctx).Model(&domain.RemindmeJob{}).Select("JobID")
	res := db.WithContext(ctx).
		Where("? NOT IN (?)", clause.Column{Name: "JobID"}, jobs).
		Delete(&domain.RemindmeUserReminder{})
	if res.Error != nil {
		return 0, Classify(res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteUnsubscribedJobs removes jobs that nobody is subscribed to any more.
func DeleteUnsubscribedJobs(ctx context.Context, db *gorm.DB) (int64, error) {
	subscribed := db.WithContext(ctx).Model(&domain.RemindmeUserReminder{}).Select("JobID")
	res := db.WithContext(ctx).
		Where("? NOT IN (?)", clause.Column{Name: "JobID"}, subscribed).
		Delete(&domain.RemindmeJob{})
	if res.Error != nil {
		return 0, Classify(res.Error)
	}
	return res.RowsAffected, nil
}
