package repo

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/tbourn/go-community-store/internal/domain"
)

func TestReminders_ManyToOneScenario(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	job := &domain.RemindmeJob{JobID: "j1", Timestamp: domain.Now(), Message: "exam"}
	if err := CreateJob(ctx, db, job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	for _, u := range []string{"u1", "u2"} {
		if err := CreateUserReminder(ctx, db, &domain.RemindmeUserReminder{JobID: "j1", UserID: u}); err != nil {
			t.Fatalf("CreateUserReminder(%s): %v", u, err)
		}
	}

	users, err := ListUsersForJob(ctx, db, "j1")
	if err != nil {
		t.Fatalf("ListUsersForJob: %v", err)
	}
	if want := []string{"u1", "u2"}; !reflect.DeepEqual(users, want) {
		t.Fatalf("ListUsersForJob = %v; want %v", users, want)
	}

	// The job cannot go while it has subscribers.
	if err := DeleteJob(ctx, db, "j1"); !errors.Is(err, ErrMissingReference) {
		t.Fatalf("expected ErrMissingReference deleting referenced job, got %v", err)
	}
	// A subscription for an unknown job is rejected.
	err = CreateUserReminder(ctx, db, &domain.RemindmeUserReminder{JobID: "ghost", UserID: "u1"})
	if !errors.Is(err, ErrMissingReference) {
		t.Fatalf("expected ErrMissingReference for unknown job, got %v", err)
	}

	removed, err := DeleteJobWithReminders(ctx, db, "j1")
	if err != nil || removed != 2 {
		t.Fatalf("DeleteJobWithReminders = %d, %v", removed, err)
	}
	if _, err := GetJob(ctx, db, "j1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("job survived: %v", err)
	}
	if _, err := DeleteJobWithReminders(ctx, db, "j1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing job, got %v", err)
	}
}

func TestReminders_Queries(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	// Inserted out of due order on purpose.
	for _, j := range []struct {
		id    string
		due   time.Time
		users []string
	}{
		{"j-late", base.Add(2 * time.Hour), []string{"u1"}},
		{"j-early", base, []string{"u1", "u2"}},
		{"j-mid", base.Add(time.Hour), []string{"u2"}},
	} {
		if err := CreateJob(ctx, db, &domain.RemindmeJob{JobID: j.id, Timestamp: domain.NewTimestamp(j.due), Message: j.id}); err != nil {
			t.Fatalf("CreateJob: %v", err)
		}
		for _, u := range j.users {
			if err := CreateUserReminder(ctx, db, &domain.RemindmeUserReminder{JobID: j.id, UserID: u}); err != nil {
				t.Fatalf("CreateUserReminder: %v", err)
			}
		}
	}

	all, err := ListJobs(ctx, db)
	if err != nil || len(all) != 3 || all[0].JobID != "j-early" || all[2].JobID != "j-late" {
		t.Fatalf("ListJobs = %+v, %v", all, err)
	}
	some, err := ListJobs(ctx, db, "j-mid", "nope")
	if err != nil || len(some) != 1 || some[0].JobID != "j-mid" {
		t.Fatalf("ListJobs(filter) = %+v, %v", some, err)
	}

	due, err := ListDueJobs(ctx, db, domain.NewTimestamp(base.Add(90*time.Minute)), 0)
	if err != nil || len(due) != 2 || due[0].JobID != "j-early" || due[1].JobID != "j-mid" {
		t.Fatalf("ListDueJobs = %+v, %v", due, err)
	}
	if limited, _ := ListDueJobs(ctx, db, domain.NewTimestamp(base.Add(3*time.Hour)), 1); len(limited) != 1 {
		t.Fatalf("limit not applied: %+v", limited)
	}

	jobs, err := ListJobsForUser(ctx, db, "u1")
	if err != nil || len(jobs) != 2 || jobs[0].JobID != "j-early" || jobs[1].JobID != "j-late" {
		t.Fatalf("ListJobsForUser = %+v, %v", jobs, err)
	}

	mine, err := ListUserReminders(ctx, db, "u2")
	if err != nil || len(mine) != 2 {
		t.Fatalf("ListUserReminders(u2) = %+v, %v", mine, err)
	}
	every, err := ListUserReminders(ctx, db)
	if err != nil || len(every) != 4 {
		t.Fatalf("ListUserReminders() = %+v, %v", every, err)
	}

	if ok, err := HasUserReminder(ctx, db, "j-early", "u2"); err != nil || !ok {
		t.Fatalf("HasUserReminder = %v, %v", ok, err)
	}
	if err := DeleteUserReminder(ctx, db, "j-early", "u2"); err != nil {
		t.Fatalf("DeleteUserReminder: %v", err)
	}
	if err := DeleteUserReminder(ctx, db, "j-early", "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	n, err := DeleteUserReminders(ctx, db, []int64{mine[0].ID, mine[1].ID})
	if err != nil || n != 1 { // mine[0] was already removed above
		t.Fatalf("DeleteUserReminders = %d, %v", n, err)
	}
	if n, err := DeleteUserReminders(ctx, db, nil); err != nil || n != 0 {
		t.Fatalf("DeleteUserReminders(nil) = %d, %v", n, err)
	}

	if err := SetJobBotMessage(ctx, db, "j-late", "bot-1"); err != nil {
		t.Fatalf("SetJobBotMessage: %v", err)
	}
	j, _ := GetJob(ctx, db, "j-late")
	if j.BotMsgID == nil || *j.BotMsgID != "bot-1" {
		t.Fatalf("BotMsgID not stored: %+v", j)
	}
}

func TestReminders_VacuumHelpers(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	for _, id := range []string{"kept", "empty"} {
		if err := CreateJob(ctx, db, &domain.RemindmeJob{JobID: id, Timestamp: domain.Now(), Message: id}); err != nil {
			t.Fatalf("CreateJob: %v", err)
		}
	}
	if err := CreateUserReminder(ctx, db, &domain.RemindmeUserReminder{JobID: "kept", UserID: "u1"}); err != nil {
		t.Fatalf("CreateUserReminder: %v", err)
	}

	// Simulate a row written by a client that did not enforce foreign keys.
	sqlDB, _ := db.DB()
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		t.Fatalf("conn: %v", err)
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys=OFF"); err != nil {
		t.Fatalf("pragma on conn: %v", err)
	}
	if _, err := conn.ExecContext(ctx, `INSERT INTO RemindmeUserReminders (ID, JobID, UserID) VALUES (100, 'gone', 'u9')`); err != nil {
		t.Fatalf("insert dangling: %v", err)
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		t.Fatalf("pragma on conn: %v", err)
	}
	_ = conn.Close()

	n, err := DeleteDanglingUserReminders(ctx, db)
	if err != nil || n != 1 {
		t.Fatalf("DeleteDanglingUserReminders = %d, %v", n, err)
	}
	n, err = DeleteUnsubscribedJobs(ctx, db)
	if err != nil || n != 1 {
		t.Fatalf("DeleteUnsubscribedJobs = %d, %v", n, err)
	}
	if _, err := GetJob(ctx, db, "kept"); err != nil {
		t.Fatalf("subscribed job removed: %v", err)
	}
}

func TestListDueJobs_MixedTimestampText(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	// Rows as another client may have written them.
	for _, row := range []struct{ id, ts string }{
		{"rfc", "2024-01-01T00:00:00Z"},
		{"offset", "2024-01-01T13:30:00+02:00"}, // 11:30 UTC
		{"plain-later", "2024-01-01 13:00:00"},
		{"rfc-tomorrow", "2024-01-02T00:00:00Z"},
		{"east-later", "2024-01-02T08:00:00+09:00"}, // 23:00 UTC on Jan 1
	} {
		if err := db.Exec("INSERT INTO RemindmeJobs (JobID, Timestamp, Message) VALUES (?, ?, ?)", row.id, row.ts, row.id).Error; err != nil {
			t.Fatalf("insert %s: %v", row.id, err)
		}
	}
	if err := CreateJob(ctx, db, &domain.RemindmeJob{
		JobID:     "written",
		Timestamp: domain.NewTimestamp(time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)),
		Message:   "written",
	}); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	now := domain.NewTimestamp(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	due, err := ListDueJobs(ctx, db, now, 0)
	if err != nil {
		t.Fatalf("ListDueJobs: %v", err)
	}
	var ids []string
	for _, j := range due {
		ids = append(ids, j.JobID)
	}
	if want := []string{"rfc", "written", "offset"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("due = %v; want %v", ids, want)
	}

	first, err := ListDueJobs(ctx, db, now, 1)
	if err != nil || len(first) != 1 || first[0].JobID != "rfc" {
		t.Fatalf("ListDueJobs(limit 1) = %+v, %v", first, err)
	}
}

func TestCreateUserReminder_OneSubscriptionPerUser(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	if err := CreateJob(ctx, db, &domain.RemindmeJob{JobID: "j1", Timestamp: domain.Now(), Message: "m"}); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := CreateUserReminder(ctx, db, &domain.RemindmeUserReminder{JobID: "j1", UserID: "u1"}); err != nil {
		t.Fatalf("first subscription: %v", err)
	}
	err := CreateUserReminder(ctx, db, &domain.RemindmeUserReminder{JobID: "j1", UserID: "u1"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if users, _ := ListUsersForJob(ctx, db, "j1"); len(users) != 1 {
		t.Fatalf("users = %v", users)
	}
}
