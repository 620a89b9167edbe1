// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Modmail
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Functions:
//
//   - CreateModmail(ctx, db, m) -> error
//     Inserts a thread; StatusID falls back to the column default (Open).
//
//   - GetModmail(ctx, db, id) -> *domain.Modmail, error
//     Fetches a thread by ID, or ErrNotFound if missing.
//
//   - UpdateModmailStatus(ctx, db, id, status) -> error
//     Sets StatusID. Returns ErrNotFound if the thread does not exist.
//
//   - ListModmailByStatus(ctx, db, status) -> []domain.Modmail, error
//     Returns every thread in a state, oldest first.
//
//   - CountModmailByStatus / ListModmailPage
//     Paginated variant of ListModmailByStatus for the admin API.
//
//   - DeleteModmail(ctx, db, id) -> error
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-community-store/internal/domain"
)

// chronological orders rows by Timestamp, then by the tie-breaking column.
func chronological(tieBreak string) clause.OrderBy {
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: "Timestamp"}},
		{Column: clause.Column{Name: tieBreak}},
	}}
}

// CreateModmail inserts m. A duplicate ID fails with ErrDuplicate.
func CreateModmail(ctx context.Context, db *gorm.DB, m *domain.Modmail) error {
	return Classify(db.WithContext(ctx).Create(m).Error)
}

// GetModmail returns the thread with the given ID.
func GetModmail(ctx context.Context, db *gorm.DB, id string) (*domain.Modmail, error) {
	var m domain.Modmail
	if err := db.WithContext(ctx).Where(map[string]any{"ID": id}).First(&m).Error; err != nil {
		return nil, Classify(err)
	}
	return &m, nil
}

// UpdateModmailStatus sets the StatusID of a thread.
func UpdateModmailStatus(ctx context.Context, db *gorm.DB, id string, status domain.ModmailStatus) error {
	return updateColumn(ctx, db, &domain.Modmail{}, map[string]any{"ID": id}, "StatusID", status)
}

// ListModmailByStatus returns every thread with the given status, oldest first.
func ListModmailByStatus(ctx context.Context, db *gorm.DB, status domain.ModmailStatus) ([]domain.Modmail, error) {
	out := []domain.Modmail{}
	err := db.WithContext(ctx).
		Where(map[string]any{"StatusID": status}).
		Clauses(chronological("ID")).
		Find(&out).Error
	if err != nil {
		return nil, Classify(err)
	}
	return out, nil
}

// CountModmailByStatus returns the number of threads with the given status.
func CountModmailByStatus(ctx context.Context, db *gorm.DB, status domain.ModmailStatus) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Modmail{}).
		Where(map[string]any{"StatusID": status}).
		Count(&n).Error
	return n, Classify(err)
}

// ListModmailPage returns a page of threads with the given status, oldest first.
// The caller is responsible for computing offset and limit.
func ListModmailPage(ctx context.Context, db *gorm.DB, status domain.ModmailStatus, offset, limit int) ([]domain.Modmail, error) {
	out := []domain.Modmail{}
	err := db.WithContext(ctx).
		Where(map[string]any{"StatusID": status}).
		Clauses(chronological("ID")).
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, Classify(err)
	}
	return out, nil
}

// DeleteModmail removes a thread. Returns ErrNotFound if it does not exist.
func DeleteModmail(ctx context.Context, db *gorm.DB, id string) error {
	return deleteWhere(ctx, db, &domain.Modmail{}, map[string]any{"ID": id})
}

// updateColumn sets column on the single row matched by where. Some engines
// report zero affected rows when the value is unchanged, so a miss is
// confirmed with an existence check before reporting ErrNotFound.
func updateColumn(ctx context.Context, db *gorm.DB, model any, where map[string]any, column string, value any) error {
	res := db.WithContext(ctx).Model(model).Where(where).Update(column, value)
	if res.Error != nil {
		return Classify(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := db.WithContext(ctx).Model(model).Where(where).Count(&n).Error; err != nil {
		return Classify(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// deleteWhere removes the rows matched by where and returns ErrNotFound when
// nothing matched.
func deleteWhere(ctx context.Context, db *gorm.DB, model any, where map[string]any) error {
	n, err := deleteAll(ctx, db, model, where)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// deleteAll removes the rows matched by where and returns how many went.
func deleteAll(ctx context.Context, db *gorm.DB, model any, where map[string]any) (int64, error) {
	res := db.WithContext(ctx).Where(where).Delete(model)
	if res.Error != nil {
		return 0, Classify(res.Error)
	}
	return res.RowsAffected, nil
}
