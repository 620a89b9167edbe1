// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// MemberWarning model. Warning IDs are generated from the "MemberWarning"
// sequence.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-community-store/internal/domain"
)

// CreateWarning assigns w a generated ID and inserts it.
func CreateWarning(ctx context.Context, db *gorm.DB, w *domain.MemberWarning) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := NextID(ctx, tx, domain.SeqMemberWarning)
		if err != nil {
			return err
		}
		w.ID = id
		return tx.Create(w).Error
	})
	return Classify(err)
}

// GetWarning returns the warning with the given ID.
func GetWarning(ctx context.Context, db *gorm.DB, id int64) (*domain.MemberWarning, error) {
	var w domain.MemberWarning
	if err := db.WithContext(ctx).Where(map[string]any{"ID": id}).First(&w).Error; err != nil {
		return nil, Classify(err)
	}
	return &w, nil
}

// ListWarnings returns the warnings of a member, oldest first.
func ListWarnings(ctx context.Context, db *gorm.DB, userID string) ([]domain.MemberWarning, error) {
	out := []domain.MemberWarning{}
	err := db.WithContext(ctx).
		Where(map[string]any{"UserID": userID}).
		Clauses(chronological("ID")).
		Find(&out).Error
	if err != nil {
		return nil, Classify(err)
	}
	return out, nil
}

// DeleteWarning removes one warning. Returns ErrNotFound if absent.
func DeleteWarning(ctx context.Context, db *gorm.DB, id int64) error {
	return deleteWhere(ctx, db, &domain.MemberWarning{}, map[string]any{"ID": id})
}

// DeleteWarningsForUser removes every warning of a member and returns how
// many were removed.
func DeleteWarningsForUser(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return deleteAll(ctx, db, &domain.MemberWarning{}, map[string]any{"UserID": userID})
}
