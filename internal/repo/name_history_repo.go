// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// MemberNameHistory model, keyed by (UserID, Timestamp).
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-community-store/internal/domain"
)

// CreateNameHistory inserts an entry. Two entries for the same member at the
// same instant fail with ErrDuplicate. Both key columns are NOT NULL, so an
// entry with a zero Timestamp is rejected.
func CreateNameHistory(ctx context.Context, db *gorm.DB, h *domain.MemberNameHistory) error {
	return Classify(db.WithContext(ctx).Create(h).Error)
}

// ListNameHistory returns the names a member has used, oldest first.
func ListNameHistory(ctx context.Context, db *gorm.DB, userID string) ([]domain.MemberNameHistory, error) {
	out := []domain.MemberNameHistory{}
	err := db.WithContext(ctx).
		Where(map[string]any{"UserID": userID}).
		Clauses(chronological("Name")).
		Find(&out).Error
	if err != nil {
		return nil, Classify(err)
	}
	return out, nil
}

// DeleteNameHistory removes every entry of a member and returns how many
// were removed.
func DeleteNameHistory(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return deleteAll(ctx, db, &domain.MemberNameHistory{}, map[string]any{"UserID": userID})
}
