// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ReactionRole model. A row is keyed by (MessageID, Emoji); a second mapping
// for the same pair fails with ErrDuplicate.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-community-store/internal/domain"
)

// CreateReactionRole inserts a mapping.
func CreateReactionRole(ctx context.Context, db *gorm.DB, rr *domain.ReactionRole) error {
	return Classify(db.WithContext(ctx).Create(rr).Error)
}

// GetReactionRole returns the mapping for an emoji on a message.
func GetReactionRole(ctx context.Context, db *gorm.DB, messageID, emoji string) (*domain.ReactionRole, error) {
	var rr domain.ReactionRole
	err := db.WithContext(ctx).
		Where(map[string]any{"MessageID": messageID, "Emoji": emoji}).
		First(&rr).Error
	if err != nil {
		return nil, Classify(err)
	}
	return &rr, nil
}

// ListReactionRoles returns every mapping on a message ordered by emoji.
func ListReactionRoles(ctx context.Context, db *gorm.DB, messageID string) ([]domain.ReactionRole, error) {
	out := []domain.ReactionRole{}
	err := db.WithContext(ctx).
		Where(map[string]any{"MessageID": messageID}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "Emoji"}}).
		Find(&out).Error
	if err != nil {
		return nil, Classify(err)
	}
	return out, nil
}

// DeleteReactionRole removes one mapping. Returns ErrNotFound if absent.
func DeleteReactionRole(ctx context.Context, db *gorm.DB, messageID, emoji string) error {
	return deleteWhere(ctx, db, &domain.ReactionRole{}, map[string]any{"MessageID": messageID, "Emoji": emoji})
}

// ClearReactionRoles removes every mapping on a message and returns how many
// were removed.
func ClearReactionRoles(ctx context.Context, db *gorm.DB, messageID string) (int64, error) {
	return deleteAll(ctx, db, &domain.ReactionRole{}, map[string]any{"MessageID": messageID})
}
