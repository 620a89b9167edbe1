// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Suggestion
// model. Suggestion IDs are generated from the "Suggestion" sequence.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-community-store/internal/domain"
)

// CreateSuggestion assigns s a generated ID and inserts it.
func CreateSuggestion(ctx context.Context, db *gorm.DB, s *domain.Suggestion) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := NextID(ctx, tx, domain.SeqSuggestion)
		if err != nil {
			return err
		}
		s.ID = id
		return tx.Create(s).Error
	})
	return Classify(err)
}

// GetSuggestion returns the suggestion with the given ID.
func GetSuggestion(ctx context.Context, db *gorm.DB, id int64) (*domain.Suggestion, error) {
	var s domain.Suggestion
	if err := db.WithContext(ctx).Where(map[string]any{"ID": id}).First(&s).Error; err != nil {
		return nil, Classify(err)
	}
	return &s, nil
}

// GetSuggestionByMessage returns the suggestion whose embed is messageID.
func GetSuggestionByMessage(ctx context.Context, db *gorm.DB, messageID string) (*domain.Suggestion, error) {
	var s domain.Suggestion
	if err := db.WithContext(ctx).Where(map[string]any{"MessageID": messageID}).First(&s).Error; err != nil {
		return nil, Classify(err)
	}
	return &s, nil
}

// SetSuggestionMessage records the message that carries the suggestion.
func SetSuggestionMessage(ctx context.Context, db *gorm.DB, id int64, messageID string) error {
	return updateColumn(ctx, db, &domain.Suggestion{}, map[string]any{"ID": id}, "MessageID", messageID)
}

// UpdateSuggestionStatus sets the StatusID of a suggestion.
func UpdateSuggestionStatus(ctx context.Context, db *gorm.DB, id int64, status domain.SuggestionStatus) error {
	return updateColumn(ctx, db, &domain.Suggestion{}, map[string]any{"ID": id}, "StatusID", status)
}

// ListSuggestionsByStatus returns every suggestion in a state, oldest first.
func ListSuggestionsByStatus(ctx context.Context, db *gorm.DB, status domain.SuggestionStatus) ([]domain.Suggestion, error) {
	out := []domain.Suggestion{}
	err := db.WithContext(ctx).
		Where(map[string]any{"StatusID": status}).
		Clauses(chronological("ID")).
		Find(&out).Error
	if err != nil {
		return nil, Classify(err)
	}
	return out, nil
}

// CountSuggestionsByStatus returns the number of suggestions in a state.
func CountSuggestionsByStatus(ctx context.Context, db *gorm.DB, status domain.SuggestionStatus) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Suggestion{}).
		Where(map[string]any{"StatusID": status}).
		Count(&n).Error
	return n, Classify(err)
}

// ListSuggestionsPage returns a page of suggestions in a state, oldest first.
func ListSuggestionsPage(ctx context.Context, db *gorm.DB, status domain.SuggestionStatus, offset, limit int) ([]domain.Suggestion, error) {
	out := []domain.Suggestion{}
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

// DeleteSuggestion removes a suggestion. Returns ErrNotFound if it does not exist.
func DeleteSuggestion(ctx context.Context, db *gorm.DB, id int64) error {
	return deleteWhere(ctx, db, &domain.Suggestion{}, map[string]any{"ID": id})
}
