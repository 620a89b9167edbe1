package services

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-community-store/internal/domain"
	"github.com/tbourn/go-community-store/internal/repo"
	"github.com/tbourn/go-community-store/internal/utils"
)

// SuggestionService manages member suggestions and their review state.
type SuggestionService struct {
	DB  *gorm.DB
	Now func() time.Time
}

// NewSuggestionService constructs a SuggestionService.
func NewSuggestionService(db *gorm.DB) *SuggestionService {
	return &SuggestionService{DB: db, Now: time.Now}
}

// Submit stores a new, undecided suggestion by authorID and returns its
// generated ID.
func (s *SuggestionService) Submit(ctx context.Context, authorID string) (int64, error) {
	tr := otel.Tracer("services/SuggestionService")
	ctx, span := tr.Start(ctx, "Submit", trace.WithAttributes(attribute.String("author.id", authorID)))
	defer span.End()

	authorID = strings.TrimSpace(authorID)
	if authorID == "" {
		return 0, ErrEmptyID
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	sg := &domain.Suggestion{
		AuthorID:  authorID,
		StatusID:  domain.SuggestionUndecided,
		Timestamp: domain.NewTimestamp(now()),
	}
	if err := repo.CreateSuggestion(ctx, s.DB, sg); err != nil {
		return 0, err
	}
	span.SetAttributes(attribute.Int64("suggestion.id", sg.ID))
	return sg.ID, nil
}

// AttachMessage links a suggestion to the message that displays it.
func (s *SuggestionService) AttachMessage(ctx context.Context, id int64, messageID string) error {
	messageID = strings.TrimSpace(messageID)
	if messageID == "" {
		return ErrEmptyID
	}
	if err := repo.SetSuggestionMessage(ctx, s.DB, id, messageID); err != nil {
		if isNotFound(err) {
			return ErrSuggestionNotFound
		}
		return err
	}
	return nil
}

// Get returns a suggestion by ID.
func (s *SuggestionService) Get(ctx context.Context, id int64) (*domain.Suggestion, error) {
	sg, err := repo.GetSuggestion(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSuggestionNotFound
		}
		return nil, err
	}
	return sg, nil
}

// StatusByMessage returns the suggestion displayed by messageID and its
// status.
func (s *SuggestionService) StatusByMessage(ctx context.Context, messageID string) (*domain.Suggestion, error) {
	sg, err := repo.GetSuggestionByMessage(ctx, s.DB, messageID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSuggestionNotFound
		}
		return nil, err
	}
	return sg, nil
}

// SetStatus moves a suggestion to status and reports whether the status
// actually changed.
func (s *SuggestionService) SetStatus(ctx context.Context, id int64, status domain.SuggestionStatus) (bool, error) {
	tr := otel.Tracer("services/SuggestionService")
	ctx, span := tr.Start(ctx, "SetStatus", trace.WithAttributes(
		attribute.Int64("suggestion.id", id),
		attribute.String("suggestion.status", status.String()),
	))
	defer span.End()

	if !status.Valid() {
		return false, ErrInvalidStatus
	}

	changed := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := repo.GetSuggestion(ctx, tx, id)
		if err != nil {
			return err
		}
		if cur.StatusID == status {
			return nil
		}
		changed = true
		return repo.UpdateSuggestionStatus(ctx, tx, id, status)
	})
	if err != nil {
		if isNotFound(err) {
			return false, ErrSuggestionNotFound
		}
		return false, err
	}
	return changed, nil
}

// ListByStatus returns every suggestion in a state, oldest first.
func (s *SuggestionService) ListByStatus(ctx context.Context, status domain.SuggestionStatus) ([]domain.Suggestion, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return repo.ListSuggestionsByStatus(ctx, s.DB, status)
}

// ListPage returns a page of suggestions in a state and the total count.
func (s *SuggestionService) ListPage(ctx context.Context, status domain.SuggestionStatus, page, pageSize int) ([]domain.Suggestion, int64, error) {
	if !status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	pg := utils.ListLimits.Page(page, pageSize)

	total, err := repo.CountSuggestionsByStatus(ctx, s.DB, status)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Suggestion{}, 0, nil
	}
	items, err := repo.ListSuggestionsPage(ctx, s.DB, status, pg.Offset(), pg.Size)
	return items, total, err
}
