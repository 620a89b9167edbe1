// Package services – ModmailService
//
// This file implements the ModmailService, which manages the lifecycle of
// modmail threads: submission, status transitions, and listing by status.
// Persistence goes through the ModmailRepo contract so the service can be
// exercised against fakes.
//
// Service-level errors (e.g., ErrModmailNotFound) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
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
	"github.com/tbourn/go-community-store/internal/utils"
)

// ModmailRepo defines the repository contract required by ModmailService.
type ModmailRepo interface {
	// CreateModmail inserts a thread; a repeated ID fails with repo.ErrDuplicate.
	CreateModmail(ctx context.Context, db *gorm.DB, m *domain.Modmail) error

	// GetModmail fetches a thread by ID.
	GetModmail(ctx context.Context, db *gorm.DB, id string) (*domain.Modmail, error)

	// UpdateModmailStatus sets the status of a thread.
	UpdateModmailStatus(ctx context.Context, db *gorm.DB, id string, status domain.ModmailStatus) error

	// ListModmailByStatus returns every thread in a state.
	ListModmailByStatus(ctx context.Context, db *gorm.DB, status domain.ModmailStatus) ([]domain.Modmail, error)

	// CountModmailByStatus returns the number of threads in a state.
	CountModmailByStatus(ctx context.Context, db *gorm.DB, status domain.ModmailStatus) (int64, error)

	// ListModmailPage returns a page of threads in a state.
	ListModmailPage(ctx context.Context, db *gorm.DB, status domain.ModmailStatus, offset, limit int) ([]domain.Modmail, error)
}

// ModmailService provides modmail operations.
type ModmailService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the modmail repository used by this service.
	Repo ModmailRepo

	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// NewModmailService constructs a ModmailService.
func NewModmailService(db *gorm.DB, r ModmailRepo) *ModmailService {
	return &ModmailService{DB: db, Repo: r, Now: time.Now}
}

func (s *ModmailService) now() domain.Timestamp {
	if s.Now == nil {
		return domain.Now()
	}
	return domain.NewTimestamp(s.Now())
}

// Submit records a new thread opened by the message id, authored by author.
// New threads are Open.
func (s *ModmailService) Submit(ctx context.Context, id, author string) (*domain.Modmail, error) {
	tr := otel.Tracer("services/ModmailService")
	ctx, span := tr.Start(ctx, "Submit", trace.WithAttributes(attribute.String("modmail.id", id)))
	defer span.End()

	id, author = strings.TrimSpace(id), strings.TrimSpace(author)
	if id == "" || author == "" {
		return nil, ErrEmptyID
	}
	m := &domain.Modmail{
		ID:        id,
		Author:    author,
		StatusID:  domain.ModmailOpen,
		Timestamp: s.now(),
	}
	if err := s.Repo.CreateModmail(ctx, s.DB, m); err != nil {
		if isDuplicate(err) {
			return nil, ErrModmailExists
		}
		return nil, err
	}
	return m, nil
}

// Get returns a thread by ID.
func (s *ModmailService) Get(ctx context.Context, id string) (*domain.Modmail, error) {
	m, err := s.Repo.GetModmail(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrModmailNotFound
		}
		return nil, err
	}
	return m, nil
}

// Status returns the current status of a thread.
func (s *ModmailService) Status(ctx context.Context, id string) (domain.ModmailStatus, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return m.StatusID, nil
}

// SetStatus moves a thread to status.
func (s *ModmailService) SetStatus(ctx context.Context, id string, status domain.ModmailStatus) error {
	tr := otel.Tracer("services/ModmailService")
	ctx, span := tr.Start(ctx, "SetStatus", trace.WithAttributes(
		attribute.String("modmail.id", id),
		attribute.String("modmail.status", status.String()),
	))
	defer span.End()

	if !status.Valid() {
		return ErrInvalidStatus
	}
	if err := s.Repo.UpdateModmailStatus(ctx, s.DB, id, status); err != nil {
		if isNotFound(err) {
			return ErrModmailNotFound
		}
		return err
	}
	return nil
}

// ListByStatus returns every thread in a state, oldest first.
func (s *ModmailService) ListByStatus(ctx context.Context, status domain.ModmailStatus) ([]domain.Modmail, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.Repo.ListModmailByStatus(ctx, s.DB, status)
}

// ListPage returns a page of threads in a state and the total count.
func (s *ModmailService) ListPage(ctx context.Context, status domain.ModmailStatus, page, pageSize int) ([]domain.Modmail, int64, error) {
	tr := otel.Tracer("services/ModmailService")
	ctx, span := tr.Start(ctx, "ListPage", trace.WithAttributes(
		attribute.String("modmail.status", status.String()),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	))
	defer span.End()

	if !status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	pg := utils.ListLimits.Page(page, pageSize)

	total, err := s.Repo.CountModmailByStatus(ctx, s.DB, status)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Modmail{}, 0, nil
	}
	items, err := s.Repo.ListModmailPage(ctx, s.DB, status, pg.Offset(), pg.Size)
	return items, total, err
}
