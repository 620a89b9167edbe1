package handlers

import (
	"context"
	"net/http"

	"emperror.dev/errors"
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-community-store/internal/domain"
	"github.com/tbourn/go-community-store/internal/repo"
	"github.com/tbourn/go-community-store/internal/services"
	"github.com/tbourn/go-community-store/internal/utils"
)

//
// Service contracts (context-aware)
//

// ModmailService is the subset of modmail operations exposed over HTTP.
type ModmailService interface {
	Get(ctx context.Context, id string) (*domain.Modmail, error)
	ListPage(ctx context.Context, status domain.ModmailStatus, page, pageSize int) ([]domain.Modmail, int64, error)
	SetStatus(ctx context.Context, id string, status domain.ModmailStatus) error
}

// SuggestionService is the subset of suggestion operations exposed over HTTP.
type SuggestionService interface {
	Get(ctx context.Context, id int64) (*domain.Suggestion, error)
	ListPage(ctx context.Context, status domain.SuggestionStatus, page, pageSize int) ([]domain.Suggestion, int64, error)
	// SetStatus reports whether the stored status changed.
	SetStatus(ctx context.Context, id int64, status domain.SuggestionStatus) (bool, error)
}

// ModerationService exposes warnings and name history.
type ModerationService interface {
	Warnings(ctx context.Context, userID string) ([]domain.MemberWarning, error)
	RemoveWarning(ctx context.Context, id int64) error
	Names(ctx context.Context, userID string) ([]domain.MemberNameHistory, error)
}

// GroupExchangeService exposes a member's course group exchanges.
type GroupExchangeService interface {
	ForUser(ctx context.Context, userID string) ([]services.Exchange, error)
}

// RoleService exposes reaction-role configuration of a message.
type RoleService interface {
	ReactionRolesFor(ctx context.Context, messageID string) ([]domain.ReactionRole, error)
	IsExclusive(ctx context.Context, messageID string) (bool, error)
}

// ReminderService exposes scheduled reminders.
type ReminderService interface {
	JobsForUser(ctx context.Context, userID string) ([]domain.RemindmeJob, error)
	Due(ctx context.Context, limit int) ([]domain.RemindmeJob, error)
}

//
// Handler wiring
//

// Handlers groups the admin API endpoints. Nil services are allowed in tests
// as long as their routes are not exercised.
type Handlers struct {
	modmail     ModmailService
	suggestions SuggestionService
	moderation  ModerationService
	groups      GroupExchangeService
	roles       RoleService
	reminders   ReminderService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(
	modmail ModmailService,
	suggestions SuggestionService,
	moderation ModerationService,
	groups GroupExchangeService,
	roles RoleService,
	reminders ReminderService,
) *Handlers {
	return &Handlers{
		modmail:     modmail,
		suggestions: suggestions,
		moderation:  moderation,
		groups:      groups,
		roles:       roles,
		reminders:   reminders,
	}
}

//
// DTOs
//

// StatusRequest is the payload of the status update endpoints. Status is a
// status name ("closed", "approved") or its numeric id.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

var (
	defaultPageSize = utils.ListLimits.Default
	maxPageSize     = utils.ListLimits.Max
)

// clampPagination parses and bounds the page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	p := utils.ListLimits.Page(utils.IntOr(c.Query("page"), 1), utils.IntOr(c.Query("page_size"), 0))
	return p.Number, p.Size
}

func paginate(page, pageSize int, total int64) Pagination {
	pages := utils.Page{Number: page, Size: pageSize}.Pages(total)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
	}
}

// failService maps a service or store error onto the error envelope.
// fallback is the code used for unexpected 5xx errors.
func failService(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrModmailNotFound),
		errors.Is(err, services.ErrSuggestionNotFound),
		errors.Is(err, services.ErrWarningNotFound),
		errors.Is(err, services.ErrJobNotFound),
		errors.Is(err, services.ErrOfferNotFound),
		errors.Is(err, services.ErrReactionRoleNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, err.Error())
	case errors.Is(err, services.ErrEmptyID):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, repo.ErrDuplicate):
		fail(c, http.StatusConflict, ErrCodeConflict, "conflicting record")
	case errors.Is(err, repo.ErrStorageUnavailable):
		fail(c, http.StatusServiceUnavailable, ErrCodeStorageUnavailable, "storage unavailable")
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, fallback, "internal error")
	}
}
