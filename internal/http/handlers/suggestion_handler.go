// Suggestion HTTP handlers.
//
//   - GET /suggestions              (list by status, paginated; default undecided)
//   - GET /suggestions/{id}         (single suggestion)
//   - PUT /suggestions/{id}/status  (review decision)
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-community-store/internal/domain"
)

// ListSuggestionsResponse wraps a page of suggestions.
type ListSuggestionsResponse struct {
	Status      string              `json:"status"`
	Suggestions []domain.Suggestion `json:"suggestions"`
	Pagination  Pagination          `json:"pagination"`
}

// SuggestionStatusResponse reports the outcome of a status update.
type SuggestionStatusResponse struct {
	ID      int64  `json:"id"`
	Status  string `json:"status"`
	Changed bool   `json:"changed"`
}

func suggestionID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "suggestion id must be a positive integer")
		return 0, false
	}
	return id, true
}

// ListSuggestions godoc
// @ID          listSuggestions
// @Summary     List suggestions
// @Description Returns a page of suggestions in one review state, oldest first.
// @Tags        Suggestions
// @Produce     json
// @Security    ApiKeyAuth
// @Param       status     query  string false "undecided, approved, denied, considered or implemented" default(undecided)
// @Param       page       query  int    false "1-based page"             default(1)
// @Param       page_size  query  int    false "Items per page (max 100)" default(20)
// @Success     200  {object} handlers.ListSuggestionsResponse
// @Failure     400  {object} handlers.ErrorResponse "Unknown status"
// @Router      /suggestions [get]
func (h *Handlers) ListSuggestions(c *gin.Context) {
	status, err := domain.ParseSuggestionStatus(c.DefaultQuery("status", domain.SuggestionUndecided.String()))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, err.Error())
		return
	}
	page, pageSize := clampPagination(c)

	items, total, err := h.suggestions.ListPage(c.Request.Context(), status, page, pageSize)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	ok(c, ListSuggestionsResponse{
		Status:      status.String(),
		Suggestions: items,
		Pagination:  paginate(page, pageSize, total),
	})
}

// GetSuggestion godoc
// @ID          getSuggestion
// @Summary     Get a suggestion
// @Tags        Suggestions
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id   path     int true "Suggestion ID"
// @Success     200  {object} domain.Suggestion
// @Failure     400  {object} handlers.ErrorResponse "Malformed ID"
// @Failure     404  {object} handlers.ErrorResponse "Suggestion not found"
// @Router      /suggestions/{id} [get]
func (h *Handlers) GetSuggestion(c *gin.Context) {
	id, valid := suggestionID(c)
	if !valid {
		return
	}
	sg, err := h.suggestions.Get(c.Request.Context(), id)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, sg)
}

// UpdateSuggestionStatus godoc
// @ID          updateSuggestionStatus
// @Summary     Record a review decision
// @Tags        Suggestions
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id    path  int                     true "Suggestion ID"
// @Param       body  body  handlers.StatusRequest  true "New status"
// @Success     200  {object} handlers.SuggestionStatusResponse
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     404  {object} handlers.ErrorResponse "Suggestion not found"
// @Router      /suggestions/{id}/status [put]
func (h *Handlers) UpdateSuggestionStatus(c *gin.Context) {
	id, valid := suggestionID(c)
	if !valid {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}
	status, err := domain.ParseSuggestionStatus(req.Status)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, err.Error())
		return
	}
	changed, err := h.suggestions.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		failService(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, SuggestionStatusResponse{ID: id, Status: status.String(), Changed: changed})
}
