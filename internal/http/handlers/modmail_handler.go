// Modmail HTTP handlers.
//
//   - GET /modmail              (list by status, paginated; default status open)
//   - GET /modmail/{id}         (single thread)
//   - PUT /modmail/{id}/status  (move a thread to another state)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-community-store/internal/domain"
)

// ListModmailResponse wraps a page of modmail threads.
type ListModmailResponse struct {
	Status     string           `json:"status"`
	Modmail    []domain.Modmail `json:"modmail"`
	Pagination Pagination       `json:"pagination"`
}

// ListModmail godoc
// @ID          listModmail
// @Summary     List modmail threads
// @Description Returns a page of threads in one state, oldest first.
// @Tags        Modmail
// @Produce     json
// @Security    ApiKeyAuth
// @Param       status     query  string false "open, in_progress or closed" default(open)
// @Param       page       query  int    false "1-based page"                default(1)
// @Param       page_size  query  int    false "Items per page (max 100)"    default(20)
// @Success     200  {object} handlers.ListModmailResponse
// @Failure     400  {object} handlers.ErrorResponse "Unknown status"
// @Failure     401  {object} handlers.ErrorResponse
// @Failure     503  {object} handlers.ErrorResponse "Storage unavailable"
// @Router      /modmail [get]
func (h *Handlers) ListModmail(c *gin.Context) {
	status, err := domain.ParseModmailStatus(c.DefaultQuery("status", domain.ModmailOpen.String()))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, err.Error())
		return
	}
	page, pageSize := clampPagination(c)

	items, total, err := h.modmail.ListPage(c.Request.Context(), status, page, pageSize)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	ok(c, ListModmailResponse{
		Status:     status.String(),
		Modmail:    items,
		Pagination: paginate(page, pageSize, total),
	})
}

// GetModmail godoc
// @ID          getModmail
// @Summary     Get a modmail thread
// @Tags        Modmail
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id   path     string true "Opening message ID"
// @Success     200  {object} domain.Modmail
// @Failure     404  {object} handlers.ErrorResponse "Thread not found"
// @Router      /modmail/{id} [get]
func (h *Handlers) GetModmail(c *gin.Context) {
	m, err := h.modmail.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, m)
}

// UpdateModmailStatus godoc
// @ID          updateModmailStatus
// @Summary     Change the state of a modmail thread
// @Tags        Modmail
// @Accept      json
// @Security    ApiKeyAuth
// @Param       id    path  string                  true "Opening message ID"
// @Param       body  body  handlers.StatusRequest  true "New status"
// @Success     204
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload or status"
// @Failure     404  {object} handlers.ErrorResponse "Thread not found"
// @Router      /modmail/{id}/status [put]
func (h *Handlers) UpdateModmailStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}
	status, err := domain.ParseModmailStatus(req.Status)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, err.Error())
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if err := h.modmail.SetStatus(c.Request.Context(), id, status); err != nil {
		failService(c, err, ErrCodeUpdateFailed)
		return
	}
	noContent(c)
}
