// Member HTTP handlers: moderation records, course group exchanges and
// reminders of one member, plus warning removal.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-community-store/internal/domain"
	"github.com/tbourn/go-community-store/internal/services"
)

// WarningsResponse lists the warnings of a member.
type WarningsResponse struct {
	UserID   string                 `json:"user_id"`
	Warnings []domain.MemberWarning `json:"warnings"`
}

// NamesResponse lists the recorded names of a member.
type NamesResponse struct {
	UserID string                     `json:"user_id"`
	Names  []domain.MemberNameHistory `json:"names"`
}

// ExchangesResponse lists the open group exchanges of a member.
type ExchangesResponse struct {
	UserID    string              `json:"user_id"`
	Exchanges []services.Exchange `json:"exchanges"`
}

// RemindersResponse lists reminder jobs.
type RemindersResponse struct {
	Reminders []domain.RemindmeJob `json:"reminders"`
}

// ListWarnings godoc
// @Summary  Warnings of a member
// @Tags     Members
// @Produce  json
// @Security ApiKeyAuth
// @Param    id  path  string true "User ID"
// @Success  200 {object} handlers.WarningsResponse
// @Router   /members/{id}/warnings [get]
func (h *Handlers) ListWarnings(c *gin.Context) {
	uid := c.Param("id")
	items, err := h.moderation.Warnings(c.Request.Context(), uid)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	if items == nil {
		items = []domain.MemberWarning{}
	}
	ok(c, WarningsResponse{UserID: uid, Warnings: items})
}

// DeleteWarning godoc
// @Summary  Remove one warning
// @Tags     Members
// @Security ApiKeyAuth
// @Param    id  path  int true "Warning ID"
// @Success  204
// @Failure  404 {object} handlers.ErrorResponse "Warning not found"
// @Router   /warnings/{id} [delete]
func (h *Handlers) DeleteWarning(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "warning id must be a positive integer")
		return
	}
	if err := h.moderation.RemoveWarning(c.Request.Context(), id); err != nil {
		failService(c, err, ErrCodeUpdateFailed)
		return
	}
	noContent(c)
}

// ListNames godoc
// @Summary  Name history of a member
// @Tags     Members
// @Produce  json
// @Security ApiKeyAuth
// @Param    id  path  string true "User ID"
// @Success  200 {object} handlers.NamesResponse
// @Router   /members/{id}/names [get]
func (h *Handlers) ListNames(c *gin.Context) {
	uid := c.Param("id")
	items, err := h.moderation.Names(c.Request.Context(), uid)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	if items == nil {
		items = []domain.MemberNameHistory{}
	}
	ok(c, NamesResponse{UserID: uid, Names: items})
}

// ListGroupExchanges godoc
// @Summary  Open course group exchanges of a member
// @Tags     Members
// @Produce  json
// @Security ApiKeyAuth
// @Param    id  path  string true "User ID"
// @Success  200 {object} handlers.ExchangesResponse
// @Router   /members/{id}/group-exchanges [get]
func (h *Handlers) ListGroupExchanges(c *gin.Context) {
	uid := c.Param("id")
	items, err := h.groups.ForUser(c.Request.Context(), uid)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	if items == nil {
		items = []services.Exchange{}
	}
	ok(c, ExchangesResponse{UserID: uid, Exchanges: items})
}

// ListMemberReminders godoc
// @Summary  Reminders a member subscribed to
// @Tags     Members
// @Produce  json
// @Security ApiKeyAuth
// @Param    id  path  string true "User ID"
// @Success  200 {object} handlers.RemindersResponse
// @Router   /members/{id}/reminders [get]
func (h *Handlers) ListMemberReminders(c *gin.Context) {
	items, err := h.reminders.JobsForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	if items == nil {
		items = []domain.RemindmeJob{}
	}
	ok(c, RemindersResponse{Reminders: items})
}
