package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-community-store/internal/domain"
)

// ReactionRolesResponse describes the reaction-role setup of a message.
type ReactionRolesResponse struct {
	MessageID string                `json:"message_id"`
	Exclusive bool                  `json:"exclusive"`
	Roles     []domain.ReactionRole `json:"roles"`
}

// ListReactionRoles godoc
// @Summary  Reaction roles of a message
// @Tags     Roles
// @Produce  json
// @Security ApiKeyAuth
// @Param    id  path  string true "Message ID"
// @Success  200 {object} handlers.ReactionRolesResponse
// @Router   /messages/{id}/reaction-roles [get]
func (h *Handlers) ListReactionRoles(c *gin.Context) {
	ctx := c.Request.Context()
	mid := c.Param("id")

	roles, err := h.roles.ReactionRolesFor(ctx, mid)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	exclusive, err := h.roles.IsExclusive(ctx, mid)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	if roles == nil {
		roles = []domain.ReactionRole{}
	}
	ok(c, ReactionRolesResponse{MessageID: mid, Exclusive: exclusive, Roles: roles})
}
