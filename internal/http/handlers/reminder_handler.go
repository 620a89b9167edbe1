package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-community-store/internal/domain"
	"github.com/tbourn/go-community-store/internal/utils"
)

var dueLimits = utils.Limits{Default: 50, Max: 500}

// ListDueReminders returns the jobs whose time has passed, earliest first.
//
// @Summary  Due reminders
// @Tags     Reminders
// @Produce  json
// @Security ApiKeyAuth
// @Param    limit query int false "Maximum jobs (max 500)" default(50)
// @Success  200 {object} handlers.RemindersResponse
// @Router   /reminders/due [get]
func (h *Handlers) ListDueReminders(c *gin.Context) {
	limit := dueLimits.Clamp(utils.IntOr(c.Query("limit"), 0))
	items, err := h.reminders.Due(c.Request.Context(), limit)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	if items == nil {
		items = []domain.RemindmeJob{}
	}
	ok(c, RemindersResponse{Reminders: items})
}
