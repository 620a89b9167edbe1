// Package handlers implements the admin API endpoints over the store
// services.
//
// Every failure is written as an ErrorResponse:
//
//	HTTP/1.1 404 Not Found
//	{"request_id":"123e4567-e89b-12d3-a456-426614174000","code":"not_found","message":"warning not found"}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-community-store/internal/http/middleware"
)

// ErrorResponse is the error envelope of the admin API.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	// Code is one of the Code* constants.
	Code    string `json:"code"`
	Message string `json:"message"`
}

// fail aborts the chain with an ErrorResponse. Server errors are logged at
// error level, client errors at debug.
func fail(c *gin.Context, status int, code, msg string) {
	var ev *zerolog.Event
	lg := middleware.LoggerFrom(c)
	if status >= http.StatusInternalServerError {
		ev = lg.Error()
	} else {
		ev = lg.Debug()
	}
	ev.Int("status", status).
		Str("route", c.FullPath()).
		Str("principal", middleware.Principal(c)).
		Str("code", code).
		Msg(msg)

	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: middleware.RequestIDFrom(c),
		Code:      code,
		Message:   msg,
	})
}

// Fail writes an ErrorResponse from outside this package, e.g. the router's
// NoRoute and readiness handlers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, body any) { c.JSON(http.StatusOK, body) }

func noContent(c *gin.Context) { c.Status(http.StatusNoContent) }
