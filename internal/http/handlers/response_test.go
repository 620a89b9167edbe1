package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-community-store/internal/http/middleware"
)

// envelopeRouter runs handlers behind the request ID and access log
// middleware and captures the global logger.
func envelopeRouter(t *testing.T) (*gin.Engine, *bytes.Buffer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.AccessLog(middleware.AccessLogOptions{}))
	return r, &buf
}

func TestFail_Envelope(t *testing.T) {
	r, logs := envelopeRouter(t)
	r.GET("/down", func(c *gin.Context) {
		fail(c, http.StatusServiceUnavailable, ErrCodeStorageUnavailable, "store offline")
	})
	r.GET("/bad", func(c *gin.Context) {
		Fail(c, http.StatusBadRequest, ErrCodeBadRequest, "bad id")
	})

	cases := []struct {
		path   string
		status int
		code   string
		msg    string
	}{
		{"/down", http.StatusServiceUnavailable, ErrCodeStorageUnavailable, "store offline"},
		{"/bad", http.StatusBadRequest, ErrCodeBadRequest, "bad id"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			req.Header.Set("X-Request-ID", "rid"+tc.path)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.status {
				t.Fatalf("status = %d; want %d", w.Code, tc.status)
			}
			var body ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			want := ErrorResponse{RequestID: "rid" + tc.path, Code: tc.code, Message: tc.msg}
			if body != want {
				t.Fatalf("body = %+v; want %+v", body, want)
			}
		})
	}

	var sawServerError bool
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		if strings.Contains(line, `"message":"store offline"`) {
			sawServerError = strings.Contains(line, `"level":"error"`) &&
				strings.Contains(line, `"route":"/down"`) &&
				strings.Contains(line, `"request_id":"rid/down"`)
		}
	}
	if !sawServerError {
		t.Fatalf("5xx not logged with request context:\n%s", logs.String())
	}
}

func TestSuccessHelpers(t *testing.T) {
	r, _ := envelopeRouter(t)
	r.GET("/item", func(c *gin.Context) { ok(c, gin.H{"id": 7}) })
	r.DELETE("/item", func(c *gin.Context) { noContent(c) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/item", nil))
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"id":7}` {
		t.Fatalf("ok: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/item", nil))
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("noContent: %d %q", w.Code, w.Body.String())
	}
}
