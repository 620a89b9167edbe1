package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderAPIKey carries the admin API key.
const HeaderAPIKey = "X-API-Key"

const principalKey = "principal"

// APIKeyAuth rejects requests whose X-API-Key (or "Authorization: Bearer")
// does not match key. An empty key disables the check and every caller is
// anonymous.
func APIKeyAuth(key string) gin.HandlerFunc {
	want := sha256.Sum256([]byte(key))
	return func(c *gin.Context) {
		if key == "" {
			c.Set(principalKey, "anonymous")
			c.Next()
			return
		}
		got := strings.TrimSpace(c.GetHeader(HeaderAPIKey))
		if got == "" {
			if h := c.GetHeader("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
				got = strings.TrimSpace(h[7:])
			}
		}
		sum := sha256.Sum256([]byte(got))
		if got == "" || subtle.ConstantTimeCompare(sum[:], want[:]) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "missing or invalid API key",
			})
			return
		}
		// Identify the caller by a key fingerprint, never the key itself.
		c.Set(principalKey, "key:"+hex.EncodeToString(sum[:4]))
		c.Next()
	}
}

// Principal returns the authenticated caller, or "" before APIKeyAuth ran.
func Principal(c *gin.Context) string {
	v, _ := c.Get(principalKey)
	return asString(v)
}
