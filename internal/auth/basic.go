package auth

import (
	"crypto/subtle"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/config"
)

const basicAuthRealm = `Basic realm="bookstore", charset="UTF-8"`

// BasicAuth guards the application with a single bcrypt-protected account.
type BasicAuth struct {
	config      config.Auth
	limiter     *RateLimiter
	publicPaths []string
}

func NewBasicAuth(cfg config.Auth) *BasicAuth {
	return &BasicAuth{
		config:      cfg,
		limiter:     NewRateLimiter(DefaultRateLimitConfig()),
		publicPaths: []string{"/health", "/ping", "/static/"},
	}
}

// Handler returns the middleware. In "none" mode it lets every request through.
func (b *BasicAuth) Handler() gin.HandlerFunc {
	if b.config.Mode != config.AuthModeBasic {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if b.isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if allowed, retryAfter := b.limiter.Allow(ip); !allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many failed login attempts",
				"code":  "rate_limited",
			})
			return
		}

		username, password, ok := c.Request.BasicAuth()
		if ok && b.valid(username, password) {
			b.limiter.RecordSuccess(ip)
			c.Next()
			return
		}

		if ok {
			if b.limiter.RecordFailure(ip) {
				log.Printf("[AUTH] Locked out %s after repeated failed logins", ip)
			}
		}

		c.Header("WWW-Authenticate", basicAuthRealm)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "authentication required",
			"code":  "unauthorized",
		})
	}
}

func (b *BasicAuth) valid(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(b.config.Username)) == 1
	// Always run bcrypt so a wrong username costs as much as a wrong password
	passOK := CheckPassword(password, b.config.PasswordHash) == nil
	return userOK && passOK
}

func (b *BasicAuth) isPublicPath(path string) bool {
	for _, p := range b.publicPaths {
		if path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}
