package api

import (
	"context"
	"strings"
	"time"

	"github.com/Domenick1991/flightdesk/internal/errs"
	"github.com/Domenick1991/flightdesk/internal/identity"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ctxUser  = "user"
	ctxToken = "access_token"
)

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*identity.User, error)
}

// RequestLogger logs one line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// RequireAuth resolves the bearer token to a user and stores both on the context.
func RequireAuth(auth Authenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			respondError(c, log, errs.Unauthorized("missing bearer token"))
			return
		}
		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errs.Is(err, errs.KindInternal) {
				respondError(c, log, err)
				return
			}
			respondError(c, log, errs.Unauthorized("invalid or expired token"))
			return
		}
		c.Set(ctxUser, user)
		c.Set(ctxToken, token)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func currentUser(c *gin.Context) *identity.User {
	if v, ok := c.Get(ctxUser); ok {
		if u, ok := v.(*identity.User); ok {
			return u
		}
	}
	return nil
}
