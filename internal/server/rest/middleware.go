package rest

import (
	"strconv"
	"time"

	"github.com/dmitrijs2005/dashkeeper/internal/common"
	"github.com/dmitrijs2005/dashkeeper/internal/server/auth"
	"github.com/dmitrijs2005/dashkeeper/internal/server/metrics"
	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

var errTokenMissing = common.Unauthorized("token missing.")

// tokenParser turns a token into the caller it names.
type tokenParser func(token string, secret []byte) (auth.Principal, error)

// requireToken decodes the token in the query string with parse and stores
// the principal in the gin context.
func (s *HTTPServer) requireToken(parse tokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query(common.TokenQueryParam)
		if token == "" {
			respondError(c, s.logger, errTokenMissing)
			c.Abort()
			return
		}

		p, err := parse(token, s.jwtSecret)
		if err != nil {
			s.logger.Debug(c.Request.Context(), "token rejected", "error", err)
			respondError(c, s.logger, errTokenMissing)
			c.Abort()
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

// principal returns the caller set by requireToken.
func principal(c *gin.Context) auth.Principal {
	v, _ := c.Get(principalKey)
	p, _ := v.(auth.Principal)
	return p
}

// optionalPrincipal decodes token if it is valid and returns nil otherwise.
func (s *HTTPServer) optionalPrincipal(token string) *auth.Principal {
	if token == "" {
		return nil
	}
	p, err := auth.ParseSessionToken(token, s.jwtSecret)
	if err != nil {
		return nil
	}
	return &p
}

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
