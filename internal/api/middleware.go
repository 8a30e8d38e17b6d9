package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"primoboost-workers/internal/common/auth"
	apperrors "primoboost-workers/internal/common/errors"
	"primoboost-workers/internal/common/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "requestId"
	userKey         = "user"
)

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"route":     c.FullPath(),
			"status":    status,
			"latencyMs": time.Since(start).Milliseconds(),
			"requestId": c.GetString(requestIDKey),
			"clientIp":  c.ClientIP(),
		}
		if user := currentUser(c); user != nil {
			fields["userId"] = user.ID
		}

		switch {
		case status >= http.StatusInternalServerError:
			s.logger.Error("request", fields)
		case status >= http.StatusBadRequest:
			s.logger.Warn("request", fields)
		default:
			s.logger.Info("request", fields)
		}
	}
}

// recordMetrics counts requests per route and, with observability attached,
// wraps the request in a span.
func (s *Server) recordMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		if s.obs != nil {
			ctx, span := s.obs.StartSpan(c.Request.Context(), c.Request.Method+" "+route,
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", route),
			)
			defer span.End()
			c.Request = c.Request.WithContext(ctx)
			defer func() {
				span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))
			}()
		}

		c.Next()

		status := c.Writer.Status()
		elapsed := time.Since(start)

		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())
		if s.obs != nil {
			s.obs.RecordRequest(c.Request.Context(), route, status, elapsed)
		}
	}
}

// cors answers browser preflights for the configured origins. "*" allows any.
func (s *Server) cors() gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(s.config.Server.AllowedOrigins))
	for _, o := range s.config.Server.AllowedOrigins {
		allowed[strings.TrimSuffix(o, "/")] = struct{}{}
	}
	_, allowAll := allowed["*"]

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}
		if _, ok := allowed[origin]; !ok && !allowAll {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-Id")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) authenticate(c *gin.Context) (*auth.User, error) {
	if s.services.Auth == nil {
		return nil, apperrors.NewAuthenticationError("authentication is not configured")
	}
	token, err := auth.BearerToken(c.GetHeader("Authorization"))
	if err != nil {
		return nil, apperrors.NewAuthenticationError(err.Error())
	}
	return s.services.Auth.ValidateToken(c.Request.Context(), token)
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.authenticate(c)
		if err != nil {
			s.abortWithError(c, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// optionalAuth resolves the caller when a token is sent and otherwise lets
// the request through anonymously.
func (s *Server) optionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			if user, err := s.authenticate(c); err == nil {
				c.Set(userKey, user)
			}
		}
		c.Next()
	}
}

func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			s.abortWithError(c, apperrors.NewAuthenticationError("authenticated user required"))
			return
		}
		if !s.config.Auth.IsAdmin(user.ID) {
			s.abortWithError(c, apperrors.NewForbiddenError("admin access required"))
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *auth.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*auth.User)
	return user
}

func currentUserID(c *gin.Context) string {
	if user := currentUser(c); user != nil {
		return user.ID
	}
	return ""
}
