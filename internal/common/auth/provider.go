// internal/common/auth/provider.go
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"primoboost-workers/internal/common/database"
	"primoboost-workers/internal/common/errors"
	httpclient "primoboost-workers/internal/common/http"
	"primoboost-workers/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// User is the authenticated caller resolved from a bearer token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// TokenValidator resolves a bearer token to a user.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*User, error)
}

// ProviderClient validates user access tokens against the hosted auth
// provider's user endpoint and caches positive results in Redis.
type ProviderClient struct {
	baseURL    string
	serviceKey string
	httpClient *httpclient.Client
	redis      *redis.Client
	cacheTTL   time.Duration
	logger     logger.Logger
}

// NewProviderClient creates a token validator. rdb may be nil to disable caching.
func NewProviderClient(baseURL, serviceKey string, timeout, cacheTTL time.Duration, rdb *redis.Client, log logger.Logger) *ProviderClient {
	return &ProviderClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: httpclient.NewClient(timeout),
		redis:      rdb,
		cacheTTL:   cacheTTL,
		logger:     log.WithFields(map[string]interface{}{"component": "auth"}),
	}
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "auth:token:" + hex.EncodeToString(sum[:])
}

// ValidateToken returns the user owning token or an AUTHENTICATION_ERROR.
func (p *ProviderClient) ValidateToken(ctx context.Context, token string) (*User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.NewAuthenticationError("missing bearer token")
	}

	key := cacheKey(token)
	if p.redis != nil && p.cacheTTL > 0 {
		var cached User
		found, err := database.GetJSON(ctx, p.redis, key, &cached)
		if err != nil {
			p.logger.Warn("Token cache read failed", map[string]interface{}{"error": err.Error()})
		} else if found {
			return &cached, nil
		}
	}

	var user User
	err := p.httpClient.DoJSON(ctx, http.MethodGet, p.baseURL+"/auth/v1/user", map[string]string{
		"Authorization": "Bearer " + token,
		"apikey":        p.serviceKey,
	}, nil, &user)
	if err != nil {
		var statusErr *httpclient.StatusError
		if stderrors.As(err, &statusErr) && statusErr.StatusCode < 500 {
			return nil, errors.NewAuthenticationError("invalid or expired token")
		}
		return nil, errors.NewUpstreamError("auth provider", err)
	}
	if user.ID == "" {
		return nil, errors.NewAuthenticationError("token has no subject")
	}

	if p.redis != nil && p.cacheTTL > 0 {
		if err := database.SetJSON(ctx, p.redis, key, user, p.cacheTTL); err != nil {
			p.logger.Warn("Token cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}

	return &user, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", fmt.Errorf("authorization header is not a bearer token")
	}
	return strings.TrimSpace(header[len(prefix):]), nil
}
