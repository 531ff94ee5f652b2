package interceptor

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/subhadeepchowdhury41/we-share/pkg/jwt"
)

// ContextKey type for context keys
type ContextKey string

const (
	UserIDKey     ContextKey = "user_id"
	ClaimsKey     ContextKey = "claims"
	GinContextKey ContextKey = "gin_context"
)

// RevocationChecker reports whether a token id has been revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthInterceptor resolves the caller from the auth cookie or a bearer
// header. Requests without a usable token continue anonymously.
type AuthInterceptor struct {
	tokens     *jwt.Manager
	revoked    RevocationChecker
	cookieName string
	logger     *zap.Logger
}

// NewAuthInterceptor creates the interceptor. revoked may be nil, in which
// case logout cannot invalidate tokens before they expire.
func NewAuthInterceptor(tokens *jwt.Manager, revoked RevocationChecker, cookieName string, logger *zap.Logger) *AuthInterceptor {
	return &AuthInterceptor{
		tokens:     tokens,
		revoked:    revoked,
		cookieName: cookieName,
		logger:     logger.Named("auth"),
	}
}

// Middleware attaches the gin context and, when the token checks out, the
// caller's claims to the request context. It never rejects a request.
func (interceptor *AuthInterceptor) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithValue(c.Request.Context(), GinContextKey, c)

		claims, err := interceptor.authorize(ctx, c.Request)
		switch {
		case err != nil:
			interceptor.logger.Debug("request treated as anonymous", zap.Error(err))
		case claims != nil:
			ctx = WithClaims(ctx, claims)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests with 401. It must run after
// Middleware.
func (interceptor *AuthInterceptor) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := GetUserIDFromContext(c.Request.Context()); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// authorize returns nil claims and nil error when no token was sent.
func (interceptor *AuthInterceptor) authorize(ctx context.Context, r *http.Request) (*jwt.Claims, error) {
	token := TokenFromRequest(r, interceptor.cookieName)
	if token == "" {
		return nil, nil
	}

	claims, err := interceptor.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	if interceptor.revoked != nil {
		revoked, err := interceptor.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			// the store being down must not log everyone out
			interceptor.logger.Warn("revocation check failed", zap.Error(err))
		} else if revoked {
			return nil, errors.New("token has been revoked")
		}
	}
	return claims, nil
}

// TokenFromRequest prefers the Authorization header over the cookie.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if after, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// WithClaims marks ctx as authenticated.
func WithClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	return context.WithValue(ctx, UserIDKey, claims.UserID)
}

// GetUserIDFromContext extracts user ID from context
func GetUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok || userID == "" {
		return "", errors.New("user ID not found in context")
	}
	return userID, nil
}

// ViewerID returns the caller's id or "" for anonymous requests.
func ViewerID(ctx context.Context) string {
	id, _ := GetUserIDFromContext(ctx)
	return id
}

func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*jwt.Claims)
	return claims, ok
}

// GinContextFromContext returns the gin context of the current HTTP request,
// used by resolvers to set and clear cookies.
func GinContextFromContext(ctx context.Context) (*gin.Context, error) {
	c, ok := ctx.Value(GinContextKey).(*gin.Context)
	if !ok {
		return nil, errors.New("gin context not found in context")
	}
	return c, nil
}
