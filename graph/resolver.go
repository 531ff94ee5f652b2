package graph

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/subhadeepchowdhury41/we-share/events"
	"github.com/subhadeepchowdhury41/we-share/interceptor"
	"github.com/subhadeepchowdhury41/we-share/pkg/jwt"
	"github.com/subhadeepchowdhury41/we-share/service"
)

// TokenRevoker invalidates a token id until the token expires.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

// TweetFeed delivers tweet.created events to subscribers.
type TweetFeed interface {
	SubscribeTweetCreated(ctx context.Context) (<-chan events.TweetCreatedEvent, error)
}

type CookieConfig struct {
	Name   string
	Secure bool
}

// Deps bundles what the resolvers need. Revoker may be nil.
type Deps struct {
	Users    *service.UserService
	Tweets   *service.TweetService
	Comments *service.CommentService
	Tokens   *jwt.Manager
	Revoker  TokenRevoker
	Feed     TweetFeed
	Cookie   CookieConfig
	Logger   *zap.Logger
}

// Resolver is the root resolver for queries, mutations and subscriptions.
type Resolver struct {
	users    *service.UserService
	tweets   *service.TweetService
	comments *service.CommentService
	tokens   *jwt.Manager
	revoker  TokenRevoker
	feed     TweetFeed
	cookie   CookieConfig
	logger   *zap.Logger
}

func NewResolver(d Deps) *Resolver {
	return &Resolver{
		users:    d.Users,
		tweets:   d.Tweets,
		comments: d.Comments,
		tokens:   d.Tokens,
		revoker:  d.Revoker,
		feed:     d.Feed,
		cookie:   d.Cookie,
		logger:   d.Logger.Named("graph"),
	}
}

// caller returns the authenticated user id or an Unauthorized error.
func caller(ctx context.Context) (string, error) {
	id, err := interceptor.GetUserIDFromContext(ctx)
	if err != nil {
		return "", unauthenticated()
	}
	return id, nil
}

// setAuthCookie is a no-op outside an HTTP request, e.g. over websockets.
func (r *Resolver) setAuthCookie(ctx context.Context, token string, maxAge int) {
	c, err := interceptor.GinContextFromContext(ctx)
	if err != nil {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(r.cookie.Name, token, maxAge, "/", "", r.cookie.Secure, true)
}

func (r *Resolver) issueToken(ctx context.Context, userID, username string) (string, error) {
	token, _, err := r.tokens.Generate(userID, username)
	if err != nil {
		return "", err
	}
	r.setAuthCookie(ctx, token, int(r.tokens.Expiry().Seconds()))
	return token, nil
}

// endSession revokes the caller's token, if revocation is enabled, and
// clears the cookie.
func (r *Resolver) endSession(ctx context.Context) error {
	if claims, ok := interceptor.ClaimsFromContext(ctx); ok && r.revoker != nil && claims.ExpiresAt != nil {
		if err := r.revoker.Revoke(context.WithoutCancel(ctx), claims.ID, claims.ExpiresAt.Time); err != nil {
			return err
		}
	}
	r.setAuthCookie(ctx, "", -1)
	return nil
}
