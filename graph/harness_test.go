package graph

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/subhadeepchowdhury41/we-share/interceptor"
	"github.com/subhadeepchowdhury41/we-share/metrics"
	"github.com/subhadeepchowdhury41/we-share/pkg/jwt"
	"github.com/subhadeepchowdhury41/we-share/publisher"
	"github.com/subhadeepchowdhury41/we-share/repository/repotest"
	"github.com/subhadeepchowdhury41/we-share/service"
)

type revocationLog struct {
	mu  sync.Mutex
	ids []string
}

func (l *revocationLog) Revoke(_ context.Context, jti string, _ time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = append(l.ids, jti)
	return nil
}

type harness struct {
	schema  *graphql.Schema
	graph   *repotest.Graph
	tokens  *jwt.Manager
	revoked *revocationLog
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	g := repotest.New()
	logger := zap.NewNop()
	events := publisher.NewEventPublisher(publisher.NewLocalBroker(), logger, metrics.New())

	comments := service.NewCommentService(g.Comments(), events, logger)
	tokens, err := jwt.NewManager("graph-test-secret", time.Hour)
	require.NoError(t, err)
	revoked := &revocationLog{}

	r := NewResolver(Deps{
		Users:    service.NewUserService(g.Users(), events, logger),
		Tweets:   service.NewTweetService(g.Tweets(), comments, events, logger),
		Comments: comments,
		Tokens:   tokens,
		Revoker:  revoked,
		Feed:     events,
		Cookie:   CookieConfig{Name: "token"},
		Logger:   logger,
	})
	schema, err := NewSchema(r)
	require.NoError(t, err)
	return &harness{schema: schema, graph: g, tokens: tokens, revoked: revoked}
}

func (h *harness) exec(ctx context.Context, query string, vars map[string]interface{}) *graphql.Response {
	return h.schema.Exec(ctx, query, "", vars)
}

// run executes query and decodes its data into out, failing on any error.
func (h *harness) run(t *testing.T, ctx context.Context, query string, vars map[string]interface{}, out interface{}) {
	t.Helper()
	resp := h.exec(ctx, query, vars)
	require.Empty(t, resp.Errors)
	if out != nil {
		require.NoError(t, json.Unmarshal(resp.Data, out))
	}
}

// code returns extensions.code of the first error.
func code(t *testing.T, resp *graphql.Response) string {
	t.Helper()
	require.NotEmpty(t, resp.Errors, "expected an error")
	c, _ := resp.Errors[0].Extensions["code"].(string)
	return c
}

const registerMutation = `mutation($in: RegisterUserInput!) {
	registerUser(input: $in) { token user { id username name } }
}`

// signup registers username and returns a context authenticated as them.
func (h *harness) signup(t *testing.T, username string) (context.Context, string) {
	t.Helper()
	var out struct {
		RegisterUser struct {
			Token string
			User  struct{ ID string }
		}
	}
	h.run(t, context.Background(), registerMutation, map[string]interface{}{
		"in": map[string]interface{}{
			"username": username,
			"email":    username + "@example.com",
			"password": "password-" + username,
		},
	}, &out)

	claims, err := h.tokens.Verify(out.RegisterUser.Token)
	require.NoError(t, err)
	require.Equal(t, out.RegisterUser.User.ID, claims.UserID)
	return interceptor.WithClaims(context.Background(), claims), out.RegisterUser.User.ID
}

const createTweetMutation = `mutation($text: String!) { createTweet(input: {text: $text}) { id } }`

func (h *harness) post(t *testing.T, ctx context.Context, text string) string {
	t.Helper()
	var out struct{ CreateTweet struct{ ID string } }
	h.run(t, ctx, createTweetMutation, map[string]interface{}{"text": text}, &out)
	return out.CreateTweet.ID
}
