package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	models "github.com/subhadeepchowdhury41/we-share/model"
	"github.com/subhadeepchowdhury41/we-share/repository/repotest"
)

type fixture struct {
	graph    *repotest.Graph
	events   *recorder
	users    *UserService
	tweets   *TweetService
	comments *CommentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	g := repotest.New()
	rec := &recorder{}
	logger := zap.NewNop()
	e := testEnv(time.Now().UTC())

	users := NewUserService(g.Users(), rec, logger)
	users.env = e
	users.cost = bcrypt.MinCost

	comments := NewCommentService(g.Comments(), rec, logger)
	comments.env = e

	tweets := NewTweetService(g.Tweets(), comments, rec, logger)
	tweets.env = e

	return &fixture{graph: g, events: rec, users: users, tweets: tweets, comments: comments}
}

func (f *fixture) register(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), models.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password-" + username,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) post(t *testing.T, author *models.User, text string) *models.Tweet {
	t.Helper()
	tweet, err := f.tweets.Create(context.Background(), text, nil, author.ID)
	require.NoError(t, err)
	return tweet
}
