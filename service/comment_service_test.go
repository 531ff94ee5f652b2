package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subhadeepchowdhury41/we-share/events"
	"github.com/subhadeepchowdhury41/we-share/pkg/apperr"
)

func TestCommentLikePolicyMatchesTweets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.register(t, "alice"), f.register(t, "bob")
	tweet := f.post(t, a, "post")
	c, err := f.comments.Create(ctx, "first", b.ID, tweet.ID)
	require.NoError(t, err)

	ok, err := f.comments.Like(ctx, c.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.comments.Like(ctx, c.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, ok, "second like is a no-op, not an error")

	list, err := f.comments.ListForTweet(ctx, tweet.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int32(1), list[0].LikesCount)
	assert.True(t, list[0].IsLiked)

	list, err = f.comments.ListForTweet(ctx, tweet.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, list[0].IsLiked)

	ok, err = f.comments.Unlike(ctx, c.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.comments.Unlike(ctx, c.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.comments.Like(ctx, "missing", a.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestCommentDeleteRequiresAuthorship(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.register(t, "alice"), f.register(t, "bob")
	tweet := f.post(t, a, "post")
	c, err := f.comments.Create(ctx, "mine", b.ID, tweet.ID)
	require.NoError(t, err)

	err = f.comments.Delete(ctx, c.ID, a.ID)
	assert.True(t, apperr.Is(err, apperr.NotFoundOrUnauthorized), "tweet author cannot delete others' comments")

	err = f.comments.Delete(ctx, "missing", b.ID)
	assert.True(t, apperr.Is(err, apperr.NotFoundOrUnauthorized))

	require.NoError(t, f.comments.Delete(ctx, c.ID, b.ID))
	got, err := f.tweets.Fetch(ctx, tweet.ID, "")
	require.NoError(t, err)
	assert.Zero(t, got.CommentsCount)
}

func TestCommentCreatePublishes(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "alice")
	tweet := f.post(t, a, "post")

	c, err := f.comments.Create(context.Background(), "  trimmed  ", a.ID, tweet.ID)
	require.NoError(t, err)
	assert.Equal(t, "trimmed", c.Text)
	assert.Equal(t, tweet.ID, c.TweetID)
	assert.Equal(t, []string{events.TweetCreated, events.CommentCreated}, f.events.subjects)
}
