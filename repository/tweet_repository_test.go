package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "github.com/subhadeepchowdhury41/we-share/model"
	"github.com/subhadeepchowdhury41/we-share/pkg/apperr"
)

func tweetRecord(id, authorID string, liked bool, extra map[string]any) *neo4j.Record {
	props := map[string]any{
		"id":        id,
		"text":      "hello",
		"media":     []any{"https://cdn.example/a.png"},
		"authorId":  authorID,
		"createdAt": neo4j.LocalDateTime(stamp),
		"updatedAt": stamp,
	}
	for k, v := range extra {
		props[k] = v
	}
	return record(
		"tweet", node(props),
		"author", node(map[string]any{"id": authorID, "username": "author_" + authorID, "isVerified": true}),
		"isLiked", liked,
	)
}

func TestTweetCreate(t *testing.T) {
	runner := &fakeRunner{respond: func(_ string, params map[string]any) ([]*neo4j.Record, error) {
		if params["authorId"] == "ghost" {
			return nil, nil
		}
		return []*neo4j.Record{tweetRecord(params["id"].(string), params["authorId"].(string), false, nil)}, nil
	}}
	repo := NewTweetRepository(runner, testDates())
	ctx := context.Background()

	tweet, err := repo.Create(ctx, models.NewTweet{ID: "t1", Text: "hello", AuthorID: "u1", CreatedAt: stamp})
	require.NoError(t, err)
	assert.Equal(t, "t1", tweet.ID)
	assert.Equal(t, "u1", tweet.AuthorID)
	assert.Equal(t, "author_u1", tweet.Author.Username)
	assert.Zero(t, tweet.LikesCount)
	assert.Zero(t, tweet.CommentsCount)
	assert.Zero(t, tweet.RetweetsCount)
	assert.Equal(t, stamp, tweet.CreatedAt)
	assert.Equal(t, []string{}, runner.calls[0].params["media"])
	assert.Contains(t, runner.calls[0].cypher, "POSTED")
	assert.Equal(t, 1, runner.commits)

	_, err = repo.Create(ctx, models.NewTweet{ID: "t2", Text: "x", AuthorID: "ghost", CreatedAt: stamp})
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestTweetAuthorComesFromPostedEdge(t *testing.T) {
	runner := &fakeRunner{respond: func(string, map[string]any) ([]*neo4j.Record, error) {
		rec := tweetRecord("t1", "real", true, map[string]any{"authorId": "stale", "likesCount": int64(4)})
		return []*neo4j.Record{rec}, nil
	}}
	repo := NewTweetRepository(runner, testDates())

	tweet, err := repo.GetByID(context.Background(), "t1", "viewer")
	require.NoError(t, err)
	assert.Equal(t, "real", tweet.AuthorID)
	assert.True(t, tweet.IsLiked)
	assert.Equal(t, int32(4), tweet.LikesCount)
	assert.Equal(t, []string{"https://cdn.example/a.png"}, tweet.Media)
	assert.Equal(t, "viewer", runner.calls[0].params["viewerId"])
}

func TestTweetGetMissing(t *testing.T) {
	repo := NewTweetRepository(&fakeRunner{}, testDates())
	_, err := repo.GetByID(context.Background(), "nope", "")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestTweetTimelineUsesFollowTraversal(t *testing.T) {
	runner := &fakeRunner{respond: func(string, map[string]any) ([]*neo4j.Record, error) {
		return []*neo4j.Record{tweetRecord("t2", "b", false, nil), tweetRecord("t1", "a", true, nil)}, nil
	}}
	repo := NewTweetRepository(runner, testDates())

	tweets, err := repo.ListTimeline(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, tweets, 2)
	assert.Equal(t, "t2", tweets[0].ID)

	c := runner.calls[0]
	assert.Contains(t, c.cypher, "FOLLOWS")
	assert.Contains(t, c.cypher, "ORDER BY t.createdAt DESC")
	assert.Equal(t, "a", c.params["userId"])
	assert.Equal(t, "a", c.params["viewerId"])
}

func TestTweetLikeUnlike(t *testing.T) {
	var rows []*neo4j.Record
	runner := &fakeRunner{respond: func(string, map[string]any) ([]*neo4j.Record, error) { return rows, nil }}
	repo := NewTweetRepository(runner, testDates())
	ctx := context.Background()

	rows = []*neo4j.Record{record("created", true)}
	ok, err := repo.Like(ctx, "t1", "u1", stamp)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, runner.calls[0].cypher, "LIKES_TWEET")
	assert.Equal(t, "u1", runner.calls[0].params["fromId"])
	assert.Equal(t, "t1", runner.calls[0].params["toId"])

	rows = []*neo4j.Record{record("created", false)}
	ok, err = repo.Like(ctx, "t1", "u1", stamp)
	require.NoError(t, err)
	assert.False(t, ok)

	rows = []*neo4j.Record{record("existed", true)}
	ok, err = repo.Unlike(ctx, "t1", "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	rows = nil
	_, err = repo.Like(ctx, "missing", "u1", stamp)
	assert.True(t, apperr.Is(err, apperr.NotFound))
	_, err = repo.Unlike(ctx, "missing", "u1")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestTweetDeleteRemovesComments(t *testing.T) {
	runner := &fakeRunner{respond: func(cypher string, _ map[string]any) ([]*neo4j.Record, error) {
		if strings.Contains(cypher, "RETURN t.id AS id") {
			return []*neo4j.Record{record("id", "t1")}, nil
		}
		return nil, nil
	}}
	repo := NewTweetRepository(runner, testDates())

	require.NoError(t, repo.Delete(context.Background(), "t1"))
	require.Len(t, runner.calls, 3)
	assert.Contains(t, runner.calls[1].cypher, "COMMENTS_ON")
	assert.Contains(t, runner.calls[2].cypher, "DETACH DELETE t")
	assert.Equal(t, 1, runner.commits)

	err := NewTweetRepository(&fakeRunner{}, testDates()).Delete(context.Background(), "nope")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestTweetUpdate(t *testing.T) {
	runner := &fakeRunner{respond: func(string, map[string]any) ([]*neo4j.Record, error) {
		return []*neo4j.Record{tweetRecord("t1", "u1", false, map[string]any{"text": "edited"})}, nil
	}}
	repo := NewTweetRepository(runner, testDates())

	text := "edited"
	tweet, err := repo.Update(context.Background(), "t1", models.TweetPatch{Text: &text}, "u1", stamp)
	require.NoError(t, err)
	assert.Equal(t, "edited", tweet.Text)
	assert.Equal(t, "u1", runner.calls[0].params["viewerId"])
	assert.Equal(t, "edited", runner.calls[0].params["text"])
	assert.Nil(t, runner.calls[0].params["media"])
}
