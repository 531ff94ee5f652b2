package repository

import (
	"context"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "github.com/subhadeepchowdhury41/we-share/model"
	"github.com/subhadeepchowdhury41/we-share/pkg/apperr"
)

func commentRecord(id, authorID string, extra ...any) *neo4j.Record {
	kv := []any{
		"comment", node(map[string]any{
			"id":         id,
			"text":       "nice",
			"authorId":   authorID,
			"tweetId":    "t1",
			"likesCount": int64(9),
			"createdAt":  stamp,
			"updatedAt":  stamp,
		}),
		"author", node(map[string]any{"id": authorID, "username": "user_" + authorID}),
	}
	return record(append(kv, extra...)...)
}

func TestCommentCreate(t *testing.T) {
	runner := &fakeRunner{respond: func(_ string, params map[string]any) ([]*neo4j.Record, error) {
		if params["tweetId"] == "missing" {
			return nil, nil
		}
		return []*neo4j.Record{commentRecord("c1", "u2", "isLiked", false)}, nil
	}}
	repo := NewCommentRepository(runner, testDates())
	ctx := context.Background()

	comment, err := repo.Create(ctx, models.NewComment{ID: "c1", Text: "nice", AuthorID: "u2", TweetID: "t1", CreatedAt: stamp})
	require.NoError(t, err)
	assert.Equal(t, "u2", comment.Author.ID)
	assert.Equal(t, "t1", comment.TweetID)
	assert.Contains(t, runner.calls[0].cypher, "t.commentsCount = coalesce(t.commentsCount, 0) + 1")
	assert.Contains(t, runner.calls[0].cypher, "COMMENTS_ON")
	assert.Equal(t, 1, runner.commits)

	_, err = repo.Create(ctx, models.NewComment{ID: "c2", Text: "x", AuthorID: "u2", TweetID: "missing", CreatedAt: stamp})
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestCommentListAggregatesLikes(t *testing.T) {
	runner := &fakeRunner{respond: func(string, map[string]any) ([]*neo4j.Record, error) {
		return []*neo4j.Record{
			commentRecord("c2", "u3", "likesCount", int64(1), "isLiked", true),
			commentRecord("c1", "u2", "likesCount", int64(0), "isLiked", false),
		}, nil
	}}
	repo := NewCommentRepository(runner, testDates())

	comments, err := repo.ListForTweet(context.Background(), "t1", "u1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, int32(1), comments[0].LikesCount)
	assert.True(t, comments[0].IsLiked)
	assert.Equal(t, int32(0), comments[1].LikesCount)
	assert.Equal(t, "u1", runner.calls[0].params["viewerId"])
	assert.Contains(t, runner.calls[0].cypher, "LIKES_COMMENT")
}

func TestCommentDeleteRequiresAuthor(t *testing.T) {
	runner := &fakeRunner{respond: func(_ string, params map[string]any) ([]*neo4j.Record, error) {
		if params["userId"] == "u2" {
			return []*neo4j.Record{record("tweetId", "t1")}, nil
		}
		return nil, nil
	}}
	repo := NewCommentRepository(runner, testDates())
	ctx := context.Background()

	_, err := repo.Delete(ctx, "c1", "intruder")
	assert.True(t, apperr.Is(err, apperr.NotFoundOrUnauthorized))

	tweetID, err := repo.Delete(ctx, "c1", "u2")
	require.NoError(t, err)
	assert.Equal(t, "t1", tweetID)
	assert.Contains(t, runner.calls[1].cypher, "POSTED")
	assert.Contains(t, runner.calls[1].cypher, "DETACH DELETE c")
}

func TestCommentLikeIsIdempotent(t *testing.T) {
	created := true
	runner := &fakeRunner{respond: func(string, map[string]any) ([]*neo4j.Record, error) {
		return []*neo4j.Record{record("created", created)}, nil
	}}
	repo := NewCommentRepository(runner, testDates())
	ctx := context.Background()

	ok, err := repo.Like(ctx, "c1", "u1", stamp)
	require.NoError(t, err)
	assert.True(t, ok)

	created = false
	ok, err = repo.Like(ctx, "c1", "u1", stamp)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, runner.calls[0].cypher, "MERGE (a)-[r:LIKES_COMMENT]->(b)")
}
