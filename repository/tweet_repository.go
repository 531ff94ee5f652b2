package repository

import (
	"context"
	"fmt"
	"time"

	database "github.com/subhadeepchowdhury41/we-share/db"
	models "github.com/subhadeepchowdhury41/we-share/model"
	"github.com/subhadeepchowdhury41/we-share/pkg/apperr"
)

type TweetRepository interface {
	Create(ctx context.Context, tweet models.NewTweet) (*models.Tweet, error)
	GetByID(ctx context.Context, id, viewerID string) (*models.Tweet, error)
	ListAll(ctx context.Context, viewerID string) ([]*models.Tweet, error)
	ListByAuthor(ctx context.Context, authorID, viewerID string) ([]*models.Tweet, error)
	ListLiked(ctx context.Context, userID, viewerID string) ([]*models.Tweet, error)
	ListTimeline(ctx context.Context, userID string) ([]*models.Tweet, error)
	Update(ctx context.Context, id string, patch models.TweetPatch, viewerID string, now time.Time) (*models.Tweet, error)
	Delete(ctx context.Context, id string) error
	Like(ctx context.Context, tweetID, userID string, now time.Time) (bool, error)
	Unlike(ctx context.Context, tweetID, userID string) (bool, error)
}

var (
	// tweetProjection expects the tweet bound to t and its author to a.
	// $viewerId is "" for anonymous reads, which matches no user.
	tweetProjection = fmt.Sprintf(`t AS tweet, a AS author,
		EXISTS { (:User {id: $viewerId})-[:%s]->(t) } AS isLiked`, LikesTweet)

	authoredTweet = fmt.Sprintf(`(a:User)-[:%s]->(t:Tweet)`, Posted)

	likeTweetQuery   = mustQuery(mergeEdgeQuery(LikesTweet))
	unlikeTweetQuery = mustQuery(deleteEdgeQuery(LikesTweet))
)

type tweetRepository struct {
	runner database.Runner
	mapper mapper
}

func NewTweetRepository(runner database.Runner, dates *database.Dates) TweetRepository {
	return &tweetRepository{runner: runner, mapper: mapper{dates: dates}}
}

// Create writes the tweet and its POSTED edge in one transaction.
func (r *tweetRepository) Create(ctx context.Context, tweet models.NewTweet) (*models.Tweet, error) {
	query := fmt.Sprintf(`
		MATCH (a:User {id: $authorId})
		CREATE (a)-[:%s {createdAt: $now}]->(t:Tweet {
			id: $id,
			text: $text,
			media: $media,
			authorId: $authorId,
			likesCount: 0,
			commentsCount: 0,
			retweetsCount: 0,
			createdAt: $now,
			updatedAt: $now
		})
		RETURN %s
	`, Posted, tweetProjection)

	media := tweet.Media
	if media == nil {
		media = []string{}
	}

	var created *models.Tweet
	err := r.runner.ExecuteWrite(ctx, func(tx database.Tx) error {
		records, err := tx.Run(ctx, query, map[string]any{
			"id":       tweet.ID,
			"text":     tweet.Text,
			"media":    media,
			"authorId": tweet.AuthorID,
			"now":      tweet.CreatedAt,
			"viewerId": tweet.AuthorID,
		})
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return apperr.New(apperr.NotFound, "author not found")
		}
		created = r.mapper.tweet(records[0])
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tweet: %w", err)
	}
	return created, nil
}

func (r *tweetRepository) GetByID(ctx context.Context, id, viewerID string) (*models.Tweet, error) {
	query := fmt.Sprintf(`
		MATCH %s
		WHERE t.id = $id
		RETURN %s
	`, authoredTweet, tweetProjection)

	records, err := r.runner.Read(ctx, query, map[string]any{"id": id, "viewerId": viewerID})
	if err != nil {
		return nil, fmt.Errorf("failed to get tweet: %w", err)
	}
	if len(records) == 0 {
		return nil, apperr.New(apperr.NotFound, "tweet not found")
	}
	return r.mapper.tweet(records[0]), nil
}

func (r *tweetRepository) ListAll(ctx context.Context, viewerID string) ([]*models.Tweet, error) {
	query := fmt.Sprintf(`
		MATCH %s
		RETURN %s
		ORDER BY t.createdAt DESC
	`, authoredTweet, tweetProjection)
	return r.list(ctx, "tweets", query, map[string]any{"viewerId": viewerID})
}

func (r *tweetRepository) ListByAuthor(ctx context.Context, authorID, viewerID string) ([]*models.Tweet, error) {
	query := fmt.Sprintf(`
		MATCH %s
		WHERE a.id = $authorId
		RETURN %s
		ORDER BY t.createdAt DESC
	`, authoredTweet, tweetProjection)
	return r.list(ctx, "user tweets", query, map[string]any{"authorId": authorID, "viewerId": viewerID})
}

func (r *tweetRepository) ListLiked(ctx context.Context, userID, viewerID string) ([]*models.Tweet, error) {
	query := fmt.Sprintf(`
		MATCH (:User {id: $userId})-[:%s]->(t:Tweet)<-[:%s]-(a:User)
		RETURN %s
		ORDER BY t.createdAt DESC
	`, LikesTweet, Posted, tweetProjection)
	return r.list(ctx, "liked tweets", query, map[string]any{"userId": userID, "viewerId": viewerID})
}

// ListTimeline returns the user's own tweets and the tweets of everyone they
// follow, newest first.
func (r *tweetRepository) ListTimeline(ctx context.Context, userID string) ([]*models.Tweet, error) {
	query := fmt.Sprintf(`
		MATCH (me:User {id: $userId})
		OPTIONAL MATCH (me)-[:%s]->(followed:User)
		WITH me, collect(followed) AS followed
		UNWIND [me] + followed AS a
		MATCH (a)-[:%s]->(t:Tweet)
		RETURN %s
		ORDER BY t.createdAt DESC
	`, Follows, Posted, tweetProjection)
	return r.list(ctx, "timeline", query, map[string]any{"userId": userID, "viewerId": userID})
}

func (r *tweetRepository) Update(ctx context.Context, id string, patch models.TweetPatch, viewerID string, now time.Time) (*models.Tweet, error) {
	query := fmt.Sprintf(`
		MATCH %s
		WHERE t.id = $id
		SET t.text = coalesce($text, t.text),
			t.media = coalesce($media, t.media),
			t.updatedAt = $now
		RETURN %s
	`, authoredTweet, tweetProjection)

	records, err := r.runner.Write(ctx, query, map[string]any{
		"id":       id,
		"text":     optional(patch.Text),
		"media":    optional(patch.Media),
		"now":      now,
		"viewerId": viewerID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update tweet: %w", err)
	}
	if len(records) == 0 {
		return nil, apperr.New(apperr.NotFound, "tweet not found")
	}
	return r.mapper.tweet(records[0]), nil
}

// Delete removes the tweet, its comments and every edge touching either.
func (r *tweetRepository) Delete(ctx context.Context, id string) error {
	params := map[string]any{"id": id}
	deleteComments := fmt.Sprintf(`
		MATCH (c:Comment)-[:%s]->(:Tweet {id: $id})
		DETACH DELETE c
	`, CommentsOn)

	err := r.runner.ExecuteWrite(ctx, func(tx database.Tx) error {
		found, err := tx.Run(ctx, `MATCH (t:Tweet {id: $id}) RETURN t.id AS id`, params)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return apperr.New(apperr.NotFound, "tweet not found")
		}
		if _, err := tx.Run(ctx, deleteComments, params); err != nil {
			return err
		}
		_, err = tx.Run(ctx, `MATCH (t:Tweet {id: $id}) DETACH DELETE t`, params)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete tweet: %w", err)
	}
	return nil
}

// Like reports whether a new LIKES_TWEET edge was created.
func (r *tweetRepository) Like(ctx context.Context, tweetID, userID string, now time.Time) (bool, error) {
	records, err := r.runner.Write(ctx, likeTweetQuery, map[string]any{
		"fromId": userID,
		"toId":   tweetID,
		"now":    now,
	})
	if err != nil {
		return false, fmt.Errorf("failed to like tweet: %w", err)
	}
	if len(records) == 0 {
		return false, apperr.New(apperr.NotFound, "tweet not found")
	}
	return database.AsBool(database.Value(records[0], "created")), nil
}

func (r *tweetRepository) Unlike(ctx context.Context, tweetID, userID string) (bool, error) {
	records, err := r.runner.Write(ctx, unlikeTweetQuery, map[string]any{
		"fromId": userID,
		"toId":   tweetID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to unlike tweet: %w", err)
	}
	if len(records) == 0 {
		return false, apperr.New(apperr.NotFound, "tweet not found")
	}
	return database.AsBool(database.Value(records[0], "existed")), nil
}

func (r *tweetRepository) list(ctx context.Context, what, query string, params map[string]any) ([]*models.Tweet, error) {
	records, err := r.runner.Read(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", what, err)
	}
	return r.mapper.tweets(records), nil
}
