package repository

import (
	"context"
	"fmt"
	"time"

	database "github.com/subhadeepchowdhury41/we-share/db"
	models "github.com/subhadeepchowdhury41/we-share/model"
	"github.com/subhadeepchowdhury41/we-share/pkg/apperr"
)

type CommentRepository interface {
	Create(ctx context.Context, comment models.NewComment) (*models.Comment, error)
	ListForTweet(ctx context.Context, tweetID, viewerID string) ([]*models.Comment, error)
	Like(ctx context.Context, commentID, userID string, now time.Time) (bool, error)
	Unlike(ctx context.Context, commentID, userID string) (bool, error)
	Delete(ctx context.Context, commentID, userID string) (string, error)
}

var (
	likeCommentQuery   = mustQuery(mergeEdgeQuery(LikesComment))
	unlikeCommentQuery = mustQuery(deleteEdgeQuery(LikesComment))
)

type commentRepository struct {
	runner database.Runner
	mapper mapper
}

func NewCommentRepository(runner database.Runner, dates *database.Dates) CommentRepository {
	return &commentRepository{runner: runner, mapper: mapper{dates: dates}}
}

// Create writes the comment, its POSTED and COMMENTS_ON edges and the
// tweet's counter increment in one transaction.
func (r *commentRepository) Create(ctx context.Context, comment models.NewComment) (*models.Comment, error) {
	query := fmt.Sprintf(`
		MATCH (a:User {id: $authorId})
		MATCH (t:Tweet {id: $tweetId})
		CREATE (a)-[:%s {createdAt: $now}]->(c:Comment {
			id: $id,
			text: $text,
			authorId: $authorId,
			tweetId: $tweetId,
			likesCount: 0,
			createdAt: $now,
			updatedAt: $now
		})-[:%s {createdAt: $now}]->(t)
		SET t.commentsCount = coalesce(t.commentsCount, 0) + 1
		RETURN c AS comment, a AS author, false AS isLiked
	`, Posted, CommentsOn)

	var created *models.Comment
	err := r.runner.ExecuteWrite(ctx, func(tx database.Tx) error {
		records, err := tx.Run(ctx, query, map[string]any{
			"id":       comment.ID,
			"text":     comment.Text,
			"authorId": comment.AuthorID,
			"tweetId":  comment.TweetID,
			"now":      comment.CreatedAt,
		})
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return apperr.New(apperr.NotFound, "tweet or author not found")
		}
		created = r.mapper.comment(records[0])
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return created, nil
}

// ListForTweet computes likesCount and isLiked from the LIKES_COMMENT edges
// at read time.
func (r *commentRepository) ListForTweet(ctx context.Context, tweetID, viewerID string) ([]*models.Comment, error) {
	query := fmt.Sprintf(`
		MATCH (a:User)-[:%[1]s]->(c:Comment)-[:%[2]s]->(:Tweet {id: $tweetId})
		RETURN c AS comment, a AS author,
			COUNT { (:User)-[:%[3]s]->(c) } AS likesCount,
			EXISTS { (:User {id: $viewerId})-[:%[3]s]->(c) } AS isLiked
		ORDER BY c.createdAt DESC
	`, Posted, CommentsOn, LikesComment)

	records, err := r.runner.Read(ctx, query, map[string]any{"tweetId": tweetID, "viewerId": viewerID})
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return r.mapper.comments(records), nil
}

func (r *commentRepository) Like(ctx context.Context, commentID, userID string, now time.Time) (bool, error) {
	records, err := r.runner.Write(ctx, likeCommentQuery, map[string]any{
		"fromId": userID,
		"toId":   commentID,
		"now":    now,
	})
	if err != nil {
		return false, fmt.Errorf("failed to like comment: %w", err)
	}
	if len(records) == 0 {
		return false, apperr.New(apperr.NotFound, "comment not found")
	}
	return database.AsBool(database.Value(records[0], "created")), nil
}

func (r *commentRepository) Unlike(ctx context.Context, commentID, userID string) (bool, error) {
	records, err := r.runner.Write(ctx, unlikeCommentQuery, map[string]any{
		"fromId": userID,
		"toId":   commentID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to unlike comment: %w", err)
	}
	if len(records) == 0 {
		return false, apperr.New(apperr.NotFound, "comment not found")
	}
	return database.AsBool(database.Value(records[0], "existed")), nil
}

// Delete removes the comment when userID authored it, per the POSTED edge,
// and returns the id of the tweet it was on.
func (r *commentRepository) Delete(ctx context.Context, commentID, userID string) (string, error) {
	query := fmt.Sprintf(`
		MATCH (:User {id: $userId})-[:%s]->(c:Comment {id: $commentId})-[:%s]->(t:Tweet)
		SET t.commentsCount = CASE WHEN coalesce(t.commentsCount, 0) > 0 THEN t.commentsCount - 1 ELSE 0 END
		DETACH DELETE c
		RETURN t.id AS tweetId
	`, Posted, CommentsOn)

	var tweetID string
	err := r.runner.ExecuteWrite(ctx, func(tx database.Tx) error {
		records, err := tx.Run(ctx, query, map[string]any{"commentId": commentID, "userId": userID})
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return apperr.New(apperr.NotFoundOrUnauthorized, "comment not found or not owned by user")
		}
		tweetID, _ = database.Value(records[0], "tweetId").(string)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to delete comment: %w", err)
	}
	return tweetID, nil
}
