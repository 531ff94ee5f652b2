package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/subhadeepchowdhury41/we-share/events"
	models "github.com/subhadeepchowdhury41/we-share/model"
	"github.com/subhadeepchowdhury41/we-share/repository"
)

type CommentService struct {
	comments repository.CommentRepository
	events   EventPublisher
	logger   *zap.Logger
	env      env
}

func NewCommentService(comments repository.CommentRepository, publisher EventPublisher, logger *zap.Logger) *CommentService {
	return &CommentService{
		comments: comments,
		events:   publisher,
		logger:   logger.Named("comment_service"),
		env:      defaultEnv(),
	}
}

func (s *CommentService) Create(ctx context.Context, text, authorID, tweetID string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if err := models.ValidateCommentText(text); err != nil {
		return nil, err
	}

	comment, err := s.comments.Create(ctx, models.NewComment{
		ID:        s.env.newID(),
		Text:      text,
		AuthorID:  authorID,
		TweetID:   tweetID,
		CreatedAt: s.env.now(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.events.PublishCommentCreated(events.CommentCreatedEvent{
		CommentID: comment.ID,
		TweetID:   tweetID,
		AuthorID:  authorID,
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt,
	}); err != nil {
		s.logger.Warn("failed to publish event", zap.String("subject", events.CommentCreated), zap.Error(err))
	}
	return comment, nil
}

// ListForTweet returns the tweet's comments, newest first. viewerID may be
// empty for anonymous callers, in which case isLiked is always false.
func (s *CommentService) ListForTweet(ctx context.Context, tweetID, viewerID string) ([]*models.Comment, error) {
	return s.comments.ListForTweet(ctx, tweetID, viewerID)
}

// Like reports whether a new like was recorded. Liking twice is not an
// error.
func (s *CommentService) Like(ctx context.Context, commentID, userID string) (bool, error) {
	return s.comments.Like(ctx, commentID, userID, s.env.now())
}

func (s *CommentService) Unlike(ctx context.Context, commentID, userID string) (bool, error) {
	return s.comments.Unlike(ctx, commentID, userID)
}

// Delete removes the comment if userID authored it.
func (s *CommentService) Delete(ctx context.Context, commentID, userID string) error {
	tweetID, err := s.comments.Delete(ctx, commentID, userID)
	if err != nil {
		return err
	}
	s.logger.Info("comment deleted", zap.String("comment_id", commentID), zap.String("tweet_id", tweetID))
	return nil
}
