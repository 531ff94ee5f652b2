package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/subhadeepchowdhury41/we-share/events"
	models "github.com/subhadeepchowdhury41/we-share/model"
	"github.com/subhadeepchowdhury41/we-share/repository"
)

type TweetService struct {
	tweets   repository.TweetRepository
	comments *CommentService
	events   EventPublisher
	logger   *zap.Logger
	env      env
}

func NewTweetService(tweets repository.TweetRepository, comments *CommentService, publisher EventPublisher, logger *zap.Logger) *TweetService {
	return &TweetService{
		tweets:   tweets,
		comments: comments,
		events:   publisher,
		logger:   logger.Named("tweet_service"),
		env:      defaultEnv(),
	}
}

// Create posts a tweet and returns it joined with its author.
func (s *TweetService) Create(ctx context.Context, text string, media []string, authorID string) (*models.Tweet, error) {
	in := models.TweetInput{Text: strings.TrimSpace(text), Media: media}
	if err := models.ValidateTweet(in); err != nil {
		return nil, err
	}

	tweet, err := s.tweets.Create(ctx, models.NewTweet{
		ID:        s.env.newID(),
		Text:      in.Text,
		Media:     in.Media,
		AuthorID:  authorID,
		CreatedAt: s.env.now(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.events.PublishTweetCreated(events.TweetCreatedEvent{
		TweetID:   tweet.ID,
		AuthorID:  authorID,
		Text:      tweet.Text,
		CreatedAt: tweet.CreatedAt,
	}); err != nil {
		s.logger.Warn("failed to publish event", zap.String("subject", events.TweetCreated), zap.Error(err))
	}
	return tweet, nil
}

func (s *TweetService) Fetch(ctx context.Context, id, viewerID string) (*models.Tweet, error) {
	return s.tweets.GetByID(ctx, id, viewerID)
}

func (s *TweetService) ListAll(ctx context.Context, viewerID string) ([]*models.Tweet, error) {
	return s.tweets.ListAll(ctx, viewerID)
}

func (s *TweetService) ListByAuthor(ctx context.Context, authorID, viewerID string) ([]*models.Tweet, error) {
	return s.tweets.ListByAuthor(ctx, authorID, viewerID)
}

func (s *TweetService) ListLiked(ctx context.Context, userID, viewerID string) ([]*models.Tweet, error) {
	return s.tweets.ListLiked(ctx, userID, viewerID)
}

// ListTimeline returns tweets by userID and by everyone userID follows.
func (s *TweetService) ListTimeline(ctx context.Context, userID string) ([]*models.Tweet, error) {
	return s.tweets.ListTimeline(ctx, userID)
}

// Update changes text and/or media and returns the tweet as viewerID sees
// it. Ownership is checked by the caller.
func (s *TweetService) Update(ctx context.Context, id string, text *string, media *[]string, viewerID string) (*models.Tweet, error) {
	if text != nil {
		trimmed := strings.TrimSpace(*text)
		text = &trimmed
	}
	patch := models.TweetPatch{Text: text, Media: media}
	if err := models.ValidateTweetPatch(patch); err != nil {
		return nil, err
	}
	return s.tweets.Update(ctx, id, patch, viewerID, s.env.now())
}

// Delete removes the tweet with its comments and every edge touching it.
// Ownership is checked by the caller.
func (s *TweetService) Delete(ctx context.Context, id string) error {
	if err := s.tweets.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("tweet deleted", zap.String("tweet_id", id))
	return nil
}

// Like reports whether a new like was recorded. Liking twice is not an
// error and leaves the counter unchanged.
func (s *TweetService) Like(ctx context.Context, tweetID, userID string) (bool, error) {
	now := s.env.now()
	created, err := s.tweets.Like(ctx, tweetID, userID, now)
	if err != nil || !created {
		return false, err
	}

	if err := s.events.PublishTweetLiked(events.TweetLikedEvent{
		TweetID: tweetID,
		UserID:  userID,
		LikedAt: now,
	}); err != nil {
		s.logger.Warn("failed to publish event", zap.String("subject", events.TweetLiked), zap.Error(err))
	}
	return true, nil
}

// Unlike returns false without error when the tweet was not liked.
func (s *TweetService) Unlike(ctx context.Context, tweetID, userID string) (bool, error) {
	return s.tweets.Unlike(ctx, tweetID, userID)
}

// Comment adds a comment and returns the tweet with its updated counter.
func (s *TweetService) Comment(ctx context.Context, text, authorID, tweetID string) (*models.Tweet, error) {
	if _, err := s.comments.Create(ctx, text, authorID, tweetID); err != nil {
		return nil, err
	}
	return s.tweets.GetByID(ctx, tweetID, authorID)
}
