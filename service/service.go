package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/subhadeepchowdhury41/we-share/events"
)

// EventPublisher receives domain events after successful writes.
type EventPublisher interface {
	PublishTweetCreated(event events.TweetCreatedEvent) error
	PublishTweetLiked(event events.TweetLikedEvent) error
	PublishCommentCreated(event events.CommentCreatedEvent) error
	PublishUserFollowed(event events.UserFollowedEvent) error
}

// clock and id generation are swapped out in tests.
type env struct {
	now   func() time.Time
	newID func() string
}

func defaultEnv() env {
	return env{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}
