package events

import "time"

// Event subjects
const (
	TweetCreated   = "tweet.created"
	TweetLiked     = "tweet.liked"
	CommentCreated = "comment.created"
	UserFollowed   = "user.followed"
)

type TweetCreatedEvent struct {
	TweetID   string    `json:"tweet_id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type TweetLikedEvent struct {
	TweetID string    `json:"tweet_id"`
	UserID  string    `json:"user_id"`
	LikedAt time.Time `json:"liked_at"`
}

type CommentCreatedEvent struct {
	CommentID string    `json:"comment_id"`
	TweetID   string    `json:"tweet_id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type UserFollowedEvent struct {
	FollowerID string    `json:"follower_id"`
	FolloweeID string    `json:"followee_id"`
	FollowedAt time.Time `json:"followed_at"`
}
