package models

import "time"

type Tweet struct {
	ID            string         `json:"id"`
	Text          string         `json:"text"`
	Media         []string       `json:"media"`
	AuthorID      string         `json:"author_id"`
	Author        *AuthorSummary `json:"author,omitempty"`
	LikesCount    int32          `json:"likes_count"`
	CommentsCount int32          `json:"comments_count"`
	RetweetsCount int32          `json:"retweets_count"`
	IsLiked       bool           `json:"is_liked"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type Comment struct {
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	AuthorID   string         `json:"author_id"`
	TweetID    string         `json:"tweet_id"`
	Author     *AuthorSummary `json:"author,omitempty"`
	LikesCount int32          `json:"likes_count"`
	IsLiked    bool           `json:"is_liked"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type TweetInput struct {
	Text  string
	Media []string
}

// TweetPatch changes text, media or both. Media replaces the whole list when
// set.
type TweetPatch struct {
	Text  *string
	Media *[]string
}

type NewTweet struct {
	ID        string
	Text      string
	Media     []string
	AuthorID  string
	CreatedAt time.Time
}

type NewComment struct {
	ID        string
	Text      string
	AuthorID  string
	TweetID   string
	CreatedAt time.Time
}
