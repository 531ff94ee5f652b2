package repository

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	database "github.com/subhadeepchowdhury41/we-share/db"
	models "github.com/subhadeepchowdhury41/we-share/model"
)

// mapper copies node properties into domain structs. Missing properties
// take the zero value of the field.
type mapper struct {
	dates *database.Dates
}

func (m mapper) user(record *neo4j.Record) *models.User {
	props := database.Props(record, "user")
	if props == nil {
		return nil
	}
	return &models.User{
		ID:             database.String(props, "id"),
		Username:       database.String(props, "username"),
		Email:          database.String(props, "email"),
		PasswordHash:   database.String(props, "password"),
		Name:           database.String(props, "name"),
		Bio:            database.String(props, "bio"),
		ProfileImage:   database.String(props, "profileImage"),
		CoverImage:     database.String(props, "coverImage"),
		IsVerified:     database.Bool(props, "isVerified"),
		CreatedAt:      m.dates.Time(props, "createdAt"),
		UpdatedAt:      m.dates.Time(props, "updatedAt"),
		FollowersCount: int32(database.AsInt(database.Value(record, "followersCount"))),
		FollowingCount: int32(database.AsInt(database.Value(record, "followingCount"))),
	}
}

func (m mapper) author(record *neo4j.Record) *models.AuthorSummary {
	props := database.Props(record, "author")
	if props == nil {
		return nil
	}
	return &models.AuthorSummary{
		ID:           database.String(props, "id"),
		Username:     database.String(props, "username"),
		Name:         database.String(props, "name"),
		ProfileImage: database.String(props, "profileImage"),
		IsVerified:   database.Bool(props, "isVerified"),
	}
}

func (m mapper) tweet(record *neo4j.Record) *models.Tweet {
	props := database.Props(record, "tweet")
	if props == nil {
		return nil
	}
	t := &models.Tweet{
		ID:            database.String(props, "id"),
		Text:          database.String(props, "text"),
		Media:         database.Strings(props, "media"),
		AuthorID:      database.String(props, "authorId"),
		Author:        m.author(record),
		LikesCount:    int32(database.Int(props, "likesCount")),
		CommentsCount: int32(database.Int(props, "commentsCount")),
		RetweetsCount: int32(database.Int(props, "retweetsCount")),
		IsLiked:       database.AsBool(database.Value(record, "isLiked")),
		CreatedAt:     m.dates.Time(props, "createdAt"),
		UpdatedAt:     m.dates.Time(props, "updatedAt"),
	}
	// The POSTED edge is authoritative for authorship.
	if t.Author != nil {
		t.AuthorID = t.Author.ID
	}
	return t
}

func (m mapper) comment(record *neo4j.Record) *models.Comment {
	props := database.Props(record, "comment")
	if props == nil {
		return nil
	}
	c := &models.Comment{
		ID:         database.String(props, "id"),
		Text:       database.String(props, "text"),
		AuthorID:   database.String(props, "authorId"),
		TweetID:    database.String(props, "tweetId"),
		Author:     m.author(record),
		LikesCount: int32(database.Int(props, "likesCount")),
		IsLiked:    database.AsBool(database.Value(record, "isLiked")),
		CreatedAt:  m.dates.Time(props, "createdAt"),
		UpdatedAt:  m.dates.Time(props, "updatedAt"),
	}
	if c.Author != nil {
		c.AuthorID = c.Author.ID
	}
	if v := database.Value(record, "likesCount"); v != nil {
		c.LikesCount = int32(database.AsInt(v))
	}
	return c
}

func (m mapper) users(records []*neo4j.Record) []*models.User {
	out := make([]*models.User, 0, len(records))
	for _, r := range records {
		if u := m.user(r); u != nil {
			out = append(out, u)
		}
	}
	return out
}

func (m mapper) tweets(records []*neo4j.Record) []*models.Tweet {
	out := make([]*models.Tweet, 0, len(records))
	for _, r := range records {
		if t := m.tweet(r); t != nil {
			out = append(out, t)
		}
	}
	return out
}

func (m mapper) comments(records []*neo4j.Record) []*models.Comment {
	out := make([]*models.Comment, 0, len(records))
	for _, r := range records {
		if c := m.comment(r); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// optional turns a nil pointer into a null query parameter.
func optional[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
