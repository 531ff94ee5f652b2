package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/subhadeepchowdhury41/we-share/interceptor"
	models "github.com/subhadeepchowdhury41/we-share/model"
)

type userResolver struct {
	u *models.User
	// self is set when the user was just authenticated by this request.
	self bool
}

func (r *userResolver) ID() graphql.ID          { return graphql.ID(r.u.ID) }
func (r *userResolver) Username() string        { return r.u.Username }
func (r *userResolver) Name() string            { return r.u.Name }
func (r *userResolver) Bio() string             { return r.u.Bio }
func (r *userResolver) ProfileImage() string    { return r.u.ProfileImage }
func (r *userResolver) CoverImage() string      { return r.u.CoverImage }
func (r *userResolver) IsVerified() bool        { return r.u.IsVerified }
func (r *userResolver) FollowersCount() int32   { return r.u.FollowersCount }
func (r *userResolver) FollowingCount() int32   { return r.u.FollowingCount }
func (r *userResolver) CreatedAt() graphql.Time { return graphql.Time{Time: r.u.CreatedAt.UTC()} }
func (r *userResolver) UpdatedAt() graphql.Time { return graphql.Time{Time: r.u.UpdatedAt.UTC()} }

// Email is visible to the user themselves only.
func (r *userResolver) Email(ctx context.Context) *string {
	if !r.self && interceptor.ViewerID(ctx) != r.u.ID {
		return nil
	}
	return &r.u.Email
}

func usersOf(users []*models.User) []*userResolver {
	out := make([]*userResolver, 0, len(users))
	for _, u := range users {
		out = append(out, &userResolver{u: u})
	}
	return out
}

type authorResolver struct {
	a *models.AuthorSummary
}

func (r *authorResolver) ID() graphql.ID       { return graphql.ID(r.a.ID) }
func (r *authorResolver) Username() string     { return r.a.Username }
func (r *authorResolver) Name() string         { return r.a.Name }
func (r *authorResolver) ProfileImage() string { return r.a.ProfileImage }
func (r *authorResolver) IsVerified() bool     { return r.a.IsVerified }

func authorOf(id string, a *models.AuthorSummary) *authorResolver {
	if a == nil {
		a = &models.AuthorSummary{ID: id}
	}
	return &authorResolver{a}
}

type tweetResolver struct {
	root *Resolver
	t    *models.Tweet
}

func (r *tweetResolver) ID() graphql.ID          { return graphql.ID(r.t.ID) }
func (r *tweetResolver) Text() string            { return r.t.Text }
func (r *tweetResolver) AuthorID() graphql.ID    { return graphql.ID(r.t.AuthorID) }
func (r *tweetResolver) Author() *authorResolver { return authorOf(r.t.AuthorID, r.t.Author) }
func (r *tweetResolver) LikesCount() int32       { return r.t.LikesCount }
func (r *tweetResolver) CommentsCount() int32    { return r.t.CommentsCount }
func (r *tweetResolver) RetweetsCount() int32    { return r.t.RetweetsCount }
func (r *tweetResolver) IsLiked() bool           { return r.t.IsLiked }
func (r *tweetResolver) CreatedAt() graphql.Time { return graphql.Time{Time: r.t.CreatedAt.UTC()} }
func (r *tweetResolver) UpdatedAt() graphql.Time { return graphql.Time{Time: r.t.UpdatedAt.UTC()} }

func (r *tweetResolver) Media() []string {
	if r.t.Media == nil {
		return []string{}
	}
	return r.t.Media
}

func (r *tweetResolver) Comments(ctx context.Context) ([]*commentResolver, error) {
	comments, err := r.root.comments.ListForTweet(ctx, r.t.ID, interceptor.ViewerID(ctx))
	if err != nil {
		return nil, r.root.fail("Tweet.comments", err)
	}
	return commentsOf(comments), nil
}

func (r *Resolver) tweet(t *models.Tweet) *tweetResolver {
	return &tweetResolver{root: r, t: t}
}

func (r *Resolver) tweetsOf(tweets []*models.Tweet) []*tweetResolver {
	out := make([]*tweetResolver, 0, len(tweets))
	for _, t := range tweets {
		out = append(out, r.tweet(t))
	}
	return out
}

type commentResolver struct {
	c *models.Comment
}

func (r *commentResolver) ID() graphql.ID          { return graphql.ID(r.c.ID) }
func (r *commentResolver) Text() string            { return r.c.Text }
func (r *commentResolver) AuthorID() graphql.ID    { return graphql.ID(r.c.AuthorID) }
func (r *commentResolver) TweetID() graphql.ID     { return graphql.ID(r.c.TweetID) }
func (r *commentResolver) Author() *authorResolver { return authorOf(r.c.AuthorID, r.c.Author) }
func (r *commentResolver) LikesCount() int32       { return r.c.LikesCount }
func (r *commentResolver) IsLiked() bool           { return r.c.IsLiked }
func (r *commentResolver) CreatedAt() graphql.Time { return graphql.Time{Time: r.c.CreatedAt.UTC()} }
func (r *commentResolver) UpdatedAt() graphql.Time { return graphql.Time{Time: r.c.UpdatedAt.UTC()} }

func commentsOf(comments []*models.Comment) []*commentResolver {
	out := make([]*commentResolver, 0, len(comments))
	for _, c := range comments {
		out = append(out, &commentResolver{c})
	}
	return out
}

type authPayloadResolver struct {
	user  *models.User
	token string
}

func (r *authPayloadResolver) User() *userResolver { return &userResolver{u: r.user, self: true} }
func (r *authPayloadResolver) Token() string       { return r.token }
