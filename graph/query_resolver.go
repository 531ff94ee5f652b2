package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/subhadeepchowdhury41/we-share/interceptor"
	"github.com/subhadeepchowdhury41/we-share/pkg/apperr"
)

// Me returns the caller, or null for anonymous requests.
func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	id := interceptor.ViewerID(ctx)
	if id == "" {
		return nil, nil
	}
	u, err := r.users.FindByID(ctx, id)
	if apperr.Is(err, apperr.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, r.fail("me", err)
	}
	return &userResolver{u: u}, nil
}

func (r *Resolver) FetchUser(ctx context.Context, args struct{ ID graphql.ID }) (*userResolver, error) {
	u, err := r.users.FindByID(ctx, string(args.ID))
	if err != nil {
		return nil, r.fail("fetchUser", err)
	}
	return &userResolver{u: u}, nil
}

func (r *Resolver) FetchUserByUsername(ctx context.Context, args struct{ Username string }) (*userResolver, error) {
	u, err := r.users.FindByUsername(ctx, args.Username)
	if err != nil {
		return nil, r.fail("fetchUserByUsername", err)
	}
	return &userResolver{u: u}, nil
}

func (r *Resolver) ListUsers(ctx context.Context) ([]*userResolver, error) {
	if _, err := caller(ctx); err != nil {
		return nil, r.fail("listUsers", err)
	}
	users, err := r.users.List(ctx)
	if err != nil {
		return nil, r.fail("listUsers", err)
	}
	return usersOf(users), nil
}

func (r *Resolver) ListFollowers(ctx context.Context, args struct{ UserID graphql.ID }) ([]*userResolver, error) {
	if _, err := caller(ctx); err != nil {
		return nil, r.fail("listFollowers", err)
	}
	users, err := r.users.ListFollowers(ctx, string(args.UserID))
	if err != nil {
		return nil, r.fail("listFollowers", err)
	}
	return usersOf(users), nil
}

func (r *Resolver) ListFollowings(ctx context.Context, args struct{ UserID graphql.ID }) ([]*userResolver, error) {
	if _, err := caller(ctx); err != nil {
		return nil, r.fail("listFollowings", err)
	}
	users, err := r.users.ListFollowings(ctx, string(args.UserID))
	if err != nil {
		return nil, r.fail("listFollowings", err)
	}
	return usersOf(users), nil
}

func (r *Resolver) ListTweets(ctx context.Context) ([]*tweetResolver, error) {
	tweets, err := r.tweets.ListAll(ctx, interceptor.ViewerID(ctx))
	if err != nil {
		return nil, r.fail("listTweets", err)
	}
	return r.tweetsOf(tweets), nil
}

func (r *Resolver) ListUserTweets(ctx context.Context, args struct{ UserID graphql.ID }) ([]*tweetResolver, error) {
	tweets, err := r.tweets.ListByAuthor(ctx, string(args.UserID), interceptor.ViewerID(ctx))
	if err != nil {
		return nil, r.fail("listUserTweets", err)
	}
	return r.tweetsOf(tweets), nil
}

func (r *Resolver) ListLikedTweets(ctx context.Context, args struct{ UserID graphql.ID }) ([]*tweetResolver, error) {
	tweets, err := r.tweets.ListLiked(ctx, string(args.UserID), interceptor.ViewerID(ctx))
	if err != nil {
		return nil, r.fail("listLikedTweets", err)
	}
	return r.tweetsOf(tweets), nil
}

// ListTimelineTweets only serves the caller's own timeline; userId may be
// omitted.
func (r *Resolver) ListTimelineTweets(ctx context.Context, args struct{ UserID *graphql.ID }) ([]*tweetResolver, error) {
	me, err := caller(ctx)
	if err != nil {
		return nil, r.fail("listTimelineTweets", err)
	}
	if args.UserID != nil && string(*args.UserID) != me {
		return nil, r.fail("listTimelineTweets", forbidden("you can only read your own timeline"))
	}
	tweets, err := r.tweets.ListTimeline(ctx, me)
	if err != nil {
		return nil, r.fail("listTimelineTweets", err)
	}
	return r.tweetsOf(tweets), nil
}

func (r *Resolver) FetchTweet(ctx context.Context, args struct{ ID graphql.ID }) (*tweetResolver, error) {
	tweet, err := r.tweets.Fetch(ctx, string(args.ID), interceptor.ViewerID(ctx))
	if apperr.Is(err, apperr.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, r.fail("fetchTweet", err)
	}
	return r.tweet(tweet), nil
}

func (r *Resolver) ListComments(ctx context.Context, args struct{ TweetID graphql.ID }) ([]*commentResolver, error) {
	comments, err := r.comments.ListForTweet(ctx, string(args.TweetID), interceptor.ViewerID(ctx))
	if err != nil {
		return nil, r.fail("listComments", err)
	}
	return commentsOf(comments), nil
}
