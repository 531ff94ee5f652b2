package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"

	models "github.com/subhadeepchowdhury41/we-share/model"
)

type registerUserInput struct {
	Username string
	Email    string
	Password string
	Name     *string
}

type loginUserInput struct {
	Username string
	Password string
}

type updateUserInput struct {
	Name         *string
	Bio          *string
	ProfileImage *string
	CoverImage   *string
}

type followInput struct {
	TargetUserID graphql.ID
}

type createTweetInput struct {
	Text  string
	Media *[]string
}

type updateTweetInput struct {
	ID    graphql.ID
	Text  *string
	Media *[]string
}

type deleteTweetInput struct {
	ID       graphql.ID
	AuthorID graphql.ID
}

type tweetActionInput struct {
	TweetID graphql.ID
}

type commentOnTweetInput struct {
	TweetID graphql.ID
	Text    string
}

type commentActionInput struct {
	CommentID graphql.ID
}

func (r *Resolver) RegisterUser(ctx context.Context, args struct{ Input registerUserInput }) (*authPayloadResolver, error) {
	in := models.RegisterInput{
		Username: args.Input.Username,
		Email:    args.Input.Email,
		Password: args.Input.Password,
	}
	if args.Input.Name != nil {
		in.Name = *args.Input.Name
	}

	user, err := r.users.Create(ctx, in)
	if err != nil {
		return nil, r.fail("registerUser", err)
	}
	token, err := r.issueToken(ctx, user.ID, user.Username)
	if err != nil {
		return nil, r.fail("registerUser", err)
	}
	return &authPayloadResolver{user: user, token: token}, nil
}

func (r *Resolver) LoginUser(ctx context.Context, args struct{ Input loginUserInput }) (*authPayloadResolver, error) {
	user, err := r.users.Login(ctx, models.LoginInput{
		Username: args.Input.Username,
		Password: args.Input.Password,
	})
	if err != nil {
		return nil, r.fail("loginUser", err)
	}
	token, err := r.issueToken(ctx, user.ID, user.Username)
	if err != nil {
		return nil, r.fail("loginUser", err)
	}
	return &authPayloadResolver{user: user, token: token}, nil
}

func (r *Resolver) LogoutUser(ctx context.Context) (bool, error) {
	if _, err := caller(ctx); err != nil {
		return false, r.fail("logoutUser", err)
	}
	if err := r.endSession(ctx); err != nil {
		return false, r.fail("logoutUser", err)
	}
	return true, nil
}

func (r *Resolver) UpdateUser(ctx context.Context, args struct{ Input updateUserInput }) (bool, error) {
	me, err := caller(ctx)
	if err != nil {
		return false, r.fail("updateUser", err)
	}
	_, err = r.users.Update(ctx, me, models.UserPatch{
		Name:         args.Input.Name,
		Bio:          args.Input.Bio,
		ProfileImage: args.Input.ProfileImage,
		CoverImage:   args.Input.CoverImage,
	})
	if err != nil {
		return false, r.fail("updateUser", err)
	}
	return true, nil
}

func (r *Resolver) FollowUser(ctx context.Context, args struct{ Input followInput }) (bool, error) {
	me, err := caller(ctx)
	if err != nil {
		return false, r.fail("followUser", err)
	}
	ok, err := r.users.Follow(ctx, me, string(args.Input.TargetUserID))
	if err != nil {
		return false, r.fail("followUser", err)
	}
	return ok, nil
}

// UnfollowUser returns false when the caller was not following the target.
func (r *Resolver) UnfollowUser(ctx context.Context, args struct{ Input followInput }) (bool, error) {
	me, err := caller(ctx)
	if err != nil {
		return false, r.fail("unfollowUser", err)
	}
	ok, err := r.users.Unfollow(ctx, me, string(args.Input.TargetUserID))
	if err != nil {
		return false, r.fail("unfollowUser", err)
	}
	return ok, nil
}

// DeleteUser removes the caller's own account and ends their session.
func (r *Resolver) DeleteUser(ctx context.Context, args struct {
	ID       graphql.ID
	Password string
}) (bool, error) {
	me, err := caller(ctx)
	if err != nil {
		return false, r.fail("deleteUser", err)
	}
	if err := r.users.Delete(ctx, me, string(args.ID), args.Password); err != nil {
		return false, r.fail("deleteUser", err)
	}
	if err := r.endSession(ctx); err != nil {
		r.logger.Warn("failed to end session of deleted user", zap.String("user_id", me), zap.Error(err))
	}
	return true, nil
}

func (r *Resolver) CreateTweet(ctx context.Context, args struct{ Input createTweetInput }) (*tweetResolver, error) {
	me, err := caller(ctx)
	if err != nil {
		return nil, r.fail("createTweet", err)
	}
	media := []string{}
	if args.Input.Media != nil {
		media = *args.Input.Media
	}
	tweet, err := r.tweets.Create(ctx, args.Input.Text, media, me)
	if err != nil {
		return nil, r.fail("createTweet", err)
	}
	return r.tweet(tweet), nil
}

// ownTweet loads the tweet and checks that me posted it.
func (r *Resolver) ownTweet(ctx context.Context, id, me string) (*models.Tweet, error) {
	tweet, err := r.tweets.Fetch(ctx, id, me)
	if err != nil {
		return nil, err
	}
	if tweet.AuthorID != me {
		return nil, forbidden("only the author can change this tweet")
	}
	return tweet, nil
}

func (r *Resolver) UpdateTweet(ctx context.Context, args struct{ Input updateTweetInput }) (*tweetResolver, error) {
	me, err := caller(ctx)
	if err != nil {
		return nil, r.fail("updateTweet", err)
	}
	id := string(args.Input.ID)
	if _, err := r.ownTweet(ctx, id, me); err != nil {
		return nil, r.fail("updateTweet", err)
	}
	tweet, err := r.tweets.Update(ctx, id, args.Input.Text, args.Input.Media, me)
	if err != nil {
		return nil, r.fail("updateTweet", err)
	}
	return r.tweet(tweet), nil
}

// DeleteTweet requires authorId to be the caller and the tweet's author.
func (r *Resolver) DeleteTweet(ctx context.Context, args struct{ Input deleteTweetInput }) (bool, error) {
	me, err := caller(ctx)
	if err != nil {
		return false, r.fail("deleteTweet", err)
	}
	if string(args.Input.AuthorID) != me {
		return false, r.fail("deleteTweet", forbidden("only the author can delete this tweet"))
	}
	id := string(args.Input.ID)
	if _, err := r.ownTweet(ctx, id, me); err != nil {
		return false, r.fail("deleteTweet", err)
	}
	if err := r.tweets.Delete(ctx, id); err != nil {
		return false, r.fail("deleteTweet", err)
	}
	return true, nil
}

func (r *Resolver) LikeTweet(ctx context.Context, args struct{ Input tweetActionInput }) (bool, error) {
	me, err := caller(ctx)
	if err != nil {
		return false, r.fail("likeTweet", err)
	}
	ok, err := r.tweets.Like(ctx, string(args.Input.TweetID), me)
	if err != nil {
		return false, r.fail("likeTweet", err)
	}
	return ok, nil
}

func (r *Resolver) UnlikeTweet(ctx context.Context, args struct{ Input tweetActionInput }) (bool, error) {
	me, err := caller(ctx)
	if err != nil {
		return false, r.fail("unlikeTweet", err)
	}
	ok, err := r.tweets.Unlike(ctx, string(args.Input.TweetID), me)
	if err != nil {
		return false, r.fail("unlikeTweet", err)
	}
	return ok, nil
}

func (r *Resolver) CommentOnTweet(ctx context.Context, args struct{ Input commentOnTweetInput }) (*tweetResolver, error) {
	me, err := caller(ctx)
	if err != nil {
		return nil, r.fail("commentOnTweet", err)
	}
	tweet, err := r.tweets.Comment(ctx, args.Input.Text, me, string(args.Input.TweetID))
	if err != nil {
		return nil, r.fail("commentOnTweet", err)
	}
	return r.tweet(tweet), nil
}

func (r *Resolver) LikeComment(ctx context.Context, args struct{ Input commentActionInput }) (bool, error) {
	me, err := caller(ctx)
	if err != nil {
		return false, r.fail("likeComment", err)
	}
	ok, err := r.comments.Like(ctx, string(args.Input.CommentID), me)
	if err != nil {
		return false, r.fail("likeComment", err)
	}
	return ok, nil
}

func (r *Resolver) UnlikeComment(ctx context.Context, args struct{ Input commentActionInput }) (bool, error) {
	me, err := caller(ctx)
	if err != nil {
		return false, r.fail("unlikeComment", err)
	}
	ok, err := r.comments.Unlike(ctx, string(args.Input.CommentID), me)
	if err != nil {
		return false, r.fail("unlikeComment", err)
	}
	return ok, nil
}

func (r *Resolver) DeleteComment(ctx context.Context, args struct{ Input commentActionInput }) (bool, error) {
	me, err := caller(ctx)
	if err != nil {
		return false, r.fail("deleteComment", err)
	}
	if err := r.comments.Delete(ctx, string(args.Input.CommentID), me); err != nil {
		return false, r.fail("deleteComment", err)
	}
	return true, nil
}
