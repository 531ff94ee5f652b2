package graph

import (
	"context"
	"testing"
	"time"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subhadeepchowdhury41/we-share/interceptor"
	"github.com/subhadeepchowdhury41/we-share/pkg/apperr"
)

func TestRegisterAndLogin(t *testing.T) {
	h := newHarness(t)
	_, id := h.signup(t, "alice")

	resp := h.exec(context.Background(), registerMutation, map[string]interface{}{
		"in": map[string]interface{}{"username": "alice", "email": "x@example.com", "password": "whatever"},
	})
	assert.Equal(t, CodeDuplicateUsername, code(t, resp))

	login := `mutation($u: String!, $p: String!) { loginUser(input: {username: $u, password: $p}) { token user { id } } }`
	var out struct {
		LoginUser struct {
			Token string
			User  struct{ ID string }
		}
	}
	h.run(t, context.Background(), login, map[string]interface{}{"u": "alice", "p": "password-alice"}, &out)
	assert.Equal(t, id, out.LoginUser.User.ID)
	assert.NotEmpty(t, out.LoginUser.Token)

	resp = h.exec(context.Background(), login, map[string]interface{}{"u": "alice", "p": "nope"})
	assert.Equal(t, CodeUnauthenticated, code(t, resp))
	assert.Equal(t, "invalid username or password", resp.Errors[0].Message)
}

func TestRegisterReportsFieldErrors(t *testing.T) {
	h := newHarness(t)
	resp := h.exec(context.Background(), registerMutation, map[string]interface{}{
		"in": map[string]interface{}{"username": "a", "email": "bad", "password": "pw"},
	})
	assert.Equal(t, CodeBadUserInput, code(t, resp))
	assert.Len(t, resp.Errors[0].Extensions["fields"], 3)
}

func TestAnonymousAccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var me struct{ Me *struct{ ID string } }
	h.run(t, ctx, `{ me { id } }`, nil, &me)
	assert.Nil(t, me.Me)

	assert.Equal(t, CodeUnauthenticated, code(t, h.exec(ctx, createTweetMutation, map[string]interface{}{"text": "hi"})))
	assert.Equal(t, CodeUnauthenticated, code(t, h.exec(ctx, `{ listUsers { id } }`, nil)))
	assert.Equal(t, CodeUnauthenticated, code(t, h.exec(ctx, `{ listTimelineTweets { id } }`, nil)))

	var list struct{ ListTweets []struct{ ID string } }
	h.run(t, ctx, `{ listTweets { id } }`, nil, &list)
	assert.Empty(t, list.ListTweets)
}

func TestMe(t *testing.T) {
	h := newHarness(t)
	ctx, id := h.signup(t, "alice")

	var out struct {
		Me struct {
			ID        string
			Username  string
			Name      string
			CreatedAt string
		}
	}
	h.run(t, ctx, `{ me { id username name createdAt } }`, nil, &out)
	assert.Equal(t, id, out.Me.ID)
	assert.Equal(t, "alice", out.Me.Name)

	_, err := time.Parse(time.RFC3339Nano, out.Me.CreatedAt)
	assert.NoError(t, err)
}

func TestLikeScenarioOverGraphQL(t *testing.T) {
	h := newHarness(t)
	u1, _ := h.signup(t, "user_one")
	u2, u2ID := h.signup(t, "user_two")

	var followed struct{ FollowUser bool }
	h.run(t, u1, `mutation($id: ID!) { followUser(input: {targetUserId: $id}) }`, map[string]interface{}{"id": u2ID}, &followed)
	assert.True(t, followed.FollowUser)

	tweetID := h.post(t, u2, "hello")

	var timeline struct{ ListTimelineTweets []struct{ ID, Text string } }
	h.run(t, u1, `{ listTimelineTweets { id text } }`, nil, &timeline)
	require.Len(t, timeline.ListTimelineTweets, 1)
	assert.Equal(t, tweetID, timeline.ListTimelineTweets[0].ID)

	like := `mutation($id: ID!) { likeTweet(input: {tweetId: $id}) }`
	var liked struct{ LikeTweet bool }
	h.run(t, u1, like, map[string]interface{}{"id": tweetID}, &liked)
	assert.True(t, liked.LikeTweet)
	h.run(t, u1, like, map[string]interface{}{"id": tweetID}, &liked)
	assert.False(t, liked.LikeTweet, "liking twice is a no-op")

	fetch := `query($id: ID!) { fetchTweet(id: $id) { isLiked likesCount author { id username } } }`
	var got struct {
		FetchTweet struct {
			IsLiked    bool
			LikesCount int
			Author     struct{ ID, Username string }
		}
	}
	h.run(t, u1, fetch, map[string]interface{}{"id": tweetID}, &got)
	assert.True(t, got.FetchTweet.IsLiked)
	assert.Equal(t, 1, got.FetchTweet.LikesCount)
	assert.Equal(t, u2ID, got.FetchTweet.Author.ID)
	assert.Equal(t, "user_two", got.FetchTweet.Author.Username)

	var unliked struct{ UnlikeTweet bool }
	h.run(t, u1, `mutation($id: ID!) { unlikeTweet(input: {tweetId: $id}) }`, map[string]interface{}{"id": tweetID}, &unliked)
	assert.True(t, unliked.UnlikeTweet)

	h.run(t, u1, fetch, map[string]interface{}{"id": tweetID}, &got)
	assert.False(t, got.FetchTweet.IsLiked)
	assert.Zero(t, got.FetchTweet.LikesCount)
}

func TestFollowErrors(t *testing.T) {
	h := newHarness(t)
	ctx, me := h.signup(t, "alice")
	_, bob := h.signup(t, "bob")
	follow := `mutation($id: ID!) { followUser(input: {targetUserId: $id}) }`

	assert.Equal(t, CodeInvalidOperation, code(t, h.exec(ctx, follow, map[string]interface{}{"id": me})))
	h.run(t, ctx, follow, map[string]interface{}{"id": bob}, nil)
	assert.Equal(t, CodeAlreadyFollowing, code(t, h.exec(ctx, follow, map[string]interface{}{"id": bob})))
	assert.Equal(t, CodeNotFound, code(t, h.exec(ctx, follow, map[string]interface{}{"id": "ghost"})))

	var followers struct{ ListFollowers []struct{ ID string } }
	h.run(t, ctx, `query($id: ID!) { listFollowers(userId: $id) { id } }`, map[string]interface{}{"id": bob}, &followers)
	require.Len(t, followers.ListFollowers, 1)
	assert.Equal(t, me, followers.ListFollowers[0].ID)

	var unfollowed struct{ UnfollowUser bool }
	unfollow := `mutation($id: ID!) { unfollowUser(input: {targetUserId: $id}) }`
	h.run(t, ctx, unfollow, map[string]interface{}{"id": bob}, &unfollowed)
	assert.True(t, unfollowed.UnfollowUser)
	h.run(t, ctx, unfollow, map[string]interface{}{"id": bob}, &unfollowed)
	assert.False(t, unfollowed.UnfollowUser)
}

func TestTimelineIsPrivate(t *testing.T) {
	h := newHarness(t)
	ctx, _ := h.signup(t, "alice")
	_, bob := h.signup(t, "bob")

	resp := h.exec(ctx, `query($id: ID) { listTimelineTweets(userId: $id) { id } }`, map[string]interface{}{"id": bob})
	assert.Equal(t, CodeForbidden, code(t, resp))
}

func TestCommentScenarioOverGraphQL(t *testing.T) {
	h := newHarness(t)
	u1, _ := h.signup(t, "user_one")
	u2, u2ID := h.signup(t, "user_two")
	tweetID := h.post(t, u1, "post")

	var commented struct {
		CommentOnTweet struct {
			CommentsCount int
			Comments      []struct {
				ID     string
				Text   string
				Author struct{ ID string }
			}
		}
	}
	h.run(t, u2, `mutation($id: ID!) {
		commentOnTweet(input: {tweetId: $id, text: "nice"}) { commentsCount comments { id text author { id } } }
	}`, map[string]interface{}{"id": tweetID}, &commented)
	assert.Equal(t, 1, commented.CommentOnTweet.CommentsCount)
	require.Len(t, commented.CommentOnTweet.Comments, 1)
	c := commented.CommentOnTweet.Comments[0]
	assert.Equal(t, "nice", c.Text)
	assert.Equal(t, u2ID, c.Author.ID)

	var liked struct{ LikeComment bool }
	h.run(t, u1, `mutation($id: ID!) { likeComment(input: {commentId: $id}) }`, map[string]interface{}{"id": c.ID}, &liked)
	assert.True(t, liked.LikeComment)

	var list struct {
		ListComments []struct {
			LikesCount int
			IsLiked    bool
		}
	}
	h.run(t, u1, `query($id: ID!) { listComments(tweetId: $id) { likesCount isLiked } }`, map[string]interface{}{"id": tweetID}, &list)
	require.Len(t, list.ListComments, 1)
	assert.Equal(t, 1, list.ListComments[0].LikesCount)
	assert.True(t, list.ListComments[0].IsLiked)

	deleteComment := `mutation($id: ID!) { deleteComment(input: {commentId: $id}) }`
	assert.Equal(t, CodeNotFound, code(t, h.exec(u1, deleteComment, map[string]interface{}{"id": c.ID})))
	h.run(t, u2, deleteComment, map[string]interface{}{"id": c.ID}, nil)

	var fetched struct{ FetchTweet struct{ CommentsCount int } }
	h.run(t, u1, `query($id: ID!) { fetchTweet(id: $id) { commentsCount } }`, map[string]interface{}{"id": tweetID}, &fetched)
	assert.Zero(t, fetched.FetchTweet.CommentsCount)
}

func TestTweetOwnership(t *testing.T) {
	h := newHarness(t)
	alice, aliceID := h.signup(t, "alice")
	bob, bobID := h.signup(t, "bob")
	tweetID := h.post(t, alice, "mine")

	update := `mutation($id: ID!, $text: String) { updateTweet(input: {id: $id, text: $text}) { text isLiked } }`
	assert.Equal(t, CodeForbidden, code(t, h.exec(bob, update, map[string]interface{}{"id": tweetID, "text": "hijacked"})))

	h.run(t, alice, `mutation($id: ID!) { likeTweet(input: {tweetId: $id}) }`, map[string]interface{}{"id": tweetID}, nil)

	var updated struct {
		UpdateTweet struct {
			Text    string
			IsLiked bool
		}
	}
	h.run(t, alice, update, map[string]interface{}{"id": tweetID, "text": "edited"}, &updated)
	assert.Equal(t, "edited", updated.UpdateTweet.Text)
	assert.True(t, updated.UpdateTweet.IsLiked)

	del := `mutation($id: ID!, $author: ID!) { deleteTweet(input: {id: $id, authorId: $author}) }`
	assert.Equal(t, CodeForbidden, code(t, h.exec(bob, del, map[string]interface{}{"id": tweetID, "author": aliceID})))
	assert.Equal(t, CodeForbidden, code(t, h.exec(bob, del, map[string]interface{}{"id": tweetID, "author": bobID})))

	var deleted struct{ DeleteTweet bool }
	h.run(t, alice, del, map[string]interface{}{"id": tweetID, "author": aliceID}, &deleted)
	assert.True(t, deleted.DeleteTweet)

	var fetched struct{ FetchTweet *struct{ ID string } }
	h.run(t, alice, `query($id: ID!) { fetchTweet(id: $id) { id } }`, map[string]interface{}{"id": tweetID}, &fetched)
	assert.Nil(t, fetched.FetchTweet)

	assert.Equal(t, CodeNotFound, code(t, h.exec(alice, del, map[string]interface{}{"id": tweetID, "author": aliceID})))
}

func TestInvalidTweetText(t *testing.T) {
	h := newHarness(t)
	ctx, _ := h.signup(t, "alice")

	resp := h.exec(ctx, createTweetMutation, map[string]interface{}{"text": "   "})
	assert.Equal(t, CodeBadUserInput, code(t, resp))
	assert.NotEmpty(t, resp.Errors[0].Extensions["fields"])
}

func TestStoreFailureIsMasked(t *testing.T) {
	h := newHarness(t)
	h.graph.SetFailure(apperr.New(apperr.StoreUnavailable, "neo4j at 10.0.0.7:7687 refused connection"))

	resp := h.exec(context.Background(), `{ fetchTweet(id: "t1") { id } }`, nil)
	assert.Equal(t, CodeInternal, code(t, resp))
	assert.Equal(t, "internal server error", resp.Errors[0].Message)
	assert.NotContains(t, resp.Errors[0].Message, "10.0.0.7")
}

func TestUpdateAndDeleteUser(t *testing.T) {
	h := newHarness(t)
	alice, aliceID := h.signup(t, "alice")
	bob, _ := h.signup(t, "bob")

	var updated struct{ UpdateUser bool }
	h.run(t, alice, `mutation { updateUser(input: {bio: "hi there"}) }`, nil, &updated)
	assert.True(t, updated.UpdateUser)

	var fetched struct{ FetchUser struct{ Bio string } }
	h.run(t, bob, `query($id: ID!) { fetchUser(id: $id) { bio } }`, map[string]interface{}{"id": aliceID}, &fetched)
	assert.Equal(t, "hi there", fetched.FetchUser.Bio)

	del := `mutation($id: ID!, $pw: String!) { deleteUser(id: $id, password: $pw) }`
	assert.Equal(t, CodeForbidden, code(t, h.exec(bob, del, map[string]interface{}{"id": aliceID, "pw": "password-alice"})))
	assert.Equal(t, CodeUnauthenticated, code(t, h.exec(alice, del, map[string]interface{}{"id": aliceID, "pw": "wrong"})))

	h.run(t, alice, del, map[string]interface{}{"id": aliceID, "pw": "password-alice"}, nil)
	claims, _ := interceptor.ClaimsFromContext(alice)
	assert.Equal(t, []string{claims.ID}, h.revoked.ids)

	resp := h.exec(bob, `query($id: ID!) { fetchUser(id: $id) { id } }`, map[string]interface{}{"id": aliceID})
	assert.Equal(t, CodeNotFound, code(t, resp))
}

func TestLogoutRevokesToken(t *testing.T) {
	h := newHarness(t)
	ctx, _ := h.signup(t, "alice")

	var out struct{ LogoutUser bool }
	h.run(t, ctx, `mutation { logoutUser }`, nil, &out)
	assert.True(t, out.LogoutUser)

	claims, _ := interceptor.ClaimsFromContext(ctx)
	assert.Equal(t, []string{claims.ID}, h.revoked.ids)

	assert.Equal(t, CodeUnauthenticated, code(t, h.exec(context.Background(), `mutation { logoutUser }`, nil)))
}

func TestTweetAddedSubscription(t *testing.T) {
	h := newHarness(t)
	ctx, _ := h.signup(t, "alice")

	subCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, err := h.schema.Subscribe(subCtx, `subscription { tweetAdded { text author { username } } }`, "", nil)
	require.NoError(t, err)

	h.post(t, ctx, "live")

	select {
	case msg := <-stream:
		resp, ok := msg.(*graphql.Response)
		require.True(t, ok, "unexpected payload %T", msg)
		require.Empty(t, resp.Errors)
		assert.JSONEq(t, `{"tweetAdded":{"text":"live","author":{"username":"alice"}}}`, string(resp.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("no tweetAdded event received")
	}

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, open := <-stream:
			return !open
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFetchUserByUsername(t *testing.T) {
	h := newHarness(t)
	alice, aliceID := h.signup(t, "alice")
	bob, _ := h.signup(t, "bob")

	const query = `query($u: String!) { fetchUserByUsername(username: $u) { id username } }`
	var out struct {
		FetchUserByUsername struct{ ID, Username string }
	}
	h.run(t, bob, query, map[string]interface{}{"u": "alice"}, &out)
	assert.Equal(t, aliceID, out.FetchUserByUsername.ID)

	assert.Equal(t, CodeNotFound, code(t, h.exec(alice, query, map[string]interface{}{"u": "nobody"})))
}

func TestEmailVisibleToOwnerOnly(t *testing.T) {
	h := newHarness(t)
	alice, aliceID := h.signup(t, "alice")
	bob, _ := h.signup(t, "bob")

	type user struct{ Email *string }
	vars := map[string]interface{}{"id": aliceID}
	const query = `query($id: ID!) { fetchUser(id: $id) { email } }`

	var own struct{ FetchUser user }
	h.run(t, alice, query, vars, &own)
	require.NotNil(t, own.FetchUser.Email)
	assert.Equal(t, "alice@example.com", *own.FetchUser.Email)

	var other struct{ FetchUser user }
	h.run(t, bob, query, vars, &other)
	assert.Nil(t, other.FetchUser.Email)

	var anonymous struct{ FetchUser user }
	h.run(t, context.Background(), query, vars, &anonymous)
	assert.Nil(t, anonymous.FetchUser.Email)

	var login struct {
		LoginUser struct{ User user }
	}
	h.run(t, context.Background(), `mutation { loginUser(input: {username: "alice", password: "password-alice"}) { user { email } } }`, nil, &login)
	require.NotNil(t, login.LoginUser.User.Email, "the freshly authenticated user sees their own email")
}
