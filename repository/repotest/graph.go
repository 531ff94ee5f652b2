// Package repotest provides an in-memory implementation of the repository
// interfaces for tests.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	models "github.com/subhadeepchowdhury41/we-share/model"
	"github.com/subhadeepchowdhury41/we-share/pkg/apperr"
	"github.com/subhadeepchowdhury41/we-share/repository"
)

type edge struct{ from, to string }

// Graph is an in-memory stand-in for the graph store. It implements the
// three repository interfaces with the same observable behaviour as the
// Cypher queries and is safe for concurrent use.
type Graph struct {
	mu           sync.Mutex
	users        map[string]*models.User
	follows      map[edge]time.Time
	tweets       map[string]*models.Tweet
	likesTweet   map[edge]bool
	comments     map[string]*models.Comment
	likesComment map[edge]bool
	fail         error
}

func New() *Graph {
	return &Graph{
		users:        map[string]*models.User{},
		follows:      map[edge]time.Time{},
		tweets:       map[string]*models.Tweet{},
		likesTweet:   map[edge]bool{},
		comments:     map[string]*models.Comment{},
		likesComment: map[edge]bool{},
	}
}

func (g *Graph) Users() repository.UserRepository       { return users{g} }
func (g *Graph) Tweets() repository.TweetRepository     { return tweets{g} }
func (g *Graph) Comments() repository.CommentRepository { return comments{g} }

// SetFailure makes subsequent creates and reads fail with err. nil clears it.
func (g *Graph) SetFailure(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = err
}

// PasswordHash returns the stored hash for id, or "" if the user is missing.
func (g *Graph) PasswordHash(id string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if u, ok := g.users[id]; ok {
		return u.PasswordHash
	}
	return ""
}

// Counts reports the number of nodes and edges currently stored.
type Counts struct {
	Users, Tweets, Comments           int
	Follows, TweetLikes, CommentLikes int
}

func (g *Graph) Counts() Counts {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Counts{
		Users:        len(g.users),
		Tweets:       len(g.tweets),
		Comments:     len(g.comments),
		Follows:      len(g.follows),
		TweetLikes:   len(g.likesTweet),
		CommentLikes: len(g.likesComment),
	}
}

func (g *Graph) userView(u *models.User) *models.User {
	c := *u
	c.FollowersCount, c.FollowingCount = 0, 0
	for e := range g.follows {
		if e.to == u.ID {
			c.FollowersCount++
		}
		if e.from == u.ID {
			c.FollowingCount++
		}
	}
	return &c
}

func (g *Graph) tweetView(t *models.Tweet, viewerID string) *models.Tweet {
	c := *t
	c.Media = append([]string{}, t.Media...)
	c.Author = g.users[t.AuthorID].Summary()
	c.IsLiked = g.likesTweet[edge{viewerID, t.ID}]
	return &c
}

func sortUsers(users []*models.User) []*models.User {
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users
}

func sortTweets(tweets []*models.Tweet) []*models.Tweet {
	sort.SliceStable(tweets, func(i, j int) bool { return tweets[i].CreatedAt.After(tweets[j].CreatedAt) })
	return tweets
}

func decrement(n int32) int32 {
	if n > 0 {
		return n - 1
	}
	return 0
}

type users struct{ g *Graph }

func (r users) Create(_ context.Context, u models.NewUser) (*models.User, error) {
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail != nil {
		return nil, g.fail
	}
	for _, existing := range g.users {
		if existing.Username == u.Username {
			return nil, apperr.Newf(apperr.DuplicateUsername, "username %q is already taken", u.Username)
		}
	}
	user := &models.User{
		ID: u.ID, Username: u.Username, Email: u.Email, PasswordHash: u.PasswordHash, Name: u.Name,
		CreatedAt: u.CreatedAt, UpdatedAt: u.CreatedAt,
	}
	g.users[u.ID] = user
	return g.userView(user), nil
}

func (r users) GetByID(_ context.Context, id string) (*models.User, error) {
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail != nil {
		return nil, g.fail
	}
	u, ok := g.users[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	return g.userView(u), nil
}

func (r users) GetByUsername(_ context.Context, username string) (*models.User, error) {
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail != nil {
		return nil, g.fail
	}
	for _, u := range g.users {
		if u.Username == username {
			return g.userView(u), nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "user not found")
}

func (r users) GetCredentials(ctx context.Context, username string) (*models.User, error) {
	return r.GetByUsername(ctx, username)
}

func (r users) List(_ context.Context) ([]*models.User, error) {
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail != nil {
		return nil, g.fail
	}
	out := []*models.User{}
	for _, u := range g.users {
		out = append(out, g.userView(u))
	}
	return sortUsers(out), nil
}

func (r users) Update(_ context.Context, id string, p models.UserPatch, now time.Time) (*models.User, error) {
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	u, ok := g.users[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.ProfileImage != nil {
		u.ProfileImage = *p.ProfileImage
	}
	if p.CoverImage != nil {
		u.CoverImage = *p.CoverImage
	}
	u.UpdatedAt = now
	return g.userView(u), nil
}

func (r users) Delete(_ context.Context, id string) error {
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.users[id]; !ok {
		return apperr.New(apperr.NotFound, "user not found")
	}
	for e := range g.likesTweet {
		if e.from == id {
			if t, ok := g.tweets[e.to]; ok {
				t.LikesCount = decrement(t.LikesCount)
			}
			delete(g.likesTweet, e)
		}
	}
	for e := range g.likesComment {
		if e.from == id {
			if c, ok := g.comments[e.to]; ok {
				c.LikesCount = decrement(c.LikesCount)
			}
			delete(g.likesComment, e)
		}
	}
	for cid, c := range g.comments {
		tweet := g.tweets[c.TweetID]
		switch {
		case tweet != nil && tweet.AuthorID == id:
			g.deleteComment(cid)
		case c.AuthorID == id:
			if tweet != nil {
				tweet.CommentsCount = decrement(tweet.CommentsCount)
			}
			g.deleteComment(cid)
		}
	}
	for tid, t := range g.tweets {
		if t.AuthorID == id {
			g.deleteTweet(tid)
		}
	}
	for e := range g.follows {
		if e.from == id || e.to == id {
			delete(g.follows, e)
		}
	}
	delete(g.users, id)
	return nil
}

func (r users) Follow(_ context.Context, followerID, targetID string, now time.Time) (bool, error) {
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.users[followerID] == nil || g.users[targetID] == nil {
		return false, apperr.New(apperr.NotFound, "user not found")
	}
	e := edge{followerID, targetID}
	if _, ok := g.follows[e]; ok {
		return false, nil
	}
	g.follows[e] = now
	return true, nil
}

func (r users) Unfollow(_ context.Context, followerID, targetID string) (bool, error) {
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.users[targetID] == nil {
		return false, apperr.New(apperr.NotFound, "user not found")
	}
	e := edge{followerID, targetID}
	_, ok := g.follows[e]
	delete(g.follows, e)
	return ok, nil
}

func (r users) ListFollowers(_ context.Context, id string) ([]*models.User, error) {
	return r.g.followList(func(e edge) (string, bool) { return e.from, e.to == id })
}

func (r users) ListFollowings(_ context.Context, id string) ([]*models.User, error) {
	return r.g.followList(func(e edge) (string, bool) { return e.to, e.from == id })
}

// followList returns the users on the far end of matching FOLLOWS edges,
// most recently followed first.
func (g *Graph) followList(match func(edge) (string, bool)) ([]*models.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail != nil {
		return nil, g.fail
	}
	type followed struct {
		user *models.User
		at   time.Time
	}
	var found []followed
	for e, at := range g.follows {
		if other, ok := match(e); ok {
			found = append(found, followed{g.userView(g.users[other]), at})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].at.After(found[j].at) })
	out := make([]*models.User, 0, len(found))
	for _, f := range found {
		out = append(out, f.user)
	}
	return out, nil
}

type tweets struct{ g *Graph }

func (r tweets) Create(_ context.Context, t models.NewTweet) (*models.Tweet, error) {
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail != nil {
		return nil, g.fail
	}
	if g.users[t.AuthorID] == nil {
		return nil, apperr.New(apperr.NotFound, "author not found")
	}
	media := t.Media
	if media == nil {
		media = []string{}
	}
	tweet := &models.Tweet{
		ID: t.ID, Text: t.Text, Media: append([]string{}, media...), AuthorID: t.AuthorID,
		CreatedAt: t.CreatedAt, UpdatedAt: t.CreatedAt,
	}
	g.tweets[t.ID] = tweet
	return g.tweetView(tweet, t.AuthorID), nil
}

func (r tweets) GetByID(_ context.Context, id, viewerID string) (*models.Tweet, error) {
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail != nil {
		return nil, g.fail
	}
	t, ok := g.tweets[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "tweet not found")
	}
	return g.tweetView(t, viewerID), nil
}

func (r tweets) filter(viewerID string, keep func(*models.Tweet) bool) []*models.Tweet {
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	out := []*models.Tweet{}
	for _, t := range g.tweets {
		if keep(t) {
			out = append(out, g.tweetView(t, viewerID))
		}
	}
	return sortTweets(out)
}

func (r tweets) ListAll(_ context.Context, viewerID string) ([]*models.Tweet, error) {
	return r.filter(viewerID, func(*models.Tweet) bool { return true }), nil
}

func (r tweets) ListByAuthor(_ context.Context, authorID, viewerID string) ([]*models.Tweet, error) {
	return r.filter(viewerID, func(t *models.Tweet) bool { return t.AuthorID == authorID }), nil
}

func (r tweets) ListLiked(_ context.Context, userID, viewerID string) ([]*models.Tweet, error) {
	return r.filter(viewerID, func(t *models.Tweet) bool { return r.g.likesTweet[edge{userID, t.ID}] }), nil
}

func (r tweets) ListTimeline(_ context.Context, userID string) ([]*models.Tweet, error) {
	r.g.mu.Lock()
	_, known := r.g.users[userID]
	r.g.mu.Unlock()
	if !known {
		return []*models.Tweet{}, nil
	}
	return r.filter(userID, func(t *models.Tweet) bool {
		_, follows := r.g.follows[edge{userID, t.AuthorID}]
		return t.AuthorID == userID || follows
	}), nil
}

func (r tweets) Update(_ context.Context, id string, p models.TweetPatch, viewerID string, now time.Time) (*models.Tweet, error) {
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tweets[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "tweet not found")
	}
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Media != nil {
		t.Media = append([]string{}, (*p.Media)...)
	}
	t.UpdatedAt = now
	return g.tweetView(t, viewerID), nil
}

func (r tweets) Delete(_ context.Context, id string) error {
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.tweets[id]; !ok {
		return apperr.New(apperr.NotFound, "tweet not found")
	}
	g.deleteTweet(id)
	return nil
}

func (r tweets) Like(_ context.Context, tweetID, userID string, _ time.Time) (bool, error) {
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tweets[tweetID]
	if !ok || g.users[userID] == nil {
		return false, apperr.New(apperr.NotFound, "tweet not found")
	}
	e := edge{userID, tweetID}
	if g.likesTweet[e] {
		return false, nil
	}
	g.likesTweet[e] = true
	t.LikesCount++
	return true, nil
}

func (r tweets) Unlike(_ context.Context, tweetID, userID string) (bool, error) {
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tweets[tweetID]
	if !ok {
		return false, apperr.New(apperr.NotFound, "tweet not found")
	}
	e := edge{userID, tweetID}
	if !g.likesTweet[e] {
		return false, nil
	}
	delete(g.likesTweet, e)
	t.LikesCount = decrement(t.LikesCount)
	return true, nil
}

// deleteTweet must be called with mu held.
func (g *Graph) deleteTweet(id string) {
	for cid, c := range g.comments {
		if c.TweetID == id {
			g.deleteComment(cid)
		}
	}
	for e := range g.likesTweet {
		if e.to == id {
			delete(g.likesTweet, e)
		}
	}
	delete(g.tweets, id)
}

// deleteComment must be called with mu held.
func (g *Graph) deleteComment(id string) {
	for e := range g.likesComment {
		if e.to == id {
			delete(g.likesComment, e)
		}
	}
	delete(g.comments, id)
}

type comments struct{ g *Graph }

func (r comments) Create(_ context.Context, c models.NewComment) (*models.Comment, error) {
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail != nil {
		return nil, g.fail
	}
	tweet := g.tweets[c.TweetID]
	author := g.users[c.AuthorID]
	if tweet == nil || author == nil {
		return nil, apperr.New(apperr.NotFound, "tweet or author not found")
	}
	comment := &models.Comment{
		ID: c.ID, Text: c.Text, AuthorID: c.AuthorID, TweetID: c.TweetID,
		CreatedAt: c.CreatedAt, UpdatedAt: c.CreatedAt,
	}
	g.comments[c.ID] = comment
	tweet.CommentsCount++
	out := *comment
	out.Author = author.Summary()
	return &out, nil
}

func (r comments) ListForTweet(_ context.Context, tweetID, viewerID string) ([]*models.Comment, error) {
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	out := []*models.Comment{}
	for _, c := range g.comments {
		if c.TweetID != tweetID {
			continue
		}
		view := *c
		view.Author = g.users[c.AuthorID].Summary()
		view.LikesCount = 0
		for e := range g.likesComment {
			if e.to == c.ID {
				view.LikesCount++
			}
		}
		view.IsLiked = g.likesComment[edge{viewerID, c.ID}]
		out = append(out, &view)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r comments) Like(_ context.Context, commentID, userID string, _ time.Time) (bool, error) {
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.comments[commentID]
	if !ok || g.users[userID] == nil {
		return false, apperr.New(apperr.NotFound, "comment not found")
	}
	e := edge{userID, commentID}
	if g.likesComment[e] {
		return false, nil
	}
	g.likesComment[e] = true
	c.LikesCount++
	return true, nil
}

func (r comments) Unlike(_ context.Context, commentID, userID string) (bool, error) {
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.comments[commentID]
	if !ok {
		return false, apperr.New(apperr.NotFound, "comment not found")
	}
	e := edge{userID, commentID}
	if !g.likesComment[e] {
		return false, nil
	}
	delete(g.likesComment, e)
	c.LikesCount = decrement(c.LikesCount)
	return true, nil
}

func (r comments) Delete(_ context.Context, commentID, userID string) (string, error) {
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.comments[commentID]
	if !ok || c.AuthorID != userID {
		return "", apperr.New(apperr.NotFoundOrUnauthorized, "comment not found or not owned by user")
	}
	if t := g.tweets[c.TweetID]; t != nil {
		t.CommentsCount = decrement(t.CommentsCount)
	}
	g.deleteComment(commentID)
	return c.TweetID, nil
}

