package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/subhadeepchowdhury41/we-share/events"
)

// recorder captures published events.
type recorder struct {
	mu       sync.Mutex
	subjects []string
	fail     error
}

func (r *recorder) record(subject string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	return r.fail
}

func (r *recorder) PublishTweetCreated(events.TweetCreatedEvent) error {
	return r.record(events.TweetCreated)
}

func (r *recorder) PublishTweetLiked(events.TweetLikedEvent) error {
	return r.record(events.TweetLiked)
}

func (r *recorder) PublishCommentCreated(events.CommentCreatedEvent) error {
	return r.record(events.CommentCreated)
}

func (r *recorder) PublishUserFollowed(events.UserFollowedEvent) error {
	return r.record(events.UserFollowed)
}

// testEnv returns a clock that advances one second per call and sequential
// ids, so ordering by creation time is deterministic.
func testEnv(start time.Time) env {
	var mu sync.Mutex
	tick, seq := 0, 0
	return env{
		now: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			tick++
			return start.Add(time.Duration(tick) * time.Second)
		},
		newID: func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	}
}
