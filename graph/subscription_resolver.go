package graph

import (
	"context"

	"go.uber.org/zap"

	"github.com/subhadeepchowdhury41/we-share/interceptor"
)

// TweetAdded streams every newly created tweet until the subscriber goes
// away.
func (r *Resolver) TweetAdded(ctx context.Context) (<-chan *tweetResolver, error) {
	created, err := r.feed.SubscribeTweetCreated(ctx)
	if err != nil {
		return nil, r.fail("tweetAdded", err)
	}

	viewer := interceptor.ViewerID(ctx)
	ch := make(chan *tweetResolver, 1)
	go func() {
		defer close(ch)
		for event := range created {
			tweet, err := r.tweets.Fetch(ctx, event.TweetID, viewer)
			if err != nil {
				r.logger.Warn("failed to load added tweet", zap.String("tweet_id", event.TweetID), zap.Error(err))
				continue
			}
			select {
			case ch <- r.tweet(tweet):
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
