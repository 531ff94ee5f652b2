package publisher

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/subhadeepchowdhury41/we-share/events"
	"github.com/subhadeepchowdhury41/we-share/metrics"
	natsClient "github.com/subhadeepchowdhury41/we-share/nats"
)

// Broker is the transport events travel over: the NATS client in
// production, LocalBroker when no NATS URL is configured.
type Broker interface {
	Publish(subject string, data any) error
	SubscribeFunc(subject string, handler func(data []byte)) (func() error, error)
}

const subscriberBuffer = 16

type EventPublisher struct {
	broker  Broker
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewEventPublisher(broker Broker, logger *zap.Logger, m *metrics.Metrics) *EventPublisher {
	return &EventPublisher{broker: broker, logger: logger, metrics: m}
}

func (p *EventPublisher) PublishTweetCreated(event events.TweetCreatedEvent) error {
	return p.publish(events.TweetCreated, event, zap.String("tweet_id", event.TweetID))
}

func (p *EventPublisher) PublishTweetLiked(event events.TweetLikedEvent) error {
	return p.publish(events.TweetLiked, event, zap.String("tweet_id", event.TweetID))
}

func (p *EventPublisher) PublishCommentCreated(event events.CommentCreatedEvent) error {
	return p.publish(events.CommentCreated, event, zap.String("comment_id", event.CommentID))
}

func (p *EventPublisher) PublishUserFollowed(event events.UserFollowedEvent) error {
	return p.publish(events.UserFollowed, event, zap.String("followee_id", event.FolloweeID))
}

func (p *EventPublisher) publish(subject string, event any, field zap.Field) error {
	err := p.broker.Publish(subject, event)
	p.metrics.ObserveEvent(subject, err)
	if err != nil {
		return err
	}
	p.logger.Debug("published event", zap.String("subject", subject), field)
	return nil
}

// SubscribeTweetCreated streams tweet.created events until ctx is done.
// Events are dropped for a consumer that falls behind the buffer.
func (p *EventPublisher) SubscribeTweetCreated(ctx context.Context) (<-chan events.TweetCreatedEvent, error) {
	out := make(chan events.TweetCreatedEvent, subscriberBuffer)
	var (
		mu     sync.Mutex
		closed bool
	)

	unsubscribe, err := p.broker.SubscribeFunc(events.TweetCreated, func(data []byte) {
		var event events.TweetCreatedEvent
		if err := natsClient.DecodeEvent(data, &event); err != nil {
			p.logger.Warn("failed to decode event", zap.String("subject", events.TweetCreated), zap.Error(err))
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case out <- event:
		default:
			p.logger.Warn("subscriber is behind, dropping event", zap.String("tweet_id", event.TweetID))
		}
	})
	if err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		if err := unsubscribe(); err != nil {
			p.logger.Warn("failed to unsubscribe", zap.Error(err))
		}
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()

	return out, nil
}
