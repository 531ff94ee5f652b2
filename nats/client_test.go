package nats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/subhadeepchowdhury41/we-share/events"
)

func TestNewClientUnreachable(t *testing.T) {
	_, err := NewClient(Config{URL: "nats://127.0.0.1:1", ReconnectWait: time.Millisecond}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to NATS")
}

func TestDecodeEvent(t *testing.T) {
	var ev events.UserFollowedEvent
	require.NoError(t, DecodeEvent([]byte(`{"follower_id":"a","followee_id":"b"}`), &ev))
	assert.Equal(t, "a", ev.FollowerID)
	assert.Equal(t, "b", ev.FolloweeID)

	assert.Error(t, DecodeEvent([]byte("{"), &ev))
}

func TestHealthCheckWithoutConnection(t *testing.T) {
	c := &Client{logger: zap.NewNop()}
	assert.False(t, c.Healthy())
	assert.Error(t, c.HealthCheck(context.Background()))
}
