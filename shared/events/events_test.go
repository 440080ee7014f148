package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/platform/shared/logging"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNewPublisher_Selection(t *testing.T) {
	ctx := context.Background()

	pub, client := NewPublisher(ctx, "", logging.Discard())
	assert.IsType(t, NullPublisher{}, pub)
	assert.Nil(t, client)

	mr := miniredis.RunT(t)
	livePub, liveClient := NewPublisher(ctx, "redis://"+mr.Addr()+"/0", logging.Discard())
	require.NotNil(t, liveClient)
	t.Cleanup(func() { _ = liveClient.Close() })
	assert.IsType(t, &RedisPublisher{}, livePub)

	addr := mr.Addr()
	mr.Close()
	deadPub, deadClient := NewPublisher(ctx, "redis://"+addr+"/0", logging.Discard())
	assert.IsType(t, NullPublisher{}, deadPub)
	assert.Nil(t, deadClient)
}

func TestRedisPublisher_Publish(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, UserCreated)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	pub := NewRedisPublisher(client, logging.Discard())
	pub.Publish(ctx, UserCreated, UserCreatedEvent{UserID: 7, Email: "bob@x.com"})

	select {
	case msg := <-sub.Channel():
		var event Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, UserCreated, event.Type)
		assert.False(t, event.Timestamp.IsZero())

		var data UserCreatedEvent
		require.NoError(t, event.Decode(&data))
		assert.Equal(t, UserCreatedEvent{UserID: 7, Email: "bob@x.com"}, data)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestRedisPublisher_SwallowsFailures(t *testing.T) {
	mr, client := newTestRedis(t)
	pub := NewRedisPublisher(client, logging.Discard())

	// No subscribers.
	pub.Publish(context.Background(), UserCreated, UserCreatedEvent{UserID: 1})

	// Server gone.
	mr.Close()
	pub.Publish(context.Background(), UserCreated, UserCreatedEvent{UserID: 2})

	// Unmarshalable payload.
	pub.Publish(context.Background(), UserCreated, make(chan int))
}

func TestNullPublisher(t *testing.T) {
	var pub Publisher = NullPublisher{}
	pub.Publish(context.Background(), UserCreated, UserCreatedEvent{UserID: 1})
}

func TestSubscriber_DeliversEvents(t *testing.T) {
	_, client := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan UserCreatedEvent, 4)
	sub := NewSubscriber(client, SubscriberConfig{
		Channel: UserCreated,
		Logger:  logging.Discard(),
		Handler: func(ctx context.Context, event Event) error {
			var data UserCreatedEvent
			if err := event.Decode(&data); err != nil {
				return err
			}
			if data.UserID == 0 {
				return errors.New("missing user id")
			}
			received <- data
			return nil
		},
	})

	done := make(chan error, 1)
	go func() { done <- sub.Start(ctx) }()

	pub := NewRedisPublisher(client, logging.Discard())

	// Retry until the subscription is live; PUBLISH reports receiver counts.
	require.Eventually(t, func() bool {
		n, err := client.Publish(ctx, UserCreated, "not json").Result()
		return err == nil && n > 0
	}, 2*time.Second, 10*time.Millisecond)

	pub.Publish(ctx, UserCreated, UserCreatedEvent{UserID: 0})
	pub.Publish(ctx, UserCreated, UserCreatedEvent{UserID: 42, Email: "a@b.c"})

	select {
	case got := <-received:
		assert.Equal(t, int64(42), got.UserID)
		assert.Equal(t, "a@b.c", got.Email)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handler")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}
