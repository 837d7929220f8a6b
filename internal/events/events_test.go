package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"yatube/internal/observability"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []Event
	err    error
	closed bool
}

func (r *recordingPublisher) Publish(_ context.Context, evt Event) error {
	r.events = append(r.events, evt)
	return r.err
}

func (r *recordingPublisher) Close() error {
	r.closed = true
	return r.err
}

func TestNew(t *testing.T) {
	evt := New(PostCreated, map[string]any{"id": 1})
	assert.Equal(t, PostCreated, evt.Type)
	assert.WithinDuration(t, time.Now(), evt.OccurredAt, time.Second)
	assert.Equal(t, time.UTC, evt.OccurredAt.Location())
}

func TestMulti(t *testing.T) {
	ok := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("broker down")}
	m := Multi(ok, failing)

	err := m.Publish(context.Background(), New(FollowCreated, nil))
	assert.ErrorContains(t, err, "broker down")
	assert.Len(t, ok.events, 1)
	assert.Len(t, failing.events, 1, "one failing backend does not stop the others")

	assert.Error(t, m.Close())
	assert.True(t, ok.closed)
	assert.True(t, failing.closed)
}

func TestEmit_NeverFails(t *testing.T) {
	failing := &recordingPublisher{err: errors.New("boom")}
	Emit(context.Background(), failing, PostDeleted, map[string]any{"id": 3})
	require.Len(t, failing.events, 1)
	assert.Equal(t, PostDeleted, failing.events[0].Type)

	Emit(context.Background(), nil, PostDeleted, nil)
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), New(PostDeleted, nil)))
}

func TestRedisPublisher_PublishAndSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	p := NewRedisPublisher(rdb, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Event, 1)
	require.NoError(t, p.Subscribe(ctx, func(evt Event) { received <- evt }))

	before := testutil.ToFloat64(observability.EventsPublished.WithLabelValues("redis", CommentCreated, "ok"))
	require.NoError(t, p.Publish(ctx, New(CommentCreated, map[string]any{"post_id": float64(7)})))

	select {
	case evt := <-received:
		assert.Equal(t, CommentCreated, evt.Type)
		assert.Equal(t, float64(7), evt.Payload["post_id"])
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
	assert.Equal(t, before+1, testutil.ToFloat64(observability.EventsPublished.WithLabelValues("redis", CommentCreated, "ok")))
}

func TestRedisPublisher_NilClient(t *testing.T) {
	p := NewRedisPublisher(nil, "x")
	assert.NoError(t, p.Publish(context.Background(), New(PostCreated, nil)))
	assert.NoError(t, p.Subscribe(context.Background(), func(Event) {}))
	assert.NoError(t, p.Close())
}

func TestKafkaMessage(t *testing.T) {
	evt := New(PostUpdated, map[string]any{"id": float64(5)})
	msg, err := message(evt)
	require.NoError(t, err)

	assert.Equal(t, []byte(PostUpdated), msg.Key)
	assert.Equal(t, evt.OccurredAt, msg.Time)

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, evt.Type, decoded.Type)
	assert.Equal(t, evt.Payload, decoded.Payload)
}

func TestNewKafkaPublisher(t *testing.T) {
	_, err := NewKafkaPublisher(nil, "topic")
	assert.Error(t, err)
	_, err = NewKafkaPublisher([]string{"localhost:9092"}, "")
	assert.Error(t, err)

	p, err := NewKafkaPublisher([]string{"localhost:9092", "localhost:9093"}, "yatube.events")
	require.NoError(t, err)
	assert.Equal(t, "yatube.events", p.w.Topic)
	assert.NoError(t, p.Close())
}
