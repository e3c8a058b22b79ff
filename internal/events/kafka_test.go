package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"restoran-pos/internal/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestKafkaPublisherEnvelope(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "restoran-pos", 4, logger.Discard())

	err := p.Publish(context.Background(), Event{
		Topic:         TopicShiftDayClosed,
		Type:          EventShiftDayClosed,
		Key:           "branch-3",
		CorrelationID: "2025-01-15",
		Payload:       DayClosedPayload{BranchID: 3, Date: "2025-01-15", ClosedCount: 2, TotalCash: "1500"},
	})
	require.NoError(t, err)
	require.NoError(t, p.Close())

	require.Len(t, w.msgs, 1)
	assert.True(t, w.closed)

	m := w.msgs[0]
	assert.Equal(t, TopicShiftDayClosed, m.Topic)
	assert.Equal(t, "branch-3", string(m.Key))

	var env Envelope
	require.NoError(t, json.Unmarshal(m.Value, &env))
	assert.Equal(t, EventShiftDayClosed, env.EventType)
	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, "restoran-pos", env.Producer)
	assert.NotEmpty(t, env.EventID)

	var payload DayClosedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, 2, payload.ClosedCount)
}

func TestKafkaPublisherPublishAfterClose(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "restoran-pos", 4, logger.Discard())
	require.NoError(t, p.Close())

	var err error
	require.NotPanics(t, func() {
		err = p.Publish(context.Background(), Event{Topic: TopicOrderCreated, Type: EventOrderCreated})
	})
	assert.ErrorIs(t, err, ErrPublisherClosed)
	assert.Empty(t, w.msgs)

	// ikinci Close güvenli
	require.NoError(t, p.Close())
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Publish(context.Background(), Event{}))
}
