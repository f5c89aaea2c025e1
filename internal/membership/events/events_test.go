package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthfund/internal/membership/models"
	"healthfund/pkg/platform/circuit"
)

type recordingProducer struct {
	keys   [][]byte
	values [][]byte
	err    error
}

func (p *recordingProducer) Publish(_ context.Context, key, value []byte) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.values = append(p.values, value)
	return nil
}

func issuedEvent() models.IssuedEvent {
	m := models.New("NHF123456789", "Jane Doe", "123456789", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	return models.NewIssuedEvent(m, "NHF-20250701-ABCDEF", time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC))
}

func TestKafkaPublisher_PublishesKeyedEvent(t *testing.T) {
	producer := &recordingProducer{}
	p := NewKafkaPublisher(producer, nil, nil)

	require.NoError(t, p.PublishIssued(context.Background(), issuedEvent()))
	require.Len(t, producer.values, 1)
	assert.Equal(t, "NHF123456789", string(producer.keys[0]))

	var got map[string]any
	require.NoError(t, json.Unmarshal(producer.values[0], &got))
	assert.Equal(t, "123456789", got["trn"])
	assert.Equal(t, "2025-07-01", got["valid_from"])
	assert.Equal(t, "NHF-20250701-ABCDEF", got["application_code"])
}

func TestKafkaPublisher_OpensCircuit(t *testing.T) {
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	producer := &recordingProducer{err: errors.New("broker unreachable")}
	breaker := circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }))
	var logs bytes.Buffer
	p := NewKafkaPublisher(producer, breaker, slog.New(slog.NewTextHandler(&logs, nil)))
	ctx := context.Background()

	assert.EqualError(t, p.PublishIssued(ctx, issuedEvent()), "broker unreachable")
	assert.EqualError(t, p.PublishIssued(ctx, issuedEvent()), "broker unreachable")
	assert.Contains(t, logs.String(), "circuit opened")

	assert.ErrorIs(t, p.PublishIssued(ctx, issuedEvent()), ErrCircuitOpen)

	producer.err = nil
	now = now.Add(time.Minute)
	require.NoError(t, p.PublishIssued(ctx, issuedEvent()))
	assert.False(t, breaker.IsOpen())
	assert.Contains(t, logs.String(), "circuit closed")
}

func TestLogPublisher(t *testing.T) {
	var logs bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewJSONHandler(&logs, nil)))
	require.NoError(t, p.PublishIssued(context.Background(), issuedEvent()))
	assert.Contains(t, logs.String(), `"member_number":"NHF123456789"`)

	assert.NoError(t, NewLogPublisher(nil).PublishIssued(context.Background(), issuedEvent()))
}
