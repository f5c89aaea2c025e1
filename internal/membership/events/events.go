// Package events announces issued memberships to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"healthfund/internal/membership/models"
	"healthfund/pkg/platform/circuit"
	"healthfund/pkg/platform/sentinel"
	"healthfund/pkg/requestcontext"
)

// EventIssued is the event type carried in the record header.
const EventIssued = "membership.issued"

// ErrCircuitOpen is returned while the broker is considered unavailable.
var ErrCircuitOpen = fmt.Errorf("membership events: circuit open: %w", sentinel.ErrUnavailable)

// Producer writes one keyed record. *kafka.Producer satisfies it.
type Producer interface {
	Publish(ctx context.Context, key, value []byte) error
}

// KafkaPublisher publishes membership.issued events through a circuit breaker,
// so a broker outage fails fast instead of delaying every approval.
type KafkaPublisher struct {
	producer Producer
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

// NewKafkaPublisher wraps producer with breaker.
func NewKafkaPublisher(producer Producer, breaker *circuit.Breaker, logger *slog.Logger) *KafkaPublisher {
	if breaker == nil {
		breaker = circuit.New("membership-events")
	}
	return &KafkaPublisher{producer: producer, breaker: breaker, logger: logger}
}

// PublishIssued sends evt keyed by member number.
func (p *KafkaPublisher) PublishIssued(ctx context.Context, evt models.IssuedEvent) error {
	if !p.breaker.Allow() {
		return ErrCircuitOpen
	}
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode %s: %w", EventIssued, err)
	}

	if err := p.producer.Publish(ctx, []byte(evt.MemberNumber), value); err != nil {
		if _, change := p.breaker.RecordFailure(); change.Opened && p.logger != nil {
			p.logger.WarnContext(ctx, "membership event circuit opened",
				"breaker", p.breaker.Name(),
				"error", err,
			)
		}
		return err
	}
	if _, change := p.breaker.RecordSuccess(); change.Closed && p.logger != nil {
		p.logger.InfoContext(ctx, "membership event circuit closed", "breaker", p.breaker.Name())
	}
	return nil
}

// LogPublisher records events in the log when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishIssued(ctx context.Context, evt models.IssuedEvent) error {
	if p.logger == nil {
		return nil
	}
	p.logger.InfoContext(ctx, EventIssued,
		"event", EventIssued,
		"member_number", evt.MemberNumber,
		"application_code", evt.ApplicationCode,
		"valid_from", evt.ValidFrom,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}
