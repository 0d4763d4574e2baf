// Package events publishes grading domain events to NATS so downstream
// consumers (notification delivery, external dashboards) can react without
// coupling to the grading pipeline.
package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// ResultProcessedEvent is emitted after a build result has been persisted.
type ResultProcessedEvent struct {
	ResultID        uint      `json:"result_id"`
	ParticipationID uint      `json:"participation_id"`
	ExerciseID      uint      `json:"exercise_id"`
	CommitHash      string    `json:"commit_hash"`
	Score           float64   `json:"score"`
	Rated           bool      `json:"rated"`
	ProcessedAt     time.Time `json:"processed_at"`
}

// Publisher emits grading events on a NATS subject. A nil connection disables
// publishing, which keeps local development and tests broker-free.
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewPublisher constructs an event publisher.
func NewPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

// ResultProcessed publishes a result-processed event. Publishing failures are
// logged and swallowed; the persisted result is the source of truth.
func (p *Publisher) ResultProcessed(event ResultProcessedEvent) {
	if p == nil || p.conn == nil || p.subject == "" {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to marshal result event")
		return
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Warn().Err(err).Uint("result_id", event.ResultID).Msg("failed to publish result event")
	}
}
