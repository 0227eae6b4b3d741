package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Event types emitted by the attempt lifecycle.
const (
	EventAttemptGraded    = "attempt.graded"
	EventResultsPublished = "attempt.results_published"
)

// Event is a lifecycle fact pushed to the outbound sink. Delivery to students
// (push, poll, queue) is the notification collaborator's concern.
type Event struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Source       string    `json:"source"`
	AttemptID    uint      `json:"attempt_id"`
	AssessmentID uint      `json:"assessment_id"`
	StudentID    uint      `json:"student_id"`
	Mark         *float64  `json:"mark,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// EventSink receives lifecycle events for outbound delivery.
type EventSink interface {
	Publish(ctx context.Context, event Event) error
}

// NoopEventSink discards events; used when no broker is configured.
type NoopEventSink struct{}

// Publish drops the event.
func (NoopEventSink) Publish(context.Context, Event) error { return nil }

type brokerEventSink struct {
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	nodeID      string
}

// NewBrokerEventSink fans lifecycle events out to Redis pub/sub and NATS.
// Either client may be nil; the sink publishes to whichever brokers exist.
func NewBrokerEventSink(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) EventSink {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":attempt-events"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".attempt-events"
	}

	return &brokerEventSink{
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		logger:      logger.With().Str("component", "event_sink").Logger(),
		nodeID:      uuid.NewString(),
	}
}

func (s *brokerEventSink) Publish(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Source == "" {
		event.Source = s.nodeID
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	s.logger.Debug().
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Uint("attempt_id", event.AttemptID).
		Msg("lifecycle event published")

	return nil
}
