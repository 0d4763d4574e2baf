package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/praxis-lms/grading-api/internal/dto"
)

const feedBufferSize = 16

// ResultFeedService streams freshly processed results to staff watching an
// exercise, bridged over NATS so every instance delivers to its own sockets.
type ResultFeedService interface {
	ResultBroadcaster
	ServeConnection(conn *websocket.Conn, exerciseID uint)
	Start(ctx context.Context)
}

type resultFeedService struct {
	nats    *nats.Conn
	subject string
	nodeID  string
	logger  zerolog.Logger

	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.ResultResponse]struct{}
}

type feedEvent struct {
	Source     string             `json:"source"`
	ExerciseID uint               `json:"exercise_id"`
	Result     dto.ResultResponse `json:"result"`
	SentAt     time.Time          `json:"sent_at"`
}

// NewResultFeedService constructs the feed. A nil NATS connection limits the
// feed to this instance, which is the normal mode in tests.
func NewResultFeedService(natsConn *nats.Conn, subject string, logger zerolog.Logger) ResultFeedService {
	return &resultFeedService{
		nats:        natsConn,
		subject:     subject,
		nodeID:      uuid.NewString(),
		logger:      logger.With().Str("component", "result_feed_service").Logger(),
		subscribers: make(map[uint]map[chan dto.ResultResponse]struct{}),
	}
}

func (s *resultFeedService) Start(ctx context.Context) {
	if s.nats == nil || s.subject == "" {
		return
	}

	sub, err := s.nats.Subscribe(s.subject, func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to result feed subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain result feed subscription")
		}
	}()
}

func (s *resultFeedService) BroadcastResult(exerciseID uint, result dto.ResultResponse) {
	s.deliver(exerciseID, result)

	if s.nats == nil || s.subject == "" {
		return
	}

	event := feedEvent{
		Source:     s.nodeID,
		ExerciseID: exerciseID,
		Result:     result,
		SentAt:     time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal feed event")
		return
	}
	if err := s.nats.Publish(s.subject, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish feed event")
	}
}

func (s *resultFeedService) handleEvent(payload []byte) {
	var event feedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid feed event payload")
		return
	}
	if event.Source == s.nodeID {
		return
	}
	s.deliver(event.ExerciseID, event.Result)
}

func (s *resultFeedService) deliver(exerciseID uint, result dto.ResultResponse) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for channel := range s.subscribers[exerciseID] {
		select {
		case channel <- result:
		default:
			// Slow consumers drop updates rather than block the pipeline.
		}
	}
}

func (s *resultFeedService) subscribe(exerciseID uint) (chan dto.ResultResponse, func()) {
	channel := make(chan dto.ResultResponse, feedBufferSize)

	s.mu.Lock()
	if s.subscribers[exerciseID] == nil {
		s.subscribers[exerciseID] = make(map[chan dto.ResultResponse]struct{})
	}
	s.subscribers[exerciseID][channel] = struct{}{}
	s.mu.Unlock()

	return channel, func() {
		s.mu.Lock()
		delete(s.subscribers[exerciseID], channel)
		if len(s.subscribers[exerciseID]) == 0 {
			delete(s.subscribers, exerciseID)
		}
		s.mu.Unlock()
	}
}

// ServeConnection pumps feed updates to one websocket until the peer goes away.
func (s *resultFeedService) ServeConnection(conn *websocket.Conn, exerciseID uint) {
	channel, cancel := s.subscribe(exerciseID)
	defer cancel()
	defer func() { _ = conn.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case result := <-channel:
			if err := conn.WriteJSON(result); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				return
			}
		}
	}
}
