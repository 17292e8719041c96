package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fcs-go-api/internal/dto"
	"github.com/noah-isme/fcs-go-api/internal/repository"
)

const rosterBufferSize = 4

// RosterService exposes the active subject list both as one-shot reads and
// as a live subscription. Subject selection and the admin surface share one
// service instance but each holds its own subscription handle, released
// independently via the returned cancel function.
type RosterService interface {
	List(ctx context.Context) ([]dto.StudentResponse, error)
	Subscribe(ctx context.Context) (<-chan []dto.StudentResponse, func(), error)
	NotifyChanged(ctx context.Context)
	Start(ctx context.Context)
}

type rosterEvent struct {
	Source string    `json:"source"`
	SentAt time.Time `json:"sent_at"`
}

type rosterBroker struct {
	mu          sync.RWMutex
	subscribers map[chan []dto.StudentResponse]struct{}
}

type rosterService struct {
	repo         repository.StudentRepository
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	broker       *rosterBroker
	nodeID       string
	logger       zerolog.Logger
}

// NewRosterService constructs the roster service. Both the redis client and
// the NATS connection are optional; with neither, change events fan out to
// local subscribers only.
func NewRosterService(repo repository.StudentRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) RosterService {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":roster"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".roster"
	}

	return &rosterService{
		repo:         repo,
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		broker: &rosterBroker{
			subscribers: make(map[chan []dto.StudentResponse]struct{}),
		},
		nodeID: uuid.NewString(),
		logger: logger.With().Str("component", "roster_service").Logger(),
	}
}

// List returns the current active-subject snapshot. Soft-deleted subjects
// never appear.
func (s *rosterService) List(ctx context.Context) ([]dto.StudentResponse, error) {
	students, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewStudentResponses(students), nil
}

// Subscribe registers a roster watcher. The current snapshot is delivered
// first; each later change event replaces the cached list verbatim. The
// cancel function releases the subscription and may be called exactly once.
func (s *rosterService) Subscribe(ctx context.Context) (<-chan []dto.StudentResponse, func(), error) {
	snapshot, err := s.List(ctx)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan []dto.StudentResponse, rosterBufferSize)
	ch <- snapshot

	s.broker.mu.Lock()
	s.broker.subscribers[ch] = struct{}{}
	s.broker.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.broker.mu.Lock()
			delete(s.broker.subscribers, ch)
			s.broker.mu.Unlock()
			close(ch)
		})
	}

	return ch, cancel, nil
}

// NotifyChanged publishes a roster change event. With redis attached the
// event loops back through the channel so every node (this one included)
// rebroadcasts; without it the local subscribers are served directly.
func (s *rosterService) NotifyChanged(ctx context.Context) {
	event := rosterEvent{Source: s.nodeID, SentAt: time.Now().UTC()}

	if s.nats != nil && s.natsSubject != "" {
		if payload, err := json.Marshal(event); err == nil {
			if err := s.nats.Publish(s.natsSubject, payload); err != nil {
				s.logger.Warn().Err(err).Msg("failed to publish roster event to nats")
			}
		}
	}

	if s.redis != nil && s.redisChannel != "" {
		payload, err := json.Marshal(event)
		if err == nil {
			if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err == nil {
				return
			} else {
				s.logger.Warn().Err(err).Msg("failed to publish roster event to redis")
			}
		}
	}

	s.rebroadcast(ctx)
}

// Start consumes change events from redis and NATS and fans fresh snapshots
// out to local subscribers. It returns when ctx is cancelled.
func (s *rosterService) Start(ctx context.Context) {
	if s.nats != nil && s.natsSubject != "" {
		sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
			var event rosterEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				return
			}
			if event.Source == s.nodeID {
				// Already served through the redis loopback.
				return
			}
			s.rebroadcast(ctx)
		})
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to subscribe to nats roster subject")
		} else {
			go func() {
				<-ctx.Done()
				_ = sub.Unsubscribe()
			}()
		}
	}

	if s.redis == nil || s.redisChannel == "" {
		return
	}

	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				var event rosterEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					s.logger.Warn().Err(err).Msg("discarding malformed roster event")
					continue
				}
				s.rebroadcast(ctx)
			}
		}
	}()
}

func (s *rosterService) rebroadcast(ctx context.Context) {
	snapshot, err := s.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to refresh roster snapshot")
		return
	}

	s.broker.mu.RLock()
	defer s.broker.mu.RUnlock()

	for ch := range s.broker.subscribers {
		select {
		case ch <- snapshot:
		default:
			// Last snapshot wins; slow subscribers skip intermediates.
		}
	}
}
