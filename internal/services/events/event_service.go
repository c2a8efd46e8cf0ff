package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/greattrades/internal/interfaces"
)

// ErrClosed is returned when publishing or subscribing after Close
var ErrClosed = errors.New("event service closed")

// Service implements EventService with an in-process pub/sub bus
type Service struct {
	subscribers map[interfaces.EventType][]interfaces.EventHandler
	closed      bool
	mu          sync.RWMutex
	logger      arbor.ILogger
}

// NewService creates a new event service
func NewService(logger arbor.ILogger) interfaces.EventService {
	return &Service{
		subscribers: make(map[interfaces.EventType][]interfaces.EventHandler),
		logger:      logger,
	}
}

// Subscribe registers a handler for an event type
func (s *Service) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.subscribers[eventType] = append(s.subscribers[eventType], handler)

	s.logger.Debug().
		Str("event_type", string(eventType)).
		Int("subscriber_count", len(s.subscribers[eventType])).
		Msg("Event handler subscribed")

	return nil
}

func (s *Service) handlersFor(eventType interfaces.EventType) ([]interfaces.EventHandler, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	return append([]interfaces.EventHandler(nil), s.subscribers[eventType]...), nil
}

// Publish sends an event to all subscribers without waiting for them
func (s *Service) Publish(ctx context.Context, event interfaces.Event) error {
	handlers, err := s.handlersFor(event.Type)
	if err != nil {
		return err
	}

	for _, handler := range handlers {
		go s.invoke(ctx, handler, event)
	}
	return nil
}

// PublishSync sends an event to all subscribers and waits for them to finish
func (s *Service) PublishSync(ctx context.Context, event interfaces.Event) error {
	handlers, err := s.handlersFor(event.Type)
	if err != nil {
		return err
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, handler := range handlers {
		wg.Add(1)
		go func(h interfaces.EventHandler) {
			defer wg.Done()
			if err := s.invoke(ctx, h, event); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(handler)
	}
	wg.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("%d event handler(s) failed for %s: %w", len(errs), event.Type, errors.Join(errs...))
	}
	return nil
}

// invoke runs a handler, turning a panic into an error
func (s *Service) invoke(ctx context.Context, handler interfaces.EventHandler, event interfaces.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event handler panicked: %v", r)
		}
		if err != nil {
			s.logger.Error().
				Err(err).
				Str("event_type", string(event.Type)).
				Msg("Event handler failed")
		}
	}()
	return handler(ctx, event)
}

// Close drops all subscribers; later calls fail with ErrClosed
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscribers = make(map[interfaces.EventType][]interfaces.EventHandler)
	s.closed = true
	s.logger.Debug().Msg("Event service closed")

	return nil
}
