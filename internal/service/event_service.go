package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/speaker-match-api/pkg/events"
	"github.com/noah-isme/speaker-match-api/pkg/jobs"
)

// EventServiceConfig controls the publish worker pool.
type EventServiceConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// EventService publishes domain events off the request path through a retrying job queue.
type EventService struct {
	publisher events.Publisher
	queue     *jobs.Queue
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewEventService constructs an EventService. Call Start before emitting.
func NewEventService(publisher events.Publisher, metrics *MetricsService, cfg EventServiceConfig, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	s := &EventService{publisher: publisher, metrics: metrics, logger: logger}
	s.queue = jobs.NewQueue("domain-events", s.publish, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the publish workers.
func (s *EventService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains queued events and stops the workers.
func (s *EventService) Stop() {
	s.queue.Stop()
}

// Emit queues an event. A full or stopped queue drops the event with a warning.
func (s *EventService) Emit(event events.Event) {
	if s == nil {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{ID: event.ID, Type: event.Type, Payload: event}); err != nil {
		s.logger.Warn("failed to queue domain event", zap.String("type", event.Type), zap.String("event_id", event.ID), zap.Error(err))
		s.metrics.RecordEventPublish(event.Type, err)
	}
}

func (s *EventService) publish(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(events.Event)
	if !ok {
		return fmt.Errorf("unexpected job payload %T", job.Payload)
	}
	err := s.publisher.Publish(ctx, event)
	s.metrics.RecordEventPublish(event.Type, err)
	return err
}
