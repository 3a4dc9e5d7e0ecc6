package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/speaker-match-api/pkg/events"
)

type recordingPublisher struct {
	mu       sync.Mutex
	events   []events.Event
	failures int
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Event, len(p.events))
	copy(out, p.events)
	return out
}

func TestEventServicePublishesQueuedEvents(t *testing.T) {
	pub := &recordingPublisher{}
	metrics := NewMetricsService()
	svc := NewEventService(pub, metrics, EventServiceConfig{Workers: 1}, nil)
	svc.Start(context.Background())

	svc.Emit(events.New(events.TypeRequestCreated, map[string]string{"request_id": "r1"}))
	svc.Stop()

	got := pub.published()
	require.Len(t, got, 1)
	assert.Equal(t, events.TypeRequestCreated, got[0].Type)
	assert.Equal(t, uint64(1), metrics.Snapshot().EventsPublished)
}

func TestEventServiceRetriesFailedPublish(t *testing.T) {
	pub := &recordingPublisher{failures: 1}
	svc := NewEventService(pub, nil, EventServiceConfig{MaxRetries: 2, RetryDelay: 5 * time.Millisecond}, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.Emit(events.New(events.TypeRequestStatusChanged, nil))

	assert.Eventually(t, func() bool { return len(pub.published()) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestEventServiceEmitBeforeStartDrops(t *testing.T) {
	pub := &recordingPublisher{}
	metrics := NewMetricsService()
	svc := NewEventService(pub, metrics, EventServiceConfig{}, nil)

	svc.Emit(events.New(events.TypeRequestCreated, nil))
	assert.Empty(t, pub.published())
	assert.Equal(t, uint64(1), metrics.Snapshot().EventsFailed)

	var nilSvc *EventService
	nilSvc.Emit(events.New(events.TypeRequestCreated, nil))
}
