// Package events provides the job change bus used for the audit trail
package events

import (
	"context"
	"sync"
	"time"

	"github.com/prefect-field/jobtrack/internal/logger"
)

// EventType represents the type of job event
type EventType string

const (
	// EventJobCreated is emitted when an admin creates a job
	EventJobCreated EventType = "job_created"
	// EventJobUpdated is emitted when an admin edits a job or a worker submits a completion
	EventJobUpdated EventType = "job_updated"
	// EventJobTransitioned is emitted when a job changes status through advance, approve or reject
	EventJobTransitioned EventType = "job_transitioned"
	// EventJobDeleted is emitted when an admin deletes a job
	EventJobDeleted EventType = "job_deleted"
	// EventChannelSize is the buffer size for the event channel
	EventChannelSize = 100
)

// Event represents a change to a job
type Event struct {
	Type       EventType // The type of event
	JobID      uint      // The job ID
	WorkOrder  string    // The job work order
	ActorID    string    // The user that caused the change
	ActorRole  string    // The role of that user
	Action     string    // advance, approve, reject or complete, when relevant
	FromStatus string
	ToStatus   string
	At         time.Time
}

// Handler is a function that handles an event
type Handler func(context.Context, Event) error

// Bus fans published events out to the handlers subscribed to their type
type Bus struct {
	handlers   map[EventType][]Handler
	handlersMu sync.RWMutex
	eventChan  chan Event
	wg         sync.WaitGroup
	stopped    chan struct{}
}

// NewBus creates a bus with a buffered event channel
func NewBus() *Bus {
	return &Bus{
		handlers:  make(map[EventType][]Handler),
		eventChan: make(chan Event, EventChannelSize),
		stopped:   make(chan struct{}),
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	logger.Debugf("Registered handler for event type: %s", eventType)
}

// Publish queues an event. A full queue drops the event rather than stall the request that produced it.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	select {
	case b.eventChan <- event:
		logger.Debugf("Published event: %s (Job: %d)", event.Type, event.JobID)
	default:
		logger.Warnf("Event queue full, dropping %s for job %d", event.Type, event.JobID)
	}
}

// Start runs the event processing loop until ctx is cancelled. Events still queued at
// that point are delivered before the loop exits. Start must be called at most once.
func (b *Bus) Start(ctx context.Context) {
	go b.processEvents(ctx)
	logger.Info("Started event processing loop")
}

// Wait blocks until the loop has stopped and every handler has returned.
// It only returns after the context passed to Start is cancelled.
func (b *Bus) Wait() {
	<-b.stopped
	b.wg.Wait()
}

// processEvents handles events in the background
func (b *Bus) processEvents(ctx context.Context) {
	defer close(b.stopped)
	// handlers run to completion even when they are dispatched during shutdown
	handlerCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			b.drain(handlerCtx)
			logger.Info("Stopping event processing loop")
			return
		case event := <-b.eventChan:
			b.dispatch(handlerCtx, event)
		}
	}
}

// drain delivers what is already queued without waiting for more
func (b *Bus) drain(ctx context.Context) {
	for {
		select {
		case event := <-b.eventChan:
			b.dispatch(ctx, event)
		default:
			return
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, event Event) {
	b.handlersMu.RLock()
	eventHandlers := b.handlers[event.Type]
	b.handlersMu.RUnlock()

	for _, handler := range eventHandlers {
		b.wg.Add(1)
		go func(h Handler, e Event) {
			defer b.wg.Done()
			if err := h(ctx, e); err != nil {
				logger.Errorf("Failed to handle event %s: %v", e.Type, err)
			}
		}(handler, event)
	}
}

// AuditLogger returns a handler that records every event in the structured log
func AuditLogger() Handler {
	return func(_ context.Context, e Event) error {
		logger.InfoWithFields("job audit", map[string]interface{}{
			"event":       string(e.Type),
			"job_id":      e.JobID,
			"work_order":  e.WorkOrder,
			"actor_id":    e.ActorID,
			"actor_role":  e.ActorRole,
			"action":      e.Action,
			"from_status": e.FromStatus,
			"to_status":   e.ToStatus,
			"at":          e.At.Format(time.RFC3339),
		})
		return nil
	}
}

// SubscribeAll registers handler for every job event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, t := range []EventType{EventJobCreated, EventJobUpdated, EventJobTransitioned, EventJobDeleted} {
		b.Subscribe(t, handler)
	}
}
