// Package audit persists surge-area change events asynchronously so
// lifecycle operations never wait on the audit trail.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mealdash/surge-areas/internal/events"
	"github.com/mealdash/surge-areas/internal/repository"
)

// Recorder drains a buffered queue of zone events into the audit store
// with a fixed number of workers. Write failures are logged and dropped;
// the audit trail is best-effort and never retried.
type Recorder struct {
	store      repository.AuditStore
	numWorkers int
	queue      chan events.ZoneEvent
	workers    sync.WaitGroup
	forwarders sync.WaitGroup
}

func NewRecorder(store repository.AuditStore, numWorkers, bufferSize int) *Recorder {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Recorder{
		store:      store,
		numWorkers: numWorkers,
		queue:      make(chan events.ZoneEvent, bufferSize),
	}
}

func (r *Recorder) Start(ctx context.Context) {
	for i := 1; i <= r.numWorkers; i++ {
		r.workers.Add(1)
		go r.worker(ctx)
	}
}

func (r *Recorder) worker(ctx context.Context) {
	defer r.workers.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-r.queue:
			if !ok {
				return
			}
			if err := r.record(ctx, ev); err != nil {
				slog.Error("failed to record audit event", "kind", ev.Kind, "area_id", ev.AreaID, "error", err)
			}
		}
	}
}

func (r *Recorder) record(ctx context.Context, ev events.ZoneEvent) error {
	entry := &repository.AuditEvent{
		Kind:      string(ev.Kind),
		AreaID:    ev.AreaID,
		AreaName:  ev.AreaName,
		CreatedAt: ev.At,
	}
	if ev.Kind == events.EventToggled {
		entry.Detail = fmt.Sprintf("isActive=%t", ev.IsActive)
	}
	return r.store.AddAuditEvent(ctx, entry)
}

// Submit enqueues an event without blocking; under backpressure the event
// is dropped and counted against the log rather than stalling the caller.
func (r *Recorder) Submit(ev events.ZoneEvent) {
	select {
	case r.queue <- ev:
	default:
		slog.Warn("audit queue full, dropping event", "kind", ev.Kind, "area_id", ev.AreaID)
	}
}

// Run subscribes the recorder to a broadcaster and forwards events until
// the broadcaster closes or the context ends.
func (r *Recorder) Run(ctx context.Context, b *events.Broadcaster) {
	id, ch := b.Subscribe()
	r.forwarders.Add(1)
	go func() {
		defer r.forwarders.Done()
		defer b.Unsubscribe(id)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				r.Submit(ev)
			}
		}
	}()
}

// Stop waits for forwarders to finish (the broadcaster must be closed or
// the context cancelled first), then closes the queue and drains the
// workers.
func (r *Recorder) Stop() {
	r.forwarders.Wait()
	close(r.queue)
	r.workers.Wait()
}
