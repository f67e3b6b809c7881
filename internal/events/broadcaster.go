// Package events fans out surge-area change notifications to in-process
// subscribers: the SSE stream endpoint and the audit recorder.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/mealdash/surge-areas/internal/models"
)

type EventKind string

const (
	EventCreated EventKind = "created"
	EventToggled EventKind = "toggled"
	EventDeleted EventKind = "deleted"
)

// ZoneEvent describes one confirmed lifecycle mutation. Area is nil for
// deletions; IsActive is meaningful only for toggles.
type ZoneEvent struct {
	Kind     EventKind          `json:"kind"`
	AreaID   string             `json:"areaId"`
	AreaName string             `json:"areaName,omitempty"`
	IsActive bool               `json:"isActive,omitempty"`
	Area     *models.SurgeArea  `json:"area,omitempty"`
	At       time.Time          `json:"at"`
}

type Broadcaster struct {
	subscribers map[uint64]chan ZoneEvent
	nextID      atomic.Uint64
	mu          sync.RWMutex
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan ZoneEvent),
	}
}

func (b *Broadcaster) Subscribe() (uint64, chan ZoneEvent) {
	id := b.nextID.Add(1)
	ch := make(chan ZoneEvent, 64)

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) Broadcast(ev ZoneEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			// Skip slow subscribers
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, causing consumers to exit
// gracefully.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
