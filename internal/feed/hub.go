// Package feed pushes fresh owner snapshots to live subscribers.
package feed

import (
	"context"
	"log/slog"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/metrics"
)

// Loader loads the full current snapshot of an owner.
type Loader interface {
	Snapshot(ctx context.Context, ownerID string) (core.Snapshot, error)
}

type subscriber struct {
	ch chan core.Snapshot
}

// Hub fans snapshots out per owner. Every subscriber channel holds at most
// one pending snapshot; a newer one replaces an undelivered older one, so a
// slow reader only ever sees the latest state.
type Hub struct {
	loader Loader

	mu        sync.Mutex
	subs      map[string]map[*subscriber]struct{}
	started   map[string]uint64
	delivered map[string]uint64
}

func NewHub(loader Loader) *Hub {
	return &Hub{
		loader:    loader,
		subs:      make(map[string]map[*subscriber]struct{}),
		started:   make(map[string]uint64),
		delivered: make(map[string]uint64),
	}
}

// Subscribe registers for snapshots of owner. The returned cancel func
// unregisters and closes the channel; calling it more than once is safe.
func (h *Hub) Subscribe(ownerID string) (<-chan core.Snapshot, func()) {
	sub := &subscriber{ch: make(chan core.Snapshot, 1)}

	h.mu.Lock()
	if h.subs[ownerID] == nil {
		h.subs[ownerID] = make(map[*subscriber]struct{})
	}
	h.subs[ownerID][sub] = struct{}{}
	h.mu.Unlock()
	metrics.FeedSubscribers.Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[ownerID], sub)
			if len(h.subs[ownerID]) == 0 {
				delete(h.subs, ownerID)
			}
			close(sub.ch)
			h.mu.Unlock()
			metrics.FeedSubscribers.Dec()
		})
	}
	return sub.ch, cancel
}

// Subscribers returns the number of open subscriptions for owner.
func (h *Hub) Subscribers(ownerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[ownerID])
}

// Notify loads a fresh snapshot of owner and hands it to every subscriber.
// When loads overlap, a snapshot whose load started earlier than one already
// delivered is dropped.
func (h *Hub) Notify(ctx context.Context, ownerID string) {
	h.mu.Lock()
	if len(h.subs[ownerID]) == 0 {
		h.mu.Unlock()
		return
	}
	h.started[ownerID]++
	seq := h.started[ownerID]
	h.mu.Unlock()

	snap, err := h.loader.Snapshot(ctx, ownerID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load snapshot for subscribers", "owner_id", ownerID, "error", err)
		return
	}
	h.Publish(ownerID, snap, seq)
}

// Publish delivers snap to the owner's subscribers unless a snapshot with a
// higher sequence was already delivered. A zero seq always delivers.
func (h *Hub) Publish(ownerID string, snap core.Snapshot, seq uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if seq != 0 {
		if seq <= h.delivered[ownerID] {
			return
		}
		h.delivered[ownerID] = seq
	}
	if len(h.subs[ownerID]) == 0 {
		delete(h.started, ownerID)
		delete(h.delivered, ownerID)
		return
	}

	for sub := range h.subs[ownerID] {
		outcome := "delivered"
		select {
		case <-sub.ch:
			outcome = "replaced"
		default:
		}
		select {
		case sub.ch <- snap:
		default:
		}
		metrics.FeedDeliveries.WithLabelValues(outcome).Inc()
	}
	slog.Debug("Snapshot delivered", "owner_id", ownerID, "subscribers", len(h.subs[ownerID]))
}
