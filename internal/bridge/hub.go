package bridge

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"shellhost/internal/window"
)

// EventNeedRestart is the only push event of the protocol.
const EventNeedRestart = "need-restart"

const subscriptionBuffer = 4

// Subscription receives push events addressed to one surface.
type Subscription struct {
	hub      *Hub
	surface  window.Handle
	events   chan string
	canceled atomic.Bool
}

// Surface returns the handle the subscription is bound to.
func (s *Subscription) Surface() window.Handle {
	return s.surface
}

// Events delivers pushed events. The channel is closed by Cancel or when the
// hub shuts down.
func (s *Subscription) Events() <-chan string {
	return s.events
}

// Cancel stops delivery and closes Events.
func (s *Subscription) Cancel() {
	if s.canceled.CompareAndSwap(false, true) {
		s.hub.remove(s)
	}
}

// Hub fans push events out to surface subscriptions. An event for a surface
// with no subscriber is held and delivered when one subscribes.
type Hub struct {
	logger *zap.Logger

	mu      sync.Mutex
	subs    map[window.Handle][]*Subscription
	pending map[window.Handle]string
	closed  bool
}

// NewHub returns an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:  logger,
		subs:    make(map[window.Handle][]*Subscription),
		pending: make(map[window.Handle]string),
	}
}

// Subscribe registers a listener for surface. A held event is delivered
// immediately.
func (h *Hub) Subscribe(surface window.Handle) *Subscription {
	sub := &Subscription{hub: h, surface: surface, events: make(chan string, subscriptionBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.canceled.Store(true)
		close(sub.events)
		return sub
	}
	h.subs[surface] = append(h.subs[surface], sub)
	if ev, ok := h.pending[surface]; ok {
		delete(h.pending, surface)
		sub.events <- ev
	}
	h.logger.Debug("Surface subscribed", zap.Uint64("surface", uint64(surface)))
	return sub
}

// Notify enqueues event for every subscriber of surface. It returns once the
// event is queued; delivery to the surface happens asynchronously.
func (h *Hub) Notify(surface window.Handle, event string) {
	if surface == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	subs := h.subs[surface]
	if len(subs) == 0 {
		h.pending[surface] = event
		h.logger.Debug("Holding event for surface without subscriber",
			zap.Uint64("surface", uint64(surface)), zap.String("event", event))
		return
	}
	for _, sub := range subs {
		select {
		case sub.events <- event:
		default:
			// A full buffer already holds undelivered notices.
			h.logger.Debug("Subscriber buffer full, event coalesced",
				zap.Uint64("surface", uint64(surface)), zap.String("event", event))
		}
	}
}

// Broadcast notifies every listed surface.
func (h *Hub) Broadcast(surfaces []window.Handle, event string) {
	for _, s := range surfaces {
		h.Notify(s, event)
	}
}

// Forget drops a held event for a surface that no longer exists.
func (h *Hub) Forget(surface window.Handle) {
	h.mu.Lock()
	delete(h.pending, surface)
	h.mu.Unlock()
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, subs := range h.subs {
		for _, sub := range subs {
			sub.canceled.Store(true)
			close(sub.events)
		}
	}
	h.subs = nil
	h.pending = nil
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	subs := h.subs[sub.surface]
	for i, s := range subs {
		if s == sub {
			h.subs[sub.surface] = append(subs[:i], subs[i+1:]...)
			close(sub.events)
			break
		}
	}
	if len(h.subs[sub.surface]) == 0 {
		delete(h.subs, sub.surface)
	}
}
