package pubsub

import (
	"sync"

	sonic "github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/riskibarqy/live-scores/internal/platform/logging"
)

const DefaultSubscriberBuffer = 32

// Frame is one named, already-serialized event.
type Frame struct {
	Event string
	Data  []byte
}

// Subscription receives frames for a single topic until it is closed or pruned.
type Subscription struct {
	ID    string
	Topic string

	hub       *Hub
	frames    chan Frame
	done      chan struct{}
	closeOnce sync.Once
}

// Frames never closes; select on Done to observe removal.
func (s *Subscription) Frames() <-chan Frame {
	return s.frames
}

// Done is closed once the subscription has been removed from the hub.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s.Topic, s)
}

func (s *Subscription) markDone() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Subscription) trySend(frame Frame) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.frames <- frame:
		return true
	default:
		return false
	}
}

// Hub is a topic-keyed broadcast registry. Topic slices are replaced, never mutated,
// so a publish works on a stable snapshot while others subscribe or leave.
type Hub struct {
	mu     sync.RWMutex
	topics map[string][]*Subscription
	buffer int
	logger *logging.Logger
}

func NewHub(buffer int, logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &Hub{
		topics: make(map[string][]*Subscription),
		buffer: buffer,
		logger: logger,
	}
}

func (h *Hub) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		ID:     uuid.NewString(),
		Topic:  topic,
		hub:    h,
		frames: make(chan Frame, h.buffer),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	current := h.topics[topic]
	next := make([]*Subscription, 0, len(current)+1)
	next = append(next, current...)
	h.topics[topic] = append(next, sub)
	h.mu.Unlock()

	h.logger.Debug("hub subscriber added", "topic", topic, "subscription_id", sub.ID)
	return sub
}

// Publish serializes payload once and offers it to every subscriber of topic.
// Subscribers whose buffer is full are pruned after the broadcast.
func (h *Hub) Publish(topic, event string, payload any) {
	h.mu.RLock()
	subs := h.topics[topic]
	h.mu.RUnlock()
	if len(subs) == 0 {
		return
	}

	data, err := sonic.Marshal(payload)
	if err != nil {
		h.logger.Warn("hub payload marshal failed", "topic", topic, "event", event, "error", err)
		return
	}

	frame := Frame{Event: event, Data: data}
	var dead []*Subscription
	for _, sub := range subs {
		if !sub.trySend(frame) {
			dead = append(dead, sub)
		}
	}
	if len(dead) == 0 {
		return
	}

	h.remove(topic, dead...)
	h.logger.Debug("hub pruned slow subscribers", "topic", topic, "pruned", len(dead))
}

func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close drops every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	topics := h.topics
	h.topics = make(map[string][]*Subscription)
	h.mu.Unlock()

	for _, subs := range topics {
		for _, sub := range subs {
			sub.markDone()
		}
	}
}

func (h *Hub) remove(topic string, targets ...*Subscription) {
	drop := make(map[*Subscription]struct{}, len(targets))
	for _, sub := range targets {
		drop[sub] = struct{}{}
	}

	h.mu.Lock()
	current := h.topics[topic]
	next := make([]*Subscription, 0, len(current))
	for _, sub := range current {
		if _, ok := drop[sub]; !ok {
			next = append(next, sub)
		}
	}
	if len(next) == 0 {
		delete(h.topics, topic)
	} else {
		h.topics[topic] = next
	}
	h.mu.Unlock()

	for _, sub := range targets {
		sub.markDone()
	}
}
