package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed CircuitState = "closed"
	CircuitStateOpen   CircuitState = "open"
)

// Snapshot is a point-in-time view of a breaker.
type Snapshot struct {
	State  CircuitState `json:"state"`
	Reason string       `json:"reason,omitempty"`
	Until  *time.Time   `json:"until,omitempty"`
}

// CircuitBreaker short-circuits calls until a cooldown deadline passes.
// Only the latest trip is remembered: a new trip overwrites reason and deadline.
type CircuitBreaker struct {
	mu sync.RWMutex

	until  time.Time
	reason string
	trips  uint64
	now    func() time.Time
}

func NewCircuitBreaker(now func() time.Time) *CircuitBreaker {
	if now == nil {
		now = time.Now
	}
	return &CircuitBreaker{now: now}
}

// Allow reports ErrCircuitOpen while the cooldown deadline is in the future.
func (b *CircuitBreaker) Allow() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.isOpen(b.now()) {
		return ErrCircuitOpen
	}
	return nil
}

// Permit is Allow plus the trip generation observed when the call started.
// Pass the generation to RecordSuccess once the call returns.
func (b *CircuitBreaker) Permit() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.isOpen(b.now()) {
		return b.trips, ErrCircuitOpen
	}
	return b.trips, nil
}

// Trip opens the breaker for cooldown from now.
func (b *CircuitBreaker) Trip(reason string, cooldown time.Duration) {
	if cooldown <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.until = b.now().Add(cooldown)
	b.reason = reason
	b.trips++
}

// RecordSuccess closes the breaker early, unless it was tripped after the
// successful call obtained its permit.
func (b *CircuitBreaker) RecordSuccess(generation uint64) {
	b.mu.RLock()
	idle := b.until.IsZero()
	b.mu.RUnlock()
	if idle {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.trips != generation {
		return
	}
	b.until = time.Time{}
	b.reason = ""
}

func (b *CircuitBreaker) State() CircuitState {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.isOpen(b.now()) {
		return CircuitStateOpen
	}
	return CircuitStateClosed
}

func (b *CircuitBreaker) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.isOpen(b.now()) {
		return Snapshot{State: CircuitStateClosed}
	}
	until := b.until
	return Snapshot{
		State:  CircuitStateOpen,
		Reason: b.reason,
		Until:  &until,
	}
}

func (b *CircuitBreaker) isOpen(now time.Time) bool {
	return !b.until.IsZero() && now.Before(b.until)
}
