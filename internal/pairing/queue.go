package pairing

import (
	"sync"
	"time"
)

// Queue is the FIFO waiting line plus per-user pairing cooldowns. A user on
// cooldown keeps their place in line and still counts for position reporting;
// the matcher just skips them. Expired cooldowns are dropped on access.
type Queue struct {
	mu        sync.Mutex
	waiting   []string
	cooldowns map[string]time.Time
	cooldown  time.Duration
}

// NewQueue creates an empty queue whose cooldowns last the given duration.
func NewQueue(cooldown time.Duration) *Queue {
	return &Queue{
		cooldowns: make(map[string]time.Time),
		cooldown:  cooldown,
	}
}

// Add appends a user to the queue if not already present and returns their
// 1-indexed position.
func (q *Queue) Add(userID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, id := range q.waiting {
		if id == userID {
			return i + 1
		}
	}
	q.waiting = append(q.waiting, userID)
	return len(q.waiting)
}

// Remove takes a user out of the queue. No-op if absent.
func (q *Queue) Remove(userID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.remove(userID)
}

func (q *Queue) remove(userID string) {
	for i, id := range q.waiting {
		if id == userID {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			return
		}
	}
}

// Position returns a user's 1-indexed place in line, or 0 if not queued.
func (q *Queue) Position(userID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, id := range q.waiting {
		if id == userID {
			return i + 1
		}
	}
	return 0
}

// Size returns the number of queued users, cooldowns included.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}

// TakePartner dequeues a pairing partner for userID. On success both users
// have left the queue. Skipped-over cooldown users keep their order. When no
// eligible partner exists the requester moves to the back of the line; a
// requester who is themselves on cooldown is left untouched.
func (q *Queue) TakePartner(userID string) (partnerID string, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.onCooldown(userID) {
		return "", false
	}
	if len(q.waiting) < 2 {
		return "", false
	}

	q.remove(userID)

	for i, candidate := range q.waiting {
		if q.onCooldown(candidate) {
			continue
		}
		q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
		return candidate, true
	}

	q.waiting = append(q.waiting, userID)
	return "", false
}

// OddUser returns the lone eligible waiter when exactly one queued user is
// off cooldown.
func (q *Queue) OddUser() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var odd string
	eligible := 0
	for _, id := range q.waiting {
		if q.onCooldown(id) {
			continue
		}
		odd = id
		eligible++
	}
	if eligible != 1 {
		return "", false
	}
	return odd, true
}

// SetCooldown starts (or restarts) a user's pairing cooldown.
func (q *Queue) SetCooldown(userID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cooldowns[userID] = time.Now().Add(q.cooldown)
}

// ClearCooldown drops a user's cooldown, expired or not.
func (q *Queue) ClearCooldown(userID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.cooldowns, userID)
}

// OnCooldown reports whether a user is currently on cooldown.
func (q *Queue) OnCooldown(userID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.onCooldown(userID)
}

// Remaining returns how much of a user's cooldown is left, zero when none.
func (q *Queue) Remaining(userID string) time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()

	until, exists := q.cooldowns[userID]
	if !exists {
		return 0
	}
	left := time.Until(until)
	if left <= 0 {
		delete(q.cooldowns, userID)
		return 0
	}
	return left
}

// onCooldown checks and garbage-collects a user's cooldown. Callers hold mu.
func (q *Queue) onCooldown(userID string) bool {
	until, exists := q.cooldowns[userID]
	if !exists {
		return false
	}
	if !time.Now().Before(until) {
		delete(q.cooldowns, userID)
		return false
	}
	return true
}
