package server

import (
	"sync"
	"time"
)

// Limiter enforces a fixed one minute window allowance per client. Expired
// windows are pruned opportunistically during Allow, so the limiter needs
// no background sweeper.
type Limiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	clients   map[string]*clientWindow
	lastPrune time.Time
	now       func() time.Time
}

type clientWindow struct {
	count   int
	resetAt time.Time
}

// NewLimiter creates a limiter allowing limit requests per client per
// minute. A non positive limit allows everything.
func NewLimiter(limit int) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  time.Minute,
		clients: make(map[string]*clientWindow),
		now:     time.Now,
	}
}

// Allow reports whether one more request from client fits its current
// window.
func (l *Limiter) Allow(client string) bool {
	if l.limit <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.pruneLocked(now)
	current, ok := l.clients[client]
	if !ok || now.After(current.resetAt) {
		l.clients[client] = &clientWindow{count: 1, resetAt: now.Add(l.window)}
		return true
	}
	if current.count >= l.limit {
		return false
	}
	current.count++
	return true
}

// pruneLocked drops expired windows, at most once per window length.
func (l *Limiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < l.window {
		return
	}
	for client, window := range l.clients {
		if now.After(window.resetAt) {
			delete(l.clients, client)
		}
	}
	l.lastPrune = now
}
