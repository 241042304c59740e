package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Limiter implements a simple in-memory sliding window rate limiter
type Limiter struct {
	mu       sync.RWMutex
	counters map[string]*counter
	window   time.Duration
	max      int
}

type counter struct {
	count     int
	expiresAt time.Time
}

// NewLimiter creates a new rate limiter with the specified window and max requests
func NewLimiter(window time.Duration, max int) *Limiter {
	l := &Limiter{
		counters: make(map[string]*counter),
		window:   window,
		max:      max,
	}
	go l.cleanup()
	return l
}

// Allow checks if a request for the given key is allowed
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	c, exists := l.counters[key]

	if !exists || now.After(c.expiresAt) {
		l.counters[key] = &counter{
			count:     1,
			expiresAt: now.Add(l.window),
		}
		return true
	}

	if c.count >= l.max {
		return false
	}

	c.count++
	return true
}

// GetRemaining returns the number of remaining requests for the given key
func (l *Limiter) GetRemaining(key string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	now := time.Now()
	c, exists := l.counters[key]

	if !exists || now.After(c.expiresAt) {
		return l.max
	}

	remaining := l.max - c.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// cleanup periodically removes expired counters
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, c := range l.counters {
			if now.After(c.expiresAt) {
				delete(l.counters, key)
			}
		}
		l.mu.Unlock()
	}
}

// AuthLimiter bundles the per-IP limiters applied to the credential and
// import endpoints. Login attempts are the tightest bucket.
type AuthLimiter struct {
	limiters map[string]*Limiter
	mu       sync.RWMutex
}

// NewAuthLimiter creates an auth limiter with default limits.
func NewAuthLimiter() *AuthLimiter {
	return &AuthLimiter{
		limiters: map[string]*Limiter{
			"ip_login":    NewLimiter(time.Minute, 5),  // 5 login attempts per IP per minute
			"ip_register": NewLimiter(time.Hour, 20),   // 20 registrations per IP per hour
			"ip_import":   NewLimiter(time.Minute, 10), // 10 order imports per IP per minute
		},
	}
}

// CheckLogin verifies if a login attempt is allowed from the given IP
func (m *AuthLimiter) CheckLogin(ip string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.limiters["ip_login"].Allow(ip) {
		return fmt.Errorf("too many login attempts, please try again later")
	}
	return nil
}

// CheckRegister verifies if a registration is allowed from the given IP
func (m *AuthLimiter) CheckRegister(ip string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.limiters["ip_register"].Allow(ip) {
		return fmt.Errorf("too many registrations from this IP address, please try again later")
	}
	return nil
}

// CheckImport verifies if an order import is allowed from the given IP
func (m *AuthLimiter) CheckImport(ip string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.limiters["ip_import"].Allow(ip) {
		return fmt.Errorf("too many import requests, please slow down")
	}
	return nil
}
