package anubis

import (
	"testing"
	"time"

	"github.com/riskibarqy/last-man-standing/internal/domain/user"
)

func TestPrincipalCache_SetGet(t *testing.T) {
	t.Parallel()

	cache := newPrincipalCache(200*time.Millisecond, 10)
	cache.Set("k1", user.Principal{UserID: "u-1"})

	principal, ok := cache.Get("k1")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if principal.UserID != "u-1" {
		t.Fatalf("unexpected user id: %s", principal.UserID)
	}
}

func TestPrincipalCache_Expired(t *testing.T) {
	t.Parallel()

	cache := newPrincipalCache(20*time.Millisecond, 10)
	cache.Set("k1", user.Principal{UserID: "u-1"})
	time.Sleep(40 * time.Millisecond)

	if _, ok := cache.Get("k1"); ok {
		t.Fatalf("expected cache miss after expiry")
	}
}

func TestPrincipalCache_ZeroTTLNeverStores(t *testing.T) {
	t.Parallel()

	cache := newPrincipalCache(0, 10)
	cache.Set("k1", user.Principal{UserID: "u-1"})

	if _, ok := cache.Get("k1"); ok {
		t.Fatalf("expected no caching with zero ttl")
	}
}

func TestPrincipalCache_EvictsAtCapacity(t *testing.T) {
	t.Parallel()

	cache := newPrincipalCache(time.Minute, 2)
	cache.Set("k1", user.Principal{UserID: "u-1"})
	cache.Set("k2", user.Principal{UserID: "u-2"})
	cache.Set("k3", user.Principal{UserID: "u-3"})

	hits := 0
	for _, key := range []string{"k1", "k2", "k3"} {
		if _, ok := cache.Get(key); ok {
			hits++
		}
	}
	if hits != 2 {
		t.Fatalf("expected 2 entries after eviction, got %d", hits)
	}
}
