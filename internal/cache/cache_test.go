package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"chart-advisor/internal/models"
)

func sampleCandles() []models.Candle {
	return []models.Candle{
		{Time: 100, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100},
		{Time: 160, Open: 10.5, High: 11.5, Low: 10, Close: 11, Volume: 120},
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key("BTCUSDT", models.Interval1h, 200)

	if _, hit := store.Get(ctx, key); hit {
		t.Error("empty store reported a hit")
	}

	candles := sampleCandles()
	store.Set(ctx, key, candles, time.Minute)

	got, hit := store.Get(ctx, key)
	if !hit {
		t.Fatal("stored entry not found")
	}
	if len(got) != len(candles) || got[0] != candles[0] {
		t.Errorf("Get() = %+v, want %+v", got, candles)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key("BTCUSDT", models.Interval1m, 200)

	// An already-expired TTL must behave as a miss.
	store.Set(ctx, key, sampleCandles(), -time.Second)
	if _, hit := store.Get(ctx, key); hit {
		t.Error("expired entry reported a hit")
	}
}

func TestMemoryStorePrune(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Set(ctx, "stale", sampleCandles(), -time.Second)
	store.Set(ctx, "fresh", sampleCandles(), time.Minute)
	store.Prune()

	store.mu.RLock()
	_, staleKept := store.entries["stale"]
	_, freshKept := store.entries["fresh"]
	store.mu.RUnlock()

	if staleKept {
		t.Error("Prune() kept an expired entry")
	}
	if !freshKept {
		t.Error("Prune() dropped a live entry")
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	candles := sampleCandles()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				store.Set(ctx, "shared", candles, time.Minute)
				store.Get(ctx, "shared")
			}
		}()
	}
	wg.Wait()

	if _, hit := store.Get(ctx, "shared"); !hit {
		t.Error("entry lost after concurrent access")
	}
}

func TestKeyFormat(t *testing.T) {
	if got := Key("BTCUSDT", models.Interval4h, 100); got != "candles:BTCUSDT:4h:100" {
		t.Errorf("Key() = %q", got)
	}
}

func TestTTLForScalesWithInterval(t *testing.T) {
	if TTLFor(models.Interval1m) >= TTLFor(models.Interval1h) {
		t.Error("1m TTL should be shorter than 1h TTL")
	}
	if TTLFor(models.Interval1h) >= TTLFor(models.Interval1d) {
		t.Error("1h TTL should be shorter than 1d TTL")
	}
	if TTLFor("bogus") <= 0 {
		t.Error("unknown interval should still get a positive TTL")
	}
}
