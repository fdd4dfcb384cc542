package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "homio/internal/adapters/redis"
	"homio/internal/domain"
)

func TestCache_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	var missed domain.ReviewStats
	ok, err := c.Get(ctx, "stats:1", &missed)
	if err != nil || ok {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}

	in := domain.ReviewStats{AverageRating: 4.5, TotalReviews: 2, RecommendationPercentage: 50}
	if err := c.Set(ctx, "stats:1", in, 60); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var out domain.ReviewStats
	ok, err = c.Get(ctx, "stats:1", &out)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: %+v vs %+v", out, in)
	}

	if err := c.Del(ctx, "stats:1"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	ok, _ = c.Get(ctx, "stats:1", &out)
	if ok {
		t.Fatal("key should be gone after Del")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	if err := c.Set(ctx, "stats:2", domain.ReviewStats{TotalReviews: 1}, 30); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(31 * time.Second)

	var out domain.ReviewStats
	if ok, _ := c.Get(ctx, "stats:2", &out); ok {
		t.Fatal("entry should have expired")
	}
}
