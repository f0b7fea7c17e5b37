package referral

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/gainvault/gainvault/internal/logging"
)

func TestMemoryProvider_UplineOrderAndBound(t *testing.T) {
	p := NewMemoryProvider()
	ctx := context.Background()

	// a <- b <- c <- d <- e <- f <- g <- h: chain of 7 ancestors above a.
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for i := 0; i < len(ids)-1; i++ {
		p.Link(ids[i], ids[i+1])
	}

	chain, err := p.Upline(ctx, "a", MaxUplineDepth)
	if err != nil {
		t.Fatalf("upline: %v", err)
	}
	if len(chain) != MaxUplineDepth {
		t.Fatalf("expected %d ancestors, got %d", MaxUplineDepth, len(chain))
	}
	if chain[0] != "b" || chain[len(chain)-1] != "g" {
		t.Fatalf("unexpected chain order: %v", chain)
	}
}

func TestMemoryProvider_UplineStopsAtRoot(t *testing.T) {
	p := NewMemoryProvider()
	p.Link("a", "b")
	p.Link("b", "c")

	chain, err := p.Upline(context.Background(), "a", MaxUplineDepth)
	if err != nil {
		t.Fatalf("upline: %v", err)
	}
	if len(chain) != 2 || chain[0] != "b" || chain[1] != "c" {
		t.Fatalf("unexpected chain: %v", chain)
	}
}

func TestMemoryProvider_UplineCycleGuard(t *testing.T) {
	p := NewMemoryProvider()
	// Corrupted graph: a -> b -> c -> a.
	p.Link("a", "b")
	p.Link("b", "c")
	p.Link("c", "a")

	chain, err := p.Upline(context.Background(), "a", MaxUplineDepth)
	if err != nil {
		t.Fatalf("upline: %v", err)
	}
	if len(chain) != 2 {
		t.Fatalf("cycle must terminate the walk, got chain %v", chain)
	}
}

func TestMemoryProvider_ActiveReferralCount(t *testing.T) {
	p := NewMemoryProvider()
	p.Link("c1", "up")
	p.Link("c2", "up")
	p.Link("c3", "up")
	p.MarkActive("c1")
	p.MarkActive("c3")

	count, err := p.ActiveReferralCount(context.Background(), "up")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 active referrals, got %d", count)
	}
}

func TestCachedProvider_CountsAndInvalidation(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	source := NewMemoryProvider()
	source.Link("c1", "up")
	source.MarkActive("c1")

	cached := NewCachedProvider(source, cache, time.Minute, logging.Discard())
	ctx := context.Background()

	count, err := cached.ActiveReferralCount(ctx, "up")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1, got %d", count)
	}

	// The stale cached value is served until invalidation.
	source.Link("c2", "up")
	source.MarkActive("c2")

	count, err = cached.ActiveReferralCount(ctx, "up")
	if err != nil {
		t.Fatalf("cached count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected cached 1, got %d", count)
	}

	if err := cached.Invalidate(ctx, "up"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	count, err = cached.ActiveReferralCount(ctx, "up")
	if err != nil {
		t.Fatalf("refreshed count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected refreshed 2, got %d", count)
	}
}
