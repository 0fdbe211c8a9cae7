package knowledge

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingAnswerer struct {
	answer string
	found  bool
	calls  int
}

func (c *countingAnswerer) Answer(_ context.Context, _ string) (string, bool, error) {
	c.calls++
	return c.answer, c.found, nil
}

func TestCachedAnswererHitSkipsInner(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	inner := &countingAnswerer{answer: "Veneers are thin porcelain shells.", found: true}
	cached := NewCachedAnswerer(inner, rdb, nil)

	for i := 0; i < 3; i++ {
		answer, found, err := cached.Answer(context.Background(), "what are veneers?")
		if err != nil {
			t.Fatalf("Answer: %v", err)
		}
		if !found || answer != inner.answer {
			t.Errorf("iteration %d: got found=%v answer=%q", i, found, answer)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner answerer called %d times, want 1", inner.calls)
	}
}

func TestCachedAnswererCachesNoAnswer(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	inner := &countingAnswerer{found: false}
	cached := NewCachedAnswerer(inner, rdb, nil)

	for i := 0; i < 2; i++ {
		_, found, err := cached.Answer(context.Background(), "do you validate parking?")
		if err != nil {
			t.Fatalf("Answer: %v", err)
		}
		if found {
			t.Error("expected no answer")
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner answerer called %d times, want 1", inner.calls)
	}
}

func TestCachedAnswererKeyNormalization(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	inner := &countingAnswerer{answer: "yes", found: true}
	cached := NewCachedAnswerer(inner, rdb, nil)

	if _, _, err := cached.Answer(context.Background(), "Do you accept new patients?"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := cached.Answer(context.Background(), "  do you accept new patients?  "); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 {
		t.Errorf("inner answerer called %d times, want 1", inner.calls)
	}
}

func TestCachedAnswererRedisDownFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	inner := &countingAnswerer{answer: "yes", found: true}
	cached := NewCachedAnswerer(inner, rdb, nil)

	answer, found, err := cached.Answer(context.Background(), "do you accept new patients?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !found || answer != "yes" {
		t.Errorf("got found=%v answer=%q", found, answer)
	}

	if _, _, err := cached.Answer(context.Background(), "do you accept new patients?"); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("inner answerer called %d times, want 2 with cache down", inner.calls)
	}
}

func TestCachedAnswererNilRedis(t *testing.T) {
	inner := &countingAnswerer{answer: "yes", found: true}
	cached := NewCachedAnswerer(inner, nil, nil)
	if _, found, err := cached.Answer(context.Background(), "anything"); err != nil || !found {
		t.Fatalf("got found=%v err=%v", found, err)
	}
}
