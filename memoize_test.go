package funcache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCallComputesOnceWhileFresh(t *testing.T) {
	installFakeClock(t)
	cache := newTestCache(t)
	ctx := context.Background()
	computes := 0
	compute := func(context.Context) (int, error) {
		computes++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		got, err := Call(ctx, cache, "mod", "answer", []any{"x", 7}, For(time.Minute), compute)
		if err != nil {
			t.Fatalf("call failed: %v", err)
		}
		if got != 42 {
			t.Fatalf("unexpected value: %d", got)
		}
	}
	if computes != 1 {
		t.Fatalf("expected a single computation, got %d", computes)
	}
}

func TestCallRecomputesAfterWindow(t *testing.T) {
	clock := installFakeClock(t)
	cache := newTestCache(t)
	ctx := context.Background()
	computes := 0
	compute := func(context.Context) (string, error) {
		computes++
		if computes == 1 {
			return "first", nil
		}
		return "second", nil
	}

	got, err := Call(ctx, cache, "mod", "value", nil, For(time.Minute), compute)
	if err != nil || got != "first" {
		t.Fatalf("unexpected first call: %q err=%v", got, err)
	}
	clock.advance(2 * time.Minute)
	got, err = Call(ctx, cache, "mod", "value", nil, For(time.Minute), compute)
	if err != nil || got != "second" {
		t.Fatalf("expected recompute after expiry: %q err=%v", got, err)
	}
	if computes != 2 {
		t.Fatalf("expected 2 computations, got %d", computes)
	}
}

func TestCallDistinguishesArguments(t *testing.T) {
	installFakeClock(t)
	cache := newTestCache(t)
	ctx := context.Background()

	double := func(n int) func(context.Context) (int, error) {
		return func(context.Context) (int, error) { return n * 2, nil }
	}
	a, err := Call(ctx, cache, "mod", "double", []any{2}, Forever, double(2))
	if err != nil || a != 4 {
		t.Fatalf("unexpected: %d err=%v", a, err)
	}
	b, err := Call(ctx, cache, "mod", "double", []any{3}, Forever, double(3))
	if err != nil || b != 6 {
		t.Fatalf("different args must not share a cache slot: %d err=%v", b, err)
	}
}

func TestCallTypedStructRoundTrip(t *testing.T) {
	installFakeClock(t)
	cache := newTestCache(t)
	ctx := context.Background()

	type rate struct {
		Currency string
		Value    float64
	}
	computes := 0
	compute := func(context.Context) (rate, error) {
		computes++
		return rate{Currency: "EUR", Value: 1.0843}, nil
	}

	first, err := Call(ctx, cache, "fx", "rate", []any{"EUR"}, Forever, compute)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	second, err := Call(ctx, cache, "fx", "rate", []any{"EUR"}, Forever, compute)
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if computes != 1 || first != second {
		t.Fatalf("expected cached struct: computes=%d %+v vs %+v", computes, first, second)
	}
}

func TestCallComputeErrorIsNotCached(t *testing.T) {
	installFakeClock(t)
	cache := newTestCache(t)
	ctx := context.Background()
	boom := errors.New("upstream down")
	computes := 0
	compute := func(context.Context) (int, error) {
		computes++
		if computes == 1 {
			return 0, boom
		}
		return 7, nil
	}

	if _, err := Call(ctx, cache, "mod", "flaky", nil, Forever, compute); !errors.Is(err, boom) {
		t.Fatalf("expected compute error, got %v", err)
	}
	got, err := Call(ctx, cache, "mod", "flaky", nil, Forever, compute)
	if err != nil || got != 7 {
		t.Fatalf("failure must not be cached: %d err=%v", got, err)
	}
}

func TestCallFailSilentlyStillComputes(t *testing.T) {
	cache, err := New(DriverRedis, WithFailSilently(true))
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	computes := 0
	compute := func(context.Context) (int, error) {
		computes++
		return 9, nil
	}

	for i := 0; i < 2; i++ {
		got, err := Call(context.Background(), cache, "mod", "v", nil, Forever, compute)
		if err != nil || got != 9 {
			t.Fatalf("silent mode must return the computed value: %d err=%v", got, err)
		}
	}
	// The cache layer is broken, so nothing is memoized.
	if computes != 2 {
		t.Fatalf("expected compute on every call, got %d", computes)
	}
}

func TestCallLoudModePropagatesCacheFailure(t *testing.T) {
	cache, err := New(DriverRedis)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	compute := func(context.Context) (int, error) { return 1, nil }
	if _, err := Call(context.Background(), cache, "mod", "v", nil, Forever, compute); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestCallUnkeyableArguments(t *testing.T) {
	loud := newTestCache(t)
	compute := func(context.Context) (int, error) { return 5, nil }
	badArgs := []any{func() {}}

	if _, err := Call(context.Background(), loud, "mod", "v", badArgs, Forever, compute); !errors.Is(err, ErrSerialization) {
		t.Fatalf("expected serialization error, got %v", err)
	}

	silent := newTestCache(t, WithFailSilently(true))
	got, err := Call(context.Background(), silent, "mod", "v", badArgs, Forever, compute)
	if err != nil || got != 5 {
		t.Fatalf("silent mode must compute without caching: %d err=%v", got, err)
	}
}

func TestCallRecomputesOnUndecodablePayload(t *testing.T) {
	installFakeClock(t)
	cache := newTestCache(t, WithFailSilently(true))
	ctx := context.Background()

	key, err := EncodeKey("v", nil, nil)
	if err != nil {
		t.Fatalf("encode key: %v", err)
	}
	// Seed a payload that will not decode as an int.
	if err := cache.Put(ctx, "mod", key, []byte("\xc1garbage")); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	computes := 0
	compute := func(context.Context) (int, error) {
		computes++
		return 11, nil
	}
	got, err := Call(ctx, cache, "mod", "v", nil, Forever, compute)
	if err != nil || got != 11 {
		t.Fatalf("expected recompute on bad payload: %d err=%v", got, err)
	}
	if computes != 1 {
		t.Fatalf("expected one recompute, got %d", computes)
	}

	// The recomputed value replaced the bad payload.
	got, err = Call(ctx, cache, "mod", "v", nil, Forever, compute)
	if err != nil || got != 11 || computes != 1 {
		t.Fatalf("expected cached value after repair: %d computes=%d err=%v", got, computes, err)
	}
}
