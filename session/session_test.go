package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/plasmakit/imascompose/composer"
	apperrors "github.com/plasmakit/imascompose/errors"
	"github.com/plasmakit/imascompose/testutil"
)

// channelRegistry needs two passes: the channel count reveals the per-channel
// requirements.
func channelRegistry(t *testing.T) *composer.Registry {
	t.Helper()
	b := composer.NewBuilder()
	b.MustRegister("probe._numch", composer.Direct(composer.NewRequirement("NUMCH", 0, "T")))
	b.MustRegister("probe._channels", composer.Derived([]string{"probe._numch"}, func(shot int, cache composer.Cache) ([]composer.Requirement, error) {
		n, err := cache.Int(composer.NewRequirement("NUMCH", shot, "T"))
		if err != nil {
			return nil, err
		}
		reqs := make([]composer.Requirement, 0, n)
		for ch := 1; ch <= n; ch++ {
			reqs = append(reqs, composer.NewRequirement(fmt.Sprintf("CH%02d", ch), shot, "T"))
		}
		return reqs, nil
	}))
	b.MustRegister("probe.data", composer.Computed([]string{"probe._channels"}, func(shot int, cache composer.Cache) (composer.Value, error) {
		n, err := cache.Int(composer.NewRequirement("NUMCH", shot, "T"))
		if err != nil {
			return composer.Value{}, err
		}
		var sum float64
		for ch := 1; ch <= n; ch++ {
			v, err := cache.Float(composer.NewRequirement(fmt.Sprintf("CH%02d", ch), shot, "T"))
			if err != nil {
				return composer.Value{}, err
			}
			sum += v
		}
		return composer.Scalar(sum), nil
	}))
	r, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	return r
}

// --- Session tests ---

func TestSession_RunMultiPass(t *testing.T) {
	shot := 42
	fetcher := testutil.NewMapFetcher(map[composer.Requirement]composer.Value{
		composer.NewRequirement("NUMCH", shot, "T"): composer.Scalar(2),
		composer.NewRequirement("CH01", shot, "T"):  composer.Scalar(1.5),
		composer.NewRequirement("CH02", shot, "T"):  composer.Scalar(2.5),
	})

	s := New(channelRegistry(t), fetcher)
	values, err := s.Run(context.Background(), []string{"probe.data"}, shot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := values["probe.data"].Float()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 4.0 {
		t.Fatalf("expected 4.0, got %v", got)
	}
	if n := fetcher.Calls(); n != 3 {
		t.Fatalf("expected 3 fetches, got %d", n)
	}
	if s.ID() == "" {
		t.Fatal("expected non-empty session id")
	}
}

func TestSession_ConcurrencyLimit(t *testing.T) {
	shot := 7
	fetcher := testutil.NewMapFetcher(map[composer.Requirement]composer.Value{
		composer.NewRequirement("NUMCH", shot, "T"): composer.Scalar(2),
		composer.NewRequirement("CH01", shot, "T"):  composer.Scalar(1),
		composer.NewRequirement("CH02", shot, "T"):  composer.Scalar(2),
	})

	s := New(channelRegistry(t), fetcher, WithConcurrency(1))
	if _, err := s.Run(context.Background(), []string{"probe.data"}, shot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSession_FetchFailure(t *testing.T) {
	// Fetcher knows NUMCH but not the channels it reveals.
	shot := 9
	fetcher := testutil.NewMapFetcher(map[composer.Requirement]composer.Value{
		composer.NewRequirement("NUMCH", shot, "T"): composer.Scalar(1),
	})

	s := New(channelRegistry(t), fetcher)
	_, err := s.Run(context.Background(), []string{"probe.data"}, shot)
	if !apperrors.IsCode(err, apperrors.ErrCodeFetchFailed) {
		t.Fatalf("expected FETCH_FAILED, got %v", err)
	}
	var ae *apperrors.AppError
	if !errors.As(err, &ae) || !ae.Retryable {
		t.Fatalf("expected retryable fetch error, got %v", err)
	}
}

func TestSession_MaxPassesExceeded(t *testing.T) {
	// The derive function reveals a fresh requirement every pass, so the loop
	// can never converge.
	b := composer.NewBuilder()
	b.MustRegister("loop._chain", composer.Derived(nil, func(shot int, cache composer.Cache) ([]composer.Requirement, error) {
		return []composer.Requirement{
			composer.NewRequirement(fmt.Sprintf("LINK%d", len(cache)), shot, "T"),
		}, nil
	}))
	b.MustRegister("loop.out", composer.Computed([]string{"loop._chain"}, func(int, composer.Cache) (composer.Value, error) {
		return composer.Scalar(0), nil
	}))
	r, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}

	fetcher := FetcherFunc(func(_ context.Context, _ composer.Requirement) (composer.Value, error) {
		return composer.Scalar(1), nil
	})
	s := New(r, fetcher, WithMaxPasses(3))
	_, err = s.Run(context.Background(), []string{"loop.out"}, 1)
	if !apperrors.IsCode(err, apperrors.ErrCodeMaxPassesExceeded) {
		t.Fatalf("expected MAX_PASSES_EXCEEDED, got %v", err)
	}
}

func TestSession_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := testutil.NewMapFetcher(map[composer.Requirement]composer.Value{})
	s := New(channelRegistry(t), fetcher)
	if _, err := s.Run(ctx, []string{"probe.data"}, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if fetcher.Calls() != 0 {
		t.Fatal("expected no fetches after cancellation")
	}
}

func TestSession_CacheRetainedAcrossRuns(t *testing.T) {
	shot := 3
	fetcher := testutil.NewMapFetcher(map[composer.Requirement]composer.Value{
		composer.NewRequirement("NUMCH", shot, "T"): composer.Scalar(1),
		composer.NewRequirement("CH01", shot, "T"):  composer.Scalar(5),
	})

	s := New(channelRegistry(t), fetcher)
	if _, err := s.Run(context.Background(), []string{"probe.data"}, shot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := fetcher.Calls()

	// Second run against the same shot reuses the session cache entirely.
	if _, err := s.Run(context.Background(), []string{"probe.data"}, shot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.Calls() != first {
		t.Fatalf("expected no new fetches, got %d more", fetcher.Calls()-first)
	}
	if len(s.Cache()) == 0 {
		t.Fatal("expected populated session cache")
	}
}

// --- Fetcher middleware tests ---

func TestFetcherMiddleware_PassThrough(t *testing.T) {
	req := composer.NewRequirement("SIG", 1, "T")
	inner := FetcherFunc(func(_ context.Context, r composer.Requirement) (composer.Value, error) {
		if r != req {
			return composer.Value{}, errors.New("unexpected requirement")
		}
		return composer.Scalar(9), nil
	})

	wrapped := WithTracing(inner)
	v, err := wrapped.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f, _ := v.Float(); f != 9 {
		t.Fatalf("expected 9, got %v", f)
	}
}

func TestFetcherMiddleware_ErrorPropagates(t *testing.T) {
	cause := errors.New("down")
	inner := FetcherFunc(func(context.Context, composer.Requirement) (composer.Value, error) {
		return composer.Value{}, cause
	})

	wrapped := WithTracing(inner)
	if _, err := wrapped.Fetch(context.Background(), composer.NewRequirement("SIG", 1, "T")); !errors.Is(err, cause) {
		t.Fatalf("expected cause propagated, got %v", err)
	}
}
