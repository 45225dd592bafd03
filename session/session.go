package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/plasmakit/imascompose/composer"
	apperrors "github.com/plasmakit/imascompose/errors"
	"github.com/plasmakit/imascompose/logger"
	"github.com/plasmakit/imascompose/observability"
)

const defaultMaxPasses = 10

// Option configures a Session.
type Option func(*Session)

// WithMaxPasses caps the resolve/fetch iterations. A derived spec whose
// revealed requirement can never be satisfied would otherwise loop forever;
// the termination policy lives here, not in the engine.
func WithMaxPasses(n int) Option {
	return func(s *Session) { s.maxPasses = n }
}

// WithConcurrency limits concurrent fetches per pass (0 = unlimited).
func WithConcurrency(n int) Option {
	return func(s *Session) { s.concurrency = n }
}

// WithLogger sets the session logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithMetricsRecorder sets the metrics bundle recorded per pass.
func WithMetricsRecorder(m *observability.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// Session drives one logical resolution session against a single shot. It
// owns the cache; the cache is discarded with the session. Sessions are not
// safe for concurrent use — run independent sessions for concurrent work.
type Session struct {
	id          string
	registry    *composer.Registry
	fetcher     Fetcher
	cache       composer.Cache
	maxPasses   int
	concurrency int
	log         *logger.Logger
	metrics     *observability.Metrics
}

// New creates a Session over a frozen registry and a transport fetcher.
func New(registry *composer.Registry, fetcher Fetcher, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		registry:  registry,
		fetcher:   fetcher,
		cache:     composer.NewCache(),
		maxPasses: defaultMaxPasses,
		log:       logger.WithComponent("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Cache exposes the session-owned cache (e.g., for inspection in tests).
func (s *Session) Cache() composer.Cache { return s.cache }

// Run resolves and fetches until every requested path is satisfied, then
// composes the final values.
func (s *Session) Run(ctx context.Context, paths []string, shot int) (map[string]composer.Value, error) {
	if err := s.ResolveAll(ctx, paths, shot); err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanCompose)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrShot, shot)

	start := time.Now()
	values, err := s.registry.Compose(paths, shot, s.cache)
	duration := time.Since(start)

	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.RecordCompose(ctx, status, duration)
	}
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}

	s.log.Info("composition completed", logger.Fields(
		logger.FieldSessionID, s.id,
		logger.FieldShot, shot,
		"fields", len(values),
		logger.FieldDuration, duration.Milliseconds(),
	))
	return values, nil
}

// ResolveAll iterates resolve→fetch→merge until all requested paths report
// satisfied. It fails with RESOLUTION_STALLED when unsatisfied paths remain
// but nothing is pending, and MAX_PASSES_EXCEEDED when the loop does not
// converge within the pass cap.
func (s *Session) ResolveAll(ctx context.Context, paths []string, shot int) error {
	for pass := 1; pass <= s.maxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		satisfied, pending, err := s.registry.Resolve(paths, shot, s.cache)
		duration := time.Since(start)
		if err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.RecordResolve(ctx, len(pending), duration)
		}

		unsatisfied := unsatisfiedPaths(satisfied)
		s.log.Debug("resolve pass", logger.Fields(
			logger.FieldSessionID, s.id,
			logger.FieldShot, shot,
			logger.FieldPass, pass,
			logger.FieldPending, len(pending),
			"unsatisfied", len(unsatisfied),
		))

		if len(unsatisfied) == 0 {
			return nil
		}
		if len(pending) == 0 {
			return apperrors.ResolutionStalled(unsatisfied)
		}
		if err := s.fetchAll(ctx, pending); err != nil {
			return err
		}
	}
	return apperrors.MaxPassesExceeded(s.maxPasses)
}

// fetchAll fetches a batch of pending requirements concurrently and merges
// the results into the session cache. The cache is only written here, never
// by the engine.
func (s *Session) fetchAll(ctx context.Context, reqs []composer.Requirement) error {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	fetched := make(map[composer.Requirement]composer.Value, len(reqs))
	sem := make(chan struct{}, s.fetchConcurrency(len(reqs)))

	for _, req := range reqs {
		wg.Add(1)
		go func(req composer.Requirement) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			value, err := s.fetcher.Fetch(ctx, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = apperrors.FetchFailed(req.String(), err)
				}
				return
			}
			fetched[req] = value
		}(req)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	for req, value := range fetched {
		s.cache[req] = value
	}
	return nil
}

func (s *Session) fetchConcurrency(batch int) int {
	if s.concurrency <= 0 || s.concurrency > batch {
		return batch
	}
	return s.concurrency
}

func unsatisfiedPaths(satisfied map[string]bool) []string {
	var paths []string
	for path, ok := range satisfied {
		if !ok {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}
