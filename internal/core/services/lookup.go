package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driven"
	"github.com/custodia-labs/medterm/internal/core/ports/driving"
	"github.com/custodia-labs/medterm/internal/logger"
	"github.com/custodia-labs/medterm/internal/sources"
)

// Ensure LookupService implements the interface.
var _ driving.LookupService = (*LookupService)(nil)

// LookupConfig bounds and times a batch lookup.
type LookupConfig struct {
	// MaxKeywords is the largest accepted batch.
	MaxKeywords int

	// MaxConcurrency caps simultaneously running source calls.
	MaxConcurrency int

	// Timeout is the default per-source call timeout.
	Timeout time.Duration

	// SourceTimeouts overrides Timeout for individual sources.
	SourceTimeouts map[domain.SourceKind]time.Duration
}

// LookupConfigFromSettings derives the lookup configuration from settings.
func LookupConfigFromSettings(s domain.AppSettings) LookupConfig {
	return LookupConfig{
		MaxKeywords:    s.Lookup.MaxKeywords,
		MaxConcurrency: s.Lookup.MaxConcurrency,
		Timeout:        s.Sources.Timeout,
		SourceTimeouts: s.Sources.Timeouts,
	}
}

func (c LookupConfig) withDefaults() LookupConfig {
	d := domain.DefaultAppSettings()
	if c.MaxKeywords <= 0 {
		c.MaxKeywords = d.Lookup.MaxKeywords
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = d.Lookup.MaxConcurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Sources.Timeout
	}
	return c
}

// LookupService fans each keyword out to the local store and every source,
// then merges the answers into one result per keyword.
type LookupService struct {
	sources  []driven.Source
	observer driven.LookupObserver
	cfg      LookupConfig
}

// NewLookupService creates a lookup service. The store, when non-nil, is
// consulted first as the exact-match local source; srcs follow in order.
func NewLookupService(store driven.TermStore, srcs []driven.Source, cfg LookupConfig) *LookupService {
	all := make([]driven.Source, 0, len(srcs)+1)
	if store != nil {
		all = append(all, &localSource{store: store})
	}
	all = append(all, srcs...)

	return &LookupService{
		sources: all,
		cfg:     cfg.withDefaults(),
	}
}

// SetObserver sets the telemetry observer.
func (s *LookupService) SetObserver(o driven.LookupObserver) {
	s.observer = o
}

// Sources returns the sources a lookup consults, in consultation order.
func (s *LookupService) Sources() []domain.SourceKind {
	kinds := make([]domain.SourceKind, len(s.sources))
	for i, src := range s.sources {
		kinds[i] = src.Kind()
	}
	return kinds
}

// slot holds the outcome of one (keyword x source) call.
type slot struct {
	entries []domain.LookupEntry
	err     error
}

// LookupMany looks up every keyword and returns one result per keyword in
// input order. Each (keyword x source) call runs as its own task with its
// own deadline; a failing or slow source only affects its own slot.
func (s *LookupService) LookupMany(
	ctx context.Context, keywords []string, opts domain.LookupOptions,
) ([]domain.AggregatedResult, error) {
	logger.Section("Lookup")

	cleaned, err := s.validate(keywords, opts)
	if err != nil {
		return nil, err
	}

	active := s.activeSources(opts)
	batchID := uuid.NewString()
	logger.Debug("batch %s: %d keywords x %d sources", batchID, len(cleaned), len(active))

	// slots[k][i] is written only by the task for keyword k and source i.
	slots := make([][]slot, len(cleaned))
	for k := range slots {
		slots[k] = make([]slot, len(active))
	}

	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrency)
	for k, kw := range cleaned {
		if kw == "" {
			continue
		}
		for i, src := range active {
			g.Go(func() error {
				start := time.Now()
				entries, err := s.call(ctx, src, kw, s.timeoutFor(src.Kind(), opts))
				slots[k][i] = slot{entries: entries, err: err}
				s.observeSource(batchID, src.Kind(), kw, entries, err, time.Since(start))
				return nil
			})
		}
	}
	_ = g.Wait()

	results := make([]domain.AggregatedResult, len(cleaned))
	for k, kw := range cleaned {
		if kw == "" {
			results[k] = blankResult()
			continue
		}
		results[k] = merge(kw, active, slots[k])
		if s.observer != nil {
			s.observer.ObserveKeyword(results[k].Found)
		}
	}
	return results, nil
}

func (s *LookupService) validate(keywords []string, opts domain.LookupOptions) ([]string, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("%w: at least one keyword is required", domain.ErrInvalidInput)
	}
	if len(keywords) > s.cfg.MaxKeywords {
		return nil, fmt.Errorf("%w: %d keywords exceeds the limit of %d",
			domain.ErrInvalidInput, len(keywords), s.cfg.MaxKeywords)
	}

	// Blank keywords keep their slot and are answered without dispatch.
	cleaned := make([]string, len(keywords))
	for i, kw := range keywords {
		cleaned[i] = strings.TrimSpace(kw)
	}

	for _, kind := range opts.Sources {
		if !kind.IsValid() {
			return nil, fmt.Errorf("%w: unknown source %q", domain.ErrInvalidInput, kind)
		}
	}
	return cleaned, nil
}

func (s *LookupService) activeSources(opts domain.LookupOptions) []driven.Source {
	if len(opts.Sources) == 0 {
		return s.sources
	}
	active := make([]driven.Source, 0, len(s.sources))
	for _, src := range s.sources {
		if opts.Includes(src.Kind()) {
			active = append(active, src)
		}
	}
	return active
}

func (s *LookupService) timeoutFor(kind domain.SourceKind, opts domain.LookupOptions) time.Duration {
	if opts.Timeout > 0 {
		return opts.Timeout
	}
	if d, ok := s.cfg.SourceTimeouts[kind]; ok && d > 0 {
		return d
	}
	return s.cfg.Timeout
}

// call runs one source lookup under its own deadline. The adapter runs in
// its own goroutine so that one ignoring its context is abandoned when the
// deadline passes; its late answer is discarded.
func (s *LookupService) call(
	ctx context.Context, src driven.Source, keyword string, timeout time.Duration,
) ([]domain.LookupEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		entries []domain.LookupEntry
		err     error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: source panicked: %v", domain.ErrSourceUnreachable, r)}
			}
		}()
		entries, err := src.Lookup(ctx, keyword)
		done <- outcome{entries: entries, err: err}
	}()

	select {
	case o := <-done:
		return o.entries, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *LookupService) observeSource(
	batchID string, kind domain.SourceKind, keyword string,
	entries []domain.LookupEntry, err error, elapsed time.Duration,
) {
	outcome := driven.OutcomeHit
	var errKind domain.ErrorKind
	switch {
	case err != nil:
		outcome = driven.OutcomeError
		errKind = sources.Classify(err)
		logger.Debug("batch %s: %s(%q) failed after %s: %s: %v", batchID, kind, keyword, elapsed, errKind, err)
	case len(entries) == 0:
		outcome = driven.OutcomeEmpty
	}

	if s.observer != nil {
		s.observer.ObserveSource(kind, outcome, errKind, elapsed)
	}
}

// candidate is an entry with the position data used for ordering.
type candidate struct {
	entry    domain.LookupEntry
	priority int
	order    int
	rank     int
}

func (c candidate) before(o candidate) bool {
	if c.priority != o.priority {
		return c.priority < o.priority
	}
	if c.order != o.order {
		return c.order < o.order
	}
	return c.rank < o.rank
}

func blankResult() domain.AggregatedResult {
	return domain.AggregatedResult{
		Entries: []domain.LookupEntry{},
		Message: domain.BlankKeywordMessage,
	}
}

// merge reduces one keyword's slots into its aggregated result.
// Entries describing the same thing are kept once, from the
// highest-priority source. The result is ordered by category, then source
// priority, then source order; Rank is the final position.
func merge(keyword string, active []driven.Source, slots []slot) domain.AggregatedResult {
	result := domain.AggregatedResult{Keyword: keyword}

	best := make(map[string]candidate)
	var keys []string //nolint:prealloc
	for i, sl := range slots {
		kind := active[i].Kind()
		if sl.err != nil {
			if result.SourceErrors == nil {
				result.SourceErrors = make(map[domain.SourceKind]domain.ErrorKind)
			}
			result.SourceErrors[kind] = sources.Classify(sl.err)
			continue
		}

		for r, e := range sl.entries {
			if e.Payload.IsEmpty() {
				continue
			}
			e.Source = kind
			e.Keyword = keyword
			if e.Category == "" {
				e.Category = domain.CategoryUnknown
			}

			c := candidate{entry: e, priority: kind.Priority(), order: i, rank: r}
			key := e.Key()
			prev, seen := best[key]
			if !seen {
				keys = append(keys, key)
			}
			if !seen || c.before(prev) {
				best[key] = c
			}
		}
	}

	merged := make([]candidate, 0, len(keys))
	for _, k := range keys {
		merged = append(merged, best[k])
	}
	sort.SliceStable(merged, func(a, b int) bool {
		ca, cb := merged[a], merged[b]
		if oa, ob := ca.entry.Category.Order(), cb.entry.Category.Order(); oa != ob {
			return oa < ob
		}
		return ca.before(cb)
	})

	result.Entries = make([]domain.LookupEntry, len(merged))
	for i, c := range merged {
		c.entry.Rank = i
		result.Entries[i] = c.entry
	}

	result.Found = len(result.Entries) > 0
	if !result.Found {
		result.Message = domain.NotFoundMessage(keyword)
	}
	return result
}

// localSource is the exact-match read of the local store.
type localSource struct {
	store driven.TermStore
}

func (l *localSource) Kind() domain.SourceKind {
	return domain.SourceLocal
}

func (l *localSource) Lookup(ctx context.Context, keyword string) ([]domain.LookupEntry, error) {
	entry, err := l.store.Get(ctx, keyword)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return []domain.LookupEntry{{
		Source:   domain.SourceLocal,
		Keyword:  keyword,
		Category: entry.Kind.Category(),
		Payload: domain.Payload{Definition: &domain.Definition{
			Keyword:    entry.Keyword,
			Definition: entry.Definition,
			Origin:     entry.Origin,
		}},
	}}, nil
}
