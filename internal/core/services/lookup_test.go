package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medterm/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driven"
	"github.com/custodia-labs/medterm/internal/sources/abbreviation"
)

// --- Mock implementations ---

// mockSource implements driven.Source for testing.
type mockSource struct {
	kind    domain.SourceKind
	entries map[string][]domain.LookupEntry
	err     error
	delay   time.Duration
	block   chan struct{} // when set, Lookup ignores ctx and waits on it
	calls   atomic.Int32
	active  atomic.Int32
	peak    atomic.Int32
}

func (m *mockSource) Kind() domain.SourceKind {
	return m.kind
}

func (m *mockSource) Lookup(ctx context.Context, keyword string) ([]domain.LookupEntry, error) {
	m.calls.Add(1)
	n := m.active.Add(1)
	defer m.active.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if m.block != nil {
		<-m.block
		return nil, nil
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.entries[keyword], nil
}

// panicSource implements driven.Source and panics on every call.
type panicSource struct{}

func (panicSource) Kind() domain.SourceKind { return domain.SourceUMLS }

func (panicSource) Lookup(context.Context, string) ([]domain.LookupEntry, error) {
	panic("boom")
}

// failingTermStore fails every read.
type failingTermStore struct {
	*memory.TermStore
}

func (f failingTermStore) Get(context.Context, string) (*domain.LocalEntry, error) {
	return nil, fmt.Errorf("%w: database is locked", domain.ErrStoreIO)
}

// mockObserver implements driven.LookupObserver for testing.
type mockObserver struct {
	mu       sync.Mutex
	sources  map[domain.SourceKind][]driven.SourceOutcome
	errKinds map[domain.SourceKind]domain.ErrorKind
	found    []bool
}

func newMockObserver() *mockObserver {
	return &mockObserver{
		sources:  make(map[domain.SourceKind][]driven.SourceOutcome),
		errKinds: make(map[domain.SourceKind]domain.ErrorKind),
	}
}

func (m *mockObserver) ObserveSource(
	kind domain.SourceKind, outcome driven.SourceOutcome, errKind domain.ErrorKind, _ time.Duration,
) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[kind] = append(m.sources[kind], outcome)
	if errKind != "" {
		m.errKinds[kind] = errKind
	}
}

func (m *mockObserver) ObserveKeyword(found bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.found = append(m.found, found)
}

// --- Helpers ---

func conditionEntry(keyword, name string) domain.LookupEntry {
	return domain.LookupEntry{
		Keyword:  keyword,
		Category: domain.CategoryCondition,
		Payload:  domain.Payload{Condition: &domain.Condition{PrimaryName: name}},
	}
}

func drugEntry(keyword, rxcui string) domain.LookupEntry {
	return domain.LookupEntry{
		Keyword:  keyword,
		Category: domain.CategoryDrug,
		Payload: domain.Payload{Formulation: &domain.DrugFormulation{
			RxCUI:        rxcui,
			Formulations: []string{keyword + " 500 MG Oral Tablet"},
		}},
	}
}

func unreachable(kind domain.SourceKind) *mockSource {
	return &mockSource{kind: kind, err: fmt.Errorf("%w: connection refused", domain.ErrSourceUnreachable)}
}

func testConfig() LookupConfig {
	return LookupConfig{Timeout: time.Second}
}

// --- Tests ---

func TestNewLookupService_Defaults(t *testing.T) {
	service := NewLookupService(nil, nil, LookupConfig{})

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Lookup.MaxKeywords, service.cfg.MaxKeywords)
	assert.Equal(t, defaults.Lookup.MaxConcurrency, service.cfg.MaxConcurrency)
	assert.Equal(t, defaults.Sources.Timeout, service.cfg.Timeout)
}

func TestLookupConfigFromSettings(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Lookup.MaxKeywords = 7
	settings.Sources.Timeout = 3 * time.Second
	settings.Sources.Timeouts = map[domain.SourceKind]time.Duration{domain.SourceUMLS: 20 * time.Second}

	cfg := LookupConfigFromSettings(settings)

	assert.Equal(t, 7, cfg.MaxKeywords)
	assert.Equal(t, settings.Lookup.MaxConcurrency, cfg.MaxConcurrency)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 20*time.Second, cfg.SourceTimeouts[domain.SourceUMLS])

	service := NewLookupService(nil, nil, cfg)
	assert.Equal(t, 20*time.Second, service.timeoutFor(domain.SourceUMLS, domain.LookupOptions{}))
	assert.Equal(t, 3*time.Second, service.timeoutFor(domain.SourceRxNorm, domain.LookupOptions{}))
	assert.Equal(t, time.Second,
		service.timeoutFor(domain.SourceUMLS, domain.LookupOptions{Timeout: time.Second}),
		"a per-call timeout wins")
}

func TestLookupService_Sources(t *testing.T) {
	service := NewLookupService(memory.NewTermStore(), []driven.Source{
		&mockSource{kind: domain.SourceConditions},
		&mockSource{kind: domain.SourceRxNorm},
	}, testConfig())

	assert.Equal(t, []domain.SourceKind{
		domain.SourceLocal, domain.SourceConditions, domain.SourceRxNorm,
	}, service.Sources())
}

func TestLookupService_InvalidInput(t *testing.T) {
	service := NewLookupService(memory.NewTermStore(), nil, LookupConfig{MaxKeywords: 3})

	tests := []struct {
		name     string
		keywords []string
		opts     domain.LookupOptions
	}{
		{name: "empty batch", keywords: nil},
		{name: "too many keywords", keywords: []string{"a", "b", "c", "d"}},
		{
			name:     "unknown source",
			keywords: []string{"abg"},
			opts:     domain.LookupOptions{Sources: []domain.SourceKind{"pubmed"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := service.LookupMany(context.Background(), tt.keywords, tt.opts)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Nil(t, results)
		})
	}
}

func TestLookupService_BlankKeywordKeepsItsSlot(t *testing.T) {
	store := memory.NewTermStore()
	_, err := store.Seed(context.Background(), []domain.SeedRecord{{Keyword: "ABG", Definition: "Arterial Blood Gas"}})
	require.NoError(t, err)
	conditions := &mockSource{kind: domain.SourceConditions}
	service := NewLookupService(store, []driven.Source{conditions}, testConfig())

	results, err := service.LookupMany(context.Background(), []string{"ABG", "  ", ""}, domain.LookupOptions{})

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "ABG", results[0].Keyword)
	assert.True(t, results[0].Found)
	for _, res := range results[1:] {
		assert.False(t, res.Found)
		assert.Empty(t, res.Keyword)
		assert.NotNil(t, res.Entries)
		assert.Empty(t, res.Entries)
		assert.Empty(t, res.SourceErrors)
		assert.Equal(t, domain.BlankKeywordMessage, res.Message)
	}
	assert.Equal(t, int32(1), conditions.calls.Load(), "blank keywords are not dispatched")
}

func TestLookupService_SeededNeighboursStayOut(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTermStore()
	_, err := store.Seed(ctx, []domain.SeedRecord{
		{Keyword: "BP", Definition: "Blood Pressure"},
		{Keyword: "BPH", Definition: "Benign Prostatic Hyperplasia"},
		{Keyword: "SBP", Definition: "Systolic Blood Pressure"},
		{Keyword: "DBP", Definition: "Diastolic Blood Pressure"},
	})
	require.NoError(t, err)
	service := NewLookupService(store, []driven.Source{abbreviation.New(store, 0)}, testConfig())

	results, err := service.LookupMany(ctx, []string{"BP"}, domain.LookupOptions{})

	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Entries, 1)
	entry := results[0].Entries[0]
	assert.Equal(t, domain.SourceLocal, entry.Source)
	assert.Equal(t, "BP", entry.Payload.Definition.Keyword)
	assert.Equal(t, "Blood Pressure", entry.Payload.Definition.Definition)
}

func TestLookupService_CustomPartialMatches(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTermStore()
	_, err := store.Seed(ctx, []domain.SeedRecord{
		{Keyword: "BP", Definition: "Blood Pressure"},
		{Keyword: "SBP", Definition: "Systolic Blood Pressure"},
	})
	require.NoError(t, err)
	_, err = store.Put(ctx, "BP cuff", "Sphygmomanometer cuff", domain.KindTerm)
	require.NoError(t, err)
	service := NewLookupService(store, []driven.Source{abbreviation.New(store, 0)}, testConfig())

	results, err := service.LookupMany(ctx, []string{"BP"}, domain.LookupOptions{})

	require.NoError(t, err)
	require.Len(t, results, 1)
	var keywords []string
	for _, e := range results[0].Entries {
		keywords = append(keywords, e.Payload.Definition.Keyword)
	}
	assert.ElementsMatch(t, []string{"BP", "BP cuff"}, keywords)
}

func TestLookupService_PreservesLengthAndOrder(t *testing.T) {
	conditions := &mockSource{kind: domain.SourceConditions, entries: map[string][]domain.LookupEntry{
		"asthma":   {conditionEntry("asthma", "Asthma")},
		"diabetes": {conditionEntry("diabetes", "Diabetes mellitus")},
	}}
	service := NewLookupService(memory.NewTermStore(), []driven.Source{conditions}, testConfig())
	keywords := []string{"diabetes", "zzz-unknown", "asthma", "diabetes"}

	results, err := service.LookupMany(context.Background(), keywords, domain.LookupOptions{})

	require.NoError(t, err)
	require.Len(t, results, len(keywords))
	for i, kw := range keywords {
		assert.Equal(t, kw, results[i].Keyword)
	}
	assert.True(t, results[0].Found)
	assert.False(t, results[1].Found)
	assert.True(t, results[2].Found)
	assert.True(t, results[3].Found)
	assert.Equal(t, "Asthma", results[2].Entries[0].Payload.Condition.PrimaryName)
}

func TestLookupService_TrimsKeywords(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTermStore()
	_, err := store.Seed(ctx, []domain.SeedRecord{{Keyword: "BID", Definition: "twice a day"}})
	require.NoError(t, err)
	service := NewLookupService(store, nil, testConfig())

	results, err := service.LookupMany(ctx, []string{"  bid "}, domain.LookupOptions{})

	require.NoError(t, err)
	assert.Equal(t, "bid", results[0].Keyword)
	assert.True(t, results[0].Found)
}

func TestLookupService_AllSourcesFail(t *testing.T) {
	srcs := []driven.Source{
		unreachable(domain.SourceConditions),
		&mockSource{kind: domain.SourceRxNorm, err: fmt.Errorf("%w: 429", domain.ErrRateLimited)},
		&mockSource{kind: domain.SourceOpenFDA, err: domain.ErrMalformedResponse},
		&mockSource{kind: domain.SourceUMLS, err: domain.ErrAuthRequired},
	}
	service := NewLookupService(failingTermStore{memory.NewTermStore()}, srcs, testConfig())

	results, err := service.LookupMany(context.Background(), []string{"xyz"}, domain.LookupOptions{})

	require.NoError(t, err)
	require.Len(t, results, 1)
	r := results[0]
	assert.False(t, r.Found)
	assert.NotNil(t, r.Entries)
	assert.Empty(t, r.Entries)
	assert.Equal(t, "No data found for 'xyz'.", r.Message)
	assert.Equal(t, map[domain.SourceKind]domain.ErrorKind{
		domain.SourceLocal:      domain.ErrorKindIOFailure,
		domain.SourceConditions: domain.ErrorKindUnreachable,
		domain.SourceRxNorm:     domain.ErrorKindRateLimited,
		domain.SourceOpenFDA:    domain.ErrorKindMalformedResponse,
		domain.SourceUMLS:       domain.ErrorKindAuthMissing,
	}, r.SourceErrors)
}

func TestLookupService_SeededKeywordSurvivesExternalOutage(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTermStore()
	_, err := store.Seed(ctx, []domain.SeedRecord{{Keyword: "ABG", Definition: "Arterial blood gas"}})
	require.NoError(t, err)

	var srcs []driven.Source
	for _, kind := range domain.ExternalSourceKinds() {
		srcs = append(srcs, unreachable(kind))
	}
	service := NewLookupService(store, srcs, testConfig())

	results, err := service.LookupMany(ctx, []string{"ABG"}, domain.LookupOptions{})

	require.NoError(t, err)
	r := results[0]
	assert.True(t, r.Found)
	require.Len(t, r.Entries, 1)
	e := r.Entries[0]
	assert.Equal(t, domain.SourceLocal, e.Source)
	assert.Equal(t, domain.CategoryAbbreviation, e.Category)
	assert.Equal(t, "Arterial blood gas", e.Payload.Definition.Definition)
	assert.Equal(t, domain.OriginSeeded, e.Payload.Definition.Origin)
	assert.Len(t, r.SourceErrors, len(domain.ExternalSourceKinds()))
	assert.NotContains(t, r.SourceErrors, domain.SourceLocal)
	assert.Empty(t, r.Message)
}

func TestLookupService_DrugWithLabelTimeout(t *testing.T) {
	rxnorm := &mockSource{kind: domain.SourceRxNorm, entries: map[string][]domain.LookupEntry{
		"metformin": {drugEntry("metformin", "6809")},
	}}
	openfda := &mockSource{kind: domain.SourceOpenFDA, delay: time.Minute}
	service := NewLookupService(memory.NewTermStore(), []driven.Source{rxnorm, openfda},
		LookupConfig{Timeout: 50 * time.Millisecond})

	results, err := service.LookupMany(context.Background(), []string{"metformin"}, domain.LookupOptions{})

	require.NoError(t, err)
	r := results[0]
	assert.True(t, r.Found)
	require.Len(t, r.Entries, 1)
	assert.Equal(t, domain.CategoryDrug, r.Entries[0].Category)
	assert.Equal(t, domain.SourceRxNorm, r.Entries[0].Source)
	assert.Equal(t, map[domain.SourceKind]domain.ErrorKind{
		domain.SourceOpenFDA: domain.ErrorKindTimeout,
	}, r.SourceErrors)
}

func TestLookupService_AbandonsSourceIgnoringContext(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	stuck := &mockSource{kind: domain.SourceHealthTopics, block: block}
	service := NewLookupService(nil, []driven.Source{stuck}, LookupConfig{Timeout: 30 * time.Millisecond})

	done := make(chan []domain.AggregatedResult, 1)
	go func() {
		results, err := service.LookupMany(context.Background(), []string{"asthma"}, domain.LookupOptions{})
		assert.NoError(t, err)
		done <- results
	}()

	select {
	case results := <-done:
		assert.Equal(t, domain.ErrorKindTimeout, results[0].SourceErrors[domain.SourceHealthTopics])
	case <-time.After(5 * time.Second):
		t.Fatal("lookup did not return after the source deadline")
	}
}

func TestLookupService_PerSourceTimeout(t *testing.T) {
	slow := &mockSource{kind: domain.SourceUMLS, delay: 100 * time.Millisecond,
		entries: map[string][]domain.LookupEntry{"x": {conditionEntry("x", "X")}}}
	cfg := LookupConfig{
		Timeout:        time.Second,
		SourceTimeouts: map[domain.SourceKind]time.Duration{domain.SourceUMLS: 10 * time.Millisecond},
	}
	service := NewLookupService(nil, []driven.Source{slow}, cfg)

	results, err := service.LookupMany(context.Background(), []string{"x"}, domain.LookupOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.ErrorKindTimeout, results[0].SourceErrors[domain.SourceUMLS])

	// The batch option wins over the per-source setting.
	results, err = service.LookupMany(context.Background(), []string{"x"},
		domain.LookupOptions{Timeout: time.Second})
	require.NoError(t, err)
	assert.True(t, results[0].Found)
}

func TestLookupService_RecoversPanickingSource(t *testing.T) {
	service := NewLookupService(nil, []driven.Source{panicSource{}}, testConfig())

	results, err := service.LookupMany(context.Background(), []string{"abg"}, domain.LookupOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.ErrorKindUnreachable, results[0].SourceErrors[domain.SourceUMLS])
}

func TestLookupService_DeduplicatesAndOrders(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTermStore()
	_, err := store.Seed(ctx, []domain.SeedRecord{{Keyword: "MI", Definition: "myocardial infarction"}})
	require.NoError(t, err)

	dup := domain.LookupEntry{
		Category: domain.CategoryAbbreviation,
		Payload: domain.Payload{Definition: &domain.Definition{
			Keyword: "mi", Definition: "Myocardial  Infarction", Origin: domain.OriginSeeded,
		}},
	}
	abbrev := &mockSource{kind: domain.SourceAbbreviation, entries: map[string][]domain.LookupEntry{
		"MI": {dup},
	}}
	topics := &mockSource{kind: domain.SourceHealthTopics, entries: map[string][]domain.LookupEntry{
		"MI": {conditionEntry("MI", "Heart attack"), conditionEntry("MI", "Myocardial infarction")},
	}}
	conditions := &mockSource{kind: domain.SourceConditions, entries: map[string][]domain.LookupEntry{
		"MI": {conditionEntry("MI", "myocardial infarction")},
	}}
	umls := &mockSource{kind: domain.SourceUMLS, entries: map[string][]domain.LookupEntry{
		"MI": {{
			Category: domain.CategoryConcept,
			Payload:  domain.Payload{Concept: &domain.Concept{CUI: "C0027051", Name: "Myocardial Infarction"}},
		}, {
			Category: domain.CategoryConcept, // empty payload is dropped
		}},
	}}
	// Adapter order deliberately differs from priority order.
	service := NewLookupService(store, []driven.Source{umls, topics, abbrev, conditions}, testConfig())

	results, err := service.LookupMany(ctx, []string{"MI"}, domain.LookupOptions{})

	require.NoError(t, err)
	entries := results[0].Entries
	require.Len(t, entries, 4)

	assert.Equal(t, domain.SourceLocal, entries[0].Source)
	assert.Equal(t, domain.CategoryAbbreviation, entries[0].Category)

	assert.Equal(t, domain.SourceConditions, entries[1].Source)
	assert.Equal(t, "myocardial infarction", entries[1].Payload.Condition.PrimaryName)

	assert.Equal(t, domain.SourceHealthTopics, entries[2].Source)
	assert.Equal(t, "Heart attack", entries[2].Payload.Condition.PrimaryName)

	assert.Equal(t, domain.SourceUMLS, entries[3].Source)
	assert.Equal(t, domain.CategoryConcept, entries[3].Category)

	for i, e := range entries {
		assert.Equal(t, i, e.Rank)
		assert.Equal(t, "MI", e.Keyword)
	}
}

func TestLookupService_RestrictsSources(t *testing.T) {
	conditions := &mockSource{kind: domain.SourceConditions}
	rxnorm := &mockSource{kind: domain.SourceRxNorm}
	service := NewLookupService(memory.NewTermStore(), []driven.Source{conditions, rxnorm}, testConfig())

	results, err := service.LookupMany(context.Background(), []string{"a", "b"},
		domain.LookupOptions{Sources: []domain.SourceKind{domain.SourceRxNorm}})

	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Zero(t, conditions.calls.Load())
	assert.Equal(t, int32(2), rxnorm.calls.Load())
}

func TestLookupService_BoundsConcurrency(t *testing.T) {
	src := &mockSource{kind: domain.SourceConditions, delay: 20 * time.Millisecond}
	service := NewLookupService(nil, []driven.Source{src}, LookupConfig{MaxConcurrency: 2, Timeout: time.Second})

	keywords := make([]string, 8)
	for i := range keywords {
		keywords[i] = fmt.Sprintf("kw%d", i)
	}
	_, err := service.LookupMany(context.Background(), keywords, domain.LookupOptions{})

	require.NoError(t, err)
	assert.Equal(t, int32(8), src.calls.Load())
	assert.LessOrEqual(t, src.peak.Load(), int32(2))
}

func TestLookupService_NotifiesObserver(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTermStore()
	_, err := store.Seed(ctx, []domain.SeedRecord{{Keyword: "ABG", Definition: "arterial blood gas"}})
	require.NoError(t, err)

	service := NewLookupService(store, []driven.Source{unreachable(domain.SourceConditions)}, testConfig())
	observer := newMockObserver()
	service.SetObserver(observer)

	_, err = service.LookupMany(ctx, []string{"ABG", "nothing"}, domain.LookupOptions{})

	require.NoError(t, err)
	assert.ElementsMatch(t, []driven.SourceOutcome{driven.OutcomeHit, driven.OutcomeEmpty},
		observer.sources[domain.SourceLocal])
	assert.Equal(t, []driven.SourceOutcome{driven.OutcomeError, driven.OutcomeError},
		observer.sources[domain.SourceConditions])
	assert.Equal(t, domain.ErrorKindUnreachable, observer.errKinds[domain.SourceConditions])
	assert.Equal(t, []bool{true, false}, observer.found)
}

func TestLookupService_AddThenLookup(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTermStore()
	keywords := NewKeywordService(store)
	lookup := NewLookupService(store, nil, testConfig())

	_, err := keywords.Add(ctx, "THR", "total hip replacement", domain.KindTerm)
	require.NoError(t, err)

	results, err := lookup.LookupMany(ctx, []string{"thr"}, domain.LookupOptions{})
	require.NoError(t, err)
	require.True(t, results[0].Found)
	e := results[0].Entries[0]
	assert.Equal(t, domain.CategoryConcept, e.Category)
	assert.Equal(t, "total hip replacement", e.Payload.Definition.Definition)
	assert.Equal(t, domain.OriginCustom, e.Payload.Definition.Origin)

	require.NoError(t, keywords.Remove(ctx, "THR"))
	results, err = lookup.LookupMany(ctx, []string{"thr"}, domain.LookupOptions{})
	require.NoError(t, err)
	assert.False(t, results[0].Found)
}
