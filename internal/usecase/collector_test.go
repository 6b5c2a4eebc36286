package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"FundFlow/internal/domain/models"
	drepo "FundFlow/internal/domain/repository"
	applogger "FundFlow/pkg/logger"
	"FundFlow/pkg/workerpool"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

type fakeSource struct {
	name    string
	snap    *models.FlowSnapshot
	err     error
	fetches int
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Fetch(context.Context) (*models.FlowSnapshot, error) {
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	return s.snap, nil
}

type fakeRepo struct {
	mu            sync.Mutex
	raws          []*models.RawSnapshot
	results       []*models.FlowResult
	saveRawErr    error
	saveResultErr error
	latestCalls   int
}

func (r *fakeRepo) SaveRaw(_ context.Context, raw *models.RawSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveRawErr != nil {
		return r.saveRawErr
	}
	r.raws = append(r.raws, raw)
	return nil
}

func (r *fakeRepo) FindRawByDate(_ context.Context, date models.Date) ([]*models.RawSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RawSnapshot
	for _, raw := range r.raws {
		if raw.DataDate.Equal(date.Time) {
			out = append(out, raw)
		}
	}
	return out, nil
}

func (r *fakeRepo) SaveResult(_ context.Context, result *models.FlowResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveResultErr != nil {
		return r.saveResultErr
	}
	r.results = append(r.results, result)
	return nil
}

func (r *fakeRepo) FindLatestResult(context.Context) (*models.FlowResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latestCalls++
	if len(r.results) == 0 {
		return nil, models.ErrNoData
	}
	return r.results[len(r.results)-1], nil
}

func (r *fakeRepo) FindResultByDate(_ context.Context, date models.Date) (*models.FlowResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if res.DataDate.Equal(date.Time) {
			return res, nil
		}
	}
	return nil, models.ErrNoData
}

func (r *fakeRepo) FindResultsInRange(context.Context, models.Date, models.Date) ([]*models.FlowResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results, nil
}

func (r *fakeRepo) FindRecentResults(context.Context, models.Date) ([]*models.FlowResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results, nil
}

func (r *fakeRepo) ConfidenceStats(context.Context, models.Date) (*models.ConfidenceStats, error) {
	return &models.ConfidenceStats{}, nil
}

func (r *fakeRepo) NetInflowStats(context.Context, models.Date) (*models.NetInflowStats, error) {
	return &models.NetInflowStats{}, nil
}

func (r *fakeRepo) AverageQualityScore(context.Context, models.Date) (float64, error) {
	return 0, nil
}

func (r *fakeRepo) CountValidationFailed(context.Context, models.Date) (int64, error) {
	return 0, nil
}

func (r *fakeRepo) SourceStats(context.Context, models.Date) ([]*models.SourceAvailability, error) {
	return nil, nil
}

func (r *fakeRepo) Health(context.Context) error { return nil }
func (r *fakeRepo) Close() error                 { return nil }

func (r *fakeRepo) savedRaws() []*models.RawSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.RawSnapshot(nil), r.raws...)
}

func (r *fakeRepo) savedResults() []*models.FlowResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.FlowResult(nil), r.results...)
}

type fakeMetrics struct {
	mu          sync.Mutex
	collections map[string]int
	errorKinds  map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		collections: make(map[string]int),
		errorKinds:  make(map[string]int),
	}
}

func (m *fakeMetrics) RecordCollection(source, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[source+"/"+status]++
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorKinds[kind]++
}

func (m *fakeMetrics) RecordNetInflow(string, float64) {}
func (m *fakeMetrics) RecordLatency(string, float64)   {}
func (m *fakeMetrics) RecordClients(int)               {}

func (m *fakeMetrics) collection(source, status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collections[source+"/"+status]
}

type fakeHub struct {
	mu        sync.Mutex
	broadcast []*models.FlowResult
}

func (h *fakeHub) Broadcast(result *models.FlowResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcast = append(h.broadcast, result)
}

func (h *fakeHub) ClientCount() int { return 0 }

func (h *fakeHub) broadcasts() []*models.FlowResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*models.FlowResult(nil), h.broadcast...)
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*models.FlowResult
	err       error
}

func (p *fakePublisher) PublishResult(_ context.Context, result *models.FlowResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, result)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

// newTestCollector builds a collector whose calculator runs synchronously:
// the pool is never started, so submitted tasks execute on the caller.
func newTestCollector(t *testing.T, repo *fakeRepo, metrics *fakeMetrics, hub drepo.Broadcaster, sources ...drepo.Source) *Collector {
	t.Helper()
	log := testLogger(t)
	pool := workerpool.New()
	calc := NewCalculator(repo, nil, hub, pool, metrics, log)
	return NewCollector(sources, repo, calc, metrics, log, time.Minute)
}

func TestCollectPrimarySuccess(t *testing.T) {
	repo := &fakeRepo{}
	metrics := newFakeMetrics()
	hub := &fakeHub{}
	primary := &fakeSource{name: models.SourceYahoo, snap: cleanSnapshot()}
	backup := &fakeSource{name: models.SourceAlphaVantage, snap: cleanSnapshot()}

	c := newTestCollector(t, repo, metrics, hub, primary, backup)
	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("collect: %v", err)
	}

	if backup.fetches != 0 {
		t.Fatalf("backup must not be touched when primary succeeds")
	}
	raws := repo.savedRaws()
	if len(raws) != 1 {
		t.Fatalf("expected 1 raw snapshot, got %d", len(raws))
	}
	if raws[0].DataSource != models.SourceYahoo {
		t.Fatalf("primary snapshot must keep its source name, got %q", raws[0].DataSource)
	}
	if metrics.collection(models.SourceYahoo, "ok") != 1 {
		t.Fatalf("expected ok collection metric")
	}
	results := repo.savedResults()
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if got := hub.broadcasts(); len(got) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(got))
	}
}

func TestCollectFailoverTagsBackupSource(t *testing.T) {
	repo := &fakeRepo{}
	metrics := newFakeMetrics()
	hub := &fakeHub{}
	primary := &fakeSource{name: models.SourceYahoo, err: models.ErrSourceUnavailable}
	snap := cleanSnapshot()
	snap.DataSource = models.SourceAlphaVantage
	backup := &fakeSource{name: models.SourceAlphaVantage, snap: snap}

	c := newTestCollector(t, repo, metrics, hub, primary, backup)
	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("collect: %v", err)
	}

	if primary.fetches != 1 || backup.fetches != 1 {
		t.Fatalf("each source must be attempted exactly once, got %d/%d", primary.fetches, backup.fetches)
	}
	raws := repo.savedRaws()
	if len(raws) != 1 {
		t.Fatalf("expected 1 raw snapshot, got %d", len(raws))
	}
	want := models.BackupPrefix + models.SourceAlphaVantage
	if raws[0].DataSource != want {
		t.Fatalf("expected source %q, got %q", want, raws[0].DataSource)
	}
	if metrics.collection(models.SourceYahoo, "fetch_error") != 1 {
		t.Fatalf("expected fetch_error metric for primary")
	}
}

func TestCollectValidationFailureFailsOver(t *testing.T) {
	repo := &fakeRepo{}
	metrics := newFakeMetrics()
	hub := &fakeHub{}

	bad := cleanSnapshot()
	bad.DailyNetInflow = nil
	primary := &fakeSource{name: models.SourceYahoo, snap: bad}
	good := cleanSnapshot()
	good.DataSource = models.SourceAlphaVantage
	backup := &fakeSource{name: models.SourceAlphaVantage, snap: good}

	c := newTestCollector(t, repo, metrics, hub, primary, backup)
	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("collect: %v", err)
	}

	if metrics.collection(models.SourceYahoo, "validation_error") != 1 {
		t.Fatalf("expected validation_error metric for primary")
	}
	raws := repo.savedRaws()
	if len(raws) != 1 || raws[0].DataSource != models.BackupPrefix+models.SourceAlphaVantage {
		t.Fatalf("expected one backup-tagged snapshot, got %+v", raws)
	}
}

func TestCollectAllSourcesExhausted(t *testing.T) {
	repo := &fakeRepo{}
	metrics := newFakeMetrics()
	hub := &fakeHub{}
	primary := &fakeSource{name: models.SourceYahoo, err: models.ErrSourceUnavailable}
	backup := &fakeSource{name: models.SourceAlphaVantage, err: models.ErrSourceUnavailable}

	c := newTestCollector(t, repo, metrics, hub, primary, backup)
	err := c.Collect(context.Background())
	if !errors.Is(err, models.ErrAllSourcesExhausted) {
		t.Fatalf("expected ErrAllSourcesExhausted, got %v", err)
	}
	if len(repo.savedRaws()) != 0 {
		t.Fatalf("nothing may be persisted when every source fails")
	}
	if len(hub.broadcasts()) != 0 {
		t.Fatalf("nothing may be broadcast when every source fails")
	}
}

func TestCollectSaveRawErrorPropagates(t *testing.T) {
	repo := &fakeRepo{saveRawErr: fmt.Errorf("disk gone")}
	metrics := newFakeMetrics()
	hub := &fakeHub{}
	primary := &fakeSource{name: models.SourceYahoo, snap: cleanSnapshot()}

	c := newTestCollector(t, repo, metrics, hub, primary)
	if err := c.Collect(context.Background()); err == nil {
		t.Fatalf("expected save error to surface")
	}
	if len(repo.savedResults()) != 0 {
		t.Fatalf("no result may exist when the raw write failed")
	}
}

func TestCollectRecomputesCrossChecks(t *testing.T) {
	repo := &fakeRepo{}
	metrics := newFakeMetrics()
	hub := &fakeHub{}
	primary := &fakeSource{name: models.SourceYahoo, snap: cleanSnapshot()}

	c := newTestCollector(t, repo, metrics, hub, primary)
	if err := c.Collect(context.Background()); err != nil {
		t.Fatalf("collect: %v", err)
	}

	raw := repo.savedRaws()[0]
	if raw.CalculatedInflow == nil || *raw.CalculatedInflow != 421.00*1_200_000 {
		t.Fatalf("unexpected calculated inflow: %v", raw.CalculatedInflow)
	}
	wantIntensity := 505_200_000.0 / 450_000_000_000.0
	if raw.FlowIntensity == nil || *raw.FlowIntensity != wantIntensity {
		t.Fatalf("unexpected flow intensity: %v", raw.FlowIntensity)
	}
}
