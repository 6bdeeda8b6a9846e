package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disaster-funding-service/internal/dataset"
	"github.com/couchcryptid/disaster-funding-service/internal/domain"
	"github.com/couchcryptid/disaster-funding-service/internal/observability"
	"github.com/couchcryptid/disaster-funding-service/internal/pipeline"
)

// --- mocks ---

type mockLoader struct {
	ds   *dataset.Dataset
	errs []error
	got  dataset.Sources
}

func (m *mockLoader) Load(_ context.Context, src dataset.Sources) (*dataset.Dataset, []error) {
	m.got = src
	return m.ds, m.errs
}

type mockPublisher struct {
	mu       sync.Mutex
	failures int
	calls    int
	regions  []domain.RegionAggregate
	loadedAt time.Time
}

func (m *mockPublisher) PublishSnapshot(_ context.Context, loadedAt time.Time, regions []domain.RegionAggregate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.failures {
		return errors.New("broker unavailable")
	}
	m.regions = regions
	m.loadedAt = loadedAt
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDataset() *dataset.Dataset {
	loadedAt := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return dataset.New([]domain.DisasterRecord{
		{ID: "tx", Region: "TX", IncidentType: "Hurricane", Event: "Harvey", IncidentStart: time.Date(2017, 8, 25, 0, 0, 0, 0, time.UTC), IHPTotal: 1000},
		{ID: "la", Region: "LA", IncidentType: "Flood", Event: "Baton Rouge", IncidentStart: time.Date(2016, 8, 12, 0, 0, 0, 0, time.UTC), PATotal: 500},
		{ID: "zz", Region: "ZZ", IncidentType: "Fire", IncidentStart: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), PATotal: 5},
	}, []domain.DistrictFunding{{StateName: "Texas", DistrictLabel: "TX-18", TotalFunding: 10}}, nil, loadedAt)
}

// --- tests ---

func TestPipeline_Run_Success(t *testing.T) {
	ds := testDataset()
	ldr := &mockLoader{ds: ds}
	store := pipeline.NewStore()
	metrics := observability.NewMetricsForTesting()
	src := dataset.Sources{Disasters: "data/disasters.csv"}

	p := pipeline.New(ldr, src, store, nil, discardLogger(), metrics)
	require.Error(t, p.CheckReadiness(context.Background()), "not ready before load")

	require.NoError(t, p.Run(context.Background()))

	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, src, ldr.got)
	got, err := store.Get()
	require.NoError(t, err)
	assert.Same(t, ds, got)

	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.DatasetLoaded), 0)
	assert.InDelta(t, 3.0, testutil.ToFloat64(metrics.DatasetRecords.WithLabelValues("disasters")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.DatasetRecords.WithLabelValues("districts")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.UnrecognizedRecords), 0)
}

func TestPipeline_Run_LoadFailureStaysNotReady(t *testing.T) {
	ldr := &mockLoader{errs: []error{&dataset.LoadError{Dataset: "disasters", Err: errors.New("no such file")}}}
	store := pipeline.NewStore()
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ldr, dataset.Sources{}, store, nil, discardLogger(), metrics)

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such file")
	assert.Error(t, p.CheckReadiness(context.Background()))

	_, err = store.Get()
	assert.ErrorIs(t, err, dataset.ErrNotLoaded)
	assert.InDelta(t, 0.0, testutil.ToFloat64(metrics.DatasetLoaded), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.LoadErrors.WithLabelValues("disasters")), 0)
}

func TestPipeline_Run_OptionalFailuresStillReady(t *testing.T) {
	ldr := &mockLoader{
		ds:   testDataset(),
		errs: []error{&dataset.LoadError{Dataset: "geometry", Err: errors.New("bad json")}},
	}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ldr, dataset.Sources{}, pipeline.NewStore(), nil, discardLogger(), metrics)

	require.NoError(t, p.Run(context.Background()))
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.LoadErrors.WithLabelValues("geometry")), 0)
}

func TestPipeline_Run_PublishesSnapshot(t *testing.T) {
	ds := testDataset()
	pub := &mockPublisher{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(&mockLoader{ds: ds}, dataset.Sources{}, pipeline.NewStore(), pub, discardLogger(), metrics)
	require.NoError(t, p.Run(context.Background()))

	require.Len(t, pub.regions, 2, "unrecognized regions are not published")
	assert.Equal(t, "TX", pub.regions[0].Region)
	assert.Equal(t, "LA", pub.regions[1].Region)
	assert.Equal(t, ds.LoadedAt, pub.loadedAt)
	assert.InDelta(t, 2.0, testutil.ToFloat64(metrics.SnapshotsPublished), 0)
}

func TestPipeline_Run_PublishRetries(t *testing.T) {
	pub := &mockPublisher{failures: 1}

	p := pipeline.New(&mockLoader{ds: testDataset()}, dataset.Sources{}, pipeline.NewStore(), pub, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, 2, pub.calls)
	assert.Len(t, pub.regions, 2)
}

func TestPipeline_Run_PublishFailureKeepsReadiness(t *testing.T) {
	pub := &mockPublisher{failures: 10}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := pipeline.New(&mockLoader{ds: testDataset()}, dataset.Sources{}, pipeline.NewStore(), pub, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, p.Run(ctx))

	assert.Equal(t, 1, pub.calls, "cancelled context stops retries")
	assert.NoError(t, p.CheckReadiness(context.Background()))
}
