package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/disaster-funding-service/internal/dataset"
	"github.com/couchcryptid/disaster-funding-service/internal/domain"
	"github.com/couchcryptid/disaster-funding-service/internal/observability"
)

// DatasetLoader fetches and parses the configured resources.
type DatasetLoader interface {
	Load(ctx context.Context, src dataset.Sources) (*dataset.Dataset, []error)
}

// SnapshotPublisher receives the all-sources region aggregation once the
// dataset has loaded.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, loadedAt time.Time, regions []domain.RegionAggregate) error
}

const maxPublishAttempts = 3

// Pipeline performs the one-shot startup load and reports readiness.
type Pipeline struct {
	loader    DatasetLoader
	sources   dataset.Sources
	store     *Store
	publisher SnapshotPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline. publisher may be nil.
func New(l DatasetLoader, src dataset.Sources, store *Store, publisher SnapshotPublisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		loader:    l,
		sources:   src,
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the disaster dataset has loaded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("disaster dataset has not loaded")
	}
	return nil
}

// Run loads every resource once. A failed disaster load is returned and
// leaves the service not ready; it is not retried.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("dataset load started", "disasters", p.sources.Disasters)
	start := time.Now()

	ds, errs := p.loader.Load(ctx, p.sources)
	p.metrics.LoadDuration.Observe(time.Since(start).Seconds())

	for _, err := range errs {
		p.metrics.LoadErrors.WithLabelValues(loadErrorDataset(err)).Inc()
	}
	if ds == nil {
		err := errors.Join(errs...)
		if err == nil {
			err = errors.New("loader returned no dataset")
		}
		p.logger.Error("dataset load failed", "error", err)
		return err
	}

	p.store.Set(ds)
	p.recordLoaded(ds)
	p.ready.Store(true)
	p.logger.Info("dataset loaded",
		"records", len(ds.Records),
		"districts", len(ds.Districts),
		"geometry", ds.Geometry != nil,
		"unrecognized", ds.Unrecognized(),
		"duration", time.Since(start),
	)

	if p.publisher != nil {
		p.publish(ctx, ds)
	}
	return nil
}

func (p *Pipeline) recordLoaded(ds *dataset.Dataset) {
	p.metrics.DatasetLoaded.Set(1)
	p.metrics.DatasetRecords.WithLabelValues("disasters").Set(float64(len(ds.Records)))
	p.metrics.DatasetRecords.WithLabelValues("districts").Set(float64(len(ds.Districts)))
	features := 0
	if ds.Geometry != nil {
		features = len(ds.Geometry.Features)
	}
	p.metrics.DatasetRecords.WithLabelValues("geometry").Set(float64(features))
	p.metrics.UnrecognizedRecords.Set(float64(ds.Unrecognized()))
}

// publish sends the snapshot with a short exponential backoff. Failures are
// logged only; readiness does not depend on the snapshot.
func (p *Pipeline) publish(ctx context.Context, ds *dataset.Dataset) {
	regions := domain.Aggregate(ds.Records, domain.AllSources).Sorted()

	backoff := 200 * time.Millisecond
	maxBackoff := 2 * time.Second

	for attempt := 1; attempt <= maxPublishAttempts; attempt++ {
		err := p.publisher.PublishSnapshot(ctx, ds.LoadedAt, regions)
		if err == nil {
			p.metrics.SnapshotsPublished.Add(float64(len(regions)))
			p.logger.Info("region snapshot published", "regions", len(regions))
			return
		}
		p.logger.Warn("publish snapshot failed", "error", err, "attempt", attempt)
		if attempt == maxPublishAttempts || !sleepWithContext(ctx, backoff) {
			break
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
	p.logger.Error("region snapshot not published")
}

func loadErrorDataset(err error) string {
	var loadErr *dataset.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Dataset
	}
	return "unknown"
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
