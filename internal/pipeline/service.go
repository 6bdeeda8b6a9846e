package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/disaster-funding-service/internal/dataset"
	"github.com/couchcryptid/disaster-funding-service/internal/domain"
	"github.com/couchcryptid/disaster-funding-service/internal/observability"
)

var (
	// ErrUnknownEvent is returned when a requested record ID is not loaded.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrUnknownRegion is returned for region codes outside the states, DC
	// and territories.
	ErrUnknownRegion = errors.New("unknown region")
	// ErrNoEvents is returned when a fact sheet is requested without events.
	ErrNoEvents = errors.New("no events selected")
)

// Service answers dashboard queries against the loaded dataset.
type Service struct {
	store    *Store
	cache    *lruCache[AggregateResult]
	strategy domain.ThresholdStrategy
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewService creates a Service whose aggregate cache holds cacheSize results.
func NewService(store *Store, cacheSize int, strategy domain.ThresholdStrategy, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if strategy == "" {
		strategy = domain.StrategyProportional
	}
	return &Service{
		store:    store,
		cache:    newLRUCache[AggregateResult](cacheSize),
		strategy: strategy,
		logger:   logger,
		metrics:  metrics,
	}
}

// SourceInfo describes a funding source for the dashboard legend.
type SourceInfo struct {
	ID    domain.FundingSource `json:"id"`
	Label string               `json:"label"`
}

// Meta describes what the loaded dataset contains.
type Meta struct {
	LoadedAt        time.Time                `json:"loaded_at"`
	Records         int                      `json:"records"`
	Unrecognized    int                      `json:"unrecognized_records"`
	Regions         []string                 `json:"regions"`
	Types           []string                 `json:"types"`
	Sources         []SourceInfo             `json:"sources"`
	Earliest        time.Time                `json:"earliest,omitzero"`
	Latest          time.Time                `json:"latest,omitzero"`
	Districts       int                      `json:"districts"`
	GeometryLoaded  bool                     `json:"geometry_loaded"`
	DefaultStrategy domain.ThresholdStrategy `json:"default_strategy"`
}

// AggregateResult is the per-region rollup and color scale for one set of
// criteria.
type AggregateResult struct {
	Strategy     domain.ThresholdStrategy `json:"strategy"`
	Regions      []domain.RegionAggregate `json:"regions"`
	Unrecognized map[string]int           `json:"unrecognized,omitempty"`
	TotalFunding float64                  `json:"total_funding"`
	TotalEvents  int                      `json:"total_events"`
	Scale        domain.ColorScale        `json:"scale"`

	aggregation domain.Aggregation
}

// Meta summarizes the loaded dataset.
func (s *Service) Meta() (Meta, error) {
	ds, err := s.store.Get()
	if err != nil {
		return Meta{}, err
	}
	sources := make([]SourceInfo, 0, len(domain.AllSources))
	for _, src := range domain.AllSources {
		sources = append(sources, SourceInfo{ID: src, Label: src.Label()})
	}
	earliest, latest := ds.DateRange()
	return Meta{
		LoadedAt:        ds.LoadedAt,
		Records:         len(ds.Records),
		Unrecognized:    ds.Unrecognized(),
		Regions:         ds.Regions(),
		Types:           ds.Types(),
		Sources:         sources,
		Earliest:        earliest,
		Latest:          latest,
		Districts:       len(ds.Districts),
		GeometryLoaded:  ds.Geometry != nil,
		DefaultStrategy: s.strategy,
	}, nil
}

// Records returns the records matching c.
func (s *Service) Records(c domain.FilterCriteria) ([]domain.DisasterRecord, error) {
	defer s.observe("records")()
	ds, err := s.store.Get()
	if err != nil {
		return nil, err
	}
	return domain.Filter(ds.Records, c), nil
}

// Aggregates filters, aggregates and computes thresholds for c. An empty
// strategy uses the configured default. Results are memoized.
func (s *Service) Aggregates(c domain.FilterCriteria, strategy domain.ThresholdStrategy) (AggregateResult, error) {
	defer s.observe("aggregates")()
	ds, err := s.store.Get()
	if err != nil {
		return AggregateResult{}, err
	}
	return s.aggregates(ds, c, strategy), nil
}

func (s *Service) aggregates(ds *dataset.Dataset, c domain.FilterCriteria, strategy domain.ThresholdStrategy) AggregateResult {
	if strategy == "" {
		strategy = s.strategy
	}
	key := criteriaKey(c, strategy)
	if res, ok := s.cache.get(key); ok {
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return res
	}
	s.metrics.CacheLookups.WithLabelValues("miss").Inc()

	agg := domain.Aggregate(domain.Filter(ds.Records, c), c.Sources)
	res := AggregateResult{
		Strategy:     strategy,
		Regions:      agg.Sorted(),
		Unrecognized: agg.Unrecognized,
		TotalFunding: agg.TotalFunding(),
		TotalEvents:  agg.TotalEvents(),
		Scale:        domain.NewColorScale(domain.ComputeThresholds(agg, strategy)),
		aggregation:  agg,
	}
	if len(agg.Unrecognized) > 0 {
		s.logger.Debug("records with unrecognized regions excluded", "regions", agg.Unrecognized)
	}
	s.cache.put(key, res)
	return res
}

// Map joins the aggregation for c onto the region geometry. Without loaded
// geometry the collection has no features.
func (s *Service) Map(c domain.FilterCriteria, strategy domain.ThresholdStrategy) (dataset.FeatureCollection, AggregateResult, error) {
	defer s.observe("map")()
	ds, err := s.store.Get()
	if err != nil {
		return dataset.FeatureCollection{}, AggregateResult{}, err
	}
	res := s.aggregates(ds, c, strategy)
	return dataset.JoinFunding(ds.Geometry, res.aggregation, res.Scale), res, nil
}

// Event returns one record with its assistance estimate.
func (s *Service) Event(id string) (domain.EventDetail, error) {
	ds, err := s.store.Get()
	if err != nil {
		return domain.EventDetail{}, err
	}
	r, ok := ds.Record(id)
	if !ok {
		return domain.EventDetail{}, fmt.Errorf("%w: %s", ErrUnknownEvent, id)
	}
	return domain.NewEventDetail(r), nil
}

// RegionSummary returns annualized spend and top events for a region.
func (s *Service) RegionSummary(region string) (domain.RegionSummary, error) {
	defer s.observe("region")()
	ds, err := s.store.Get()
	if err != nil {
		return domain.RegionSummary{}, err
	}
	region = domain.NormalizeRegion(region)
	if !domain.IsKnownRegion(region) {
		return domain.RegionSummary{}, fmt.Errorf("%w: %s", ErrUnknownRegion, region)
	}
	return domain.SummarizeRegion(ds.Records, region, domain.Now()), nil
}

// FactSheet builds the fact sheet for the given record IDs. Repeated IDs
// are collapsed.
func (s *Service) FactSheet(ids []string, opts domain.FactSheetOptions) (domain.FactSheet, error) {
	defer s.observe("factsheet")()
	ds, err := s.store.Get()
	if err != nil {
		return domain.FactSheet{}, err
	}
	if len(ids) == 0 {
		return domain.FactSheet{}, ErrNoEvents
	}

	seen := make(map[string]bool, len(ids))
	selected := make([]domain.DisasterRecord, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		r, ok := ds.Record(id)
		if !ok {
			return domain.FactSheet{}, fmt.Errorf("%w: %s", ErrUnknownEvent, id)
		}
		selected = append(selected, r)
	}
	return domain.BuildFactSheet(selected, ds.Records, ds.Districts, opts, domain.Now()), nil
}

func (s *Service) observe(op string) func() {
	start := time.Now()
	return func() {
		s.metrics.QueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

// criteriaKey renders c in a canonical form so equivalent selections share a
// cache entry. Nil and empty source lists are equivalent.
func criteriaKey(c domain.FilterCriteria, strategy domain.ThresholdStrategy) string {
	regions := make([]string, 0, len(c.Regions))
	for _, r := range c.Regions {
		regions = append(regions, domain.NormalizeRegion(r))
	}
	slices.Sort(regions)
	regions = slices.Compact(regions)

	types := slices.Clone(c.Types)
	slices.Sort(types)
	types = slices.Compact(types)

	sources := make([]string, 0, len(c.Sources))
	for _, src := range c.Sources {
		sources = append(sources, string(src))
	}
	slices.Sort(sources)
	sources = slices.Compact(sources)

	from, until := c.Window()
	return fmt.Sprintf("%s|%d|%d|%s|%t|%s|%s",
		strategy, from.Unix(), until.Unix(),
		strings.Join(regions, ","), c.IncludeTerritories,
		strings.Join(types, ","), strings.Join(sources, ","),
	)
}
