// Package dataset loads the disaster, district and geometry resources into
// an immutable in-memory Dataset.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/couchcryptid/disaster-funding-service/internal/domain"
)

// ErrNotLoaded is returned by queries issued before the dataset has loaded.
var ErrNotLoaded = errors.New("dataset not loaded")

// Dataset is the loaded, read-only state shared by all requests.
type Dataset struct {
	Records   []domain.DisasterRecord
	Districts []domain.DistrictFunding
	Geometry  *FeatureCollection
	LoadedAt  time.Time

	byID map[string]int
}

// New indexes records by ID. Later duplicates of an ID are ignored for lookup.
func New(records []domain.DisasterRecord, districts []domain.DistrictFunding, geometry *FeatureCollection, loadedAt time.Time) *Dataset {
	byID := make(map[string]int, len(records))
	for i, r := range records {
		if _, dup := byID[r.ID]; !dup {
			byID[r.ID] = i
		}
	}
	return &Dataset{
		Records:   records,
		Districts: districts,
		Geometry:  geometry,
		LoadedAt:  loadedAt,
		byID:      byID,
	}
}

// Record looks up a record by ID.
func (d *Dataset) Record(id string) (domain.DisasterRecord, bool) {
	i, ok := d.byID[id]
	if !ok {
		return domain.DisasterRecord{}, false
	}
	return d.Records[i], true
}

// Types lists the distinct incident types, sorted.
func (d *Dataset) Types() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.Records {
		if r.IncidentType != "" && !seen[r.IncidentType] {
			seen[r.IncidentType] = true
			out = append(out, r.IncidentType)
		}
	}
	sort.Strings(out)
	return out
}

// Regions lists the recognized regions present in the data, sorted.
func (d *Dataset) Regions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.Records {
		if domain.IsKnownRegion(r.Region) && !seen[r.Region] {
			seen[r.Region] = true
			out = append(out, r.Region)
		}
	}
	sort.Strings(out)
	return out
}

// DateRange returns the earliest and latest incident start dates.
func (d *Dataset) DateRange() (earliest, latest time.Time) {
	for _, r := range d.Records {
		if !r.HasStart() {
			continue
		}
		if earliest.IsZero() || r.IncidentStart.Before(earliest) {
			earliest = r.IncidentStart
		}
		if r.IncidentStart.After(latest) {
			latest = r.IncidentStart
		}
	}
	return earliest, latest
}

// Unrecognized counts records whose region is not a state, DC or territory.
func (d *Dataset) Unrecognized() int {
	n := 0
	for _, r := range d.Records {
		if !domain.IsKnownRegion(r.Region) {
			n++
		}
	}
	return n
}

// Sources names the resource locations to load. Districts and Geometry are
// optional.
type Sources struct {
	Disasters string
	Districts string
	Geometry  string
}

// Loader fetches and parses every configured resource.
type Loader struct {
	fetcher *Fetcher
	logger  *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(fetcher *Fetcher, logger *slog.Logger) *Loader {
	return &Loader{fetcher: fetcher, logger: logger}
}

// LoadError reports which resource failed to load.
type LoadError struct {
	Dataset string
	Err     error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.Dataset, e.Err) }

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads the disaster CSV (required) and the optional district CSV and
// region geometry. Optional resources that fail are logged and left empty;
// their errors are returned alongside the dataset.
func (l *Loader) Load(ctx context.Context, src Sources) (*Dataset, []error) {
	var errs []error

	records, err := l.disasters(ctx, src.Disasters)
	if err != nil {
		return nil, []error{&LoadError{Dataset: "disasters", Err: err}}
	}

	var districts []domain.DistrictFunding
	if src.Districts != "" {
		districts, err = l.districts(ctx, src.Districts)
		if err != nil {
			l.logger.Warn("district dataset unavailable", "location", src.Districts, "error", err)
			errs = append(errs, &LoadError{Dataset: "districts", Err: err})
		}
	}

	var geometry *FeatureCollection
	if src.Geometry != "" {
		geometry, err = l.geometry(ctx, src.Geometry)
		if err != nil {
			l.logger.Warn("region geometry unavailable", "location", src.Geometry, "error", err)
			errs = append(errs, &LoadError{Dataset: "geometry", Err: err})
		}
	}

	return New(records, districts, geometry, domain.Now()), errs
}

func (l *Loader) disasters(ctx context.Context, location string) ([]domain.DisasterRecord, error) {
	rc, err := l.fetcher.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ParseDisasters(rc)
}

func (l *Loader) districts(ctx context.Context, location string) ([]domain.DistrictFunding, error) {
	rc, err := l.fetcher.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ParseDistricts(rc)
}

func (l *Loader) geometry(ctx context.Context, location string) (*FeatureCollection, error) {
	rc, err := l.fetcher.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ParseGeometry(rc)
}
