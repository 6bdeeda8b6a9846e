package domain

import "sort"

// TypeStat is the per-disaster-type rollup inside a region.
type TypeStat struct {
	Count   int     `json:"count"`
	Funding float64 `json:"funding"`
}

// RegionAggregate rolls up filtered records for one region. Funding only
// includes the selected sources.
type RegionAggregate struct {
	Region     string                    `json:"region"`
	Name       string                    `json:"name"`
	EventCount int                       `json:"event_count"`
	Funding    float64                   `json:"funding"`
	BySource   map[FundingSource]float64 `json:"by_source"`
	Types      map[string]TypeStat       `json:"types"`
}

// Aggregation is the result of Aggregate. Unrecognized counts records whose
// region is not a state, DC or territory; they never reach Regions.
type Aggregation struct {
	Regions      map[string]RegionAggregate `json:"regions"`
	Unrecognized map[string]int             `json:"unrecognized,omitempty"`
}

// Aggregate groups filtered records by region, summing only the selected
// funding sources.
func Aggregate(records []DisasterRecord, sources []FundingSource) Aggregation {
	sources = UniqueSources(sources)
	agg := Aggregation{
		Regions:      make(map[string]RegionAggregate),
		Unrecognized: make(map[string]int),
	}

	for _, r := range records {
		if !IsKnownRegion(r.Region) {
			agg.Unrecognized[r.Region]++
			continue
		}

		ra, ok := agg.Regions[r.Region]
		if !ok {
			ra = RegionAggregate{
				Region:   r.Region,
				Name:     RegionName(r.Region),
				BySource: make(map[FundingSource]float64, len(sources)),
				Types:    make(map[string]TypeStat),
			}
		}

		funding := r.FundingFor(sources)
		ra.EventCount++
		ra.Funding += funding
		for _, s := range sources {
			ra.BySource[s] += r.Amount(s)
		}
		ts := ra.Types[r.IncidentType]
		ts.Count++
		ts.Funding += funding
		ra.Types[r.IncidentType] = ts

		agg.Regions[r.Region] = ra
	}

	return agg
}

// Values returns the region funding totals, for the threshold classifier.
func (a Aggregation) Values() []float64 {
	out := make([]float64, 0, len(a.Regions))
	for _, ra := range a.Regions {
		out = append(out, ra.Funding)
	}
	return out
}

// Sorted returns the region aggregates ordered by funding descending, then
// by region code for stable output.
func (a Aggregation) Sorted() []RegionAggregate {
	out := make([]RegionAggregate, 0, len(a.Regions))
	for _, ra := range a.Regions {
		out = append(out, ra)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Funding != out[j].Funding {
			return out[i].Funding > out[j].Funding
		}
		return out[i].Region < out[j].Region
	})
	return out
}

// TotalFunding sums funding across all recognized regions.
func (a Aggregation) TotalFunding() float64 {
	var sum float64
	for _, ra := range a.Regions {
		sum += ra.Funding
	}
	return sum
}

// TotalEvents sums event counts across all recognized regions.
func (a Aggregation) TotalEvents() int {
	var n int
	for _, ra := range a.Regions {
		n += ra.EventCount
	}
	return n
}
