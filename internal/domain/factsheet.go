package domain

import (
	"sort"
	"strings"
	"time"
)

const (
	// annualizedYears is both the lookback window and the divisor for the
	// annualized spend, regardless of how much data a region actually has.
	annualizedYears = 10

	minFundedRecent  = 5
	backfillMinTotal = 10
	maxBackfill      = 10
	maxDistricts     = 10
	maxDisplayed     = 20
)

// EventTotal is a compact, chartable view of one record's funding.
type EventTotal struct {
	ID             string                    `json:"id"`
	Event          string                    `json:"event"`
	IncidentNumber string                    `json:"incident_number"`
	IncidentType   string                    `json:"incident_type"`
	Region         string                    `json:"region"`
	IncidentStart  time.Time                 `json:"incident_start,omitzero"`
	Total          float64                   `json:"total"`
	BySource       map[FundingSource]float64 `json:"by_source"`
}

// NewEventTotal summarizes a record across all four sources.
func NewEventTotal(r DisasterRecord) EventTotal {
	by := make(map[FundingSource]float64, len(AllSources))
	for _, s := range AllSources {
		by[s] = r.Amount(s)
	}
	return EventTotal{
		ID:             r.ID,
		Event:          r.Event,
		IncidentNumber: r.IncidentNumber,
		IncidentType:   r.IncidentType,
		Region:         r.Region,
		IncidentStart:  r.IncidentStart,
		Total:          r.TotalFunding(),
		BySource:       by,
	}
}

// RegionSpend is the annualized funding for one region.
type RegionSpend struct {
	Region        string    `json:"region"`
	Name          string    `json:"name"`
	WindowStart   time.Time `json:"window_start"`
	WindowEnd     time.Time `json:"window_end"`
	EventCount    int       `json:"event_count"`
	Total         float64   `json:"total"`
	AnnualAverage float64   `json:"annual_average"`
}

// AnnualizedSpend sums a region's funding over the ten years before now and
// divides by exactly ten.
func AnnualizedSpend(records []DisasterRecord, region string, now time.Time) RegionSpend {
	region = NormalizeRegion(region)
	start := now.AddDate(-annualizedYears, 0, 0)
	spend := RegionSpend{Region: region, Name: RegionName(region), WindowStart: start, WindowEnd: now}
	for _, r := range records {
		if r.Region != region || !r.HasStart() {
			continue
		}
		if r.IncidentStart.Before(start) || r.IncidentStart.After(now) {
			continue
		}
		spend.EventCount++
		spend.Total += r.TotalFunding()
	}
	spend.AnnualAverage = spend.Total / annualizedYears
	return spend
}

// TopEvents is the ranked list of a region's largest funding events.
type TopEvents struct {
	Region      string       `json:"region"`
	WindowYears int          `json:"window_years"`
	Available   int          `json:"available"`
	Backfilled  int          `json:"backfilled"`
	Events      []EventTotal `json:"events"`
}

// TopFundingEvents ranks a region's events by total funding within an
// adaptive lookback window. When fewer than five recent events carry funding
// and the region has more than ten events, the best-funded older or undated
// events (up to ten) are backfilled before re-ranking.
func TopFundingEvents(records []DisasterRecord, region string, now time.Time) TopEvents {
	region = NormalizeRegion(region)
	var regional []DisasterRecord
	for _, r := range records {
		if r.Region == region {
			regional = append(regional, r)
		}
	}

	window := lookbackYears(regional, now)
	cutoff := now.AddDate(-window, 0, 0)

	var recent, older []DisasterRecord
	for _, r := range regional {
		if r.HasStart() && !r.IncidentStart.Before(cutoff) {
			recent = append(recent, r)
		} else {
			older = append(older, r)
		}
	}
	sortByTotalDesc(recent)

	funded := 0
	for _, r := range recent {
		if r.TotalFunding() > 0 {
			funded++
		}
	}

	combined := recent
	backfilled := 0
	if funded < minFundedRecent && len(regional) > backfillMinTotal {
		sortByTotalDesc(older)
		for _, r := range older {
			if backfilled == maxBackfill {
				break
			}
			if r.TotalFunding() <= 0 {
				continue
			}
			combined = append(combined, r)
			backfilled++
		}
		sortByTotalDesc(combined)
	}

	n := displayCount(len(combined))
	events := make([]EventTotal, 0, n)
	for _, r := range combined[:n] {
		events = append(events, NewEventTotal(r))
	}

	return TopEvents{
		Region:      region,
		WindowYears: window,
		Available:   len(combined),
		Backfilled:  backfilled,
		Events:      events,
	}
}

// lookbackYears widens the window to 15 or 20 years when the region's dated
// history reaches further back than ten years.
func lookbackYears(records []DisasterRecord, now time.Time) int {
	var earliest time.Time
	for _, r := range records {
		if !r.HasStart() {
			continue
		}
		if earliest.IsZero() || r.IncidentStart.Before(earliest) {
			earliest = r.IncidentStart
		}
	}
	if earliest.IsZero() {
		return 10
	}
	switch spread := now.Year() - earliest.Year(); {
	case spread <= 10:
		return 10
	case spread <= 15:
		return 15
	default:
		return 20
	}
}

// displayCount caps the ranked list at maxDisplayed events.
func displayCount(available int) int {
	return min(available, maxDisplayed)
}

func sortByTotalDesc(records []DisasterRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, tj := records[i].TotalFunding(), records[j].TotalFunding()
		if ti != tj {
			return ti > tj
		}
		return records[i].IncidentStart.After(records[j].IncidentStart)
	})
}

// DistrictSortKey selects the ranking column for district rows.
type DistrictSortKey string

const (
	SortByFunding    DistrictSortKey = "funding"
	SortByApplicants DistrictSortKey = "applicants"
)

// RankDistricts keeps district rows whose state matches one of the given
// region codes, sorts them by key (descending unless ascending is set) and
// returns at most ten.
func RankDistricts(rows []DistrictFunding, regions []string, key DistrictSortKey, ascending bool) []DistrictFunding {
	names := make(map[string]bool, len(regions))
	for _, code := range regions {
		names[strings.ToLower(RegionName(NormalizeRegion(code)))] = true
	}

	var out []DistrictFunding
	for _, row := range rows {
		if names[strings.ToLower(row.StateName)] {
			out = append(out, row)
		}
	}

	value := func(d DistrictFunding) float64 {
		if key == SortByApplicants {
			return d.TotalApplicants
		}
		return d.TotalFunding
	}
	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return value(out[i]) < value(out[j])
		}
		return value(out[i]) > value(out[j])
	})

	if len(out) > maxDistricts {
		out = out[:maxDistricts]
	}
	return out
}

// CombinedTotals sums funding and applicants across a selection of events.
type CombinedTotals struct {
	EventCount        int                       `json:"event_count"`
	Total             float64                   `json:"total"`
	BySource          map[FundingSource]float64 `json:"by_source"`
	Events            []EventTotal              `json:"events"`
	Applicants        float64                   `json:"applicants"`
	AverageAssistance float64                   `json:"average_assistance"`
}

// Combine totals a selection of events. Applicants are estimated per event
// and then summed, never estimated from the combined IHP total.
func Combine(events []DisasterRecord) CombinedTotals {
	ct := CombinedTotals{
		EventCount: len(events),
		BySource:   make(map[FundingSource]float64, len(AllSources)),
		Events:     make([]EventTotal, 0, len(events)),
	}
	var ihp float64
	for _, r := range events {
		et := NewEventTotal(r)
		ct.Events = append(ct.Events, et)
		ct.Total += et.Total
		for s, v := range et.BySource {
			ct.BySource[s] += v
		}
		ihp += r.IHPTotal
		ct.Applicants += EstimateAssistance(r).Applicants
	}

	switch {
	case len(events) == 1:
		ct.AverageAssistance = EstimateAssistance(events[0]).AverageAward
	case ct.Applicants > 0:
		ct.AverageAssistance = ihp / ct.Applicants
	}
	return ct
}

// EventDetail is one selected event in a fact sheet.
type EventDetail struct {
	EventTotal
	DeclarationDate time.Time          `json:"declaration_date,omitzero"`
	Assistance      AssistanceEstimate `json:"assistance"`
	Tranches        []GrantTranche     `json:"cdbg_dr_tranches,omitempty"`
}

// NewEventDetail pairs a record's totals with its assistance estimate and
// CDBG-DR tranches.
func NewEventDetail(r DisasterRecord) EventDetail {
	return EventDetail{
		EventTotal:      NewEventTotal(r),
		DeclarationDate: r.DeclarationDate,
		Assistance:      EstimateAssistance(r),
		Tranches:        r.Tranches,
	}
}

// RegionSummary bundles the per-region figures shown on a fact sheet.
type RegionSummary struct {
	Region    string      `json:"region"`
	Name      string      `json:"name"`
	Spend     RegionSpend `json:"annualized_spend"`
	TopEvents TopEvents   `json:"top_events"`
}

// SummarizeRegion computes the annualized spend and top events for a region.
func SummarizeRegion(all []DisasterRecord, region string, now time.Time) RegionSummary {
	region = NormalizeRegion(region)
	return RegionSummary{
		Region:    region,
		Name:      RegionName(region),
		Spend:     AnnualizedSpend(all, region, now),
		TopEvents: TopFundingEvents(all, region, now),
	}
}

// FactSheetOptions controls the district table on a fact sheet.
type FactSheetOptions struct {
	DistrictSort DistrictSortKey
	Ascending    bool
}

// FactSheet is everything rendered on the event fact sheet.
type FactSheet struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Events      []EventDetail     `json:"events"`
	Combined    CombinedTotals    `json:"combined"`
	Regions     []RegionSummary   `json:"regions"`
	Districts   []DistrictFunding `json:"districts"`
}

// Title names the fact sheet after its event, or the event count.
func (f FactSheet) Title() string {
	switch len(f.Events) {
	case 0:
		return "Disaster Funding Fact Sheet"
	case 1:
		if f.Events[0].Event != "" {
			return f.Events[0].Event
		}
		return "Incident " + f.Events[0].IncidentNumber
	default:
		return "Combined Disaster Funding"
	}
}

// BuildFactSheet derives every fact-sheet figure for the selected events
// against the full dataset and the district dataset.
func BuildFactSheet(selected, all []DisasterRecord, districts []DistrictFunding, opts FactSheetOptions, now time.Time) FactSheet {
	fs := FactSheet{
		GeneratedAt: now,
		Events:      make([]EventDetail, 0, len(selected)),
		Combined:    Combine(selected),
	}

	seen := make(map[string]bool)
	var regions []string
	for _, r := range selected {
		fs.Events = append(fs.Events, NewEventDetail(r))
		if r.Region != "" && !seen[r.Region] {
			seen[r.Region] = true
			regions = append(regions, r.Region)
		}
	}
	sort.Strings(regions)

	for _, region := range regions {
		fs.Regions = append(fs.Regions, SummarizeRegion(all, region, now))
	}

	key := opts.DistrictSort
	if key == "" {
		key = SortByFunding
	}
	fs.Districts = RankDistricts(districts, regions, key, opts.Ascending)
	return fs
}
