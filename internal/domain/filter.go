package domain

import "time"

// FilterCriteria is the user-selected view state. A zero StartYear or
// EndYear leaves that end of the date window open.
type FilterCriteria struct {
	StartYear  int
	StartMonth int
	EndYear    int
	EndMonth   int

	Regions            []string
	IncludeTerritories bool
	Types              []string
	Sources            []FundingSource
}

// Window returns the inclusive date window as [from, until) in UTC. Zero
// values mean the bound is open.
func (c FilterCriteria) Window() (from, until time.Time) {
	if c.StartYear > 0 {
		from = time.Date(c.StartYear, time.Month(clampMonth(c.StartMonth, 1)), 1, 0, 0, 0, 0, time.UTC)
	}
	if c.EndYear > 0 {
		// First instant of the following month, so the whole last day counts.
		until = time.Date(c.EndYear, time.Month(clampMonth(c.EndMonth, 12))+1, 1, 0, 0, 0, 0, time.UTC)
	}
	return from, until
}

func clampMonth(m, fallback int) int {
	if m < 1 || m > 12 {
		return fallback
	}
	return m
}

// Filter returns the records matching every predicate in c. The input slice
// is not modified.
func Filter(records []DisasterRecord, c FilterCriteria) []DisasterRecord {
	m := newMatcher(c)
	out := make([]DisasterRecord, 0, len(records))
	for _, r := range records {
		if m.matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether a single record passes c.
func Matches(r DisasterRecord, c FilterCriteria) bool {
	return newMatcher(c).matches(r)
}

type matcher struct {
	from, until        time.Time
	regions            map[string]bool
	includeTerritories bool
	types              map[string]bool
	sources            []FundingSource
}

func newMatcher(c FilterCriteria) matcher {
	from, until := c.Window()
	m := matcher{
		from:               from,
		until:              until,
		includeTerritories: c.IncludeTerritories,
		sources:            c.Sources,
	}
	if len(c.Regions) > 0 {
		m.regions = make(map[string]bool, len(c.Regions))
		for _, r := range c.Regions {
			m.regions[NormalizeRegion(r)] = true
		}
	}
	if len(c.Types) > 0 {
		m.types = make(map[string]bool, len(c.Types))
		for _, t := range c.Types {
			m.types[t] = true
		}
	}
	return m
}

func (m matcher) matches(r DisasterRecord) bool {
	return m.matchDate(r) && m.matchRegion(r) && m.matchType(r) && m.matchFunding(r)
}

func (m matcher) matchDate(r DisasterRecord) bool {
	if !r.HasStart() {
		return false
	}
	if !m.from.IsZero() && r.IncidentStart.Before(m.from) {
		return false
	}
	if !m.until.IsZero() && !r.IncidentStart.Before(m.until) {
		return false
	}
	return true
}

// matchRegion: territories follow the IncludeTerritories toggle unless picked
// explicitly; everything else follows the region selection (empty = all).
func (m matcher) matchRegion(r DisasterRecord) bool {
	if IsTerritory(r.Region) {
		return m.includeTerritories || m.regions[r.Region]
	}
	if m.regions == nil {
		return true
	}
	return m.regions[r.Region]
}

func (m matcher) matchType(r DisasterRecord) bool {
	if m.types == nil {
		return true
	}
	return m.types[r.IncidentType]
}

// matchFunding requires a positive amount in at least one selected source.
// No sources selected matches nothing.
func (m matcher) matchFunding(r DisasterRecord) bool {
	for _, s := range m.sources {
		if r.Amount(s) > 0 {
			return true
		}
	}
	return false
}
