package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

func totals(events []EventTotal) []float64 {
	out := make([]float64, 0, len(events))
	for _, e := range events {
		out = append(out, e.Total)
	}
	return out
}

func TestEstimateAssistance(t *testing.T) {
	tests := []struct {
		name     string
		record   DisasterRecord
		expected AssistanceEstimate
	}{
		{
			name:     "reported average award wins over derivation",
			record:   DisasterRecord{IncidentType: "Hurricane", IHPTotal: 500000, IHPAverageAward: 5000},
			expected: AssistanceEstimate{AverageAward: 5000, Applicants: 100, Basis: BasisReported},
		},
		{
			name:     "reported average award keeps reported applicants",
			record:   DisasterRecord{IHPTotal: 500000, IHPAverageAward: 5000, IHPApplicants: 80},
			expected: AssistanceEstimate{AverageAward: 5000, Applicants: 80, Basis: BasisReported},
		},
		{
			name:     "derived from total and applicants",
			record:   DisasterRecord{IncidentType: "Flood", IHPTotal: 1_000_000, IHPApplicants: 200},
			expected: AssistanceEstimate{AverageAward: 5000, Applicants: 200, Basis: BasisDerived},
		},
		{
			name:     "hurricane estimate",
			record:   DisasterRecord{IncidentType: "Hurricane", IHPTotal: 850000},
			expected: AssistanceEstimate{AverageAward: 8500, Applicants: 100, Basis: BasisEstimated},
		},
		{
			name:     "no IHP funding estimates zero applicants",
			record:   DisasterRecord{IncidentType: "Tornado"},
			expected: AssistanceEstimate{AverageAward: 6100, Applicants: 0, Basis: BasisEstimated},
		},
		{
			name:     "reported applicants without IHP funding are kept",
			record:   DisasterRecord{IncidentType: "Severe Storm", IHPApplicants: 12},
			expected: AssistanceEstimate{AverageAward: 4700, Applicants: 12, Basis: BasisEstimated},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EstimateAssistance(tt.record))
		})
	}
}

func TestNationalAverageGrant(t *testing.T) {
	tests := map[string]float64{
		"Hurricane":    8500,
		"Typhoon":      8500,
		"Flash Flood":  5200,
		"Wildfire":     7300,
		"Fire":         7300,
		"TORNADO":      6100,
		"Severe Storm": 4700,
		"":             4700,
	}
	for typ, expected := range tests {
		assert.Equal(t, expected, NationalAverageGrant(typ), typ)
	}
}

func TestAnnualizedSpend_FixedTenYearDenominator(t *testing.T) {
	records := []DisasterRecord{
		rec("recent", "TX", "Hurricane", date(2020, 8, 27), 10_000_000, 0, 0, 0),
		rec("too-old", "TX", "Hurricane", date(2010, 1, 1), 99_000_000, 0, 0, 0),
		rec("other-region", "LA", "Hurricane", date(2020, 8, 27), 5_000_000, 0, 0, 0),
		rec("undated", "TX", "Flood", time.Time{}, 1_000_000, 0, 0, 0),
	}

	spend := AnnualizedSpend(records, "tx", testNow)

	assert.Equal(t, "TX", spend.Region)
	assert.Equal(t, "Texas", spend.Name)
	assert.Equal(t, 1, spend.EventCount)
	assert.Equal(t, 10_000_000.0, spend.Total)
	assert.Equal(t, 1_000_000.0, spend.AnnualAverage)
	assert.Equal(t, date(2014, 6, 1), spend.WindowStart)
}

func TestAnnualizedSpend_SumsAllSources(t *testing.T) {
	records := []DisasterRecord{
		rec("a", "FL", "Hurricane", date(2022, 9, 28), 1_000_000, 2_000_000, 3_000_000, 4_000_000),
	}

	spend := AnnualizedSpend(records, "FL", testNow)

	assert.Equal(t, 1_000_000.0, spend.AnnualAverage)
}

func TestTopFundingEvents_FewEventsSortedDescending(t *testing.T) {
	records := []DisasterRecord{
		rec("a", "TX", "Flood", date(2021, 1, 1), 100, 0, 0, 0),
		rec("b", "TX", "Flood", date(2022, 1, 1), 300, 0, 0, 0),
		rec("c", "TX", "Flood", date(2023, 1, 1), 200, 0, 0, 0),
		rec("d", "LA", "Flood", date(2023, 1, 1), 900, 0, 0, 0),
	}

	top := TopFundingEvents(records, "TX", testNow)

	assert.Equal(t, []float64{300, 200, 100}, totals(top.Events))
	assert.Equal(t, 10, top.WindowYears)
	assert.Zero(t, top.Backfilled)
}

func TestTopFundingEvents_Backfill(t *testing.T) {
	records := []DisasterRecord{
		rec("recent-1", "TX", "Flood", date(2020, 1, 1), 500, 0, 0, 0),
		rec("recent-2", "TX", "Flood", date(2021, 1, 1), 700, 0, 0, 0),
		rec("recent-unfunded", "TX", "Flood", date(2022, 1, 1), 0, 0, 0, 0),
		rec("undated", "TX", "Hurricane", time.Time{}, 50_000, 0, 0, 0),
	}
	for i := 1; i <= 10; i++ {
		records = append(records, rec(fmt.Sprintf("old-%d", i), "TX", "Flood", date(1989+i, 1, 1), float64(i*1000), 0, 0, 0))
	}

	top := TopFundingEvents(records, "TX", testNow)

	assert.Equal(t, 20, top.WindowYears)
	assert.Equal(t, 10, top.Backfilled)
	assert.Equal(t, 13, top.Available)
	require.Len(t, top.Events, 13)
	assert.Equal(t, "undated", top.Events[0].ID)
	assert.Equal(t, 50_000.0, top.Events[0].Total)
	assert.Equal(t, 10_000.0, top.Events[1].Total)
	assert.NotContains(t, ids2(top.Events), "old-1", "only ten older events are backfilled")
}

func ids2(events []EventTotal) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.ID)
	}
	return out
}

func TestTopFundingEvents_NoBackfillForSmallRegions(t *testing.T) {
	records := []DisasterRecord{
		rec("recent", "TX", "Flood", date(2021, 1, 1), 100, 0, 0, 0),
		rec("old", "TX", "Flood", date(2000, 1, 1), 900, 0, 0, 0),
	}

	top := TopFundingEvents(records, "TX", testNow)

	assert.Zero(t, top.Backfilled)
	assert.Equal(t, []float64{100}, totals(top.Events))
}

func TestTopFundingEvents_DisplayCount(t *testing.T) {
	build := func(n int) []DisasterRecord {
		var out []DisasterRecord
		for i := 0; i < n; i++ {
			out = append(out, rec(fmt.Sprintf("e-%d", i), "TX", "Flood", date(2020, 1, 1).AddDate(0, 0, i), float64(i+1), 0, 0, 0))
		}
		return out
	}

	assert.Len(t, TopFundingEvents(build(4), "TX", testNow).Events, 4)
	assert.Len(t, TopFundingEvents(build(12), "TX", testNow).Events, 12)
	assert.Len(t, TopFundingEvents(build(15), "TX", testNow).Events, 15)
	assert.Len(t, TopFundingEvents(build(30), "TX", testNow).Events, 20)

	for _, n := range []int{16, 17, 19, 20} {
		top := TopFundingEvents(build(n), "TX", testNow)
		require.Len(t, top.Events, n, "n=%d", n)
		for _, e := range top.Events {
			assert.NotEmpty(t, e.ID, "n=%d: no zero-value padding", n)
			assert.Positive(t, e.Total, "n=%d", n)
		}
	}
}

func TestDisplayCount(t *testing.T) {
	tests := []struct{ available, expected int }{
		{0, 0}, {5, 5}, {15, 15}, {16, 16}, {19, 19}, {20, 20}, {21, 20}, {100, 20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, displayCount(tt.available), "displayCount(%d)", tt.available)
	}
}

func TestLookbackYears(t *testing.T) {
	tests := []struct {
		earliest time.Time
		expected int
	}{
		{date(2019, 1, 1), 10},
		{date(2014, 1, 1), 10},
		{date(2012, 1, 1), 15},
		{date(1990, 1, 1), 20},
	}
	for _, tt := range tests {
		records := []DisasterRecord{rec("x", "TX", "Flood", tt.earliest, 1, 0, 0, 0)}
		assert.Equal(t, tt.expected, lookbackYears(records, testNow), tt.earliest.String())
	}
	assert.Equal(t, 10, lookbackYears(nil, testNow))
}

func districtRows() []DistrictFunding {
	var rows []DistrictFunding
	for i := 1; i <= 12; i++ {
		rows = append(rows, DistrictFunding{
			StateName:       "Texas",
			DistrictLabel:   fmt.Sprintf("TX-%d", i),
			TotalFunding:    float64(i * 1000),
			TotalApplicants: float64(100 - i),
		})
	}
	rows = append(rows,
		DistrictFunding{StateName: "louisiana", DistrictLabel: "LA-2", TotalFunding: 500_000, TotalApplicants: 1},
		DistrictFunding{StateName: "Florida", DistrictLabel: "FL-1", TotalFunding: 900_000, TotalApplicants: 1000},
	)
	return rows
}

func TestRankDistricts(t *testing.T) {
	rows := districtRows()

	t.Run("funding descending, top ten", func(t *testing.T) {
		got := RankDistricts(rows, []string{"TX", "LA"}, SortByFunding, false)
		require.Len(t, got, 10)
		assert.Equal(t, "LA-2", got[0].DistrictLabel)
		assert.Equal(t, "TX-12", got[1].DistrictLabel)
		for _, d := range got {
			assert.NotEqual(t, "Florida", d.StateName)
		}
	})

	t.Run("funding ascending", func(t *testing.T) {
		got := RankDistricts(rows, []string{"TX"}, SortByFunding, true)
		require.Len(t, got, 10)
		assert.Equal(t, "TX-1", got[0].DistrictLabel)
	})

	t.Run("applicants descending", func(t *testing.T) {
		got := RankDistricts(rows, []string{"TX"}, SortByApplicants, false)
		assert.Equal(t, "TX-1", got[0].DistrictLabel)
		assert.Equal(t, 99.0, got[0].TotalApplicants)
	})

	t.Run("no matching region", func(t *testing.T) {
		assert.Empty(t, RankDistricts(rows, []string{"WY"}, SortByFunding, false))
	})
}

func TestCombine(t *testing.T) {
	events := []DisasterRecord{
		{ID: "a", IncidentType: "Flood", IHPTotal: 500_000, IHPAverageAward: 5000, PATotal: 1000},
		{ID: "b", IncidentType: "Hurricane", IHPTotal: 850_000, SBALoanTotal: 2000},
	}

	ct := Combine(events)

	assert.Equal(t, 2, ct.EventCount)
	assert.Equal(t, 1_353_000.0, ct.Total)
	assert.Equal(t, 1_350_000.0, ct.BySource[SourceIHP])
	assert.Equal(t, 1000.0, ct.BySource[SourcePA])
	assert.Equal(t, 2000.0, ct.BySource[SourceSBA])
	assert.Equal(t, 0.0, ct.BySource[SourceCDBGDR])
	assert.Equal(t, 200.0, ct.Applicants, "applicants are estimated per event then summed")
	assert.Equal(t, 6750.0, ct.AverageAssistance)
	assert.Len(t, ct.Events, 2)
}

func TestCombine_SingleEventUsesEstimate(t *testing.T) {
	ct := Combine([]DisasterRecord{{IncidentType: "Flood", IHPTotal: 500_000, IHPAverageAward: 5000}})

	assert.Equal(t, 5000.0, ct.AverageAssistance)
	assert.Equal(t, 100.0, ct.Applicants)
}

func TestBuildFactSheet(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(testNow))
	defer SetClock(nil)

	harvey := DisasterRecord{
		ID: "harvey", Event: testEvent, IncidentNumber: testIncident, IncidentType: "Hurricane",
		Region: "TX", IncidentStart: date(2017, 8, 25), IHPTotal: 850_000, CDBGDRAllocation: 1_000_000,
		Tranches: []GrantTranche{{Number: 1, Recipients: []GrantRecipient{{Name: "Texas GLO", Amount: 1_000_000}}}},
	}
	all := []DisasterRecord{
		harvey,
		rec("tx-flood", "TX", "Flood", date(2019, 5, 1), 100, 0, 0, 0),
		rec("la-flood", "LA", "Flood", date(2016, 8, 12), 100, 0, 0, 0),
	}

	fs := BuildFactSheet([]DisasterRecord{harvey}, all, districtRows(), FactSheetOptions{}, Now())

	assert.Equal(t, testNow, fs.GeneratedAt)
	assert.Equal(t, testEvent, fs.Title())
	require.Len(t, fs.Events, 1)
	assert.Equal(t, BasisEstimated, fs.Events[0].Assistance.Basis)
	assert.Equal(t, 100.0, fs.Events[0].Assistance.Applicants)
	require.Len(t, fs.Events[0].Tranches, 1)

	require.Len(t, fs.Regions, 1)
	assert.Equal(t, "TX", fs.Regions[0].Region)
	assert.Equal(t, 185_010.0, fs.Regions[0].Spend.AnnualAverage)
	assert.Len(t, fs.Regions[0].TopEvents.Events, 2)

	require.Len(t, fs.Districts, 10)
	assert.Equal(t, "TX-12", fs.Districts[0].DistrictLabel)
	assert.Equal(t, 1_850_000.0, fs.Combined.Total)
}

func TestFactSheet_Title(t *testing.T) {
	assert.Equal(t, "Disaster Funding Fact Sheet", FactSheet{}.Title())
	assert.Equal(t, "Incident 4332", FactSheet{Events: []EventDetail{{EventTotal: EventTotal{IncidentNumber: testIncident}}}}.Title())
	assert.Equal(t, "Combined Disaster Funding", FactSheet{Events: make([]EventDetail, 2)}.Title())
}
