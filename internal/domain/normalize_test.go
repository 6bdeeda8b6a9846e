package domain

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIncident = "4332"
	testEvent    = "Hurricane Harvey"
)

func TestNormalizeAmount(t *testing.T) {
	var nilStr *string
	numStr := "1500.25"

	tests := []struct {
		name     string
		in       any
		expected float64
	}{
		{"float64", 1234.5, 1234.5},
		{"int", 42, 42},
		{"int64", int64(7), 7},
		{"json number", json.Number("99.5"), 99.5},
		{"numeric string", "250000", 250000},
		{"padded string", "  12.5 ", 12.5},
		{"currency string", "$1,234,567.89", 1234567.89},
		{"string pointer", &numStr, 1500.25},
		{"nil string pointer", nilStr, 0},
		{"empty string", "", 0},
		{"garbage", "n/a", 0},
		{"nil", nil, 0},
		{"negative number", -500.0, 0},
		{"negative string", "-12", 0},
		{"NaN", math.NaN(), 0},
		{"infinity string", "Inf", 0},
		{"positive infinity", math.Inf(1), 0},
		{"unsupported type", struct{}{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAmount(tt.in)
			assert.InDelta(t, tt.expected, got, 1e-9)
			assert.False(t, math.IsNaN(got))
			assert.False(t, math.IsInf(got, 0))
			assert.GreaterOrEqual(t, got, 0.0)
		})
	}
}

func TestNormalizeAmount_EmptyEqualsNil(t *testing.T) {
	assert.Equal(t, 0.0, NormalizeAmount(""))
	assert.Equal(t, NormalizeAmount(""), NormalizeAmount(nil))
}

func TestParseDate(t *testing.T) {
	want := time.Date(2017, 8, 25, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		in       string
		expected time.Time
	}{
		{"iso date", "2017-08-25", want},
		{"us date", "8/25/2017", want},
		{"rfc3339", "2017-08-25T00:00:00Z", want},
		{"datetime", "2017-08-25 00:00:00", want},
		{"empty", "", time.Time{}},
		{"garbage", "sometime in August", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseDate(tt.in))
		})
	}
}

func TestParseRecord(t *testing.T) {
	row := map[string]string{
		ColIncidentStart:   "2017-08-25",
		ColIncidentType:    "Hurricane",
		ColState:           " tx ",
		ColEvent:           testEvent,
		ColIncidentNumber:  testIncident,
		ColDeclarationDate: "2017-08-25",
		ColIHPTotal:        "1652000000",
		ColPATotal:         "",
		ColCDBGDR:          "5024000000",
		ColSBA:             "not reported",
		ColIHPApplicants:   "373000",

		"frn1_date":             "2018-02-09",
		"frn1_grantee1_name":    "Texas General Land Office",
		"frn1_grantee1_amount":  "5024215000",
		"frn1_grantee2_name":    "Houston",
		"frn1_grantee2_amount":  "",
		"frn2_grantee1_name":    "",
		"frn2_grantee1_amount":  "",
		"frn3_grantee4_name":    "Harris County",
		"frn3_grantee4_amount":  "1115000000",
		"frn9_grantee1_name":    "ignored tranche",
		"frn1_grantee10_amount": "10",
	}

	rec := ParseRecord(row)

	assert.Equal(t, time.Date(2017, 8, 25, 0, 0, 0, 0, time.UTC), rec.IncidentStart)
	assert.Equal(t, "Hurricane", rec.IncidentType)
	assert.Equal(t, "TX", rec.Region)
	assert.Equal(t, testEvent, rec.Event)
	assert.Equal(t, testIncident, rec.IncidentNumber)
	assert.Equal(t, 1652000000.0, rec.IHPTotal)
	assert.Equal(t, 0.0, rec.PATotal)
	assert.Equal(t, 5024000000.0, rec.CDBGDRAllocation)
	assert.Equal(t, 0.0, rec.SBALoanTotal)
	assert.Equal(t, 373000.0, rec.IHPApplicants)
	assert.Equal(t, 0.0, rec.IHPAverageAward)
	assert.True(t, strings.HasPrefix(rec.ID, "evt-"))

	require.Len(t, rec.Tranches, 2)
	assert.Equal(t, 1, rec.Tranches[0].Number)
	assert.Equal(t, time.Date(2018, 2, 9, 0, 0, 0, 0, time.UTC), rec.Tranches[0].Date)
	require.Len(t, rec.Tranches[0].Recipients, 2)
	assert.Equal(t, "Houston", rec.Tranches[0].Recipients[1].Name)
	assert.Equal(t, 0.0, rec.Tranches[0].Recipients[1].Amount)
	assert.Equal(t, 3, rec.Tranches[1].Number)
	assert.Equal(t, 1115000000.0, rec.Tranches[1].Total())
}

func TestParseRecord_EmptyRow(t *testing.T) {
	rec := ParseRecord(map[string]string{})

	assert.False(t, rec.HasStart())
	assert.Empty(t, rec.Region)
	assert.Zero(t, rec.TotalFunding())
	assert.Empty(t, rec.Tranches)
	assert.NotEmpty(t, rec.ID)
}

func TestParseRecord_DeterministicID(t *testing.T) {
	row := map[string]string{ColIncidentNumber: testIncident, ColState: "TX", ColEvent: testEvent, ColIncidentStart: "2017-08-25"}
	other := map[string]string{ColIncidentNumber: testIncident, ColState: "LA", ColEvent: testEvent, ColIncidentStart: "2017-08-25"}

	assert.Equal(t, ParseRecord(row).ID, ParseRecord(row).ID)
	assert.NotEqual(t, ParseRecord(row).ID, ParseRecord(other).ID)
}

func TestParseDistrict(t *testing.T) {
	d := ParseDistrict(map[string]string{
		"state_name":            "Texas",
		"district_label":        "TX-18",
		"district_number":       "18",
		"representative":        "Jane Doe",
		"party":                 "D",
		"total_applicants":      "41,200",
		"total_funding":         "$212000000",
		"funding_per_applicant": "bad",
	})

	assert.Equal(t, "Texas", d.StateName)
	assert.Equal(t, "TX-18", d.DistrictLabel)
	assert.Equal(t, 41200.0, d.TotalApplicants)
	assert.Equal(t, 212000000.0, d.TotalFunding)
	assert.Equal(t, 0.0, d.FundingPerApplicant)
}

func TestRegions(t *testing.T) {
	assert.True(t, IsState("TX"))
	assert.True(t, IsState("DC"))
	assert.False(t, IsState("PR"))
	assert.True(t, IsTerritory("PR"))
	assert.True(t, IsKnownRegion("GU"))
	assert.False(t, IsKnownRegion("ZZ"))
	assert.Equal(t, "Puerto Rico", RegionName("PR"))
	assert.Equal(t, "ZZ", RegionName("ZZ"))

	code, ok := RegionForFIPS(48)
	assert.True(t, ok)
	assert.Equal(t, "TX", code)
	_, ok = RegionForFIPS(72)
	assert.False(t, ok)

	assert.Len(t, fipsToRegion, 51)
	assert.Len(t, KnownRegions(), 51+len(territoryNames))
}
