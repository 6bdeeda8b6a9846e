package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// CSV column names for the disaster-funding dataset.
const (
	ColIncidentStart   = "incident_start"
	ColIncidentType    = "incident_type"
	ColState           = "state"
	ColEvent           = "event"
	ColIncidentNumber  = "incident_number"
	ColDeclarationDate = "declaration_date"
	ColIHPTotal        = "ihp_total"
	ColPATotal         = "pa_total"
	ColCDBGDR          = "cdbg_dr_allocation"
	ColSBA             = "sba_total_approved_loan_amount"
	ColIHPApplicants   = "ihp_applicants"
	ColIHPAverageAward = "ihp_average_award"
)

// RequiredColumns must be present in the header of a disaster-funding CSV.
var RequiredColumns = []string{
	ColIncidentStart, ColIncidentType, ColState, ColEvent, ColIncidentNumber,
	ColDeclarationDate, ColIHPTotal, ColPATotal, ColCDBGDR, ColSBA,
}

const (
	maxTranches        = 4
	maxGranteesPerFRN  = 9
	districtStateName  = "state_name"
	districtLabel      = "district_label"
	districtNumber     = "district_number"
	districtRep        = "representative"
	districtParty      = "party"
	districtApplicants = "total_applicants"
	districtFunding    = "total_funding"
	districtPerApplic  = "funding_per_applicant"
)

// dateLayouts are tried in order when parsing dates from the CSV.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"1/2/2006",
	"1/2/2006 15:04",
}

// NormalizeAmount coerces a raw funding value into a finite, non-negative
// number. Numbers are used as-is; strings are parsed (a leading "$" and
// thousands separators are tolerated); anything unparseable, empty or nil is 0.
func NormalizeAmount(v any) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		f = parseFloatOrZero(x.String())
	case string:
		f = parseFloatOrZero(x)
	case *string:
		if x == nil {
			return 0
		}
		f = parseFloatOrZero(*x)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseDate parses a CSV date in any of the supported layouts. It returns the
// zero time when the value is empty or unparseable.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// ParseRecord converts one CSV row (keyed by header name) into a
// DisasterRecord. It never fails: malformed values become zero.
func ParseRecord(row map[string]string) DisasterRecord {
	rec := DisasterRecord{
		IncidentStart:   ParseDate(row[ColIncidentStart]),
		IncidentType:    strings.TrimSpace(row[ColIncidentType]),
		Region:          NormalizeRegion(row[ColState]),
		Event:           strings.TrimSpace(row[ColEvent]),
		IncidentNumber:  strings.TrimSpace(row[ColIncidentNumber]),
		DeclarationDate: ParseDate(row[ColDeclarationDate]),

		IHPTotal:         NormalizeAmount(row[ColIHPTotal]),
		PATotal:          NormalizeAmount(row[ColPATotal]),
		CDBGDRAllocation: NormalizeAmount(row[ColCDBGDR]),
		SBALoanTotal:     NormalizeAmount(row[ColSBA]),
		IHPApplicants:    NormalizeAmount(row[ColIHPApplicants]),
		IHPAverageAward:  NormalizeAmount(row[ColIHPAverageAward]),

		Tranches: parseTranches(row),
	}
	rec.ID = generateID(rec.IncidentNumber, rec.Region, rec.Event, row[ColIncidentStart])
	return rec
}

// parseTranches collects the frn{n}_* CDBG-DR recipient columns.
func parseTranches(row map[string]string) []GrantTranche {
	var tranches []GrantTranche
	for n := 1; n <= maxTranches; n++ {
		prefix := fmt.Sprintf("frn%d_", n)
		t := GrantTranche{Number: n, Date: ParseDate(row[prefix+"date"])}
		for g := 1; g <= maxGranteesPerFRN; g++ {
			name := strings.TrimSpace(row[fmt.Sprintf("%sgrantee%d_name", prefix, g)])
			amount := NormalizeAmount(row[fmt.Sprintf("%sgrantee%d_amount", prefix, g)])
			if name == "" && amount == 0 {
				continue
			}
			t.Recipients = append(t.Recipients, GrantRecipient{Name: name, Amount: amount})
		}
		if len(t.Recipients) == 0 && t.Date.IsZero() {
			continue
		}
		tranches = append(tranches, t)
	}
	return tranches
}

// ParseDistrict converts one row of the district funding CSV.
func ParseDistrict(row map[string]string) DistrictFunding {
	return DistrictFunding{
		StateName:           strings.TrimSpace(row[districtStateName]),
		DistrictLabel:       strings.TrimSpace(row[districtLabel]),
		DistrictNumber:      strings.TrimSpace(row[districtNumber]),
		Representative:      strings.TrimSpace(row[districtRep]),
		Party:               strings.TrimSpace(row[districtParty]),
		TotalApplicants:     NormalizeAmount(row[districtApplicants]),
		TotalFunding:        NormalizeAmount(row[districtFunding]),
		FundingPerApplicant: NormalizeAmount(row[districtPerApplic]),
	}
}

// generateID produces a deterministic ID from the record's identifying
// fields. Incident numbers repeat across sources, so the region, event name
// and raw start date are mixed in.
func generateID(incidentNumber, region, event, start string) string {
	input := fmt.Sprintf("%s|%s|%s|%s", incidentNumber, region, event, strings.TrimSpace(start))
	hash := sha256.Sum256([]byte(input))
	return "evt-" + hex.EncodeToString(hash[:8])
}
