package domain

import (
	"slices"
	"time"
)

// FundingSource identifies one of the four federal funding programs.
type FundingSource string

const (
	SourceIHP    FundingSource = "ihp"
	SourcePA     FundingSource = "pa"
	SourceCDBGDR FundingSource = "cdbg_dr"
	SourceSBA    FundingSource = "sba"
)

// AllSources lists the funding sources in display order.
var AllSources = []FundingSource{SourceIHP, SourcePA, SourceCDBGDR, SourceSBA}

// Label returns the program name shown in legends and exports.
func (s FundingSource) Label() string {
	switch s {
	case SourceIHP:
		return "FEMA IHP"
	case SourcePA:
		return "FEMA PA"
	case SourceCDBGDR:
		return "HUD CDBG-DR"
	case SourceSBA:
		return "SBA Loans"
	default:
		return string(s)
	}
}

// Valid reports whether s is one of the known funding sources.
func (s FundingSource) Valid() bool {
	switch s {
	case SourceIHP, SourcePA, SourceCDBGDR, SourceSBA:
		return true
	}
	return false
}

// GrantRecipient is a CDBG-DR sub-recipient within an award tranche.
type GrantRecipient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// GrantTranche groups CDBG-DR recipients under one Federal Register notice.
type GrantTranche struct {
	Number     int              `json:"number"`
	Date       time.Time        `json:"date,omitzero"`
	Recipients []GrantRecipient `json:"recipients,omitempty"`
}

// Total sums the recipient amounts in the tranche.
func (t GrantTranche) Total() float64 {
	var sum float64
	for _, r := range t.Recipients {
		sum += r.Amount
	}
	return sum
}

// DisasterRecord is one funding-relevant disaster declaration. Records are
// created once at load time and never mutated.
type DisasterRecord struct {
	ID              string    `json:"id"`
	IncidentStart   time.Time `json:"incident_start,omitzero"`
	IncidentType    string    `json:"incident_type"`
	Region          string    `json:"state"`
	Event           string    `json:"event"`
	IncidentNumber  string    `json:"incident_number"`
	DeclarationDate time.Time `json:"declaration_date,omitzero"`

	IHPTotal         float64 `json:"ihp_total"`
	PATotal          float64 `json:"pa_total"`
	CDBGDRAllocation float64 `json:"cdbg_dr_allocation"`
	SBALoanTotal     float64 `json:"sba_total_approved_loan_amount"`

	// Zero means not reported.
	IHPApplicants   float64 `json:"ihp_applicants,omitempty"`
	IHPAverageAward float64 `json:"ihp_average_award,omitempty"`

	Tranches []GrantTranche `json:"cdbg_dr_tranches,omitempty"`
}

// Amount returns the record's funding for a single source.
func (r DisasterRecord) Amount(s FundingSource) float64 {
	switch s {
	case SourceIHP:
		return r.IHPTotal
	case SourcePA:
		return r.PATotal
	case SourceCDBGDR:
		return r.CDBGDRAllocation
	case SourceSBA:
		return r.SBALoanTotal
	default:
		return 0
	}
}

// FundingFor sums the record's funding across the given sources, counting
// each source once.
func (r DisasterRecord) FundingFor(sources []FundingSource) float64 {
	var sum float64
	for i, s := range sources {
		if slices.Contains(sources[:i], s) {
			continue
		}
		sum += r.Amount(s)
	}
	return sum
}

// UniqueSources returns sources with repeats removed, keeping first-seen
// order. A nil input stays nil so "no selection" is preserved.
func UniqueSources(sources []FundingSource) []FundingSource {
	if sources == nil {
		return nil
	}
	out := make([]FundingSource, 0, len(sources))
	for _, s := range sources {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// TotalFunding sums all four funding sources.
func (r DisasterRecord) TotalFunding() float64 {
	return r.FundingFor(AllSources)
}

// HasStart reports whether the record carries a parseable incident start date.
func (r DisasterRecord) HasStart() bool {
	return !r.IncidentStart.IsZero()
}

// DistrictFunding is one row of the congressional-district funding dataset.
type DistrictFunding struct {
	StateName           string  `json:"state_name"`
	DistrictLabel       string  `json:"district_label"`
	DistrictNumber      string  `json:"district_number"`
	Representative      string  `json:"representative"`
	Party               string  `json:"party"`
	TotalApplicants     float64 `json:"total_applicants"`
	TotalFunding        float64 `json:"total_funding"`
	FundingPerApplicant float64 `json:"funding_per_applicant"`
}
