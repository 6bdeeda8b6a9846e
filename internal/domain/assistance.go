package domain

import (
	"math"
	"strings"
)

// AssistanceBasis records which branch of the estimation chain produced an
// AssistanceEstimate.
type AssistanceBasis string

const (
	// BasisReported: the dataset carried an explicit average award.
	BasisReported AssistanceBasis = "reported"
	// BasisDerived: IHP total divided by the reported applicant count.
	BasisDerived AssistanceBasis = "derived"
	// BasisEstimated: national average grant size for the incident type.
	BasisEstimated AssistanceBasis = "estimated"
)

// nationalAverageGrant is a national average IHP grant for an incident type,
// matched by case-insensitive substring in table order.
type nationalAverageGrant struct {
	keywords []string
	amount   float64
}

var nationalAverageGrants = []nationalAverageGrant{
	{keywords: []string{"hurricane", "typhoon"}, amount: 8500},
	{keywords: []string{"flood"}, amount: 5200},
	{keywords: []string{"fire", "wildfire"}, amount: 7300},
	{keywords: []string{"tornado"}, amount: 6100},
}

// defaultAverageGrant applies when no keyword matches.
const defaultAverageGrant = 4700

// NationalAverageGrant returns the national average IHP grant used to
// estimate applicants for an incident type.
func NationalAverageGrant(incidentType string) float64 {
	t := strings.ToLower(incidentType)
	for _, g := range nationalAverageGrants {
		for _, kw := range g.keywords {
			if strings.Contains(t, kw) {
				return g.amount
			}
		}
	}
	return defaultAverageGrant
}

// AssistanceEstimate is the per-household assistance figure for one event and
// the applicant count that goes with it.
type AssistanceEstimate struct {
	AverageAward float64         `json:"average_award"`
	Applicants   float64         `json:"applicants"`
	Basis        AssistanceBasis `json:"basis"`
}

// EstimateAssistance applies the fallback chain in fixed order: a reported
// average award, then IHP total over reported applicants, then the national
// average for the incident type. Applicants follow whichever branch fired.
func EstimateAssistance(r DisasterRecord) AssistanceEstimate {
	switch {
	case r.IHPAverageAward > 0:
		applicants := r.IHPApplicants
		if applicants <= 0 && r.IHPTotal > 0 {
			applicants = math.Round(r.IHPTotal / r.IHPAverageAward)
		}
		return AssistanceEstimate{AverageAward: r.IHPAverageAward, Applicants: applicants, Basis: BasisReported}

	case r.IHPTotal > 0 && r.IHPApplicants > 0:
		return AssistanceEstimate{AverageAward: r.IHPTotal / r.IHPApplicants, Applicants: r.IHPApplicants, Basis: BasisDerived}

	default:
		avg := NationalAverageGrant(r.IncidentType)
		applicants := r.IHPApplicants
		if applicants <= 0 && r.IHPTotal > 0 {
			applicants = math.Round(r.IHPTotal / avg)
		}
		return AssistanceEstimate{AverageAward: avg, Applicants: applicants, Basis: BasisEstimated}
	}
}
