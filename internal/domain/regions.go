package domain

import (
	"sort"
	"strings"
)

// stateNames maps the 50 states and DC to their display names.
var stateNames = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"DC": "District of Columbia", "FL": "Florida", "GA": "Georgia", "HI": "Hawaii",
	"ID": "Idaho", "IL": "Illinois", "IN": "Indiana", "IA": "Iowa",
	"KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana", "ME": "Maine",
	"MD": "Maryland", "MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota",
	"MS": "Mississippi", "MO": "Missouri", "MT": "Montana", "NE": "Nebraska",
	"NV": "Nevada", "NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico",
	"NY": "New York", "NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio",
	"OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island",
	"SC": "South Carolina", "SD": "South Dakota", "TN": "Tennessee", "TX": "Texas",
	"UT": "Utah", "VT": "Vermont", "VA": "Virginia", "WA": "Washington",
	"WV": "West Virginia", "WI": "Wisconsin", "WY": "Wyoming",
}

// territoryNames covers the outlying territories and freely associated states
// that appear in FEMA declarations.
var territoryNames = map[string]string{
	"AS": "American Samoa",
	"GU": "Guam",
	"MP": "Northern Mariana Islands",
	"PR": "Puerto Rico",
	"VI": "U.S. Virgin Islands",
	"FM": "Federated States of Micronesia",
	"MH": "Marshall Islands",
	"PW": "Palau",
}

// fipsToRegion joins state FIPS codes in the map geometry to region codes.
var fipsToRegion = map[int]string{
	1: "AL", 2: "AK", 4: "AZ", 5: "AR", 6: "CA", 8: "CO", 9: "CT", 10: "DE",
	11: "DC", 12: "FL", 13: "GA", 15: "HI", 16: "ID", 17: "IL", 18: "IN", 19: "IA",
	20: "KS", 21: "KY", 22: "LA", 23: "ME", 24: "MD", 25: "MA", 26: "MI", 27: "MN",
	28: "MS", 29: "MO", 30: "MT", 31: "NE", 32: "NV", 33: "NH", 34: "NJ", 35: "NM",
	36: "NY", 37: "NC", 38: "ND", 39: "OH", 40: "OK", 41: "OR", 42: "PA", 44: "RI",
	45: "SC", 46: "SD", 47: "TN", 48: "TX", 49: "UT", 50: "VT", 51: "VA", 53: "WA",
	54: "WV", 55: "WI", 56: "WY",
}

// NormalizeRegion trims and upper-cases a region code.
func NormalizeRegion(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsTerritory reports whether code is an outlying territory.
func IsTerritory(code string) bool {
	_, ok := territoryNames[code]
	return ok
}

// IsState reports whether code is one of the 50 states or DC.
func IsState(code string) bool {
	_, ok := stateNames[code]
	return ok
}

// IsKnownRegion reports whether code is a state, DC or territory.
func IsKnownRegion(code string) bool {
	return IsState(code) || IsTerritory(code)
}

// RegionName returns the display name for code, or code itself when unknown.
func RegionName(code string) string {
	if name, ok := stateNames[code]; ok {
		return name
	}
	if name, ok := territoryNames[code]; ok {
		return name
	}
	return code
}

// RegionForFIPS returns the region code for a state FIPS number.
func RegionForFIPS(fips int) (string, bool) {
	code, ok := fipsToRegion[fips]
	return code, ok
}

// KnownRegions returns every state, DC and territory code, sorted.
func KnownRegions() []string {
	codes := make([]string, 0, len(stateNames)+len(territoryNames))
	for code := range stateNames {
		codes = append(codes, code)
	}
	for code := range territoryNames {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
