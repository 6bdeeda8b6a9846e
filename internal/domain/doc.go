// Package domain models federal disaster-funding declarations and the pure
// transformations behind the funding dashboard.
//
// # Data Source
//
// Records come from a flat CSV with one row per disaster declaration and
// funding program totals joined in from four federal sources:
//
//	IHP      FEMA Individual & Household Program   (ihp_total)
//	PA       FEMA Public Assistance                (pa_total)
//	CDBG-DR  HUD Community Development Block Grant (cdbg_dr_allocation)
//	SBA      SBA approved disaster loan amount     (sba_total_approved_loan_amount)
//
// A second, optional CSV carries congressional-district funding totals keyed
// by full state name. See [ParseRecord] and [ParseDistrict].
//
// # Data Conventions
//
// Funding amounts:
//
//	Stored as strings in the source. Unparseable or empty values are treated
//	as absent funding (0), never as a data-quality error. Negative, NaN and
//	infinite values are also clamped to 0. See [NormalizeAmount].
//
// Regions:
//
//	Two-letter USPS codes for the 50 states, DC and the outlying territories
//	(AS, GU, MP, PR, VI, plus the freely associated FM, MH, PW). Anything else
//	is tracked as unrecognized and excluded from state-level totals.
//
// Incident numbers:
//
//	Not unique across sources. Records are addressed by a deterministic ID
//	hashed from incident number, region, event name and start date.
//
// CDBG-DR recipients:
//
//	Up to four award tranches (frn1..frn4), each with a Federal Register
//	notice date and up to nine grantees (name + amount).
//
// # Pipeline
//
//	raw rows → ParseRecord → Filter → Aggregate → {ComputeThresholds, BuildFactSheet}
//
// Every step is a pure function over in-memory slices; "now" comes from a
// package-level clock so lookback windows are testable (see [SetClock]).
package domain
