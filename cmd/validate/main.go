// Command validate checks the data quality of a disaster-funding CSV (and
// optionally the district CSV) before it is served. It reports columns the
// loader requires, amounts and dates the normalizer would coerce to zero,
// region codes the dashboard cannot place, duplicate record IDs and district
// rows whose state name matches no region.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -dataset data/disasters.csv \
//	  -districts data/districts.csv
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/disaster-funding-service/internal/dataset"
	"github.com/couchcryptid/disaster-funding-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

var amountColumns = []string{
	domain.ColIHPTotal, domain.ColPATotal, domain.ColCDBGDR, domain.ColSBA,
	domain.ColIHPApplicants, domain.ColIHPAverageAward,
}

func main() {
	datasetPath := flag.String("dataset", "", "path to the disaster-funding CSV")
	districtsPath := flag.String("districts", "", "path to the district funding CSV (optional)")
	maxErrors := flag.Int("max-errors", 20, "errors printed per failing phase")
	flag.Parse()

	if *datasetPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*datasetPath, *districtsPath, *maxErrors))
}

func run(datasetPath, districtsPath string, maxErrors int) int {
	fmt.Println("=== Disaster Funding Data Validation ===")
	fmt.Println()

	rows, header, err := loadCSV(datasetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load dataset: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateSchema(header),
		validateAmounts(rows),
		validateDates(rows),
		validateRegions(rows),
		validateIdentity(rows),
	}

	districtCount := 0
	if districtsPath != "" {
		dRows, _, err := loadCSV(districtsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load districts: %v\n", err)
			return 1
		}
		districtCount = len(dRows)
		phases = append(phases, validateDistricts(dRows))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-32s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d disaster rows, %d district rows\n", len(rows), districtCount)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxErrors {
				fmt.Printf("  ... %d more\n", len(p.errors)-maxErrors)
				break
			}
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadCSV(path string) ([]map[string]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	rows, header, err := dataset.ReadRows(f)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("no data rows in %s", path)
	}
	return rows, header, nil
}

// ── Phases ──

func validateSchema(header []string) *phase {
	p := &phase{name: "Schema"}
	for _, col := range dataset.MissingColumns(header, domain.RequiredColumns) {
		p.errorf("missing required column %q", col)
	}
	return p
}

func validateAmounts(rows []map[string]string) *phase {
	p := &phase{name: "Funding amounts"}
	for i, row := range rows {
		for _, col := range amountColumns {
			if issue := amountIssue(row[col]); issue != "" {
				p.errorf("line %d: %s %q is %s", lineNum(i), col, row[col], issue)
			}
		}
	}
	return p
}

// amountIssue explains why a non-empty amount would be coerced to zero.
func amountIssue(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	switch {
	case err != nil:
		return "not a number"
	case math.IsNaN(v) || math.IsInf(v, 0):
		return "not finite"
	case v < 0:
		return "negative"
	}
	return ""
}

func validateDates(rows []map[string]string) *phase {
	p := &phase{name: "Dates"}
	for i, row := range rows {
		raw := strings.TrimSpace(row[domain.ColIncidentStart])
		start := domain.ParseDate(raw)
		switch {
		case raw == "":
			p.errorf("line %d: missing %s", lineNum(i), domain.ColIncidentStart)
		case start.IsZero():
			p.errorf("line %d: unparseable %s %q", lineNum(i), domain.ColIncidentStart, raw)
		}

		declRaw := strings.TrimSpace(row[domain.ColDeclarationDate])
		declared := domain.ParseDate(declRaw)
		if declRaw != "" && declared.IsZero() {
			p.errorf("line %d: unparseable %s %q", lineNum(i), domain.ColDeclarationDate, declRaw)
		}
		if !start.IsZero() && !declared.IsZero() && declared.Before(start) {
			p.errorf("line %d: declared %s before incident start %s", lineNum(i),
				declared.Format("2006-01-02"), start.Format("2006-01-02"))
		}
	}
	return p
}

func validateRegions(rows []map[string]string) *phase {
	p := &phase{name: "Region codes"}
	unknown := map[string][]int{}
	for i, row := range rows {
		code := domain.NormalizeRegion(row[domain.ColState])
		if !domain.IsKnownRegion(code) {
			unknown[code] = append(unknown[code], lineNum(i))
		}
	}
	codes := make([]string, 0, len(unknown))
	for code := range unknown {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		lines := unknown[code]
		p.errorf("region %q on %d rows (first line %d)", code, len(lines), lines[0])
	}
	return p
}

func validateIdentity(rows []map[string]string) *phase {
	p := &phase{name: "Record identity"}
	seen := map[string]int{}
	for i, row := range rows {
		rec := domain.ParseRecord(row)
		if first, dup := seen[rec.ID]; dup {
			p.errorf("line %d duplicates line %d (incident %s, %s)", lineNum(i), first, rec.IncidentNumber, rec.Region)
			continue
		}
		seen[rec.ID] = lineNum(i)
	}
	return p
}

func validateDistricts(rows []map[string]string) *phase {
	p := &phase{name: "District state names"}
	names := map[string]bool{}
	for _, code := range domain.KnownRegions() {
		names[strings.ToLower(domain.RegionName(code))] = true
	}
	for i, row := range rows {
		d := domain.ParseDistrict(row)
		if !names[strings.ToLower(d.StateName)] {
			p.errorf("line %d: state_name %q matches no region", lineNum(i), d.StateName)
		}
		if issue := amountIssue(row["total_funding"]); issue != "" {
			p.errorf("line %d: total_funding %q is %s", lineNum(i), row["total_funding"], issue)
		}
	}
	return p
}

// lineNum converts a data row index to its 1-based file line.
func lineNum(i int) int { return i + 2 }
