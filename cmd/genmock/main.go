// Command genmock writes a deterministic mock disaster-funding CSV and a
// matching congressional-district CSV for local runs and tests. A fraction
// of rows carry the malformed values seen in the published dataset so the
// normalizer is exercised. The output is parsed back with the service's own
// loader and summarized.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/disasters.csv \
//	  -districts-out data/mock/districts.csv \
//	  -count 400 -seed 42
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/couchcryptid/disaster-funding-service/internal/dataset"
	"github.com/couchcryptid/disaster-funding-service/internal/domain"
)

const (
	firstYear = 2000
	lastYear  = 2024
)

var incidentTypes = []string{"Hurricane", "Flood", "Severe Storm", "Fire", "Tornado", "Typhoon", "Snowstorm"}

// typeScale sets the order of magnitude of funding per incident type.
var typeScale = map[string]float64{
	"Hurricane":    2e9,
	"Typhoon":      4e8,
	"Flood":        3e8,
	"Fire":         2e8,
	"Severe Storm": 8e7,
	"Tornado":      6e7,
	"Snowstorm":    3e7,
}

var grantees = []string{"State Housing Agency", "County Recovery Office", "City Development Dept", "Regional Planning Council"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the disaster CSV")
	districtsOut := flag.String("districts-out", "", "output path for the district CSV (optional)")
	count := flag.Int("count", 400, "number of disaster rows")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	if *out == "" || *count <= 0 {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out, -count > 0")
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	regions := domain.KnownRegions()

	header, rows := disasterRows(rng, regions, *count)
	if err := writeCSV(*out, header, rows); err != nil {
		return fmt.Errorf("writing disasters: %w", err)
	}
	log.Printf("wrote %d disaster rows: %s", len(rows), *out)

	if *districtsOut != "" {
		dHeader, dRows := districtRows(rng, regions)
		if err := writeCSV(*districtsOut, dHeader, dRows); err != nil {
			return fmt.Errorf("writing districts: %w", err)
		}
		log.Printf("wrote %d district rows: %s", len(dRows), *districtsOut)
	}

	return printStats(*out)
}

func disasterRows(rng *rand.Rand, regions []string, count int) ([]string, [][]string) {
	header := append([]string{}, domain.RequiredColumns...)
	header = append(header, domain.ColIHPApplicants, domain.ColIHPAverageAward)
	for n := 1; n <= 2; n++ {
		header = append(header, fmt.Sprintf("frn%d_date", n))
		for g := 1; g <= 2; g++ {
			header = append(header, fmt.Sprintf("frn%d_grantee%d_name", n, g), fmt.Sprintf("frn%d_grantee%d_amount", n, g))
		}
	}

	rows := make([][]string, 0, count)
	for i := range count {
		incidentType := incidentTypes[rng.IntN(len(incidentTypes))]
		region := regions[rng.IntN(len(regions))]
		if rng.IntN(50) == 0 {
			region = "XX"
		}
		start := time.Date(firstYear+rng.IntN(lastYear-firstYear+1), time.Month(1+rng.IntN(12)), 1+rng.IntN(28), 0, 0, 0, 0, time.UTC)
		declared := start.AddDate(0, 0, rng.IntN(30))

		scale := typeScale[incidentType]
		ihp := scale * 0.2 * rng.Float64()
		pa := scale * 0.5 * rng.Float64()
		cdbg := 0.0
		if rng.IntN(4) == 0 {
			cdbg = scale * 0.8 * rng.Float64()
		}
		sba := scale * 0.3 * rng.Float64()
		applicants := 0.0
		if ihp > 0 && rng.IntN(3) > 0 {
			applicants = float64(int(ihp / (3000 + 6000*rng.Float64())))
		}

		row := map[string]string{
			domain.ColIncidentStart:   start.Format("2006-01-02"),
			domain.ColIncidentType:    incidentType,
			domain.ColState:           region,
			domain.ColEvent:           fmt.Sprintf("%s %s %d", domain.RegionName(region), incidentType, start.Year()),
			domain.ColIncidentNumber:  strconv.Itoa(1000 + i),
			domain.ColDeclarationDate: declared.Format("2006-01-02"),
			domain.ColIHPTotal:        money(ihp),
			domain.ColPATotal:         money(pa),
			domain.ColCDBGDR:          money(cdbg),
			domain.ColSBA:             money(sba),
			domain.ColIHPApplicants:   money(applicants),
		}
		if rng.IntN(5) == 0 && applicants > 0 {
			row[domain.ColIHPAverageAward] = money(ihp / applicants)
		}
		if cdbg > 0 {
			addTranches(rng, row, start, cdbg)
		}
		corrupt(rng, row)

		fields := make([]string, len(header))
		for j, h := range header {
			fields[j] = row[h]
		}
		rows = append(rows, fields)
	}
	return header, rows
}

func addTranches(rng *rand.Rand, row map[string]string, start time.Time, total float64) {
	remaining := total
	for n := 1; n <= 2 && remaining > 0; n++ {
		row[fmt.Sprintf("frn%d_date", n)] = start.AddDate(0, 6*n, 0).Format("2006-01-02")
		for g := 1; g <= 2; g++ {
			amount := remaining * (0.3 + 0.4*rng.Float64())
			remaining -= amount
			row[fmt.Sprintf("frn%d_grantee%d_name", n, g)] = grantees[rng.IntN(len(grantees))]
			row[fmt.Sprintf("frn%d_grantee%d_amount", n, g)] = money(amount)
		}
	}
}

// corrupt injects the formatting problems found in the real export.
func corrupt(rng *rand.Rand, row map[string]string) {
	switch rng.IntN(40) {
	case 0:
		row[domain.ColPATotal] = "N/A"
	case 1:
		row[domain.ColIHPTotal] = "$" + withCommas(row[domain.ColIHPTotal])
	case 2:
		row[domain.ColSBA] = ""
	case 3:
		row[domain.ColIncidentStart] = ""
	case 4:
		row[domain.ColState] = "  " + row[domain.ColState]
	}
}

func districtRows(rng *rand.Rand, regions []string) ([]string, [][]string) {
	header := []string{"state_name", "district_label", "district_number", "representative", "party", "total_applicants", "total_funding", "funding_per_applicant"}
	parties := []string{"D", "R"}

	var rows [][]string
	for _, code := range regions {
		if !domain.IsState(code) || code == "DC" {
			continue
		}
		n := 1 + rng.IntN(6)
		for d := 1; d <= n; d++ {
			applicants := float64(100 + rng.IntN(20000))
			funding := applicants * (2000 + 8000*rng.Float64())
			rows = append(rows, []string{
				domain.RegionName(code),
				fmt.Sprintf("%s-%d", code, d),
				strconv.Itoa(d),
				fmt.Sprintf("Rep. %s %d", code, d),
				parties[rng.IntN(len(parties))],
				money(applicants),
				money(funding),
				money(funding / applicants),
			})
		}
	}
	return header, rows
}

func money(v float64) string {
	return strconv.FormatFloat(float64(int64(v*100))/100, 'f', -1, 64)
}

func withCommas(s string) string {
	whole, frac := s, ""
	for i := range s {
		if s[i] == '.' {
			whole, frac = s[:i], s[i:]
			break
		}
	}
	var out []byte
	for i := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, whole[i])
	}
	return string(out) + frac
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func printStats(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := dataset.ParseDisasters(f)
	if err != nil {
		return fmt.Errorf("parse back %s: %w", path, err)
	}

	agg := domain.Aggregate(records, domain.AllSources)
	typeCounts := map[string]int{}
	for _, r := range records {
		typeCounts[r.IncidentType]++
	}
	types := make([]string, 0, len(typeCounts))
	for t := range typeCounts {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Println()
	fmt.Println("=== Mock Data Summary ===")
	fmt.Printf("  %-22s %d\n", "records", len(records))
	fmt.Printf("  %-22s %d\n", "regions with funding", len(agg.Regions))
	fmt.Printf("  %-22s %v\n", "unrecognized regions", agg.Unrecognized)
	fmt.Printf("  %-22s $%.0f\n", "total funding", agg.TotalFunding())
	for _, t := range types {
		fmt.Printf("  %-22s %d\n", t, typeCounts[t])
	}
	fmt.Printf("  %-22s %v\n", "proportional breaks", domain.ComputeThresholds(agg, domain.StrategyProportional))
	return nil
}
