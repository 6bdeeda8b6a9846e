package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/disaster-funding-service/internal/domain"
)

// utf8BOM is stripped from the first header cell; spreadsheet exports add it.
const utf8BOM = "\ufeff"

// ReadRows parses a CSV with a header row into one map per data row, keyed by
// the trimmed, lower-cased header name. Short rows leave missing keys empty.
func ReadRows(r io.Reader) ([]map[string]string, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("read header: empty file")
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, utf8BOM)))
	}

	var rows []map[string]string
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read line %d: %w", line, err)
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(fields) {
				row[name] = fields[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}

// MissingColumns returns the required columns absent from header.
func MissingColumns(header, required []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

// ParseDisasters reads the disaster-funding CSV into normalized records.
func ParseDisasters(r io.Reader) ([]domain.DisasterRecord, error) {
	rows, header, err := ReadRows(r)
	if err != nil {
		return nil, err
	}
	if missing := MissingColumns(header, domain.RequiredColumns); len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	records := make([]domain.DisasterRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.ParseRecord(row))
	}
	return records, nil
}

// ParseDistricts reads the congressional-district funding CSV.
func ParseDistricts(r io.Reader) ([]domain.DistrictFunding, error) {
	rows, header, err := ReadRows(r)
	if err != nil {
		return nil, err
	}
	if missing := MissingColumns(header, []string{"state_name", "district_label", "total_funding"}); len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	districts := make([]domain.DistrictFunding, 0, len(rows))
	for _, row := range rows {
		districts = append(districts, domain.ParseDistrict(row))
	}
	return districts, nil
}
