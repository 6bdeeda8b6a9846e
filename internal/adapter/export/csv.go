package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/couchcryptid/disaster-funding-service/internal/domain"
)

// CSVOptions configures CSV output.
type CSVOptions struct {
	BOMPrefix bool // UTF-8 BOM so Excel detects the encoding
}

// WriteCSV writes the header and one row per record.
func WriteCSV(w io.Writer, records []domain.DisasterRecord, opts CSVOptions) error {
	if opts.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range records {
		if err := writer.Write(Row(r)); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
