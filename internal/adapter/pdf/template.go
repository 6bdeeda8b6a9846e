package pdf

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/disaster-funding-service/internal/domain"
)

//go:embed factsheet.html.tmpl
var factSheetSource string

var factSheetTemplate = template.Must(template.New("factsheet").Funcs(template.FuncMap{
	"money":      formatMoney,
	"count":      formatCount,
	"date":       formatDate,
	"regionName": domain.RegionName,
	"sources":    sourceAmounts,
}).Parse(factSheetSource))

// RenderHTML renders the fact sheet page that is printed to PDF.
func RenderHTML(fs domain.FactSheet) ([]byte, error) {
	var buf bytes.Buffer
	if err := factSheetTemplate.Execute(&buf, fs); err != nil {
		return nil, fmt.Errorf("render fact sheet: %w", err)
	}
	return buf.Bytes(), nil
}

type sourceAmount struct {
	Label  string
	Amount float64
}

func sourceAmounts(by map[domain.FundingSource]float64) []sourceAmount {
	out := make([]sourceAmount, 0, len(domain.AllSources))
	for _, s := range domain.AllSources {
		out = append(out, sourceAmount{Label: s.Label(), Amount: by[s]})
	}
	return out
}

// formatMoney renders whole dollars with thousands separators.
func formatMoney(v float64) string {
	return "$" + groupThousands(math.Round(v))
}

func formatCount(v float64) string {
	return groupThousands(math.Round(v))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return t.Format("January 2, 2006")
}

func groupThousands(v float64) string {
	neg := v < 0
	digits := strconv.FormatFloat(math.Abs(v), 'f', 0, 64)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
