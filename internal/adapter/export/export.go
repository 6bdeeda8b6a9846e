// Package export writes filtered disaster records as CSV or XLSX
// attachments. The region column carries the full region name.
package export

import (
	"strconv"
	"time"

	"github.com/couchcryptid/disaster-funding-service/internal/domain"
)

const dateLayout = "2006-01-02"

// Columns is the export header, matching the filtered view.
var Columns = []string{
	domain.ColIncidentStart,
	domain.ColIncidentType,
	domain.ColState,
	domain.ColEvent,
	domain.ColIncidentNumber,
	domain.ColDeclarationDate,
	domain.ColIHPTotal,
	domain.ColPATotal,
	domain.ColCDBGDR,
	domain.ColSBA,
	domain.ColIHPApplicants,
	domain.ColIHPAverageAward,
}

// firstAmountColumn is the zero-based index of the first numeric column;
// every column after it is numeric too.
const firstAmountColumn = 6

// Row renders one record in Columns order.
func Row(r domain.DisasterRecord) []string {
	return []string{
		formatDate(r.IncidentStart),
		r.IncidentType,
		domain.RegionName(r.Region),
		r.Event,
		r.IncidentNumber,
		formatDate(r.DeclarationDate),
		formatAmount(r.IHPTotal),
		formatAmount(r.PATotal),
		formatAmount(r.CDBGDRAllocation),
		formatAmount(r.SBALoanTotal),
		formatAmount(r.IHPApplicants),
		formatAmount(r.IHPAverageAward),
	}
}

// Filename names an attachment by its generation date.
func Filename(ext string, now time.Time) string {
	return "disaster-funding-" + now.Format("20060102") + "." + ext
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
