package export

import (
	"strconv"
	"time"

	"fidelis/internal/domain"
)

// columns defines the header row shared by the CSV and XLSX exports.
var columns = []string{
	"Validation ID",
	"Created At",
	"User ID",
	"Order Number",
	"Access Key",
	"Success",
	"Validation Type",
	"Strategy",
	"Restricted Processing",
	"Total Value",
	"Suspicious Patterns",
}

// Columns returns a copy of the export header row.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

func validationToRow(v *domain.InvoiceValidation) []string {
	return []string{
		v.ID.String(),
		v.CreatedAt.UTC().Format(time.RFC3339),
		v.UserID.String(),
		v.OrderNumber,
		v.AccessKey,
		formatBool(v.Success),
		string(v.ValidationType),
		v.Strategy,
		formatBool(v.RestrictedProcessing),
		formatMoney(v.TotalValue),
		strconv.Itoa(v.SuspiciousCount),
	}
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatBool(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
