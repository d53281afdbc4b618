package heuristic

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fidelis/internal/domain"
	"fidelis/internal/nfe"
)

// Compare annotates differences between OCR data and an authority record. It never
// rejects; mismatches only produce discrepancy records. A side that is missing counts
// as no match and is not recorded as a discrepancy.
func (e *Engine) Compare(extracted *domain.ExtractedInvoiceData, auth *domain.AuthorityRecord) *domain.Comparison {
	c := &domain.Comparison{Discrepancies: []domain.Discrepancy{}}
	if extracted == nil || auth == nil {
		return c
	}

	if auth.HasTotalValue && extracted.TotalValue > 0 {
		c.ValueMatches = e.valueWithinTolerance(extracted.TotalValue, auth.TotalValue)
		if !c.ValueMatches {
			c.Discrepancies = append(c.Discrepancies, domain.Discrepancy{
				Field:          "total_value",
				ExtractedValue: fmtMoney(extracted.TotalValue),
				AuthorityValue: fmtMoney(auth.TotalValue),
			})
		}
	}

	extractedDate, errE := nfe.ParseDate(extracted.OrderDate)
	authorityDate, errA := nfe.ParseDate(auth.IssueDate)
	if errE == nil && errA == nil {
		diff := extractedDate.Sub(authorityDate)
		if diff < 0 {
			diff = -diff
		}
		c.DateMatches = diff <= e.policy.DateTolerance
		if !c.DateMatches {
			c.Discrepancies = append(c.Discrepancies, domain.Discrepancy{
				Field:          "issue_date",
				ExtractedValue: extracted.OrderDate,
				AuthorityValue: auth.IssueDate,
			})
		}
	}
	return c
}

func (e *Engine) valueWithinTolerance(extracted, authority float64) bool {
	ev := decimal.NewFromFloat(extracted).Round(2)
	av := decimal.NewFromFloat(authority).Round(2)
	limit := av.Abs().Mul(decimal.NewFromFloat(e.policy.ValueTolerance))
	return ev.Sub(av).Abs().LessThanOrEqual(limit)
}

func fmtMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
