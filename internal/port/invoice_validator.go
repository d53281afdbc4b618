package port

import (
	"context"

	"fidelis/internal/domain"
)

// InvoiceValidator runs the validation pipeline for one invoice.
type InvoiceValidator interface {
	ValidateInvoice(ctx context.Context, rawText string, extracted *domain.ExtractedInvoiceData) *domain.ValidationResult
}
