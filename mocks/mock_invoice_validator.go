package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"fidelis/internal/domain"
)

// MockInvoiceValidator is a mock implementation of port.InvoiceValidator.
type MockInvoiceValidator struct {
	mock.Mock
}

func (m *MockInvoiceValidator) ValidateInvoice(ctx context.Context, rawText string, extracted *domain.ExtractedInvoiceData) *domain.ValidationResult {
	args := m.Called(ctx, rawText, extracted)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.ValidationResult)
}
