package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"fidelis/internal/domain"
)

// MockInvoiceValidationRepo is a mock implementation of port.InvoiceValidationRepository.
type MockInvoiceValidationRepo struct {
	mock.Mock
}

func (m *MockInvoiceValidationRepo) Create(ctx context.Context, v *domain.InvoiceValidation) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockInvoiceValidationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceValidation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceValidation), args.Error(1)
}

func (m *MockInvoiceValidationRepo) List(ctx context.Context, offset, limit int) ([]domain.InvoiceValidation, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.InvoiceValidation), args.Int(1), args.Error(2)
}

func (m *MockInvoiceValidationRepo) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]domain.InvoiceValidation, int, error) {
	args := m.Called(ctx, userID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.InvoiceValidation), args.Int(1), args.Error(2)
}

func (m *MockInvoiceValidationRepo) ListBetween(ctx context.Context, from, to time.Time) ([]domain.InvoiceValidation, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InvoiceValidation), args.Error(1)
}
