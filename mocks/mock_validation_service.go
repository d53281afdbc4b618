package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"fidelis/internal/domain"
	"fidelis/internal/service"
)

// MockValidationService is a mock implementation of service.ValidationService.
type MockValidationService struct {
	mock.Mock
}

func (m *MockValidationService) Validate(ctx context.Context, input *service.ValidateInput) (*service.ValidationOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ValidationOutput), args.Error(1)
}

func (m *MockValidationService) GetByID(ctx context.Context, id, userID uuid.UUID, role domain.UserRole) (*domain.InvoiceValidation, error) {
	args := m.Called(ctx, id, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceValidation), args.Error(1)
}

func (m *MockValidationService) List(ctx context.Context, userID uuid.UUID, role domain.UserRole, offset, limit int) ([]domain.InvoiceValidation, int, error) {
	args := m.Called(ctx, userID, role, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.InvoiceValidation), args.Int(1), args.Error(2)
}

func (m *MockValidationService) Export(ctx context.Context, input *service.ExportInput, w io.Writer) error {
	args := m.Called(ctx, input, w)
	return args.Error(0)
}
