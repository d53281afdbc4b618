package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fidelis/internal/domain"
)

// InvoiceValidationRepository defines the contract for validation audit persistence.
type InvoiceValidationRepository interface {
	Create(ctx context.Context, v *domain.InvoiceValidation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceValidation, error)
	List(ctx context.Context, offset, limit int) ([]domain.InvoiceValidation, int, error)
	ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]domain.InvoiceValidation, int, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]domain.InvoiceValidation, error)
}
