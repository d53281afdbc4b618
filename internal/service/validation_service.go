package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"fidelis/internal/domain"
	"fidelis/internal/export"
	"fidelis/internal/port"
)

// maxExportRange bounds how much history a single export may cover.
const maxExportRange = 366 * 24 * time.Hour

// ExportFormat selects the audit export encoding.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// ValidateInput is the DTO for a validation request.
type ValidateInput struct {
	UserID    uuid.UUID
	RawText   string
	Extracted domain.ExtractedInvoiceData
}

// ValidationOutput pairs the validation result with its audit row ID.
type ValidationOutput struct {
	ID        uuid.UUID                `json:"id"`
	CreatedAt time.Time                `json:"created_at"`
	Result    *domain.ValidationResult `json:"result"`
}

// ExportInput is the DTO for an audit export.
type ExportInput struct {
	From   time.Time
	To     time.Time
	Format ExportFormat
}

// ValidationService validates invoices and keeps an audit trail of every decision.
type ValidationService interface {
	Validate(ctx context.Context, input *ValidateInput) (*ValidationOutput, error)
	GetByID(ctx context.Context, id, userID uuid.UUID, role domain.UserRole) (*domain.InvoiceValidation, error)
	List(ctx context.Context, userID uuid.UUID, role domain.UserRole, offset, limit int) ([]domain.InvoiceValidation, int, error)
	Export(ctx context.Context, input *ExportInput, w io.Writer) error
}

type validationService struct {
	validator port.InvoiceValidator
	repo      port.InvoiceValidationRepository
	now       func() time.Time
}

// NewValidationService creates a new ValidationService implementation.
func NewValidationService(validator port.InvoiceValidator, repo port.InvoiceValidationRepository) ValidationService {
	return &validationService{
		validator: validator,
		repo:      repo,
		now:       time.Now,
	}
}

func (s *validationService) Validate(ctx context.Context, input *ValidateInput) (*ValidationOutput, error) {
	if strings.TrimSpace(input.RawText) == "" {
		return nil, domain.ErrEmptyRawText
	}
	if input.Extracted.TotalValue < 0 {
		return nil, fmt.Errorf("%w: total value must not be negative", domain.ErrInvalidInput)
	}

	result := s.validator.ValidateInvoice(ctx, input.RawText, &input.Extracted)
	if result == nil {
		return nil, errors.New("validation.Validate: validator returned no result")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("validation.Validate: encoding result: %w", err)
	}

	audit := &domain.InvoiceValidation{
		ID:                   uuid.New(),
		UserID:               input.UserID,
		OrderNumber:          input.Extracted.OrderNumber,
		AccessKey:            result.AccessKey,
		Success:              result.Success,
		ValidationType:       result.ValidationType,
		Strategy:             string(result.Strategy),
		RestrictedProcessing: result.RestrictedProcessing,
		TotalValue:           input.Extracted.TotalValue,
		SuspiciousCount:      len(result.SuspiciousPatterns),
		Result:               payload,
		CreatedAt:            s.now().UTC(),
	}
	if result.Data != nil {
		audit.TotalValue = result.Data.TotalValue
	}

	if err := s.repo.Create(ctx, audit); err != nil {
		return nil, fmt.Errorf("validation.Validate: saving audit: %w", err)
	}
	log.Printf("service.ValidationService: audit %s stored for user %s (%s)", audit.ID, audit.UserID, audit.ValidationType)

	return &ValidationOutput{ID: audit.ID, CreatedAt: audit.CreatedAt, Result: result}, nil
}

func (s *validationService) GetByID(ctx context.Context, id, userID uuid.UUID, role domain.UserRole) (*domain.InvoiceValidation, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Customers only see their own audits; hide the existence of others.
	if role != domain.RoleAdmin && v.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (s *validationService) List(ctx context.Context, userID uuid.UUID, role domain.UserRole, offset, limit int) ([]domain.InvoiceValidation, int, error) {
	if role == domain.RoleAdmin {
		return s.repo.List(ctx, offset, limit)
	}
	return s.repo.ListByUser(ctx, userID, offset, limit)
}

func (s *validationService) Export(ctx context.Context, input *ExportInput, w io.Writer) error {
	to := input.To
	if to.IsZero() {
		to = s.now()
	}
	from := input.From
	if from.IsZero() {
		from = to.AddDate(0, -1, 0)
	}
	if !from.Before(to) {
		return fmt.Errorf("%w: from must be before to", domain.ErrInvalidInput)
	}
	if to.Sub(from) > maxExportRange {
		return fmt.Errorf("%w: export range is limited to one year", domain.ErrInvalidInput)
	}

	rows, err := s.repo.ListBetween(ctx, from, to)
	if err != nil {
		return fmt.Errorf("validation.Export: %w", err)
	}

	switch input.Format {
	case ExportCSV:
		return export.WriteCSV(w, rows)
	case ExportXLSX, "":
		return export.WriteXLSX(w, rows)
	default:
		return fmt.Errorf("%w: unsupported export format %q", domain.ErrInvalidInput, input.Format)
	}
}
