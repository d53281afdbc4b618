package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"fidelis/internal/domain"
	"fidelis/internal/port"
)

const validationColumns = `id, user_id, order_number, access_key, success, validation_type, strategy,
	restricted_processing, total_value, suspicious_count, result, created_at`

// validationRow scans the JSONB result into a plain byte slice, which database/sql
// fills from both text and binary driver values.
type validationRow struct {
	ID                   uuid.UUID             `db:"id"`
	UserID               uuid.UUID             `db:"user_id"`
	OrderNumber          string                `db:"order_number"`
	AccessKey            string                `db:"access_key"`
	Success              bool                  `db:"success"`
	ValidationType       domain.ValidationType `db:"validation_type"`
	Strategy             string                `db:"strategy"`
	RestrictedProcessing bool                  `db:"restricted_processing"`
	TotalValue           float64               `db:"total_value"`
	SuspiciousCount      int                   `db:"suspicious_count"`
	Result               []byte                `db:"result"`
	CreatedAt            time.Time             `db:"created_at"`
}

func (r validationRow) toDomain() domain.InvoiceValidation {
	return domain.InvoiceValidation{
		ID:                   r.ID,
		UserID:               r.UserID,
		OrderNumber:          r.OrderNumber,
		AccessKey:            r.AccessKey,
		Success:              r.Success,
		ValidationType:       r.ValidationType,
		Strategy:             r.Strategy,
		RestrictedProcessing: r.RestrictedProcessing,
		TotalValue:           r.TotalValue,
		SuspiciousCount:      r.SuspiciousCount,
		Result:               json.RawMessage(r.Result),
		CreatedAt:            r.CreatedAt,
	}
}

func toDomainList(rows []validationRow) []domain.InvoiceValidation {
	out := make([]domain.InvoiceValidation, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}

type invoiceValidationRepo struct {
	db *sqlx.DB
}

// NewInvoiceValidationRepo creates a new PostgreSQL-backed InvoiceValidationRepository.
func NewInvoiceValidationRepo(db *sqlx.DB) port.InvoiceValidationRepository {
	return &invoiceValidationRepo{db: db}
}

func (r *invoiceValidationRepo) Create(ctx context.Context, v *domain.InvoiceValidation) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	result := string(v.Result)
	if result == "" {
		result = "{}"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invoice_validations (`+validationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		v.ID, v.UserID, v.OrderNumber, v.AccessKey, v.Success, v.ValidationType, v.Strategy,
		v.RestrictedProcessing, v.TotalValue, v.SuspiciousCount, result, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("invoiceValidationRepo.Create: %w", err)
	}
	return nil
}

func (r *invoiceValidationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceValidation, error) {
	var row validationRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+validationColumns+` FROM invoice_validations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("invoiceValidationRepo.GetByID: %w", err)
	}
	v := row.toDomain()
	return &v, nil
}

func (r *invoiceValidationRepo) List(ctx context.Context, offset, limit int) ([]domain.InvoiceValidation, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM invoice_validations`); err != nil {
		return nil, 0, fmt.Errorf("invoiceValidationRepo.List count: %w", err)
	}

	var rows []validationRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+validationColumns+` FROM invoice_validations
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceValidationRepo.List: %w", err)
	}
	return toDomainList(rows), total, nil
}

func (r *invoiceValidationRepo) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]domain.InvoiceValidation, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM invoice_validations WHERE user_id = $1`, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceValidationRepo.ListByUser count: %w", err)
	}

	var rows []validationRow
	err = r.db.SelectContext(ctx, &rows,
		`SELECT `+validationColumns+` FROM invoice_validations
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceValidationRepo.ListByUser: %w", err)
	}
	return toDomainList(rows), total, nil
}

func (r *invoiceValidationRepo) ListBetween(ctx context.Context, from, to time.Time) ([]domain.InvoiceValidation, error) {
	var rows []validationRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+validationColumns+` FROM invoice_validations
		 WHERE created_at >= $1 AND created_at < $2
		 ORDER BY created_at`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("invoiceValidationRepo.ListBetween: %w", err)
	}
	return toDomainList(rows), nil
}
