package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExtractedInvoiceData is the best-effort data produced upstream from the invoice image.
type ExtractedInvoiceData struct {
	TotalValue  float64 `json:"total_value"`
	OrderDate   string  `json:"order_date"`
	OrderNumber string  `json:"order_number"`
}

// AuthorityRecord is canonical invoice data fetched from an external registry.
// Fetched per request and never cached.
type AuthorityRecord struct {
	TotalValue    float64 `json:"total_value"`
	HasTotalValue bool    `json:"-"`
	IssuerTaxID   string  `json:"issuer_tax_id"`
	IssuerName    string  `json:"issuer_name"`
	IssueDate     string  `json:"issue_date"`
	Status        string  `json:"status"`
	Provider      string  `json:"provider"`
	AccessKey     string  `json:"access_key,omitempty"`
}

// Usable reports whether the record carries at least a total value or an issuer tax ID.
func (a *AuthorityRecord) Usable() bool {
	return a != nil && (a.HasTotalValue || a.IssuerTaxID != "")
}

// KeyCandidate is a digit string proposed as an access key by one extraction strategy.
type KeyCandidate struct {
	Digits   string             `json:"digits"`
	Strategy ExtractionStrategy `json:"strategy"`
}

// Discrepancy records a field that differs between OCR data and the authority record.
type Discrepancy struct {
	Field          string `json:"field"`
	ExtractedValue string `json:"extracted_value"`
	AuthorityValue string `json:"authority_value"`
}

// Comparison is the audit annotation produced when authority data is available.
type Comparison struct {
	ValueMatches  bool          `json:"value_matches"`
	DateMatches   bool          `json:"date_matches"`
	Discrepancies []Discrepancy `json:"discrepancies"`
}

// SuspiciousPattern is a single finding raised by the plausibility checks.
type SuspiciousPattern struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TrustedInvoiceData is the data the caller should credit points against.
type TrustedInvoiceData struct {
	TotalValue  float64    `json:"total_value"`
	IssueDate   string     `json:"issue_date,omitempty"`
	OrderNumber string     `json:"order_number,omitempty"`
	IssuerTaxID string     `json:"issuer_tax_id,omitempty"`
	IssuerName  string     `json:"issuer_name,omitempty"`
	Status      string     `json:"status,omitempty"`
	AccessKey   string     `json:"access_key,omitempty"`
	Source      DataSource `json:"source"`
}

// ValidationResult is the only externally visible artifact of invoice validation.
type ValidationResult struct {
	Success              bool                `json:"success"`
	ValidationType       ValidationType      `json:"validation_type"`
	Data                 *TrustedInvoiceData `json:"data,omitempty"`
	Strategy             ExtractionStrategy  `json:"strategy,omitempty"`
	AccessKey            string              `json:"access_key,omitempty"`
	Provider             string              `json:"provider,omitempty"`
	RestrictedProcessing bool                `json:"restricted_processing"`
	Warning              string              `json:"warning,omitempty"`
	Reason               string              `json:"reason,omitempty"`
	Comparison           *Comparison         `json:"comparison,omitempty"`
	SuspiciousPatterns   []SuspiciousPattern `json:"suspicious_patterns,omitempty"`
	AttemptedCandidates  []KeyCandidate      `json:"attempted_candidates,omitempty"`
}

// InvoiceValidation is the persisted audit row for one validation call.
type InvoiceValidation struct {
	ID                   uuid.UUID       `db:"id" json:"id"`
	UserID               uuid.UUID       `db:"user_id" json:"user_id"`
	OrderNumber          string          `db:"order_number" json:"order_number"`
	AccessKey            string          `db:"access_key" json:"access_key"`
	Success              bool            `db:"success" json:"success"`
	ValidationType       ValidationType  `db:"validation_type" json:"validation_type"`
	Strategy             string          `db:"strategy" json:"strategy"`
	RestrictedProcessing bool            `db:"restricted_processing" json:"restricted_processing"`
	TotalValue           float64         `db:"total_value" json:"total_value"`
	SuspiciousCount      int             `db:"suspicious_count" json:"suspicious_count"`
	Result               json.RawMessage `db:"result" json:"result"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
}
