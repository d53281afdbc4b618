package domain

// UserRole defines what a caller may see of the validation audit trail.
type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleCustomer UserRole = "customer"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// ExtractionStrategy tags which candidate strategy produced an access key.
type ExtractionStrategy string

const (
	StrategyLabeled      ExtractionStrategy = "labeled"
	StrategyBarcode      ExtractionStrategy = "barcode"
	StrategyRegionAnchor ExtractionStrategy = "region-anchor"
	StrategyBruteForce   ExtractionStrategy = "brute-force-window"
	StrategyGenerated    ExtractionStrategy = "generated"
)

// ValidationType tells the points workflow how much the returned data can be trusted.
type ValidationType string

const (
	ValidationAuthorityKey          ValidationType = "authority-key"
	ValidationAuthorityGeneratedKey ValidationType = "authority-generated-key"
	ValidationAuthorityBarcodeKey   ValidationType = "authority-barcode-key"
	ValidationTaxIDValidated        ValidationType = "tax-id-validated"
	ValidationOCRRestricted         ValidationType = "ocr-restricted"
	ValidationRejected              ValidationType = "rejected"
)

// DataSource identifies where the trusted invoice data came from.
type DataSource string

const (
	SourceAuthority DataSource = "authority"
	SourceTaxID     DataSource = "tax-id-registry"
	SourceOCR       DataSource = "ocr"
)
