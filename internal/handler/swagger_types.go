package handler

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// --- Request Types ---

// ExtractedDataRequest carries the data an upstream OCR step read from the invoice image.
type ExtractedDataRequest struct {
	TotalValue  float64 `json:"total_value" example:"153.87"`
	OrderDate   string  `json:"order_date" example:"15/06/2020"`
	OrderNumber string  `json:"order_number" example:"PED-2020-0042"`
}

// ValidateInvoiceRequest represents the invoice validation request body.
type ValidateInvoiceRequest struct {
	RawText   string               `json:"raw_text" binding:"required" example:"CHAVE DE ACESSO 3520 0611 2223 3300 0181 5500 1000 0001 2312 3456 7892"`
	Extracted ExtractedDataRequest `json:"extracted"`
}

// --- Response Types ---

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// --- Generic Response Wrappers ---

// Response wraps a successful response.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}
