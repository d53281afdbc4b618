package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fidelis/internal/domain"
	"fidelis/internal/export"
	"fidelis/internal/service"
)

const dateLayout = "2006-01-02"

var exportContentTypes = map[service.ExportFormat]string{
	service.ExportCSV:  "text/csv; charset=utf-8",
	service.ExportXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ValidationHandler handles invoice validation endpoints.
type ValidationHandler struct {
	validationService service.ValidationService
	now               func() time.Time
}

// NewValidationHandler creates a new ValidationHandler.
func NewValidationHandler(validationService service.ValidationService) *ValidationHandler {
	return &ValidationHandler{validationService: validationService, now: time.Now}
}

// Validate handles POST /api/v1/invoices/validate
// @Summary Validate an invoice
// @Description Locate the fiscal access key in the OCR text, confirm it with the registries
// @Description and fall back to plausibility checks. Rejections are returned with 200 and success=false in the result.
// @Tags invoices
// @Accept json
// @Produce json
// @Param request body ValidateInvoiceRequest true "OCR text and extracted data"
// @Success 200 {object} Response{data=service.ValidationOutput} "Validation finished"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /invoices/validate [post]
func (h *ValidationHandler) Validate(c *gin.Context) {
	userID, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	var req ValidateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	out, err := h.validationService.Validate(c.Request.Context(), &service.ValidateInput{
		UserID:  userID,
		RawText: req.RawText,
		Extracted: domain.ExtractedInvoiceData{
			TotalValue:  req.Extracted.TotalValue,
			OrderDate:   req.Extracted.OrderDate,
			OrderNumber: req.Extracted.OrderNumber,
		},
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, out)
}

// GetByID handles GET /api/v1/invoices/validations/:id
// @Summary Get a validation audit
// @Description Customers can read their own audits; admins can read any.
// @Tags invoices
// @Produce json
// @Param id path string true "Validation ID"
// @Success 200 {object} Response{data=domain.InvoiceValidation} "Validation audit"
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 404 {object} ErrorResponseBody "Not found"
// @Security BearerAuth
// @Router /invoices/validations/{id} [get]
func (h *ValidationHandler) GetByID(c *gin.Context) {
	userID, role, ok := extractAuthContext(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid validation ID")
		return
	}

	v, err := h.validationService.GetByID(c.Request.Context(), id, userID, role)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, v)
}

// List handles GET /api/v1/invoices/validations
// @Summary List validation audits
// @Description Newest first. Customers see their own audits; admins see all.
// @Tags invoices
// @Produce json
// @Param offset query int false "Offset" default(0)
// @Param limit query int false "Limit" default(20)
// @Success 200 {object} Response{data=[]domain.InvoiceValidation,meta=PagMeta} "Validation audits"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /invoices/validations [get]
func (h *ValidationHandler) List(c *gin.Context) {
	userID, role, ok := extractAuthContext(c)
	if !ok {
		return
	}

	offset, limit := parsePagination(c)
	rows, total, err := h.validationService.List(c.Request.Context(), userID, role, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, rows, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Export handles GET /api/v1/invoices/validations/export
// @Summary Export validation audits
// @Description Download audits created in [from, to) as CSV or XLSX.
// @Tags invoices
// @Produce octet-stream
// @Param format query string false "csv or xlsx" default(xlsx)
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date, exclusive (YYYY-MM-DD)"
// @Success 200 {file} file "Export file"
// @Failure 400 {object} ErrorResponseBody "Invalid filters"
// @Failure 403 {object} ErrorResponseBody "Admin only"
// @Security BearerAuth
// @Router /invoices/validations/export [get]
func (h *ValidationHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportXLSX)))
	contentType, known := exportContentTypes[format]
	if !known {
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be csv or xlsx")
		return
	}

	input := &service.ExportInput{Format: format}
	var err error
	if input.From, err = parseDateQuery(c, "from"); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_DATE", err.Error())
		return
	}
	if input.To, err = parseDateQuery(c, "to"); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_DATE", err.Error())
		return
	}

	// Buffer so a failed export can still produce a JSON error.
	var buf bytes.Buffer
	if err := h.validationService.Export(c.Request.Context(), input, &buf); err != nil {
		HandleError(c, err)
		return
	}

	filename := export.BuildFilename("invoice_validations", string(format), h.now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func parseDateQuery(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid '%s' date: must be YYYY-MM-DD", name)
	}
	return t, nil
}
