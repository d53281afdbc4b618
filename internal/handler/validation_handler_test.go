package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fidelis/internal/domain"
	"fidelis/internal/handler"
	"fidelis/internal/middleware"
	"fidelis/internal/service"
	"fidelis/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setAuthContext(c *gin.Context, userID uuid.UUID, role string) {
	c.Set(middleware.ContextKeyUserID, userID)
	c.Set(middleware.ContextKeyRole, role)
}

func newTestContext(method, target string, body io.Reader) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(method, target, body)
	if body != http.NoBody {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestValidationHandler_Validate_Success(t *testing.T) {
	svc := new(mocks.MockValidationService)
	h := handler.NewValidationHandler(svc)
	userID := uuid.New()

	out := &service.ValidationOutput{
		ID: uuid.New(),
		Result: &domain.ValidationResult{
			Success:        true,
			ValidationType: domain.ValidationAuthorityKey,
		},
	}
	svc.On("Validate", mock.Anything, mock.MatchedBy(func(in *service.ValidateInput) bool {
		return in.UserID == userID &&
			in.RawText == "chave de acesso 3520..." &&
			in.Extracted.TotalValue == 153.87 &&
			in.Extracted.OrderNumber == "PED-1"
	})).Return(out, nil)

	body := `{"raw_text":"chave de acesso 3520...","extracted":{"total_value":153.87,"order_number":"PED-1"}}`
	c, w := newTestContext(http.MethodPost, "/api/v1/invoices/validate", bytes.NewBufferString(body))
	setAuthContext(c, userID, "customer")

	h.Validate(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	result := data["result"].(map[string]interface{})
	assert.Equal(t, "authority-key", result["validation_type"])
	svc.AssertExpectations(t)
}

func TestValidationHandler_Validate_RejectedIsStill200(t *testing.T) {
	svc := new(mocks.MockValidationService)
	h := handler.NewValidationHandler(svc)

	svc.On("Validate", mock.Anything, mock.Anything).Return(&service.ValidationOutput{
		ID: uuid.New(),
		Result: &domain.ValidationResult{
			ValidationType: domain.ValidationRejected,
			Reason:         "total value outside the accepted range",
		},
	}, nil)

	c, w := newTestContext(http.MethodPost, "/api/v1/invoices/validate", bytes.NewBufferString(`{"raw_text":"R$ 3"}`))
	setAuthContext(c, uuid.New(), "customer")

	h.Validate(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestValidationHandler_Validate_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		svcErr   error
		wantCode int
		wantErr  string
	}{
		{"missing raw_text", `{"extracted":{}}`, nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"malformed json", `{"raw_text":`, nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"blank raw_text", `{"raw_text":"   "}`, domain.ErrEmptyRawText, http.StatusBadRequest, "EMPTY_RAW_TEXT"},
		{"storage failure", `{"raw_text":"cupom"}`, errors.New("db down"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockValidationService)
			h := handler.NewValidationHandler(svc)
			if tt.svcErr != nil {
				svc.On("Validate", mock.Anything, mock.Anything).Return(nil, tt.svcErr)
			}

			c, w := newTestContext(http.MethodPost, "/api/v1/invoices/validate", bytes.NewBufferString(tt.body))
			setAuthContext(c, uuid.New(), "customer")

			h.Validate(c)

			assert.Equal(t, tt.wantCode, w.Code)
			resp := decode(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantErr, resp.Error.Code)
		})
	}
}

func TestValidationHandler_Validate_BindFailuresAreGeneric(t *testing.T) {
	bodies := []string{
		`{"raw_text":`,
		`{"raw_text":"cupom","extracted":{"total_value":"abc"}}`,
		`{"extracted":{}}`,
	}
	for _, body := range bodies {
		svc := new(mocks.MockValidationService)
		h := handler.NewValidationHandler(svc)

		c, w := newTestContext(http.MethodPost, "/api/v1/invoices/validate", bytes.NewBufferString(body))
		setAuthContext(c, uuid.New(), "customer")

		h.Validate(c)

		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		resp := decode(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "invalid request body", resp.Error.Message, body)
		svc.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything)
	}
}

func TestValidationHandler_Validate_NoAuthContext(t *testing.T) {
	h := handler.NewValidationHandler(new(mocks.MockValidationService))

	c, w := newTestContext(http.MethodPost, "/api/v1/invoices/validate", bytes.NewBufferString(`{"raw_text":"x"}`))
	h.Validate(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidationHandler_GetByID(t *testing.T) {
	svc := new(mocks.MockValidationService)
	h := handler.NewValidationHandler(svc)
	userID := uuid.New()
	id := uuid.New()

	svc.On("GetByID", mock.Anything, id, userID, domain.RoleCustomer).
		Return(&domain.InvoiceValidation{ID: id, UserID: userID, Result: json.RawMessage(`{}`)}, nil)

	c, w := newTestContext(http.MethodGet, "/api/v1/invoices/validations/"+id.String(), http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	setAuthContext(c, userID, "customer")

	h.GetByID(c)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestValidationHandler_GetByID_Errors(t *testing.T) {
	t.Run("invalid id", func(t *testing.T) {
		h := handler.NewValidationHandler(new(mocks.MockValidationService))
		c, w := newTestContext(http.MethodGet, "/api/v1/invoices/validations/nope", http.NoBody)
		c.Params = gin.Params{{Key: "id", Value: "nope"}}
		setAuthContext(c, uuid.New(), "customer")

		h.GetByID(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(mocks.MockValidationService)
		h := handler.NewValidationHandler(svc)
		id := uuid.New()
		svc.On("GetByID", mock.Anything, id, mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)

		c, w := newTestContext(http.MethodGet, "/api/v1/invoices/validations/"+id.String(), http.NoBody)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}
		setAuthContext(c, uuid.New(), "customer")

		h.GetByID(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestValidationHandler_List(t *testing.T) {
	svc := new(mocks.MockValidationService)
	h := handler.NewValidationHandler(svc)
	userID := uuid.New()

	svc.On("List", mock.Anything, userID, domain.RoleAdmin, 10, 20).
		Return([]domain.InvoiceValidation{{ID: uuid.New(), Result: json.RawMessage(`{}`)}}, 11, nil)

	c, w := newTestContext(http.MethodGet, "/api/v1/invoices/validations?offset=10&limit=500", http.NoBody)
	setAuthContext(c, userID, "admin")

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 11, resp.Meta.Total)
	assert.Equal(t, 10, resp.Meta.Offset)
	assert.Equal(t, 20, resp.Meta.Limit)
	svc.AssertExpectations(t)
}

func TestValidationHandler_Export_CSV(t *testing.T) {
	svc := new(mocks.MockValidationService)
	h := handler.NewValidationHandler(svc)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	svc.On("Export", mock.Anything, &service.ExportInput{From: from, To: to, Format: service.ExportCSV}, mock.Anything).
		Run(func(args mock.Arguments) {
			_, _ = io.WriteString(args.Get(2).(io.Writer), "Validation ID\n")
		}).
		Return(nil)

	c, w := newTestContext(http.MethodGet, "/api/v1/invoices/validations/export?format=csv&from=2024-03-01&to=2024-04-01", http.NoBody)
	setAuthContext(c, uuid.New(), "admin")

	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "invoice_validations_")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.Equal(t, "Validation ID\n", w.Body.String())
	svc.AssertExpectations(t)
}

func TestValidationHandler_Export_DefaultsToXLSX(t *testing.T) {
	svc := new(mocks.MockValidationService)
	h := handler.NewValidationHandler(svc)
	svc.On("Export", mock.Anything, &service.ExportInput{Format: service.ExportXLSX}, mock.Anything).Return(nil)

	c, w := newTestContext(http.MethodGet, "/api/v1/invoices/validations/export", http.NoBody)
	setAuthContext(c, uuid.New(), "admin")

	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
}

func TestValidationHandler_Export_BadInput(t *testing.T) {
	tests := []struct {
		name  string
		query string
		code  string
	}{
		{"unknown format", "?format=pdf", "INVALID_FORMAT"},
		{"bad from", "?from=01/03/2024", "INVALID_DATE"},
		{"bad to", "?to=tomorrow", "INVALID_DATE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewValidationHandler(new(mocks.MockValidationService))
			c, w := newTestContext(http.MethodGet, "/api/v1/invoices/validations/export"+tt.query, http.NoBody)
			setAuthContext(c, uuid.New(), "admin")

			h.Export(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decode(t, w).Error.Code)
		})
	}
}

func TestValidationHandler_Export_ServiceError(t *testing.T) {
	svc := new(mocks.MockValidationService)
	h := handler.NewValidationHandler(svc)
	svc.On("Export", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.Join(domain.ErrInvalidInput, errors.New("range too long")))

	c, w := newTestContext(http.MethodGet, "/api/v1/invoices/validations/export?format=csv", http.NoBody)
	setAuthContext(c, uuid.New(), "admin")

	h.Export(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decode(t, w).Error.Code)
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(_ context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/healthz", http.NoBody)
	handler.NewHealthHandler(fakePinger{}).Liveness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newTestContext(http.MethodGet, "/readyz", http.NoBody)
	handler.NewHealthHandler(fakePinger{}).Readiness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newTestContext(http.MethodGet, "/readyz", http.NoBody)
	handler.NewHealthHandler(fakePinger{err: errors.New("down")}).Readiness(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
