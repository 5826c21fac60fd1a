package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquifer-fi/aquifer/internal/modules/baskets"
	"github.com/aquifer-fi/aquifer/internal/modules/scoring"
	"github.com/aquifer-fi/aquifer/internal/modules/underwriting"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()

	allocator, err := baskets.NewAllocator(baskets.NewMemoryRepository(), zerolog.Nop())
	require.NoError(t, err)
	service := underwriting.NewService(scoring.NewRegistry(), allocator, nil, zerolog.Nop())

	r := chi.NewRouter()
	NewHandler(service, allocator, zerolog.Nop()).RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func validInvoiceBody(assetID string) map[string]any {
	return map[string]any{
		"asset_id": assetID,
		"class":    "invoice",
		"amount":   50_000,
		"attributes": map[string]any{
			"years_in_business": 5,
			"total_invoices":    10,
			"on_time_payments":  10,
			"country":           "United States",
			"payment_terms":     "Net 30",
			"red_flags":         []string{},
		},
	}
}

func TestHandleSubmit(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/submissions", validInvoiceBody("asset-1"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var result underwriting.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "asset-1", result.AssetID)
	require.NotNil(t, result.Assignment)
	assert.NotEmpty(t, result.Assignment.BasketID)
	assert.GreaterOrEqual(t, result.Assessment.Score, 15)
	assert.LessOrEqual(t, result.Assessment.Score, 30)
}

func TestHandleSubmitGeneratesAssetID(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/submissions", validInvoiceBody(""))
	require.Equal(t, http.StatusCreated, rec.Code)

	var result underwriting.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.AssetID)
}

func TestHandleSubmitErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     map[string]any
		wantCode int
	}{
		{
			name:     "unknown class",
			body:     map[string]any{"class": "yacht", "amount": 1000},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "missing class",
			body:     map[string]any{"amount": 1000},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "non-positive amount",
			body:     map[string]any{"class": "invoice", "amount": 0},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t)
			rec := doJSON(t, router, http.MethodPost, "/api/submissions", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)

			var errResp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
			assert.NotEmpty(t, errResp["error"])
		})
	}
}

func TestHandleSubmitMalformedJSON(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/submissions", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAssessDoesNotAllocate(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/assessments", validInvoiceBody("asset-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Assessment struct {
			Score      int `json:"score"`
			Confidence int `json:"confidence"`
		} `json:"assessment"`
		Enhanced bool `json:"enhanced"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.GreaterOrEqual(t, resp.Assessment.Confidence, 85)
	assert.False(t, resp.Enhanced)

	// Assessment alone must not have created any basket
	list := doJSON(t, router, http.MethodGet, "/api/baskets", nil)
	require.Equal(t, http.StatusOK, list.Code)
	var baskets struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &baskets))
	assert.Equal(t, 0, baskets.Count)
}

func TestHandleGetBasket(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/submissions", validInvoiceBody("asset-1"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var result underwriting.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	get := doJSON(t, router, http.MethodGet, "/api/baskets/"+result.Assignment.BasketID, nil)
	require.Equal(t, http.StatusOK, get.Code)

	var basket struct {
		ID             string   `json:"id"`
		Tier           string   `json:"tier"`
		MemberAssetIDs []string `json:"member_asset_ids"`
	}
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &basket))
	assert.Equal(t, result.Assignment.BasketID, basket.ID)
	assert.Contains(t, basket.MemberAssetIDs, "asset-1")
}

func TestHandleGetBasketNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/baskets/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
