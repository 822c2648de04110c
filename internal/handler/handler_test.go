package handler

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

	"boigordo/internal/apierror"
	"boigordo/internal/dto"
	"boigordo/internal/middleware"
	"boigordo/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Fake services ────────────────────────────────────────────────────────────

// fakeInterventions embeds the interface so only the methods a test needs
// have to be provided.
type fakeInterventions struct {
	service.InterventionService

	mortalityReq dto.CreateMortalityRequest
	mortalityErr error
	stats        *dto.InterventionStatisticsResponse
	statsErr     error
	statsCycle   *uuid.UUID
	historyReq   dto.InterventionHistoryFilter
	penCost      *dto.PenCostResponse
	penCostErr   error
}

func (f *fakeInterventions) CreateMortalityRecord(_ context.Context, req dto.CreateMortalityRequest) (*dto.MortalityResponse, error) {
	f.mortalityReq = req
	if f.mortalityErr != nil {
		return nil, f.mortalityErr
	}
	return &dto.MortalityResponse{ID: uuid.NewString(), PenID: req.PenID, Quantity: req.Quantity, Distribution: "proportional"}, nil
}

func (f *fakeInterventions) CreateWeightReading(_ context.Context, req dto.CreateWeightReadingRequest) (*dto.WeightReadingResponse, error) {
	return &dto.WeightReadingResponse{ID: uuid.NewString(), WeighingMethod: req.WeighingMethod, AverageWeight: req.AverageWeight}, nil
}

func (f *fakeInterventions) GetInterventionHistory(_ context.Context, filter dto.InterventionHistoryFilter) (*dto.InterventionHistoryResponse, error) {
	f.historyReq = filter
	return &dto.InterventionHistoryResponse{Data: []dto.InterventionHistoryItem{}}, nil
}

func (f *fakeInterventions) GetInterventionStatistics(_ context.Context, cycleID *uuid.UUID) (*dto.InterventionStatisticsResponse, error) {
	f.statsCycle = cycleID
	return f.stats, f.statsErr
}

func (f *fakeInterventions) GetPenCost(_ context.Context, _ uuid.UUID) (*dto.PenCostResponse, error) {
	return f.penCost, f.penCostErr
}

type fakeFinancial struct {
	service.FinancialService

	analysisErr error
	pdf         []byte
}

func (f *fakeFinancial) GetMonthlyAnalysis(_ context.Context, month time.Time) (*dto.FinancialAnalysisResponse, error) {
	if f.analysisErr != nil {
		return nil, f.analysisErr
	}
	return &dto.FinancialAnalysisResponse{ReferenceMonth: month.Format("2006-01"), ReferenceYear: month.Year()}, nil
}

func (f *fakeFinancial) RenderMonthlyReport(_ context.Context, _ time.Time, w io.Writer) error {
	if f.analysisErr != nil {
		return f.analysisErr
	}
	_, err := w.Write(f.pdf)
	return err
}

func (f *fakeFinancial) ListCategories() []dto.CategoryResponse {
	return []dto.CategoryResponse{{Code: "deaths", DisplayName: "Mortalidade"}}
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func newTestEngine(iv service.InterventionService, fin service.FinancialService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())

	ih := NewInterventionsHandler(iv)
	ph := NewPensHandler(iv)
	fh := NewFinancialHandler(fin)
	r.POST("/v1/interventions/mortality", ih.CreateMortality)
	r.POST("/v1/interventions/weights", ih.CreateWeight)
	r.GET("/v1/interventions/history", ih.History)
	r.GET("/v1/interventions/statistics", ih.Statistics)
	r.GET("/v1/pens/:id/cost", ph.Cost)
	r.GET("/v1/financial-analysis/:month", fh.Analysis)
	r.GET("/v1/financial-analysis/:month/pdf", fh.AnalysisPDF)
	r.GET("/v1/categories", fh.Categories)
	return r
}

func perform(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validMortality() map[string]interface{} {
	return map[string]interface{}{
		"pen_id":     uuid.NewString(),
		"quantity":   3,
		"death_date": "2024-03-10T00:00:00Z",
		"cause":      "pneumonia",
	}
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestCreateMortality_Created(t *testing.T) {
	iv := &fakeInterventions{}
	r := newTestEngine(iv, &fakeFinancial{})

	w := perform(r, http.MethodPost, "/v1/interventions/mortality", validMortality())

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 3, iv.mortalityReq.Quantity)
	var resp dto.MortalityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "proportional", resp.Distribution)
}

func TestCreateMortality_ValidationFails(t *testing.T) {
	r := newTestEngine(&fakeInterventions{}, &fakeFinancial{})
	body := validMortality()
	body["quantity"] = 0
	body["pen_id"] = "not-a-uuid"

	w := perform(r, http.MethodPost, "/v1/interventions/mortality", body)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp apierror.ValidationError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "PenID")
	assert.Contains(t, resp.Fields, "Quantity")
}

func TestCreateMortality_MalformedJSON(t *testing.T) {
	r := newTestEngine(&fakeInterventions{}, &fakeFinancial{})
	req := httptest.NewRequest(http.MethodPost, "/v1/interventions/mortality", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateMortality_DomainErrorsKeepTheirStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apierror.InsufficientQuantity("pen P-01 holds 2 animals"), http.StatusBadRequest},
		{apierror.NotFound("pen not found"), http.StatusNotFound},
		{apierror.InvalidQuantity("lot has zero initial quantity"), http.StatusBadRequest},
	}
	for _, tc := range cases {
		r := newTestEngine(&fakeInterventions{mortalityErr: tc.err}, &fakeFinancial{})
		w := perform(r, http.MethodPost, "/v1/interventions/mortality", validMortality())

		assert.Equal(t, tc.want, w.Code)
		assert.Contains(t, w.Body.String(), tc.err.Error())
	}
}

func TestCreateMortality_UnexpectedErrorIsMasked(t *testing.T) {
	r := newTestEngine(&fakeInterventions{mortalityErr: errors.New("pq: connection reset")}, &fakeFinancial{})

	w := perform(r, http.MethodPost, "/v1/interventions/mortality", validMortality())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestHistory_RejectsUnknownType(t *testing.T) {
	r := newTestEngine(&fakeInterventions{}, &fakeFinancial{})

	w := perform(r, http.MethodGet, "/v1/interventions/history?type=feeding", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHistory_PassesFilter(t *testing.T) {
	iv := &fakeInterventions{}
	r := newTestEngine(iv, &fakeFinancial{})
	lot := uuid.NewString()

	w := perform(r, http.MethodGet, "/v1/interventions/history?lot_id="+lot+"&start_date=2024-03-01&end_date=2024-03-31&type=weight", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, lot, iv.historyReq.LotID)
	assert.Equal(t, "2024-03-31", iv.historyReq.EndDate)
	assert.Equal(t, "weight", iv.historyReq.Type)
}

func TestStatistics_DegradedAnswers503WithBody(t *testing.T) {
	iv := &fakeInterventions{
		stats:    &dto.InterventionStatisticsResponse{TotalMortalityLoss: decimal.Zero, Degraded: true},
		statsErr: apierror.Unavailable("intervention statistics unavailable"),
	}
	r := newTestEngine(iv, &fakeFinancial{})

	w := perform(r, http.MethodGet, "/v1/interventions/statistics", nil)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp dto.InterventionStatisticsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Degraded)
	assert.Nil(t, iv.statsCycle)
}

func TestStatistics_CycleID(t *testing.T) {
	iv := &fakeInterventions{stats: &dto.InterventionStatisticsResponse{TotalMortalityLoss: decimal.Zero}}
	r := newTestEngine(iv, &fakeFinancial{})
	cycle := uuid.New()

	w := perform(r, http.MethodGet, "/v1/interventions/statistics?cycle_id="+cycle.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, iv.statsCycle)
	assert.Equal(t, cycle, *iv.statsCycle)

	w = perform(r, http.MethodGet, "/v1/interventions/statistics?cycle_id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPenCost(t *testing.T) {
	iv := &fakeInterventions{penCost: &dto.PenCostResponse{PenNumber: "P-01", TotalAnimals: 100, AverageCostPerHead: decimal.NewFromInt(17)}}
	r := newTestEngine(iv, &fakeFinancial{})

	w := perform(r, http.MethodGet, "/v1/pens/"+uuid.NewString()+"/cost", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pen_number":"P-01"`)

	w = perform(r, http.MethodGet, "/v1/pens/nope/cost", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalysis_MonthFormat(t *testing.T) {
	r := newTestEngine(&fakeInterventions{}, &fakeFinancial{})

	w := perform(r, http.MethodGet, "/v1/financial-analysis/2024-03", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reference_month":"2024-03"`)

	w = perform(r, http.MethodGet, "/v1/financial-analysis/03-2024", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalysis_NotFound(t *testing.T) {
	fin := &fakeFinancial{analysisErr: apierror.NotFound("no financial analysis for 2024-05")}
	r := newTestEngine(&fakeInterventions{}, fin)

	w := perform(r, http.MethodGet, "/v1/financial-analysis/2024-05", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(r, http.MethodGet, "/v1/financial-analysis/2024-05/pdf", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestAnalysisPDF(t *testing.T) {
	fin := &fakeFinancial{pdf: []byte("%PDF-1.3 fake")}
	r := newTestEngine(&fakeInterventions{}, fin)

	w := perform(r, http.MethodGet, "/v1/financial-analysis/2024-03/pdf", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "financial_analysis_2024-03.pdf")
	assert.Equal(t, "%PDF-1.3 fake", w.Body.String())
}

func TestCategories(t *testing.T) {
	r := newTestEngine(&fakeInterventions{}, &fakeFinancial{})

	w := perform(r, http.MethodGet, "/v1/categories", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Mortalidade")
}

func TestCreateWeight_WeighingMethods(t *testing.T) {
	r := newTestEngine(&fakeInterventions{}, &fakeFinancial{})
	body := func(method string) map[string]interface{} {
		return map[string]interface{}{
			"lot_id":          uuid.NewString(),
			"pen_id":          uuid.NewString(),
			"average_weight":  320.5,
			"sample_size":     10,
			"weighing_date":   "2024-03-10T00:00:00Z",
			"weighing_method": method,
		}
	}

	for _, method := range []string{"individual", "sample", "estimated", ""} {
		w := perform(r, http.MethodPost, "/v1/interventions/weights", body(method))
		assert.Equal(t, http.StatusCreated, w.Code, method)
	}

	w := perform(r, http.MethodPost, "/v1/interventions/weights", body("scale"))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "WeighingMethod")
}
