package handler

import (
	"bytes"
	"net/http"
	"time"

	"boigordo/internal/apierror"
	"boigordo/internal/dto"
	"boigordo/internal/infra"
	"boigordo/internal/service"

	"github.com/gin-gonic/gin"
)

type FinancialHandler struct{ svc service.FinancialService }

func NewFinancialHandler(svc service.FinancialService) *FinancialHandler {
	return &FinancialHandler{svc: svc}
}

func parseMonth(c *gin.Context) (time.Time, bool) {
	month, err := time.Parse("2006-01", c.Param("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("month must be YYYY-MM"))
		return time.Time{}, false
	}
	return month, true
}

// Expenses godoc
// @Summary      List expenses
// @Description  Paginated expense ledger, newest due date first.
// @Tags         financial
// @Produce      json
// @Param        category   query string false "Category code"
// @Param        start_date query string false "YYYY-MM-DD"
// @Param        end_date   query string false "YYYY-MM-DD"
// @Param        cash_only  query bool   false "Exclude non-cash rows"
// @Param        page       query int    false "Page (default 1)"
// @Param        limit      query int    false "Page size (default 50)"
// @Success      200 {object} dto.ExpenseListResponse
// @Failure      400 {object} apierror.APIError
// @Failure      422 {object} apierror.ValidationError
// @Router       /v1/expenses [get]
func (h *FinancialHandler) Expenses(c *gin.Context) {
	var filter dto.ExpenseFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListExpenses(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Analysis godoc
// @Summary      Monthly financial analysis
// @Tags         financial
// @Produce      json
// @Param        month path     string true "YYYY-MM"
// @Success      200   {object} dto.FinancialAnalysisResponse
// @Failure      400   {object} apierror.APIError
// @Failure      404   {object} apierror.APIError
// @Router       /v1/financial-analysis/{month} [get]
func (h *FinancialHandler) Analysis(c *gin.Context) {
	month, ok := parseMonth(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetMonthlyAnalysis(c.Request.Context(), month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AnalysisPDF godoc
// @Summary      Monthly financial analysis as PDF
// @Tags         financial
// @Produce      application/pdf
// @Param        month path     string true "YYYY-MM"
// @Success      200
// @Failure      400   {object} apierror.APIError
// @Failure      404   {object} apierror.APIError
// @Router       /v1/financial-analysis/{month}/pdf [get]
func (h *FinancialHandler) AnalysisPDF(c *gin.Context) {
	month, ok := parseMonth(c)
	if !ok {
		return
	}
	// Rendered to memory so a failure can still be answered as JSON.
	var buf bytes.Buffer
	if err := h.svc.RenderMonthlyReport(c.Request.Context(), month, &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+infra.ReportFileName(month)+`"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// Categories godoc
// @Summary      Expense categories
// @Tags         financial
// @Produce      json
// @Success      200 {array} dto.CategoryResponse
// @Router       /v1/categories [get]
func (h *FinancialHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ListCategories())
}
