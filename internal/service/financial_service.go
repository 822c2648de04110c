package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"boigordo/internal/apierror"
	"boigordo/internal/dto"
	"boigordo/internal/infra"
	"boigordo/internal/model"
	"boigordo/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// NonCashLoss is an accounting-only loss folded into the monthly analysis.
type NonCashLoss struct {
	Date        time.Time
	Category    string
	Description string
	Amount      decimal.Decimal
	SourceType  string
	SourceID    uuid.UUID
}

// FinancialService owns the expense ledger and the monthly integrated
// financial analysis.
type FinancialService interface {
	// RecordExpenseTx validates the category against the registry and
	// writes e inside tx.
	RecordExpenseTx(ctx context.Context, tx *gorm.DB, e *model.Expense) error
	// IntegrateNonCashLossTx creates or increments the loss month's analysis
	// and appends a negative line item.
	IntegrateNonCashLossTx(ctx context.Context, tx *gorm.DB, loss NonCashLoss) (*model.IntegratedFinancialAnalysis, error)

	GetMonthlyAnalysis(ctx context.Context, month time.Time) (*dto.FinancialAnalysisResponse, error)
	RenderMonthlyReport(ctx context.Context, month time.Time, w io.Writer) error
	ListExpenses(ctx context.Context, filter dto.ExpenseFilter) (*dto.ExpenseListResponse, error)
	ListCategories() []dto.CategoryResponse
}

type financialService struct {
	expenses repository.ExpenseRepository
	analyses repository.FinancialAnalysisRepository
}

func NewFinancialService(expenses repository.ExpenseRepository, analyses repository.FinancialAnalysisRepository) FinancialService {
	return &financialService{expenses: expenses, analyses: analyses}
}

func (s *financialService) RecordExpenseTx(ctx context.Context, tx *gorm.DB, e *model.Expense) error {
	if _, ok := model.LookupCategory(e.Category); !ok {
		return apierror.InvalidInput("unknown expense category %q", e.Category)
	}
	if tx != nil {
		tx = tx.WithContext(ctx)
	}
	return s.expenses.CreateTx(tx, e)
}

func (s *financialService) IntegrateNonCashLossTx(ctx context.Context, tx *gorm.DB, loss NonCashLoss) (*model.IntegratedFinancialAnalysis, error) {
	if tx != nil {
		tx = tx.WithContext(ctx)
	}
	month := model.ReferenceMonth(loss.Date)
	delta := repository.AnalysisDelta{
		TotalRevenue:        decimal.Zero,
		TotalExpenses:       loss.Amount,
		OperationalExpenses: loss.Amount,
		NonCashItems:        loss.Amount,
		NetIncome:           loss.Amount.Neg(),
		NetCashFlow:         decimal.Zero,
	}
	analysis, err := s.analyses.ApplyDeltaTx(tx, month, delta)
	if err != nil {
		return nil, fmt.Errorf("apply monthly delta: %w", err)
	}

	sourceID := loss.SourceID
	item := &model.IntegratedAnalysisItem{
		AnalysisID:  analysis.ID,
		Category:    loss.Category,
		Description: loss.Description,
		Amount:      loss.Amount.Neg(),
		ImpactsCash: false,
		SourceType:  loss.SourceType,
		SourceID:    &sourceID,
	}
	if err := s.analyses.AppendItemTx(tx, item); err != nil {
		return nil, fmt.Errorf("append analysis item: %w", err)
	}

	log.Info().
		Str("reference_month", month.Format("2006-01")).
		Str("category", loss.Category).
		Str("amount", loss.Amount.StringFixed(2)).
		Msg("non-cash loss integrated into monthly analysis")
	return analysis, nil
}

func (s *financialService) findMonth(ctx context.Context, month time.Time) (*model.IntegratedFinancialAnalysis, error) {
	a, err := s.analyses.FindByMonth(ctx, model.ReferenceMonth(month))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound("no financial analysis for %s", month.Format("2006-01"))
		}
		return nil, err
	}
	return a, nil
}

func (s *financialService) GetMonthlyAnalysis(ctx context.Context, month time.Time) (*dto.FinancialAnalysisResponse, error) {
	a, err := s.findMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	return analysisToResponse(a), nil
}

func (s *financialService) RenderMonthlyReport(ctx context.Context, month time.Time, w io.Writer) error {
	a, err := s.findMonth(ctx, month)
	if err != nil {
		return err
	}
	return infra.RenderAnalysisPDF(a, w)
}

func (s *financialService) ListExpenses(ctx context.Context, filter dto.ExpenseFilter) (*dto.ExpenseListResponse, error) {
	f := repository.ExpenseFilter{
		Category: filter.Category,
		CashOnly: filter.CashOnly,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 50
	}
	if filter.StartDate != "" {
		t, err := time.Parse("2006-01-02", filter.StartDate)
		if err != nil {
			return nil, apierror.InvalidInput("invalid start_date %q", filter.StartDate)
		}
		f.From = &t
	}
	if filter.EndDate != "" {
		t, err := time.Parse("2006-01-02", filter.EndDate)
		if err != nil {
			return nil, apierror.InvalidInput("invalid end_date %q", filter.EndDate)
		}
		// inclusive end day
		next := t.AddDate(0, 0, 1)
		f.To = &next
	}

	rows, total, err := s.expenses.List(ctx, f)
	if err != nil {
		return nil, err
	}
	resp := &dto.ExpenseListResponse{
		Data:  make([]dto.ExpenseResponse, 0, len(rows)),
		Total: total,
		Page:  f.Page,
		Limit: f.Limit,
	}
	for i := range rows {
		resp.Data = append(resp.Data, expenseToResponse(&rows[i]))
	}
	return resp, nil
}

func (s *financialService) ListCategories() []dto.CategoryResponse {
	out := make([]dto.CategoryResponse, 0, len(model.ExpenseCategories))
	for _, c := range model.ExpenseCategories {
		out = append(out, dto.CategoryResponse{
			Code:            c.Code,
			DisplayName:     c.DisplayName,
			Group:           string(c.Group),
			Color:           c.Color,
			ImpactsCashFlow: c.ImpactsCashFlow,
		})
	}
	return out
}

func expenseToResponse(e *model.Expense) dto.ExpenseResponse {
	return dto.ExpenseResponse{
		ID:              e.ID.String(),
		Category:        e.Category,
		CategoryName:    model.CategoryDisplayName(e.Category),
		Description:     e.Description,
		TotalAmount:     e.TotalAmount,
		DueDate:         e.DueDate,
		PaymentDate:     e.PaymentDate,
		IsPaid:          e.IsPaid,
		ImpactsCashFlow: e.ImpactsCashFlow,
		LotID:           uuidPtrString(e.PurchaseID),
		PenID:           uuidPtrString(e.PenID),
		SourceType:      e.SourceType,
		SourceID:        uuidPtrString(e.SourceID),
		Notes:           e.Notes,
	}
}

func analysisToResponse(a *model.IntegratedFinancialAnalysis) *dto.FinancialAnalysisResponse {
	resp := &dto.FinancialAnalysisResponse{
		ID:                  a.ID.String(),
		ReferenceMonth:      a.ReferenceMonth.Format("2006-01"),
		ReferenceYear:       a.ReferenceYear,
		TotalRevenue:        a.TotalRevenue,
		TotalExpenses:       a.TotalExpenses,
		OperationalExpenses: a.OperationalExpenses,
		NonCashItems:        a.NonCashItems,
		NetIncome:           a.NetIncome,
		NetCashFlow:         a.NetCashFlow,
		Status:              a.Status,
		Items:               make([]dto.AnalysisItemResponse, 0, len(a.Items)),
	}
	for _, it := range a.Items {
		resp.Items = append(resp.Items, dto.AnalysisItemResponse{
			ID:           it.ID.String(),
			Category:     it.Category,
			CategoryName: model.CategoryDisplayName(it.Category),
			Description:  it.Description,
			Amount:       it.Amount,
			ImpactsCash:  it.ImpactsCash,
			SourceType:   it.SourceType,
			SourceID:     uuidPtrString(it.SourceID),
			CreatedAt:    it.CreatedAt,
		})
	}
	return resp
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
