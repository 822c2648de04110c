package repository

import (
	"context"
	"time"

	"boigordo/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AnalysisDelta is added field by field to a monthly analysis.
type AnalysisDelta struct {
	TotalRevenue        decimal.Decimal
	TotalExpenses       decimal.Decimal
	OperationalExpenses decimal.Decimal
	NonCashItems        decimal.Decimal
	NetIncome           decimal.Decimal
	NetCashFlow         decimal.Decimal
}

// FinancialAnalysisRepository stores the monthly integrated analyses.
type FinancialAnalysisRepository interface {
	// ApplyDeltaTx creates the month's row or increments the existing one in
	// a single statement, keyed by reference_month.
	ApplyDeltaTx(tx *gorm.DB, month time.Time, d AnalysisDelta) (*model.IntegratedFinancialAnalysis, error)
	AppendItemTx(tx *gorm.DB, item *model.IntegratedAnalysisItem) error
	FindByMonth(ctx context.Context, month time.Time) (*model.IntegratedFinancialAnalysis, error)
}

type financialAnalysisRepo struct{ db *gorm.DB }

func NewFinancialAnalysisRepository(db *gorm.DB) FinancialAnalysisRepository {
	return &financialAnalysisRepo{db: db}
}

func (r *financialAnalysisRepo) ApplyDeltaTx(tx *gorm.DB, month time.Time, d AnalysisDelta) (*model.IntegratedFinancialAnalysis, error) {
	row := model.IntegratedFinancialAnalysis{
		ReferenceMonth:      month,
		ReferenceYear:       month.Year(),
		TotalRevenue:        d.TotalRevenue,
		TotalExpenses:       d.TotalExpenses,
		OperationalExpenses: d.OperationalExpenses,
		NonCashItems:        d.NonCashItems,
		NetIncome:           d.NetIncome,
		NetCashFlow:         d.NetCashFlow,
		Status:              model.AnalysisStatusDraft,
	}
	inc := func(col string, v decimal.Decimal) clause.Expr {
		return gorm.Expr("integrated_financial_analyses."+col+" + ?", v)
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "reference_month"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_revenue":        inc("total_revenue", d.TotalRevenue),
			"total_expenses":       inc("total_expenses", d.TotalExpenses),
			"operational_expenses": inc("operational_expenses", d.OperationalExpenses),
			"non_cash_items":       inc("non_cash_items", d.NonCashItems),
			"net_income":           inc("net_income", d.NetIncome),
			"net_cash_flow":        inc("net_cash_flow", d.NetCashFlow),
			"updated_at":           time.Now(),
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}

	// Re-read: on conflict the in-memory row only holds the delta.
	var current model.IntegratedFinancialAnalysis
	if err := tx.Where("reference_month = ?", month).First(&current).Error; err != nil {
		return nil, err
	}
	return &current, nil
}

func (r *financialAnalysisRepo) AppendItemTx(tx *gorm.DB, item *model.IntegratedAnalysisItem) error {
	return mapWriteError(tx.Create(item).Error)
}

func (r *financialAnalysisRepo) FindByMonth(ctx context.Context, month time.Time) (*model.IntegratedFinancialAnalysis, error) {
	var a model.IntegratedFinancialAnalysis
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("reference_month = ?", month).
		First(&a).Error
	return &a, err
}
