package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseFilter is bound from the query string of GET /v1/expenses.
type ExpenseFilter struct {
	Category  string `form:"category"`
	StartDate string `form:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date"   validate:"omitempty,datetime=2006-01-02"`
	CashOnly  bool   `form:"cash_only"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type ExpenseResponse struct {
	ID              string          `json:"id"`
	Category        string          `json:"category"`
	CategoryName    string          `json:"category_name"`
	Description     string          `json:"description"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DueDate         time.Time       `json:"due_date"`
	PaymentDate     *time.Time      `json:"payment_date"`
	IsPaid          bool            `json:"is_paid"`
	ImpactsCashFlow bool            `json:"impacts_cash_flow"`
	LotID           *string         `json:"lot_id"`
	PenID           *string         `json:"pen_id"`
	SourceType      *string         `json:"source_type,omitempty"`
	SourceID        *string         `json:"source_id,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
}

type ExpenseListResponse struct {
	Data  []ExpenseResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

type AnalysisItemResponse struct {
	ID           string          `json:"id"`
	Category     string          `json:"category"`
	CategoryName string          `json:"category_name"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	ImpactsCash  bool            `json:"impacts_cash"`
	SourceType   string          `json:"source_type"`
	SourceID     *string         `json:"source_id"`
	CreatedAt    time.Time       `json:"created_at"`
}

// FinancialAnalysisResponse is returned by GET /v1/financial-analysis/:month.
type FinancialAnalysisResponse struct {
	ID                  string                 `json:"id"`
	ReferenceMonth      string                 `json:"reference_month"` // YYYY-MM
	ReferenceYear       int                    `json:"reference_year"`
	TotalRevenue        decimal.Decimal        `json:"total_revenue"`
	TotalExpenses       decimal.Decimal        `json:"total_expenses"`
	OperationalExpenses decimal.Decimal        `json:"operational_expenses"`
	NonCashItems        decimal.Decimal        `json:"non_cash_items"`
	NetIncome           decimal.Decimal        `json:"net_income"`
	NetCashFlow         decimal.Decimal        `json:"net_cash_flow"`
	Status              string                 `json:"status"`
	Items               []AnalysisItemResponse `json:"items"`
}

type CategoryResponse struct {
	Code            string `json:"code"`
	DisplayName     string `json:"display_name"`
	Group           string `json:"group"`
	Color           string `json:"color"`
	ImpactsCashFlow bool   `json:"impacts_cash_flow"`
}
