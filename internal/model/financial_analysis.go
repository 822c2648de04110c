package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AnalysisStatusDraft = "DRAFT"

// IntegratedFinancialAnalysis is the monthly rollup, one row per
// ReferenceMonth (first instant of the month, UTC).
type IntegratedFinancialAnalysis struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReferenceMonth      time.Time       `gorm:"not null;uniqueIndex"`
	ReferenceYear       int             `gorm:"not null;index"`
	TotalRevenue        decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	TotalExpenses       decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	OperationalExpenses decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	NonCashItems        decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	NetIncome           decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	NetCashFlow         decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Status              string          `gorm:"type:varchar(15);not null;default:'DRAFT'"`
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Items []IntegratedAnalysisItem `gorm:"foreignKey:AnalysisID"`
}

func (IntegratedFinancialAnalysis) TableName() string { return "integrated_financial_analyses" }

// IntegratedAnalysisItem is an append-only audit line. Amount is signed:
// losses are negative.
type IntegratedAnalysisItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AnalysisID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Category    string          `gorm:"type:varchar(40);not null"`
	Description string          `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	ImpactsCash bool            `gorm:"not null"`
	SourceType  string          `gorm:"type:varchar(30);not null"`
	SourceID    *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt   time.Time
}

func (IntegratedAnalysisItem) TableName() string { return "integrated_analysis_items" }

// ReferenceMonth truncates t to the first instant of its calendar month in UTC.
func ReferenceMonth(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}
