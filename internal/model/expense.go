package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expense source types.
const SourceMortalityRecord = "mortality_record"

// Expense is a ledger entry. Non-cash entries (ImpactsCashFlow=false) are
// excluded from cash-flow sums.
type Expense struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Category    string          `gorm:"type:varchar(40);not null;index"`
	Description string          `gorm:"not null"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	DueDate     time.Time       `gorm:"not null;index"`
	PaymentDate *time.Time
	IsPaid      bool `gorm:"not null;default:false"`
	// No column default: gorm would swap an explicit false for it on insert.
	ImpactsCashFlow bool       `gorm:"not null"`
	PurchaseID      *uuid.UUID `gorm:"type:uuid;index"`
	PenID           *uuid.UUID `gorm:"type:uuid;index"`
	SourceType      *string    `gorm:"type:varchar(30)"`
	SourceID        *uuid.UUID `gorm:"type:uuid"`
	Notes           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Expense) TableName() string { return "expenses" }
