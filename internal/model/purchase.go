package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CattlePurchase is a lot: a batch of animals acquired together.
// Quantities only move through interventions (deaths) and the purchase
// pipeline; acquisition averages are never recalculated after a death.
type CattlePurchase struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LotCode         string     `gorm:"uniqueIndex;not null"`
	CycleID         *uuid.UUID `gorm:"type:uuid;index"`
	InitialQuantity int        `gorm:"not null"`
	CurrentQuantity int        `gorm:"not null"`
	DeathCount      int        `gorm:"not null;default:0"`

	UnitPrice decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	// TotalCost, when set, overrides the component sum below.
	TotalCost   *decimal.Decimal `gorm:"type:decimal(14,2)"`
	FreightCost decimal.Decimal  `gorm:"type:decimal(14,2);not null;default:0"`
	Commission  decimal.Decimal  `gorm:"type:decimal(14,2);not null;default:0"`
	HealthCost  decimal.Decimal  `gorm:"type:decimal(14,2);not null;default:0"`
	FeedCost    decimal.Decimal  `gorm:"type:decimal(14,2);not null;default:0"`

	AverageWeight          *float64 `gorm:"type:decimal(8,2)"`
	CurrentWeight          float64  `gorm:"type:decimal(12,2);not null;default:0"`
	EstimatedSlaughterDate *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (CattlePurchase) TableName() string { return "cattle_purchases" }

// AcquisitionCost returns the lot's total cost: TotalCost when recorded,
// otherwise unit price × initial quantity plus the accumulated cost centres.
func (p *CattlePurchase) AcquisitionCost() decimal.Decimal {
	if p.TotalCost != nil {
		return *p.TotalCost
	}
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.InitialQuantity))).
		Add(p.FreightCost).
		Add(p.Commission).
		Add(p.HealthCost).
		Add(p.FeedCost)
}
