package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Distribution modes of a mortality event.
const (
	DistributionLot          = "lot"
	DistributionProportional = "proportional"
)

// MortalityRecord is the canonical death event. MortalityLotShare and
// MortalityAnalysis rows are projections written in the same transaction and
// never updated afterwards.
type MortalityRecord struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PenID              uuid.UUID  `gorm:"type:uuid;not null;index"`
	PurchaseID         *uuid.UUID `gorm:"type:uuid;index"`
	Quantity           int        `gorm:"not null"`
	DeathDate          time.Time  `gorm:"not null;index"`
	Cause              string     `gorm:"not null"`
	SpecificCause      *string
	Notes              *string
	Distribution       string          `gorm:"type:varchar(15);not null"`
	UnitCost           decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	TotalLoss          decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	AverageWeight      float64         `gorm:"type:decimal(8,2);not null;default:0"`
	CalculationDetails string          `gorm:"type:text"`
	// Set once the monthly analysis absorbed the loss.
	FinancialIntegrated bool `gorm:"not null;default:false"`
	CreatedAt           time.Time

	Pen    *Pen                `gorm:"foreignKey:PenID"`
	Shares []MortalityLotShare `gorm:"foreignKey:MortalityRecordID"`
}

func (MortalityRecord) TableName() string { return "mortality_records" }

// MortalityLotShare is the part of a mortality event charged to one lot.
type MortalityLotShare struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MortalityRecordID uuid.UUID       `gorm:"type:uuid;not null;index"`
	PurchaseID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	LinkID            uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity          int             `gorm:"not null"`
	Loss              decimal.Decimal `gorm:"type:decimal(14,2);not null"`

	Purchase *CattlePurchase `gorm:"foreignKey:PurchaseID"`
}

func (MortalityLotShare) TableName() string { return "mortality_lot_shares" }

// MortalityAnalysis is the financial read view of a MortalityRecord.
type MortalityAnalysis struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MortalityRecordID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	PurchaseID        *uuid.UUID      `gorm:"type:uuid;index"`
	PenID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	MortalityDate     time.Time       `gorm:"not null"`
	Quantity          int             `gorm:"not null"`
	AverageWeight     float64         `gorm:"type:decimal(8,2);not null;default:0"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	TotalLoss         decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Cause             string          `gorm:"not null"`
	Notes             *string
	CreatedAt         time.Time
}

func (MortalityAnalysis) TableName() string { return "mortality_analyses" }

// AnalysisFromRecord materialises the financial projection of rec.
func AnalysisFromRecord(rec *MortalityRecord) MortalityAnalysis {
	return MortalityAnalysis{
		ID:                uuid.New(),
		MortalityRecordID: rec.ID,
		PurchaseID:        rec.PurchaseID,
		PenID:             rec.PenID,
		MortalityDate:     rec.DeathDate,
		Quantity:          rec.Quantity,
		AverageWeight:     rec.AverageWeight,
		UnitCost:          rec.UnitCost,
		TotalLoss:         rec.TotalLoss,
		Cause:             rec.Cause,
		Notes:             rec.Notes,
	}
}
