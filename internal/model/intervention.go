package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HealthIntervention types.
const (
	HealthVaccine    = "vaccine"
	HealthMedication = "medication"
	HealthTreatment  = "treatment"
)

type HealthIntervention struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PurchaseID       uuid.UUID `gorm:"type:uuid;not null;index"`
	PenID            uuid.UUID `gorm:"type:uuid;not null;index"`
	InterventionType string    `gorm:"type:varchar(20);not null"`
	ProductName      string    `gorm:"not null"`
	Dose             float64   `gorm:"type:decimal(10,3);not null"`
	Unit             string    `gorm:"type:varchar(10);not null;default:'ml'"`
	ApplicationDate  time.Time `gorm:"not null;index"`
	Veterinarian     *string
	BatchNumber      *string
	Manufacturer     *string
	ExpirationDate   *time.Time
	Cost             *decimal.Decimal `gorm:"type:decimal(14,2)"`
	Notes            *string
	CreatedAt        time.Time

	Purchase *CattlePurchase `gorm:"foreignKey:PurchaseID"`
	Pen      *Pen            `gorm:"foreignKey:PenID"`
}

func (HealthIntervention) TableName() string { return "health_interventions" }

type PenMovement struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PurchaseID      uuid.UUID `gorm:"type:uuid;not null;index"`
	FromPenID       uuid.UUID `gorm:"type:uuid;not null;index"`
	ToPenID         uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity        int       `gorm:"not null"`
	MovementDate    time.Time `gorm:"not null;index"`
	Reason          string    `gorm:"not null"`
	ResponsibleUser *string
	Notes           *string
	CreatedAt       time.Time

	Purchase *CattlePurchase `gorm:"foreignKey:PurchaseID"`
	FromPen  *Pen            `gorm:"foreignKey:FromPenID"`
	ToPen    *Pen            `gorm:"foreignKey:ToPenID"`
}

func (PenMovement) TableName() string { return "pen_movements" }

// Weighing methods.
const (
	WeighingIndividual = "individual"
	WeighingSample     = "sample"
	WeighingEstimated  = "estimated"
)

// WeightReading is one weighing of a lot in a pen. GMD (average daily gain)
// is relative to the previous reading of the same lot and pen.
type WeightReading struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PurchaseID      uuid.UUID `gorm:"type:uuid;not null;index:idx_weight_lot_pen"`
	PenID           uuid.UUID `gorm:"type:uuid;not null;index:idx_weight_lot_pen"`
	AverageWeight   float64   `gorm:"type:decimal(8,2);not null"`
	TotalWeight     *float64  `gorm:"type:decimal(12,2)"`
	SampleSize      int       `gorm:"not null"`
	WeighingDate    time.Time `gorm:"not null;index"`
	WeighingMethod  string    `gorm:"type:varchar(20);not null;default:'sample'"`
	Equipment       *string
	Operator        *string
	Notes           *string
	GMD             *float64 `gorm:"column:gmd;type:decimal(8,3)"`
	ProjectedWeight *float64 `gorm:"type:decimal(8,2)"`
	CreatedAt       time.Time

	Purchase *CattlePurchase `gorm:"foreignKey:PurchaseID"`
	Pen      *Pen            `gorm:"foreignKey:PenID"`
}

func (WeightReading) TableName() string { return "weight_readings" }
