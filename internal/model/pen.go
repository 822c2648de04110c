package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	LinkStatusActive  = "ACTIVE"
	LinkStatusRemoved = "REMOVED"
)

// Pen is a physical enclosure. Occupancy is the summed quantity of its
// ACTIVE links and is checked against Capacity on movement.
type Pen struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PenNumber string    `gorm:"uniqueIndex;not null"`
	Capacity  int       `gorm:"not null"`
	Active    bool      `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Pen) TableName() string { return "pens" }

// LotPenLink allocates part of a lot to a pen. A link may reach quantity 0
// and still stay ACTIVE.
type LotPenLink struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PurchaseID      uuid.UUID `gorm:"type:uuid;not null;index"`
	PenID           uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity        int       `gorm:"not null"`
	PercentageOfLot float64   `gorm:"type:decimal(7,2);not null;default:0"`
	PercentageOfPen float64   `gorm:"type:decimal(7,2);not null;default:0"`
	AllocationDate  time.Time `gorm:"not null"`
	Status          string    `gorm:"type:varchar(10);not null;default:'ACTIVE'"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Purchase *CattlePurchase `gorm:"foreignKey:PurchaseID"`
	Pen      *Pen            `gorm:"foreignKey:PenID"`
}

func (LotPenLink) TableName() string { return "lot_pen_links" }
