package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateHealthInterventionRequest struct {
	LotID            string           `json:"lot_id"            validate:"required,uuid"`
	PenID            string           `json:"pen_id"            validate:"required,uuid"`
	InterventionType string           `json:"intervention_type" validate:"required,oneof=vaccine medication treatment"`
	ProductName      string           `json:"product_name"      validate:"required,max=120"`
	Dose             float64          `json:"dose"              validate:"gt=0"`
	Unit             string           `json:"unit"              validate:"omitempty,max=10"`
	ApplicationDate  time.Time        `json:"application_date"  validate:"required"`
	Veterinarian     *string          `json:"veterinarian"`
	BatchNumber      *string          `json:"batch_number"`
	Manufacturer     *string          `json:"manufacturer"`
	ExpirationDate   *time.Time       `json:"expiration_date"`
	Cost             *decimal.Decimal `json:"cost"`
	Notes            *string          `json:"notes"`
}

type CreatePenMovementRequest struct {
	LotID           string    `json:"lot_id"           validate:"required,uuid"`
	FromPenID       string    `json:"from_pen_id"      validate:"required,uuid"`
	ToPenID         string    `json:"to_pen_id"        validate:"required,uuid,nefield=FromPenID"`
	Quantity        int       `json:"quantity"         validate:"required,gt=0"`
	MovementDate    time.Time `json:"movement_date"    validate:"required"`
	Reason          string    `json:"reason"           validate:"required,max=200"`
	ResponsibleUser *string   `json:"responsible_user"`
	Notes           *string   `json:"notes"`
}

type CreateWeightReadingRequest struct {
	LotID          string    `json:"lot_id"          validate:"required,uuid"`
	PenID          string    `json:"pen_id"          validate:"required,uuid"`
	AverageWeight  float64   `json:"average_weight"  validate:"gt=0"`
	TotalWeight    *float64  `json:"total_weight"    validate:"omitempty,gt=0"`
	SampleSize     int       `json:"sample_size"     validate:"required,gt=0"`
	WeighingDate   time.Time `json:"weighing_date"   validate:"required"`
	WeighingMethod string    `json:"weighing_method" validate:"omitempty,oneof=individual sample estimated"`
	Equipment      *string   `json:"equipment"`
	Operator       *string   `json:"operator"`
	Notes          *string   `json:"notes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type HealthInterventionResponse struct {
	ID               string           `json:"id"`
	LotID            string           `json:"lot_id"`
	PenID            string           `json:"pen_id"`
	InterventionType string           `json:"intervention_type"`
	ProductName      string           `json:"product_name"`
	Dose             float64          `json:"dose"`
	Unit             string           `json:"unit"`
	ApplicationDate  time.Time        `json:"application_date"`
	Veterinarian     *string          `json:"veterinarian,omitempty"`
	BatchNumber      *string          `json:"batch_number,omitempty"`
	Manufacturer     *string          `json:"manufacturer,omitempty"`
	ExpirationDate   *time.Time       `json:"expiration_date,omitempty"`
	Cost             *decimal.Decimal `json:"cost,omitempty"`
	Notes            *string          `json:"notes,omitempty"`
}

type PenMovementResponse struct {
	ID              string    `json:"id"`
	LotID           string    `json:"lot_id"`
	FromPenID       string    `json:"from_pen_id"`
	ToPenID         string    `json:"to_pen_id"`
	Quantity        int       `json:"quantity"`
	MovementDate    time.Time `json:"movement_date"`
	Reason          string    `json:"reason"`
	ResponsibleUser *string   `json:"responsible_user,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
}

type WeightReadingResponse struct {
	ID              string    `json:"id"`
	LotID           string    `json:"lot_id"`
	PenID           string    `json:"pen_id"`
	AverageWeight   float64   `json:"average_weight"`
	TotalWeight     *float64  `json:"total_weight,omitempty"`
	SampleSize      int       `json:"sample_size"`
	WeighingDate    time.Time `json:"weighing_date"`
	WeighingMethod  string    `json:"weighing_method"`
	GMD             *float64  `json:"gmd"`
	ProjectedWeight *float64  `json:"projected_weight"`
	Notes           *string   `json:"notes,omitempty"`
}
