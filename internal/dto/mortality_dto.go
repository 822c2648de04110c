package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateMortalityRequest struct {
	PenID         string    `json:"pen_id"         validate:"required,uuid"`
	LotID         *string   `json:"lot_id"         validate:"omitempty,uuid"`
	Quantity      int       `json:"quantity"       validate:"required,gt=0"`
	DeathDate     time.Time `json:"death_date"     validate:"required"`
	Cause         string    `json:"cause"          validate:"required,max=120"`
	SpecificCause *string   `json:"specific_cause"`
	Notes         *string   `json:"notes"`
}

type MortalityShareResponse struct {
	LotID   string          `json:"lot_id"`
	LotCode string          `json:"lot_code"`
	Deaths  int             `json:"deaths"`
	Loss    decimal.Decimal `json:"loss"`
}

type MortalityResponse struct {
	ID                  string                   `json:"id"`
	PenID               string                   `json:"pen_id"`
	LotID               *string                  `json:"lot_id"`
	Quantity            int                      `json:"quantity"`
	DeathDate           time.Time                `json:"death_date"`
	Cause               string                   `json:"cause"`
	SpecificCause       *string                  `json:"specific_cause,omitempty"`
	Notes               *string                  `json:"notes,omitempty"`
	Distribution        string                   `json:"distribution"`
	UnitCost            decimal.Decimal          `json:"unit_cost"`
	TotalLoss           decimal.Decimal          `json:"total_loss"`
	AverageWeight       float64                  `json:"average_weight"`
	CalculationDetails  string                   `json:"calculation_details"`
	Shares              []MortalityShareResponse `json:"shares"`
	ExpenseID           string                   `json:"expense_id"`
	FinancialIntegrated bool                     `json:"financial_integrated"`
}
