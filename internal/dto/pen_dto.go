package dto

import "github.com/shopspring/decimal"

// LotCostItem is one lot's contribution to a pen's weighted cost.
type LotCostItem struct {
	LotID         string          `json:"lot_id"`
	LotCode       string          `json:"lot_code"`
	Quantity      int             `json:"quantity"`
	CostPerAnimal decimal.Decimal `json:"cost_per_animal"`
	AverageWeight float64         `json:"average_weight"`
}

// PenCostResponse is returned by GET /v1/pens/:id/cost.
type PenCostResponse struct {
	PenID              string          `json:"pen_id"`
	PenNumber          string          `json:"pen_number"`
	TotalAnimals       int             `json:"total_animals"`
	TotalCost          decimal.Decimal `json:"total_cost"`
	AverageCostPerHead decimal.Decimal `json:"average_cost_per_head"`
	AverageWeight      float64         `json:"average_weight"`
	Lots               []LotCostItem   `json:"lots"`
}
