package service

import (
	"boigordo/internal/apierror"
	"boigordo/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotCost is one lot's share of a pen's weighted cost.
type LotCost struct {
	LinkID        uuid.UUID
	PurchaseID    uuid.UUID
	LotCode       string
	Quantity      int
	CostPerAnimal decimal.Decimal
	AverageWeight float64
}

// PenCost is the weighted average over every ACTIVE allocation of a pen.
type PenCost struct {
	TotalAnimals       int
	TotalCost          decimal.Decimal
	AverageCostPerHead decimal.Decimal
	AverageWeight      float64
	Lots               []LotCost
}

// calculatePenCost weights each lot's cost per head and average weight by the
// animals it has in the pen. links must carry their Purchase.
func calculatePenCost(links []model.LotPenLink) (*PenCost, error) {
	pc := &PenCost{TotalCost: decimal.Zero, AverageCostPerHead: decimal.Zero}
	totalWeight := 0.0

	for _, l := range links {
		if l.Purchase == nil {
			return nil, apierror.NotFound("lot %s of allocation %s not found", l.PurchaseID, l.ID)
		}
		p := l.Purchase
		if p.InitialQuantity <= 0 {
			return nil, apierror.InvalidQuantity("lot %s has zero initial quantity", p.LotCode)
		}

		costPerAnimal := p.AcquisitionCost().Div(decimal.NewFromInt(int64(p.InitialQuantity)))
		weight := 0.0
		if p.AverageWeight != nil {
			weight = *p.AverageWeight
		}

		pc.TotalAnimals += l.Quantity
		pc.TotalCost = pc.TotalCost.Add(costPerAnimal.Mul(decimal.NewFromInt(int64(l.Quantity))))
		totalWeight += weight * float64(l.Quantity)

		pc.Lots = append(pc.Lots, LotCost{
			LinkID:        l.ID,
			PurchaseID:    p.ID,
			LotCode:       p.LotCode,
			Quantity:      l.Quantity,
			CostPerAnimal: costPerAnimal,
			AverageWeight: weight,
		})
	}

	if pc.TotalAnimals > 0 {
		pc.AverageCostPerHead = pc.TotalCost.Div(decimal.NewFromInt(int64(pc.TotalAnimals)))
		pc.AverageWeight = totalWeight / float64(pc.TotalAnimals)
	}
	return pc, nil
}
