package service

import (
	"testing"

	"boigordo/internal/apierror"
	"boigordo/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linkFor(p *model.CattlePurchase, qty int) model.LotPenLink {
	return model.LotPenLink{
		ID:         uuid.New(),
		PurchaseID: p.ID,
		Quantity:   qty,
		Status:     model.LinkStatusActive,
		Purchase:   p,
	}
}

func lotWithCost(code string, initial int, total string, weight float64) *model.CattlePurchase {
	t := decimal.RequireFromString(total)
	return &model.CattlePurchase{
		ID:              uuid.New(),
		LotCode:         code,
		InitialQuantity: initial,
		CurrentQuantity: initial,
		TotalCost:       &t,
		AverageWeight:   &weight,
	}
}

func TestCalculatePenCost_WeightedAverage(t *testing.T) {
	a := lotWithCost("A", 5, "50", 300)
	b := lotWithCost("B", 5, "100", 340)

	pc, err := calculatePenCost([]model.LotPenLink{linkFor(a, 5), linkFor(b, 5)})
	require.NoError(t, err)

	assert.Equal(t, 10, pc.TotalAnimals)
	assert.Equal(t, "150.00", pc.TotalCost.StringFixed(2))
	assert.Equal(t, "15.00", pc.AverageCostPerHead.StringFixed(2))
	assert.InDelta(t, 320.0, pc.AverageWeight, 0.0001)
	require.Len(t, pc.Lots, 2)
	assert.Equal(t, "10.00", pc.Lots[0].CostPerAnimal.StringFixed(2))
	assert.Equal(t, "20.00", pc.Lots[1].CostPerAnimal.StringFixed(2))
}

func TestCalculatePenCost_WeightsByAnimalsInPen(t *testing.T) {
	// Only part of lot B sits in this pen; its cost per head still comes
	// from the whole purchase.
	a := lotWithCost("A", 10, "1000", 0)
	b := lotWithCost("B", 40, "8000", 0)

	pc, err := calculatePenCost([]model.LotPenLink{linkFor(a, 10), linkFor(b, 10)})
	require.NoError(t, err)

	assert.Equal(t, "150.00", pc.AverageCostPerHead.StringFixed(2))
}

func TestCalculatePenCost_FallsBackToComponentCosts(t *testing.T) {
	p := &model.CattlePurchase{
		ID:              uuid.New(),
		LotCode:         "L-FALLBACK",
		InitialQuantity: 10,
		CurrentQuantity: 10,
		UnitPrice:       decimal.NewFromInt(100),
		FreightCost:     decimal.NewFromInt(50),
		Commission:      decimal.NewFromInt(20),
		HealthCost:      decimal.NewFromInt(30),
	}

	pc, err := calculatePenCost([]model.LotPenLink{linkFor(p, 10)})
	require.NoError(t, err)

	assert.Equal(t, "110.00", pc.AverageCostPerHead.StringFixed(2))
	assert.Equal(t, 0.0, pc.AverageWeight)
}

func TestCalculatePenCost_EmptyPen(t *testing.T) {
	pc, err := calculatePenCost(nil)
	require.NoError(t, err)

	assert.Equal(t, 0, pc.TotalAnimals)
	assert.True(t, pc.AverageCostPerHead.IsZero())
}

func TestCalculatePenCost_ZeroInitialQuantity(t *testing.T) {
	p := lotWithCost("L-ZERO", 0, "100", 0)

	_, err := calculatePenCost([]model.LotPenLink{linkFor(p, 3)})
	assert.ErrorIs(t, err, apierror.ErrInvalidQuantity)
}

func TestCalculatePenCost_MissingLot(t *testing.T) {
	l := model.LotPenLink{ID: uuid.New(), PurchaseID: uuid.New(), Quantity: 3}

	_, err := calculatePenCost([]model.LotPenLink{l})
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}
