package service

import (
	"context"
	"testing"
	"time"

	"boigordo/internal/apierror"
	"boigordo/internal/dto"
	"boigordo/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moveReq(lot *model.CattlePurchase, from, to *model.Pen, qty int) dto.CreatePenMovementRequest {
	return dto.CreatePenMovementRequest{
		LotID:        lot.ID.String(),
		FromPenID:    from.ID.String(),
		ToPenID:      to.ID.String(),
		Quantity:     qty,
		MovementDate: march,
		Reason:       "regrouping",
	}
}

func TestCreatePenMovement_RejectsWhenDestinationFull(t *testing.T) {
	f := newFixture()
	from := f.addPen("P-01", 50)
	to := f.addPen("P-02", 10)
	lot := f.addLot("L-A", 20, "10", 300)
	other := f.addLot("L-B", 8, "10", 300)
	source := f.allocate(lot, from, 20, march)
	f.allocate(other, to, 8, march)

	_, err := f.svc.CreatePenMovement(context.Background(), moveReq(lot, from, to, 5))
	assert.ErrorIs(t, err, apierror.ErrInsufficientCapacity)

	assert.Equal(t, 20, source.Quantity)
	assert.Equal(t, 8, f.pens.occupancy(to.ID))
	assert.Empty(t, f.interventions.movements)
}

func TestCreatePenMovement_RejectsWhenSourceShort(t *testing.T) {
	f := newFixture()
	from := f.addPen("P-01", 50)
	to := f.addPen("P-02", 50)
	empty := f.addPen("P-03", 50)
	lot := f.addLot("L-A", 20, "10", 300)
	source := f.allocate(lot, from, 20, march)

	_, err := f.svc.CreatePenMovement(context.Background(), moveReq(lot, from, to, 25))
	assert.ErrorIs(t, err, apierror.ErrInsufficientQuantity)
	assert.Equal(t, 20, source.Quantity)

	_, err = f.svc.CreatePenMovement(context.Background(), moveReq(lot, empty, to, 1))
	assert.ErrorIs(t, err, apierror.ErrInsufficientQuantity)
	assert.Empty(t, f.interventions.movements)
}

func TestCreatePenMovement_CreatesDestinationAllocation(t *testing.T) {
	f := newFixture()
	from := f.addPen("P-01", 50)
	to := f.addPen("P-02", 50)
	lot := f.addLot("L-A", 20, "10", 300)
	source := f.allocate(lot, from, 20, march.AddDate(0, -1, 0))

	resp, err := f.svc.CreatePenMovement(context.Background(), moveReq(lot, from, to, 5))
	require.NoError(t, err)

	assert.Equal(t, 5, resp.Quantity)
	assert.Equal(t, to.ID.String(), resp.ToPenID)
	assert.Equal(t, 15, source.Quantity)

	dest, err := f.pens.FindActiveLinkTx(nil, lot.ID, to.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, dest.Quantity)
	assert.Equal(t, 25.0, dest.PercentageOfLot)
	assert.Equal(t, 10.0, dest.PercentageOfPen)
	assert.Equal(t, march, dest.AllocationDate)
	require.Len(t, f.interventions.movements, 1)
}

func TestCreatePenMovement_IncrementsExistingAllocation(t *testing.T) {
	f := newFixture()
	from := f.addPen("P-01", 50)
	to := f.addPen("P-02", 50)
	lot := f.addLot("L-A", 30, "10", 300)
	source := f.allocate(lot, from, 20, march)
	dest := f.allocate(lot, to, 10, march)

	_, err := f.svc.CreatePenMovement(context.Background(), moveReq(lot, from, to, 20))
	require.NoError(t, err)

	assert.Equal(t, 0, source.Quantity)
	assert.Equal(t, model.LinkStatusActive, source.Status)
	assert.Equal(t, 30, dest.Quantity)
	assert.Len(t, f.pens.links, 2)
}

func TestCreatePenMovement_InputErrors(t *testing.T) {
	f := newFixture()
	pen := f.addPen("P-01", 50)
	lot := f.addLot("L-A", 20, "10", 300)

	_, err := f.svc.CreatePenMovement(context.Background(), moveReq(lot, pen, pen, 1))
	assert.ErrorIs(t, err, apierror.ErrInvalidInput)

	ghost := &model.Pen{ID: lot.ID}
	_, err = f.svc.CreatePenMovement(context.Background(), moveReq(lot, pen, ghost, 1))
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	other := f.addPen("P-02", 50)
	_, err = f.svc.CreatePenMovement(context.Background(), moveReq(lot, pen, other, 0))
	assert.ErrorIs(t, err, apierror.ErrInvalidQuantity)
}

func weighReq(lot *model.CattlePurchase, pen *model.Pen, weight float64, at time.Time) dto.CreateWeightReadingRequest {
	return dto.CreateWeightReadingRequest{
		LotID:         lot.ID.String(),
		PenID:         pen.ID.String(),
		AverageWeight: weight,
		SampleSize:    20,
		WeighingDate:  at,
	}
}

func TestCreateWeightReading_DailyGain(t *testing.T) {
	f := newFixture()
	pen := f.addPen("P-01", 50)
	lot := f.addLot("L-A", 20, "10", 280)
	f.allocate(lot, pen, 20, march)

	first, err := f.svc.CreateWeightReading(context.Background(), weighReq(lot, pen, 300, march))
	require.NoError(t, err)
	assert.Nil(t, first.GMD)
	assert.Equal(t, "sample", first.WeighingMethod)

	second, err := f.svc.CreateWeightReading(context.Background(), weighReq(lot, pen, 320, march.AddDate(0, 0, 10)))
	require.NoError(t, err)
	require.NotNil(t, second.GMD)
	assert.InDelta(t, 2.0, *second.GMD, 1e-9)

	require.NotNil(t, lot.AverageWeight)
	assert.Equal(t, 320.0, *lot.AverageWeight)
	assert.Equal(t, 6400.0, lot.CurrentWeight)
}

func TestCreateWeightReading_SameDayHasNoGain(t *testing.T) {
	f := newFixture()
	pen := f.addPen("P-01", 50)
	lot := f.addLot("L-A", 20, "10", 280)

	_, err := f.svc.CreateWeightReading(context.Background(), weighReq(lot, pen, 300, march))
	require.NoError(t, err)
	resp, err := f.svc.CreateWeightReading(context.Background(), weighReq(lot, pen, 302, march.Add(6*time.Hour)))
	require.NoError(t, err)

	assert.Nil(t, resp.GMD)
	assert.Nil(t, resp.ProjectedWeight)
}

func TestCreateWeightReading_ProjectsToSlaughterDate(t *testing.T) {
	f := newFixture()
	pen := f.addPen("P-01", 50)
	lot := f.addLot("L-A", 20, "10", 280)
	slaughter := march.AddDate(0, 0, 40)
	lot.EstimatedSlaughterDate = &slaughter
	total := 6500.0

	_, err := f.svc.CreateWeightReading(context.Background(), weighReq(lot, pen, 300, march))
	require.NoError(t, err)
	req := weighReq(lot, pen, 320, march.AddDate(0, 0, 10))
	req.TotalWeight = &total
	resp, err := f.svc.CreateWeightReading(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, resp.ProjectedWeight)
	assert.InDelta(t, 380.0, *resp.ProjectedWeight, 1e-9)
	assert.Equal(t, 6500.0, lot.CurrentWeight)
}

func TestCreateHealthIntervention_AddsCostToLot(t *testing.T) {
	f := newFixture()
	pen := f.addPen("P-01", 50)
	lot := f.addLot("L-A", 20, "10", 280)
	cost := decimal.NewFromInt(150)

	resp, err := f.svc.CreateHealthIntervention(context.Background(), dto.CreateHealthInterventionRequest{
		LotID:            lot.ID.String(),
		PenID:            pen.ID.String(),
		InterventionType: model.HealthVaccine,
		ProductName:      "Aftosa",
		Dose:             5,
		ApplicationDate:  march,
		Cost:             &cost,
	})
	require.NoError(t, err)

	assert.Equal(t, "ml", resp.Unit)
	assert.Len(t, f.interventions.health, 1)
	assert.Equal(t, "150.00", lot.HealthCost.StringFixed(2))
	assert.Equal(t, "350.00", lot.TotalCost.StringFixed(2))
}

func TestCreateHealthIntervention_WithoutCost(t *testing.T) {
	f := newFixture()
	pen := f.addPen("P-01", 50)
	lot := f.addLot("L-A", 20, "10", 280)

	_, err := f.svc.CreateHealthIntervention(context.Background(), dto.CreateHealthInterventionRequest{
		LotID:            lot.ID.String(),
		PenID:            pen.ID.String(),
		InterventionType: model.HealthMedication,
		ProductName:      "Ivermectin",
		Dose:             10,
		ApplicationDate:  march,
	})
	require.NoError(t, err)

	assert.True(t, lot.HealthCost.IsZero())
	assert.Empty(t, f.purchases.healthAdd)
}

func TestGetPenCost(t *testing.T) {
	f := newFixture()
	pen := f.addPen("P-01", 50)
	a := f.addLot("L-A", 5, "10", 300)
	b := f.addLot("L-B", 5, "20", 340)
	f.allocate(a, pen, 5, march)
	f.allocate(b, pen, 5, march)

	resp, err := f.svc.GetPenCost(context.Background(), pen.ID)
	require.NoError(t, err)

	assert.Equal(t, "P-01", resp.PenNumber)
	assert.Equal(t, 10, resp.TotalAnimals)
	assert.Equal(t, "15.00", resp.AverageCostPerHead.StringFixed(2))
	assert.Equal(t, 320.0, resp.AverageWeight)
	assert.Len(t, resp.Lots, 2)
}
