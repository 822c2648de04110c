package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"boigordo/internal/apierror"
	"boigordo/internal/dto"
	"boigordo/internal/metrics"
	"boigordo/internal/model"
	"boigordo/internal/repository"
	"boigordo/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const mortalitySavepoint = "mortality_financial"

// CreateMortalityRecord charges deaths in a pen at the pen's weighted average
// cost per head. The whole sequence runs in one transaction:
//  1. lock the pen and read its ACTIVE allocations
//  2. weighted cost; reject quantity above the pen's head count
//  3. pick the lot(s): the given lot, or a proportional split
//  4. conditional decrements of lot and allocation counters
//  5. canonical record + shares + analysis projection + non-cash expense
//  6. monthly analysis update inside a savepoint; its failure is logged and
//     rolled back to the savepoint while the rest commits
func (s *interventionService) CreateMortalityRecord(ctx context.Context, req dto.CreateMortalityRequest) (*dto.MortalityResponse, error) {
	penID, err := parseID(req.PenID, "pen_id")
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, apierror.InvalidQuantity("mortality quantity must be positive")
	}
	pen, err := s.findPen(ctx, penID, "pen")
	if err != nil {
		return nil, err
	}
	var lotID *uuid.UUID
	if req.LotID != nil && *req.LotID != "" {
		id, err := parseID(*req.LotID, "lot_id")
		if err != nil {
			return nil, err
		}
		if _, err := s.findPurchase(ctx, id); err != nil {
			return nil, err
		}
		lotID = &id
	}

	var (
		rec     model.MortalityRecord
		expense model.Expense
		cost    *PenCost
		lots    map[uuid.UUID]*model.CattlePurchase
	)

	txErr := runTx(ctx, s.pens.DB(), func(tx *gorm.DB) error {
		if _, err := s.pens.LockTx(tx, penID); err != nil {
			if repository.IsNotFound(err) {
				return apierror.NotFound("pen %s not found", penID)
			}
			return err
		}
		links, err := s.pens.ListActiveLinksTx(tx, penID)
		if err != nil {
			return err
		}
		cost, err = calculatePenCost(links)
		if err != nil {
			return err
		}
		if req.Quantity > cost.TotalAnimals {
			return apierror.InvalidQuantity("mortality quantity %d exceeds the %d animals in pen %s",
				req.Quantity, cost.TotalAnimals, pen.PenNumber)
		}

		lots = make(map[uuid.UUID]*model.CattlePurchase, len(links))
		for i := range links {
			lots[links[i].PurchaseID] = links[i].Purchase
		}

		shares, err := selectDeathShares(links, lotID, cost.TotalAnimals, req.Quantity, pen.PenNumber)
		if err != nil {
			return err
		}

		for _, sh := range shares {
			if err := s.purchases.RecordDeathsTx(tx, sh.PurchaseID, sh.Deaths); err != nil {
				return err
			}
			if err := s.pens.DecrementLinkTx(tx, sh.LinkID, sh.Deaths); err != nil {
				return err
			}
		}

		rec = buildMortalityRecord(req, penID, lotID, cost, shares)
		rec.CalculationDetails = calculationDetails(pen, cost, shares, lots, rec.Distribution, rec.TotalLoss)
		if err := s.mortality.CreateRecordTx(tx, &rec); err != nil {
			return err
		}
		analysis := model.AnalysisFromRecord(&rec)
		if err := s.mortality.CreateAnalysisTx(tx, &analysis); err != nil {
			return err
		}

		expense = mortalityExpense(&rec, pen)
		if err := s.financial.RecordExpenseTx(ctx, tx, &expense); err != nil {
			return err
		}

		spErr := withSavepoint(tx, mortalitySavepoint, func(sp *gorm.DB) error {
			_, err := s.financial.IntegrateNonCashLossTx(ctx, sp, NonCashLoss{
				Date:        rec.DeathDate,
				Category:    model.CategoryDeaths,
				Description: expense.Description,
				Amount:      rec.TotalLoss,
				SourceType:  model.SourceMortalityRecord,
				SourceID:    rec.ID,
			})
			if err != nil {
				return err
			}
			return s.mortality.MarkIntegratedTx(sp, rec.ID)
		})
		if spErr != nil {
			if errors.Is(spErr, errSavepointLost) {
				return spErr
			}
			metrics.FinancialIntegrationFailures.Inc()
			log.Error().Err(spErr).
				Str("mortality_record_id", rec.ID.String()).
				Str("reference_month", model.ReferenceMonth(rec.DeathDate).Format("2006-01")).
				Msg("monthly analysis update failed, mortality committed without it")
			return nil
		}
		rec.FinancialIntegrated = true
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	metrics.InterventionsTotal.WithLabelValues(dto.InterventionMortality).Inc()
	metrics.MortalityDeathsTotal.Add(float64(rec.Quantity))
	metrics.MortalityLossTotal.Add(rec.TotalLoss.InexactFloat64())
	s.invalidateStats(ctx)

	log.Info().
		Str("mortality_record_id", rec.ID.String()).
		Str("pen", pen.PenNumber).
		Int("quantity", rec.Quantity).
		Str("distribution", rec.Distribution).
		Str("total_loss", rec.TotalLoss.StringFixed(2)).
		Bool("financial_integrated", rec.FinancialIntegrated).
		Msg("mortality recorded")

	s.raiseMortalityAlerts(ctx, &rec, lots)

	return mortalityToResponse(&rec, lots, expense.ID), nil
}

// selectDeathShares resolves which allocations absorb the deaths.
func selectDeathShares(links []model.LotPenLink, lotID *uuid.UUID, totalAnimals, quantity int, penNumber string) ([]deathShare, error) {
	if lotID == nil {
		return distributeDeaths(links, totalAnimals, quantity), nil
	}
	for _, l := range links {
		if l.PurchaseID != *lotID {
			continue
		}
		if l.Quantity < quantity {
			return nil, apierror.InsufficientQuantity("lot has %d animals in pen %s, %d deaths reported",
				l.Quantity, penNumber, quantity)
		}
		return []deathShare{{LinkID: l.ID, PurchaseID: l.PurchaseID, Deaths: quantity}}, nil
	}
	return nil, apierror.NotFound("lot %s has no active allocation in pen %s", *lotID, penNumber)
}

func buildMortalityRecord(req dto.CreateMortalityRequest, penID uuid.UUID, lotID *uuid.UUID, cost *PenCost, shares []deathShare) model.MortalityRecord {
	totalLoss := cost.AverageCostPerHead.Mul(decimal.NewFromInt(int64(req.Quantity))).Round(2)
	distribution := model.DistributionProportional
	if lotID != nil {
		distribution = model.DistributionLot
	}
	rec := model.MortalityRecord{
		ID:            uuid.New(),
		PenID:         penID,
		PurchaseID:    lotID,
		Quantity:      req.Quantity,
		DeathDate:     req.DeathDate,
		Cause:         req.Cause,
		SpecificCause: req.SpecificCause,
		Notes:         req.Notes,
		Distribution:  distribution,
		UnitCost:      cost.AverageCostPerHead.Round(2),
		TotalLoss:     totalLoss,
		AverageWeight: cost.AverageWeight,
	}

	// Per-lot losses are rounded; the last share takes the remainder so the
	// shares add up to TotalLoss exactly.
	assigned := decimal.Zero
	for i, sh := range shares {
		loss := cost.AverageCostPerHead.Mul(decimal.NewFromInt(int64(sh.Deaths))).Round(2)
		if i == len(shares)-1 {
			loss = totalLoss.Sub(assigned)
		}
		assigned = assigned.Add(loss)
		rec.Shares = append(rec.Shares, model.MortalityLotShare{
			ID:                uuid.New(),
			MortalityRecordID: rec.ID,
			PurchaseID:        sh.PurchaseID,
			LinkID:            sh.LinkID,
			Quantity:          sh.Deaths,
			Loss:              loss,
		})
	}
	return rec
}

func mortalityExpense(rec *model.MortalityRecord, pen *model.Pen) model.Expense {
	source := model.SourceMortalityRecord
	recID := rec.ID
	penID := rec.PenID
	paid := rec.DeathDate
	return model.Expense{
		ID:              uuid.New(),
		Category:        model.CategoryDeaths,
		Description:     fmt.Sprintf("Mortality: %d head in pen %s (%s)", rec.Quantity, pen.PenNumber, rec.Cause),
		TotalAmount:     rec.TotalLoss,
		DueDate:         rec.DeathDate,
		PaymentDate:     &paid,
		IsPaid:          true,
		ImpactsCashFlow: false,
		PurchaseID:      rec.PurchaseID,
		PenID:           &penID,
		SourceType:      &source,
		SourceID:        &recID,
		Notes:           rec.Notes,
	}
}

// calculationDetails renders the audit text stored on the record.
func calculationDetails(pen *model.Pen, cost *PenCost, shares []deathShare, lots map[uuid.UUID]*model.CattlePurchase, distribution string, totalLoss decimal.Decimal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pen %s: %d animals, average cost per head %s, average weight %.2f kg\n",
		pen.PenNumber, cost.TotalAnimals, cost.AverageCostPerHead.StringFixed(2), cost.AverageWeight)
	for _, l := range cost.Lots {
		fmt.Fprintf(&b, "  lot %s: %d head at %s/head\n", l.LotCode, l.Quantity, l.CostPerAnimal.StringFixed(2))
	}
	fmt.Fprintf(&b, "Distribution: %s\n", distribution)
	for _, sh := range shares {
		code := sh.PurchaseID.String()
		if p := lots[sh.PurchaseID]; p != nil {
			code = p.LotCode
		}
		fmt.Fprintf(&b, "  lot %s: %d deaths\n", code, sh.Deaths)
	}
	fmt.Fprintf(&b, "Total loss: %s", totalLoss.StringFixed(2))
	return b.String()
}

// highMortalityAlerts returns one alert per lot whose deaths in rec exceed
// thresholdPct of its initial head count.
func highMortalityAlerts(rec *model.MortalityRecord, lots map[uuid.UUID]*model.CattlePurchase, thresholdPct float64) []worker.MortalityAlert {
	var alerts []worker.MortalityAlert
	for _, sh := range rec.Shares {
		p := lots[sh.PurchaseID]
		if p == nil || p.InitialQuantity <= 0 {
			continue
		}
		rate := float64(sh.Quantity) / float64(p.InitialQuantity) * 100
		if rate <= thresholdPct {
			continue
		}
		alerts = append(alerts, worker.MortalityAlert{
			MortalityRecordID: rec.ID.String(),
			LotID:             p.ID.String(),
			LotCode:           p.LotCode,
			PenID:             rec.PenID.String(),
			Deaths:            sh.Quantity,
			InitialQuantity:   p.InitialQuantity,
			MortalityRate:     rate,
			Threshold:         thresholdPct,
			Loss:              sh.Loss,
			Cause:             rec.Cause,
			DeathDate:         rec.DeathDate.Format(time.RFC3339),
		})
	}
	return alerts
}

func (s *interventionService) raiseMortalityAlerts(ctx context.Context, rec *model.MortalityRecord, lots map[uuid.UUID]*model.CattlePurchase) {
	if s.dispatcher == nil || s.alertThreshold <= 0 {
		return
	}
	for _, a := range highMortalityAlerts(rec, lots, s.alertThreshold) {
		if err := s.dispatcher.EnqueueAlert(ctx, a); err != nil {
			log.Warn().Err(err).Str("lot", a.LotCode).Msg("failed to enqueue mortality alert")
			continue
		}
		log.Warn().
			Str("lot", a.LotCode).
			Float64("mortality_rate", a.MortalityRate).
			Msg("high mortality alert enqueued")
	}
}

func mortalityToResponse(rec *model.MortalityRecord, lots map[uuid.UUID]*model.CattlePurchase, expenseID uuid.UUID) *dto.MortalityResponse {
	resp := &dto.MortalityResponse{
		ID:                  rec.ID.String(),
		PenID:               rec.PenID.String(),
		LotID:               uuidPtrString(rec.PurchaseID),
		Quantity:            rec.Quantity,
		DeathDate:           rec.DeathDate,
		Cause:               rec.Cause,
		SpecificCause:       rec.SpecificCause,
		Notes:               rec.Notes,
		Distribution:        rec.Distribution,
		UnitCost:            rec.UnitCost,
		TotalLoss:           rec.TotalLoss,
		AverageWeight:       rec.AverageWeight,
		CalculationDetails:  rec.CalculationDetails,
		Shares:              make([]dto.MortalityShareResponse, 0, len(rec.Shares)),
		FinancialIntegrated: rec.FinancialIntegrated,
	}
	if expenseID != uuid.Nil {
		resp.ExpenseID = expenseID.String()
	}
	for _, sh := range rec.Shares {
		item := dto.MortalityShareResponse{
			LotID:  sh.PurchaseID.String(),
			Deaths: sh.Quantity,
			Loss:   sh.Loss,
		}
		if p := lots[sh.PurchaseID]; p != nil {
			item.LotCode = p.LotCode
		}
		resp.Shares = append(resp.Shares, item)
	}
	return resp
}
