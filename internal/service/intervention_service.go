package service

import (
	"context"
	"math"
	"time"

	"boigordo/internal/apierror"
	"boigordo/internal/dto"
	"boigordo/internal/metrics"
	"boigordo/internal/model"
	"boigordo/internal/repository"
	"boigordo/internal/worker"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// InterventionService is the entry point for herd interventions.
type InterventionService interface {
	CreateHealthIntervention(ctx context.Context, req dto.CreateHealthInterventionRequest) (*dto.HealthInterventionResponse, error)
	CreateMortalityRecord(ctx context.Context, req dto.CreateMortalityRequest) (*dto.MortalityResponse, error)
	CreatePenMovement(ctx context.Context, req dto.CreatePenMovementRequest) (*dto.PenMovementResponse, error)
	CreateWeightReading(ctx context.Context, req dto.CreateWeightReadingRequest) (*dto.WeightReadingResponse, error)
	GetInterventionHistory(ctx context.Context, filter dto.InterventionHistoryFilter) (*dto.InterventionHistoryResponse, error)
	// GetInterventionStatistics always returns a payload. On failure the
	// payload is zeroed with Degraded set and the error is Unavailable.
	GetInterventionStatistics(ctx context.Context, cycleID *uuid.UUID) (*dto.InterventionStatisticsResponse, error)
	GetPenCost(ctx context.Context, penID uuid.UUID) (*dto.PenCostResponse, error)
}

// InterventionDeps groups the collaborators of the intervention service.
// Redis and Dispatcher are optional.
type InterventionDeps struct {
	Purchases     repository.PurchaseRepository
	Pens          repository.PenRepository
	Interventions repository.InterventionRepository
	Mortality     repository.MortalityRepository
	Financial     FinancialService
	Redis         *redis.Client
	Dispatcher    *worker.Dispatcher

	StatsCacheTTL        time.Duration
	HighMortalityRatePct float64
}

type interventionService struct {
	purchases     repository.PurchaseRepository
	pens          repository.PenRepository
	interventions repository.InterventionRepository
	mortality     repository.MortalityRepository
	financial     FinancialService
	rdb           *redis.Client
	dispatcher    *worker.Dispatcher

	statsTTL       time.Duration
	alertThreshold float64
}

func NewInterventionService(d InterventionDeps) InterventionService {
	return &interventionService{
		purchases:      d.Purchases,
		pens:           d.Pens,
		interventions:  d.Interventions,
		mortality:      d.Mortality,
		financial:      d.Financial,
		rdb:            d.Redis,
		dispatcher:     d.Dispatcher,
		statsTTL:       d.StatsCacheTTL,
		alertThreshold: d.HighMortalityRatePct,
	}
}

func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apierror.InvalidInput("invalid %s: %q", what, raw)
	}
	return id, nil
}

func (s *interventionService) findPurchase(ctx context.Context, id uuid.UUID) (*model.CattlePurchase, error) {
	p, err := s.purchases.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound("lot %s not found", id)
		}
		return nil, err
	}
	return p, nil
}

func (s *interventionService) findPen(ctx context.Context, id uuid.UUID, role string) (*model.Pen, error) {
	p, err := s.pens.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound("%s %s not found", role, id)
		}
		return nil, err
	}
	return p, nil
}

// ── Health ───────────────────────────────────────────────────────────────────

func (s *interventionService) CreateHealthIntervention(ctx context.Context, req dto.CreateHealthInterventionRequest) (*dto.HealthInterventionResponse, error) {
	lotID, err := parseID(req.LotID, "lot_id")
	if err != nil {
		return nil, err
	}
	penID, err := parseID(req.PenID, "pen_id")
	if err != nil {
		return nil, err
	}
	lot, err := s.findPurchase(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if _, err := s.findPen(ctx, penID, "pen"); err != nil {
		return nil, err
	}

	unit := req.Unit
	if unit == "" {
		unit = "ml"
	}
	h := model.HealthIntervention{
		ID:               uuid.New(),
		PurchaseID:       lotID,
		PenID:            penID,
		InterventionType: req.InterventionType,
		ProductName:      req.ProductName,
		Dose:             req.Dose,
		Unit:             unit,
		ApplicationDate:  req.ApplicationDate,
		Veterinarian:     req.Veterinarian,
		BatchNumber:      req.BatchNumber,
		Manufacturer:     req.Manufacturer,
		ExpirationDate:   req.ExpirationDate,
		Cost:             req.Cost,
		Notes:            req.Notes,
	}

	txErr := runTx(ctx, s.pens.DB(), func(tx *gorm.DB) error {
		if err := s.interventions.CreateHealthTx(tx, &h); err != nil {
			return err
		}
		if h.Cost != nil && h.Cost.IsPositive() {
			return s.purchases.AddHealthCostTx(tx, lotID, *h.Cost)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	metrics.InterventionsTotal.WithLabelValues(dto.InterventionHealth).Inc()
	s.invalidateStats(ctx)
	log.Info().
		Str("lot", lot.LotCode).
		Str("type", h.InterventionType).
		Str("product", h.ProductName).
		Msg("health intervention recorded")
	return healthToResponse(&h), nil
}

// ── Pen movement ─────────────────────────────────────────────────────────────

func (s *interventionService) CreatePenMovement(ctx context.Context, req dto.CreatePenMovementRequest) (*dto.PenMovementResponse, error) {
	lotID, err := parseID(req.LotID, "lot_id")
	if err != nil {
		return nil, err
	}
	fromID, err := parseID(req.FromPenID, "from_pen_id")
	if err != nil {
		return nil, err
	}
	toID, err := parseID(req.ToPenID, "to_pen_id")
	if err != nil {
		return nil, err
	}
	if fromID == toID {
		return nil, apierror.InvalidInput("source and destination pens must differ")
	}
	if req.Quantity <= 0 {
		return nil, apierror.InvalidQuantity("movement quantity must be positive")
	}

	lot, err := s.findPurchase(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if _, err := s.findPen(ctx, fromID, "source pen"); err != nil {
		return nil, err
	}
	if _, err := s.findPen(ctx, toID, "destination pen"); err != nil {
		return nil, err
	}

	mv := model.PenMovement{
		ID:              uuid.New(),
		PurchaseID:      lotID,
		FromPenID:       fromID,
		ToPenID:         toID,
		Quantity:        req.Quantity,
		MovementDate:    req.MovementDate,
		Reason:          req.Reason,
		ResponsibleUser: req.ResponsibleUser,
		Notes:           req.Notes,
	}

	txErr := runTx(ctx, s.pens.DB(), func(tx *gorm.DB) error {
		// Lock both pens in a stable order so crossing movements cannot deadlock.
		first, second := fromID, toID
		if second.String() < first.String() {
			first, second = second, first
		}
		locked := map[uuid.UUID]*model.Pen{}
		for _, id := range []uuid.UUID{first, second} {
			p, err := s.pens.LockTx(tx, id)
			if err != nil {
				if repository.IsNotFound(err) {
					return apierror.NotFound("pen %s not found", id)
				}
				return err
			}
			locked[id] = p
		}
		toPen := locked[toID]

		source, err := s.pens.FindActiveLinkTx(tx, lotID, fromID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apierror.InsufficientQuantity("lot %s has no animals in source pen", lot.LotCode)
			}
			return err
		}
		if source.Quantity < req.Quantity {
			return apierror.InsufficientQuantity("source pen holds %d animals of lot %s, %d requested",
				source.Quantity, lot.LotCode, req.Quantity)
		}

		destLinks, err := s.pens.ListActiveLinksTx(tx, toID)
		if err != nil {
			return err
		}
		occupancy := 0
		var dest *model.LotPenLink
		for i := range destLinks {
			occupancy += destLinks[i].Quantity
			if destLinks[i].PurchaseID == lotID {
				dest = &destLinks[i]
			}
		}
		if free := toPen.Capacity - occupancy; free < req.Quantity {
			return apierror.InsufficientCapacity("destination pen %s has room for %d animals, %d requested",
				toPen.PenNumber, max(free, 0), req.Quantity)
		}

		if err := s.interventions.CreateMovementTx(tx, &mv); err != nil {
			return err
		}
		if err := s.pens.DecrementLinkTx(tx, source.ID, req.Quantity); err != nil {
			return err
		}
		if dest != nil {
			return s.pens.IncrementLinkTx(tx, dest.ID, req.Quantity)
		}
		return s.pens.CreateLinkTx(tx, &model.LotPenLink{
			ID:              uuid.New(),
			PurchaseID:      lotID,
			PenID:           toID,
			Quantity:        req.Quantity,
			PercentageOfLot: percentOf(req.Quantity, lot.CurrentQuantity),
			PercentageOfPen: percentOf(req.Quantity, toPen.Capacity),
			AllocationDate:  req.MovementDate,
			Status:          model.LinkStatusActive,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	metrics.InterventionsTotal.WithLabelValues(dto.InterventionMovement).Inc()
	s.invalidateStats(ctx)
	log.Info().
		Str("lot", lot.LotCode).
		Str("from_pen", fromID.String()).
		Str("to_pen", toID.String()).
		Int("quantity", req.Quantity).
		Msg("pen movement recorded")
	return movementToResponse(&mv), nil
}

// percentOf returns part/whole as a percentage rounded to two places, or 0
// when whole is not positive.
func percentOf(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*10000) / 100
}

// ── Weight reading ───────────────────────────────────────────────────────────

func (s *interventionService) CreateWeightReading(ctx context.Context, req dto.CreateWeightReadingRequest) (*dto.WeightReadingResponse, error) {
	lotID, err := parseID(req.LotID, "lot_id")
	if err != nil {
		return nil, err
	}
	penID, err := parseID(req.PenID, "pen_id")
	if err != nil {
		return nil, err
	}
	lot, err := s.findPurchase(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if _, err := s.findPen(ctx, penID, "pen"); err != nil {
		return nil, err
	}

	var gmd *float64
	last, err := s.interventions.LastWeightReading(ctx, lotID, penID)
	switch {
	case err == nil:
		gmd = dailyGain(last.AverageWeight, last.WeighingDate, req.AverageWeight, req.WeighingDate)
	case !repository.IsNotFound(err):
		return nil, err
	}

	projected := projectWeight(req.AverageWeight, gmd, req.WeighingDate, lot.EstimatedSlaughterDate)

	method := req.WeighingMethod
	if method == "" {
		method = model.WeighingSample
	}
	w := model.WeightReading{
		ID:              uuid.New(),
		PurchaseID:      lotID,
		PenID:           penID,
		AverageWeight:   req.AverageWeight,
		TotalWeight:     req.TotalWeight,
		SampleSize:      req.SampleSize,
		WeighingDate:    req.WeighingDate,
		WeighingMethod:  method,
		Equipment:       req.Equipment,
		Operator:        req.Operator,
		Notes:           req.Notes,
		GMD:             gmd,
		ProjectedWeight: projected,
	}

	currentWeight := req.AverageWeight * float64(lot.CurrentQuantity)
	if req.TotalWeight != nil {
		currentWeight = *req.TotalWeight
	}

	txErr := runTx(ctx, s.pens.DB(), func(tx *gorm.DB) error {
		if err := s.interventions.CreateWeightReadingTx(tx, &w); err != nil {
			return err
		}
		return s.purchases.UpdateWeightTx(tx, lotID, req.AverageWeight, currentWeight)
	})
	if txErr != nil {
		return nil, txErr
	}

	metrics.InterventionsTotal.WithLabelValues(dto.InterventionWeight).Inc()
	s.invalidateStats(ctx)
	ev := log.Info().Str("lot", lot.LotCode).Float64("average_weight", req.AverageWeight)
	if gmd != nil {
		ev = ev.Float64("gmd", *gmd)
	}
	ev.Msg("weight reading recorded")
	return weightToResponse(&w), nil
}

// wholeDays counts full days from a to b, flooring partial days.
func wholeDays(a, b time.Time) int {
	return int(math.Floor(b.Sub(a).Hours() / 24))
}

// dailyGain is the average daily gain since the previous reading, or nil
// when the readings are less than one whole day apart.
func dailyGain(prevWeight float64, prevDate time.Time, weight float64, date time.Time) *float64 {
	days := wholeDays(prevDate, date)
	if days <= 0 {
		return nil
	}
	g := (weight - prevWeight) / float64(days)
	return &g
}

// projectWeight extrapolates weight linearly to the slaughter date when both
// the gain and a future slaughter date are known.
func projectWeight(weight float64, gmd *float64, date time.Time, slaughter *time.Time) *float64 {
	if gmd == nil || slaughter == nil {
		return nil
	}
	days := wholeDays(date, *slaughter)
	if days <= 0 {
		return nil
	}
	p := weight + *gmd*float64(days)
	return &p
}

// ── Pen cost ─────────────────────────────────────────────────────────────────

func (s *interventionService) GetPenCost(ctx context.Context, penID uuid.UUID) (*dto.PenCostResponse, error) {
	pen, err := s.findPen(ctx, penID, "pen")
	if err != nil {
		return nil, err
	}
	links, err := s.pens.ListActiveLinks(ctx, penID)
	if err != nil {
		return nil, err
	}
	pc, err := calculatePenCost(links)
	if err != nil {
		return nil, err
	}

	resp := &dto.PenCostResponse{
		PenID:              pen.ID.String(),
		PenNumber:          pen.PenNumber,
		TotalAnimals:       pc.TotalAnimals,
		TotalCost:          pc.TotalCost.Round(2),
		AverageCostPerHead: pc.AverageCostPerHead.Round(2),
		AverageWeight:      math.Round(pc.AverageWeight*100) / 100,
		Lots:               make([]dto.LotCostItem, 0, len(pc.Lots)),
	}
	for _, l := range pc.Lots {
		resp.Lots = append(resp.Lots, dto.LotCostItem{
			LotID:         l.PurchaseID.String(),
			LotCode:       l.LotCode,
			Quantity:      l.Quantity,
			CostPerAnimal: l.CostPerAnimal.Round(2),
			AverageWeight: l.AverageWeight,
		})
	}
	return resp, nil
}

// ── Mappers ──────────────────────────────────────────────────────────────────

func healthToResponse(h *model.HealthIntervention) *dto.HealthInterventionResponse {
	return &dto.HealthInterventionResponse{
		ID:               h.ID.String(),
		LotID:            h.PurchaseID.String(),
		PenID:            h.PenID.String(),
		InterventionType: h.InterventionType,
		ProductName:      h.ProductName,
		Dose:             h.Dose,
		Unit:             h.Unit,
		ApplicationDate:  h.ApplicationDate,
		Veterinarian:     h.Veterinarian,
		BatchNumber:      h.BatchNumber,
		Manufacturer:     h.Manufacturer,
		ExpirationDate:   h.ExpirationDate,
		Cost:             h.Cost,
		Notes:            h.Notes,
	}
}

func movementToResponse(m *model.PenMovement) *dto.PenMovementResponse {
	return &dto.PenMovementResponse{
		ID:              m.ID.String(),
		LotID:           m.PurchaseID.String(),
		FromPenID:       m.FromPenID.String(),
		ToPenID:         m.ToPenID.String(),
		Quantity:        m.Quantity,
		MovementDate:    m.MovementDate,
		Reason:          m.Reason,
		ResponsibleUser: m.ResponsibleUser,
		Notes:           m.Notes,
	}
}

func weightToResponse(w *model.WeightReading) *dto.WeightReadingResponse {
	return &dto.WeightReadingResponse{
		ID:              w.ID.String(),
		LotID:           w.PurchaseID.String(),
		PenID:           w.PenID.String(),
		AverageWeight:   w.AverageWeight,
		TotalWeight:     w.TotalWeight,
		SampleSize:      w.SampleSize,
		WeighingDate:    w.WeighingDate,
		WeighingMethod:  w.WeighingMethod,
		GMD:             w.GMD,
		ProjectedWeight: w.ProjectedWeight,
		Notes:           w.Notes,
	}
}
