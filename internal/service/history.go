package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"boigordo/internal/apierror"
	"boigordo/internal/dto"
	"boigordo/internal/metrics"
	"boigordo/internal/model"
	"boigordo/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	statsCachePrefix = "stats:interventions:"
	gmdSampleSize    = 100
)

// ── History ──────────────────────────────────────────────────────────────────

func (s *interventionService) GetInterventionHistory(ctx context.Context, filter dto.InterventionHistoryFilter) (*dto.InterventionHistoryResponse, error) {
	f, err := historyFilter(filter)
	if err != nil {
		return nil, err
	}
	want := func(kind string) bool { return filter.Type == "" || filter.Type == kind }

	var (
		health    []model.HealthIntervention
		mortality []model.MortalityRecord
		movements []model.PenMovement
		weights   []model.WeightReading
	)
	g, gctx := errgroup.WithContext(ctx)
	if want(dto.InterventionHealth) {
		g.Go(func() (err error) {
			health, err = s.interventions.ListHealth(gctx, f)
			return err
		})
	}
	if want(dto.InterventionMortality) {
		g.Go(func() (err error) {
			mortality, err = s.mortality.List(gctx, f)
			return err
		})
	}
	if want(dto.InterventionMovement) {
		g.Go(func() (err error) {
			movements, err = s.interventions.ListMovements(gctx, f)
			return err
		})
	}
	if want(dto.InterventionWeight) {
		g.Go(func() (err error) {
			weights, err = s.interventions.ListWeightReadings(gctx, f)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("intervention history query failed")
		return nil, err
	}

	items := make([]dto.InterventionHistoryItem, 0, len(health)+len(mortality)+len(movements)+len(weights))
	for i := range health {
		h := &health[i]
		lot := h.PurchaseID.String()
		items = append(items, dto.InterventionHistoryItem{
			Type: dto.InterventionHealth, ID: h.ID.String(), Date: h.ApplicationDate,
			LotID: &lot, PenID: h.PenID.String(), Record: healthToResponse(h),
		})
	}
	for i := range mortality {
		m := &mortality[i]
		items = append(items, dto.InterventionHistoryItem{
			Type: dto.InterventionMortality, ID: m.ID.String(), Date: m.DeathDate,
			LotID: uuidPtrString(m.PurchaseID), PenID: m.PenID.String(),
			Record: mortalityToResponse(m, nil, uuid.Nil),
		})
	}
	for i := range movements {
		m := &movements[i]
		lot := m.PurchaseID.String()
		items = append(items, dto.InterventionHistoryItem{
			Type: dto.InterventionMovement, ID: m.ID.String(), Date: m.MovementDate,
			LotID: &lot, PenID: m.ToPenID.String(), Record: movementToResponse(m),
		})
	}
	for i := range weights {
		w := &weights[i]
		lot := w.PurchaseID.String()
		items = append(items, dto.InterventionHistoryItem{
			Type: dto.InterventionWeight, ID: w.ID.String(), Date: w.WeighingDate,
			LotID: &lot, PenID: w.PenID.String(), Record: weightToResponse(w),
		})
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Date.After(items[j].Date) })
	return &dto.InterventionHistoryResponse{Data: items, Total: len(items)}, nil
}

// historyFilter converts query parameters. The end date covers its whole day.
func historyFilter(in dto.InterventionHistoryFilter) (repository.InterventionFilter, error) {
	var f repository.InterventionFilter
	if in.LotID != "" {
		id, err := parseID(in.LotID, "lot_id")
		if err != nil {
			return f, err
		}
		f.PurchaseID = &id
	}
	if in.PenID != "" {
		id, err := parseID(in.PenID, "pen_id")
		if err != nil {
			return f, err
		}
		f.PenID = &id
	}
	if in.StartDate != "" && in.EndDate != "" {
		from, err := time.Parse("2006-01-02", in.StartDate)
		if err != nil {
			return f, apierror.InvalidInput("invalid start_date %q", in.StartDate)
		}
		to, err := time.Parse("2006-01-02", in.EndDate)
		if err != nil {
			return f, apierror.InvalidInput("invalid end_date %q", in.EndDate)
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
		f.From, f.To = &from, &to
	}
	return f, nil
}

// ── Statistics ───────────────────────────────────────────────────────────────

func statsCacheKey(cycleID *uuid.UUID) string {
	if cycleID == nil {
		return statsCachePrefix + "all"
	}
	return statsCachePrefix + cycleID.String()
}

func (s *interventionService) GetInterventionStatistics(ctx context.Context, cycleID *uuid.UUID) (*dto.InterventionStatisticsResponse, error) {
	key := statsCacheKey(cycleID)
	if cached := s.cachedStats(ctx, key); cached != nil {
		return cached, nil
	}

	var (
		healthCount, movementCount, weightCount int64
		mortality                               repository.MortalityAggregate
		gmds                                    []float64
		herd                                    repository.HerdTotals
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { healthCount, err = s.interventions.CountHealth(gctx, cycleID); return })
	g.Go(func() (err error) { movementCount, err = s.interventions.CountMovements(gctx, cycleID); return })
	g.Go(func() (err error) { weightCount, err = s.interventions.CountWeightReadings(gctx, cycleID); return })
	g.Go(func() (err error) { mortality, err = s.mortality.Aggregate(gctx, cycleID); return })
	g.Go(func() (err error) { gmds, err = s.interventions.RecentGMDs(gctx, cycleID, gmdSampleSize); return })
	g.Go(func() (err error) { herd, err = s.purchases.HerdTotals(gctx, cycleID); return })

	if err := g.Wait(); err != nil {
		metrics.StatisticsDegradedTotal.Inc()
		log.Error().Err(err).Str("cache_key", key).Msg("intervention statistics degraded")
		degraded := zeroStatistics(cycleID)
		degraded.Degraded = true
		return degraded, apierror.Unavailable("intervention statistics unavailable")
	}

	resp := zeroStatistics(cycleID)
	resp.HealthInterventions = healthCount
	resp.MortalityEvents = mortality.Events
	resp.TotalDeaths = mortality.Deaths
	resp.TotalMortalityLoss = mortality.TotalLoss
	resp.PenMovements = movementCount
	resp.WeightReadings = weightCount
	resp.AverageGMD = average(gmds)
	resp.Herd = dto.HerdTotalsBlock{
		InitialQuantity: herd.InitialQuantity,
		CurrentQuantity: herd.CurrentQuantity,
		DeathCount:      herd.DeathCount,
	}
	if herd.InitialQuantity > 0 {
		resp.Herd.MortalityRate = float64(herd.DeathCount) / float64(herd.InitialQuantity) * 100
	}

	s.storeStats(ctx, key, resp)
	return resp, nil
}

func zeroStatistics(cycleID *uuid.UUID) *dto.InterventionStatisticsResponse {
	return &dto.InterventionStatisticsResponse{
		CycleID:            uuidPtrString(cycleID),
		TotalMortalityLoss: decimal.Zero,
	}
}

func average(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// ── Cache (best effort) ──────────────────────────────────────────────────────

func (s *interventionService) cachedStats(ctx context.Context, key string) *dto.InterventionStatisticsResponse {
	if s.rdb == nil || s.statsTTL <= 0 {
		return nil
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Str("key", key).Msg("statistics cache read failed")
		}
		return nil
	}
	var resp dto.InterventionStatisticsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil
	}
	return &resp
}

func (s *interventionService) storeStats(ctx context.Context, key string, resp *dto.InterventionStatisticsResponse) {
	if s.rdb == nil || s.statsTTL <= 0 {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, s.statsTTL).Err(); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("statistics cache write failed")
	}
}

// invalidateStats drops every cached statistics payload after a write.
func (s *interventionService) invalidateStats(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	iter := s.rdb.Scan(ctx, 0, statsCachePrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Debug().Err(err).Msg("statistics cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Debug().Err(err).Int("keys", len(keys)).Msg("statistics cache invalidation failed")
	}
}
