package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Intervention kinds accepted by the history type filter.
const (
	InterventionHealth    = "health"
	InterventionMortality = "mortality"
	InterventionMovement  = "movement"
	InterventionWeight    = "weight"
)

// InterventionHistoryFilter is bound from the query string of
// GET /v1/interventions/history. Dates are YYYY-MM-DD; the range applies only
// when both bounds are given.
type InterventionHistoryFilter struct {
	LotID     string `form:"lot_id"     validate:"omitempty,uuid"`
	PenID     string `form:"pen_id"     validate:"omitempty,uuid"`
	StartDate string `form:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date"   validate:"omitempty,datetime=2006-01-02"`
	Type      string `form:"type"       validate:"omitempty,oneof=health mortality movement weight"`
}

// InterventionHistoryItem wraps one record of any kind. Record holds the
// kind-specific response DTO.
type InterventionHistoryItem struct {
	Type   string      `json:"type"`
	ID     string      `json:"id"`
	Date   time.Time   `json:"date"`
	LotID  *string     `json:"lot_id"`
	PenID  string      `json:"pen_id"`
	Record interface{} `json:"record"`
}

type InterventionHistoryResponse struct {
	Data  []InterventionHistoryItem `json:"data"`
	Total int                       `json:"total"`
}

// InterventionStatisticsResponse is returned by GET /v1/interventions/statistics.
// Degraded is set when the figures could not be computed; all counters are
// then zero and must not be read as "no data".
type InterventionStatisticsResponse struct {
	CycleID             *string         `json:"cycle_id"`
	HealthInterventions int64           `json:"health_interventions"`
	MortalityEvents     int64           `json:"mortality_events"`
	TotalDeaths         int64           `json:"total_deaths"`
	TotalMortalityLoss  decimal.Decimal `json:"total_mortality_loss"`
	PenMovements        int64           `json:"pen_movements"`
	WeightReadings      int64           `json:"weight_readings"`
	AverageGMD          float64         `json:"average_gmd"`
	Herd                HerdTotalsBlock `json:"herd"`
	Degraded            bool            `json:"degraded"`
}

type HerdTotalsBlock struct {
	InitialQuantity int64   `json:"initial_quantity"`
	CurrentQuantity int64   `json:"current_quantity"`
	DeathCount      int64   `json:"death_count"`
	MortalityRate   float64 `json:"mortality_rate"`
}
