package repository

import (
	"context"
	"time"

	"boigordo/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InterventionFilter narrows history queries. The date range applies only
// when both From and To are set.
type InterventionFilter struct {
	PurchaseID *uuid.UUID
	PenID      *uuid.UUID
	From       *time.Time
	To         *time.Time
}

func (f InterventionFilter) hasRange() bool { return f.From != nil && f.To != nil }

// InterventionRepository stores health events, pen movements and weight
// readings.
type InterventionRepository interface {
	CreateHealthTx(tx *gorm.DB, h *model.HealthIntervention) error
	CreateMovementTx(tx *gorm.DB, m *model.PenMovement) error
	CreateWeightReadingTx(tx *gorm.DB, w *model.WeightReading) error

	// LastWeightReading returns gorm.ErrRecordNotFound when the lot has
	// never been weighed in the pen.
	LastWeightReading(ctx context.Context, purchaseID, penID uuid.UUID) (*model.WeightReading, error)

	ListHealth(ctx context.Context, f InterventionFilter) ([]model.HealthIntervention, error)
	ListMovements(ctx context.Context, f InterventionFilter) ([]model.PenMovement, error)
	ListWeightReadings(ctx context.Context, f InterventionFilter) ([]model.WeightReading, error)

	CountHealth(ctx context.Context, cycleID *uuid.UUID) (int64, error)
	CountMovements(ctx context.Context, cycleID *uuid.UUID) (int64, error)
	CountWeightReadings(ctx context.Context, cycleID *uuid.UUID) (int64, error)
	// RecentGMDs returns up to limit non-null GMD values, newest first.
	RecentGMDs(ctx context.Context, cycleID *uuid.UUID, limit int) ([]float64, error)
}

type interventionRepo struct{ db *gorm.DB }

func NewInterventionRepository(db *gorm.DB) InterventionRepository {
	return &interventionRepo{db: db}
}

func (r *interventionRepo) CreateHealthTx(tx *gorm.DB, h *model.HealthIntervention) error {
	return mapWriteError(tx.Create(h).Error)
}

func (r *interventionRepo) CreateMovementTx(tx *gorm.DB, m *model.PenMovement) error {
	return mapWriteError(tx.Create(m).Error)
}

func (r *interventionRepo) CreateWeightReadingTx(tx *gorm.DB, w *model.WeightReading) error {
	return mapWriteError(tx.Create(w).Error)
}

func (r *interventionRepo) LastWeightReading(ctx context.Context, purchaseID, penID uuid.UUID) (*model.WeightReading, error) {
	var w model.WeightReading
	err := r.db.WithContext(ctx).
		Where("purchase_id = ? AND pen_id = ?", purchaseID, penID).
		Order("weighing_date DESC").
		First(&w).Error
	return &w, err
}

func (r *interventionRepo) ListHealth(ctx context.Context, f InterventionFilter) ([]model.HealthIntervention, error) {
	var out []model.HealthIntervention
	q := r.db.WithContext(ctx).Model(&model.HealthIntervention{})
	if f.PurchaseID != nil {
		q = q.Where("purchase_id = ?", *f.PurchaseID)
	}
	if f.PenID != nil {
		q = q.Where("pen_id = ?", *f.PenID)
	}
	if f.hasRange() {
		q = q.Where("application_date BETWEEN ? AND ?", *f.From, *f.To)
	}
	err := q.Order("application_date DESC").Find(&out).Error
	return out, err
}

func (r *interventionRepo) ListMovements(ctx context.Context, f InterventionFilter) ([]model.PenMovement, error) {
	var out []model.PenMovement
	q := r.db.WithContext(ctx).Model(&model.PenMovement{})
	if f.PurchaseID != nil {
		q = q.Where("purchase_id = ?", *f.PurchaseID)
	}
	if f.PenID != nil {
		q = q.Where("from_pen_id = ? OR to_pen_id = ?", *f.PenID, *f.PenID)
	}
	if f.hasRange() {
		q = q.Where("movement_date BETWEEN ? AND ?", *f.From, *f.To)
	}
	err := q.Order("movement_date DESC").Find(&out).Error
	return out, err
}

func (r *interventionRepo) ListWeightReadings(ctx context.Context, f InterventionFilter) ([]model.WeightReading, error) {
	var out []model.WeightReading
	q := r.db.WithContext(ctx).Model(&model.WeightReading{})
	if f.PurchaseID != nil {
		q = q.Where("purchase_id = ?", *f.PurchaseID)
	}
	if f.PenID != nil {
		q = q.Where("pen_id = ?", *f.PenID)
	}
	if f.hasRange() {
		q = q.Where("weighing_date BETWEEN ? AND ?", *f.From, *f.To)
	}
	err := q.Order("weighing_date DESC").Find(&out).Error
	return out, err
}

// byCycle restricts q (over table) to lots of the given cycle.
func byCycle(q *gorm.DB, table string, cycleID *uuid.UUID) *gorm.DB {
	if cycleID == nil {
		return q
	}
	return q.Joins("JOIN cattle_purchases cp ON cp.id = "+table+".purchase_id").
		Where("cp.cycle_id = ?", *cycleID)
}

func (r *interventionRepo) CountHealth(ctx context.Context, cycleID *uuid.UUID) (int64, error) {
	var n int64
	err := byCycle(r.db.WithContext(ctx).Model(&model.HealthIntervention{}), "health_interventions", cycleID).
		Count(&n).Error
	return n, err
}

func (r *interventionRepo) CountMovements(ctx context.Context, cycleID *uuid.UUID) (int64, error) {
	var n int64
	err := byCycle(r.db.WithContext(ctx).Model(&model.PenMovement{}), "pen_movements", cycleID).
		Count(&n).Error
	return n, err
}

func (r *interventionRepo) CountWeightReadings(ctx context.Context, cycleID *uuid.UUID) (int64, error) {
	var n int64
	err := byCycle(r.db.WithContext(ctx).Model(&model.WeightReading{}), "weight_readings", cycleID).
		Count(&n).Error
	return n, err
}

func (r *interventionRepo) RecentGMDs(ctx context.Context, cycleID *uuid.UUID, limit int) ([]float64, error) {
	var vals []float64
	err := byCycle(r.db.WithContext(ctx).Model(&model.WeightReading{}), "weight_readings", cycleID).
		Where("weight_readings.gmd IS NOT NULL").
		Order("weight_readings.weighing_date DESC").
		Limit(limit).
		Pluck("weight_readings.gmd", &vals).Error
	return vals, err
}
