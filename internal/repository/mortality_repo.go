package repository

import (
	"context"

	"boigordo/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MortalityAggregate sums mortality events, optionally per cycle.
type MortalityAggregate struct {
	Events    int64
	Deaths    int64
	TotalLoss decimal.Decimal
}

// MortalityRepository stores the canonical mortality event and its
// projections.
type MortalityRepository interface {
	// CreateRecordTx inserts rec together with its Shares.
	CreateRecordTx(tx *gorm.DB, rec *model.MortalityRecord) error
	CreateAnalysisTx(tx *gorm.DB, a *model.MortalityAnalysis) error
	MarkIntegratedTx(tx *gorm.DB, id uuid.UUID) error
	List(ctx context.Context, f InterventionFilter) ([]model.MortalityRecord, error)
	Aggregate(ctx context.Context, cycleID *uuid.UUID) (MortalityAggregate, error)
}

type mortalityRepo struct{ db *gorm.DB }

func NewMortalityRepository(db *gorm.DB) MortalityRepository { return &mortalityRepo{db: db} }

func (r *mortalityRepo) CreateRecordTx(tx *gorm.DB, rec *model.MortalityRecord) error {
	return mapWriteError(tx.Create(rec).Error)
}

func (r *mortalityRepo) CreateAnalysisTx(tx *gorm.DB, a *model.MortalityAnalysis) error {
	return mapWriteError(tx.Create(a).Error)
}

func (r *mortalityRepo) MarkIntegratedTx(tx *gorm.DB, id uuid.UUID) error {
	res := tx.Model(&model.MortalityRecord{}).Where("id = ?", id).Update("financial_integrated", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *mortalityRepo) List(ctx context.Context, f InterventionFilter) ([]model.MortalityRecord, error) {
	var out []model.MortalityRecord
	q := r.db.WithContext(ctx).Model(&model.MortalityRecord{}).Preload("Shares")
	if f.PurchaseID != nil {
		// proportional events carry the lot only on their shares
		q = q.Where("purchase_id = ? OR id IN (SELECT mortality_record_id FROM mortality_lot_shares WHERE purchase_id = ?)",
			*f.PurchaseID, *f.PurchaseID)
	}
	if f.PenID != nil {
		q = q.Where("pen_id = ?", *f.PenID)
	}
	if f.hasRange() {
		q = q.Where("death_date BETWEEN ? AND ?", *f.From, *f.To)
	}
	err := q.Order("death_date DESC").Find(&out).Error
	return out, err
}

// Aggregate sums over lot shares so a cycle filter also catches
// proportional events spread across lots.
func (r *mortalityRepo) Aggregate(ctx context.Context, cycleID *uuid.UUID) (MortalityAggregate, error) {
	var row struct {
		Events    int64
		Deaths    int64
		TotalLoss decimal.NullDecimal
	}
	q := r.db.WithContext(ctx).Table("mortality_lot_shares s").
		Select("COUNT(DISTINCT s.mortality_record_id) AS events, " +
			"COALESCE(SUM(s.quantity),0) AS deaths, " +
			"SUM(s.loss) AS total_loss")
	if cycleID != nil {
		q = q.Joins("JOIN cattle_purchases cp ON cp.id = s.purchase_id").Where("cp.cycle_id = ?", *cycleID)
	}
	if err := q.Scan(&row).Error; err != nil {
		return MortalityAggregate{}, err
	}
	agg := MortalityAggregate{Events: row.Events, Deaths: row.Deaths, TotalLoss: decimal.Zero}
	if row.TotalLoss.Valid {
		agg.TotalLoss = row.TotalLoss.Decimal
	}
	return agg, nil
}
