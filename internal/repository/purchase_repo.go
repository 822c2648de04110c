package repository

import (
	"context"

	"boigordo/internal/apierror"
	"boigordo/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// HerdTotals are the summed lot counters of a cycle (or of every lot).
type HerdTotals struct {
	InitialQuantity int64
	CurrentQuantity int64
	DeathCount      int64
}

// PurchaseRepository is the data access contract for lots.
type PurchaseRepository interface {
	Create(ctx context.Context, p *model.CattlePurchase) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CattlePurchase, error)
	HerdTotals(ctx context.Context, cycleID *uuid.UUID) (HerdTotals, error)

	// RecordDeathsTx moves n animals from current_quantity to death_count.
	// It fails with InsufficientQuantity when the lot has fewer than n left.
	RecordDeathsTx(tx *gorm.DB, id uuid.UUID, n int) error
	// AddHealthCostTx accumulates cost on health_cost and, when the lot
	// carries an explicit total, on total_cost.
	AddHealthCostTx(tx *gorm.DB, id uuid.UUID, cost decimal.Decimal) error
	UpdateWeightTx(tx *gorm.DB, id uuid.UUID, averageWeight, currentWeight float64) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type purchaseRepo struct{ db *gorm.DB }

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository { return &purchaseRepo{db: db} }

func (r *purchaseRepo) DB() *gorm.DB { return r.db }

func (r *purchaseRepo) Create(ctx context.Context, p *model.CattlePurchase) error {
	return mapWriteError(r.db.WithContext(ctx).Create(p).Error)
}

func (r *purchaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CattlePurchase, error) {
	var p model.CattlePurchase
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *purchaseRepo) HerdTotals(ctx context.Context, cycleID *uuid.UUID) (HerdTotals, error) {
	var t HerdTotals
	q := r.db.WithContext(ctx).Model(&model.CattlePurchase{}).
		Select("COALESCE(SUM(initial_quantity),0) AS initial_quantity, " +
			"COALESCE(SUM(current_quantity),0) AS current_quantity, " +
			"COALESCE(SUM(death_count),0) AS death_count")
	if cycleID != nil {
		q = q.Where("cycle_id = ?", *cycleID)
	}
	err := q.Scan(&t).Error
	return t, err
}

func (r *purchaseRepo) RecordDeathsTx(tx *gorm.DB, id uuid.UUID, n int) error {
	res := tx.Model(&model.CattlePurchase{}).
		Where("id = ? AND current_quantity >= ?", id, n).
		Updates(map[string]interface{}{
			"current_quantity": gorm.Expr("current_quantity - ?", n),
			"death_count":      gorm.Expr("death_count + ?", n),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierror.InsufficientQuantity("lot %s has fewer than %d animals", id, n)
	}
	return nil
}

func (r *purchaseRepo) AddHealthCostTx(tx *gorm.DB, id uuid.UUID, cost decimal.Decimal) error {
	// total_cost stays NULL for lots priced by components; health_cost already
	// feeds their computed total.
	res := tx.Model(&model.CattlePurchase{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"health_cost": gorm.Expr("health_cost + ?", cost),
			"total_cost":  gorm.Expr("total_cost + ?", cost),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierror.NotFound("lot %s not found", id)
	}
	return nil
}

func (r *purchaseRepo) UpdateWeightTx(tx *gorm.DB, id uuid.UUID, averageWeight, currentWeight float64) error {
	return tx.Model(&model.CattlePurchase{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"average_weight": averageWeight,
			"current_weight": currentWeight,
		}).Error
}
