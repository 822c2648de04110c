package repository

import (
	"context"

	"boigordo/internal/apierror"
	"boigordo/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PenRepository covers pens and their lot allocations.
type PenRepository interface {
	Create(ctx context.Context, p *model.Pen) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Pen, error)
	CreateLink(ctx context.Context, l *model.LotPenLink) error
	// ListActiveLinks returns the pen's ACTIVE links with their lots, in
	// allocation order.
	ListActiveLinks(ctx context.Context, penID uuid.UUID) ([]model.LotPenLink, error)

	// Used inside transactions; callers must pass the tx instance
	LockTx(tx *gorm.DB, id uuid.UUID) (*model.Pen, error)
	ListActiveLinksTx(tx *gorm.DB, penID uuid.UUID) ([]model.LotPenLink, error)
	FindActiveLinkTx(tx *gorm.DB, purchaseID, penID uuid.UUID) (*model.LotPenLink, error)
	CreateLinkTx(tx *gorm.DB, l *model.LotPenLink) error
	// DecrementLinkTx fails with InsufficientQuantity when the link holds
	// fewer than n animals.
	DecrementLinkTx(tx *gorm.DB, linkID uuid.UUID, n int) error
	IncrementLinkTx(tx *gorm.DB, linkID uuid.UUID, n int) error

	DB() *gorm.DB
}

type penRepo struct{ db *gorm.DB }

func NewPenRepository(db *gorm.DB) PenRepository { return &penRepo{db: db} }

func (r *penRepo) DB() *gorm.DB { return r.db }

func (r *penRepo) Create(ctx context.Context, p *model.Pen) error {
	return mapWriteError(r.db.WithContext(ctx).Create(p).Error)
}

func (r *penRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Pen, error) {
	var p model.Pen
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *penRepo) CreateLink(ctx context.Context, l *model.LotPenLink) error {
	return r.CreateLinkTx(r.db.WithContext(ctx), l)
}

func (r *penRepo) ListActiveLinks(ctx context.Context, penID uuid.UUID) ([]model.LotPenLink, error) {
	return r.ListActiveLinksTx(r.db.WithContext(ctx), penID)
}

func (r *penRepo) LockTx(tx *gorm.DB, id uuid.UUID) (*model.Pen, error) {
	var p model.Pen
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *penRepo) ListActiveLinksTx(tx *gorm.DB, penID uuid.UUID) ([]model.LotPenLink, error) {
	var links []model.LotPenLink
	err := tx.Preload("Purchase").
		Where("pen_id = ? AND status = ?", penID, model.LinkStatusActive).
		Order("allocation_date ASC, created_at ASC").
		Find(&links).Error
	return links, err
}

func (r *penRepo) FindActiveLinkTx(tx *gorm.DB, purchaseID, penID uuid.UUID) (*model.LotPenLink, error) {
	var l model.LotPenLink
	err := tx.Where("purchase_id = ? AND pen_id = ? AND status = ?", purchaseID, penID, model.LinkStatusActive).
		First(&l).Error
	return &l, err
}

func (r *penRepo) CreateLinkTx(tx *gorm.DB, l *model.LotPenLink) error {
	return mapWriteError(tx.Create(l).Error)
}

func (r *penRepo) DecrementLinkTx(tx *gorm.DB, linkID uuid.UUID, n int) error {
	res := tx.Model(&model.LotPenLink{}).
		Where("id = ? AND quantity >= ?", linkID, n).
		Update("quantity", gorm.Expr("quantity - ?", n))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierror.InsufficientQuantity("allocation %s has fewer than %d animals", linkID, n)
	}
	return nil
}

func (r *penRepo) IncrementLinkTx(tx *gorm.DB, linkID uuid.UUID, n int) error {
	return tx.Model(&model.LotPenLink{}).Where("id = ?", linkID).
		Update("quantity", gorm.Expr("quantity + ?", n)).Error
}
