package repository

import (
	"context"
	"time"

	"boigordo/internal/model"

	"gorm.io/gorm"
)

// ExpenseFilter narrows ledger listings.
type ExpenseFilter struct {
	Category string
	From     *time.Time
	To       *time.Time
	CashOnly bool
	Page     int
	Limit    int
}

type ExpenseRepository interface {
	CreateTx(tx *gorm.DB, e *model.Expense) error
	List(ctx context.Context, f ExpenseFilter) ([]model.Expense, int64, error)
}

type expenseRepo struct{ db *gorm.DB }

func NewExpenseRepository(db *gorm.DB) ExpenseRepository { return &expenseRepo{db: db} }

func (r *expenseRepo) CreateTx(tx *gorm.DB, e *model.Expense) error {
	return mapWriteError(tx.Create(e).Error)
}

func (r *expenseRepo) List(ctx context.Context, f ExpenseFilter) ([]model.Expense, int64, error) {
	var out []model.Expense
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Expense{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.From != nil {
		q = q.Where("due_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("due_date < ?", *f.To)
	}
	if f.CashOnly {
		q = q.Where("impacts_cash_flow = true")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (f.Page - 1) * f.Limit
	err := q.Order("due_date DESC, created_at DESC").Limit(f.Limit).Offset(offset).Find(&out).Error
	return out, total, err
}
