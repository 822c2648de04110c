package repository

import (
	"testing"
	"time"

	"boigordo/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryRunDB builds statements without a server so the bound values of an
// INSERT can be inspected.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=boigordo dbname=boigordo sslmode=disable",
	}), &gorm.Config{DryRun: true, SkipDefaultTransaction: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestCreateExpense_NonCashFlagIsWrittenAsFalse(t *testing.T) {
	db := dryRunDB(t)
	source := model.SourceMortalityRecord
	e := model.Expense{
		Category:        model.CategoryDeaths,
		Description:     "Mortalidade P-01",
		TotalAmount:     decimal.NewFromInt(170),
		DueDate:         time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		ImpactsCashFlow: false,
		SourceType:      &source,
	}

	stmt := db.Create(&e).Statement

	assert.False(t, e.ImpactsCashFlow)
	assert.Contains(t, stmt.SQL.String(), "impacts_cash_flow")
	assert.NotContains(t, stmt.Vars, true)
}

func TestCreatePen_InactiveStaysInactive(t *testing.T) {
	db := dryRunDB(t)
	p := model.Pen{PenNumber: "P-99", Capacity: 10, Active: false}

	stmt := db.Create(&p).Statement

	assert.False(t, p.Active)
	assert.NotContains(t, stmt.Vars, true)
}

func TestCreateMortalityRecord_StartsNotIntegrated(t *testing.T) {
	db := dryRunDB(t)
	rec := model.MortalityRecord{
		ID:           uuid.New(),
		PenID:        uuid.New(),
		Quantity:     2,
		DeathDate:    time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Cause:        "pneumonia",
		Distribution: model.DistributionProportional,
		UnitCost:     decimal.NewFromInt(17),
		TotalLoss:    decimal.NewFromInt(34),
	}

	stmt := db.Omit("Shares").Create(&rec).Statement

	assert.False(t, rec.FinancialIntegrated)
	assert.Contains(t, stmt.SQL.String(), "financial_integrated")
	assert.NotContains(t, stmt.Vars, true)
}
