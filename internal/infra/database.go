package infra

import (
	"fmt"
	"time"

	"boigordo/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and sizes its pool.
// Schema changes are applied separately by RunMigrations.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Models lists every table owned by the service, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.CattlePurchase{},
		&model.Pen{},
		&model.LotPenLink{},
		&model.HealthIntervention{},
		&model.PenMovement{},
		&model.WeightReading{},
		&model.MortalityRecord{},
		&model.MortalityLotShare{},
		&model.MortalityAnalysis{},
		&model.Expense{},
		&model.IntegratedFinancialAnalysis{},
		&model.IntegratedAnalysisItem{},
	}
}

// RunMigrations creates / updates all tables with AutoMigrate, then applies the
// idempotent SQL patches GORM cannot express.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs DDL that AutoMigrate cannot produce: the partial
// unique index on active allocations and the non-negative counter checks the
// conditional decrements rely on. Every statement is guarded so re-running on
// an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"one ACTIVE allocation per lot and pen", `
CREATE UNIQUE INDEX IF NOT EXISTS idx_lot_pen_links_active
    ON lot_pen_links (purchase_id, pen_id)
    WHERE status = 'ACTIVE'`},
		{"lot_pen_links.quantity >= 0", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_lot_pen_links_quantity') THEN
    ALTER TABLE lot_pen_links ADD CONSTRAINT chk_lot_pen_links_quantity CHECK (quantity >= 0);
  END IF;
END $$`},
		{"cattle_purchases.current_quantity >= 0", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_cattle_purchases_current_quantity') THEN
    ALTER TABLE cattle_purchases ADD CONSTRAINT chk_cattle_purchases_current_quantity CHECK (current_quantity >= 0);
  END IF;
END $$`},
		{"pens.capacity >= 0", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_pens_capacity') THEN
    ALTER TABLE pens ADD CONSTRAINT chk_pens_capacity CHECK (capacity >= 0);
  END IF;
END $$`},
		{"mortality_records.quantity > 0", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_mortality_records_quantity') THEN
    ALTER TABLE mortality_records ADD CONSTRAINT chk_mortality_records_quantity CHECK (quantity > 0);
  END IF;
END $$`},
		{"expenses by source", `
CREATE INDEX IF NOT EXISTS idx_expenses_source
    ON expenses (source_type, source_id)
    WHERE source_id IS NOT NULL`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
