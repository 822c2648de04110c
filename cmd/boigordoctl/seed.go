package main

import (
	"context"
	"time"

	"boigordo/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo pens and lots (idempotent)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		_, db, err := openDatabase()
		if err != nil {
			return err
		}
		return seedDemo(ctx, db)
	},
}

type demoLot struct {
	code      string
	pen       string
	quantity  int
	unitPrice int64
	weight    float64
}

var demoPens = map[string]int{"P-01": 150, "P-02": 120, "P-03": 80}

var demoLots = []demoLot{
	{code: "L-2024-001", pen: "P-01", quantity: 30, unitPrice: 2800, weight: 310},
	{code: "L-2024-002", pen: "P-01", quantity: 70, unitPrice: 3100, weight: 345},
	{code: "L-2024-003", pen: "P-02", quantity: 60, unitPrice: 2950, weight: 330},
}

func seedDemo(ctx context.Context, db *gorm.DB) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pens := make(map[string]*model.Pen, len(demoPens))
		for number, capacity := range demoPens {
			p := model.Pen{PenNumber: number, Capacity: capacity, Active: true}
			if err := tx.Where(model.Pen{PenNumber: number}).FirstOrCreate(&p).Error; err != nil {
				return err
			}
			pens[number] = &p
		}

		for _, l := range demoLots {
			weight := l.weight
			lot := model.CattlePurchase{
				LotCode:         l.code,
				InitialQuantity: l.quantity,
				CurrentQuantity: l.quantity,
				UnitPrice:       decimal.NewFromInt(l.unitPrice),
				AverageWeight:   &weight,
				CurrentWeight:   weight * float64(l.quantity),
			}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&lot)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}
			pen := pens[l.pen]
			link := model.LotPenLink{
				PurchaseID:      lot.ID,
				PenID:           pen.ID,
				Quantity:        l.quantity,
				PercentageOfLot: 100,
				PercentageOfPen: float64(l.quantity) / float64(pen.Capacity) * 100,
				AllocationDate:  now,
				Status:          model.LinkStatusActive,
			}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
			log.Info().Str("lot", l.code).Str("pen", l.pen).Int("quantity", l.quantity).Msg("seeded lot")
		}
		return nil
	})
}
