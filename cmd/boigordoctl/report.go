package main

import (
	"fmt"
	"os"
	"time"

	"boigordo/internal/infra"
	"boigordo/internal/repository"
	"boigordo/internal/service"
	"boigordo/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	reportMonth   string
	reportOut     string
	reportEnqueue bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a month's financial analysis PDF",
	Long: `Renders the monthly financial analysis to --out, or with --enqueue hands
the month to the worker pool, which archives and emails it.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportMonth, "month", "", "Reference month YYYY-MM (required)")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Output file (default financial_analysis_YYYY-MM.pdf)")
	reportCmd.Flags().BoolVar(&reportEnqueue, "enqueue", false, "Enqueue a report job instead of rendering locally")
	_ = reportCmd.MarkFlagRequired("month")
}

func runReport(cmd *cobra.Command, args []string) error {
	month, err := time.Parse("2006-01", reportMonth)
	if err != nil {
		return fmt.Errorf("--month must be YYYY-MM: %w", err)
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	cfg, db, err := openDatabase()
	if err != nil {
		return err
	}

	if reportEnqueue {
		rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		if err := worker.NewDispatcher(rdb).EnqueueReport(ctx, worker.ReportRequest{Month: reportMonth}); err != nil {
			return err
		}
		log.Info().Str("month", reportMonth).Msg("report job enqueued")
		return nil
	}

	out := reportOut
	if out == "" {
		out = infra.ReportFileName(month)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	svc := service.NewFinancialService(repository.NewExpenseRepository(db), repository.NewFinancialAnalysisRepository(db))
	if err := svc.RenderMonthlyReport(ctx, month, f); err != nil {
		_ = os.Remove(out)
		return err
	}
	log.Info().Str("file", out).Msg("report written")
	return nil
}
