package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"boigordo/internal/infra"
	"boigordo/internal/model"
	"boigordo/internal/repository"

	"github.com/rs/zerolog/log"
)

// ReportWorker renders a month's integrated financial analysis to PDF,
// archives it and emails it when recipients are configured.
type ReportWorker struct {
	analyses repository.FinancialAnalysisRepository
	store    infra.ReportStore
	mailer   Mailer
	to       []string
}

func NewReportWorker(analyses repository.FinancialAnalysisRepository, store infra.ReportStore, mailer Mailer, to []string) *ReportWorker {
	return &ReportWorker{analyses: analyses, store: store, mailer: mailer, to: to}
}

// ReportKey is the archive key of a month's report.
func ReportKey(month time.Time) string {
	return fmt.Sprintf("financial-analysis/%d/%s", month.Year(), infra.ReportFileName(month))
}

func (w *ReportWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var req ReportRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		log.Error().Err(err).Msg("report worker: invalid payload")
		return nil
	}
	month, err := time.Parse("2006-01", req.Month)
	if err != nil {
		log.Error().Str("month", req.Month).Msg("report worker: invalid month")
		return nil
	}

	a, err := w.analyses.FindByMonth(ctx, model.ReferenceMonth(month))
	if err != nil {
		if repository.IsNotFound(err) {
			log.Info().Str("month", req.Month).Msg("report worker: no analysis for month, nothing to report")
			return nil
		}
		return fmt.Errorf("load analysis %s: %w", req.Month, err)
	}

	var buf bytes.Buffer
	if err := infra.RenderAnalysisPDF(a, &buf); err != nil {
		return err
	}

	location, err := w.store.Put(ctx, ReportKey(month), buf.Bytes(), "application/pdf")
	if err != nil {
		return err
	}
	log.Info().Str("month", req.Month).Str("location", location).Msg("monthly report archived")

	if w.mailer == nil || !w.mailer.Enabled() || len(w.to) == 0 {
		return nil
	}
	return w.mailer.Send(ctx, infra.Message{
		To:      w.to,
		Subject: fmt.Sprintf("[boigordo] Análise financeira %s", month.Format("01/2006")),
		Body: fmt.Sprintf("Segue a análise financeira integrada de %s.\nResultado líquido: R$ %s",
			month.Format("01/2006"), a.NetIncome.StringFixed(2)),
		Attachments: []infra.Attachment{{
			Name:        infra.ReportFileName(month),
			ContentType: "application/pdf",
			Data:        buf.Bytes(),
		}},
	})
}
