package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// ReportEnqueuer is satisfied by *Dispatcher.
type ReportEnqueuer interface {
	EnqueueReport(ctx context.Context, req ReportRequest) error
}

// Scheduler enqueues the monthly report job for the month that just closed.
type Scheduler struct {
	cron     *cron.Cron
	enqueuer ReportEnqueuer
	loc      *time.Location
}

// NewScheduler parses spec (standard 5-field cron) in loc.
func NewScheduler(spec string, loc *time.Location, enqueuer ReportEnqueuer) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		enqueuer: enqueuer,
		loc:      loc,
	}
	if _, err := s.cron.AddFunc(spec, s.enqueueMonthlyReport); err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron spec %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	log.Info().Str("tz", s.loc.String()).Msg("scheduler started")
	s.cron.Start()
}

// Stop halts the cron and waits for a running job to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) enqueueMonthlyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	month := previousMonth(time.Now().In(s.loc))
	if err := s.enqueuer.EnqueueReport(ctx, ReportRequest{Month: month}); err != nil {
		log.Error().Err(err).Str("month", month).Msg("failed to enqueue monthly report")
		return
	}
	log.Info().Str("month", month).Msg("monthly report enqueued")
}

// previousMonth returns the YYYY-MM of the month before now.
func previousMonth(now time.Time) string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.AddDate(0, -1, 0).Format("2006-01")
}
