package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"boigordo/internal/infra"

	"github.com/rs/zerolog/log"
)

// Notifier posts an event to an external endpoint.
type Notifier interface {
	Enabled() bool
	Notify(ctx context.Context, payload interface{}) error
}

// Mailer sends one email.
type Mailer interface {
	Enabled() bool
	Send(ctx context.Context, msg infra.Message) error
}

// AlertWorker delivers high-mortality alerts to the operator webhook and by
// email, whichever is configured.
type AlertWorker struct {
	notifier Notifier
	mailer   Mailer
	to       []string
}

func NewAlertWorker(notifier Notifier, mailer Mailer, to []string) *AlertWorker {
	return &AlertWorker{notifier: notifier, mailer: mailer, to: to}
}

// alertEvent is the webhook body.
type alertEvent struct {
	Event string         `json:"event"`
	Text  string         `json:"text"`
	Alert MortalityAlert `json:"alert"`
}

func (w *AlertWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var alert MortalityAlert
	if err := json.Unmarshal(raw, &alert); err != nil {
		// Malformed payloads never succeed; don't retry them.
		log.Error().Err(err).Msg("alert worker: invalid payload")
		return nil
	}

	webhook := w.notifier != nil && w.notifier.Enabled()
	mail := w.mailer != nil && w.mailer.Enabled() && len(w.to) > 0
	if !webhook && !mail {
		log.Warn().Str("lot", alert.LotCode).Msg("alert worker: no alert channel configured, alert logged only")
		return nil
	}

	text := alertText(alert)
	var errs []error
	delivered := false
	if webhook && !alert.WebhookDelivered {
		if err := w.notifier.Notify(ctx, alertEvent{Event: JobTypeAlert, Text: text, Alert: alert}); err != nil {
			errs = append(errs, err)
		} else {
			alert.WebhookDelivered = true
			delivered = true
		}
	}
	if mail && !alert.EmailDelivered {
		err := w.mailer.Send(ctx, infra.Message{
			To:      w.to,
			Subject: fmt.Sprintf("[boigordo] Mortalidade alta no lote %s", alert.LotCode),
			Body:    text,
		})
		if err != nil {
			errs = append(errs, err)
		} else {
			alert.EmailDelivered = true
			delivered = true
		}
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		if !delivered {
			return err
		}
		next, mErr := json.Marshal(alert)
		if mErr != nil {
			return err
		}
		return &RetryWithPayload{Payload: next, Err: err}
	}

	log.Info().
		Str("lot", alert.LotCode).
		Float64("mortality_rate", alert.MortalityRate).
		Bool("webhook", webhook).
		Bool("email", mail).
		Msg("mortality alert delivered")
	return nil
}

func alertText(a MortalityAlert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lote %s: %d mortes em um evento (%.2f%% do lote inicial de %d cabeças, limite %.2f%%).\n",
		a.LotCode, a.Deaths, a.MortalityRate, a.InitialQuantity, a.Threshold)
	fmt.Fprintf(&b, "Causa: %s\n", a.Cause)
	fmt.Fprintf(&b, "Data: %s\n", a.DeathDate)
	fmt.Fprintf(&b, "Perda: R$ %s\n", a.Loss.StringFixed(2))
	fmt.Fprintf(&b, "Registro: %s", a.MortalityRecordID)
	return b.String()
}
