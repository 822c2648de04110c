package worker

import "github.com/shopspring/decimal"

// MortalityAlert is raised when one event kills more than the configured
// share of a lot's initial head count.
type MortalityAlert struct {
	MortalityRecordID string          `json:"mortality_record_id"`
	LotID             string          `json:"lot_id"`
	LotCode           string          `json:"lot_code"`
	PenID             string          `json:"pen_id"`
	Deaths            int             `json:"deaths"`
	InitialQuantity   int             `json:"initial_quantity"`
	MortalityRate     float64         `json:"mortality_rate"`
	Threshold         float64         `json:"threshold"`
	Loss              decimal.Decimal `json:"loss"`
	Cause             string          `json:"cause"`
	DeathDate         string          `json:"death_date"` // RFC 3339

	// Channels that already took the alert; retries skip them.
	WebhookDelivered bool `json:"webhook_delivered,omitempty"`
	EmailDelivered   bool `json:"email_delivered,omitempty"`
}

// ReportRequest asks for the PDF of one month (YYYY-MM).
type ReportRequest struct {
	Month string `json:"month"`
}
