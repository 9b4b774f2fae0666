package worker

// alert_worker.go
// Processes low-balance alert jobs from QueueAlert: notifies the owner by
// email when a store's balance fell below the configured threshold.

import (
	"context"
	"encoding/json"
	"fmt"

	"bdhishab/internal/infra"

	"github.com/rs/zerolog/log"
)

// LowBalanceAlertPayload is the job envelope sent to QueueAlert.
type LowBalanceAlertPayload struct {
	ToEmail string `json:"to_email"`
	StoreID string `json:"store_id"`
	Balance string `json:"balance"`
}

type AlertWorker struct {
	mailer *infra.Mailer
}

func NewAlertWorker(mailer *infra.Mailer) *AlertWorker {
	return &AlertWorker{mailer: mailer}
}

// Process sends the low-balance notification email.
func (w *AlertWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload LowBalanceAlertPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("alert_worker: invalid payload")
		return nil // malformed payloads are not retryable
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("alert_worker: empty to_email, skipping")
		return nil
	}

	subject := fmt.Sprintf("Low balance alert: store %s", payload.StoreID)
	body := fmt.Sprintf("The balance of store %s dropped to %s. Review recent movements in the ledger history.", payload.StoreID, payload.Balance)
	if err := w.mailer.SendAlert(payload.ToEmail, subject, body); err != nil {
		log.Error().Err(err).Str("to", payload.ToEmail).Msg("alert_worker: failed to send email")
		return err
	}
	log.Info().Str("to", payload.ToEmail).Str("store_id", payload.StoreID).Msg("alert_worker: alert sent")
	return nil
}
