package worker

import (
	"context"
	"encoding/json"
	"time"

	"bdhishab/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	QueueAlert = "jobs:alert"

	// ChannelBalance carries balance.changed events for any subscriber
	// (dashboards, reporting) via Redis pub/sub.
	ChannelBalance = "events:balance"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// BalanceEvent is published on ChannelBalance after every committed
// balance mutation.
type BalanceEvent struct {
	StoreID      string          `json:"store_id"`
	EntryID      string          `json:"entry_id"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	OccurredAt   string          `json:"occurred_at"` // ISO 8601
}

// Dispatcher enqueues async jobs into Redis lists and publishes domain
// events. The worker pool dequeues jobs via BRPOP.
type Dispatcher struct {
	rdb    *redis.Client
	mailer *infra.Mailer
}

func NewDispatcher(rdb *redis.Client, mailer *infra.Mailer) *Dispatcher {
	return &Dispatcher{rdb: rdb, mailer: mailer}
}

// PublishBalanceChanged emits the event on the pub/sub channel. Fire and
// forget: subscribers that are offline simply miss it.
func (d *Dispatcher) PublishBalanceChanged(ctx context.Context, event BalanceEvent) error {
	if d.rdb == nil {
		return nil
	}
	if event.OccurredAt == "" {
		event.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return d.rdb.Publish(ctx, ChannelBalance, data).Err()
}

// EnqueueLowBalanceAlert pushes an alert email job to Redis.
func (d *Dispatcher) EnqueueLowBalanceAlert(ctx context.Context, payload LowBalanceAlertPayload) error {
	if d.rdb == nil {
		return nil
	}
	return d.enqueue(ctx, QueueAlert, "low_balance_alert", payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the alert queue.
// Each goroutine blocks on BRPOP, so idle workers cost no CPU.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, mailer *infra.Mailer, numWorkers int) {
	alertWorker := NewAlertWorker(mailer)
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, alertWorker, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, alertWorker *AlertWorker, id int) {
	queues := []string{QueueAlert}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, alertWorker, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, alertWorker *AlertWorker, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	switch job.Type {
	case "low_balance_alert":
		if err := withRetry(3, func() error { return alertWorker.Process(ctx, job.Payload) }); err != nil {
			SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), 3)
		}
	default:
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("unknown job type")
	}
}

// withRetry runs fn up to attempts times with a short linear backoff.
func withRetry(attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		time.Sleep(time.Duration(i+1) * time.Second)
	}
	return err
}
