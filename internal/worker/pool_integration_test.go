//go:build integration

package worker

// Integration tests for the job queue, DLQ and event channel against real
// Redis via testcontainers. Run with:
// go test -tags integration ./internal/worker/... -v

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"bdhishab/internal/config"
	"bdhishab/internal/infra"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupRedis(t *testing.T) *goredis.Client {
	t.Helper()
	ctx := context.Background()

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(rdURL)
	require.NoError(t, err)
	return rdb
}

func TestEnqueueAlertRoundTrip(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()
	d := NewDispatcher(rdb, nil)

	require.NoError(t, d.EnqueueLowBalanceAlert(ctx, LowBalanceAlertPayload{
		ToEmail: "owner@example.com",
		StoreID: "store-1",
		Balance: "42.50",
	}))

	result, err := rdb.BRPop(ctx, 5*time.Second, QueueAlert).Result()
	require.NoError(t, err)
	require.Len(t, result, 2)

	var job Job
	require.NoError(t, json.Unmarshal([]byte(result[1]), &job))
	assert.Equal(t, "low_balance_alert", job.Type)

	var payload LowBalanceAlertPayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, "owner@example.com", payload.ToEmail)
	assert.Equal(t, "42.50", payload.Balance)
}

func TestFailedAlertJobLandsInDLQ(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()

	// Unreachable SMTP endpoint so every send attempt fails fast
	mailer := infra.NewMailer(&config.Config{SMTPHost: "127.0.0.1", SMTPPort: 1})
	alertWorker := NewAlertWorker(mailer)

	payload, err := json.Marshal(LowBalanceAlertPayload{
		ToEmail: "owner@example.com",
		StoreID: "store-1",
		Balance: "5",
	})
	require.NoError(t, err)
	raw, err := json.Marshal(Job{Type: "low_balance_alert", Payload: payload})
	require.NoError(t, err)

	processJob(ctx, rdb, alertWorker, QueueAlert, string(raw))

	n, err := DLQLength(ctx, rdb, QueueAlert)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	entryRaw, err := rdb.LIndex(ctx, DLQPrefix+QueueAlert, 0).Result()
	require.NoError(t, err)
	var entry DLQEntry
	require.NoError(t, json.Unmarshal([]byte(entryRaw), &entry))
	assert.Equal(t, QueueAlert, entry.OriginalQueue)
	assert.Equal(t, "low_balance_alert", entry.JobType)
	assert.Equal(t, 3, entry.Attempts)
}

func TestPublishBalanceChangedReachesSubscriber(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()
	d := NewDispatcher(rdb, nil)

	sub := rdb.Subscribe(ctx, ChannelBalance)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, d.PublishBalanceChanged(ctx, BalanceEvent{
		StoreID: "store-1",
		EntryID: "entry-1",
		Type:    "manual_add",
	}))

	select {
	case msg := <-sub.Channel():
		var event BalanceEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, "store-1", event.StoreID)
		assert.NotEmpty(t, event.OccurredAt)
	case <-time.After(5 * time.Second):
		t.Fatal("no event received on " + ChannelBalance)
	}
}
