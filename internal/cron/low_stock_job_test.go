package cron

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizops-backend/internal/inventory"
	"github.com/angelmondragon/bizops-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bizops-backend/pkg/db/models"
	"github.com/angelmondragon/bizops-backend/pkg/enums"
	"github.com/angelmondragon/bizops-backend/pkg/outbox"
)

type memoryDedupe struct {
	keys   map[string]time.Duration
	setErr error
	dels   int
}

func newMemoryDedupe() *memoryDedupe {
	return &memoryDedupe{keys: map[string]time.Duration{}}
}

func (m *memoryDedupe) SetNX(_ context.Context, key string, _ any, ttl time.Duration) (bool, error) {
	if m.setErr != nil {
		return false, m.setErr
	}
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = ttl
	return true, nil
}

func (m *memoryDedupe) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.keys, key)
	}
	m.dels++
	return nil
}

func (m *memoryDedupe) DedupeKey(scope string, parts ...string) string {
	return "bo:dedupe:" + scope + ":" + strings.Join(parts, ":")
}

type failingEmitter struct{}

func (failingEmitter) Emit(context.Context, *gorm.DB, outbox.DomainEvent) error {
	return errors.New("insert failed")
}

func lowStockEvents(t *testing.T, conn *gorm.DB) []models.OutboxEvent {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, conn.Where("event_type = ?", enums.EventInventoryLowStock).Find(&rows).Error)
	return rows
}

func TestLowStockJobEmitsOncePerQuantity(t *testing.T) {
	client, conn := dbtest.Client(t)
	ctx := context.Background()
	low := seedProduct(t, conn, "LOW-1", 2, 5)
	seedProduct(t, conn, "FINE-1", 50, 5)

	dedupe := newMemoryDedupe()
	job, err := NewLowStockJob(LowStockJobParams{
		Logger:     testLogger(),
		DB:         client,
		Repository: inventory.NewRepository(conn),
		Outbox:     outbox.NewService(outbox.NewRepository(conn), nil),
		Dedupe:     dedupe,
		DedupeTTL:  time.Hour,
	})
	require.NoError(t, err)

	require.NoError(t, job.Run(ctx))
	events := lowStockEvents(t, conn)
	require.Len(t, events, 1)
	assert.Equal(t, low.ID, events[0].AggregateID)
	assert.Equal(t, enums.AggregateProduct, events[0].AggregateType)
	assert.Equal(t, low.TenantID, events[0].TenantID)

	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(events[0].Payload, &envelope))
	var payload outbox.LowStockEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, "LOW-1", payload.SKU)
	assert.Equal(t, 2, payload.QuantityOnHand)
	assert.Equal(t, 5, payload.ReorderLevel)

	require.NoError(t, job.Run(ctx))
	assert.Len(t, lowStockEvents(t, conn), 1, "same quantity is deduplicated")

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		_, _, err := inventory.NewLedger().Adjust(ctx, tx, inventory.AdjustParams{
			TenantID:  low.TenantID,
			ProductID: low.ID,
			Delta:     -1,
			Type:      enums.TransactionTypeSale,
		})
		return err
	}))
	require.NoError(t, job.Run(ctx))
	assert.Len(t, lowStockEvents(t, conn), 2, "a new quantity alerts again")

	for _, ttl := range dedupe.keys {
		assert.Equal(t, time.Hour, ttl)
	}
}

func TestLowStockJobClearsMarkerWhenEmitFails(t *testing.T) {
	client, conn := dbtest.Client(t)
	seedProduct(t, conn, "LOW-1", 1, 5)
	seedProduct(t, conn, "LOW-2", 0, 5)

	dedupe := newMemoryDedupe()
	job, err := NewLowStockJob(LowStockJobParams{
		Logger:     testLogger(),
		DB:         client,
		Repository: inventory.NewRepository(conn),
		Outbox:     failingEmitter{},
		Dedupe:     dedupe,
	})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert failed")
	assert.Empty(t, dedupe.keys)
	assert.Equal(t, 2, dedupe.dels)
}

func TestLowStockJobDedupeFailure(t *testing.T) {
	client, conn := dbtest.Client(t)
	seedProduct(t, conn, "LOW-1", 1, 5)

	dedupe := newMemoryDedupe()
	dedupe.setErr = errors.New("redis timeout")
	job, err := NewLowStockJob(LowStockJobParams{
		Logger:     testLogger(),
		DB:         client,
		Repository: inventory.NewRepository(conn),
		Outbox:     outbox.NewService(outbox.NewRepository(conn), nil),
		Dedupe:     dedupe,
	})
	require.NoError(t, err)

	assert.Error(t, job.Run(context.Background()))
	assert.Empty(t, lowStockEvents(t, conn))
}
