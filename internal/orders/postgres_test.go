package orders

import (
	"context"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/angelmondragon/bizops-backend/internal/inventory"
	"github.com/angelmondragon/bizops-backend/pkg/db"
	"github.com/angelmondragon/bizops-backend/pkg/db/models"
	"github.com/angelmondragon/bizops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bizops-backend/pkg/errors"
	"github.com/angelmondragon/bizops-backend/pkg/migrate"
	"github.com/angelmondragon/bizops-backend/pkg/outbox"
)

const testDSNEnv = "BIZOPS_TEST_DB_DSN"

// openPostgres connects to a real database for the row-lock scenarios sqlite
// cannot exercise. Skipped unless BIZOPS_TEST_DB_DSN is set.
func openPostgres(t *testing.T) (*db.Client, *gorm.DB) {
	t.Helper()
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}

	conn, err := gorm.Open(postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}), &gorm.Config{
		SkipDefaultTransaction: true,
		NowFunc:                db.UTCNow,
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(16)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrate.RunEmbedded(context.Background(), sqlDB, "up"))
	return db.FromConn(conn), conn
}

func newPostgresService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client, conn := openPostgres(t)
	svc, err := NewService(ServiceParams{
		Repository: NewRepository(conn),
		TxRunner:   client,
		Ledger:     inventory.NewLedger(),
		Sequencer:  NewSequencer(time.UTC),
		Outbox:     outbox.NewService(outbox.NewRepository(conn), nil),
	})
	require.NoError(t, err)
	return svc, conn
}

func seedPostgresProduct(t *testing.T, conn *gorm.DB, tenantID uuid.UUID, qty int) *models.Product {
	t.Helper()
	product := &models.Product{
		TenantID:        tenantID,
		SKU:             "PG-" + uuid.NewString(),
		Name:            "Stapler",
		CostPrice:       decimal.RequireFromString("2.00"),
		SellingPrice:    decimal.RequireFromString("4.00"),
		QuantityOnHand:  qty,
		OpeningQuantity: qty,
		ReorderLevel:    1,
		Status:          enums.ProductStatusActive,
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func TestPostgresConcurrentOrdersRespectStock(t *testing.T) {
	svc, conn := newPostgresService(t)
	tenantID := uuid.New()
	product := seedPostgresProduct(t, conn, tenantID, 5)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateOrder(context.Background(), tenantID, uuid.New(), orderInput(OrderLineInput{ProductID: product.ID, Quantity: 2}))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientStock), "unexpected error: %v", err)
		}()
	}
	wg.Wait()

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 1, reloaded.QuantityOnHand)

	var ledgerSum int64
	require.NoError(t, conn.Model(&models.InventoryTransaction{}).
		Where("product_id = ?", product.ID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&ledgerSum).Error)
	assert.EqualValues(t, reloaded.QuantityOnHand-reloaded.OpeningQuantity, ledgerSum)
}

func TestPostgresOrderNumbersAreGapFreeUnderLoad(t *testing.T) {
	svc, conn := newPostgresService(t)
	tenantID := uuid.New()
	product := seedPostgresProduct(t, conn, tenantID, 1000)

	const workers = 10
	numbers := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			order, err := svc.CreateOrder(context.Background(), tenantID, uuid.New(), orderInput(OrderLineInput{ProductID: product.ID, Quantity: 1}))
			if assert.NoError(t, err) {
				numbers[i] = order.OrderNo
			}
		}(i)
	}
	wg.Wait()

	sort.Strings(numbers)
	day := time.Now().UTC().Format("20060102")
	for i, number := range numbers {
		assert.Equal(t, FormatOrderNo(day, int64(i+1)), number)
	}
}
