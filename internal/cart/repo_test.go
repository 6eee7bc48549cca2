package cart

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/peykantravel/peykan-storefront/pkg/db/models"
	"github.com/peykantravel/peykan-storefront/pkg/enums"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	cartRecords := `
CREATE TABLE IF NOT EXISTS cart_records (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  currency TEXT NOT NULL,
  subtotal TEXT NOT NULL DEFAULT '0',
  total TEXT NOT NULL DEFAULT '0',
  total_items INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  product_id TEXT NOT NULL,
  title TEXT NOT NULL,
  unit_price TEXT NOT NULL DEFAULT '0',
  currency TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  image TEXT,
  duration TEXT,
  location TEXT,
  date TEXT,
  time TEXT,
  variant_name TEXT,
  tour_detail TEXT,
  event_detail TEXT,
  transfer_detail TEXT,
  subtotal TEXT NOT NULL DEFAULT '0',
  created_at DATETIME,
  updated_at DATETIME
);`

	require.NoError(t, db.Exec(cartRecords).Error)
	require.NoError(t, db.Exec(cartItems).Error)
	return db
}

func TestRepositoryPersistsTaggedUnionItems(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	cart := NewCart("sess-repo", enums.CurrencyIRR)
	pickup := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	_, err := cart.AddItem(tourItem("t1", "s1", "v1", 2, 0, 0, "100"))
	require.NoError(t, err)
	_, err = cart.AddItem(transferItem("r1", "veh1", pickup, 2, "80"))
	require.NoError(t, err)

	record := recordFromCart(cart)
	_, err = repo.Create(ctx, record)
	require.NoError(t, err)

	loaded, err := repo.FindActiveBySession(ctx, "sess-repo")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Len(t, loaded.Items, 2)

	roundTripped := cartFromRecord(loaded)
	assert.True(t, roundTripped.Total().Equal(cart.Total()), "totals must survive persistence")
	assert.Equal(t, cart.TotalItems(), roundTripped.TotalItems())

	var gotTour, gotTransfer bool
	for _, item := range roundTripped.Items {
		switch item.Kind {
		case enums.ProductKindTour:
			gotTour = true
			require.NotNil(t, item.Tour)
			assert.Equal(t, "s1", item.Tour.ScheduleID)
			assert.Nil(t, item.Transfer)
		case enums.ProductKindTransfer:
			gotTransfer = true
			require.NotNil(t, item.Transfer)
			assert.Equal(t, "veh1", item.Transfer.VehicleTypeID)
			assert.Nil(t, item.Tour)
		}
	}
	assert.True(t, gotTour, "tour line missing")
	assert.True(t, gotTransfer, "transfer line missing")
}

func TestRepositoryFindActiveReturnsNilWhenEmpty(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)

	record, err := repo.FindActiveBySession(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestRepositoryReplaceItems(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	cart := NewCart("sess-replace", enums.CurrencyIRR)
	_, err := cart.AddItem(tourItem("t1", "s1", "v1", 1, 0, 0, "100"))
	require.NoError(t, err)

	record := recordFromCart(cart)
	_, err = repo.Create(ctx, record)
	require.NoError(t, err)

	replacement := itemToModel(eventItemForRepo())
	require.NoError(t, repo.ReplaceItems(ctx, record.ID, []models.CartItem{replacement}))

	loaded, err := repo.FindActiveBySession(ctx, "sess-replace")
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, enums.ProductKindEvent, loaded.Items[0].Kind)

	require.NoError(t, repo.ReplaceItems(ctx, record.ID, nil))
	loaded, err = repo.FindActiveBySession(ctx, "sess-replace")
	require.NoError(t, err)
	assert.Empty(t, loaded.Items)
}

func TestRepositoryDeleteBySession(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	cart := NewCart("sess-del", enums.CurrencyIRR)
	_, err := cart.AddItem(tourItem("t1", "s1", "v1", 1, 0, 0, "100"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, recordFromCart(cart))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteBySession(ctx, "sess-del"))

	record, err := repo.FindActiveBySession(ctx, "sess-del")
	require.NoError(t, err)
	assert.Nil(t, record)

	// Deleting an absent cart is a no-op.
	require.NoError(t, repo.DeleteBySession(ctx, "sess-del"))
}

func eventItemForRepo() Item {
	item := eventItem("e9", "p9", "tt9", "40")
	item.ID = ""
	item.Currency = enums.CurrencyIRR
	return item
}
