package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/networthvault/internal/domain/model"
	"github.com/ericfisherdev/networthvault/internal/domain/port/driven"
)

func newTestWatchlistService() (*WatchlistService, *memWatchlistStore) {
	store := newMemWatchlistStore()
	return NewWatchlistService(store), store
}

func TestWatchlistService_AddSymbol_Normalizes(t *testing.T) {
	svc, _ := newTestWatchlistService()
	session := testSession()
	ctx := context.Background()

	item, err := svc.AddSymbol(ctx, session, " nvda ", "gpu maker")
	require.NoError(t, err)

	assert.Equal(t, "NVDA", item.Symbol)
	assert.NotEmpty(t, item.ID)
	assert.False(t, item.AddedDate.IsZero())

	stored, err := svc.GetSymbol(ctx, session, "nvda")
	require.NoError(t, err)
	assert.Equal(t, "gpu maker", stored.Notes)
}

func TestWatchlistService_AddSymbol_Invalid(t *testing.T) {
	svc, _ := newTestWatchlistService()
	session := testSession()
	ctx := context.Background()

	_, err := svc.AddSymbol(ctx, session, "", "")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.AddSymbol(ctx, session, "WAYTOOLONGSYMBOL", "")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestWatchlistService_AddSymbol_Duplicate(t *testing.T) {
	svc, _ := newTestWatchlistService()
	session := testSession()
	ctx := context.Background()

	_, err := svc.AddSymbol(ctx, session, "NVDA", "")
	require.NoError(t, err)

	_, err = svc.AddSymbol(ctx, session, "nvda", "again")
	assert.ErrorIs(t, err, driven.ErrSymbolExists)
}

func TestWatchlistService_RecordQuote(t *testing.T) {
	svc, store := newTestWatchlistService()
	session := testSession()
	ctx := context.Background()

	_, err := svc.AddSymbol(ctx, session, "NVDA", "")
	require.NoError(t, err)

	change := decimal.RequireFromString("12.30")
	changePct := decimal.RequireFromString("1.42")
	item, err := svc.RecordQuote(ctx, session, "nvda", decimal.RequireFromString("875.50"), &change, &changePct)
	require.NoError(t, err)

	require.NotNil(t, item.CurrentPrice)
	assert.True(t, item.CurrentPrice.Equal(decimal.RequireFromString("875.50")))
	require.NotNil(t, item.LastPriceUpdate)

	stored, err := store.GetBySymbol(ctx, nil, "NVDA")
	require.NoError(t, err)
	require.NotNil(t, stored.DailyChange)
	assert.True(t, stored.DailyChange.Equal(change))
}

func TestWatchlistService_RecordQuote_NotFound(t *testing.T) {
	svc, _ := newTestWatchlistService()

	_, err := svc.RecordQuote(context.Background(), testSession(), "NVDA", decimal.RequireFromString("875.50"), nil, nil)
	assert.ErrorIs(t, err, driven.ErrWatchlistNotFound)
}

func TestWatchlistService_RemoveSymbol(t *testing.T) {
	svc, _ := newTestWatchlistService()
	session := testSession()
	ctx := context.Background()

	_, err := svc.AddSymbol(ctx, session, "NVDA", "")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveSymbol(ctx, " nvda "))

	items, err := svc.GetWatchlist(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, items)

	err = svc.RemoveSymbol(ctx, "NVDA")
	assert.ErrorIs(t, err, driven.ErrWatchlistNotFound)
}

func TestWatchlistService_PurgeDemoItems(t *testing.T) {
	svc, store := newTestWatchlistService()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, nil, &model.WatchlistItem{ID: "w-1", Symbol: "NVDA", AddedDate: time.Now(), IsDemo: true}))
	require.NoError(t, store.Insert(ctx, nil, &model.WatchlistItem{ID: "w-2", Symbol: "MSFT", AddedDate: time.Now()}))

	purged, err := svc.PurgeDemoItems(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	_, err = store.GetBySymbol(ctx, nil, "MSFT")
	assert.NoError(t, err, "real entries survive the purge")
}
