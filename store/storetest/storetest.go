// Package storetest is the behaviour every store.Store driver must share.
// Driver tests call Run with a store whose data they own.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dema10/beerproject/models"
	"github.com/Dema10/beerproject/store"
)

var errAbort = errors.New("abort")

// Run exercises st. Ids are random so a shared database can be reused.
func Run(t *testing.T, st store.Store) {
	t.Run("beer round trip", func(t *testing.T) { testBeerRoundTrip(t, st) })
	t.Run("quantity never negative", func(t *testing.T) { testAdjustQuantity(t, st) })
	t.Run("rollback on error", func(t *testing.T) { testRollback(t, st) })
	t.Run("cart replace items", func(t *testing.T) { testCart(t, st) })
	t.Run("order lifecycle", func(t *testing.T) { testOrders(t, st) })
	t.Run("order history", func(t *testing.T) { testHistory(t, st) })
}

func newBeer(qty int) *models.Beer {
	return &models.Beer{
		ID:           uuid.NewString(),
		Name:         "Beer " + uuid.NewString()[:8],
		Style:        "ipa",
		ABV:          6.5,
		Price:        decimal.RequireFromString("3.25"),
		Quantity:     qty,
		InProduction: true,
	}
}

func inTx(t *testing.T, st store.Store, fn func(ctx context.Context, tx store.Tx) error) {
	t.Helper()
	require.NoError(t, st.WithTx(context.Background(), fn))
}

func testBeerRoundTrip(t *testing.T, st store.Store) {
	beer := newBeer(7)
	inTx(t, st, func(ctx context.Context, tx store.Tx) error {
		return tx.SaveBeer(ctx, beer)
	})

	inTx(t, st, func(ctx context.Context, tx store.Tx) error {
		got, err := tx.Beer(ctx, beer.ID)
		require.NoError(t, err)
		assert.Equal(t, beer.Name, got.Name)
		assert.Equal(t, 7, got.Quantity)
		assert.True(t, beer.Price.Equal(got.Price), "price %s", got.Price)

		_, err = tx.Beer(ctx, uuid.NewString())
		assert.ErrorIs(t, err, store.ErrNotFound)
		return nil
	})
}

func testAdjustQuantity(t *testing.T, st store.Store) {
	beer := newBeer(3)
	inTx(t, st, func(ctx context.Context, tx store.Tx) error {
		return tx.SaveBeer(ctx, beer)
	})

	inTx(t, st, func(ctx context.Context, tx store.Tx) error {
		require.NoError(t, tx.AdjustBeerQuantity(ctx, beer.ID, -2))
		return nil
	})

	err := st.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.AdjustBeerQuantity(ctx, beer.ID, -2)
	})
	assert.ErrorIs(t, err, store.ErrStockConflict)

	err = st.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.AdjustBeerQuantity(ctx, uuid.NewString(), 1)
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	inTx(t, st, func(ctx context.Context, tx store.Tx) error {
		require.NoError(t, tx.AdjustBeerQuantity(ctx, beer.ID, 4))
		got, err := tx.Beer(ctx, beer.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.Quantity)
		return nil
	})
}

func testRollback(t *testing.T, st store.Store) {
	beer := newBeer(5)
	inTx(t, st, func(ctx context.Context, tx store.Tx) error {
		return tx.SaveBeer(ctx, beer)
	})

	err := st.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		if err := tx.AdjustBeerQuantity(ctx, beer.ID, -5); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	inTx(t, st, func(ctx context.Context, tx store.Tx) error {
		got, err := tx.Beer(ctx, beer.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.Quantity)
		return nil
	})
}

func testCart(t *testing.T, st store.Store) {
	userID := "user-" + uuid.NewString()
	cart := &models.Cart{ID: uuid.NewString(), UserID: userID}
	cart.Items = []models.CartItem{
		{ID: uuid.NewString(), BeerID: uuid.NewString(), Name: "A", Quantity: 2, UnitPrice: decimal.RequireFromString("3.00"), AddedAt: time.Now()},
		{ID: uuid.NewString(), BeerID: uuid.NewString(), Name: "B", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00"), AddedAt: time.Now()},
	}
	cart.Recalculate()

	err := st.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Cart(ctx, userID)
		return err
	})
	require.ErrorIs(t, err, store.ErrNotFound)

	inTx(t, st, func(ctx context.Context, tx store.Tx) error {
		return tx.SaveCart(ctx, cart)
	})

	inTx(t, st, func(ctx context.Context, tx store.Tx) error {
		got, err := tx.Cart(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, cart.ID, got.ID)
		assert.Len(t, got.Items, 2)
		assert.True(t, decimal.RequireFromString("11").Equal(got.TotalPrice))

		got.RemoveItem(cart.Items[0].ID)
		got.Recalculate()
		return tx.SaveCart(ctx, got)
	})

	inTx(t, st, func(ctx context.Context, tx store.Tx) error {
		got, err := tx.Cart(ctx, userID)
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "B", got.Items[0].Name)

		got.Clear()
		return tx.SaveCart(ctx, got)
	})

	inTx(t, st, func(ctx context.Context, tx store.Tx) error {
		got, err := tx.Cart(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, got.Items)
		assert.True(t, got.TotalPrice.IsZero())
		return nil
	})
}

func newOrder(userID string, at time.Time) *models.Order {
	o := &models.Order{
		ID:        uuid.NewString(),
		Ref:       at.Format("20060102150405") + "-" + uuid.NewString(),
		UserID:    userID,
		Status:    models.OrderStatusPending,
		CreatedAt: at,
		UpdatedAt: at,
		Lines: []models.OrderLine{
			{ID: uuid.NewString(), BeerID: uuid.NewString(), Name: "A", Quantity: 2, UnitPrice: decimal.RequireFromString("3.00")},
		},
	}
	o.TotalPrice = o.LinesTotal()
	return o
}

func testOrders(t *testing.T, st store.Store) {
	userID := "user-" + uuid.NewString()
	base := time.Now().UTC().Truncate(time.Second)
	first := newOrder(userID, base)
	second := newOrder(userID, base.Add(time.Minute))

	inTx(t, st, func(ctx context.Context, tx store.Tx) error {
		require.NoError(t, tx.CreateOrder(ctx, first))
		return tx.CreateOrder(ctx, second)
	})

	err := st.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.CreateOrder(ctx, first)
	})
	assert.Error(t, err, "duplicate order id")

	inTx(t, st, func(ctx context.Context, tx store.Tx) error {
		orders, total, err := tx.ListOrders(ctx, store.OrderFilter{UserID: userID}, store.Page{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, orders, 2)
		assert.Equal(t, second.ID, orders[0].ID, "newest first")
		require.Len(t, orders[1].Lines, 1)

		page2, _, err := tx.ListOrders(ctx, store.OrderFilter{UserID: userID}, store.Page{Page: 2, Limit: 1})
		require.NoError(t, err)
		require.Len(t, page2, 1)
		assert.Equal(t, first.ID, page2[0].ID)
		return nil
	})

	inTx(t, st, func(ctx context.Context, tx store.Tx) error {
		return tx.SetOrderStatus(ctx, first.ID, models.OrderStatusShipped)
	})

	inTx(t, st, func(ctx context.Context, tx store.Tx) error {
		got, err := tx.Order(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusShipped, got.Status)
		assert.True(t, decimal.RequireFromString("6").Equal(got.TotalPrice))
		assert.Equal(t, first.Ref, got.Ref)

		locked, err := tx.OrderForUpdate(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, got.Status, locked.Status)
		require.Len(t, locked.Lines, 1)

		require.NoError(t, tx.DeleteOrder(ctx, first.ID))
		_, err = tx.Order(ctx, first.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
		return nil
	})

	err = st.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.SetOrderStatus(ctx, uuid.NewString(), models.OrderStatusShipped)
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = st.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		_, err := tx.OrderForUpdate(ctx, uuid.NewString())
		return err
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testHistory(t *testing.T, st store.Store) {
	userID := "user-" + uuid.NewString()
	a, b := uuid.NewString(), uuid.NewString()

	inTx(t, st, func(ctx context.Context, tx store.Tx) error {
		require.NoError(t, tx.AppendUserOrder(ctx, userID, a))
		return tx.AppendUserOrder(ctx, userID, b)
	})

	inTx(t, st, func(ctx context.Context, tx store.Tx) error {
		ids, err := tx.UserOrders(ctx, userID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{a, b}, ids)

		require.NoError(t, tx.RemoveUserOrder(ctx, userID, a))
		ids, err = tx.UserOrders(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, []string{b}, ids)
		return nil
	})
}
