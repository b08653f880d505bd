package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dema10/beerproject/models"
	"github.com/Dema10/beerproject/store"
	"github.com/Dema10/beerproject/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, New())
}

func TestReadsReturnCopies(t *testing.T) {
	st := New()
	ctx := context.Background()

	require.NoError(t, st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.SaveCart(ctx, &models.Cart{ID: "c1", UserID: "u1", Items: []models.CartItem{{ID: "i1", Quantity: 1}}})
	}))

	require.NoError(t, st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		cart, err := tx.Cart(ctx, "u1")
		require.NoError(t, err)
		cart.Items[0].Quantity = 99
		return nil
	}))

	require.NoError(t, st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		cart, err := tx.Cart(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 1, cart.Items[0].Quantity, "unsaved edits must not leak into the store")
		return nil
	}))
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := New().WithTx(ctx, func(context.Context, store.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestListBeersPaginates(t *testing.T) {
	st := New()
	ctx := context.Background()
	require.NoError(t, st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		for _, name := range []string{"Stout", "Amber", "Lager", "Bock"} {
			if err := tx.SaveBeer(ctx, &models.Beer{ID: name, Name: name, InProduction: name != "Bock"}); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		beers, total, err := tx.ListBeers(ctx, true, store.Page{Page: 1, Limit: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, beers, 2)
		assert.Equal(t, "Amber", beers[0].Name)
		assert.Equal(t, "Lager", beers[1].Name)

		beers, total, err = tx.ListBeers(ctx, false, store.Page{Page: 3, Limit: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)
		assert.Empty(t, beers)
		return nil
	}))
}
