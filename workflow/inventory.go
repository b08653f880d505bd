package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dema10/beerproject/models"
	"github.com/Dema10/beerproject/store"
)

// loadBeer reads an inventory record inside tx.
func loadBeer(ctx context.Context, tx store.Tx, id string) (*models.Beer, error) {
	beer, err := tx.Beer(ctx, id)
	if err != nil {
		return nil, translate(err, "beer "+id)
	}
	return beer, nil
}

func insufficient(beer *models.Beer, requested int) error {
	return fmt.Errorf("%w for %s: requested %d, available %d",
		ErrInsufficientStock, beer.Name, requested, beer.Quantity)
}

// takeStock decrements a beer's quantity. The store refuses to go negative,
// which catches a decrement racing past an earlier availability check.
func takeStock(ctx context.Context, tx store.Tx, beer *models.Beer, qty int) error {
	err := tx.AdjustBeerQuantity(ctx, beer.ID, -qty)
	if errors.Is(err, store.ErrStockConflict) {
		return insufficient(beer, qty)
	}
	return translate(err, "beer "+beer.ID)
}

// restoreStock gives every line's quantity back to its beer. Lines whose beer
// has since left the catalog have nowhere to go and are skipped.
func restoreStock(ctx context.Context, tx store.Tx, lines []models.OrderLine, log *slog.Logger) error {
	for _, line := range lines {
		err := tx.AdjustBeerQuantity(ctx, line.BeerID, line.Quantity)
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("restock skipped, beer no longer exists", "beer_id", line.BeerID, "quantity", line.Quantity)
			continue
		}
		if err != nil {
			return fmt.Errorf("restock %s: %w", line.BeerID, err)
		}
	}
	return nil
}
