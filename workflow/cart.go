package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Dema10/beerproject/models"
	"github.com/Dema10/beerproject/store"
)

// CartService mutates per-user carts. Availability is checked on every call
// but nothing is reserved; checkout checks again.
type CartService struct {
	store store.Store
	now   func() time.Time
}

func NewCartService(st store.Store) *CartService {
	return &CartService{store: st, now: time.Now}
}

// Get returns the caller's cart, creating an empty one on first access.
func (s *CartService) Get(ctx context.Context, caller models.Identity) (*models.Cart, error) {
	if err := Authorize(OpViewCart, caller, caller.UserID); err != nil {
		return nil, err
	}
	var cart *models.Cart
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		c, created, err := s.cartFor(ctx, tx, caller.UserID)
		if err != nil {
			return err
		}
		if created {
			if err := tx.SaveCart(ctx, c); err != nil {
				return err
			}
		}
		cart = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// GetForUser lets an admin inspect another user's cart.
func (s *CartService) GetForUser(ctx context.Context, caller models.Identity, userID string) (*models.Cart, error) {
	if err := Authorize(OpViewAnyCart, caller, userID); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, validationf("user id is required")
	}
	var cart *models.Cart
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		c, err := tx.Cart(ctx, userID)
		if err != nil {
			return translate(err, "cart")
		}
		cart = c
		return nil
	})
	return cart, err
}

// AddItem puts qty units of beerID in the caller's cart, summing with an
// existing line for the same beer.
func (s *CartService) AddItem(ctx context.Context, caller models.Identity, beerID string, qty int) (*models.Cart, error) {
	if err := Authorize(OpMutateCart, caller, caller.UserID); err != nil {
		return nil, err
	}
	if beerID == "" {
		return nil, validationf("beerId is required")
	}
	if qty < 1 {
		return nil, validationf("quantity must be at least 1")
	}

	return s.mutate(ctx, caller.UserID, true, func(ctx context.Context, tx store.Tx, cart *models.Cart) error {
		beer, err := loadBeer(ctx, tx, beerID)
		if err != nil {
			return err
		}

		line, exists := cart.ItemForBeer(beerID)
		want := qty
		if exists {
			want += line.Quantity
		}
		if !beer.InStock(want) {
			return insufficient(beer, want)
		}

		if exists {
			line.Quantity = want
			return nil
		}
		cart.Items = append(cart.Items, models.CartItem{
			ID:        uuid.NewString(),
			CartID:    cart.ID,
			BeerID:    beer.ID,
			Name:      beer.Name,
			Quantity:  qty,
			UnitPrice: beer.Price,
			AddedAt:   s.now(),
		})
		return nil
	})
}

// UpdateItem sets the quantity of one cart line.
func (s *CartService) UpdateItem(ctx context.Context, caller models.Identity, itemID string, qty int) (*models.Cart, error) {
	if err := Authorize(OpMutateCart, caller, caller.UserID); err != nil {
		return nil, err
	}
	if qty < 1 {
		return nil, validationf("quantity must be at least 1")
	}

	return s.mutate(ctx, caller.UserID, false, func(ctx context.Context, tx store.Tx, cart *models.Cart) error {
		line, ok := cart.Item(itemID)
		if !ok {
			return fmt.Errorf("cart item %s %w", itemID, ErrNotFound)
		}
		beer, err := loadBeer(ctx, tx, line.BeerID)
		if err != nil {
			return err
		}
		if !beer.InStock(qty) {
			return insufficient(beer, qty)
		}
		line.Quantity = qty
		return nil
	})
}

// RemoveItem drops one cart line.
func (s *CartService) RemoveItem(ctx context.Context, caller models.Identity, itemID string) (*models.Cart, error) {
	if err := Authorize(OpMutateCart, caller, caller.UserID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, caller.UserID, false, func(ctx context.Context, tx store.Tx, cart *models.Cart) error {
		if !cart.RemoveItem(itemID) {
			return fmt.Errorf("cart item %s %w", itemID, ErrNotFound)
		}
		return nil
	})
}

// Clear empties the caller's cart.
func (s *CartService) Clear(ctx context.Context, caller models.Identity) (*models.Cart, error) {
	if err := Authorize(OpMutateCart, caller, caller.UserID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, caller.UserID, true, func(ctx context.Context, tx store.Tx, cart *models.Cart) error {
		cart.Clear()
		return nil
	})
}

// mutate loads the cart, applies change, re-prices every line from the live
// catalog and saves, all in one transaction.
func (s *CartService) mutate(ctx context.Context, userID string, createMissing bool,
	change func(ctx context.Context, tx store.Tx, cart *models.Cart) error) (*models.Cart, error) {
	var result *models.Cart
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var (
			cart *models.Cart
			err  error
		)
		if createMissing {
			cart, _, err = s.cartFor(ctx, tx, userID)
		} else {
			cart, err = tx.Cart(ctx, userID)
			err = translate(err, "cart")
		}
		if err != nil {
			return err
		}

		if err := change(ctx, tx, cart); err != nil {
			return err
		}
		if err := reprice(ctx, tx, cart); err != nil {
			return err
		}
		if err := tx.SaveCart(ctx, cart); err != nil {
			return err
		}
		result = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// cartFor returns the user's cart or a new unsaved one.
func (s *CartService) cartFor(ctx context.Context, tx store.Tx, userID string) (*models.Cart, bool, error) {
	cart, err := tx.Cart(ctx, userID)
	if err == nil {
		return cart, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}
	cart = &models.Cart{
		ID:     uuid.NewString(),
		UserID: userID,
	}
	cart.Clear()
	return cart, true, nil
}

// reprice refreshes each line's unit price and recomputes the total.
func reprice(ctx context.Context, tx store.Tx, cart *models.Cart) error {
	for i := range cart.Items {
		beer, err := tx.Beer(ctx, cart.Items[i].BeerID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		cart.Items[i].UnitPrice = beer.Price
		cart.Items[i].Name = beer.Name
	}
	cart.Recalculate()
	return nil
}
