package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Dema10/beerproject/events"
	"github.com/Dema10/beerproject/idempotency"
	"github.com/Dema10/beerproject/models"
	"github.com/Dema10/beerproject/store"
)

// LineRequest is one beer and quantity asked for by a client.
type LineRequest struct {
	BeerID   string `json:"beer" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

// CheckoutService turns carts (or explicit line lists) into orders.
type CheckoutService struct {
	store  store.Store
	events events.Publisher
	claims idempotency.Claimer
	log    *slog.Logger
	now    func() time.Time
}

// NewCheckoutService wires the service. claims may be nil to disable
// idempotency keys.
func NewCheckoutService(st store.Store, pub events.Publisher, claims idempotency.Claimer, log *slog.Logger) *CheckoutService {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &CheckoutService{store: st, events: pub, claims: claims, log: log, now: time.Now}
}

// Checkout converts the caller's cart into a pending order, takes the stock
// and clears the cart. Nothing changes unless every line can be served.
func (s *CheckoutService) Checkout(ctx context.Context, caller models.Identity, idemKey string) (*models.Order, error) {
	if err := Authorize(OpCheckout, caller, caller.UserID); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.once(ctx, "checkout:"+caller.UserID, idemKey, func() error {
		return s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			cart, err := tx.Cart(ctx, caller.UserID)
			if errors.Is(err, store.ErrNotFound) {
				return ErrEmptyCart
			}
			if err != nil {
				return err
			}
			if cart.Empty() {
				return ErrEmptyCart
			}

			lines := make([]LineRequest, 0, len(cart.Items))
			for _, item := range cart.Items {
				lines = append(lines, LineRequest{BeerID: item.BeerID, Quantity: item.Quantity})
			}
			order, err = s.place(ctx, tx, caller.UserID, lines)
			if err != nil {
				return err
			}

			cart.Clear()
			return tx.SaveCart(ctx, cart)
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewOrderEvent(events.OrderCreated, order))
	return order, nil
}

// PlaceOrder creates an order straight from lines, bypassing the cart.
// Lines naming the same beer are merged.
func (s *CheckoutService) PlaceOrder(ctx context.Context, caller models.Identity, lines []LineRequest, idemKey string) (*models.Order, error) {
	if err := Authorize(OpPlaceOrder, caller, caller.UserID); err != nil {
		return nil, err
	}
	merged, err := mergeLines(lines)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.once(ctx, "order:"+caller.UserID, idemKey, func() error {
		return s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			var err error
			order, err = s.place(ctx, tx, caller.UserID, merged)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewOrderEvent(events.OrderCreated, order))
	return order, nil
}

// place verifies every line against live stock before writing anything, then
// creates the order, takes the stock and records the order in the user's history.
func (s *CheckoutService) place(ctx context.Context, tx store.Tx, userID string, lines []LineRequest) (*models.Order, error) {
	beers := make([]*models.Beer, len(lines))
	for i, line := range lines {
		beer, err := loadBeer(ctx, tx, line.BeerID)
		if err != nil {
			return nil, err
		}
		if !beer.InStock(line.Quantity) {
			return nil, insufficient(beer, line.Quantity)
		}
		beers[i] = beer
	}

	now := s.now().UTC()
	order := &models.Order{
		ID:        uuid.NewString(),
		Ref:       generateOrderRef(now),
		UserID:    userID,
		Status:    models.OrderStatusPending,
		Lines:     make([]models.OrderLine, 0, len(lines)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, line := range lines {
		order.Lines = append(order.Lines, models.OrderLine{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			BeerID:    beers[i].ID,
			Name:      beers[i].Name,
			Quantity:  line.Quantity,
			UnitPrice: beers[i].Price,
		})
	}
	order.TotalPrice = order.LinesTotal()

	if err := tx.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	for i, line := range lines {
		if err := takeStock(ctx, tx, beers[i], line.Quantity); err != nil {
			return nil, err
		}
	}
	if err := tx.AppendUserOrder(ctx, userID, order.ID); err != nil {
		return nil, fmt.Errorf("record order history: %w", err)
	}
	return order, nil
}

// once claims the idempotency key (when both a key and a claimer exist) and
// releases it again if fn fails so the client can retry.
func (s *CheckoutService) once(ctx context.Context, scope, idemKey string, fn func() error) error {
	if idemKey == "" || s.claims == nil {
		return fn()
	}
	key := scope + ":" + idemKey
	ok, err := s.claims.Claim(ctx, key)
	if err != nil {
		return fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return ErrConflict
	}
	if err := fn(); err != nil {
		if relErr := s.claims.Release(context.WithoutCancel(ctx), key); relErr != nil {
			s.log.Error("release idempotency key", "key", key, "error", relErr)
		}
		return err
	}
	return nil
}

func (s *CheckoutService) publish(ctx context.Context, ev events.Event) {
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("publish order event", "type", ev.Type, "order_id", ev.OrderID, "error", err)
	}
}

func mergeLines(lines []LineRequest) ([]LineRequest, error) {
	if len(lines) == 0 {
		return nil, validationf("at least one beer is required")
	}
	index := make(map[string]int, len(lines))
	merged := make([]LineRequest, 0, len(lines))
	for _, l := range lines {
		if l.BeerID == "" {
			return nil, validationf("beer id is required")
		}
		if l.Quantity < 1 {
			return nil, validationf("quantity for %s must be at least 1", l.BeerID)
		}
		if i, ok := index[l.BeerID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.BeerID] = len(merged)
		merged = append(merged, l)
	}
	return merged, nil
}

// generateOrderRef builds a sortable human reference, e.g. 20250908130500-<uuid4>.
func generateOrderRef(t time.Time) string {
	return t.Format("20060102150405") + "-" + uuid.NewString()
}
