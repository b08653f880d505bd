// Package memstore is an in-process Store used for local runs and tests.
// A transaction works on a private copy of the data which replaces the
// shared state only when the callback succeeds.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dema10/beerproject/models"
	"github.com/Dema10/beerproject/store"
)

type state struct {
	beers      map[string]models.Beer
	carts      map[string]models.Cart // keyed by user id
	orders     map[string]models.Order
	userOrders map[string][]string
}

func newState() *state {
	return &state{
		beers:      make(map[string]models.Beer),
		carts:      make(map[string]models.Cart),
		orders:     make(map[string]models.Order),
		userOrders: make(map[string][]string),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.beers {
		c.beers[k] = v
	}
	for k, v := range s.carts {
		c.carts[k] = copyCart(v)
	}
	for k, v := range s.orders {
		c.orders[k] = copyOrder(v)
	}
	for k, v := range s.userOrders {
		c.userOrders[k] = append([]string(nil), v...)
	}
	return c
}

type Store struct {
	mu    sync.Mutex
	state *state
}

func New() *Store {
	return &Store{state: newState()}
}

// WithTx serializes transactions behind a single lock.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(ctx, &tx{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

type tx struct {
	st *state
}

func (t *tx) Beer(_ context.Context, id string) (*models.Beer, error) {
	b, ok := t.st.beers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

func (t *tx) ListBeers(_ context.Context, inProductionOnly bool, page store.Page) ([]models.Beer, int64, error) {
	var all []models.Beer
	for _, b := range t.st.beers {
		if inProductionOnly && !b.InProduction {
			continue
		}
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name == all[j].Name {
			return all[i].ID < all[j].ID
		}
		return all[i].Name < all[j].Name
	})
	return paginate(all, page), int64(len(all)), nil
}

func (t *tx) SaveBeer(_ context.Context, beer *models.Beer) error {
	now := time.Now()
	if existing, ok := t.st.beers[beer.ID]; ok {
		beer.CreatedAt = existing.CreatedAt
	} else if beer.CreatedAt.IsZero() {
		beer.CreatedAt = now
	}
	beer.UpdatedAt = now
	t.st.beers[beer.ID] = *beer
	return nil
}

func (t *tx) AdjustBeerQuantity(_ context.Context, id string, delta int) error {
	b, ok := t.st.beers[id]
	if !ok {
		return store.ErrNotFound
	}
	if b.Quantity+delta < 0 {
		return store.ErrStockConflict
	}
	b.Quantity += delta
	b.UpdatedAt = time.Now()
	t.st.beers[id] = b
	return nil
}

func (t *tx) Cart(_ context.Context, userID string) (*models.Cart, error) {
	c, ok := t.st.carts[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	c = copyCart(c)
	return &c, nil
}

func (t *tx) SaveCart(_ context.Context, cart *models.Cart) error {
	now := time.Now()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	for i := range cart.Items {
		cart.Items[i].CartID = cart.ID
	}
	t.st.carts[cart.UserID] = copyCart(*cart)
	return nil
}

func (t *tx) CreateOrder(_ context.Context, order *models.Order) error {
	if _, exists := t.st.orders[order.ID]; exists {
		return store.ErrDuplicate
	}
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = order.CreatedAt
	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID
	}
	t.st.orders[order.ID] = copyOrder(*order)
	return nil
}

func (t *tx) Order(_ context.Context, id string) (*models.Order, error) {
	o, ok := t.st.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	o = copyOrder(o)
	return &o, nil
}

// OrderForUpdate is Order; the store lock already serializes transactions.
func (t *tx) OrderForUpdate(ctx context.Context, id string) (*models.Order, error) {
	return t.Order(ctx, id)
}

func (t *tx) ListOrders(_ context.Context, filter store.OrderFilter, page store.Page) ([]models.Order, int64, error) {
	var all []models.Order
	for _, o := range t.st.orders {
		if filter.UserID != "" && o.UserID != filter.UserID {
			continue
		}
		all = append(all, copyOrder(o))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return paginate(all, page), int64(len(all)), nil
}

func (t *tx) SetOrderStatus(_ context.Context, id string, status models.OrderStatus) error {
	o, ok := t.st.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	t.st.orders[id] = o
	return nil
}

func (t *tx) DeleteOrder(_ context.Context, id string) error {
	if _, ok := t.st.orders[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.st.orders, id)
	return nil
}

func (t *tx) AppendUserOrder(_ context.Context, userID, orderID string) error {
	t.st.userOrders[userID] = append(t.st.userOrders[userID], orderID)
	return nil
}

func (t *tx) RemoveUserOrder(_ context.Context, userID, orderID string) error {
	ids := t.st.userOrders[userID]
	kept := ids[:0:0]
	for _, id := range ids {
		if id != orderID {
			kept = append(kept, id)
		}
	}
	t.st.userOrders[userID] = kept
	return nil
}

func (t *tx) UserOrders(_ context.Context, userID string) ([]string, error) {
	return append([]string{}, t.st.userOrders[userID]...), nil
}

func paginate[T any](all []T, page store.Page) []T {
	page = page.Normalize()
	start := page.Offset()
	if start >= len(all) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

func copyCart(c models.Cart) models.Cart {
	c.Items = append([]models.CartItem{}, c.Items...)
	return c
}

func copyOrder(o models.Order) models.Order {
	o.Lines = append([]models.OrderLine{}, o.Lines...)
	return o
}
