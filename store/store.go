// Package store is the persistence port of the shop. Every read and write of
// carts, orders, inventory and order history goes through a Tx obtained from
// Store.WithTx, so a workflow either commits all of its effects or none.
package store

import (
	"context"
	"errors"

	"github.com/Dema10/beerproject/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrStockConflict is returned by AdjustBeerQuantity when the change
	// would take the quantity below zero.
	ErrStockConflict = errors.New("stock would go negative")
	ErrDuplicate     = errors.New("record already exists")
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type Page struct {
	Page  int
	Limit int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

type OrderFilter struct {
	UserID string // empty means every user
}

// Tx is the set of operations available inside one transaction.
// Values returned are copies; changes only persist through the Save/Set methods.
type Tx interface {
	// Beer loads an inventory record, locking it for the rest of the
	// transaction where the driver supports row locks.
	Beer(ctx context.Context, id string) (*models.Beer, error)
	ListBeers(ctx context.Context, inProductionOnly bool, page Page) ([]models.Beer, int64, error)
	SaveBeer(ctx context.Context, beer *models.Beer) error
	// AdjustBeerQuantity adds delta to the stored quantity, refusing to go below zero.
	AdjustBeerQuantity(ctx context.Context, id string, delta int) error

	Cart(ctx context.Context, userID string) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error

	CreateOrder(ctx context.Context, order *models.Order) error
	Order(ctx context.Context, id string) (*models.Order, error)
	// OrderForUpdate is Order plus a row lock held until the transaction ends.
	OrderForUpdate(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter, page Page) ([]models.Order, int64, error)
	SetOrderStatus(ctx context.Context, id string, status models.OrderStatus) error
	DeleteOrder(ctx context.Context, id string) error

	AppendUserOrder(ctx context.Context, userID, orderID string) error
	RemoveUserOrder(ctx context.Context, userID, orderID string) error
	UserOrders(ctx context.Context, userID string) ([]string, error)
}

// Store runs transactions. fn must only use the ctx it is given.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}
