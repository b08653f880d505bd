package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dema10/beerproject/events"
	"github.com/Dema10/beerproject/models"
	"github.com/Dema10/beerproject/store"
)

// OrderPage is one page of a newest-first order listing.
type OrderPage struct {
	Orders      []models.Order `json:"orders"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
	TotalOrders int64          `json:"totalOrders"`
	HasNextPage bool           `json:"hasNextPage"`
	HasPrevPage bool           `json:"hasPrevPage"`
}

func newOrderPage(orders []models.Order, total int64, page store.Page) OrderPage {
	page = page.Normalize()
	pages := int((total + int64(page.Limit) - 1) / int64(page.Limit))
	if orders == nil {
		orders = []models.Order{}
	}
	return OrderPage{
		Orders:      orders,
		CurrentPage: page.Page,
		TotalPages:  pages,
		TotalOrders: total,
		HasNextPage: int64(page.Page*page.Limit) < total,
		HasPrevPage: page.Page > 1,
	}
}

// OrderService governs the order lifecycle after creation.
type OrderService struct {
	store  store.Store
	events events.Publisher
	log    *slog.Logger
}

func NewOrderService(st store.Store, pub events.Publisher, log *slog.Logger) *OrderService {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &OrderService{store: st, events: pub, log: log}
}

// Get returns one order to its owner or an admin.
func (s *OrderService) Get(ctx context.Context, caller models.Identity, orderID string) (*models.Order, error) {
	if caller.Anonymous() {
		return nil, ErrUnauthorized
	}
	var order *models.Order
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		o, err := tx.Order(ctx, orderID)
		if err != nil {
			return translate(err, "order")
		}
		if err := Authorize(OpViewOrder, caller, o.UserID); err != nil {
			return err
		}
		order = o
		return nil
	})
	return order, err
}

// ListMine pages through the caller's orders.
func (s *OrderService) ListMine(ctx context.Context, caller models.Identity, page store.Page) (OrderPage, error) {
	if err := Authorize(OpListOwnOrders, caller, caller.UserID); err != nil {
		return OrderPage{}, err
	}
	return s.list(ctx, store.OrderFilter{UserID: caller.UserID}, page)
}

// ListAll pages through every order. Admin only.
func (s *OrderService) ListAll(ctx context.Context, caller models.Identity, page store.Page) (OrderPage, error) {
	if err := Authorize(OpListAllOrders, caller, ""); err != nil {
		return OrderPage{}, err
	}
	return s.list(ctx, store.OrderFilter{}, page)
}

func (s *OrderService) list(ctx context.Context, filter store.OrderFilter, page store.Page) (OrderPage, error) {
	page = page.Normalize()
	var result OrderPage
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		orders, total, err := tx.ListOrders(ctx, filter, page)
		if err != nil {
			return err
		}
		result = newOrderPage(orders, total, page)
		return nil
	})
	return result, err
}

// Advance moves an order forward in pending → processing → shipped → delivered.
// Stock was taken at checkout, so no transition touches inventory.
func (s *OrderService) Advance(ctx context.Context, caller models.Identity, orderID, status string) (*models.Order, error) {
	if err := Authorize(OpAdvanceOrder, caller, ""); err != nil {
		return nil, err
	}
	next, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, validationf("%s %q", err, status)
	}

	var order *models.Order
	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		o, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return translate(err, "order")
		}
		if !o.Status.CanAdvanceTo(next) {
			return fmt.Errorf("%w: cannot move order from %s to %s", ErrInvalidTransition, o.Status, next)
		}
		if err := tx.SetOrderStatus(ctx, o.ID, next); err != nil {
			return translate(err, "order")
		}
		o.Status = next
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewOrderEvent(events.OrderStatusChanged, order))
	return order, nil
}

// Cancel deletes an order. Owners may cancel only pending orders; admins may
// delete any order. Stock goes back only if the order is still pending when
// it is deleted, since later states keep the goods out of the pool.
func (s *OrderService) Cancel(ctx context.Context, caller models.Identity, orderID string) (*models.Order, error) {
	if caller.Anonymous() {
		return nil, ErrUnauthorized
	}

	var order *models.Order
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		o, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return translate(err, "order")
		}
		if err := Authorize(OpCancelOrder, caller, o.UserID); err != nil {
			return err
		}
		pending := o.Status == models.OrderStatusPending
		if !pending && !caller.IsAdmin() {
			return fmt.Errorf("%w: order is %s, only pending orders can be cancelled", ErrForbidden, o.Status)
		}

		if pending {
			if err := restoreStock(ctx, tx, o.Lines, s.log); err != nil {
				return err
			}
		}
		if err := tx.RemoveUserOrder(ctx, o.UserID, o.ID); err != nil {
			return fmt.Errorf("update order history: %w", err)
		}
		if err := tx.DeleteOrder(ctx, o.ID); err != nil {
			return translate(err, "order")
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewOrderEvent(events.OrderCancelled, order))
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, ev events.Event) {
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("publish order event", "type", ev.Type, "order_id", ev.OrderID, "error", err)
	}
}
