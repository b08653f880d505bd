// Package events fans order lifecycle notifications out to live dashboards
// and downstream consumers. Events are sent after the transaction commits.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/Dema10/beerproject/models"
)

type Type string

const (
	OrderCreated       Type = "order.created"
	OrderStatusChanged Type = "order.status_changed"
	OrderCancelled     Type = "order.cancelled"
)

type Event struct {
	Type    Type          `json:"type"`
	OrderID string        `json:"order_id"`
	UserID  string        `json:"user_id"`
	Status  string        `json:"status"`
	Order   *models.Order `json:"order,omitempty"`
	At      time.Time     `json:"at"`
}

// NewOrderEvent builds an event describing order.
func NewOrderEvent(t Type, order *models.Order) Event {
	return Event{
		Type:    t,
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  string(order.Status),
		Order:   order,
		At:      time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Multi publishes to every member and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
