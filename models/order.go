package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // Order placed, stock already taken
	OrderStatusProcessing OrderStatus = "processing" // Being prepared by staff
	OrderStatusShipped    OrderStatus = "shipped"    // Out for delivery
	OrderStatusDelivered  OrderStatus = "delivered"  // Customer received the order
)

var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusProcessing: 1,
	OrderStatusShipped:    2,
	OrderStatusDelivered:  3,
}

var ErrUnknownStatus = errors.New("invalid order status")

// ParseOrderStatus maps a client string to an OrderStatus.
func ParseOrderStatus(status string) (OrderStatus, error) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if _, ok := orderStatusRank[s]; !ok {
		return "", ErrUnknownStatus
	}
	return s, nil
}

// CanAdvanceTo reports whether next is strictly later in the lifecycle.
func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	from, ok := orderStatusRank[s]
	if !ok {
		return false
	}
	to, ok := orderStatusRank[next]
	if !ok {
		return false
	}
	return to > from
}

func (s OrderStatus) Final() bool {
	return s == OrderStatusDelivered
}

type Order struct {
	ID         string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Ref        string          `gorm:"uniqueIndex;type:varchar(64)" json:"ref"`
	UserID     string          `gorm:"index;type:varchar(64);not null" json:"user"`
	Lines      []OrderLine     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"beers"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalPrice"`
	Status     OrderStatus     `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	CreatedAt  time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// OrderLine captures the price at purchase time; it never follows later catalog changes.
type OrderLine struct {
	ID        string          `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	OrderID   string          `gorm:"index;type:varchar(36)" json:"-"`
	BeerID    string          `gorm:"type:varchar(36);not null" json:"beer"`
	Name      string          `json:"name"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LinesTotal sums the line subtotals.
func (o *Order) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// UserOrder is one entry of a user's order history.
type UserOrder struct {
	UserID    string    `gorm:"primaryKey;type:varchar(64)" json:"user"`
	OrderID   string    `gorm:"primaryKey;type:varchar(36)" json:"order"`
	CreatedAt time.Time `json:"createdAt"`
}
