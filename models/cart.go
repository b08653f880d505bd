package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID         string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID     string          `gorm:"uniqueIndex;type:varchar(64);not null" json:"user"` // Enforces ONE cart per user
	Items      []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalPrice"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

type CartItem struct {
	ID        string          `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	CartID    string          `gorm:"index;type:varchar(36)" json:"-"`
	BeerID    string          `gorm:"type:varchar(36);not null" json:"beer"`
	Name      string          `json:"name"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unitPrice"`
	AddedAt   time.Time       `json:"addedAt"`
}

// Subtotal is the line contribution to the cart total.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Item returns the line with the given cart-item id.
func (c *Cart) Item(id string) (*CartItem, bool) {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i], true
		}
	}
	return nil, false
}

// ItemForBeer returns the line holding beerID, if any.
func (c *Cart) ItemForBeer(beerID string) (*CartItem, bool) {
	for i := range c.Items {
		if c.Items[i].BeerID == beerID {
			return &c.Items[i], true
		}
	}
	return nil, false
}

// RemoveItem drops the line with the given id and reports whether it existed.
func (c *Cart) RemoveItem(id string) bool {
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Recalculate sets TotalPrice from the lines. Every mutation ends with it.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	c.TotalPrice = total
}

// Clear empties the cart without deleting it.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.TotalPrice = decimal.Zero
}

func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}
