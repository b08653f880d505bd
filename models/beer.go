package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Beer is a sellable catalog entry and the inventory record for it.
// Quantity is the shared stock pool every cart and order draws from.
type Beer struct {
	ID           string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name         string          `gorm:"not null" json:"name"`
	Style        string          `json:"style"`
	ABV          float64         `json:"abv"`
	Description  string          `json:"description"`
	Image        string          `json:"image,omitempty"`
	Price        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Quantity     int             `gorm:"not null;default:0" json:"quantity"`
	InProduction bool            `gorm:"not null;default:true" json:"inProduction"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// InStock reports whether qty units can be taken from the pool right now.
func (b Beer) InStock(qty int) bool {
	return qty > 0 && b.Quantity >= qty
}
