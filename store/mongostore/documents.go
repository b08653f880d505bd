package mongostore

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Dema10/beerproject/models"
)

// Money is stored as Decimal128 so prices keep their exact value.

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("mongostore: price %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

type beerDoc struct {
	ID           string               `bson:"_id"`
	Name         string               `bson:"name"`
	Style        string               `bson:"style"`
	ABV          float64              `bson:"abv"`
	Description  string               `bson:"description"`
	Image        string               `bson:"image,omitempty"`
	Price        primitive.Decimal128 `bson:"price"`
	Quantity     int                  `bson:"quantity"`
	InProduction bool                 `bson:"inProduction"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
}

func newBeerDoc(b models.Beer) (beerDoc, error) {
	price, err := toDecimal128(b.Price)
	if err != nil {
		return beerDoc{}, err
	}
	return beerDoc{
		ID:           b.ID,
		Name:         b.Name,
		Style:        b.Style,
		ABV:          b.ABV,
		Description:  b.Description,
		Image:        b.Image,
		Price:        price,
		Quantity:     b.Quantity,
		InProduction: b.InProduction,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}, nil
}

func (d beerDoc) model() models.Beer {
	return models.Beer{
		ID:           d.ID,
		Name:         d.Name,
		Style:        d.Style,
		ABV:          d.ABV,
		Description:  d.Description,
		Image:        d.Image,
		Price:        fromDecimal128(d.Price),
		Quantity:     d.Quantity,
		InProduction: d.InProduction,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type cartItemDoc struct {
	ID        string               `bson:"_id"`
	BeerID    string               `bson:"beer"`
	Name      string               `bson:"name"`
	Quantity  int                  `bson:"quantity"`
	UnitPrice primitive.Decimal128 `bson:"unitPrice"`
	AddedAt   time.Time            `bson:"addedAt"`
}

type cartDoc struct {
	ID         string               `bson:"_id"`
	UserID     string               `bson:"user"`
	Items      []cartItemDoc        `bson:"items"`
	TotalPrice primitive.Decimal128 `bson:"totalPrice"`
	CreatedAt  time.Time            `bson:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt"`
}

func newCartDoc(c models.Cart) (cartDoc, error) {
	total, err := toDecimal128(c.TotalPrice)
	if err != nil {
		return cartDoc{}, err
	}
	items := make([]cartItemDoc, 0, len(c.Items))
	for _, it := range c.Items {
		price, err := toDecimal128(it.UnitPrice)
		if err != nil {
			return cartDoc{}, err
		}
		items = append(items, cartItemDoc{
			ID:        it.ID,
			BeerID:    it.BeerID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: price,
			AddedAt:   it.AddedAt,
		})
	}
	return cartDoc{
		ID:         c.ID,
		UserID:     c.UserID,
		Items:      items,
		TotalPrice: total,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}, nil
}

func (d cartDoc) model() models.Cart {
	items := make([]models.CartItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, models.CartItem{
			ID:        it.ID,
			CartID:    d.ID,
			BeerID:    it.BeerID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: fromDecimal128(it.UnitPrice),
			AddedAt:   it.AddedAt,
		})
	}
	return models.Cart{
		ID:         d.ID,
		UserID:     d.UserID,
		Items:      items,
		TotalPrice: fromDecimal128(d.TotalPrice),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

type orderLineDoc struct {
	ID        string               `bson:"_id"`
	BeerID    string               `bson:"beer"`
	Name      string               `bson:"name"`
	Quantity  int                  `bson:"quantity"`
	UnitPrice primitive.Decimal128 `bson:"price"`
}

type orderDoc struct {
	ID         string               `bson:"_id"`
	Ref        string               `bson:"ref"`
	UserID     string               `bson:"user"`
	Lines      []orderLineDoc       `bson:"beers"`
	TotalPrice primitive.Decimal128 `bson:"totalPrice"`
	Status     string               `bson:"status"`
	CreatedAt  time.Time            `bson:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt"`
}

func newOrderDoc(o models.Order) (orderDoc, error) {
	total, err := toDecimal128(o.TotalPrice)
	if err != nil {
		return orderDoc{}, err
	}
	lines := make([]orderLineDoc, 0, len(o.Lines))
	for _, l := range o.Lines {
		price, err := toDecimal128(l.UnitPrice)
		if err != nil {
			return orderDoc{}, err
		}
		lines = append(lines, orderLineDoc{
			ID:        l.ID,
			BeerID:    l.BeerID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: price,
		})
	}
	return orderDoc{
		ID:         o.ID,
		Ref:        o.Ref,
		UserID:     o.UserID,
		Lines:      lines,
		TotalPrice: total,
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}, nil
}

func (d orderDoc) model() models.Order {
	lines := make([]models.OrderLine, 0, len(d.Lines))
	for _, l := range d.Lines {
		lines = append(lines, models.OrderLine{
			ID:        l.ID,
			OrderID:   d.ID,
			BeerID:    l.BeerID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: fromDecimal128(l.UnitPrice),
		})
	}
	return models.Order{
		ID:         d.ID,
		Ref:        d.Ref,
		UserID:     d.UserID,
		Lines:      lines,
		TotalPrice: fromDecimal128(d.TotalPrice),
		Status:     models.OrderStatus(d.Status),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

type userDoc struct {
	ID     string   `bson:"_id"`
	Orders []string `bson:"orders"`
}
