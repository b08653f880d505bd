package workflow

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Dema10/beerproject/models"
	"github.com/Dema10/beerproject/store"
)

// BeerInput is the admin payload for creating a beer.
type BeerInput struct {
	Name         string          `json:"name" binding:"required"`
	Style        string          `json:"style"`
	ABV          float64         `json:"abv"`
	Description  string          `json:"description"`
	Image        string          `json:"image"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	InProduction *bool           `json:"inProduction"`
}

// StockUpdate changes any of the given fields; nil fields are left alone.
type StockUpdate struct {
	Quantity     *int             `json:"quantity"`
	Price        *decimal.Decimal `json:"price"`
	InProduction *bool            `json:"inProduction"`
}

type BeerPage struct {
	Beers       []models.Beer `json:"beers"`
	CurrentPage int           `json:"currentPage"`
	TotalPages  int           `json:"totalPages"`
	TotalBeers  int64         `json:"totalBeers"`
}

// ImportResult counts what an inventory import did with each row.
type ImportResult struct {
	Created int `json:"created_count"`
	Updated int `json:"updated_count"`
	Skipped int `json:"skipped_count"`
}

// CatalogService manages the beers that carts and orders draw from.
type CatalogService struct {
	store store.Store
}

func NewCatalogService(st store.Store) *CatalogService {
	return &CatalogService{store: st}
}

// List returns beers in production, by name.
func (s *CatalogService) List(ctx context.Context, page store.Page) (BeerPage, error) {
	page = page.Normalize()
	var result BeerPage
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		beers, total, err := tx.ListBeers(ctx, true, page)
		if err != nil {
			return err
		}
		if beers == nil {
			beers = []models.Beer{}
		}
		result = BeerPage{
			Beers:       beers,
			CurrentPage: page.Page,
			TotalPages:  int((total + int64(page.Limit) - 1) / int64(page.Limit)),
			TotalBeers:  total,
		}
		return nil
	})
	return result, err
}

func (s *CatalogService) Get(ctx context.Context, id string) (*models.Beer, error) {
	var beer *models.Beer
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		beer, err = loadBeer(ctx, tx, id)
		return err
	})
	return beer, err
}

func (s *CatalogService) Create(ctx context.Context, caller models.Identity, in BeerInput) (*models.Beer, error) {
	if err := Authorize(OpManageCatalog, caller, ""); err != nil {
		return nil, err
	}
	beer := models.Beer{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Style:        in.Style,
		ABV:          in.ABV,
		Description:  in.Description,
		Image:        in.Image,
		Price:        in.Price,
		Quantity:     in.Quantity,
		InProduction: true,
	}
	if in.InProduction != nil {
		beer.InProduction = *in.InProduction
	}
	if err := checkBeer(beer); err != nil {
		return nil, err
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.SaveBeer(ctx, &beer)
	})
	if err != nil {
		return nil, err
	}
	return &beer, nil
}

// UpdateStock sets the quantity, price or production flag of one beer.
func (s *CatalogService) UpdateStock(ctx context.Context, caller models.Identity, id string, upd StockUpdate) (*models.Beer, error) {
	if err := Authorize(OpManageCatalog, caller, ""); err != nil {
		return nil, err
	}
	if upd.Quantity == nil && upd.Price == nil && upd.InProduction == nil {
		return nil, validationf("nothing to update")
	}

	var beer *models.Beer
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		b, err := loadBeer(ctx, tx, id)
		if err != nil {
			return err
		}
		if upd.Quantity != nil {
			b.Quantity = *upd.Quantity
		}
		if upd.Price != nil {
			b.Price = *upd.Price
		}
		if upd.InProduction != nil {
			b.InProduction = *upd.InProduction
		}
		if err := checkBeer(*b); err != nil {
			return err
		}
		if err := tx.SaveBeer(ctx, b); err != nil {
			return err
		}
		beer = b
		return nil
	})
	return beer, err
}

// Export returns every beer, in production or not, for the inventory sheet.
func (s *CatalogService) Export(ctx context.Context, caller models.Identity) ([]models.Beer, error) {
	if err := Authorize(OpManageCatalog, caller, ""); err != nil {
		return nil, err
	}
	var all []models.Beer
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		for page := (store.Page{Page: 1, Limit: store.MaxPageLimit}); ; page.Page++ {
			beers, total, err := tx.ListBeers(ctx, false, page)
			if err != nil {
				return err
			}
			all = append(all, beers...)
			if len(beers) == 0 || int64(len(all)) >= total {
				return nil
			}
		}
	})
	return all, err
}

// Import upserts beers read from an inventory sheet. Rows with an id update
// that beer (or create it under that id); rows without one create a new beer.
// Invalid rows are skipped and counted, the rest commit together.
func (s *CatalogService) Import(ctx context.Context, caller models.Identity, rows []models.Beer) (ImportResult, error) {
	if err := Authorize(OpManageCatalog, caller, ""); err != nil {
		return ImportResult{}, err
	}
	var result ImportResult
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		result = ImportResult{}
		for _, row := range rows {
			row.Name = strings.TrimSpace(row.Name)
			if checkBeer(row) != nil {
				result.Skipped++
				continue
			}
			if row.ID == "" {
				row.ID = uuid.NewString()
				row.InProduction = true
				if err := tx.SaveBeer(ctx, &row); err != nil {
					return err
				}
				result.Created++
				continue
			}

			existing, err := tx.Beer(ctx, row.ID)
			switch {
			case errors.Is(err, store.ErrNotFound):
				row.InProduction = true
				if err := tx.SaveBeer(ctx, &row); err != nil {
					return err
				}
				result.Created++
			case err != nil:
				return err
			default:
				existing.Name = row.Name
				existing.Style = row.Style
				existing.ABV = row.ABV
				existing.Price = row.Price
				existing.Quantity = row.Quantity
				if err := tx.SaveBeer(ctx, existing); err != nil {
					return err
				}
				result.Updated++
			}
		}
		return nil
	})
	return result, err
}

func checkBeer(b models.Beer) error {
	switch {
	case b.Name == "":
		return validationf("name is required")
	case b.Price.IsNegative():
		return validationf("price must not be negative")
	case b.Quantity < 0:
		return validationf("quantity must not be negative")
	}
	return nil
}
