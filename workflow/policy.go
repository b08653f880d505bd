package workflow

import (
	"fmt"

	"github.com/Dema10/beerproject/models"
)

// Operation names an action guarded by Authorize.
type Operation string

const (
	OpViewCart      Operation = "cart.view"
	OpMutateCart    Operation = "cart.mutate"
	OpViewAnyCart   Operation = "cart.view_any"
	OpCheckout      Operation = "order.checkout"
	OpPlaceOrder    Operation = "order.place"
	OpViewOrder     Operation = "order.view"
	OpListOwnOrders Operation = "order.list_own"
	OpListAllOrders Operation = "order.list_all"
	OpAdvanceOrder  Operation = "order.advance"
	OpCancelOrder   Operation = "order.cancel"
	OpWatchOrders   Operation = "order.watch"
	OpManageCatalog Operation = "catalog.manage"
)

var adminOnly = map[Operation]bool{
	OpViewAnyCart:   true,
	OpListAllOrders: true,
	OpAdvanceOrder:  true,
	OpWatchOrders:   true,
	OpManageCatalog: true,
}

// ownerScoped operations need the caller to own the resource unless they are admin.
var ownerScoped = map[Operation]bool{
	OpViewOrder:   true,
	OpCancelOrder: true,
}

// Authorize is the single capability check for every workflow entry point.
// ownerID is the user owning the target resource and may be empty when the
// operation acts on the caller's own data.
func Authorize(op Operation, caller models.Identity, ownerID string) error {
	if caller.Anonymous() {
		return ErrUnauthorized
	}
	if caller.IsAdmin() {
		return nil
	}
	if adminOnly[op] {
		return fmt.Errorf("%w: %s requires admin role", ErrForbidden, op)
	}
	if ownerScoped[op] && ownerID != caller.UserID {
		return fmt.Errorf("%w: resource belongs to another user", ErrForbidden)
	}
	return nil
}
