package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dema10/beerproject/models"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		op      Operation
		caller  models.Identity
		owner   string
		wantErr error
	}{
		{OpViewCart, nobody, "", ErrUnauthorized},
		{OpViewCart, alice, "alice", nil},
		{OpCheckout, alice, "alice", nil},
		{OpPlaceOrder, bob, "bob", nil},
		{OpListOwnOrders, bob, "bob", nil},

		{OpViewOrder, alice, "alice", nil},
		{OpViewOrder, bob, "alice", ErrForbidden},
		{OpCancelOrder, alice, "alice", nil},
		{OpCancelOrder, bob, "alice", ErrForbidden},

		{OpViewAnyCart, alice, "bob", ErrForbidden},
		{OpListAllOrders, alice, "", ErrForbidden},
		{OpAdvanceOrder, alice, "alice", ErrForbidden},
		{OpWatchOrders, alice, "", ErrForbidden},
		{OpManageCatalog, alice, "", ErrForbidden},

		{OpViewAnyCart, admin, "bob", nil},
		{OpCancelOrder, admin, "alice", nil},
		{OpAdvanceOrder, admin, "alice", nil},
		{OpManageCatalog, admin, "", nil},
	}

	for _, tt := range tests {
		name := string(tt.op) + "/" + tt.caller.UserID
		t.Run(name, func(t *testing.T) {
			err := Authorize(tt.op, tt.caller, tt.owner)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthorizeUnknownRoleIsNotAdmin(t *testing.T) {
	caller := models.Identity{UserID: "mallory", Role: "superuser"}
	assert.ErrorIs(t, Authorize(OpListAllOrders, caller, ""), ErrForbidden)
}
