package pos

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func riceBox() CartItem { return CartItem{MenuID: 1, Name: "Rice Box", UnitPrice: 25000} }
func iceTea() CartItem  { return CartItem{MenuID: 2, Name: "Tea", UnitPrice: 5000} }

func TestCartAddItemMergesSameMenu(t *testing.T) {
	cart := NewCart()
	cart.AddItem(riceBox())
	cart.AddItem(riceBox())
	cart.AddItem(iceTea())

	lines := cart.Lines()
	require.Len(t, lines, 2)
	require.Equal(t, 2, lines[0].Quantity)
	require.Equal(t, 1, lines[1].Quantity)
}

func TestCartQuantityNeverBelowOne(t *testing.T) {
	cart := NewCart()
	cart.AddItem(riceBox())
	cart.AddItem(riceBox())

	require.NoError(t, cart.ChangeQuantity(1, -10))
	lines := cart.Lines()
	require.Len(t, lines, 1, "decrement must clamp, not remove")
	require.Equal(t, 1, lines[0].Quantity)

	require.NoError(t, cart.ChangeQuantity(1, 3))
	require.Equal(t, 4, cart.Lines()[0].Quantity)
}

func TestCartRemoveIsExplicit(t *testing.T) {
	cart := NewCart()
	cart.AddItem(riceBox())
	cart.AddItem(iceTea())

	require.NoError(t, cart.RemoveItem(1))
	lines := cart.Lines()
	require.Len(t, lines, 1)
	require.Equal(t, int64(2), lines[0].Item.MenuID)

	require.ErrorIs(t, cart.RemoveItem(99), ErrLineNotFound)
	require.ErrorIs(t, cart.ChangeQuantity(99, 1), ErrLineNotFound)
}

func TestCartSubtotal(t *testing.T) {
	cart := NewCart()
	for i := 0; i < 3; i++ {
		cart.AddItem(riceBox())
	}
	cart.AddItem(iceTea())
	cart.AddItem(iceTea())

	// 3 x 25000 + 2 x 5000
	require.Equal(t, int64(85000), cart.Subtotal())

	cart.Clear()
	require.Zero(t, cart.Subtotal())
	require.Zero(t, cart.Len())
}

func TestCartStoreIsPerOperator(t *testing.T) {
	store := NewCartStore()
	store.CartFor(1).AddItem(riceBox())

	require.Equal(t, 1, store.CartFor(1).Len())
	require.Zero(t, store.CartFor(2).Len())
	require.Same(t, store.CartFor(1), store.CartFor(1))
}
