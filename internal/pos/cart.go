// Package pos implements the point-of-sale flow: per-operator carts, cash
// register sessions, checkout orchestration and the asynchronous QRIS
// payment coordination.
package pos

import (
	"errors"
	"sync"
)

// ErrLineNotFound indicates a cart mutation referenced a missing line.
var ErrLineNotFound = errors.New("pos: cart line not found")

// CartItem is the sellable snapshot a cart line holds. The price is copied
// from the catalog at add time so a later price change does not shift an
// in-progress sale.
type CartItem struct {
	MenuID    int64  `json:"menu_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
}

// CartLine is one item plus quantity. Quantity never drops below 1; removal
// is always explicit.
type CartLine struct {
	Item     CartItem `json:"item"`
	Quantity int      `json:"quantity"`
}

// Total returns the line amount.
func (l CartLine) Total() int64 {
	return l.Item.UnitPrice * int64(l.Quantity)
}

// Cart holds the working lines of one operator's checkout. All methods are
// safe for concurrent use; the webhook-driven confirmation path reads the
// cart from a different goroutine than the operator's requests.
type Cart struct {
	mu    sync.Mutex
	lines []CartLine
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{}
}

// AddItem increments the quantity of an existing line for the same menu, or
// appends a new line with quantity 1.
func (c *Cart) AddItem(item CartItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].Item.MenuID == item.MenuID {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, CartLine{Item: item, Quantity: 1})
}

// ChangeQuantity adjusts a line by delta, clamping the result to a minimum
// of 1. Decrementing never removes the line; use RemoveItem for that.
func (c *Cart) ChangeQuantity(menuID int64, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].Item.MenuID == menuID {
			q := c.lines[i].Quantity + delta
			if q < 1 {
				q = 1
			}
			c.lines[i].Quantity = q
			return nil
		}
	}
	return ErrLineNotFound
}

// RemoveItem drops a line unconditionally.
func (c *Cart) RemoveItem(menuID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].Item.MenuID == menuID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

// Subtotal sums unit price times quantity over all lines. The POS applies no
// tax, so this is also the sale total.
func (c *Cart) Subtotal() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var sum int64
	for _, l := range c.lines {
		sum += l.Total()
	}
	return sum
}

// Lines returns a copy of the current lines in insertion order.
func (c *Cart) Lines() []CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len reports the number of lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Clear empties the cart after a finalized sale.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// CartStore keeps one live cart per operator terminal.
type CartStore struct {
	mu    sync.Mutex
	carts map[int64]*Cart
}

// NewCartStore returns an empty store.
func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[int64]*Cart)}
}

// CartFor returns the operator's cart, creating it on first use.
func (s *CartStore) CartFor(operatorID int64) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[operatorID]
	if !ok {
		cart = NewCart()
		s.carts[operatorID] = cart
	}
	return cart
}
