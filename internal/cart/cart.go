package cart

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/peykantravel/peykan-storefront/pkg/enums"
	pkgerrors "github.com/peykantravel/peykan-storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

// Cart is the in-memory aggregate for one session. Items keep their
// insertion order. Totals are always derived, never stored ahead of
// the items they summarize.
type Cart struct {
	SessionID string         `json:"session_id"`
	Currency  enums.Currency `json:"currency"`
	Items     []Item         `json:"items"`
}

// NewCart builds an empty cart for a session.
func NewCart(sessionID string, currency enums.Currency) *Cart {
	return &Cart{
		SessionID: sessionID,
		Currency:  currency,
		Items:     nil,
	}
}

// Subtotal sums every line's subtotal.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Total equals Subtotal; fees and discounts are applied by the backend
// at order time, not in the cart.
func (c *Cart) Total() decimal.Decimal {
	return c.Subtotal()
}

// TotalItems sums each line's unit count (participants, seats or
// quantity depending on kind).
func (c *Cart) TotalItems() int {
	count := 0
	for _, item := range c.Items {
		count += item.UnitCount()
	}
	return count
}

// AddItem validates the item and either merges it into an existing
// line with the same domain identity or appends it. Mixed currencies
// are rejected.
func (c *Cart) AddItem(item Item) (*Item, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if item.Currency != "" && item.Currency != c.Currency {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("cart currency is %s, item is priced in %s", c.Currency, item.Currency))
	}
	if item.Currency == "" {
		item.Currency = c.Currency
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	key := item.IdentityKey()
	for idx := range c.Items {
		if c.Items[idx].IdentityKey() == key {
			c.Items[idx].merge(item)
			return &c.Items[idx], nil
		}
	}

	c.Items = append(c.Items, item)
	return &c.Items[len(c.Items)-1], nil
}

// RemoveItem deletes the line with the given id. Removing a missing id
// is a no-op.
func (c *Cart) RemoveItem(itemID string) {
	for idx, item := range c.Items {
		if item.ID == itemID {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			return
		}
	}
}

// UpdateQuantity sets a line's quantity. Zero removes the line;
// negative values are rejected. Updating a missing id returns
// NOT_FOUND.
func (c *Cart) UpdateQuantity(itemID string, quantity int) error {
	if quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must not be negative")
	}
	if quantity == 0 {
		c.RemoveItem(itemID)
		return nil
	}
	for idx := range c.Items {
		if c.Items[idx].ID == itemID {
			c.Items[idx].Quantity = quantity
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
}

// Clear drops every line.
func (c *Cart) Clear() {
	c.Items = nil
}

// FindItem returns the line with the given id.
func (c *Cart) FindItem(itemID string) (*Item, bool) {
	for idx := range c.Items {
		if c.Items[idx].ID == itemID {
			return &c.Items[idx], true
		}
	}
	return nil, false
}
