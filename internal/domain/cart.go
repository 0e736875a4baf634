package domain

import "github.com/shopspring/decimal"

type Variant struct {
	ID    int64  `json:"id"`
	Size  string `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
}

type CartProduct struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	MainImage string  `json:"main_image,omitempty"`
	Brand     any     `json:"brand,omitempty"`
	Category  any     `json:"category,omitempty"`
	Weight    *string `json:"weight,omitempty"`
}

type CartItem struct {
	ID             int64           `json:"id"`
	Product        CartProduct     `json:"product"`
	Variant        *Variant        `json:"variant,omitempty"`
	Quantity       int             `json:"quantity"`
	PriceWhenAdded decimal.Decimal `json:"price_when_added"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	PriceChanged   bool            `json:"price_changed"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// CartSummary is the aggregate the backend returns after a mutation.
type CartSummary struct {
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	ItemCount  int             `json:"item_count"`
}

type Cart struct {
	ID         int64           `json:"id,omitempty"`
	Items      []CartItem      `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	ItemCount  int             `json:"item_count"`
}

func EmptyCart() *Cart {
	return &Cart{Items: []CartItem{}}
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

func (c *Cart) Item(id int64) (*CartItem, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i], true
		}
	}
	return nil, false
}

// RemoveItem drops the line with the given id and reports whether it existed.
func (c *Cart) RemoveItem(id int64) bool {
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// ApplySummary overwrites the aggregates. item_count is only sent by some
// endpoints, so a zero value keeps the current one unless the cart is empty.
func (c *Cart) ApplySummary(s CartSummary) {
	c.TotalItems = s.TotalItems
	c.TotalPrice = s.TotalPrice
	switch {
	case s.ItemCount > 0:
		c.ItemCount = s.ItemCount
	case len(c.Items) == 0:
		c.ItemCount = 0
	}
}

// ComputedSubtotal is Σ quantity × price_when_added.
func (c *Cart) ComputedSubtotal() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, it := range c.Items {
		total = total.Add(it.PriceWhenAdded.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// BadgeCount is what the header shows when only the item list is known:
// each line counts its quantity, or 1 when the quantity is missing.
func (c *Cart) BadgeCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, it := range c.Items {
		if it.Quantity > 0 {
			n += it.Quantity
		} else {
			n++
		}
	}
	return n
}

// HeaderCount is the number mirrored into the session badge: the server's
// total_items, or BadgeCount when the server left it out.
func (c *Cart) HeaderCount() int {
	if c == nil {
		return 0
	}
	if c.TotalItems > 0 || len(c.Items) == 0 {
		return c.TotalItems
	}
	return c.BadgeCount()
}
