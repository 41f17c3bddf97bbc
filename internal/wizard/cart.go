package wizard

import "strings"

// OrderItem is one selected service in the cart.
type OrderItem struct {
	ServiceID string  `json:"service_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Duration  int     `json:"duration"` // minutes
	Category  string  `json:"category,omitempty"`
	Quantity  int     `json:"quantity"`
}

// Cart is an ordered list of selected services. Methods never mutate the
// receiver; they return an updated copy so states can share carts safely.
type Cart struct {
	items []OrderItem
}

// NewCart builds a cart from items, merging duplicates and dropping invalid ones.
func NewCart(items ...OrderItem) Cart {
	var c Cart
	for _, it := range items {
		if next, err := c.Add(it); err == nil {
			c = next
		}
	}
	return c
}

// Items returns a copy of the cart contents.
func (c Cart) Items() []OrderItem {
	out := make([]OrderItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c Cart) Len() int { return len(c.items) }
func (c Cart) Empty() bool { return len(c.items) == 0 }

// Quantity returns how many of a service are in the cart.
func (c Cart) Quantity(serviceID string) int {
	if i := c.index(serviceID); i >= 0 {
		return c.items[i].Quantity
	}
	return 0
}

// TotalDuration is the sum of duration times quantity, in minutes.
func (c Cart) TotalDuration() int {
	total := 0
	for _, it := range c.items {
		total += it.Duration * it.Quantity
	}
	return total
}

// TotalPrice is the sum of price times quantity.
func (c Cart) TotalPrice() float64 {
	total := 0.0
	for _, it := range c.items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// Add appends an item, or bumps the quantity when the service is already in
// the cart. A zero quantity counts as one.
func (c Cart) Add(item OrderItem) (Cart, error) {
	item.ServiceID = strings.TrimSpace(item.ServiceID)
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if item.ServiceID == "" || item.Duration <= 0 || item.Quantity < 0 || item.Price < 0 {
		return c, ErrInvalidItem
	}
	items := c.Items()
	if i := c.index(item.ServiceID); i >= 0 {
		items[i].Quantity += item.Quantity
		return Cart{items: items}, nil
	}
	return Cart{items: append(items, item)}, nil
}

// Increment adds one to a service's quantity.
func (c Cart) Increment(serviceID string) (Cart, error) {
	return c.adjust(serviceID, 1)
}

// Decrement subtracts one from a service's quantity, removing it at zero.
func (c Cart) Decrement(serviceID string) (Cart, error) {
	return c.adjust(serviceID, -1)
}

// Remove drops a service from the cart.
func (c Cart) Remove(serviceID string) (Cart, error) {
	i := c.index(serviceID)
	if i < 0 {
		return c, ErrUnknownService
	}
	items := make([]OrderItem, 0, len(c.items)-1)
	items = append(items, c.items[:i]...)
	items = append(items, c.items[i+1:]...)
	return Cart{items: items}, nil
}

func (c Cart) adjust(serviceID string, delta int) (Cart, error) {
	i := c.index(serviceID)
	if i < 0 {
		return c, ErrUnknownService
	}
	if c.items[i].Quantity+delta <= 0 {
		return c.Remove(serviceID)
	}
	items := c.Items()
	items[i].Quantity += delta
	return Cart{items: items}, nil
}

func (c Cart) index(serviceID string) int {
	for i, it := range c.items {
		if it.ServiceID == serviceID {
			return i
		}
	}
	return -1
}
