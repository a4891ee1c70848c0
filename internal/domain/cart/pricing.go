// internal/domain/cart/pricing.go
package cart

import (
	"github.com/shopcore/ecommerce-backend/internal/pkg/money"
)

// Recalculate derives the totals from the lines and the applied discount.
// Every mutation calls it, so TotalPrice is always the sum of the lines.
func (c *Cart) Recalculate() {
	var total int64
	for _, item := range c.Items {
		total += int64(item.Quantity) * item.Price
	}
	c.TotalPrice = total

	if c.Discount > 0 {
		after := money.ApplyDiscount(total, c.Discount)
		c.TotalPriceAfterDiscount = &after
	} else {
		c.TotalPriceAfterDiscount = nil
	}
}

// AmountDue is what checkout charges
func (c *Cart) AmountDue() int64 {
	if c.TotalPriceAfterDiscount != nil {
		return *c.TotalPriceAfterDiscount
	}
	return c.TotalPrice
}

// Line returns the line for productID
func (c *Cart) Line(productID uint) (*Item, bool) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i], true
		}
	}
	return nil, false
}

// Remove drops the line for productID; absent products are ignored
func (c *Cart) Remove(productID uint) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	c.Items = kept
}

// ApplyDiscount records the coupon on the cart and reprices it
func (c *Cart) ApplyDiscount(code string, percent int) {
	c.CouponCode = code
	c.Discount = percent
	c.Recalculate()
}
