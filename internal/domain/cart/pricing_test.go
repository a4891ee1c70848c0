package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecalculate(t *testing.T) {
	c := &Cart{Items: []Item{{ProductID: 1, Quantity: 3, Price: 333}, {ProductID: 2, Quantity: 1, Price: 1}}}
	c.Recalculate()
	assert.Equal(t, int64(1000), c.TotalPrice)
	assert.Nil(t, c.TotalPriceAfterDiscount)
	assert.Equal(t, int64(1000), c.AmountDue())

	c.ApplyDiscount("save15", 15)
	assert.Equal(t, int64(1000), c.TotalPrice)
	assert.Equal(t, int64(850), *c.TotalPriceAfterDiscount)
}

func TestDiscountRoundsHalfAwayFromZero(t *testing.T) {
	c := &Cart{Items: []Item{{ProductID: 1, Quantity: 1, Price: 5}}}
	c.ApplyDiscount("x", 10)
	// 5 - 0.5 = 4.5
	assert.Equal(t, int64(5), *c.TotalPriceAfterDiscount)
}

func TestRemoveIsPull(t *testing.T) {
	c := &Cart{Items: []Item{{ProductID: 1, Quantity: 1, Price: 10}, {ProductID: 2, Quantity: 2, Price: 10}}}
	c.Remove(3)
	assert.Len(t, c.Items, 2)
	c.Remove(1)
	c.Recalculate()
	assert.Equal(t, int64(20), c.TotalPrice)
	_, ok := c.Line(1)
	assert.False(t, ok)
}
