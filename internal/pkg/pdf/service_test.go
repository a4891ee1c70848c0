package pdf

import (
	"testing"
	"time"

	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTML(t *testing.T) {
	svc := NewService(config.CompanyConfig{Name: "Shopcore", Email: "support@example.com", Website: "https://shop.example.com"})

	html, err := svc.RenderHTML(Invoice{
		Number:        "ORD-12",
		IssuedAt:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		CustomerName:  "Mona Ali",
		CustomerEmail: "mona@example.com",
		ShipTo:        []string{"12 Nile St, Flat 4", "Cairo, Cairo 11511"},
		PaymentMethod: "cash",
		Currency:      "egp",
		Lines: []Line{
			{Title: "Red Shoes", Quantity: 2, UnitPrice: 12550},
		},
		Subtotal:    25100,
		DiscountPct: 10,
		Total:       22590,
	})
	require.NoError(t, err)

	assert.Contains(t, html, "Invoice #ORD-12")
	assert.Contains(t, html, "March 1, 2024")
	assert.Contains(t, html, "Red Shoes")
	assert.Contains(t, html, "125.50")
	assert.Contains(t, html, "251.00")
	assert.Contains(t, html, "225.90 EGP")
	assert.Contains(t, html, "10%")
	assert.Contains(t, html, "due on delivery")
	assert.Contains(t, html, "https://shop.example.com")
}

func TestRenderHTMLEscapesInput(t *testing.T) {
	svc := NewService(config.CompanyConfig{Name: "Shopcore"})

	html, err := svc.RenderHTML(Invoice{Lines: []Line{{Title: "<script>x</script>", Quantity: 1}}})
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>x</script>")
}
