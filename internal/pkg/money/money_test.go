package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDiscount(t *testing.T) {
	tests := []struct {
		amount  int64
		percent int
		want    int64
	}{
		{80000, 10, 72000},
		{80000, 0, 80000},
		{80000, 100, 0},
		{999, 15, 849},  // 849.15
		{1001, 50, 501}, // 500.5 rounds away from zero
		{500, 150, 0},
		{500, -5, 500},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ApplyDiscount(tt.amount, tt.percent), "%d at %d%%", tt.amount, tt.percent)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "720.00", Format(72000))
	assert.Equal(t, "0.05", Format(5))
}
