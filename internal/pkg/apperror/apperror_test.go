package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NotFound("cart not found"), http.StatusNotFound},
		{Conflict("coupon has already been used"), http.StatusConflict},
		{InvalidState("order cannot be cancelled"), http.StatusBadRequest},
		{Validation("quantity exceeds stock"), http.StatusBadRequest},
		{Unauthorized("invalid token"), http.StatusUnauthorized},
		{Forbidden("admins only"), http.StatusForbidden},
		{Upstream("storage", errors.New("boom")), http.StatusBadGateway},
		{Upstream("payment", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("failed to apply coupon: %w", Conflict("coupon has already been used"))

	assert.True(t, Is(err, KindConflict))
	assert.Equal(t, "coupon has already been used", Message(err))
}

func TestMessageHidesInternalErrors(t *testing.T) {
	err := fmt.Errorf("failed to query: %w", errors.New("pq: relation does not exist"))

	assert.Equal(t, "Internal server error", Message(err))
	assert.Equal(t, KindTimeout, KindOf(fmt.Errorf("x: %w", context.DeadlineExceeded)))
}
