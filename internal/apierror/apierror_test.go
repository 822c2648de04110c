package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_IsMatchesKindOnly(t *testing.T) {
	err := NotFound("pen %s not found", "P-01")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "pen P-01 not found", err.Error())
}

func TestAppError_IsSurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("register mortality: %w", InsufficientQuantity("lot has 2 animals"))

	assert.True(t, errors.Is(wrapped, ErrInsufficientQuantity))
	assert.Equal(t, http.StatusBadRequest, StatusOf(wrapped))
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{InvalidQuantity("x"), http.StatusBadRequest},
		{InsufficientCapacity("x"), http.StatusBadRequest},
		{Conflict("x"), http.StatusConflict},
		{Unavailable("x"), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusOf(tc.err), tc.err.Error())
	}
}
