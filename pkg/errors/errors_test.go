package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"not found", NotFound("appointment", nil), http.StatusNotFound},
		{"invalid input", InvalidInput("bad date", nil), http.StatusBadRequest},
		{"conflict maps to 400", Conflict("slot already booked", nil), http.StatusBadRequest},
		{"unauthorized", Unauthorized("", nil), http.StatusUnauthorized},
		{"forbidden", Forbidden("", nil), http.StatusForbidden},
		{"too many requests", TooManyRequests("", nil), http.StatusTooManyRequests},
		{"internal", Internal(fmt.Errorf("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	err := NotFound("doctor", nil)
	assert.Equal(t, "doctor not found", err.Message)
}

func TestErrorWrapping(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Internal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", Conflict("slot already booked", nil))

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrConflict, appErr.Code)

	_, ok = As(fmt.Errorf("plain error"))
	assert.False(t, ok)
}

func TestIsCode(t *testing.T) {
	err := Forbidden("access denied", nil)

	assert.True(t, IsCode(err, ErrForbidden))
	assert.False(t, IsCode(err, ErrConflict))
	assert.False(t, IsCode(nil, ErrConflict))
}
