package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOfWrappedChain(t *testing.T) {
	base := errors.New("row not found")
	wrapped := Wrap(base, CodeNotFound, "task lookup failed")
	outer := fmt.Errorf("handling request: %w", wrapped)

	assert.True(t, Is(outer, CodeNotFound))
	assert.True(t, errors.Is(outer, base))
	assert.Equal(t, CodeNotFound, CodeOf(outer))
}

func TestCodeOfForeignError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.False(t, Is(errors.New("boom"), CodeNotFound))
}

func TestValidationFields(t *testing.T) {
	err := NewValidation(map[string]string{"name": "name is required"})

	assert.True(t, Is(err, CodeValidation))
	assert.Equal(t, "name is required", Fields(err)["name"])
	assert.Nil(t, Fields(errors.New("boom")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:   http.StatusBadRequest,
		CodeNotFound:     http.StatusNotFound,
		CodeForbidden:    http.StatusForbidden,
		CodeConflict:     http.StatusConflict,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeTimeout:      http.StatusGatewayTimeout,
		CodeInternal:     http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}
