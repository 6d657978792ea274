package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesWrappedCode(t *testing.T) {
	err := fmt.Errorf("loading order: %w", NotFound("Order", nil))

	assert.True(t, Is(err, CodeNotFound))
	assert.False(t, Is(err, CodeAccessDenied))
	assert.False(t, Is(fmt.Errorf("plain"), CodeNotFound))
}

func TestTaxonomyStatuses(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound("Listing", nil).Status)
	assert.Equal(t, http.StatusForbidden, AccessDenied("nope").Status)
	assert.Equal(t, http.StatusBadRequest, ValidationFailed("bad").Status)
	assert.Equal(t, http.StatusBadGateway, RemoteFailed("store down", nil).Status)
}

func TestErrorIncludesCause(t *testing.T) {
	err := RemoteFailed("Failed to get order", fmt.Errorf("unavailable"))

	assert.Equal(t, "REMOTE_OPERATION_FAILED: Failed to get order: unavailable", err.Error())
	assert.EqualError(t, err.Unwrap(), "unavailable")
}
