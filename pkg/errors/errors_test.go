package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsUnwrapsThroughWrapping(t *testing.T) {
	inner := New(CodeStateConflict, "order is shipped")
	outer := fmt.Errorf("applying transition: %w", inner)

	typed := As(outer)
	require.NotNil(t, typed)
	assert.Equal(t, CodeStateConflict, typed.Code())
	assert.True(t, IsCode(outer, CodeStateConflict))
	assert.False(t, IsCode(outer, CodeValidation))
}

func TestAsReturnsNilForPlainErrors(t *testing.T) {
	assert.Nil(t, As(fmt.Errorf("boom")))
	assert.Nil(t, As(nil))
	assert.False(t, IsCode(nil, CodeInternal))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(CodeDependency, cause, "loading order")

	assert.Equal(t, cause, err.Unwrap())
	assert.Contains(t, err.Error(), "loading order")
}

func TestWithDetails(t *testing.T) {
	details := []string{"row 1 bad", "row 2 bad"}
	err := New(CodeValidation, "batch rejected").WithDetails(details)
	assert.Equal(t, details, err.Details().([]string))
}

func TestMetadataMapping(t *testing.T) {
	cases := map[Code]struct {
		status    int
		retryable bool
	}{
		CodeValidation:    {http.StatusBadRequest, false},
		CodeForbidden:     {http.StatusForbidden, false},
		CodeNotFound:      {http.StatusNotFound, false},
		CodeConflict:      {http.StatusConflict, true},
		CodeStateConflict: {http.StatusUnprocessableEntity, false},
		CodeInternal:      {http.StatusInternalServerError, true},
		CodeDependency:    {http.StatusServiceUnavailable, true},
	}
	for code, want := range cases {
		meta := MetadataFor(code)
		assert.Equalf(t, want.status, meta.HTTPStatus, "%s status", code)
		assert.Equalf(t, want.retryable, meta.Retryable, "%s retryable", code)
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NO_SUCH_CODE"))
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
	assert.False(t, meta.DetailsAllowed)
}
