package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeClampsInputs(t *testing.T) {
	normalized := Params{Page: 0, Limit: 0}.Normalize()
	assert.Equal(t, 1, normalized.Page)
	assert.Equal(t, DefaultLimit, normalized.Limit)

	normalized = Params{Page: -3, Limit: 5000}.Normalize()
	assert.Equal(t, 1, normalized.Page)
	assert.Equal(t, MaxLimit, normalized.Limit)
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, Limit: 25}.Offset())
	assert.Equal(t, 50, Params{Page: 3, Limit: 25}.Offset())
	assert.Equal(t, 0, Params{}.Offset())
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, int64(4), Result[int]{TotalItems: 100, Limit: 25}.TotalPages())
	assert.Equal(t, int64(5), Result[int]{TotalItems: 101, Limit: 25}.TotalPages())
	assert.Equal(t, int64(0), Result[int]{TotalItems: 10, Limit: 0}.TotalPages())
}
