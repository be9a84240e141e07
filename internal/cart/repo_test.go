package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampQtyCapsAtStock(t *testing.T) {
	got, err := clampQty(5, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	got, err = clampQty(2, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestClampQtyFloorsAtOne(t *testing.T) {
	got, err := clampQty(0, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestClampQtyZeroStockIsOutOfStock(t *testing.T) {
	_, err := clampQty(1, 0)
	assert.ErrorIs(t, err, ErrOutOfStock)

	_, err = clampQty(1, -1)
	assert.ErrorIs(t, err, ErrOutOfStock)
}
