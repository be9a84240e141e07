package products

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityWithoutRedisIsDisabled(t *testing.T) {
	a := NewActivity(nil)
	ctx := context.Background()

	assert.NoError(t, a.RecordView(ctx, 1))

	ids, err := a.TopViewed(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
