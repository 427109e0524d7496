package budget

import (
	"bytes"
	"context"
	"testing"

	"kharnish/budgie/internal/container/containertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	c, mem, _ := containertest.New(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, Set(ctx, c, "Dining", "$200", false, &out))
	assert.Equal(t, "Budget for Dining set to 200.00\n", out.String())
	require.NoError(t, Set(ctx, c, "Dining", "250.5", false, &bytes.Buffer{}))
	require.NoError(t, Set(ctx, c, "Food", "600", true, &bytes.Buffer{}))

	items, err := mem.BudgetItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "250.5", items[0].Value.String())
	assert.True(t, items[1].IsParent)

	out.Reset()
	require.NoError(t, List(ctx, c, &out))
	assert.Contains(t, out.String(), "250.50")
	assert.Contains(t, out.String(), "600.00")
}

func TestSet_Errors(t *testing.T) {
	c, _, _ := containertest.New(t)
	assert.Error(t, Set(context.Background(), c, "Dining", "abc", false, &bytes.Buffer{}))
	assert.Error(t, Set(context.Background(), c, " ", "10", false, &bytes.Buffer{}))
}
