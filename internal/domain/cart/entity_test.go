package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddMergesExistingLine(t *testing.T) {
	c := &Cart{UserID: "u1"}

	c.Add(7, 2)
	c.Add(9, 1)
	c.Add(7, 3)

	require.Len(t, c.Items, 2)
	assert.Equal(t, uint(7), c.Items[0].ProductID)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.Equal(t, uint(9), c.Items[1].ProductID)
}

func TestCart_SetOverwritesAndRemoves(t *testing.T) {
	c := &Cart{UserID: "u1"}
	c.Add(1, 4)
	c.Add(2, 1)

	c.Set(1, 2)
	assert.Equal(t, 2, c.QuantityOf(1))

	c.Set(3, 6)
	require.Len(t, c.Items, 3)
	assert.Equal(t, uint(3), c.Items[2].ProductID)

	c.Set(1, 0)
	assert.Equal(t, 0, c.QuantityOf(1))
	assert.Len(t, c.Items, 2)

	c.Set(1, 0)
	assert.Len(t, c.Items, 2)
}

func TestCart_Empty(t *testing.T) {
	c := &Cart{UserID: "u1"}
	c.Add(1, 1)

	c.Empty()
	assert.True(t, c.IsEmpty())
	assert.NotNil(t, c.Items)
}
