package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartSetSemantics(t *testing.T) {
	carts := NewCartService(testCatalog())
	userID := uuid.New()

	require.NoError(t, carts.Add(userID, "aimbot-pro"))
	assert.True(t, carts.Contains(userID, "aimbot-pro"))

	err := carts.Add(userID, "aimbot-pro")
	assert.ErrorIs(t, err, ErrAlreadyInCart)
	assert.Equal(t, 1, carts.Size(userID), "duplicate add does not grow the cart")
}

func TestCartValidation(t *testing.T) {
	carts := NewCartService(testCatalog())
	userID := uuid.New()

	assert.ErrorIs(t, carts.Add(userID, "no-such-product"), ErrProductNotFound)
	assert.ErrorIs(t, carts.Add(userID, "esp-bundle"), ErrOutOfStock)
	assert.Equal(t, 0, carts.Size(userID))
}

func TestCartOrderAndTotal(t *testing.T) {
	carts := NewCartService(testCatalog())
	userID := uuid.New()

	require.NoError(t, carts.Add(userID, "wallhack-elite"))
	require.NoError(t, carts.Add(userID, "radar-overlay"))

	items := carts.Items(userID)
	require.Len(t, items, 2)
	assert.Equal(t, "wallhack-elite", items[0].ID, "insertion order preserved")
	assert.Equal(t, "radar-overlay", items[1].ID)

	// 59.99 + 69.99 discounted
	assert.True(t, carts.Total(userID).Equal(dec("129.98")), "total = %s", carts.Total(userID))
}

func TestCartRemove(t *testing.T) {
	carts := NewCartService(testCatalog())
	userID := uuid.New()

	require.NoError(t, carts.Add(userID, "aimbot-pro"))
	require.NoError(t, carts.Remove(userID, "aimbot-pro"))
	assert.Equal(t, 0, carts.Size(userID))

	assert.ErrorIs(t, carts.Remove(userID, "aimbot-pro"), ErrNotInCart)
}

func TestCartClear(t *testing.T) {
	carts := NewCartService(testCatalog())
	userID := uuid.New()
	otherID := uuid.New()

	require.NoError(t, carts.Add(userID, "aimbot-pro"))
	require.NoError(t, carts.Add(otherID, "wallhack-elite"))

	carts.Clear(userID)
	assert.Equal(t, 0, carts.Size(userID))
	assert.Equal(t, 1, carts.Size(otherID), "carts are per user")
}
