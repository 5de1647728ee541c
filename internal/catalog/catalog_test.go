package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestEffectivePrice(t *testing.T) {
	discounted := dec("69.99")

	full := Product{ID: "a", Price: dec("79.99")}
	assert.True(t, full.EffectivePrice().Equal(dec("79.99")))

	onSale := Product{ID: "b", Price: dec("89.99"), DiscountedPrice: &discounted}
	assert.True(t, onSale.EffectivePrice().Equal(dec("69.99")))
}

func TestPurchasable(t *testing.T) {
	assert.True(t, (&Product{Stock: 1}).Purchasable())
	assert.False(t, (&Product{Stock: 0}).Purchasable())
}

func TestNewDeduplicates(t *testing.T) {
	c := New([]Product{
		{ID: "a", Name: "First", Price: dec("1.00")},
		{ID: "a", Name: "Shadowed", Price: dec("2.00")},
		{ID: "b", Name: "Second", Price: dec("3.00")},
	})

	require.Equal(t, 2, c.Len())
	p, ok := c.Product("a")
	require.True(t, ok)
	assert.Equal(t, "First", p.Name, "first definition wins")
}

func TestProductsPreserveFileOrder(t *testing.T) {
	c := New([]Product{
		{ID: "z", Price: dec("1.00")},
		{ID: "a", Price: dec("2.00")},
		{ID: "m", Price: dec("3.00")},
	})

	products := c.Products()
	require.Len(t, products, 3)
	assert.Equal(t, "z", products[0].ID)
	assert.Equal(t, "a", products[1].ID)
	assert.Equal(t, "m", products[2].ID)
}

func TestByCategory(t *testing.T) {
	c := New([]Product{
		{ID: "a", Category: "fps", Price: dec("1.00")},
		{ID: "b", Category: "utility", Price: dec("2.00")},
		{ID: "c", Category: "fps", Price: dec("3.00")},
	})

	fps := c.ByCategory("fps")
	require.Len(t, fps, 2)
	assert.Equal(t, "a", fps[0].ID)
	assert.Equal(t, "c", fps[1].ID)

	assert.Empty(t, c.ByCategory("nope"))
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	data := `{
  "products": [
    {"id": "aimbot-pro", "name": "Aimbot Pro", "price": "79.99", "discounted_price": "69.99", "stock": 10, "category": "fps", "download_url": "https://cdn.example/a.zip"},
    {"id": "wallhack-elite", "name": "Wallhack Elite", "price": "59.99", "stock": 0, "category": "fps", "download_url": "https://cdn.example/b.zip"}
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	c, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	p, ok := c.Product("aimbot-pro")
	require.True(t, ok)
	assert.True(t, p.EffectivePrice().Equal(dec("69.99")))
	assert.True(t, p.Purchasable())

	p, ok = c.Product("wallhack-elite")
	require.True(t, ok)
	assert.False(t, p.Purchasable())
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}
