package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWishlistRemove(t *testing.T) {
	w := &Wishlist{ProductIDs: []string{"a", "b", "c"}}

	assert.True(t, w.Contains("b"))
	assert.True(t, w.Remove("b"))
	assert.Equal(t, []string{"a", "c"}, w.ProductIDs)
	assert.False(t, w.Contains("b"))
	assert.False(t, w.Remove("b"))
}
