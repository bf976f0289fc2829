package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryPolicy(t *testing.T) {
	p := NewCategoryPolicy(
		[]string{"collections"},
		[]string{"collections", "user-readonly", "app"},
	)

	// collections is deliberately both passive and read-only: shared
	// reference data clients discover but never mutate.
	assert.True(t, p.Passive("collections"))
	assert.True(t, p.ReadOnly("collections"))

	assert.False(t, p.Passive("user-readonly"))
	assert.True(t, p.ReadOnly("user-readonly"))

	assert.False(t, p.Passive("records"))
	assert.False(t, p.ReadOnly("records"))

	assert.ElementsMatch(t, []string{"collections"}, p.PassiveCategories())
}

func TestCategoryPolicy_Empty(t *testing.T) {
	p := NewCategoryPolicy(nil, nil)

	assert.False(t, p.Passive("anything"))
	assert.False(t, p.ReadOnly("anything"))
	assert.Empty(t, p.PassiveCategories())
}
