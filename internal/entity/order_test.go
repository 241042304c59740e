package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus(t *testing.T) {
	for _, s := range ValidOrderStatuses {
		assert.True(t, s.IsValid())

		parsed, err := ParseOrderStatus(s.String())
		assert.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	assert.False(t, OrderStatus("shipped").IsValid())
	assert.False(t, OrderStatus("").IsValid())
	assert.False(t, OrderStatus("Delivered").IsValid(), "statuses are case sensitive")

	_, err := ParseOrderStatus("shipped")
	assert.Error(t, err)
}
