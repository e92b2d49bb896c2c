package draft

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTabStepper(t *testing.T) {
	var s TabStepper
	assert.Equal(t, TabBasic, s.Current())
	assert.True(t, s.IsFirst())

	// 在第一页时 Previous 饱和
	assert.Equal(t, TabBasic, s.Previous())

	assert.Equal(t, TabPricing, s.Next())
	assert.Equal(t, TabDetails, s.Next())
	assert.Equal(t, TabTags, s.Next())
	assert.True(t, s.IsLast())

	// 在最后一页时 Next 饱和
	assert.Equal(t, TabTags, s.Next())
	assert.Equal(t, 3, s.Index())

	assert.Equal(t, TabDetails, s.Previous())
	assert.False(t, s.IsLast())
}
