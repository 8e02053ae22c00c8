package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsWithinSingapore(t *testing.T) {
	assert.True(t, IsWithinSingapore(1.3521, 103.8198))  // 市中心
	assert.True(t, IsWithinSingapore(1.2494, 103.8303))  // 圣淘沙
	assert.False(t, IsWithinSingapore(3.1390, 101.6869)) // 吉隆坡
	assert.False(t, IsWithinSingapore(1.3521, 104.5))
	assert.False(t, IsWithinSingapore(0.9, 103.8))

	// 边界值本身视为有效
	assert.True(t, IsWithinSingapore(MinLatitude, MinLongitude))
	assert.True(t, IsWithinSingapore(MaxLatitude, MaxLongitude))
}

func TestMentionsSingapore(t *testing.T) {
	assert.True(t, MentionsSingapore("Marina Bay Sands, Singapore"))
	assert.True(t, MentionsSingapore("10 Orchard Road"))
	assert.True(t, MentionsSingapore("Tampines Hub Level 3"))
	assert.False(t, MentionsSingapore("Kuala Lumpur Convention Centre"))
	assert.False(t, MentionsSingapore(""))
}

func TestAreaForAddress(t *testing.T) {
	assert.Equal(t, "Orchard", AreaForAddress("313 Orchard Road"))
	assert.Equal(t, "Tampines", AreaForAddress("1 Tampines Walk, Singapore"))
	assert.Equal(t, "", AreaForAddress("Somewhere Else Entirely"))
}

func TestNearestArea(t *testing.T) {
	assert.Equal(t, "Marina Bay", NearestArea(1.2834, 103.8607))
	assert.Equal(t, "Woodlands", NearestArea(1.43, 103.79))
}
