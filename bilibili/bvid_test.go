package bilibili

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBvidKnownPairs(t *testing.T) {
	tests := []struct {
		bvid string
		aid  uint64
	}{
		{"BV17x411w7KC", 170001},
		{"BV1rXNme6E96", 113974322401932},
	}
	for _, tt := range tests {
		t.Run(tt.bvid, func(t *testing.T) {
			assert.Equal(t, tt.aid, BvidToAid(tt.bvid))
			assert.Equal(t, tt.bvid, AidToBvid(tt.aid))
		})
	}
}

func TestBvidRoundTrip(t *testing.T) {
	for _, aid := range []uint64{1, 2, 99, 170001, 1 << 20, 1<<40 + 7, maxAid - 1} {
		bvid := AidToBvid(aid)
		assert.True(t, IsBvid(bvid), bvid)
		assert.Equal(t, aid, BvidToAid(bvid))
	}
	for _, bvid := range []string{"BV1rXNme6E96", "BV17x411w7KC", "BV1GJ411x7h7"} {
		assert.Equal(t, bvid, AidToBvid(BvidToAid(bvid)))
	}
}

func TestIsBvid(t *testing.T) {
	assert.True(t, IsBvid("BV1rXNme6E96"))
	assert.True(t, IsBvid("bv1rXNme6E96"))
	assert.False(t, IsBvid("BV1rXNme6E9"))
	assert.False(t, IsBvid("BV2rXNme6E96"))
	assert.False(t, IsBvid("AV1rXNme6E96"))
	assert.False(t, IsBvid("BV1rXNme6E9l"))
	assert.False(t, IsBvid(""))
}
