package bilibili

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltKeyCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wbi.db")
	cache, err := OpenBoltKeyCache(path, time.Hour)
	require.NoError(t, err)

	_, ok := cache.Load()
	assert.False(t, ok)

	cache.Store(testMixinKey)
	key, ok := cache.Load()
	require.True(t, ok)
	assert.Equal(t, testMixinKey, key)
	require.NoError(t, cache.Close())

	// 重新打开后仍可读取
	cache, err = OpenBoltKeyCache(path, time.Hour)
	require.NoError(t, err)
	defer cache.Close()
	key, ok = cache.Load()
	require.True(t, ok)
	assert.Equal(t, testMixinKey, key)

	cache.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, ok = cache.Load()
	assert.False(t, ok)
}

func TestMemoryKeyCacheExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	cache := NewMemoryKeyCache(time.Minute)
	cache.now = func() time.Time { return now }

	cache.Store("k")
	key, ok := cache.Load()
	require.True(t, ok)
	assert.Equal(t, "k", key)

	now = now.Add(time.Minute)
	_, ok = cache.Load()
	assert.False(t, ok)
}
