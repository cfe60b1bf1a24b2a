package bilibili

import (
	"math/rand/v2"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testImgKey   = "7cd084941338484aae1ad9425b84077c"
	testSubKey   = "4932caff0ff746eab6f01bf08b70ac45"
	testMixinKey = "ea1db124af3c7062474693fa704f4ff8"
)

func TestMixinKey(t *testing.T) {
	key, err := MixinKey(testImgKey, testSubKey)
	require.NoError(t, err)
	assert.Equal(t, testMixinKey, key)

	_, err = MixinKey("short", testSubKey)
	assert.Error(t, err)
}

func TestWbiKeyFromURL(t *testing.T) {
	assert.Equal(t, testImgKey, wbiKeyFromURL("https://i0.hdslb.com/bfs/wbi/"+testImgKey+".png"))
	assert.Equal(t, "", wbiKeyFromURL(""))
}

func TestEncWbi(t *testing.T) {
	params := url.Values{"foo": {"114"}, "bar": {"514"}, "zab": {"1919810"}, "w_rid": {"stale"}}
	out := EncWbi(params, testMixinKey, time.Unix(1702204169, 0))

	assert.Equal(t, "1702204169", out.Get("wts"))
	assert.Equal(t, "1550101", out.Get("web_location"))
	assert.Equal(t, "f17b0e2cf04a667d362f3f2eb111affc", out.Get("w_rid"))
	// 入参不变
	assert.Equal(t, "stale", params.Get("w_rid"))
	assert.False(t, params.Has("wts"))

	out = EncWbi(url.Values{"web_location": {"1315873"}}, testMixinKey, time.Unix(1, 0))
	assert.Equal(t, "1315873", out.Get("web_location"))
}

func TestEncWbiStripsReservedChars(t *testing.T) {
	now := time.Unix(1702204169, 0)
	params := url.Values{"keyword": {"a!b'(c)*"}}
	out := EncWbi(params, testMixinKey, now)

	assert.Equal(t, "abc", out.Get("keyword"))
	assert.Equal(t, EncWbi(url.Values{"keyword": {"abc"}}, testMixinKey, now).Get("w_rid"), out.Get("w_rid"))
	assert.Equal(t, "a!b'(c)*", params.Get("keyword"))
}

func TestEncWbi2(t *testing.T) {
	params := url.Values{"a": {"1"}}
	out := EncWbi2(params, rand.New(rand.NewPCG(1, 2)))

	assert.Equal(t, "[]", out.Get("dm_img_list"))
	assert.Equal(t, dmImgInter, out.Get("dm_img_inter"))
	assert.Equal(t, "1", out.Get("a"))
	for _, k := range []string{"dm_img_str", "dm_cover_img_str"} {
		v := out.Get(k)
		require.Len(t, v, 2, k)
		assert.NotEqual(t, v[0], v[1], k)
		assert.True(t, strings.ContainsRune(dmRand, rune(v[0])))
		assert.True(t, strings.ContainsRune(dmRand, rune(v[1])))
	}
	assert.False(t, params.Has("dm_img_list"))

	// 未传随机源时也可用
	assert.Len(t, EncWbi2(nil, nil).Get("dm_img_str"), 2)
}

func TestAppSign(t *testing.T) {
	out := AppSign(url.Values{"foo": {"114"}, "sign": {"old"}})
	assert.Equal(t, appKey, out.Get("appkey"))
	assert.Equal(t, "a76ce48d25140ad6235b1b67bc6afcc2", out.Get("sign"))
}
