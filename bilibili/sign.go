package bilibili

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

var mixinKeyEncTab = [64]int{
	46, 47, 18, 2, 53, 8, 23, 32, 15, 50, 10, 31, 58, 3, 45, 35,
	27, 43, 5, 49, 33, 9, 42, 19, 29, 28, 14, 39, 12, 38, 41, 13,
	37, 48, 7, 16, 24, 55, 40, 61, 26, 17, 0, 1, 60, 51, 30, 4,
	22, 25, 54, 21, 56, 59, 6, 63, 57, 62, 11, 36, 20, 34, 44, 52,
}

const (
	defaultWebLocation = "1550101"
	appKey             = "1d8b6e7d45233436"
	appSec             = "560c52ccd288fed045859ed18bffd973"
	dmRand             = "ABCDEFGHIJK"
	dmImgInter         = `{"ds":[],"wh":[0,0,0],"of":[0,0,0]}`
)

// MixinKey 按固定置换表重排 img_key+sub_key，取前 32 位
func MixinKey(imgKey, subKey string) (string, error) {
	raw := imgKey + subKey
	if len(raw) != len(mixinKeyEncTab) {
		return "", fmt.Errorf("wbi key 长度异常: %d", len(raw))
	}
	var sb strings.Builder
	sb.Grow(len(mixinKeyEncTab))
	for _, idx := range mixinKeyEncTab {
		sb.WriteByte(raw[idx])
	}
	return sb.String()[:32], nil
}

// wbiKeyFromURL 取 URL 文件名去掉扩展名
func wbiKeyFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return ""
	}
	if before, _, ok := strings.Cut(name, "."); ok {
		return before
	}
	return name
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v)+4)
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// stripWbiChars 网页端签名前会去掉值中的 !'()*
var stripWbiChars = strings.NewReplacer("!", "", "'", "", "(", "", ")", "", "*", "")

// EncWbi 返回带 wts 与 w_rid 的新参数集合，不修改入参
func EncWbi(params url.Values, mixinKey string, now time.Time) url.Values {
	out := cloneValues(params)
	out.Del("w_rid")
	for _, vs := range out {
		for i, v := range vs {
			vs[i] = stripWbiChars.Replace(v)
		}
	}
	out.Set("wts", strconv.FormatInt(now.Unix(), 10))
	if !out.Has("web_location") {
		out.Set("web_location", defaultWebLocation)
	}
	out.Set("w_rid", md5Hex(out.Encode()+mixinKey))
	return out
}

// EncWbi2 追加 dm_* 指纹字段
func EncWbi2(params url.Values, r *rand.Rand) url.Values {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	pick := func() string {
		idx := r.Perm(len(dmRand))
		return string([]byte{dmRand[idx[0]], dmRand[idx[1]]})
	}
	out := cloneValues(params)
	out.Set("dm_img_list", "[]")
	out.Set("dm_img_str", pick())
	out.Set("dm_cover_img_str", pick())
	out.Set("dm_img_inter", dmImgInter)
	return out
}

// AppSign 追加 appkey 并计算 sign
func AppSign(params url.Values) url.Values {
	out := cloneValues(params)
	out.Del("sign")
	out.Set("appkey", appKey)
	out.Set("sign", md5Hex(out.Encode()+appSec))
	return out
}
