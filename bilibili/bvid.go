package bilibili

import "strings"

// bvid 与 aid 互转
const (
	xorCode  = 23442827791579
	maskCode = 2251799813685247
	maxAid   = 1 << 51
	base     = 58
	bvLen    = 12
	bvPrefix = "BV1"
)

const bvAlphabet = "FcwAPNKTMug3GV5Lj7EJnHpWsx4tb8haYeviqBz6rkCy12mUSDQX9RdoZf"

func swapBvid(b []byte) {
	b[3], b[9] = b[9], b[3]
	b[4], b[7] = b[7], b[4]
}

// BvidToAid 将 12 位 bvid 解码为 aid，输入需为合法 bvid
func BvidToAid(bvid string) uint64 {
	b := []byte(bvid)
	swapBvid(b)
	var tmp uint64
	for _, c := range b[3:] {
		tmp = tmp*base + uint64(strings.IndexByte(bvAlphabet, c))
	}
	return (tmp & maskCode) ^ xorCode
}

// AidToBvid 将 aid 编码为 bvid
func AidToBvid(aid uint64) string {
	b := []byte(bvPrefix + "000000000")
	idx := bvLen - 1
	tmp := (maxAid | aid) ^ xorCode
	for tmp != 0 && idx >= len(bvPrefix) {
		b[idx] = bvAlphabet[tmp%base]
		tmp /= base
		idx--
	}
	swapBvid(b)
	return string(b)
}

// IsBvid 粗略校验 bvid 格式
func IsBvid(s string) bool {
	if len(s) != bvLen || !strings.EqualFold(s[:2], "BV") || s[2] != '1' {
		return false
	}
	for i := 3; i < bvLen; i++ {
		if strings.IndexByte(bvAlphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
