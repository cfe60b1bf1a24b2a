package bilibili

import (
	"net/url"
	"strings"
)

// Credential 请求凭据，构造后只读
type Credential struct {
	sessdata    string
	biliJct     string
	buvid3      string
	dedeUserID  string
	acTimeValue string
}

// CredentialOptions 构造凭据用的原始 Cookie 值，均可为空
type CredentialOptions struct {
	Sessdata    string `yaml:"sessdata" json:"sessdata"`
	BiliJct     string `yaml:"bili_jct" json:"bili_jct"`
	Buvid3      string `yaml:"buvid3" json:"buvid3"`
	DedeUserID  string `yaml:"dedeuserid" json:"dedeuserid"`
	AcTimeValue string `yaml:"ac_time_value" json:"ac_time_value"`
}

// 与浏览器 encodeURIComponent 一致，保留 -_.!~*'()
var componentUnescaper = strings.NewReplacer("+", "%20", "%21", "!", "%27", "'", "%28", "(", "%29", ")", "%2A", "*")

func escapeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

func NewCredential(opts CredentialOptions) *Credential {
	sessdata := opts.Sessdata
	if sessdata != "" && !strings.Contains(sessdata, "%") {
		sessdata = escapeComponent(sessdata)
	}
	return &Credential{
		sessdata:    sessdata,
		biliJct:     opts.BiliJct,
		buvid3:      opts.Buvid3,
		dedeUserID:  opts.DedeUserID,
		acTimeValue: opts.AcTimeValue,
	}
}

// Cookies 返回请求用的 Cookie 字典，DedeUserID 为空时不返回
func (c *Credential) Cookies() map[string]string {
	if c == nil {
		c = &Credential{}
	}
	cookies := map[string]string{
		"SESSDATA":      c.sessdata,
		"buvid3":        c.buvid3,
		"bili_jct":      c.biliJct,
		"ac_time_value": c.acTimeValue,
	}
	if c.dedeUserID != "" {
		cookies["DedeUserID"] = c.dedeUserID
	}
	return cookies
}

func (c *Credential) HasSessdata() bool { return c != nil && c.sessdata != "" }

func (c *Credential) HasBiliJct() bool { return c != nil && c.biliJct != "" }

func (c *Credential) BiliJct() string {
	if c == nil {
		return ""
	}
	return c.biliJct
}

// ParseCookieHeader 解析 "k=v; k2=v2" 形式的 Cookie 头，键统一转小写，不是恰好一个 "=" 的条目会被丢弃
func ParseCookieHeader(raw string) map[string]string {
	res := make(map[string]string)
	for item := range strings.SplitSeq(raw, ";") {
		parts := strings.Split(strings.TrimSpace(item), "=")
		if len(parts) != 2 {
			continue
		}
		res[strings.ToLower(parts[0])] = parts[1]
	}
	return res
}

// CredentialFromCookieHeader 从浏览器 Cookie 头构造凭据，缺失字段使用 fallback
func CredentialFromCookieHeader(raw string, fallback CredentialOptions) *Credential {
	cookies := ParseCookieHeader(raw)
	pick := func(key, def string) string {
		if v := cookies[key]; v != "" {
			return v
		}
		return def
	}
	return NewCredential(CredentialOptions{
		Sessdata:    pick("sessdata", fallback.Sessdata),
		BiliJct:     pick("bili_jct", fallback.BiliJct),
		Buvid3:      pick("buvid3", fallback.Buvid3),
		DedeUserID:  pick("dedeuserid", fallback.DedeUserID),
		AcTimeValue: pick("ac_time_value", fallback.AcTimeValue),
	})
}
