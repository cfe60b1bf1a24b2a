package bilibili

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialCookies(t *testing.T) {
	c := NewCredential(CredentialOptions{Sessdata: "abc,def", BiliJct: "jct", Buvid3: "b3"})
	cookies := c.Cookies()
	assert.Equal(t, map[string]string{
		"SESSDATA":      "abc%2Cdef",
		"buvid3":        "b3",
		"bili_jct":      "jct",
		"ac_time_value": "",
	}, cookies)

	c = NewCredential(CredentialOptions{Sessdata: "abc%2Cdef", DedeUserID: "42"})
	cookies = c.Cookies()
	assert.Equal(t, "abc%2Cdef", cookies["SESSDATA"])
	assert.Equal(t, "42", cookies["DedeUserID"])
}

func TestCredentialNilSafe(t *testing.T) {
	var c *Credential
	assert.False(t, c.HasSessdata())
	assert.False(t, c.HasBiliJct())
	assert.Empty(t, c.BiliJct())
	assert.Len(t, c.Cookies(), 4)
}

func TestParseCookieHeader(t *testing.T) {
	got := ParseCookieHeader("SESSDATA=s1; bili_jct=j1;bad; a=b=c; DedeUserID=7")
	assert.Equal(t, map[string]string{
		"sessdata":   "s1",
		"bili_jct":   "j1",
		"dedeuserid": "7",
	}, got)
}

func TestCredentialFromCookieHeader(t *testing.T) {
	c := CredentialFromCookieHeader("SESSDATA=fromcookie", CredentialOptions{Sessdata: "fallback", BiliJct: "fjct"})
	assert.Equal(t, "fromcookie", c.Cookies()["SESSDATA"])
	assert.Equal(t, "fjct", c.BiliJct())

	c = CredentialFromCookieHeader("", CredentialOptions{})
	assert.False(t, c.HasSessdata())
}

func TestCredentialEscapesLikeBrowser(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"4b0dd0a9,1756010699,2a405*22CjD", "4b0dd0a9%2C1756010699%2C2a405*22CjD"},
		{"a b!'()~-_.", "a%20b!'()~-_."},
		{"x+y/z", "x%2By%2Fz"},
	}
	for _, tt := range tests {
		c := NewCredential(CredentialOptions{Sessdata: tt.in})
		assert.Equal(t, tt.want, c.Cookies()["SESSDATA"], tt.in)
	}
}
