package bilibili

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bytedance/sonic"
)

// KeyCache 缓存派生后的 mixin key，实现需并发安全
type KeyCache interface {
	Load() (string, bool)
	Store(key string)
}

type navWbiData struct {
	Data struct {
		WbiImg struct {
			ImgURL string `json:"img_url"`
			SubURL string `json:"sub_url"`
		} `json:"wbi_img"`
	} `json:"data"`
}

// MixinKey 返回 WBI 签名用的 mixin key，有缓存时优先读取缓存
func (c *Client) MixinKey(ctx context.Context, cred *Credential) (string, error) {
	if c.keyCache != nil {
		if key, ok := c.keyCache.Load(); ok {
			return key, nil
		}
	}
	key, err := c.fetchMixinKey(ctx, cred)
	if err != nil {
		return "", err
	}
	if c.keyCache != nil {
		c.keyCache.Store(key)
	}
	return key, nil
}

// 未登录时 nav 返回 code -101，但 wbi_img 依然存在，所以这里不校验信封
func (c *Client) fetchMixinKey(ctx context.Context, cred *Credential) (string, error) {
	raw, err := c.Do(ctx, Request{
		Method:     "GET",
		URL:        c.navURL,
		Credential: cred,
		Flags:      Flags{IgnoreEnvelope: true},
	})
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", errors.New("nav 响应为空")
	}
	var nav navWbiData
	if err := sonic.ConfigStd.Unmarshal(raw, &nav); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	imgKey := wbiKeyFromURL(nav.Data.WbiImg.ImgURL)
	subKey := wbiKeyFromURL(nav.Data.WbiImg.SubURL)
	if imgKey == "" || subKey == "" {
		return "", errors.New("nav 响应缺少 wbi_img")
	}
	key, err := MixinKey(imgKey, subKey)
	if err != nil {
		return "", err
	}
	slog.Debug("[WBI] mixin key 已更新")
	return key, nil
}

// MemoryKeyCache 进程内缓存
type MemoryKeyCache struct {
	mu        sync.RWMutex
	key       string
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

func NewMemoryKeyCache(ttl time.Duration) *MemoryKeyCache {
	return &MemoryKeyCache{ttl: ttl, now: time.Now}
}

func (m *MemoryKeyCache) Load() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.key == "" || !m.now().Before(m.expiresAt) {
		return "", false
	}
	return m.key, true
}

func (m *MemoryKeyCache) Store(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = key
	m.expiresAt = m.now().Add(m.ttl)
}
