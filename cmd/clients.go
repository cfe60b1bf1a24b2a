package cmd

import (
	"log/slog"
	"net/http"

	"bilisub/bcut"
	"bilisub/bilibili"
	"bilisub/config"
)

type clients struct {
	bili  *bilibili.Client
	bcut  *bcut.Client
	close func()
}

// newClients 按配置构造 bilibili 与必剪客户端，配置了 wbi_cache_path 时使用 bbolt 持久化 mixin key
func newClients(cfg *config.Config) (*clients, error) {
	b := cfg.Bilibili
	hc := &http.Client{
		Timeout:   cfg.RequestTimeout(),
		Transport: bilibili.NewSafeTransport(http.DefaultTransport, b.RateLimit, b.Burst, b.Concurrency),
	}
	closeFn := func() {}
	var cache bilibili.KeyCache = bilibili.NewMemoryKeyCache(cfg.WbiCacheTTL())
	if b.WbiCachePath != "" {
		bolt, err := bilibili.OpenBoltKeyCache(b.WbiCachePath, cfg.WbiCacheTTL())
		if err != nil {
			return nil, err
		}
		cache = bolt
		closeFn = func() {
			if err := bolt.Close(); err != nil {
				slog.Error("[数据库] 关闭失败", "error", err)
			}
		}
	}

	opts := []bcut.Option{
		bcut.WithBaseURL(cfg.Bcut.BaseURL),
		bcut.WithPollPolicy(cfg.PollPolicy()),
		bcut.WithChunkConcurrency(cfg.Bcut.ChunkConcurrency),
	}
	return &clients{
		bili:  bilibili.NewClient(bilibili.WithHTTPClient(hc), bilibili.WithKeyCache(cache)),
		bcut:  bcut.NewClient(opts...),
		close: closeFn,
	}, nil
}
