package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"bilisub/bcut"
	"bilisub/bilibili"
)

var conf atomic.Pointer[Config]

// Get 返回当前生效的配置，未加载时返回默认值
func Get() *Config {
	if c := conf.Load(); c != nil {
		return c
	}
	def := Default()
	return &def
}

type Config struct {
	Listen     string                     `yaml:"listen" json:"listen"`
	Debug      bool                       `yaml:"debug" json:"debug"`
	Credential bilibili.CredentialOptions `yaml:"credential" json:"-"`
	Bilibili   BilibiliConfig             `yaml:"bilibili" json:"bilibili"`
	Bcut       BcutConfig                 `yaml:"bcut" json:"bcut"`
	LLM        LLMConfig                  `yaml:"llm" json:"llm"`
}

type BilibiliConfig struct {
	RateLimit         float64 `yaml:"rate_limit" json:"rate_limit"`
	Burst             int     `yaml:"burst" json:"burst"`
	Concurrency       int     `yaml:"concurrency" json:"concurrency"`
	TimeoutSecond     int     `yaml:"timeout_second" json:"timeout_second"`
	WbiCachePath      string  `yaml:"wbi_cache_path" json:"wbi_cache_path"`
	WbiCacheTTLMinute int     `yaml:"wbi_cache_ttl_minute" json:"wbi_cache_ttl_minute"`
}

type BcutConfig struct {
	BaseURL          string `yaml:"base_url" json:"base_url"`
	PollIntervalMs   int    `yaml:"poll_interval_ms" json:"poll_interval_ms"`
	PollMaxAttempts  int    `yaml:"poll_max_attempts" json:"poll_max_attempts"`
	ChunkConcurrency int    `yaml:"chunk_concurrency" json:"chunk_concurrency"`
}

type LLMConfig struct {
	BaseURL      string  `yaml:"base_url" json:"base_url"`
	APIKey       string  `yaml:"api_key" json:"-"`
	Model        string  `yaml:"model" json:"model"`
	Temperature  float64 `yaml:"temperature" json:"temperature"`
	MaxTokens    int     `yaml:"max_tokens" json:"max_tokens"`
	SystemPrompt string  `yaml:"system_prompt" json:"system_prompt"`
}

func Default() Config {
	return Config{
		Listen: ":8000",
		Bilibili: BilibiliConfig{
			RateLimit:         5,
			Burst:             5,
			Concurrency:       4,
			TimeoutSecond:     30,
			WbiCacheTTLMinute: 360,
		},
		Bcut: BcutConfig{
			BaseURL:         bcut.DefaultBaseURL,
			PollIntervalMs:  5000,
			PollMaxAttempts: 60,
		},
		LLM: LLMConfig{
			BaseURL:      "https://qwen-rethinkos.deno.dev/v1",
			Model:        "qwen-max-latest",
			Temperature:  0.7,
			MaxTokens:    2000,
			SystemPrompt: "你是一个视频内容总结助手，请简要总结以下视频字幕内容的主要观点：",
		},
	}
}

// LoadOrInit 读取 yaml 配置，文件不存在时写入默认配置
func LoadOrInit(path string) (Config, error) {
	def := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("读取配置失败: %w", err)
		}
		if err := Save(path, def); err != nil {
			return Config{}, err
		}
		return def, nil
	}
	cfg := def
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.fillDefaults(def)
	return cfg, nil
}

func (c *Config) fillDefaults(def Config) {
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Bilibili.Burst <= 0 {
		c.Bilibili.Burst = def.Bilibili.Burst
	}
	if c.Bilibili.Concurrency <= 0 {
		c.Bilibili.Concurrency = def.Bilibili.Concurrency
	}
	if c.Bilibili.TimeoutSecond <= 0 {
		c.Bilibili.TimeoutSecond = def.Bilibili.TimeoutSecond
	}
	if c.Bilibili.WbiCacheTTLMinute <= 0 {
		c.Bilibili.WbiCacheTTLMinute = def.Bilibili.WbiCacheTTLMinute
	}
	if c.Bcut.BaseURL == "" {
		c.Bcut.BaseURL = def.Bcut.BaseURL
	}
	if c.Bcut.PollIntervalMs <= 0 {
		c.Bcut.PollIntervalMs = def.Bcut.PollIntervalMs
	}
	if c.Bcut.PollMaxAttempts <= 0 {
		c.Bcut.PollMaxAttempts = def.Bcut.PollMaxAttempts
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = def.LLM.BaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = def.LLM.Model
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = def.LLM.MaxTokens
	}
	if c.LLM.SystemPrompt == "" {
		c.LLM.SystemPrompt = def.LLM.SystemPrompt
	}
}

func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("写配置失败: %w", err)
	}
	return nil
}

// Load 依次读取 .env、yaml 配置与环境变量，结果存入全局配置，之后通过 Get 读取
func Load(path, envPath string) error {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("读取 .env 失败: %w", err)
		}
	}
	cfg, err := LoadOrInit(path)
	if err != nil {
		return err
	}
	cfg.applyEnv()
	conf.Store(&cfg)
	slog.Info("[CONFIG] 配置已加载", "path", path, "listen", cfg.Listen, "凭据", cfg.Credential.Sessdata != "")
	return nil
}

// Update 复制当前配置修改后整体替换，已取得的旧配置不受影响
func Update(fn func(*Config)) *Config {
	next := *Get()
	fn(&next)
	conf.Store(&next)
	return &next
}

// applyEnv 环境变量优先于配置文件
func (c *Config) applyEnv() {
	c.Listen = getEnv("LISTEN", c.Listen)
	c.Debug = getEnvBool("DEBUG", c.Debug)
	c.Credential.Sessdata = getEnv("sessdata", c.Credential.Sessdata)
	c.Credential.BiliJct = getEnv("bili_jct", c.Credential.BiliJct)
	c.Credential.Buvid3 = getEnv("buvid3", c.Credential.Buvid3)
	c.Credential.DedeUserID = getEnv("dedeuserid", c.Credential.DedeUserID)
	c.Credential.AcTimeValue = getEnv("ac_time_value", c.Credential.AcTimeValue)
	c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.Bcut.PollMaxAttempts = getEnvInt("BCUT_POLL_MAX_ATTEMPTS", c.Bcut.PollMaxAttempts)
}

func (c *Config) PollPolicy() bcut.PollPolicy {
	return bcut.PollPolicy{
		Interval:    time.Duration(c.Bcut.PollIntervalMs) * time.Millisecond,
		MaxAttempts: c.Bcut.PollMaxAttempts,
	}
}

func (c *Config) WbiCacheTTL() time.Duration {
	return time.Duration(c.Bilibili.WbiCacheTTLMinute) * time.Minute
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Bilibili.TimeoutSecond) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
