package bcut

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"bilisub/bilibili"
)

const (
	DefaultBaseURL = "https://member.bilibili.com/x/bcut/rubick-interface"
	modelID        = "7"
)

type Client struct {
	http             *resty.Client
	baseURL          string
	poll             PollPolicy
	chunkConcurrency int
	stats            *taskStats
}

type Option func(*Client)

// WithHTTPClient 替换底层 http.Client，测试时注入
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = resty.NewWithClient(hc) }
}

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithPollPolicy(p PollPolicy) Option {
	return func(c *Client) { c.poll = p }
}

// WithChunkConcurrency 限制同时上传的分片数，<=0 不限制
func WithChunkConcurrency(n int) Option {
	return func(c *Client) { c.chunkConcurrency = n }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		poll:    DefaultPollPolicy(),
		stats:   newTaskStats(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = resty.New().
			SetTimeout(10 * time.Minute).
			SetTransport(bilibili.NewSafeTransport(http.DefaultTransport, 5, 5, 8))
	}
	c.http.
		SetJSONMarshaler(sonic.ConfigStd.Marshal).
		SetJSONUnmarshaler(sonic.ConfigStd.Unmarshal).
		SetHeader("User-Agent", bilibili.DefaultUserAgent).
		SetHeader("Cache-Control", "no-cache")
	return c
}

// call 发送请求并解析 {code,message,data} 信封
func call[T any](ctx context.Context, c *Client, step, method, path string, payload map[string]any, query map[string]string) (T, error) {
	var zero T
	req := c.http.R().SetContext(ctx)
	if payload != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}
	if query != nil {
		req.SetQueryParams(query)
	}
	resp, err := req.Execute(method, c.baseURL+path)
	if err != nil {
		return zero, fmt.Errorf("必剪接口 %s 请求失败: %w", step, err)
	}
	if !resp.IsSuccess() {
		return zero, &APIError{Step: step, StatusCode: resp.StatusCode()}
	}
	var env envelope[T]
	if err := sonic.ConfigStd.Unmarshal(resp.Body(), &env); err != nil {
		return zero, fmt.Errorf("必剪接口 %s 响应解析失败: %w", step, err)
	}
	if env.Code != 0 {
		return zero, &APIError{Step: step, Code: env.Code, Message: env.Message}
	}
	return env.Data, nil
}

func (c *Client) CreateResource(ctx context.Context, name string, size int64, fileType string) (*UploadResource, error) {
	res, err := call[UploadResource](ctx, c, "resource/create", http.MethodPost, "/resource/create", map[string]any{
		"type":             2,
		"name":             name,
		"size":             size,
		"ResourceFileType": fileType,
		"model_id":         modelID,
	}, nil)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CompleteUpload 提交分片标签，返回资源下载地址
func (c *Client) CompleteUpload(ctx context.Context, res *UploadResource, tags []string) (string, error) {
	data, err := call[completeData](ctx, c, "resource/create/complete", http.MethodPost, "/resource/create/complete", map[string]any{
		"InBossKey":  res.InBossKey,
		"ResourceId": res.ResourceID,
		"etags":      JoinTags(tags),
		"UploadId":   res.UploadID,
		"model_id":   modelID,
	}, nil)
	if err != nil {
		return "", err
	}
	if data.DownloadURL == "" {
		return "", &APIError{Step: "resource/create/complete", Message: "缺少 download_url"}
	}
	return data.DownloadURL, nil
}

func (c *Client) CreateTask(ctx context.Context, resource string) (string, error) {
	data, err := call[taskData](ctx, c, "task", http.MethodPost, "/task", map[string]any{
		"resource": resource,
		"model_id": modelID,
	}, nil)
	if err != nil {
		return "", err
	}
	if data.TaskID == "" {
		return "", &APIError{Step: "task", Message: "缺少 task_id"}
	}
	return data.TaskID, nil
}

func (c *Client) QueryResult(ctx context.Context, taskID string) (*TaskResult, error) {
	res, err := call[TaskResult](ctx, c, "task/result", http.MethodGet, "/task/result", nil, map[string]string{
		"task_id":  taskID,
		"model_id": modelID,
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
