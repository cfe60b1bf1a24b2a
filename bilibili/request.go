package bilibili

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"mime/multipart"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultReferer   = "https://www.bilibili.com"
	navURL           = "https://api.bilibili.com/x/web-interface/nav"
	maxResponseSize  = 8 << 20
)

// Flags 控制单次请求的校验、签名与响应处理方式
type Flags struct {
	RequireSession bool
	SkipCSRF       bool
	UseWbi         bool
	UseWbi2        bool
	UseAppSign     bool
	JSONBody       bool
	IgnoreEnvelope bool
}

type File struct {
	Field string
	Name  string
	Data  []byte
}

// Request 一次请求的完整描述，发送过程中不会被修改
type Request struct {
	Method     string
	URL        string
	Params     map[string]any
	Data       map[string]any
	Files      []File
	Credential *Credential
	Flags
}

// signedRequest 校验与签名完成后的请求
type signedRequest struct {
	method   string
	url      string
	query    url.Values
	body     url.Values
	jsonBody map[string]any
	files    []File
	cookies  map[string]string
}

type Client struct {
	httpClient *http.Client
	keyCache   KeyCache
	now        func() time.Time
	navURL     string
	userAgent  string
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func WithKeyCache(kc KeyCache) ClientOption {
	return func(c *Client) { c.keyCache = kc }
}

func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

func WithNavURL(u string) ClientOption {
	return func(c *Client) { c.navURL = u }
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: NewSafeTransport(http.DefaultTransport, 5, 5, 4),
		},
		now:       time.Now,
		navURL:    navURL,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func isReadMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// normalizeValue 布尔转 0/1，nil 返回 false
func normalizeValue(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case bool:
		if x {
			return "1", true
		}
		return "0", true
	case string:
		return x, true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case fmt.Stringer:
		return x.String(), true
	default:
		return fmt.Sprint(x), true
	}
}

func toValues(m map[string]any) url.Values {
	out := make(url.Values, len(m))
	for k, v := range m {
		if s, ok := normalizeValue(v); ok {
			out.Set(k, s)
		}
	}
	return out
}

// coerceMap 用于 JSON 请求体，保留原始类型
func coerceMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch x := v.(type) {
		case nil:
		case bool:
			if x {
				out[k] = 1
			} else {
				out[k] = 0
			}
		default:
			out[k] = v
		}
	}
	return out
}

func (c *Client) validate(req Request) error {
	if req.RequireSession && !req.Credential.HasSessdata() {
		return &CredentialError{Field: "SESSDATA"}
	}
	if !isReadMethod(req.Method) && !req.SkipCSRF && !req.Credential.HasBiliJct() {
		return &CredentialError{Field: "bili_jct"}
	}
	return nil
}

// prepare 依次执行校验、WBI2、WBI、APP 签名，返回新的请求值
func (c *Client) prepare(ctx context.Context, req Request) (signedRequest, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	req.Method = strings.ToUpper(req.Method)
	if err := c.validate(req); err != nil {
		return signedRequest{}, err
	}

	query := toValues(req.Params)
	body := toValues(req.Data)
	read := isReadMethod(req.Method)
	if !read && !req.SkipCSRF {
		body.Set("csrf", req.Credential.BiliJct())
		body.Set("csrf_token", req.Credential.BiliJct())
	}

	target := body
	if read {
		target = query
	}
	if req.UseWbi2 {
		target = EncWbi2(target, nil)
	}
	if req.UseWbi {
		key, err := c.MixinKey(ctx, req.Credential)
		if err != nil {
			return signedRequest{}, &SigningError{Err: err}
		}
		target = EncWbi(target, key, c.now())
	}
	if req.UseAppSign {
		target = AppSign(target)
	}
	if read {
		query = target
	} else {
		body = target
	}

	cookies := req.Credential.Cookies()
	cookies["opus-goback"] = "1"

	s := signedRequest{
		method:  req.Method,
		url:     req.URL,
		query:   query,
		body:    body,
		files:   req.Files,
		cookies: cookies,
	}
	if req.JSONBody && !read {
		obj := coerceMap(req.Data)
		for k := range body {
			if _, ok := obj[k]; !ok || k == "w_rid" || k == "sign" || k == "wts" {
				obj[k] = body.Get(k)
			}
		}
		s.jsonBody = obj
	}
	return s, nil
}

func cookieHeader(cookies map[string]string) string {
	parts := make([]string, 0, len(cookies))
	for _, k := range slices.Sorted(maps.Keys(cookies)) {
		parts = append(parts, k+"="+cookies[k])
	}
	return strings.Join(parts, "; ")
}

func (c *Client) build(ctx context.Context, s signedRequest) (*http.Request, error) {
	urlStr := s.url
	if len(s.query) > 0 {
		sep := "?"
		if strings.Contains(urlStr, "?") {
			sep = "&"
		}
		urlStr += sep + s.query.Encode()
	}

	var reqBody io.Reader
	var ct string
	switch {
	case isReadMethod(s.method):
	case len(s.files) > 0:
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		for _, k := range slices.Sorted(maps.Keys(s.body)) {
			if err := mw.WriteField(k, s.body.Get(k)); err != nil {
				return nil, err
			}
		}
		for _, f := range s.files {
			fw, err := mw.CreateFormFile(f.Field, f.Name)
			if err != nil {
				return nil, err
			}
			if _, err := fw.Write(f.Data); err != nil {
				return nil, err
			}
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}
		reqBody = buf
		ct = mw.FormDataContentType()
	case s.jsonBody != nil:
		b, err := sonic.ConfigStd.Marshal(s.jsonBody)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(b)
		ct = "application/json"
	default:
		reqBody = strings.NewReader(s.body.Encode())
		ct = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, s.method, urlStr, reqBody)
	if err != nil {
		return nil, err
	}
	if ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Referer", defaultReferer)
	req.Header.Set("Cookie", cookieHeader(s.cookies))
	return req, nil
}

// Do 发送请求并返回归一化后的 data，空响应返回 nil
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	signed, err := c.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	httpReq, err := c.build(ctx, signed)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("[BILI] 请求失败", "url", signed.url, "status", resp.StatusCode)
		return nil, &TransportError{StatusCode: resp.StatusCode}
	}
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body failed: %w", err)}
	}
	if len(body) > maxResponseSize {
		slog.Warn("[BILI] 响应超出上限", "url", signed.url, "limit", maxResponseSize)
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: ErrResponseTooLarge}
	}
	if len(body) == 0 {
		return nil, nil
	}
	if req.IgnoreEnvelope {
		if !json.Valid(body) {
			return nil, ErrMalformedResponse
		}
		return body, nil
	}
	return normalizeEnvelope(body)
}

// normalizeEnvelope 同时存在 code 与 OK 时以 code 为准
func normalizeEnvelope(body []byte) (json.RawMessage, error) {
	var env map[string]json.RawMessage
	if err := sonic.ConfigStd.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if raw, ok := env["code"]; ok {
		var code int
		if err := sonic.ConfigStd.Unmarshal(raw, &code); err != nil {
			return nil, fmt.Errorf("%w: code 非整数", ErrMalformedResponse)
		}
		if code != 0 {
			return nil, &UpstreamError{Code: code, Message: envelopeMessage(env)}
		}
		data, ok := env["data"]
		if !ok || string(data) == "null" {
			return nil, nil
		}
		return data, nil
	}

	if raw, ok := env["OK"]; ok {
		var okv int
		if err := sonic.ConfigStd.Unmarshal(raw, &okv); err != nil {
			return nil, fmt.Errorf("%w: OK 非整数", ErrMalformedResponse)
		}
		if okv != 1 {
			return nil, &UpstreamError{Code: okv, Message: envelopeMessage(env)}
		}
		delete(env, "OK")
		return sonic.ConfigStd.Marshal(env)
	}

	return nil, ErrMalformedResponse
}

func envelopeMessage(env map[string]json.RawMessage) string {
	for _, key := range []string{"msg", "message"} {
		var s string
		if raw, ok := env[key]; ok && sonic.ConfigStd.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
	}
	return ""
}

func request[T any](ctx context.Context, c *Client, req Request) (*T, error) {
	data, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	var actualData T
	if len(data) == 0 {
		return &actualData, nil
	}
	if err := sonic.ConfigStd.Unmarshal(data, &actualData); err != nil {
		return nil, fmt.Errorf("%w: 解析data出错: %v", ErrMalformedResponse, err)
	}
	return &actualData, nil
}
