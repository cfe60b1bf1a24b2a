package bcut

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

type TranscribeOptions struct {
	Name     string
	FileType string
}

func (o TranscribeOptions) withDefaults() TranscribeOptions {
	if o.FileType == "" {
		o.FileType = "mp3"
	}
	if o.Name == "" {
		o.Name = "audio." + o.FileType
	}
	return o
}

// Transcribe 上传音频并等待转写完成。中途失败不会续传，调用方可整体重试。
func (c *Client) Transcribe(ctx context.Context, data []byte, opts TranscribeOptions) (tr *Transcript, err error) {
	opts = opts.withDefaults()
	c.stats.begin()
	defer func() { c.stats.finish(err) }()
	startedAt := time.Now()

	res, err := c.CreateResource(ctx, opts.Name, int64(len(data)), opts.FileType)
	if err != nil {
		return nil, err
	}
	slog.Info("[转写] 资源已创建", "resource_id", res.ResourceID, "chunks", len(res.UploadURLs))

	tags, err := c.UploadChunks(ctx, res, data)
	if err != nil {
		return nil, err
	}
	downloadURL, err := c.CompleteUpload(ctx, res, tags)
	if err != nil {
		return nil, err
	}
	taskID, err := c.CreateTask(ctx, downloadURL)
	if err != nil {
		return nil, err
	}
	slog.Info("[转写] 任务已创建", "task_id", taskID)

	result, err := c.WaitResult(ctx, taskID)
	if err != nil {
		return nil, err
	}
	tr = &Transcript{}
	if result.Result != "" {
		if err := sonic.ConfigStd.UnmarshalFromString(result.Result, tr); err != nil {
			return nil, fmt.Errorf("解析转写结果失败: %w", err)
		}
	}
	slog.Info("[转写] 完成", "task_id", taskID, "utterances", len(tr.Utterances), "elapsed", time.Since(startedAt).Round(time.Millisecond))
	return tr, nil
}

// TranscribeAudio 返回给路由层的 code/message/text，不透出上游原始错误
func (c *Client) TranscribeAudio(ctx context.Context, data []byte) (int, string, string) {
	if len(data) == 0 {
		return http.StatusBadRequest, "音频内容为空", ""
	}
	tr, err := c.Transcribe(ctx, data, TranscribeOptions{})
	if err != nil {
		slog.Error("[转写] 失败", "error", err)
		code, msg := classify(err)
		return code, msg, ""
	}
	return http.StatusOK, "ok", Flatten(tr)
}

func classify(err error) (int, string) {
	var taskErr *TaskFailedError
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrPollTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "转写超时"
	case errors.Is(err, ErrUploadChunk), errors.As(err, &taskErr), errors.As(err, &apiErr):
		return http.StatusBadGateway, "转写服务失败"
	default:
		return http.StatusInternalServerError, "转写失败"
	}
}

// FormatTimestamp 秒数转 mm:ss 或 hh:mm:ss，非零值先减去 0.01 秒再取整
func FormatTimestamp(seconds float64, showHours bool) string {
	t := seconds
	if t != 0 {
		t -= 0.01
	}
	if t < 0 {
		t = 0
	}
	h := int(math.Floor(t / 3600))
	m := int(math.Floor(math.Mod(t/60, 60)))
	s := int(math.Floor(math.Mod(t, 60)))
	if showHours {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Flatten 每段一行 "[开始 - 结束] 文本"，超过一小时时显示小时
func Flatten(tr *Transcript) string {
	if tr == nil || len(tr.Utterances) == 0 {
		return ""
	}
	showHours := false
	for _, u := range tr.Utterances {
		if u.EndTime >= 3600*1000 {
			showHours = true
			break
		}
	}
	lines := make([]string, 0, len(tr.Utterances))
	for _, u := range tr.Utterances {
		lines = append(lines, fmt.Sprintf("[%s - %s] %s",
			FormatTimestamp(float64(u.StartTime)/1000, showHours),
			FormatTimestamp(float64(u.EndTime)/1000, showHours),
			u.Transcript))
	}
	return strings.Join(lines, "\n")
}
