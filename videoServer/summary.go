package videoServer

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"

	"bilisub/bilibili"
)

type relayDelta struct {
	Content string `json:"content"`
	Type    string `json:"type"`
	Extra   any    `json:"extra"`
}

type relayChoice struct {
	Index        int        `json:"index"`
	Delta        relayDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

// relayChunk 与 OpenAI chat.completion.chunk 兼容，delta 多出 type 与 extra
type relayChunk struct {
	ID      string        `json:"id"`
	Model   string        `json:"model"`
	Object  string        `json:"object"`
	Choices []relayChoice `json:"choices"`
	Created float64       `json:"created"`
}

type upstreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

type sseWriter struct {
	c       *gin.Context
	created float64
}

func (w *sseWriter) send(content, typ string, extra any) {
	if extra == nil {
		extra = map[string]string{}
	}
	msg := relayChunk{
		Object:  "chat.completion.chunk",
		Choices: []relayChoice{{Delta: relayDelta{Content: content, Type: typ, Extra: extra}}},
		Created: w.created,
	}
	data, err := sonic.ConfigStd.MarshalToString(msg)
	if err != nil {
		slog.Error("[总结] 序列化失败", "error", err)
		return
	}
	w.raw(data)
}

func (w *sseWriter) raw(data string) {
	fmt.Fprintf(w.c.Writer, "data: %s\n\n", data)
	w.c.Writer.Flush()
}

// summary 先推送 conversation 事件携带视频信息，再转发大模型的流式输出
func (s *Server) summary(c *gin.Context) {
	bvid, ok := requireBvid(c)
	if !ok {
		return
	}
	detail, err := s.fetchVideo(c, bvid)
	if err != nil {
		respondError(c, err, "获取字幕失败")
		return
	}
	brief := videoBrief{
		Title:    detail.Info.Title,
		Subtitle: bilibili.JoinSubtitle(detail.Subtitle),
		Owner:    detail.Info.Owner.Name,
	}
	if brief.Subtitle == "" {
		c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "视频无字幕", "data": brief})
		return
	}

	llm := s.conf.LLM
	resp, err := s.llm.R().
		SetContext(c.Request.Context()).
		SetDoNotParseResponse(true).
		SetAuthToken(llm.APIKey).
		SetBody(map[string]any{
			"model": llm.Model,
			"messages": []map[string]string{
				{"role": "system", "content": llm.SystemPrompt},
				{"role": "user", "content": brief.Subtitle},
			},
			"temperature": llm.Temperature,
			"max_tokens":  llm.MaxTokens,
			"stream":      true,
		}).
		Post("/chat/completions")
	if err != nil {
		slog.Error("[总结] 请求大模型失败", "bvid", bvid, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"code": http.StatusBadGateway, "message": "总结服务请求失败"})
		return
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		slog.Error("[总结] 大模型返回异常", "bvid", bvid, "status", resp.StatusCode())
		c.JSON(http.StatusBadGateway, gin.H{"code": http.StatusBadGateway, "message": "总结服务请求失败"})
		return
	}

	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	c.Status(http.StatusOK)

	w := &sseWriter{c: c, created: float64(time.Now().UnixMilli()) / 1000}
	w.send("", "conversation", brief)

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64<<10), 1<<20)
	for scanner.Scan() {
		payload, ok := strings.CutPrefix(scanner.Text(), "data:")
		if !ok {
			continue
		}
		payload = strings.TrimSpace(payload)
		if payload == "[DONE]" {
			w.raw("[DONE]")
			return
		}
		var chunk upstreamChunk
		if err := sonic.ConfigStd.UnmarshalFromString(payload, &chunk); err != nil {
			slog.Warn("[总结] 无法解析的分片", "error", err)
			continue
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			w.send(chunk.Choices[0].Delta.Content, "text", nil)
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Error("[总结] 读取流失败", "bvid", bvid, "error", err)
	}
}
