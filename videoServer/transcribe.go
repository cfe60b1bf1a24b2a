package videoServer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"bilisub/bilibili"
)

type transcribeCall struct {
	done chan struct{}
	code int
	msg  string
	text string
}

// transcribe 有 bvid 时下载该视频音频转写，否则转写请求体中的音频
func (s *Server) transcribe(c *gin.Context) {
	if c.Query("bvid") != "" {
		bvid, ok := requireBvid(c)
		if !ok {
			return
		}
		code, msg, text := s.transcribeBvid(c, bvid)
		c.JSON(code, gin.H{"code": code, "message": msg, "data": text})
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"code": http.StatusRequestEntityTooLarge, "message": "音频文件过大"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "读取音频失败"})
		return
	}
	code, msg, text := s.bcut.TranscribeAudio(c.Request.Context(), data)
	c.JSON(code, gin.H{"code": code, "message": msg, "data": text})
}

// transcribeBvid 同一 bvid 的并发请求共用一次转写结果
func (s *Server) transcribeBvid(c *gin.Context, bvid string) (int, string, string) {
	call := &transcribeCall{done: make(chan struct{})}
	if existing, loaded := s.pending.LoadOrStore(bvid, call); loaded {
		ec := existing.(*transcribeCall)
		slog.Info("[转写] 等待进行中的任务", "bvid", bvid)
		select {
		case <-ec.done:
			return ec.code, ec.msg, ec.text
		case <-c.Request.Context().Done():
			return http.StatusGatewayTimeout, "请求已取消", ""
		}
	}
	defer func() {
		s.pending.Delete(bvid)
		close(call.done)
	}()
	call.code, call.msg, call.text = s.runBvid(c, bvid)
	return call.code, call.msg, call.text
}

func (s *Server) runBvid(c *gin.Context, bvid string) (int, string, string) {
	ctx := context.WithoutCancel(c.Request.Context())
	detail, err := bilibili.FetchVideo(ctx, s.bili, bvid, c.GetHeader("Cookie"), s.conf.Credential)
	if err != nil {
		slog.Error("[转写] 获取视频信息失败", "bvid", bvid, "error", err)
		return http.StatusBadGateway, "获取视频信息失败", ""
	}
	if detail.AudioURL == "" {
		return http.StatusBadGateway, "未获取到音频地址", ""
	}
	audio, err := s.bili.DownloadAudio(ctx, detail.AudioURL)
	if err != nil {
		slog.Error("[转写] 下载音频失败", "bvid", bvid, "error", err)
		return http.StatusBadGateway, "下载音频失败", ""
	}
	slog.Info("[转写] 音频已下载", "bvid", bvid, "size", len(audio))
	return s.bcut.TranscribeAudio(ctx, audio)
}
