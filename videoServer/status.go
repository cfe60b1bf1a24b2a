package videoServer

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"

	"bilisub/bcut"
)

type globalStatus struct {
	Transcribe bcut.TaskStatsJSON `json:"transcribe"`
}

// status 以 SSE 推送转写任务统计，仅在变化时发送
func (s *Server) status(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")

	fetchStatus := func() string {
		data, _ := sonic.ConfigStd.MarshalToString(globalStatus{Transcribe: s.bcut.GetStatus()})
		return data
	}
	send := func(jsonStr string) {
		fmt.Fprintf(c.Writer, "data: %s\n\n", jsonStr)
		c.Writer.Flush()
	}
	lastJSON := fetchStatus()
	send(lastJSON)

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			currentJSON := fetchStatus()
			if currentJSON != lastJSON {
				send(currentJSON)
				lastJSON = currentJSON
			}
		}
	}
}
