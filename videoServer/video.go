package videoServer

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bilisub/bilibili"
)

type videoBrief struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Owner    string `json:"owner"`
}

func (s *Server) fetchVideo(c *gin.Context, bvid string) (*bilibili.VideoDetail, error) {
	return bilibili.FetchVideo(c.Request.Context(), s.bili, bvid, c.GetHeader("Cookie"), s.conf.Credential)
}

// subtitle type=0 返回拼接后的全文，type=1 返回原始字幕条目
func (s *Server) subtitle(c *gin.Context) {
	bvid, ok := requireBvid(c)
	if !ok {
		return
	}
	typ := c.DefaultQuery("type", "0")
	detail, err := s.fetchVideo(c, bvid)
	if err != nil {
		respondError(c, err, "获取字幕失败")
		return
	}
	code := http.StatusOK
	if len(detail.Subtitle) == 0 {
		code = http.StatusBadRequest
	}
	var data any = detail.Subtitle
	if typ == "0" {
		data = bilibili.JoinSubtitle(detail.Subtitle)
	}
	c.JSON(http.StatusOK, gin.H{"code": code, "data": data})
}

func (s *Server) playURL(c *gin.Context) {
	bvid, ok := requireBvid(c)
	if !ok {
		return
	}
	detail, err := s.fetchVideo(c, bvid)
	if err != nil {
		respondError(c, err, "获取播放地址失败")
		return
	}
	if detail.AudioURL == "" {
		c.JSON(http.StatusOK, gin.H{"code": http.StatusNotFound, "message": "未找到音频流"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": gin.H{
		"title":     detail.Info.Title,
		"owner":     detail.Info.Owner.Name,
		"audio_url": detail.AudioURL,
	}})
}
