package videoServer

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"

	"bilisub/bcut"
	"bilisub/bilibili"
	"bilisub/config"
)

const (
	missingBvid    = "缺少必要参数 bvid"
	maxUploadSize  = 512 << 20
	statusInterval = 500 * time.Millisecond
)

type Server struct {
	conf    *config.Config
	bili    *bilibili.Client
	bcut    *bcut.Client
	llm     *resty.Client
	pending sync.Map
}

func New(conf *config.Config, bili *bilibili.Client, bc *bcut.Client) *Server {
	llm := resty.New().
		SetBaseURL(conf.LLM.BaseURL).
		SetTimeout(5 * time.Minute).
		SetJSONMarshaler(sonic.ConfigStd.Marshal).
		SetHeader("Content-Type", "application/json")
	return &Server{conf: conf, bili: bili, bcut: bc, llm: llm}
}

func (s *Server) Handler() http.Handler {
	if !s.conf.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Cookie"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Hello World")
	})
	video := r.Group("/video")
	{
		video.GET("/subtitle", s.subtitle)
		video.GET("/playurl", s.playURL)
		video.POST("/transcribe", s.transcribe)
		video.POST("/summary", s.summary)
	}
	r.GET("/status", s.status)
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("[HTTP] 请求完成", "method", c.Request.Method, "path", c.Request.URL.Path,
			"status", c.Writer.Status(), "elapsed", time.Since(start).Round(time.Millisecond))
	}
}

// respondError 将内部错误映射为固定的对外提示，不透出上游原始报错
func respondError(c *gin.Context, err error, fallback string) {
	status, msg := http.StatusInternalServerError, fallback
	var credErr *bilibili.CredentialError
	var upErr *bilibili.UpstreamError
	var transportErr *bilibili.TransportError
	var signErr *bilibili.SigningError
	switch {
	case errors.As(err, &credErr):
		status, msg = http.StatusUnauthorized, "缺少登录凭据"
	case errors.As(err, &signErr), errors.As(err, &upErr), errors.As(err, &transportErr),
		errors.Is(err, bilibili.ErrMalformedResponse):
		status = http.StatusBadGateway
	}
	slog.Error("[路由] "+fallback, "path", c.Request.URL.Path, "error", err)
	c.JSON(status, gin.H{"code": status, "message": msg})
}

// requireBvid 缺少或格式错误时直接写回 400
func requireBvid(c *gin.Context) (string, bool) {
	bvid := c.Query("bvid")
	if bvid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": missingBvid})
		return "", false
	}
	if !bilibili.IsBvid(bvid) {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "bvid 格式错误"})
		return "", false
	}
	return bvid, true
}
