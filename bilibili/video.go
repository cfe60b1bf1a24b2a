package bilibili

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	apiVideoInfo   = "https://api.bilibili.com/x/web-interface/wbi/view"
	apiPlayerInfo  = "https://api.bilibili.com/x/player/wbi/v2"
	apiPlayURL     = "https://api.bilibili.com/x/player/wbi/playurl"
	playerLocation = "1315873"
	maxAudioSize   = 512 << 20
)

type Video struct {
	client     *Client
	bvid       string
	aid        uint64
	credential *Credential
}

func NewVideo(c *Client, bvid string, cred *Credential) *Video {
	return &Video{client: c, bvid: bvid, aid: BvidToAid(bvid), credential: cred}
}

func NewVideoByAid(c *Client, aid uint64, cred *Credential) *Video {
	return &Video{client: c, bvid: AidToBvid(aid), aid: aid, credential: cred}
}

func (v *Video) Bvid() string { return v.bvid }

func (v *Video) Aid() uint64 { return v.aid }

func (v *Video) Info(ctx context.Context) (*VideoInfo, error) {
	return request[VideoInfo](ctx, v.client, Request{
		Method:     "GET",
		URL:        apiVideoInfo,
		Params:     map[string]any{"aid": v.aid, "bvid": v.bvid},
		Credential: v.credential,
		Flags:      Flags{UseWbi: true},
	})
}

func (v *Video) PlayerInfo(ctx context.Context, cid int64) (*PlayerInfo, error) {
	return request[PlayerInfo](ctx, v.client, Request{
		Method: "GET",
		URL:    apiPlayerInfo,
		Params: map[string]any{
			"aid":          v.aid,
			"cid":          cid,
			"bvid":         v.bvid,
			"web_location": playerLocation,
		},
		Credential: v.credential,
		Flags:      Flags{UseWbi: true},
	})
}

// Subtitle 获取字幕内容，lanCode 为空时取第一条字幕，无字幕返回空切片
func (v *Video) Subtitle(ctx context.Context, cid int64, lanCode string) ([]SubtitleLine, error) {
	player, err := v.PlayerInfo(ctx, cid)
	if err != nil {
		return nil, err
	}
	track, ok := pickSubtitle(player.Subtitle.Subtitles, lanCode)
	if !ok {
		return []SubtitleLine{}, nil
	}

	content, err := request[subtitleContent](ctx, v.client, Request{
		Method:     "GET",
		URL:        absoluteURL(track.SubtitleURL),
		Credential: v.credential,
		Flags:      Flags{IgnoreEnvelope: true},
	})
	if err != nil {
		return nil, err
	}
	if content.Body == nil {
		return []SubtitleLine{}, nil
	}
	return content.Body, nil
}

func pickSubtitle(tracks []SubtitleTrack, lanCode string) (SubtitleTrack, bool) {
	if len(tracks) == 0 {
		return SubtitleTrack{}, false
	}
	if lanCode == "" {
		return tracks[0], tracks[0].SubtitleURL != ""
	}
	for _, t := range tracks {
		if t.Lan == lanCode {
			return t, t.SubtitleURL != ""
		}
	}
	return SubtitleTrack{}, false
}

// absoluteURL 补全 "//host/path" 形式的地址
func absoluteURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

func (v *Video) PlayURL(ctx context.Context, cid int64) (*PlayURLInfo, error) {
	return request[PlayURLInfo](ctx, v.client, Request{
		Method: "GET",
		URL:    apiPlayURL,
		Params: map[string]any{
			"avid":  v.aid,
			"bvid":  v.bvid,
			"cid":   cid,
			"fnval": 16,
			"fnver": 0,
			"fourk": 1,
		},
		Credential: v.credential,
		Flags:      Flags{UseWbi: true},
	})
}

// BestAudioURL 选码率最高的 dash 音频流，没有 dash 时回退到 durl
func BestAudioURL(p *PlayURLInfo) string {
	if p == nil {
		return ""
	}
	if p.Dash != nil {
		var best *DashStream
		for i := range p.Dash.Audio {
			if best == nil || p.Dash.Audio[i].Bandwidth > best.Bandwidth {
				best = &p.Dash.Audio[i]
			}
		}
		if best != nil {
			if best.BaseURL != "" {
				return best.BaseURL
			}
			if len(best.BackupURL) > 0 {
				return best.BackupURL[0]
			}
		}
	}
	if len(p.Durl) > 0 {
		return p.Durl[0].URL
	}
	return ""
}

// JoinSubtitle 拼接全部字幕文本
func JoinSubtitle(lines []SubtitleLine) string {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l.Content)
	}
	return sb.String()
}

// FetchVideo 获取视频信息、字幕与音频地址。
// 视频信息请求完成后，字幕与播放地址并发获取；播放地址失败不影响整体结果。
func FetchVideo(ctx context.Context, c *Client, bvid, cookieHeader string, fallback CredentialOptions) (*VideoDetail, error) {
	if !IsBvid(bvid) {
		return nil, fmt.Errorf("bvid 格式错误: %s", bvid)
	}
	v := NewVideo(c, bvid, CredentialFromCookieHeader(cookieHeader, fallback))

	info, err := v.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取视频信息失败: %w", err)
	}

	detail := &VideoDetail{Info: info}
	var g errgroup.Group
	g.Go(func() error {
		lines, err := v.Subtitle(ctx, info.Cid, "")
		if err != nil {
			return fmt.Errorf("获取字幕失败: %w", err)
		}
		detail.Subtitle = lines
		return nil
	})
	g.Go(func() error {
		play, err := v.PlayURL(ctx, info.Cid)
		if err != nil {
			slog.Warn("[视频] 获取播放地址失败", "bvid", bvid, "error", err)
			return nil
		}
		detail.AudioURL = BestAudioURL(play)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

// DownloadAudio 下载音频流，CDN 要求携带 Referer
func (c *Client) DownloadAudio(ctx context.Context, audioURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Referer", defaultReferer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioSize))
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: err}
	}
	return data, nil
}
