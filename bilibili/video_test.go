package bilibili

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBvid = "BV17x411w7KC"

type fakeBili struct {
	playURLStatus int
	subtitleURL   string
	subtitleHost  atomic.Value
}

func (f *fakeBili) client() *Client {
	hc := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/x/web-interface/nav":
			return newResp(200, navBody()), nil
		case "/x/web-interface/wbi/view":
			return newResp(200, `{"code":0,"data":{"bvid":"`+testBvid+`","aid":170001,"cid":279786,"title":"测试视频","owner":{"mid":1,"name":"up"}}}`), nil
		case "/x/player/wbi/v2":
			if req.URL.Query().Get("cid") != "279786" || req.URL.Query().Get("web_location") != playerLocation {
				return newResp(200, `{"code":-400,"message":"bad cid"}`), nil
			}
			return newResp(200, `{"code":0,"data":{"subtitle":{"subtitles":[{"id":1,"lan":"ai-zh","lan_doc":"中文","subtitle_url":"`+f.subtitleURL+`"}]}}}`), nil
		case "/bfs/ai_subtitle/sub.json":
			f.subtitleHost.Store(req.URL.Scheme + "://" + req.URL.Host)
			return newResp(200, `{"body":[{"from":0,"to":1.5,"content":"你好"},{"from":1.5,"to":3,"content":"世界"}]}`), nil
		case "/x/player/wbi/playurl":
			if q := req.URL.Query(); q.Get("avid") != "170001" || q.Get("cid") != "279786" || q.Get("fnval") != "16" {
				return newResp(200, `{"code":-400,"message":"bad params"}`), nil
			}
			if f.playURLStatus != 0 {
				return newResp(f.playURLStatus, ""), nil
			}
			return newResp(200, `{"code":0,"data":{"dash":{"audio":[`+
				`{"id":30216,"baseUrl":"https://cdn/low.m4s","bandwidth":67000},`+
				`{"id":30280,"baseUrl":"https://cdn/high.m4s","bandwidth":319000},`+
				`{"id":30232,"baseUrl":"https://cdn/mid.m4s","bandwidth":132000}]}}}`), nil
		}
		return newResp(404, ""), nil
	})}
	return NewClient(WithHTTPClient(hc))
}

func TestFetchVideo(t *testing.T) {
	f := &fakeBili{subtitleURL: "//aisubtitle.hdslb.com/bfs/ai_subtitle/sub.json"}
	detail, err := FetchVideo(context.Background(), f.client(), testBvid, "SESSDATA=s", CredentialOptions{})
	require.NoError(t, err)

	assert.Equal(t, "测试视频", detail.Info.Title)
	assert.EqualValues(t, 279786, detail.Info.Cid)
	require.Len(t, detail.Subtitle, 2)
	assert.Equal(t, "你好世界", JoinSubtitle(detail.Subtitle))
	assert.Equal(t, "https://cdn/high.m4s", detail.AudioURL)
	assert.Equal(t, "https://aisubtitle.hdslb.com", f.subtitleHost.Load())
}

func TestFetchVideoPlayURLBestEffort(t *testing.T) {
	f := &fakeBili{playURLStatus: http.StatusForbidden, subtitleURL: "https://aisubtitle.hdslb.com/bfs/ai_subtitle/sub.json"}
	detail, err := FetchVideo(context.Background(), f.client(), testBvid, "", CredentialOptions{})
	require.NoError(t, err)
	assert.Empty(t, detail.AudioURL)
	assert.Len(t, detail.Subtitle, 2)
}

func TestFetchVideoInvalidBvid(t *testing.T) {
	_, err := FetchVideo(context.Background(), NewClient(), "BV123", "", CredentialOptions{})
	assert.Error(t, err)
}

func TestSubtitleWithoutTracks(t *testing.T) {
	f := &fakeBili{subtitleURL: ""}
	lines, err := NewVideo(f.client(), testBvid, nil).Subtitle(context.Background(), 279786, "")
	require.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)

	lines, err = NewVideo(f.client(), testBvid, nil).Subtitle(context.Background(), 279786, "en-US")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestNewVideoByAid(t *testing.T) {
	v := NewVideoByAid(nil, 170001, nil)
	assert.Equal(t, testBvid, v.Bvid())
	assert.EqualValues(t, 170001, v.Aid())
}

func TestBestAudioURL(t *testing.T) {
	assert.Empty(t, BestAudioURL(nil))
	assert.Empty(t, BestAudioURL(&PlayURLInfo{}))

	p := &PlayURLInfo{}
	p.Durl = append(p.Durl, struct {
		Order int    `json:"order"`
		URL   string `json:"url"`
		Size  int64  `json:"size"`
	}{URL: "https://cdn/flv"})
	assert.Equal(t, "https://cdn/flv", BestAudioURL(p))
}

func TestDownloadAudio(t *testing.T) {
	hc := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Referer") != defaultReferer {
			return newResp(http.StatusForbidden, ""), nil
		}
		if req.URL.Path == "/missing.m4s" {
			return newResp(http.StatusNotFound, ""), nil
		}
		return newResp(200, "audio-bytes"), nil
	})}
	c := NewClient(WithHTTPClient(hc))

	data, err := c.DownloadAudio(context.Background(), "https://cdn/high.m4s")
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(data))

	_, err = c.DownloadAudio(context.Background(), "https://cdn/missing.m4s")
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusNotFound, te.StatusCode)
}
