package bilibili

type VideoOwner struct {
	Mid  int64  `json:"mid"`
	Name string `json:"name"`
	Face string `json:"face"`
}

type VideoPage struct {
	Cid      int64  `json:"cid"`
	Page     int    `json:"page"`
	Part     string `json:"part"`
	Duration int64  `json:"duration"`
}

type VideoInfo struct {
	Bvid     string      `json:"bvid"`
	Aid      int64       `json:"aid"`
	Cid      int64       `json:"cid"`
	Title    string      `json:"title"`
	Desc     string      `json:"desc"`
	Pic      string      `json:"pic"`
	Duration int64       `json:"duration"`
	Pubdate  int64       `json:"pubdate"`
	Owner    VideoOwner  `json:"owner"`
	Pages    []VideoPage `json:"pages"`
}

type SubtitleTrack struct {
	ID          int64  `json:"id"`
	Lan         string `json:"lan"`
	LanDoc      string `json:"lan_doc"`
	SubtitleURL string `json:"subtitle_url"`
}

type PlayerInfo struct {
	Subtitle struct {
		Subtitles []SubtitleTrack `json:"subtitles"`
	} `json:"subtitle"`
}

type SubtitleLine struct {
	From    float64 `json:"from"`
	To      float64 `json:"to"`
	Content string  `json:"content"`
}

type subtitleContent struct {
	Body []SubtitleLine `json:"body"`
}

type DashStream struct {
	ID        int      `json:"id"`
	BaseURL   string   `json:"baseUrl"`
	BackupURL []string `json:"backupUrl"`
	Bandwidth int64    `json:"bandwidth"`
	MimeType  string   `json:"mimeType"`
	Codecs    string   `json:"codecs"`
}

type PlayURLInfo struct {
	Quality int `json:"quality"`
	Dash    *struct {
		Duration int64        `json:"duration"`
		Video    []DashStream `json:"video"`
		Audio    []DashStream `json:"audio"`
	} `json:"dash"`
	Durl []struct {
		Order int    `json:"order"`
		URL   string `json:"url"`
		Size  int64  `json:"size"`
	} `json:"durl"`
}

// VideoDetail 视频信息、字幕与最佳音频地址的组合结果
type VideoDetail struct {
	Info     *VideoInfo     `json:"info"`
	Subtitle []SubtitleLine `json:"subtitle"`
	AudioURL string         `json:"audio_url"`
}
