package bcut

// State 远端任务状态
type State int

const (
	StateStopped  State = 0
	StateRunning  State = 1
	StateError    State = 3
	StateComplete State = 4
)

func (s State) Terminal() bool { return s == StateError || s == StateComplete }

func (s State) String() string {
	switch s {
	case StateStopped:
		return "STOPPED"
	case StateRunning:
		return "RUNNING"
	case StateError:
		return "ERROR"
	case StateComplete:
		return "COMPLETE"
	}
	return "UNKNOWN"
}

type envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// UploadResource resource/create 返回的上传描述，complete 后即丢弃
type UploadResource struct {
	ResourceID string   `json:"resource_id"`
	Title      string   `json:"title"`
	Type       int      `json:"type"`
	InBossKey  string   `json:"in_boss_key"`
	Size       int64    `json:"size"`
	UploadURLs []string `json:"upload_urls"`
	UploadID   string   `json:"upload_id"`
	PerSize    int64    `json:"per_size"`
}

type completeData struct {
	ResourceID  string `json:"resource_id"`
	DownloadURL string `json:"download_url"`
}

type taskData struct {
	Resource string `json:"resource"`
	Result   string `json:"result"`
	TaskID   string `json:"task_id"`
}

// TaskResult task/result 的结果，Result 仅在 COMPLETE 时有值
type TaskResult struct {
	TaskID string `json:"task_id"`
	Result string `json:"result"`
	Remark string `json:"remark"`
	State  State  `json:"state"`
}

type Word struct {
	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time"`
	Label     string `json:"label"`
}

// Utterance 一段识别结果，时间单位为毫秒
type Utterance struct {
	StartTime  int64  `json:"start_time"`
	EndTime    int64  `json:"end_time"`
	Transcript string `json:"transcript"`
	Music      int    `json:"music"`
	Punc       int    `json:"punc"`
	Words      []Word `json:"words"`
}

type Transcript struct {
	Version    string      `json:"version"`
	Utterances []Utterance `json:"utterances"`
}
