package bcut

import (
	"errors"
	"fmt"
)

var (
	ErrUploadChunk = errors.New("分片上传失败")
	ErrPollTimeout = errors.New("轮询任务超时")
)

// ChunkError 第 Index 个分片上传失败
type ChunkError struct {
	Index      int
	StatusCode int
	Err        error
}

func (e *ChunkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: 分片 %d: %v", ErrUploadChunk.Error(), e.Index, e.Err)
	}
	return fmt.Sprintf("%s: 分片 %d: HTTP %d", ErrUploadChunk.Error(), e.Index, e.StatusCode)
}

func (e *ChunkError) Is(target error) bool { return target == ErrUploadChunk }

func (e *ChunkError) Unwrap() error { return e.Err }

// TaskFailedError 转写任务进入 ERROR 状态
type TaskFailedError struct {
	TaskID string
	Remark string
}

func (e *TaskFailedError) Error() string {
	return fmt.Sprintf("转写任务失败: %s %s", e.TaskID, e.Remark)
}

// APIError 必剪接口返回非 0 code 或非 2xx 状态码
type APIError struct {
	Step       string
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("必剪接口 %s 失败: HTTP %d", e.Step, e.StatusCode)
	}
	return fmt.Sprintf("必剪接口 %s 失败: %s (code: %d)", e.Step, e.Message, e.Code)
}
