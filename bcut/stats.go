package bcut

import (
	"slices"
	"sync"
	"sync/atomic"
)

// 保留的最近错误条数
const maxStatErrors = 50

type taskStats struct {
	total        atomic.Int64
	completed    atomic.Int64
	failed       atomic.Int64
	running      atomic.Int64
	mu           sync.Mutex
	failedErrors []string
}

func newTaskStats() *taskStats {
	return &taskStats{failedErrors: []string{}}
}

func (s *taskStats) begin() {
	s.total.Add(1)
	s.running.Add(1)
}

func (s *taskStats) finish(err error) {
	defer s.running.Add(-1)
	if err == nil {
		s.completed.Add(1)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed.Add(1)
	s.failedErrors = append(s.failedErrors, err.Error())
	if len(s.failedErrors) > maxStatErrors {
		s.failedErrors = slices.Delete(s.failedErrors, 0, len(s.failedErrors)-maxStatErrors)
	}
}

type TaskStatsJSON struct {
	Total     int64    `json:"total"`
	Completed int64    `json:"completed"`
	Failed    int64    `json:"failed"`
	Running   int64    `json:"running"`
	Errors    []string `json:"errors"`
}

func (c *Client) GetStatus() TaskStatsJSON {
	c.stats.mu.Lock()
	defer c.stats.mu.Unlock()
	return TaskStatsJSON{
		Total:     c.stats.total.Load(),
		Completed: c.stats.completed.Load(),
		Failed:    c.stats.failed.Load(),
		Running:   c.stats.running.Load(),
		Errors:    slices.Clone(c.stats.failedErrors),
	}
}
