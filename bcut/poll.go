package bcut

import (
	"context"
	"log/slog"
	"time"
)

// PollPolicy 轮询策略，Sleep 为空时使用真实计时器
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int
	Sleep       func(ctx context.Context, d time.Duration) error
}

func DefaultPollPolicy() PollPolicy {
	return PollPolicy{Interval: 5 * time.Second, MaxAttempts: 60}
}

func (p PollPolicy) sleep(ctx context.Context) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, p.Interval)
	}
	timer := time.NewTimer(p.Interval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Poll 反复调用 fetch 直到任务进入终态，查询出错立即返回。
// 返回值为终态结果与实际查询次数；次数用尽返回 ErrPollTimeout。
func Poll(ctx context.Context, p PollPolicy, fetch func(context.Context) (*TaskResult, error)) (*TaskResult, int, error) {
	attempts := 0
	for attempts < p.MaxAttempts {
		res, err := fetch(ctx)
		attempts++
		if err != nil {
			return nil, attempts, err
		}
		if res.State.Terminal() {
			return res, attempts, nil
		}
		slog.Debug("[转写] 任务处理中", "task_id", res.TaskID, "state", res.State.String(), "attempt", attempts)
		if attempts == p.MaxAttempts {
			break
		}
		if err := p.sleep(ctx); err != nil {
			return nil, attempts, err
		}
	}
	return nil, attempts, ErrPollTimeout
}

// WaitResult 轮询任务直到完成，ERROR 状态返回 TaskFailedError
func (c *Client) WaitResult(ctx context.Context, taskID string) (*TaskResult, error) {
	res, attempts, err := Poll(ctx, c.poll, func(ctx context.Context) (*TaskResult, error) {
		return c.QueryResult(ctx, taskID)
	})
	if err != nil {
		slog.Warn("[转写] 轮询结束", "task_id", taskID, "attempts", attempts, "error", err)
		return nil, err
	}
	if res.State == StateError {
		return nil, &TaskFailedError{TaskID: taskID, Remark: res.Remark}
	}
	return res, nil
}
