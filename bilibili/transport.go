package bilibili

import (
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// 触发风控后暂停的时长
const pauseOnThrottle = 10 * time.Second

type SafeTransport struct {
	BaseTransport http.RoundTripper
	RateLimiter   *rate.Limiter
	Concurrency   chan struct{}
	PauseUntil    atomic.Int64
}

func NewSafeTransport(base http.RoundTripper, rps float64, burst, concurrency int) *SafeTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &SafeTransport{
		BaseTransport: base,
		RateLimiter:   rate.NewLimiter(limit, max(burst, 1)),
		Concurrency:   make(chan struct{}, concurrency),
	}
}

func (t *SafeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	select {
	case t.Concurrency <- struct{}{}:
	case <-req.Context().Done():
		return nil, req.Context().Err()
	}
	defer func() { <-t.Concurrency }()

	if sleepTime := time.Until(time.Unix(0, t.PauseUntil.Load())); sleepTime > 0 {
		timer := time.NewTimer(sleepTime)
		select {
		case <-timer.C:
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		}
	}

	if err := t.RateLimiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	resp, err := t.BaseTransport.RoundTrip(req)
	if shouldPause(req, resp, err) {
		t.PauseUntil.Store(time.Now().Add(pauseOnThrottle).UnixNano())
	}

	return resp, err
}

// shouldPause 调用方自己取消或超时的请求不触发全局暂停，412 为 B站风控拦截
func shouldPause(req *http.Request, resp *http.Response, err error) bool {
	if err != nil {
		return req.Context().Err() == nil
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusPreconditionFailed
}
