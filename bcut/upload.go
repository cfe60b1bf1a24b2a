package bcut

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ChunkCount 按 perSize 切分 size 字节所需的分片数，向上取整
func ChunkCount(size, perSize int64) int {
	if size <= 0 || perSize <= 0 {
		return 0
	}
	return int((size + perSize - 1) / perSize)
}

// chunkBounds 第 i 个分片的 [start, end)，最后一片可能更短
func chunkBounds(i int, size, perSize int64) (int64, int64) {
	start := int64(i) * perSize
	return start, min(start+perSize, size)
}

// JoinTags 按分片顺序拼接非空标签
func JoinTags(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, ",")
}

// UploadChunks 并发上传全部分片，标签按分片下标记录。
// 任一分片失败整体失败，其余进行中的分片仍会完成。
func (c *Client) UploadChunks(ctx context.Context, res *UploadResource, data []byte) ([]string, error) {
	size := int64(len(data))
	n := ChunkCount(size, res.PerSize)
	if n == 0 {
		return nil, fmt.Errorf("%w: 无效的分片参数 size=%d per_size=%d", ErrUploadChunk, size, res.PerSize)
	}
	if len(res.UploadURLs) < n {
		return nil, fmt.Errorf("%w: 上传地址数量不足 %d/%d", ErrUploadChunk, len(res.UploadURLs), n)
	}

	tags := make([]string, n)
	var g errgroup.Group
	if c.chunkConcurrency > 0 {
		g.SetLimit(c.chunkConcurrency)
	}
	for i := range n {
		start, end := chunkBounds(i, size, res.PerSize)
		chunk := data[start:end]
		url := res.UploadURLs[i]
		g.Go(func() error {
			tag, err := c.putChunk(ctx, i, url, chunk)
			if err != nil {
				return err
			}
			tags[i] = tag
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tags, nil
}

func (c *Client) putChunk(ctx context.Context, index int, url string, chunk []byte) (string, error) {
	resp, err := c.http.R().SetContext(ctx).SetBody(chunk).Put(url)
	if err != nil {
		return "", &ChunkError{Index: index, Err: err}
	}
	if !resp.IsSuccess() {
		return "", &ChunkError{Index: index, StatusCode: resp.StatusCode()}
	}
	return resp.Header().Get("Etag"), nil
}
