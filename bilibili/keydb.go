package bilibili

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

var (
	wbiBucket = []byte("WbiKey")
	mixinName = []byte("mixin")
)

// BoltKeyCache 将 mixin key 持久化到 bbolt，重启后仍可复用
type BoltKeyCache struct {
	db  *bbolt.DB
	ttl time.Duration
	now func() time.Time
}

func OpenBoltKeyCache(path string, ttl time.Duration) (*BoltKeyCache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(wbiBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltKeyCache{db: db, ttl: ttl, now: time.Now}, nil
}

func (b *BoltKeyCache) Close() error {
	if b.db == nil {
		return nil
	}
	slog.Info("[数据库] 正在关闭 bbolt...")
	return b.db.Close()
}

// 存储格式: key|过期时间(unix 纳秒)
func (b *BoltKeyCache) Load() (string, bool) {
	var key string
	var expiresAt int64
	b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(wbiBucket).Get(mixinName)
		if v == nil {
			return nil
		}
		before, after, ok := strings.Cut(string(v), "|")
		if !ok {
			return nil
		}
		ts, err := strconv.ParseInt(after, 10, 64)
		if err != nil {
			return nil
		}
		key, expiresAt = before, ts
		return nil
	})
	if key == "" || !b.now().Before(time.Unix(0, expiresAt)) {
		return "", false
	}
	return key, true
}

func (b *BoltKeyCache) Store(key string) {
	val := key + "|" + strconv.FormatInt(b.now().Add(b.ttl).UnixNano(), 10)
	err := b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(wbiBucket).Put(mixinName, []byte(val))
	})
	if err != nil {
		slog.Error("[数据库] 写入 mixin key 失败", "error", err)
	}
}
