package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
)

// Redis 把结果放在 movement:table:<id>:<key> 中，movement:session:<id> 记录会话当前的 key。
// 结果按会话隔离，一个会话换 key 不会删掉其他会话的结果
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func sessionKey(session string) string {
	return "movement:session:" + session
}

func tableKey(session, key string) string {
	return "movement:table:" + session + ":" + key
}

func (r *Redis) Get(ctx context.Context, session string, key Key) (domain.Table, bool, error) {
	current, err := r.rdb.Get(ctx, sessionKey(session)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Table{}, false, nil
		}
		return domain.Table{}, false, err
	}
	if current != key.String() {
		return domain.Table{}, false, nil
	}

	data, err := r.rdb.Get(ctx, tableKey(session, key.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Table{}, false, nil
		}
		return domain.Table{}, false, err
	}

	var t domain.Table
	if err := json.Unmarshal(data, &t); err != nil {
		return domain.Table{}, false, err
	}
	return t, true, nil
}

func (r *Redis) Put(ctx context.Context, session string, key Key, t domain.Table) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}

	previous, err := r.rdb.Get(ctx, sessionKey(session)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	pipe := r.rdb.TxPipeline()
	// 查询参数变化时删除旧的结果
	if previous != "" && previous != key.String() {
		pipe.Del(ctx, tableKey(session, previous))
	}
	pipe.Set(ctx, tableKey(session, key.String()), data, r.ttl)
	pipe.Set(ctx, sessionKey(session), key.String(), r.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) Invalidate(ctx context.Context, session string) error {
	previous, err := r.rdb.Get(ctx, sessionKey(session)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}
	return r.rdb.Del(ctx, sessionKey(session), tableKey(session, previous)).Err()
}
