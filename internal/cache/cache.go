package cache

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
	"golang.org/x/crypto/blake2b"
)

// Key 标识一次查询。令牌只保存摘要，不会以明文出现在缓存中
type Key struct {
	Variant     domain.Variant
	StartDate   string
	EndDate     string
	TokenDigest string
}

func NewKey(variant domain.Variant, dr domain.DateRange, token string) Key {
	sum := blake2b.Sum256([]byte(token))
	return Key{
		Variant:     variant,
		StartDate:   dr.StartParam(),
		EndDate:     dr.EndParam(),
		TokenDigest: hex.EncodeToString(sum[:]),
	}
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", k.Variant, k.StartDate, k.EndDate, k.TokenDigest)
}

// Store 每个会话只保留一份结果：用不同的 key 写入时，旧的结果随之失效
type Store interface {
	Get(ctx context.Context, session string, key Key) (domain.Table, bool, error)
	Put(ctx context.Context, session string, key Key, t domain.Table) error
	Invalidate(ctx context.Context, session string) error
}
