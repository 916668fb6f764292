package cache

import (
	"context"
	"sync"

	"github.com/sysu-ecnc-dev/staff-movement/backend/internal/domain"
)

type slot struct {
	key   Key
	table domain.Table
}

// Memo 是进程内的缓存，适用于命令行或者测试
type Memo struct {
	mu    sync.Mutex
	slots map[string]slot
}

func NewMemo() *Memo {
	return &Memo{slots: make(map[string]slot)}
}

func (m *Memo) Get(_ context.Context, session string, key Key) (domain.Table, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[session]
	if !ok || s.key != key {
		return domain.Table{}, false, nil
	}
	return s.table, true, nil
}

func (m *Memo) Put(_ context.Context, session string, key Key, t domain.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slots[session] = slot{key: key, table: t}
	return nil
}

func (m *Memo) Invalidate(_ context.Context, session string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.slots, session)
	return nil
}
