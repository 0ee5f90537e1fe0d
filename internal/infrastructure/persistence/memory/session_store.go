// Package memory 提供进程内的会话存储与限流，未启用 Redis 时使用
package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"conference-rag/internal/domain/entity"
	"conference-rag/internal/domain/repository"
)

var _ repository.SessionStore = (*SessionStore)(nil)

// SessionStore 基于 go-cache 的会话存储
// 保存副本，调用方修改返回值不会影响已保存的会话
type SessionStore struct {
	cache *cache.Cache
}

// NewSessionStore 创建会话存储
func NewSessionStore(defaultTTL time.Duration) *SessionStore {
	cleanup := defaultTTL / 2
	if cleanup <= 0 || cleanup > 10*time.Minute {
		cleanup = 10 * time.Minute
	}
	return &SessionStore{cache: cache.New(defaultTTL, cleanup)}
}

// Get 读取会话
func (s *SessionStore) Get(_ context.Context, id string) (*entity.Session, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, nil
	}
	return cloneSession(v.(*entity.Session)), nil
}

// Save 写入会话
func (s *SessionStore) Save(_ context.Context, sess *entity.Session, ttl time.Duration) error {
	s.cache.Set(sess.ID, cloneSession(sess), ttl)
	return nil
}

// Delete 删除会话
func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.cache.Delete(id)
	return nil
}

// Len 当前会话数
func (s *SessionStore) Len() int {
	return s.cache.ItemCount()
}

func cloneSession(in *entity.Session) *entity.Session {
	out := *in
	if in.User != nil {
		u := *in.User
		out.User = &u
	}
	if in.Readiness != nil {
		r := *in.Readiness
		out.Readiness = &r
	}
	if in.Flash != nil {
		f := *in.Flash
		out.Flash = &f
	}
	return &out
}
