package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"conference-rag/internal/domain/entity"
	"conference-rag/internal/domain/repository"
)

var _ repository.SessionStore = (*SessionStore)(nil)

// SessionStore 以 JSON 形式把浏览器会话保存在 Redis
type SessionStore struct {
	client *Client
	prefix string
}

// NewSessionStore 创建会话存储
func NewSessionStore(client *Client, prefix string) *SessionStore {
	return &SessionStore{client: client, prefix: prefix}
}

func (s *SessionStore) key(id string) string {
	return s.prefix + id
}

// Get 读取会话，不存在时返回 nil, nil
func (s *SessionStore) Get(ctx context.Context, id string) (*entity.Session, error) {
	raw, err := s.client.Get(ctx, s.key(id))
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess entity.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

// Save 写入会话
func (s *SessionStore) Save(ctx context.Context, sess *entity.Session, ttl time.Duration) error {
	buf, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sess.ID), buf, ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete 删除会话
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
