// Package session 维护会话到已连接账户的内存映射，
// 网关的所有操作都以会话存在为前置条件。
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"qmt-gateway/internal/model"
)

// ErrNotConnected 表示会话不存在或已断开。
var ErrNotConnected = errors.New("account not connected")

// Session 为一次账户连接的会话状态。
type Session struct {
	ID            string
	AccountInfo   model.AccountInfo
	ConnectedTime time.Time
}

// Store 为进程内会话存储。
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewStore 创建会话存储。
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]Session),
	}
}

// Connect 登记账户并返回新会话。会话号由账户与高精度时间戳组成，
// 进程生命周期内保证唯一。
func (s *Store) Connect(info model.AccountInfo) Session {
	now := time.Now()
	sess := Session{
		ID:            fmt.Sprintf("session_%s_%d", info.AccountID, now.UnixNano()),
		AccountInfo:   info,
		ConnectedTime: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess
}

// Disconnect 移除会话。会话不存在时返回 false，不视为错误。
func (s *Store) Disconnect(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return false
	}
	delete(s.sessions, sessionID)
	return true
}

// Get 返回会话对应的账户快照。
func (s *Store) Get(sessionID string) (model.AccountInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return model.AccountInfo{}, ErrNotConnected
	}
	return sess.AccountInfo, nil
}

// IsConnected 判断会话是否存在，全函数无失败路径。
func (s *Store) IsConnected(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.sessions[sessionID]
	return ok
}
