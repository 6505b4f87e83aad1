package editor

import (
	"sync"
	"time"

	"c2papreview/internal/logger"
	"c2papreview/pkg/domain"
)

// Session 编辑器会话，存活期与子窗口一致
type Session struct {
	WindowID  domain.WindowID
	Source    []byte
	CreatedAt time.Time
}

// Sessions 编辑器会话表
type Sessions struct {
	mu       sync.RWMutex
	sessions map[domain.WindowID]*Session
	log      logger.Logger
}

// NewSessions 创建会话表
func NewSessions(l logger.Logger) *Sessions {
	if l == nil {
		l = logger.NewNop()
	}
	return &Sessions{
		sessions: make(map[domain.WindowID]*Session),
		log:      l,
	}
}

// Create 创建并登记会话
func (m *Sessions) Create(id domain.WindowID, src []byte) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Session{WindowID: id, Source: src, CreatedAt: time.Now()}
	m.sessions[id] = s
	m.log.Info("创建编辑器会话", "windowID", string(id), "size", len(src))
	return s
}

// Get 获取会话
func (m *Sessions) Get(id domain.WindowID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Take 取出并移除会话，同一会话只会被取出一次
func (m *Sessions) Take(id domain.WindowID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	return s, ok
}

// Delete 销毁会话
func (m *Sessions) Delete(id domain.WindowID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return
	}
	delete(m.sessions, id)
	m.log.Info("销毁编辑器会话", "windowID", string(id))
}

// Len 返回活动会话数量
func (m *Sessions) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
