package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/shellagent/types"
)

// RecordingLogger 是 shelllog.Logger 的模拟实现，按顺序保存所有记录
type RecordingLogger struct {
	mu      sync.Mutex
	entries []types.LogEntry
	err     error
	failAt  int
}

// NewRecordingLogger 创建 RecordingLogger
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{failAt: -1}
}

// WithErrorAt 让第 n 条记录（从 0 开始）返回 err，且不保存该记录
func (l *RecordingLogger) WithErrorAt(n int, err error) *RecordingLogger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failAt = n
	l.err = err
	return l
}

// Log implements shelllog.Logger.
func (l *RecordingLogger) Log(_ context.Context, entry types.LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failAt >= 0 && len(l.entries) == l.failAt {
		return l.err
	}
	l.entries = append(l.entries, entry)
	return nil
}

// Entries 返回已保存的记录
func (l *RecordingLogger) Entries() []types.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]types.LogEntry(nil), l.entries...)
}
