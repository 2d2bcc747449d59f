package shelllog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/BaSui01/shellagent/types"
	"go.uber.org/zap"
)

// FileLogger appends JSON lines to a file. The file is opened and closed
// for every entry so concurrent appenders interleave whole lines.
//
// Write failures never abort a run: the entry goes to the fallback
// writer instead and Log returns nil.
type FileLogger struct {
	mu       sync.Mutex
	path     string
	fallback io.Writer
	logger   *zap.Logger
}

// NewFileLogger creates a file sink. fallback defaults to stdout.
func NewFileLogger(path string, fallback io.Writer, logger *zap.Logger) *FileLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileLogger{
		path:     path,
		fallback: defaultWriter(fallback),
		logger:   logger.With(zap.String("component", "file_logger"), zap.String("path", path)),
	}
}

// Path returns the target file.
func (f *FileLogger) Path() string { return f.path }

// Log implements Logger.
func (f *FileLogger) Log(_ context.Context, entry types.LogEntry) error {
	line, err := entry.Encode()
	if err != nil {
		return types.NewError(types.ErrLogSinkFailure, "encode log entry").WithCause(err)
	}
	line = append(line, '\n')

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.appendLine(line); err != nil {
		f.logger.Warn("failed to write log file, falling back", zap.Error(err))
		fmt.Fprintf(f.fallback, "Error writing to log file %s: %v\n", f.path, err)
		_, _ = f.fallback.Write(line)
	}
	return nil
}

func (f *FileLogger) appendLine(line []byte) error {
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	// 单次 Write，O_APPEND 保证整行追加
	if _, err := file.Write(line); err != nil {
		_ = file.Close()
		return fmt.Errorf("write log file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}
