package shelllog

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/BaSui01/shellagent/types"
)

// ConsoleLogger writes each entry as one JSON line.
type ConsoleLogger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleLogger writes to w, or to stdout when w is nil.
func NewConsoleLogger(w io.Writer) *ConsoleLogger {
	return &ConsoleLogger{w: defaultWriter(w)}
}

// Log implements Logger.
func (c *ConsoleLogger) Log(_ context.Context, entry types.LogEntry) error {
	line, err := entry.Encode()
	if err != nil {
		return types.NewError(types.ErrLogSinkFailure, "encode log entry").WithCause(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintf(c.w, "%s\n", line); err != nil {
		return types.NewError(types.ErrLogSinkFailure, "write log entry to console").WithCause(err)
	}
	return nil
}
