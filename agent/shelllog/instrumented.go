package shelllog

import (
	"context"

	"github.com/BaSui01/shellagent/internal/metrics"
	"github.com/BaSui01/shellagent/types"
)

// Instrumented counts entries and failures of the wrapped sink.
type Instrumented struct {
	next      Logger
	sink      string
	collector *metrics.Collector
}

// NewInstrumented wraps next; sink labels the metrics.
func NewInstrumented(next Logger, sink Kind, collector *metrics.Collector) *Instrumented {
	return &Instrumented{next: next, sink: string(sink), collector: collector}
}

// Log implements Logger.
func (l *Instrumented) Log(ctx context.Context, entry types.LogEntry) error {
	if err := l.next.Log(ctx, entry); err != nil {
		l.collector.RecordLogFailure(l.sink)
		return err
	}
	l.collector.RecordLogEntry(l.sink, string(entry.Kind))
	return nil
}
