package publish

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// WriterNotifier prints acknowledgments as "[title] message" lines.
type WriterNotifier struct {
	w      io.Writer
	logger *slog.Logger
}

// NewWriterNotifier constructs a WriterNotifier writing to w.
func NewWriterNotifier(w io.Writer, logger *slog.Logger) *WriterNotifier {
	return &WriterNotifier{w: w, logger: logger}
}

// Acknowledge writes the message; write failures are logged and otherwise ignored.
func (n *WriterNotifier) Acknowledge(_ context.Context, title, message string) {
	if n.w == nil {
		return
	}
	if _, err := fmt.Fprintf(n.w, "[%s] %s\n", title, message); err != nil && n.logger != nil {
		n.logger.Warn("failed to print acknowledgment", "title", title, "error", err)
	}
}
