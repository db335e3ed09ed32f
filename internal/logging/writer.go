package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
)

// Writer is an io.Writer that forwards each line of command output to slog.
type Writer struct {
	mu     sync.Mutex
	logger *slog.Logger
	buf    bytes.Buffer
}

// NewWriter constructs a Writer bound to the provided logger.
func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logger}
}

// Write logs every complete line at info level; a trailing partial line is
// kept until the next write.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// no newline yet, put the fragment back
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.log(line)
	}
	return len(p), nil
}

// Flush logs a trailing line that never got its newline.
func (w *Writer) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() == 0 {
		return
	}
	w.log(w.buf.String())
	w.buf.Reset()
}

func (w *Writer) log(line string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" || w.logger == nil {
		return
	}
	w.logger.Info("command output", "line", line)
}
