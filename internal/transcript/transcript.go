// Package transcript keeps a text log of what a device sent to the terminal.
//
// Carriage returns are dropped, bytes outside printable ASCII become '#',
// and each line can be prefixed with a "seconds.microseconds " timestamp
// taken when its first byte arrived. Line state survives across calls, so
// the log does not depend on how the device output was chunked.
package transcript

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

// MaxChunk is the largest chunk the relay hands over in one call and the
// capacity of the line buffer.
const MaxChunk = 2048

const placeholder = '#'

// Logger formats device output into a sanitized line log. A write failure
// closes the log; every later call is a no-op.
type Logger struct {
	w          io.WriteCloser
	timestamps bool
	newLine    bool
	buf        []byte
	now        func() time.Time
	log        *zap.Logger
	disabled   bool
}

// Open creates or opens the transcript at path. With appendLog false an
// existing file is truncated.
func Open(path string, appendLog, timestamps bool, log *zap.Logger) (*Logger, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendLog {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}

	return New(file, timestamps, log), nil
}

// New returns a Logger writing to w
func New(w io.WriteCloser, timestamps bool, log *zap.Logger) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{
		w:          w,
		timestamps: timestamps,
		newLine:    true,
		buf:        make([]byte, 0, MaxChunk+32),
		now:        time.Now,
		log:        log,
	}
}

// Disabled reports whether logging stopped after a write failure
func (l *Logger) Disabled() bool {
	return l.disabled
}

// Write logs p. It always reports success: a broken transcript must never
// interrupt the relay.
func (l *Logger) Write(p []byte) (int, error) {
	if l.disabled {
		return len(p), nil
	}

	for _, b := range p {
		if b == '\r' {
			continue
		}
		if len(l.buf) >= MaxChunk {
			l.flush()
		}
		if l.newLine && l.timestamps {
			t := l.now()
			l.buf = fmt.Appendf(l.buf, "%d.%06d ", t.Unix(), t.Nanosecond()/1000)
		}
		l.newLine = false

		switch {
		case b == '\n':
			l.buf = append(l.buf, b)
			l.flush()
			l.newLine = true
			if l.disabled {
				return len(p), nil
			}
		case b < ' ' || b > '~':
			l.buf = append(l.buf, placeholder)
		default:
			l.buf = append(l.buf, b)
		}
	}
	l.flush()

	return len(p), nil
}

func (l *Logger) flush() {
	if l.disabled || len(l.buf) == 0 {
		l.buf = l.buf[:0]
		return
	}

	_, err := l.w.Write(l.buf)
	l.buf = l.buf[:0]
	if err != nil {
		l.log.Warn("transcript write failed, logging disabled", zap.Error(err))
		l.disabled = true
		l.w.Close()
	}
}

// Close flushes and closes the transcript
func (l *Logger) Close() error {
	if l.disabled {
		return nil
	}
	l.flush()
	if l.disabled {
		return nil
	}
	l.disabled = true
	return l.w.Close()
}
