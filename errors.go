package serialcon

import (
	"errors"
	"fmt"
)

// Predefined error types for robust error handling
var (
	ErrDeviceNotFound   = errors.New("serial device not found")
	ErrPermissionDenied = errors.New("permission denied accessing serial device")
	ErrDeviceInUse      = errors.New("serial device already in use")
	ErrInvalidBaudRate  = errors.New("invalid baud rate")
	ErrInvalidConfig    = errors.New("invalid serial configuration")
	ErrPortClosed       = errors.New("serial port is closed")

	// Relay setup errors
	ErrNotATerminal  = errors.New("not a terminal")
	ErrNoDevices     = errors.New("no serial devices configured")
	ErrInvalidEscape = errors.New("invalid escape character")
)

// FatalError reports a failure of the execution environment itself: terminal
// attributes that cannot be read or written, a line speed the driver rejects,
// or a readiness wait that fails. Unlike a device read or write error these
// are never retried.
type FatalError struct {
	Op   string // operation that failed, e.g. "tcsetattr"
	Path string // device path, empty for the controlling terminal
	Err  error
}

func (e *FatalError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err, or any error it wraps, is a *FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
