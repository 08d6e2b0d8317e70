package serialcon

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Device is an open serial device in raw mode. It is not safe for concurrent
// use; the relay loop is its only owner.
type Device struct {
	fd     int
	path   string
	closed bool
}

// OpenDevice opens the serial device at path without blocking on carrier
// detect and applies the raw mode described by config.
//
// Errors from open(2) itself are returned wrapped around ErrDeviceNotFound,
// ErrPermissionDenied or ErrDeviceInUse where they apply; the caller may move
// on to another device. Failures while configuring an opened descriptor are
// returned as *FatalError.
func OpenDevice(path string, config Config) (*Device, error) {
	speed, err := getBaudRate(config.BaudRate)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, openError(path, err)
	}

	if _, err := makeRaw(fd, speed); err != nil {
		unix.Close(fd)
		var fe *FatalError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return nil, err
	}

	return &Device{fd: fd, path: path}, nil
}

// openError maps open(2) errnos to the package's sentinel errors
func openError(path string, err error) error {
	switch {
	case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENODEV), errors.Is(err, unix.ENXIO):
		return fmt.Errorf("failed to open %s: %w", path, ErrDeviceNotFound)
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return fmt.Errorf("failed to open %s: %w", path, ErrPermissionDenied)
	case errors.Is(err, unix.EBUSY):
		return fmt.Errorf("failed to open %s: %w", path, ErrDeviceInUse)
	default:
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
}

// Path returns the path the device was opened from
func (d *Device) Path() string {
	return d.path
}

// Fd returns the underlying file descriptor
func (d *Device) Fd() int {
	return d.fd
}

// Read reads whatever is available from the device. A return of 0 bytes
// with a nil error means the device reported end of file.
func (d *Device) Read(buf []byte) (int, error) {
	if d.closed {
		return 0, ErrPortClosed
	}

	for {
		n, err := unix.Read(d.fd, buf)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

// Write writes all of data to the device
func (d *Device) Write(data []byte) (int, error) {
	if d.closed {
		return 0, ErrPortClosed
	}

	written := 0
	for written < len(data) {
		n, err := unix.Write(d.fd, data[written:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

// Close closes the device
func (d *Device) Close() error {
	if d.closed {
		return ErrPortClosed
	}

	d.closed = true
	return unix.Close(d.fd)
}
