// Package relay runs the event loop that joins the controlling terminal to
// one of several serial devices, reconnecting whenever the device goes away.
package relay

import (
	"context"
	"errors"
	"io"
	"math"
	"time"

	"github.com/allbin/serialcon"
	"github.com/allbin/serialcon/internal/escape"
	"github.com/allbin/serialcon/internal/throttle"
	"github.com/allbin/serialcon/internal/transcript"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// bufferSize is the largest single read from either side
const bufferSize = transcript.MaxChunk

// errQuit ends Run after the user typed <esc>.
var errQuit = errors.New("quit requested")

// Session owns every piece of relay state: the device list position, the
// open device, the escape scanner, the throttle gate and the transcript.
// It is driven by a single goroutine and needs no locking.
type Session struct {
	config     serialcon.Config
	console    int
	out        io.Writer
	connector  *serialcon.Connector
	scanner    *escape.Scanner
	gate       *throttle.Gate
	transcript *transcript.Logger
	dev        *serialcon.Device
	buf        []byte
	log        *zap.Logger
}

// NewSession prepares a relay between the terminal (read from console,
// written to out) and the first of devices that can be opened. The console
// is expected to be in raw mode already.
func NewSession(config serialcon.Config, devices []string, console int, out io.Writer, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}

	connector, err := serialcon.NewConnector(devices, config, log)
	if err != nil {
		return nil, err
	}

	s := &Session{
		config:    config,
		console:   console,
		out:       out,
		connector: connector,
		scanner:   escape.New(config.EscapeChar),
		gate:      throttle.New(config.CharDelay),
		buf:       make([]byte, bufferSize),
		log:       log,
	}

	if config.LogFile != "" {
		s.transcript, err = transcript.Open(config.LogFile, config.AppendLog, config.Timestamps, log)
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Run relays until the user types <esc>. (nil is returned), ctx is
// cancelled (ctx.Err() is returned) or the environment fails (a
// *serialcon.FatalError is returned). Device failures are never returned;
// they lead to the next device in the list being tried.
func (s *Session) Run(ctx context.Context) error {
	defer s.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if s.dev == nil {
			dev, err := s.connector.OpenNext()
			if err != nil {
				return err
			}
			if dev != nil {
				s.dev = dev
				if err := s.announce("[Open " + dev.Path() + "]"); err != nil {
					return err
				}
				// The new device joins the wait set on the next cycle
				continue
			}
		}

		err := s.cycle()
		if err == errQuit {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// cycle performs one readiness wait and handles whatever became ready
func (s *Session) cycle() error {
	fds := make([]unix.PollFd, 0, 2)
	termIdx, devIdx := -1, -1

	if !s.gate.Active() {
		termIdx = len(fds)
		fds = append(fds, unix.PollFd{Fd: int32(s.console), Events: unix.POLLIN})
	}
	dev := s.dev
	if dev != nil {
		devIdx = len(fds)
		fds = append(fds, unix.PollFd{Fd: int32(dev.Fd()), Events: unix.POLLIN})
	}

	n, err := unix.Poll(fds, pollTimeout(s.gate.Timeout(s.config.PollInterval)))
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return &serialcon.FatalError{Op: "poll", Err: err}
	}
	if n == 0 {
		s.gate.Expire()
		return nil
	}

	if termIdx >= 0 && fds[termIdx].Revents != 0 {
		if err := s.fromTerminal(); err != nil {
			return err
		}
	}

	// A forced reconnect above may already have closed dev
	if devIdx >= 0 && s.dev == dev && fds[devIdx].Revents != 0 {
		return s.fromDevice()
	}

	return nil
}

// pollTimeout converts d to a poll(2) timeout in milliseconds, between 1ms
// and the largest value poll accepts without treating it as infinite
func pollTimeout(d time.Duration) int {
	ms := d.Milliseconds()
	if ms < 1 {
		return 1
	}
	if ms > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(ms)
}

// fromTerminal moves one chunk of keystrokes to the device
func (s *Session) fromTerminal() error {
	size := s.gate.ReadSize(len(s.buf))
	n, err := unix.Read(s.console, s.buf[:size])
	if err == unix.EINTR || err == unix.EAGAIN {
		return nil
	}
	if err != nil {
		return &serialcon.FatalError{Op: "read", Err: err}
	}
	if n <= 0 {
		return &serialcon.FatalError{Op: "read", Err: io.EOF}
	}
	s.gate.Arm()

	data, action := s.scanner.Scan(s.buf[:n])
	switch action {
	case escape.Terminate:
		return errQuit
	case escape.Reconnect:
		if s.dev != nil {
			s.log.Debug("reconnect requested", zap.String("device", s.dev.Path()))
			return s.dropDevice()
		}
		return nil
	}

	if s.dev == nil || len(data) == 0 {
		return nil
	}
	if _, err := s.dev.Write(data); err != nil {
		s.log.Debug("device write failed", zap.String("device", s.dev.Path()), zap.Error(err))
		return s.dropDevice()
	}
	return nil
}

// fromDevice moves one chunk of device output to the terminal
func (s *Session) fromDevice() error {
	n, err := s.dev.Read(s.buf)
	if err == unix.EAGAIN {
		return nil
	}
	if err != nil || n == 0 {
		if err == nil {
			err = io.EOF
		}
		s.log.Debug("device read failed", zap.String("device", s.dev.Path()), zap.Error(err))
		return s.dropDevice()
	}

	if s.transcript != nil {
		s.transcript.Write(s.buf[:n])
	}
	if _, err := s.out.Write(s.buf[:n]); err != nil {
		return &serialcon.FatalError{Op: "write", Err: err}
	}
	return nil
}

// dropDevice announces and closes the current device
func (s *Session) dropDevice() error {
	err := s.announce("[Closed]")
	s.dev.Close()
	s.dev = nil
	return err
}

func (s *Session) announce(msg string) error {
	if _, err := io.WriteString(s.out, "\r\n"+msg+"\r\n"); err != nil {
		return &serialcon.FatalError{Op: "write", Err: err}
	}
	return nil
}

// Device returns the currently open device, or nil
func (s *Session) Device() *serialcon.Device {
	return s.dev
}

// Close releases the open device and the transcript
func (s *Session) Close() error {
	var errs []error
	if s.dev != nil {
		errs = append(errs, s.dev.Close())
		s.dev = nil
	}
	if s.transcript != nil {
		errs = append(errs, s.transcript.Close())
	}
	return errors.Join(errs...)
}
