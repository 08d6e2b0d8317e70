package serialcon

import (
	"sync"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// State is a saved copy of a descriptor's terminal attributes
type State struct {
	termios unix.Termios
}

// makeRaw applies the raw transformation to fd and returns the attributes it
// had before. For device descriptors (speed != 0) software and hardware flow
// control are disabled, modem status lines are ignored and both directions
// are set to speed. The descriptor is left in blocking mode.
func makeRaw(fd int, speed uint32) (*State, error) {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, &FatalError{Op: "tcgetattr", Err: err}
	}
	old := &State{termios: *termios}

	// Same transformation as cfmakeraw(3)
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB
	termios.Cflag |= unix.CS8
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if speed != 0 {
		termios.Iflag &^= unix.IXON | unix.IXOFF
		termios.Cflag |= unix.CLOCAL
		termios.Cflag &^= unix.CRTSCTS

		termios.Cflag = (termios.Cflag &^ unix.CBAUD) | speed
		termios.Ispeed = speed
		termios.Ospeed = speed
	}

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return nil, &FatalError{Op: "tcsetattr", Err: err}
	}

	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return nil, &FatalError{Op: "fcntl F_GETFL", Err: err}
	}
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFL, flags&^unix.O_NONBLOCK); err != nil {
		return nil, &FatalError{Op: "fcntl F_SETFL", Err: err}
	}

	return old, nil
}

// Restore reapplies attributes previously returned by makeRaw
func Restore(fd int, state *State) error {
	if state == nil {
		return nil
	}
	termios := state.termios
	return unix.IoctlSetTermios(fd, unix.TCSETS, &termios)
}

// Console is the controlling terminal switched to raw mode. Its original
// attributes are put back by Restore, which is safe to call from every exit
// path: only the first call touches the terminal.
type Console struct {
	fd    int
	state *State
	once  sync.Once
	err   error
}

// OpenConsole switches fd into raw mode and remembers its previous mode
func OpenConsole(fd int) (*Console, error) {
	if !term.IsTerminal(fd) {
		return nil, &FatalError{Op: "tcgetattr", Err: ErrNotATerminal}
	}

	state, err := makeRaw(fd, 0)
	if err != nil {
		return nil, err
	}

	return &Console{fd: fd, state: state}, nil
}

// Fd returns the console's file descriptor
func (c *Console) Fd() int {
	return c.fd
}

// Restore puts the console back into the mode it had before OpenConsole
func (c *Console) Restore() error {
	c.once.Do(func() {
		c.err = Restore(c.fd, c.state)
	})
	return c.err
}
