package serialcon

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// openPty returns a pseudo-terminal pair standing in for a serial device:
// the slave's path is what gets opened, the master plays the remote end.
func openPty(t *testing.T) (master, slave *os.File) {
	t.Helper()
	master, slave, err := pty.Open()
	if err != nil {
		t.Skipf("pseudo-terminals not available: %v", err)
	}
	t.Cleanup(func() {
		master.Close()
		slave.Close()
	})
	return master, slave
}

// readN reads exactly n bytes from r or fails the test after a timeout
func readN(t *testing.T, r io.Reader, n int) []byte {
	t.Helper()
	ch := make(chan []byte, 1)
	go func() {
		buf := make([]byte, n)
		got, _ := io.ReadFull(r, buf)
		ch <- buf[:got]
	}()

	select {
	case b := <-ch:
		return b
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out reading %d bytes", n)
		return nil
	}
}

func TestOpenDeviceRawMode(t *testing.T) {
	_, slave := openPty(t)

	config, err := NewConfig(WithBaudRate(9600))
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}

	dev, err := OpenDevice(slave.Name(), config)
	if err != nil {
		t.Fatalf("OpenDevice failed: %v", err)
	}
	defer dev.Close()

	if dev.Path() != slave.Name() {
		t.Errorf("Path() = %q, want %q", dev.Path(), slave.Name())
	}

	termios, err := unix.IoctlGetTermios(dev.Fd(), unix.TCGETS)
	if err != nil {
		t.Fatalf("tcgetattr failed: %v", err)
	}

	if termios.Lflag&(unix.ICANON|unix.ECHO|unix.ISIG) != 0 {
		t.Errorf("Lflag %#x still has ICANON/ECHO/ISIG", termios.Lflag)
	}
	if termios.Iflag&(unix.IXON|unix.IXOFF) != 0 {
		t.Errorf("Iflag %#x still has software flow control", termios.Iflag)
	}
	if termios.Oflag&unix.OPOST != 0 {
		t.Errorf("Oflag %#x still has OPOST", termios.Oflag)
	}
	if termios.Cflag&unix.CLOCAL == 0 {
		t.Errorf("Cflag %#x lacks CLOCAL", termios.Cflag)
	}
	if termios.Cflag&unix.CRTSCTS != 0 {
		t.Errorf("Cflag %#x still has CRTSCTS", termios.Cflag)
	}
	if termios.Cflag&unix.CBAUD != unix.B9600 {
		t.Errorf("speed bits = %#x, want B9600 (%#x)", termios.Cflag&unix.CBAUD, unix.B9600)
	}

	flags, err := unix.FcntlInt(uintptr(dev.Fd()), unix.F_GETFL, 0)
	if err != nil {
		t.Fatalf("fcntl failed: %v", err)
	}
	if flags&unix.O_NONBLOCK != 0 {
		t.Error("device left in non-blocking mode")
	}
}

func TestOpenNonExistentDevice(t *testing.T) {
	_, err := OpenDevice("/dev/nonexistent-serialcon", DefaultConfig())
	if err == nil {
		t.Fatal("Expected error when opening non-existent device")
	}
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Expected ErrDeviceNotFound, got %v", err)
	}
	if IsFatal(err) {
		t.Error("a missing device must not be fatal")
	}
}

func TestOpenDeviceNotATerminal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain-file")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, err := OpenDevice(path, DefaultConfig())
	if err == nil {
		t.Fatal("Expected error configuring a regular file")
	}

	var fe *FatalError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected *FatalError, got %T: %v", err, err)
	}
	if fe.Op != "tcgetattr" {
		t.Errorf("Op = %q, want tcgetattr", fe.Op)
	}
	if fe.Path != path {
		t.Errorf("Path = %q, want %q", fe.Path, path)
	}
}

func TestOpenDeviceInvalidBaudRate(t *testing.T) {
	_, slave := openPty(t)

	config := DefaultConfig()
	config.BaudRate = 12345

	_, err := OpenDevice(slave.Name(), config)
	if !errors.Is(err, ErrInvalidBaudRate) {
		t.Errorf("Expected ErrInvalidBaudRate, got %v", err)
	}
}

func TestDeviceReadWrite(t *testing.T) {
	master, slave := openPty(t)

	dev, err := OpenDevice(slave.Name(), DefaultConfig())
	if err != nil {
		t.Fatalf("OpenDevice failed: %v", err)
	}
	defer dev.Close()

	n, err := dev.Write([]byte("AT\r\n"))
	if err != nil || n != 4 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if got := readN(t, master, 4); string(got) != "AT\r\n" {
		t.Errorf("remote end read %q, want %q", got, "AT\r\n")
	}

	if _, err := master.Write([]byte("OK")); err != nil {
		t.Fatalf("master write failed: %v", err)
	}
	if got := readN(t, dev, 2); string(got) != "OK" {
		t.Errorf("device read %q, want %q", got, "OK")
	}
}

func TestDeviceClose(t *testing.T) {
	_, slave := openPty(t)

	dev, err := OpenDevice(slave.Name(), DefaultConfig())
	if err != nil {
		t.Fatalf("OpenDevice failed: %v", err)
	}

	if err := dev.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := dev.Close(); err != ErrPortClosed {
		t.Errorf("second Close = %v, want ErrPortClosed", err)
	}
	if _, err := dev.Read(make([]byte, 1)); err != ErrPortClosed {
		t.Errorf("Read after Close = %v, want ErrPortClosed", err)
	}
	if _, err := dev.Write([]byte("x")); err != ErrPortClosed {
		t.Errorf("Write after Close = %v, want ErrPortClosed", err)
	}
}
