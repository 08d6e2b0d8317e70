package cmd

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/allbin/serialcon"
	"github.com/spf13/viper"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func configFrom(t *testing.T, v *viper.Viper) serialcon.Config {
	t.Helper()
	opts, err := optionsFromViper(v)
	if err != nil {
		t.Fatalf("optionsFromViper failed: %v", err)
	}
	config, err := serialcon.NewConfig(opts...)
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	return config
}

func TestOptionsFromViperDefaults(t *testing.T) {
	config := configFrom(t, newTestViper())
	if want := serialcon.DefaultConfig(); config != want {
		t.Errorf("config = %+v, want %+v", config, want)
	}
}

func TestOptionsFromViper(t *testing.T) {
	v := newTestViper()
	v.Set("baud", 9600)
	v.Set("escape", "^]")
	v.Set("log", "/tmp/session.log")
	v.Set("append", true)
	v.Set("timestamp", true)
	v.Set("delay", "5ms")
	v.Set("poll", "20ms")

	config := configFrom(t, v)
	want := serialcon.Config{
		BaudRate:     9600,
		EscapeChar:   0x1d,
		LogFile:      "/tmp/session.log",
		AppendLog:    true,
		Timestamps:   true,
		CharDelay:    5 * time.Millisecond,
		PollInterval: 20 * time.Millisecond,
	}
	if config != want {
		t.Errorf("config = %+v, want %+v", config, want)
	}
}

func TestOptionsFromViperInvalid(t *testing.T) {
	v := newTestViper()
	v.Set("escape", "ab")
	if _, err := optionsFromViper(v); !errors.Is(err, serialcon.ErrInvalidEscape) {
		t.Errorf("Expected ErrInvalidEscape, got %v", err)
	}

	v = newTestViper()
	v.Set("baud", 12345)
	opts, err := optionsFromViper(v)
	if err != nil {
		t.Fatalf("optionsFromViper failed: %v", err)
	}
	if _, err := serialcon.NewConfig(opts...); !errors.Is(err, serialcon.ErrInvalidBaudRate) {
		t.Errorf("Expected ErrInvalidBaudRate, got %v", err)
	}
}

func TestResolveDevices(t *testing.T) {
	listed := []string{"/dev/ttyACM0", "/dev/ttyUSB0"}
	list := func() ([]string, error) { return listed, nil }
	none := func() ([]string, error) { return nil, nil }
	broken := func() ([]string, error) { return nil, errors.New("no /dev") }

	tests := []struct {
		name    string
		args    []string
		devices []string
		auto    bool
		list    func() ([]string, error)
		want    []string
		wantErr error
	}{
		{"args win", []string{"/dev/ttyS0"}, []string{"/dev/ttyS1"}, true, list, []string{"/dev/ttyS0"}, nil},
		{"config devices", nil, []string{"/dev/ttyS1", "/dev/ttyS2"}, true, list, []string{"/dev/ttyS1", "/dev/ttyS2"}, nil},
		{"auto", nil, nil, true, list, listed, nil},
		{"auto finds nothing", nil, nil, true, none, nil, serialcon.ErrNoDevices},
		{"nothing given", nil, nil, false, list, nil, serialcon.ErrNoDevices},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestViper()
			if tt.devices != nil {
				v.Set("devices", tt.devices)
			}
			v.Set("auto", tt.auto)

			got, err := resolveDevices(tt.args, v, tt.list)
			if err != tt.wantErr {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("devices = %v, want %v", got, tt.want)
			}
		})
	}

	v := newTestViper()
	v.Set("auto", true)
	if _, err := resolveDevices(nil, v, broken); err == nil || errors.Is(err, serialcon.ErrNoDevices) {
		t.Errorf("list failure: got %v", err)
	}
}

func TestEscapeName(t *testing.T) {
	tests := []struct {
		b    byte
		want string
	}{
		{'~', "~"},
		{0x1d, "^]"},
		{0x01, "^A"},
		{0x00, "^@"},
		{0x7f, "^?"},
	}
	for _, tt := range tests {
		if got := escapeName(tt.b); got != tt.want {
			t.Errorf("escapeName(%#x) = %q, want %q", tt.b, got, tt.want)
		}
	}
}

func TestPrintBanner(t *testing.T) {
	config, _ := serialcon.NewConfig(serialcon.WithBaudRate(9600), serialcon.WithTranscript("s.log"))

	var buf bytes.Buffer
	printBanner(&buf, []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}, config)

	out := buf.String()
	for _, want := range []string{"/dev/ttyUSB0, /dev/ttyUSB1", "9600 bps", "~. quits", "~n switches", "s.log"} {
		if !strings.Contains(out, want) {
			t.Errorf("banner %q lacks %q", out, want)
		}
	}
}
