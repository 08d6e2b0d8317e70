package serialcon

import (
	"fmt"
	"time"
)

// Config holds the configuration for a relay session
type Config struct {
	BaudRate     int
	EscapeChar   byte          // Sentinel that introduces an in-band command
	LogFile      string        // Transcript path; empty disables the transcript
	AppendLog    bool          // Append to LogFile instead of truncating it
	Timestamps   bool          // Prefix every transcript line with seconds.microseconds
	CharDelay    time.Duration // Inter-character delay for user input; 0 disables throttling
	PollInterval time.Duration // Upper bound on a single readiness wait
}

// Option is a functional option for configuring a relay session
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaudRate:     115200,
		EscapeChar:   '~',
		PollInterval: 100 * time.Millisecond,
	}
}

// NewConfig applies opts on top of DefaultConfig
func NewConfig(opts ...Option) (Config, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return Config{}, err
		}
	}
	return config, nil
}

// WithBaudRate sets the line speed applied to both directions of the device
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if _, err := getBaudRate(rate); err != nil {
			return err
		}
		c.BaudRate = rate
		return nil
	}
}

// WithEscapeChar sets the escape character
func WithEscapeChar(esc byte) Option {
	return func(c *Config) error {
		// '.' and 'n' are command characters and would make the sequence ambiguous
		if esc == '.' || esc == 'n' {
			return ErrInvalidEscape
		}
		c.EscapeChar = esc
		return nil
	}
}

// WithTranscript enables the transcript log at path
func WithTranscript(path string) Option {
	return func(c *Config) error {
		c.LogFile = path
		return nil
	}
}

// WithAppend opens the transcript in append mode
func WithAppend(appendLog bool) Option {
	return func(c *Config) error {
		c.AppendLog = appendLog
		return nil
	}
}

// WithTimestamps prefixes transcript lines with a wall-clock timestamp
func WithTimestamps(enabled bool) Option {
	return func(c *Config) error {
		c.Timestamps = enabled
		return nil
	}
}

// WithCharDelay sets the inter-character delay for user input
func WithCharDelay(delay time.Duration) Option {
	return func(c *Config) error {
		if delay < 0 {
			return ErrInvalidConfig
		}
		c.CharDelay = delay
		return nil
	}
}

// WithPollInterval sets the readiness wait timeout used when not throttling
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) error {
		if interval < time.Millisecond {
			return ErrInvalidConfig
		}
		c.PollInterval = interval
		return nil
	}
}

// ParseEscapeChar parses an escape character given either literally ("~")
// or in caret notation ("^]", "^A").
func ParseEscapeChar(s string) (byte, error) {
	switch {
	case len(s) == 1:
		return s[0], nil
	case len(s) == 2 && s[0] == '^':
		c := s[1]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c == '?' {
			return 0x7f, nil
		}
		if c < '@' || c > '_' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidEscape, s)
		}
		return c - '@', nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidEscape, s)
	}
}
