package serialcon

import (
	"errors"

	"go.uber.org/zap"
)

// Connector cycles through an ordered list of device paths. Each call to
// OpenNext starts with the entry after the one that produced the previous
// connection, so a device that is present but refuses to open never starves
// the entries behind it.
type Connector struct {
	paths []string
	last  int
	dial  func(path string) (*Device, error)
	log   *zap.Logger
}

// NewConnector returns a Connector over paths. The first OpenNext tries
// paths[0] first.
func NewConnector(paths []string, config Config, log *zap.Logger) (*Connector, error) {
	if len(paths) == 0 {
		return nil, ErrNoDevices
	}
	if _, err := getBaudRate(config.BaudRate); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	c := &Connector{
		paths: append([]string(nil), paths...),
		last:  len(paths) - 1,
		log:   log,
	}
	c.dial = func(path string) (*Device, error) {
		return OpenDevice(path, config)
	}
	return c, nil
}

// Paths returns the configured device list
func (c *Connector) Paths() []string {
	return c.paths
}

// Index returns the list position of the most recently opened device
func (c *Connector) Index() int {
	return c.last
}

// OpenNext tries every configured path at most once, in round-robin order,
// and returns the first device that opens. It returns (nil, nil) when none
// could be opened; the caller is expected to try again later. A *FatalError
// from configuring an opened device is returned as is.
func (c *Connector) OpenNext() (*Device, error) {
	n := len(c.paths)
	for i := 1; i <= n; i++ {
		idx := (c.last + i) % n
		path := c.paths[idx]

		dev, err := c.dial(path)
		if err != nil {
			var fe *FatalError
			if errors.As(err, &fe) {
				return nil, err
			}
			c.log.Debug("open failed", zap.String("device", path), zap.Error(err))
			continue
		}

		c.last = idx
		c.log.Debug("device opened", zap.String("device", path), zap.Int("index", idx))
		return dev, nil
	}
	return nil, nil
}
