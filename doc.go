// Package serialcon connects a terminal to serial devices that come and go.
//
// The package opens devices in raw mode, puts the controlling terminal in
// raw mode and restores it, and walks an ordered device list so that a
// relay can fall over to the next device when the current one vanishes.
// The relay loop itself lives in internal/relay.
//
// # Opening a device
//
//	config, err := serialcon.NewConfig(serialcon.WithBaudRate(9600))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	dev, err := serialcon.OpenDevice("/dev/ttyUSB0", config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
// Devices are opened without waiting for carrier detect and with modem
// control lines ignored, 8 data bits, no parity and no flow control.
//
// # Device lists
//
// A Connector tries each configured path once per call, starting after the
// device that was opened last:
//
//	c, err := serialcon.NewConnector([]string{"/dev/ttyUSB0", "/dev/ttyUSB1"}, config, nil)
//	dev, err := c.OpenNext() // nil, nil when nothing could be opened
//
// # Errors
//
// Failures to open a path are reported with ErrDeviceNotFound,
// ErrPermissionDenied or ErrDeviceInUse and are expected to be retried.
// Failures of the environment, such as a terminal that cannot be switched
// to raw mode, are reported as *FatalError; use IsFatal to tell them apart.
//
// # Port discovery
//
//	ports, err := serialcon.ListPorts()
//	for _, path := range ports {
//	    info, _ := serialcon.GetPortInfo(path)
//	    fmt.Printf("%s: %s (VID=%s PID=%s)\n", info.Path, info.Description, info.VendorID, info.ProductID)
//	}
package serialcon
