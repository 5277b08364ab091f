package pcan

import (
	"fmt"
	"io"
	"log"

	"github.com/roffe/pcan/pkg/pcanbasic"
)

// DefaultBaudrate is 125 kbit/s with the sample point at 75 %.
const DefaultBaudrate pcanbasic.Baudrate = 0x033A

// DefaultWriteAttempts bounds how often Write retries a full transmit
// queue.
const DefaultWriteAttempts = 100

type config struct {
	channel       pcanbasic.Handle
	baudrate      pcanbasic.Baudrate
	listenOnly    bool
	statusFrames  bool
	writeAttempts uint
	logger        *log.Logger
}

func defaultConfig() config {
	return config{
		channel:       pcanbasic.PCAN_USBBUS1,
		baudrate:      DefaultBaudrate,
		writeAttempts: DefaultWriteAttempts,
		logger:        log.New(io.Discard, "", 0),
	}
}

type Opts func(c *config) error

func OptChannel(ch pcanbasic.Handle) Opts {
	return func(c *config) error {
		c.channel = ch
		return nil
	}
}

// OptChannelName takes a channel name as accepted by pcanbasic.ParseHandle.
func OptChannelName(name string) Opts {
	return func(c *config) error {
		h, err := pcanbasic.ParseHandle(name)
		if err != nil {
			return err
		}
		c.channel = h
		return nil
	}
}

// OptBaudrate sets a raw BTR0BTR1 value.
func OptBaudrate(btr0btr1 pcanbasic.Baudrate) Opts {
	return func(c *config) error {
		if btr0btr1 == 0 {
			return fmt.Errorf("pcan: invalid BTR0BTR1 value 0")
		}
		c.baudrate = btr0btr1
		return nil
	}
}

// OptBitrate selects the predefined BTR0BTR1 value for a bit rate in bit/s.
func OptBitrate(bitrate int) Opts {
	return func(c *config) error {
		b, err := pcanbasic.BaudrateFor(bitrate)
		if err != nil {
			return err
		}
		c.baudrate = b
		return nil
	}
}

// OptListenOnly opens the channel without acknowledging or sending frames.
func OptListenOnly(enabled bool) Opts {
	return func(c *config) error {
		c.listenOnly = enabled
		return nil
	}
}

// OptStatusFrames keeps the driver's status frames in the receive queue.
// They are disabled by default.
func OptStatusFrames(enabled bool) Opts {
	return func(c *config) error {
		c.statusFrames = enabled
		return nil
	}
}

func OptWriteAttempts(n uint) Opts {
	return func(c *config) error {
		if n == 0 {
			return fmt.Errorf("pcan: write attempts must be at least 1")
		}
		c.writeAttempts = n
		return nil
	}
}

func OptLogger(l *log.Logger) Opts {
	return func(c *config) error {
		if l != nil {
			c.logger = l
		}
		return nil
	}
}
