// Package stm32boot talks to the STM32 system memory bootloader over CAN
// (ST application note AN3154).
package stm32boot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/avast/retry-go"
	"github.com/roffe/pcan/pkg/can"
)

// Command identifiers. Replies come back on the identifier of the command.
const (
	CmdSync  = 0x79
	CmdErase = 0x43
	CmdWrite = 0x31
	CmdGo    = 0x21
	// CmdData carries the payload of a write.
	CmdData = 0x04

	Ack  = 0x79
	Nack = 0x1F

	// BlockSize is the most a single write command takes.
	BlockSize = 256

	DefaultAddress = 0x08000000
)

var replyIDs = []uint16{CmdSync, CmdErase, CmdWrite, CmdGo}

var ErrNotEnoughFilters = errors.New("stm32boot: not enough CAN filters available")

// UnexpectedReplyError is returned when the bootloader answers with
// anything but an ACK on the expected identifier.
type UnexpectedReplyError struct {
	Command uint16
	ID      can.ID
	Data    []byte
}

func (e *UnexpectedReplyError) Error() string {
	if e.ID == can.StandardID(e.Command) && len(e.Data) == 1 && e.Data[0] == Nack {
		return fmt.Sprintf("stm32boot: command 0x%02X: NACK", e.Command)
	}
	return fmt.Sprintf("stm32boot: command 0x%02X: expected ACK, got %s % X", e.Command, e.ID, e.Data)
}

// Bus is what the bootloader needs from a CAN interface.
type Bus interface {
	can.Transmitter
	can.Receiver
	can.MessageFilter
}

type Client struct {
	bus          Bus
	log          *log.Logger
	timeout      time.Duration
	eraseTimeout time.Duration
	syncAttempts uint
	progress     func(written int)
}

type Option func(*Client)

// WithTimeout sets how long to wait for an ACK.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithEraseTimeout sets how long a mass erase may take.
func WithEraseTimeout(d time.Duration) Option {
	return func(c *Client) { c.eraseTimeout = d }
}

// WithSyncAttempts sets how often Enable sends the sync frame.
func WithSyncAttempts(n uint) Option {
	return func(c *Client) {
		if n > 0 {
			c.syncAttempts = n
		}
	}
}

// WithProgress is called with the number of bytes written after every
// block.
func WithProgress(fn func(written int)) Option {
	return func(c *Client) { c.progress = fn }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New installs receive filters for the bootloader replies on bus: one
// filter per reply identifier if there are enough, otherwise a single
// masked filter covering all of them.
func New(bus Bus, opts ...Option) (*Client, error) {
	c := &Client{
		bus:          bus,
		log:          log.New(io.Discard, "", 0),
		timeout:      time.Second,
		eraseTimeout: 30 * time.Second,
		syncAttempts: 5,
	}
	for _, o := range opts {
		o(c)
	}
	ids := make([]can.ID, len(replyIDs))
	for i, id := range replyIDs {
		ids[i] = can.StandardID(id)
	}
	switch {
	case bus.NumFilters() >= len(ids):
		for _, id := range ids {
			if err := bus.AddFilter(can.NewFilter(id)); err != nil {
				return nil, fmt.Errorf("stm32boot: add filter %s: %w", id, err)
			}
		}
	case bus.NumMasks() >= 1:
		f := can.CombineFilter(ids...)
		if err := bus.AddFilter(f); err != nil {
			return nil, fmt.Errorf("stm32boot: add filter %s: %w", f, err)
		}
	default:
		return nil, ErrNotEnoughFilters
	}
	return c, nil
}

func (c *Client) send(ctx context.Context, id uint16, data []byte) error {
	f, err := can.NewDataFrame(can.StandardID(id), data)
	if err != nil {
		return err
	}
	if _, err := can.Transmit(ctx, c.bus, f); err != nil {
		return fmt.Errorf("stm32boot: send 0x%02X: %w", id, err)
	}
	return nil
}

func (c *Client) receiveAck(ctx context.Context, cmd uint16, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	f, err := can.Receive(ctx, c.bus)
	if err != nil {
		return fmt.Errorf("stm32boot: waiting for ACK on 0x%02X: %w", cmd, err)
	}
	if f.ID() != can.StandardID(cmd) || !bytes.Equal(f.Data(), []byte{Ack}) {
		return &UnexpectedReplyError{Command: cmd, ID: f.ID(), Data: append([]byte(nil), f.Data()...)}
	}
	return nil
}

// Enable makes the bootloader lock onto the CAN interface. It listens on
// all its interfaces until the first one receives a sync frame, so the
// sync is repeated until it is acknowledged.
func (c *Client) Enable(ctx context.Context) error {
	return retry.Do(
		func() error {
			if err := c.send(ctx, CmdSync, nil); err != nil {
				return err
			}
			return c.receiveAck(ctx, CmdSync, c.timeout)
		},
		retry.Context(ctx),
		retry.Attempts(c.syncAttempts),
		retry.OnRetry(func(n uint, err error) {
			c.log.Printf("sync attempt %d: %v", n+1, err)
		}),
		retry.LastErrorOnly(true),
	)
}

// Erase runs a global erase of the flash.
func (c *Client) Erase(ctx context.Context) error {
	if err := c.send(ctx, CmdErase, []byte{0xFF}); err != nil {
		return err
	}
	if err := c.receiveAck(ctx, CmdErase, c.timeout); err != nil {
		return err
	}
	return c.receiveAck(ctx, CmdErase, c.eraseTimeout)
}

// Write programs everything read from r starting at addr. It returns the
// number of bytes written.
func (c *Client) Write(ctx context.Context, addr uint32, r io.Reader) (int, error) {
	buf := make([]byte, BlockSize)
	written := 0
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			if werr := c.writeBlock(ctx, addr+uint32(written), buf[:n]); werr != nil {
				return written, werr
			}
			written += n
			if c.progress != nil {
				c.progress(written)
			}
		}
		switch {
		case err == io.EOF || err == io.ErrUnexpectedEOF:
			return written, nil
		case err != nil:
			return written, err
		}
	}
}

func (c *Client) writeBlock(ctx context.Context, addr uint32, block []byte) error {
	header := []byte{byte(addr >> 24), byte(addr >> 16), byte(addr >> 8), byte(addr), byte(len(block) - 1)}
	if err := c.send(ctx, CmdWrite, header); err != nil {
		return err
	}
	if err := c.receiveAck(ctx, CmdWrite, c.timeout); err != nil {
		return fmt.Errorf("write 0x%08X: %w", addr, err)
	}
	for off := 0; off < len(block); off += can.MaxDataLength {
		end := off + can.MaxDataLength
		if end > len(block) {
			end = len(block)
		}
		if err := c.send(ctx, CmdData, block[off:end]); err != nil {
			return err
		}
		if err := c.receiveAck(ctx, CmdWrite, c.timeout); err != nil {
			return fmt.Errorf("write 0x%08X: %w", addr+uint32(off), err)
		}
	}
	if err := c.receiveAck(ctx, CmdWrite, c.timeout); err != nil {
		return fmt.Errorf("write 0x%08X: %w", addr, err)
	}
	return nil
}

// Go jumps to the application at addr.
func (c *Client) Go(ctx context.Context, addr uint32) error {
	if err := c.send(ctx, CmdGo, []byte{byte(addr >> 24), byte(addr >> 16), byte(addr >> 8), byte(addr)}); err != nil {
		return err
	}
	return c.receiveAck(ctx, CmdGo, c.timeout)
}
