// Package pcan drives PEAK-System CAN interfaces through PCAN-Basic and
// exposes a channel with the interfaces of package can.
package pcan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/roffe/pcan/pkg/can"
	"github.com/roffe/pcan/pkg/pcanbasic"
)

// eventPoll bounds a single wait on the receive event so cancellation is
// noticed even when no frame arrives.
const eventPoll = 50 * time.Millisecond

// Interface is an initialized PCAN channel.
type Interface struct {
	api           pcanbasic.API
	channel       pcanbasic.Handle
	log           *log.Logger
	event         pcanbasic.ReceiveEvent
	writeAttempts uint

	mu     sync.Mutex
	closed bool
	stats  Stats
}

var (
	_ can.Transmitter      = (*Interface)(nil)
	_ can.BlockingReceiver = (*Interface)(nil)
	_ can.MessageFilter    = (*Interface)(nil)
)

// Open initializes a channel, disables status frames unless asked for,
// registers a receive event and discards anything received in between.
// If any step after the initialization fails the channel is released.
func Open(api pcanbasic.API, opts ...Opts) (*Interface, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		if err := o(&cfg); err != nil {
			return nil, err
		}
	}
	i := &Interface{
		api:           api,
		channel:       cfg.channel,
		log:           cfg.logger,
		writeAttempts: cfg.writeAttempts,
	}
	if cfg.listenOnly {
		if err := pcanbasic.SetBool(api, cfg.channel, pcanbasic.PCAN_LISTEN_ONLY, true); err != nil {
			return nil, fmt.Errorf("pcan: listen only %s: %w", cfg.channel, err)
		}
	}
	if err := i.wrap("initialize", api.Initialize(cfg.channel, cfg.baudrate, 0, 0, 0)); err != nil {
		return nil, err
	}
	if err := i.setup(cfg); err != nil {
		if i.event != nil {
			i.event.Close()
		}
		api.Uninitialize(cfg.channel)
		return nil, err
	}
	i.log.Printf("opened %s at BTR0BTR1 0x%04X", cfg.channel, uint16(cfg.baudrate))
	return i, nil
}

func (i *Interface) setup(cfg config) error {
	if err := pcanbasic.SetBool(i.api, i.channel, pcanbasic.PCAN_ALLOW_STATUS_FRAMES, cfg.statusFrames); err != nil {
		return fmt.Errorf("pcan: status frames %s: %w", i.channel, err)
	}
	ev, err := i.api.NewReceiveEvent()
	if err != nil {
		return fmt.Errorf("pcan: create receive event: %w", err)
	}
	i.event = ev
	if err := i.wrap("set receive event", i.api.SetValue(i.channel, pcanbasic.PCAN_RECEIVE_EVENT, ev.Value())); err != nil {
		return err
	}
	n, err := i.drain()
	if err != nil {
		return err
	}
	if n > 0 {
		i.log.Printf("%s: discarded %d frames received during setup", i.channel, n)
	}
	return nil
}

// drain empties the receive queue.
func (i *Interface) drain() (int, error) {
	n := 0
	for {
		var msg pcanbasic.Msg
		st := i.api.Read(i.channel, &msg, nil)
		switch st {
		case pcanbasic.PCAN_ERROR_OK:
			n++
		case pcanbasic.PCAN_ERROR_QRCVEMPTY:
			i.mu.Lock()
			i.stats.Discarded += uint64(n)
			i.mu.Unlock()
			return n, nil
		default:
			return n, i.wrap("read", st)
		}
	}
}

// Channel returns the handle the interface was opened on.
func (i *Interface) Channel() pcanbasic.Handle {
	return i.channel
}

// Close detaches the receive event and releases the channel. Calling it
// again is a no-op.
func (i *Interface) Close() error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return nil
	}
	i.closed = true
	i.mu.Unlock()

	var errs []error
	if err := i.wrap("clear receive event", i.api.SetValue(i.channel, pcanbasic.PCAN_RECEIVE_EVENT, make([]byte, len(i.event.Value())))); err != nil {
		errs = append(errs, err)
	}
	if err := i.event.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := i.wrap("uninitialize", i.api.Uninitialize(i.channel)); err != nil {
		errs = append(errs, err)
	}
	i.log.Printf("closed %s", i.channel)
	return errors.Join(errs...)
}

func (i *Interface) checkOpen() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return ErrClosed
	}
	return nil
}

// Transmit queues f in the driver's transmit queue. It never blocks, a
// full queue is reported as can.ErrWouldBlock. Nothing is ever replaced.
func (i *Interface) Transmit(f can.Frame) (can.Frame, error) {
	if err := i.checkOpen(); err != nil {
		return nil, err
	}
	pf, err := FromFrame(f)
	if err != nil {
		return nil, err
	}
	msg := pf.msg
	if err := i.queueError("write", i.api.Write(i.channel, &msg)); err != nil {
		i.count(func(s *Stats) { s.Errors++ })
		return nil, err
	}
	i.count(func(s *Stats) { s.Sent++ })
	return nil, nil
}

// Write transmits f, waiting while the transmit queue is full.
func (i *Interface) Write(ctx context.Context, f can.Frame) error {
	return retry.Do(
		func() error {
			_, err := i.Transmit(f)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(i.writeAttempts),
		retry.Delay(time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, can.ErrWouldBlock)
		}),
		retry.LastErrorOnly(true),
	)
}

// Receive returns the next frame or can.ErrWouldBlock.
func (i *Interface) Receive() (can.Frame, error) {
	if err := i.checkOpen(); err != nil {
		return nil, err
	}
	f := &Frame{}
	if err := i.queueError("read", i.api.Read(i.channel, &f.msg, &f.ts)); err != nil {
		if !errors.Is(err, can.ErrWouldBlock) {
			i.count(func(s *Stats) { s.Errors++ })
		}
		return nil, err
	}
	i.count(func(s *Stats) { s.Received++ })
	return f, nil
}

// ReceiveContext waits on the receive event until a frame arrives, an
// error occurs or ctx is done.
func (i *Interface) ReceiveContext(ctx context.Context) (can.Frame, error) {
	for {
		f, err := i.Receive()
		if !errors.Is(err, can.ErrWouldBlock) {
			return f, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch err := i.event.Wait(eventPoll); {
		case err == nil, errors.Is(err, pcanbasic.ErrWaitTimeout):
		case errors.Is(err, pcanbasic.ErrEventClosed):
			return nil, ErrClosed
		default:
			return nil, fmt.Errorf("pcan: wait for receive event: %w", err)
		}
	}
}

// ReceiveBlocking waits without a deadline.
func (i *Interface) ReceiveBlocking() (can.Frame, error) {
	return i.ReceiveContext(context.Background())
}

// Reset clears the receive and transmit queues.
func (i *Interface) Reset() error {
	if err := i.checkOpen(); err != nil {
		return err
	}
	return i.wrap("reset", i.api.Reset(i.channel))
}
