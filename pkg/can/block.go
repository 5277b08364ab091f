package can

import (
	"context"
	"errors"
	"time"
)

// DefaultPollInterval is how often Block retries.
const DefaultPollInterval = time.Millisecond

// Block calls op until it returns something other than ErrWouldBlock or
// ctx is done.
func Block(ctx context.Context, op func() error) error {
	return BlockEvery(ctx, DefaultPollInterval, op)
}

// BlockEvery is Block with a custom poll interval.
func BlockEvery(ctx context.Context, interval time.Duration, op func() error) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		err := op()
		if !errors.Is(err, ErrWouldBlock) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Receive waits for a frame from r. BlockingReceivers wait natively,
// other receivers are polled.
func Receive(ctx context.Context, r Receiver) (Frame, error) {
	if br, ok := r.(BlockingReceiver); ok {
		return br.ReceiveContext(ctx)
	}
	var f Frame
	err := Block(ctx, func() (err error) {
		f, err = r.Receive()
		return err
	})
	return f, err
}

// Transmit waits until tx accepts f.
func Transmit(ctx context.Context, tx Transmitter, f Frame) (replaced Frame, err error) {
	err = Block(ctx, func() (err error) {
		replaced, err = tx.Transmit(f)
		return err
	})
	return replaced, err
}
