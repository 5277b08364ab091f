package pcan

import (
	"context"
	"fmt"

	"github.com/roffe/pcan/pkg/can"
)

// Rx is the receiving half of a split Interface.
type Rx struct {
	i *Interface
}

// Tx is the transmitting half of a split Interface.
type Tx struct {
	i *Interface
}

var (
	_ can.BlockingReceiver = (*Rx)(nil)
	_ can.MessageFilter    = (*Rx)(nil)
	_ can.Transmitter      = (*Tx)(nil)
)

// Split hands out the two directions separately so they can be owned by
// different goroutines. The receive side starts with the filter closed and
// an empty queue, a filter has to be added before anything is received.
// Close the Interface to release both.
func (i *Interface) Split() (*Rx, *Tx, error) {
	if err := i.ClearFilters(); err != nil {
		return nil, nil, err
	}
	n, err := i.drain()
	if err != nil {
		return nil, nil, fmt.Errorf("pcan: split: %w", err)
	}
	if n > 0 {
		i.log.Printf("%s: split discarded %d frames", i.channel, n)
	}
	return &Rx{i: i}, &Tx{i: i}, nil
}

func (r *Rx) Receive() (can.Frame, error) { return r.i.Receive() }
func (r *Rx) ReceiveContext(ctx context.Context) (can.Frame, error) {
	return r.i.ReceiveContext(ctx)
}
func (r *Rx) ReceiveBlocking() (can.Frame, error) { return r.i.ReceiveBlocking() }
func (r *Rx) AddFilter(f can.Filter) error       { return r.i.AddFilter(f) }
func (r *Rx) ClearFilters() error                { return r.i.ClearFilters() }
func (r *Rx) NumFilters() int                    { return r.i.NumFilters() }
func (r *Rx) NumMasks() int                      { return r.i.NumMasks() }

func (t *Tx) Transmit(f can.Frame) (can.Frame, error)      { return t.i.Transmit(f) }
func (t *Tx) Write(ctx context.Context, f can.Frame) error { return t.i.Write(ctx, f) }
