package can

import (
	"context"
	"sync"
)

// Defaults of a loopback port.
const (
	DefaultQueueSize   = 64
	DefaultFilterSlots = 16
)

// Loopback is an in-memory bus. Frames transmitted on one port are
// delivered to every other attached port whose filters accept them.
type Loopback struct {
	mu    sync.Mutex
	ports map[*Port]struct{}
}

func NewLoopback() *Loopback {
	return &Loopback{ports: make(map[*Port]struct{})}
}

// PortOption configures a Port.
type PortOption func(*Port)

// WithQueueSize sets the receive queue length. Frames arriving at a full
// queue are dropped and counted.
func WithQueueSize(n int) PortOption {
	return func(p *Port) {
		if n > 0 {
			p.queueSize = n
		}
	}
}

// WithFilterSlots sets the number of filters the port accepts.
func WithFilterSlots(n int) PortOption {
	return func(p *Port) {
		if n >= 0 {
			p.slots = n
		}
	}
}

// WithEcho also delivers transmitted frames to the sending port.
func WithEcho() PortOption {
	return func(p *Port) {
		p.echo = true
	}
}

// Port is one node on a Loopback bus. Without filters it receives every
// frame.
type Port struct {
	bus       *Loopback
	queueSize int
	slots     int
	echo      bool

	mu       sync.Mutex
	queue    []Frame
	filters  []Filter
	dropped  int
	detached bool
	notify   chan struct{}
}

var (
	_ Transmitter      = (*Port)(nil)
	_ BlockingReceiver = (*Port)(nil)
	_ MessageFilter    = (*Port)(nil)
)

// Attach connects a new port to the bus.
func (l *Loopback) Attach(opts ...PortOption) *Port {
	p := &Port{
		bus:       l,
		queueSize: DefaultQueueSize,
		slots:     DefaultFilterSlots,
		notify:    make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(p)
	}
	l.mu.Lock()
	l.ports[p] = struct{}{}
	l.mu.Unlock()
	return p
}

// Detach removes the port from the bus and wakes blocked receivers.
func (p *Port) Detach() {
	p.bus.mu.Lock()
	delete(p.bus.ports, p)
	p.bus.mu.Unlock()
	p.mu.Lock()
	p.detached = true
	p.mu.Unlock()
	p.wake()
}

func (p *Port) Transmit(f Frame) (Frame, error) {
	p.mu.Lock()
	detached := p.detached
	p.mu.Unlock()
	if detached {
		return nil, ErrPortDetached
	}
	c := Copy(f)
	p.bus.mu.Lock()
	defer p.bus.mu.Unlock()
	for dst := range p.bus.ports {
		if dst == p && !p.echo {
			continue
		}
		dst.deliver(c)
	}
	return nil, nil
}

func (p *Port) deliver(f Frame) {
	p.mu.Lock()
	if !p.acceptsLocked(f.ID()) {
		p.mu.Unlock()
		return
	}
	if len(p.queue) >= p.queueSize {
		p.dropped++
		p.mu.Unlock()
		return
	}
	p.queue = append(p.queue, f)
	p.mu.Unlock()
	p.wake()
}

func (p *Port) wake() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *Port) acceptsLocked(id ID) bool {
	if len(p.filters) == 0 {
		return true
	}
	for _, f := range p.filters {
		if f.Matches(id) {
			return true
		}
	}
	return false
}

func (p *Port) Receive() (Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		if p.detached {
			return nil, ErrPortDetached
		}
		return nil, ErrWouldBlock
	}
	f := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	return f, nil
}

func (p *Port) ReceiveContext(ctx context.Context) (Frame, error) {
	for {
		f, err := p.Receive()
		if err != ErrWouldBlock {
			return f, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.notify:
		}
	}
}

func (p *Port) AddFilter(f Filter) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.filters) >= p.slots {
		return ErrFilterLimit
	}
	p.filters = append(p.filters, f)
	return nil
}

func (p *Port) ClearFilters() error {
	p.mu.Lock()
	p.filters = nil
	p.mu.Unlock()
	return nil
}

func (p *Port) NumFilters() int { return p.slots }
func (p *Port) NumMasks() int   { return p.slots }

// Dropped returns the number of frames lost to a full queue.
func (p *Port) Dropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}
