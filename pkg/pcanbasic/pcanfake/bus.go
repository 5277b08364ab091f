package pcanfake

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/roffe/pcan/pkg/pcanbasic"
)

// Event is the receive event handed out by NewReceiveEvent. It behaves
// like an auto-reset Win32 event.
type Event struct {
	fake   *Fake
	id     uint64
	ch     chan struct{}
	closed chan struct{}
	once   sync.Once
}

func (e *Event) Value() []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, e.id)
	return b
}

func (e *Event) Wait(timeout time.Duration) error {
	var expired <-chan time.Time
	if timeout >= 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	select {
	case <-e.ch:
		return nil
	case <-e.closed:
		return pcanbasic.ErrEventClosed
	case <-expired:
		return pcanbasic.ErrWaitTimeout
	}
}

func (e *Event) Close() error {
	e.once.Do(func() {
		close(e.closed)
		e.fake.mu.Lock()
		delete(e.fake.events, e.id)
		for _, ch := range e.fake.channels {
			if ch.event == e {
				ch.event = nil
			}
		}
		e.fake.mu.Unlock()
	})
	return nil
}

func (e *Event) signal() {
	select {
	case e.ch <- struct{}{}:
	default:
	}
}

// Events returns the number of receive events that were created and not
// closed yet.
func (f *Fake) Events() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func (ch *channel) accepts(msg pcanbasic.Msg) bool {
	t := msg.MSGTYPE
	switch {
	case t&pcanbasic.PCAN_MESSAGE_STATUS != 0:
		return ch.statusFrames
	case t&pcanbasic.PCAN_MESSAGE_ERRFRAME != 0:
		return ch.errorFrames
	case t&pcanbasic.PCAN_MESSAGE_ECHO != 0:
		return ch.echoFrames
	case t&pcanbasic.PCAN_MESSAGE_RTR != 0 && !ch.rtrFrames:
		return false
	}
	switch ch.filter {
	case pcanbasic.PCAN_FILTER_CLOSE:
		return false
	case pcanbasic.PCAN_FILTER_OPEN:
		return true
	}
	extended := t&pcanbasic.PCAN_MESSAGE_EXTENDED != 0
	for _, r := range ch.ranges {
		if extended == (r.mode == pcanbasic.PCAN_MODE_EXTENDED) && msg.ID >= r.from && msg.ID <= r.to {
			return true
		}
	}
	// Acceptance filters are SJA1000 style: the low DWORD is the mask,
	// the high DWORD the code, and mask bits set to 1 are "don't care".
	if extended {
		return ch.acc29Set && acceptanceMatch(ch.acc29, msg.ID, extMask)
	}
	return ch.acc11Set && acceptanceMatch(ch.acc11, msg.ID, stdMask)
}

func acceptanceMatch(filter uint64, id, width uint32) bool {
	mask := uint32(filter)
	code := uint32(filter >> 32)
	return (id^code)&^mask&width == 0
}

func (f *Fake) enqueueLocked(ch *channel, msg pcanbasic.Msg) bool {
	if !ch.initialized || ch.fd || !ch.accepts(msg) {
		return false
	}
	elapsed := time.Since(f.start)
	ms := uint64(elapsed / time.Millisecond)
	ch.rx = append(ch.rx, rxItem{
		msg: msg,
		ts: pcanbasic.Timestamp{
			Millis:         uint32(ms),
			MillisOverflow: uint16(ms >> 32),
			Micros:         uint16(elapsed % time.Millisecond / time.Microsecond),
		},
	})
	if ch.event != nil {
		ch.event.signal()
	}
	return true
}

// Inject puts a frame on the bus as seen by channel h. It reports whether
// the frame passed the channel's filters and was queued.
func (f *Fake) Inject(h pcanbasic.Handle, msg pcanbasic.Msg) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[h]
	if !ok {
		return false
	}
	return f.enqueueLocked(ch, msg)
}

// InjectFD queues an FD frame on an FD initialized channel.
func (f *Fake) InjectFD(h pcanbasic.Handle, msg pcanbasic.MsgFD) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[h]
	if !ok || !ch.initialized || !ch.fd || ch.filter == pcanbasic.PCAN_FILTER_CLOSE {
		return false
	}
	ch.rxFD = append(ch.rxFD, msg)
	if ch.event != nil {
		ch.event.signal()
	}
	return true
}

// Sent returns the frames written to channel h, oldest first.
func (f *Fake) Sent(h pcanbasic.Handle) []pcanbasic.Msg {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[h]
	if !ok {
		return nil
	}
	return append([]pcanbasic.Msg(nil), ch.tx...)
}

// SentFD returns the FD frames written to channel h.
func (f *Fake) SentFD(h pcanbasic.Handle) []pcanbasic.MsgFD {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[h]
	if !ok {
		return nil
	}
	return append([]pcanbasic.MsgFD(nil), ch.txFD...)
}

// Pending returns the number of frames waiting in the receive queue.
func (f *Fake) Pending(h pcanbasic.Handle) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[h]
	if !ok {
		return 0
	}
	return len(ch.rx) + len(ch.rxFD)
}

// Initialized reports whether channel h is initialized.
func (f *Fake) Initialized(h pcanbasic.Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[h]
	return ok && ch.initialized
}

// Baudrate returns the BTR0BTR1 value channel h was initialized with.
func (f *Fake) Baudrate(h pcanbasic.Handle) pcanbasic.Baudrate {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.channels[h]; ok {
		return ch.btr0btr1
	}
	return 0
}

// SetBusStatus sets what GetStatus reports, e.g. PCAN_ERROR_BUSOFF.
func (f *Fake) SetBusStatus(h pcanbasic.Handle, st pcanbasic.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.channels[h]; ok {
		ch.busStatus = st
	}
}

// SetTxFull makes Write fail with PCAN_ERROR_QXMTFULL while full is set.
func (f *Fake) SetTxFull(h pcanbasic.Handle, full bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.channels[h]; ok {
		ch.txFull = full
	}
}
