package can

import (
	"context"
	"errors"
)

// MaxDataLength is the payload limit of a classic CAN frame.
const MaxDataLength = 8

var (
	ErrWouldBlock   = errors.New("can: operation would block")
	ErrDataTooLong  = errors.New("can: data longer than 8 bytes")
	ErrFilterLimit  = errors.New("can: no free filter slot")
	ErrPortDetached = errors.New("can: port detached from bus")
)

// Frame is a classic CAN frame.
type Frame interface {
	ID() ID
	IsExtended() bool
	IsStandard() bool
	IsRemote() bool
	IsData() bool
	// DLC is the data length code. Remote frames carry a DLC but no data.
	DLC() int
	Data() []byte
}

// Transmitter queues frames for transmission.
type Transmitter interface {
	// Transmit queues f without blocking. If a lower priority frame had
	// to be evicted from a mailbox to make room it is returned so the
	// caller can requeue it. ErrWouldBlock means every mailbox is busy.
	Transmit(f Frame) (replaced Frame, err error)
}

// Receiver returns received frames.
type Receiver interface {
	// Receive returns the oldest received frame without blocking, or
	// ErrWouldBlock if none is pending.
	Receive() (Frame, error)
}

// BlockingReceiver is a Receiver able to wait for a frame.
type BlockingReceiver interface {
	Receiver
	ReceiveContext(ctx context.Context) (Frame, error)
}

// MessageFilter configures hardware acceptance filters.
type MessageFilter interface {
	AddFilter(f Filter) error
	ClearFilters() error
	// NumFilters is the number of filter slots, 0 if unknown.
	NumFilters() int
	// NumMasks is the number of slots accepting a mask.
	NumMasks() int
}

// SimpleFrame is a plain Frame implementation.
type SimpleFrame struct {
	id     ID
	remote bool
	dlc    int
	data   []byte
}

var _ Frame = (*SimpleFrame)(nil)

func NewDataFrame(id ID, data []byte) (*SimpleFrame, error) {
	if len(data) > MaxDataLength {
		return nil, ErrDataTooLong
	}
	return &SimpleFrame{
		id:   id,
		dlc:  len(data),
		data: append([]byte(nil), data...),
	}, nil
}

func NewRemoteFrame(id ID, dlc int) (*SimpleFrame, error) {
	if dlc < 0 || dlc > MaxDataLength {
		return nil, ErrDataTooLong
	}
	return &SimpleFrame{id: id, remote: true, dlc: dlc}, nil
}

// Copy returns a SimpleFrame with the contents of f.
func Copy(f Frame) *SimpleFrame {
	return &SimpleFrame{
		id:     f.ID(),
		remote: f.IsRemote(),
		dlc:    f.DLC(),
		data:   append([]byte(nil), f.Data()...),
	}
}

func (f *SimpleFrame) ID() ID           { return f.id }
func (f *SimpleFrame) IsExtended() bool { return f.id.IsExtended() }
func (f *SimpleFrame) IsStandard() bool { return f.id.IsStandard() }
func (f *SimpleFrame) IsRemote() bool   { return f.remote }
func (f *SimpleFrame) IsData() bool     { return !f.remote }
func (f *SimpleFrame) DLC() int         { return f.dlc }
func (f *SimpleFrame) Data() []byte     { return f.data }
