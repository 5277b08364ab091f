// Package pcanbasic mirrors the PCAN-Basic C API of PEAK-System.
//
// The vendor library (PCANBasic.dll) and its kernel drivers are not part of
// this module; Load resolves them at run time. Every method of API maps to
// exactly one exported function of the library and returns the raw Status
// the library produced. Use Check to turn a Status into an error.
package pcanbasic

import (
	"errors"
	"time"
)

// DefaultLibrary is the file name the vendor installs the library under.
const DefaultLibrary = "PCANBasic.dll"

// Infinite makes ReceiveEvent.Wait block until the event is signaled.
const Infinite time.Duration = -1

var (
	ErrUnsupportedPlatform = errors.New("pcanbasic: PCAN-Basic is not available on this platform")
	ErrWaitTimeout         = errors.New("pcanbasic: wait timed out")
	ErrEventClosed         = errors.New("pcanbasic: receive event closed")
)

// API is the PCAN-Basic function table.
type API interface {
	// Initialize connects a channel at a BTR0BTR1 bit rate. hwType, ioPort
	// and interrupt are only used by non-PnP hardware and are 0 otherwise.
	// The receive queue starts filling as soon as the call succeeds.
	Initialize(channel Handle, btr0btr1 Baudrate, hwType Type, ioPort uint32, interrupt uint16) Status

	// InitializeFD connects an FD capable channel using an FD bit rate
	// string built from the PCAN_BR_* keys.
	InitializeFD(channel Handle, bitrateFD string) Status

	// Uninitialize releases a channel. PCAN_NONEBUS releases all channels
	// owned by the calling process.
	Uninitialize(channel Handle) Status

	// Reset flushes the receive and transmit queues of a channel.
	Reset(channel Handle) Status

	// GetStatus returns the bus state flags of a channel.
	GetStatus(channel Handle) Status

	// Read dequeues one classic frame. PCAN_ERROR_QRCVEMPTY is returned
	// when nothing is queued. timestamp may be nil.
	Read(channel Handle, msg *Msg, timestamp *Timestamp) Status

	// ReadFD dequeues one FD frame. timestamp may be nil.
	ReadFD(channel Handle, msg *MsgFD, timestamp *TimestampFD) Status

	// Write queues one classic frame for transmission.
	Write(channel Handle, msg *Msg) Status

	// WriteFD queues one FD frame for transmission.
	WriteFD(channel Handle, msg *MsgFD) Status

	// FilterMessages narrows reception to the identifier range
	// [fromID, toID]. Ranges accumulate until the filter is reset through
	// PCAN_MESSAGE_FILTER.
	FilterMessages(channel Handle, fromID, toID uint32, mode Mode) Status

	// GetValue reads a parameter into buf. The required size depends on
	// the parameter.
	GetValue(channel Handle, param Parameter, buf []byte) Status

	// SetValue writes a parameter from buf.
	SetValue(channel Handle, param Parameter, buf []byte) Status

	// GetErrorText describes a status code. language is a primary language
	// ID: 0x00 system default, 0x07 German, 0x09 English, 0x0A Spanish,
	// 0x0C French, 0x10 Italian.
	GetErrorText(status Status, language uint16) (string, Status)

	// LookUpChannel resolves a parameter string such as
	// "devicetype=PCAN_USB, controllernumber=1" to a channel handle.
	LookUpChannel(parameters string) (Handle, Status)

	// NewReceiveEvent creates an event object suitable for
	// PCAN_RECEIVE_EVENT.
	NewReceiveEvent() (ReceiveEvent, error)
}

// ReceiveEvent is an auto-reset event the library signals when a frame
// has been queued. After a wake up the receive queue must be drained until
// PCAN_ERROR_QRCVEMPTY before the event is signaled again.
type ReceiveEvent interface {
	// Value is the event handle encoded for SetValue(PCAN_RECEIVE_EVENT).
	Value() []byte
	// Wait blocks until the event is signaled or timeout elapses, in which
	// case ErrWaitTimeout is returned. Use Infinite to wait forever.
	Wait(timeout time.Duration) error
	// Close releases the event. The library must not reference it anymore.
	Close() error
}
