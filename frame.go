package pcan

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/roffe/pcan/pkg/can"
	"github.com/roffe/pcan/pkg/pcanbasic"
)

// Frame is a received or outgoing TPCANMsg.
type Frame struct {
	msg pcanbasic.Msg
	ts  pcanbasic.Timestamp
}

var _ can.Frame = (*Frame)(nil)

func NewFrame(id can.ID, data []byte) (*Frame, error) {
	if len(data) > pcanbasic.LENGTH_DATA_CAN_MESSAGE {
		return nil, ErrDataTooLong
	}
	f := &Frame{msg: pcanbasic.Msg{
		ID:      id.Raw(),
		MSGTYPE: msgType(id),
		LEN:     uint8(len(data)),
	}}
	copy(f.msg.DATA[:], data)
	return f, nil
}

func NewRemoteFrame(id can.ID, dlc int) (*Frame, error) {
	if dlc < 0 || dlc > pcanbasic.LENGTH_DATA_CAN_MESSAGE {
		return nil, ErrDataTooLong
	}
	return &Frame{msg: pcanbasic.Msg{
		ID:      id.Raw(),
		MSGTYPE: msgType(id) | pcanbasic.PCAN_MESSAGE_RTR,
		LEN:     uint8(dlc),
	}}, nil
}

// FromFrame converts any can.Frame.
func FromFrame(f can.Frame) (*Frame, error) {
	if pf, ok := f.(*Frame); ok {
		return pf, nil
	}
	if f.IsRemote() {
		return NewRemoteFrame(f.ID(), f.DLC())
	}
	return NewFrame(f.ID(), f.Data())
}

func msgType(id can.ID) pcanbasic.MessageType {
	if id.IsExtended() {
		return pcanbasic.PCAN_MESSAGE_EXTENDED
	}
	return pcanbasic.PCAN_MESSAGE_STANDARD
}

func (f *Frame) ID() can.ID {
	if f.IsExtended() {
		return can.ExtendedID(f.msg.ID & can.MaxExtendedID)
	}
	return can.StandardID(uint16(f.msg.ID & can.MaxStandardID))
}

func (f *Frame) IsExtended() bool { return f.msg.MSGTYPE&pcanbasic.PCAN_MESSAGE_EXTENDED != 0 }
func (f *Frame) IsStandard() bool { return !f.IsExtended() }
func (f *Frame) IsRemote() bool   { return f.msg.MSGTYPE&pcanbasic.PCAN_MESSAGE_RTR != 0 }
func (f *Frame) IsData() bool     { return !f.IsRemote() }
func (f *Frame) DLC() int         { return int(f.msg.LEN) }

func (f *Frame) Data() []byte {
	if f.IsRemote() {
		return nil
	}
	return f.msg.Payload()
}

// IsStatus reports a driver status frame. Its payload carries the
// channel status big-endian in the first four bytes.
func (f *Frame) IsStatus() bool { return f.msg.MSGTYPE&pcanbasic.PCAN_MESSAGE_STATUS != 0 }

// IsError reports an error frame, delivered only with
// PCAN_ALLOW_ERROR_FRAMES enabled.
func (f *Frame) IsError() bool { return f.msg.MSGTYPE&pcanbasic.PCAN_MESSAGE_ERRFRAME != 0 }

// BusStatus decodes a status frame.
func (f *Frame) BusStatus() (pcanbasic.Status, bool) {
	if !f.IsStatus() || f.msg.LEN < 4 {
		return 0, false
	}
	return pcanbasic.Status(binary.BigEndian.Uint32(f.msg.DATA[:4])), true
}

// Timestamp is the reception time relative to the driver start. It is
// zero for frames that were not received.
func (f *Frame) Timestamp() time.Duration {
	return time.Duration(f.ts.Microseconds()) * time.Microsecond
}

// Msg returns the raw vendor message.
func (f *Frame) Msg() pcanbasic.Msg {
	return f.msg
}

func (f *Frame) String() string {
	var out strings.Builder
	out.WriteString(f.ID().String())
	fmt.Fprintf(&out, " [%d]", f.DLC())
	switch {
	case f.IsStatus():
		st, _ := f.BusStatus()
		fmt.Fprintf(&out, " status: %s", st)
	case f.IsRemote():
		out.WriteString(" remote")
	default:
		for _, b := range f.Data() {
			fmt.Fprintf(&out, " %02X", b)
		}
	}
	return out.String()
}
