// Package can is a small hardware abstraction for CAN controllers.
//
// Drivers implement Transmitter, Receiver and MessageFilter with
// non-blocking semantics: an operation that can not complete right away
// returns ErrWouldBlock. Block turns such an operation into a blocking
// one, drivers that can wait on the hardware implement BlockingReceiver.
package can

import "fmt"

const (
	MaxStandardID = 0x7FF
	MaxExtendedID = 0x1FFFFFFF
)

// ID is an 11 bit standard or 29 bit extended identifier.
type ID struct {
	raw      uint32
	extended bool
}

// StandardID panics if id does not fit in 11 bits.
func StandardID(id uint16) ID {
	v, ok := NewStandardID(id)
	if !ok {
		panic(fmt.Sprintf("can: standard id 0x%X out of range", id))
	}
	return v
}

// ExtendedID panics if id does not fit in 29 bits.
func ExtendedID(id uint32) ID {
	v, ok := NewExtendedID(id)
	if !ok {
		panic(fmt.Sprintf("can: extended id 0x%X out of range", id))
	}
	return v
}

func NewStandardID(id uint16) (ID, bool) {
	if id > MaxStandardID {
		return ID{}, false
	}
	return ID{raw: uint32(id)}, true
}

func NewExtendedID(id uint32) (ID, bool) {
	if id > MaxExtendedID {
		return ID{}, false
	}
	return ID{raw: id, extended: true}, true
}

func (id ID) Raw() uint32      { return id.raw }
func (id ID) IsExtended() bool { return id.extended }
func (id ID) IsStandard() bool { return !id.extended }

// width is the mask of valid identifier bits.
func (id ID) width() uint32 {
	if id.extended {
		return MaxExtendedID
	}
	return MaxStandardID
}

func (id ID) String() string {
	if id.extended {
		return fmt.Sprintf("0x%08X", id.raw)
	}
	return fmt.Sprintf("0x%03X", id.raw)
}
