package pcan

import (
	"fmt"

	"github.com/roffe/pcan/pkg/pcanbasic"
)

// BusState is the error state of the CAN controller.
type BusState uint8

const (
	BusActive BusState = iota
	BusLight
	BusHeavy
	BusPassive
	BusOff
)

func (s BusState) String() string {
	switch s {
	case BusActive:
		return "error active"
	case BusLight:
		return "bus light"
	case BusHeavy:
		return "bus heavy"
	case BusPassive:
		return "error passive"
	case BusOff:
		return "bus off"
	default:
		return fmt.Sprintf("BusState(%d)", uint8(s))
	}
}

// Flags GetStatus may report besides the bus state without the channel
// being unusable.
const reportedFlags = pcanbasic.PCAN_ERROR_ANYBUSERR |
	pcanbasic.PCAN_ERROR_XMTFULL |
	pcanbasic.PCAN_ERROR_OVERRUN |
	pcanbasic.PCAN_ERROR_QRCVEMPTY |
	pcanbasic.PCAN_ERROR_QOVERRUN |
	pcanbasic.PCAN_ERROR_QXMTFULL

func busState(st pcanbasic.Status) BusState {
	switch {
	case st.Has(pcanbasic.PCAN_ERROR_BUSOFF):
		return BusOff
	case st.Has(pcanbasic.PCAN_ERROR_BUSPASSIVE):
		return BusPassive
	case st.Has(pcanbasic.PCAN_ERROR_BUSHEAVY):
		return BusHeavy
	case st.Has(pcanbasic.PCAN_ERROR_BUSLIGHT):
		return BusLight
	default:
		return BusActive
	}
}

// Status reads the bus state with CAN_GetStatus. Queue flags reported
// alongside are logged, other codes are returned as errors.
func (i *Interface) Status() (BusState, error) {
	if err := i.checkOpen(); err != nil {
		return BusActive, err
	}
	st := i.api.GetStatus(i.channel)
	if st&^reportedFlags != 0 {
		return BusActive, i.wrap("get status", st)
	}
	if q := st &^ pcanbasic.PCAN_ERROR_ANYBUSERR; q != 0 {
		i.log.Printf("%s: %s", i.channel, q)
	}
	return busState(st), nil
}
