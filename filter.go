package pcan

import (
	"encoding/binary"
	"fmt"

	"github.com/roffe/pcan/pkg/can"
	"github.com/roffe/pcan/pkg/pcanbasic"
)

// A PCAN channel has a single acceptance code/mask per identifier kind.
const numFilters = 1

func (i *Interface) filterState() (uint32, error) {
	v, err := pcanbasic.GetUint32(i.api, i.channel, pcanbasic.PCAN_MESSAGE_FILTER)
	if err != nil {
		return 0, fmt.Errorf("pcan: message filter %s: %w", i.channel, err)
	}
	return v, nil
}

func (i *Interface) setFilterState(state uint32) error {
	if err := pcanbasic.SetUint32(i.api, i.channel, pcanbasic.PCAN_MESSAGE_FILTER, state); err != nil {
		return fmt.Errorf("pcan: message filter %s: %w", i.channel, err)
	}
	return nil
}

// AddFilter installs f as the channel's acceptance filter. Only one
// filter can be active, a second one fails with ErrFilterInUse until
// ClearFilters is called.
func (i *Interface) AddFilter(f can.Filter) error {
	if err := i.checkOpen(); err != nil {
		return err
	}
	state, err := i.filterState()
	if err != nil {
		return err
	}
	if state == pcanbasic.PCAN_FILTER_CUSTOM {
		return ErrFilterInUse
	}
	if f.IsAcceptAll() {
		return i.setFilterState(pcanbasic.PCAN_FILTER_OPEN)
	}
	param := pcanbasic.PCAN_ACCEPTANCE_FILTER_11BIT
	width := uint32(can.MaxStandardID)
	if f.ID().IsExtended() {
		param = pcanbasic.PCAN_ACCEPTANCE_FILTER_29BIT
		width = can.MaxExtendedID
	}
	i.log.Printf("%s: acceptance filter %v", i.channel, f)
	return i.wrap("set acceptance filter", i.api.SetValue(i.channel, param, acceptanceValue(f.ID().Raw(), f.Mask(), width)))
}

// acceptanceValue encodes an acceptance filter: the low DWORD is the
// mask, the high DWORD the code, both little-endian. The driver treats
// mask bits set to 1 as "don't care", the inverse of can.Filter.
func acceptanceValue(code, mask, width uint32) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b, ^mask&width)
	binary.LittleEndian.PutUint32(b[4:], code&width)
	return b
}

// AddFilterWithMask accepts identifiers equal to id in the bits set in mask.
func (i *Interface) AddFilterWithMask(id can.ID, mask uint32) error {
	return i.AddFilter(can.NewFilter(id).WithMask(mask))
}

// ClearFilters closes the filter, nothing is received until a filter is
// added again.
func (i *Interface) ClearFilters() error {
	if err := i.checkOpen(); err != nil {
		return err
	}
	return i.setFilterState(pcanbasic.PCAN_FILTER_CLOSE)
}

// FilterRange additionally accepts the identifiers from..to of the kind
// selected by mode.
func (i *Interface) FilterRange(from, to uint32, mode pcanbasic.Mode) error {
	if err := i.checkOpen(); err != nil {
		return err
	}
	return i.wrap("filter messages", i.api.FilterMessages(i.channel, from, to, mode))
}

func (i *Interface) NumFilters() int { return numFilters }
func (i *Interface) NumMasks() int   { return numFilters }
