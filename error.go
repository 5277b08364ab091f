package pcan

import (
	"errors"
	"fmt"

	"github.com/roffe/pcan/pkg/can"
	"github.com/roffe/pcan/pkg/pcanbasic"
)

var (
	ErrFilterInUse = errors.New("pcan: cannot configure more than one filter")
	ErrClosed      = errors.New("pcan: interface closed")
	ErrDataTooLong = can.ErrDataTooLong
)

// wrap adds the operation and channel to a non-OK status.
func (i *Interface) wrap(op string, st pcanbasic.Status) error {
	if err := pcanbasic.Check(i.api, st); err != nil {
		return fmt.Errorf("pcan: %s %s: %w", op, i.channel, err)
	}
	return nil
}

// queueError maps the empty and full queue states to can.ErrWouldBlock.
// The vendor error stays in the chain for errors.As.
func (i *Interface) queueError(op string, st pcanbasic.Status) error {
	err := i.wrap(op, st)
	if err == nil {
		return nil
	}
	if st == pcanbasic.PCAN_ERROR_QRCVEMPTY || st == pcanbasic.PCAN_ERROR_QXMTFULL {
		return fmt.Errorf("%w: %w", can.ErrWouldBlock, err)
	}
	return err
}
