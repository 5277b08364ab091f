package pcanbasic

import (
	"fmt"
	"strings"
)

// Error is a non-OK Status together with its description.
type Error struct {
	Status Status
	Text   string
}

func (e *Error) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("pcan status 0x%X", uint32(e.Status))
	}
	return e.Text
}

// Is matches another *Error carrying the same status, so callers can test
// with errors.Is(err, &pcanbasic.Error{Status: PCAN_ERROR_QRCVEMPTY}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Status == e.Status
}

// English is the language ID passed to GetErrorText.
const English uint16 = 0x09

// Check returns nil for PCAN_ERROR_OK. Otherwise the status is described
// by the library, or by a built-in table if the library cannot describe it.
func Check(api API, st Status) error {
	if st == PCAN_ERROR_OK {
		return nil
	}
	if api != nil {
		if text, ret := api.GetErrorText(st, English); ret == PCAN_ERROR_OK && text != "" {
			return &Error{Status: st, Text: text}
		}
	}
	return &Error{Status: st, Text: st.String()}
}

// Has reports whether all bits of flag are set. Bus states are flags and
// may be reported combined with queue states.
func (s Status) Has(flag Status) bool {
	return flag != 0 && s&flag == flag
}

var statusText = []struct {
	status Status
	text   string
}{
	// ILLHANDLE equals ILLCLIENT and contains the ILLNET and ILLHW bits,
	// which in turn overlap HWINUSE, so they are matched first.
	{PCAN_ERROR_ILLHANDLE, "invalid handle"},
	{PCAN_ERROR_ILLNET, "net handle is invalid"},
	{PCAN_ERROR_ILLHW, "hardware handle is invalid"},
	{PCAN_ERROR_XMTFULL, "transmit buffer in CAN controller is full"},
	{PCAN_ERROR_OVERRUN, "CAN controller was read too late"},
	{PCAN_ERROR_BUSLIGHT, "bus error: an error counter reached the 'light' limit"},
	{PCAN_ERROR_BUSHEAVY, "bus error: an error counter reached the 'heavy' limit"},
	{PCAN_ERROR_BUSPASSIVE, "bus error: the CAN controller is error passive"},
	{PCAN_ERROR_BUSOFF, "bus error: the CAN controller is in bus-off state"},
	{PCAN_ERROR_QRCVEMPTY, "receive queue is empty"},
	{PCAN_ERROR_QOVERRUN, "receive queue was read too late"},
	{PCAN_ERROR_QXMTFULL, "transmit queue is full"},
	{PCAN_ERROR_REGTEST, "test of the CAN controller hardware registers failed"},
	{PCAN_ERROR_NODRIVER, "driver not loaded"},
	{PCAN_ERROR_HWINUSE, "hardware already in use by a net"},
	{PCAN_ERROR_NETINUSE, "a client is already connected to the net"},
	{PCAN_ERROR_RESOURCE, "resource cannot be created"},
	{PCAN_ERROR_ILLPARAMTYPE, "invalid parameter"},
	{PCAN_ERROR_ILLPARAMVAL, "invalid parameter value"},
	{PCAN_ERROR_UNKNOWN, "unknown error"},
	{PCAN_ERROR_ILLDATA, "invalid data, function, or action"},
	{PCAN_ERROR_ILLMODE, "driver object state is wrong for the attempted operation"},
	{PCAN_ERROR_CAUTION, "operation succeeded with irregularities"},
	{PCAN_ERROR_INITIALIZE, "channel is not initialized"},
	{PCAN_ERROR_ILLOPERATION, "invalid operation"},
}

// String describes the status without calling into the library. Codes
// that combine several flags are joined with " | ".
func (s Status) String() string {
	if s == PCAN_ERROR_OK {
		return "no error"
	}
	for _, e := range statusText {
		if s == e.status {
			return e.text
		}
	}
	var parts []string
	rest := s
	for _, e := range statusText {
		if rest&e.status == e.status {
			parts = append(parts, e.text)
			rest &^= e.status
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("undefined status 0x%X", uint32(rest)))
	}
	return strings.Join(parts, " | ")
}
