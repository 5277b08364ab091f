package cmd

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/roffe/pcan/pkg/can"
)

// parseID reads a hexadecimal identifier, the 0x prefix is optional.
// Identifiers above 0x7FF are extended even without the flag.
func parseID(s string, extended bool) (can.ID, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return can.ID{}, fmt.Errorf("invalid id %q: %w", s, err)
	}
	if !extended && v <= can.MaxStandardID {
		return can.StandardID(uint16(v)), nil
	}
	id, ok := can.NewExtendedID(uint32(v))
	if !ok {
		return can.ID{}, fmt.Errorf("id 0x%X out of range", v)
	}
	return id, nil
}

// parseData reads hex bytes, separated by spaces, colons or nothing.
func parseData(args ...string) ([]byte, error) {
	s := strings.NewReplacer(" ", "", ":", "", "0x", "").Replace(strings.Join(args, ""))
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	if len(data) > can.MaxDataLength {
		return nil, fmt.Errorf("%d bytes: %w", len(data), can.ErrDataTooLong)
	}
	return data, nil
}
