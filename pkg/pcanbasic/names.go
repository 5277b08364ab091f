package pcanbasic

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type busRange struct {
	prefix string
	low    []Handle // channels 1..8
	high   Handle   // channel 9, the following ones are consecutive
	count  int
}

var buses = []busRange{
	{"ISA", []Handle{PCAN_ISABUS1, PCAN_ISABUS2, PCAN_ISABUS3, PCAN_ISABUS4, PCAN_ISABUS5, PCAN_ISABUS6, PCAN_ISABUS7, PCAN_ISABUS8}, 0, 8},
	{"DNG", []Handle{PCAN_DNGBUS1}, 0, 1},
	{"PCI", []Handle{PCAN_PCIBUS1, PCAN_PCIBUS2, PCAN_PCIBUS3, PCAN_PCIBUS4, PCAN_PCIBUS5, PCAN_PCIBUS6, PCAN_PCIBUS7, PCAN_PCIBUS8}, PCAN_PCIBUS9, 16},
	{"USB", []Handle{PCAN_USBBUS1, PCAN_USBBUS2, PCAN_USBBUS3, PCAN_USBBUS4, PCAN_USBBUS5, PCAN_USBBUS6, PCAN_USBBUS7, PCAN_USBBUS8}, PCAN_USBBUS9, 16},
	{"PCC", []Handle{PCAN_PCCBUS1, PCAN_PCCBUS2}, 0, 2},
	{"LAN", []Handle{PCAN_LANBUS1, PCAN_LANBUS2, PCAN_LANBUS3, PCAN_LANBUS4, PCAN_LANBUS5, PCAN_LANBUS6, PCAN_LANBUS7, PCAN_LANBUS8}, PCAN_LANBUS9, 16},
}

func (r busRange) handle(n int) (Handle, bool) {
	switch {
	case n < 1 || n > r.count:
		return 0, false
	case n <= len(r.low):
		return r.low[n-1], true
	default:
		return r.high + Handle(n-9), true
	}
}

func (r busRange) channel(h Handle) (int, bool) {
	for i, l := range r.low {
		if l == h {
			return i + 1, true
		}
	}
	if r.high != 0 && h >= r.high && int(h-r.high) < r.count-8 {
		return int(h-r.high) + 9, true
	}
	return 0, false
}

// String returns the header name of a handle, e.g. "PCAN_USBBUS1".
func (h Handle) String() string {
	if h == PCAN_NONEBUS {
		return "PCAN_NONEBUS"
	}
	for _, r := range buses {
		if n, ok := r.channel(h); ok {
			return fmt.Sprintf("PCAN_%sBUS%d", r.prefix, n)
		}
	}
	return fmt.Sprintf("PCAN_HANDLE(0x%X)", uint16(h))
}

// ParseHandle accepts header names ("PCAN_USBBUS1"), short names ("usb1",
// "USBBUS1") and numeric handles ("0x51", "81").
func ParseHandle(name string) (Handle, error) {
	s := strings.ToUpper(strings.TrimSpace(name))
	if s == "" {
		return 0, fmt.Errorf("pcanbasic: empty channel name")
	}
	if v, err := strconv.ParseUint(s, 0, 16); err == nil {
		return Handle(v), nil
	}
	s = strings.TrimPrefix(s, "PCAN_")
	if s == "NONEBUS" {
		return PCAN_NONEBUS, nil
	}
	for _, r := range buses {
		if !strings.HasPrefix(s, r.prefix) {
			continue
		}
		rest := strings.TrimPrefix(strings.TrimPrefix(s, r.prefix), "BUS")
		n, err := strconv.Atoi(rest)
		if err != nil {
			break
		}
		if h, ok := r.handle(n); ok {
			return h, nil
		}
		return 0, fmt.Errorf("pcanbasic: %s has no channel %d", r.prefix, n)
	}
	return 0, fmt.Errorf("pcanbasic: unknown channel %q", name)
}

var deviceNames = map[Device]string{
	PCAN_NONE:    "PCAN_NONE",
	PCAN_PEAKCAN: "PCAN_PEAKCAN",
	PCAN_ISA:     "PCAN_ISA",
	PCAN_DNG:     "PCAN_DNG",
	PCAN_PCI:     "PCAN_PCI",
	PCAN_USB:     "PCAN_USB",
	PCAN_PCC:     "PCAN_PCC",
	PCAN_VIRTUAL: "PCAN_VIRTUAL",
	PCAN_LAN:     "PCAN_LAN",
}

func (d Device) String() string {
	if s, ok := deviceNames[d]; ok {
		return s
	}
	return fmt.Sprintf("PCAN_DEVICE(%d)", uint8(d))
}

var bitrates = map[int]Baudrate{
	1_000_000: PCAN_BAUD_1M,
	800_000:   PCAN_BAUD_800K,
	500_000:   PCAN_BAUD_500K,
	250_000:   PCAN_BAUD_250K,
	125_000:   PCAN_BAUD_125K,
	100_000:   PCAN_BAUD_100K,
	95_000:    PCAN_BAUD_95K,
	83_000:    PCAN_BAUD_83K,
	50_000:    PCAN_BAUD_50K,
	47_000:    PCAN_BAUD_47K,
	33_000:    PCAN_BAUD_33K,
	20_000:    PCAN_BAUD_20K,
	10_000:    PCAN_BAUD_10K,
	5_000:     PCAN_BAUD_5K,
}

// BaudrateFor maps a bit rate in bit/s to its predefined BTR0BTR1 value.
// Fractional rates are matched by their truncated kbit/s value, so 83333
// and 83000 both select PCAN_BAUD_83K.
func BaudrateFor(bitrate int) (Baudrate, error) {
	if b, ok := bitrates[bitrate]; ok {
		return b, nil
	}
	if b, ok := bitrates[bitrate/1000*1000]; ok && bitrate < 100_000 {
		return b, nil
	}
	return 0, fmt.Errorf("pcanbasic: unsupported bit rate %d", bitrate)
}

// Bitrates lists the bit rates BaudrateFor accepts, fastest first.
func Bitrates() []int {
	out := make([]int, 0, len(bitrates))
	for r := range bitrates {
		out = append(out, r)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// LookupQuery builds the parameter string of LookUpChannel. Zero fields
// are left out.
type LookupQuery struct {
	DeviceType       Device
	DeviceID         *uint32
	ControllerNumber *uint8
	IPAddress        string
	DeviceGUID       string
}

func (q LookupQuery) String() string {
	var parts []string
	if q.DeviceType != PCAN_NONE {
		parts = append(parts, LOOKUP_DEVICE_TYPE+"="+q.DeviceType.String())
	}
	if q.DeviceID != nil {
		parts = append(parts, fmt.Sprintf("%s=%d", LOOKUP_DEVICE_ID, *q.DeviceID))
	}
	if q.ControllerNumber != nil {
		parts = append(parts, fmt.Sprintf("%s=%d", LOOKUP_CONTROLLER_NUMBER, *q.ControllerNumber))
	}
	if q.IPAddress != "" {
		parts = append(parts, LOOKUP_IP_ADDRESS+"="+q.IPAddress)
	}
	if q.DeviceGUID != "" {
		parts = append(parts, LOOKUP_DEVICE_GUID+"="+q.DeviceGUID)
	}
	return strings.Join(parts, ", ")
}

// LookUp resolves q with CAN_LookUpChannel. PCAN_NONEBUS with a nil error
// means no channel matched.
func LookUp(api API, q LookupQuery) (Handle, error) {
	h, st := api.LookUpChannel(q.String())
	return h, Check(api, st)
}
