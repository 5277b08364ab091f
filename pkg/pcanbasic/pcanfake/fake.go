// Package pcanfake is an in-memory stand-in for PCANBasic.dll.
//
// It models the behaviour applications can observe through the API:
// channel initialization, receive and transmit queues, the message filter
// state machine, acceptance filters, frame type gating and receive events.
// It does not simulate bus timing or arbitration.
package pcanfake

import (
	"encoding/binary"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/roffe/pcan/pkg/pcanbasic"
)

const (
	stdMask = 0x7FF
	extMask = 0x1FFFFFFF
)

var _ pcanbasic.API = (*Fake)(nil)

// Fake implements pcanbasic.API. The zero value is not usable, use New.
type Fake struct {
	// OnWrite is called after a frame was queued for transmission. It runs
	// without internal locks held and may call Inject to model a reply.
	OnWrite func(channel pcanbasic.Handle, msg pcanbasic.Msg)

	APIVersion string

	mu        sync.Mutex
	start     time.Time
	channels  map[pcanbasic.Handle]*channel
	events    map[uint64]*Event
	nextEvent uint64
}

type idRange struct {
	from, to uint32
	mode     pcanbasic.Mode
}

type rxItem struct {
	msg pcanbasic.Msg
	ts  pcanbasic.Timestamp
}

type channel struct {
	info            pcanbasic.ChannelInformation
	firmwareVersion string
	channelVersion  string
	partNumber      string

	initialized bool
	fd          bool
	btr0btr1    pcanbasic.Baudrate
	listenOnly  bool

	statusFrames bool
	rtrFrames    bool
	errorFrames  bool
	echoFrames   bool
	identifying  bool

	filter    uint32
	acc11     uint64
	acc11Set  bool
	acc29     uint64
	acc29Set  bool
	ranges    []idRange
	event     *Event
	busStatus pcanbasic.Status
	txFull    bool

	rx   []rxItem
	rxFD []pcanbasic.MsgFD
	tx   []pcanbasic.Msg
	txFD []pcanbasic.MsgFD
}

// ChannelConfig describes attached hardware.
type ChannelConfig struct {
	Handle          pcanbasic.Handle
	Device          pcanbasic.Device
	Name            string
	DeviceID        uint32
	Controller      uint8
	Features        uint32
	Condition       uint32
	FirmwareVersion string
	ChannelVersion  string
	PartNumber      string
}

// New returns a fake with the given channels attached. Without arguments a
// single PCAN-USB on PCAN_USBBUS1 is attached.
func New(channels ...ChannelConfig) *Fake {
	f := &Fake{
		APIVersion: "4.8.0.0",
		start:      time.Now(),
		channels:   make(map[pcanbasic.Handle]*channel),
		events:     make(map[uint64]*Event),
	}
	if len(channels) == 0 {
		channels = []ChannelConfig{{
			Handle:    pcanbasic.PCAN_USBBUS1,
			Device:    pcanbasic.PCAN_USB,
			Name:      "PCAN-USB",
			Condition: pcanbasic.PCAN_CHANNEL_AVAILABLE,
		}}
	}
	for _, c := range channels {
		f.Attach(c)
	}
	return f
}

// Attach adds or replaces a channel.
func (f *Fake) Attach(c ChannelConfig) {
	if c.FirmwareVersion == "" {
		c.FirmwareVersion = "3.2.0"
	}
	if c.ChannelVersion == "" {
		c.ChannelVersion = "PCAN-USB driver 4.3.2"
	}
	if c.PartNumber == "" {
		c.PartNumber = "IPEH-002021"
	}
	ch := &channel{
		firmwareVersion: c.FirmwareVersion,
		channelVersion:  c.ChannelVersion,
		partNumber:      c.PartNumber,
	}
	ch.info = pcanbasic.ChannelInformation{
		ChannelHandle:    c.Handle,
		DeviceType:       c.Device,
		ControllerNumber: c.Controller,
		DeviceFeatures:   c.Features,
		DeviceID:         c.DeviceID,
		ChannelCondition: c.Condition,
	}
	copy(ch.info.DeviceName[:pcanbasic.MAX_LENGTH_HARDWARE_NAME-1], c.Name)
	f.mu.Lock()
	f.channels[c.Handle] = ch
	f.mu.Unlock()
}

func (f *Fake) lookup(h pcanbasic.Handle) (*channel, pcanbasic.Status) {
	ch, ok := f.channels[h]
	if !ok {
		if strings.HasPrefix(h.String(), "PCAN_HANDLE") {
			return nil, pcanbasic.PCAN_ERROR_ILLHANDLE
		}
		return nil, pcanbasic.PCAN_ERROR_ILLHW
	}
	return ch, pcanbasic.PCAN_ERROR_OK
}

func (f *Fake) initialized(h pcanbasic.Handle) (*channel, pcanbasic.Status) {
	ch, st := f.lookup(h)
	if st != pcanbasic.PCAN_ERROR_OK {
		return nil, st
	}
	if !ch.initialized {
		return nil, pcanbasic.PCAN_ERROR_INITIALIZE
	}
	return ch, pcanbasic.PCAN_ERROR_OK
}

func (ch *channel) connect() {
	ch.initialized = true
	ch.statusFrames = true
	ch.rtrFrames = true
	ch.errorFrames = false
	ch.echoFrames = false
	ch.filter = pcanbasic.PCAN_FILTER_OPEN
	ch.resetAcceptance()
	ch.event = nil
	ch.busStatus = pcanbasic.PCAN_ERROR_OK
	ch.rx, ch.rxFD, ch.tx, ch.txFD = nil, nil, nil, nil
}

func (ch *channel) resetAcceptance() {
	ch.acc11, ch.acc11Set = stdMask, false
	ch.acc29, ch.acc29Set = extMask, false
	ch.ranges = nil
}

func (f *Fake) Initialize(h pcanbasic.Handle, btr0btr1 pcanbasic.Baudrate, _ pcanbasic.Type, _ uint32, _ uint16) pcanbasic.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, st := f.lookup(h)
	if st != pcanbasic.PCAN_ERROR_OK {
		return st
	}
	if ch.initialized || ch.info.ChannelCondition == pcanbasic.PCAN_CHANNEL_OCCUPIED {
		return pcanbasic.PCAN_ERROR_INITIALIZE
	}
	if btr0btr1 == 0 {
		return pcanbasic.PCAN_ERROR_ILLPARAMVAL
	}
	ch.connect()
	ch.fd = false
	ch.btr0btr1 = btr0btr1
	return pcanbasic.PCAN_ERROR_OK
}

func (f *Fake) InitializeFD(h pcanbasic.Handle, bitrateFD string) pcanbasic.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, st := f.lookup(h)
	if st != pcanbasic.PCAN_ERROR_OK {
		return st
	}
	if ch.initialized {
		return pcanbasic.PCAN_ERROR_INITIALIZE
	}
	if ch.info.DeviceFeatures&pcanbasic.FEATURE_FD_CAPABLE == 0 {
		return pcanbasic.PCAN_ERROR_ILLOPERATION
	}
	if !strings.Contains(bitrateFD, pcanbasic.PCAN_BR_CLOCK) {
		return pcanbasic.PCAN_ERROR_ILLPARAMVAL
	}
	ch.connect()
	ch.fd = true
	return pcanbasic.PCAN_ERROR_OK
}

func (f *Fake) Uninitialize(h pcanbasic.Handle) pcanbasic.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	if h == pcanbasic.PCAN_NONEBUS {
		for _, ch := range f.channels {
			ch.initialized = false
			ch.event = nil
		}
		return pcanbasic.PCAN_ERROR_OK
	}
	ch, st := f.initialized(h)
	if st != pcanbasic.PCAN_ERROR_OK {
		return st
	}
	ch.initialized = false
	ch.event = nil
	ch.listenOnly = false
	return pcanbasic.PCAN_ERROR_OK
}

func (f *Fake) Reset(h pcanbasic.Handle) pcanbasic.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, st := f.initialized(h)
	if st != pcanbasic.PCAN_ERROR_OK {
		return st
	}
	ch.rx, ch.rxFD = nil, nil
	return pcanbasic.PCAN_ERROR_OK
}

func (f *Fake) GetStatus(h pcanbasic.Handle) pcanbasic.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, st := f.initialized(h)
	if st != pcanbasic.PCAN_ERROR_OK {
		return st
	}
	return ch.busStatus
}

func (f *Fake) Read(h pcanbasic.Handle, msg *pcanbasic.Msg, ts *pcanbasic.Timestamp) pcanbasic.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, st := f.initialized(h)
	if st != pcanbasic.PCAN_ERROR_OK {
		return st
	}
	if ch.fd {
		return pcanbasic.PCAN_ERROR_ILLOPERATION
	}
	if len(ch.rx) == 0 {
		return pcanbasic.PCAN_ERROR_QRCVEMPTY
	}
	item := ch.rx[0]
	ch.rx = ch.rx[1:]
	*msg = item.msg
	if ts != nil {
		*ts = item.ts
	}
	return pcanbasic.PCAN_ERROR_OK
}

func (f *Fake) ReadFD(h pcanbasic.Handle, msg *pcanbasic.MsgFD, ts *pcanbasic.TimestampFD) pcanbasic.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, st := f.initialized(h)
	if st != pcanbasic.PCAN_ERROR_OK {
		return st
	}
	if !ch.fd {
		return pcanbasic.PCAN_ERROR_ILLOPERATION
	}
	if len(ch.rxFD) == 0 {
		return pcanbasic.PCAN_ERROR_QRCVEMPTY
	}
	*msg = ch.rxFD[0]
	ch.rxFD = ch.rxFD[1:]
	if ts != nil {
		*ts = pcanbasic.TimestampFD(time.Since(f.start) / time.Microsecond)
	}
	return pcanbasic.PCAN_ERROR_OK
}

func validID(id uint32, t pcanbasic.MessageType) bool {
	if t&pcanbasic.PCAN_MESSAGE_EXTENDED != 0 {
		return id <= extMask
	}
	return id <= stdMask
}

func (f *Fake) Write(h pcanbasic.Handle, msg *pcanbasic.Msg) pcanbasic.Status {
	f.mu.Lock()
	ch, st := f.initialized(h)
	switch {
	case st != pcanbasic.PCAN_ERROR_OK:
	case ch.fd:
		st = pcanbasic.PCAN_ERROR_ILLOPERATION
	case ch.listenOnly:
		st = pcanbasic.PCAN_ERROR_ILLOPERATION
	case msg.LEN > pcanbasic.LENGTH_DATA_CAN_MESSAGE || !validID(msg.ID, msg.MSGTYPE):
		st = pcanbasic.PCAN_ERROR_ILLPARAMVAL
	case ch.txFull:
		st = pcanbasic.PCAN_ERROR_QXMTFULL
	}
	if st != pcanbasic.PCAN_ERROR_OK {
		f.mu.Unlock()
		return st
	}
	sent := *msg
	ch.tx = append(ch.tx, sent)
	if ch.echoFrames {
		echo := sent
		echo.MSGTYPE |= pcanbasic.PCAN_MESSAGE_ECHO
		f.enqueueLocked(ch, echo)
	}
	hook := f.OnWrite
	f.mu.Unlock()
	if hook != nil {
		hook(h, sent)
	}
	return pcanbasic.PCAN_ERROR_OK
}

func (f *Fake) WriteFD(h pcanbasic.Handle, msg *pcanbasic.MsgFD) pcanbasic.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, st := f.initialized(h)
	if st != pcanbasic.PCAN_ERROR_OK {
		return st
	}
	if !ch.fd || ch.listenOnly {
		return pcanbasic.PCAN_ERROR_ILLOPERATION
	}
	if msg.DLC > 15 || !validID(msg.ID, msg.MSGTYPE) {
		return pcanbasic.PCAN_ERROR_ILLPARAMVAL
	}
	if ch.txFull {
		return pcanbasic.PCAN_ERROR_QXMTFULL
	}
	ch.txFD = append(ch.txFD, *msg)
	return pcanbasic.PCAN_ERROR_OK
}

func (f *Fake) FilterMessages(h pcanbasic.Handle, fromID, toID uint32, mode pcanbasic.Mode) pcanbasic.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, st := f.initialized(h)
	if st != pcanbasic.PCAN_ERROR_OK {
		return st
	}
	if mode != pcanbasic.PCAN_MODE_STANDARD && mode != pcanbasic.PCAN_MODE_EXTENDED {
		return pcanbasic.PCAN_ERROR_ILLPARAMVAL
	}
	if fromID > toID {
		return pcanbasic.PCAN_ERROR_ILLPARAMVAL
	}
	if ch.filter != pcanbasic.PCAN_FILTER_CUSTOM {
		ch.resetAcceptance()
	}
	ch.filter = pcanbasic.PCAN_FILTER_CUSTOM
	ch.ranges = append(ch.ranges, idRange{from: fromID, to: toID, mode: mode})
	return pcanbasic.PCAN_ERROR_OK
}

// Parameters that can be read from a channel that is not initialized.
var preInit = map[pcanbasic.Parameter]bool{
	pcanbasic.PCAN_CHANNEL_CONDITION:  true,
	pcanbasic.PCAN_LISTEN_ONLY:        true,
	pcanbasic.PCAN_DEVICE_ID:          true,
	pcanbasic.PCAN_HARDWARE_NAME:      true,
	pcanbasic.PCAN_CHANNEL_FEATURES:   true,
	pcanbasic.PCAN_CHANNEL_VERSION:    true,
	pcanbasic.PCAN_DEVICE_PART_NUMBER: true,
}

func putUint32(buf []byte, v uint32) pcanbasic.Status {
	if len(buf) < 4 {
		return pcanbasic.PCAN_ERROR_ILLPARAMVAL
	}
	binary.LittleEndian.PutUint32(buf, v)
	return pcanbasic.PCAN_ERROR_OK
}

func putUint64(buf []byte, v uint64) pcanbasic.Status {
	if len(buf) < 8 {
		return pcanbasic.PCAN_ERROR_ILLPARAMVAL
	}
	binary.LittleEndian.PutUint64(buf, v)
	return pcanbasic.PCAN_ERROR_OK
}

func putString(buf []byte, s string) pcanbasic.Status {
	if len(buf) < len(s)+1 {
		return pcanbasic.PCAN_ERROR_ILLPARAMVAL
	}
	n := copy(buf, s)
	buf[n] = 0
	return pcanbasic.PCAN_ERROR_OK
}

func boolValue(b bool) uint32 {
	if b {
		return pcanbasic.PCAN_PARAMETER_ON
	}
	return pcanbasic.PCAN_PARAMETER_OFF
}

func (f *Fake) GetValue(h pcanbasic.Handle, param pcanbasic.Parameter, buf []byte) pcanbasic.Status {
	if len(buf) == 0 {
		return pcanbasic.PCAN_ERROR_ILLPARAMVAL
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	switch param {
	case pcanbasic.PCAN_API_VERSION:
		return putString(buf, f.APIVersion)
	case pcanbasic.PCAN_ATTACHED_CHANNELS_COUNT:
		return putUint32(buf, uint32(len(f.channels)))
	case pcanbasic.PCAN_ATTACHED_CHANNELS:
		return f.attachedLocked(buf)
	}

	ch, st := f.lookup(h)
	if st != pcanbasic.PCAN_ERROR_OK {
		if param == pcanbasic.PCAN_CHANNEL_CONDITION && st == pcanbasic.PCAN_ERROR_ILLHW {
			return putUint32(buf, pcanbasic.PCAN_CHANNEL_UNAVAILABLE)
		}
		return st
	}
	if !ch.initialized && !preInit[param] {
		return pcanbasic.PCAN_ERROR_INITIALIZE
	}

	switch param {
	case pcanbasic.PCAN_CHANNEL_CONDITION:
		cond := ch.info.ChannelCondition
		if ch.initialized {
			cond = pcanbasic.PCAN_CHANNEL_OCCUPIED
		}
		return putUint32(buf, cond)
	case pcanbasic.PCAN_HARDWARE_NAME:
		return putString(buf, ch.info.Name())
	case pcanbasic.PCAN_DEVICE_ID:
		return putUint32(buf, ch.info.DeviceID)
	case pcanbasic.PCAN_CHANNEL_FEATURES:
		return putUint32(buf, ch.info.DeviceFeatures)
	case pcanbasic.PCAN_CHANNEL_VERSION:
		return putString(buf, ch.channelVersion)
	case pcanbasic.PCAN_FIRMWARE_VERSION:
		return putString(buf, ch.firmwareVersion)
	case pcanbasic.PCAN_DEVICE_PART_NUMBER:
		return putString(buf, ch.partNumber)
	case pcanbasic.PCAN_CONTROLLER_NUMBER:
		return putUint32(buf, uint32(ch.info.ControllerNumber))
	case pcanbasic.PCAN_LISTEN_ONLY:
		return putUint32(buf, boolValue(ch.listenOnly))
	case pcanbasic.PCAN_MESSAGE_FILTER:
		return putUint32(buf, ch.filter)
	case pcanbasic.PCAN_ALLOW_STATUS_FRAMES:
		return putUint32(buf, boolValue(ch.statusFrames))
	case pcanbasic.PCAN_ALLOW_RTR_FRAMES:
		return putUint32(buf, boolValue(ch.rtrFrames))
	case pcanbasic.PCAN_ALLOW_ERROR_FRAMES:
		return putUint32(buf, boolValue(ch.errorFrames))
	case pcanbasic.PCAN_ALLOW_ECHO_FRAMES:
		return putUint32(buf, boolValue(ch.echoFrames))
	case pcanbasic.PCAN_CHANNEL_IDENTIFYING:
		return putUint32(buf, boolValue(ch.identifying))
	case pcanbasic.PCAN_BITRATE_INFO:
		return putUint32(buf, uint32(ch.btr0btr1))
	case pcanbasic.PCAN_ACCEPTANCE_FILTER_11BIT:
		return putUint64(buf, ch.acc11)
	case pcanbasic.PCAN_ACCEPTANCE_FILTER_29BIT:
		return putUint64(buf, ch.acc29)
	case pcanbasic.PCAN_RECEIVE_EVENT:
		var id uint64
		if ch.event != nil {
			id = ch.event.id
		}
		if len(buf) >= 8 {
			return putUint64(buf, id)
		}
		return putUint32(buf, uint32(id))
	}
	return pcanbasic.PCAN_ERROR_ILLPARAMTYPE
}

func (f *Fake) attachedLocked(buf []byte) pcanbasic.Status {
	handles := make([]int, 0, len(f.channels))
	for h := range f.channels {
		handles = append(handles, int(h))
	}
	sort.Ints(handles)
	if len(buf) < len(handles)*pcanbasic.SizeofChannelInformation {
		return pcanbasic.PCAN_ERROR_ILLPARAMVAL
	}
	for i, h := range handles {
		ch := f.channels[pcanbasic.Handle(h)]
		info := ch.info
		if ch.initialized {
			info.ChannelCondition = pcanbasic.PCAN_CHANNEL_OCCUPIED
		}
		b, _ := info.MarshalBinary()
		copy(buf[i*pcanbasic.SizeofChannelInformation:], b)
	}
	return pcanbasic.PCAN_ERROR_OK
}

func readUint32(buf []byte) (uint32, pcanbasic.Status) {
	if len(buf) < 4 {
		return 0, pcanbasic.PCAN_ERROR_ILLPARAMVAL
	}
	return binary.LittleEndian.Uint32(buf), pcanbasic.PCAN_ERROR_OK
}

func readBool(buf []byte) (bool, pcanbasic.Status) {
	v, st := readUint32(buf)
	if st != pcanbasic.PCAN_ERROR_OK {
		return false, st
	}
	switch v {
	case pcanbasic.PCAN_PARAMETER_ON:
		return true, st
	case pcanbasic.PCAN_PARAMETER_OFF:
		return false, st
	}
	return false, pcanbasic.PCAN_ERROR_ILLPARAMVAL
}

func (f *Fake) SetValue(h pcanbasic.Handle, param pcanbasic.Parameter, buf []byte) pcanbasic.Status {
	if len(buf) == 0 {
		return pcanbasic.PCAN_ERROR_ILLPARAMVAL
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, st := f.lookup(h)
	if st != pcanbasic.PCAN_ERROR_OK {
		return st
	}

	// pre-initialization parameters
	switch param {
	case pcanbasic.PCAN_LISTEN_ONLY:
		v, st := readBool(buf)
		if st == pcanbasic.PCAN_ERROR_OK {
			ch.listenOnly = v
		}
		return st
	case pcanbasic.PCAN_CHANNEL_IDENTIFYING:
		v, st := readBool(buf)
		if st == pcanbasic.PCAN_ERROR_OK {
			ch.identifying = v
		}
		return st
	}

	if !ch.initialized {
		return pcanbasic.PCAN_ERROR_INITIALIZE
	}

	switch param {
	case pcanbasic.PCAN_MESSAGE_FILTER:
		v, st := readUint32(buf)
		if st != pcanbasic.PCAN_ERROR_OK {
			return st
		}
		switch v {
		case pcanbasic.PCAN_FILTER_CLOSE, pcanbasic.PCAN_FILTER_OPEN:
			ch.filter = v
			ch.resetAcceptance()
			return pcanbasic.PCAN_ERROR_OK
		}
		// CUSTOM is a reported state, it can not be set directly.
		return pcanbasic.PCAN_ERROR_ILLPARAMVAL
	case pcanbasic.PCAN_ACCEPTANCE_FILTER_11BIT, pcanbasic.PCAN_ACCEPTANCE_FILTER_29BIT:
		if len(buf) < 8 {
			return pcanbasic.PCAN_ERROR_ILLPARAMVAL
		}
		v := binary.LittleEndian.Uint64(buf)
		if ch.filter != pcanbasic.PCAN_FILTER_CUSTOM {
			ch.resetAcceptance()
		}
		if param == pcanbasic.PCAN_ACCEPTANCE_FILTER_11BIT {
			ch.acc11, ch.acc11Set = v, true
		} else {
			ch.acc29, ch.acc29Set = v, true
		}
		ch.filter = pcanbasic.PCAN_FILTER_CUSTOM
		return pcanbasic.PCAN_ERROR_OK
	case pcanbasic.PCAN_ALLOW_STATUS_FRAMES:
		return setBool(&ch.statusFrames, buf)
	case pcanbasic.PCAN_ALLOW_RTR_FRAMES:
		return setBool(&ch.rtrFrames, buf)
	case pcanbasic.PCAN_ALLOW_ERROR_FRAMES:
		return setBool(&ch.errorFrames, buf)
	case pcanbasic.PCAN_ALLOW_ECHO_FRAMES:
		return setBool(&ch.echoFrames, buf)
	case pcanbasic.PCAN_RECEIVE_EVENT:
		var id uint64
		switch {
		case len(buf) >= 8:
			id = binary.LittleEndian.Uint64(buf)
		case len(buf) >= 4:
			id = uint64(binary.LittleEndian.Uint32(buf))
		default:
			return pcanbasic.PCAN_ERROR_ILLPARAMVAL
		}
		if id == 0 {
			ch.event = nil
			return pcanbasic.PCAN_ERROR_OK
		}
		ev, ok := f.events[id]
		if !ok {
			return pcanbasic.PCAN_ERROR_ILLPARAMVAL
		}
		ch.event = ev
		if len(ch.rx) > 0 || len(ch.rxFD) > 0 {
			ev.signal()
		}
		return pcanbasic.PCAN_ERROR_OK
	}
	return pcanbasic.PCAN_ERROR_ILLPARAMTYPE
}

func setBool(dst *bool, buf []byte) pcanbasic.Status {
	v, st := readBool(buf)
	if st == pcanbasic.PCAN_ERROR_OK {
		*dst = v
	}
	return st
}

func (f *Fake) GetErrorText(st pcanbasic.Status, language uint16) (string, pcanbasic.Status) {
	switch language {
	case 0x00, 0x07, 0x09, 0x0A, 0x0C, 0x10:
	default:
		return "", pcanbasic.PCAN_ERROR_ILLPARAMVAL
	}
	text := st.String()
	if strings.HasPrefix(text, "undefined status") {
		return "", pcanbasic.PCAN_ERROR_ILLPARAMVAL
	}
	// The library capitalizes its descriptions.
	return strings.ToUpper(text[:1]) + text[1:], pcanbasic.PCAN_ERROR_OK
}

func (f *Fake) LookUpChannel(parameters string) (pcanbasic.Handle, pcanbasic.Status) {
	type criterion func(*channel) bool
	var match []criterion
	for _, kv := range strings.Split(parameters, ",") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return pcanbasic.PCAN_NONEBUS, pcanbasic.PCAN_ERROR_ILLPARAMVAL
		}
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		switch k {
		case pcanbasic.LOOKUP_DEVICE_TYPE:
			match = append(match, func(c *channel) bool {
				return strings.EqualFold(c.info.DeviceType.String(), v)
			})
		case pcanbasic.LOOKUP_DEVICE_ID, pcanbasic.LOOKUP_CONTROLLER_NUMBER:
			n, err := strconv.ParseUint(v, 0, 32)
			if err != nil {
				return pcanbasic.PCAN_NONEBUS, pcanbasic.PCAN_ERROR_ILLPARAMVAL
			}
			if k == pcanbasic.LOOKUP_DEVICE_ID {
				match = append(match, func(c *channel) bool { return c.info.DeviceID == uint32(n) })
			} else {
				match = append(match, func(c *channel) bool { return uint64(c.info.ControllerNumber) == n })
			}
		case pcanbasic.LOOKUP_IP_ADDRESS, pcanbasic.LOOKUP_DEVICE_GUID:
			// not modelled, never matches
			match = append(match, func(*channel) bool { return false })
		default:
			return pcanbasic.PCAN_NONEBUS, pcanbasic.PCAN_ERROR_ILLPARAMVAL
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	handles := make([]int, 0, len(f.channels))
	for h := range f.channels {
		handles = append(handles, int(h))
	}
	sort.Ints(handles)
outer:
	for _, h := range handles {
		ch := f.channels[pcanbasic.Handle(h)]
		for _, m := range match {
			if !m(ch) {
				continue outer
			}
		}
		return pcanbasic.Handle(h), pcanbasic.PCAN_ERROR_OK
	}
	return pcanbasic.PCAN_NONEBUS, pcanbasic.PCAN_ERROR_OK
}

func (f *Fake) NewReceiveEvent() (pcanbasic.ReceiveEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextEvent++
	ev := &Event{
		fake:   f,
		id:     f.nextEvent,
		ch:     make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
	f.events[ev.id] = ev
	return ev, nil
}
