package pcan

import (
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/roffe/pcan/pkg/can"
	"github.com/roffe/pcan/pkg/pcanbasic"
	"github.com/roffe/pcan/pkg/pcanbasic/pcanfake"
)

const usb1 = pcanbasic.PCAN_USBBUS1

func open(t *testing.T, f *pcanfake.Fake, opts ...Opts) *Interface {
	t.Helper()
	i, err := Open(f, opts...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { i.Close() })
	return i
}

func std(id uint16, data ...byte) pcanbasic.Msg {
	m := pcanbasic.Msg{ID: uint32(id), LEN: uint8(len(data))}
	copy(m.DATA[:], data)
	return m
}

func TestOpenDefaults(t *testing.T) {
	f := pcanfake.New()
	i := open(t, f)
	if !f.Initialized(usb1) {
		t.Fatal("channel not initialized")
	}
	if b := f.Baudrate(usb1); b != DefaultBaudrate {
		t.Errorf("baudrate = 0x%04X, want 0x%04X", uint16(b), uint16(DefaultBaudrate))
	}
	if on, _ := pcanbasic.GetBool(f, usb1, pcanbasic.PCAN_ALLOW_STATUS_FRAMES); on {
		t.Error("status frames enabled")
	}
	if f.Events() != 1 {
		t.Errorf("Events() = %d, want 1", f.Events())
	}
	if f.Inject(usb1, pcanbasic.Msg{MSGTYPE: pcanbasic.PCAN_MESSAGE_STATUS, LEN: 4}) {
		t.Error("status frame queued")
	}
	if i.Channel() != usb1 {
		t.Errorf("Channel() = %v", i.Channel())
	}
}

func TestOpenOptions(t *testing.T) {
	f := pcanfake.New(
		pcanfake.ChannelConfig{Handle: pcanbasic.PCAN_USBBUS1, Device: pcanbasic.PCAN_USB},
		pcanfake.ChannelConfig{Handle: pcanbasic.PCAN_USBBUS2, Device: pcanbasic.PCAN_USB},
	)
	i := open(t, f, OptChannelName("usb2"), OptBitrate(500_000), OptStatusFrames(true), OptListenOnly(true))
	if f.Initialized(usb1) || !f.Initialized(pcanbasic.PCAN_USBBUS2) {
		t.Fatal("wrong channel initialized")
	}
	if b := f.Baudrate(pcanbasic.PCAN_USBBUS2); b != pcanbasic.PCAN_BAUD_500K {
		t.Errorf("baudrate = 0x%04X", uint16(b))
	}
	if !f.Inject(pcanbasic.PCAN_USBBUS2, pcanbasic.Msg{MSGTYPE: pcanbasic.PCAN_MESSAGE_STATUS, LEN: 4}) {
		t.Error("status frame dropped")
	}
	fr, _ := NewFrame(can.StandardID(1), nil)
	var pe *pcanbasic.Error
	if _, err := i.Transmit(fr); !errors.As(err, &pe) || pe.Status != pcanbasic.PCAN_ERROR_ILLOPERATION {
		t.Errorf("Transmit() in listen only mode = %v", err)
	}

	if _, err := Open(f, OptBitrate(333_000)); err == nil {
		t.Error("Open() with unsupported bit rate succeeded")
	}
	if _, err := Open(f, OptChannelName("usb42")); err == nil {
		t.Error("Open() with bad channel name succeeded")
	}
}

func TestOpenAbsentChannel(t *testing.T) {
	f := pcanfake.New()
	_, err := Open(f, OptChannel(pcanbasic.PCAN_USBBUS5))
	var pe *pcanbasic.Error
	if !errors.As(err, &pe) || pe.Status != pcanbasic.PCAN_ERROR_ILLHW {
		t.Fatalf("Open() error = %v, want PCAN_ERROR_ILLHW", err)
	}
	if !strings.Contains(err.Error(), "initialize PCAN_USBBUS5") {
		t.Errorf("error lacks context: %q", err)
	}
}

type noEvents struct {
	*pcanfake.Fake
}

func (noEvents) NewReceiveEvent() (pcanbasic.ReceiveEvent, error) {
	return nil, errors.New("out of handles")
}

func TestOpenReleasesChannelOnFailure(t *testing.T) {
	f := pcanfake.New()
	if _, err := Open(noEvents{f}); err == nil {
		t.Fatal("Open() succeeded without a receive event")
	}
	if f.Initialized(usb1) {
		t.Error("channel left initialized")
	}
}

func TestCloseIdempotent(t *testing.T) {
	f := pcanfake.New()
	i, err := Open(f)
	if err != nil {
		t.Fatal(err)
	}
	if err := i.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if err := i.Close(); err != nil {
		t.Fatalf("second Close() = %v", err)
	}
	if f.Initialized(usb1) || f.Events() != 0 {
		t.Error("Close() did not release the channel and event")
	}
	if _, err := i.Receive(); !errors.Is(err, ErrClosed) {
		t.Errorf("Receive() after Close = %v", err)
	}
	if _, err := i.Transmit(&Frame{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Transmit() after Close = %v", err)
	}
}

func TestTransmitReceive(t *testing.T) {
	f := pcanfake.New()
	i := open(t, f)

	fr, err := NewFrame(can.ExtendedID(0x18DAF110), []byte{0x02, 0x10, 0x03})
	if err != nil {
		t.Fatal(err)
	}
	if replaced, err := i.Transmit(fr); err != nil || replaced != nil {
		t.Fatalf("Transmit() = %v, %v", replaced, err)
	}
	sent := f.Sent(usb1)
	if len(sent) != 1 || sent[0].ID != 0x18DAF110 || sent[0].MSGTYPE != pcanbasic.PCAN_MESSAGE_EXTENDED || sent[0].LEN != 3 {
		t.Fatalf("Sent() = %+v", sent)
	}

	// any can.Frame is accepted
	rtr, _ := can.NewRemoteFrame(can.StandardID(0x7DF), 2)
	if _, err := i.Transmit(rtr); err != nil {
		t.Fatal(err)
	}
	if m := f.Sent(usb1)[1]; m.MSGTYPE != pcanbasic.PCAN_MESSAGE_RTR || m.LEN != 2 {
		t.Errorf("remote frame sent as %+v", m)
	}

	_, err = i.Receive()
	if !errors.Is(err, can.ErrWouldBlock) {
		t.Fatalf("Receive() on empty queue = %v", err)
	}
	var pe *pcanbasic.Error
	if !errors.As(err, &pe) || pe.Status != pcanbasic.PCAN_ERROR_QRCVEMPTY {
		t.Errorf("vendor status missing from %v", err)
	}

	f.Inject(usb1, std(0x7E8, 0x03, 0x50, 0x03))
	got, err := i.Receive()
	if err != nil {
		t.Fatal(err)
	}
	if got.ID() != can.StandardID(0x7E8) || string(got.Data()) != "\x03\x50\x03" || !got.IsData() {
		t.Errorf("Receive() = %v", got)
	}
	if st := i.Stats(); st.Sent != 2 || st.Received != 1 {
		t.Errorf("Stats() = %v", st)
	}
}

func TestWriteRetriesFullQueue(t *testing.T) {
	f := pcanfake.New()
	i := open(t, f, OptWriteAttempts(3))
	fr, _ := NewFrame(can.StandardID(0x100), []byte{1})

	f.SetTxFull(usb1, true)
	err := i.Write(context.Background(), fr)
	if !errors.Is(err, can.ErrWouldBlock) {
		t.Fatalf("Write() with full queue = %v", err)
	}

	go func() {
		time.Sleep(time.Millisecond)
		f.SetTxFull(usb1, false)
	}()
	i.writeAttempts = DefaultWriteAttempts
	if err := i.Write(context.Background(), fr); err != nil {
		t.Fatalf("Write() = %v", err)
	}
	if n := len(f.Sent(usb1)); n != 1 {
		t.Errorf("sent %d frames", n)
	}

	bad, _ := NewFrame(can.StandardID(0x100), nil)
	bad.msg.ID = 0x800
	if err := i.Write(context.Background(), bad); errors.Is(err, can.ErrWouldBlock) || err == nil {
		t.Errorf("Write() of an invalid frame = %v", err)
	}
}

func TestReceiveContext(t *testing.T) {
	f := pcanfake.New()
	i := open(t, f)

	go func() {
		time.Sleep(10 * time.Millisecond)
		f.Inject(usb1, std(0x123, 0xAA))
	}()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	fr, err := i.ReceiveContext(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if fr.ID().Raw() != 0x123 {
		t.Errorf("ReceiveContext() = %v", fr)
	}

	short, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel2()
	if _, err := i.ReceiveContext(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ReceiveContext() = %v, want deadline exceeded", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := i.ReceiveBlocking()
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	i.Close()
	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("ReceiveBlocking() after Close = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("ReceiveBlocking() did not return after Close")
	}
}

func TestAcceptanceValue(t *testing.T) {
	tests := []struct {
		code, mask, width uint32
		wantMask          uint32
	}{
		{0x123, 0x7FF, 0x7FF, 0},
		{0x700, 0x700, 0x7FF, 0x0FF},
		{0x18DAF110, 0x1FFFFF00, 0x1FFFFFFF, 0xFF},
	}
	for _, tt := range tests {
		b := acceptanceValue(tt.code, tt.mask, tt.width)
		if m := binary.LittleEndian.Uint32(b); m != tt.wantMask {
			t.Errorf("mask dword = 0x%X, want 0x%X", m, tt.wantMask)
		}
		if c := binary.LittleEndian.Uint32(b[4:]); c != tt.code {
			t.Errorf("code dword = 0x%X, want 0x%X", c, tt.code)
		}
	}
}

func TestFilters(t *testing.T) {
	f := pcanfake.New()
	i := open(t, f)

	state := func() uint32 {
		v, err := pcanbasic.GetUint32(f, usb1, pcanbasic.PCAN_MESSAGE_FILTER)
		if err != nil {
			t.Fatal(err)
		}
		return v
	}

	if err := i.AddFilter(can.NewFilter(can.StandardID(0x79))); err != nil {
		t.Fatal(err)
	}
	if state() != pcanbasic.PCAN_FILTER_CUSTOM {
		t.Fatal("filter not custom")
	}
	if !f.Inject(usb1, std(0x79)) || f.Inject(usb1, std(0x7A)) {
		t.Error("exact filter misbehaves")
	}
	if err := i.AddFilter(can.NewFilter(can.StandardID(0x43))); !errors.Is(err, ErrFilterInUse) {
		t.Fatalf("second AddFilter() = %v, want ErrFilterInUse", err)
	}

	if err := i.ClearFilters(); err != nil {
		t.Fatal(err)
	}
	if state() != pcanbasic.PCAN_FILTER_CLOSE || f.Inject(usb1, std(0x79)) {
		t.Error("ClearFilters() did not close the filter")
	}

	if err := i.AddFilterWithMask(can.StandardID(0x700), 0x700); err != nil {
		t.Fatal(err)
	}
	if !f.Inject(usb1, std(0x7E8)) || f.Inject(usb1, std(0x6E8)) {
		t.Error("masked filter misbehaves")
	}

	i.ClearFilters()
	if err := i.AddFilter(can.NewFilter(can.ExtendedID(0x18DAF100)).WithMask(0x1FFFFF00)); err != nil {
		t.Fatal(err)
	}
	ext := pcanbasic.Msg{ID: 0x18DAF1F1, MSGTYPE: pcanbasic.PCAN_MESSAGE_EXTENDED}
	if !f.Inject(usb1, ext) || f.Inject(usb1, std(0x100)) {
		t.Error("extended filter misbehaves")
	}

	i.ClearFilters()
	if err := i.AddFilter(can.AcceptAll()); err != nil {
		t.Fatal(err)
	}
	if state() != pcanbasic.PCAN_FILTER_OPEN {
		t.Error("accept all did not open the filter")
	}

	i.ClearFilters()
	if err := i.FilterRange(0x100, 0x1FF, pcanbasic.PCAN_MODE_STANDARD); err != nil {
		t.Fatal(err)
	}
	if !f.Inject(usb1, std(0x180)) || f.Inject(usb1, std(0x200)) {
		t.Error("range filter misbehaves")
	}
	if i.NumFilters() != 1 || i.NumMasks() != 1 {
		t.Error("a PCAN channel has one filter")
	}
}

func TestSplit(t *testing.T) {
	f := pcanfake.New()
	i := open(t, f)
	f.Inject(usb1, std(0x100, 1))
	f.Inject(usb1, std(0x101, 2))

	rx, tx, err := i.Split()
	if err != nil {
		t.Fatal(err)
	}
	if n := f.Pending(usb1); n != 0 {
		t.Errorf("%d frames pending after Split", n)
	}
	if f.Inject(usb1, std(0x100)) {
		t.Error("receive side accepts frames before a filter is added")
	}
	if err := rx.AddFilter(can.NewFilter(can.StandardID(0x100))); err != nil {
		t.Fatal(err)
	}
	f.Inject(usb1, std(0x100, 3))
	fr, err := rx.Receive()
	if err != nil || fr.Data()[0] != 3 {
		t.Fatalf("rx.Receive() = %v, %v", fr, err)
	}
	out, _ := NewFrame(can.StandardID(0x200), []byte{4})
	if _, err := tx.Transmit(out); err != nil {
		t.Fatal(err)
	}
	if i.Stats().Discarded != 2 {
		t.Errorf("Stats() = %v", i.Stats())
	}
}

func TestStatus(t *testing.T) {
	f := pcanfake.New()
	i := open(t, f)
	tests := []struct {
		st      pcanbasic.Status
		want    BusState
		wantErr bool
	}{
		{pcanbasic.PCAN_ERROR_OK, BusActive, false},
		{pcanbasic.PCAN_ERROR_BUSLIGHT, BusLight, false},
		{pcanbasic.PCAN_ERROR_BUSHEAVY | pcanbasic.PCAN_ERROR_QRCVEMPTY, BusHeavy, false},
		{pcanbasic.PCAN_ERROR_BUSPASSIVE, BusPassive, false},
		{pcanbasic.PCAN_ERROR_BUSOFF, BusOff, false},
		{pcanbasic.PCAN_ERROR_ILLDATA, BusActive, true},
	}
	for _, tt := range tests {
		f.SetBusStatus(usb1, tt.st)
		got, err := i.Status()
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("Status() with 0x%X = %v, %v", uint32(tt.st), got, err)
		}
	}
}

func TestIdentify(t *testing.T) {
	f := pcanfake.New()
	i := open(t, f)
	for _, on := range []bool{true, false} {
		if err := i.Identify(on); err != nil {
			t.Fatalf("Identify(%t) = %v", on, err)
		}
		got, err := pcanbasic.GetBool(f, usb1, pcanbasic.PCAN_CHANNEL_IDENTIFYING)
		if err != nil {
			t.Fatal(err)
		}
		if got != on {
			t.Errorf("PCAN_CHANNEL_IDENTIFYING = %t after Identify(%t)", got, on)
		}
	}
	if err := i.Close(); err != nil {
		t.Fatal(err)
	}
	if err := i.Identify(true); !errors.Is(err, ErrClosed) {
		t.Errorf("Identify() after Close = %v, want ErrClosed", err)
	}
}

func TestInfoAndChannels(t *testing.T) {
	f := pcanfake.New(
		pcanfake.ChannelConfig{
			Handle:          usb1,
			Device:          pcanbasic.PCAN_USB,
			Name:            "PCAN-USB FD",
			DeviceID:        7,
			Features:        pcanbasic.FEATURE_FD_CAPABLE,
			Condition:       pcanbasic.PCAN_CHANNEL_AVAILABLE,
			FirmwareVersion: "3.4.1",
		},
		pcanfake.ChannelConfig{Handle: pcanbasic.PCAN_USBBUS2, Device: pcanbasic.PCAN_USB, Name: "PCAN-USB", Condition: pcanbasic.PCAN_CHANNEL_AVAILABLE},
	)
	i := open(t, f)
	in, err := i.Info()
	if err != nil {
		t.Fatal(err)
	}
	if in.HardwareName != "PCAN-USB FD" || in.FirmwareVersion != "3.4.1" || in.DeviceID != 7 || in.APIVersion != f.APIVersion {
		t.Errorf("Info() = %+v", in)
	}
	if !strings.Contains(in.String(), "CAN FD:   true") {
		t.Errorf("Info.String() = %q", in.String())
	}

	chans, err := Channels(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(chans) != 2 {
		t.Fatalf("Channels() = %v", chans)
	}
	if chans[0].Condition != pcanbasic.ChannelOccupied || !chans[0].FD {
		t.Errorf("Channels()[0] = %v", chans[0])
	}
	if chans[1].Condition != pcanbasic.ChannelAvailable || chans[1].Name != "PCAN-USB" {
		t.Errorf("Channels()[1] = %v", chans[1])
	}
}

func TestFrame(t *testing.T) {
	if _, err := NewFrame(can.StandardID(1), make([]byte, 9)); !errors.Is(err, ErrDataTooLong) {
		t.Errorf("NewFrame(9 bytes) = %v", err)
	}
	if _, err := NewRemoteFrame(can.StandardID(1), 9); !errors.Is(err, ErrDataTooLong) {
		t.Errorf("NewRemoteFrame(9) = %v", err)
	}
	tests := []struct {
		frame *Frame
		want  string
	}{
		{mustFrame(NewFrame(can.StandardID(0x7E0), []byte{0x02, 0x10, 0x03})), "0x7E0 [3] 02 10 03"},
		{mustFrame(NewRemoteFrame(can.ExtendedID(0x1234), 8)), "0x00001234 [8] remote"},
		{&Frame{msg: pcanbasic.Msg{MSGTYPE: pcanbasic.PCAN_MESSAGE_STATUS, LEN: 4, DATA: [8]byte{0, 0, 0, 0x10}}}, "0x000 [4] status: bus error: the CAN controller is in bus-off state"},
	}
	for _, tt := range tests {
		if got := tt.frame.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	st := &Frame{msg: pcanbasic.Msg{MSGTYPE: pcanbasic.PCAN_MESSAGE_STATUS, LEN: 4, DATA: [8]byte{0, 0, 0, 0x10}}}
	if s, ok := st.BusStatus(); !ok || s != pcanbasic.PCAN_ERROR_BUSOFF {
		t.Errorf("BusStatus() = %v, %v", s, ok)
	}
	ts := &Frame{ts: pcanbasic.Timestamp{Millis: 2, Micros: 500}}
	if ts.Timestamp() != 2500*time.Microsecond {
		t.Errorf("Timestamp() = %v", ts.Timestamp())
	}
}

func mustFrame(f *Frame, err error) *Frame {
	if err != nil {
		panic(err)
	}
	return f
}
