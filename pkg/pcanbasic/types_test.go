package pcanbasic

import (
	"testing"
	"unsafe"
)

func TestStructLayout(t *testing.T) {
	tests := []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"sizeof(TPCANMsg)", unsafe.Sizeof(Msg{}), 16},
		{"offsetof(TPCANMsg.MSGTYPE)", unsafe.Offsetof(Msg{}.MSGTYPE), 4},
		{"offsetof(TPCANMsg.LEN)", unsafe.Offsetof(Msg{}.LEN), 5},
		{"offsetof(TPCANMsg.DATA)", unsafe.Offsetof(Msg{}.DATA), 6},
		{"sizeof(TPCANTimestamp)", unsafe.Sizeof(Timestamp{}), 8},
		{"offsetof(TPCANTimestamp.micros)", unsafe.Offsetof(Timestamp{}.Micros), 6},
		{"sizeof(TPCANMsgFD)", unsafe.Sizeof(MsgFD{}), 72},
		{"offsetof(TPCANMsgFD.DATA)", unsafe.Offsetof(MsgFD{}.DATA), 6},
		{"sizeof(TPCANChannelInformation)", unsafe.Sizeof(ChannelInformation{}), SizeofChannelInformation},
		{"offsetof(device_name)", unsafe.Offsetof(ChannelInformation{}.DeviceName), ciOffName},
		{"offsetof(device_id)", unsafe.Offsetof(ChannelInformation{}.DeviceID), ciOffDeviceID},
		{"offsetof(channel_condition)", unsafe.Offsetof(ChannelInformation{}.ChannelCondition), ciOffCondition},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
}

func TestTimestampMicroseconds(t *testing.T) {
	ts := Timestamp{Millis: 1500, MillisOverflow: 1, Micros: 250}
	want := uint64(250) + 1000*1500 + 0x100000000*1000
	if got := ts.Microseconds(); got != want {
		t.Errorf("Microseconds() = %d, want %d", got, want)
	}
}

func TestDLC(t *testing.T) {
	tests := []struct {
		n       int
		dlc     uint8
		ok      bool
		rounded int
	}{
		{0, 0, true, 0},
		{8, 8, true, 8},
		{9, 9, true, 12},
		{33, 14, true, 48},
		{64, 15, true, 64},
		{65, 0, false, 0},
	}
	for _, tt := range tests {
		dlc, ok := LengthToDLC(tt.n)
		if dlc != tt.dlc || ok != tt.ok {
			t.Errorf("LengthToDLC(%d) = %d, %v, want %d, %v", tt.n, dlc, ok, tt.dlc, tt.ok)
			continue
		}
		if ok && DLCToLength(dlc) != tt.rounded {
			t.Errorf("DLCToLength(%d) = %d, want %d", dlc, DLCToLength(dlc), tt.rounded)
		}
	}
}

func TestMsgPayloadClamped(t *testing.T) {
	m := Msg{LEN: 12}
	if n := len(m.Payload()); n != 8 {
		t.Errorf("len(Payload()) = %d, want 8", n)
	}
}

func TestChannelInformationBinary(t *testing.T) {
	in := ChannelInformation{
		ChannelHandle:    PCAN_USBBUS3,
		DeviceType:       PCAN_USB,
		ControllerNumber: 1,
		DeviceFeatures:   FEATURE_FD_CAPABLE,
		DeviceID:         42,
		ChannelCondition: PCAN_CHANNEL_AVAILABLE,
	}
	copy(in.DeviceName[:], "PCAN-USB FD")
	b, err := in.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if b[ciOffDeviceID] != 42 {
		t.Errorf("device id byte = %d", b[ciOffDeviceID])
	}
	var out ChannelInformation
	if err := out.UnmarshalBinary(b); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("UnmarshalBinary() = %+v, want %+v", out, in)
	}
	if out.Name() != "PCAN-USB FD" {
		t.Errorf("Name() = %q", out.Name())
	}
	if err := out.UnmarshalBinary(b[:10]); err == nil {
		t.Error("UnmarshalBinary(short) succeeded")
	}
}
