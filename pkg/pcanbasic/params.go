package pcanbasic

import (
	"encoding/binary"
	"fmt"
)

// Helpers over GetValue/SetValue for the parameters with a fixed encoding.
// Numeric parameters are little-endian DWORDs unless noted otherwise.

// GetUint32 reads a DWORD parameter.
func GetUint32(api API, channel Handle, param Parameter) (uint32, error) {
	var buf [4]byte
	if err := Check(api, api.GetValue(channel, param, buf[:])); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// SetUint32 writes a DWORD parameter.
func SetUint32(api API, channel Handle, param Parameter, value uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	return Check(api, api.SetValue(channel, param, buf[:]))
}

// GetUint64 reads a 64 bit parameter such as an acceptance filter.
func GetUint64(api API, channel Handle, param Parameter) (uint64, error) {
	var buf [8]byte
	if err := Check(api, api.GetValue(channel, param, buf[:])); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// SetUint64 writes a 64 bit parameter.
func SetUint64(api API, channel Handle, param Parameter, value uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], value)
	return Check(api, api.SetValue(channel, param, buf[:]))
}

// GetString reads a NUL terminated string parameter using a buffer of size
// bytes.
func GetString(api API, channel Handle, param Parameter, size int) (string, error) {
	buf := make([]byte, size)
	if err := Check(api, api.GetValue(channel, param, buf)); err != nil {
		return "", err
	}
	return cString(buf), nil
}

// SetBool writes PCAN_PARAMETER_ON or PCAN_PARAMETER_OFF.
func SetBool(api API, channel Handle, param Parameter, on bool) error {
	var v uint32 = PCAN_PARAMETER_OFF
	if on {
		v = PCAN_PARAMETER_ON
	}
	return SetUint32(api, channel, param, v)
}

// GetBool reads an ON/OFF parameter.
func GetBool(api API, channel Handle, param Parameter) (bool, error) {
	v, err := GetUint32(api, channel, param)
	return v == PCAN_PARAMETER_ON, err
}

// Condition is the availability of a channel, PCAN_CHANNEL_CONDITION.
type Condition uint32

const (
	ChannelUnavailable = Condition(PCAN_CHANNEL_UNAVAILABLE)
	ChannelAvailable   = Condition(PCAN_CHANNEL_AVAILABLE)
	ChannelOccupied    = Condition(PCAN_CHANNEL_OCCUPIED)
	ChannelPCANView    = Condition(PCAN_CHANNEL_PCANVIEW)
)

func (c Condition) String() string {
	switch c {
	case ChannelUnavailable:
		return "unavailable"
	case ChannelAvailable:
		return "available"
	case ChannelOccupied:
		return "occupied"
	case ChannelPCANView:
		return "occupied by PCAN-View"
	default:
		return fmt.Sprintf("condition(%d)", uint32(c))
	}
}

// ChannelCondition can be queried without initializing the channel.
func ChannelCondition(api API, channel Handle) (Condition, error) {
	v, err := GetUint32(api, channel, PCAN_CHANNEL_CONDITION)
	if err != nil {
		return ChannelUnavailable, err
	}
	return Condition(v), nil
}

func HardwareName(api API, channel Handle) (string, error) {
	return GetString(api, channel, PCAN_HARDWARE_NAME, MAX_LENGTH_HARDWARE_NAME)
}

func APIVersion(api API) (string, error) {
	return GetString(api, PCAN_NONEBUS, PCAN_API_VERSION, MAX_LENGTH_VERSION_STRING)
}

func ChannelVersion(api API, channel Handle) (string, error) {
	return GetString(api, channel, PCAN_CHANNEL_VERSION, MAX_LENGTH_VERSION_STRING)
}

func FirmwareVersion(api API, channel Handle) (string, error) {
	return GetString(api, channel, PCAN_FIRMWARE_VERSION, MAX_LENGTH_VERSION_STRING)
}

func DevicePartNumber(api API, channel Handle) (string, error) {
	return GetString(api, channel, PCAN_DEVICE_PART_NUMBER, 100)
}

func DeviceID(api API, channel Handle) (uint32, error) {
	return GetUint32(api, channel, PCAN_DEVICE_ID)
}

// ChannelFeatures returns the FEATURE_* flags of a channel.
func ChannelFeatures(api API, channel Handle) (uint32, error) {
	return GetUint32(api, channel, PCAN_CHANNEL_FEATURES)
}

// SetChannelIdentifying blinks the channel LED while enabled.
func SetChannelIdentifying(api API, channel Handle, enabled bool) error {
	return SetBool(api, channel, PCAN_CHANNEL_IDENTIFYING, enabled)
}

// AttachedChannels lists every channel the driver knows about.
func AttachedChannels(api API) ([]ChannelInformation, error) {
	count, err := GetUint32(api, PCAN_NONEBUS, PCAN_ATTACHED_CHANNELS_COUNT)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	buf := make([]byte, int(count)*SizeofChannelInformation)
	if err := Check(api, api.GetValue(PCAN_NONEBUS, PCAN_ATTACHED_CHANNELS, buf)); err != nil {
		return nil, err
	}
	channels := make([]ChannelInformation, count)
	for i := range channels {
		if err := channels[i].UnmarshalBinary(buf[i*SizeofChannelInformation:]); err != nil {
			return nil, err
		}
	}
	return channels, nil
}

// Offsets of TPCANChannelInformation fields.
const (
	ciOffHandle     = 0
	ciOffDevice     = 2
	ciOffController = 3
	ciOffFeatures   = 4
	ciOffName       = 8
	ciOffDeviceID   = 44
	ciOffCondition  = 48
)

// MarshalBinary encodes the C layout of TPCANChannelInformation.
func (c *ChannelInformation) MarshalBinary() ([]byte, error) {
	b := make([]byte, SizeofChannelInformation)
	binary.LittleEndian.PutUint16(b[ciOffHandle:], uint16(c.ChannelHandle))
	b[ciOffDevice] = uint8(c.DeviceType)
	b[ciOffController] = c.ControllerNumber
	binary.LittleEndian.PutUint32(b[ciOffFeatures:], c.DeviceFeatures)
	copy(b[ciOffName:ciOffName+MAX_LENGTH_HARDWARE_NAME], c.DeviceName[:])
	binary.LittleEndian.PutUint32(b[ciOffDeviceID:], c.DeviceID)
	binary.LittleEndian.PutUint32(b[ciOffCondition:], c.ChannelCondition)
	return b, nil
}

// UnmarshalBinary decodes the C layout of TPCANChannelInformation.
func (c *ChannelInformation) UnmarshalBinary(b []byte) error {
	if len(b) < SizeofChannelInformation {
		return fmt.Errorf("pcanbasic: channel information needs %d bytes, got %d", SizeofChannelInformation, len(b))
	}
	c.ChannelHandle = Handle(binary.LittleEndian.Uint16(b[ciOffHandle:]))
	c.DeviceType = Device(b[ciOffDevice])
	c.ControllerNumber = b[ciOffController]
	c.DeviceFeatures = binary.LittleEndian.Uint32(b[ciOffFeatures:])
	copy(c.DeviceName[:], b[ciOffName:ciOffName+MAX_LENGTH_HARDWARE_NAME])
	c.DeviceID = binary.LittleEndian.Uint32(b[ciOffDeviceID:])
	c.ChannelCondition = binary.LittleEndian.Uint32(b[ciOffCondition:])
	return nil
}
