package pcanbasic

// Go mirrors of the PCANBasic.h typedefs. Widths follow the header:
// WORD -> uint16, DWORD -> uint32, BYTE -> uint8.

type (
	Handle      uint16 // TPCANHandle, a PCAN hardware channel
	Status      uint32 // TPCANStatus, a status or error code
	Parameter   uint8  // TPCANParameter, a GetValue/SetValue parameter
	Device      uint8  // TPCANDevice, the kind of PCAN hardware
	MessageType uint8  // TPCANMessageType, frame type flags
	Type        uint8  // TPCANType, non-PnP hardware type
	Mode        uint8  // TPCANMode, FilterMessages mode
	Baudrate    uint16 // TPCANBaudrate, BTR0BTR1 register pair
	TimestampFD uint64 // TPCANTimestampFD, microseconds
)

// Channel handles.
const (
	PCAN_NONEBUS Handle = 0x00

	PCAN_ISABUS1 Handle = 0x21
	PCAN_ISABUS2 Handle = 0x22
	PCAN_ISABUS3 Handle = 0x23
	PCAN_ISABUS4 Handle = 0x24
	PCAN_ISABUS5 Handle = 0x25
	PCAN_ISABUS6 Handle = 0x26
	PCAN_ISABUS7 Handle = 0x27
	PCAN_ISABUS8 Handle = 0x28

	PCAN_DNGBUS1 Handle = 0x31

	PCAN_PCIBUS1  Handle = 0x41
	PCAN_PCIBUS2  Handle = 0x42
	PCAN_PCIBUS3  Handle = 0x43
	PCAN_PCIBUS4  Handle = 0x44
	PCAN_PCIBUS5  Handle = 0x45
	PCAN_PCIBUS6  Handle = 0x46
	PCAN_PCIBUS7  Handle = 0x47
	PCAN_PCIBUS8  Handle = 0x48
	PCAN_PCIBUS9  Handle = 0x409
	PCAN_PCIBUS10 Handle = 0x40A
	PCAN_PCIBUS11 Handle = 0x40B
	PCAN_PCIBUS12 Handle = 0x40C
	PCAN_PCIBUS13 Handle = 0x40D
	PCAN_PCIBUS14 Handle = 0x40E
	PCAN_PCIBUS15 Handle = 0x40F
	PCAN_PCIBUS16 Handle = 0x410

	PCAN_USBBUS1  Handle = 0x51
	PCAN_USBBUS2  Handle = 0x52
	PCAN_USBBUS3  Handle = 0x53
	PCAN_USBBUS4  Handle = 0x54
	PCAN_USBBUS5  Handle = 0x55
	PCAN_USBBUS6  Handle = 0x56
	PCAN_USBBUS7  Handle = 0x57
	PCAN_USBBUS8  Handle = 0x58
	PCAN_USBBUS9  Handle = 0x509
	PCAN_USBBUS10 Handle = 0x50A
	PCAN_USBBUS11 Handle = 0x50B
	PCAN_USBBUS12 Handle = 0x50C
	PCAN_USBBUS13 Handle = 0x50D
	PCAN_USBBUS14 Handle = 0x50E
	PCAN_USBBUS15 Handle = 0x50F
	PCAN_USBBUS16 Handle = 0x510

	PCAN_PCCBUS1 Handle = 0x61
	PCAN_PCCBUS2 Handle = 0x62

	PCAN_LANBUS1  Handle = 0x801
	PCAN_LANBUS2  Handle = 0x802
	PCAN_LANBUS3  Handle = 0x803
	PCAN_LANBUS4  Handle = 0x804
	PCAN_LANBUS5  Handle = 0x805
	PCAN_LANBUS6  Handle = 0x806
	PCAN_LANBUS7  Handle = 0x807
	PCAN_LANBUS8  Handle = 0x808
	PCAN_LANBUS9  Handle = 0x809
	PCAN_LANBUS10 Handle = 0x80A
	PCAN_LANBUS11 Handle = 0x80B
	PCAN_LANBUS12 Handle = 0x80C
	PCAN_LANBUS13 Handle = 0x80D
	PCAN_LANBUS14 Handle = 0x80E
	PCAN_LANBUS15 Handle = 0x80F
	PCAN_LANBUS16 Handle = 0x810
)

// Status codes. Bus and queue states are bit flags and may be combined.
const (
	PCAN_ERROR_OK           Status = 0x00000
	PCAN_ERROR_XMTFULL      Status = 0x00001 // transmit buffer in CAN controller is full
	PCAN_ERROR_OVERRUN      Status = 0x00002 // CAN controller was read too late
	PCAN_ERROR_BUSLIGHT     Status = 0x00004 // an error counter reached the 'light' limit
	PCAN_ERROR_BUSHEAVY     Status = 0x00008 // an error counter reached the 'heavy' limit
	PCAN_ERROR_BUSWARNING   Status = PCAN_ERROR_BUSHEAVY
	PCAN_ERROR_BUSPASSIVE   Status = 0x40000 // controller is error passive
	PCAN_ERROR_BUSOFF       Status = 0x00010 // controller is bus-off
	PCAN_ERROR_ANYBUSERR    Status = PCAN_ERROR_BUSWARNING | PCAN_ERROR_BUSLIGHT | PCAN_ERROR_BUSHEAVY | PCAN_ERROR_BUSOFF | PCAN_ERROR_BUSPASSIVE
	PCAN_ERROR_QRCVEMPTY    Status = 0x00020 // receive queue is empty
	PCAN_ERROR_QOVERRUN     Status = 0x00040 // receive queue was read too late
	PCAN_ERROR_QXMTFULL     Status = 0x00080 // transmit queue is full
	PCAN_ERROR_REGTEST      Status = 0x00100 // controller register test failed
	PCAN_ERROR_NODRIVER     Status = 0x00200 // driver not loaded
	PCAN_ERROR_HWINUSE      Status = 0x00400 // hardware already in use by a net
	PCAN_ERROR_NETINUSE     Status = 0x00800 // a client is already connected to the net
	PCAN_ERROR_ILLHW        Status = 0x01400 // hardware handle is invalid
	PCAN_ERROR_ILLNET       Status = 0x01800 // net handle is invalid
	PCAN_ERROR_ILLCLIENT    Status = 0x01C00 // client handle is invalid
	PCAN_ERROR_ILLHANDLE    Status = PCAN_ERROR_ILLHW | PCAN_ERROR_ILLNET | PCAN_ERROR_ILLCLIENT
	PCAN_ERROR_RESOURCE     Status = 0x02000   // resource (FIFO, client, timeout) cannot be created
	PCAN_ERROR_ILLPARAMTYPE Status = 0x04000   // invalid parameter
	PCAN_ERROR_ILLPARAMVAL  Status = 0x08000   // invalid parameter value
	PCAN_ERROR_UNKNOWN      Status = 0x10000   // unknown error
	PCAN_ERROR_ILLDATA      Status = 0x20000   // invalid data, function, or action
	PCAN_ERROR_ILLMODE      Status = 0x80000   // driver object state is wrong for the operation
	PCAN_ERROR_CAUTION      Status = 0x2000000 // operation succeeded but with irregularities
	PCAN_ERROR_INITIALIZE   Status = 0x4000000 // channel is not initialized
	PCAN_ERROR_ILLOPERATION Status = 0x8000000 // invalid operation
)

// Devices.
const (
	PCAN_NONE    Device = 0x00
	PCAN_PEAKCAN Device = 0x01
	PCAN_ISA     Device = 0x02
	PCAN_DNG     Device = 0x03
	PCAN_PCI     Device = 0x04
	PCAN_USB     Device = 0x05
	PCAN_PCC     Device = 0x06
	PCAN_VIRTUAL Device = 0x07
	PCAN_LAN     Device = 0x08
)

// Parameters for GetValue and SetValue.
const (
	PCAN_DEVICE_ID                Parameter = 0x01
	PCAN_5VOLTS_POWER             Parameter = 0x02
	PCAN_RECEIVE_EVENT            Parameter = 0x03
	PCAN_MESSAGE_FILTER           Parameter = 0x04
	PCAN_API_VERSION              Parameter = 0x05
	PCAN_CHANNEL_VERSION          Parameter = 0x06
	PCAN_BUSOFF_AUTORESET         Parameter = 0x07
	PCAN_LISTEN_ONLY              Parameter = 0x08
	PCAN_LOG_LOCATION             Parameter = 0x09
	PCAN_LOG_STATUS               Parameter = 0x0A
	PCAN_LOG_CONFIGURE            Parameter = 0x0B
	PCAN_LOG_TEXT                 Parameter = 0x0C
	PCAN_CHANNEL_CONDITION        Parameter = 0x0D
	PCAN_HARDWARE_NAME            Parameter = 0x0E
	PCAN_RECEIVE_STATUS           Parameter = 0x0F
	PCAN_CONTROLLER_NUMBER        Parameter = 0x10
	PCAN_TRACE_LOCATION           Parameter = 0x11
	PCAN_TRACE_STATUS             Parameter = 0x12
	PCAN_TRACE_SIZE               Parameter = 0x13
	PCAN_TRACE_CONFIGURE          Parameter = 0x14
	PCAN_CHANNEL_IDENTIFYING      Parameter = 0x15
	PCAN_CHANNEL_FEATURES         Parameter = 0x16
	PCAN_BITRATE_ADAPTING         Parameter = 0x17
	PCAN_BITRATE_INFO             Parameter = 0x18
	PCAN_BITRATE_INFO_FD          Parameter = 0x19
	PCAN_BUSSPEED_NOMINAL         Parameter = 0x1A
	PCAN_BUSSPEED_DATA            Parameter = 0x1B
	PCAN_IP_ADDRESS               Parameter = 0x1C
	PCAN_LAN_SERVICE_STATUS       Parameter = 0x1D
	PCAN_ALLOW_STATUS_FRAMES      Parameter = 0x1E
	PCAN_ALLOW_RTR_FRAMES         Parameter = 0x1F
	PCAN_ALLOW_ERROR_FRAMES       Parameter = 0x20
	PCAN_INTERFRAME_DELAY         Parameter = 0x21
	PCAN_ACCEPTANCE_FILTER_11BIT  Parameter = 0x22
	PCAN_ACCEPTANCE_FILTER_29BIT  Parameter = 0x23
	PCAN_IO_DIGITAL_CONFIGURATION Parameter = 0x24
	PCAN_IO_DIGITAL_VALUE         Parameter = 0x25
	PCAN_IO_DIGITAL_SET           Parameter = 0x26
	PCAN_IO_DIGITAL_CLEAR         Parameter = 0x27
	PCAN_IO_ANALOG_VALUE          Parameter = 0x28
	PCAN_FIRMWARE_VERSION         Parameter = 0x29
	PCAN_ATTACHED_CHANNELS_COUNT  Parameter = 0x2A
	PCAN_ATTACHED_CHANNELS        Parameter = 0x2B
	PCAN_ALLOW_ECHO_FRAMES        Parameter = 0x2C
	PCAN_DEVICE_PART_NUMBER       Parameter = 0x2D
	PCAN_HARD_RESET_STATUS        Parameter = 0x2E
	PCAN_LAN_CHANNEL_DIRECTION    Parameter = 0x2F
	PCAN_DEVICE_GUID              Parameter = 0x30

	// Deprecated: use PCAN_DEVICE_ID.
	PCAN_DEVICE_NUMBER = PCAN_DEVICE_ID
)

// Parameter values.
const (
	PCAN_PARAMETER_OFF = 0x00
	PCAN_PARAMETER_ON  = 0x01

	PCAN_FILTER_CLOSE  = 0x00 // nothing is received
	PCAN_FILTER_OPEN   = 0x01 // everything is received
	PCAN_FILTER_CUSTOM = 0x02 // only frames passing the acceptance filter are received

	PCAN_CHANNEL_UNAVAILABLE = 0x00
	PCAN_CHANNEL_AVAILABLE   = 0x01
	PCAN_CHANNEL_OCCUPIED    = 0x02
	PCAN_CHANNEL_PCANVIEW    = PCAN_CHANNEL_AVAILABLE | PCAN_CHANNEL_OCCUPIED

	LOG_FUNCTION_DEFAULT    = 0x00
	LOG_FUNCTION_ENTRY      = 0x01
	LOG_FUNCTION_PARAMETERS = 0x02
	LOG_FUNCTION_LEAVE      = 0x04
	LOG_FUNCTION_WRITE      = 0x08
	LOG_FUNCTION_READ       = 0x10
	LOG_FUNCTION_ALL        = 0xFFFF

	TRACE_FILE_SINGLE      = 0x00
	TRACE_FILE_SEGMENTED   = 0x01
	TRACE_FILE_DATE        = 0x02
	TRACE_FILE_TIME        = 0x04
	TRACE_FILE_OVERWRITE   = 0x80
	TRACE_FILE_DATA_LENGTH = 0x100

	FEATURE_FD_CAPABLE    = 0x01
	FEATURE_DELAY_CAPABLE = 0x02
	FEATURE_IO_CAPABLE    = 0x04

	SERVICE_STATUS_STOPPED = 0x01
	SERVICE_STATUS_RUNNING = 0x04

	LAN_DIRECTION_READ       = 0x01
	LAN_DIRECTION_WRITE      = 0x02
	LAN_DIRECTION_READ_WRITE = LAN_DIRECTION_READ | LAN_DIRECTION_WRITE

	MAX_LENGTH_HARDWARE_NAME  = 33
	MAX_LENGTH_VERSION_STRING = 256
)

// Message types.
const (
	PCAN_MESSAGE_STANDARD MessageType = 0x00
	PCAN_MESSAGE_RTR      MessageType = 0x01
	PCAN_MESSAGE_EXTENDED MessageType = 0x02
	PCAN_MESSAGE_FD       MessageType = 0x04
	PCAN_MESSAGE_BRS      MessageType = 0x08
	PCAN_MESSAGE_ESI      MessageType = 0x10
	PCAN_MESSAGE_ECHO     MessageType = 0x20
	PCAN_MESSAGE_ERRFRAME MessageType = 0x40
	PCAN_MESSAGE_STATUS   MessageType = 0x80
)

// Keys accepted by LookUpChannel.
const (
	LOOKUP_DEVICE_TYPE       = "devicetype"
	LOOKUP_DEVICE_ID         = "deviceid"
	LOOKUP_CONTROLLER_NUMBER = "controllernumber"
	LOOKUP_IP_ADDRESS        = "ipaddress"
	LOOKUP_DEVICE_GUID       = "deviceguid"
)

// Filter modes.
const (
	PCAN_MODE_STANDARD = Mode(PCAN_MESSAGE_STANDARD)
	PCAN_MODE_EXTENDED = Mode(PCAN_MESSAGE_EXTENDED)
)

// Classic bit rates as BTR0BTR1 values for a 16 MHz SJA1000 clock.
const (
	PCAN_BAUD_1M   Baudrate = 0x0014
	PCAN_BAUD_800K Baudrate = 0x0016
	PCAN_BAUD_500K Baudrate = 0x001C
	PCAN_BAUD_250K Baudrate = 0x011C
	PCAN_BAUD_125K Baudrate = 0x031C
	PCAN_BAUD_100K Baudrate = 0x432F
	PCAN_BAUD_95K  Baudrate = 0xC34E
	PCAN_BAUD_83K  Baudrate = 0x852B
	PCAN_BAUD_50K  Baudrate = 0x472F
	PCAN_BAUD_47K  Baudrate = 0x1414
	PCAN_BAUD_33K  Baudrate = 0x8B2F
	PCAN_BAUD_20K  Baudrate = 0x532F
	PCAN_BAUD_10K  Baudrate = 0x672F
	PCAN_BAUD_5K   Baudrate = 0x7F7F
)

// Keys of an FD bit rate string, e.g.
// "f_clock_mhz=20, nom_brp=5, nom_tseg1=2, nom_tseg2=1, nom_sjw=1, data_brp=2, data_tseg1=3, data_tseg2=1, data_sjw=1".
const (
	PCAN_BR_CLOCK       = "f_clock"
	PCAN_BR_CLOCK_MHZ   = "f_clock_mhz"
	PCAN_BR_NOM_BRP     = "nom_brp"
	PCAN_BR_NOM_TSEG1   = "nom_tseg1"
	PCAN_BR_NOM_TSEG2   = "nom_tseg2"
	PCAN_BR_NOM_SJW     = "nom_sjw"
	PCAN_BR_NOM_SAMPLE  = "nom_sam"
	PCAN_BR_DATA_BRP    = "data_brp"
	PCAN_BR_DATA_TSEG1  = "data_tseg1"
	PCAN_BR_DATA_TSEG2  = "data_tseg2"
	PCAN_BR_DATA_SJW    = "data_sjw"
	PCAN_BR_DATA_SAMPLE = "data_ssp_offset"
)

// Non-PnP hardware types, only meaningful for ISA and Dongle channels.
const (
	PCAN_TYPE_ISA         Type = 0x01
	PCAN_TYPE_ISA_SJA     Type = 0x09
	PCAN_TYPE_ISA_PHYTEC  Type = 0x04
	PCAN_TYPE_DNG         Type = 0x02
	PCAN_TYPE_DNG_EPP     Type = 0x03
	PCAN_TYPE_DNG_SJA     Type = 0x05
	PCAN_TYPE_DNG_SJA_EPP Type = 0x06
)

// Payload limits.
const (
	LENGTH_DATA_CAN_MESSAGE   = 8
	LENGTH_DATA_CANFD_MESSAGE = 64
)

// Msg is TPCANMsg, a classic CAN frame. Field order and widths must not
// change: the struct is passed to the library by pointer.
type Msg struct {
	ID      uint32
	MSGTYPE MessageType
	LEN     uint8
	DATA    [LENGTH_DATA_CAN_MESSAGE]uint8
}

// Payload returns the valid data bytes.
func (m *Msg) Payload() []byte {
	n := int(m.LEN)
	if n > len(m.DATA) {
		n = len(m.DATA)
	}
	return m.DATA[:n]
}

// Timestamp is TPCANTimestamp.
type Timestamp struct {
	Millis         uint32 // 0 .. 2^32-1
	MillisOverflow uint16 // roll-arounds of Millis
	Micros         uint16 // 0 .. 999
}

// Microseconds returns micros + 1000*millis + 2^32*1000*overflow.
func (t Timestamp) Microseconds() uint64 {
	return uint64(t.Micros) + 1000*uint64(t.Millis) + 0x100000000*1000*uint64(t.MillisOverflow)
}

// MsgFD is TPCANMsgFD. DLC is the FD length code (0..15), not a byte count.
type MsgFD struct {
	ID      uint32
	MSGTYPE MessageType
	DLC     uint8
	DATA    [LENGTH_DATA_CANFD_MESSAGE]uint8
}

var fdLengths = [16]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 12, 16, 20, 24, 32, 48, 64}

// DLCToLength converts a CAN FD DLC to a byte count.
func DLCToLength(dlc uint8) int {
	return fdLengths[dlc&0x0F]
}

// LengthToDLC returns the smallest DLC able to carry n bytes.
func LengthToDLC(n int) (uint8, bool) {
	for dlc, l := range fdLengths {
		if n <= l {
			return uint8(dlc), true
		}
	}
	return 0, false
}

// Payload returns the valid data bytes.
func (m *MsgFD) Payload() []byte {
	return m.DATA[:DLCToLength(m.DLC)]
}

// ChannelInformation is TPCANChannelInformation.
type ChannelInformation struct {
	ChannelHandle    Handle
	DeviceType       Device
	ControllerNumber uint8
	DeviceFeatures   uint32
	DeviceName       [MAX_LENGTH_HARDWARE_NAME]byte
	DeviceID         uint32
	ChannelCondition uint32
}

// SizeofChannelInformation is sizeof(TPCANChannelInformation) with the
// header's natural alignment.
const SizeofChannelInformation = 52

// Name returns DeviceName up to the NUL terminator.
func (c *ChannelInformation) Name() string {
	return cString(c.DeviceName[:])
}

func cString(b []byte) string {
	for i, v := range b {
		if v == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
