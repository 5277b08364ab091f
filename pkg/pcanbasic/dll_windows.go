//go:build windows

package pcanbasic

import (
	"encoding/binary"
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

type dll struct {
	lib *windows.DLL

	procInitialize     *windows.Proc
	procInitializeFD   *windows.Proc
	procUninitialize   *windows.Proc
	procReset          *windows.Proc
	procGetStatus      *windows.Proc
	procRead           *windows.Proc
	procReadFD         *windows.Proc
	procWrite          *windows.Proc
	procWriteFD        *windows.Proc
	procFilterMessages *windows.Proc
	procGetValue       *windows.Proc
	procSetValue       *windows.Proc
	procGetErrorText   *windows.Proc
	procLookUpChannel  *windows.Proc
}

// Load opens the PCAN-Basic library at path and resolves its exports.
func Load(path string) (API, error) {
	lib, err := windows.LoadDLL(path)
	if err != nil {
		return nil, fmt.Errorf("pcanbasic: load %s: %w", path, err)
	}
	d := &dll{lib: lib}
	procs := map[string]**windows.Proc{
		"CAN_Initialize":     &d.procInitialize,
		"CAN_InitializeFD":   &d.procInitializeFD,
		"CAN_Uninitialize":   &d.procUninitialize,
		"CAN_Reset":          &d.procReset,
		"CAN_GetStatus":      &d.procGetStatus,
		"CAN_Read":           &d.procRead,
		"CAN_ReadFD":         &d.procReadFD,
		"CAN_Write":          &d.procWrite,
		"CAN_WriteFD":        &d.procWriteFD,
		"CAN_FilterMessages": &d.procFilterMessages,
		"CAN_GetValue":       &d.procGetValue,
		"CAN_SetValue":       &d.procSetValue,
		"CAN_GetErrorText":   &d.procGetErrorText,
		"CAN_LookUpChannel":  &d.procLookUpChannel,
	}
	for name, proc := range procs {
		*proc, err = lib.FindProc(name)
		if err != nil {
			lib.Release()
			return nil, fmt.Errorf("pcanbasic: %s: %w", path, err)
		}
	}
	return d, nil
}

// LoadDefault loads PCANBasic.dll from the system search path.
func LoadDefault() (API, error) {
	return Load(DefaultLibrary)
}

func status(r1, _ uintptr, _ error) Status {
	return Status(r1)
}

func (d *dll) Initialize(channel Handle, btr0btr1 Baudrate, hwType Type, ioPort uint32, interrupt uint16) Status {
	return status(d.procInitialize.Call(
		uintptr(channel),
		uintptr(btr0btr1),
		uintptr(hwType),
		uintptr(ioPort),
		uintptr(interrupt),
	))
}

func (d *dll) InitializeFD(channel Handle, bitrateFD string) Status {
	p, err := windows.BytePtrFromString(bitrateFD)
	if err != nil {
		return PCAN_ERROR_ILLPARAMVAL
	}
	return status(d.procInitializeFD.Call(uintptr(channel), uintptr(unsafe.Pointer(p))))
}

func (d *dll) Uninitialize(channel Handle) Status {
	return status(d.procUninitialize.Call(uintptr(channel)))
}

func (d *dll) Reset(channel Handle) Status {
	return status(d.procReset.Call(uintptr(channel)))
}

func (d *dll) GetStatus(channel Handle) Status {
	return status(d.procGetStatus.Call(uintptr(channel)))
}

func (d *dll) Read(channel Handle, msg *Msg, timestamp *Timestamp) Status {
	return status(d.procRead.Call(
		uintptr(channel),
		uintptr(unsafe.Pointer(msg)),
		uintptr(unsafe.Pointer(timestamp)),
	))
}

func (d *dll) ReadFD(channel Handle, msg *MsgFD, timestamp *TimestampFD) Status {
	return status(d.procReadFD.Call(
		uintptr(channel),
		uintptr(unsafe.Pointer(msg)),
		uintptr(unsafe.Pointer(timestamp)),
	))
}

func (d *dll) Write(channel Handle, msg *Msg) Status {
	return status(d.procWrite.Call(uintptr(channel), uintptr(unsafe.Pointer(msg))))
}

func (d *dll) WriteFD(channel Handle, msg *MsgFD) Status {
	return status(d.procWriteFD.Call(uintptr(channel), uintptr(unsafe.Pointer(msg))))
}

func (d *dll) FilterMessages(channel Handle, fromID, toID uint32, mode Mode) Status {
	return status(d.procFilterMessages.Call(
		uintptr(channel),
		uintptr(fromID),
		uintptr(toID),
		uintptr(mode),
	))
}

func (d *dll) GetValue(channel Handle, param Parameter, buf []byte) Status {
	if len(buf) == 0 {
		return PCAN_ERROR_ILLPARAMVAL
	}
	return status(d.procGetValue.Call(
		uintptr(channel),
		uintptr(param),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
	))
}

func (d *dll) SetValue(channel Handle, param Parameter, buf []byte) Status {
	if len(buf) == 0 {
		return PCAN_ERROR_ILLPARAMVAL
	}
	return status(d.procSetValue.Call(
		uintptr(channel),
		uintptr(param),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
	))
}

func (d *dll) GetErrorText(st Status, language uint16) (string, Status) {
	// The library requires a buffer of at least 256 bytes.
	var buf [MAX_LENGTH_VERSION_STRING]byte
	ret := status(d.procGetErrorText.Call(
		uintptr(st),
		uintptr(language),
		uintptr(unsafe.Pointer(&buf[0])),
	))
	if ret != PCAN_ERROR_OK {
		return "", ret
	}
	return cString(buf[:]), ret
}

func (d *dll) LookUpChannel(parameters string) (Handle, Status) {
	p, err := windows.BytePtrFromString(parameters)
	if err != nil {
		return PCAN_NONEBUS, PCAN_ERROR_ILLPARAMVAL
	}
	var h Handle
	ret := status(d.procLookUpChannel.Call(uintptr(unsafe.Pointer(p)), uintptr(unsafe.Pointer(&h))))
	return h, ret
}

func (d *dll) NewReceiveEvent() (ReceiveEvent, error) {
	// auto-reset, initially non-signaled, unnamed
	h, err := windows.CreateEvent(nil, 0, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("pcanbasic: CreateEvent: %w", err)
	}
	return &winEvent{h: h}, nil
}

type winEvent struct {
	h windows.Handle
}

// Value encodes the HANDLE pointer sized, as the library expects on both
// 32 and 64 bit builds.
func (e *winEvent) Value() []byte {
	b := make([]byte, unsafe.Sizeof(e.h))
	if len(b) == 8 {
		binary.LittleEndian.PutUint64(b, uint64(e.h))
	} else {
		binary.LittleEndian.PutUint32(b, uint32(e.h))
	}
	return b
}

func (e *winEvent) Wait(timeout time.Duration) error {
	if e.h == 0 {
		return ErrEventClosed
	}
	ms := uint32(windows.INFINITE)
	if timeout >= 0 {
		ms = uint32(timeout / time.Millisecond)
	}
	ret, err := windows.WaitForSingleObject(e.h, ms)
	switch ret {
	case windows.WAIT_OBJECT_0:
		return nil
	case uint32(windows.WAIT_TIMEOUT):
		return ErrWaitTimeout
	case windows.WAIT_FAILED:
		return fmt.Errorf("pcanbasic: WaitForSingleObject: %w", err)
	default:
		return fmt.Errorf("pcanbasic: unexpected wait result 0x%08X", ret)
	}
}

func (e *winEvent) Close() error {
	if e.h == 0 {
		return nil
	}
	err := windows.CloseHandle(e.h)
	e.h = 0
	return err
}
