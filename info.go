package pcan

import (
	"fmt"
	"strings"

	"github.com/roffe/pcan/pkg/pcanbasic"
)

// Info describes the hardware behind an open channel.
type Info struct {
	Channel         pcanbasic.Handle
	HardwareName    string
	FirmwareVersion string
	ChannelVersion  string
	APIVersion      string
	DeviceID        uint32
	Features        uint32
}

func (in Info) String() string {
	var out strings.Builder
	fmt.Fprintf(&out, "Channel:  %s\n", in.Channel)
	fmt.Fprintf(&out, "Hardware: %s (device id %d)\n", in.HardwareName, in.DeviceID)
	if in.FirmwareVersion != "" {
		fmt.Fprintf(&out, "Firmware: %s\n", in.FirmwareVersion)
	}
	fmt.Fprintf(&out, "Driver:   %s\n", in.ChannelVersion)
	fmt.Fprintf(&out, "API:      %s\n", in.APIVersion)
	fmt.Fprintf(&out, "CAN FD:   %t", in.Features&pcanbasic.FEATURE_FD_CAPABLE != 0)
	return out.String()
}

// Info queries the channel's hardware. Not every device reports a firmware
// version, a failure to read it is logged and leaves the field empty.
func (i *Interface) Info() (Info, error) {
	if err := i.checkOpen(); err != nil {
		return Info{}, err
	}
	in := Info{Channel: i.channel}
	var err error
	if in.HardwareName, err = pcanbasic.HardwareName(i.api, i.channel); err != nil {
		return in, fmt.Errorf("pcan: hardware name %s: %w", i.channel, err)
	}
	if in.FirmwareVersion, err = pcanbasic.FirmwareVersion(i.api, i.channel); err != nil {
		i.log.Printf("%s: firmware version: %v", i.channel, err)
	}
	if in.ChannelVersion, err = pcanbasic.ChannelVersion(i.api, i.channel); err != nil {
		return in, fmt.Errorf("pcan: channel version %s: %w", i.channel, err)
	}
	if in.APIVersion, err = pcanbasic.APIVersion(i.api); err != nil {
		return in, fmt.Errorf("pcan: api version: %w", err)
	}
	if in.DeviceID, err = pcanbasic.DeviceID(i.api, i.channel); err != nil {
		return in, fmt.Errorf("pcan: device id %s: %w", i.channel, err)
	}
	if in.Features, err = pcanbasic.ChannelFeatures(i.api, i.channel); err != nil {
		return in, fmt.Errorf("pcan: features %s: %w", i.channel, err)
	}
	return in, nil
}

// Identify blinks the channel's LED while enabled.
func (i *Interface) Identify(enabled bool) error {
	if err := i.checkOpen(); err != nil {
		return err
	}
	return pcanbasic.SetChannelIdentifying(i.api, i.channel, enabled)
}

// Channel is an attached channel as reported by the driver.
type Channel struct {
	Handle    pcanbasic.Handle
	Device    pcanbasic.Device
	Name      string
	DeviceID  uint32
	FD        bool
	Condition pcanbasic.Condition
}

func (c Channel) String() string {
	fd := ""
	if c.FD {
		fd = ", FD"
	}
	return fmt.Sprintf("%-14s %s (id %d%s): %s", c.Handle, c.Name, c.DeviceID, fd, c.Condition)
}

// Channels lists the attached channels. It does not need an open channel.
func Channels(api pcanbasic.API) ([]Channel, error) {
	infos, err := pcanbasic.AttachedChannels(api)
	if err != nil {
		return nil, fmt.Errorf("pcan: attached channels: %w", err)
	}
	out := make([]Channel, 0, len(infos))
	for _, ci := range infos {
		out = append(out, Channel{
			Handle:    ci.ChannelHandle,
			Device:    ci.DeviceType,
			Name:      ci.Name(),
			DeviceID:  ci.DeviceID,
			FD:        ci.DeviceFeatures&pcanbasic.FEATURE_FD_CAPABLE != 0,
			Condition: pcanbasic.Condition(ci.ChannelCondition),
		})
	}
	return out, nil
}
