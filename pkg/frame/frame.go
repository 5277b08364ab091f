// Package frame renders CAN frames for terminal dumps.
package frame

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/roffe/pcan/pkg/can"
)

var (
	yellow = color.New(color.FgHiBlue).SprintfFunc()
	red    = color.New(color.FgRed).SprintfFunc()
	green  = color.New(color.FgGreen).SprintfFunc()
	faint  = color.New(color.Faint).SprintfFunc()
)

var printable = regexp.MustCompile("[^A-Za-z0-9.,!?]+")

type timestamped interface {
	Timestamp() time.Duration
}

type statusFrame interface {
	IsStatus() bool
}

// Format returns a one line view of f: timestamp when known, identifier,
// hex, binary and printable characters.
func Format(f can.Frame) string {
	var out strings.Builder
	if ts, ok := f.(timestamped); ok {
		out.WriteString(faint("%12.6f", ts.Timestamp().Seconds()) + " ")
	}
	if f.IsExtended() {
		out.WriteString(green("%08X", f.ID().Raw()))
	} else {
		out.WriteString(green("     %03X", f.ID().Raw()))
	}
	out.WriteString(fmt.Sprintf(" [%d] || ", f.DLC()))

	if s, ok := f.(statusFrame); ok && s.IsStatus() {
		out.WriteString(red("%v", f))
		return out.String()
	}
	if f.IsRemote() {
		out.WriteString("remote request")
		return out.String()
	}

	data := f.Data()
	hexView := make([]string, len(data))
	binView := make([]string, len(data))
	for i, b := range data {
		hexView[i] = fmt.Sprintf("%02X", b)
		binView[i] = fmt.Sprintf("%08b", b)
	}
	out.WriteString(fmt.Sprintf("%-23s", strings.Join(hexView, " ")))
	out.WriteString(" || ")
	out.WriteString(red("%-71s", strings.Join(binView, " ")))
	out.WriteString(" || ")
	out.WriteString(yellow("%8s", printable.ReplaceAllString(string(data), ".")))
	return out.String()
}
