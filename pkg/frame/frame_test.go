package frame

import (
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/roffe/pcan/pkg/can"
)

func TestFormat(t *testing.T) {
	color.NoColor = true
	data, _ := can.NewDataFrame(can.StandardID(0x7E8), []byte("AB\x01"))
	remote, _ := can.NewRemoteFrame(can.ExtendedID(0x18DB33F1), 8)
	tests := []struct {
		name  string
		frame can.Frame
		want  []string
	}{
		{"data", data, []string{"     7E8 [3] || ", "41 42 01", "01000001 01000010 00000001", "AB."}},
		{"remote", remote, []string{"18DB33F1 [8] || remote request"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.frame)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Format() = %q, missing %q", got, w)
				}
			}
		})
	}
}
