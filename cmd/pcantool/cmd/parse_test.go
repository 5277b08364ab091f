package cmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/roffe/pcan/pkg/can"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		in       string
		extended bool
		want     can.ID
		wantErr  bool
	}{
		{"7E0", false, can.StandardID(0x7E0), false},
		{"0x7e8", false, can.StandardID(0x7E8), false},
		{"7E0", true, can.ExtendedID(0x7E0), false},
		{"18DB33F1", false, can.ExtendedID(0x18DB33F1), false},
		{"20000000", false, can.ID{}, true},
		{"xyz", false, can.ID{}, true},
	}
	for _, tt := range tests {
		got, err := parseID(tt.in, tt.extended)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseID(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseID(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseData(t *testing.T) {
	got, err := parseData("02 10", "03")
	if err != nil || !bytes.Equal(got, []byte{0x02, 0x10, 0x03}) {
		t.Errorf("parseData() = % X, %v", got, err)
	}
	got, err = parseData("de:ad:be:ef")
	if err != nil || !bytes.Equal(got, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Errorf("parseData() = % X, %v", got, err)
	}
	if _, err := parseData("010203040506070809"); !errors.Is(err, can.ErrDataTooLong) {
		t.Errorf("parseData() error = %v, want ErrDataTooLong", err)
	}
	if _, err := parseData("123"); err == nil {
		t.Error("parseData() accepted odd length")
	}
}
