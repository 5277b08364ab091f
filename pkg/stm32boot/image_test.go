package stm32boot

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const contiguousHex = `:020000040800F2
:0400000001020304F2
:0400040005060708DE
:00000001FF
`

const gappedHex = `:020000040800F2
:0400000001020304F2
:0400100005060708D2
:00000001FF
`

func TestParseHex(t *testing.T) {
	img, err := ParseHex(strings.NewReader(contiguousHex))
	if err != nil {
		t.Fatal(err)
	}
	if !img.HasAddress || img.Address != 0x08000000 {
		t.Errorf("address = 0x%08X (%v)", img.Address, img.HasAddress)
	}
	if !bytes.Equal(img.Data, []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Errorf("data = % X", img.Data)
	}

	if _, err := ParseHex(strings.NewReader(gappedHex)); err == nil || !strings.Contains(err.Error(), "gap") {
		t.Errorf("ParseHex(gapped) = %v", err)
	}
	if _, err := ParseHex(strings.NewReader(":0400000001020304FF\n")); err == nil {
		t.Error("ParseHex(bad checksum) succeeded")
	}
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "fw.bin")
	if err := os.WriteFile(bin, []byte{0xDE, 0xAD}, 0o644); err != nil {
		t.Fatal(err)
	}
	img, err := LoadImage(bin)
	if err != nil {
		t.Fatal(err)
	}
	if img.HasAddress || !bytes.Equal(img.Data, []byte{0xDE, 0xAD}) {
		t.Errorf("LoadImage(bin) = %+v", img)
	}

	hex := filepath.Join(dir, "fw.HEX")
	if err := os.WriteFile(hex, []byte(contiguousHex), 0o644); err != nil {
		t.Fatal(err)
	}
	if img, err = LoadImage(hex); err != nil || img.Address != 0x08000000 {
		t.Errorf("LoadImage(hex) = %+v, %v", img, err)
	}

	empty := filepath.Join(dir, "empty.bin")
	os.WriteFile(empty, nil, 0o644)
	if _, err := LoadImage(empty); err == nil {
		t.Error("LoadImage(empty) succeeded")
	}
	if _, err := LoadImage(filepath.Join(dir, "missing.bin")); err == nil {
		t.Error("LoadImage(missing) succeeded")
	}
}
