package stm32boot

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/marcinbor85/gohex"
)

// Image is a firmware image. Address is only known for Intel HEX files.
type Image struct {
	Address    uint32
	HasAddress bool
	Data       []byte
}

// LoadImage reads a raw binary or, for the .hex extension, an Intel HEX
// file. HEX images must be one contiguous block.
func LoadImage(filename string) (*Image, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(filename), ".hex") {
		return ParseHex(f)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("stm32boot: %s is empty", filename)
	}
	return &Image{Data: data}, nil
}

// ParseHex parses an Intel HEX image.
func ParseHex(r io.Reader) (*Image, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, fmt.Errorf("stm32boot: parse hex: %w", err)
	}
	segments := mem.GetDataSegments()
	if len(segments) == 0 {
		return nil, fmt.Errorf("stm32boot: hex image has no data")
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].Address < segments[j].Address })
	img := &Image{Address: segments[0].Address, HasAddress: true}
	for _, s := range segments {
		if next := img.Address + uint32(len(img.Data)); s.Address != next {
			return nil, fmt.Errorf("stm32boot: hex image has a gap at 0x%08X", next)
		}
		img.Data = append(img.Data, s.Data...)
	}
	return img, nil
}
