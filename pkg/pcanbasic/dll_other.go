//go:build !windows

package pcanbasic

// Load is only implemented for Windows, where PEAK ships PCANBasic.dll.
func Load(path string) (API, error) {
	return nil, ErrUnsupportedPlatform
}

// LoadDefault is only implemented for Windows.
func LoadDefault() (API, error) {
	return nil, ErrUnsupportedPlatform
}
