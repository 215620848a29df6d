//go:build !linux

package device

// Open opens the device with specified index.
func Open(index int) (Device, error) {
	return nil, ErrNotSupported
}

// DetectAndOpen detects a next available device from startIndex and opens it.
func DetectAndOpen(startIndex int) (Device, error) {
	return nil, ErrNotSupported
}
