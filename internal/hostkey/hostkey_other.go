//go:build !darwin

package hostkey

func platformModel() (string, error) { return "", ErrUnsupported }
