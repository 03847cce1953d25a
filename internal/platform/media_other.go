//go:build !linux

package platform

func newMediaProbe() (mediaProbe, func(), error) {
	return nil, nil, ErrUnsupported
}
