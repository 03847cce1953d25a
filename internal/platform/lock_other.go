//go:build !linux

package platform

import (
	"context"

	"github.com/rs/zerolog"
)

// WatchScreenLock is only implemented over D-Bus.
func WatchScreenLock(ctx context.Context, listener LockListener, logger zerolog.Logger) error {
	return ErrUnsupported
}
