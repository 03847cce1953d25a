//go:build !windows

package overlay

import "fyne.io/fyne/v2"

// Other drivers honour the background alpha.
func applyNativeOpacity(fyne.Window, uint8) {}
