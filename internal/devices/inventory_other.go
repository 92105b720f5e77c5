//go:build !linux && !windows

package devices

import (
	"context"
	"fmt"
	"runtime"
)

type unsupportedInventory struct{}

func newInventory(_ []string) Inventory {
	return unsupportedInventory{}
}

// QueryDevices always fails; there is no device inventory backend for this OS.
func (unsupportedInventory) QueryDevices(context.Context) ([]Entry, error) {
	return nil, fmt.Errorf("device inventory is not supported on %s", runtime.GOOS)
}
