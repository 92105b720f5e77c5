package devices

import "context"

// Entry is one row of the operating system's device inventory, before any
// camera filtering is applied.
type Entry struct {
	Description string
	Identifier  string
	// Path is the device node where the platform has one. Informational.
	Path string
}

// Inventory queries the host's plug-and-play device inventory.
type Inventory interface {
	// QueryDevices returns the current inventory in the order the OS reports
	// it. It never caches; every call is a fresh query.
	QueryDevices(ctx context.Context) ([]Entry, error)
}

// InventoryFunc adapts a function to the Inventory interface.
type InventoryFunc func(ctx context.Context) ([]Entry, error)

// QueryDevices calls f.
func (f InventoryFunc) QueryDevices(ctx context.Context) ([]Entry, error) {
	return f(ctx)
}

// NewInventory returns the inventory for the current platform. matchTerms is
// a hint for platforms whose query language can filter server-side; the
// catalog filters again regardless.
func NewInventory(matchTerms []string) Inventory {
	return newInventory(matchTerms)
}
