package devices

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/smazurov/camsnap/internal/logging"
)

// DefaultMatchTerms are the description substrings that mark an inventory
// entry as camera-like. The match is a heuristic: devices whose description
// mentions neither term are not listed even if they are capture hardware.
var DefaultMatchTerms = []string{"camera", "video"}

// Record is one selectable device in a catalog snapshot. Index is the 0-based
// position within that snapshot only.
type Record struct {
	Index      int    `json:"index" yaml:"index"`
	Label      string `json:"label" yaml:"label"`
	Identifier string `json:"identifier" yaml:"identifier"`
}

// EnumerationError reports that the OS device inventory could not be queried.
type EnumerationError struct {
	Err error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("device enumeration failed: %v", e.Err)
}

func (e *EnumerationError) Unwrap() error {
	return e.Err
}

// EventBroadcaster receives a notification for every record a catalog emits.
type EventBroadcaster interface {
	BroadcastDeviceDiscovery(action string, record Record, timestamp string)
}

// CatalogOptions configures a Catalog. Zero values pick defaults.
type CatalogOptions struct {
	MatchTerms  []string
	Console     io.Writer // receives the human-readable listing; nil discards it
	Broadcaster EventBroadcaster
	Logger      *slog.Logger
}

// Catalog turns the raw inventory into an ordered list of camera-like devices.
type Catalog struct {
	inventory   Inventory
	terms       []string
	console     io.Writer
	broadcaster EventBroadcaster
	logger      *slog.Logger
}

// NewCatalog creates a catalog over inventory.
func NewCatalog(inventory Inventory, opts CatalogOptions) *Catalog {
	c := &Catalog{
		inventory:   inventory,
		console:     opts.Console,
		broadcaster: opts.Broadcaster,
		logger:      opts.Logger,
	}

	terms := opts.MatchTerms
	if len(terms) == 0 {
		terms = DefaultMatchTerms
	}
	for _, term := range terms {
		if t := strings.ToLower(strings.TrimSpace(term)); t != "" {
			c.terms = append(c.terms, t)
		}
	}

	if c.console == nil {
		c.console = io.Discard
	}
	if c.logger == nil {
		c.logger = logging.GetLogger("devices")
	}
	return c
}

// MatchTerms returns the normalized terms the catalog filters on.
func (c *Catalog) MatchTerms() []string {
	return append([]string(nil), c.terms...)
}

// ListDevices queries the inventory once and returns the camera-like entries
// that carry an identifier, in inventory order. An empty slice with a nil
// error means the query worked and nothing matched.
func (c *Catalog) ListDevices(ctx context.Context) ([]Record, error) {
	entries, err := c.inventory.QueryDevices(ctx)
	if err != nil {
		c.logger.Error("Device inventory query failed", "error", err)
		return nil, &EnumerationError{Err: err}
	}

	records := make([]Record, 0, len(entries))
	seen := make(map[string]bool, len(entries))

	for _, entry := range entries {
		if !c.matches(entry.Description) {
			continue
		}

		identifier := strings.TrimSpace(entry.Identifier)
		if identifier == "" {
			c.logger.Debug("Dropping device without identifier", "description", entry.Description)
			continue
		}
		if seen[identifier] {
			c.logger.Warn("Dropping duplicate identifier", "identifier", identifier, "description", entry.Description)
			continue
		}
		seen[identifier] = true

		record := Record{
			Index:      len(records),
			Label:      entry.Description,
			Identifier: identifier,
		}
		records = append(records, record)
		c.emit(record, entry.Path)
	}

	c.logger.Info("Device query complete", "inventory", len(entries), "matched", len(records))
	return records, nil
}

// matches reports whether description contains any match term, ignoring case.
func (c *Catalog) matches(description string) bool {
	lower := strings.ToLower(description)
	for _, term := range c.terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func (c *Catalog) emit(record Record, path string) {
	fmt.Fprintf(c.console, "[%d] %s - Device Path: %s\n", record.Index, record.Label, record.Identifier)
	c.logger.Debug("Device discovered",
		"index", record.Index,
		"label", record.Label,
		"identifier", record.Identifier,
		"path", path)

	if c.broadcaster != nil {
		c.broadcaster.BroadcastDeviceDiscovery("discovered", record, time.Now().Format(time.RFC3339))
	}
}
