//go:build windows

package devices

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smazurov/camsnap/internal/logging"
	"github.com/yusufpapurcu/wmi"
)

// win32PnPEntity holds the Win32_PnPEntity columns we read.
type win32PnPEntity struct {
	Description string
	PNPDeviceID string
	Name        string
}

type windowsInventory struct {
	matchTerms []string
	client     *wmi.Client
	logger     *slog.Logger
}

func newInventory(matchTerms []string) Inventory {
	return &windowsInventory{
		matchTerms: matchTerms,
		// NULL columns are common on PnP entities; read them as "".
		client: &wmi.Client{NonePtrZero: true, AllowMissingFields: true},
		logger: logging.GetLogger("devices"),
	}
}

// QueryDevices runs a single WQL query against root\cimv2.
func (w *windowsInventory) QueryDevices(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := buildPnPQuery(w.matchTerms)
	w.logger.Debug("querying WMI", "query", query)

	var rows []win32PnPEntity
	if err := w.client.Query(query, &rows); err != nil {
		return nil, fmt.Errorf("WMI query failed: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{
			Description: row.Description,
			Identifier:  row.PNPDeviceID,
		})
	}
	return entries, nil
}
