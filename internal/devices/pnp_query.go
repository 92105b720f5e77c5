package devices

import (
	"fmt"
	"strings"
)

// wqlEscaper quotes a term for use inside a WQL LIKE string literal. The
// LIKE wildcards %, _ and [ are wrapped in brackets so they match literally.
var wqlEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`%`, `[%]`,
	`_`, `[_]`,
	`[`, `[[]`,
)

// buildPnPQuery renders the Win32_PnPEntity query used by the Windows
// inventory. WQL LIKE is case-insensitive. Blank terms are ignored.
func buildPnPQuery(terms []string) string {
	query := "SELECT Description, PNPDeviceID, Name FROM Win32_PnPEntity"

	clauses := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		clauses = append(clauses, fmt.Sprintf("Description LIKE '%%%s%%'", wqlEscaper.Replace(term)))
	}
	if len(clauses) == 0 {
		return query
	}
	return query + " WHERE " + strings.Join(clauses, " OR ")
}
