// Package mapping holds the curated dealership property table.
//
// Stored connection rows have historically drifted from the identifiers a
// dealership actually owns, so this table is the tie-breaking source of truth
// for which GA4 property and Search Console site belong to a dealership. It
// is read only at runtime; updates land through code review.
package mapping

// Entry associates a dealership with its known-correct external identifiers.
// Either identifier may be empty when the dealership has no presence on that
// provider.
type Entry struct {
	GA4PropertyID    string
	SearchConsoleURL string
}

// Table is a read-only lookup of dealership id to curated identifiers.
type Table struct {
	entries map[string]Entry
}

// NewTable creates a table from the given entries. The map is copied so
// callers cannot mutate the table afterward.
func NewTable(entries map[string]Entry) *Table {
	copied := make(map[string]Entry, len(entries))
	for id, entry := range entries {
		copied[id] = entry
	}
	return &Table{entries: copied}
}

// Default returns the curated production table.
func Default() *Table {
	return NewTable(defaultEntries)
}

// GA4PropertyID returns the curated GA4 property id for a dealership, or
// empty when the dealership is unknown or has no GA4 property.
func (t *Table) GA4PropertyID(dealershipID string) string {
	return t.entries[dealershipID].GA4PropertyID
}

// SearchConsoleURL returns the curated Search Console site URL for a
// dealership, or empty when the dealership is unknown or has no site.
func (t *Table) SearchConsoleURL(dealershipID string) string {
	return t.entries[dealershipID].SearchConsoleURL
}

// HasGA4Access reports whether the dealership has a curated GA4 property.
func (t *Table) HasGA4Access(dealershipID string) bool {
	return t.entries[dealershipID].GA4PropertyID != ""
}

// HasEntry reports whether the dealership appears in the table at all.
func (t *Table) HasEntry(dealershipID string) bool {
	_, ok := t.entries[dealershipID]
	return ok
}
