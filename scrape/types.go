package scrape

import "time"

// PickupEvent is one waste pickup on a specific calendar day. Date carries
// day precision only; the midnight time component is not meaningful.
type PickupEvent struct {
	Date        time.Time
	Category    string
	Title       string
	Description string
	Location    string
}

// Key identifies an event logically. Two events with the same key are
// duplicates regardless of their display fields.
func (e PickupEvent) Key() string {
	return e.Date.Format("2006-01-02") + "|" + e.Category
}
