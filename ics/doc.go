// Package ics serializes pickup events as an iCalendar (RFC 5545)
// document.
//
// Every pickup produces a VEVENT for the collection day, as an all-day
// entry with an exclusive end date, and a companion VTODO due the
// afternoon before. Entry identifiers are derived deterministically from
// the event's date and category so re-subscribing does not duplicate
// entries in a calendar client. Serialization is done manually, line by
// line, for precise control over the output format.
package ics
