package ics

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/renovasjonsdata/tommekalender-ics/scrape"
)

// InputError reports invalid input to calendar generation.
type InputError struct{ Msg string }

func (e *InputError) Error() string { return e.Msg }

const (
	icsVersion     = "2.0"
	defaultProdID  = "-//Renovasjonsdata//Tommekalender//NO"
	calDescription = "Hentedager for avfall, med påminnelse ettermiddagen før"
	publishedTTL   = "PT12H"

	// reminderHour is the local hour on the day before a pickup when the
	// alarm fires and the reminder task falls due.
	reminderHour = 16

	dateLayout     = "20060102"
	dateTimeLayout = "20060102T150405Z"
)

// Namespaces for the deterministic entry identifiers. Pickup events and
// reminder tasks use distinct namespaces so their identifiers never
// collide, even for the same event.
var (
	eventNamespace    = uuid.MustParse("5f9a6c2e-8d54-4a3b-9e17-3c17b1f3a9d2")
	reminderNamespace = uuid.MustParse("b0e7c2a4-6d1f-4f58-8a39-9d2f4b7c1e63")
)

// Generator renders pickup events as an iCalendar document with one VEVENT
// and one companion VTODO per pickup.
type Generator struct {
	ProdID   string
	Location *time.Location
	Now      func() time.Time
}

// NewGenerator creates a Generator whose reminder times are interpreted in
// loc. A nil loc falls back to UTC.
func NewGenerator(prodID string, loc *time.Location) *Generator {
	if prodID == "" {
		prodID = defaultProdID
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{ProdID: prodID, Location: loc, Now: time.Now}
}

// Calendar serializes events into calendar text under the given display
// name. A nil event slice or an empty name is rejected; an empty non-nil
// slice produces a well-formed calendar with no entries.
func (g *Generator) Calendar(events []scrape.PickupEvent, name string) (string, error) {
	if events == nil {
		return "", &InputError{Msg: "event sequence must not be nil"}
	}
	if strings.TrimSpace(name) == "" {
		return "", &InputError{Msg: "display name must not be empty"}
	}
	stamp := g.Now().UTC().Format(dateTimeLayout)

	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\n")
	fmt.Fprintf(&b, "VERSION:%s\n", icsVersion)
	fmt.Fprintf(&b, "PRODID:%s\n", g.ProdID)
	fmt.Fprintf(&b, "X-WR-CALNAME:%s\n", EscapeText(name))
	fmt.Fprintf(&b, "X-WR-CALDESC:%s\n", EscapeText(calDescription))
	fmt.Fprintf(&b, "X-WR-TIMEZONE:%s\n", g.Location.String())
	fmt.Fprintf(&b, "X-PUBLISHED-TTL:%s\n", publishedTTL)
	b.WriteString("CALSCALE:GREGORIAN\n")
	b.WriteString("METHOD:PUBLISH\n")
	for _, ev := range events {
		g.writeEvent(&b, ev, stamp)
		g.writeReminder(&b, ev, stamp)
	}
	b.WriteString("END:VCALENDAR\n")
	return b.String(), nil
}

// EventUID returns the stable identifier of the pickup entry for ev,
// derived from the event's date and category.
func EventUID(ev scrape.PickupEvent) string {
	return uuid.NewSHA1(eventNamespace, []byte(uidSeed(ev))).String() + "@tommekalender"
}

// ReminderUID returns the stable identifier of the companion reminder task
// for ev.
func ReminderUID(ev scrape.PickupEvent) string {
	return uuid.NewSHA1(reminderNamespace, []byte(uidSeed(ev))).String() + "@tommekalender"
}

func uidSeed(ev scrape.PickupEvent) string {
	return ev.Date.Format("2006-01-02") + "|" + ev.Category
}

func (g *Generator) writeEvent(b *strings.Builder, ev scrape.PickupEvent, stamp string) {
	b.WriteString("BEGIN:VEVENT\n")
	fmt.Fprintf(b, "UID:%s\n", EventUID(ev))
	fmt.Fprintf(b, "DTSTAMP:%s\n", stamp)
	fmt.Fprintf(b, "DTSTART;VALUE=DATE:%s\n", ev.Date.Format(dateLayout))
	fmt.Fprintf(b, "DTEND;VALUE=DATE:%s\n", ev.Date.AddDate(0, 0, 1).Format(dateLayout))
	fmt.Fprintf(b, "SUMMARY:%s\n", EscapeText(ev.Title))
	if ev.Description != "" {
		fmt.Fprintf(b, "DESCRIPTION:%s\n", EscapeText(ev.Description))
	}
	if ev.Location != "" {
		fmt.Fprintf(b, "LOCATION:%s\n", EscapeText(ev.Location))
	}
	b.WriteString("STATUS:CONFIRMED\n")
	b.WriteString("CLASS:PUBLIC\n")
	b.WriteString("TRANSP:TRANSPARENT\n")
	fmt.Fprintf(b, "CREATED:%s\n", stamp)
	fmt.Fprintf(b, "LAST-MODIFIED:%s\n", stamp)
	b.WriteString("BEGIN:VALARM\n")
	b.WriteString("ACTION:DISPLAY\n")
	fmt.Fprintf(b, "DESCRIPTION:%s\n", EscapeText(ev.Title))
	fmt.Fprintf(b, "TRIGGER;VALUE=DATE-TIME:%s\n", g.reminderTime(ev).Format(dateTimeLayout))
	b.WriteString("END:VALARM\n")
	b.WriteString("END:VEVENT\n")
}

func (g *Generator) writeReminder(b *strings.Builder, ev scrape.PickupEvent, stamp string) {
	b.WriteString("BEGIN:VTODO\n")
	fmt.Fprintf(b, "UID:%s\n", ReminderUID(ev))
	fmt.Fprintf(b, "DTSTAMP:%s\n", stamp)
	fmt.Fprintf(b, "DUE:%s\n", g.reminderTime(ev).Format(dateTimeLayout))
	fmt.Fprintf(b, "SUMMARY:%s\n", EscapeText("Påminnelse: "+ev.Title))
	if ev.Description != "" {
		fmt.Fprintf(b, "DESCRIPTION:%s\n", EscapeText(ev.Description))
	}
	b.WriteString("PRIORITY:5\n")
	b.WriteString("STATUS:NEEDS-ACTION\n")
	fmt.Fprintf(b, "CREATED:%s\n", stamp)
	fmt.Fprintf(b, "LAST-MODIFIED:%s\n", stamp)
	b.WriteString("END:VTODO\n")
}

// reminderTime is 16:00 local time on the day before the pickup, converted
// to UTC.
func (g *Generator) reminderTime(ev scrape.PickupEvent) time.Time {
	d := ev.Date.AddDate(0, 0, -1)
	return time.Date(d.Year(), d.Month(), d.Day(), reminderHour, 0, 0, 0, g.Location).UTC()
}
