package scrape

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Selectors for the schedule page. The upstream renders one block per
// month, each holding one row per waste type with its pickup days.
const (
	selMonthBlock  = "div.calendar-month"
	selMonthHeader = ".month-header"
	selWasteRow    = "div.waste-row"
	selWasteIcon   = "img.waste-icon"
	selPickupDay   = ".pickup-day"
	selWeekday     = ".weekday"
	selDate        = ".date"
	selAddress     = ".calendar-address"
)

// Parser extracts pickup events from a rendered schedule page.
type Parser struct {
	log zerolog.Logger
}

func NewParser(log zerolog.Logger) *Parser {
	return &Parser{log: log.With().Str("component", "parser").Logger()}
}

// Parse returns the pickup events found in the page, ascending by date and
// deduplicated on (date, category). Malformed fragments are skipped with a
// warning; a page without month blocks yields an empty slice, not an error.
func (p *Parser) Parse(html string) ([]PickupEvent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	blocks := doc.Find(selMonthBlock)
	if blocks.Length() == 0 {
		p.log.Warn().Msg("no month blocks found in schedule page")
		return []PickupEvent{}, nil
	}

	location := strings.TrimSpace(doc.Find(selAddress).First().Text())

	var events []PickupEvent
	blocks.Each(func(_ int, block *goquery.Selection) {
		header := strings.TrimSpace(block.Find(selMonthHeader).First().Text())
		month, year, ok := p.parseMonthHeader(header)
		if !ok {
			return
		}
		block.Find(selWasteRow).Each(func(_ int, row *goquery.Selection) {
			icon := row.Find(selWasteIcon).First().AttrOr("src", "")
			category := categoryForIcon(icon)
			row.Find(selPickupDay).Each(func(_ int, item *goquery.Selection) {
				ev, ok := p.parseDateItem(item, category, month, year)
				if !ok {
					return
				}
				ev.Location = location
				events = append(events, ev)
			})
		})
	})

	if len(events) == 0 {
		p.log.Warn().Msg("month blocks present but no valid pickup days parsed")
		return []PickupEvent{}, nil
	}

	events = lo.UniqBy(events, func(e PickupEvent) string { return e.Key() })
	sort.Slice(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events, nil
}

// parseMonthHeader reads a "<MonthName> <Year>" header such as
// "Oktober 2025".
func (p *Parser) parseMonthHeader(header string) (time.Month, int, bool) {
	fields := strings.Fields(header)
	if len(fields) != 2 {
		p.log.Warn().Str("header", header).Msg("skipping month block with malformed header")
		return 0, 0, false
	}
	month, ok := monthByName(fields[0])
	if !ok {
		p.log.Warn().Str("header", header).Msg("skipping month block with unknown month name")
		return 0, 0, false
	}
	year, err := strconv.Atoi(fields[1])
	if err != nil {
		p.log.Warn().Str("header", header).Msg("skipping month block with non-numeric year")
		return 0, 0, false
	}
	return month, year, true
}

// parseDateItem reads one pickup day, a weekday label plus a compact
// "<day>. <abbrev>" date label, and combines it with the block's month and
// year. Only the leading day number of the label is used; the month is
// already known from the header.
func (p *Parser) parseDateItem(item *goquery.Selection, category string, month time.Month, year int) (PickupEvent, bool) {
	weekday := strings.TrimSpace(item.Find(selWeekday).First().Text())
	label := strings.TrimSpace(item.Find(selDate).First().Text())
	if weekday == "" || label == "" {
		p.log.Warn().Str("category", category).Msg("skipping pickup day with missing labels")
		return PickupEvent{}, false
	}
	day, ok := leadingInt(label)
	if !ok {
		p.log.Warn().Str("label", label).Msg("skipping pickup day with malformed date label")
		return PickupEvent{}, false
	}
	if !validDate(year, month, day) {
		p.log.Warn().
			Int("year", year).
			Int("month", int(month)).
			Int("day", day).
			Msg("skipping pickup day with impossible date")
		return PickupEvent{}, false
	}
	return PickupEvent{
		Date:        time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
		Category:    category,
		Title:       fmt.Sprintf("%s (%s)", category, weekday),
		Description: fmt.Sprintf("Henting av %s.", strings.ToLower(category)),
	}, true
}

func leadingInt(label string) (int, bool) {
	i := 0
	for i < len(label) && label[i] >= '0' && label[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(label[:i])
	if err != nil {
		return 0, false
	}
	return n, true
}

// validDate reports whether (year, month, day) names a real calendar day.
// time.Date normalizes out-of-range values, so a round trip detects them.
func validDate(year int, month time.Month, day int) bool {
	if day < 1 || day > 31 {
		return false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return d.Year() == year && d.Month() == month && d.Day() == day
}
