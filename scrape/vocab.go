package scrape

import (
	"strings"
	"time"
)

// monthNumbers maps the Norwegian month names used in block headers.
var monthNumbers = map[string]time.Month{
	"januar":    time.January,
	"februar":   time.February,
	"mars":      time.March,
	"april":     time.April,
	"mai":       time.May,
	"juni":      time.June,
	"juli":      time.July,
	"august":    time.August,
	"september": time.September,
	"oktober":   time.October,
	"november":  time.November,
	"desember":  time.December,
}

func monthByName(name string) (time.Month, bool) {
	m, ok := monthNumbers[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// iconCategory pairs a fragment of the waste type icon filename with the
// category label shown to subscribers. Ordered list, first match wins.
type iconCategory struct {
	fragment string
	label    string
}

var iconCategories = []iconCategory{
	{fragment: "restavfall", label: "Restavfall"},
	{fragment: "matavfall", label: "Matavfall"},
	{fragment: "papir", label: "Papir og papp"},
	{fragment: "glass", label: "Glass- og metallemballasje"},
	{fragment: "plast", label: "Plastemballasje"},
}

// categoryFallback labels rows whose icon matches no known fragment.
const categoryFallback = "Avfall"

func categoryForIcon(src string) string {
	s := strings.ToLower(src)
	for _, ic := range iconCategories {
		if strings.Contains(s, ic.fragment) {
			return ic.label
		}
	}
	return categoryFallback
}
