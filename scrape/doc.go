// Package scrape fetches and parses the municipal waste collection
// schedule page.
//
// The upstream site renders the schedule as one block per month, each block
// holding one row per waste type with the days it is collected. Parsing is
// tolerant: malformed fragments are skipped with a warning, and only the
// complete absence of month blocks is treated as an unexpected page. The
// month and category vocabularies are closed lookup tables in vocab.go.
package scrape
