package core

import "strings"

// sniffOrder lists the distinctive separators tried before falling back to
// comma. Commas often appear inside names and titles of files that use
// another separator, so a distinctive one wins when present.
var sniffOrder = []Delimiter{Semicolon, Tab, Pipe}

// Sniff picks the field separator for an import from its first line.
// It never fails: comma is the fallback.
func Sniff(sampleLine string) Delimiter {
	for _, d := range sniffOrder {
		if strings.ContainsRune(sampleLine, d.Rune()) {
			return d
		}
	}
	return Comma
}
