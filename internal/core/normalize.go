package core

// normalize.go turns delimited lines into StudentRecords.
//
// Cells are cleaned the same way everywhere (trim, strip surrounding quotes),
// headers are lower-cased and looked up by name, and a row is accepted only
// when every required field is non-empty after cleaning.

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// Required header columns, in the order they are reported when missing.
const (
	ColMatricNo = "matric_no"
	ColName     = "name"
	ColEmail    = "email"
)

// RequiredColumns are the header columns every import must carry.
var RequiredColumns = []string{ColMatricNo, ColName, ColEmail}

// HeaderIndex maps column names (lowercase) to their position in the row.
type HeaderIndex map[string]int

// CleanCell trims whitespace and removes surrounding single or double quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// SplitLine splits one line on d. Quoted fields are honoured; a line that
// cannot be tokenised falls back to a plain split. Carriage returns are
// stripped first.
func SplitLine(line string, d Delimiter) []string {
	line = strings.ReplaceAll(line, "\r", "")
	if line == "" {
		return []string{""}
	}

	r := csv.NewReader(strings.NewReader(line))
	r.Comma = d.Rune()
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	fields, err := r.Read()
	if err != nil {
		return strings.Split(line, string(d.Rune()))
	}
	return fields
}

// ParseHeader splits a header line and normalises each column name.
func ParseHeader(line string, d Delimiter) []string {
	return normalizeHeader(SplitLine(line, d))
}

func normalizeHeader(cells []string) []string {
	headers := make([]string, len(cells))
	for i, c := range cells {
		headers[i] = strings.ToLower(CleanCell(c))
	}
	return headers
}

// MakeHeaderIndex creates a HeaderIndex from header cells. Names are cleaned
// and lower-cased; the first occurrence of a duplicated column wins.
func MakeHeaderIndex(headers []string) HeaderIndex {
	idx := make(HeaderIndex, len(headers))
	for i, h := range headers {
		h = strings.ToLower(CleanCell(h))
		if _, dup := idx[h]; dup || h == "" {
			continue
		}
		idx[h] = i
	}
	return idx
}

// ParseRow parses a data line against the header index. Exactly one of the
// returned values is meaningful: a record on success, a rejection otherwise.
func ParseRow(line string, idx HeaderIndex, d Delimiter) (StudentRecord, *RejectedRow) {
	return buildRecord(SplitLine(line, d), idx, strings.ReplaceAll(line, "\r", ""))
}

// buildRecord maps cleaned cells onto the required columns. Missing trailing
// cells are empty, extra cells are ignored.
func buildRecord(cells []string, idx HeaderIndex, raw string) (StudentRecord, *RejectedRow) {
	field := func(name string) string {
		pos, ok := idx[name]
		if !ok || pos >= len(cells) {
			return ""
		}
		return CleanCell(cells[pos])
	}

	rec := StudentRecord{
		MatricNo: strings.ToUpper(field(ColMatricNo)),
		Name:     field(ColName),
		Email:    strings.ToLower(field(ColEmail)),
	}

	var empty []string
	if rec.MatricNo == "" {
		empty = append(empty, ColMatricNo)
	}
	if rec.Name == "" {
		empty = append(empty, ColName)
	}
	if rec.Email == "" {
		empty = append(empty, ColEmail)
	}
	if len(empty) > 0 {
		return StudentRecord{}, &RejectedRow{
			RawLine: raw,
			Reason:  fmt.Sprintf("empty required field(s): %s", strings.Join(empty, ", ")),
		}
	}

	return rec, nil
}

// isBlankLine reports whether a raw line carries no content at all.
func isBlankLine(line string) bool {
	return strings.TrimSpace(line) == ""
}

// isEmptyRow reports whether every cell is empty after cleaning (e.g. ",,").
func isEmptyRow(cells []string) bool {
	for _, c := range cells {
		if CleanCell(c) != "" {
			return false
		}
	}
	return true
}
