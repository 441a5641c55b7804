package core

// validation.go checks import headers and other locally validated input.
//
// Header validation is pipeline-fatal: a file without every required column
// fails before any data row is looked at, and the error names each missing
// column so the user can fix the file in one pass.

import (
	"regexp"
	"strings"
)

// ValidateHeaders checks that every required column is present and returns
// the index used to map data rows. Order and case do not matter.
func ValidateHeaders(headers []string) (HeaderIndex, error) {
	idx := MakeHeaderIndex(headers)

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return nil, &ValidationError{
			Field:   "header",
			Message: ErrMissingColumns.Error() + ": " + strings.Join(missing, ", "),
			Missing: missing,
			Err:     ErrMissingColumns,
		}
	}

	return idx, nil
}

var (
	courseCodeSpace = regexp.MustCompile(`\s+`)
	courseCodeParts = regexp.MustCompile(`^([A-Za-z]+)\s*-?\s*(\d+[A-Za-z]?)$`)
)

// FormatCourseCode normalises a course code for display and submission:
// upper-case, single spaces, and a space between the subject prefix and the
// number ("csc101" and "CSC  101" both become "CSC 101"). Codes that do not
// look like prefix+number are only upper-cased and space-collapsed.
func FormatCourseCode(code string) string {
	code = courseCodeSpace.ReplaceAllString(strings.TrimSpace(code), " ")
	if m := courseCodeParts.FindStringSubmatch(code); m != nil {
		return strings.ToUpper(m[1]) + " " + strings.ToUpper(m[2])
	}
	return strings.ToUpper(code)
}
