package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple string unchanged", input: "hello", want: "hello"},
		{name: "empty string", input: "", want: ""},
		{name: "leading whitespace", input: "  hello", want: "hello"},
		{name: "trailing whitespace", input: "hello  ", want: "hello"},
		{name: "double quotes stripped", input: `"John Doe"`, want: "John Doe"},
		{name: "single quotes stripped", input: `'BU22CSC1001'`, want: "BU22CSC1001"},
		{name: "quotes with inner whitespace", input: `" john@x.com "`, want: "john@x.com"},
		{name: "inner apostrophe kept", input: "O'Brien", want: "O'Brien"},
		{name: "whitespace only", input: " \t ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		delim Delimiter
		want  []string
	}{
		{
			name:  "mixed case semicolon",
			line:  "Matric_No;Name;Email",
			delim: Semicolon,
			want:  []string{"matric_no", "name", "email"},
		},
		{
			name:  "quoted with carriage return",
			line:  "\"matric_no\",\"name\",\"email\"\r",
			delim: Comma,
			want:  []string{"matric_no", "name", "email"},
		},
		{
			name:  "padded tab",
			line:  " MATRIC_NO \t Name \t EMAIL ",
			delim: Tab,
			want:  []string{"matric_no", "name", "email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseHeader(tt.line, tt.delim)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseHeader(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestMakeHeaderIndex(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		checks map[string]int
	}{
		{
			name:   "simple headers",
			header: []string{"matric_no", "name", "email"},
			checks: map[string]int{"matric_no": 0, "name": 1, "email": 2},
		},
		{
			name:   "case insensitive lookup",
			header: []string{"EMAIL", "Name", "Matric_No"},
			checks: map[string]int{"email": 0, "name": 1, "matric_no": 2},
		},
		{
			name:   "headers with quotes cleaned",
			header: []string{`"name"`, `'email'`},
			checks: map[string]int{"name": 0, "email": 1},
		},
		{
			name:   "empty header",
			header: []string{},
			checks: map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := MakeHeaderIndex(tt.header)
			if len(idx) != len(tt.checks) {
				t.Errorf("MakeHeaderIndex(%v) has %d entries, want %d", tt.header, len(idx), len(tt.checks))
			}
			for key, wantPos := range tt.checks {
				gotPos, ok := idx[key]
				if !ok {
					t.Errorf("MakeHeaderIndex(%v)[%q] not found, want index %d", tt.header, key, wantPos)
					continue
				}
				if gotPos != wantPos {
					t.Errorf("MakeHeaderIndex(%v)[%q] = %d, want %d", tt.header, key, gotPos, wantPos)
				}
			}
		})
	}
}

func TestMakeHeaderIndex_DuplicateHeaders(t *testing.T) {
	idx := MakeHeaderIndex([]string{"name", "email", "name", ""})

	if gotPos := idx["name"]; gotPos != 0 {
		t.Errorf("name index = %d, want 0 (first occurrence)", gotPos)
	}
	if _, ok := idx[""]; ok {
		t.Error("empty column name should not be indexed")
	}
}

func TestValidateHeaders(t *testing.T) {
	t.Run("all present in any order", func(t *testing.T) {
		idx, err := ValidateHeaders([]string{"email", "level", "matric_no", "name"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if idx[ColEmail] != 0 || idx[ColMatricNo] != 2 || idx[ColName] != 3 {
			t.Errorf("unexpected index: %v", idx)
		}
	})

	t.Run("missing columns named in canonical order", func(t *testing.T) {
		_, err := ValidateHeaders([]string{"name"})

		var valErr *ValidationError
		if !errors.As(err, &valErr) {
			t.Fatalf("err = %v, want *ValidationError", err)
		}
		if !errors.Is(err, ErrMissingColumns) {
			t.Error("error should match ErrMissingColumns")
		}
		want := []string{"matric_no", "email"}
		if !reflect.DeepEqual(valErr.Missing, want) {
			t.Errorf("Missing = %v, want %v", valErr.Missing, want)
		}
		if got := valErr.Error(); got != "header: missing required columns: matric_no, email" {
			t.Errorf("Error() = %q", got)
		}
	})
}

func TestParseRow(t *testing.T) {
	semicolonIdx := MakeHeaderIndex(ParseHeader("Matric_No;Name;Email", Semicolon))
	commaIdx := MakeHeaderIndex(ParseHeader("matric_no,name,email", Comma))

	tests := []struct {
		name       string
		line       string
		idx        HeaderIndex
		delim      Delimiter
		want       StudentRecord
		wantReason string
	}{
		{
			name:  "normalises case",
			line:  "bu22csc1001;John Doe;John.Doe@Example.com",
			idx:   semicolonIdx,
			delim: Semicolon,
			want:  StudentRecord{MatricNo: "BU22CSC1001", Name: "John Doe", Email: "john.doe@example.com"},
		},
		{
			name:  "windows line ending",
			line:  "bu22csc1002,Jane Doe,jane@x.com\r",
			idx:   commaIdx,
			delim: Comma,
			want:  StudentRecord{MatricNo: "BU22CSC1002", Name: "Jane Doe", Email: "jane@x.com"},
		},
		{
			name:  "quoted field containing delimiter",
			line:  `BU22CSC1003,"Doe, Jane",jane@x.com`,
			idx:   commaIdx,
			delim: Comma,
			want:  StudentRecord{MatricNo: "BU22CSC1003", Name: "Doe, Jane", Email: "jane@x.com"},
		},
		{
			name:  "extra columns ignored",
			line:  "BU22CSC1004,Ada,ada@x.com,200,A",
			idx:   commaIdx,
			delim: Comma,
			want:  StudentRecord{MatricNo: "BU22CSC1004", Name: "Ada", Email: "ada@x.com"},
		},
		{
			name:       "missing trailing field rejected",
			line:       "BU22CSC1005,Bola",
			idx:        commaIdx,
			delim:      Comma,
			wantReason: "empty required field(s): email",
		},
		{
			name:       "several empty fields named",
			line:       " ,Bola, ",
			idx:        commaIdx,
			delim:      Comma,
			wantReason: "empty required field(s): matric_no, email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, rejected := ParseRow(tt.line, tt.idx, tt.delim)
			if tt.wantReason != "" {
				if rejected == nil {
					t.Fatalf("ParseRow(%q) accepted %+v, want rejection", tt.line, rec)
				}
				if rejected.Reason != tt.wantReason {
					t.Errorf("Reason = %q, want %q", rejected.Reason, tt.wantReason)
				}
				return
			}
			if rejected != nil {
				t.Fatalf("ParseRow(%q) rejected: %s", tt.line, rejected.Reason)
			}
			if rec != tt.want {
				t.Errorf("ParseRow(%q) = %+v, want %+v", tt.line, rec, tt.want)
			}
		})
	}
}

func TestIsEmptyRow(t *testing.T) {
	tests := []struct {
		name string
		row  []string
		want bool
	}{
		{name: "empty slice", row: []string{}, want: true},
		{name: "multiple empty strings", row: []string{"", "", ""}, want: true},
		{name: "whitespace only cells", row: []string{"   ", "\t", "  \t  "}, want: true},
		{name: "quotes only", row: []string{`""`, "''"}, want: true},
		{name: "non-empty with empties", row: []string{"", "data", ""}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isEmptyRow(tt.row); got != tt.want {
				t.Errorf("isEmptyRow(%q) = %v, want %v", tt.row, got, tt.want)
			}
		})
	}
}

func TestFormatCourseCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"csc101", "CSC 101"},
		{"CSC  101", "CSC 101"},
		{" mth-201 ", "MTH 201"},
		{"gst111a", "GST 111A"},
		{"special topics", "SPECIAL TOPICS"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FormatCourseCode(tt.input); got != tt.want {
				t.Errorf("FormatCourseCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
