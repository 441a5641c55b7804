package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"testing"
)

func TestImporter_Run_EndToEnd(t *testing.T) {
	text := "matric_no,name,email\nBU22CSC1001,John Doe,john@x.com\n,,\nBU22CSC1002,Jane Doe,jane@x.com"

	outcome, err := NewImporter().Run(text)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if outcome.TotalRowsParsed != 2 {
		t.Errorf("TotalRowsParsed = %d, want 2", outcome.TotalRowsParsed)
	}
	if len(outcome.ValidRecords) != 2 {
		t.Errorf("len(ValidRecords) = %d, want 2", len(outcome.ValidRecords))
	}
	if len(outcome.RejectedRows) != 0 {
		t.Errorf("len(RejectedRows) = %d, want 0", len(outcome.RejectedRows))
	}
	if outcome.Delimiter != Comma {
		t.Errorf("Delimiter = %v, want comma", outcome.Delimiter)
	}
}

func TestImporter_Run(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantTotal    int
		wantValid    int
		wantRejected []int // line numbers
		wantDelim    Delimiter
	}{
		{
			name:      "semicolon with CRLF",
			text:      "Matric_No;Name;Email\r\nbu22csc1001;John Doe;John.Doe@Example.com\r\n",
			wantTotal: 1,
			wantValid: 1,
			wantDelim: Semicolon,
		},
		{
			name:         "rejections keep original line numbers",
			text:         "matric_no\tname\temail\n\nBU1\tAda\tada@x.com\n   \nBU2\t\tbola@x.com\nBU3\tChi\n",
			wantTotal:    3,
			wantValid:    1,
			wantRejected: []int{5, 6},
			wantDelim:    Tab,
		},
		{
			name:      "leading blank lines and BOM",
			text:      "\ufeff\n\nemail|name|matric_no\nada@x.com|Ada|bu1\n",
			wantTotal: 1,
			wantValid: 1,
			wantDelim: Pipe,
		},
		{
			name:         "whitespace-only lines never counted",
			text:         "matric_no,name,email\n \t \nBU1,Ada,ada@x.com\n\t\nBU2,,\n",
			wantTotal:    2,
			wantValid:    1,
			wantRejected: []int{5},
			wantDelim:    Comma,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := NewImporter().Run(tt.text)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if outcome.TotalRowsParsed != tt.wantTotal {
				t.Errorf("TotalRowsParsed = %d, want %d", outcome.TotalRowsParsed, tt.wantTotal)
			}
			if len(outcome.ValidRecords) != tt.wantValid {
				t.Errorf("len(ValidRecords) = %d, want %d", len(outcome.ValidRecords), tt.wantValid)
			}
			var lines []int
			for _, r := range outcome.RejectedRows {
				lines = append(lines, r.LineNumber)
			}
			if !reflect.DeepEqual(lines, tt.wantRejected) {
				t.Errorf("rejected lines = %v, want %v", lines, tt.wantRejected)
			}
			if outcome.Delimiter != tt.wantDelim {
				t.Errorf("Delimiter = %v, want %v", outcome.Delimiter, tt.wantDelim)
			}
		})
	}
}

func TestImporter_Run_Fatal(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
		wantMsg string
	}{
		{
			name:    "empty text",
			text:    "",
			wantErr: ErrEmptyImport,
			wantMsg: "file is empty or invalid",
		},
		{
			name:    "header only",
			text:    "matric_no,name,email\n\n  \n",
			wantErr: ErrEmptyImport,
			wantMsg: "file is empty or invalid",
		},
		{
			name:    "missing email column",
			text:    "matric_no,name\nBU1,Ada\n",
			wantErr: ErrMissingColumns,
			wantMsg: "header: missing required columns: email",
		},
		{
			name:    "every row rejected",
			text:    "matric_no,name,email\nBU1,,\n,Ada,\n",
			wantErr: ErrNoValidRecords,
			wantMsg: "no valid students found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := NewImporter().Run(tt.text)
			if outcome != nil {
				t.Errorf("Run() outcome = %+v, want nil", outcome)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
			}
			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Errorf("Run() error type = %T, want *ValidationError", err)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("Run() error = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestImporter_Run_MaxRows(t *testing.T) {
	text := "matric_no,name,email\nBU1,A,a@x.com\nBU2,B,b@x.com\nBU3,C,c@x.com\n"

	_, err := NewImporter(WithMaxRows(2)).Run(text)
	if !errors.Is(err, ErrTooManyRows) {
		t.Fatalf("err = %v, want ErrTooManyRows", err)
	}

	if _, err := NewImporter(WithMaxRows(3)).Run(text); err != nil {
		t.Fatalf("at the cap: unexpected error: %v", err)
	}
}

// TestImporter_Run_Accounting checks that every counted row lands in exactly
// one of the two result lists, over randomly generated files.
func TestImporter_Run_Accounting(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	delims := []Delimiter{Comma, Semicolon, Tab, Pipe}
	cells := []string{"", " ", "bu22csc1001", "Ada Obi", "ADA@X.COM", `"Quoted"`}

	for iter := 0; iter < 200; iter++ {
		d := delims[rng.Intn(len(delims))]
		sep := string(d.Rune())

		var b strings.Builder
		b.WriteString(strings.Join([]string{"matric_no", "name", "email"}, sep))
		b.WriteString("\n")
		// Guarantee one valid row so the run is never fatal.
		b.WriteString(strings.Join([]string{"BU0", "Zed", "zed@x.com"}, sep))
		b.WriteString("\n")
		for r := 0; r < rng.Intn(20); r++ {
			n := rng.Intn(5)
			row := make([]string, n)
			for i := range row {
				row[i] = cells[rng.Intn(len(cells))]
			}
			b.WriteString(strings.Join(row, sep))
			b.WriteString("\n")
		}

		outcome, err := NewImporter().Run(b.String())
		if err != nil {
			t.Fatalf("iteration %d: Run() error = %v\n%s", iter, err, b.String())
		}
		if got := len(outcome.ValidRecords) + len(outcome.RejectedRows); got != outcome.TotalRowsParsed {
			t.Fatalf("iteration %d: valid+rejected = %d, total = %d", iter, got, outcome.TotalRowsParsed)
		}
		for _, rec := range outcome.ValidRecords {
			if rec.MatricNo == "" || rec.Name == "" || rec.Email == "" {
				t.Fatalf("iteration %d: accepted record with empty field: %+v", iter, rec)
			}
			if rec.MatricNo != strings.ToUpper(rec.MatricNo) {
				t.Errorf("iteration %d: matric not upper-case: %q", iter, rec.MatricNo)
			}
			if rec.Email != strings.ToLower(rec.Email) {
				t.Errorf("iteration %d: email not lower-case: %q", iter, rec.Email)
			}
		}
	}
}

func TestImporter_RunRows(t *testing.T) {
	rows := [][]string{
		{},
		{"Matric_No", "Name", "Email", "Level"},
		{"bu1", "Ada", "ADA@x.com", "100"},
		{"", "", ""},
		{"bu2", "Bola"},
	}

	outcome, err := NewImporter().RunRows(rows)
	if err != nil {
		t.Fatalf("RunRows() error = %v", err)
	}
	if outcome.TotalRowsParsed != 2 {
		t.Errorf("TotalRowsParsed = %d, want 2", outcome.TotalRowsParsed)
	}
	want := StudentRecord{MatricNo: "BU1", Name: "Ada", Email: "ada@x.com"}
	if len(outcome.ValidRecords) != 1 || outcome.ValidRecords[0] != want {
		t.Errorf("ValidRecords = %+v, want [%+v]", outcome.ValidRecords, want)
	}
	if len(outcome.RejectedRows) != 1 {
		t.Fatalf("len(RejectedRows) = %d, want 1", len(outcome.RejectedRows))
	}
	rej := outcome.RejectedRows[0]
	if rej.LineNumber != 5 || rej.RawLine != "bu2\tBola" {
		t.Errorf("RejectedRows[0] = %+v", rej)
	}
}

func TestImporter_Submit(t *testing.T) {
	records := []StudentRecord{
		{MatricNo: "BU1", Name: "Ada", Email: "ada@x.com"},
		{MatricNo: "BU2", Name: "Bola", Email: "bola@x.com"},
	}
	ec := EnrollmentContext{Group: "A", Level: "200"}

	t.Run("appends context and returns report untouched", func(t *testing.T) {
		var got []EnrollmentRow
		want := &SubmitReport{
			Message:    "1 added",
			Successful: []RowResult{{MatricNo: "BU1"}},
			Failed:     []RowResult{{MatricNo: "BU2", Reason: "already enrolled"}},
		}
		submit := func(_ context.Context, rows []EnrollmentRow) (*SubmitReport, error) {
			got = rows
			return want, nil
		}

		report, err := NewImporter().Submit(context.Background(), records, ec, submit)
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if report != want {
			t.Errorf("Submit() report = %+v, want the submit function's report", report)
		}
		if !report.Partial() {
			t.Error("Partial() = false, want true")
		}
		for i, row := range got {
			if row.Group != "A" || row.Level != "200" || row.MatricNo != records[i].MatricNo {
				t.Errorf("row %d = %+v", i, row)
			}
		}
	})

	t.Run("errors pass through unchanged", func(t *testing.T) {
		netErr := &NetworkError{Method: "POST", URL: "/students/bulk", Err: errors.New("reset")}
		submit := func(context.Context, []EnrollmentRow) (*SubmitReport, error) {
			return nil, netErr
		}
		_, err := NewImporter().Submit(context.Background(), records, ec, submit)
		if err != netErr {
			t.Errorf("Submit() error = %v, want the network error itself", err)
		}
	})

	t.Run("no records never calls submit", func(t *testing.T) {
		called := false
		submit := func(context.Context, []EnrollmentRow) (*SubmitReport, error) {
			called = true
			return nil, nil
		}
		_, err := NewImporter().Submit(context.Background(), nil, ec, submit)
		if !errors.Is(err, ErrNoValidRecords) {
			t.Errorf("Submit() error = %v, want ErrNoValidRecords", err)
		}
		if called {
			t.Error("submit function was called")
		}
	})
}

func TestImporter_Copy(t *testing.T) {
	t.Run("relays server counts", func(t *testing.T) {
		copyFn := func(_ context.Context, src string) (*CopyReport, error) {
			if src != "course-a" {
				return nil, fmt.Errorf("unexpected source %q", src)
			}
			return &CopyReport{Added: 3, Skipped: 1, TotalProcessed: 4}, nil
		}
		report, err := NewImporter().Copy(context.Background(), "course-a", copyFn)
		if err != nil {
			t.Fatalf("Copy() error = %v", err)
		}
		if *report != (CopyReport{Added: 3, Skipped: 1, TotalProcessed: 4}) {
			t.Errorf("Copy() = %+v", report)
		}
	})

	t.Run("blank source rejected locally", func(t *testing.T) {
		_, err := NewImporter().Copy(context.Background(), "  ", nil)
		var valErr *ValidationError
		if !errors.As(err, &valErr) {
			t.Errorf("Copy() error = %v, want *ValidationError", err)
		}
	})
}
