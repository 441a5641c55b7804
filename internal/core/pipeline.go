package core

// pipeline.go implements the bulk student import.
//
// The flow is strictly sequential:
//
//  1. Split the text into lines; fewer than two non-blank lines is fatal
//  2. Sniff the delimiter from the header line
//  3. Validate the header; missing required columns is fatal
//  4. Parse every remaining non-blank line into a record or a rejection
//  5. No valid records is fatal
//  6. Hand the outcome back for confirmation (nothing is submitted here)
//  7. Submit, on the caller's say-so, through the injected SubmitFunc
//
// Steps 1, 3 and 5 abort the import. Step 4 failures are per row and never
// abort. Step 7 errors belong to the remote call and are returned unchanged.

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// DefaultMaxRows caps the number of data rows in a single import.
const DefaultMaxRows = 5000

// SubmitFunc delivers enrollment rows to the backend and returns its
// per-row summary.
type SubmitFunc func(ctx context.Context, rows []EnrollmentRow) (*SubmitReport, error)

// CopyFunc copies every enrollee of sourceCourseID into the target course.
type CopyFunc func(ctx context.Context, sourceCourseID string) (*CopyReport, error)

// Importer runs the bulk import pipeline. The zero value is not usable; use
// NewImporter.
type Importer struct {
	maxRows int
	logger  *slog.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithMaxRows sets the data row cap. Non-positive values keep the default.
func WithMaxRows(n int) ImporterOption {
	return func(i *Importer) {
		if n > 0 {
			i.maxRows = n
		}
	}
}

// WithLogger sets the logger used for import diagnostics.
func WithLogger(l *slog.Logger) ImporterOption {
	return func(i *Importer) {
		if l != nil {
			i.logger = l
		}
	}
}

// NewImporter creates an Importer.
func NewImporter(opts ...ImporterOption) *Importer {
	imp := &Importer{
		maxRows: DefaultMaxRows,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// Run parses raw delimited text into an ImportOutcome awaiting confirmation.
func (imp *Importer) Run(rawText string) (*ImportOutcome, error) {
	rawText = strings.TrimPrefix(rawText, "\ufeff")
	lines := strings.Split(strings.ReplaceAll(rawText, "\r", ""), "\n")

	// Line numbers are kept 1-indexed against the original file.
	type numbered struct {
		n    int
		text string
	}
	var content []numbered
	for i, l := range lines {
		if isBlankLine(l) {
			continue
		}
		content = append(content, numbered{n: i + 1, text: l})
	}

	if len(content) < 2 {
		return nil, NewValidationError(ErrEmptyImport, "")
	}

	delim := Sniff(content[0].text)
	idx, err := ValidateHeaders(ParseHeader(content[0].text, delim))
	if err != nil {
		return nil, err
	}

	if len(content)-1 > imp.maxRows {
		return nil, NewValidationError(ErrTooManyRows, "too many rows: %d (maximum %d)", len(content)-1, imp.maxRows)
	}

	outcome := &ImportOutcome{Delimiter: delim}
	for _, line := range content[1:] {
		cells := SplitLine(line.text, delim)
		if isEmptyRow(cells) {
			continue
		}
		outcome.add(line.n, cells, idx, line.text)
	}

	return imp.finish(outcome)
}

// RunRows runs steps 3-6 on rows that are already split into cells, such as
// a spreadsheet sheet. The first non-empty row is the header.
func (imp *Importer) RunRows(rows [][]string) (*ImportOutcome, error) {
	start := -1
	nonEmpty := 0
	for i, r := range rows {
		if isEmptyRow(r) {
			continue
		}
		if start < 0 {
			start = i
		}
		nonEmpty++
	}

	if nonEmpty < 2 {
		return nil, NewValidationError(ErrEmptyImport, "")
	}

	idx, err := ValidateHeaders(normalizeHeader(rows[start]))
	if err != nil {
		return nil, err
	}

	if nonEmpty-1 > imp.maxRows {
		return nil, NewValidationError(ErrTooManyRows, "too many rows: %d (maximum %d)", nonEmpty-1, imp.maxRows)
	}

	outcome := &ImportOutcome{Delimiter: Tab}
	for i := start + 1; i < len(rows); i++ {
		if isEmptyRow(rows[i]) {
			continue
		}
		outcome.add(i+1, rows[i], idx, strings.Join(rows[i], "\t"))
	}

	return imp.finish(outcome)
}

func (o *ImportOutcome) add(lineNum int, cells []string, idx HeaderIndex, raw string) {
	o.TotalRowsParsed++
	rec, rejected := buildRecord(cells, idx, raw)
	if rejected != nil {
		rejected.LineNumber = lineNum
		o.RejectedRows = append(o.RejectedRows, *rejected)
		return
	}
	o.ValidRecords = append(o.ValidRecords, rec)
}

func (imp *Importer) finish(outcome *ImportOutcome) (*ImportOutcome, error) {
	if len(outcome.ValidRecords) == 0 {
		imp.logger.Info("import rejected: no valid rows",
			"rows", outcome.TotalRowsParsed,
			"rejected", len(outcome.RejectedRows),
		)
		return nil, NewValidationError(ErrNoValidRecords, "")
	}

	imp.logger.Debug("import parsed",
		"delimiter", outcome.Delimiter.String(),
		"rows", outcome.TotalRowsParsed,
		"valid", len(outcome.ValidRecords),
		"rejected", len(outcome.RejectedRows),
	)
	return outcome, nil
}

// Submit sends confirmed records with their enrollment context. The report
// from submit is returned untouched, partial failures included.
func (imp *Importer) Submit(ctx context.Context, records []StudentRecord, ec EnrollmentContext, submit SubmitFunc) (*SubmitReport, error) {
	if len(records) == 0 {
		return nil, NewValidationError(ErrNoValidRecords, "")
	}
	if submit == nil {
		return nil, fmt.Errorf("import submit: no submit function")
	}

	rows := make([]EnrollmentRow, len(records))
	for i, r := range records {
		rows[i] = EnrollmentRow{
			MatricNo: r.MatricNo,
			Name:     r.Name,
			Email:    r.Email,
			Group:    ec.Group,
			Level:    ec.Level,
		}
	}

	report, err := submit(ctx, rows)
	if err != nil {
		return nil, err
	}
	if report == nil {
		report = &SubmitReport{}
	}

	imp.logger.Info("import submitted",
		"rows", len(rows),
		"successful", len(report.Successful),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed),
	)
	return report, nil
}

// Copy runs the course-to-course variant: no local parsing, the server
// validates existing enrollment rows and reports the counts.
func (imp *Importer) Copy(ctx context.Context, sourceCourseID string, copyFn CopyFunc) (*CopyReport, error) {
	if strings.TrimSpace(sourceCourseID) == "" {
		return nil, &ValidationError{Field: "source_course_id", Message: "source course is required"}
	}
	if copyFn == nil {
		return nil, fmt.Errorf("import copy: no copy function")
	}

	report, err := copyFn(ctx, sourceCourseID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		report = &CopyReport{}
	}

	imp.logger.Info("enrollees copied",
		"source_course", sourceCourseID,
		"added", report.Added,
		"skipped", report.Skipped,
		"total", report.TotalProcessed,
	)
	return report, nil
}
