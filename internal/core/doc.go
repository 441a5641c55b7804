// Package core provides the domain types and import logic for the UniTrack
// lecturer client.
//
// This package has no transport or UI dependencies. It can be used by the
// companion web server, a CLI, or tests without modification.
//
// # Bulk Import
//
// A roster import is parsed locally and handed back for confirmation before
// anything is sent:
//
//	text, err := core.ReadImportText(file, cfg.Import.MaxFileSize)
//	outcome, err := core.NewImporter().Run(text)
//	// show outcome.ValidRecords and outcome.RejectedRows, then on confirm:
//	report, err := imp.Submit(ctx, outcome.ValidRecords, ec, client.BulkAddStudents)
//
// The delimiter is sniffed from the header line ([Sniff]), rows are mapped by
// header name ([ParseRow]), and bad rows are collected as [RejectedRow]
// without aborting the batch. XLSX workbooks go through [ReadWorkbookRows]
// and [Importer.RunRows].
//
// # Error Handling
//
// Errors are typed ([ValidationError], [NetworkError], [HTTPError],
// [AuthError]) and mapped to lecturer-facing text with [MapError]:
//
//   - VAL001-VAL006: local validation (empty file, missing columns, size caps)
//   - NET001: server unreachable
//   - AUTH001-AUTH002: signed out, email not verified
//   - HTTP001: server refused the request
//   - ACT001-ACT002: unconfirmed or duplicate actions
//
// A partially accepted bulk enrollment is not an error: the server's
// per-row verdicts are returned in a [SubmitReport].
package core
