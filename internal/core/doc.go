// Package core provides the business logic for CSV email cleansing.
//
// This package holds all domain logic independent of any UI or transport
// layer. It can be used by web handlers, CLI tools, or tests without
// modification.
//
// # Pipeline
//
// An uploaded file flows through a fixed sequence of pure steps:
//
//  1. [Decode] strips byte-order marks and transcodes legacy charsets to UTF-8
//  2. [Parse] tokenizes the CSV into a [Table] of header-keyed [Record] values
//  3. [NormalizeRows] trims and lower-cases the chosen email column
//  4. [Classify] partitions rows into valid, invalid and duplicate groups
//  5. [BuildExportTable] merges valid rows with resolved corrections
//  6. [EncodeCSV] writes the cleaned file, named by [ExportFileName]
//
// # Sessions
//
// A [Session] is one user's single-document workspace. The reducers
// [LoadFile], [SelectColumn], [Correct] and [Export] each take a session
// by value and return the next one, so a failed step never leaves partial
// state behind. [SessionStore] keeps sessions in memory and expires idle
// ones; [Service] ties the store to configuration, metrics and logging.
// Loads share a [LoadLimiter] so only a few files are parsed at once.
//
// # Corrections
//
// Invalid rows are fixed through a [CorrectionLedger] keyed by [RowKey].
// A correction is resolved once its normalized value passes
// [IsValidEmail]; only resolved corrections reach the export.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE006: File errors (size, format, busy, empty input)
//   - COL001-COL003: Column and row selection errors
//   - SES001-SES002: Session lookup and capacity errors
//   - REQ001-REQ004, RATE001: Request errors
package core
