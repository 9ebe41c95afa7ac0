// Package logs reads the lettervoice log file for the `lettervoice logs`
// command.
//
// It returns the last N matching lines with bounded memory and can keep
// following the file, picking up from the start again when the file is
// truncated. Filters are plain substring matches so they work for both the
// console and JSON log formats.
package logs
