// Package ledger persists the scraped records.
//
// Two on-disk formats exist. The CSV ledger is semicolon separated with the
// header Author;Title;Material;Technique;Dimensions;Type;Folder;Image and
// grows one synced row per record. The JSON ledger is a single array that is
// rewritten through a temporary file after every append.
//
// Both load any existing content on Open, so a new run continues the
// ledger of the previous one. Export converts a record list to JSON or
// Parquet for downstream tools.
package ledger
