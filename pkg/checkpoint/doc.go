// Package checkpoint remembers how far a catalogue run got.
//
// After every catalogue page the scraper stores the offset of the next
// page together with processed/succeeded/failed totals. A later
// "scrape --resume" continues from that offset, provided the checkpoint was
// written for the same funds and sort order.
//
// The file is JSON, written to a temporary file, synced and renamed into
// place so an interrupted write never corrupts it.
package checkpoint
