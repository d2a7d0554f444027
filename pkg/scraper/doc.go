// Package scraper runs the catalogue scraping flow.
//
// A Session ties together the collection client, the ledger, the retry
// log, the image storage, the rate limiter and the checkpoint. Objects are
// processed strictly one after another:
//
//	catalogue page -> for each id: detail -> extract -> image -> ledger row
//
// Every per-object failure (bad status, malformed payload, missing image,
// empty attribute list, download or write error) is logged and the id is
// appended to the retry log; the run then moves on to the next id. A
// ledger row is written only after the image is on disk.
//
// Usage:
//
//	session, err := scraper.New(cfg)
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
//	summary, err := session.Run(ctx, scraper.RunOptions{Resume: true})
//
// Replay re-enters the flow with the ids of the retry log instead of a
// catalogue page. The log is read verbatim; ids failing again are appended
// again.
package scraper
