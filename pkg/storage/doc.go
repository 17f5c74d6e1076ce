// Package storage writes crawled records to a local dataset directory.
//
// Each crawler.ProcessedRecord lands in its own <video id>.json file. Files
// are written to a temporary name and renamed into place, so a reader never
// sees a half-written record. A Dataset is a crawler.Sink and is typically
// placed after the ingest persister in a crawler.MultiSink, so it only
// keeps records the API accepted.
//
// Usage:
//
//	ds, err := storage.NewDataset("dataset", log)
//	if err != nil {
//	    return err
//	}
//	sink := crawler.MultiSink{persister, ds}
package storage
