// Package ingest pushes crawled creators to the influencer ingestion API.
//
// Each crawler.ProcessedRecord is mapped onto the API's flat profile
// schema with ToProfile and POSTed once by Persister. Nothing is retried:
// a 200 is success, a 422 is logged and accepted as-is, and any other
// outcome is logged and returned to the caller.
//
//	p := ingest.NewPersister(cfg.Ingest, log)
//	err := p.Push(ctx, record)
package ingest
