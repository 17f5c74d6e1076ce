// Package tiktok is the HTTP transport for TikTok's web endpoints.
//
// Client.Get returns a body only for HTTP 200; every other outcome is a
// typed error from pkg/errors and is never retried. The typed helpers
// (Search, Comments, Replies, Profile) build the exact query shapes the
// web client sends:
//
//	client, err := tiktok.NewClient(cfg.TikTok, log)
//	page, err := client.Search(ctx, "#k-beauty", 0, 20)
//	for _, raw := range page.ItemList {
//	    // decode and process
//	}
//
// Cursor and Flag absorb the endpoints' inconsistent JSON typing.
package tiktok
