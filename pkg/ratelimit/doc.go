// Package ratelimit provides optional client-side request pacing.
//
// TokenBucket wraps golang.org/x/time/rate; Unlimited is used when pacing is
// switched off, which is the default. Nothing here reacts to the remote
// service's own throttling signals.
package ratelimit
