// Package webhook fires IFTTT Maker webhook events.
//
// Each trigger is a single GET request:
//
//	{base_url}/trigger/{event}/with/key/{key}
//
// Triggers are fire-and-forget. Trigger returns immediately and the request
// runs in the background; failures are logged and never retried. A
// semaphore bounds the number of requests in flight. When the bound is
// reached further triggers are dropped with a warning instead of queueing.
//
// The key is a secret: it is never logged and request errors are stripped
// of the request URL before they are returned.
package webhook
