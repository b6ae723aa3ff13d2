// Package resilience guards calls to slow or flaky backends.
//
//   - CircuitBreaker fails fast after repeated backend failures and probes
//     for recovery after a cool-down.
//   - Bulkhead caps the number of concurrent calls.
//
// Neither retries: a failed call is reported to the caller as-is.
//
//	err := bh.Execute(ctx, func() error {
//	    return cb.Execute(func() error { return backend.Call(ctx) })
//	})
package resilience
