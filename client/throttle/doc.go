// Package throttle rate-limits the requests an environment's transport
// sends, using the token bucket from [golang.org/x/time/rate].
//
// Environments enable it with client.WithThrottle; it can also wrap any
// transport directly:
//
//	rt, err := throttle.NewRoundTripper(
//		throttle.Config{RPS: 10, Burst: 5},
//		func() *slog.Logger { return slog.Default() },
//		http.DefaultTransport,
//	)
//
// A request that finds the bucket empty blocks until a token is free or
// its context ends. Because a retried fetch issues a fresh request per
// attempt, every attempt draws its own token.
package throttle
