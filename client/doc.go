// Package client executes declarative, typed HTTP resources against a
// named environment.
//
// # Environments and Clients
//
// An [Environment] pairs a base URL with the transport used to reach it.
// A [Client] is bound to exactly one:
//
//	env, err := client.NewEnvironment("production", "https://api.example.com/v1/",
//		client.WithTimeout(10*time.Second),
//		client.WithUserAgent("myapp/1.0"),
//	)
//	c, err := client.Build(env, client.WithLogger(logger))
//
// # Resources
//
// A [Resource] describes one call and the type its response decodes into:
//
//	items := client.MustResource[[]Item]("items", client.WithKeyPath("data.items"))
//	got, err := client.Fetch(ctx, c, items)
//
// The key path narrows a response such as {"data":{"items":[...]}} to the
// nested value before decoding. A key path that does not resolve falls back
// to decoding the whole response unless [WithStrictKeyPath] is set.
//
// Status codes are not inspected: a 4xx or 5xx response whose body decodes
// is returned as a success. Use [WithExpectStatus] to opt in to checking.
//
// # Retrying
//
// [FetchRetry] repeats the whole fetch up to a bounded number of attempts
// with a constant pause in between:
//
//	got, err := client.FetchRetry(ctx, c, items, 3, client.WithDelay(500*time.Millisecond))
//
// All failures are retried, including malformed URLs and decode errors;
// [WithTransientOnly] limits retries to errors [IsTransient] accepts.
//
// Multipart bodies are built with the
// [github.com/adamwoolhether/apiclient/client/multipart] package.
package client
