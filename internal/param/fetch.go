package param

import "context"

// Fetcher reads secrets. An empty path is not configured and yields a zero value.
type Fetcher interface {
	Fetch(context.Context, string) (string, error)
	FetchAll(context.Context, string) ([]string, error)
}
