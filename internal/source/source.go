package source

import "context"

// Source produces the raw log lines of one analysis run.
type Source interface {
	// Lines returns every raw line in source order.
	Lines(ctx context.Context, cfg Config) ([]string, error)
}

// Config holds provider-specific settings.
type Config struct {
	Provider string
	Path     string // file
	URL      string // http
	Token    string // http, optional bearer token
	Orders   int    // synthetic
	Seed     int64  // synthetic
}
