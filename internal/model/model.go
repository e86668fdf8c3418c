// Package model abstracts the text generation capability used by agents.
package model

import "context"

// Request is a single-turn generation request.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
}

// Client is a pluggable, possibly remote, text generation capability.
// Implementations may block; callers bound them with a context deadline.
type Client interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// Func adapts an ordinary function to the Client interface.
type Func func(ctx context.Context, req Request) (string, error)

// Name identifies the adapter.
func (f Func) Name() string { return "func" }

// Complete calls f.
func (f Func) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
