package session

import "context"

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

type confirmKey struct{}

// WithConfirmation records the caller's answer for ContextConfirmer.
func WithConfirmation(ctx context.Context, confirmed bool) context.Context {
	return context.WithValue(ctx, confirmKey{}, confirmed)
}

// ContextConfirmer approves only when the context carries a positive answer.
// Request-driven adapters set it from a per-call confirm flag.
type ContextConfirmer struct{}

func (ContextConfirmer) Confirm(ctx context.Context, _ string) bool {
	confirmed, _ := ctx.Value(confirmKey{}).(bool)
	return confirmed
}

// AlwaysConfirm approves everything.
var AlwaysConfirm = ConfirmFunc(func(context.Context, string) bool { return true })
