package editor

import "context"

// Actor identifies who triggered an operation, for audit and events.
type Actor struct {
	Editor  string
	TraceID string
	IP      string
}

type actorKey struct{}

// WithActor attaches a to ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the actor stored in ctx. Background jobs get "system".
func ActorFrom(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a
	}
	return Actor{Editor: "system"}
}
