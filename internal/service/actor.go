package service

import "context"

// Actor identifies who performed a mutation, for the activity trail. The
// HTTP/auth layer (outside this core) attaches it to the request context;
// mutations made without one are recorded as system actions.
type Actor struct {
	ID   string
	Name string
}

type actorKey struct{}

// WithActor returns a copy of the context carrying the acting user.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor attached to the context, or a system
// placeholder when none is attached.
func ActorFromContext(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a
	}
	return Actor{ID: "system", Name: "system"}
}
