package obscontext

import "context"

type requestIDKey struct{}
type studioIDKey struct{}
type actorKey struct{}

type actorValue struct {
	actorType string
	actorID   string
}

// WithRequestID stores the request correlation ID in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request correlation ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// WithStudioID stores the active studio ID for log correlation.
func WithStudioID(ctx context.Context, studioID string) context.Context {
	return context.WithValue(ctx, studioIDKey{}, studioID)
}

// StudioIDFromContext returns the active studio ID, or "".
func StudioIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(studioIDKey{}).(string)
	return v
}

// WithActor stores the acting principal for log correlation.
func WithActor(ctx context.Context, actorType, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorValue{actorType: actorType, actorID: actorID})
}

// ActorFromContext returns the acting principal type and ID, or empty strings.
func ActorFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	v, ok := ctx.Value(actorKey{}).(actorValue)
	if !ok {
		return "", ""
	}
	return v.actorType, v.actorID
}
