package auditctx

import "context"

type actorKey struct{}
type requestIDKey struct{}
type ipAddressKey struct{}
type userAgentKey struct{}
type inviteIDKey struct{}

// WithActor records the acting user for audit trail entries written
// further down the call stack.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(actorKey{}).(string)
	return v, ok && v != ""
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(requestIDKey{}).(string)
	return v, ok && v != ""
}

func WithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipAddressKey{}, ip)
}

func IPAddressFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ipAddressKey{}).(string)
	return v, ok && v != ""
}

func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, userAgentKey{}, ua)
}

func UserAgentFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userAgentKey{}).(string)
	return v, ok && v != ""
}

// WithInviteID tags the context with the invite being acted on so the
// audit writer can link lifecycle entries back to it.
func WithInviteID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, inviteIDKey{}, id)
}

func InviteIDFromContext(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(inviteIDKey{}).(int64)
	return v, ok && v != 0
}
