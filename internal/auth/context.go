package auth

import "context"

// ContextKey is the type used for context keys
type ContextKey string

// ContextKeyIdentity carries the identity a request or job runs as.
const ContextKeyIdentity ContextKey = "identity"

// SystemIdentity is the synthetic identity scheduled jobs run under. It is
// distinct from any end-user session and never reaches session storage.
const SystemIdentity = "system"

// WithSystemIdentity returns a context carrying the privileged system
// identity for job execution.
func WithSystemIdentity(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, SystemIdentity)
}

// IsSystem reports whether the context carries the system identity.
func IsSystem(ctx context.Context) bool {
	id, ok := ctx.Value(ContextKeyIdentity).(string)
	return ok && id == SystemIdentity
}
