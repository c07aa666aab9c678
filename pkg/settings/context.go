package settings

import "context"

type contextKey struct{}

// IntoContext stores run settings in ctx.
func IntoContext(ctx context.Context, s *Run) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext retrieves run settings from ctx.
func FromContext(ctx context.Context) (*Run, bool) {
	s, ok := ctx.Value(contextKey{}).(*Run)
	return s, ok && s != nil
}

// FromContextOrDefault returns the settings in ctx, or the CLI defaults.
func FromContextOrDefault(ctx context.Context) *Run {
	if s, ok := FromContext(ctx); ok {
		return s
	}
	return NewCliParams()
}
