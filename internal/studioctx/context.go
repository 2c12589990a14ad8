package studioctx

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// StudioContextKey is the request context key for the active studio ID.
type StudioContextKey struct{}

// WithStudioID stores the studio ID in the context.
func WithStudioID(ctx context.Context, studioID int64) context.Context {
	return context.WithValue(ctx, StudioContextKey{}, studioID)
}

// StudioIDFromContext returns the studio ID from context, if set.
func StudioIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}

	value := ctx.Value(StudioContextKey{})
	if value != nil {
		switch typed := value.(type) {
		case int64:
			return snowflake.ID(typed), true
		case snowflake.ID:
			return typed, true
		case string:
			parsed, err := snowflake.ParseString(strings.TrimSpace(typed))
			if err == nil {
				return parsed, true
			}
		}
	}

	raw := ctx.Value("studio_id")
	if raw == nil {
		return 0, false
	}
	switch typed := raw.(type) {
	case int64:
		return snowflake.ID(typed), true
	case snowflake.ID:
		return typed, true
	case string:
		parsed, err := snowflake.ParseString(strings.TrimSpace(typed))
		if err == nil {
			return parsed, true
		}
	}
	return 0, false
}
