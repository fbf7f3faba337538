package tracker

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is one recorded lifecycle event. It is built by the Recorder,
// never modified afterwards, and owned by the Store once handed over.
type HistoryEntry struct {
	ID            uuid.UUID               `json:"id"`
	EntityType    string                  `json:"entity_type"`
	EntityID      string                  `json:"entity_id"`
	Scope         string                  `json:"scope"`
	Event         EventKind               `json:"event"`
	Changes       *Changes                `json:"changes"`
	Associations  *Ordered[[]*Attributes] `json:"associations"`
	DerivedValues *Ordered[interface{}]   `json:"derived_values"`
	Modifier      string                  `json:"modifier,omitempty"`
	Timestamp     time.Time               `json:"timestamp"`
}

type contextKey string

const modifierKey contextKey = "history_modifier"

// WithModifier attaches the acting user to ctx; entries recorded with that
// context carry it in Modifier.
func WithModifier(ctx context.Context, modifier string) context.Context {
	return context.WithValue(ctx, modifierKey, modifier)
}

// ModifierFrom returns the acting user stored by WithModifier, or "".
func ModifierFrom(ctx context.Context) string {
	if modifier, ok := ctx.Value(modifierKey).(string); ok {
		return modifier
	}
	return ""
}
