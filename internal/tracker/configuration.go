package tracker

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
)

// ChangeDetector replaces the default diff for an entity type. It receives
// the before and after attribute maps (nil for an absent side) and the
// trackable attributes, and alone decides what the entry's changes are.
type ChangeDetector func(before, after map[string]interface{}, trackable []string) (*Changes, error)

// Options is the registration surface for one entity type.
type Options struct {
	// Scope groups history entries; defaults to DefaultScope(type name).
	Scope string
	// Only, when non-empty, is exactly the set of tracked attributes.
	Only []string
	// Except is excluded from tracking together with the registry's ignore list.
	Except []string
	// Include lists associations to snapshot into every entry.
	Include []Include
	// Methods are zero-argument methods whose values are stored verbatim.
	Methods []string
	// On lists the events that produce entries; empty means all of them.
	On []EventKind
	// Changes overrides the default diff.
	Changes ChangeDetector
}

// Configuration is the resolved, immutable tracking setup for one entity type.
type Configuration struct {
	entityType   string
	scope        string
	only         []string
	except       []string
	associations []AssociationRule
	methods      []string
	events       []EventKind
	detector     ChangeDetector
	trackable    []string
	nonTracked   []string
}

func buildConfiguration(t EntityType, opts Options, ignored []string) (*Configuration, error) {
	rules, err := ResolveAssociations(t, opts.Include)
	if err != nil {
		return nil, err
	}

	events, err := resolveEvents(t.Name(), opts.On)
	if err != nil {
		return nil, err
	}

	scope := opts.Scope
	if scope == "" {
		scope = DefaultScope(t.Name())
	}

	columns := t.ColumnNames()
	trackable := TrackableAttributes(columns, opts.Only, opts.Except, ignored)

	return &Configuration{
		entityType:   t.Name(),
		scope:        scope,
		only:         uniqueStrings(opts.Only),
		except:       uniqueStrings(opts.Except),
		associations: rules,
		methods:      slices.Clone(opts.Methods),
		events:       events,
		detector:     opts.Changes,
		trackable:    trackable,
		nonTracked:   nonTrackedAttributes(columns, trackable),
	}, nil
}

func resolveEvents(typeName string, on []EventKind) ([]EventKind, error) {
	if len(on) == 0 {
		return slices.Clone(AllEvents), nil
	}

	wanted := make(map[EventKind]bool, len(on))
	for i, event := range on {
		parsed, err := ParseEvent(string(event))
		if err != nil {
			return nil, &ConfigurationError{EntityType: typeName, Field: fmt.Sprintf("on[%d]", i), Err: err}
		}
		wanted[parsed] = true
	}

	events := make([]EventKind, 0, len(wanted))
	for _, event := range AllEvents {
		if wanted[event] {
			events = append(events, event)
		}
	}
	return events, nil
}

// EntityType returns the name of the configured entity type.
func (c *Configuration) EntityType() string { return c.entityType }

// Scope returns the scope stamped on every entry.
func (c *Configuration) Scope() string { return c.scope }

// TrackedAttributes returns the trackable attributes in diff order.
func (c *Configuration) TrackedAttributes() []string { return slices.Clone(c.trackable) }

// NonTrackedAttributes returns the entity's columns that are never diffed.
func (c *Configuration) NonTrackedAttributes() []string { return slices.Clone(c.nonTracked) }

// Associations returns the resolved association rules in declaration order.
func (c *Configuration) Associations() []AssociationRule {
	rules := make([]AssociationRule, len(c.associations))
	for i, rule := range c.associations {
		rule.Fields = slices.Clone(rule.Fields)
		rules[i] = rule
	}
	return rules
}

// Methods returns the derived method names in declaration order.
func (c *Configuration) Methods() []string { return slices.Clone(c.methods) }

// Events returns the tracked lifecycle events.
func (c *Configuration) Events() []EventKind { return slices.Clone(c.events) }

// Tracks reports whether event produces history entries.
func (c *Configuration) Tracks(event EventKind) bool {
	return slices.Contains(c.events, event)
}

// HasCustomDetector reports whether a ChangeDetector replaces the default diff.
func (c *Configuration) HasCustomDetector() bool { return c.detector != nil }

// diff runs the custom detector if one is configured, the default otherwise.
func (c *Configuration) diff(before, after map[string]interface{}) (*Changes, error) {
	if c.detector == nil {
		return ComputeChanges(c.trackable, before, after), nil
	}
	changes, err := c.detector(before, after, slices.Clone(c.trackable))
	if err != nil {
		return nil, err
	}
	if changes == nil {
		changes = NewOrdered[Change]()
	}
	return changes, nil
}

// equivalent reports whether two configurations were resolved from the same
// options. Only and Except compare as sets; Include, Methods keep their order.
func (c *Configuration) equivalent(other *Configuration) bool {
	if c.entityType != other.entityType || c.scope != other.scope {
		return false
	}
	if !sameSet(c.only, other.only) || !sameSet(c.except, other.except) {
		return false
	}
	if !slices.Equal(c.methods, other.methods) || !slices.Equal(c.events, other.events) {
		return false
	}
	if len(c.associations) != len(other.associations) {
		return false
	}
	for i, rule := range c.associations {
		theirs := other.associations[i]
		if rule.Name != theirs.Name || rule.AllFields() != theirs.AllFields() || !sameSet(rule.Fields, theirs.Fields) {
			return false
		}
	}
	return sameDetector(c.detector, other.detector)
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	sort.Strings(x)
	sort.Strings(y)
	return slices.Equal(x, y)
}

// sameDetector compares function identity; two closures from the same
// literal are treated as the same detector.
func sameDetector(a, b ChangeDetector) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
