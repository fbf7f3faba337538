package tracker

import (
	"errors"
	"fmt"
)

// Include declares an association to snapshot into every history entry.
// A nil Fields snapshots every attribute of the related entities.
type Include struct {
	Name   string
	Fields []string
}

// Assoc includes all attributes of the named association.
func Assoc(name string) Include {
	return Include{Name: name}
}

// AssocFields includes only the listed attributes of the named association.
func AssocFields(name string, fields ...string) Include {
	if fields == nil {
		fields = []string{}
	}
	return Include{Name: name, Fields: fields}
}

// AssociationRule is an Include resolved against its entity type.
type AssociationRule struct {
	Name     string
	Fields   []string
	Relation RelationDescriptor
}

// AllFields reports whether the rule snapshots every attribute.
func (r AssociationRule) AllFields() bool {
	return r.Fields == nil
}

// ResolveAssociations resolves each Include through t.Relation, preserving
// declaration order. An unknown or repeated relation is a *ConfigurationError.
func ResolveAssociations(t EntityType, includes []Include) ([]AssociationRule, error) {
	rules := make([]AssociationRule, 0, len(includes))
	seen := make(map[string]struct{}, len(includes))

	for i, inc := range includes {
		field := fmt.Sprintf("include[%d]", i)
		if inc.Name == "" {
			return nil, &ConfigurationError{EntityType: t.Name(), Field: field, Err: errors.New("association name is empty")}
		}
		if _, dup := seen[inc.Name]; dup {
			return nil, &ConfigurationError{EntityType: t.Name(), Field: field, Err: fmt.Errorf("association %q included twice", inc.Name)}
		}
		seen[inc.Name] = struct{}{}

		relation, err := t.Relation(inc.Name)
		if err != nil {
			if !errors.Is(err, ErrUnknownRelation) {
				err = fmt.Errorf("%w: %q: %v", ErrUnknownRelation, inc.Name, err)
			}
			return nil, &ConfigurationError{EntityType: t.Name(), Field: field, Err: err}
		}

		rule := AssociationRule{Name: inc.Name, Relation: relation}
		if inc.Fields != nil {
			rule.Fields = uniqueStrings(inc.Fields)
		}
		rules = append(rules, rule)
	}

	return rules, nil
}
