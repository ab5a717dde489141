package appforge

import (
	"fmt"
	"strings"
)

// A FieldKind classifies how a resource attribute is stored and rendered.
// Different kinds produce structurally different form elements and column
// definitions in the generated payloads.
type FieldKind uint8

// Supported field kinds.
const (
	KindText FieldKind = iota
	KindBoolean
	KindSecret
	KindFreeText
	endKinds
)

var kindNames = [...]string{
	KindText:     "text",
	KindBoolean:  "boolean",
	KindSecret:   "secret",
	KindFreeText: "freetext",
}

// String returns the lowercase name of the kind.
func (k FieldKind) String() string {
	if k < endKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("invalid(%d)", k)
}

// Valid reports if the kind is one of the supported kinds.
func (k FieldKind) Valid() bool {
	return k < endKinds
}

// ParseFieldKind parses a kind name as written in a resource spec or manifest.
func ParseFieldKind(s string) (FieldKind, error) {
	for k, name := range kindNames {
		if s == name {
			return FieldKind(k), nil
		}
	}
	return endKinds, fmt.Errorf("appforge: unsupported field kind %q; use text, boolean, secret, or freetext", s)
}

// Attribute is one (name, kind) pair of a resource. Declaration order is
// preserved through generation and affects generated field ordering.
type Attribute struct {
	Name string
	Kind FieldKind
}

// ResourceDescriptor describes one generated entity, the unit of generation.
// It is created once at orchestrator invocation and never mutated afterwards.
type ResourceDescriptor struct {
	Name       string
	Attributes []Attribute
}

// Validate checks the resource name and every attribute name against the
// allowed identifier set. Names feed file paths and generated type names,
// so a bad name fails here instead of being sanitized.
func (r ResourceDescriptor) Validate() error {
	if err := ValidIdentifier(r.Name); err != nil {
		return err
	}
	seen := make(map[string]bool, len(r.Attributes))
	for _, a := range r.Attributes {
		if err := ValidIdentifier(a.Name); err != nil {
			return err
		}
		if seen[a.Name] {
			return NewIdentifierError(a.Name, fmt.Sprintf("duplicate attribute on resource %q", r.Name))
		}
		seen[a.Name] = true
		if !a.Kind.Valid() {
			return fmt.Errorf("appforge: resource %q attribute %q has invalid kind", r.Name, a.Name)
		}
	}
	return nil
}

// ParseResource parses a resource spec of the form
//
//	name:field:kind,field:kind,...
//
// for example "post:title:text,published:boolean". The attribute list is
// optional; "page" alone is a resource with no attributes.
func ParseResource(spec string) (ResourceDescriptor, error) {
	name, rest, _ := strings.Cut(spec, ":")
	r := ResourceDescriptor{Name: name}
	if rest != "" {
		for _, pair := range strings.Split(rest, ",") {
			field, kindName, ok := strings.Cut(pair, ":")
			if !ok {
				return ResourceDescriptor{}, fmt.Errorf("appforge: malformed attribute %q in resource spec %q; want field:kind", pair, spec)
			}
			kind, err := ParseFieldKind(kindName)
			if err != nil {
				return ResourceDescriptor{}, err
			}
			r.Attributes = append(r.Attributes, Attribute{Name: field, Kind: kind})
		}
	}
	if err := r.Validate(); err != nil {
		return ResourceDescriptor{}, err
	}
	return r, nil
}

// ValidIdentifier checks a name against the allowed identifier set:
// ASCII letters, digits, and underscore, not starting with a digit.
func ValidIdentifier(name string) error {
	if name == "" {
		return NewIdentifierError(name, "empty name")
	}
	if name[0] >= '0' && name[0] <= '9' {
		return NewIdentifierError(name, "must not start with a digit")
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return NewIdentifierError(name, fmt.Sprintf("character %q not allowed", c))
		}
	}
	return nil
}
