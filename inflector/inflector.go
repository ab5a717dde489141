// Package inflector derives the singular, plural, class-name, and
// file-segment spellings of a base resource name. All derivations validate
// the input first: a name outside the allowed identifier set fails with an
// invalid-identifier error and is never silently sanitized, since the same
// name feeds file paths and generated type names.
package inflector

import (
	"github.com/go-openapi/inflect"

	"appforge"
)

// Ruleset wraps the inflection rule table. The default table already knows
// the common English irregulars ("city" → "cities", "person" → "people");
// AddIrregular extends it for project-specific nouns.
type Ruleset struct {
	rules *inflect.Ruleset
}

// NewRuleset returns a Ruleset with the default English rules.
func NewRuleset() *Ruleset {
	return &Ruleset{rules: inflect.NewDefaultRuleset()}
}

// AddIrregular registers an explicit singular/plural pair that overrides the
// suffix rules.
func (r *Ruleset) AddIrregular(singular, plural string) {
	r.rules.AddIrregular(singular, plural)
}

// Pluralize returns the plural spelling of name.
func (r *Ruleset) Pluralize(name string) (string, error) {
	if err := appforge.ValidIdentifier(name); err != nil {
		return "", err
	}
	return r.rules.Pluralize(name), nil
}

// Singularize returns the singular spelling of name.
func (r *Ruleset) Singularize(name string) (string, error) {
	if err := appforge.ValidIdentifier(name); err != nil {
		return "", err
	}
	return r.rules.Singularize(name), nil
}

// Classify returns the capitalized singular form used as a type name,
// e.g. "blog_posts" → "BlogPost".
func (r *Ruleset) Classify(name string) (string, error) {
	if err := appforge.ValidIdentifier(name); err != nil {
		return "", err
	}
	return r.rules.Camelize(r.rules.Singularize(name)), nil
}

// Underscore returns the lowercase word-separated form used as a file or
// route segment, e.g. "BlogPost" → "blog_post".
func (r *Ruleset) Underscore(name string) (string, error) {
	if err := appforge.ValidIdentifier(name); err != nil {
		return "", err
	}
	return r.rules.Underscore(name), nil
}
