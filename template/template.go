// Package template expands named, parameterized multi-file templates into
// output file bodies. Rendering is a single pass: the output of a template
// is never re-parsed, so generated content that happens to contain
// substitution delimiters stays inert.
package template

import (
	"strings"
	texttemplate "text/template"

	"appforge"
)

// Context carries the variable bindings for one render call. The name
// fields are derived by the inflector from the resource name; Singular and
// Plural are already in underscored (file- and route-safe) form.
type Context struct {
	AppName     string
	Singular    string
	Plural      string
	Classified  string
	Underscored string
	Attributes  []appforge.Attribute
	Env         map[string]string
}

// binding reports whether the named required binding is present and
// non-empty on the context.
func (c *Context) binding(name string) bool {
	switch name {
	case "AppName":
		return c.AppName != ""
	case "Singular":
		return c.Singular != ""
	case "Plural":
		return c.Plural != ""
	case "Classified":
		return c.Classified != ""
	case "Underscored":
		return c.Underscored != ""
	case "Attributes":
		return len(c.Attributes) > 0
	default:
		return false
	}
}

// File is one output of a template. Both Path and Body are template text
// bound by the same context.
type File struct {
	Path string
	Body string
}

// Template is a named multi-file template. Requires lists the context
// bindings that must be present for a render call to proceed.
type Template struct {
	ID       string
	Requires []string
	Files    []File
}

type compiledFile struct {
	path *texttemplate.Template
	body *texttemplate.Template
}

type compiled struct {
	requires []string
	files    []compiledFile
}

// Registry holds compiled templates keyed by id. Registration conflicts
// fail loudly; a second template under an existing id never silently
// replaces the first.
type Registry struct {
	templates map[string]*compiled
	order     []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*compiled)}
}

// Register compiles and stores a template. It returns a duplicate
// registration error if the id is already taken, and a parse error if any
// file of the template is malformed.
func (r *Registry) Register(t *Template) error {
	if t.ID == "" {
		return appforge.NewUnknownTemplateError("")
	}
	if _, ok := r.templates[t.ID]; ok {
		return appforge.NewDuplicateError("template", t.ID)
	}
	c := &compiled{requires: t.Requires}
	for _, f := range t.Files {
		pt, err := parse(t.ID+":path", f.Path)
		if err != nil {
			return err
		}
		bt, err := parse(t.ID+":body", f.Body)
		if err != nil {
			return err
		}
		c.files = append(c.files, compiledFile{path: pt, body: bt})
	}
	r.templates[t.ID] = c
	r.order = append(r.order, t.ID)
	return nil
}

// IDs returns the registered template ids in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Render expands the template with the given id and returns a map of output
// path to file body. An unregistered id yields an unknown-template error; an
// absent required binding yields a missing-binding error. Both are fatal to
// this call only, never to the overall run.
func (r *Registry) Render(id string, ctx *Context) (map[string]string, error) {
	c, ok := r.templates[id]
	if !ok {
		return nil, appforge.NewUnknownTemplateError(id)
	}
	for _, req := range c.requires {
		if !ctx.binding(req) {
			return nil, appforge.NewMissingBindingError(id, req)
		}
	}
	out := make(map[string]string, len(c.files))
	for _, f := range c.files {
		path, err := execute(f.path, ctx)
		if err != nil {
			return nil, &appforge.TemplateError{Template: id, Message: err.Error()}
		}
		body, err := execute(f.body, ctx)
		if err != nil {
			return nil, &appforge.TemplateError{Template: id, Message: err.Error()}
		}
		out[path] = body
	}
	return out, nil
}

// RenderBody expands a single-file template and returns its body only.
// Used for fragments that are patched into an envelope rather than written
// as standalone files.
func (r *Registry) RenderBody(id string, ctx *Context) (string, error) {
	files, err := r.Render(id, ctx)
	if err != nil {
		return "", err
	}
	for _, body := range files {
		return body, nil
	}
	return "", &appforge.TemplateError{Template: id, Message: "template has no files"}
}

func parse(name, text string) (*texttemplate.Template, error) {
	return texttemplate.New(name).
		Funcs(funcs).
		Option("missingkey=error").
		Parse(text)
}

func execute(t *texttemplate.Template, ctx *Context) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, ctx); err != nil {
		return "", err
	}
	return b.String(), nil
}
