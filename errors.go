// Package appforge defines the shared vocabulary of the generation engine:
// resource descriptors, field kinds, and the error taxonomy used by every
// subpackage. The engine itself lives in the forge package.
package appforge

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for the generation engine.
var (
	// ErrPrerequisiteMissing is returned when a required precondition
	// directory is absent. It aborts the run before any generation.
	ErrPrerequisiteMissing = errors.New("appforge: prerequisite missing")

	// ErrInvalidIdentifier is returned when a resource or attribute name
	// contains characters outside the allowed identifier set.
	ErrInvalidIdentifier = errors.New("appforge: invalid identifier")

	// ErrUnknownTemplate is returned when a generation call references a
	// template id that was never registered.
	ErrUnknownTemplate = errors.New("appforge: unknown template")

	// ErrMissingBinding is returned when a template requires a context
	// binding that is absent or empty.
	ErrMissingBinding = errors.New("appforge: missing template binding")

	// ErrEnvelopeNotFound is returned when the envelope file to patch does
	// not exist on disk.
	ErrEnvelopeNotFound = errors.New("appforge: envelope not found")

	// ErrMalformedEnvelope is returned when an envelope file is empty or its
	// last line is not the expected terminator token.
	ErrMalformedEnvelope = errors.New("appforge: malformed envelope")

	// ErrDependencyCycle is returned when the module dependency graph
	// contains a cycle. No module setup runs in that case.
	ErrDependencyCycle = errors.New("appforge: module dependency cycle")

	// ErrDuplicateRegistration is returned when a module or template is
	// registered twice under the same id. Registration conflicts fail loudly
	// instead of resolving by source order.
	ErrDuplicateRegistration = errors.New("appforge: duplicate registration")

	// ErrExternalCommand is returned when an external collaborator (package
	// install, migration, seed, commit) exits non-zero or times out.
	ErrExternalCommand = errors.New("appforge: external command failed")
)

// PrerequisiteError reports a missing precondition directory.
type PrerequisiteError struct {
	Path    string
	Message string
}

// Error returns the error string.
func (e *PrerequisiteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("appforge: prerequisite missing at %q: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("appforge: prerequisite missing at %q", e.Path)
}

// Is reports whether the target matches the sentinel for PrerequisiteError.
func (e *PrerequisiteError) Is(err error) bool {
	return err == ErrPrerequisiteMissing
}

// NewPrerequisiteError returns a new PrerequisiteError for the given path.
func NewPrerequisiteError(path, message string) *PrerequisiteError {
	return &PrerequisiteError{Path: path, Message: message}
}

// IsPrerequisiteMissing returns true if the error is a PrerequisiteError.
func IsPrerequisiteMissing(err error) bool {
	return errors.Is(err, ErrPrerequisiteMissing)
}

// IdentifierError reports a name that cannot be used as an identifier.
// Names feed file paths and generated type names at the same time, so the
// engine never sanitizes them silently.
type IdentifierError struct {
	Name    string
	Message string
}

// Error returns the error string.
func (e *IdentifierError) Error() string {
	return fmt.Sprintf("appforge: invalid identifier %q: %s", e.Name, e.Message)
}

// Is reports whether the target matches the sentinel for IdentifierError.
func (e *IdentifierError) Is(err error) bool {
	return err == ErrInvalidIdentifier
}

// NewIdentifierError returns a new IdentifierError for the given name.
func NewIdentifierError(name, message string) *IdentifierError {
	return &IdentifierError{Name: name, Message: message}
}

// IsInvalidIdentifier returns true if the error is an IdentifierError.
func IsInvalidIdentifier(err error) bool {
	return errors.Is(err, ErrInvalidIdentifier)
}

// TemplateError reports a failure resolving or rendering a named template.
// It is fatal to the one generation call, not to the overall run.
type TemplateError struct {
	Template string
	Binding  string // set when a required binding is absent
	Message  string
}

// Error returns the error string.
func (e *TemplateError) Error() string {
	if e.Binding != "" {
		return fmt.Sprintf("appforge: template %q missing binding %q", e.Template, e.Binding)
	}
	if e.Message != "" {
		return fmt.Sprintf("appforge: template %q: %s", e.Template, e.Message)
	}
	return fmt.Sprintf("appforge: unknown template %q", e.Template)
}

// Is reports whether the target matches the sentinel for this TemplateError.
func (e *TemplateError) Is(err error) bool {
	if e.Binding != "" {
		return err == ErrMissingBinding
	}
	return err == ErrUnknownTemplate
}

// NewUnknownTemplateError returns a TemplateError for an unregistered id.
func NewUnknownTemplateError(template string) *TemplateError {
	return &TemplateError{Template: template}
}

// NewMissingBindingError returns a TemplateError for an absent context binding.
func NewMissingBindingError(template, binding string) *TemplateError {
	return &TemplateError{Template: template, Binding: binding}
}

// IsUnknownTemplate returns true if the error is an unknown-template error.
func IsUnknownTemplate(err error) bool {
	return errors.Is(err, ErrUnknownTemplate)
}

// IsMissingBinding returns true if the error is a missing-binding error.
func IsMissingBinding(err error) bool {
	return errors.Is(err, ErrMissingBinding)
}

// EnvelopeError reports a structural problem with an envelope file.
type EnvelopeError struct {
	Path     string
	Message  string
	NotFound bool
}

// Error returns the error string.
func (e *EnvelopeError) Error() string {
	if e.NotFound {
		return fmt.Sprintf("appforge: envelope %q not found", e.Path)
	}
	return fmt.Sprintf("appforge: malformed envelope %q: %s", e.Path, e.Message)
}

// Is reports whether the target matches the sentinel for this EnvelopeError.
func (e *EnvelopeError) Is(err error) bool {
	if e.NotFound {
		return err == ErrEnvelopeNotFound
	}
	return err == ErrMalformedEnvelope
}

// NewEnvelopeNotFoundError returns an EnvelopeError for a missing file.
func NewEnvelopeNotFoundError(path string) *EnvelopeError {
	return &EnvelopeError{Path: path, NotFound: true}
}

// NewMalformedEnvelopeError returns an EnvelopeError for a structural defect.
func NewMalformedEnvelopeError(path, message string) *EnvelopeError {
	return &EnvelopeError{Path: path, Message: message}
}

// IsEnvelopeNotFound returns true if the error is an envelope-not-found error.
func IsEnvelopeNotFound(err error) bool {
	return errors.Is(err, ErrEnvelopeNotFound)
}

// IsMalformedEnvelope returns true if the error is a malformed-envelope error.
func IsMalformedEnvelope(err error) bool {
	return errors.Is(err, ErrMalformedEnvelope)
}

// CycleError reports a cycle in the module dependency graph, naming the
// module ids that could not be ordered.
type CycleError struct {
	IDs []string
}

// Error returns the error string.
func (e *CycleError) Error() string {
	return fmt.Sprintf("appforge: module dependency cycle involving [%s]", strings.Join(e.IDs, ", "))
}

// Is reports whether the target matches the sentinel for CycleError.
func (e *CycleError) Is(err error) bool {
	return err == ErrDependencyCycle
}

// NewCycleError returns a new CycleError naming the offending module ids.
func NewCycleError(ids []string) *CycleError {
	return &CycleError{IDs: ids}
}

// IsDependencyCycle returns true if the error is a CycleError.
func IsDependencyCycle(err error) bool {
	return errors.Is(err, ErrDependencyCycle)
}

// DuplicateError reports a second registration under an already-taken id.
type DuplicateError struct {
	Kind string // "module" or "template"
	ID   string
}

// Error returns the error string.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("appforge: duplicate %s registration %q", e.Kind, e.ID)
}

// Is reports whether the target matches the sentinel for DuplicateError.
func (e *DuplicateError) Is(err error) bool {
	return err == ErrDuplicateRegistration
}

// NewDuplicateError returns a new DuplicateError for the given kind and id.
func NewDuplicateError(kind, id string) *DuplicateError {
	return &DuplicateError{Kind: kind, ID: id}
}

// IsDuplicateRegistration returns true if the error is a DuplicateError.
func IsDuplicateRegistration(err error) bool {
	return errors.Is(err, ErrDuplicateRegistration)
}

// CommandError reports a failed external collaborator invocation.
type CommandError struct {
	Name  string // logical step name, e.g. "install" or "migrate"
	Argv  []string
	Cause error
}

// Error returns the error string.
func (e *CommandError) Error() string {
	return fmt.Sprintf("appforge: external command %q (%s) failed: %v", e.Name, strings.Join(e.Argv, " "), e.Cause)
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel for CommandError.
func (e *CommandError) Is(err error) bool {
	return err == ErrExternalCommand
}

// NewCommandError returns a new CommandError for the given step.
func NewCommandError(name string, argv []string, cause error) *CommandError {
	return &CommandError{Name: name, Argv: argv, Cause: cause}
}

// IsExternalCommand returns true if the error is a CommandError.
func IsExternalCommand(err error) bool {
	return errors.Is(err, ErrExternalCommand)
}
