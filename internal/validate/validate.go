// Package validate checks mutation payloads before they are compiled.
// Rules are written in CUE, one struct per table:
//
//	users: {
//	    name:  string & != ""
//	    age?:  int & >=0
//	}
//
// Tables without a rule are not checked.
package validate

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/hlop3z/alabq/internal/alerr"
)

// Mode selects how strictly a payload is checked.
type Mode int

const (
	// Full requires every non-optional field to be present (insert, upsert).
	Full Mode = iota
	// Partial only checks the fields that are present (update).
	Partial
)

// String returns the mode name.
func (m Mode) String() string {
	if m == Partial {
		return "partial"
	}
	return "full"
}

// Validator checks one payload for one table.
type Validator interface {
	Validate(table string, row map[string]any, mode Mode) error
}

// -----------------------------------------------------------------------------
// CUE
// -----------------------------------------------------------------------------

// CUE validates payloads against rules compiled from a CUE document.
type CUE struct {
	mu    sync.Mutex
	ctx   *cue.Context
	rules cue.Value
}

// NewCUE compiles src. The document must be a struct keyed by table name.
func NewCUE(src string) (*CUE, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename("rules.cue"))
	if err := v.Err(); err != nil {
		return nil, alerr.Wrap(alerr.ErrConfig, err, "failed to compile validation rules").
			With("details", cueerrors.Details(err, nil))
	}
	if v.IncompleteKind() != cue.StructKind {
		return nil, alerr.New(alerr.ErrConfig, "validation rules must be a struct keyed by table name")
	}
	return &CUE{ctx: ctx, rules: v}, nil
}

// LoadCUEFile reads and compiles a rules file.
func LoadCUEFile(path string) (*CUE, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrConfig, err, "failed to read validation rules").
			With("path", path)
	}
	c, err := NewCUE(string(data))
	if err != nil {
		if e, ok := err.(*alerr.Error); ok {
			return nil, e.With("path", path)
		}
		return nil, err
	}
	return c, nil
}

// Tables returns the names of the tables that have rules.
func (c *CUE) Tables() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var names []string
	iter, err := c.rules.Fields()
	if err != nil {
		return nil
	}
	for iter.Next() {
		names = append(names, iter.Selector().String())
	}
	return names
}

// Validate unifies row with the table's rule. Every violation is reported,
// collected into one ErrValidation error.
func (c *CUE) Validate(table string, row map[string]any, mode Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rule := c.rules.LookupPath(cue.MakePath(cue.Str(table)))
	if !rule.Exists() {
		return nil
	}

	payload := c.ctx.Encode(row)
	if err := payload.Err(); err != nil {
		return alerr.Wrap(alerr.ErrValidation, err, "payload cannot be validated").
			WithTable(table)
	}

	unified := rule.Unify(payload)
	err := unified.Validate(cue.Concrete(mode == Full), cue.Final())
	if err == nil {
		return nil
	}

	var ve ValidationErrors
	for _, e := range cueerrors.Errors(err) {
		path := e.Path()
		if len(path) > 0 && path[0] == table {
			path = path[1:]
		}
		ve.Add(&FieldError{Path: strings.Join(path, "."), Message: fieldMessage(e)})
	}
	return alerr.Wrap(alerr.ErrValidation, ve.ToError(), "payload rejected").
		WithTable(table).
		With("mode", mode.String())
}

func fieldMessage(e cueerrors.Error) string {
	format, args := e.Msg()
	return fmt.Sprintf(format, args...)
}

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

// FieldError is one rejected field.
type FieldError struct {
	Path    string
	Message string
}

func (e *FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []error

// Error returns all errors as a formatted string.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation error(s):", len(ve))
	for i, err := range ve {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, err.Error())
	}
	return sb.String()
}

// HasErrors returns true if there are any errors in the collection.
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add appends an error to the collection if it's not nil.
func (ve *ValidationErrors) Add(err error) {
	if err != nil {
		*ve = append(*ve, err)
	}
}

// Fields returns the paths of the rejected fields.
func (ve ValidationErrors) Fields() []string {
	var out []string
	for _, err := range ve {
		if fe, ok := err.(*FieldError); ok && fe.Path != "" {
			out = append(out, fe.Path)
		}
	}
	return out
}

// ToError returns nil if no errors, or the ValidationErrors itself if there are errors.
func (ve ValidationErrors) ToError() error {
	if len(ve) == 0 {
		return nil
	}
	return ve
}

// -----------------------------------------------------------------------------
// Func
// -----------------------------------------------------------------------------

// Func adapts a plain function to Validator.
type Func func(table string, row map[string]any, mode Mode) error

// Validate calls f.
func (f Func) Validate(table string, row map[string]any, mode Mode) error {
	return f(table, row, mode)
}
