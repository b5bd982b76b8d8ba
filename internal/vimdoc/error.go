package vimdoc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind partitions compile failures into the four reportable
// categories. Every failure aborts the whole compile; no output is
// written for a module that produced an error.
type ErrorKind int

const (
	// SyntaxError covers malformed or misused directives.
	SyntaxError ErrorKind = iota
	// ReferenceError covers links and tokens naming unknown targets.
	ReferenceError
	// ConflictError covers duplicate or contradictory declarations.
	ConflictError
	// StructureError covers invalid section-tree shapes.
	StructureError
)

func (k ErrorKind) String() string {
	switch k {
	case SyntaxError:
		return "syntax error"
	case ReferenceError:
		return "reference error"
	case ConflictError:
		return "conflict error"
	case StructureError:
		return "structure error"
	}
	return "error"
}

// Error is a compile failure annotated with the source position it was
// detected at. Filename and Line may be filled in after the fact by a
// caller with more context; see At.
type Error struct {
	Kind     ErrorKind
	Filename string
	Line     int
	Message  string
}

func (e *Error) Error() string {
	if e.Filename == "" && e.Line == 0 {
		return e.Message
	}
	filename := e.Filename
	if filename == "" {
		filename = "???"
	}
	lineno := "???"
	if e.Line > 0 {
		lineno = fmt.Sprintf("%03d", e.Line)
	}
	return fmt.Sprintf("%s.%s: %s", filename, lineno, e.Message)
}

// At stamps err with a source position unless it already carries one.
// Non-vimdoc errors pass through untouched.
func At(err error, filename string, line int) error {
	var verr *Error
	if errors.As(err, &verr) && verr.Filename == "" {
		verr.Filename = filename
		verr.Line = line
	}
	return err
}

// IsKind reports whether err is a vimdoc error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var verr *Error
	return errors.As(err, &verr) && verr.Kind == kind
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Syntax errors.

func UnrecognizedBlockDirective(name string) *Error {
	return newError(SyntaxError, "unrecognized block directive %q", name)
}

func InvalidBlockArgs(directive, args string) *Error {
	return newError(SyntaxError, "invalid args for directive @%s: %q", directive, args)
}

func InvalidBlock(message string) *Error {
	return newError(SyntaxError, "%s", message)
}

func MisplacedParentSection(parent string) *Error {
	return newError(SyntaxError,
		"@parentsection %s used outside a @section block", parent)
}

func MultipleHeaders() *Error {
	return newError(SyntaxError, "block given multiple headers")
}

func AmbiguousBlock() *Error {
	return newError(SyntaxError, "block type is ambiguous")
}

func InvalidGlobals(controls []string) *Error {
	return newError(SyntaxError,
		"plugin settings may only appear in the introduction section;"+
			" offending controls: %s", strings.Join(controls, ", "))
}

// Reference errors.

func UnresolvedReference(kind BlockType, name string) *Error {
	return newError(ReferenceError,
		"unresolved reference to %s %q", strings.ToLower(string(kind)), name)
}

func UnrecognizedInlineDirective(detail string) *Error {
	return newError(ReferenceError, "unrecognized inline directive %q", detail)
}

func UnknownParameter(token string) *Error {
	return newError(ReferenceError,
		"usage token %q does not name a known parameter", token)
}

func NoSuchSection(id string) *Error {
	return newError(ReferenceError, "section %s never defined", id)
}

// Conflict errors.

func TypeConflict(t1, t2 BlockType) *Error {
	return newError(ConflictError,
		"type %s is incompatible with type %s", t1, t2)
}

func RedundantControl(control string) *Error {
	return newError(ConflictError, "redundant control %q", control)
}

func InconsistentControl(control, old, new string) *Error {
	return newError(ConflictError,
		"inconsistent control %q (%s vs %s)", control, old, new)
}

func DuplicateSection(id string) *Error {
	return newError(ConflictError, "duplicate section %s defined", id)
}

func DuplicateBackmatter(id string) *Error {
	return newError(ConflictError, "duplicate backmatter for section %s", id)
}

func DuplicateEntity(typ BlockType, name string) *Error {
	return newError(ConflictError,
		"duplicate %s named %s", strings.ToLower(string(typ)), name)
}

func DuplicateTag(tag string) *Error {
	return newError(ConflictError, "tag %s defined more than once", tag)
}

// Structure errors.

func NoSuchParentSection(name, parent string) *Error {
	return newError(StructureError,
		"section %s has non-existent parent %s;"+
			" try setting the id of the parent section explicitly", name, parent)
}

func OrderedChildSection(id string, order []string) *Error {
	return newError(StructureError,
		"child section %s included in ordering %v", id, order)
}

func SectionCycle(id string) *Error {
	return newError(StructureError,
		"section %s is part of a parent cycle", id)
}
