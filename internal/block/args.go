package block

import (
	"strings"

	"github.com/google/vimdoc/internal/pattern"
	"github.com/google/vimdoc/internal/vimdoc"
)

// HeaderKind distinguishes the three directives that open a usage
// header on a block.
type HeaderKind int

const (
	// HeaderUsage holds a token list like `{arg} [opt]` and builds the
	// usage line from the block's kind.
	HeaderUsage HeaderKind = iota
	// HeaderFunction holds a literal signature template.
	HeaderFunction
	// HeaderCommand holds a literal invocation template.
	HeaderCommand
)

// Header is a usage declaration attached to a block. It records the raw
// template plus the argument names the template already places, so that
// the remaining documented arguments can be filled into the holes.
type Header struct {
	Kind     HeaderKind
	template string
	reqs     []string
	opts     []string
}

// NewHeader parses a usage template into a header.
func NewHeader(kind HeaderKind, template string) *Header {
	return &Header{
		Kind:     kind,
		template: template,
		reqs:     pattern.RequiredMentions(template),
		opts:     pattern.OptionalMentions(template),
	}
}

// GenerateUsage resolves the header against a closed block into the
// final usage line. Functions render as `name({a}, [b])` and commands
// as `:head {a} [b]` with the head supplying the name hole.
func (h *Header) GenerateUsage(b *Block) (string, error) {
	template := h.template
	if h.Kind == HeaderUsage {
		expanded, err := h.expandTokens(b)
		if err != nil {
			return "", err
		}
		sep := " "
		if b.Type() == vimdoc.Function {
			sep = ", "
		}
		args := strings.Join(expanded, sep)
		switch b.Type() {
		case vimdoc.Function:
			template = "<>(" + args + ")"
		case vimdoc.Command:
			head := b.Head
			if head == "" {
				head = "<>"
			}
			template = ":" + head + " " + args
		default:
			return "", vimdoc.AmbiguousBlock()
		}
		usage := pattern.ReplaceNameHole(template, b.FullName())
		return pattern.ExpandHoleEscapes(usage), nil
	}
	return h.fillOut(b), nil
}

// expandTokens normalizes and expands a @usage token list.
//
// A bare token refers to a parameter; its required or optional wrapping
// comes from how the name is classified elsewhere in the block, and a
// name classified nowhere is a reference error. Wrapped tokens force
// their classification. The anonymous holes `{}`, `[]`, and the joint
// `{]` expand in place to the remaining (not explicitly listed)
// required, optional, or both argument lists.
func (h *Header) expandTokens(b *Block) ([]string, error) {
	tokens := pattern.UsageArg.FindAllString(h.template, -1)
	var named []string
	normalized := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token[0] != '{' && token[0] != '[' {
			base := strings.TrimSuffix(token, "...")
			switch {
			case b.mentionedOptional(base):
				token = "[" + token + "]"
			case b.mentionedRequired(base):
				token = "{" + token + "}"
			default:
				return nil, vimdoc.UnknownParameter(token)
			}
		}
		if token != "{]" {
			if name := strings.Trim(token, "{}[]"); name != "" {
				named = append(named, strings.TrimSuffix(name, "..."))
			}
		}
		normalized = append(normalized, token)
	}

	remReqs := remaining(b.RequiredArgs(), named, "{", "}")
	remOpts := remaining(b.OptionalArgs(), named, "[", "]")
	var expanded []string
	for _, token := range normalized {
		switch token {
		case "{}":
			expanded = append(expanded, remReqs...)
			remReqs = nil
		case "[]":
			expanded = append(expanded, remOpts...)
			remOpts = nil
		case "{]":
			expanded = append(expanded, remReqs...)
			expanded = append(expanded, remOpts...)
			remReqs, remOpts = nil, nil
		default:
			expanded = append(expanded, token)
		}
	}
	return expanded, nil
}

// remaining wraps the args not already listed by name.
func remaining(args, named []string, open, shut string) []string {
	var out []string
	for _, a := range args {
		if !contains(named, strings.TrimSuffix(a, "...")) {
			out = append(out, open+a+shut)
		}
	}
	return out
}

// fillOut expands a literal @function/@command template. The `{]` hole
// takes all remaining arguments, required before optional; `{}` and
// `[]` take their respective halves; `<>` takes the name, including the
// command head flags. Escaped holes lose one escape layer at the end so
// literal hole text survives expansion.
func (h *Header) fillOut(b *Block) string {
	sep := " "
	if b.Type() == vimdoc.Function {
		sep = ", "
	}
	var extraReqs, extraOpts []string
	for _, r := range b.RequiredArgs() {
		if !contains(h.reqs, r) {
			extraReqs = append(extraReqs, "{"+r+"}")
		}
	}
	for _, o := range b.OptionalArgs() {
		if !contains(h.opts, o) {
			extraOpts = append(extraOpts, "["+o+"]")
		}
	}
	reqs := strings.Join(extraReqs, sep)
	opts := strings.Join(extraOpts, sep)
	args := reqs + opts
	if reqs != "" && opts != "" {
		args = reqs + sep + opts
	}

	usage := pattern.ReplaceArgHole(h.template, args)
	usage = pattern.ReplaceRequiredHole(usage, reqs)
	usage = pattern.ReplaceOptionalHole(usage, opts)
	usage = pattern.CleanSeparators(usage)

	name := b.FullName()
	if b.Type() == vimdoc.Command {
		// The name hole of a command stands for the whole invocation
		// head, bang and range markers included.
		head := b.Head
		if head == "" {
			head = "<>"
		}
		name = pattern.ReplaceNameHole(head, name)
	}
	usage = pattern.ReplaceNameHole(usage, name)
	usage = pattern.ExpandHoleEscapes(usage)
	if b.Type() == vimdoc.Command && !strings.HasPrefix(usage, ":") {
		usage = ":" + usage
	}
	return usage
}
