// Package pattern is the single home for the regular expressions that
// recognize vimscript declarations, comment leaders, directive argument
// grammars, and the argument-mention conventions used inside prose.
//
// Vimdoc is not a vimscript parser. These patterns are deliberately more
// permissive than the language; they only need to recognize declaration
// headers and documentation markup.
package pattern

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// VimdocLeader opens a documentation block: a `""` comment leader.
	VimdocLeader = regexp.MustCompile(`^\s*"" ?`)
	// EmptyVimdocLeader is a `""` leader with nothing after it.
	EmptyVimdocLeader = regexp.MustCompile(`^\s*""$`)
	// CommentLeader matches any vimscript comment line. One space after
	// the quote is part of the leader; everything else is content.
	CommentLeader = regexp.MustCompile(`^\s*" ?`)
	// LineContinuation matches vimscript `\` continuation lines.
	LineContinuation = regexp.MustCompile(`^\s*\\`)
	BlankCodeLine = regexp.MustCompile(`^\s*$`)

	// BlockDirective captures the directive name and raw argument text of
	// a `" @name args` line.
	BlockDirective = regexp.MustCompile(
		`^\s*"\s*@([a-zA-Z_][a-zA-Z0-9_]*)(?:\s+|$)(.*)`)

	// SectionArgs captures a section display name (commas escapable) and
	// an optional id. The name must not end with a space.
	SectionArgs = regexp.MustCompile(
		`^((?:[^\\,]|\\.)+\S)(?:,\s*([a-zA-Z_-][a-zA-Z0-9_-]*))?$`)
	ParentSectionArgs = regexp.MustCompile(`^([a-zA-Z_-][a-zA-Z0-9_-]*)$`)
	BackmatterArgs    = regexp.MustCompile(`^([a-zA-Z_-][a-zA-Z0-9_-]*)$`)
	DictArgs          = regexp.MustCompile(
		`^([a-zA-Z_][a-zA-Z0-9]*)(?:\.([a-zA-Z_][a-zA-Z0-9_]*))?$`)
	// DefaultArgs captures the `arg=value` form of @default. The arg may
	// be written bare or in square brackets.
	DefaultArgs = regexp.MustCompile(
		`^((?:\[[a-zA-Z_][a-zA-Z0-9_]*\])|(?:[a-zA-Z_][a-zA-Z0-9_]*))\s*=\s*(.*)$`)

	// UsageArgs validates the whole token list of a @usage line.
	UsageArgs = regexp.MustCompile(
		`^((?:\s*(?:` +
			`{(?:[a-zA-Z_][a-zA-Z0-9_]*(?:\.\.\.)?)?}` +
			`|\[(?:[a-zA-Z_.][a-zA-Z0-9_.]*(?:\.\.\.)?)?\]` +
			`|[a-zA-Z_][a-zA-Z0-9_]*(?:\.\.\.)?` +
			`|{\]` +
			`))*)$`)
	// UsageArg extracts individual @usage tokens in order.
	UsageArg = regexp.MustCompile(
		`{(?:[a-zA-Z_][a-zA-Z0-9_]*(?:\.\.\.)?)?}` +
			`|\[(?:[a-zA-Z_][a-zA-Z0-9_]*(?:\.\.\.)?)?\]` +
			`|{\]` +
			`|[a-zA-Z_][a-zA-Z0-9_]*(?:\.\.\.)?`)

	OrderArgs = regexp.MustCompile(
		`^((?:\s*[a-zA-Z_][a-zA-Z0-9_-]*)+(?:\s*[+-])?)$`)
	OrderArg = regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_-]*|[+-])`)

	MaybeWord     = regexp.MustCompile(`^\s*([a-zA-Z_][a-zA-Z0-9_]*)?\s*$`)
	ThrowArgs     = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_]*)(?:\s+(.*))?$`)
	VimError      = regexp.MustCompile(`^E\d+$`)
	StylizingArgs = regexp.MustCompile(`^(\S+)$`)

	// FunctionLine matches a function declaration header and captures the
	// autoload namespace (if any), the name, and the raw parameter text.
	FunctionLine = regexp.MustCompile(
		`^\s*fu(?:n|nc|nct|ncti|nctio|nction)?(?:\s*!\s*|\s+)` +
			`((?:[a-zA-Z_][a-zA-Z0-9_]*#)+)?` +
			`([a-zA-Z_][a-zA-Z0-9_]*)` +
			`\s*\(([^)]*)\)`)
	// CommandLine captures a command's flag text and name.
	CommandLine = regexp.MustCompile(
		`^\s*com(?:m|ma|man|mand)?(?:\s*!\s*|\s+)((?:-\S+\s*)*)([a-zA-Z_][a-zA-Z0-9_]*)`)
	// SettingLine captures the scope sigil and name of a global or
	// buffer-local variable assignment.
	SettingLine = regexp.MustCompile(
		`^\s*let\s+([gb]):([a-zA-Z_][a-zA-Z0-9_{}\[\].]*)`)
	SettingScope = regexp.MustCompile(`^[a-z]:`)
	// FlagLine matches maktaba flag registration calls. The name may be
	// single quoted (doubled quotes escape) or double quoted (backslash
	// escapes); the optional third group is the default value expression,
	// which tolerates one level of nested parentheses.
	FlagLine = regexp.MustCompile(
		`^\s*call?\s*.*\.Flag\(\s*` +
			`(?:'((?:[^']|'')*)'|"((?:[^\\"]|\\.)*)")` +
			`,\s*` +
			`(?:((?:[^()]|\([^()]+\))+?)\s*\))?`)

	// InlineDirective matches `@name` and `@name(arg)` within prose.
	InlineDirective = regexp.MustCompile(
		`@([a-zA-Z_][a-zA-Z0-9_]*)(?:\(([^\s)]+)\))?`)

	// FunctionArg extracts parameter names (or `...`) from the raw
	// parameter text of a function declaration.
	FunctionArg = regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_]*|\.\.\.)`)

	// ListItem matches the leader of a list-item prose line.
	ListItem = regexp.MustCompile(`^\s*([*+-]|\d+\.)\s+`)

	nameHole           = regexp.MustCompile(`<>`)
	argHole            = regexp.MustCompile(`{\]`)
	requiredHole       = regexp.MustCompile(`{}`)
	optionalHole       = regexp.MustCompile(`\[\]`)
	requiredArg        = regexp.MustCompile(`{([a-zA-Z_][a-zA-Z0-9_]*(?:\.\.\.)?)}`)
	optionalArg        = regexp.MustCompile(`\[([a-zA-Z_][a-zA-Z0-9_]*(?:\.\.\.)?)\]`)
	nameHoleEscape     = regexp.MustCompile(`<\|(\|*)>`)
	requiredHoleEscape = regexp.MustCompile(`{\|(\|*)}`)
	optionalHoleEscape = regexp.MustCompile(`\[\|(\|*)\]`)
)

// Mentions and holes must stand alone as words: not preceded by a
// non-space character and not followed by an alphanumeric (trailing
// punctuation like "," and "." is fine). The original expressed this
// with lookaround, which RE2 lacks, so the boundary check is done here.
func delimitedAt(s string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if !unicode.IsSpace(r) {
			return false
		}
	}
	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func delimitedFindAll(re *regexp.Regexp, s string) []string {
	var names []string
	for _, m := range re.FindAllStringSubmatchIndex(s, -1) {
		if delimitedAt(s, m[0], m[1]) {
			names = append(names, s[m[2]:m[3]])
		}
	}
	return names
}

func delimitedReplaceAll(re *regexp.Regexp, s, repl string) string {
	var sb strings.Builder
	last := 0
	for _, m := range re.FindAllStringIndex(s, -1) {
		if !delimitedAt(s, m[0], m[1]) {
			continue
		}
		sb.WriteString(s[last:m[0]])
		sb.WriteString(repl)
		last = m[1]
	}
	sb.WriteString(s[last:])
	return sb.String()
}

// RequiredMentions returns the `{name}` argument mentions in text, in
// order of appearance.
func RequiredMentions(text string) []string {
	return delimitedFindAll(requiredArg, text)
}

// OptionalMentions returns the `[name]` argument mentions in text, in
// order of appearance.
func OptionalMentions(text string) []string {
	return delimitedFindAll(optionalArg, text)
}

// ReplaceRequiredHole expands every standalone `{}` in text.
func ReplaceRequiredHole(text, repl string) string {
	return delimitedReplaceAll(requiredHole, text, repl)
}

// ReplaceOptionalHole expands every standalone `[]` in text.
func ReplaceOptionalHole(text, repl string) string {
	return delimitedReplaceAll(optionalHole, text, repl)
}

// ReplaceArgHole expands the joint `{]` hole.
func ReplaceArgHole(text, repl string) string {
	return argHole.ReplaceAllString(text, repl)
}

// ReplaceNameHole expands `<>` with the element's canonical name.
func ReplaceNameHole(text, name string) string {
	return nameHole.ReplaceAllString(text, name)
}

// ExpandHoleEscapes peels one `|` layer from escaped holes, turning
// `<|>` into `<>`, `{|}` into `{}`, and `[|]` into `[]`.
func ExpandHoleEscapes(text string) string {
	text = nameHoleEscape.ReplaceAllString(text, `<$1>`)
	text = requiredHoleEscape.ReplaceAllString(text, `{$1}`)
	return optionalHoleEscape.ReplaceAllString(text, `[$1]`)
}

// CleanSeparators collapses the separator debris left behind by empty
// hole expansions: runs of spaces and stray `, ` sequences.
func CleanSeparators(text string) string {
	for strings.Contains(text, ", , ") {
		text = strings.ReplaceAll(text, ", , ", ", ")
	}
	for strings.Contains(text, "  ") {
		text = strings.ReplaceAll(text, "  ", " ")
	}
	return text
}
