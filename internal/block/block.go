// Package block models one extracted comment block together with the
// facts accumulated about the construct it documents, and resolves the
// block's canonical usage signatures.
package block

import (
	"strings"

	"github.com/google/vimdoc/internal/logging"
	"github.com/google/vimdoc/internal/pattern"
	"github.com/google/vimdoc/internal/vimdoc"
)

var log = logging.GetLogger("block")

// Block is an encapsulated chunk of documentation: the paragraphs of
// one `""` comment block plus everything learned from its directives
// and from the subject line that followed it.
//
// A block may be secondary, meaning earlier blocks describe the same
// construct (extra @usage signatures); only the primary block carries
// the tag. A block may be a default, meaning an explicit block with the
// same identity overrides it.
type Block struct {
	// Local facts about the documented construct. Type and Name each
	// track whether they were set explicitly by a directive; explicit
	// values win over values inferred from the subject line.
	explicitType vimdoc.BlockType
	inferredType vimdoc.BlockType
	pending      bool
	explicitName string
	inferredName string

	// Namespace is the autoload namespace the block's file lives under
	// (for example "myplugin#util#"), empty otherwise.
	Namespace string
	// Dict and Attribute bind a function to a dictionary.
	Dict      string
	Attribute string
	// Private is nil until visibility is declared.
	Private *bool
	// Deprecated holds the deprecation reason, empty if not deprecated.
	Deprecated string
	// Exception is non-nil for exception pseudo-functions; the pointee
	// may be empty, in which case the function name is used.
	Exception *string
	// Args is the declared parameter list from the subject line,
	// including a trailing "..." for variadic functions.
	Args []string
	// Head is the command usage prefix with a `<>` hole for the name,
	// for example "[range]<>[!]".
	Head string
	// Usage is the resolved usage line, filled in by Close.
	Usage string

	// Plugin-wide metadata declared on this block.
	Stylization string
	Library     bool
	Order       []string
	Standalone  bool

	hasStylization bool
	hasLibrary     bool
	hasOrder       bool
	hasStandalone  bool

	// ID, ParentID, Children, and Level shape the section tree.
	ID       string
	ParentID string
	Children []*Block
	Level    int

	Paragraphs Paragraphs
	header     *Header

	// File and Line locate the block's first documentation line.
	File string
	Line int

	requiredArgs []string
	optionalArgs []string
	secondary    bool
	isDefault    bool
	closed       bool
}

// New returns an empty block of the given type.
func New(typ vimdoc.BlockType) *Block {
	b := &Block{}
	if typ != vimdoc.Unknown {
		b.inferType(typ)
	}
	return b
}

// NewDefault returns a default block of the given type: one that any
// explicit block with the same identity overrides.
func NewDefault(typ vimdoc.BlockType) *Block {
	b := New(typ)
	b.isDefault = true
	return b
}

// NewSecondary returns a block marked as describing the same construct
// as an earlier block in the same comment.
func NewSecondary() *Block {
	return &Block{secondary: true}
}

// Type returns the block's effective type: the explicitly directed type
// when present, the inferred type otherwise, and Pending when the block
// has been claimed by vimdoc without a concrete kind.
func (b *Block) Type() vimdoc.BlockType {
	if b.explicitType != vimdoc.Unknown {
		return b.explicitType
	}
	if b.inferredType != vimdoc.Unknown {
		return b.inferredType
	}
	if b.pending {
		return vimdoc.Pending
	}
	return vimdoc.Unknown
}

// Claim marks the block as vimdoc documentation without assigning a
// concrete kind.
func (b *Block) Claim() { b.pending = true }

// SetType assigns a kind from an explicit directive. Two explicit
// directives declaring different kinds conflict.
func (b *Block) SetType(typ vimdoc.BlockType) error {
	b.pending = true
	if b.explicitType != vimdoc.Unknown && b.explicitType != typ {
		return vimdoc.TypeConflict(b.explicitType, typ)
	}
	b.explicitType = typ
	return nil
}

// InferType assigns a kind deduced from the subject line. Explicit
// kinds win; an inferred kind that disagrees with an explicit one is
// dropped so that directives can override the heuristics.
func (b *Block) InferType(typ vimdoc.BlockType) error {
	b.pending = true
	if b.explicitType != vimdoc.Unknown {
		return nil
	}
	if b.inferredType != vimdoc.Unknown && b.inferredType != typ {
		return vimdoc.TypeConflict(b.inferredType, typ)
	}
	b.inferredType = typ
	return nil
}

func (b *Block) inferType(typ vimdoc.BlockType) { _ = b.InferType(typ) }

// Overridden reports whether the subject line's inferred kind should
// not decorate this block because a directive assigned a different one.
func (b *Block) Overridden(inferred vimdoc.BlockType) bool {
	return b.explicitType != vimdoc.Unknown && b.explicitType != inferred
}

// SetName records the construct name from an explicit directive.
func (b *Block) SetName(name string) error {
	if b.explicitName != "" && b.explicitName != name {
		return vimdoc.InconsistentControl("name", b.explicitName, name)
	}
	b.explicitName = name
	return nil
}

// InferName records the construct name from the subject line.
func (b *Block) InferName(name string) error {
	if b.inferredName != "" && b.inferredName != name {
		return vimdoc.InconsistentControl("name", b.inferredName, name)
	}
	b.inferredName = name
	return nil
}

func (b *Block) name() string {
	if b.explicitName != "" {
		return b.explicitName
	}
	return b.inferredName
}

// HasName reports whether any name has been recorded.
func (b *Block) HasName() bool { return b.name() != "" }

// SetVisibility records a @public or @private directive. Contradictory
// declarations on one block conflict.
func (b *Block) SetVisibility(private bool) error {
	b.pending = true
	if b.Private != nil && *b.Private != private {
		return vimdoc.InconsistentControl("visibility", visibility(*b.Private), visibility(private))
	}
	b.Private = &private
	return nil
}

func visibility(private bool) string {
	if private {
		return "private"
	}
	return "public"
}

// SetDeprecated records a deprecation reason.
func (b *Block) SetDeprecated(reason string) error {
	b.pending = true
	if b.Deprecated != "" && b.Deprecated != reason {
		return vimdoc.InconsistentControl("deprecated", b.Deprecated, reason)
	}
	b.Deprecated = reason
	return nil
}

// SetParentSection records the parent of a section block. It is an
// error outside a @section block.
func (b *Block) SetParentSection(parent string) error {
	if b.Type() != vimdoc.Section {
		return vimdoc.MisplacedParentSection(parent)
	}
	b.ParentID = strings.ToLower(parent)
	return nil
}

// SetStylization, SetLibrary, SetOrder, and SetStandalone record the
// plugin-wide controls. Each may be declared at most once per block;
// cross-block duplicates are caught when the plugin consumes them.

func (b *Block) SetStylization(stylization string) error {
	b.pending = true
	if b.hasStylization {
		return vimdoc.RedundantControl("stylized")
	}
	b.Stylization = stylization
	b.hasStylization = true
	return nil
}

func (b *Block) SetLibrary() error {
	b.pending = true
	if b.hasLibrary {
		return vimdoc.RedundantControl("library")
	}
	b.Library = true
	b.hasLibrary = true
	return nil
}

func (b *Block) SetOrder(order []string) error {
	b.pending = true
	if b.hasOrder {
		return vimdoc.RedundantControl("order")
	}
	b.Order = order
	b.hasOrder = true
	return nil
}

func (b *Block) SetStandalone() error {
	b.pending = true
	if b.hasStandalone {
		return vimdoc.RedundantControl("standalone")
	}
	b.Standalone = true
	b.hasStandalone = true
	return nil
}

// HasStylization, HasLibrary, and HasOrder report whether the block
// declared the corresponding plugin-wide control.
func (b *Block) HasStylization() bool { return b.hasStylization }
func (b *Block) HasLibrary() bool     { return b.hasLibrary }
func (b *Block) HasOrder() bool       { return b.hasOrder }

// HasGlobals reports whether the block declares any plugin-wide
// controls. Such blocks may only appear in the introduction section.
func (b *Block) HasGlobals() bool {
	return b.hasStylization || b.hasLibrary || b.hasOrder || b.hasStandalone
}

// GlobalNames lists the plugin-wide controls declared on the block.
func (b *Block) GlobalNames() []string {
	var names []string
	if b.hasStylization {
		names = append(names, "stylized")
	}
	if b.hasLibrary {
		names = append(names, "library")
	}
	if b.hasOrder {
		names = append(names, "order")
	}
	if b.hasStandalone {
		names = append(names, "standalone")
	}
	return names
}

// Header returns the block's usage header, if any.
func (b *Block) Header() *Header { return b.header }

// SetHeader installs a usage header and closes the open paragraph so
// that subsequent prose belongs to the headed usage.
func (b *Block) SetHeader(h *Header) error {
	if b.header != nil {
		return vimdoc.MultipleHeaders()
	}
	b.header = h
	b.Paragraphs.Close()
	return nil
}

// IsSecondary reports whether earlier blocks describe the same
// construct. Secondary blocks carry no tag.
func (b *Block) IsSecondary() bool { return b.secondary }

// IsDefault reports whether the block is a synthesized default that any
// explicit block with the same identity overrides.
func (b *Block) IsDefault() bool { return b.isDefault }

// SetLocation stamps the block's source position; later calls are
// ignored so the position of the first documentation line sticks.
func (b *Block) SetLocation(file string, line int) {
	if b.File == "" {
		b.File = file
		b.Line = line
	}
}

// Located reports whether the block has a source position.
func (b *Block) Located() bool { return b.File != "" }

// CloneLocals copies the construct-local facts into a fresh secondary
// block. Paragraphs, argument mentions, headers, and plugin-wide
// controls stay behind.
func (b *Block) CloneLocals() *Block {
	clone := NewSecondary()
	clone.explicitType = b.explicitType
	clone.inferredType = b.inferredType
	clone.pending = b.pending
	clone.explicitName = b.explicitName
	clone.inferredName = b.inferredName
	clone.Namespace = b.Namespace
	clone.Dict = b.Dict
	clone.Attribute = b.Attribute
	clone.Private = b.Private
	clone.Deprecated = b.Deprecated
	clone.Exception = b.Exception
	clone.Args = b.Args
	clone.Head = b.Head
	clone.ID = b.ID
	clone.ParentID = b.ParentID
	return clone
}

// MakeIntro converts an otherwise unclassified leading block into the
// default introduction section. An explicit intro section overrides it.
func (b *Block) MakeIntro() {
	b.explicitType = vimdoc.Section
	b.explicitName = "Introduction"
	b.ID = "intro"
	b.isDefault = true
}

// AddLine adds one line of documentation text, deciding which paragraph
// it extends. Code blocks are verbatim: newlines are kept and blank
// lines are not special (see `:help help-writing`).
func (b *Block) AddLine(line string) {
	ps := &b.Paragraphs
	if ps.inCode() {
		// '<' exits code blocks.
		if strings.HasPrefix(line, "<") {
			ps.Close()
			line = strings.TrimLeft(line[1:], " \t")
			if line != "" {
				b.AddLine(line)
			}
			return
		}
		// Lines starting in column 0 exit code blocks too.
		if line != "" && line[0] != ' ' && line[0] != '\t' {
			ps.Close()
			b.AddLine(line)
			return
		}
		ps.last().(*CodeBlock).Lines = append(ps.last().(*CodeBlock).Lines, line)
		return
	}
	// Always grab the required/optional argument mentions.
	b.parseArgs(line)
	// Blank lines divide paragraphs.
	if strings.TrimSpace(line) == "" {
		ps.addBlank()
		return
	}
	// A list leader starts a list item.
	if m := pattern.ListItem.FindStringSubmatch(line); m != nil {
		ps.Close()
		item := ps.startList(m[1])
		item.addLine(pattern.ListItem.ReplaceAllString(line, ""))
		return
	}
	if line[0] == ' ' || line[0] == '\t' {
		// Indentation continues a list item.
		if ps.inList() {
			ps.last().(*ListItem).addLine(strings.TrimLeft(line, " \t"))
			return
		}
	} else if ps.inList() {
		ps.Close()
	}
	text := ps.ensureText()
	// A trailing '>' enters a code block. It must be alone or preceded
	// by a space.
	if line == ">" || strings.HasSuffix(line, " >") {
		line = strings.TrimRight(line[:len(line)-1], " \t")
		if line != "" {
			text.addLine(line)
		}
		ps.startCode()
		return
	}
	text.addLine(line)
}

// Default records a @default directive: the value is scanned for
// argument mentions first, since "@default foo=[bar]" implies [bar]
// precedes [foo], and the argument itself is implicitly optional.
func (b *Block) Default(arg, value string) {
	b.pending = true
	b.parseArgs(value)
	arg = strings.TrimSuffix(strings.TrimPrefix(arg, "["), "]")
	if !contains(b.optionalArgs, arg) {
		b.optionalArgs = append(b.optionalArgs, arg)
	}
	b.Paragraphs.addDefault(arg, value)
}

// Throws records a @throws directive.
func (b *Block) Throws(exception, description string) {
	b.pending = true
	b.parseArgs(description)
	b.Paragraphs.addException(exception, description)
}

// AddSubHeader records a @subsection heading.
func (b *Block) AddSubHeader(name string) {
	b.pending = true
	b.Paragraphs.addSubHeader(name)
}

// SetException marks the block as an exception pseudo-function.
func (b *Block) SetException(word string) {
	b.pending = true
	b.Exception = &word
}

func (b *Block) parseArgs(text string) {
	for _, name := range pattern.RequiredMentions(text) {
		if !contains(b.requiredArgs, name) {
			b.requiredArgs = append(b.requiredArgs, name)
		}
	}
	for _, name := range pattern.OptionalMentions(text) {
		if !contains(b.optionalArgs, name) {
			b.optionalArgs = append(b.optionalArgs, name)
		}
	}
}

func contains(list []string, name string) bool {
	for _, x := range list {
		if x == name {
			return true
		}
	}
	return false
}

// Close freezes the block and resolves its usage line. Must be called
// before the block is merged into a module.
func (b *Block) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if b.Type() == vimdoc.Pending && b.Dict != "" {
		if err := b.SetType(vimdoc.Dictionary); err != nil {
			return err
		}
	}
	typ := b.Type()
	if (typ == vimdoc.Function || typ == vimdoc.Command) && b.Exception == nil {
		if b.header == nil {
			// The default usage places required args before optional ones.
			b.header = NewHeader(HeaderUsage, "{]")
		}
		usage, err := b.header.GenerateUsage(b)
		if err != nil {
			return err
		}
		b.Usage = usage
	}
	if b.Private != nil && typ != vimdoc.Function {
		return vimdoc.InvalidBlock("only functions may be marked as private")
	}
	return nil
}

// RequiredArgs resolves the ordered required parameter list. Declaration
// order wins only when the documented names exactly cover the declared
// (non-variadic) names; otherwise the order of first mention wins and
// undocumented declared names are dropped from the usage line.
func (b *Block) RequiredArgs() []string {
	if b.Type() == vimdoc.Function {
		var sig []string
		for _, a := range b.Args {
			if a != "..." {
				sig = append(sig, a)
			}
		}
		if len(b.requiredArgs) == 0 {
			return sig
		}
		if sameSet(b.requiredArgs, sig) {
			return sig
		}
		if len(b.requiredArgs) != len(sig) {
			log.Warn().
				Str("function", b.FullName()).
				Strs("declared", sig).
				Strs("documented", b.requiredArgs).
				Msg("arguments do not match function signature")
		}
	}
	return b.requiredArgs
}

// OptionalArgs resolves the ordered optional parameter list, in order
// of first mention. A function that declares no variadic parameter
// cannot take optional arguments; documented ones are dropped.
func (b *Block) OptionalArgs() []string {
	if b.Type() == vimdoc.Function && len(b.optionalArgs) > 0 && !contains(b.Args, "...") {
		log.Warn().
			Str("function", b.FullName()).
			Strs("documented", b.optionalArgs).
			Msg("documentation claims optional parameters that the function does not accept")
		return nil
	}
	return b.optionalArgs
}

func sameSet(a, b []string) bool {
	if len(setOf(a)) != len(setOf(b)) {
		return false
	}
	bset := setOf(b)
	for _, x := range a {
		if !bset[x] {
			return false
		}
	}
	return true
}

func setOf(list []string) map[string]bool {
	m := make(map[string]bool, len(list))
	for _, x := range list {
		m[x] = true
	}
	return m
}

// mentionedRequired reports whether name is a declared parameter or a
// {name} mention somewhere in the block.
func (b *Block) mentionedRequired(name string) bool {
	for _, a := range b.Args {
		if a != "..." && strings.TrimSuffix(a, "...") == name {
			return true
		}
	}
	return containsArg(b.requiredArgs, name)
}

// mentionedOptional reports whether name is a [name] mention somewhere
// in the block.
func (b *Block) mentionedOptional(name string) bool {
	return containsArg(b.optionalArgs, name)
}

func containsArg(list []string, name string) bool {
	for _, a := range list {
		if strings.TrimSuffix(a, "...") == name {
			return true
		}
	}
	return false
}

// LocalName is the file-local name of the documented construct.
func (b *Block) LocalName() string {
	if b.Type() == vimdoc.Dictionary {
		return b.Dict
	}
	return b.name()
}

// FullName is the global, namespaced-as-necessary name.
func (b *Block) FullName() string {
	switch b.Type() {
	case vimdoc.Function:
		if b.Dict != "" {
			attribute := b.Attribute
			if attribute == "" {
				attribute = b.LocalName()
			}
			return b.Dict + "." + attribute
		}
		if b.Exception != nil {
			word := *b.Exception
			if word == "" {
				word = b.LocalName()
			}
			return "ERROR(" + word + ")"
		}
		return b.Namespace + b.LocalName()
	}
	return b.LocalName()
}

// TagName is the cross-reference tag for the construct, empty for
// secondary blocks.
func (b *Block) TagName() string {
	if b.secondary {
		return ""
	}
	switch b.Type() {
	case vimdoc.Function:
		// Function tags end with (), except for ERROR() tags.
		if b.Exception == nil {
			return b.FullName() + "()"
		}
	case vimdoc.Command:
		return ":" + b.FullName()
	}
	return b.FullName()
}
