// Package output renders documentation modules as vim help files.
//
// Layout compatibility matters here: column widths, tag alignment, and
// section numbering are part of the output contract, so all width
// arithmetic lives in this package and nowhere else.
package output

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rivo/uniseg"
	"github.com/spf13/afero"

	"github.com/google/vimdoc/internal/block"
	"github.com/google/vimdoc/internal/module"
	"github.com/google/vimdoc/internal/pattern"
	"github.com/google/vimdoc/internal/vimdoc"
)

const (
	// Width is the helpfile line width, also advertised in the footer
	// modeline.
	Width = 78
	tab   = "  "
)

// Helpfile renders one module. Rendering goes to an in-memory buffer;
// the file is only written when the whole module rendered cleanly, so a
// failed compile leaves no partial output behind.
type Helpfile struct {
	module *module.Module
	fs     afero.Fs
	docdir string
	buf    strings.Builder
}

// NewHelpfile returns a renderer for the module, writing under docdir.
func NewHelpfile(m *module.Module, fs afero.Fs, docdir string) *Helpfile {
	return &Helpfile{module: m, fs: fs, docdir: docdir}
}

// Filename is the helpfile name: the module name with '#' flattened to
// '-', plus the .txt extension.
func (h *Helpfile) Filename() string {
	return strings.ReplaceAll(h.module.Name, "#", "-") + ".txt"
}

// Write renders the module and writes the helpfile with POSIX line
// endings.
func (h *Helpfile) Write() error {
	content, err := h.Render()
	if err != nil {
		return err
	}
	path := filepath.Join(h.docdir, h.Filename())
	return afero.WriteFile(h.fs, path, []byte(content), 0o644)
}

// Render produces the complete helpfile text.
func (h *Helpfile) Render() (string, error) {
	h.buf.Reset()
	h.writeHeader()
	h.writeTableOfContents()
	for _, chunk := range h.module.Chunks() {
		if err := h.writeChunk(chunk); err != nil {
			return "", vimdoc.At(err, chunk.File, chunk.Line)
		}
	}
	h.writeFooter()
	return h.buf.String(), nil
}

func (h *Helpfile) print(line string) {
	h.buf.WriteString(line)
	h.buf.WriteByte('\n')
}

func (h *Helpfile) writeRow() {
	h.print(strings.Repeat("=", Width))
}

// lineOpts controls writeLine. leader, when non-nil, is prepended to
// the first line while continuation lines indent one extra stop.
type lineOpts struct {
	right  string
	indent int
	leader *string
	fill   string
}

// writeLine emits one logical line, wrapping as needed and placing the
// right-hand text flush against the right margin, on its own line if
// the text leaves no room for it.
func (h *Helpfile) writeLine(text string, opts lineOpts) {
	initial := strings.Repeat(tab, opts.indent)
	subsequent := initial
	if opts.leader != nil {
		initial += *opts.leader
		subsequent = strings.Repeat(tab, opts.indent+1)
	}
	lines := wrap(text, Width, initial, subsequent)
	if len(lines) == 0 {
		lines = []string{""}
	}
	if opts.right != "" {
		fill := opts.fill
		if fill == "" {
			fill = " "
		}
		lastlen := uniseg.StringWidth(lines[len(lines)-1])
		rightlen := uniseg.StringWidth(opts.right)
		if lastlen+rightlen+1 > Width {
			lines = append(lines, "")
			lastlen = 0
		}
		padding := Width - lastlen - rightlen
		if padding < 0 {
			// The tag alone can be wider than the margin.
			padding = 0
		}
		lines[len(lines)-1] += strings.Repeat(fill, padding) + opts.right
	}
	for _, line := range lines {
		h.print(line)
	}
}

func (h *Helpfile) blankLine() {
	h.writeLine("", lineOpts{})
}

func (h *Helpfile) slug(id, sep string) string {
	return h.module.Name + sep + id
}

func tag(slug string) string {
	if slug == "" {
		return ""
	}
	return "*" + slug + "*"
}

func link(slug string) string {
	return "|" + slug + "|"
}

// writeHeader writes the `:help write-local-help` header: the filename
// tag and tagline on line one (untouched by wrapping, tabs and all),
// then the author line carrying the stylized-name and module tags.
func (h *Helpfile) writeHeader() {
	plugin := h.module.Plugin
	line := tag(h.Filename())
	if plugin.Tagline != "" {
		line += "\t" + plugin.Tagline
	}
	h.print(line)
	right := tag(h.module.Name)
	if plugin.Stylization != "" {
		right = tag(plugin.Stylization) + " " + right
	}
	h.writeLine(plugin.Author, lineOpts{right: right})
	h.blankLine()
}

func (h *Helpfile) writeTableOfContents() {
	h.writeRow()
	h.writeLine("CONTENTS", lineOpts{right: tag(h.slug("contents", "-"))})
	// Numbering restarts per nesting level.
	type counter struct{ level, index int }
	count := []counter{{0, 0}}
	for _, section := range h.module.Sections() {
		level := section.Level
		for level < count[len(count)-1].level {
			count = count[:len(count)-1]
		}
		if level == count[len(count)-1].level {
			count[len(count)-1].index++
		} else {
			count = append(count, counter{level: level, index: 1})
		}
		h.writeLine(
			fmt.Sprintf("%d. %s", count[len(count)-1].index, section.LocalName()),
			lineOpts{
				indent: 2*level + 1,
				right:  link(h.slug(section.ID, "-")),
				fill:   ".",
			})
	}
	h.blankLine()
}

func (h *Helpfile) writeChunk(chunk *block.Block) error {
	switch chunk.Type() {
	case vimdoc.Section:
		return h.writeSection(chunk)
	case vimdoc.Function:
		if chunk.Exception != nil {
			return h.writeSmallBlock(chunk.FullName(), chunk)
		}
		return h.writeLargeBlock(chunk)
	case vimdoc.Command:
		return h.writeLargeBlock(chunk)
	case vimdoc.Setting:
		return h.writeSmallBlock(chunk.FullName(), chunk)
	case vimdoc.Flag:
		return h.writeSmallBlock(h.slug(chunk.FullName(), ":"), chunk)
	case vimdoc.Dictionary:
		return h.writeSmallBlock(h.slug(chunk.FullName(), "."), chunk)
	case vimdoc.Backmatter:
		return h.writeParagraphs(chunk, 0)
	}
	return nil
}

func (h *Helpfile) writeSection(b *block.Block) error {
	h.writeRow()
	h.writeLine(strings.ToUpper(b.LocalName()),
		lineOpts{right: tag(h.slug(b.ID, "-"))})
	if !b.Paragraphs.Empty() {
		h.blankLine()
	}
	return h.writeParagraphs(b, 0)
}

// writeLargeBlock writes a function or command: the usage line with the
// tag at the right margin, then the indented description.
func (h *Helpfile) writeLargeBlock(b *block.Block) error {
	leader := ""
	h.writeLine(b.Usage, lineOpts{right: tag(b.TagName()), leader: &leader})
	return h.writeParagraphs(b, 1)
}

func (h *Helpfile) writeSmallBlock(slug string, b *block.Block) error {
	h.writeLine("", lineOpts{right: tag(slug)})
	return h.writeParagraphs(b, 0)
}

func (h *Helpfile) writeFooter() {
	h.blankLine()
	h.print(fmt.Sprintf("vim:tw=%d:ts=8:ft=help:norl:", Width))
}

func (h *Helpfile) writeParagraphs(b *block.Block, indent int) error {
	for _, p := range b.Paragraphs.Items() {
		if err := h.writeParagraph(p, b.Namespace, indent); err != nil {
			return err
		}
	}
	h.blankLine()
	return nil
}

func (h *Helpfile) writeParagraph(p block.Paragraph, namespace string, indent int) error {
	switch p := p.(type) {
	case *block.ListItem:
		var leader string
		switch p.Leader {
		case "-":
			// '-' indents lines after the first.
			leader = ""
		case "+":
			// '+' indents the whole paragraph.
			leader = "  "
		default:
			// Other leaders (*, 1., etc.) appear verbatim, indented one
			// shiftwidth.
			leader = p.Leader + " "
			indent++
		}
		text, err := h.expand(p.Text, namespace)
		if err != nil {
			return err
		}
		h.writeLine(text, lineOpts{indent: indent, leader: &leader})
	case *block.TextParagraph:
		text, err := h.expand(p.Text, namespace)
		if err != nil {
			return err
		}
		h.writeLine(text, lineOpts{indent: indent})
	case *block.BlankLine:
		h.blankLine()
	case *block.CodeBlock:
		h.writeLine(">", lineOpts{})
		for _, line := range p.Lines {
			if err := h.writeCodeLine(line, namespace, indent); err != nil {
				return err
			}
		}
		h.writeLine("<", lineOpts{})
	case *block.DefaultLine:
		value, err := h.expand(p.Value, namespace)
		if err != nil {
			return err
		}
		h.writeLine("["+p.Arg+"] is "+value+" if omitted.", lineOpts{indent: indent})
	case *block.ExceptionLine:
		description, err := h.expand(p.Description, namespace)
		if err != nil {
			return err
		}
		h.writeLine("Throws "+p.Exception+" "+description, lineOpts{indent: indent})
	case *block.SubHeaderLine:
		h.writeLine(strings.ToUpper(p.Name), lineOpts{indent: indent})
	}
	return nil
}

func (h *Helpfile) writeCodeLine(text, namespace string, indent int) error {
	expanded, err := h.expand(text, namespace)
	if err != nil {
		return err
	}
	lines := wrap(expanded, Width,
		strings.Repeat(tab, indent), strings.Repeat(tab, indent+2))
	if len(lines) == 0 {
		lines = []string{""}
	}
	for _, line := range lines {
		h.print(line)
	}
	return nil
}

// expand substitutes inline directives in prose. Unrecognized directive
// names stay verbatim, since @word shows up in ordinary text (email
// addresses, code samples); references to known kinds must resolve.
func (h *Helpfile) expand(text, namespace string) (string, error) {
	matches := pattern.InlineDirective.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return text, nil
	}
	var sb strings.Builder
	last := 0
	for _, m := range matches {
		name := text[m[2]:m[3]]
		arg := ""
		hasArg := m[4] >= 0
		if hasArg {
			arg = text[m[4]:m[5]]
		}
		expanded, ok, err := h.expandInline(name, arg, hasArg, namespace)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		sb.WriteString(text[last:m[0]])
		sb.WriteString(expanded)
		last = m[1]
	}
	sb.WriteString(text[last:])
	return sb.String(), nil
}

func (h *Helpfile) expandInline(name, arg string, hasArg bool, namespace string) (string, bool, error) {
	switch name {
	case "section":
		if !h.module.HasSection(arg) {
			return "", false, vimdoc.UnresolvedReference(vimdoc.Section, arg)
		}
		return link(h.slug(arg, "-")), true, nil
	case "function":
		// @function(#Foo) points at Foo in the current file's namespace.
		if strings.HasPrefix(arg, "#") {
			arg = namespace + arg[1:]
		}
		t, err := h.module.LookupTag(vimdoc.Function, arg)
		if err != nil {
			return "", false, err
		}
		return link(t), true, nil
	case "command":
		t, err := h.module.LookupTag(vimdoc.Command, arg)
		if err != nil {
			return "", false, err
		}
		return link(t), true, nil
	case "setting":
		t, err := h.module.LookupTag(vimdoc.Setting, arg)
		if err != nil {
			return "", false, err
		}
		return link(t), true, nil
	case "flag":
		t, err := h.module.LookupTag(vimdoc.Flag, arg)
		if err != nil {
			return "", false, err
		}
		return link(h.slug(t, ":")), true, nil
	case "dict":
		t, err := h.module.LookupTag(vimdoc.Dictionary, arg)
		if err != nil {
			return "", false, err
		}
		return link(h.slug(t, ".")), true, nil
	case "plugin":
		switch {
		case !hasArg, arg == "stylized":
			return h.module.Plugin.StylizedName(), true, nil
		case arg == "name":
			return h.module.Name, true, nil
		case arg == "author":
			return h.module.Plugin.Author, true, nil
		}
		return "", false, vimdoc.UnrecognizedInlineDirective(
			arg + " attribute in plugin")
	}
	// Possibly a false positive, leave it alone.
	return "", false, nil
}
