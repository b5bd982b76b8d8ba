package parser

import (
	"strings"

	"github.com/google/vimdoc/internal/block"
	"github.com/google/vimdoc/internal/pattern"
	"github.com/google/vimdoc/internal/vimdoc"
)

// docLine is one line of documentation: prose text or a block
// directive. Doc lines act on the selected blocks only; the selection
// machinery is what lets @usage overloads and @all address different
// subsets of the blocks stacked above one declaration.
type docLine interface {
	affect(t *tracker) error
}

// textLine is plain prose.
type textLine struct {
	text string
}

func (l textLine) affect(t *tracker) error {
	return t.eachSelected(func(b *block.Block) error {
		b.AddLine(l.text)
		return nil
	})
}

// updateLine is a directive that decorates each selected block.
type updateLine struct {
	f func(*block.Block) error
}

func (l updateLine) affect(t *tracker) error {
	return t.eachSelected(l.f)
}

// allLine is the @all directive: it widens the selection to every block
// so that the shared tail below it lands in each overload.
type allLine struct{}

func (allLine) affect(t *tracker) error {
	t.ensureCurrent()
	t.selection = t.selection[:0]
	for i, b := range t.blocks {
		t.selection = append(t.selection, i)
		b.Claim()
	}
	return nil
}

// headerLine is a @usage, @function, or @command directive. If the
// current block already has a header (or several blocks exist), a fresh
// block is spawned for this header, inheriting the construct-local
// facts of the first block; the new block is secondary, so only the
// first one carries the tag.
type headerLine struct {
	header *block.Header
	update func(*block.Block) error
}

func (l headerLine) affect(t *tracker) error {
	if len(t.blocks) != 1 || t.blocks[0].Header() != nil {
		var nb *block.Block
		if len(t.blocks) > 0 && t.blocks[0].Header() == nil {
			nb = t.blocks[0].CloneLocals()
		} else if len(t.blocks) > 0 {
			nb = block.NewSecondary()
		} else {
			nb = block.New(vimdoc.Unknown)
		}
		nb.SetLocation(t.file, t.line)
		t.blocks = append(t.blocks, nb)
		t.selection = []int{len(t.blocks) - 1}
	}
	return t.eachSelected(func(b *block.Block) error {
		if err := b.SetHeader(l.header); err != nil {
			return err
		}
		if l.update != nil {
			return l.update(b)
		}
		return nil
	})
}

type directiveParser func(args string) (docLine, error)

// blockDirectives maps directive names to their argument parsers. The
// table is the complete block-level vocabulary; anything else on a
// `" @name` line is an unrecognized-directive error.
var blockDirectives map[string]directiveParser

func init() {
	blockDirectives = map[string]directiveParser{
		"all":           parseAll,
		"author":        rejectMetadata("author"),
		"backmatter":    parseBackmatter,
		"command":       parseCommandHeader,
		"default":       parseDefault,
		"deprecated":    parseDeprecated,
		"dict":          parseDict,
		"exception":     parseException,
		"function":      parseFunctionHeader,
		"library":       parseLibrary,
		"order":         parseOrder,
		"parentsection": parseParentSection,
		"private":       parsePrivate,
		"public":        parsePublic,
		"section":       parseSection,
		"setting":       parseSetting,
		"standalone":    parseStandalone,
		"stylized":      parseStylized,
		"subsection":    parseSubSection,
		"tagline":       rejectMetadata("tagline"),
		"throws":        parseThrows,
		"usage":         parseUsage,
	}
}

func noArgs(directive, args string) error {
	if strings.TrimSpace(args) != "" {
		return vimdoc.InvalidBlockArgs(directive, args)
	}
	return nil
}

func parseAll(args string) (docLine, error) {
	if err := noArgs("all", args); err != nil {
		return nil, err
	}
	return allLine{}, nil
}

// rejectMetadata refuses the directives whose data moved into
// addon-info.json.
func rejectMetadata(name string) directiveParser {
	return func(string) (docLine, error) {
		return nil, vimdoc.InvalidBlock(
			"the @" + name + " directive is no longer supported;" +
				" set the " + name + " field in addon-info.json instead")
	}
}

func parseBackmatter(args string) (docLine, error) {
	m := pattern.BackmatterArgs.FindStringSubmatch(args)
	if m == nil {
		return nil, vimdoc.InvalidBlockArgs("backmatter", args)
	}
	id := m[1]
	return updateLine{func(b *block.Block) error {
		if err := b.SetType(vimdoc.Backmatter); err != nil {
			return err
		}
		b.ID = id
		return nil
	}}, nil
}

func parseCommandHeader(args string) (docLine, error) {
	return headerLine{
		header: block.NewHeader(block.HeaderCommand, args),
		update: func(b *block.Block) error {
			return b.SetType(vimdoc.Command)
		},
	}, nil
}

func parseFunctionHeader(args string) (docLine, error) {
	return headerLine{
		header: block.NewHeader(block.HeaderFunction, args),
		update: func(b *block.Block) error {
			return b.SetType(vimdoc.Function)
		},
	}, nil
}

func parseUsage(args string) (docLine, error) {
	if !pattern.UsageArgs.MatchString(args) {
		return nil, vimdoc.InvalidBlockArgs("usage", args)
	}
	return headerLine{header: block.NewHeader(block.HeaderUsage, args)}, nil
}

func parseDefault(args string) (docLine, error) {
	m := pattern.DefaultArgs.FindStringSubmatch(args)
	if m == nil {
		return nil, vimdoc.InvalidBlockArgs("default", args)
	}
	arg, value := m[1], m[2]
	return updateLine{func(b *block.Block) error {
		b.Default(arg, value)
		return nil
	}}, nil
}

func parseDeprecated(args string) (docLine, error) {
	if args == "" {
		return nil, vimdoc.InvalidBlockArgs("deprecated", args)
	}
	return updateLine{func(b *block.Block) error {
		return b.SetDeprecated(args)
	}}, nil
}

func parseDict(args string) (docLine, error) {
	m := pattern.DictArgs.FindStringSubmatch(args)
	if m == nil {
		return nil, vimdoc.InvalidBlockArgs("dict", args)
	}
	name, attribute := m[1], m[2]
	return updateLine{func(b *block.Block) error {
		// The block is not typed as a dictionary yet. A dict.attribute
		// form makes it a function; a bare dict name stays pending until
		// Close, when a function declaration below may still claim it.
		b.Claim()
		b.Dict = name
		if attribute != "" {
			if err := b.SetType(vimdoc.Function); err != nil {
				return err
			}
			b.Attribute = attribute
		}
		return nil
	}}, nil
}

func parseException(args string) (docLine, error) {
	m := pattern.MaybeWord.FindStringSubmatch(args)
	if m == nil {
		return nil, vimdoc.InvalidBlockArgs("exception", args)
	}
	word := m[1]
	return updateLine{func(b *block.Block) error {
		b.SetException(word)
		return nil
	}}, nil
}

func parseLibrary(args string) (docLine, error) {
	if err := noArgs("library", args); err != nil {
		return nil, err
	}
	return updateLine{(*block.Block).SetLibrary}, nil
}

func parseOrder(args string) (docLine, error) {
	if !pattern.OrderArgs.MatchString(args) {
		return nil, vimdoc.InvalidBlockArgs("order", args)
	}
	order := pattern.OrderArg.FindAllString(args, -1)
	return updateLine{func(b *block.Block) error {
		return b.SetOrder(order)
	}}, nil
}

func parseParentSection(args string) (docLine, error) {
	m := pattern.ParentSectionArgs.FindStringSubmatch(args)
	if m == nil {
		return nil, vimdoc.InvalidBlockArgs("parentsection", args)
	}
	parent := m[1]
	return updateLine{func(b *block.Block) error {
		return b.SetParentSection(parent)
	}}, nil
}

func parsePrivate(args string) (docLine, error) {
	if err := noArgs("private", args); err != nil {
		return nil, err
	}
	return updateLine{func(b *block.Block) error {
		return b.SetVisibility(true)
	}}, nil
}

func parsePublic(args string) (docLine, error) {
	if err := noArgs("public", args); err != nil {
		return nil, err
	}
	return updateLine{func(b *block.Block) error {
		return b.SetVisibility(false)
	}}, nil
}

func parseSection(args string) (docLine, error) {
	m := pattern.SectionArgs.FindStringSubmatch(args)
	if m == nil {
		return nil, vimdoc.InvalidBlockArgs("section", args)
	}
	name := strings.NewReplacer(`\,`, ",", `\\`, `\`).Replace(m[1])
	id := m[2]
	if id == "" {
		// Defaults to the name in lowercase with spaces dashed.
		id = strings.ReplaceAll(strings.ToLower(name), " ", "-")
	}
	return updateLine{func(b *block.Block) error {
		if err := b.SetType(vimdoc.Section); err != nil {
			return err
		}
		if err := b.SetName(name); err != nil {
			return err
		}
		b.ID = id
		return nil
	}}, nil
}

func parseSetting(args string) (docLine, error) {
	if args == "" || len(strings.Fields(args)) != 1 {
		return nil, vimdoc.InvalidBlockArgs("setting", args)
	}
	name := args
	// Unscoped names are global settings.
	if !pattern.SettingScope.MatchString(name) {
		name = "g:" + name
	}
	return updateLine{func(b *block.Block) error {
		if err := b.SetType(vimdoc.Setting); err != nil {
			return err
		}
		return b.SetName(name)
	}}, nil
}

func parseStandalone(args string) (docLine, error) {
	if err := noArgs("standalone", args); err != nil {
		return nil, err
	}
	return updateLine{(*block.Block).SetStandalone}, nil
}

func parseStylized(args string) (docLine, error) {
	m := pattern.StylizingArgs.FindStringSubmatch(args)
	if m == nil {
		return nil, vimdoc.InvalidBlockArgs("stylized", args)
	}
	stylization := m[1]
	return updateLine{func(b *block.Block) error {
		return b.SetStylization(stylization)
	}}, nil
}

func parseSubSection(args string) (docLine, error) {
	if args == "" {
		return nil, vimdoc.InvalidBlockArgs("subsection", args)
	}
	return updateLine{func(b *block.Block) error {
		b.AddSubHeader(args)
		return nil
	}}, nil
}

func parseThrows(args string) (docLine, error) {
	m := pattern.ThrowArgs.FindStringSubmatch(args)
	if m == nil {
		return nil, vimdoc.InvalidBlockArgs("throws", args)
	}
	exception, description := m[1], m[2]
	// Anything but a stock vim error code is wrapped in ERROR().
	if !pattern.VimError.MatchString(exception) {
		exception = "ERROR(" + exception + ")"
	}
	return updateLine{func(b *block.Block) error {
		b.Throws(exception, description)
		return nil
	}}, nil
}

// parseCommentLine turns one raw comment line into a doc line. Lines of
// the form `" @name args` are block directives; everything else is
// prose with the comment leader stripped.
func parseCommentLine(line string) (docLine, error) {
	if m := pattern.BlockDirective.FindStringSubmatch(line); m != nil {
		name, rest := m[1], m[2]
		parse, ok := blockDirectives[name]
		if !ok {
			return nil, vimdoc.UnrecognizedBlockDirective(name)
		}
		return parse(rest)
	}
	return textLine{pattern.CommentLeader.ReplaceAllString(line, "")}, nil
}
