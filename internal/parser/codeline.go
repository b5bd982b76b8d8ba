package parser

import (
	"strings"

	"github.com/google/vimdoc/internal/block"
	"github.com/google/vimdoc/internal/pattern"
	"github.com/google/vimdoc/internal/vimdoc"
)

// codeLine is a line of vimscript that affects the documentation blocks
// above it. The declaration below a comment block decorates it: the
// block above a function line picks up type FUNCTION, its name, and its
// signature.
type codeLine interface {
	// affect updates the blocks above the code line and returns the ones
	// ready to be closed. Code lines act on all pending blocks, not just
	// the selected ones, and leave the tracker empty; a declaration ends
	// every block stacked above it.
	affect(t *tracker) ([]*block.Block, error)
}

// update applies one decoration to every pending block and flushes.
func update(t *tracker, f func(*block.Block) error) ([]*block.Block, error) {
	if f != nil {
		for _, b := range t.blocks {
			if err := f(b); err != nil {
				return nil, err
			}
		}
	}
	return t.flush(), nil
}

// blankLine closes the blocks above it without decorating them.
type blankLine struct{}

func (blankLine) affect(t *tracker) ([]*block.Block, error) {
	return update(t, nil)
}

// endOfFile closes any blocks left open at the bottom of the file.
type endOfFile struct{}

func (endOfFile) affect(t *tracker) ([]*block.Block, error) {
	return update(t, nil)
}

// unrecognizedLine is a code line that deserves no documentation.
// Blocks above it are dropped.
type unrecognizedLine struct{}

func (unrecognizedLine) affect(t *tracker) ([]*block.Block, error) {
	t.blocks = nil
	t.selection = nil
	return nil, nil
}

// functionLine is a function declaration.
type functionLine struct {
	name      string
	namespace string
	args      []string
}

func (l functionLine) affect(t *tracker) ([]*block.Block, error) {
	return update(t, func(b *block.Block) error {
		// An explicit directive declaring a different kind wins over the
		// declaration heuristic.
		if b.Overridden(vimdoc.Function) {
			return nil
		}
		if err := b.InferType(vimdoc.Function); err != nil {
			return err
		}
		if err := b.InferName(l.name); err != nil {
			return err
		}
		b.Namespace = l.namespace
		b.Args = l.args
		return nil
	})
}

// commandLine is a command declaration. The head is the invocation
// prefix built from the command's flags, with a hole for the name, like
// "[range]<>[!]".
type commandLine struct {
	name string
	head string
}

func (l commandLine) affect(t *tracker) ([]*block.Block, error) {
	return update(t, func(b *block.Block) error {
		if b.Overridden(vimdoc.Command) {
			return nil
		}
		if err := b.InferType(vimdoc.Command); err != nil {
			return err
		}
		if err := b.InferName(l.name); err != nil {
			return err
		}
		b.Head = l.head
		return nil
	})
}

// settingLine is a global or buffer-local variable assignment.
type settingLine struct {
	name string
}

func (l settingLine) affect(t *tracker) ([]*block.Block, error) {
	return update(t, func(b *block.Block) error {
		if b.Overridden(vimdoc.Setting) {
			return nil
		}
		if err := b.InferType(vimdoc.Setting); err != nil {
			return err
		}
		return b.InferName(l.name)
	})
}

// flagLine is a maktaba flag registration call.
type flagLine struct {
	name string
	// deflt is the default value expression, empty when it could not be
	// recognized (deeply nested parentheses, multi-line values).
	deflt string
}

func (l flagLine) affect(t *tracker) ([]*block.Block, error) {
	if l.deflt != "" {
		// Show the default on its own line. The backtick keeps helpfile
		// syntax highlighting away from the expression.
		t.ensureCurrent()
		t.blocks[len(t.blocks)-1].AddLine(" - Default: " + l.deflt + " `")
	}
	return update(t, func(b *block.Block) error {
		if b.Overridden(vimdoc.Flag) {
			return nil
		}
		if err := b.InferType(vimdoc.Flag); err != nil {
			return err
		}
		return b.InferName(l.name)
	})
}

// parseCodeLine recognizes one line of vimscript.
func parseCodeLine(line string) codeLine {
	if pattern.BlankCodeLine.MatchString(line) {
		return blankLine{}
	}
	if m := pattern.FunctionLine.FindStringSubmatch(line); m != nil {
		return functionLine{
			name:      m[2],
			namespace: m[1],
			args:      pattern.FunctionArg.FindAllString(m[3], -1),
		}
	}
	if m := pattern.CommandLine.FindStringSubmatch(line); m != nil {
		return commandLine{name: m[2], head: commandHead(m[1])}
	}
	if m := pattern.SettingLine.FindStringSubmatch(line); m != nil {
		return settingLine{name: m[1] + ":" + m[2]}
	}
	if m := pattern.FlagLine.FindStringSubmatch(line); m != nil {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		return flagLine{name: name, deflt: m[3]}
	}
	return unrecognizedLine{}
}

// commandHead renders the invocation prefix for a command's flag text,
// like "[range][count]["x][N]<>[!]".
func commandHead(flags string) string {
	head := ""
	if containsFlag(flags, "-range") {
		head += "[range]"
	}
	if containsFlag(flags, "-count") {
		head += "[count]"
	}
	if containsFlag(flags, "-register") {
		head += `["x]`
	}
	if containsFlag(flags, "-buffer") {
		head += "[N]"
	}
	head += "<>"
	if containsFlag(flags, "-bang") {
		head += "[!]"
	}
	return head
}

func containsFlag(flags, flag string) bool {
	return strings.Contains(flags, flag)
}
