// Package parser extracts documentation blocks from vimscript files.
//
// The model mirrors the comment structure: `""` opens a block, `" `
// lines continue it, and the first non-comment line below is the
// block's subject. Several blocks can stack above one declaration
// (overloaded usages); doc lines act on the selected subset while code
// lines act on them all and close them.
package parser

import (
	"strings"

	"github.com/google/vimdoc/internal/block"
	"github.com/google/vimdoc/internal/pattern"
	"github.com/google/vimdoc/internal/vimdoc"
)

// tracker holds the blocks accumulated above the current line and the
// subset that doc lines currently address.
type tracker struct {
	file      string
	line      int
	blocks    []*block.Block
	selection []int
}

func (t *tracker) newBlock() *block.Block {
	b := block.New(vimdoc.Unknown)
	b.SetLocation(t.file, t.line)
	t.blocks = append(t.blocks, b)
	return b
}

// ensureCurrent guarantees at least one block exists and is selected.
func (t *tracker) ensureCurrent() {
	if len(t.blocks) == 0 {
		t.newBlock()
		t.selection = []int{0}
	}
}

func (t *tracker) eachSelected(f func(*block.Block) error) error {
	t.ensureCurrent()
	for _, i := range t.selection {
		if err := f(t.blocks[i]); err != nil {
			return err
		}
	}
	return nil
}

// flush hands over all pending blocks and empties the tracker.
func (t *tracker) flush() []*block.Block {
	done := t.blocks
	t.blocks = nil
	t.selection = nil
	return done
}

// numberedLine is a logical source line after continuation joining,
// numbered by its first physical line.
type numberedLine struct {
	text string
	num  int
}

// joinContinuations strips newlines and folds `\` continuation lines
// into the line they continue, so multi-line declarations are
// recognized as one subject line.
func joinContinuations(lines []string) []numberedLine {
	var joined []numberedLine
	for i, line := range lines {
		line = strings.TrimRight(line, "\r\n")
		if pattern.LineContinuation.MatchString(line) && len(joined) > 0 {
			joined[len(joined)-1].text += pattern.LineContinuation.ReplaceAllString(line, "")
			continue
		}
		joined = append(joined, numberedLine{text: line, num: i + 1})
	}
	return joined
}

// IsComment reports whether a (continuation-joined) line is a
// vimscript comment.
func IsComment(line string) bool {
	return pattern.CommentLeader.MatchString(line)
}

// ContainsMaktabaPluginEnterCall reports whether the vimscript lines
// call maktaba#plugin#Enter, which is what makes a file participate in
// maktaba's implicit flag protocol.
func ContainsMaktabaPluginEnterCall(lines []string) bool {
	for _, ln := range joinContinuations(lines) {
		if !IsComment(ln.text) && strings.Contains(ln.text, "maktaba#plugin#Enter(") {
			return true
		}
	}
	return false
}

// ParseBlocks extracts the closed documentation blocks of one file, in
// order. Errors carry the file and line they were detected at.
func ParseBlocks(filename string, lines []string) ([]*block.Block, error) {
	t := &tracker{file: filename}
	var out []*block.Block

	closeAll := func(done []*block.Block) error {
		for _, b := range done {
			if err := b.Close(); err != nil {
				return vimdoc.At(err, b.File, b.Line)
			}
			out = append(out, b)
		}
		return nil
	}
	affectDoc := func(dl docLine, err error) error {
		if err != nil {
			return vimdoc.At(err, filename, t.line)
		}
		return vimdoc.At(dl.affect(t), filename, t.line)
	}
	affectCode := func(cl codeLine) error {
		done, err := cl.affect(t)
		if err != nil {
			return vimdoc.At(err, filename, t.line)
		}
		return closeAll(done)
	}

	inDoc := false
	for _, ln := range joinContinuations(lines) {
		t.line = ln.num
		switch {
		case pattern.VimdocLeader.MatchString(ln.text):
			if inDoc {
				// A fresh `""` leader ends the blocks above it.
				if err := closeAll(t.flush()); err != nil {
					return nil, err
				}
			}
			inDoc = true
			t.ensureCurrent()
			if !pattern.EmptyVimdocLeader.MatchString(ln.text) {
				// Content on the opening line is an ordinary doc line.
				content := pattern.VimdocLeader.ReplaceAllString(ln.text, "")
				if err := affectDoc(parseCommentLine(`" ` + content)); err != nil {
					return nil, err
				}
			}
		case inDoc && IsComment(ln.text):
			if err := affectDoc(parseCommentLine(ln.text)); err != nil {
				return nil, err
			}
		default:
			inDoc = false
			if err := affectCode(parseCodeLine(ln.text)); err != nil {
				return nil, err
			}
		}
	}
	if err := affectCode(endOfFile{}); err != nil {
		return nil, err
	}
	return out, nil
}
