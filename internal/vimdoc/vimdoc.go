// Package vimdoc holds the block-kind vocabulary and the error taxonomy
// shared by the parser, the module builder, and the renderer.
package vimdoc

// Version is the tool version reported by the CLI.
const Version = "1.0.0"

// BlockType identifies what kind of construct a documentation block
// describes.
type BlockType string

const (
	// Unknown means the block has not been claimed by vimdoc at all.
	Unknown BlockType = ""
	// Pending means the block is definitely vimdoc documentation but its
	// concrete kind has not been determined yet.
	Pending BlockType = "PENDING"

	Section    BlockType = "SECTION"
	Backmatter BlockType = "BACKMATTER"
	Exception  BlockType = "EXCEPTION"
	Dictionary BlockType = "DICTIONARY"
	Function   BlockType = "FUNCTION"
	Command    BlockType = "COMMAND"
	Setting    BlockType = "SETTING"
	Flag       BlockType = "FLAG"
)

// Concrete reports whether t names an actual block kind rather than one
// of the two placeholder states.
func (t BlockType) Concrete() bool {
	return t != Unknown && t != Pending
}
