package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.Nil(t, wrap("", 78, "", ""))
		assert.Nil(t, wrap("   ", 78, "", ""))
	})

	t.Run("FitsOneLine", func(t *testing.T) {
		assert.Equal(t, []string{"a b c"}, wrap("a b c", 5, "", ""))
	})

	t.Run("GreedyBreaks", func(t *testing.T) {
		assert.Equal(t,
			[]string{"aaa bbb", "ccc"},
			wrap("aaa bbb ccc", 7, "", ""))
	})

	t.Run("Indents", func(t *testing.T) {
		assert.Equal(t,
			[]string{"* one", "  two", "  three"},
			wrap("one two three", 8, "* ", "  "))
	})

	t.Run("LongWordHardBreak", func(t *testing.T) {
		assert.Equal(t,
			[]string{"abcd", "efgh", "ij"},
			wrap("abcdefghij", 4, "", ""))
	})

	t.Run("CollapsesInteriorWhitespace", func(t *testing.T) {
		assert.Equal(t, []string{"a b"}, wrap("a   b", 10, "", ""))
	})
}
