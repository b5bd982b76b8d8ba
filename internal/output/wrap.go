package output

import (
	"strings"

	"github.com/rivo/uniseg"
)

// wrap reflows text into lines no wider than width display columns,
// with separate indents for the first and subsequent lines. Words are
// whitespace-delimited; a word too long for a whole line is broken at
// the column boundary. Empty text wraps to no lines.
//
// Widths are measured in display columns rather than bytes so that
// plugins documented in wide scripts still align.
func wrap(text string, width int, initialIndent, subsequentIndent string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	cur := initialIndent
	empty := true
	flush := func() {
		lines = append(lines, cur)
		cur = subsequentIndent
		empty = true
	}
	for _, word := range words {
		avail := width - uniseg.StringWidth(cur)
		if !empty {
			avail--
		}
		w := uniseg.StringWidth(word)
		if w <= avail {
			if !empty {
				cur += " "
			}
			cur += word
			empty = false
			continue
		}
		if !empty {
			flush()
		}
		// Break words that cannot fit on a line of their own.
		for uniseg.StringWidth(cur)+uniseg.StringWidth(word) > width {
			head, tail := splitAtWidth(word, width-uniseg.StringWidth(cur))
			if head == "" {
				break
			}
			cur += head
			flush()
			word = tail
		}
		if word != "" {
			cur += word
			empty = false
		}
	}
	if !empty {
		flush()
	}
	return lines
}

// splitAtWidth splits s at the last grapheme boundary that fits in the
// given number of display columns.
func splitAtWidth(s string, columns int) (head, tail string) {
	if columns <= 0 {
		return "", s
	}
	taken := 0
	g := uniseg.NewGraphemes(s)
	end := 0
	for g.Next() {
		w := g.Width()
		if taken+w > columns {
			break
		}
		taken += w
		_, end = g.Positions()
	}
	return s[:end], s[end:]
}
