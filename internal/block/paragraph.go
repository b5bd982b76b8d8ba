package block

// Paragraph is one typed run of documentation content. Paragraph
// boundaries matter because text is reflowed at render time: plain text
// joins into one wrappable unit while list items, code blocks, and the
// single-line kinds keep their own layout.
type Paragraph interface {
	open() bool
	close()
}

// TextParagraph is reflowable prose. Lines are joined with single
// spaces as they arrive.
type TextParagraph struct {
	Text   string
	closed bool
}

func (p *TextParagraph) open() bool { return !p.closed }
func (p *TextParagraph) close()     { p.closed = true }

func (p *TextParagraph) addLine(text string) {
	if p.Text == "" {
		p.Text = text
	} else {
		p.Text += " " + text
	}
}

// BlankLine separates paragraphs in the output.
type BlankLine struct{}

func (p *BlankLine) open() bool { return false }
func (p *BlankLine) close()     {}

// CodeBlock holds verbatim lines between `>` and `<` markers.
type CodeBlock struct {
	Lines  []string
	closed bool
}

func (p *CodeBlock) open() bool { return !p.closed }
func (p *CodeBlock) close()     { p.closed = true }

// ListItem is a text paragraph with a list leader. The leader decides
// indentation at render time.
type ListItem struct {
	TextParagraph
	Leader string
}

// DefaultLine documents the fallback value of an optional argument.
type DefaultLine struct {
	Arg   string
	Value string
}

func (p *DefaultLine) open() bool { return false }
func (p *DefaultLine) close()     {}

// ExceptionLine documents an error the construct can throw.
type ExceptionLine struct {
	Exception   string
	Description string
}

func (p *ExceptionLine) open() bool { return false }
func (p *ExceptionLine) close()     {}

// SubHeaderLine is an uppercased in-section heading.
type SubHeaderLine struct {
	Name string
}

func (p *SubHeaderLine) open() bool { return false }
func (p *SubHeaderLine) close()     {}

// Paragraphs accumulates typed paragraphs, deciding per line whether to
// extend the open paragraph or start a new one.
type Paragraphs struct {
	items []Paragraph
}

// Items returns the accumulated paragraphs in order.
func (ps *Paragraphs) Items() []Paragraph { return ps.items }

// Empty reports whether no paragraph has been added.
func (ps *Paragraphs) Empty() bool { return len(ps.items) == 0 }

// Close closes the trailing paragraph, if there is one.
func (ps *Paragraphs) Close() {
	if n := len(ps.items); n > 0 {
		ps.items[n-1].close()
	}
}

func (ps *Paragraphs) last() Paragraph {
	if n := len(ps.items); n > 0 && ps.items[n-1].open() {
		return ps.items[n-1]
	}
	return nil
}

func (ps *Paragraphs) inCode() bool {
	_, ok := ps.last().(*CodeBlock)
	return ok
}

func (ps *Paragraphs) inList() bool {
	_, ok := ps.last().(*ListItem)
	return ok
}

func (ps *Paragraphs) ensureText() *TextParagraph {
	if p, ok := ps.last().(*TextParagraph); ok {
		return p
	}
	p := &TextParagraph{}
	ps.items = append(ps.items, p)
	return p
}

func (ps *Paragraphs) startCode() *CodeBlock {
	if p, ok := ps.last().(*CodeBlock); ok {
		return p
	}
	p := &CodeBlock{}
	ps.items = append(ps.items, p)
	return p
}

func (ps *Paragraphs) startList(leader string) *ListItem {
	p := &ListItem{Leader: leader}
	ps.items = append(ps.items, p)
	return p
}

func (ps *Paragraphs) addBlank() {
	ps.items = append(ps.items, &BlankLine{})
}

func (ps *Paragraphs) addDefault(arg, value string) {
	ps.items = append(ps.items, &DefaultLine{Arg: arg, Value: value})
}

func (ps *Paragraphs) addException(exception, description string) {
	ps.items = append(ps.items, &ExceptionLine{Exception: exception, Description: description})
}

func (ps *Paragraphs) addSubHeader(name string) {
	ps.items = append(ps.items, &SubHeaderLine{Name: name})
}
