package output

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rivo/uniseg"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/vimdoc/internal/block"
	"github.com/google/vimdoc/internal/module"
	"github.com/google/vimdoc/internal/vimdoc"
)

func introSection(t *testing.T, text string) *block.Block {
	t.Helper()
	b := block.New(vimdoc.Section)
	require.NoError(t, b.SetName("Introduction"))
	b.ID = "intro"
	if text != "" {
		b.AddLine(text)
	}
	require.NoError(t, b.Close())
	return b
}

func rockFunction(t *testing.T) *block.Block {
	t.Helper()
	b := block.New(vimdoc.Function)
	require.NoError(t, b.InferName("Rock"))
	b.Namespace = "myplugin#"
	require.NoError(t, b.SetVisibility(false))
	b.AddLine("Rocks out at {volume}.")
	require.NoError(t, b.Close())
	return b
}

func testModule(t *testing.T, intro string) *module.Module {
	t.Helper()
	p := module.NewPlugin("myplugin")
	p.Author = "A. Author"
	p.Tagline = "Rocks out loud."
	p.Stylization = "MyPlugin"
	m := module.NewModule("myplugin", p)
	require.NoError(t, m.Merge(introSection(t, intro), ""))
	require.NoError(t, m.Merge(rockFunction(t), ""))
	require.NoError(t, m.Close())
	return m
}

func findLine(t *testing.T, lines []string, substr string) string {
	t.Helper()
	for _, line := range lines {
		if strings.Contains(line, substr) {
			return line
		}
	}
	t.Fatalf("no line containing %q", substr)
	return ""
}

func TestFilename(t *testing.T) {
	m := module.NewModule("standalone#sub", module.NewPlugin("myplugin"))
	h := NewHelpfile(m, afero.NewMemMapFs(), "doc")
	assert.Equal(t, "standalone-sub.txt", h.Filename())
}

func TestRender(t *testing.T) {
	m := testModule(t, "See @function(myplugin#Rock) to get started.")
	h := NewHelpfile(m, afero.NewMemMapFs(), "doc")
	content, err := h.Render()
	require.NoError(t, err)
	lines := strings.Split(content, "\n")

	t.Run("Header", func(t *testing.T) {
		assert.Equal(t, "*myplugin.txt*\tRocks out loud.", lines[0])
		author := lines[1]
		assert.True(t, strings.HasPrefix(author, "A. Author"))
		assert.True(t, strings.HasSuffix(author, "*MyPlugin* *myplugin*"))
		assert.Equal(t, Width, uniseg.StringWidth(author))
	})

	t.Run("TableOfContents", func(t *testing.T) {
		contents := findLine(t, lines, "CONTENTS")
		assert.True(t, strings.HasSuffix(contents, "*myplugin-contents*"))
		entry := findLine(t, lines, "1. Introduction")
		assert.True(t, strings.HasSuffix(entry, "|myplugin-intro|"))
		assert.Contains(t, entry, "...")
		assert.Equal(t, Width, uniseg.StringWidth(entry))
	})

	t.Run("Sections", func(t *testing.T) {
		rule := strings.Repeat("=", Width)
		assert.Contains(t, lines, rule)
		header := findLine(t, lines, "INTRODUCTION")
		assert.True(t, strings.HasSuffix(header, "*myplugin-intro*"))
		functions := findLine(t, lines, "FUNCTIONS")
		assert.True(t, strings.HasSuffix(functions, "*myplugin-functions*"))
	})

	t.Run("InlineReference", func(t *testing.T) {
		assert.Contains(t, content, "See |myplugin#Rock()| to get started.")
	})

	t.Run("UsageLine", func(t *testing.T) {
		usage := findLine(t, lines, "myplugin#Rock({volume})")
		assert.True(t, strings.HasSuffix(usage, "*myplugin#Rock()*"))
		assert.Equal(t, Width, uniseg.StringWidth(usage))
		// The description is indented one stop below the usage line.
		assert.Contains(t, lines, tab+"Rocks out at {volume}.")
	})

	t.Run("Footer", func(t *testing.T) {
		require.GreaterOrEqual(t, len(lines), 2)
		assert.Equal(t, "vim:tw=78:ts=8:ft=help:norl:", lines[len(lines)-2])
		assert.Equal(t, "", lines[len(lines)-1])
	})
}

func TestRenderGolden(t *testing.T) {
	p := module.NewPlugin("tiny")
	m := module.NewModule("tiny", p)
	intro := block.New(vimdoc.Section)
	require.NoError(t, intro.SetName("Introduction"))
	intro.ID = "intro"
	intro.AddLine("Hello.")
	require.NoError(t, intro.Close())
	require.NoError(t, m.Merge(intro, ""))
	require.NoError(t, m.Close())

	got, err := NewHelpfile(m, afero.NewMemMapFs(), "doc").Render()
	require.NoError(t, err)

	rule := strings.Repeat("=", Width)
	want := strings.Join([]string{
		"*tiny.txt*",
		strings.Repeat(" ", 72) + "*tiny*",
		"",
		rule,
		"CONTENTS" + strings.Repeat(" ", 55) + "*tiny-contents*",
		"  1. Introduction" + strings.Repeat(".", 49) + "|tiny-intro|",
		"",
		rule,
		"INTRODUCTION" + strings.Repeat(" ", 54) + "*tiny-intro*",
		"",
		"Hello.",
		"",
		"",
		"vim:tw=78:ts=8:ft=help:norl:",
		"",
	}, "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rendered helpfile mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderFalsePositiveDirective(t *testing.T) {
	m := testModule(t, "Send mail to foo@example.com with feedback.")
	h := NewHelpfile(m, afero.NewMemMapFs(), "doc")
	content, err := h.Render()
	require.NoError(t, err)
	assert.Contains(t, content, "foo@example.com")
}

func TestRenderPluginAttributes(t *testing.T) {
	m := testModule(t, "@plugin (by @plugin(author)) rocks; @plugin(name) is its real name.")
	h := NewHelpfile(m, afero.NewMemMapFs(), "doc")
	content, err := h.Render()
	require.NoError(t, err)
	assert.Contains(t, content, "MyPlugin (by A. Author) rocks; myplugin is its real name.")
}

func TestWriteSuccess(t *testing.T) {
	fsys := afero.NewMemMapFs()
	m := testModule(t, "Plain intro.")
	h := NewHelpfile(m, fsys, "doc")
	require.NoError(t, h.Write())
	data, err := afero.ReadFile(fsys, "doc/myplugin.txt")
	require.NoError(t, err)
	assert.Contains(t, string(data), "*myplugin.txt*")
}

func TestWriteUnresolvedReference(t *testing.T) {
	fsys := afero.NewMemMapFs()
	p := module.NewPlugin("myplugin")
	m := module.NewModule("myplugin", p)
	bad := introSection(t, "Uses @function(doesNotExist) heavily.")
	bad.SetLocation("plugin/myplugin.vim", 3)
	require.NoError(t, m.Merge(bad, ""))
	require.NoError(t, m.Close())

	h := NewHelpfile(m, fsys, "doc")
	err := h.Write()
	require.Error(t, err)
	assert.True(t, vimdoc.IsKind(err, vimdoc.ReferenceError))
	assert.Contains(t, err.Error(), "plugin/myplugin.vim")

	// A failed compile leaves no partial helpfile behind.
	exists, statErr := afero.Exists(fsys, "doc/myplugin.txt")
	require.NoError(t, statErr)
	assert.False(t, exists)
}

func TestRenderRightTagOverflow(t *testing.T) {
	p := module.NewPlugin("myplugin")
	m := module.NewModule("myplugin", p)
	long := block.New(vimdoc.Function)
	require.NoError(t, long.InferName("FunctionWithAnExtremelyLongName"))
	long.Namespace = "myplugin#deeply#nested#namespace#"
	require.NoError(t, long.SetVisibility(false))
	long.Args = []string{"alpha", "beta", "gamma"}
	require.NoError(t, long.Close())
	require.NoError(t, m.Merge(long, ""))
	require.NoError(t, m.Close())

	h := NewHelpfile(m, afero.NewMemMapFs(), "doc")
	content, err := h.Render()
	require.NoError(t, err)
	lines := strings.Split(content, "\n")
	tagline := findLine(t, lines, "*myplugin#deeply#nested#namespace#FunctionWithAnExtremelyLongName()*")
	// No room next to the usage text, so the tag lands on its own line.
	assert.True(t, strings.HasPrefix(tagline, " "))
	assert.Equal(t, Width, uniseg.StringWidth(tagline))
	assert.NotContains(t, tagline, "{alpha}")
}

func TestRenderTagWiderThanMargin(t *testing.T) {
	p := module.NewPlugin("myplugin")
	m := module.NewModule("myplugin", p)
	long := block.New(vimdoc.Function)
	name := "F" + strings.Repeat("x", 80)
	require.NoError(t, long.InferName(name))
	long.Namespace = "myplugin#"
	require.NoError(t, long.SetVisibility(false))
	require.NoError(t, long.Close())
	require.NoError(t, m.Merge(long, ""))
	require.NoError(t, m.Close())

	h := NewHelpfile(m, afero.NewMemMapFs(), "doc")
	content, err := h.Render()
	require.NoError(t, err)
	lines := strings.Split(content, "\n")
	// A tag too wide even for a line of its own gets no padding at all.
	tagline := findLine(t, lines, "*myplugin#"+name+"()*")
	assert.Equal(t, "*myplugin#"+name+"()*", tagline)
}
