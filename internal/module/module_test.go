package module

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/vimdoc/internal/block"
	"github.com/google/vimdoc/internal/vimdoc"
)

func newTestModule() *Module {
	return NewModule("myplugin", NewPlugin("myplugin"))
}

func makeSection(t *testing.T, name, id string) *block.Block {
	t.Helper()
	b := block.New(vimdoc.Section)
	require.NoError(t, b.SetName(name))
	b.ID = id
	require.NoError(t, b.Close())
	return b
}

func makeFunction(t *testing.T, name string, public bool) *block.Block {
	t.Helper()
	b := block.New(vimdoc.Function)
	require.NoError(t, b.InferName(name))
	b.Namespace = "myplugin#"
	if public {
		require.NoError(t, b.SetVisibility(false))
	}
	require.NoError(t, b.Close())
	return b
}

func sectionIDs(m *Module) []string {
	var ids []string
	for _, s := range m.Sections() {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestSectionOrder(t *testing.T) {
	t.Run("BuiltinsBeforeCustom", func(t *testing.T) {
		m := newTestModule()
		require.NoError(t, m.Merge(makeSection(t, "Zebra", "zebra"), ""))
		require.NoError(t, m.Merge(makeSection(t, "Alpha", "alpha"), ""))
		require.NoError(t, m.Merge(makeSection(t, "About", "about"), ""))
		require.NoError(t, m.Merge(makeFunction(t, "Rock", true), ""))
		require.NoError(t, m.Close())
		// Unlisted custom sections keep declaration order; about is last.
		assert.Equal(t, []string{"functions", "zebra", "alpha", "about"}, sectionIDs(m))
	})

	t.Run("ExplicitOrderResetsInsertion", func(t *testing.T) {
		m := newTestModule()
		intro := makeSection(t, "Introduction", "intro")
		require.NoError(t, intro.SetOrder([]string{"functions", "intro"}))
		require.NoError(t, m.Merge(intro, ""))
		require.NoError(t, m.Merge(makeFunction(t, "Rock", true), ""))
		require.NoError(t, m.Close())
		assert.Equal(t, []string{"functions", "intro"}, sectionIDs(m))
	})

	t.Run("OrderNamesUnknownSection", func(t *testing.T) {
		m := newTestModule()
		intro := makeSection(t, "Introduction", "intro")
		require.NoError(t, intro.SetOrder([]string{"bogus"}))
		require.NoError(t, m.Merge(intro, ""))
		err := m.Close()
		require.Error(t, err)
		assert.True(t, vimdoc.IsKind(err, vimdoc.ReferenceError))
	})

	t.Run("OrderNamesChildSection", func(t *testing.T) {
		m := newTestModule()
		intro := makeSection(t, "Introduction", "intro")
		require.NoError(t, intro.SetOrder([]string{"child"}))
		require.NoError(t, m.Merge(intro, ""))
		child := block.New(vimdoc.Section)
		require.NoError(t, child.SetName("Child"))
		child.ID = "child"
		require.NoError(t, child.SetParentSection("intro"))
		require.NoError(t, child.Close())
		require.NoError(t, m.Merge(child, ""))
		err := m.Close()
		require.Error(t, err)
		assert.True(t, vimdoc.IsKind(err, vimdoc.StructureError))
	})

	t.Run("RedundantOrder", func(t *testing.T) {
		m := newTestModule()
		first := makeSection(t, "Introduction", "intro")
		require.NoError(t, first.SetOrder([]string{"intro"}))
		require.NoError(t, m.Merge(first, ""))
		second := makeSection(t, "Extras", "extras")
		require.NoError(t, second.SetOrder([]string{"extras"}))
		err := m.Merge(second, "")
		require.Error(t, err)
		assert.True(t, vimdoc.IsKind(err, vimdoc.ConflictError))
	})
}

func TestSectionTree(t *testing.T) {
	makeChild := func(t *testing.T, name, id, parent string) *block.Block {
		t.Helper()
		b := block.New(vimdoc.Section)
		require.NoError(t, b.SetName(name))
		b.ID = id
		require.NoError(t, b.SetParentSection(parent))
		require.NoError(t, b.Close())
		return b
	}

	t.Run("ChildrenInDeclarationOrder", func(t *testing.T) {
		m := newTestModule()
		require.NoError(t, m.Merge(makeSection(t, "Guide", "guide"), ""))
		require.NoError(t, m.Merge(makeChild(t, "Second", "second", "guide"), ""))
		require.NoError(t, m.Merge(makeChild(t, "First", "first", "guide"), ""))
		require.NoError(t, m.Close())
		assert.Equal(t, []string{"guide", "second", "first"}, sectionIDs(m))
		levels := []int{}
		for _, s := range m.Sections() {
			levels = append(levels, s.Level)
		}
		assert.Equal(t, []int{0, 1, 1}, levels)
	})

	t.Run("NoSuchParent", func(t *testing.T) {
		m := newTestModule()
		require.NoError(t, m.Merge(makeChild(t, "Lost", "lost", "nowhere"), ""))
		err := m.Close()
		require.Error(t, err)
		assert.True(t, vimdoc.IsKind(err, vimdoc.StructureError))
	})

	t.Run("Cycle", func(t *testing.T) {
		m := newTestModule()
		require.NoError(t, m.Merge(makeChild(t, "A", "a", "b"), ""))
		require.NoError(t, m.Merge(makeChild(t, "B", "b", "a"), ""))
		err := m.Close()
		require.Error(t, err)
		assert.True(t, vimdoc.IsKind(err, vimdoc.StructureError))
	})
}

func TestDuplicateSection(t *testing.T) {
	m := newTestModule()
	require.NoError(t, m.Merge(makeSection(t, "Introduction", "intro"), ""))
	err := m.Merge(makeSection(t, "Intro Again", "intro"), "")
	require.Error(t, err)
	assert.True(t, vimdoc.IsKind(err, vimdoc.ConflictError))
}

func TestDefaultSectionOverride(t *testing.T) {
	m := newTestModule()
	def := block.NewDefault(vimdoc.Section)
	require.NoError(t, def.SetName("Introduction"))
	def.ID = "intro"
	require.NoError(t, def.Close())
	require.NoError(t, m.Merge(def, ""))

	explicit := makeSection(t, "Introduction", "intro")
	require.NoError(t, m.Merge(explicit, ""))
	require.NoError(t, m.Close())
	require.Equal(t, []string{"intro"}, sectionIDs(m))
	assert.False(t, m.Sections()[0].IsDefault())
}

func TestBackmatterRequiresSection(t *testing.T) {
	m := newTestModule()
	b := block.New(vimdoc.Backmatter)
	require.NoError(t, b.SetType(vimdoc.Backmatter))
	b.ID = "tips"
	require.NoError(t, b.Close())
	require.NoError(t, m.Merge(b, ""))
	err := m.Close()
	require.Error(t, err)
	assert.True(t, vimdoc.IsKind(err, vimdoc.ReferenceError))
}

func TestVisibility(t *testing.T) {
	t.Run("PluginsDefaultPrivate", func(t *testing.T) {
		m := newTestModule()
		require.NoError(t, m.Merge(makeFunction(t, "Shown", true), ""))
		require.NoError(t, m.Merge(makeFunction(t, "Hidden", false), ""))
		rendered := m.GetCollection(vimdoc.Function)
		require.Len(t, rendered, 1)
		assert.Equal(t, "myplugin#Shown", rendered[0].FullName())
		// The hidden function still resolves as a link target.
		tag, err := m.LookupTag(vimdoc.Function, "myplugin#Hidden")
		require.NoError(t, err)
		assert.Equal(t, "myplugin#Hidden()", tag)
	})

	t.Run("LibrariesDefaultPublic", func(t *testing.T) {
		m := newTestModule()
		m.Plugin.Library = true
		require.NoError(t, m.Merge(makeFunction(t, "Shown", false), ""))
		private := block.New(vimdoc.Function)
		require.NoError(t, private.InferName("Hidden"))
		private.Namespace = "myplugin#"
		require.NoError(t, private.SetVisibility(true))
		require.NoError(t, private.Close())
		require.NoError(t, m.Merge(private, ""))
		rendered := m.GetCollection(vimdoc.Function)
		require.Len(t, rendered, 1)
		assert.Equal(t, "myplugin#Shown", rendered[0].FullName())
	})
}

func TestDeprecated(t *testing.T) {
	m := newTestModule()
	b := block.New(vimdoc.Function)
	require.NoError(t, b.InferName("Old"))
	b.Namespace = "myplugin#"
	require.NoError(t, b.SetVisibility(false))
	require.NoError(t, b.SetDeprecated("use myplugin#New instead"))
	require.NoError(t, b.Close())
	require.NoError(t, m.Merge(b, ""))

	// Deprecated entities are not rendered but references still resolve.
	assert.Empty(t, m.GetCollection(vimdoc.Function))
	tag, err := m.LookupTag(vimdoc.Function, "myplugin#Old")
	require.NoError(t, err)
	assert.Equal(t, "myplugin#Old()", tag)
}

func TestLookupTag(t *testing.T) {
	m := newTestModule()

	cmd := block.New(vimdoc.Command)
	require.NoError(t, cmd.InferName("MyCommand"))
	require.NoError(t, cmd.Close())
	require.NoError(t, m.Merge(cmd, ""))

	setting := block.New(vimdoc.Setting)
	require.NoError(t, setting.InferName("g:myplugin_level"))
	require.NoError(t, setting.Close())
	require.NoError(t, m.Merge(setting, ""))

	t.Run("CommandColonOptional", func(t *testing.T) {
		tag, err := m.LookupTag(vimdoc.Command, ":MyCommand")
		require.NoError(t, err)
		assert.Equal(t, ":MyCommand", tag)
		tag, err = m.LookupTag(vimdoc.Command, "MyCommand")
		require.NoError(t, err)
		assert.Equal(t, ":MyCommand", tag)
	})

	t.Run("SettingScopeDefaultsToGlobal", func(t *testing.T) {
		tag, err := m.LookupTag(vimdoc.Setting, "myplugin_level")
		require.NoError(t, err)
		assert.Equal(t, "g:myplugin_level", tag)
	})

	t.Run("Unresolved", func(t *testing.T) {
		_, err := m.LookupTag(vimdoc.Command, "NoSuchCommand")
		require.Error(t, err)
		assert.True(t, vimdoc.IsKind(err, vimdoc.ReferenceError))
	})

	t.Run("ExplicitShadowsDefault", func(t *testing.T) {
		mm := newTestModule()
		def := block.NewDefault(vimdoc.Flag)
		require.NoError(t, def.SetName("plugin[commands]"))
		require.NoError(t, def.Close())
		require.NoError(t, mm.Merge(def, ""))
		explicit := block.New(vimdoc.Flag)
		require.NoError(t, explicit.SetType(vimdoc.Flag))
		require.NoError(t, explicit.SetName("plugin[commands]"))
		require.NoError(t, explicit.Close())
		require.NoError(t, mm.Merge(explicit, ""))

		_, err := mm.LookupTag(vimdoc.Flag, "plugin[commands]")
		require.NoError(t, err)
		rendered := mm.GetCollection(vimdoc.Flag)
		require.Len(t, rendered, 1)
		assert.False(t, rendered[0].IsDefault())
	})

	t.Run("DuplicateEntity", func(t *testing.T) {
		mm := newTestModule()
		require.NoError(t, mm.Merge(makeFunction(t, "Twice", true), ""))
		require.NoError(t, mm.Merge(makeFunction(t, "Twice", true), ""))
		_, err := mm.LookupTag(vimdoc.Function, "myplugin#Twice")
		require.Error(t, err)
		assert.True(t, vimdoc.IsKind(err, vimdoc.ConflictError))
	})
}

func TestAutoloadNamespace(t *testing.T) {
	assert.Equal(t, "foo#", AutoloadNamespace("foo.vim"))
	assert.Equal(t, "foo#bar#", AutoloadNamespace("foo/bar.vim"))
}

func writeTestFile(t *testing.T, fsys afero.Fs, path string, lines ...string) {
	t.Helper()
	content := ""
	for _, ln := range lines {
		content += ln + "\n"
	}
	require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0o644))
}

func TestModules(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeTestFile(t, fsys, "repo/addon-info.json",
		`{"name": "myplugin", "author": "A. Author", "description": "Rocks out loud."}`)
	writeTestFile(t, fsys, "repo/plugin/myplugin.vim",
		`""`,
		`" An excellent plugin that rocks.`,
		``,
		`let s:plugin = maktaba#plugin#Enter(expand('<sfile>:p'))`)
	writeTestFile(t, fsys, "repo/plugin/mappings.vim",
		`let s:plugin = maktaba#plugin#Enter(expand('<sfile>:p'))`)
	writeTestFile(t, fsys, "repo/autoload/myplugin.vim",
		`""`,
		`" @public`,
		`" Rocks at {volume}.`,
		`function! myplugin#Rock(volume) abort`,
		`endfunction`)
	writeTestFile(t, fsys, "repo/autoload/standalone.vim",
		`""`,
		`" @standalone`,
		`" A library that stands alone.`,
		``,
		`""`,
		`" @public`,
		`" Does the thing.`,
		`function! standalone#Do() abort`,
		`endfunction`)
	// Files outside the crawled subdirectories are ignored.
	writeTestFile(t, fsys, "repo/tests/ignored.vim",
		`""`,
		`" @bogus this would be an error if parsed`)

	modules, err := Modules(fsys, "repo")
	require.NoError(t, err)
	require.Len(t, modules, 2)

	main := modules[0]
	assert.Equal(t, "myplugin", main.Name)
	assert.Equal(t, "A. Author", main.Plugin.Author)
	assert.Equal(t, "Rocks out loud.", main.Plugin.Tagline)

	t.Run("MainModule", func(t *testing.T) {
		funcs := main.GetCollection(vimdoc.Function)
		require.Len(t, funcs, 1)
		assert.Equal(t, "myplugin#Rock", funcs[0].FullName())
		assert.Equal(t, "myplugin#Rock({volume})", funcs[0].Usage)

		// The plugin header becomes the default intro section, and the
		// maktaba flag help adds the config section.
		ids := sectionIDs(main)
		assert.Contains(t, ids, "intro")
		assert.Contains(t, ids, "config")
		assert.Contains(t, ids, "functions")
	})

	t.Run("MaktabaFlags", func(t *testing.T) {
		flags := main.GetCollection(vimdoc.Flag)
		names := make(map[string]string)
		for _, f := range flags {
			text := ""
			for _, p := range f.Paragraphs.Items() {
				switch pp := p.(type) {
				case *block.ListItem:
					text += pp.Text
				case *block.TextParagraph:
					text += pp.Text
				}
			}
			names[f.FullName()] = text
		}
		require.Contains(t, names, "plugin[myplugin]")
		require.Contains(t, names, "plugin[mappings]")
		assert.Contains(t, names["plugin[myplugin]"], "Default: 1")
		// Mappings are opt-in by maktaba convention.
		assert.Contains(t, names["plugin[mappings]"], "Default: 0")
	})

	t.Run("StandaloneModule", func(t *testing.T) {
		sa := modules[1]
		assert.Equal(t, "standalone", sa.Name)
		funcs := sa.GetCollection(vimdoc.Function)
		require.Len(t, funcs, 1)
		assert.Equal(t, "standalone#Do", funcs[0].FullName())
		// Standalone files contribute nothing to the main module.
		assert.NotContains(t, sectionIDs(main), "standalone")
	})
}

func TestModulesRoundTrip(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeTestFile(t, fsys, "repo/addon-info.json",
		`{"name": "myplugin", "author": "A. Author", "description": "Rocks out loud."}`)
	writeTestFile(t, fsys, "repo/plugin/myplugin.vim",
		`""`,
		`" An excellent plugin that rocks.`,
		`"`,
		`" @order intro config functions`,
		``,
		`let s:plugin = maktaba#plugin#Enter(expand('<sfile>:p'))`)
	writeTestFile(t, fsys, "repo/autoload/myplugin.vim",
		`""`,
		`" @public`,
		`" @usage {volume} [style]`,
		`" Rocks at {volume}, optionally with [style].`,
		`function! myplugin#Rock(volume, ...) abort`,
		`endfunction`)
	writeTestFile(t, fsys, "repo/autoload/standalone.vim",
		`""`,
		`" @standalone`,
		`" A library that stands alone.`,
		``,
		`""`,
		`" @public`,
		`" Does the thing.`,
		`function! standalone#Do() abort`,
		`endfunction`)

	first, err := Modules(fsys, "repo")
	require.NoError(t, err)
	second, err := Modules(fsys, "repo")
	require.NoError(t, err)

	// Compiling the same sources twice yields equivalent document models,
	// internal bookkeeping included.
	allFields := cmp.Exporter(func(reflect.Type) bool { return true })
	if diff := cmp.Diff(first, second, allFields); diff != "" {
		t.Errorf("document models differ between runs (-first +second):\n%s", diff)
	}
}

func TestModulesNameFallsBackToDirectory(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeTestFile(t, fsys, "repo/addon-info.json", `{not json`)
	writeTestFile(t, fsys, "repo/plugin/repo.vim",
		`""`,
		`" Plain plugin.`,
		``)
	modules, err := Modules(fsys, "repo")
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "repo", modules[0].Name)
}
