package module

import (
	"sort"

	"github.com/google/vimdoc/internal/block"
	"github.com/google/vimdoc/internal/vimdoc"
)

// defaultOrder is the relative order of the built-in sections. Sections
// with no explicit order slot in before custom sections, except "about"
// which goes last.
var defaultOrder = []string{
	"intro",
	"config",
	"commands",
	"autocmds",
	"settings",
	"dicts",
	"functions",
	"exceptions",
	"mappings",
}

// defaultSections are synthesized when their collection is non-empty
// and no user section covers the id.
var defaultSections = []struct {
	typ  vimdoc.BlockType
	id   string
	name string
}{
	{vimdoc.Function, "functions", "Functions"},
	{vimdoc.Exception, "exceptions", "Exceptions"},
	{vimdoc.Command, "commands", "Commands"},
	{vimdoc.Dictionary, "dicts", "Dictionaries"},
	{vimdoc.Flag, "config", "Configuration"},
	{vimdoc.Setting, "config", "Configuration"},
}

// Module manages the set of source files that render into one help
// file.
type Module struct {
	Name   string
	Plugin *Plugin

	// sectionIDs holds first-declaration order; sections maps id to the
	// winning block for that id.
	sectionIDs  []string
	sections    map[string]*block.Block
	backmatters map[string]*block.Block
	collections map[vimdoc.BlockType][]*block.Block

	order    []string
	hasOrder bool

	// ordered is the final linear section list, children expanded, built
	// by Close.
	ordered []*block.Block
	closed  bool
}

// NewModule returns an empty module for the given helpfile name.
func NewModule(name string, plugin *Plugin) *Module {
	return &Module{
		Name:        name,
		Plugin:      plugin,
		sections:    make(map[string]*block.Block),
		backmatters: make(map[string]*block.Block),
		collections: make(map[vimdoc.BlockType][]*block.Block),
	}
}

// Merge adds one closed block to the module. Unclaimed blocks are
// plain comments and are dropped; claimed blocks without a concrete
// kind are an error, since nothing downstream can place them.
func (m *Module) Merge(b *block.Block, namespace string) error {
	switch b.Type() {
	case vimdoc.Unknown:
		return nil
	case vimdoc.Pending:
		if b.HasGlobals() {
			return vimdoc.At(vimdoc.InvalidGlobals(b.GlobalNames()), b.File, b.Line)
		}
		return vimdoc.At(vimdoc.AmbiguousBlock(), b.File, b.Line)
	}
	if namespace != "" {
		b.Namespace = namespace
	}

	// Module-level metadata.
	if b.HasOrder() {
		if m.hasOrder {
			return vimdoc.At(vimdoc.RedundantControl("order"), b.File, b.Line)
		}
		for _, id := range b.Order {
			if id != "+" && id != "-" {
				m.order = append(m.order, id)
			}
		}
		m.hasOrder = true
	}
	if err := m.Plugin.Merge(b); err != nil {
		return vimdoc.At(err, b.File, b.Line)
	}

	switch b.Type() {
	case vimdoc.Section:
		existing, ok := m.sections[b.ID]
		if !ok {
			m.sectionIDs = append(m.sectionIDs, b.ID)
			m.sections[b.ID] = b
		} else if existing.IsDefault() {
			m.sections[b.ID] = b
		} else if !b.IsDefault() {
			return vimdoc.At(vimdoc.DuplicateSection(b.ID), b.File, b.Line)
		}
	case vimdoc.Backmatter:
		existing, ok := m.backmatters[b.ID]
		if !ok || existing.IsDefault() {
			m.backmatters[b.ID] = b
		} else if !b.IsDefault() {
			return vimdoc.At(vimdoc.DuplicateBackmatter(b.ID), b.File, b.Line)
		}
	default:
		if typ := m.Plugin.CollectionType(b); typ != vimdoc.Unknown {
			m.collections[typ] = append(m.collections[typ], b)
		}
	}
	return nil
}

// GetCollection returns the rendered blocks of one kind. Functions sort
// stably by namespace, dictionaries by name; everything else keeps
// declaration order. Default blocks shadowed by an explicit block with
// the same tag are dropped.
func (m *Module) GetCollection(typ vimdoc.BlockType) []*block.Block {
	collection := m.collections[typ]
	switch typ {
	case vimdoc.Function:
		sorted := make([]*block.Block, len(collection))
		copy(sorted, collection)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Namespace < sorted[j].Namespace
		})
		collection = sorted
	case vimdoc.Dictionary:
		sorted := make([]*block.Block, len(collection))
		copy(sorted, collection)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].FullName() < sorted[j].FullName()
		})
		collection = sorted
	}
	explicit := make(map[string]bool)
	for _, b := range collection {
		if !b.IsDefault() {
			explicit[b.TagName()] = true
		}
	}
	var out []*block.Block
	for _, b := range collection {
		if b.IsDefault() && explicit[b.TagName()] {
			continue
		}
		out = append(out, b)
	}
	return out
}

// LookupTag resolves a reference against the plugin-wide registry.
func (m *Module) LookupTag(typ vimdoc.BlockType, name string) (string, error) {
	return m.Plugin.LookupTag(typ, name)
}

// HasSection reports whether a section id exists in this module,
// including child sections. Valid only after Close.
func (m *Module) HasSection(id string) bool {
	_, ok := m.sections[id]
	return ok
}

// addMaktabaFlagHelp synthesizes the Configuration section explaining
// maktaba flags when any were collected.
func (m *Module) addMaktabaFlagHelp() error {
	if len(m.GetCollection(vimdoc.Flag)) == 0 {
		return nil
	}
	b := block.NewDefault(vimdoc.Section)
	_ = b.SetName("Configuration")
	b.ID = "config"
	b.AddLine("This plugin uses maktaba flags for configuration. Install Glaive" +
		" (https://github.com/google/glaive) and use the |:Glaive| command to" +
		" configure them.")
	return m.Merge(b, "")
}

// Close freezes the module: default sections are synthesized, the
// section tree is validated and flattened into final render order, and
// tag uniqueness is checked. No merge may follow.
func (m *Module) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	for _, ds := range defaultSections {
		if ds.typ == vimdoc.Flag {
			if err := m.addMaktabaFlagHelp(); err != nil {
				return err
			}
		}
		if len(m.GetCollection(ds.typ)) > 0 {
			if _, ok := m.sections[ds.id]; !ok {
				b := block.New(vimdoc.Section)
				_ = b.SetName(ds.name)
				b.ID = ds.id
				if err := m.Merge(b, ""); err != nil {
					return err
				}
			}
		}
	}

	for id, b := range m.backmatters {
		if _, ok := m.sections[id]; !ok {
			return vimdoc.At(vimdoc.NoSuchSection(id), b.File, b.Line)
		}
	}

	if err := m.collectChildren(); err != nil {
		return err
	}

	order, err := m.sectionOrder()
	if err != nil {
		return err
	}

	// Flatten the tree in final order.
	m.ordered = m.ordered[:0]
	for _, id := range order {
		if s, ok := m.sections[id]; ok && s.ParentID == "" {
			m.appendSection(s, 0)
		}
	}

	return m.checkTags()
}

// collectChildren attaches parented sections to their parents in
// declaration order, validating existence and acyclicity.
func (m *Module) collectChildren() error {
	for _, id := range m.sectionIDs {
		s, ok := m.sections[id]
		if !ok {
			continue
		}
		if s.ParentID == "" {
			continue
		}
		parent, ok := m.sections[s.ParentID]
		if !ok {
			return vimdoc.At(
				vimdoc.NoSuchParentSection(s.LocalName(), s.ParentID), s.File, s.Line)
		}
		parent.Children = append(parent.Children, s)
	}
	// A parent chain that loops never reaches a root.
	for _, id := range m.sectionIDs {
		seen := map[string]bool{}
		for s := m.sections[id]; s != nil && s.ParentID != ""; s = m.sections[s.ParentID] {
			if seen[s.ID] {
				return vimdoc.At(vimdoc.SectionCycle(id), s.File, s.Line)
			}
			seen[s.ID] = true
		}
	}
	return nil
}

func (m *Module) appendSection(s *block.Block, level int) {
	s.Level = level
	m.ordered = append(m.ordered, s)
	for _, child := range s.Children {
		m.appendSection(child, level+1)
	}
}

// sectionOrder merges the explicit @order list with the built-in
// default order and the remaining declared sections.
//
// Built-in sections with no explicit order come before custom sections;
// ordering a built-in section explicitly resets the insertion point so
// later built-ins follow it. Declared sections missing from the order
// are appended in declaration order, except "about" which goes last.
func (m *Module) sectionOrder() ([]string, error) {
	order := make([]string, len(m.order))
	copy(order, m.order)

	// The explicit order must name real, top-level sections.
	for _, id := range order {
		s, ok := m.sections[id]
		if !ok {
			return nil, vimdoc.NoSuchSection(id)
		}
		if s.ParentID != "" {
			return nil, vimdoc.At(
				vimdoc.OrderedChildSection(id, order), s.File, s.Line)
		}
	}

	idx := 0
	for _, builtin := range defaultOrder {
		if at := indexOf(order, builtin); at >= 0 {
			idx = at + 1
			continue
		}
		if _, ok := m.sections[builtin]; ok {
			order = append(order[:idx], append([]string{builtin}, order[idx:]...)...)
			idx++
		}
	}
	listed := make(map[string]bool, len(order))
	for _, id := range order {
		listed[id] = true
	}
	for _, id := range m.sectionIDs {
		s, ok := m.sections[id]
		if !ok || listed[id] || id == "about" || s.ParentID != "" {
			continue
		}
		order = append(order, id)
		listed[id] = true
	}
	if _, ok := m.sections["about"]; ok && !listed["about"] {
		order = append(order, "about")
	}
	return order, nil
}

func indexOf(list []string, x string) int {
	for i, v := range list {
		if v == x {
			return i
		}
	}
	return -1
}

// Sections returns the final linear section list, children expanded.
// Valid only after Close.
func (m *Module) Sections() []*block.Block {
	return m.ordered
}

// Chunks yields every renderable block in output order: each section
// followed by the collections it hosts and its backmatter.
func (m *Module) Chunks() []*block.Block {
	var chunks []*block.Block
	for _, section := range m.ordered {
		chunks = append(chunks, section)
		switch section.ID {
		case "functions":
			for _, b := range m.GetCollection(vimdoc.Function) {
				if b.Dict == "" && b.Exception == nil {
					chunks = append(chunks, b)
				}
			}
		case "commands":
			chunks = append(chunks, m.GetCollection(vimdoc.Command)...)
		case "dicts":
			for _, d := range m.GetCollection(vimdoc.Dictionary) {
				chunks = append(chunks, d)
				for _, f := range m.GetCollection(vimdoc.Function) {
					if f.Dict == d.Dict {
						chunks = append(chunks, f)
					}
				}
			}
		case "exceptions":
			chunks = append(chunks, m.GetCollection(vimdoc.Exception)...)
		case "config":
			chunks = append(chunks, m.GetCollection(vimdoc.Flag)...)
			chunks = append(chunks, m.GetCollection(vimdoc.Setting)...)
		}
		if b, ok := m.backmatters[section.ID]; ok {
			chunks = append(chunks, b)
		}
	}
	return chunks
}

// checkTags verifies that no two rendered entities produce the same
// tag. Tags are computed the way the renderer will emit them.
func (m *Module) checkTags() error {
	seen := make(map[string]*block.Block)
	for _, b := range m.Chunks() {
		tag := m.tagFor(b)
		if tag == "" {
			continue
		}
		if prev, ok := seen[tag]; ok {
			err := vimdoc.DuplicateTag(tag)
			if b.Located() {
				return vimdoc.At(err, b.File, b.Line)
			}
			return vimdoc.At(err, prev.File, prev.Line)
		}
		seen[tag] = b
	}
	return nil
}

// tagFor computes the helpfile tag a block renders under.
func (m *Module) tagFor(b *block.Block) string {
	switch b.Type() {
	case vimdoc.Section:
		return m.Name + "-" + b.ID
	case vimdoc.Backmatter:
		return ""
	case vimdoc.Flag:
		return m.Name + ":" + b.FullName()
	case vimdoc.Dictionary:
		return m.Name + "." + b.FullName()
	}
	return b.TagName()
}
