// Package module assembles parsed blocks into renderable documentation
// modules: one module per helpfile, all sharing one plugin's metadata
// and tag registry.
package module

import (
	"strings"

	"github.com/google/vimdoc/internal/block"
	"github.com/google/vimdoc/internal/logging"
	"github.com/google/vimdoc/internal/pattern"
	"github.com/google/vimdoc/internal/vimdoc"
)

var log = logging.GetLogger("module")

// Plugin holds state for an entire plugin, potentially spanning
// multiple modules. It owns the cross-module tag registry and the
// plugin-wide metadata.
type Plugin struct {
	Name string
	// Author and Tagline come from addon-info.json.
	Author  string
	Tagline string
	// Stylization is the @stylized display name, empty if undeclared.
	Stylization string
	Library     bool

	hasStylization bool
	hasLibrary     bool

	// registry holds every named entity, including deprecated and
	// non-public ones, so references to them still resolve.
	registry map[vimdoc.BlockType][]*block.Block
}

// NewPlugin returns an empty plugin with the given resolved name.
func NewPlugin(name string) *Plugin {
	return &Plugin{
		Name:     name,
		registry: make(map[vimdoc.BlockType][]*block.Block),
	}
}

// StylizedName is the display form of the plugin's name.
func (p *Plugin) StylizedName() string {
	if p.Stylization != "" {
		return p.Stylization
	}
	return p.Name
}

// consumeMetadata folds a section or backmatter block's plugin-wide
// controls into the plugin. Duplicate declarations across blocks
// conflict.
func (p *Plugin) consumeMetadata(b *block.Block) error {
	if b.HasStylization() {
		if p.hasStylization {
			return vimdoc.RedundantControl("stylized")
		}
		p.Stylization = b.Stylization
		p.hasStylization = true
	}
	if b.HasLibrary() {
		if p.hasLibrary {
			return vimdoc.RedundantControl("library")
		}
		p.Library = true
		p.hasLibrary = true
	}
	return nil
}

// registryType is the kind an entity resolves under: exception
// pseudo-functions are their own kind, everything else keeps its block
// type.
func registryType(b *block.Block) vimdoc.BlockType {
	typ := b.Type()
	if typ == vimdoc.Function && b.Exception != nil {
		return vimdoc.Exception
	}
	return typ
}

// CollectionType decides which rendered collection a block belongs to,
// or Unknown for blocks excluded from output. Deprecated entities are
// excluded; functions are included only when visible (explicitly public
// in plugins, not explicitly private in libraries).
func (p *Plugin) CollectionType(b *block.Block) vimdoc.BlockType {
	if b.Deprecated != "" {
		return vimdoc.Unknown
	}
	typ := b.Type()
	if typ == vimdoc.Function {
		if p.Library {
			if b.Private != nil && *b.Private {
				return vimdoc.Unknown
			}
		} else if b.Private == nil || *b.Private {
			return vimdoc.Unknown
		}
		if b.Exception != nil {
			return vimdoc.Exception
		}
	}
	return typ
}

// Merge registers a block with the plugin. Section and backmatter
// blocks contribute metadata; everything named goes into the tag
// registry, visible or not.
func (p *Plugin) Merge(b *block.Block) error {
	typ := b.Type()
	if typ == vimdoc.Section || typ == vimdoc.Backmatter {
		return p.consumeMetadata(b)
	}
	if b.IsSecondary() || !b.HasName() && b.Dict == "" {
		return nil
	}
	rt := registryType(b)
	p.registry[rt] = append(p.registry[rt], b)
	return nil
}

// LookupTag resolves a reference of the given kind and name to its tag.
// Command references may carry their ':' prefix; setting references
// default to global scope. Default blocks are shadowed by explicit ones
// with the same tag. An unknown target is a reference error.
func (p *Plugin) LookupTag(typ vimdoc.BlockType, name string) (string, error) {
	fullname := name
	switch typ {
	case vimdoc.Command:
		fullname = strings.TrimPrefix(name, ":")
	case vimdoc.Setting:
		if !pattern.SettingScope.MatchString(name) {
			fullname = "g:" + name
		}
	}
	var candidates []*block.Block
	explicit := false
	for _, b := range p.registry[typ] {
		if b.FullName() != fullname {
			continue
		}
		if !b.IsDefault() && !explicit {
			explicit = true
			candidates = candidates[:0]
		}
		if b.IsDefault() && explicit {
			continue
		}
		candidates = append(candidates, b)
	}
	if len(candidates) == 0 {
		return "", vimdoc.UnresolvedReference(typ, name)
	}
	if len(candidates) > 1 {
		return "", vimdoc.DuplicateEntity(typ, name)
	}
	return candidates[0].TagName(), nil
}
