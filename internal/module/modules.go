package module

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/afero"

	"github.com/google/vimdoc/internal/block"
	"github.com/google/vimdoc/internal/parser"
	"github.com/google/vimdoc/internal/vimdoc"
)

// DocSubdirs are the plugin subdirectories crawled for documentation.
// The same set is honored under after/.
var DocSubdirs = []string{
	"plugin",
	"instant",
	"autoload",
	"syntax",
	"indent",
	"ftdetect",
	"ftplugin",
	"spell",
	"colors",
}

// addonInfoSchema validates the optional addon-info.json side-file. The
// file may carry other vim-addon-manager keys; only the recognized ones
// are constrained and consumed.
const addonInfoSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"author": {"type": "string"},
		"description": {"type": "string"}
	}
}`

var addonSchema = jsonschema.MustCompileString("addon-info.schema.json", addonInfoSchema)

type addonInfo struct {
	Name        string `json:"name"`
	Author      string `json:"author"`
	Description string `json:"description"`
}

// loadAddonInfo reads dir/addon-info.json. A missing file is normal; a
// malformed one is logged and ignored.
func loadAddonInfo(fsys afero.Fs, dir string) addonInfo {
	path := filepath.Join(dir, "addon-info.json")
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return addonInfo{}
	}
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn().Str("path", path).Err(err).Msg("ignoring unreadable addon-info.json")
		return addonInfo{}
	}
	if err := addonSchema.Validate(raw); err != nil {
		log.Warn().Str("path", path).Err(err).Msg("ignoring invalid addon-info.json")
		return addonInfo{}
	}
	var info addonInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return addonInfo{}
	}
	return info
}

// Modules compiles a plugin directory into its documentation modules.
// There is usually one; standalone autoload subtrees get their own.
func Modules(fsys afero.Fs, directory string) ([]*Module, error) {
	directory = filepath.Clean(directory)
	info := loadAddonInfo(fsys, directory)
	pluginName := info.Name
	if pluginName == "" {
		pluginName = filepath.Base(directory)
	}
	plugin := NewPlugin(pluginName)
	plugin.Author = info.Author
	plugin.Tagline = info.Description

	type parsedFile struct {
		rel    string
		blocks []*block.Block
	}
	var files []parsedFile
	var standalones []string

	allowed := make(map[string]bool, len(DocSubdirs))
	for _, sub := range DocSubdirs {
		allowed[sub] = true
	}
	sep := string(filepath.Separator)

	// Walk visits lexically, so output ordering is stable regardless of
	// the underlying filesystem.
	err := afero.Walk(fsys, directory, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(directory, path)
		if relErr != nil {
			return relErr
		}
		if fi.IsDir() {
			parts := strings.Split(rel, sep)
			switch {
			case rel == ".":
			case len(parts) == 1 && parts[0] != "after" && !allowed[parts[0]]:
				return filepath.SkipDir
			case len(parts) == 2 && parts[0] == "after" && !allowed[parts[1]]:
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".vim" {
			return nil
		}
		data, readErr := afero.ReadFile(fsys, path)
		if readErr != nil {
			return readErr
		}
		lines := strings.Split(string(data), "\n")
		blocks, parseErr := parser.ParseBlocks(rel, lines)
		if parseErr != nil {
			return parseErr
		}
		makeIntro(blocks)
		if fb := maktabaFlagBlock(rel, lines); fb != nil {
			blocks = append(blocks, fb)
		}
		files = append(files, parsedFile{rel: rel, blocks: blocks})
		if strings.HasPrefix(rel, "autoload"+sep) &&
			len(blocks) > 0 && blocks[0].Standalone {
			standalones = append(standalones, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	main := NewModule(pluginName, plugin)
	modules := []*Module{main}
	for _, f := range files {
		if _, ok := matchingStandalone(f.rel, standalones); ok {
			continue
		}
		namespace := ""
		if strings.HasPrefix(f.rel, "autoload"+sep) {
			namespace = AutoloadNamespace(strings.TrimPrefix(f.rel, "autoload"+sep))
		}
		for _, b := range f.blocks {
			if err := main.Merge(b, namespace); err != nil {
				return nil, err
			}
		}
	}

	standaloneModules := make(map[string]*Module)
	for _, f := range files {
		root, ok := matchingStandalone(f.rel, standalones)
		if !ok {
			continue
		}
		namespace := AutoloadNamespace(strings.TrimPrefix(f.rel, "autoload"+sep))
		sm := standaloneModules[root]
		if sm == nil {
			sm = NewModule(strings.TrimSuffix(namespace, "#"), plugin)
			standaloneModules[root] = sm
			modules = append(modules, sm)
		}
		for _, b := range f.blocks {
			if err := sm.Merge(b, namespace); err != nil {
				return nil, err
			}
		}
	}

	for _, m := range modules {
		if err := m.Close(); err != nil {
			return nil, err
		}
	}
	return modules, nil
}

// makeIntro applies the plugin-header rule: a file's leading block that
// carries documentation but no classifying signal becomes the default
// introduction section, overridable by an explicit one.
func makeIntro(blocks []*block.Block) {
	if len(blocks) == 0 {
		return
	}
	b := blocks[0]
	if typ := b.Type(); typ != vimdoc.Unknown && typ != vimdoc.Pending {
		return
	}
	if b.HasName() || b.Dict != "" || b.Exception != nil ||
		b.Header() != nil || b.Private != nil || b.Deprecated != "" {
		return
	}
	if b.Paragraphs.Empty() && !b.HasGlobals() {
		return
	}
	b.MakeIntro()
}

// maktabaFlagBlock synthesizes the implicit flag block for files that
// call maktaba#plugin#Enter. The flag has no doc comment of its own;
// its name comes from the file path (plugin/foo.vim becomes
// plugin[foo]).
func maktabaFlagBlock(rel string, lines []string) *block.Block {
	sep := string(filepath.Separator)
	if strings.HasPrefix(rel, "autoload"+sep) ||
		rel == filepath.Join("plugin", "flags.vim") ||
		rel == filepath.Join("instant", "flags.vim") {
		return nil
	}
	if !parser.ContainsMaktabaPluginEnterCall(lines) {
		return nil
	}
	flagpath := rel
	if strings.HasPrefix(flagpath, "after"+sep) {
		flagpath = strings.TrimPrefix(flagpath, "after"+sep)
	}
	parts := strings.Split(strings.TrimSuffix(flagpath, ".vim"), sep)
	flagname := parts[0]
	for _, p := range parts[1:] {
		flagname += "[" + p + "]"
	}
	b := block.NewDefault(vimdoc.Flag)
	_ = b.SetName(flagname)
	b.AddLine("Configures whether " + rel + " should be loaded.")
	deflt := "1"
	if flagname == "plugin[mappings]" {
		deflt = "0"
	}
	// The unbulleted list keeps the default on its own line; the
	// backtick keeps helpfile syntax highlighting away.
	b.AddLine(" - Default: " + deflt + " `")
	_ = b.Close()
	return b
}

// AutoloadNamespace converts an autoload-relative path to its function
// namespace prefix: foo/bar.vim becomes foo#bar#.
func AutoloadNamespace(rel string) string {
	trimmed := strings.TrimSuffix(rel, filepath.Ext(rel))
	return strings.ReplaceAll(trimmed, string(filepath.Separator), "#") + "#"
}

// matchingStandalone reports which standalone root, if any, covers a
// path: the root file itself or anything under its directory.
func matchingStandalone(path string, standalones []string) (string, bool) {
	for _, s := range standalones {
		if path == s {
			return s, true
		}
		prefix := strings.TrimSuffix(s, ".vim") + string(filepath.Separator)
		if strings.HasPrefix(path, prefix) {
			return s, true
		}
	}
	return "", false
}
