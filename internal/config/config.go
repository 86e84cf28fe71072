// Package config implements the Configuration Engine: parsing,
// inheritance, and activation of named
// `[Configuration] @Config Name { ... }` groups.
package config

import (
	"fmt"

	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"

	"github.com/chtl-lang/chtl/internal/logger"
)

// Known option keys. Values are looked up case-insensitively
// via normalizeKey so both KEYWORD_LIKE_THIS and camelCase spellings
// resolve to the same entry. A [Name] alias can add a spelling for a
// core keyword but never suppresses the keyword itself.
const (
	OptIndexInitialCount           = "INDEX_INITIAL_COUNT"
	OptDisableNameGroup            = "DISABLE_NAME_GROUP"
	OptDebugMode                   = "DEBUG_MODE"
	OptDisableStyleAutoAddClass    = "DISABLE_STYLE_AUTO_ADD_CLASS"
	OptDisableStyleAutoAddID       = "DISABLE_STYLE_AUTO_ADD_ID"
	OptDisableScriptAutoAddClass   = "DISABLE_SCRIPT_AUTO_ADD_CLASS"
	OptDisableScriptAutoAddID      = "DISABLE_SCRIPT_AUTO_ADD_ID"
	OptDisableDefaultNamespace     = "DISABLE_DEFAULT_NAMESPACE"
	OptDisableCustomOriginType     = "DISABLE_CUSTOM_ORIGIN_TYPE"
)

// defaults seeds the baseline option values every configuration group
// starts from, including INDEX_INITIAL_COUNT = "0".
var defaults = map[string]string{
	OptIndexInitialCount:         "0",
	OptDisableNameGroup:          "false",
	OptDebugMode:                 "false",
	OptDisableStyleAutoAddClass:  "false",
	OptDisableStyleAutoAddID:     "false",
	OptDisableScriptAutoAddClass: "false",
	OptDisableScriptAutoAddID:    "false",
	OptDisableDefaultNamespace:   "false",
	OptDisableCustomOriginType:   "false",
}

// defaultArrayOptions seeds the group-option aliases every group starts
// from: each group option holds only its canonical marker
// (CUSTOM_STYLE = [@Style]).
var defaultArrayOptions = map[string][]string{
	"CUSTOM_STYLE":   {"@Style"},
	"CUSTOM_ELEMENT": {"@Element"},
	"CUSTOM_VAR":     {"@Var"},
}

// Group is one named, fully-resolved configuration (after merging any
// InheritsFrom parent and any externally supplied YAML document).
type Group struct {
	Name         string
	Options      map[string]string
	ArrayOptions map[string][]string
	NameAliases  map[string]string // core keyword -> user alias
	OriginTypes  []string
}

// normalizeKey folds an option key to SCREAMING_SNAKE_CASE so that
// "debugMode", "DebugMode", and "DEBUG_MODE" are the same option.
func normalizeKey(key string) string {
	return strcase.ToScreamingSnake(key)
}

// NewDefaultGroup returns the built-in configuration with no user overrides.
func NewDefaultGroup() *Group {
	g := &Group{
		Name:         "",
		Options:      map[string]string{},
		ArrayOptions: map[string][]string{},
		NameAliases:  map[string]string{},
	}
	for k, v := range defaults {
		g.Options[k] = v
	}
	for k, v := range defaultArrayOptions {
		g.ArrayOptions[k] = append([]string(nil), v...)
	}
	return g
}

// Engine owns every named configuration group registered in a compile
// job and tracks which one is currently active.
type Engine struct {
	groups  map[string]*Group
	active  *Group
	log     *logger.Log
}

// NewEngine creates an Engine whose active group is the built-in default.
func NewEngine(log *logger.Log) *Engine {
	def := NewDefaultGroup()
	return &Engine{
		groups: map[string]*Group{"": def},
		active: def,
		log:    log,
	}
}

// Register adds a named group, merging InheritsFrom's options first and
// letting this group's own keys override.
func (e *Engine) Register(name string, options map[string]string, arrayOptions map[string][]string,
	nameAliases map[string]string, originTypes []string, inheritsFrom string) (*Group, error) {

	g := &Group{
		Name:         name,
		Options:      map[string]string{},
		ArrayOptions: map[string][]string{},
		NameAliases:  map[string]string{},
		OriginTypes:  append([]string(nil), originTypes...),
	}

	if inheritsFrom != "" {
		parent, ok := e.groups[inheritsFrom]
		if !ok {
			return nil, fmt.Errorf("configuration %q inherits from unknown configuration %q", name, inheritsFrom)
		}
		for k, v := range parent.Options {
			g.Options[k] = v
		}
		for k, v := range parent.ArrayOptions {
			g.ArrayOptions[k] = append([]string(nil), v...)
		}
		for k, v := range parent.NameAliases {
			g.NameAliases[k] = v
		}
		g.OriginTypes = append(g.OriginTypes, parent.OriginTypes...)
	} else {
		def := e.groups[""]
		for k, v := range def.Options {
			g.Options[k] = v
		}
		for k, v := range def.ArrayOptions {
			g.ArrayOptions[k] = append([]string(nil), v...)
		}
	}

	for k, v := range options {
		g.Options[normalizeKey(k)] = v
	}
	for k, v := range arrayOptions {
		g.ArrayOptions[normalizeKey(k)] = v
	}
	for k, v := range nameAliases {
		g.NameAliases[k] = v
	}

	e.groups[name] = g
	return g, nil
}

// MergeYAML merges an externally authored configuration document over an
// already-registered group, so one configuration can be shared across
// many entry points.
func (e *Engine) MergeYAML(name string, doc []byte) error {
	g, ok := e.groups[name]
	if !ok {
		return fmt.Errorf("cannot merge external config into unknown group %q", name)
	}
	var external struct {
		Options      map[string]string   `yaml:"options"`
		ArrayOptions map[string][]string `yaml:"arrayOptions"`
		NameAliases  map[string]string   `yaml:"nameAliases"`
		OriginTypes  []string            `yaml:"originTypes"`
	}
	if err := yaml.Unmarshal(doc, &external); err != nil {
		return fmt.Errorf("parsing external configuration %q: %w", name, err)
	}
	for k, v := range external.Options {
		g.Options[normalizeKey(k)] = v
	}
	for k, v := range external.ArrayOptions {
		g.ArrayOptions[normalizeKey(k)] = v
	}
	for k, v := range external.NameAliases {
		g.NameAliases[k] = v
	}
	g.OriginTypes = append(g.OriginTypes, external.OriginTypes...)
	return nil
}

// Activate switches the active group for the remainder of its enclosing
// scope: at every "use @Config X" boundary, the resolver swaps the
// active keyword map and option groups.
func (e *Engine) Activate(name string) (*Group, error) {
	g, ok := e.groups[name]
	if !ok {
		return nil, fmt.Errorf("unknown configuration %q", name)
	}
	e.active = g
	return g, nil
}

// Active returns the currently active group.
func (e *Engine) Active() *Group { return e.active }

// Bool reads a boolean option, defaulting to false if absent or unparsable.
func (g *Group) Bool(key string) bool {
	v, ok := g.Options[normalizeKey(key)]
	if !ok {
		return false
	}
	return v == "true" || v == "1"
}

// Int reads an integer option, returning def if absent or unparsable.
func (g *Group) Int(key string, def int) int {
	v, ok := g.Options[normalizeKey(key)]
	if !ok {
		return def
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return def
	}
	return n
}

// ResolveKeyword returns the keyword text a core keyword should be
// recognized under: the user's [Name] alias if one is registered,
// otherwise the keyword's own spelling. Core keywords are never fully
// suppressed.
func (g *Group) ResolveKeyword(core string) string {
	if alias, ok := g.NameAliases[core]; ok && alias != "" {
		return alias
	}
	return core
}

// AliasesFor returns every spelling (core name plus any alias) that
// should be accepted for a core keyword.
func (g *Group) AliasesFor(core string) []string {
	out := []string{core}
	if alias, ok := g.NameAliases[core]; ok && alias != "" && alias != core {
		out = append(out, alias)
	}
	return out
}

// IsOriginType reports whether name (e.g. "@Vue") was registered via this
// group's [OriginType] block.
func (g *Group) IsOriginType(name string) bool {
	if g.Bool(OptDisableCustomOriginType) {
		return false
	}
	for _, t := range g.OriginTypes {
		if t == name {
			return true
		}
	}
	return false
}

// GroupOptionAliases returns the alias set for a group option such as
// CUSTOM_STYLE.
func (g *Group) GroupOptionAliases(name string) []string {
	return g.ArrayOptions[normalizeKey(name)]
}
