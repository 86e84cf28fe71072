// Package symbols implements the global symbol map: a
// process-wide-within-one-job registry of templates, customs,
// namespaces, imports, configurations, and auto-generated class/id
// names.
package symbols

import (
	"fmt"
	"strconv"
	"strings"

	radix "github.com/armon/go-radix"

	"github.com/chtl-lang/chtl/internal/ast"
	"github.com/chtl-lang/chtl/internal/logger"
)

// Kind enumerates every symbol kind the map tracks.
type Kind uint8

const (
	KindTemplateStyle Kind = iota
	KindTemplateElement
	KindTemplateVar
	KindCustomStyle
	KindCustomElement
	KindCustomVar
	KindOriginBlock
	KindNamespace
	KindConfiguration
	KindImportedSymbol
	KindAutoClass
	KindAutoID
)

func (k Kind) String() string {
	names := [...]string{
		"TemplateStyle", "TemplateElement", "TemplateVar",
		"CustomStyle", "CustomElement", "CustomVar",
		"OriginBlock", "Namespace", "Configuration", "ImportedSymbol",
		"AutoClass", "AutoID",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// Entry is one registered symbol.
type Entry struct {
	QualifiedName string
	Kind          Kind
	Node          ast.Ref
	Source        *logger.Source
	Loc           logger.Loc
	// ImportedFrom is set for KindImportedSymbol entries: the canonical
	// path of the file the symbol was imported from.
	ImportedFrom string
	Alias        string
	Export       bool // visible from outside its namespace (see [Export])
}

// key builds the radix tree key "namespace\x00kind\x00name" so a single
// tree serves every (namespace, kind) bucket with ordered-prefix lookups
// (e.g. "outer.inner\x00..." walks everything under a namespace).
func key(namespace string, kind Kind, name string) string {
	return fmt.Sprintf("%s\x00%d\x00%s", namespace, kind, name)
}

// Map is the registry. It is owned by exactly one compile job and is not
// internally synchronized: multiple jobs may run in parallel, but must
// not share a mutable Map.
type Map struct {
	tree              *radix.Tree
	namespaces        map[string]*Namespace
	currentNamespace  string
	exports           map[string]map[string]bool // namespace -> exported names (if [Export] present)
	classCounter      int
	idCounter         int
	reservedNames     map[string]bool
}

// Namespace is one registered namespace.
type Namespace struct {
	Name   string
	Parent string
}

// NewMap creates an empty Map with only the root ("") namespace registered.
func NewMap() *Map {
	m := &Map{
		tree:          radix.New(),
		namespaces:    map[string]*Namespace{"": {Name: ""}},
		exports:       map[string]map[string]bool{},
		reservedNames: map[string]bool{},
	}
	return m
}

// CreateNamespace registers name nested under parent (""-parent means
// top-level). Namespaces nest as "outer.inner".
func (m *Map) CreateNamespace(name, parent string) string {
	qualified := name
	if parent != "" {
		qualified = parent + "." + name
	}
	if _, exists := m.namespaces[qualified]; !exists {
		m.namespaces[qualified] = &Namespace{Name: qualified, Parent: parent}
	}
	return qualified
}

// SetCurrentNamespace sets the namespace new registrations land in.
func (m *Map) SetCurrentNamespace(name string) { m.currentNamespace = name }

// CurrentNamespace returns the namespace new registrations land in.
func (m *Map) CurrentNamespace() string { return m.currentNamespace }

// Register adds a symbol, returning an error if (namespace, kind, name)
// is already taken — symbol names are unique within (namespace, kind).
func (m *Map) Register(namespace string, e Entry) error {
	e.QualifiedName = name(e.QualifiedName)
	k := key(namespace, e.Kind, e.QualifiedName)
	if _, exists := m.tree.Get(k); exists {
		return fmt.Errorf("duplicate definition of %q in namespace %q", e.QualifiedName, namespaceLabel(namespace))
	}
	m.tree.Insert(k, e)
	return nil
}

func namespaceLabel(ns string) string {
	if ns == "" {
		return "<root>"
	}
	return ns
}

func name(n string) string { return strings.TrimSpace(n) }

// RecordExport marks name as part of namespace's explicit [Export]
// allow-list. Once any name is recorded, lookup from outside the
// namespace is restricted to the recorded set.
func (m *Map) RecordExport(namespace, name string) {
	set, ok := m.exports[namespace]
	if !ok {
		set = map[string]bool{}
		m.exports[namespace] = set
	}
	set[name] = true
}

func (m *Map) isExported(namespace, name string) bool {
	set, ok := m.exports[namespace]
	if !ok {
		return true // no [Export] block: everything is visible
	}
	return set[name]
}

// Lookup resolves name to an Entry, order: explicit namespace
// (if non-empty) → current namespace (innermost-out) → imported
// namespaces (namespace == "" search across all registered namespaces as
// a fallback) → default namespace. First match wins; more than one match
// at the same priority tier is ambiguous.
func (m *Map) Lookup(name string, kind Kind, explicitNamespace string, fromOutside bool) (Entry, error) {
	if explicitNamespace != "" {
		e, ok := m.get(explicitNamespace, kind, name)
		if !ok {
			return Entry{}, fmt.Errorf("no %v %q in namespace %q", kind, name, explicitNamespace)
		}
		if fromOutside && !m.isExported(explicitNamespace, name) {
			return Entry{}, fmt.Errorf("%q is not exported from namespace %q", name, explicitNamespace)
		}
		return e, nil
	}

	// Innermost-out search within the current namespace chain.
	for ns := m.currentNamespace; ; {
		if e, ok := m.get(ns, kind, name); ok {
			return e, nil
		}
		parent := m.namespaces[ns]
		if parent == nil || parent.Parent == ns || parent.Parent == "" {
			break
		}
		ns = parent.Parent
	}

	// Fall back to a single unambiguous match anywhere in the map.
	var matches []Entry
	m.tree.WalkPrefix("", func(k string, v interface{}) bool {
		e := v.(Entry)
		if e.Kind == kind && e.QualifiedName == name {
			matches = append(matches, e)
		}
		return false
	})
	switch len(matches) {
	case 0:
		return Entry{}, fmt.Errorf("unresolved reference %q", name)
	case 1:
		return matches[0], nil
	default:
		return Entry{}, fmt.Errorf("ambiguous reference %q: found in %d namespaces", name, len(matches))
	}
}

func (m *Map) get(namespace string, kind Kind, name string) (Entry, bool) {
	v, ok := m.tree.Get(key(namespace, kind, name))
	if !ok {
		return Entry{}, false
	}
	return v.(Entry), true
}

// LookupByKind returns every registered symbol of the given kind, in
// radix key order (by namespace, then name).
func (m *Map) LookupByKind(kind Kind) []Entry {
	var out []Entry
	m.tree.Walk(func(k string, v interface{}) bool {
		e := v.(Entry)
		if e.Kind == kind {
			out = append(out, e)
		}
		return false
	})
	return out
}

// HasCycle reports whether path (a chain of canonical import paths,
// innermost last) repeats an earlier entry, so import resolution stays
// loop-free.
func HasCycle(path []string) (bool, string) {
	seen := map[string]bool{}
	for _, p := range path {
		if seen[p] {
			return true, p
		}
		seen[p] = true
	}
	return false, ""
}

// reserve marks name as unavailable to the auto-name generator, whether
// because it collides with an existing symbol or a configuration-
// reserved word.
func (m *Map) reserve(name string) { m.reservedNames[name] = true }

// ReserveConfigName must be called for every keyword/alias a
// configuration introduces, so generated class/id names never collide
// with a name reserved by the active configuration.
func (m *Map) ReserveConfigName(name string) { m.reserve(name) }

// GenerateUniqueClassName returns a collision-free class name derived
// from base, monotonically increasing the backing counter until a name
// that doesn't collide with any registered symbol or reserved word is
// found.
func (m *Map) GenerateUniqueClassName(base string) string {
	return m.generateUnique(base, &m.classCounter, KindAutoClass)
}

// GenerateUniqueIdName is GenerateUniqueClassName's id-attribute twin.
func (m *Map) GenerateUniqueIdName(base string) string {
	return m.generateUnique(base, &m.idCounter, KindAutoID)
}

func (m *Map) generateUnique(base string, counter *int, kind Kind) string {
	if base == "" {
		base = "auto"
	}
	for {
		candidate := base + "_" + strconv.Itoa(*counter)
		*counter++
		if m.reservedNames[candidate] {
			continue
		}
		if _, exists := m.get("", kind, candidate); exists {
			continue
		}
		m.reserve(candidate)
		_ = m.Register("", Entry{QualifiedName: candidate, Kind: kind})
		return candidate
	}
}
