// Package resolver implements the semantic resolution pass: import
// resolution, namespace population, configuration activation, reference
// expansion, specialization, inheritance merging, constraint checking,
// and selector automation.
package resolver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/chtl-lang/chtl/internal/ast"
	"github.com/chtl-lang/chtl/internal/config"
	"github.com/chtl-lang/chtl/internal/logger"
	"github.com/chtl-lang/chtl/internal/resolver/selector"
	"github.com/chtl-lang/chtl/internal/symbols"
)

// Loader fetches and parses an imported file, returning its arena and
// root. The resolver supplies this so it never touches the filesystem
// directly.
type Loader func(canonicalPath string) (arena *ast.Arena, root ast.Ref, err error)

// Resolver runs C6 over one compile job's arena.
type Resolver struct {
	log     *logger.Log
	source  *logger.Source
	cfg     *config.Engine
	symbols *symbols.Map
	arena   *ast.Arena
	load    Loader

	importPath []string // current import chain, for cycle detection
}

// New creates a Resolver bound to one arena.
func New(log *logger.Log, source *logger.Source, cfg *config.Engine, syms *symbols.Map, arena *ast.Arena, load Loader) *Resolver {
	return &Resolver{log: log, source: source, cfg: cfg, symbols: syms, arena: arena, load: load}
}

// Resolve runs every resolution pass over root in a fixed order.
func (r *Resolver) Resolve(root ast.Ref) error {
	if err := r.resolveImports(root); err != nil {
		return err
	}
	r.populateNamespace("", root)
	r.activateConfigurations(root)
	r.expandReferences(root)
	r.checkConstraints(root, nil)
	selector.Automate(r.arena, r.symbols, r.cfg, root)
	return nil
}

// ---- 1. Import resolution ----

func (r *Resolver) resolveImports(root ast.Ref) error {
	var walk func(ref ast.Ref) error
	walk = func(ref ast.Ref) error {
		node := r.arena.Get(ref)
		if node.Kind == ast.KindImportDecl {
			data := node.Data.(ast.ImportDeclData)
			path := append(append([]string{}, r.importPath...), data.Path)
			if ok, cyclePath := symbols.HasCycle(path); ok {
				return errors.Errorf("import cycle detected at %q", cyclePath)
			}
			r.importPath = append(r.importPath, data.Path)
			if r.load != nil {
				impArena, impRoot, err := r.load(data.Path)
				if err != nil {
					r.log.AddError(r.source, node.Range, logger.KindResolution, fmt.Sprintf("importing %q: %s", data.Path, err))
				} else {
					r.registerImported(impArena, impRoot, data)
				}
			}
			r.importPath = r.importPath[:len(r.importPath)-1]
		}
		for _, c := range node.Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root)
}

// registerImported copies the imported file's top-level definitions into
// this job's symbol map under their alias or original name, honoring the
// import's Symbol/Wildcard selection.
func (r *Resolver) registerImported(impArena *ast.Arena, impRoot ast.Ref, decl ast.ImportDeclData) {
	clonedRoot := r.arena.Clone(impArena.Root(), ast.RefNil)
	for i, child := range impArena.Get(impRoot).Children {
		n := impArena.Get(child)
		name, kind, ok := definitionIdentity(n)
		if !ok {
			continue
		}
		if !decl.Wildcard && name != decl.Symbol {
			continue
		}
		registeredName := name
		if decl.Alias != "" {
			registeredName = decl.Alias
		}
		cloned := r.arena.Get(clonedRoot).Children[i]
		_ = r.symbols.Register("", symbols.Entry{
			QualifiedName: registeredName, Kind: kind, Node: cloned,
			Source: r.source, ImportedFrom: decl.Path, Alias: decl.Alias,
		})
	}
}

func definitionIdentity(n *ast.Node) (name string, kind symbols.Kind, ok bool) {
	switch d := n.Data.(type) {
	case ast.TemplateStyleData:
		return d.Name, symbols.KindTemplateStyle, true
	case ast.TemplateElementData:
		return d.Name, symbols.KindTemplateElement, true
	case ast.TemplateVarData:
		return d.Name, symbols.KindTemplateVar, true
	case ast.CustomStyleData:
		return d.Name, symbols.KindCustomStyle, true
	case ast.CustomElementData:
		return d.Name, symbols.KindCustomElement, true
	case ast.CustomVarData:
		return d.Name, symbols.KindCustomVar, true
	case ast.OriginBlockData:
		if d.Name != "" {
			return d.Name, symbols.KindOriginBlock, true
		}
	}
	return "", 0, false
}

// ---- 2. Namespace population ----

func (r *Resolver) populateNamespace(ns string, ref ast.Ref) {
	node := r.arena.Get(ref)
	switch data := node.Data.(type) {
	case ast.NamespaceData:
		ns = r.symbols.CreateNamespace(data.Name, ns)
	case ast.TemplateStyleData:
		r.register(ns, data.Name, symbols.KindTemplateStyle, ref)
	case ast.TemplateElementData:
		r.register(ns, data.Name, symbols.KindTemplateElement, ref)
	case ast.TemplateVarData:
		r.register(ns, data.Name, symbols.KindTemplateVar, ref)
	case ast.CustomStyleData:
		r.register(ns, data.Name, symbols.KindCustomStyle, ref)
	case ast.CustomElementData:
		r.register(ns, data.Name, symbols.KindCustomElement, ref)
	case ast.CustomVarData:
		r.register(ns, data.Name, symbols.KindCustomVar, ref)
	case ast.OriginBlockData:
		if data.Name != "" {
			r.register(ns, data.Name, symbols.KindOriginBlock, ref)
		}
	case ast.ConfigurationGroupData:
		r.register(ns, data.Name, symbols.KindConfiguration, ref)
	case ast.ExportBlockData:
		for _, name := range data.Names {
			r.symbols.RecordExport(ns, name)
		}
	}
	for _, c := range node.Children {
		r.populateNamespace(ns, c)
	}
}

func (r *Resolver) register(ns, name string, kind symbols.Kind, ref ast.Ref) {
	if name == "" {
		return
	}
	if err := r.symbols.Register(ns, symbols.Entry{QualifiedName: name, Kind: kind, Node: ref, Source: r.source}); err != nil {
		r.log.AddError(r.source, r.arena.Get(ref).Range, logger.KindResolution, err.Error())
	}
}

// ---- 3. Configuration activation ----

func (r *Resolver) activateConfigurations(ref ast.Ref) {
	node := r.arena.Get(ref)
	if data, ok := node.Data.(ast.UseDeclData); ok && data.Kind == ast.UseConfig {
		if _, err := r.cfg.Activate(data.ConfigName); err != nil {
			r.log.AddError(r.source, node.Range, logger.KindResolution, err.Error())
		}
	}
	for _, c := range node.Children {
		r.activateConfigurations(c)
	}
}

// ---- 4/5/6. Reference expansion, specialization, inheritance ----

// expandReferences walks the tree depth-first and replaces each
// Reference node with the cloned, specialized, inheritance-merged
// content of the definition it names.
func (r *Resolver) expandReferences(ref ast.Ref) {
	node := r.arena.Get(ref)
	children := append([]ast.Ref(nil), node.Children...)
	for _, c := range children {
		if r.arena.Get(c).Kind == ast.KindReference {
			r.expandOneReference(ref, c)
			continue
		}
		if d, ok := r.arena.Get(c).Data.(ast.InlineDeclData); ok {
			if group, key, ok := VarShorthandKey(strings.TrimPrefix(strings.TrimSpace(d.Value), "@Var")); ok {
				if entry, err := r.symbols.Lookup(group, symbols.KindTemplateVar, "", false); err == nil {
					if vars, _, _ := r.varsOf(entry); vars[key] != "" {
						d.Value = vars[key]
						r.arena.Get(c).Data = d
					}
				}
			}
		}
		r.expandReferences(c)
	}
}

func (r *Resolver) expandOneReference(parent, refNode ast.Ref) {
	node := r.arena.Get(refNode)
	data := node.Data.(ast.ReferenceData)
	kind, ok := referenceSymbolKind(data.Kind)
	if !ok {
		return // RefOrigin reuse: left as-is for the generator's raw-embed pass
	}
	fromOutside := data.From != ""
	entry, err := r.symbols.Lookup(data.QualifiedName, kind, data.From, fromOutside)
	if err != nil && kind <= symbols.KindTemplateVar {
		// @Style/@Element/@Var uses are parsed as Template references; a
		// [Custom] definition of the same name answers them as well.
		if custom, cerr := r.symbols.Lookup(data.QualifiedName, kind+symbols.KindCustomStyle, data.From, fromOutside); cerr == nil {
			entry, err = custom, nil
		}
	}
	if err != nil {
		r.log.AddError(r.source, node.Range, logger.KindResolution, err.Error())
		return
	}
	node.ResolvedSymbol = entry.Node

	switch data.Kind {
	case ast.RefTemplateVar, ast.RefCustomVar:
		r.expandVarReference(parent, node, entry, data)
		r.arena.RemoveChild(parent, refNode)
	case ast.RefTemplateStyle, ast.RefCustomStyle:
		r.expandStyleReference(parent, refNode, entry, data)
	case ast.RefTemplateElement, ast.RefCustomElement:
		r.expandElementReference(parent, refNode, entry, data)
	}
}

func referenceSymbolKind(k ast.ReferenceKind) (symbols.Kind, bool) {
	switch k {
	case ast.RefTemplateStyle:
		return symbols.KindTemplateStyle, true
	case ast.RefTemplateElement:
		return symbols.KindTemplateElement, true
	case ast.RefTemplateVar:
		return symbols.KindTemplateVar, true
	case ast.RefCustomStyle:
		return symbols.KindCustomStyle, true
	case ast.RefCustomElement:
		return symbols.KindCustomElement, true
	case ast.RefCustomVar:
		return symbols.KindCustomVar, true
	default:
		return 0, false
	}
}

var varShorthand = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*\(\s*([A-Za-z_][A-Za-z0-9_]*)\s*\)\s*$`)

// VarShorthandKey reports whether value has the form `GroupName(key)`
// and, if so, returns the group name and key.
func VarShorthandKey(value string) (group, key string, ok bool) {
	m := varShorthand.FindStringSubmatch(value)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

func (r *Resolver) expandVarReference(parent ast.Ref, refNode *ast.Node, entry symbols.Entry, data ast.ReferenceData) {
	vars, _, specOps := r.varsOf(entry)
	vars, _ = r.applyVarSpecOps(vars, specOps)
	key := data.VarKey
	if key == "" {
		if _, k, ok := VarShorthandKey(data.QualifiedName); ok {
			key = k
		}
	}
	value, ok := vars[key]
	if !ok {
		r.log.AddError(r.source, refNode.Range, logger.KindResolution, fmt.Sprintf("variable group %q has no key %q", data.QualifiedName, key))
		return
	}
	r.arena.New(ast.Node{Kind: ast.KindText, Range: refNode.Range, Data: ast.TextData{Content: value, Unquoted: true}}, parent)
}

func (r *Resolver) varsOf(entry symbols.Entry) (map[string]string, []string, []ast.Ref) {
	node := r.arena.Get(entry.Node)
	switch d := node.Data.(type) {
	case ast.TemplateVarData:
		return d.Vars, d.VarOrder, nil
	case ast.CustomVarData:
		return d.Vars, d.VarOrder, d.SpecOps
	}
	return nil, nil, nil
}

func (r *Resolver) applyVarSpecOps(vars map[string]string, ops []ast.Ref) (map[string]string, []string) {
	if len(ops) == 0 {
		return vars, nil
	}
	out := map[string]string{}
	for k, v := range vars {
		out[k] = v
	}
	var outOrder []string
	for _, opRef := range ops {
		switch d := r.arena.Get(opRef).Data.(type) {
		case ast.ModifyPropData:
			out[d.Property] = d.Value
		case ast.DeletePropData:
			delete(out, d.Property)
		}
	}
	return out, outOrder
}

// expandStyleReference merges a TemplateStyle/CustomStyle definition's
// properties directly into the surrounding LocalStyleBlock, in place of
// the Reference node.
func (r *Resolver) expandStyleReference(parent, refNode ast.Ref, entry symbols.Entry, data ast.ReferenceData) {
	props, inherits, valueless, specOps := r.styleOf(entry)
	merged := r.mergeInheritedStyleProps(inherits)
	merged = append(merged, props...)
	merged = r.applyStyleSpecOps(merged, data.SpecArgs, specOps)

	idx := childIndex(r.arena, parent, refNode)
	r.arena.RemoveChild(parent, refNode)
	offset := 0
	for _, p := range merged {
		if p.Value == "" && contains(valueless, p.Property) {
			r.log.AddError(r.source, r.arena.Get(refNode).Range, logger.KindResolution,
				fmt.Sprintf("%q requires a value for valueless property %q", data.QualifiedName, p.Property))
			continue
		}
		child := r.arena.New(ast.Node{Kind: ast.KindInlineDecl, Data: p}, ast.RefNil)
		r.arena.InsertChildAt(parent, idx+offset, child)
		offset++
	}
}

func (r *Resolver) styleOf(entry symbols.Entry) (props []ast.InlineDeclData, inherits []ast.Ref, valueless []string, specOps []ast.Ref) {
	node := r.arena.Get(entry.Node)
	switch d := node.Data.(type) {
	case ast.TemplateStyleData:
		return d.Properties, d.Inherits, nil, nil
	case ast.CustomStyleData:
		return d.Properties, d.Inherits, d.ValuelessKeys, d.SpecOps
	}
	return nil, nil, nil, nil
}

func (r *Resolver) mergeInheritedStyleProps(inherits []ast.Ref) []ast.InlineDeclData {
	var out []ast.InlineDeclData
	for _, inh := range inherits {
		refData, ok := r.arena.Get(inh).Data.(ast.InheritNodeData)
		if !ok {
			continue
		}
		refNode := r.arena.Get(refData.Reference)
		rd, ok := refNode.Data.(ast.ReferenceData)
		if !ok {
			continue
		}
		kind, ok := referenceSymbolKind(rd.Kind)
		if !ok {
			continue
		}
		entry, err := r.symbols.Lookup(rd.QualifiedName, kind, rd.From, false)
		if err != nil {
			r.log.AddError(r.source, refNode.Range, logger.KindResolution, err.Error())
			continue
		}
		props, parentInherits, _, _ := r.styleOf(entry)
		out = append(out, r.mergeInheritedStyleProps(parentInherits)...)
		out = append(out, props...)
	}
	return out
}

// applyStyleSpecOps applies a Custom reference's use-site SpecArgs
// (attribute overrides + delete/insert/replace/modify, in declared
// order) over the already-merged property list.
func (r *Resolver) applyStyleSpecOps(props []ast.InlineDeclData, specArgs, defSpecOps []ast.Ref) []ast.InlineDeclData {
	all := append(append([]ast.Ref(nil), defSpecOps...), specArgs...)
	for _, opRef := range all {
		switch d := r.arena.Get(opRef).Data.(type) {
		case ast.InlineDeclData:
			props = setProp(props, d.Property, d.Value)
		case ast.ModifyPropData:
			props = setProp(props, d.Property, d.Value)
		case ast.DeletePropData:
			props = deleteProp(props, d.Property)
		}
	}
	return props
}

func setProp(props []ast.InlineDeclData, key, value string) []ast.InlineDeclData {
	for i, p := range props {
		if p.Property == key {
			props[i].Value = value
			return props
		}
	}
	return append(props, ast.InlineDeclData{Property: key, Value: value})
}

func deleteProp(props []ast.InlineDeclData, key string) []ast.InlineDeclData {
	out := props[:0]
	for _, p := range props {
		if p.Property != key {
			out = append(out, p)
		}
	}
	return out
}

// expandElementReference splices a TemplateElement/CustomElement
// definition's children at the reference point, applying Custom
// specialization ops in declared order.
func (r *Resolver) expandElementReference(parent, refNode ast.Ref, entry symbols.Entry, data ast.ReferenceData) {
	idx := childIndex(r.arena, parent, refNode)
	r.arena.RemoveChild(parent, refNode)

	cloneParent := r.arena.New(ast.Node{Kind: ast.KindRoot}, ast.RefNil)
	r.cloneElementWithInherits(entry.Node, cloneParent)

	specOps := r.elementSpecOps(entry)
	r.applyElementSpecOps(cloneParent, append(append([]ast.Ref(nil), specOps...), data.SpecArgs...))

	staged := append([]ast.Ref(nil), r.arena.Get(cloneParent).Children...)
	for i, child := range staged {
		r.arena.InsertChildAt(parent, idx+i, child)
	}
	r.expandReferences(parent)
}

func (r *Resolver) elementSpecOps(entry symbols.Entry) []ast.Ref {
	if d, ok := r.arena.Get(entry.Node).Data.(ast.CustomElementData); ok {
		return d.SpecOps
	}
	return nil
}

// cloneElementWithInherits clones def's own children into cloneParent,
// prefixed by its (recursively merged) inherited elements' children
//.
func (r *Resolver) cloneElementWithInherits(def ast.Ref, cloneParent ast.Ref) {
	node := r.arena.Get(def)
	var inherits []ast.Ref
	switch d := node.Data.(type) {
	case ast.TemplateElementData:
		inherits = d.Inherits
	case ast.CustomElementData:
		inherits = d.Inherits
	}
	for _, inh := range inherits {
		refData, ok := r.arena.Get(inh).Data.(ast.InheritNodeData)
		if !ok {
			continue
		}
		refNode := r.arena.Get(refData.Reference)
		rd, ok := refNode.Data.(ast.ReferenceData)
		if !ok {
			continue
		}
		kind, ok := referenceSymbolKind(rd.Kind)
		if !ok {
			continue
		}
		entry, err := r.symbols.Lookup(rd.QualifiedName, kind, rd.From, false)
		if err != nil {
			r.log.AddError(r.source, refNode.Range, logger.KindResolution, err.Error())
			continue
		}
		r.cloneElementWithInherits(entry.Node, cloneParent)
	}
	for _, child := range node.Children {
		r.arena.Clone(child, cloneParent)
	}
}

func (r *Resolver) applyElementSpecOps(cloneParent ast.Ref, ops []ast.Ref) {
	for _, opRef := range ops {
		switch d := r.arena.Get(opRef).Data.(type) {
		case ast.DeleteElementData:
			if target := findBySelector(r.arena, cloneParent, d.Selector); target != ast.RefNil {
				r.arena.RemoveChild(cloneParent, target)
			}
		case ast.DeleteInheritData:
			// Inheritance was already flattened by cloneElementWithInherits;
			// own content already takes precedence over any inherited
			// definition so there is nothing further to remove here.
		case ast.InsertElementData:
			r.applyInsert(cloneParent, d)
		case ast.ReplaceElementData:
			if target := findBySelector(r.arena, cloneParent, d.Selector); target != ast.RefNil {
				idx := childIndex(r.arena, cloneParent, target)
				r.arena.RemoveChild(cloneParent, target)
				newChild := r.arena.Clone(d.Body, ast.RefNil)
				r.arena.InsertChildAt(cloneParent, idx, newChild)
			}
		}
	}
}

func (r *Resolver) applyInsert(cloneParent ast.Ref, d ast.InsertElementData) {
	newChild := r.arena.Clone(d.Body, ast.RefNil)
	children := r.arena.Get(cloneParent).Children
	switch d.Position {
	case ast.PosAtTop:
		r.arena.InsertChildAt(cloneParent, 0, newChild)
	case ast.PosAtBottom:
		r.arena.InsertChildAt(cloneParent, len(children), newChild)
	case ast.PosAfter, ast.PosBefore:
		target := findBySelector(r.arena, cloneParent, d.Selector)
		if target == ast.RefNil {
			r.arena.InsertChildAt(cloneParent, len(children), newChild)
			return
		}
		idx := childIndex(r.arena, cloneParent, target)
		if d.Position == ast.PosAfter {
			idx++
		}
		r.arena.InsertChildAt(cloneParent, idx, newChild)
	}
}

// findBySelector resolves a tag name or "tag[n]" index selector against
// parent's element children.
func findBySelector(a *ast.Arena, parent ast.Ref, sel string) ast.Ref {
	tag, idx, hasIdx := parseIndexSelector(sel)
	n := 0
	for _, c := range a.Get(parent).Children {
		el, ok := a.Get(c).Data.(ast.ElementData)
		if !ok || el.TagName != tag {
			continue
		}
		if !hasIdx {
			return c
		}
		if n == idx {
			return c
		}
		n++
	}
	return ast.RefNil
}

func parseIndexSelector(sel string) (tag string, idx int, hasIdx bool) {
	if i := strings.IndexByte(sel, '['); i >= 0 && strings.HasSuffix(sel, "]") {
		tag = sel[:i]
		fmt.Sscanf(sel[i+1:len(sel)-1], "%d", &idx)
		return tag, idx, true
	}
	return sel, 0, false
}

func childIndex(a *ast.Arena, parent, child ast.Ref) int {
	for i, c := range a.Get(parent).Children {
		if c == child {
			return i
		}
	}
	return len(a.Get(parent).Children)
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// ---- 7. Constraints ----

// checkConstraints re-walks the (now expanded) subtree enforcing every
// ExceptNode's forbidden-target list against its enclosing scope. An
// except declaration binds its *siblings*, not its own (empty) subtree,
// so targets are gathered from a node's children before recursing into
// them, rather than threaded through the ExceptNode's own recursion.
func (r *Resolver) checkConstraints(ref ast.Ref, forbidden []string) {
	node := r.arena.Get(ref)
	if el, ok := node.Data.(ast.ElementData); ok {
		for _, f := range forbidden {
			if f == el.TagName {
				r.log.AddError(r.source, node.Range, logger.KindSemantic, fmt.Sprintf("element %q is excluded by an enclosing except constraint", el.TagName))
			}
		}
	}
	if ref2, ok := node.Data.(ast.ReferenceData); ok {
		for _, f := range forbidden {
			if f == ref2.QualifiedName {
				r.log.AddError(r.source, node.Range, logger.KindSemantic, fmt.Sprintf("%q is excluded by an enclosing except constraint", ref2.QualifiedName))
			}
		}
	}

	scope := forbidden
	for _, c := range node.Children {
		if data, ok := r.arena.Get(c).Data.(ast.ExceptNodeData); ok {
			scope = append(append([]string(nil), scope...), data.Targets...)
		}
	}
	for _, c := range node.Children {
		r.checkConstraints(c, scope)
	}
}
