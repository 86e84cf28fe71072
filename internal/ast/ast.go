// Package ast implements the CHTL data model: a closed set of
// node kinds stored in an arena and referenced by index, avoiding both a
// deep virtual class hierarchy and reference-counted parent pointers
//.
package ast

import "github.com/chtl-lang/chtl/internal/logger"

// Ref is an arena index. RefNil means "no node".
type Ref int32

const RefNil Ref = -1

// Kind is the closed set of AST node kinds.
type Kind uint8

const (
	KindRoot Kind = iota
	KindElement
	KindText
	KindComment
	KindAttribute
	KindLocalStyleBlock
	KindInlineDecl
	KindSelector
	KindLocalScriptBlock
	KindRawJS
	KindEnhancedSelector
	KindArrow
	KindEventBind
	KindListenCall
	KindDelegateCall
	KindAnimateCall
	KindVirDeclaration
	KindTemplateStyle
	KindTemplateElement
	KindTemplateVar
	KindCustomStyle
	KindCustomElement
	KindCustomVar
	KindOriginBlock
	KindNamespace
	KindImportDecl
	KindConfigurationGroup
	KindUseDecl
	KindReference
	KindInheritNode
	KindExceptNode
	KindDeleteProp
	KindDeleteInherit
	KindDeleteElement
	KindInsertElement
	KindReplaceElement
	KindModifyProp
	KindInfoBlock
	KindExportBlock
)

// SelectorKind distinguishes the six local-style selector forms.
type SelectorKind uint8

const (
	SelClass SelectorKind = iota
	SelID
	SelPseudoClass
	SelPseudoElement
	SelRef // "&"
	SelCompound
)

// Position names an insert/delete target position.
type Position uint8

const (
	PosAfter Position = iota
	PosBefore
	PosReplace
	PosAtTop
	PosAtBottom
)

// OriginKind names a raw-embed's declared language.
type OriginKind string

const (
	OriginHTML       OriginKind = "@Html"
	OriginStyle      OriginKind = "@Style"
	OriginJavaScript OriginKind = "@JavaScript"
)

// Node is one arena-resident AST node. Data holds kind-specific fields;
// Children holds this node's ordered child Refs (structural composition
// applies uniformly; leaf kinds simply have no children).
type Node struct {
	Kind     Kind
	Loc      logger.Loc
	Range    logger.Range
	Children []Ref
	Data     interface{}

	// ResolvedSymbol is set by the resolver once a Reference has been
	// bound to a definition. RefNil until resolved.
	ResolvedSymbol Ref
}

// ---- Kind-specific Data payloads ----

type ElementData struct {
	TagName string
}

type TextData struct {
	Content  string
	Unquoted bool
}

type CommentKind uint8

const (
	CommentLine CommentKind = iota
	CommentBlock
	CommentGenerator // "-- ..." — survives into generated output
)

type CommentData struct {
	Kind    CommentKind
	Content string
}

type AttributeData struct {
	Name     string
	Value    string
	Unquoted bool
}

type InlineDeclData struct {
	Property string
	Value    string
}

type SelectorData struct {
	Kind SelectorKind
	Name string // class/id/pseudo name; empty for SelRef and bare compound
}

type RawJSData struct {
	Content string
}

type EnhancedSelectorData struct {
	Raw      string // the text between {{ and }}
	Index    int    // valid only if HasIndex
	HasIndex bool
}

type ArrowData struct {
	LHS       Ref
	RHSMember string
}

type EventBindData struct {
	LHS   Ref
	Event string
	Body  string // raw JS handler body text
}

type ListenEntry struct {
	Event   string
	Handler string
}

type ListenCallData struct {
	Target  Ref
	Entries []ListenEntry
}

type DelegateCallData struct {
	Parent   Ref
	Children []string // selector list
	Entries  []ListenEntry
}

type Keyframe struct {
	At     float64 // 0..1 position
	Styles map[string]string
	Order  []string
}

type AnimateCallData struct {
	Target    Ref
	Duration  string
	Easing    string
	Loop      string
	Delay     string
	Keyframes []Keyframe
}

type VirDeclarationData struct {
	Name string
	Body Ref // ListenCall-shaped body
}

type TemplateStyleData struct {
	Name       string
	Properties []InlineDeclData
	Inherits   []Ref // Reference nodes
}

type TemplateElementData struct {
	Name     string
	Inherits []Ref
}

type TemplateVarData struct {
	Name     string
	Vars     map[string]string
	VarOrder []string
	Inherits []Ref
}

type CustomStyleData struct {
	TemplateStyleData
	ValuelessKeys []string // properties declared with no value
	SpecOps       []Ref
}

type CustomElementData struct {
	TemplateElementData
	SpecOps []Ref
}

type CustomVarData struct {
	TemplateVarData
	SpecOps []Ref
}

type OriginBlockData struct {
	OriginType OriginKind
	RawName    string // original @-typed text, for user-registered types
	Name       string // optional name for a reusable named origin
	RawContent string
}

type NamespaceData struct {
	Name   string
	Nested []Ref // nested Namespace nodes
}

type ImportKind uint8

const (
	ImportTemplate ImportKind = iota
	ImportCustom
	ImportOrigin
	ImportChtl
	ImportCJmod
	ImportConfig
)

type ImportDeclData struct {
	Kind     ImportKind
	Path     string
	Symbol   string
	Alias    string
	Wildcard bool
}

type ConfigurationGroupData struct {
	Name         string
	InheritsFrom string
	Options      map[string]string
	ArrayOptions map[string][]string
	NameAliases  map[string]string // core keyword -> user alias
	OriginTypes  []string
}

type UseKind uint8

const (
	UseHTML5 UseKind = iota
	UseConfig
)

type UseDeclData struct {
	Kind       UseKind
	ConfigName string
}

// ReferenceKind distinguishes what a Reference points at.
type ReferenceKind uint8

const (
	RefTemplateStyle ReferenceKind = iota
	RefTemplateElement
	RefTemplateVar
	RefCustomStyle
	RefCustomElement
	RefCustomVar
	RefOrigin
)

type ReferenceData struct {
	Kind          ReferenceKind
	QualifiedName string
	From          string // namespace qualifier from a "from" clause, "" if none
	SpecArgs      []Ref  // attribute assignments + spec ops, for Custom use-sites
	VarKey        string // for *Var references like ThemeColor(tableColor)
}

type InheritNodeData struct {
	Reference Ref
}

type ExceptNodeData struct {
	Targets []string
}

type DeletePropData struct{ Property string }
type DeleteInheritData struct{ QualifiedName string }
type DeleteElementData struct{ Selector string }

type InsertElementData struct {
	Position Position
	Selector string
	Body     Ref // Element node to splice in
}

type ReplaceElementData struct {
	Selector string
	Body     Ref
}

type ModifyPropData struct {
	Property string
	Value    string
}

type InfoBlockData struct {
	Entries map[string]string
}

type ExportBlockData struct {
	Names []string
}

// ---- Arena ----

// Arena owns every node created while compiling one file. Child
// references are stored by index (Ref); parent pointers are indices too,
// so the tree has no cycles and needs no reference counting.
type Arena struct {
	Nodes   []Node
	Parents []Ref
}

// NewArena creates an arena seeded with a Root node.
func NewArena() *Arena {
	a := &Arena{}
	a.Nodes = append(a.Nodes, Node{Kind: KindRoot, ResolvedSymbol: RefNil})
	a.Parents = append(a.Parents, RefNil)
	return a
}

// Root returns the always-present root node's Ref.
func (a *Arena) Root() Ref { return 0 }

// New appends a node as a child of parent and returns its Ref.
func (a *Arena) New(n Node, parent Ref) Ref {
	n.ResolvedSymbol = RefNil
	ref := Ref(len(a.Nodes))
	a.Nodes = append(a.Nodes, n)
	a.Parents = append(a.Parents, parent)
	if parent != RefNil {
		a.Get(parent).Children = append(a.Get(parent).Children, ref)
	}
	return ref
}

// Get returns a mutable pointer to the node at ref.
func (a *Arena) Get(ref Ref) *Node { return &a.Nodes[ref] }

// Parent returns ref's parent, or RefNil for the root.
func (a *Arena) Parent(ref Ref) Ref { return a.Parents[ref] }

// RemoveChild detaches child from parent's Children slice in place,
// preserving order of the rest (used by specialization's `delete`).
func (a *Arena) RemoveChild(parent, child Ref) {
	node := a.Get(parent)
	out := node.Children[:0]
	for _, c := range node.Children {
		if c != child {
			out = append(out, c)
		}
	}
	node.Children = out
}

// InsertChildAt inserts child into parent's Children at index i.
func (a *Arena) InsertChildAt(parent Ref, i int, child Ref) {
	node := a.Get(parent)
	a.Parents[child] = parent
	if i < 0 {
		i = 0
	}
	if i > len(node.Children) {
		i = len(node.Children)
	}
	node.Children = append(node.Children, RefNil)
	copy(node.Children[i+1:], node.Children[i:])
	node.Children[i] = child
}

// ReplaceChild swaps oldChild for newChild at the same position.
func (a *Arena) ReplaceChild(parent, oldChild, newChild Ref) {
	node := a.Get(parent)
	for i, c := range node.Children {
		if c == oldChild {
			node.Children[i] = newChild
			a.Parents[newChild] = parent
			return
		}
	}
}

// Clone deep-copies the subtree rooted at ref and attaches the copy under
// newParent. Data payloads are copied by value (none hold arena-external
// mutable state); Ref fields embedded in Data (e.g. ArrowData.LHS) are
// left pointing at the original subtree's nodes, which is safe because
// those referenced nodes are themselves descendants of ref and get
// cloned too — callers needing the remapped child Ref should look it up
// positionally via the parallel Children slices rather than via Data.
// Used when a Reference is expanded: the definition's subtree is cloned
// and spliced in at each use-site.
func (a *Arena) Clone(ref Ref, newParent Ref) Ref {
	if ref == RefNil {
		return RefNil
	}
	src := a.Get(ref)
	dup := Node{Kind: src.Kind, Loc: src.Loc, Range: src.Range, Data: src.Data}
	newRef := a.New(dup, newParent)
	for _, child := range src.Children {
		a.Clone(child, newRef)
	}
	return newRef
}

// Walk visits ref and every descendant in deterministic depth-first,
// left-to-right order.
func (a *Arena) Walk(ref Ref, visit func(Ref, *Node)) {
	if ref == RefNil {
		return
	}
	n := a.Get(ref)
	visit(ref, n)
	// Copy the children slice header: visit may mutate n.Children via
	// specialization ops running inside visit.
	children := append([]Ref(nil), n.Children...)
	for _, c := range children {
		a.Walk(c, visit)
	}
}

// ValidateParentLinks checks invariant 1: every non-root node's
// parent's Children contains it at some index.
func (a *Arena) ValidateParentLinks() bool {
	for i := 1; i < len(a.Nodes); i++ {
		ref := Ref(i)
		parent := a.Parents[ref]
		if parent == RefNil {
			continue
		}
		found := false
		for _, c := range a.Get(parent).Children {
			if c == ref {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
