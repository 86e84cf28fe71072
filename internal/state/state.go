// Package state implements the cooperative state machine that the lexer
// and parser consult synchronously to know which keywords, operators,
// and selector syntaxes are legal at the current cursor.
package state

import "github.com/chtl-lang/chtl/internal/logger"

// Kind names one of the machine's states.
type Kind uint8

const (
	Root Kind = iota
	HtmlElement
	LocalStyle
	LocalScript
	EnhancedSelector
	ArrowOperation
	ListenFn
	DelegateFn
	AnimateFn
	VirObject
	TemplateBlock
	CustomBlock
	OriginBlock
	Configuration
	Namespace
	Import
	ErrorState
)

func (k Kind) String() string {
	names := [...]string{
		"Root", "HtmlElement", "LocalStyle", "LocalScript", "EnhancedSelector",
		"ArrowOperation", "ListenFn", "DelegateFn", "AnimateFn", "VirObject",
		"TemplateBlock", "CustomBlock", "OriginBlock", "Configuration", "Namespace",
		"Import", "ErrorState",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "?"
}

// Frame is one entry in the state stack: its kind, where it began, its
// nesting depth, and arbitrary string-keyed context data.
type Frame struct {
	Kind    Kind
	Start   logger.Loc
	Depth   int
	Context map[string]string
}

// Machine is the single-threaded, cooperative state stack. States are
// pushed/popped RAII-style: a popped state is never revisited by
// reference.
type Machine struct {
	stack   []Frame
	strict  bool // strict mode: invalid transitions are errors, not warnings
}

// NewMachine creates a machine seeded with a Root frame.
func NewMachine(strict bool) *Machine {
	m := &Machine{strict: strict}
	m.stack = []Frame{{Kind: Root, Context: map[string]string{}}}
	return m
}

// Push enters a new state, inheriting the current depth + 1.
func (m *Machine) Push(kind Kind, start logger.Loc) *Frame {
	depth := 0
	if len(m.stack) > 0 {
		depth = m.top().Depth + 1
	}
	m.stack = append(m.stack, Frame{Kind: kind, Start: start, Depth: depth, Context: map[string]string{}})
	return m.top()
}

// Pop removes the current state. Popping the Root frame is a no-op; the
// machine always has at least one frame.
func (m *Machine) Pop() {
	if len(m.stack) > 1 {
		m.stack = m.stack[:len(m.stack)-1]
	}
}

func (m *Machine) top() *Frame { return &m.stack[len(m.stack)-1] }

// Top returns the current state frame.
func (m *Machine) Top() Frame { return *m.top() }

// Depth returns the current nesting depth (Root is depth 0).
func (m *Machine) Depth() int { return m.top().Depth }

// In reports whether kind is anywhere on the current stack.
func (m *Machine) In(kind Kind) bool {
	for _, f := range m.stack {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

// IsInCHTLJSContext reports whether the cursor is inside a LocalScript,
// or any of its nested CHTL-JS constructs.
func (m *Machine) IsInCHTLJSContext() bool {
	return m.In(LocalScript) || m.In(EnhancedSelector) || m.In(ArrowOperation) ||
		m.In(ListenFn) || m.In(DelegateFn) || m.In(AnimateFn) || m.In(VirObject)
}

// CanUseEnhancedSelectors gates whether "{{" should lex as a single
// DoubleLBrace token versus two separate "{" tokens.
func (m *Machine) CanUseEnhancedSelectors() bool {
	return m.IsInCHTLJSContext()
}

// CanUseArrowOperator gates whether "->" is legal at the current cursor.
func (m *Machine) CanUseArrowOperator() bool {
	return m.IsInCHTLJSContext()
}

// Recover pops frames until a state compatible with the given kind is on
// top, used by tolerant-mode parse error recovery. It never pops below Root.
func (m *Machine) Recover(log *logger.Log, source *logger.Source, at logger.Range, compatible func(Kind) bool) {
	for len(m.stack) > 1 && !compatible(m.top().Kind) {
		m.Pop()
	}
	if m.strict {
		log.AddError(source, at, logger.KindParse, "invalid state transition in strict mode")
	} else {
		log.AddWarning(source, at, logger.KindParse, "invalid state transition; recovered by unwinding to "+m.top().Kind.String())
	}
}

// Strict reports whether the machine is operating in strict mode.
func (m *Machine) Strict() bool { return m.strict }
