package generator

import (
	"fmt"
	"strings"

	"github.com/chtl-lang/chtl/internal/ast"
	"github.com/chtl-lang/chtl/internal/config"
)

type jsGen struct {
	builder
	a          *ast.Arena
	cfg        *config.Engine
	blocks     []string
	virCounter int
}

func newJSGen(a *ast.Arena, cfg *config.Engine, opts Options) *jsGen {
	return &jsGen{builder: builder{opts: opts}, a: a, cfg: cfg}
}

// collect walks the tree and lowers every LocalScriptBlock into its own
// IIFE in program order, each one wrapped and appended to the global JS
// buffer.
func (g *jsGen) collect(ref ast.Ref) {
	node := g.a.Get(ref)
	if node.Kind == ast.KindLocalScriptBlock {
		g.blocks = append(g.blocks, g.lowerBlock(ref))
		return
	}
	for _, c := range node.Children {
		g.collect(c)
	}
}

func (g *jsGen) render() string {
	return strings.Join(g.blocks, "\n")
}

func (g *jsGen) lowerBlock(block ast.Ref) string {
	var b strings.Builder
	b.WriteString("(function () {\n")
	for _, c := range g.a.Get(block).Children {
		b.WriteString(g.lowerNode(c))
	}
	b.WriteString("})();")
	return b.String()
}

func (g *jsGen) lowerNode(ref ast.Ref) string {
	node := g.a.Get(ref)
	switch data := node.Data.(type) {
	case ast.RawJSData:
		return data.Content
	case ast.EnhancedSelectorData:
		return g.lowerEnhancedSelector(data) + ";\n"
	case ast.ArrowData:
		return g.lowerArrowExpr(ref) + ";\n"
	case ast.EventBindData:
		return g.lowerEventBind(data) + ";\n"
	case ast.ListenCallData:
		return g.lowerListen(ref, data)
	case ast.DelegateCallData:
		return g.lowerDelegate(ref, data)
	case ast.AnimateCallData:
		return g.lowerAnimate(ref, data)
	case ast.VirDeclarationData:
		return g.lowerVir(data)
	default:
		return ""
	}
}

// lowerEnhancedSelector lowers "{{sel}}" to a DOM query:
// a dotted/hashed selector becomes querySelector(All), a bare tag name
// becomes getElementsByTagName.
func (g *jsGen) lowerEnhancedSelector(data ast.EnhancedSelectorData) string {
	raw := data.Raw
	if len(raw) == 0 {
		return "null"
	}
	if raw[0] == '.' || raw[0] == '#' || strings.ContainsAny(raw, " >+~[:") {
		if data.HasIndex {
			return fmt.Sprintf("document.querySelectorAll(%q)[%d]", raw, data.Index)
		}
		return fmt.Sprintf("document.querySelector(%q)", raw)
	}
	if data.HasIndex {
		return fmt.Sprintf("document.getElementsByTagName(%q)[%d]", raw, data.Index)
	}
	return fmt.Sprintf("document.getElementsByTagName(%q)[0]", raw)
}

func (g *jsGen) lowerLHS(ref ast.Ref) string {
	node := g.a.Get(ref)
	switch data := node.Data.(type) {
	case ast.EnhancedSelectorData:
		return g.lowerEnhancedSelector(data)
	case ast.ArrowData:
		return g.lowerArrowExpr(ref)
	default:
		if data, ok := node.Data.(ast.RawJSData); ok {
			return strings.TrimSpace(data.Content)
		}
		return "null"
	}
}

// lowerArrowExpr lowers "lhs -> member" to "lhs.member".
func (g *jsGen) lowerArrowExpr(ref ast.Ref) string {
	data := g.a.Get(ref).Data.(ast.ArrowData)
	lhs := "null"
	if data.LHS != ast.RefNil {
		lhs = g.lowerLHS(data.LHS)
	}
	return fmt.Sprintf("%s.%s", lhs, data.RHSMember)
}

// lowerEventBind lowers "lhs &-> event { body }" to
// "lhs.addEventListener(\"event\", function(){ body })".
func (g *jsGen) lowerEventBind(data ast.EventBindData) string {
	lhs := "null"
	if data.LHS != ast.RefNil {
		lhs = g.lowerLHS(data.LHS)
	}
	return fmt.Sprintf("%s.addEventListener(%q, function () { %s })", lhs, data.Event, data.Body)
}

// lowerListen lowers "target -> listen { ev1: h1, ev2: h2 }" to one
// addEventListener call per entry.
func (g *jsGen) lowerListen(ref ast.Ref, data ast.ListenCallData) string {
	target := "null"
	if data.Target != ast.RefNil {
		target = g.lowerLHS(data.Target)
	}
	tmp := fmt.Sprintf("__chtl_listen_%d", ref)
	var b strings.Builder
	fmt.Fprintf(&b, "var %s = %s;\n", tmp, target)
	for _, e := range data.Entries {
		fmt.Fprintf(&b, "%s.addEventListener(%q, %s);\n", tmp, e.Event, e.Handler)
	}
	return b.String()
}

// lowerDelegate lowers "parent -> delegate { target: [sels], click: fn }"
// to a single delegated addEventListener per event.
func (g *jsGen) lowerDelegate(ref ast.Ref, data ast.DelegateCallData) string {
	parent := "null"
	if data.Parent != ast.RefNil {
		parent = g.lowerLHS(data.Parent)
	}
	sels := make([]string, len(data.Children))
	for i, s := range data.Children {
		sels[i] = fmt.Sprintf("%q", s)
	}
	selList := "[" + strings.Join(sels, ", ") + "]"
	tmp := fmt.Sprintf("__chtl_delegate_%d", ref)
	var b strings.Builder
	fmt.Fprintf(&b, "var %s = %s;\n", tmp, parent)
	for _, e := range data.Entries {
		fmt.Fprintf(&b, "%s.addEventListener(%q, function (e) {\n", tmp, e.Event)
		fmt.Fprintf(&b, "  var __sels = %s;\n", selList)
		b.WriteString("  for (var __i = 0; __i < __sels.length; __i++) {\n")
		b.WriteString("    if (e.target.matches(__sels[__i])) { (" + e.Handler + ")(e); break; }\n")
		b.WriteString("  }\n")
		b.WriteString("});\n")
	}
	return b.String()
}

// lowerAnimate lowers a chained "->animate({duration, easing, loop,
// delay, keyframes: {...}})" call to a Web Animations API call.
func (g *jsGen) lowerAnimate(ref ast.Ref, data ast.AnimateCallData) string {
	target := "null"
	if data.Target != ast.RefNil {
		target = g.lowerLHS(data.Target)
	}
	var keyframes strings.Builder
	keyframes.WriteString("[")
	for i, kf := range data.Keyframes {
		if i > 0 {
			keyframes.WriteString(", ")
		}
		fmt.Fprintf(&keyframes, "{offset: %v", kf.At)
		for _, key := range kf.Order {
			fmt.Fprintf(&keyframes, ", %q: %q", jsStyleProp(key), kf.Styles[key])
		}
		keyframes.WriteString("}")
	}
	keyframes.WriteString("]")

	duration := orDefault(data.Duration, "300")
	easing := orDefault(data.Easing, "linear")
	loop := orDefault(data.Loop, "1")
	delay := orDefault(data.Delay, "0")

	return fmt.Sprintf(
		"%s.animate(%s, {duration: %s, easing: %q, iterations: %s, delay: %s});\n",
		target, keyframes.String(), duration, easing, iterationsOf(loop), delay)
}

func iterationsOf(loop string) string {
	if loop == "infinite" || loop == "true" {
		return "Infinity"
	}
	return loop
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// jsStyleProp converts a hyphenated CSS property name to its camelCase
// CSSStyleDeclaration equivalent for use inside a Web Animations keyframe.
func jsStyleProp(prop string) string {
	parts := strings.Split(prop, "-")
	for i := 1; i < len(parts); i++ {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

// lowerVir lowers "vir Name = listen { ... }" by hoisting the listen
// body's handlers into a plain-object access shim.
func (g *jsGen) lowerVir(data ast.VirDeclarationData) string {
	bodyNode, ok := g.a.Get(data.Body).Data.(ast.ListenCallData)
	if !ok {
		return ""
	}
	var b strings.Builder
	members := make([]string, 0, len(bodyNode.Entries))
	for _, e := range bodyNode.Entries {
		fnName := fmt.Sprintf("__%s_%s", data.Name, e.Event)
		fmt.Fprintf(&b, "function %s(e) { (%s)(e); }\n", fnName, e.Handler)
		members = append(members, fmt.Sprintf("%s: %s", e.Event, fnName))
	}
	fmt.Fprintf(&b, "var %s = {%s};\n", data.Name, strings.Join(members, ", "))
	return b.String()
}
