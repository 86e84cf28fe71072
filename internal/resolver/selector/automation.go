// Package selector implements selector automation: auto-adding
// `class`/`id` attributes to an element whose local style or script
// block targets it, and resolving the `&` reference selector.
package selector

import (
	"github.com/chtl-lang/chtl/internal/ast"
	"github.com/chtl-lang/chtl/internal/config"
	"github.com/chtl-lang/chtl/internal/symbols"
)

// Automate walks the resolved tree and applies every selector automation rule.
func Automate(a *ast.Arena, syms *symbols.Map, cfg *config.Engine, ref ast.Ref) {
	walk(a, syms, cfg, ref)
}

func walk(a *ast.Arena, syms *symbols.Map, cfg *config.Engine, ref ast.Ref) {
	node := a.Get(ref)
	if _, ok := node.Data.(ast.ElementData); ok {
		autoAddFromChildren(a, syms, cfg, ref)
	}
	for _, c := range node.Children {
		walk(a, syms, cfg, c)
	}
}

// autoAddFromChildren scans ref's direct LocalStyleBlock/LocalScriptBlock
// children for class/id selectors and, absent an explicit `class`/`id`
// attribute, auto-adds the first one found.
func autoAddFromChildren(a *ast.Arena, syms *symbols.Map, cfg *config.Engine, ref ast.Ref) {
	group := cfg.Active()
	hasClass, hasID := elementHasAttr(a, ref)

	var firstStyleClass, firstStyleID, firstScriptClass, firstScriptID string
	for _, c := range a.Get(ref).Children {
		child := a.Get(c)
		switch child.Kind {
		case ast.KindLocalStyleBlock:
			cls, id := firstSelectors(a, c)
			if firstStyleClass == "" {
				firstStyleClass = cls
			}
			if firstStyleID == "" {
				firstStyleID = id
			}
		case ast.KindLocalScriptBlock:
			cls, id := firstEnhancedSelectors(a, c)
			if firstScriptClass == "" {
				firstScriptClass = cls
			}
			if firstScriptID == "" {
				firstScriptID = id
			}
		}
	}

	addedClass, addedID := "", ""
	if !hasClass && !group.Bool(config.OptDisableStyleAutoAddClass) && firstStyleClass != "" {
		addedClass = firstStyleClass
	}
	if !hasClass && addedClass == "" && !group.Bool(config.OptDisableScriptAutoAddClass) && firstScriptClass != "" {
		addedClass = firstScriptClass
	}
	if !hasID && !group.Bool(config.OptDisableStyleAutoAddID) && firstStyleID != "" {
		addedID = firstStyleID
	}
	if !hasID && addedID == "" && !group.Bool(config.OptDisableScriptAutoAddID) && firstScriptID != "" {
		addedID = firstScriptID
	}

	if addedClass != "" {
		a.New(ast.Node{Kind: ast.KindAttribute, Range: a.Get(ref).Range,
			Data: ast.AttributeData{Name: "class", Value: addedClass}}, ref)
		syms.Register("", symbols.Entry{QualifiedName: addedClass, Kind: symbols.KindAutoClass, Node: ref})
	}
	if addedID != "" {
		a.New(ast.Node{Kind: ast.KindAttribute, Range: a.Get(ref).Range,
			Data: ast.AttributeData{Name: "id", Value: addedID}}, ref)
		syms.Register("", symbols.Entry{QualifiedName: addedID, Kind: symbols.KindAutoID, Node: ref})
	}

	resolveRefSelectors(a, ref, addedClass, addedID)
}

func elementHasAttr(a *ast.Arena, ref ast.Ref) (hasClass, hasID bool) {
	for _, c := range a.Get(ref).Children {
		if attr, ok := a.Get(c).Data.(ast.AttributeData); ok {
			switch attr.Name {
			case "class":
				hasClass = true
			case "id":
				hasID = true
			}
		}
	}
	return
}

func firstSelectors(a *ast.Arena, styleBlock ast.Ref) (class, id string) {
	for _, c := range a.Get(styleBlock).Children {
		sel, ok := a.Get(c).Data.(ast.SelectorData)
		if !ok {
			continue
		}
		if sel.Kind == ast.SelClass && class == "" {
			class = sel.Name
		}
		if sel.Kind == ast.SelID && id == "" {
			id = sel.Name
		}
	}
	return
}

// firstEnhancedSelectors scans a script block's RawJS-adjacent
// EnhancedSelector nodes for a dotted or hashed selector; a bare
// `{{tag}}` (SelCompound-equivalent, no prefix) does not trigger
// automation.
func firstEnhancedSelectors(a *ast.Arena, scriptBlock ast.Ref) (class, id string) {
	var walk func(ref ast.Ref)
	walk = func(ref ast.Ref) {
		if data, ok := a.Get(ref).Data.(ast.EnhancedSelectorData); ok {
			raw := data.Raw
			if len(raw) > 1 {
				switch raw[0] {
				case '.':
					if class == "" {
						class = raw[1:]
					}
				case '#':
					if id == "" {
						id = raw[1:]
					}
				}
			}
		}
		for _, c := range a.Get(ref).Children {
			walk(c)
		}
	}
	walk(scriptBlock)
	return
}

// resolveRefSelectors rewrites `&` SelRef selectors within ref's local
// style block to the auto-class if set, else auto-id, else the tag name
//.
func resolveRefSelectors(a *ast.Arena, ref ast.Ref, addedClass, addedID string) {
	tag := ""
	if el, ok := a.Get(ref).Data.(ast.ElementData); ok {
		tag = el.TagName
	}
	class, id := addedClass, addedID
	if class == "" || id == "" {
		c, i := elementExplicitAttrs(a, ref)
		if class == "" {
			class = c
		}
		if id == "" {
			id = i
		}
	}
	for _, c := range a.Get(ref).Children {
		child := a.Get(c)
		switch child.Kind {
		case ast.KindLocalStyleBlock:
			styleResolution := class
			if styleResolution == "" {
				styleResolution = id
			}
			if styleResolution == "" {
				styleResolution = tag
			}
			rewriteRefs(a, c, styleResolution)
		case ast.KindLocalScriptBlock:
			scriptResolution := id
			if scriptResolution == "" {
				scriptResolution = class
			}
			if scriptResolution == "" {
				scriptResolution = tag
			}
			rewriteRefs(a, c, scriptResolution)
		}
	}
}

func elementExplicitAttrs(a *ast.Arena, ref ast.Ref) (class, id string) {
	for _, c := range a.Get(ref).Children {
		if attr, ok := a.Get(c).Data.(ast.AttributeData); ok {
			if attr.Name == "class" {
				class = attr.Value
			}
			if attr.Name == "id" {
				id = attr.Value
			}
		}
	}
	return
}

func rewriteRefs(a *ast.Arena, block ast.Ref, resolution string) {
	var walk func(ref ast.Ref)
	walk = func(ref ast.Ref) {
		node := a.Get(ref)
		if sel, ok := node.Data.(ast.SelectorData); ok && sel.Kind == ast.SelRef {
			node.Data = ast.SelectorData{Kind: ast.SelCompound, Name: resolution}
		}
		for _, c := range node.Children {
			walk(c)
		}
	}
	walk(block)
}
