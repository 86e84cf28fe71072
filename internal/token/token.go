// Package token defines the lexical token kinds shared by the CHTL and
// CHTL-JS lexer flavors.
package token

import "github.com/chtl-lang/chtl/internal/logger"

// Kind names a disjoint token family.
type Kind uint8

const (
	EOF Kind = iota
	Unknown

	// Identifiers and literals.
	Ident
	StringDouble
	StringSingle
	Unquoted
	Number

	// Punctuators.
	LBrace    // {
	RBrace    // }
	LBracket  // [
	RBracket  // ]
	LParen    // (
	RParen    // )
	Colon     // :
	Equals    // =
	Semicolon // ;
	Comma     // ,
	At        // @
	Amp       // &
	Dot       // .
	Hash      // #
	Star      // *

	// Comments (preserved as tokens on request; generator comments always
	// survive into output).
	CommentLine   // // ...
	CommentBlock  // /* ... */
	CommentGen    // -- ...

	// CHTL keywords.
	KwText
	KwStyle
	KwScript
	KwInherit
	KwDelete
	KwInsert
	KwAfter
	KwBefore
	KwReplace
	KwModify
	KwAtTop
	KwAtBottom
	KwFrom
	KwAs
	KwExcept
	KwUse
	KwHtml5

	// Bracketed block markers.
	BlockTemplate
	BlockCustom
	BlockOrigin
	BlockImport
	BlockNamespace
	BlockConfiguration
	BlockInfo
	BlockExport
	BlockName
	BlockOriginType

	// @-typed markers. UserType covers registered origin types (@Vue, …).
	AtStyle
	AtElement
	AtVar
	AtHtml
	AtJavaScript
	AtChtl
	AtCJmod
	AtConfig
	AtUserType

	// CHTL-JS extras.
	DoubleLBrace // {{
	DoubleRBrace // }}
	Arrow        // ->
	EventBind    // &->
	KwVir
	KwListen
	KwDelegate
	KwAnimate
)

var names = map[Kind]string{
	EOF: "EOF", Unknown: "Unknown", Ident: "Ident",
	StringDouble: "StringDouble", StringSingle: "StringSingle", Unquoted: "Unquoted", Number: "Number",
	LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]", LParen: "(", RParen: ")",
	Colon: ":", Equals: "=", Semicolon: ";", Comma: ",", At: "@", Amp: "&", Dot: ".", Hash: "#", Star: "*",
	CommentLine: "CommentLine", CommentBlock: "CommentBlock", CommentGen: "CommentGen",
	KwText: "text", KwStyle: "style", KwScript: "script", KwInherit: "inherit", KwDelete: "delete",
	KwInsert: "insert", KwAfter: "after", KwBefore: "before", KwReplace: "replace", KwModify: "modify",
	KwAtTop: "at top", KwAtBottom: "at bottom", KwFrom: "from", KwAs: "as", KwExcept: "except",
	KwUse: "use", KwHtml5: "html5",
	BlockTemplate: "[Template]", BlockCustom: "[Custom]", BlockOrigin: "[Origin]", BlockImport: "[Import]",
	BlockNamespace: "[Namespace]", BlockConfiguration: "[Configuration]", BlockInfo: "[Info]",
	BlockExport: "[Export]", BlockName: "[Name]", BlockOriginType: "[OriginType]",
	AtStyle: "@Style", AtElement: "@Element", AtVar: "@Var", AtHtml: "@Html", AtJavaScript: "@JavaScript",
	AtChtl: "@Chtl", AtCJmod: "@CJmod", AtConfig: "@Config", AtUserType: "@<user-type>",
	DoubleLBrace: "{{", DoubleRBrace: "}}", Arrow: "->", EventBind: "&->",
	KwVir: "vir", KwListen: "listen", KwDelegate: "delegate", KwAnimate: "animate",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "?"
}

// CoreKeywords names keywords that may be aliased by a configuration's
// [Name] block but may never be fully suppressed.
var CoreKeywords = map[string]Kind{
	"text": KwText, "style": KwStyle, "script": KwScript, "inherit": KwInherit,
	"delete": KwDelete, "insert": KwInsert, "after": KwAfter, "before": KwBefore,
	"replace": KwReplace, "modify": KwModify, "from": KwFrom, "as": KwAs, "except": KwExcept,
	"use": KwUse, "html5": KwHtml5, "vir": KwVir, "listen": KwListen,
	"delegate": KwDelegate, "animate": KwAnimate,
}

// BlockMarkers maps a bracketed marker's bare name to its Kind.
var BlockMarkers = map[string]Kind{
	"Template": BlockTemplate, "Custom": BlockCustom, "Origin": BlockOrigin,
	"Import": BlockImport, "Namespace": BlockNamespace, "Configuration": BlockConfiguration,
	"Info": BlockInfo, "Export": BlockExport, "Name": BlockName, "OriginType": BlockOriginType,
}

// AtMarkers maps a well-known @-typed marker's bare name to its Kind.
// Anything not in this map is AtUserType (a registered origin type).
var AtMarkers = map[string]Kind{
	"Style": AtStyle, "Element": AtElement, "Var": AtVar, "Html": AtHtml,
	"JavaScript": AtJavaScript, "Chtl": AtChtl, "CJmod": AtCJmod, "Config": AtConfig,
}

// Token is a single lexical unit: its kind, literal text, and position.
type Token struct {
	Kind    Kind
	Lexeme  string
	Range   logger.Range
	IsMarker bool // true for @-typed tokens, distinguishing them from plain identifiers
}
