package transform

import (
	"strings"

	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/jsast"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ExtractionKind classifies the first argument of a marker call
type ExtractionKind int

const (
	// ExtractSkip means the call has no arguments
	ExtractSkip ExtractionKind = iota
	// ExtractInvalid means the first argument has an unsupported shape
	ExtractInvalid
	// ExtractTemplate means the first argument is a literal template
	ExtractTemplate
)

func (k ExtractionKind) String() string {
	switch k {
	case ExtractSkip:
		return "skip"
	case ExtractInvalid:
		return "invalid"
	case ExtractTemplate:
		return "template"
	}
	return "unknown"
}

// Extraction is the result of inspecting a marker call's first argument
type Extraction struct {
	Kind ExtractionKind
	// Template is the literal text, set for ExtractTemplate
	Template string
	// Reason explains an ExtractInvalid result
	Reason string
	// Arg is the first argument node, nil for ExtractSkip
	Arg *sitter.Node
}

// Extract classifies the first argument of call.
//
// A string literal yields its decoded value. A template literal without
// ${...} substitutions yields its raw text, escapes left as written; an empty
// template literal yields the empty template. Enclosing parentheses are
// ignored. Anything else is invalid.
func Extract(call *sitter.Node, source []byte) Extraction {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return Extraction{Kind: ExtractSkip}
	}
	list := jsast.NamedChildren(args)
	if len(list) == 0 {
		return Extraction{Kind: ExtractSkip}
	}

	arg := jsast.Unparen(list[0])
	if arg == nil {
		return Extraction{Kind: ExtractInvalid, Reason: unsupportedLiteralReason, Arg: list[0]}
	}
	switch arg.Kind() {
	case jsast.KindString:
		value, err := jsast.DecodeString(jsast.Text(arg, source))
		if err != nil {
			return Extraction{Kind: ExtractInvalid, Reason: err.Error(), Arg: arg}
		}
		return Extraction{Kind: ExtractTemplate, Template: value, Arg: arg}

	case jsast.KindTemplateString:
		for i := uint(0); i < arg.NamedChildCount(); i++ {
			if child := arg.NamedChild(i); child != nil && child.Kind() == jsast.KindTemplateSubstitution {
				return Extraction{Kind: ExtractInvalid, Reason: unsupportedLiteralReason, Arg: arg}
			}
		}
		// raw text between the backticks, line endings normalized to \n
		raw := string(source[arg.StartByte()+1 : arg.EndByte()-1])
		raw = strings.ReplaceAll(raw, "\r\n", "\n")
		raw = strings.ReplaceAll(raw, "\r", "\n")
		return Extraction{Kind: ExtractTemplate, Template: raw, Arg: arg}
	}

	return Extraction{Kind: ExtractInvalid, Reason: unsupportedLiteralReason, Arg: arg}
}
