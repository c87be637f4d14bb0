// Package handlebars precompiles Handlebars templates into the template spec
// object consumed by the Handlebars 4.x JavaScript runtime
// (Handlebars.template(spec)).
//
// Templates are parsed with github.com/aymerick/raymond, whose AST mirrors the
// one produced by handlebars.js, so whitespace control and standalone-line
// stripping are already applied to content statements when code generation
// starts.
package handlebars

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aymerick/raymond/ast"
	"github.com/aymerick/raymond/parser"
)

const (
	// CompilerRevision is checked by the runtime against its own revision
	CompilerRevision = 8
	// RuntimeVersions is the runtime range reported alongside the revision
	RuntimeVersions = ">= 4.3.0"
)

const programParams = "container,depth0,helpers,partials,data,blockParams,depths"

const programPrologue = `    var stack1, helper, lookupProperty = container.lookupProperty || function(parent, propertyName) {
        if (Object.prototype.hasOwnProperty.call(parent, propertyName)) {
          return parent[propertyName];
        }
        return undefined
    };
`

// Precompile parses source and returns the JavaScript source of its template
// spec object. The output depends only on source.
func Precompile(source string) (string, error) {
	program, err := parser.Parse(source)
	if err != nil {
		if unsupported := unsupportedSyntax(source); unsupported != nil {
			return "", unsupported
		}
		return "", &ParseError{Err: err}
	}

	c := &compiler{}
	main, err := c.compileProgram(program, nil)
	if err != nil {
		return "", err
	}
	return c.spec(main), nil
}

// Handlebars 4 syntax the parser does not know
var unsupportedSyntaxes = []struct {
	construct string
	pattern   *regexp.Regexp
}{
	{"partial block {{#> ...}}", regexp.MustCompile(`\{\{~?\s*#>`)},
	{"inline partial or decorator block {{#* ...}}", regexp.MustCompile(`\{\{~?\s*#\*`)},
	{"decorator {{* ...}}", regexp.MustCompile(`\{\{~?\s*\*`)},
}

// unsupportedSyntax names the first known construct in source that explains
// a parse failure, or returns nil
func unsupportedSyntax(source string) *UnsupportedError {
	var found *UnsupportedError
	first := len(source)
	for _, s := range unsupportedSyntaxes {
		loc := s.pattern.FindStringIndex(source)
		if loc == nil || loc[0] >= first {
			continue
		}
		first = loc[0]
		found = &UnsupportedError{Construct: s.construct, Line: strings.Count(source[:loc[0]], "\n") + 1}
	}
	return found
}

type compiler struct {
	// programs holds the nested block programs; program i is keyed "i+1"
	programs []string

	usePartial     bool
	useDepths      bool
	useBlockParams bool
}

// spec assembles the template spec object literal
func (c *compiler) spec(main string) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, program := range c.programs {
		fmt.Fprintf(&b, "%q:%s,", strconv.Itoa(i+1), program)
	}
	fmt.Fprintf(&b, `"compiler":[%d,%s],"main":%s,"useData":true`, CompilerRevision, jsString(RuntimeVersions), main)
	if c.usePartial {
		b.WriteString(`,"usePartial":true`)
	}
	if c.useDepths {
		b.WriteString(`,"useDepths":true`)
	}
	if c.useBlockParams {
		b.WriteString(`,"useBlockParams":true`)
	}
	b.WriteByte('}')
	return b.String()
}

// compileProgram returns the function source for one program. scopes holds the
// block parameter names of every enclosing program, innermost first; the
// runtime adds one blockParams entry per nesting level whether or not the
// level declares any.
func (c *compiler) compileProgram(program *ast.Program, scopes [][]string) (string, error) {
	scopes = append([][]string{program.BlockParams}, scopes...)

	var parts []string
	for _, node := range program.Body {
		part, err := c.statement(node, scopes)
		if err != nil {
			return "", err
		}
		if part != "" {
			parts = append(parts, part)
		}
	}

	var b strings.Builder
	b.WriteString("function(" + programParams + ") {\n")
	b.WriteString(programPrologue)
	b.WriteString("\n  return ")
	if len(parts) == 0 {
		b.WriteString(`""`)
	} else {
		b.WriteString(strings.Join(parts, "\n    + "))
	}
	b.WriteString(";\n}")
	return b.String(), nil
}

// reserveProgram compiles a nested program and returns the runtime
// expression that instantiates it
func (c *compiler) reserveProgram(program *ast.Program, scopes [][]string) (string, error) {
	if program == nil {
		return "container.noop", nil
	}
	idx := len(c.programs)
	c.programs = append(c.programs, "")
	src, err := c.compileProgram(program, scopes)
	if err != nil {
		return "", err
	}
	c.programs[idx] = src
	return fmt.Sprintf("container.program(%d, data, %d, blockParams, depths)", idx+1, len(program.BlockParams)), nil
}

func (c *compiler) statement(node ast.Node, scopes [][]string) (string, error) {
	switch n := node.(type) {
	case *ast.ContentStatement:
		if n.Value == "" {
			return "", nil
		}
		return jsString(n.Value), nil
	case *ast.CommentStatement:
		return "", nil
	case *ast.MustacheStatement:
		return c.mustache(n, scopes)
	case *ast.BlockStatement:
		return c.block(n, scopes)
	case *ast.PartialStatement:
		return c.partial(n, scopes)
	default:
		return "", &UnsupportedError{Construct: fmt.Sprintf("statement %T", node), Line: node.Location().Line}
	}
}

func (c *compiler) mustache(n *ast.MustacheStatement, scopes [][]string) (string, error) {
	expr := n.Expression
	var value string
	var err error

	switch {
	case len(expr.Params) == 0 && expr.Hash == nil:
		if name, ok := c.simpleName(expr.Path, scopes); ok {
			value = c.ambiguous(name)
		} else {
			var path string
			path, err = c.param(expr.Path, scopes)
			value = "container.lambda(" + path + ", depth0)"
		}
	default:
		value, err = c.helperCall(expr, scopes, "")
	}
	if err != nil {
		return "", err
	}

	if n.Unescaped {
		return nullToEmpty(value), nil
	}
	return "container.escapeExpression(" + value + ")", nil
}

// ambiguous resolves a bare {{name}}: a helper named name wins over a
// property of the current context
func (c *compiler) ambiguous(name string) string {
	q := jsString(name)
	return fmt.Sprintf(`((helper = (helper = lookupProperty(helpers,%s) || (depth0 != null ? lookupProperty(depth0,%s) : depth0)) != null ? helper : container.hooks.helperMissing),(typeof helper === "function" ? helper.call(%s,{"name":%s,"hash":{},"data":data}) : helper))`,
		q, q, contextExpr, q)
}

func (c *compiler) block(n *ast.BlockStatement, scopes [][]string) (string, error) {
	fn, err := c.reserveProgram(n.Program, scopes)
	if err != nil {
		return "", err
	}
	inverse, err := c.reserveProgram(n.Inverse, scopes)
	if err != nil {
		return "", err
	}
	extra := `,"fn":` + fn + `,"inverse":` + inverse

	expr := n.Expression
	if len(expr.Params) == 0 && expr.Hash == nil {
		if name, ok := c.simpleName(expr.Path, scopes); ok {
			q := jsString(name)
			options := fmt.Sprintf(`{"name":%s,"hash":{}%s,"data":data}`, q, extra)
			value := fmt.Sprintf("container.lambda((depth0 != null ? lookupProperty(depth0,%s) : depth0), depth0)", q)
			call := fmt.Sprintf("((helper = lookupProperty(helpers,%s)) != null ? helper.call(%s,%s) : container.hooks.blockHelperMissing.call(depth0,%s,%s))",
				q, contextExpr, options, value, options)
			return nullToEmpty(call), nil
		}
	}

	call, err := c.helperCall(expr, scopes, extra)
	if err != nil {
		return "", err
	}
	return nullToEmpty(call), nil
}

func (c *compiler) partial(n *ast.PartialStatement, scopes [][]string) (string, error) {
	c.usePartial = true

	var partialExpr, nameExpr string
	switch name := n.Name.(type) {
	case *ast.PathExpression:
		nameExpr = jsString(originalName(name.Original))
		partialExpr = "lookupProperty(partials," + nameExpr + ")"
	case *ast.StringLiteral:
		nameExpr = jsString(name.Value)
		partialExpr = "lookupProperty(partials," + nameExpr + ")"
	case *ast.NumberLiteral:
		nameExpr = jsString(name.Original)
		partialExpr = "lookupProperty(partials," + nameExpr + ")"
	case *ast.SubExpression:
		dynamic, err := c.helperCall(name.Expression, scopes, "")
		if err != nil {
			return "", err
		}
		nameExpr = dynamic
		partialExpr = "undefined"
	default:
		return "", &UnsupportedError{Construct: fmt.Sprintf("partial name %T", n.Name), Line: n.Location().Line}
	}

	if len(n.Params) > 1 {
		return "", &UnsupportedError{Construct: "partial with more than one context parameter", Line: n.Location().Line}
	}
	context := "depth0"
	if len(n.Params) == 1 {
		var err error
		if context, err = c.param(n.Params[0], scopes); err != nil {
			return "", err
		}
	}

	hash, err := c.hash(n.Hash, scopes)
	if err != nil {
		return "", err
	}

	var options strings.Builder
	fmt.Fprintf(&options, `{"name":%s,"hash":%s,"data":data`, nameExpr, hash)
	if n.Indent != "" {
		fmt.Fprintf(&options, `,"indent":%s`, jsString(n.Indent))
	}
	options.WriteString(`,"helpers":helpers,"partials":partials,"decorators":container.decorators}`)

	return nullToEmpty(fmt.Sprintf("container.invokePartial(%s,%s,%s)", partialExpr, context, options.String())), nil
}

// helperCall invokes the helper named by expr.Path with its params and hash.
// extra is appended to the options object (fn/inverse for blocks).
func (c *compiler) helperCall(expr *ast.Expression, scopes [][]string, extra string) (string, error) {
	var callee, name string
	if simple, ok := c.simpleName(expr.Path, scopes); ok {
		name = simple
		q := jsString(name)
		callee = fmt.Sprintf("(lookupProperty(helpers,%s) || (depth0 && lookupProperty(depth0,%s)) || container.hooks.helperMissing)", q, q)
	} else {
		path, ok := expr.Path.(*ast.PathExpression)
		if !ok {
			return "", &UnsupportedError{Construct: fmt.Sprintf("helper name %T", expr.Path), Line: expr.Location().Line}
		}
		name = originalName(path.Original)
		value, err := c.param(path, scopes)
		if err != nil {
			return "", err
		}
		callee = "(" + value + " || container.hooks.helperMissing)"
	}

	args := []string{contextExpr}
	for _, p := range expr.Params {
		arg, err := c.param(p, scopes)
		if err != nil {
			return "", err
		}
		args = append(args, arg)
	}

	hash, err := c.hash(expr.Hash, scopes)
	if err != nil {
		return "", err
	}
	args = append(args, fmt.Sprintf(`{"name":%s,"hash":%s%s,"data":data}`, jsString(name), hash, extra))

	return callee + ".call(" + strings.Join(args, ",") + ")", nil
}

func (c *compiler) hash(h *ast.Hash, scopes [][]string) (string, error) {
	if h == nil || len(h.Pairs) == 0 {
		return "{}", nil
	}
	pairs := make([]string, 0, len(h.Pairs))
	for _, pair := range h.Pairs {
		value, err := c.param(pair.Val, scopes)
		if err != nil {
			return "", err
		}
		pairs = append(pairs, jsString(unbracket(pair.Key))+":"+value)
	}
	return "{" + strings.Join(pairs, ",") + "}", nil
}

// param compiles a parameter, hash value or non-helper path to a value
func (c *compiler) param(node ast.Node, scopes [][]string) (string, error) {
	switch n := node.(type) {
	case *ast.PathExpression:
		return c.lookup(n, scopes), nil
	case *ast.SubExpression:
		return c.helperCall(n.Expression, scopes, "")
	case *ast.StringLiteral:
		return jsString(n.Value), nil
	case *ast.NumberLiteral:
		return n.Original, nil
	case *ast.BooleanLiteral:
		return strconv.FormatBool(n.Value), nil
	default:
		return "", &UnsupportedError{Construct: fmt.Sprintf("parameter %T", node), Line: node.Location().Line}
	}
}

// simpleName reports whether path names a helper candidate: a single
// unscoped identifier at depth 0 that is not a block parameter, or a literal
func (c *compiler) simpleName(path ast.Node, scopes [][]string) (string, bool) {
	switch p := path.(type) {
	case *ast.PathExpression:
		if p.Data || p.Scoped || p.Depth > 0 || len(p.Parts) != 1 {
			return "", false
		}
		name := unbracket(p.Parts[0])
		if _, _, ok := blockParam(name, scopes); ok {
			return "", false
		}
		return name, true
	case *ast.StringLiteral:
		return p.Value, true
	case *ast.NumberLiteral:
		return p.Original, true
	case *ast.BooleanLiteral:
		return p.Original, true
	}
	return "", false
}

// lookup resolves a path against the context stack, @data or block params
func (c *compiler) lookup(p *ast.PathExpression, scopes [][]string) string {
	base := "depth0"
	parts := make([]string, len(p.Parts))
	for i, part := range p.Parts {
		parts[i] = unbracket(part)
	}

	switch {
	case p.Data && p.Depth > 0:
		base = fmt.Sprintf("container.data(data, %d)", p.Depth)
	case p.Data:
		base = "data"
	case p.Depth > 0:
		c.useDepths = true
		base = fmt.Sprintf("depths[%d]", p.Depth)
	case !p.Scoped && len(parts) > 0:
		if scope, index, ok := blockParam(parts[0], scopes); ok {
			c.useBlockParams = true
			base = fmt.Sprintf("blockParams[%d][%d]", scope, index)
			parts = parts[1:]
		}
	}

	expr := base
	for i, part := range parts {
		q := jsString(part)
		if i == 0 {
			expr = fmt.Sprintf("(%s != null ? lookupProperty(%s,%s) : %s)", base, base, q, base)
			continue
		}
		expr = fmt.Sprintf("((stack1 = %s) != null ? lookupProperty(stack1,%s) : stack1)", expr, q)
	}
	return expr
}

func blockParam(name string, scopes [][]string) (scope, index int, ok bool) {
	for s, params := range scopes {
		for i, param := range params {
			if param == name {
				return s, i, true
			}
		}
	}
	return 0, 0, false
}

// unbracket strips the brackets of a segment literal such as [foo bar]
func unbracket(part string) string {
	if len(part) >= 2 && part[0] == '[' && part[len(part)-1] == ']' {
		return part[1 : len(part)-1]
	}
	return part
}

// originalName strips segment-literal brackets from a dotted or slashed
// path as written, e.g. "items.[0]" becomes "items.0"
func originalName(original string) string {
	var b strings.Builder
	for i := 0; i < len(original); i++ {
		if original[i] == '[' && (i == 0 || strings.IndexByte("./@", original[i-1]) >= 0) {
			if end := strings.IndexByte(original[i:], ']'); end > 0 {
				b.WriteString(original[i+1 : i+end])
				i += end
				continue
			}
		}
		b.WriteByte(original[i])
	}
	return b.String()
}

const contextExpr = "depth0 != null ? depth0 : (container.nullContext || {})"

func nullToEmpty(expr string) string {
	return `((stack1 = ` + expr + `) != null ? stack1 : "")`
}

// jsString quotes s as a JavaScript string literal
func jsString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// strings always encode
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
