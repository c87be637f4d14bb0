package handlebars_test

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/precompile/handlebars"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var update = flag.Bool("update", false, "update golden files")

func TestPrecompileSpecShape(t *testing.T) {
	spec, err := handlebars.Precompile("Hi {{user}}")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(spec, `{"compiler":[8,">= 4.3.0"],"main":function(container,depth0,helpers,partials,data,blockParams,depths) {`), spec)
	assert.True(t, strings.HasSuffix(spec, `,"useData":true}`), spec)
	assert.Contains(t, spec, `return "Hi "`)
	assert.Contains(t, spec, `container.escapeExpression(((helper = (helper = lookupProperty(helpers,"user") || (depth0 != null ? lookupProperty(depth0,"user") : depth0)) != null ? helper : container.hooks.helperMissing)`)
	assert.NotContains(t, spec, `"usePartial"`)
	assert.NotContains(t, spec, `"useDepths"`)
}

func TestPrecompileDeterministic(t *testing.T) {
	const source = `{{#each items as |item i|}}{{i}}: {{item.name}} {{> row item}}{{/each}}`
	first, err := handlebars.Precompile(source)
	require.NoError(t, err)
	for range 5 {
		again, err := handlebars.Precompile(source)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPrecompileConstructs(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		contains []string
		absent   []string
	}{
		{
			name:   "plain content",
			source: "no placeholders here",
			contains: []string{
				`return "no placeholders here";`,
			},
		},
		{
			name:   "empty template",
			source: "",
			contains: []string{
				`return "";`,
			},
		},
		{
			name:   "content is quoted for javascript",
			source: "line \"one\"\n<b>two</b>{{x}}",
			contains: []string{
				`"line \"one\"\n<b>two</b>"`,
			},
		},
		{
			name:   "comment is dropped",
			source: "a{{! secret }}b",
			contains: []string{
				`"a"`,
				`"b"`,
			},
			absent: []string{"secret"},
		},
		{
			name:   "triple stash is not escaped",
			source: "{{{html}}}",
			contains: []string{
				`((stack1 = ((helper = (helper = lookupProperty(helpers,"html")`,
			},
			absent: []string{"escapeExpression"},
		},
		{
			name:   "dotted path uses lambda",
			source: "{{user.name}}",
			contains: []string{
				`container.escapeExpression(container.lambda(((stack1 = (depth0 != null ? lookupProperty(depth0,"user") : depth0)) != null ? lookupProperty(stack1,"name") : stack1), depth0))`,
			},
		},
		{
			name:   "helper with params and hash",
			source: `{{format date "short" upper=true limit=3}}`,
			contains: []string{
				`(lookupProperty(helpers,"format") || (depth0 && lookupProperty(depth0,"format")) || container.hooks.helperMissing).call(depth0 != null ? depth0 : (container.nullContext || {}),(depth0 != null ? lookupProperty(depth0,"date") : depth0),"short",{"name":"format","hash":{"upper":true,"limit":3},"data":data})`,
			},
		},
		{
			name:   "sub-expression",
			source: `{{outer (inner a)}}`,
			contains: []string{
				`(lookupProperty(helpers,"inner") || (depth0 && lookupProperty(depth0,"inner")) || container.hooks.helperMissing).call(`,
				`{"name":"inner","hash":{},"data":data}`,
				`{"name":"outer","hash":{},"data":data}`,
			},
		},
		{
			name:   "if else block",
			source: `{{#if ok}}yes{{else}}no{{/if}}`,
			contains: []string{
				`"1":function(container,depth0,helpers,partials,data,blockParams,depths)`,
				`"2":function(container,depth0,helpers,partials,data,blockParams,depths)`,
				`"fn":container.program(1, data, 0, blockParams, depths),"inverse":container.program(2, data, 0, blockParams, depths)`,
				`return "yes";`,
				`return "no";`,
			},
		},
		{
			name:   "block without else has noop inverse",
			source: `{{#with person}}{{name}}{{/with}}`,
			contains: []string{
				`"inverse":container.noop`,
			},
		},
		{
			name:   "bare block falls back to blockHelperMissing",
			source: `{{#items}}x{{/items}}`,
			contains: []string{
				`container.hooks.blockHelperMissing.call(depth0,`,
			},
		},
		{
			name:   "data variable",
			source: `{{#each list}}{{@index}}{{/each}}`,
			contains: []string{
				`(data != null ? lookupProperty(data,"index") : data)`,
			},
		},
		{
			name:   "parent scope",
			source: `{{#each list}}{{../title}}{{/each}}`,
			contains: []string{
				`(depths[1] != null ? lookupProperty(depths[1],"title") : depths[1])`,
				`"useDepths":true`,
			},
		},
		{
			name:   "block params",
			source: `{{#each list as |value key|}}{{key}}={{value}}{{/each}}`,
			contains: []string{
				`container.program(1, data, 2, blockParams, depths)`,
				`blockParams[0][1]`,
				`blockParams[0][0]`,
				`"useBlockParams":true`,
			},
		},
		{
			name:   "index segment literal",
			source: "{{items.[0]}}",
			contains: []string{
				`((stack1 = (depth0 != null ? lookupProperty(depth0,"items") : depth0)) != null ? lookupProperty(stack1,"0") : stack1)`,
			},
			absent: []string{`"[0]"`},
		},
		{
			name:   "segment literal with a space",
			source: "{{[foo bar]}}",
			contains: []string{
				`lookupProperty(depth0,"foo bar")`,
				`{"name":"foo bar","hash":{},"data":data}`,
			},
			absent: []string{`[foo bar]`},
		},
		{
			name:   "segment literals in helper name and hash",
			source: `{{[my-helper] x [data-id]=[user id]}}`,
			contains: []string{
				`lookupProperty(helpers,"my-helper")`,
				`{"data-id":(depth0 != null ? lookupProperty(depth0,"user id") : depth0)}`,
			},
			absent: []string{`"[`},
		},
		{
			name:   "dotted helper path with segment literal",
			source: `{{lib.[format] x}}`,
			contains: []string{
				`lookupProperty(stack1,"format")`,
				`{"name":"lib.format"`,
			},
		},
		{
			name:   "segment literal after block param",
			source: `{{#each list as |row|}}{{row.[first name]}}{{/each}}`,
			contains: []string{
				`(blockParams[0][0] != null ? lookupProperty(blockParams[0][0],"first name") : blockParams[0][0])`,
			},
		},
		{
			name:   "partial",
			source: `{{> header title="Home"}}`,
			contains: []string{
				`container.invokePartial(lookupProperty(partials,"header"),depth0,{"name":"header","hash":{"title":"Home"},"data":data,"helpers":helpers,"partials":partials,"decorators":container.decorators})`,
				`"usePartial":true`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := handlebars.Precompile(tt.source)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, spec, want)
			}
			for _, unwanted := range tt.absent {
				assert.NotContains(t, spec, unwanted)
			}
		})
	}
}

func TestPrecompileParseError(t *testing.T) {
	_, err := handlebars.Precompile("{{#if ok}}unterminated")
	require.Error(t, err)
	assert.ErrorIs(t, err, handlebars.ErrParse)

	var parseErr *handlebars.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestPrecompileGolden(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{name: "segment-literal", source: "{{[foo bar]}}"},
		{name: "index-segment", source: "{{items.[0]}}"},
		{name: "escaped-newline", source: `a\n{{b}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := handlebars.Precompile(tt.source)
			require.NoError(t, err)

			golden := filepath.Join("testdata", "golden", tt.name+".js")
			if *update {
				require.NoError(t, os.WriteFile(golden, []byte(spec+"\n"), 0o644))
				return
			}
			want, err := os.ReadFile(golden)
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSuffix(string(want), "\n"), spec)
		})
	}
}

func TestPrecompileUnsupportedSyntax(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		construct string
		line      int
	}{
		{
			name:      "partial block",
			source:    "{{#> layout}}fallback {{x}}{{/layout}}",
			construct: "partial block",
			line:      1,
		},
		{
			name:      "inline partial",
			source:    "<ul>\n{{#*inline \"p\"}}x{{/inline}}\n{{> p}}</ul>",
			construct: "inline partial",
			line:      2,
		},
		{
			name:      "decorator",
			source:    "a\nb\n{{~* decorate}}",
			construct: "decorator",
			line:      3,
		},
		{
			name:      "earliest construct wins",
			source:    "{{#*inline \"p\"}}x{{/inline}}\n{{#> p}}{{/p}}",
			construct: "inline partial",
			line:      1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handlebars.Precompile(tt.source)
			require.Error(t, err)
			assert.ErrorIs(t, err, handlebars.ErrUnsupported)
			assert.NotErrorIs(t, err, handlebars.ErrParse)

			var unsupported *handlebars.UnsupportedError
			require.ErrorAs(t, err, &unsupported)
			assert.Contains(t, unsupported.Construct, tt.construct)
			assert.Equal(t, tt.line, unsupported.Line)
		})
	}
}
