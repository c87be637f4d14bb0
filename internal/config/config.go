// Package config loads precompile options.
//
// Options are resolved from, lowest to highest priority:
//  1. Default()
//  2. a config file: .viewprecompilerc (JSONC), .viewprecompilerc.json,
//     .viewprecompilerc.yaml / .yml, .viewprecompilerc.toml, or the
//     "viewPrecompile" key of package.json
//  3. command line flags, applied by the caller
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/precompile"
	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/transform"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Sentinel errors for error type checking
var (
	// ErrInvalidConfig indicates a config file could not be read or decoded
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidPattern indicates the placeholder pattern does not compile
	ErrInvalidPattern = errors.New("invalid placeholder pattern")
)

// Options is the user-facing configuration
type Options struct {
	// Engine selects the templating backend
	Engine string `json:"engine"`

	// PlaceholderPattern is an RE2 pattern; templates it does not match are
	// not precompiled. A JavaScript regex literal such as /\{\{.*\}\}/ is
	// accepted too.
	PlaceholderPattern string `json:"placeholderPattern"`

	// Regex is the older name of PlaceholderPattern and wins when set
	Regex string `json:"regex"`

	// Markers are the decorator names to precompile
	Markers []string `json:"markers"`

	// Include and Exclude are doublestar globs, relative to the working
	// directory, selecting the files to transform when none are given
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`

	// RuntimeVersion is the version of the engine's JavaScript runtime the
	// output will be loaded by; when set it must be able to load it
	RuntimeVersion string `json:"runtimeVersion"`

	// OutDir receives transformed files, mirroring their relative paths.
	// Empty writes to stdout, or in place with --write.
	OutDir string `json:"outDir"`
}

// DefaultPlaceholderPattern matches Handlebars {{...}} expressions
const DefaultPlaceholderPattern = `\{\{.*\}\}`

// ConfigFileNames are searched, in order, in the working directory
var ConfigFileNames = []string{
	".viewprecompilerc",
	".viewprecompilerc.json",
	".viewprecompilerc.yaml",
	".viewprecompilerc.yml",
	".viewprecompilerc.toml",
}

const packageJSONKey = "viewPrecompile"

// Default returns the default options
func Default() Options {
	return Options{
		Engine:             string(precompile.Handlebars),
		PlaceholderPattern: DefaultPlaceholderPattern,
		Markers:            []string{string(transform.View)},
		Include: []string{
			"**/*.js",
			"**/*.mjs",
			"**/*.jsx",
		},
		Exclude: []string{
			"**/node_modules/**",
		},
	}
}

// Load resolves options for dir. If path is non-empty that file is read and
// must exist; otherwise the config file names and package.json are tried in
// turn. It returns the options and the file they came from ("" when only
// defaults apply).
func Load(dir, path string) (Options, string, error) {
	opts := Default()

	if path == "" {
		path = Discover(dir)
	}

	var raw map[string]any
	var err error
	switch {
	case path != "":
		raw, err = ReadFile(path)
	default:
		path = filepath.Join(dir, "package.json")
		raw, err = readPackageJSON(path)
		if raw == nil && err == nil {
			path = ""
		}
	}
	if err != nil {
		return opts, path, err
	}

	if raw != nil {
		if err := decode(raw, &opts); err != nil {
			return opts, path, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
	}
	return opts, path, nil
}

// Discover returns the first config file found in dir, or ""
func Discover(dir string) string {
	for _, name := range ConfigFileNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// ReadFile reads a config file into a generic map. YAML and TOML are chosen
// by extension; everything else is parsed as JSON with comments.
func ReadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: config path comes from the user or the working directory
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrInvalidConfig, path, err)
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(jsonc.ToJSON(data), &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidConfig, path, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// readPackageJSON returns the viewPrecompile object of package.json, or nil
// if the file or the key does not exist
func readPackageJSON(path string) (map[string]any, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil // Not an error, just no config
	}

	pkg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	section, ok := pkg[packageJSONKey]
	if !ok {
		return nil, nil
	}
	configMap, ok := section.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: %s must be an object", ErrInvalidConfig, path, packageJSONKey)
	}
	return configMap, nil
}

func decode(raw map[string]any, out *Options) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		ZeroFields:       true,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// Pattern returns the effective placeholder pattern source
func (o Options) Pattern() string {
	if o.Regex != "" {
		return o.Regex
	}
	return o.PlaceholderPattern
}

// TransformConfig validates the options and builds the transform
// configuration. An unknown engine, an unknown marker, a pattern that does
// not compile and an incompatible runtime version are all errors.
func (o Options) TransformConfig() (transform.Config, error) {
	pattern, err := CompilePattern(o.Pattern())
	if err != nil {
		return transform.Config{}, err
	}

	engine := precompile.Engine(o.Engine)
	if _, err := precompile.Lookup(engine); err != nil {
		return transform.Config{}, err
	}

	if o.RuntimeVersion != "" {
		if err := precompile.CheckRuntime(engine, o.RuntimeVersion); err != nil {
			return transform.Config{}, err
		}
	}

	markers, err := transform.ParseMarkers(o.Markers)
	if err != nil {
		return transform.Config{}, err
	}

	return transform.Config{
		Engine:             engine,
		PlaceholderPattern: pattern,
		Markers:            markers,
	}, nil
}

var jsRegexLiteral = regexp.MustCompile(`^/(.*)/([a-z]*)$`)

// CompilePattern compiles an RE2 pattern. A JavaScript regex literal is
// unwrapped first; its i, m and s flags become RE2 flags and the others are
// ignored.
func CompilePattern(src string) (*regexp.Regexp, error) {
	if src == "" {
		return nil, fmt.Errorf("%w: pattern is empty", ErrInvalidPattern)
	}

	if m := jsRegexLiteral.FindStringSubmatch(src); m != nil {
		src = m[1]
		var flags strings.Builder
		for _, f := range m[2] {
			if strings.ContainsRune("ims", f) && !strings.ContainsRune(flags.String(), f) {
				flags.WriteRune(f)
			}
		}
		if flags.Len() > 0 {
			src = "(?" + flags.String() + ")" + src
		}
	}

	re, err := regexp.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return re, nil
}
