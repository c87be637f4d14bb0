package handlebars

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// minimumRuntime is the lowest version matching RuntimeVersions
var minimumRuntime = semver.MustParse("4.3.0")

// CheckRuntime reports whether a Handlebars runtime of the given version can
// load templates produced by Precompile
func CheckRuntime(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: invalid version %q: %v", ErrRuntimeVersion, version, err)
	}
	constraint, err := semver.NewConstraint(RuntimeVersions)
	if err != nil {
		return fmt.Errorf("invalid runtime constraint %s: %w", RuntimeVersions, err)
	}
	if !constraint.Check(v) {
		return &RuntimeVersionError{Version: v.String(), Minimum: minimumRuntime.String()}
	}
	return nil
}
