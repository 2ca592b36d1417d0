package config

import (
	"fmt"
	"os"
	"regexp"
)

// envPattern matches ${VAR} and ${VAR:-default}, applied to the raw YAML
// document before unmarshalling - grounded in the original Rust
// interpolate_env_vars, reimplemented against stdlib regexp instead of
// regex-lite.
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// interpolateEnv expands ${VAR} / ${VAR:-default} references in content.
// A reference with no default that names an unset variable is an error,
// not a silent empty-string substitution.
func interpolateEnv(content string) (string, error) {
	var firstErr error
	result := envPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envPattern.FindStringSubmatch(match)
		name, hasDefault, def := groups[1], groups[2] != "", groups[3]

		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		if hasDefault {
			return def
		}
		if firstErr == nil {
			firstErr = fmt.Errorf("environment variable %q not set and no default given", name)
		}
		return match
	})
	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}
