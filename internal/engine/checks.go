package engine

import (
	"strconv"
	"strings"

	"github.com/arkhound/ballast/pkg/jsonpath"
	"github.com/arkhound/ballast/pkg/jsonschema"
)

// statusMatches compares an observed status code against an expected
// value that is either an exact code ("404") or a class pattern ("2xx").
func statusMatches(status int, want string) bool {
	if want == "" {
		return true
	}
	if strings.HasSuffix(strings.ToLower(want), "xx") {
		class := strings.TrimSuffix(strings.ToLower(want), "xx")
		n, err := strconv.Atoi(class)
		if err != nil {
			return false
		}
		return status/100 == n
	}
	n, err := strconv.Atoi(want)
	if err != nil {
		return false
	}
	return status == n
}

// validateSchema checks response body bytes against a JSON Schema
// document, via the shared pkg/jsonschema validator. Any parse error on
// either side is treated as a failed check rather than propagated -
// checks never fail a request outright.
func validateSchema(body []byte, schema string) bool {
	ok, err := jsonschema.Validate(string(body), schema)
	if err != nil {
		return false
	}
	return ok
}

// extractVariable pulls a named value out of a response for later
// interpolation, per Extraction.Source.
func extractVariable(ex Extraction, status int, headers map[string]string, body []byte) (string, bool) {
	switch ex.Source {
	case "status":
		return strconv.Itoa(status), true
	case "header":
		v, ok := headers[ex.Path]
		return v, ok
	case "body":
		v, err := jsonpath.Extract(string(body), ex.Path)
		if err != nil {
			return "", false
		}
		return v, true
	default:
		return "", false
	}
}
