// Package dispatcher implements the three sink components (Kafka, Redis,
// Elasticsearch) that terminate the pipeline, plus the template
// substitution engine shared by all three for materializing a
// destination identifier (topic, key/channel, index) from an event.
package dispatcher

import (
	"fmt"
	"regexp"

	"github.com/wlf-engine/wlf/pkg/value"
)

var templatePattern = regexp.MustCompile(`%\{(.+?)\}`)

// Substitute replaces every "%{<json-pointer>}" occurrence in template
// with the string found at that pointer in ev. Substitution is
// all-or-nothing: if any capture fails to resolve to a string, the whole
// call fails and returns no partial result.
func Substitute(template string, ev value.Value) (string, error) {
	var firstErr error
	out := templatePattern.ReplaceAllStringFunc(template, func(match string) string {
		if firstErr != nil {
			return ""
		}
		path := templatePattern.FindStringSubmatch(match)[1]
		field, ok := ev.Pointer(path)
		if !ok {
			firstErr = fmt.Errorf("no %s field or %s is not string, event: %s", path, path, ev.String())
			return ""
		}
		s, ok := field.AsString()
		if !ok {
			firstErr = fmt.Errorf("no %s field or %s is not string, event: %s", path, path, ev.String())
			return ""
		}
		return s
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}
