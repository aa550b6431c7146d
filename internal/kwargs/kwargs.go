// Package kwargs builds the JSON-encoded kwargs string the downstream
// collection job expects from repeatable key=value flags. It exists purely
// as a convenience; a raw kwargs document given on the command line is
// always forwarded untouched instead.
//
// Known downstream keys include urls, tiktok, storage_format, max_pages,
// account_tab, search_keyword, proxy and timeout, but the set is owned by
// the workflow, so nothing is validated here.
package kwargs

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Build assembles pairs of the form key=value into a JSON object string.
// Values that parse as booleans or integers are encoded as such; everything
// else stays a string. Keys sort lexically in the output (encoding/json map
// ordering), which keeps the result deterministic.
func Build(pairs []string) (string, error) {
	if len(pairs) == 0 {
		return "", fmt.Errorf("kwargs: no key=value pairs given")
	}
	values := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return "", fmt.Errorf("kwargs: invalid pair %q, expected key=value", pair)
		}
		values[key] = typedValue(raw)
	}
	out, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("kwargs: encode: %w", err)
	}
	return string(out), nil
}

func typedValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	return raw
}
