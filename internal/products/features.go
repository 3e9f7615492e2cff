package products

import (
	"encoding/json"
	"sort"
	"strings"
)

// ParseFeatures builds the feature list from a JSON-encoded string array plus
// bracket form fields (features[key]=value), which become "key: value" entries
// in key order after the JSON entries.
func ParseFeatures(raw string, bracket map[string]string) ([]string, error) {
	features := []string{}
	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		if err := json.Unmarshal([]byte(trimmed), &features); err != nil {
			var keyed map[string]string
			if mapErr := json.Unmarshal([]byte(trimmed), &keyed); mapErr != nil {
				return nil, err
			}
			if bracket == nil {
				bracket = map[string]string{}
			}
			for k, v := range keyed {
				if _, dup := bracket[k]; !dup {
					bracket[k] = v
				}
			}
		}
	}

	keys := make([]string, 0, len(bracket))
	for k := range bracket {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		features = append(features, k+": "+bracket[k])
	}

	out := features[:0]
	for _, f := range features {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out, nil
}
