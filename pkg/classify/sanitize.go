package classify

import (
	"fmt"
	"strings"

	"clasificador/pkg/schema"
	"clasificador/pkg/utils"
)

const observacionesKey = "observaciones"

// Sanitize coerces an upstream mapping onto the category schema. Unknown or
// out-of-schema values become the category sentinel and missing categories
// are filled with it. It reports false only when raw is not a mapping.
func Sanitize(raw any) (*schema.Result, bool) {
	var fields map[string]any
	switch m := raw.(type) {
	case map[string]any:
		fields = m
	case map[string]string:
		fields = make(map[string]any, len(m))
		for k, v := range m {
			fields[k] = v
		}
	case map[schema.Category]string:
		fields = make(map[string]any, len(m))
		for k, v := range m {
			fields[string(k)] = v
		}
	default:
		return nil, false
	}

	res := new(schema.Result)
	for _, c := range schema.Categories() {
		res.Set(c, schema.Sentinel(c))
	}

	// An exact canonical key wins over a differently cased duplicate.
	canonical := make(map[schema.Category]bool, len(fields))
	for key, value := range fields {
		if strings.EqualFold(strings.TrimSpace(key), observacionesKey) {
			res.Observaciones = utils.TruncateRunes(stringify(value), schema.MaxObservaciones)
			continue
		}
		c, ok := schema.Lookup(key)
		if !ok {
			continue
		}
		exact := key == string(c)
		if canonical[c] && !exact {
			continue
		}
		canonical[c] = exact

		v := schema.Sentinel(c)
		if s, ok := value.(string); ok && schema.IsAllowed(c, strings.TrimSpace(s)) {
			v = strings.TrimSpace(s)
		}
		res.Set(c, v)
	}

	return res, true
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
