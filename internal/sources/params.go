package sources

import (
	"fmt"
	"strconv"
)

// stringParam returns the string value for key from params, falling
// back to the given default. Parameter maps come from JSON/YAML parsing,
// so values need type assertions.
func stringParam(params map[string]interface{}, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// scalarParam returns the value for key rendered as a string. YAML
// parses bare numbers as ints and JSON as float64s, so numeric scalars
// are formatted rather than dropped.
func scalarParam(params map[string]interface{}, key, fallback string) string {
	switch v := params[key].(type) {
	case string:
		if v != "" {
			return v
		}
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fallback
}

// floatParam returns the numeric value for key, accepting the int and
// float64 shapes produced by YAML and JSON parsing.
func floatParam(params map[string]interface{}, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// stringSlice coerces a parsed parameter value into a string slice.
// JSON/YAML decoding produces []interface{}; programmatic callers may
// pass []string directly.
func stringSlice(v interface{}) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// intSlice coerces a parsed parameter value into an int slice.
// JSON decoding produces float64 elements, YAML produces int elements.
func intSlice(v interface{}) []int {
	switch vals := v.(type) {
	case []int:
		return vals
	case []interface{}:
		out := make([]int, 0, len(vals))
		for _, item := range vals {
			switch n := item.(type) {
			case int:
				out = append(out, n)
			case float64:
				out = append(out, int(n))
			}
		}
		return out
	default:
		return nil
	}
}

// requireStringSlice returns the string slice for key from params or an
// error naming the missing field.
func requireStringSlice(params map[string]interface{}, key string) ([]string, error) {
	vals := stringSlice(params[key])
	if len(vals) == 0 {
		return nil, fmt.Errorf("required field %q is missing or empty", key)
	}
	return vals, nil
}
