package bridge

import (
	"encoding/json"
	"math"
)

// intArg reads a required integer argument. Transports decode numbers
// differently, so any integral numeric representation is accepted.
func intArg(args map[string]any, key string) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return 0, badArgs("missing coordinates: %q is required", key)
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		if v > math.MaxInt32 || v < math.MinInt32 {
			return 0, badArgs("%q out of range: %d", key, v)
		}
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || v > math.MaxInt32 || v < math.MinInt32 {
			return 0, badArgs("%q must be an integer, got %v", key, v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, badArgs("%q must be an integer, got %q", key, v.String())
		}
		return intArg(map[string]any{key: n}, key)
	default:
		return 0, badArgs("%q must be an integer, got %T", key, raw)
	}
}

// optionalString reads an optional string argument; absent or null is "".
func optionalString(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", badArgs("%q must be a string, got %T", key, raw)
	}
	return s, nil
}
