package tools

import (
	"fmt"
	"math"
	"strconv"
)

// StringArg returns the named string argument. Missing or non-string values are an error.
func StringArg(params map[string]interface{}, name string) (string, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return "", fmt.Errorf("missing argument %q", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", name, v)
	}
	return s, nil
}

// OptionalString returns the named string argument or def.
func OptionalString(params map[string]interface{}, name, def string) string {
	if s, ok := params[name].(string); ok && s != "" {
		return s
	}
	return def
}

// IntArg returns the named integer argument or def when absent.
func IntArg(params map[string]interface{}, name string, def int) (int, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("argument %q must be an integer, got %v", name, n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("argument %q must be an integer, got %q", name, n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("argument %q must be an integer, got %T", name, v)
	}
}
