package bridge

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Args are the positional JSON arguments of one invocation.
type Args []json.RawMessage

// ParseArgs decodes a JSON array body. An empty body means no arguments.
func ParseArgs(body []byte) (Args, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}
	var args Args
	if err := json.Unmarshal(body, &args); err != nil {
		return nil, fmt.Errorf("%w: body must be a JSON array: %v", ErrInvalidArgs, err)
	}
	return args, nil
}

// String returns argument i, which must be a non-empty string.
func (a Args) String(i int) (string, error) {
	s, err := a.OptionalString(i)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: argument %d is required", ErrInvalidArgs, i)
	}
	return s, nil
}

// OptionalString returns argument i, or "" when it is absent or null.
func (a Args) OptionalString(i int) (string, error) {
	if i >= len(a) {
		return "", nil
	}
	raw := strings.TrimSpace(string(a[i]))
	if raw == "" || raw == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(a[i], &s); err != nil {
		return "", fmt.Errorf("%w: argument %d must be a string", ErrInvalidArgs, i)
	}
	return s, nil
}
