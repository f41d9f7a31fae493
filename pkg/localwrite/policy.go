package localwrite

import (
	"errors"
	"fmt"
	"strings"
)

// Policy decides what happens when a download target already exists locally.
type Policy uint8

const (
	// Skip never touches existing local entries.
	Skip Policy = iota
	// Replace overwrites existing files even when they look unchanged.
	Replace
	// Upsert overwrites existing files only when their modification time differs.
	Upsert
)

// DefaultPolicy is used when no policy is configured.
const DefaultPolicy = Upsert

var ErrInvalidPolicy = errors.New("invalid conflict policy")

func (p Policy) String() string {
	switch p {
	case Skip:
		return "skip"
	case Replace:
		return "replace"
	case Upsert:
		return "upsert"
	default:
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
}

// overwrites reports whether the policy may overwrite an existing entry at all.
func (p Policy) overwrites() bool {
	return p == Replace || p == Upsert
}

// ParsePolicy accepts the policy names case-insensitively. "conservative" is
// an alias of skip and the empty string selects DefaultPolicy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultPolicy, nil
	case "skip", "conservative":
		return Skip, nil
	case "replace":
		return Replace, nil
	case "upsert":
		return Upsert, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
}

func (p Policy) MarshalText() ([]byte, error) {
	if p > Upsert {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPolicy, uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
