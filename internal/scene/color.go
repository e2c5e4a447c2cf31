package scene

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseColor parses "#rrggbb", "#rgb" and "0xrrggbb" color notations
// into a packed 0xRRGGBB value.
func ParseColor(s string) (uint32, error) {
	raw := strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(raw, "#"):
		raw = raw[1:]
	case strings.HasPrefix(strings.ToLower(raw), "0x"):
		raw = raw[2:]
	}

	if len(raw) == 3 {
		raw = string([]byte{raw[0], raw[0], raw[1], raw[1], raw[2], raw[2]})
	}
	if len(raw) != 6 {
		return 0, fmt.Errorf("invalid color %q", s)
	}

	v, err := strconv.ParseUint(raw, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return uint32(v), nil
}

// FormatColor renders a packed 0xRRGGBB value as "#rrggbb".
func FormatColor(c uint32) string {
	return fmt.Sprintf("#%06x", c&0xffffff)
}
