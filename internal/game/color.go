package game

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an opaque RGB value chosen by a player. The engine only stores it
// and round-trips it through its "#RRGGBB" form.
type Color struct {
	R, G, B uint8
}

var (
	ColorRed    = Color{0xFF, 0x3B, 0x30}
	ColorBlue   = Color{0x00, 0x7A, 0xFF}
	ColorGreen  = Color{0x34, 0xC7, 0x59}
	ColorYellow = Color{0xFF, 0xCC, 0x00}
	ColorPurple = Color{0xAF, 0x52, 0xDE}
	ColorOrange = Color{0xFF, 0x95, 0x00}
)

// DefaultPlayer1Color and DefaultPlayer2Color are used when a stored color fails to decode.
var (
	DefaultPlayer1Color = ColorBlue
	DefaultPlayer2Color = ColorRed
)

// NamedColor is one palette entry offered at player setup.
type NamedColor struct {
	Name  string `json:"name"`
	Color Color  `json:"hex"`
}

// Palette returns the colors offered at player setup.
func Palette() []NamedColor {
	return []NamedColor{
		{"Red", ColorRed},
		{"Blue", ColorBlue},
		{"Green", ColorGreen},
		{"Yellow", ColorYellow},
		{"Purple", ColorPurple},
		{"Orange", ColorOrange},
	}
}

// Hex returns the "#RRGGBB" form.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c Color) String() string { return c.Hex() }

// ParseColor decodes "#RRGGBB" or "RRGGBB".
func ParseColor(s string) (Color, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, false
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, true
}

// ColorOrDefault decodes s, falling back to def on failure.
func ColorOrDefault(s string, def Color) Color {
	if c, ok := ParseColor(s); ok {
		return c
	}
	return def
}

func (c Color) MarshalText() ([]byte, error) { return []byte(c.Hex()), nil }

func (c *Color) UnmarshalText(b []byte) error {
	v, ok := ParseColor(string(b))
	if !ok {
		return fmt.Errorf("invalid color %q", string(b))
	}
	*c = v
	return nil
}
