package world

import (
	"fmt"
	"strings"
)

// Color groups agents with the boxes they are allowed to move.
type Color int

const (
	ColorNone Color = iota
	Blue
	Red
	Cyan
	Purple
	Green
	Orange
	Pink
	Grey
	Lightblue
	Brown
)

var colorNames = [...]string{"none", "blue", "red", "cyan", "purple", "green", "orange", "pink", "grey", "lightblue", "brown"}

func (c Color) String() string {
	if c < 0 || int(c) >= len(colorNames) {
		return "unknown"
	}
	return colorNames[c]
}

// ParseColor maps a level colour name (case-insensitive) to a Color.
func ParseColor(name string) (Color, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range colorNames {
		if i > 0 && candidate == name {
			return Color(i), nil
		}
	}
	return ColorNone, fmt.Errorf("unknown color %q", name)
}
