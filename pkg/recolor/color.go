package recolor

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorTarget 文字目标颜色
type ColorTarget struct {
	R, G, B uint8
}

// DefaultTarget 默认秋麒麟色
var DefaultTarget = ColorTarget{R: 218, G: 165, B: 32}

// ParseColorTarget 解析 "#RRGGBB"、"RRGGBB" 或 "#RGB" 形式的颜色
func ParseColorTarget(s string) (ColorTarget, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return ColorTarget{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return ColorTarget{R: r, G: g, B: b}, nil
}

// Hex 返回大写的 "#RRGGBB"
func (c ColorTarget) Hex() string {
	col := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	return strings.ToUpper(col.Hex())
}

func (c ColorTarget) String() string {
	return fmt.Sprintf("%s (%d,%d,%d)", c.Hex(), c.R, c.G, c.B)
}
