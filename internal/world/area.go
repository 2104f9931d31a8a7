package world

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

// Area это именованная цветная метка для свободной группировки мест
type Area struct {
	Name  string
	Color color.RGBA
}

// NewArea создаёт область; цвет по умолчанию чёрный
func NewArea(name string) *Area {
	return &Area{Name: name, Color: color.RGBA{A: 0xff}}
}

// NewAreaWithColor создаёт область с заданным цветом
func NewAreaWithColor(name string, c color.RGBA) *Area {
	return &Area{Name: name, Color: c}
}

// HexColor возвращает цвет в виде #rrggbb
func (a *Area) HexColor() string {
	return fmt.Sprintf("#%02x%02x%02x", a.Color.R, a.Color.G, a.Color.B)
}

// RGBAHex возвращает цвет вместе с прозрачностью в виде #rrggbbaa
func (a *Area) RGBAHex() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", a.Color.R, a.Color.G, a.Color.B, a.Color.A)
}

func (a *Area) String() string {
	return a.Name
}

// CompareAreas упорядочивает области по имени
func CompareAreas(a, b *Area) int {
	return strings.Compare(a.Name, b.Name)
}

// ParseColor разбирает CSS-цвет ("#336699", "#33669980", "rgb(1,2,3)", "teal")
func ParseColor(s string) (color.RGBA, error) {
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b, a := c.RGBA255()
	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}

func areaKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
