// Package labels renders coloured label chips for table cells. Styles are
// kept in a bounded LRU cache keyed by background colour.
package labels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultSize is the cache capacity used when NewCache gets a size below 1.
const DefaultSize = 256

// Foreground colours chosen for contrast.
const (
	Black = "#000000"
	White = "#ffffff"
)

// Cache maps hex colours to label styles.
type Cache struct {
	styles *lru.Cache[string, lipgloss.Style]
}

// NewCache returns a cache holding at most size styles.
func NewCache(size int) (*Cache, error) {
	if size < 1 {
		size = DefaultSize
	}
	styles, err := lru.New[string, lipgloss.Style](size)
	if err != nil {
		return nil, fmt.Errorf("create label cache: %w", err)
	}
	return &Cache{styles: styles}, nil
}

// Style returns the chip style for a background colour such as "#1e90ff".
// ok is false when hex is not a valid colour.
func (c *Cache) Style(hex string) (style lipgloss.Style, ok bool) {
	key := normalize(hex)
	if style, ok := c.styles.Get(key); ok {
		return style, true
	}
	bg, err := colorful.Hex(key)
	if err != nil {
		return lipgloss.NewStyle(), false
	}
	style = lipgloss.NewStyle().
		Background(lipgloss.Color(key)).
		Foreground(lipgloss.Color(ContrastForeground(bg))).
		Padding(0, 1)
	c.styles.Add(key, style)
	return style, true
}

// Render draws text as a chip on the hex background. Invalid colours render
// the text unstyled.
func (c *Cache) Render(text, hex string) string {
	style, ok := c.Style(hex)
	if !ok {
		return text
	}
	return style.Render(text)
}

// Len returns the number of cached styles.
func (c *Cache) Len() int {
	return c.styles.Len()
}

// ContrastForeground returns Black for light backgrounds and White for dark
// ones, using relative luminance.
func ContrastForeground(bg colorful.Color) string {
	r, g, b := bg.LinearRgb()
	if 0.2126*r+0.7152*g+0.0722*b > 0.179 {
		return Black
	}
	return White
}

func normalize(hex string) string {
	hex = strings.ToLower(strings.TrimSpace(hex))
	if hex != "" && !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	return hex
}
