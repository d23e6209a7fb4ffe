package theme

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"
)

// Theme defines the colours of the viewer window.
type Theme struct {
	Name string

	Background color.RGBA // behind the canvas
	Foreground color.RGBA // status text

	StatusBackground color.RGBA
	StatusError      color.RGBA // error notifications

	// Canvas backdrop for transparent regions.
	CheckerLight color.RGBA
	CheckerDark  color.RGBA
}

// Default returns the light theme.
func Default() *Theme {
	return &Theme{
		Name:             "default",
		Background:       color.RGBA{220, 220, 220, 255},
		Foreground:       color.RGBA{0, 0, 0, 255},
		StatusBackground: color.RGBA{200, 200, 200, 255},
		StatusError:      color.RGBA{176, 0, 32, 255},
		CheckerLight:     color.RGBA{220, 220, 220, 255},
		CheckerDark:      color.RGBA{192, 192, 192, 255},
	}
}

func Dark() *Theme {
	return &Theme{
		Name:             "dark",
		Background:       color.RGBA{30, 30, 30, 255},
		Foreground:       color.RGBA{230, 230, 230, 255},
		StatusBackground: color.RGBA{45, 45, 45, 255},
		StatusError:      color.RGBA{255, 110, 110, 255},
		CheckerLight:     color.RGBA{70, 70, 70, 255},
		CheckerDark:      color.RGBA{50, 50, 50, 255},
	}
}

var builtins = map[string]func() *Theme{
	"default": Default,
	"light":   Default,
	"dark":    Dark,
}

// Names lists the built-in theme names.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a built-in theme. An empty name selects Default.
func Lookup(name string) (*Theme, error) {
	if name == "" {
		return Default(), nil
	}
	fn, ok := builtins[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("theme %q not found", name)
	}
	return fn(), nil
}

// Override replaces the fields named in colors (keys as in the TOML config:
// background, foreground, status_background, status_error, checker_light,
// checker_dark) on a copy of t.
func (t *Theme) Override(name string, colors map[string]string) (*Theme, error) {
	out := *t
	out.Name = name
	fields := map[string]*color.RGBA{
		"background":        &out.Background,
		"foreground":        &out.Foreground,
		"status_background": &out.StatusBackground,
		"status_error":      &out.StatusError,
		"checker_light":     &out.CheckerLight,
		"checker_dark":      &out.CheckerDark,
	}
	for key, value := range colors {
		dst, ok := fields[strings.ToLower(key)]
		if !ok {
			return nil, fmt.Errorf("theme %s: unknown colour %q", name, key)
		}
		c, err := ParseHex(value)
		if err != nil {
			return nil, fmt.Errorf("theme %s: %s: %w", name, key, err)
		}
		*dst = c
	}
	return &out, nil
}

// ParseHex parses #RRGGBB or #RRGGBBAA.
func ParseHex(s string) (color.RGBA, error) {
	hex, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok {
		return color.RGBA{}, fmt.Errorf("color must start with #")
	}
	switch len(hex) {
	case 6:
		hex += "ff"
	case 8:
	default:
		return color.RGBA{}, fmt.Errorf("invalid color length: %s", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, err
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
