// Package capture grabs the X11 screen so a screenshot can be edited like
// any other image.
package capture

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Monitor describes an individual monitor in the X11 layout.
type Monitor struct {
	Index   int
	Name    string
	Rect    image.Rectangle
	Primary bool
}

var errNoMonitors = errors.New("no monitors available")

// Name is the file name given to captured screens.
const Name = "screen.png"

type screenBackend interface {
	Monitors() ([]Monitor, error)
	// Bounds is the root window rectangle.
	Bounds() (image.Rectangle, error)
	Grab(rect image.Rectangle) (*image.RGBA, error)
}

var backend screenBackend = x11Backend{}

// Screen captures the area of the monitor matched by selector, or the whole
// root window when selector is empty.
func Screen(selector string) (*image.RGBA, error) {
	rect, err := backend.Bounds()
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}
	if selector != "" {
		monitors, err := backend.Monitors()
		if err != nil {
			return nil, fmt.Errorf("capture screen %q: %w", selector, err)
		}
		mon, err := FindMonitor(monitors, selector)
		if err != nil {
			return nil, fmt.Errorf("capture screen %q: %w", selector, err)
		}
		rect = mon.Rect.Intersect(rect)
	}
	if rect.Empty() {
		return nil, fmt.Errorf("capture screen: empty area")
	}
	img, err := backend.Grab(rect)
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}
	return img, nil
}

// ListMonitors retrieves all monitors using the X RandR extension.
func ListMonitors() ([]Monitor, error) {
	monitors, err := backend.Monitors()
	if err != nil {
		return nil, err
	}
	if len(monitors) == 0 {
		return nil, errNoMonitors
	}
	return monitors, nil
}

// FindMonitor resolves a selector ("primary", an index, "#index" or part of
// the output name) against monitors.
func FindMonitor(monitors []Monitor, selector string) (Monitor, error) {
	if len(monitors) == 0 {
		return Monitor{}, errNoMonitors
	}
	lower := strings.ToLower(strings.TrimSpace(selector))
	if lower == "" {
		return monitors[0], nil
	}
	if lower == "primary" {
		for _, mon := range monitors {
			if mon.Primary {
				return mon, nil
			}
		}
		return monitors[0], nil
	}
	if idx, err := strconv.Atoi(strings.TrimPrefix(lower, "#")); err == nil {
		if idx < 0 || idx >= len(monitors) {
			return Monitor{}, fmt.Errorf("monitor index %d out of range", idx)
		}
		return monitors[idx], nil
	}
	for _, mon := range monitors {
		if strings.Contains(strings.ToLower(mon.Name), lower) {
			return mon, nil
		}
	}
	return Monitor{}, fmt.Errorf("monitor %q not found", selector)
}
