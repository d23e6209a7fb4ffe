package viewer

import (
	"math"

	"golang.org/x/mobile/event/key"
)

type command int

const (
	cmdNone command = iota
	cmdRotateCW
	cmdRotateCCW
	cmdZoomIn
	cmdZoomOut
	cmdFlipH
	cmdFlipV
	cmdUndo
	cmdRedo
	cmdReset
	cmdUpload
	cmdCopy
	cmdPaste
	cmdClear
	cmdColor
	cmdQuit
)

// keyCommand maps a key press to an editor command. For cmdColor the second
// result is the zero-based palette index.
func keyCommand(e key.Event) (command, int) {
	if e.Direction == key.DirRelease {
		return cmdNone, 0
	}
	if e.Modifiers&key.ModControl != 0 {
		switch e.Code {
		case key.CodeZ:
			if e.Modifiers&key.ModShift != 0 {
				return cmdRedo, 0
			}
			return cmdUndo, 0
		case key.CodeY:
			return cmdRedo, 0
		case key.CodeR:
			return cmdReset, 0
		case key.CodeU:
			return cmdUpload, 0
		case key.CodeC:
			return cmdCopy, 0
		case key.CodeV:
			return cmdPaste, 0
		}
		return cmdNone, 0
	}
	if e.Code == key.CodeEscape {
		return cmdQuit, 0
	}
	switch r := e.Rune; {
	case r == 'r':
		return cmdRotateCW, 0
	case r == 'R':
		return cmdRotateCCW, 0
	case r == '+' || r == '=':
		return cmdZoomIn, 0
	case r == '-' || r == '_':
		return cmdZoomOut, 0
	case r == 'h':
		return cmdFlipH, 0
	case r == 'v':
		return cmdFlipV, 0
	case r == 'c':
		return cmdClear, 0
	case r == 'q':
		return cmdQuit, 0
	case r >= '1' && r <= '9':
		return cmdColor, int(r - '1')
	}
	return cmdNone, 0
}

// stepOption returns the preset next to cur in direction dir (+1 or -1).
// Values between presets snap to the nearest one in that direction and the
// ends of the list are sticky.
func stepOption(opts []float64, cur float64, dir int) float64 {
	const eps = 1e-9
	if len(opts) == 0 {
		return cur
	}
	if dir > 0 {
		for _, o := range opts {
			if o > cur+eps {
				return o
			}
		}
		return opts[len(opts)-1]
	}
	for i := len(opts) - 1; i >= 0; i-- {
		if opts[i] < cur-eps {
			return opts[i]
		}
	}
	return opts[0]
}

func zoomPercent(z float64) int { return int(math.Round(z * 100)) }
