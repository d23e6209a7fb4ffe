package history

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the transform axis an Action adjusts.
type Kind int

const (
	KindRotate Kind = iota
	KindZoom
	KindFlipHorizontal
	KindFlipVertical
)

var kindNames = map[Kind]string{
	KindRotate:         "rotate",
	KindZoom:           "zoom",
	KindFlipHorizontal: "flipHorizontal",
	KindFlipVertical:   "flipVertical",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Default returns the value an axis has when no action of its kind was applied.
func (k Kind) Default() float64 {
	switch k {
	case KindZoom, KindFlipHorizontal, KindFlipVertical:
		return 1
	default:
		return 0
	}
}

// ErrInvalidAction is returned when an action carries a value its axis cannot take.
var ErrInvalidAction = errors.New("invalid action")

// Action is a single entry of the manipulation log.
type Action struct {
	Kind  Kind
	Value float64
}

// Rotate returns an action that sets the rotation in degrees.
func Rotate(deg float64) Action { return Action{Kind: KindRotate, Value: deg} }

// Zoom returns an action that sets the zoom factor.
func Zoom(factor float64) Action { return Action{Kind: KindZoom, Value: factor} }

// FlipHorizontal returns an action that sets the horizontal flip sign.
func FlipHorizontal(sign float64) Action { return Action{Kind: KindFlipHorizontal, Value: sign} }

// FlipVertical returns an action that sets the vertical flip sign.
func FlipVertical(sign float64) Action { return Action{Kind: KindFlipVertical, Value: sign} }

func (a Action) String() string {
	return a.Kind.String() + "=" + strconv.FormatFloat(a.Value, 'g', -1, 64)
}

// Validate reports whether the action can be applied.
func (a Action) Validate() error {
	if math.IsNaN(a.Value) || math.IsInf(a.Value, 0) {
		return fmt.Errorf("%w: %s value must be finite", ErrInvalidAction, a.Kind)
	}
	switch a.Kind {
	case KindRotate:
		return nil
	case KindZoom:
		if a.Value <= 0 {
			return fmt.Errorf("%w: zoom must be positive, got %v", ErrInvalidAction, a.Value)
		}
		return nil
	case KindFlipHorizontal, KindFlipVertical:
		if a.Value != 1 && a.Value != -1 {
			return fmt.Errorf("%w: %s must be 1 or -1, got %v", ErrInvalidAction, a.Kind, a.Value)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidAction, int(a.Kind))
	}
}

// ParseAction parses the textual form used on the command line,
// e.g. "rotate=90", "zoom=1.5", "flipHorizontal=-1".
func ParseAction(s string) (Action, error) {
	name, val, ok := strings.Cut(strings.TrimSpace(s), "=")
	if !ok {
		return Action{}, fmt.Errorf("%w: %q is not of the form kind=value", ErrInvalidAction, s)
	}
	var kind Kind
	found := false
	for k, n := range kindNames {
		if strings.EqualFold(n, name) {
			kind, found = k, true
			break
		}
	}
	if !found {
		return Action{}, fmt.Errorf("%w: unknown action %q", ErrInvalidAction, name)
	}
	v, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return Action{}, fmt.Errorf("%w: %s value %q: %v", ErrInvalidAction, kind, val, err)
	}
	a := Action{Kind: kind, Value: v}
	if err := a.Validate(); err != nil {
		return Action{}, err
	}
	return a, nil
}

// RotationOptions lists the rotation presets offered by the editor.
func RotationOptions() []float64 {
	return []float64{-135, -90, -45, 0, 45, 90, 135}
}

// ZoomOptions lists the zoom presets offered by the editor.
func ZoomOptions() []float64 {
	return []float64{0.25, 0.5, 0.75, 1, 1.25, 1.5, 1.75, 2, 2.5, 3}
}
