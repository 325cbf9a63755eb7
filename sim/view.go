package sim

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownView is returned by ParseView for names that are not a View.
var ErrUnknownView = errors.New("unknown view")

// View selects what the session shows and which ship motion rule applies.
type View int

const (
	// ViewSystem watches the whole system through the orbit camera; the ship flies on autopilot.
	ViewSystem View = iota
	// ViewShip looks through the ship-mounted camera; the ship is flown from the keyboard.
	ViewShip
)

func (v View) String() string {
	switch v {
	case ViewSystem:
		return "system"
	case ViewShip:
		return "ship"
	default:
		return fmt.Sprintf("View(%d)", int(v))
	}
}

// Toggle returns the other view.
func (v View) Toggle() View {
	if v == ViewShip {
		return ViewSystem
	}
	return ViewShip
}

// ParseView accepts "system"/"ship" and the Spanish selector labels "sistema"/"nave".
func ParseView(s string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "system", "sistema":
		return ViewSystem, nil
	case "ship", "nave":
		return ViewShip, nil
	}
	return ViewSystem, fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// ViewState is the selector singleton. Current is written by the UI; the frame
// core keeps its own record of the last value it acted on so that a change is
// handled exactly once.
type ViewState struct {
	Current  View
	observed View
	// Changes counts view transitions handled by the frame core.
	Changes int
}

// NewViewState starts with initial already observed, so no transition fires on the first frame.
func NewViewState(initial View) ViewState {
	return ViewState{Current: initial, observed: initial}
}

// Observed returns the view the frame core last acted on.
func (s *ViewState) Observed() View {
	return s.observed
}

// HintPanel lists the on-screen control hints for a view.
func HintPanel(v View) []string {
	if v == ViewShip {
		return []string{
			"Arrow Up/Down: pitch",
			"Arrow Left/Right: yaw",
			"Q/E: up/down",
			"W/S: forward/back",
			"A/D: strafe",
		}
	}
	return []string{
		"Drag: orbit the system",
		"Wheel: zoom",
	}
}
