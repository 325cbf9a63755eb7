package sim

import "github.com/kamstrup/intmap"

// Key identifies a physical key by its layout-independent code.
type Key int

const (
	KeyUnknown Key = iota
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
	KeyQ
	KeyE
	KeyW
	KeyS
	KeyA
	KeyD
)

var keyNames = [...]string{
	KeyUnknown:    "Unknown",
	KeyArrowUp:    "ArrowUp",
	KeyArrowDown:  "ArrowDown",
	KeyArrowLeft:  "ArrowLeft",
	KeyArrowRight: "ArrowRight",
	KeyQ:          "KeyQ",
	KeyE:          "KeyE",
	KeyW:          "KeyW",
	KeyS:          "KeyS",
	KeyA:          "KeyA",
	KeyD:          "KeyD",
}

func (k Key) String() string {
	if k < 0 || int(k) >= len(keyNames) {
		return keyNames[KeyUnknown]
	}
	return keyNames[k]
}

// ParseKey maps a key code such as "ArrowUp" or "KeyW" to a Key.
func ParseKey(code string) Key {
	for k, name := range keyNames {
		if name == code {
			return Key(k)
		}
	}
	return KeyUnknown
}

// KeyState is the current pressed/released state of every key. Writes are
// last-writer-wins and nothing is queued: a press and release that both land
// between two frames is never seen. The zero value is ready to use.
//
// KeyState is not synchronised; frontends write it on the same goroutine
// that runs the frame.
type KeyState struct {
	pressed *intmap.Map[Key, bool]
}

// Set records key as pressed or released.
func (s *KeyState) Set(key Key, down bool) {
	if s.pressed == nil {
		s.pressed = intmap.New[Key, bool](16)
	}
	s.pressed.Put(key, down)
}

// Pressed reports the last recorded state of key.
func (s *KeyState) Pressed(key Key) bool {
	if s.pressed == nil {
		return false
	}
	down, _ := s.pressed.Get(key)
	return down
}

// ReleaseAll marks every key as released.
func (s *KeyState) ReleaseAll() {
	if s.pressed != nil {
		s.pressed.Clear()
	}
}

// Bindings maps ship controls to keys.
type Bindings struct {
	PitchUp, PitchDown Key
	YawLeft, YawRight  Key
	Rise, Sink         Key
	Forward, Back      Key
	Left, Right        Key
}

// DefaultBindings are arrows for attitude and Q/E, W/S, A/D for translation.
func DefaultBindings() Bindings {
	return Bindings{
		PitchUp:   KeyArrowUp,
		PitchDown: KeyArrowDown,
		YawLeft:   KeyArrowLeft,
		YawRight:  KeyArrowRight,
		Rise:      KeyQ,
		Sink:      KeyE,
		Forward:   KeyW,
		Back:      KeyS,
		Left:      KeyA,
		Right:     KeyD,
	}
}
