package ecs

import "unsafe"

// iface mirrors the runtime layout of an interface value; hashing uses the
// type word of a reflect.Type to identify component types cheaply.
type iface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}
