package input

import "github.com/veandco/go-sdl2/sdl"

// Key is a movement key tracked by State.
type Key uint8

const (
	KeyNone Key = iota
	KeyW        // forward, +z
	KeyA        // left, +x
	KeyS        // back, -z
	KeyD        // right, -x
	keyCount
)

func (k Key) String() string {
	switch k {
	case KeyW:
		return "W"
	case KeyA:
		return "A"
	case KeyS:
		return "S"
	case KeyD:
		return "D"
	default:
		return "none"
	}
}

// KeyFromScancode maps a physical key to a movement key.
// Scancodes follow key position, so AZERTY layouts move with ZQSD.
func KeyFromScancode(sc sdl.Scancode) Key {
	switch sc {
	case sdl.SCANCODE_W:
		return KeyW
	case sdl.SCANCODE_A:
		return KeyA
	case sdl.SCANCODE_S:
		return KeyS
	case sdl.SCANCODE_D:
		return KeyD
	default:
		return KeyNone
	}
}
