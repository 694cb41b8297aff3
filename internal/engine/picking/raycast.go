package picking

import (
	"fmt"
	"sort"

	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-stage/pkg/math"
)

// Mode selects the intersection test used by Raycast.
type Mode uint8

const (
	// ModeSlab runs the full per-axis slab test.
	ModeSlab Mode = iota
	// ModeLegacy solves only the ray parameter that reaches the box's
	// near z-face, scales the origin by it and checks X/Y containment.
	// It is only correct for rays travelling roughly along Z and exists
	// for compatibility with scenes tuned against that behavior.
	ModeLegacy
)

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "slab":
		return ModeSlab, nil
	case "legacy":
		return ModeLegacy, nil
	default:
		return ModeSlab, fmt.Errorf("unknown picking mode %q", s)
	}
}

func (m Mode) String() string {
	if m == ModeLegacy {
		return "legacy"
	}
	return "slab"
}

// Options configures a raycast.
type Options struct {
	Mode Mode
	// MaxDistance bounds slab hits by world distance from the origin.
	// Zero or +Inf means unbounded. Legacy mode ignores it.
	MaxDistance float32
}

// Target is anything that may carry a bounding volume.
type Target interface {
	BoundingVolume() (BoundingVolume, bool)
}

// Hit pairs a target with the point where the ray met its volume.
type Hit[T Target] struct {
	Point math.Vec3
	// Distance is the world distance from the origin to Point in slab
	// mode, and the origin scale factor in legacy mode.
	Distance float32
	Target   T
}

// Raycast tests the ray against every target carrying a bounding volume and
// returns the hits in target order. Targets without a volume are skipped,
// and an invalid volume or any non-finite intermediate result counts as a
// miss.
func Raycast[T Target](origin, direction math.Vec3, targets []T, opts Options) []Hit[T] {
	var hits []Hit[T]
	if !origin.IsFinite() || !direction.IsFinite() {
		return hits
	}

	for _, target := range targets {
		bv, ok := target.BoundingVolume()
		if !ok || !bv.Valid() {
			continue
		}

		var (
			point math.Vec3
			t     float32
			hit   bool
		)
		switch opts.Mode {
		case ModeLegacy:
			point, t, hit = legacyIntersect(origin, direction, bv)
		default:
			point, t, hit = slabIntersect(origin, direction, bv, opts.MaxDistance)
		}
		if !hit || !point.IsFinite() || math32.IsNaN(t) {
			continue
		}
		hits = append(hits, Hit[T]{Point: point, Distance: t, Target: target})
	}
	return hits
}

// slabIntersect runs on the normalized direction so t is a world distance.
func slabIntersect(origin, direction math.Vec3, bv BoundingVolume, maxDistance float32) (math.Vec3, float32, bool) {
	if direction.Length() < math.Epsilon {
		return math.Vec3{}, 0, false
	}
	ray := Ray{Origin: origin, Direction: direction.Normalize()}
	t, ok := ray.IntersectAABB(bv.AABB())
	if !ok || math32.IsNaN(t) {
		return math.Vec3{}, 0, false
	}
	if maxDistance > 0 && t > maxDistance {
		return math.Vec3{}, 0, false
	}
	return ray.At(t), t, true
}

func legacyIntersect(origin, direction math.Vec3, bv BoundingVolume) (math.Vec3, float32, bool) {
	left := bv.Center.X - bv.Extents.X
	right := bv.Center.X + bv.Extents.X
	top := bv.Center.Y + bv.Extents.Y
	bottom := bv.Center.Y - bv.Extents.Y
	front := bv.Center.Z - bv.Extents.Z

	scalar := (front - origin.Z) / direction.Z
	if math32.IsNaN(scalar) || math32.IsInf(scalar, 0) {
		return math.Vec3{}, 0, false
	}

	p := origin.Scale(scalar)
	if p.X >= left && p.X <= right && p.Y <= top && p.Y >= bottom {
		return p, scalar, true
	}
	return math.Vec3{}, 0, false
}

// SortByDistance orders hits nearest first. Raycast itself never sorts.
func SortByDistance[T Target](hits []Hit[T]) {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
}
