package mesh

import (
	"github.com/Faultbox/midgard-stage/internal/engine/device"
	"github.com/Faultbox/midgard-stage/pkg/math"
)

// Color is an RGBA color with components in [0, 1].
type Color [4]float32

// CubeFaceColors are the default cube face colors in face order:
// front, back, top, bottom, right, left.
var CubeFaceColors = []Color{
	{1.0, 0.0, 0.0, 1.0},
	{1.0, 1.0, 0.0, 1.0},
	{0.0, 1.0, 0.0, 1.0},
	{1.0, 0.5, 0.5, 1.0},
	{1.0, 0.0, 1.0, 1.0},
	{0.0, 0.0, 1.0, 1.0},
}

// FaceColors expands one color per face into per-vertex colors.
func FaceColors(faces []Color, verticesPerFace int) []float32 {
	out := make([]float32, 0, len(faces)*verticesPerFace*4)
	for _, c := range faces {
		for i := 0; i < verticesPerFace; i++ {
			out = append(out, c[:]...)
		}
	}
	return out
}

// SolidColor repeats c for vertexCount vertices.
func SolidColor(c Color, vertexCount int) []float32 {
	return FaceColors([]Color{c}, vertexCount)
}

// Cube returns an indexed unit cube (half-width 1) with one color per face.
// faces must hold six colors; nil uses CubeFaceColors.
func Cube(coords math.Vec3, rot RotationRule, scale float32, faces []Color) Spec {
	if faces == nil {
		faces = CubeFaceColors
	}
	return Spec{
		Positions: []float32{
			// Front
			-1, -1, 1, 1, -1, 1, 1, 1, 1, -1, 1, 1,
			// Back
			-1, -1, -1, -1, 1, -1, 1, 1, -1, 1, -1, -1,
			// Top
			-1, 1, -1, -1, 1, 1, 1, 1, 1, 1, 1, -1,
			// Bottom
			-1, -1, -1, 1, -1, -1, 1, -1, 1, -1, -1, 1,
			// Right
			1, -1, -1, 1, 1, -1, 1, 1, 1, 1, -1, 1,
			// Left
			-1, -1, -1, -1, -1, 1, -1, 1, 1, -1, 1, -1,
		},
		Colors:      FaceColors(faces, 4),
		VertexCount: 24,
		Indices: []uint16{
			0, 1, 2, 0, 2, 3,
			4, 5, 6, 4, 6, 7,
			8, 9, 10, 8, 10, 11,
			12, 13, 14, 12, 14, 15,
			16, 17, 18, 16, 18, 19,
			20, 21, 22, 20, 22, 23,
		},
		Topology:    device.Triangles,
		Coordinates: coords,
		Scale:       scale,
		Rotation:    rot,
	}
}

// Pyramid returns a four-sided pyramid without a base, one color per side.
// faces must hold four colors.
func Pyramid(coords math.Vec3, rot RotationRule, scale float32, faces []Color) Spec {
	return Spec{
		Positions: []float32{
			// Front
			0, 1, 0, -1, -1, 1, 1, -1, 1,
			// Right
			0, 1, 0, 1, -1, 1, 1, -1, -1,
			// Back
			0, 1, 0, -1, -1, -1, 1, -1, -1,
			// Left
			0, 1, 0, -1, -1, -1, -1, -1, 1,
		},
		Colors:      FaceColors(faces, 3),
		VertexCount: 12,
		Topology:    device.Triangles,
		Coordinates: coords,
		Scale:       scale,
		Rotation:    rot,
	}
}

// Square returns a two-triangle strip in the XY plane.
func Square(coords math.Vec3, rot RotationRule, scale float32, c Color) Spec {
	return Spec{
		Positions: []float32{
			1, 1, 0,
			-1, 1, 0,
			1, -1, 0,
			-1, -1, 0,
		},
		Colors:      SolidColor(c, 4),
		VertexCount: 4,
		Topology:    device.TriangleStrip,
		Coordinates: coords,
		Scale:       scale,
		Rotation:    rot,
	}
}

// Triangle returns a single triangle in the XY plane.
func Triangle(coords math.Vec3, rot RotationRule, scale float32, c Color) Spec {
	return Spec{
		Positions: []float32{
			0, 1, 0,
			-1, -1, 0,
			1, -1, 0,
		},
		Colors:      SolidColor(c, 3),
		VertexCount: 3,
		Topology:    device.Triangles,
		Coordinates: coords,
		Scale:       scale,
		Rotation:    rot,
	}
}
