package shader

import _ "embed"

// SceneVertexShader transforms positions by the model-view and projection
// matrices and forwards the vertex color.
//
//go:embed scene.vert
var SceneVertexShader string

// SceneFragmentShader writes the interpolated vertex color.
//
//go:embed scene.frag
var SceneFragmentShader string
