// Package shader provides OpenGL shader compilation utilities and the
// embedded scene program.
package shader

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/multierr"

	"github.com/Faultbox/midgard-stage/internal/engine/device"
)

// Attribute and uniform names used by the scene program.
const (
	PositionAttribute = "a_VertexPosition"
	ColorAttribute    = "a_VertexColor"
	ProjectionUniform = "u_PMatrix"
	ViewUniform       = "u_MVMatrix"
)

// CompileProgram compiles vertex and fragment shaders and links them into a program.
// Returns the program ID or an error if compilation/linking fails.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", programLog(program))
	}

	return program, nil
}

// CompileScene compiles the embedded scene program and resolves its slots.
func CompileScene() (uint32, device.ShaderSlots, error) {
	program, err := CompileProgram(SceneVertexShader, SceneFragmentShader)
	if err != nil {
		return 0, device.ShaderSlots{}, err
	}
	slots, err := ResolveSlots(program)
	if err != nil {
		gl.DeleteProgram(program)
		return 0, device.ShaderSlots{}, err
	}
	gl.UseProgram(program)
	gl.EnableVertexAttribArray(uint32(slots.Position))
	gl.EnableVertexAttribArray(uint32(slots.Color))
	return program, slots, nil
}

// ResolveSlots looks up every attribute and uniform the scene draws with.
// All missing names are reported together.
func ResolveSlots(program uint32) (device.ShaderSlots, error) {
	var (
		slots device.ShaderSlots
		err   error
	)
	slots.Position, err = requireLocation(err, "attribute", PositionAttribute, GetAttribute(program, PositionAttribute))
	slots.Color, err = requireLocation(err, "attribute", ColorAttribute, GetAttribute(program, ColorAttribute))
	slots.Projection, err = requireLocation(err, "uniform", ProjectionUniform, GetUniform(program, ProjectionUniform))
	slots.View, err = requireLocation(err, "uniform", ViewUniform, GetUniform(program, ViewUniform))
	return slots, err
}

func requireLocation(err error, kind, name string, loc int32) (int32, error) {
	if loc < 0 {
		err = multierr.Append(err, fmt.Errorf("%s %q not found", kind, name))
	}
	return loc, err
}

// GetUniform returns the uniform location for the given name.
// Returns -1 if the uniform is not found or inactive.
func GetUniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

// GetAttribute returns the attribute location for the given name.
// Returns -1 if the attribute is not found or inactive.
func GetAttribute(program uint32, name string) int32 {
	return gl.GetAttribLocation(program, gl.Str(name+"\x00"))
}

// compileShader compiles a single shader of the given type.
func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, gl.GoStr(&log[0]))
	}

	return shader, nil
}

func programLog(program uint32) string {
	var logLen int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
	log := make([]byte, logLen+1)
	gl.GetProgramInfoLog(program, logLen, nil, &log[0])
	return gl.GoStr(&log[0])
}
