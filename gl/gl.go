// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gl defines the subset of the WebGL / OpenGL ES API the ripple
// pipeline renders with.
//
// Object handles are plain integers where 0 is the null object, the same
// convention desktop GL uses. Implementations:
//   - NullContext: headless context that records every call (tests, tools)
//   - WebGL (js/wasm builds): a browser WebGL1/WebGL2 context via syscall/js
package gl

import (
	"github.com/gogpu/naga/glsl"
	"github.com/google/uuid"
)

// ShaderType selects the pipeline stage of a shader object.
type ShaderType uint32

// Shader stage enums, numerically equal to the GL constants.
const (
	FragmentShader ShaderType = 0x8B30
	VertexShader   ShaderType = 0x8B31
)

// String returns the stage name.
func (t ShaderType) String() string {
	switch t {
	case VertexShader:
		return "vertex"
	case FragmentShader:
		return "fragment"
	default:
		return "unknown"
	}
}

type (
	// Shader is a shader object handle.
	Shader uint32
	// Program is a program object handle.
	Program uint32
	// Texture is a texture object handle.
	Texture uint32
	// Buffer is a buffer object handle.
	Buffer uint32
	// UniformLocation is a resolved uniform location, -1 when absent.
	UniformLocation int32
	// AttribLocation is a resolved attribute location, -1 when absent.
	AttribLocation int32
)

// Valid reports whether the uniform exists in the linked program.
func (l UniformLocation) Valid() bool { return l >= 0 }

// Valid reports whether the attribute exists in the linked program.
func (l AttribLocation) Valid() bool { return l >= 0 }

// Shading language versions of the GL flavours ripple targets.
var (
	// VersionES100 is GLSL ES 1.00 (WebGL 1, OpenGL ES 2.0).
	VersionES100 = glsl.Version{Major: 1, Minor: 0, ES: true}
	// VersionES300 is GLSL ES 3.00 (WebGL 2, OpenGL ES 3.0).
	VersionES300 = glsl.VersionES300
)

// Context is a GL rendering context.
//
// All methods are called from the single rendering goroutine. Failures are
// reported the way GL reports them: Create* returns 0, status queries return
// false and the info log describes the problem.
type Context interface {
	// ID identifies the context. Objects from one context are meaningless
	// in another, so caches key on it.
	ID() uuid.UUID

	// ShadingLanguage returns the highest GLSL version the context accepts.
	ShadingLanguage() glsl.Version
	// MaxTextureSize returns MAX_TEXTURE_SIZE.
	MaxTextureSize() int
	// Renderer returns the unmasked renderer string, or "" if unavailable.
	Renderer() string
	// IsContextLost reports whether the context was lost.
	IsContextLost() bool

	CreateShader(t ShaderType) Shader
	ShaderSource(s Shader, src string)
	CompileShader(s Shader)
	ShaderCompiled(s Shader) bool
	ShaderInfoLog(s Shader) string
	DeleteShader(s Shader)

	CreateProgram() Program
	AttachShader(p Program, s Shader)
	LinkProgram(p Program)
	ProgramLinked(p Program) bool
	ValidateProgram(p Program)
	ProgramValid(p Program) bool
	ProgramInfoLog(p Program) string
	DeleteProgram(p Program)
	UseProgram(p Program)
	UniformLocation(p Program, name string) UniformLocation
	AttribLocation(p Program, name string) AttribLocation

	CreateTexture() Texture
	// TexImage2D uploads RGBA8 pixels to t. A nil pixels slice allocates
	// storage without initialising it.
	TexImage2D(t Texture, width, height int, pixels []byte)
	DeleteTexture(t Texture)

	CreateBuffer() Buffer
	BufferData(b Buffer, data []float32)
	DeleteBuffer(b Buffer)
	// VertexAttribPointer binds b and enables loc with size float components.
	VertexAttribPointer(loc AttribLocation, b Buffer, size, stride, offset int)

	Uniform1i(loc UniformLocation, v int)
	Uniform1f(loc UniformLocation, v float32)
	Uniform2f(loc UniformLocation, x, y float32)

	Viewport(x, y, width, height int)
	Clear(r, g, b, a float32)
	DrawArrays(first, count int)

	// Release destroys the context. Further calls are no-ops.
	Release()
}

// Factory creates a fresh context, e.g. a throwaway probe context.
type Factory func() (Context, error)
