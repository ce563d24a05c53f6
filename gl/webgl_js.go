// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build js && wasm

package gl

import (
	"fmt"
	"syscall/js"
	"unsafe"

	"github.com/gogpu/naga/glsl"
	"github.com/google/uuid"
)

type webglConsts struct {
	arrayBuffer    int
	staticDraw     int
	floatType      int
	triangles      int
	texture2D      int
	rgba           int
	unsignedByte   int
	minFilter      int
	magFilter      int
	linear         int
	wrapS          int
	wrapT          int
	clampToEdge    int
	colorBufferBit int
	compileStatus  int
	linkStatus     int
	validateStatus int
	maxTextureSize int
	renderer       int
}

// WebGL is a Context backed by a browser WebGL2 or WebGL1 context.
type WebGL struct {
	id       uuid.UUID
	canvas   js.Value
	gl       js.Value
	version  glsl.Version
	consts   webglConsts
	released bool

	next     uint32
	objects  map[uint32]js.Value
	uniforms []js.Value
	progLocs map[Program][]UniformLocation
}

// NewWebGL obtains a context from canvas, preferring WebGL2.
func NewWebGL(canvas js.Value) (*WebGL, error) {
	if canvas.IsUndefined() || canvas.IsNull() {
		return nil, fmt.Errorf("%w: no canvas", ErrNoContext)
	}
	attrs := map[string]any{"premultipliedAlpha": false, "antialias": false}

	version := VersionES300
	ctx := canvas.Call("getContext", "webgl2", attrs)
	if ctx.IsNull() || ctx.IsUndefined() {
		version = VersionES100
		ctx = canvas.Call("getContext", "webgl", attrs)
	}
	if ctx.IsNull() || ctx.IsUndefined() {
		ctx = canvas.Call("getContext", "experimental-webgl", attrs)
	}
	if ctx.IsNull() || ctx.IsUndefined() {
		return nil, ErrNoContext
	}

	w := &WebGL{
		id:       uuid.New(),
		canvas:   canvas,
		gl:       ctx,
		version:  version,
		objects:  make(map[uint32]js.Value),
		progLocs: make(map[Program][]UniformLocation),
	}
	w.initConsts()
	return w, nil
}

// ProbeFactory returns a Factory that creates contexts on detached canvases.
// Such contexts are meant to be released right after reading their limits.
func ProbeFactory() Factory {
	return func() (Context, error) {
		doc := js.Global().Get("document")
		if doc.IsUndefined() {
			return nil, fmt.Errorf("%w: no document", ErrNoContext)
		}
		return NewWebGL(doc.Call("createElement", "canvas"))
	}
}

func (w *WebGL) initConsts() {
	w.consts = webglConsts{
		arrayBuffer:    w.gl.Get("ARRAY_BUFFER").Int(),
		staticDraw:     w.gl.Get("STATIC_DRAW").Int(),
		floatType:      w.gl.Get("FLOAT").Int(),
		triangles:      w.gl.Get("TRIANGLES").Int(),
		texture2D:      w.gl.Get("TEXTURE_2D").Int(),
		rgba:           w.gl.Get("RGBA").Int(),
		unsignedByte:   w.gl.Get("UNSIGNED_BYTE").Int(),
		minFilter:      w.gl.Get("TEXTURE_MIN_FILTER").Int(),
		magFilter:      w.gl.Get("TEXTURE_MAG_FILTER").Int(),
		linear:         w.gl.Get("LINEAR").Int(),
		wrapS:          w.gl.Get("TEXTURE_WRAP_S").Int(),
		wrapT:          w.gl.Get("TEXTURE_WRAP_T").Int(),
		clampToEdge:    w.gl.Get("CLAMP_TO_EDGE").Int(),
		colorBufferBit: w.gl.Get("COLOR_BUFFER_BIT").Int(),
		compileStatus:  w.gl.Get("COMPILE_STATUS").Int(),
		linkStatus:     w.gl.Get("LINK_STATUS").Int(),
		validateStatus: w.gl.Get("VALIDATE_STATUS").Int(),
		maxTextureSize: w.gl.Get("MAX_TEXTURE_SIZE").Int(),
		renderer:       w.gl.Get("RENDERER").Int(),
	}
}

// Canvas returns the canvas element the context draws to.
func (w *WebGL) Canvas() js.Value { return w.canvas }

func (w *WebGL) store(v js.Value) uint32 {
	if v.IsNull() || v.IsUndefined() {
		return 0
	}
	w.next++
	w.objects[w.next] = v
	return w.next
}

func (w *WebGL) lookup(h uint32) js.Value {
	if v, ok := w.objects[h]; ok {
		return v
	}
	return js.Null()
}

func (w *WebGL) drop(h uint32, method string) {
	v, ok := w.objects[h]
	if !ok {
		return
	}
	delete(w.objects, h)
	if !w.released {
		w.gl.Call(method, v)
	}
}

func (w *WebGL) usable() bool { return !w.released && !w.IsContextLost() }

func (w *WebGL) ID() uuid.UUID { return w.id }

func (w *WebGL) ShadingLanguage() glsl.Version { return w.version }

func (w *WebGL) MaxTextureSize() int {
	if w.released {
		return 0
	}
	return w.gl.Call("getParameter", w.consts.maxTextureSize).Int()
}

func (w *WebGL) Renderer() string {
	if w.released {
		return ""
	}
	if ext := w.gl.Call("getExtension", "WEBGL_debug_renderer_info"); !ext.IsNull() {
		if v := w.gl.Call("getParameter", ext.Get("UNMASKED_RENDERER_WEBGL")); v.Type() == js.TypeString {
			return v.String()
		}
	}
	if v := w.gl.Call("getParameter", w.consts.renderer); v.Type() == js.TypeString {
		return v.String()
	}
	return ""
}

func (w *WebGL) IsContextLost() bool {
	return w.released || w.gl.Call("isContextLost").Bool()
}

func (w *WebGL) CreateShader(t ShaderType) Shader {
	if !w.usable() {
		return 0
	}
	return Shader(w.store(w.gl.Call("createShader", int(t))))
}

func (w *WebGL) ShaderSource(s Shader, src string) {
	if w.usable() {
		w.gl.Call("shaderSource", w.lookup(uint32(s)), src)
	}
}

func (w *WebGL) CompileShader(s Shader) {
	if w.usable() {
		w.gl.Call("compileShader", w.lookup(uint32(s)))
	}
}

func (w *WebGL) ShaderCompiled(s Shader) bool {
	if !w.usable() {
		return false
	}
	return w.gl.Call("getShaderParameter", w.lookup(uint32(s)), w.consts.compileStatus).Truthy()
}

func (w *WebGL) ShaderInfoLog(s Shader) string {
	if !w.usable() {
		return "context lost"
	}
	return jsString(w.gl.Call("getShaderInfoLog", w.lookup(uint32(s))))
}

func (w *WebGL) DeleteShader(s Shader) { w.drop(uint32(s), "deleteShader") }

func (w *WebGL) CreateProgram() Program {
	if !w.usable() {
		return 0
	}
	return Program(w.store(w.gl.Call("createProgram")))
}

func (w *WebGL) AttachShader(p Program, s Shader) {
	if w.usable() {
		w.gl.Call("attachShader", w.lookup(uint32(p)), w.lookup(uint32(s)))
	}
}

func (w *WebGL) LinkProgram(p Program) {
	if w.usable() {
		w.gl.Call("linkProgram", w.lookup(uint32(p)))
	}
}

func (w *WebGL) ProgramLinked(p Program) bool {
	if !w.usable() {
		return false
	}
	return w.gl.Call("getProgramParameter", w.lookup(uint32(p)), w.consts.linkStatus).Truthy()
}

func (w *WebGL) ValidateProgram(p Program) {
	if w.usable() {
		w.gl.Call("validateProgram", w.lookup(uint32(p)))
	}
}

func (w *WebGL) ProgramValid(p Program) bool {
	if !w.usable() {
		return false
	}
	return w.gl.Call("getProgramParameter", w.lookup(uint32(p)), w.consts.validateStatus).Truthy()
}

func (w *WebGL) ProgramInfoLog(p Program) string {
	if !w.usable() {
		return "context lost"
	}
	return jsString(w.gl.Call("getProgramInfoLog", w.lookup(uint32(p))))
}

func (w *WebGL) DeleteProgram(p Program) {
	for _, loc := range w.progLocs[p] {
		w.uniforms[loc] = js.Null()
	}
	delete(w.progLocs, p)
	w.drop(uint32(p), "deleteProgram")
}

func (w *WebGL) UseProgram(p Program) {
	if w.usable() {
		w.gl.Call("useProgram", w.lookup(uint32(p)))
	}
}

func (w *WebGL) UniformLocation(p Program, name string) UniformLocation {
	if !w.usable() {
		return -1
	}
	v := w.gl.Call("getUniformLocation", w.lookup(uint32(p)), name)
	if v.IsNull() || v.IsUndefined() {
		return -1
	}
	loc := UniformLocation(len(w.uniforms))
	w.uniforms = append(w.uniforms, v)
	w.progLocs[p] = append(w.progLocs[p], loc)
	return loc
}

func (w *WebGL) AttribLocation(p Program, name string) AttribLocation {
	if !w.usable() {
		return -1
	}
	return AttribLocation(w.gl.Call("getAttribLocation", w.lookup(uint32(p)), name).Int())
}

func (w *WebGL) uniform(loc UniformLocation) (js.Value, bool) {
	if loc < 0 || int(loc) >= len(w.uniforms) || !w.usable() {
		return js.Null(), false
	}
	v := w.uniforms[loc]
	return v, !v.IsNull()
}

func (w *WebGL) CreateTexture() Texture {
	if !w.usable() {
		return 0
	}
	return Texture(w.store(w.gl.Call("createTexture")))
}

func (w *WebGL) TexImage2D(t Texture, width, height int, pixels []byte) {
	if !w.usable() {
		return
	}
	c := w.consts
	w.gl.Call("bindTexture", c.texture2D, w.lookup(uint32(t)))
	data := js.Null()
	if pixels != nil {
		data = js.Global().Get("Uint8Array").New(len(pixels))
		js.CopyBytesToJS(data, pixels)
	}
	w.gl.Call("texImage2D", c.texture2D, 0, c.rgba, width, height, 0, c.rgba, c.unsignedByte, data)
	w.gl.Call("texParameteri", c.texture2D, c.minFilter, c.linear)
	w.gl.Call("texParameteri", c.texture2D, c.magFilter, c.linear)
	w.gl.Call("texParameteri", c.texture2D, c.wrapS, c.clampToEdge)
	w.gl.Call("texParameteri", c.texture2D, c.wrapT, c.clampToEdge)
}

func (w *WebGL) DeleteTexture(t Texture) { w.drop(uint32(t), "deleteTexture") }

func (w *WebGL) CreateBuffer() Buffer {
	if !w.usable() {
		return 0
	}
	return Buffer(w.store(w.gl.Call("createBuffer")))
}

func (w *WebGL) BufferData(b Buffer, data []float32) {
	if !w.usable() {
		return
	}
	w.gl.Call("bindBuffer", w.consts.arrayBuffer, w.lookup(uint32(b)))
	w.gl.Call("bufferData", w.consts.arrayBuffer, float32Array(data), w.consts.staticDraw)
}

func (w *WebGL) DeleteBuffer(b Buffer) { w.drop(uint32(b), "deleteBuffer") }

func (w *WebGL) VertexAttribPointer(loc AttribLocation, b Buffer, size, stride, offset int) {
	if !w.usable() || loc < 0 {
		return
	}
	w.gl.Call("bindBuffer", w.consts.arrayBuffer, w.lookup(uint32(b)))
	w.gl.Call("enableVertexAttribArray", int(loc))
	w.gl.Call("vertexAttribPointer", int(loc), size, w.consts.floatType, false, stride, offset)
}

func (w *WebGL) Uniform1i(loc UniformLocation, v int) {
	if u, ok := w.uniform(loc); ok {
		w.gl.Call("uniform1i", u, v)
	}
}

func (w *WebGL) Uniform1f(loc UniformLocation, v float32) {
	if u, ok := w.uniform(loc); ok {
		w.gl.Call("uniform1f", u, v)
	}
}

func (w *WebGL) Uniform2f(loc UniformLocation, x, y float32) {
	if u, ok := w.uniform(loc); ok {
		w.gl.Call("uniform2f", u, x, y)
	}
}

func (w *WebGL) Viewport(x, y, width, height int) {
	if w.usable() {
		w.gl.Call("viewport", x, y, width, height)
	}
}

func (w *WebGL) Clear(r, g, b, a float32) {
	if w.usable() {
		w.gl.Call("clearColor", r, g, b, a)
		w.gl.Call("clear", w.consts.colorBufferBit)
	}
}

func (w *WebGL) DrawArrays(first, count int) {
	if w.usable() {
		w.gl.Call("drawArrays", w.consts.triangles, first, count)
	}
}

// Release forgets every remaining object and asks the browser to drop the
// context through WEBGL_lose_context when available.
func (w *WebGL) Release() {
	if w.released {
		return
	}
	if ext := w.gl.Call("getExtension", "WEBGL_lose_context"); !ext.IsNull() {
		ext.Call("loseContext")
	}
	w.released = true
	w.objects = make(map[uint32]js.Value)
	w.uniforms = nil
	w.progLocs = make(map[Program][]UniformLocation)
}

func jsString(v js.Value) string {
	if v.Type() != js.TypeString {
		return ""
	}
	return v.String()
}

func float32Array(data []float32) js.Value {
	if len(data) == 0 {
		return js.Global().Get("Float32Array").New(0)
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
	u8 := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(u8, b)
	return js.Global().Get("Float32Array").New(u8.Get("buffer"))
}

var _ Context = (*WebGL)(nil)
