// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gl

import (
	"strings"
	"sync"

	"github.com/gogpu/naga/glsl"
	"github.com/google/uuid"
)

// NullConfig describes the limits a NullContext reports.
type NullConfig struct {
	// ShadingLanguage defaults to VersionES100.
	ShadingLanguage glsl.Version
	// MaxTextureSize defaults to 4096.
	MaxTextureSize int
	// Renderer defaults to "NullContext".
	Renderer string
}

// LiveObjects counts objects created and not yet deleted.
type LiveObjects struct {
	Shaders  int
	Programs int
	Textures int
	Buffers  int
}

// Total returns the number of live objects of every kind.
func (l LiveObjects) Total() int {
	return l.Shaders + l.Programs + l.Textures + l.Buffers
}

type nullShader struct {
	typ      ShaderType
	source   string
	compiled bool
	log      string
}

type nullProgram struct {
	shaders  []Shader
	linked   bool
	valid    bool
	log      string
	uniforms map[string]UniformLocation
	attribs  map[string]AttribLocation
}

// NullContext is a headless Context. It performs no rendering but tracks
// object lifetimes, records how often each method is called and can be told
// to fail creation, compilation, linking or validation.
//
// A linked program exposes the uniforms and attributes declared in its
// shader sources, in declaration order, so location lookups behave like a
// real driver that strips nothing.
type NullContext struct {
	mu       sync.Mutex
	id       uuid.UUID
	cfg      NullConfig
	lost     bool
	next     uint32
	shaders  map[Shader]*nullShader
	programs map[Program]*nullProgram
	textures map[Texture][2]int
	buffers  map[Buffer]int
	calls    map[string]int
	current  Program

	failCreateShader  map[ShaderType]bool
	failCompile       map[ShaderType]string
	failCreateProgram bool
	failLink          string
	failValidate      string
}

// NewNullContext creates a NullContext with the given limits.
func NewNullContext(cfg NullConfig) *NullContext {
	if cfg.ShadingLanguage == (glsl.Version{}) {
		cfg.ShadingLanguage = VersionES100
	}
	if cfg.MaxTextureSize == 0 {
		cfg.MaxTextureSize = 4096
	}
	if cfg.Renderer == "" {
		cfg.Renderer = "NullContext"
	}
	return &NullContext{
		id:               uuid.New(),
		cfg:              cfg,
		shaders:          make(map[Shader]*nullShader),
		programs:         make(map[Program]*nullProgram),
		textures:         make(map[Texture][2]int),
		buffers:          make(map[Buffer]int),
		calls:            make(map[string]int),
		failCreateShader: make(map[ShaderType]bool),
		failCompile:      make(map[ShaderType]string),
	}
}

// NullFactory returns a Factory producing fresh NullContexts.
func NullFactory(cfg NullConfig) Factory {
	return func() (Context, error) {
		return NewNullContext(cfg), nil
	}
}

// FailCreateShader makes CreateShader return 0 for shaders of type t.
func (c *NullContext) FailCreateShader(t ShaderType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failCreateShader[t] = true
}

// FailCompile makes compilation of type t fail with the given info log.
func (c *NullContext) FailCompile(t ShaderType, log string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failCompile[t] = log
}

// FailCreateProgram makes CreateProgram return 0.
func (c *NullContext) FailCreateProgram() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failCreateProgram = true
}

// FailLink makes LinkProgram fail with the given info log.
func (c *NullContext) FailLink(log string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failLink = log
}

// FailValidate makes ValidateProgram fail with the given info log.
func (c *NullContext) FailValidate(log string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failValidate = log
}

// ClearFailures removes every injected failure.
func (c *NullContext) ClearFailures() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failCreateShader = make(map[ShaderType]bool)
	c.failCompile = make(map[ShaderType]string)
	c.failCreateProgram = false
	c.failLink = ""
	c.failValidate = ""
}

// Calls returns how many times the named method was called.
func (c *NullContext) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// ResetCalls zeroes every call counter.
func (c *NullContext) ResetCalls() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = make(map[string]int)
}

// Live returns the objects that are currently allocated.
func (c *NullContext) Live() LiveObjects {
	c.mu.Lock()
	defer c.mu.Unlock()
	return LiveObjects{
		Shaders:  len(c.shaders),
		Programs: len(c.programs),
		Textures: len(c.textures),
		Buffers:  len(c.buffers),
	}
}

// CurrentProgram returns the program bound by the last UseProgram.
func (c *NullContext) CurrentProgram() Program {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Lose simulates a lost context.
func (c *NullContext) Lose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lost = true
}

// record counts a call and reports whether the context is still usable.
// Caller must hold c.mu.
func (c *NullContext) record(method string) bool {
	c.calls[method]++
	return !c.lost
}

func (c *NullContext) handle() uint32 {
	c.next++
	return c.next
}

func (c *NullContext) ID() uuid.UUID { return c.id }

func (c *NullContext) ShadingLanguage() glsl.Version { return c.cfg.ShadingLanguage }

func (c *NullContext) MaxTextureSize() int { return c.cfg.MaxTextureSize }

func (c *NullContext) Renderer() string { return c.cfg.Renderer }

func (c *NullContext) IsContextLost() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lost
}

func (c *NullContext) CreateShader(t ShaderType) Shader {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.record("CreateShader") || c.failCreateShader[t] {
		return 0
	}
	if t != VertexShader && t != FragmentShader {
		return 0
	}
	s := Shader(c.handle())
	c.shaders[s] = &nullShader{typ: t}
	return s
}

func (c *NullContext) ShaderSource(s Shader, src string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.record("ShaderSource") {
		return
	}
	if sh, ok := c.shaders[s]; ok {
		sh.source = src
	}
}

func (c *NullContext) CompileShader(s Shader) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.record("CompileShader") {
		return
	}
	sh, ok := c.shaders[s]
	if !ok {
		return
	}
	switch {
	case c.failCompile[sh.typ] != "":
		sh.compiled, sh.log = false, c.failCompile[sh.typ]
	case strings.TrimSpace(sh.source) == "":
		sh.compiled, sh.log = false, "ERROR: 0:1: '' : syntax error: empty source"
	default:
		sh.compiled, sh.log = true, ""
	}
}

func (c *NullContext) ShaderCompiled(s Shader) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ShaderCompiled")
	sh, ok := c.shaders[s]
	return ok && sh.compiled
}

func (c *NullContext) ShaderInfoLog(s Shader) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ShaderInfoLog")
	if sh, ok := c.shaders[s]; ok {
		return sh.log
	}
	return ""
}

func (c *NullContext) DeleteShader(s Shader) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("DeleteShader")
	delete(c.shaders, s)
}

func (c *NullContext) CreateProgram() Program {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.record("CreateProgram") || c.failCreateProgram {
		return 0
	}
	p := Program(c.handle())
	c.programs[p] = &nullProgram{}
	return p
}

func (c *NullContext) AttachShader(p Program, s Shader) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.record("AttachShader") {
		return
	}
	if pr, ok := c.programs[p]; ok {
		if _, ok := c.shaders[s]; ok {
			pr.shaders = append(pr.shaders, s)
		}
	}
}

func (c *NullContext) LinkProgram(p Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.record("LinkProgram") {
		return
	}
	pr, ok := c.programs[p]
	if !ok {
		return
	}
	pr.linked, pr.valid = false, false
	pr.uniforms, pr.attribs = nil, nil

	if c.failLink != "" {
		pr.log = c.failLink
		return
	}
	var vs, fs *nullShader
	for _, s := range pr.shaders {
		sh, ok := c.shaders[s]
		if !ok || !sh.compiled {
			continue
		}
		switch sh.typ {
		case VertexShader:
			vs = sh
		case FragmentShader:
			fs = sh
		}
	}
	if vs == nil || fs == nil {
		pr.log = "ERROR: program requires a compiled vertex and fragment shader"
		return
	}

	pr.uniforms = make(map[string]UniformLocation)
	pr.attribs = make(map[string]AttribLocation)
	for _, src := range []string{vs.source, fs.source} {
		for _, name := range declared(src, "uniform") {
			if _, dup := pr.uniforms[name]; !dup {
				pr.uniforms[name] = UniformLocation(len(pr.uniforms))
			}
		}
	}
	for _, q := range []string{"attribute", "in"} {
		for _, name := range declared(vs.source, q) {
			if _, dup := pr.attribs[name]; !dup {
				pr.attribs[name] = AttribLocation(len(pr.attribs))
			}
		}
	}
	pr.linked, pr.log = true, ""
}

func (c *NullContext) ProgramLinked(p Program) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ProgramLinked")
	pr, ok := c.programs[p]
	return ok && pr.linked
}

func (c *NullContext) ValidateProgram(p Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.record("ValidateProgram") {
		return
	}
	pr, ok := c.programs[p]
	if !ok {
		return
	}
	if c.failValidate != "" {
		pr.valid, pr.log = false, c.failValidate
		return
	}
	pr.valid = pr.linked
}

func (c *NullContext) ProgramValid(p Program) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ProgramValid")
	pr, ok := c.programs[p]
	return ok && pr.valid
}

func (c *NullContext) ProgramInfoLog(p Program) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ProgramInfoLog")
	if pr, ok := c.programs[p]; ok {
		return pr.log
	}
	return ""
}

func (c *NullContext) DeleteProgram(p Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("DeleteProgram")
	delete(c.programs, p)
	if c.current == p {
		c.current = 0
	}
}

func (c *NullContext) UseProgram(p Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.record("UseProgram") {
		return
	}
	if _, ok := c.programs[p]; ok || p == 0 {
		c.current = p
	}
}

func (c *NullContext) UniformLocation(p Program, name string) UniformLocation {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("UniformLocation")
	if pr, ok := c.programs[p]; ok && pr.linked {
		if loc, ok := pr.uniforms[name]; ok {
			return loc
		}
	}
	return -1
}

func (c *NullContext) AttribLocation(p Program, name string) AttribLocation {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("AttribLocation")
	if pr, ok := c.programs[p]; ok && pr.linked {
		if loc, ok := pr.attribs[name]; ok {
			return loc
		}
	}
	return -1
}

func (c *NullContext) CreateTexture() Texture {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.record("CreateTexture") {
		return 0
	}
	t := Texture(c.handle())
	c.textures[t] = [2]int{}
	return t
}

func (c *NullContext) TexImage2D(t Texture, width, height int, _ []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.record("TexImage2D") {
		return
	}
	if _, ok := c.textures[t]; ok {
		c.textures[t] = [2]int{width, height}
	}
}

func (c *NullContext) DeleteTexture(t Texture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("DeleteTexture")
	delete(c.textures, t)
}

func (c *NullContext) CreateBuffer() Buffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.record("CreateBuffer") {
		return 0
	}
	b := Buffer(c.handle())
	c.buffers[b] = 0
	return b
}

func (c *NullContext) BufferData(b Buffer, data []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.record("BufferData") {
		return
	}
	if _, ok := c.buffers[b]; ok {
		c.buffers[b] = len(data) * 4
	}
}

func (c *NullContext) DeleteBuffer(b Buffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("DeleteBuffer")
	delete(c.buffers, b)
}

func (c *NullContext) VertexAttribPointer(AttribLocation, Buffer, int, int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("VertexAttribPointer")
}

func (c *NullContext) Uniform1i(UniformLocation, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("Uniform1i")
}

func (c *NullContext) Uniform1f(UniformLocation, float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("Uniform1f")
}

func (c *NullContext) Uniform2f(UniformLocation, float32, float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("Uniform2f")
}

func (c *NullContext) Viewport(int, int, int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("Viewport")
}

func (c *NullContext) Clear(float32, float32, float32, float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("Clear")
}

func (c *NullContext) DrawArrays(int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("DrawArrays")
}

func (c *NullContext) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("Release")
	c.lost = true
}

// declared returns the names declared with the given storage qualifier,
// e.g. "uniform" or "attribute", in source order.
func declared(src, qualifier string) []string {
	var names []string
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[0] != qualifier {
			continue
		}
		name := strings.TrimSuffix(fields[len(fields)-1], ";")
		if i := strings.IndexByte(name, '['); i >= 0 {
			name = name[:i]
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

var _ Context = (*NullContext)(nil)
