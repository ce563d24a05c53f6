package gl

import "testing"

const (
	testVS = `attribute vec2 position;
attribute vec2 uv;
varying vec2 vUv;
void main() { vUv = uv; gl_Position = vec4(position, 0.0, 1.0); }`

	testFS = `precision mediump float;
uniform sampler2D uTexture;
uniform float uTime; // seconds
uniform vec2 uMouse[2];
varying vec2 vUv;
void main() { gl_FragColor = texture2D(uTexture, vUv); }`
)

func buildProgram(t *testing.T, c *NullContext) Program {
	t.Helper()
	vs := c.CreateShader(VertexShader)
	c.ShaderSource(vs, testVS)
	c.CompileShader(vs)
	fs := c.CreateShader(FragmentShader)
	c.ShaderSource(fs, testFS)
	c.CompileShader(fs)
	p := c.CreateProgram()
	c.AttachShader(p, vs)
	c.AttachShader(p, fs)
	c.LinkProgram(p)
	return p
}

func TestNullContextDefaults(t *testing.T) {
	c := NewNullContext(NullConfig{})
	if got := c.ShadingLanguage(); got != VersionES100 {
		t.Errorf("ShadingLanguage() = %v, want %v", got, VersionES100)
	}
	if got := c.MaxTextureSize(); got != 4096 {
		t.Errorf("MaxTextureSize() = %d, want 4096", got)
	}
	if c.Renderer() == "" {
		t.Error("Renderer() is empty")
	}
	if NewNullContext(NullConfig{}).ID() == c.ID() {
		t.Error("two contexts share an ID")
	}
}

func TestNullContextLinkResolvesDeclarations(t *testing.T) {
	c := NewNullContext(NullConfig{})
	p := buildProgram(t, c)
	if !c.ProgramLinked(p) {
		t.Fatalf("ProgramLinked() = false, log %q", c.ProgramInfoLog(p))
	}

	for _, name := range []string{"uTexture", "uTime", "uMouse"} {
		if !c.UniformLocation(p, name).Valid() {
			t.Errorf("UniformLocation(%q) invalid", name)
		}
	}
	if c.UniformLocation(p, "uPlaneAspect").Valid() {
		t.Error("UniformLocation(uPlaneAspect) valid for undeclared uniform")
	}
	for _, name := range []string{"position", "uv"} {
		if !c.AttribLocation(p, name).Valid() {
			t.Errorf("AttribLocation(%q) invalid", name)
		}
	}
	if c.AttribLocation(p, "vUv").Valid() {
		t.Error("AttribLocation(vUv) valid for a varying")
	}
}

func TestNullContextInjectedFailures(t *testing.T) {
	tests := []struct {
		name   string
		inject func(c *NullContext)
		check  func(t *testing.T, c *NullContext, p Program)
	}{
		{
			name:   "compile",
			inject: func(c *NullContext) { c.FailCompile(FragmentShader, "ERROR: 0:3: bad") },
			check: func(t *testing.T, c *NullContext, p Program) {
				if c.ProgramLinked(p) {
					t.Error("ProgramLinked() = true with failed fragment shader")
				}
			},
		},
		{
			name:   "link",
			inject: func(c *NullContext) { c.FailLink("link failed") },
			check: func(t *testing.T, c *NullContext, p Program) {
				if c.ProgramLinked(p) {
					t.Error("ProgramLinked() = true")
				}
				if got := c.ProgramInfoLog(p); got != "link failed" {
					t.Errorf("ProgramInfoLog() = %q, want %q", got, "link failed")
				}
			},
		},
		{
			name:   "validate",
			inject: func(c *NullContext) { c.FailValidate("validate failed") },
			check: func(t *testing.T, c *NullContext, p Program) {
				c.ValidateProgram(p)
				if c.ProgramValid(p) {
					t.Error("ProgramValid() = true")
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewNullContext(NullConfig{})
			tt.inject(c)
			p := buildProgram(t, c)
			tt.check(t, c, p)
		})
	}
}

func TestNullContextCreateFailures(t *testing.T) {
	c := NewNullContext(NullConfig{})
	c.FailCreateShader(VertexShader)
	c.FailCreateProgram()
	if s := c.CreateShader(VertexShader); s != 0 {
		t.Errorf("CreateShader(vertex) = %d, want 0", s)
	}
	if s := c.CreateShader(FragmentShader); s == 0 {
		t.Error("CreateShader(fragment) = 0, want a handle")
	}
	if p := c.CreateProgram(); p != 0 {
		t.Errorf("CreateProgram() = %d, want 0", p)
	}
	c.ClearFailures()
	if p := c.CreateProgram(); p == 0 {
		t.Error("CreateProgram() after ClearFailures = 0")
	}
}

func TestNullContextLiveObjectsAndCalls(t *testing.T) {
	c := NewNullContext(NullConfig{})
	tex := c.CreateTexture()
	buf := c.CreateBuffer()
	p := buildProgram(t, c)

	live := c.Live()
	if live.Shaders != 2 || live.Programs != 1 || live.Textures != 1 || live.Buffers != 1 {
		t.Errorf("Live() = %+v, want 2 shaders, 1 of everything else", live)
	}

	c.DeleteTexture(tex)
	c.DeleteBuffer(buf)
	c.DeleteProgram(p)
	if got := c.Live().Total(); got != 2 {
		t.Errorf("Live().Total() = %d, want 2", got)
	}
	if got := c.Calls("CreateShader"); got != 2 {
		t.Errorf("Calls(CreateShader) = %d, want 2", got)
	}
	c.ResetCalls()
	if got := c.Calls("CreateShader"); got != 0 {
		t.Errorf("Calls(CreateShader) after reset = %d, want 0", got)
	}
}

func TestNullContextReleaseLosesContext(t *testing.T) {
	c := NewNullContext(NullConfig{})
	c.Release()
	if !c.IsContextLost() {
		t.Error("IsContextLost() = false after Release")
	}
	if tex := c.CreateTexture(); tex != 0 {
		t.Errorf("CreateTexture() after Release = %d, want 0", tex)
	}
}
