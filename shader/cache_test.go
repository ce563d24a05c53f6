package shader

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/ripple/gl"
)

func newNull() *gl.NullContext {
	return gl.NewNullContext(gl.NullConfig{})
}

func TestGetShaderIdempotent(t *testing.T) {
	glc := newNull()
	c := NewCache(nil)

	p1, err := c.GetShader(context.Background(), glc, High, nil, nil)
	if err != nil {
		t.Fatalf("GetShader() error = %v", err)
	}
	glc.ResetCalls()
	p2, err := c.GetShader(context.Background(), glc, High, nil, nil)
	if err != nil {
		t.Fatalf("second GetShader() error = %v", err)
	}
	if p1 != p2 {
		t.Error("second GetShader() returned a different program")
	}
	if p2.UseCount != 2 {
		t.Errorf("UseCount = %d, want 2", p2.UseCount)
	}
	for _, m := range []string{"CreateShader", "CompileShader", "CreateProgram", "LinkProgram"} {
		if n := glc.Calls(m); n != 0 {
			t.Errorf("cache hit called %s %d times, want 0", m, n)
		}
	}
	if s := c.Stats(); s.Compiles != 1 || s.Hits != 1 {
		t.Errorf("Stats() = %+v, want 1 compile and 1 hit", s)
	}
}

func TestGetShaderCreatesOneProgramPerKey(t *testing.T) {
	glc := newNull()
	c := NewCache(nil)
	ctx := context.Background()

	if _, err := c.GetShader(ctx, glc, Medium, nil, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetShader(ctx, glc, Medium, nil, nil); err != nil {
		t.Fatal(err)
	}
	if n := glc.Calls("CreateProgram"); n != 1 {
		t.Fatalf("CreateProgram calls = %d, want 1", n)
	}

	if _, err := c.GetShader(ctx, glc, Medium, []string{"uIntensity"}, nil); err != nil {
		t.Fatal(err)
	}
	if n := glc.Calls("CreateProgram"); n != 2 {
		t.Errorf("CreateProgram calls after new extras = %d, want 2", n)
	}

	// Order and duplicates of extras do not matter.
	a, _ := c.GetShader(ctx, glc, Medium, []string{"b", "a", "a"}, nil)
	b, _ := c.GetShader(ctx, glc, Medium, []string{"a", "b"}, nil)
	if a != b {
		t.Error("extras in different order produced different programs")
	}
	if n := glc.Calls("CreateProgram"); n != 3 {
		t.Errorf("CreateProgram calls = %d, want 3", n)
	}
}

func TestGetShaderSeparatesContexts(t *testing.T) {
	a, b := newNull(), newNull()
	c := NewCache(nil)

	pa, err := c.GetShader(context.Background(), a, Low, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	pb, err := c.GetShader(context.Background(), b, Low, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if pa == pb {
		t.Error("programs shared across contexts")
	}
	if b.Calls("CreateProgram") != 1 {
		t.Errorf("context B CreateProgram calls = %d, want 1", b.Calls("CreateProgram"))
	}
}

func TestGetShaderLinkFailureCleansUp(t *testing.T) {
	glc := newNull()
	glc.FailLink("ERROR: Definitions of uniform uTime differ")
	c := NewCache(nil)

	_, err := c.GetShader(context.Background(), glc, High, nil, nil)
	if !errors.Is(err, ErrCompile) {
		t.Fatalf("GetShader() error = %v, want ErrCompile", err)
	}
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("error %T is not *CompileError", err)
	}
	if ce.Stage != StageLink || ce.Variant != "high" {
		t.Errorf("CompileError = %+v, want link stage of high", ce)
	}
	if ce.Log != "ERROR: Definitions of uniform uTime differ" {
		t.Errorf("Log = %q, want driver log verbatim", ce.Log)
	}
	if n := glc.Calls("DeleteProgram"); n != 1 {
		t.Errorf("DeleteProgram calls = %d, want 1", n)
	}
	if n := glc.Calls("DeleteShader"); n != 2 {
		t.Errorf("DeleteShader calls = %d, want 2", n)
	}
	if live := glc.Live(); live.Total() != 0 {
		t.Errorf("Live() = %+v, want nothing", live)
	}
}

func TestGetShaderCompileFailures(t *testing.T) {
	tests := []struct {
		name          string
		inject        func(*gl.NullContext)
		stage         Stage
		deleteShaders int
	}{
		{"vertex create", func(c *gl.NullContext) { c.FailCreateShader(gl.VertexShader) }, StageVertex, 0},
		{"vertex compile", func(c *gl.NullContext) { c.FailCompile(gl.VertexShader, "0:3: syntax error") }, StageVertex, 1},
		{"fragment compile", func(c *gl.NullContext) { c.FailCompile(gl.FragmentShader, "0:9: undeclared") }, StageFragment, 2},
		{"create program", func(c *gl.NullContext) { c.FailCreateProgram() }, StageProgram, 2},
		{"validate", func(c *gl.NullContext) { c.FailValidate("sampler mismatch") }, StageValidate, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			glc := newNull()
			tt.inject(glc)
			_, err := NewCache(nil).GetShader(context.Background(), glc, Medium, nil, nil)
			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("GetShader() error = %v, want *CompileError", err)
			}
			if ce.Stage != tt.stage {
				t.Errorf("Stage = %q, want %q", ce.Stage, tt.stage)
			}
			if n := glc.Calls("DeleteShader"); n != tt.deleteShaders {
				t.Errorf("DeleteShader calls = %d, want %d", n, tt.deleteShaders)
			}
			if live := glc.Live(); live.Total() != 0 {
				t.Errorf("Live() = %+v, want nothing", live)
			}
		})
	}
}

func TestGetShaderRemembersFailures(t *testing.T) {
	glc := newNull()
	glc.FailCompile(gl.FragmentShader, "boom")
	c := NewCache(nil)

	if _, err := c.GetShader(context.Background(), glc, Low, nil, nil); err == nil {
		t.Fatal("GetShader() succeeded, want error")
	}
	glc.ClearFailures()
	glc.ResetCalls()
	if _, err := c.GetShader(context.Background(), glc, Low, nil, nil); !errors.Is(err, ErrCompile) {
		t.Fatalf("GetShader() after failure error = %v, want remembered ErrCompile", err)
	}
	if n := glc.Calls("CreateShader"); n != 0 {
		t.Errorf("remembered failure called CreateShader %d times", n)
	}
	if s := c.Stats(); s.Failed != 1 {
		t.Errorf("Stats().Failed = %d, want 1", s.Failed)
	}

	c.Clear()
	if _, err := c.GetShader(context.Background(), glc, Low, nil, nil); err != nil {
		t.Errorf("GetShader() after Clear error = %v", err)
	}
}

func TestGetShaderLocations(t *testing.T) {
	glc := newNull()
	c := NewCache(nil)

	high, err := c.GetShader(context.Background(), glc, High, []string{"uIntensity", "uMissing"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range append(StandardUniforms, "uIntensity") {
		if !high.Uniform(name).Valid() {
			t.Errorf("high.Uniform(%q) = %d, want valid", name, high.Uniform(name))
		}
	}
	if high.Uniform("uMissing").Valid() {
		t.Error("absent extra uniform resolved")
	}
	for _, name := range StandardAttributes {
		if !high.Attribute(name).Valid() {
			t.Errorf("high.Attribute(%q) invalid", name)
		}
	}

	low, err := c.GetShader(context.Background(), glc, Low, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := low.Uniforms["uImageAspect"]; ok {
		t.Error("low variant reports uImageAspect")
	}
	if !low.Uniform("uTexture").Valid() || !low.Uniform("uTime").Valid() {
		t.Error("low variant lacks uTexture or uTime")
	}
}

func TestGetShaderES300(t *testing.T) {
	glc := gl.NewNullContext(gl.NullConfig{ShadingLanguage: gl.VersionES300})
	p, err := NewCache(nil).GetShader(context.Background(), glc, High, nil, nil)
	if err != nil {
		t.Fatalf("GetShader() error = %v", err)
	}
	if !p.Attribute("position").Valid() || !p.Uniform("uMouse").Valid() {
		t.Errorf("ES 3.00 program locations = %v %v", p.Attributes, p.Uniforms)
	}
}

func TestGetShaderHonoursContext(t *testing.T) {
	glc := newNull()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewCache(nil).GetShader(ctx, glc, High, nil, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("GetShader() error = %v, want context.Canceled", err)
	}
	if n := glc.Calls("CreateShader"); n != 0 {
		t.Errorf("CreateShader calls = %d, want 0", n)
	}
}

func TestGetShaderLostContext(t *testing.T) {
	glc := newNull()
	glc.Lose()
	c := NewCache(nil)
	if _, err := c.GetShader(context.Background(), glc, High, nil, nil); !errors.Is(err, gl.ErrNoContext) {
		t.Errorf("GetShader() error = %v, want gl.ErrNoContext", err)
	}
	if _, err := c.GetShader(context.Background(), nil, High, nil, nil); !errors.Is(err, gl.ErrNoContext) {
		t.Errorf("GetShader(nil) error = %v, want gl.ErrNoContext", err)
	}
	if c.Stats().Failed != 0 {
		t.Error("lost context was remembered as a compile failure")
	}
}

func TestReleaseContextAndCleanup(t *testing.T) {
	a, b := newNull(), newNull()
	c := NewCache(nil)
	ctx := context.Background()
	for _, v := range []Variant{Low, Medium, High} {
		if _, err := c.GetShader(ctx, a, v, nil, nil); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := c.GetShader(ctx, b, Low, nil, nil); err != nil {
		t.Fatal(err)
	}

	if n := c.ReleaseContext(a); n != 3 {
		t.Errorf("ReleaseContext(a) = %d, want 3", n)
	}
	if n := a.Calls("DeleteProgram"); n != 3 {
		t.Errorf("DeleteProgram on a = %d, want 3", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	if _, err := c.GetShader(ctx, b, Medium, nil, nil); err != nil {
		t.Fatal(err)
	}
	if n := c.Cleanup(1); n != 1 {
		t.Errorf("Cleanup(1) = %d, want 1", n)
	}
	if b.Live().Programs != 1 {
		t.Errorf("live programs on b = %d, want 1", b.Live().Programs)
	}
	if c.Stats().Evictions != 1 {
		t.Errorf("Stats().Evictions = %d, want 1", c.Stats().Evictions)
	}

	c.Clear()
	if b.Live().Programs != 0 || c.Len() != 0 {
		t.Error("Clear() left programs behind")
	}
}

func TestKeyCanonical(t *testing.T) {
	id := newNull().ID()
	if Key(id, "high", []string{"b", "a"}, nil) != Key(id, "high", []string{"a", "b", "b"}, nil) {
		t.Error("Key() depends on extra order")
	}
	if Key(id, "high", []string{"a"}, nil) == Key(id, "high", nil, []string{"a"}) {
		t.Error("Key() confuses uniforms and attributes")
	}
}

func TestGetShaderKeysOnSources(t *testing.T) {
	glc := newNull()
	c := NewCache(nil)
	ctx := context.Background()

	p1, err := c.GetShader(ctx, glc, High, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	custom := High
	custom.FragmentSource = Medium.FragmentSource
	p2, err := c.GetShader(ctx, glc, custom, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p1 == p2 {
		t.Fatal("variants with the same name but different sources share a program")
	}
	if p2.Variant.FragmentSource != custom.FragmentSource {
		t.Error("GetShader(custom) returned a program built from other sources")
	}
	if n := glc.Calls("CreateProgram"); n != 2 {
		t.Errorf("CreateProgram calls = %d, want 2", n)
	}

	r := NewRegistry()
	if err := r.Register(custom); err != nil {
		t.Fatal(err)
	}
	p3, err := c.GetShader(ctx, glc, r.ForTier(High.Complexity), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p3 != p2 {
		t.Error("replaced registry variant did not resolve to its own program")
	}
}

func TestVariantIdentity(t *testing.T) {
	if High.Identity() == Medium.Identity() {
		t.Error("Identity() equal for different variants")
	}
	if High.Identity() != High.Identity() {
		t.Error("Identity() not stable")
	}
	custom := High
	custom.VertexSource += "\n"
	if custom.Identity() == High.Identity() {
		t.Error("Identity() ignores the vertex source")
	}
}
