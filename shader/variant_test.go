package shader

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/naga/glsl"

	"github.com/gogpu/ripple/device"
	"github.com/gogpu/ripple/gl"
)

func TestBuiltinVariants(t *testing.T) {
	for _, v := range []Variant{High, Medium, Low} {
		if err := v.Validate(); err != nil {
			t.Errorf("%s.Validate() = %v", v.Name, err)
		}
		if v.VertexSource != High.VertexSource {
			t.Errorf("%s does not share the vertex stage", v.Name)
		}
	}
}

func TestRegistryForTier(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		tier device.Tier
		want string
	}{
		{device.TierHigh, "high"},
		{device.TierMedium, "medium"},
		{device.TierLow, "low"},
		{device.Tier(7), "low"},
	}
	for _, tt := range tests {
		if got := r.ForTier(tt.tier).Name; got != tt.want {
			t.Errorf("ForTier(%v) = %q, want %q", tt.tier, got, tt.want)
		}
	}
	if got := r.ForComplexity(device.ComplexityReduced).Name; got != "medium" {
		t.Errorf("ForComplexity(reduced) = %q, want medium", got)
	}
	if got := r.Names(); strings.Join(got, ",") != "high,low,medium" {
		t.Errorf("Names() = %v", got)
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	custom := Low
	custom.Name = "low-mono"
	custom.FragmentSource = strings.Replace(Low.FragmentSource, "gl_FragColor = texture2D(uTexture, vUv + d * wave);",
		"float l = dot(texture2D(uTexture, vUv + d * wave).rgb, vec3(0.299, 0.587, 0.114));\n\tgl_FragColor = vec4(vec3(l), 1.0);", 1)
	if err := r.Register(custom); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if got := r.ForTier(device.TierLow).Name; got != "low-mono" {
		t.Errorf("ForTier(low) = %q, want low-mono", got)
	}
	if _, ok := r.Lookup("low"); ok {
		t.Error("replaced variant still registered")
	}

	moved := High
	moved.Complexity = device.TierLow
	if err := r.Register(moved); !errors.Is(err, ErrInvalidVariant) {
		t.Errorf("Register(high as low) error = %v, want ErrInvalidVariant", err)
	}
}

func TestVariantValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Variant)
	}{
		{"no name", func(v *Variant) { v.Name = "" }},
		{"no fragment", func(v *Variant) { v.FragmentSource = "" }},
		{"bad tier", func(v *Variant) { v.Complexity = 3 }},
		{"no uTexture", func(v *Variant) {
			v.FragmentSource = strings.Replace(v.FragmentSource, "uniform sampler2D uTexture;", "", 1)
		}},
		{"no uTime", func(v *Variant) {
			v.FragmentSource = strings.Replace(v.FragmentSource, "uniform float uTime;", "", 1)
		}},
		{"no vUv", func(v *Variant) {
			v.FragmentSource = strings.Replace(v.FragmentSource, "varying vec2 vUv;", "", 1)
		}},
		{"vUv unused", func(v *Variant) {
			v.FragmentSource = "precision mediump float;\nuniform sampler2D uTexture;\nuniform float uTime;\nvarying vec2 vUv;\nvoid main() { gl_FragColor = vec4(uTime); }\n"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Medium
			tt.mutate(&v)
			if err := v.Validate(); !errors.Is(err, ErrInvalidVariant) {
				t.Errorf("Validate() = %v, want ErrInvalidVariant", err)
			}
		})
	}
}

func TestDirective(t *testing.T) {
	tests := []struct {
		v    glsl.Version
		want string
	}{
		{gl.VersionES100, "#version 100"},
		{gl.VersionES300, "#version 300 es"},
		{glsl.Version{Major: 3, Minor: 30}, "#version 330 core"},
		{glsl.Version{Major: 1, Minor: 20}, "#version 120"},
	}
	for _, tt := range tests {
		if got := Directive(tt.v); got != tt.want {
			t.Errorf("Directive(%+v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestSourceES100Unchanged(t *testing.T) {
	got := Source(High.FragmentSource, gl.FragmentShader, gl.VersionES100)
	if !strings.HasPrefix(got, "#version 100\n") {
		t.Errorf("Source() starts with %q", got[:20])
	}
	if strings.TrimPrefix(got, "#version 100\n") != High.FragmentSource {
		t.Error("ES 1.00 source was rewritten")
	}
}

func TestSourceES300(t *testing.T) {
	vs := Source(High.VertexSource, gl.VertexShader, gl.VersionES300)
	for _, want := range []string{"#version 300 es\n", "in vec2 position;", "in vec2 uv;", "out vec2 vUv;"} {
		if !strings.Contains(vs, want) {
			t.Errorf("vertex source missing %q", want)
		}
	}
	if strings.Contains(vs, "attribute") || strings.Contains(vs, "varying") {
		t.Error("vertex source keeps legacy qualifiers")
	}

	fs := Source(High.FragmentSource, gl.FragmentShader, gl.VersionES300)
	for _, want := range []string{"in vec2 vUv;", "texture(uTexture", "out vec4 fragColor;", "fragColor = vec4("} {
		if !strings.Contains(fs, want) {
			t.Errorf("fragment source missing %q", want)
		}
	}
	for _, legacy := range []string{"gl_FragColor", "texture2D", "varying"} {
		if strings.Contains(fs, legacy) {
			t.Errorf("fragment source keeps %q", legacy)
		}
	}
	if p, o := strings.Index(fs, "precision"), strings.Index(fs, "out vec4 fragColor"); o < p {
		t.Error("output declared before default precision")
	}
}

func TestSourceReplacesVersion(t *testing.T) {
	got := Source("#version 100\nvoid main() {}\n", gl.VertexShader, gl.VersionES300)
	if strings.Count(got, "#version") != 1 || !strings.HasPrefix(got, "#version 300 es") {
		t.Errorf("Source() = %q", got)
	}
}
