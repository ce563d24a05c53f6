// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package shader holds the ripple shader variants and a cache of compiled
// GL programs.
//
// Every variant shares one vertex stage; the fragment stages differ in
// uniform count and math per quality tier. Sources are written in GLSL ES
// 1.00 and upgraded on the fly for contexts that speak a newer dialect.
package shader

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/gogpu/ripple/device"
)

//go:embed shaders/ripple.vert
var vertexSource string

//go:embed shaders/ripple_high.frag
var highFragmentSource string

//go:embed shaders/ripple_medium.frag
var mediumFragmentSource string

//go:embed shaders/ripple_low.frag
var lowFragmentSource string

// ErrInvalidVariant is returned by Registry.Register for malformed variants.
var ErrInvalidVariant = errors.New("shader: invalid variant")

// Variant is an immutable pair of shader sources for one quality tier.
type Variant struct {
	// Name identifies the variant in cache keys and errors.
	Name           string
	VertexSource   string
	FragmentSource string
	// Complexity is the tier the variant is designed for.
	Complexity  device.Tier
	Description string
}

// Identity returns the name qualified by a digest of both sources, so two
// variants sharing a name but not their sources never share a program.
func (v Variant) Identity() string {
	h := sha256.New()
	h.Write([]byte(v.VertexSource))
	h.Write([]byte{0})
	h.Write([]byte(v.FragmentSource))
	return v.Name + "@" + hex.EncodeToString(h.Sum(nil)[:8])
}

// Standard uniform and attribute names resolved for every program.
var (
	StandardUniforms   = []string{"uTexture", "uTime", "uImageAspect", "uPlaneAspect", "uMouse"}
	StandardAttributes = []string{"position", "uv"}
)

// Builtin variants.
var (
	High = Variant{
		Name:           "high",
		VertexSource:   vertexSource,
		FragmentSource: highFragmentSource,
		Complexity:     device.TierHigh,
		Description:    "two-wave ripple with cover fit, chromatic split and lighting",
	}
	Medium = Variant{
		Name:           "medium",
		VertexSource:   vertexSource,
		FragmentSource: mediumFragmentSource,
		Complexity:     device.TierMedium,
		Description:    "single-wave ripple with cover fit",
	}
	Low = Variant{
		Name:           "low",
		VertexSource:   vertexSource,
		FragmentSource: lowFragmentSource,
		Complexity:     device.TierLow,
		Description:    "cheap radial distortion, one texture read",
	}
)

var (
	reSampler = regexp.MustCompile(`(?m)^\s*uniform\s+(?:(?:lowp|mediump|highp)\s+)?sampler2D\s+uTexture\s*;`)
	reTime    = regexp.MustCompile(`(?m)^\s*uniform\s+(?:(?:lowp|mediump|highp)\s+)?float\s+uTime\s*;`)
	reVaryUV  = regexp.MustCompile(`(?m)^\s*(?:varying|in)\s+(?:(?:lowp|mediump|highp)\s+)?vec2\s+vUv\s*;`)
	reUseUV   = regexp.MustCompile(`\bvUv\b`)
)

// Validate checks the invariants every variant must satisfy: a non-empty
// name and sources, a known tier, and a fragment stage that declares
// uTexture and uTime and reads vUv.
func (v Variant) Validate() error {
	switch {
	case v.Name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidVariant)
	case v.VertexSource == "" || v.FragmentSource == "":
		return fmt.Errorf("%w: %s: missing source", ErrInvalidVariant, v.Name)
	case v.Complexity < device.TierLow || v.Complexity > device.TierHigh:
		return fmt.Errorf("%w: %s: unknown tier %d", ErrInvalidVariant, v.Name, int(v.Complexity))
	case !reSampler.MatchString(v.FragmentSource):
		return fmt.Errorf("%w: %s: fragment stage does not declare uTexture", ErrInvalidVariant, v.Name)
	case !reTime.MatchString(v.FragmentSource):
		return fmt.Errorf("%w: %s: fragment stage does not declare uTime", ErrInvalidVariant, v.Name)
	case !reVaryUV.MatchString(v.FragmentSource):
		return fmt.Errorf("%w: %s: fragment stage does not declare vUv", ErrInvalidVariant, v.Name)
	}
	// One match is the declaration itself.
	if len(reUseUV.FindAllStringIndex(v.FragmentSource, 2)) < 2 {
		return fmt.Errorf("%w: %s: fragment stage never reads vUv", ErrInvalidVariant, v.Name)
	}
	return nil
}

// Registry maps tiers and names to variants. The zero value is not usable;
// call NewRegistry.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Variant
	byTier [3]string
}

// NewRegistry returns a registry holding the builtin High, Medium and Low
// variants.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Variant)}
	for _, v := range []Variant{Low, Medium, High} {
		if err := r.Register(v); err != nil {
			panic(err) // embedded sources are broken
		}
	}
	return r
}

// Register validates v and makes it the variant for v.Complexity,
// replacing any previous variant of that tier or name.
func (r *Registry) Register(v Variant) error {
	if err := v.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byName[v.Name]; ok && old.Complexity != v.Complexity {
		return fmt.Errorf("%w: %s already registered for tier %s", ErrInvalidVariant, v.Name, old.Complexity)
	}
	if prev := r.byTier[v.Complexity]; prev != "" && prev != v.Name {
		delete(r.byName, prev)
	}
	r.byName[v.Name] = v
	r.byTier[v.Complexity] = v.Name
	return nil
}

// ForTier returns the variant for a tier. Out-of-range tiers map to low.
func (r *Registry) ForTier(t device.Tier) Variant {
	if t < device.TierLow || t > device.TierHigh {
		t = device.TierLow
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[r.byTier[t]]
}

// ForComplexity returns the variant matching a shader complexity.
func (r *Registry) ForComplexity(c device.ShaderComplexity) Variant {
	return r.ForTier(c.Tier())
}

// Lookup returns a variant by name.
func (r *Registry) Lookup(name string) (Variant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.byName[name]
	return v, ok
}

// Names returns the registered variant names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
