// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/ripple/gl"
	"github.com/gogpu/ripple/internal/cache"
	"github.com/gogpu/ripple/internal/slogx"
)

// ErrCompile matches every *CompileError.
var ErrCompile = errors.New("shader: compilation failed")

// Stage names the step of the compile protocol that failed.
type Stage string

// Compile protocol stages.
const (
	StageVertex   Stage = "vertex"
	StageFragment Stage = "fragment"
	StageProgram  Stage = "program"
	StageLink     Stage = "link"
	StageValidate Stage = "validate"
)

// CompileError reports a failed compile, link or validate step. Log holds
// the driver's info log verbatim.
type CompileError struct {
	Stage   Stage
	Variant string
	Log     string
}

func (e *CompileError) Error() string {
	if e.Log == "" {
		return fmt.Sprintf("shader: %s: %s stage failed", e.Variant, e.Stage)
	}
	return fmt.Sprintf("shader: %s: %s stage failed: %s", e.Variant, e.Stage, e.Log)
}

// Is makes errors.Is(err, ErrCompile) hold.
func (e *CompileError) Is(target error) bool { return target == ErrCompile }

// Program is a linked program cached for one context.
type Program struct {
	Variant    Variant
	Handle     gl.Program
	Uniforms   map[string]gl.UniformLocation
	Attributes map[string]gl.AttribLocation
	UseCount   int
	CreatedAt  time.Time
	LastUsedAt time.Time

	key string
	ctx gl.Context
}

// Uniform returns the location of a uniform, -1 if the program lacks it.
func (p *Program) Uniform(name string) gl.UniformLocation {
	if loc, ok := p.Uniforms[name]; ok {
		return loc
	}
	return -1
}

// Attribute returns the location of an attribute, -1 if the program lacks it.
func (p *Program) Attribute(name string) gl.AttribLocation {
	if loc, ok := p.Attributes[name]; ok {
		return loc
	}
	return -1
}

// Key returns the canonical cache key of the program.
func (p *Program) Key() string { return p.key }

// Stats describes cache activity.
type Stats struct {
	// Programs is the number of cached programs.
	Programs int
	// Failed is the number of keys remembered as failing.
	Failed int
	// Compiles counts compile attempts, successful or not.
	Compiles uint64
	Hits     uint64
	Misses   uint64
	HitRate  float64
	// Evictions counts programs removed by Cleanup.
	Evictions uint64
}

// Cache compiles each (context, variant, extra uniforms, extra attributes)
// combination once and hands out the same Program afterwards. Failed
// combinations are remembered and fail fast until Clear.
//
// Cache may be shared by surfaces on different contexts; entries never
// cross contexts.
type Cache struct {
	mu       sync.Mutex
	programs *cache.Cache[string, *Program]
	failures map[string]error
	compiles uint64
	logger   *slog.Logger
	now      func() time.Time
}

// NewCache creates an empty cache. A nil logger disables logging.
func NewCache(logger *slog.Logger) *Cache {
	c := &Cache{
		failures: make(map[string]error),
		logger:   slogx.OrNop(logger),
		now:      time.Now,
	}
	c.programs = cache.New[string, *Program](0, func(key string, p *Program) {
		p.ctx.DeleteProgram(p.Handle)
		c.logger.Debug("shader: program released", "key", key)
	})
	return c
}

// Key builds the canonical key for a request; variant is a Variant.Identity.
// Extra names are sorted and
// deduplicated so callers may pass them in any order.
func Key(id uuid.UUID, variant string, extraUniforms, extraAttributes []string) string {
	var b strings.Builder
	b.WriteString(id.String())
	b.WriteByte('|')
	b.WriteString(variant)
	b.WriteString("|u=")
	b.WriteString(strings.Join(canonical(extraUniforms), ","))
	b.WriteString("|a=")
	b.WriteString(strings.Join(canonical(extraAttributes), ","))
	return b.String()
}

func canonical(names []string) []string {
	out := slices.Clone(names)
	slices.Sort(out)
	return slices.Compact(out)
}

// GetShader returns the program for v on glc, compiling it on first use.
// A cache hit issues no GL calls. ctx is checked before compiling.
func (c *Cache) GetShader(ctx context.Context, glc gl.Context, v Variant, extraUniforms, extraAttributes []string) (*Program, error) {
	if glc == nil {
		return nil, gl.ErrNoContext
	}
	key := Key(glc.ID(), v.Identity(), extraUniforms, extraAttributes)

	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.programs.Get(key); ok {
		p.UseCount++
		p.LastUsedAt = c.now()
		c.logger.Debug("shader: cache hit", "variant", v.Name, "uses", p.UseCount)
		return p, nil
	}
	if err, ok := c.failures[key]; ok {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if glc.IsContextLost() {
		return nil, fmt.Errorf("shader: %s: %w", v.Name, gl.ErrNoContext)
	}

	c.compiles++
	p, err := compile(glc, v, canonical(extraUniforms), canonical(extraAttributes))
	if err != nil {
		c.failures[key] = err
		c.logger.Warn("shader: compile failed", "variant", v.Name, "err", err)
		return nil, err
	}
	now := c.now()
	p.key, p.ctx = key, glc
	p.UseCount, p.CreatedAt, p.LastUsedAt = 1, now, now
	c.programs.Set(key, p)
	c.logger.Info("shader: compiled program", "variant", v.Name,
		"glsl", Directive(glc.ShadingLanguage()),
		"uniforms", len(p.Uniforms), "attributes", len(p.Attributes))
	return p, nil
}

// compile runs the create/compile/attach/link/validate protocol. Every
// object it creates is deleted again on failure; on success only the
// program survives.
func compile(glc gl.Context, v Variant, extraUniforms, extraAttributes []string) (_ *Program, err error) {
	var (
		vs, fs gl.Shader
		prog   gl.Program
	)
	defer func() {
		if err != nil && prog != 0 {
			glc.DeleteProgram(prog)
		}
		if fs != 0 {
			glc.DeleteShader(fs)
		}
		if vs != 0 {
			glc.DeleteShader(vs)
		}
	}()

	lang := glc.ShadingLanguage()
	if vs, err = compileStage(glc, v, gl.VertexShader, Source(v.VertexSource, gl.VertexShader, lang)); err != nil {
		return nil, err
	}
	if fs, err = compileStage(glc, v, gl.FragmentShader, Source(v.FragmentSource, gl.FragmentShader, lang)); err != nil {
		return nil, err
	}

	if prog = glc.CreateProgram(); prog == 0 {
		return nil, &CompileError{Stage: StageProgram, Variant: v.Name, Log: "CreateProgram returned no program"}
	}
	glc.AttachShader(prog, vs)
	glc.AttachShader(prog, fs)
	glc.LinkProgram(prog)
	if !glc.ProgramLinked(prog) {
		return nil, &CompileError{Stage: StageLink, Variant: v.Name, Log: glc.ProgramInfoLog(prog)}
	}
	glc.ValidateProgram(prog)
	if !glc.ProgramValid(prog) {
		return nil, &CompileError{Stage: StageValidate, Variant: v.Name, Log: glc.ProgramInfoLog(prog)}
	}

	p := &Program{
		Variant:    v,
		Handle:     prog,
		Uniforms:   make(map[string]gl.UniformLocation),
		Attributes: make(map[string]gl.AttribLocation),
	}
	for _, name := range append(slices.Clone(StandardUniforms), extraUniforms...) {
		if loc := glc.UniformLocation(prog, name); loc.Valid() {
			p.Uniforms[name] = loc
		}
	}
	for _, name := range append(slices.Clone(StandardAttributes), extraAttributes...) {
		if loc := glc.AttribLocation(prog, name); loc.Valid() {
			p.Attributes[name] = loc
		}
	}
	return p, nil
}

func compileStage(glc gl.Context, v Variant, typ gl.ShaderType, src string) (gl.Shader, error) {
	stage := StageFragment
	if typ == gl.VertexShader {
		stage = StageVertex
	}
	s := glc.CreateShader(typ)
	if s == 0 {
		return 0, &CompileError{Stage: stage, Variant: v.Name, Log: "CreateShader returned no shader"}
	}
	glc.ShaderSource(s, src)
	glc.CompileShader(s)
	if !glc.ShaderCompiled(s) {
		return s, &CompileError{Stage: stage, Variant: v.Name, Log: glc.ShaderInfoLog(s)}
	}
	return s, nil
}

// ReleaseContext deletes every program compiled for glc and forgets its
// failures. Call it before the context is destroyed.
func (c *Cache) ReleaseContext(glc gl.Context) int {
	prefix := glc.ID().String() + "|"
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.failures {
		if strings.HasPrefix(key, prefix) {
			delete(c.failures, key)
		}
	}
	return c.programs.DeleteFunc(func(key string, _ *Program) bool {
		return strings.HasPrefix(key, prefix)
	})
}

// Clear deletes every cached program and forgets every failure.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.programs.Clear()
	clear(c.failures)
}

// Cleanup deletes least recently used programs until at most maxEntries
// remain and returns how many were deleted. It is the only way programs
// leave the cache besides ReleaseContext and Clear.
//
// Surfaces never call Cleanup: a program may still be bound by a mounted
// surface, and only the owner of a shared cache knows when none are.
func (c *Cache) Cleanup(maxEntries int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.programs.Trim(maxEntries)
	if n > 0 {
		c.logger.Debug("shader: cleanup", "evicted", n, "remaining", c.programs.Len())
	}
	return n
}

// Len returns the number of cached programs.
func (c *Cache) Len() int { return c.programs.Len() }

// Stats returns cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.programs.Stats()
	return Stats{
		Programs:  s.Len,
		Failed:    len(c.failures),
		Compiles:  c.compiles,
		Hits:      s.Hits,
		Misses:    s.Misses,
		HitRate:   s.HitRate,
		Evictions: s.Evictions,
	}
}
