package ripple

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/ripple/device"
	"github.com/gogpu/ripple/gl"
	"github.com/gogpu/ripple/resource"
	"github.com/gogpu/ripple/shader"
	"github.com/gogpu/ripple/texture"
)

// intensityUniform is the one uniform ripple adds to the standard set.
const intensityUniform = "uIntensity"

// quadVertices is a full-element triangle strip: position.xy, uv.xy.
var quadVertices = []float32{
	-1, -1, 0, 1,
	1, -1, 1, 1,
	-1, 1, 0, 0,
	1, 1, 1, 0,
}

const (
	quadStride   = 4 * 4
	quadUVOffset = 2 * 4
)

// webglRenderer draws the ripple shader over the image texture.
//
// The program belongs to the surface's shader cache. The texture and the
// quad buffer are registered with the resource manager and released on
// Unmount or when the manager is disposed.
type webglRenderer struct {
	s *Surface

	prog        *shader.Program
	tex         gl.Texture
	quad        gl.Buffer
	placeholder bool
	aspect      float64

	width, height  int
	start          time.Time
	mouseX, mouseY float32
	idle           bool
}

func newWebGLRenderer(s *Surface) Renderer {
	return &webglRenderer{s: s, mouseX: 0.5, mouseY: 0.5, aspect: 1}
}

func (r *webglRenderer) Mount(width, height int) error {
	glc := r.s.glc
	if glc == nil || glc.IsContextLost() {
		return fmt.Errorf("%w: %w", ErrFallbackToCSS, gl.ErrNoContext)
	}
	r.width, r.height = width, height
	if err := r.useVariant(r.s.variants.ForComplexity(r.s.class.Settings.ShaderComplexity)); err != nil {
		return err
	}
	if err := r.uploadTexture(); err != nil {
		r.Unmount()
		return err
	}

	buf := glc.CreateBuffer()
	if buf == 0 {
		r.Unmount()
		return fmt.Errorf("%w: create vertex buffer", ErrFallbackToCSS)
	}
	glc.BufferData(buf, quadVertices)
	if err := r.s.resources.RegisterBuffer(buf, int64(len(quadVertices)*4)); err != nil {
		glc.DeleteBuffer(buf)
		r.Unmount()
		return err
	}
	r.quad = buf
	return nil
}

func (r *webglRenderer) useVariant(v shader.Variant) error {
	prog, err := r.s.programs.GetShader(context.Background(), r.s.glc, v, []string{intensityUniform}, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFallbackToCSS, err)
	}
	r.prog = prog
	return nil
}

// uploadTexture uploads the preloaded image, or a transparent 1×1
// placeholder until the image is available.
func (r *webglRenderer) uploadTexture() error {
	glc := r.s.glc
	var (
		pixels []byte
		dims   texture.Dimensions
	)
	img, ok := r.s.images.Lookup(r.s.opts.src)
	if ok && img.Pixels != nil {
		pixels, dims = texture.Prepare(img.Pixels, r.s.scale)
		r.aspect, r.placeholder = img.Aspect(), false
	} else {
		pixels, dims = make([]byte, 4), texture.Dimensions{Width: 1, Height: 1, Scale: 1}
		r.aspect, r.placeholder = 1, true
	}

	tex := glc.CreateTexture()
	if tex == 0 {
		return fmt.Errorf("%w: create texture", ErrFallbackToCSS)
	}
	glc.TexImage2D(tex, dims.Width, dims.Height, pixels)
	info := resource.TextureInfo{
		Width:  dims.Width,
		Height: dims.Height,
		Format: r.s.scale.Format,
		Label:  r.s.opts.src,
	}
	if err := r.s.resources.RegisterTexture(tex, info); err != nil {
		glc.DeleteTexture(tex)
		return err
	}
	if r.tex != 0 {
		r.s.resources.ReleaseTexture(r.tex)
	}
	r.tex = tex
	return nil
}

func (r *webglRenderer) Render(now time.Time) error {
	glc := r.s.glc
	if glc.IsContextLost() {
		return fmt.Errorf("%w: %w", ErrFallbackToCSS, gl.ErrNoContext)
	}
	if r.placeholder && r.s.images.IsPreloaded(r.s.opts.src) {
		if err := r.uploadTexture(); err != nil {
			return err
		}
	}
	if r.start.IsZero() {
		r.start = now
	}
	t := now.Sub(r.start).Seconds()
	if r.idle {
		r.mouseX = float32(0.5 + 0.25*math.Cos(t*0.8))
		r.mouseY = float32(0.5 + 0.25*math.Sin(t*1.1))
	}

	plane := 1.0
	if r.height > 0 {
		plane = float64(r.width) / float64(r.height)
	}

	p := r.prog
	glc.Viewport(0, 0, r.width, r.height)
	glc.Clear(0, 0, 0, 0)
	glc.UseProgram(p.Handle)
	glc.Uniform1i(p.Uniform("uTexture"), 0)
	glc.Uniform1f(p.Uniform("uTime"), float32(t))
	glc.Uniform1f(p.Uniform("uImageAspect"), float32(r.aspect))
	glc.Uniform1f(p.Uniform("uPlaneAspect"), float32(plane))
	glc.Uniform2f(p.Uniform("uMouse"), r.mouseX, r.mouseY)
	glc.Uniform1f(p.Uniform(intensityUniform), float32(r.s.cfg.RippleIntensity.Scale()))
	glc.VertexAttribPointer(p.Attribute("position"), r.quad, 2, quadStride, 0)
	glc.VertexAttribPointer(p.Attribute("uv"), r.quad, 2, quadStride, quadUVOffset)
	glc.DrawArrays(0, 4)
	return nil
}

func (r *webglRenderer) Pointer(x, y float64, _ bool) {
	if r.width <= 0 || r.height <= 0 {
		return
	}
	r.mouseX = float32(clamp01(x / float64(r.width)))
	r.mouseY = float32(clamp01(1 - y/float64(r.height)))
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func (r *webglRenderer) SetIdle(idle bool) {
	r.idle = idle
	if !idle {
		r.mouseX, r.mouseY = 0.5, 0.5
	}
}

// SetTier switches to the tier's shader variant and re-uploads the texture
// at the tier's size.
func (r *webglRenderer) SetTier(t device.Tier) error {
	if err := r.useVariant(r.s.variants.ForTier(t)); err != nil {
		return err
	}
	return r.uploadTexture()
}

func (r *webglRenderer) Resize(width, height int) {
	r.width, r.height = width, height
}

func (r *webglRenderer) Unmount() {
	if r.tex != 0 {
		r.s.resources.ReleaseTexture(r.tex)
		r.tex = 0
	}
	if r.quad != 0 {
		r.s.resources.ReleaseBuffer(r.quad)
		r.quad = 0
	}
	r.prog = nil
}
