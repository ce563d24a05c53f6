package fallback

import (
	"fmt"
	"strings"

	"github.com/gogpu/ripple/device"
)

// AnimationName is the keyframes rule ripple elements animate with.
const AnimationName = "ripple-expand"

// Keyframes returns the stylesheet rule the host installs once.
func Keyframes() string {
	return "@keyframes " + AnimationName +
		"{from{transform:scale(0);opacity:1}to{transform:scale(1);opacity:0}}"
}

// Style returns the inline CSS for a ripple element. The element is centred
// on the anchor and scales from 0 to its full size over the ripple's
// lifetime.
func (e *Engine) Style(r Ripple) string {
	e.mu.Lock()
	tier, scale := e.cfg.Tier, e.cfg.Intensity.Scale()
	e.mu.Unlock()

	half := r.Size / 2
	alpha := min(0.35*scale, 0.6)

	var b strings.Builder
	fmt.Fprintf(&b, "position:absolute;left:%.1fpx;top:%.1fpx;", r.X-half, r.Y-half)
	fmt.Fprintf(&b, "width:%.1fpx;height:%.1fpx;", r.Size, r.Size)
	b.WriteString("border-radius:50%;pointer-events:none;will-change:transform,opacity;")
	fmt.Fprintf(&b, "animation:%s %dms cubic-bezier(0.25,0.8,0.25,1) forwards;", AnimationName, r.Duration.Milliseconds())
	switch tier {
	case device.TierHigh:
		fmt.Fprintf(&b, "background:radial-gradient(circle,rgba(255,255,255,%.2f) 0%%,rgba(255,255,255,0) 70%%);", alpha)
		b.WriteString("backdrop-filter:blur(2px);")
	case device.TierMedium:
		fmt.Fprintf(&b, "background:radial-gradient(circle,rgba(255,255,255,%.2f) 0%%,rgba(255,255,255,0) 70%%);", alpha)
	default:
		fmt.Fprintf(&b, "border:2px solid rgba(255,255,255,%.2f);", alpha)
	}
	return b.String()
}

// ContainerStyle returns the inline CSS for the container showing the
// source image.
func (e *Engine) ContainerStyle() string {
	e.mu.Lock()
	src := e.cfg.Src
	e.mu.Unlock()
	return fmt.Sprintf("position:relative;overflow:hidden;background-image:url(%q);background-size:cover;background-position:center;", src)
}

// Alt returns the alternative text of the image.
func (e *Engine) Alt() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.Alt
}
