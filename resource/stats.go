package resource

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Estimation constants.
const (
	// DefaultTextureBytes is assumed for textures registered without a size.
	DefaultTextureBytes = 1024 * 1024 * 4
	// ProgramOverheadBytes is a rough per-program driver cost.
	ProgramOverheadBytes = 16 * 1024
)

// BytesPerPixel returns the size of one texel of f. Undefined and
// unrecognised formats count as RGBA8; block-compressed formats are not
// used by ripple and also fall back to 4.
func BytesPerPixel(f gputypes.TextureFormat) int64 {
	switch f {
	case gputypes.TextureFormatR8Unorm, gputypes.TextureFormatR8Snorm,
		gputypes.TextureFormatR8Uint, gputypes.TextureFormatR8Sint,
		gputypes.TextureFormatStencil8:
		return 1
	case gputypes.TextureFormatR16Unorm, gputypes.TextureFormatR16Snorm,
		gputypes.TextureFormatR16Uint, gputypes.TextureFormatR16Sint,
		gputypes.TextureFormatR16Float, gputypes.TextureFormatRG8Unorm,
		gputypes.TextureFormatRG8Snorm, gputypes.TextureFormatRG8Uint,
		gputypes.TextureFormatRG8Sint, gputypes.TextureFormatDepth16Unorm:
		return 2
	case gputypes.TextureFormatRG32Float, gputypes.TextureFormatRG32Uint,
		gputypes.TextureFormatRG32Sint, gputypes.TextureFormatRGBA16Unorm,
		gputypes.TextureFormatRGBA16Snorm, gputypes.TextureFormatRGBA16Uint,
		gputypes.TextureFormatRGBA16Sint, gputypes.TextureFormatRGBA16Float,
		gputypes.TextureFormatDepth32FloatStencil8:
		return 8
	case gputypes.TextureFormatRGBA32Float, gputypes.TextureFormatRGBA32Uint,
		gputypes.TextureFormatRGBA32Sint:
		return 16
	default:
		return 4
	}
}

// Bytes estimates the memory held by the texture. A full mip chain adds a
// third.
func (i TextureInfo) Bytes() int64 {
	if i.Width <= 0 || i.Height <= 0 {
		return DefaultTextureBytes
	}
	n := int64(i.Width) * int64(i.Height) * BytesPerPixel(i.Format)
	if i.Mipmaps {
		n += n / 3
	}
	return n
}

// Stats summarises the resources held by a Manager.
type Stats struct {
	Textures int
	Buffers  int
	Programs int

	TextureBytes int64
	BufferBytes  int64
	ProgramBytes int64
	// TotalBytes is the sum of the byte estimates.
	TotalBytes int64

	// Released counts handles deleted over the manager's lifetime.
	Released uint64
	// PressureEvents counts memory-pressure notifications received.
	PressureEvents uint64
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("Resources[%d textures, %d buffers, %d programs, %.1f MB, %d released]",
		s.Textures, s.Buffers, s.Programs,
		float64(s.TotalBytes)/(1024*1024),
		s.Released)
}

// Stats returns current resource statistics.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Stats{
		Textures:       len(m.textures),
		Buffers:        len(m.buffers),
		Programs:       len(m.programs),
		ProgramBytes:   int64(len(m.programs)) * ProgramOverheadBytes,
		Released:       m.released,
		PressureEvents: m.pressureEvents,
	}
	for _, info := range m.textures {
		s.TextureBytes += info.Bytes()
	}
	for _, size := range m.buffers {
		s.BufferBytes += size
	}
	s.TotalBytes = s.TextureBytes + s.BufferBytes + s.ProgramBytes
	return s
}

// EstimatedMemoryUsage returns a best-effort byte estimate of the
// registered resources.
func (m *Manager) EstimatedMemoryUsage() int64 {
	return m.Stats().TotalBytes
}
