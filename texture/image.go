package texture

import (
	"fmt"
	"image"
	"io"

	// Source image formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/ripple/device"
)

// Interpolator returns the resampling kernel for a quality tier.
func Interpolator(q device.Tier) draw.Interpolator {
	switch q {
	case device.TierHigh:
		return draw.CatmullRom
	case device.TierMedium:
		return draw.ApproxBiLinear
	default:
		return draw.NearestNeighbor
	}
}

// Resample scales src into a new RGBA image of the given dimensions.
func Resample(src image.Image, dims Dimensions, q device.Tier) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, max(dims.Width, 1), max(dims.Height, 1)))
	Interpolator(q).Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// DecodeConfig reads the natural size and format name of an encoded image
// (PNG, JPEG, GIF, BMP or WebP) without decoding pixels.
func DecodeConfig(r io.Reader) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return image.Config{}, "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return cfg, format, nil
}

// Decode decodes an encoded image.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return img, format, nil
}

// Prepare resamples img to the texture size cfg allows and returns the
// tightly packed RGBA pixels ready for upload.
func Prepare(img image.Image, cfg ScaleConfig) ([]byte, Dimensions) {
	b := img.Bounds()
	dims := ScaleDimensions(b.Dx(), b.Dy(), cfg)
	rgba := Resample(img, dims, cfg.Quality)
	return rgba.Pix, dims
}
