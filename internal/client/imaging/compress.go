package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

var ErrCompressionFailed = errors.New("image compression failed")

// Defaults match what the capture page always uploaded.
const (
	DefaultMaxWidth  = 800
	DefaultMaxHeight = 600
	DefaultMaxBytes  = 40 << 10

	startQuality = 90
	floorQuality = 10
	qualityStep  = 10
)

type Options struct {
	MaxBytes  int
	MaxWidth  int
	MaxHeight int
}

func (o Options) withDefaults() Options {
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = DefaultMaxHeight
	}
	return o
}

// Compress downscales src so neither dimension exceeds the maxima
// (aspect ratio preserved, never upscaled) and then re-encodes JPEG at
// decreasing quality until the output fits the byte budget or the
// quality floor is hit. At the floor the last encoding is returned as
// is; the budget is a target, not a hard limit. Deterministic and
// bounded: at most (90-10)/10 + 1 = 9 encode passes.
func Compress(src image.Image, opts Options) ([]byte, error) {
	opts = opts.withDefaults()

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrCompressionFailed
	}

	scale := 1.0
	if s := float64(opts.MaxWidth) / float64(w); s < scale {
		scale = s
	}
	if s := float64(opts.MaxHeight) / float64(h); s < scale {
		scale = s
	}

	if scale < 1 {
		dw := int(float64(w)*scale + 0.5)
		dh := int(float64(h)*scale + 0.5)
		if dw < 1 {
			dw = 1
		}
		if dh < 1 {
			dh = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		src = dst
	}

	var buf bytes.Buffer
	for q := startQuality; q >= floorQuality; q -= qualityStep {
		buf.Reset()
		if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: q}); err != nil {
			return nil, ErrCompressionFailed
		}
		if buf.Len() <= opts.MaxBytes {
			break
		}
	}
	if buf.Len() == 0 {
		return nil, ErrCompressionFailed
	}
	return buf.Bytes(), nil
}

// CompressJPEG is Compress over already-encoded image bytes, the form a
// camera device hands back.
func CompressJPEG(data []byte, opts Options) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrCompressionFailed
	}
	return Compress(src, opts)
}
