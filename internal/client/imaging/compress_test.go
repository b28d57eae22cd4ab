package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

// gradient keeps the JPEG from collapsing to a few hundred bytes.
func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 7),
				G: uint8(y * 13),
				B: uint8((x + y) * 3),
				A: 255,
			})
		}
	}
	return img
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a decodable JPEG: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestCompressNeverUpscales(t *testing.T) {
	out, err := Compress(testImage(100, 80), Options{MaxBytes: 1 << 20, MaxWidth: 800, MaxHeight: 600})
	if err != nil {
		t.Fatal(err)
	}
	w, h := decodeSize(t, out)
	if w != 100 || h != 80 {
		t.Errorf("dimensions = %dx%d, want 100x80 (no upscaling)", w, h)
	}
}

func TestCompressDownscalesPreservingAspect(t *testing.T) {
	cases := []struct {
		inW, inH   int
		wantW, wantH int
	}{
		{2000, 1500, 800, 600}, // same ratio as the maxima
		{1600, 600, 800, 300},  // width-bound
		{400, 1200, 200, 600},  // height-bound
	}
	for _, tc := range cases {
		out, err := Compress(testImage(tc.inW, tc.inH), Options{MaxBytes: 1 << 20, MaxWidth: 800, MaxHeight: 600})
		if err != nil {
			t.Fatalf("%dx%d: %v", tc.inW, tc.inH, err)
		}
		w, h := decodeSize(t, out)
		if w != tc.wantW || h != tc.wantH {
			t.Errorf("%dx%d -> %dx%d, want %dx%d", tc.inW, tc.inH, w, h, tc.wantW, tc.wantH)
		}
	}
}

func TestCompressMeetsBudget(t *testing.T) {
	out, err := Compress(testImage(800, 600), Options{MaxBytes: 60 << 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) > 60<<10 {
		t.Errorf("output %d bytes exceeds generous budget", len(out))
	}
}

func TestCompressAcceptsFloorQuality(t *testing.T) {
	// A 1-byte budget can never be met; the floor encoding must still
	// come back without an error.
	out, err := Compress(testImage(800, 600), Options{MaxBytes: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) == 0 {
		t.Fatal("empty output at quality floor")
	}
}

func TestCompressJPEGRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(1024, 768), &jpeg.Options{Quality: 95}); err != nil {
		t.Fatal(err)
	}

	out, err := CompressJPEG(buf.Bytes(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	w, h := decodeSize(t, out)
	if w != 800 || h != 600 {
		t.Errorf("dimensions = %dx%d, want 800x600", w, h)
	}
}

func TestCompressJPEGGarbageFails(t *testing.T) {
	if _, err := CompressJPEG([]byte("not a jpeg"), Options{}); err == nil {
		t.Fatal("garbage input must fail")
	}
}
