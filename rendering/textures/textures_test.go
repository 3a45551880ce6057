package textures

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func paletted(w, h int) image.Image {
	img := image.NewPaletted(image.Rect(0, 0, w, h), color.Palette{
		color.RGBA{0, 0, 255, 255},
		color.RGBA{0, 255, 0, 255},
	})
	for x := 0; x < w; x++ {
		img.SetColorIndex(x, 0, 1)
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeConvertsToRGBA(t *testing.T) {
	got, err := Decode(bytes.NewReader(encodePNG(t, paletted(4, 2))))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Bounds() != image.Rect(0, 0, 4, 2) {
		t.Fatalf("bounds: got %v", got.Bounds())
	}
	if c := got.RGBAAt(0, 0); c != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("top row: got %v, want green", c)
	}
	if c := got.RGBAAt(3, 1); c != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("bottom row: got %v, want blue", c)
	}
	if got.Stride != 16 {
		t.Errorf("stride: got %d, want 16", got.Stride)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(strings.NewReader("not an image"))
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "earth.png")
	if err := os.WriteFile(path, encodePNG(t, paletted(8, 4)), 0o644); err != nil {
		t.Fatal(err)
	}
	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if img.Bounds().Dx() != 8 {
		t.Errorf("width: got %d", img.Bounds().Dx())
	}

	if _, err := Load(filepath.Join(dir, "missing.png")); !os.IsNotExist(err) {
		t.Errorf("missing file: got %v", err)
	}
}

func TestResize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 200))
	tests := []struct {
		name  string
		max   int
		wantW int
		wantH int
	}{
		{"within bounds", 512, 400, 200},
		{"disabled", 0, 400, 200},
		{"halved", 200, 200, 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Resize(img, tc.max).Bounds()
			if got.Dx() != tc.wantW || got.Dy() != tc.wantH {
				t.Errorf("got %dx%d, want %dx%d", got.Dx(), got.Dy(), tc.wantW, tc.wantH)
			}
		})
	}
}
