package phash

import (
	"image"
	"image/color"
	"image/png"
	"math/bits"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, checker bool) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			c := color.RGBA{A: 255}
			if checker {
				if (x/8+y/8)%2 == 0 {
					c.R, c.G, c.B = 255, 255, 255
				}
			} else {
				g := uint8((x * 255) / 64)
				c.R, c.G, c.B = g, g, g
			}
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "img.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestComputeEachAlgorithm(t *testing.T) {
	path := writePNG(t, true)
	for _, name := range []string{"ahash", "dhash", "phash"} {
		h, err := New(name)
		if err != nil {
			t.Fatalf("New(%s): %v", name, err)
		}
		res, ok, err := h.Compute(path)
		if err != nil || !ok {
			t.Fatalf("%s Compute: ok=%v err=%v", name, ok, err)
		}
		if res.Method != name {
			t.Fatalf("%s Method = %q", name, res.Method)
		}
	}
}

func TestUnsupportedFormatIsNotError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-an-image.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	h, _ := New("ahash")
	_, ok, err := h.Compute(path)
	if err != nil {
		t.Fatalf("expected no error for unsupported format, got %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for non-image file")
	}
}

func TestHammingSymmetryAndIdentity(t *testing.T) {
	h, _ := New("ahash")
	a, _, _ := h.Compute(writePNG(t, true))
	b, _, _ := h.Compute(writePNG(t, false))

	dAB := bits.OnesCount64(a.Value ^ b.Value)
	dBA := bits.OnesCount64(b.Value ^ a.Value)
	if dAB != dBA {
		t.Fatalf("expected symmetric distance, got %d vs %d", dAB, dBA)
	}
	if bits.OnesCount64(a.Value^a.Value) != 0 {
		t.Fatal("expected zero distance to self")
	}
}

func TestUnknownAlgorithm(t *testing.T) {
	if _, err := New("nonsense"); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}
