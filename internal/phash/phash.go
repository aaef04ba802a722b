// Package phash implements forg's perceptual-hasher providers: ahash,
// dhash, and phash, each producing a 64-bit image fingerprint compared by
// Hamming distance (spec.md §4.5). No example repo in this pack imports an
// image-processing library, so this package is built entirely on the
// standard library's image decode-and-resize path; see DESIGN.md for that
// justification.
package phash

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sort"

	"github.com/forgcli/forg/internal/forgerr"
	"github.com/forgcli/forg/internal/model"
)

// Result is one algorithm's computed fingerprint.
type Result struct {
	Value  uint64
	Method string
}

// Hasher is the perceptual-hasher provider contract.
type Hasher interface {
	// Compute returns the fingerprint for path, or ok=false if the format
	// isn't a decodable image.
	Compute(path string) (Result, bool, error)
}

type algo struct {
	name string
	fn   func(img image.Image) uint64
}

func (a algo) Compute(path string) (Result, bool, error) {
	img, err := decodeImage(path)
	if err != nil {
		return Result{}, false, nil //nolint:nilerr // unsupported/corrupt image: not an error, just no fingerprint
	}
	return Result{Value: a.fn(img), Method: a.name}, true, nil
}

// New builds the named perceptual hasher ("ahash", "dhash", or "phash").
func New(name string) (Hasher, error) {
	switch name {
	case model.AlgoAHash:
		return algo{name: model.AlgoAHash, fn: aHash}, nil
	case model.AlgoDHash:
		return algo{name: model.AlgoDHash, fn: dHash}, nil
	case model.AlgoPHash:
		return algo{name: model.AlgoPHash, fn: pHash}, nil
	default:
		return nil, forgerr.Newf(forgerr.InvalidInput, "phash.New", "unknown perceptual hash algorithm %q", name)
	}
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// grid is a row-major matrix of grayscale luma samples in [0,255].
type grid struct {
	w, h int
	px   []float64
}

func (g grid) at(row, col int) float64 { return g.px[row*g.w+col] }

// resizeGray downscales img to w x h grayscale samples, averaging each
// destination pixel over its mapped source region (box filter).
func resizeGray(img image.Image, w, h int) grid {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	out := grid{w: w, h: h, px: make([]float64, w*h)}

	for row := 0; row < h; row++ {
		y0 := bounds.Min.Y + row*srcH/h
		y1 := bounds.Min.Y + (row+1)*srcH/h
		if y1 <= y0 {
			y1 = y0 + 1
		}
		for col := 0; col < w; col++ {
			x0 := bounds.Min.X + col*srcW/w
			x1 := bounds.Min.X + (col+1)*srcW/w
			if x1 <= x0 {
				x1 = x0 + 1
			}
			var sum float64
			var n int
			for y := y0; y < y1 && y < bounds.Max.Y; y++ {
				for x := x0; x < x1 && x < bounds.Max.X; x++ {
					r, gg, b, _ := img.At(x, y).RGBA()
					// Rec. 601 luma; At() returns 16-bit-per-channel values.
					lum := 0.299*float64(r) + 0.587*float64(gg) + 0.114*float64(b)
					sum += lum / 257 // scale 16-bit channel range down to [0,255]
					n++
				}
			}
			if n == 0 {
				n = 1
			}
			out.px[row*w+col] = sum / float64(n)
		}
	}
	return out
}

// packMSBFirst packs bits (row-major, one bool per position) into a uint64
// with position (0,0) as the most significant bit, per spec.md §4.5.
func packMSBFirst(bits []bool) uint64 {
	var v uint64
	n := len(bits)
	for i, b := range bits {
		if b {
			v |= 1 << uint(n-1-i)
		}
	}
	return v
}

// aHash: downscale to 8x8 grayscale; bit i = 1 iff pixel i >= mean.
func aHash(img image.Image) uint64 {
	g := resizeGray(img, 8, 8)
	var sum float64
	for _, v := range g.px {
		sum += v
	}
	mean := sum / float64(len(g.px))

	bits := make([]bool, len(g.px))
	for i, v := range g.px {
		bits[i] = v >= mean
	}
	return packMSBFirst(bits)
}

// dHash: downscale to 9x8 grayscale; bit i = 1 iff pixel[row,col] >
// pixel[row,col+1], yielding 64 bits (8 per row, 8 rows).
func dHash(img image.Image) uint64 {
	g := resizeGray(img, 9, 8)
	bits := make([]bool, 0, 64)
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			bits = append(bits, g.at(row, col) > g.at(row, col+1))
		}
	}
	return packMSBFirst(bits)
}

// pHash: downscale to 32x32 grayscale, apply a 2-D DCT, take the top-left
// 8x8 block excluding the DC term, bit i = 1 iff coefficient >= median of
// that block.
func pHash(img image.Image) uint64 {
	g := resizeGray(img, 32, 32)
	coeffs := dct2D(g.px, 32, 32)

	const block = 8
	values := make([]float64, 0, block*block-1)
	for row := 0; row < block; row++ {
		for col := 0; col < block; col++ {
			if row == 0 && col == 0 {
				continue // exclude the DC term
			}
			values = append(values, coeffs[row*32+col])
		}
	}
	median := medianOf(values)

	bits := make([]bool, 0, block*block)
	for row := 0; row < block; row++ {
		for col := 0; col < block; col++ {
			if row == 0 && col == 0 {
				bits = append(bits, coeffs[0] >= median)
				continue
			}
			bits = append(bits, coeffs[row*32+col] >= median)
		}
	}
	return packMSBFirst(bits)
}

func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
