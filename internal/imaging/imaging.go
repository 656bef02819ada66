package imaging

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// BandHeight is the number of vertical dots covered by one raster slice.
	BandHeight = 24

	// Threshold is the luminance below which an opaque pixel is burned.
	Threshold = 127
)

// Slice holds 24 vertical dots of one pixel column, MSB first.
type Slice [3]byte

// LoadImage loads an image from file
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// ShouldPrintColor reports whether a pixel is burned (black).
// Pixels that are not fully opaque are never printed. Opaque pixels use
// the fixed rule int(0.299*R + 0.587*G + 0.114*B) < Threshold, computed in
// integer arithmetic so the boundary is exact.
func ShouldPrintColor(c color.Color) bool {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if n.A != 0xff {
		return false
	}
	return Luminance(n.R, n.G, n.B) < Threshold
}

// Luminance returns the truncated ITU-R 601 luma of an 8-bit RGB triple.
func Luminance(r, g, b uint8) int {
	return (299*int(r) + 587*int(g) + 114*int(b)) / 1000
}

// CollectSlice samples column x of img from row y downwards and packs 24 dots
// into three bytes. Rows past the bottom of the image stay blank, which pads
// the last band of images whose height is not a multiple of 24.
// x must be inside the image bounds.
func CollectSlice(img image.Image, x, y int) Slice {
	var s Slice
	bounds := img.Bounds()
	height := bounds.Dy()

	for i := 0; i < 3; i++ {
		var b byte
		for bit := 0; bit < 8; bit++ {
			row := y + i*8 + bit
			if row >= height {
				continue
			}
			if ShouldPrintColor(img.At(bounds.Min.X+x, bounds.Min.Y+row)) {
				b |= 1 << (7 - bit)
			}
		}
		s[i] = b
	}
	return s
}

// RasterBands converts img into 24-dot bands. Each band holds one slice per
// column, left to right, which is the payload order of ESC * 33.
func RasterBands(img image.Image) [][]Slice {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	bands := make([][]Slice, 0, (height+BandHeight-1)/BandHeight)
	for y := 0; y < height; y += BandHeight {
		band := make([]Slice, width)
		for x := 0; x < width; x++ {
			band[x] = CollectSlice(img, x, y)
		}
		bands = append(bands, band)
	}
	return bands
}

// ResizeToWidth scales img uniformly so that it is width dots wide.
// The height is round(origHeight / (origWidth / width)).
func ResizeToWidth(img image.Image, width int) image.Image {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if width <= 0 || srcW == 0 || srcH == 0 {
		return img
	}

	ratio := float64(srcW) / float64(width)
	height := int(math.Round(float64(srcH) / ratio))
	if height < 1 {
		height = 1
	}

	// Nearest-neighbour keeps hard edges, good enough for thermal printing
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}

// FitSize returns the largest size with the aspect ratio of srcW x srcH that
// fits inside maxW x maxH.
func FitSize(srcW, srcH, maxW, maxH int) (int, int) {
	ratioImage := float64(srcW) / float64(srcH)
	ratioMax := float64(maxW) / float64(maxH)

	finalW, finalH := maxW, maxH
	if ratioMax > ratioImage {
		finalW = int(float64(maxH) * ratioImage)
	} else {
		finalH = int(float64(maxW) / ratioImage)
	}
	if finalW < 1 {
		finalW = 1
	}
	if finalH < 1 {
		finalH = 1
	}
	return finalW, finalH
}

// ResizeToFit scales img to the largest size that fits in maxW x maxH while
// keeping its aspect ratio. Non-positive bounds leave the image untouched.
func ResizeToFit(img image.Image, maxW, maxH int) image.Image {
	if maxW <= 0 || maxH <= 0 {
		return img
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return img
	}

	newW, newH := FitSize(bounds.Dx(), bounds.Dy(), maxW, maxH)
	dst := image.NewNRGBA(image.Rect(0, 0, newW, newH))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}
